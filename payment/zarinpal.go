package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	zarinPalSandboxRequestURL = "https://sandbox.zarinpal.com/pg/v4/payment/request.json"
	zarinPalSandboxVerifyURL  = "https://sandbox.zarinpal.com/pg/v4/payment/verify.json"
	zarinPalSandboxPageURL    = "https://sandbox.zarinpal.com/pg/StartPay/"

	zarinPalRequestURL = "https://api.zarinpal.com/pg/v4/payment/request.json"
	zarinPalVerifyURL  = "https://api.zarinpal.com/pg/v4/payment/verify.json"
	zarinPalPageURL    = "https://www.zarinpal.com/pg/StartPay/"
)

// ZarinPalEndpoints lets tests point the client at a fake gateway.
type ZarinPalEndpoints struct {
	RequestURL string
	VerifyURL  string
	PageURL    string
}

type zarinPalClient struct {
	creds     Credentials
	endpoints ZarinPalEndpoints
	http      *http.Client
}

func (z *zarinPalClient) post(url string, payload any) (*GatewayResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := z.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result GatewayResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}
	result.Raw = raw
	return &result, nil
}

// PaymentRequest asks the provider for an authority token.
func (z *zarinPalClient) PaymentRequest(amount decimal.Decimal, description string) (*GatewayResponse, error) {
	payload := map[string]any{
		"merchant_id":  z.creds.MerchantID,
		"amount":       amount.String(),
		"callback_url": z.creds.CallbackURL,
		"description":  description,
		"metadata":     map[string]string{},
	}
	return z.post(z.endpoints.RequestURL, payload)
}

// GeneratePaymentURL builds the StartPay redirect for an authority.
func (z *zarinPalClient) GeneratePaymentURL(authority string) string {
	return z.endpoints.PageURL + authority
}

// PaymentVerify settles the authority against the provider.
func (z *zarinPalClient) PaymentVerify(amount decimal.Decimal, authority string) (*GatewayResponse, error) {
	payload := map[string]any{
		"merchant_id": z.creds.MerchantID,
		"amount":      amount.String(),
		"authority":   authority,
	}
	return z.post(z.endpoints.VerifyURL, payload)
}

// ZarinPalFactory builds processor/verifier pairs against one endpoint set.
type ZarinPalFactory struct {
	creds     Credentials
	endpoints ZarinPalEndpoints
	http      *http.Client
}

func NewZarinPalSandboxFactory(creds Credentials) *ZarinPalFactory {
	return &ZarinPalFactory{
		creds: creds,
		endpoints: ZarinPalEndpoints{
			RequestURL: zarinPalSandboxRequestURL,
			VerifyURL:  zarinPalSandboxVerifyURL,
			PageURL:    zarinPalSandboxPageURL,
		},
	}
}

func NewZarinPalProductionFactory(creds Credentials) *ZarinPalFactory {
	return &ZarinPalFactory{
		creds: creds,
		endpoints: ZarinPalEndpoints{
			RequestURL: zarinPalRequestURL,
			VerifyURL:  zarinPalVerifyURL,
			PageURL:    zarinPalPageURL,
		},
	}
}

// NewZarinPalFactory builds a factory with explicit endpoints; tests use it
// with an httptest server.
func NewZarinPalFactory(creds Credentials, endpoints ZarinPalEndpoints) *ZarinPalFactory {
	return &ZarinPalFactory{creds: creds, endpoints: endpoints}
}

func (f *ZarinPalFactory) client() *zarinPalClient {
	httpClient := f.http
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &zarinPalClient{creds: f.creds, endpoints: f.endpoints, http: httpClient}
}

func (f *ZarinPalFactory) CreateProcessor() Processor { return f.client() }

func (f *ZarinPalFactory) CreateVerifier() Verifier { return f.client() }
