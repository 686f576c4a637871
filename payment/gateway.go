// Package payment drives the redirect/callback flow against payment
// providers and keeps the Payment state machine.
package payment

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// GatewayResponse is the decoded provider response shared by request and
// verify calls. Raw keeps the undecoded body for persistence.
type GatewayResponse struct {
	Data struct {
		Authority string `json:"authority"`
		Code      int    `json:"code"`
		RefID     int64  `json:"ref_id"`
		Message   string `json:"message"`
	} `json:"data"`
	Errors struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`

	Raw json.RawMessage `json:"-"`
}

// VerifySuccessCode is the provider code meaning a verified payment.
const VerifySuccessCode = 100

// Processor starts a payment: an outbound request yielding an authority, and
// the browser-redirect URL built from it.
type Processor interface {
	PaymentRequest(amount decimal.Decimal, description string) (*GatewayResponse, error)
	GeneratePaymentURL(authority string) string
}

// Verifier settles a payment after the gateway calls back.
type Verifier interface {
	PaymentVerify(amount decimal.Decimal, authority string) (*GatewayResponse, error)
}

// Factory produces a matched processor/verifier pair for one gateway in one
// environment mode.
type Factory interface {
	CreateProcessor() Processor
	CreateVerifier() Verifier
}

// Credentials is the merchant-side configuration shared by all factories.
type Credentials struct {
	MerchantID  string
	CallbackURL string
}

// FactoryFor selects the factory for a gateway name and sandbox mode.
func FactoryFor(gatewayName string, sandbox bool, creds Credentials) (Factory, error) {
	switch gatewayName {
	case "zarinpal":
		if sandbox {
			return NewZarinPalSandboxFactory(creds), nil
		}
		return NewZarinPalProductionFactory(creds), nil
	}
	return nil, fmt.Errorf("unknown payment gateway: %s (sandbox: %t)", gatewayName, sandbox)
}
