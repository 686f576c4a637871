package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/arvand-shop/storefront-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrPaymentExpired means the 11-minute window closed before the
	// gateway called back or before a redirect URL was regenerated.
	ErrPaymentExpired = errors.New("payment window has expired")

	// ErrPaymentSettled means the payment already reached SUCCESS or
	// FAILED; terminal payments never transition again.
	ErrPaymentSettled = errors.New("payment has already been settled")
)

// FactoryFunc resolves a gateway factory; swapped in tests.
type FactoryFunc func(gatewayName string, sandbox bool, creds Credentials) (Factory, error)

// Service orchestrates payment rows: creation, initiation (outbound request)
// and verification (inbound callback).
type Service struct {
	db        *gorm.DB
	sandbox   bool
	creds     Credentials
	factoryFn FactoryFunc
}

func NewService(db *gorm.DB, sandbox bool, creds Credentials) *Service {
	return &Service{db: db, sandbox: sandbox, creds: creds, factoryFn: FactoryFor}
}

// WithFactory overrides gateway resolution; tests point it at a fake.
func (s *Service) WithFactory(fn FactoryFunc) *Service {
	s.factoryFn = fn
	return s
}

func (s *Service) factory(gatewayName string) (Factory, error) {
	return s.factoryFn(gatewayName, s.sandbox, s.creds)
}

// CreatePayment persists a PENDING payment row for an order.
func (s *Service) CreatePayment(gateway *models.PaymentGateway, amount decimal.Decimal, order *models.Order, userID *uint, description string) (*models.Payment, error) {
	p := &models.Payment{
		GatewayID:   gateway.ID,
		Gateway:     *gateway,
		OrderID:     order.ID,
		UserID:      userID,
		Amount:      amount,
		Status:      models.PaymentStatusPending,
		Description: description,
	}
	if err := s.db.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// InitiatePayment asks the gateway for an authority and returns the redirect
// URL. On any failure the payment stays PENDING and non-terminal so the
// caller can re-offer gateway selection.
func (s *Service) InitiatePayment(p *models.Payment, description string) (string, string, error) {
	factory, err := s.factory(p.Gateway.Name)
	if err != nil {
		return "", "", err
	}
	processor := factory.CreateProcessor()

	result, err := processor.PaymentRequest(p.Amount, description)
	if err != nil {
		return "", "", err
	}
	if result.Data.Authority == "" {
		message := result.Errors.Message
		if message == "" {
			message = "could not connect to the payment gateway"
		}
		return "", "", errors.New(message)
	}

	authority := result.Data.Authority
	p.AuthorityID = authority
	p.ResponseJSON = string(result.Raw)
	if err := s.db.Save(p).Error; err != nil {
		return "", "", err
	}

	return processor.GeneratePaymentURL(authority), authority, nil
}

// VerifyPayment settles a pending payment against the gateway. Code 100
// yields SUCCESS with the gateway's ref id; any other code yields FAILED
// with that code as the error. A transport failure also marks the payment
// FAILED, storing the error text as its response payload, so no row is left
// dangling in PENDING.
func (s *Service) VerifyPayment(p *models.Payment) (bool, int64, error) {
	if p.Status != models.PaymentStatusPending {
		return p.Status == models.PaymentStatusSuccess, 0, ErrPaymentSettled
	}

	factory, err := s.factory(p.Gateway.Name)
	if err != nil {
		return false, 0, err
	}
	verifier := factory.CreateVerifier()

	result, err := verifier.PaymentVerify(p.Amount, p.AuthorityID)
	if err != nil {
		p.Status = models.PaymentStatusFailed
		p.ResponseJSON = fmt.Sprintf(`{"error":%q}`, err.Error())
		if saveErr := s.db.Save(p).Error; saveErr != nil {
			return false, 0, saveErr
		}
		return false, 0, err
	}

	code := result.Data.Code
	p.ResponseJSON = string(result.Raw)
	p.ResponseCode = &code

	if code == VerifySuccessCode {
		refID := result.Data.RefID
		p.RefID = &refID
		p.Status = models.PaymentStatusSuccess
		if err := s.db.Save(p).Error; err != nil {
			return false, 0, err
		}
		return true, refID, nil
	}

	p.Status = models.PaymentStatusFailed
	if err := s.db.Save(p).Error; err != nil {
		return false, 0, err
	}
	return false, 0, fmt.Errorf("gateway error code: %d", code)
}

// GetByAuthority looks a payment up by its gateway-issued authority token.
func (s *Service) GetByAuthority(authority string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.Preload("Gateway").Where("authority_id = ?", authority).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GeneratePaymentURL rebuilds the redirect URL for a still-pending payment,
// rejecting expired ones.
func (s *Service) GeneratePaymentURL(p *models.Payment, now time.Time) (string, error) {
	if p.Status != models.PaymentStatusPending {
		return "", ErrPaymentSettled
	}
	if p.Expired(now) {
		return "", ErrPaymentExpired
	}

	factory, err := s.factory(p.Gateway.Name)
	if err != nil {
		return "", err
	}
	return factory.CreateProcessor().GeneratePaymentURL(p.AuthorityID), nil
}
