// Package billing integrates the external payment provider used for the
// invoice payment path. The rest of the system only sees a provider
// payment id and status; provider errors surface as ErrProviderUnavailable.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mestero/estimate-api/internal/config"
	"go.uber.org/zap"
)

var (
	// ErrMissingAccessToken is returned when the gateway is constructed
	// without credentials outside mock mode
	ErrMissingAccessToken = errors.New("missing billing access token")
	// ErrProviderUnavailable wraps provider-side failures
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// InvoiceGateway abstracts the provider so the payment service can be
// tested without network access
type InvoiceGateway interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResult, error)
}

// InvoiceRequest describes one provider invoice
type InvoiceRequest struct {
	Amount      float64
	Description string
	PayerEmail  string
}

// InvoiceResult is the provider's answer
type InvoiceResult struct {
	ProviderPaymentID string
	Status            string
}

// MercadoPagoGateway creates provider invoices through the Mercado Pago
// SDK. In mock mode no network calls are made and every invoice is
// approved immediately.
type MercadoPagoGateway struct {
	client   payment.Client
	mockMode bool
	logger   *zap.Logger
}

// NewMercadoPagoGateway creates a gateway from the billing configuration
func NewMercadoPagoGateway(cfg *config.BillingConfig, logger *zap.Logger) (*MercadoPagoGateway, error) {
	if cfg.MockMode {
		logger.Info("Billing gateway running in mock mode")
		return &MercadoPagoGateway{mockMode: true, logger: logger}, nil
	}

	if cfg.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}

	sdkCfg, err := mpconfig.New(cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider sdk config: %w", err)
	}

	logger.Info("Billing gateway initialized")
	return &MercadoPagoGateway{
		client: payment.NewClient(sdkCfg),
		logger: logger,
	}, nil
}

// CreateInvoice creates one invoice at the provider and returns its
// identity and status
func (g *MercadoPagoGateway) CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResult, error) {
	if g.mockMode {
		id := strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		g.logger.Info("Mock invoice created",
			zap.String("provider_payment_id", id),
			zap.Float64("amount", req.Amount),
		)
		return &InvoiceResult{ProviderPaymentID: id, Status: "approved"}, nil
	}

	if g.client == nil {
		return nil, ErrProviderUnavailable
	}

	request := payment.Request{
		TransactionAmount: req.Amount,
		Description:       req.Description,
		Payer: &payment.PayerRequest{
			Email: req.PayerEmail,
		},
	}

	start := time.Now()
	resp, err := g.client.Create(ctx, request)
	if err != nil {
		g.logger.Error("Provider invoice creation failed",
			zap.Error(err),
			zap.Float64("amount", req.Amount),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	g.logger.Info("Provider invoice created",
		zap.Int("provider_payment_id", resp.ID),
		zap.String("status", resp.Status),
		zap.Duration("duration", time.Since(start)),
	)

	return &InvoiceResult{
		ProviderPaymentID: strconv.Itoa(resp.ID),
		Status:            resp.Status,
	}, nil
}
