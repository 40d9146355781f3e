package backend

import (
	"context"
	"net/http"

	"storefront/internal/model"
)

// PaymentConfig returns the public payment options shown at checkout.
func (c *Client) PaymentConfig(ctx context.Context) (*model.PaymentConfig, error) {
	var raw rawPaymentConfig
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/payments/config"}, &raw); err != nil {
		return nil, err
	}
	cfg := mapPaymentConfig(&raw, c.currency)
	cfg.MerchantKey, cfg.MerchantSecret = "", ""
	return cfg, nil
}

// AdminPaymentConfig returns the full configuration including merchant keys.
func (c *Client) AdminPaymentConfig(ctx context.Context) (*model.PaymentConfig, error) {
	var raw rawPaymentConfig
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/admin/payments/config", auth: authBasic}, &raw); err != nil {
		return nil, err
	}
	return mapPaymentConfig(&raw, c.currency), nil
}

// UpdatePaymentConfig saves the payment configuration.
func (c *Client) UpdatePaymentConfig(ctx context.Context, cfg model.PaymentConfig) (*model.PaymentConfig, error) {
	body := map[string]any{
		"cod_enabled":     cfg.CODEnabled,
		"bkash_enabled":   cfg.BkashEnabled,
		"bkash_number":    cfg.BkashNumber,
		"card_enabled":    cfg.CardEnabled,
		"delivery_charge": cfg.DeliveryCharge.Amount.String(),
	}
	if cfg.MerchantKey != "" {
		body["merchant_key"] = cfg.MerchantKey
	}
	if cfg.MerchantSecret != "" {
		body["merchant_secret"] = cfg.MerchantSecret
	}
	var raw rawPaymentConfig
	if err := c.do(ctx, request{method: http.MethodPut, path: "/api/admin/payments/config", auth: authBasic, json: body}, &raw); err != nil {
		return nil, err
	}
	return mapPaymentConfig(&raw, c.currency), nil
}
