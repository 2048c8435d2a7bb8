// Package payment creates card payment intents with the external processor.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var (
	// ErrInvalidAmount is returned for prices that do not convert to a
	// positive amount of minor units.
	ErrInvalidAmount = errors.New("payment: price must be positive")
	// ErrNotConfigured is returned when no processor key is set.
	ErrNotConfigured = errors.New("payment: processor not configured")
)

var hundred = decimal.NewFromInt(100)

// IntentCreator creates a payment intent and returns its client secret.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (string, error)
}

// MinorUnits converts a price in major units to whole minor units,
// truncating any fraction of a cent.
func MinorUnits(price decimal.Decimal) (int64, error) {
	amount := price.Mul(hundred).IntPart()
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}

// StripeBridge creates PaymentIntents through the Stripe API.
type StripeBridge struct {
	api *client.API
}

// NewStripeBridge returns a bridge using secretKey. An empty key yields a
// bridge that fails every call with ErrNotConfigured.
func NewStripeBridge(secretKey string) *StripeBridge {
	if secretKey == "" {
		return &StripeBridge{}
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeBridge{api: api}
}

// CreateIntent creates a card PaymentIntent for amount minor units.
func (b *StripeBridge) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	if b.api == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := b.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ClientSecret, nil
}
