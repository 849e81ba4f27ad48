// Package stripeprocessor implements the payment.Processor contract against
// Stripe payment intents and signed webhook events.
package stripeprocessor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/padelcana/courtbook/pkg/payment"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

const metadataBookingIDKey = "bookingId"

// Processor talks to Stripe.
type Processor struct {
	api           *client.API
	webhookSecret string
}

// New wires a Processor with the given API and webhook secrets.
func New(secretKey string, webhookSecret string) (*Processor, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret key is not set", payment.ErrInvalidServiceConfig)
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Processor{api: api, webhookSecret: webhookSecret}, nil
}

// CreateIntent creates a fresh payment intent carrying the booking id in its
// metadata.
func (processor *Processor) CreateIntent(ctx context.Context, request payment.IntentRequest) (payment.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(request.AmountCents),
		Currency: stripe.String(request.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataBookingIDKey, request.BookingID)

	intent, err := processor.api.PaymentIntents.New(params)
	if err != nil {
		return payment.Intent{}, fmt.Errorf("stripe create intent: %w", err)
	}
	return payment.Intent{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}

// RetrieveIntent looks up the remote state of an existing intent.
func (processor *Processor) RetrieveIntent(ctx context.Context, intentID string) (payment.Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	intent, err := processor.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return payment.Intent{}, fmt.Errorf("stripe retrieve intent: %w", err)
	}
	return payment.Intent{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}

// VerifyEvent checks the Stripe-Signature header against the shared webhook
// secret and decodes the event. The signature is the only authentication a
// webhook delivery carries.
func (processor *Processor) VerifyEvent(payload []byte, signature string) (payment.Event, error) {
	if processor.webhookSecret == "" {
		return payment.Event{}, payment.ErrWebhookUnconfigured
	}
	if signature == "" {
		return payment.Event{}, fmt.Errorf("%w: missing stripe-signature header", payment.ErrInvalidSignature)
	}
	stripeEvent, err := webhook.ConstructEvent(payload, signature, processor.webhookSecret)
	if err != nil {
		return payment.Event{}, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}

	verified := payment.Event{
		EventID: stripeEvent.ID,
		Type:    string(stripeEvent.Type),
		Payload: payload,
	}
	var intent stripe.PaymentIntent
	if len(stripeEvent.Data.Raw) > 0 {
		if unmarshalErr := json.Unmarshal(stripeEvent.Data.Raw, &intent); unmarshalErr == nil {
			verified.IntentID = intent.ID
			verified.BookingID = intent.Metadata[metadataBookingIDKey]
		}
	}
	return verified, nil
}
