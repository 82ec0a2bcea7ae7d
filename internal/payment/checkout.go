// Package payment adapts the external hosted-checkout provider.  The
// coordinator only sees the CheckoutProvider interface; settlement
// outcomes arrive later through the verify endpoint and are handled by
// the coordinator, both push and pull converging on the same terminal
// state.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"

	"github.com/lexuanthang19/food-deli-deploy/internal/model"
)

// ErrUpstream wraps provider failures.  The order stays Pending and the
// client may retry checkout.
var ErrUpstream = errors.New("payment provider error")

// DeliverySurchargeCents is added as an extra checkout line for delivery
// and takeaway orders; dine-in orders carry no surcharge.
const DeliverySurchargeCents = 200

// CheckoutProvider starts a hosted checkout session for an order and
// returns the redirect URL the customer completes payment at.
type CheckoutProvider interface {
	BeginCheckout(ctx context.Context, o *model.Order) (string, error)
}

// StripeProvider implements CheckoutProvider against the Stripe checkout
// session API.
type StripeProvider struct {
	frontendURL string
}

// NewStripeProvider configures the Stripe client with the given secret key
// and returns a provider whose success/cancel URLs point at frontendURL.
func NewStripeProvider(apiKey, frontendURL string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{frontendURL: frontendURL}
}

// BeginCheckout creates a checkout session from the order's line-item
// snapshot.  Prices come from the snapshot, not the live menu, so what
// the customer pays always matches what was quoted at order time.
func (p *StripeProvider) BeginCheckout(ctx context.Context, o *model.Order) (string, error) {
	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(o.Items)+1)
	for _, it := range o.Items {
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(it.PriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}
	if o.Kind != model.KindDineIn {
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(DeliverySurchargeCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Delivery Charges"),
				},
			},
			Quantity: stripe.Int64(1),
		})
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lines,
		SuccessURL: stripe.String(fmt.Sprintf("%s/verify?success=true&orderId=%d", p.frontendURL, o.ID)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/verify?success=false&orderId=%d", p.frontendURL, o.ID)),
	}
	params.Context = ctx
	s, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return s.URL, nil
}
