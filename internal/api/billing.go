package api

import (
	"context"
	"fmt"

	"github.com/user/leadfindr/internal/model"
)

// GetSubscription returns the current plan, status and usage.
func (c *Client) GetSubscription(ctx context.Context) (model.Subscription, error) {
	var sub model.Subscription
	if err := c.get(ctx, "/user/subscription", nil, &sub); err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

// checkoutResponse carries the Stripe-hosted URL the user must open.
type checkoutResponse struct {
	URL string `json:"url"`
}

// CreateCheckoutSession starts a plan purchase and returns the hosted
// checkout URL. Plans: starter, pro, growth, premium. Cycle: monthly or
// yearly. Mode: byok or managed.
func (c *Client) CreateCheckoutSession(ctx context.Context, plan, billingCycle, mode string) (string, error) {
	if billingCycle == "" {
		billingCycle = "monthly"
	}
	if mode == "" {
		mode = "byok"
	}
	body := map[string]string{
		"plan":         plan,
		"billingCycle": billingCycle,
		"mode":         mode,
	}

	var resp checkoutResponse
	if err := c.post(ctx, "/stripe/create-checkout-session", body, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("checkout session created without a URL")
	}
	return resp.URL, nil
}

// CreateCustomerPortal returns the hosted billing portal URL.
func (c *Client) CreateCustomerPortal(ctx context.Context) (string, error) {
	var resp checkoutResponse
	if err := c.post(ctx, "/stripe/create-customer-portal", nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// CreateCreditSession starts a credit pack purchase. Packs:
// credit_1000, credit_2000.
func (c *Client) CreateCreditSession(ctx context.Context, pack string) (string, error) {
	body := map[string]string{"pack": pack}

	var resp checkoutResponse
	if err := c.post(ctx, "/stripe/create-credit-session", body, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
