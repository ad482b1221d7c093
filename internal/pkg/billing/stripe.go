package billing

import (
	"context"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v82"
	stripeaccount "github.com/stripe/stripe-go/v82/account"
	stripesub "github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/clubstack/clubstack/internal/pkg/env"
)

// SetupStripe configures the provider SDK with the platform API key. Called
// once at startup.
func SetupStripe() {
	stripe.Key = env.GetEnv("STRIPE_SECRET_KEY", "")
}

// ConstructWebhookEvent verifies the provider signature header against the
// configured webhook secret and parses the event. An error here means the
// request is not provably from the provider.
func ConstructWebhookEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signatureHeader, env.GetEnv("STRIPE_WEBHOOK_SECRET", ""))
}

// ParseMetadataID reads one numeric id out of the opaque metadata echoed back
// by the provider. Zero means absent or malformed.
func ParseMetadataID(metadata map[string]string, key string) uint {
	if metadata == nil {
		return 0
	}
	v, err := strconv.ParseUint(metadata[key], 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}

// GetSubscriptionPeriod fetches the current billing period of a provider
// subscription. connectedAccount is the Connect account the subscription
// lives on, empty for the platform account.
func GetSubscriptionPeriod(ctx context.Context, providerSubscriptionID, connectedAccount string) (start, end *time.Time, err error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	if connectedAccount != "" {
		params.SetStripeAccount(connectedAccount)
	}

	sub, err := stripesub.Get(providerSubscriptionID, params)
	if err != nil {
		return nil, nil, err
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil, nil, nil
	}
	item := sub.Items.Data[0]
	if item.CurrentPeriodStart > 0 {
		t := time.Unix(item.CurrentPeriodStart, 0)
		start = &t
	}
	if item.CurrentPeriodEnd > 0 {
		t := time.Unix(item.CurrentPeriodEnd, 0)
		end = &t
	}
	return start, end, nil
}

// GetConnectedAccountChargesEnabled pulls the connected account fresh from
// the provider and reports whether it can take charges.
func GetConnectedAccountChargesEnabled(ctx context.Context, accountID string) (bool, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := stripeaccount.GetByID(accountID, params)
	if err != nil {
		return false, err
	}
	return acct.ChargesEnabled, nil
}
