package billing

import (
	"errors"
	"testing"

	"github.com/clubstack/clubstack/app/models"
)

func checkoutInput() CheckoutInput {
	return CheckoutInput{
		Member: &models.Member{
			ID:     7,
			ClubID: 3,
			Email:  "member@example.com",
		},
		Club: &models.Club{
			ID:       3,
			Name:     "SV Musterstadt",
			Currency: "eur",
		},
		Amount:     3000,
		SuccessURL: "https://app.example.com/billing/success",
		CancelURL:  "https://app.example.com/billing/cancel",
	}
}

func TestBuildCheckoutParamsFeeRoutingConnected(t *testing.T) {
	in := checkoutInput()
	in.Club.StripeAccountID = "acct_123"
	in.Club.StripeChargesEnabled = true

	params, err := BuildCheckoutParams(in)
	if err != nil {
		t.Fatalf("BuildCheckoutParams: %v", err)
	}

	if params.SubscriptionData.ApplicationFeePercent == nil {
		t.Fatalf("expected application fee for connected account")
	}
	if got := *params.SubscriptionData.ApplicationFeePercent; got != PlatformFeePercent {
		t.Fatalf("expected %.0f%% application fee, got %.2f", PlatformFeePercent, got)
	}
	if params.StripeAccount == nil || *params.StripeAccount != "acct_123" {
		t.Fatalf("expected charge to route through the connected account")
	}
}

func TestBuildCheckoutParamsFeeRoutingPlatform(t *testing.T) {
	tests := []struct {
		name string
		club models.Club
	}{
		{name: "no connected account", club: models.Club{ID: 3, Name: "SV", Currency: "eur"}},
		{name: "connected account not yet enabled", club: models.Club{ID: 3, Name: "SV", Currency: "eur", StripeAccountID: "acct_123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := checkoutInput()
			club := tt.club
			in.Club = &club

			params, err := BuildCheckoutParams(in)
			if err != nil {
				t.Fatalf("BuildCheckoutParams: %v", err)
			}
			if params.SubscriptionData.ApplicationFeePercent != nil {
				t.Fatalf("expected no application fee on the platform account")
			}
			if params.StripeAccount != nil {
				t.Fatalf("expected charge to settle on the platform account")
			}
		})
	}
}

func TestBuildCheckoutParamsPlanPricePrecedence(t *testing.T) {
	in := checkoutInput()
	in.Plan = &models.MembershipPlan{
		ID:       12,
		ClubID:   3,
		Name:     "Gold Membership",
		Amount:   4500,
		Currency: "chf",
		Interval: models.PlanIntervalYear,
	}

	params, err := BuildCheckoutParams(in)
	if err != nil {
		t.Fatalf("BuildCheckoutParams: %v", err)
	}

	price := params.LineItems[0].PriceData
	if *price.UnitAmount != 4500 {
		t.Fatalf("expected plan price to win over direct amount, got %d", *price.UnitAmount)
	}
	if *price.Currency != "chf" || *price.Recurring.Interval != models.PlanIntervalYear {
		t.Fatalf("expected plan currency and interval, got %s/%s", *price.Currency, *price.Recurring.Interval)
	}
	if params.Metadata["plan_id"] != "12" {
		t.Fatalf("expected plan id in metadata, got %q", params.Metadata["plan_id"])
	}
}

func TestBuildCheckoutParamsMetadataCorrelation(t *testing.T) {
	params, err := BuildCheckoutParams(checkoutInput())
	if err != nil {
		t.Fatalf("BuildCheckoutParams: %v", err)
	}

	// Metadata lives on both the session and the subscription so the webhook
	// handler can read it back from either payload.
	for _, md := range []map[string]string{params.Metadata, params.SubscriptionData.Metadata} {
		if md["member_id"] != "7" || md["club_id"] != "3" || md["plan_id"] != "0" {
			t.Fatalf("unexpected metadata: %v", md)
		}
	}
	if ParseMetadataID(params.Metadata, "member_id") != 7 {
		t.Fatalf("expected metadata round-trip via ParseMetadataID")
	}
}

func TestBuildCheckoutParamsMissingAmount(t *testing.T) {
	in := checkoutInput()
	in.Amount = 0

	if _, err := BuildCheckoutParams(in); !errors.Is(err, ErrMissingAmount) {
		t.Fatalf("expected ErrMissingAmount, got %v", err)
	}
}
