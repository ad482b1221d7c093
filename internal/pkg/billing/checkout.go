package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"

	"github.com/clubstack/clubstack/app/models"
)

// PlatformFeePercent is the fixed share of each charge retained by the
// platform when routing through a club's connected account.
const PlatformFeePercent = 10.0

var ErrMissingAmount = errors.New("no plan price or amount to charge")

// CheckoutInput describes a hosted checkout request for a recurring
// membership subscription. Plan is optional; when resolved, its price takes
// precedence over the direct Amount.
type CheckoutInput struct {
	Member     *models.Member
	Club       *models.Club
	Plan       *models.MembershipPlan
	Amount     int64
	SuccessURL string
	CancelURL  string
}

// BuildCheckoutParams constructs the provider request for a hosted checkout.
// The member/club/plan triple is attached as opaque metadata on both the
// session and the subscription; the webhook handler reads it back unchanged,
// and it is the sole mechanism tying the asynchronous event to a local
// member. Charges route through the club's connected account with the
// platform fee only while that account is active.
func BuildCheckoutParams(in CheckoutInput) (*stripe.CheckoutSessionParams, error) {
	if in.Member == nil || in.Club == nil {
		return nil, errors.New("member and club are required")
	}

	amount := in.Amount
	currency := in.Club.Currency
	interval := models.PlanIntervalMonth
	productName := fmt.Sprintf("%s membership", in.Club.Name)
	planID := uint(0)
	if in.Plan != nil {
		amount = in.Plan.Amount
		currency = in.Plan.Currency
		interval = in.Plan.Interval
		productName = in.Plan.Name
		planID = in.Plan.ID
	}
	if amount <= 0 {
		return nil, ErrMissingAmount
	}

	metadata := map[string]string{
		"member_id": strconv.FormatUint(uint64(in.Member.ID), 10),
		"club_id":   strconv.FormatUint(uint64(in.Club.ID), 10),
		"plan_id":   strconv.FormatUint(uint64(planID), 10),
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(amount),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(interval),
					},
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Metadata = metadata

	if in.Member.Email != "" {
		params.CustomerEmail = stripe.String(in.Member.Email)
	}

	if in.Club.HasActiveConnectedAccount() {
		params.SubscriptionData.ApplicationFeePercent = stripe.Float64(PlatformFeePercent)
		params.SetStripeAccount(in.Club.StripeAccountID)
	}

	return params, nil
}

// CreateCheckoutSession builds the params and creates the hosted session at
// the provider, returning its URL and id.
func CreateCheckoutSession(ctx context.Context, in CheckoutInput) (url, sessionID string, err error) {
	params, err := BuildCheckoutParams(in)
	if err != nil {
		return "", "", err
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, sess.ID, nil
}
