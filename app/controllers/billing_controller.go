package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"

	"github.com/clubstack/clubstack/app/models"
	"github.com/clubstack/clubstack/app/repository"
	"github.com/clubstack/clubstack/internal/pkg/billing"
	"github.com/clubstack/clubstack/internal/pkg/database"
	"github.com/clubstack/clubstack/internal/pkg/env"
	"github.com/clubstack/clubstack/internal/pkg/jobqueue"
)

type checkoutRequest struct {
	MemberID   uint   `json:"member_id"`
	PlanID     uint   `json:"plan_id"`
	Amount     int64  `json:"amount"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
	SendEmail  bool   `json:"send_email"`
}

// HandleCreateCheckout creates a hosted checkout session for a member's
// recurring membership payment and optionally emails them the link.
func HandleCreateCheckout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestJSON(c, "Invalid request body")
	}
	if req.MemberID == 0 {
		return badRequestJSON(c, "member_id is required")
	}

	factory := repository.GetGlobalFactory()
	member, err := factory.GetMemberRepository().GetByID(req.MemberID)
	if err != nil {
		return notFoundJSON(c, "Member not found")
	}
	if !canAccessClub(c, member.ClubID) {
		return forbiddenJSON(c)
	}

	club, err := factory.GetClubRepository().GetByID(member.ClubID)
	if err != nil {
		return internalErrorJSON(c, "Failed to load club")
	}

	var plan *models.MembershipPlan
	if req.PlanID != 0 {
		plan, err = factory.GetPlanRepository().GetByID(req.PlanID)
		if err != nil {
			return notFoundJSON(c, "Plan not found")
		}
		if plan.ClubID != club.ID {
			return badRequestJSON(c, "Plan belongs to a different club")
		}
		if !plan.IsActive {
			return badRequestJSON(c, "Plan is not active")
		}
	}

	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	successURL := req.SuccessURL
	cancelURL := req.CancelURL
	if successURL == "" {
		successURL = base + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if cancelURL == "" {
		cancelURL = base + "/checkout/cancel"
	}

	url, sessionID, err := billing.CreateCheckoutSession(c.Context(), billing.CheckoutInput{
		Member:     member,
		Club:       club,
		Plan:       plan,
		Amount:     req.Amount,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		if errors.Is(err, billing.ErrMissingAmount) {
			return badRequestJSON(c, "No plan price or amount to charge")
		}
		log.Errorf("[Billing] Checkout creation failed for member %d: %v", member.ID, err)
		return internalErrorJSON(c, "Failed to create checkout session")
	}

	if req.SendEmail && member.Email != "" {
		planName := ""
		if plan != nil {
			planName = plan.Name
		}
		payload := jobqueue.PaymentLinkJobPayload{
			MemberID:    member.ID,
			Email:       member.Email,
			MemberName:  member.FullName(),
			ClubName:    club.Name,
			PlanName:    planName,
			CheckoutURL: url,
		}
		if _, err := jobqueue.GetManager().GetQueue().EnqueuePaymentLinkEmail(c.Context(), payload); err != nil {
			log.Errorf("[Billing] Failed to enqueue payment link email for member %d: %v", member.ID, err)
		}
	}

	return c.JSON(fiber.Map{"url": url, "session_id": sessionID})
}

// HandleMemberSubscription returns the member's current subscription state.
func HandleMemberSubscription(c *fiber.Ctx) error {
	member, errResp := loadMemberChecked(c)
	if errResp != nil {
		return errResp
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	sub, err := svc.GetSubscriptionForMember(c.Context(), member.ID)
	if err != nil {
		return internalErrorJSON(c, "Failed to load subscription")
	}
	if sub == nil {
		return c.JSON(fiber.Map{"subscription": nil})
	}
	return c.JSON(fiber.Map{"subscription": sub})
}

// HandleBillingWebhook receives provider webhook deliveries. The signature
// is verified against the endpoint secret, the event is stored for
// deduplication, then the subscription reconciler applies it. Replays and
// events for unknown subscriptions are acknowledged without side effects.
func HandleBillingWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	event, err := billing.ConstructWebhookEvent(payload, c.Get("Stripe-Signature"))
	if err != nil {
		log.Warnf("[Billing] Webhook signature verification failed: %v", err)
		return errorJSON(c, fiber.StatusBadRequest, "invalid_signature", "Webhook signature verification failed")
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	created, record, err := svc.RecordWebhookEvent(c.Context(), billing.WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		log.Errorf("[Billing] Failed to record webhook event %s: %v", event.ID, err)
		return internalErrorJSON(c, "Failed to record webhook event")
	}
	if !created && !billing.ShouldReprocess(record) {
		// Duplicate of a successfully processed delivery
		return c.JSON(fiber.Map{"received": true})
	}

	processErr := applyWebhookEvent(c, svc, &event)
	if markErr := svc.MarkWebhookProcessed(c.Context(), record.ID, processErr); markErr != nil {
		log.Errorf("[Billing] Failed to mark webhook event %s processed: %v", event.ID, markErr)
	}
	if processErr != nil {
		log.Errorf("[Billing] Webhook event %s (%s) processing failed: %v", event.ID, event.Type, processErr)
		return internalErrorJSON(c, "Webhook processing failed")
	}

	return c.JSON(fiber.Map{"received": true})
}

func applyWebhookEvent(c *fiber.Ctx, svc *billing.Service, event *stripe.Event) error {
	switch string(event.Type) {
	case billing.EventCheckoutSessionCompleted:
		return applyCheckoutSessionCompleted(c, svc, event)

	case billing.EventSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("failed to unmarshal subscription: %w", err)
		}
		return svc.ApplySubscriptionUpdated(c.Context(), sub.ID, string(sub.Status))

	case billing.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("failed to unmarshal subscription: %w", err)
		}
		return svc.ApplySubscriptionDeleted(c.Context(), sub.ID)

	case billing.EventInvoicePaymentFailed:
		subID := extractInvoiceSubscriptionID(event.Data.Raw)
		if subID == "" {
			// Not a subscription invoice
			return nil
		}
		return svc.ApplyInvoicePaymentFailed(c.Context(), subID)

	default:
		log.Debugf("[Billing] Ignoring webhook event type %s", event.Type)
		return nil
	}
}

func applyCheckoutSessionCompleted(c *fiber.Ctx, svc *billing.Service, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	memberID := billing.ParseMetadataID(session.Metadata, "member_id")
	if memberID == 0 {
		// Checkout not created by this platform
		log.Warnf("[Billing] checkout.session.completed %s without member_id metadata", session.ID)
		return nil
	}

	subscriptionID := ""
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}
	if subscriptionID == "" {
		// One-time payment checkout, nothing to reconcile
		return nil
	}

	in := billing.CheckoutCompleted{
		MemberID:               memberID,
		ClubID:                 billing.ParseMetadataID(session.Metadata, "club_id"),
		PlanID:                 billing.ParseMetadataID(session.Metadata, "plan_id"),
		ProviderSubscriptionID: subscriptionID,
		Amount:                 session.AmountTotal,
	}
	if session.Customer != nil {
		in.ProviderCustomerID = session.Customer.ID
	}

	// Billing period comes from the subscription object. Connect events
	// carry the connected account the subscription lives on.
	start, end, err := billing.GetSubscriptionPeriod(c.Context(), subscriptionID, event.Account)
	if err != nil {
		log.Warnf("[Billing] Failed to fetch period for subscription %s: %v", subscriptionID, err)
	} else {
		in.CurrentPeriodStart = start
		in.CurrentPeriodEnd = end
	}

	_, err = svc.ApplyCheckoutCompleted(c.Context(), in)
	return err
}

// extractInvoiceSubscriptionID digs the subscription ID out of an invoice
// payload. Depending on the provider API version the field is a string, an
// expanded object, or nested under parent.subscription_details.
func extractInvoiceSubscriptionID(raw []byte) string {
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return ""
	}

	switch v := data["subscription"].(type) {
	case string:
		return v
	case map[string]interface{}:
		if id, ok := v["id"].(string); ok {
			return id
		}
	}

	if parent, ok := data["parent"].(map[string]interface{}); ok {
		if details, ok := parent["subscription_details"].(map[string]interface{}); ok {
			switch v := details["subscription"].(type) {
			case string:
				return v
			case map[string]interface{}:
				if id, ok := v["id"].(string); ok {
					return id
				}
			}
		}
	}

	return ""
}
