package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/drumok/cashflowpre/config"
	"github.com/drumok/cashflowpre/database"
	"github.com/drumok/cashflowpre/logger"
	"github.com/drumok/cashflowpre/middleware"
	"github.com/drumok/cashflowpre/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"
	"github.com/stripe/stripe-go/v72/sub"
	"github.com/stripe/stripe-go/v72/webhook"
)

// Stripe calls go through these so tests can replace them.
var (
	newCheckoutSession = session.New
	cancelSubscription = sub.Cancel
)

// ConfigureStripe sets the Stripe API key for the process.
func ConfigureStripe(secretKey string) {
	stripe.Key = secretKey
}

func stripeUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "message": "Billing is not configured"})
}

// HandleCreateCheckout starts a Stripe Checkout session for a paid plan.
// POST /api/v1/subscription/checkout
func HandleCreateCheckout(c *fiber.Ctx) error {
	cfg := config.AppConfig
	if !cfg.StripeEnabled() {
		return stripeUnavailable(c)
	}
	profile, err := middleware.Profile(c)
	if err != nil {
		return err
	}

	var req models.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	tier, ok := models.ParsePaidTier(req.Plan)
	if !ok {
		return badRequest(c, "plan must be pro or pro_plus")
	}
	price, ok := cfg.PriceFor(string(tier))
	if !ok {
		return badRequest(c, fmt.Sprintf("plan %s is not available for purchase", tier))
	}
	if profile.HasPaidSubscription() && profile.Subscription.Plan == tier {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "You are already subscribed to this plan"})
	}

	metadata := map[string]string{"userId": profile.ID, "plan": string(tier)}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(price), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(cfg.CheckoutSuccessURL),
		CancelURL:         stripe.String(cfg.CheckoutCancelURL),
		ClientReferenceID: stripe.String(profile.ID),
		SubscriptionData:  &stripe.CheckoutSessionSubscriptionDataParams{Metadata: metadata},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if id := profile.Subscription.StripeCustomerID; id != nil {
		params.Customer = stripe.String(*id)
	} else if profile.Email != "" {
		params.CustomerEmail = stripe.String(profile.Email)
	}

	s, err := newCheckoutSession(params)
	if err != nil {
		logger.Log.WithError(err).WithField("userId", profile.ID).Error("[BILLING] checkout session creation failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": "Failed to create checkout session with provider"})
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"sessionId": s.ID, "url": s.URL}})
}

// HandleCancelSubscription cancels the caller's Stripe subscription.
// POST /api/v1/subscription/cancel
func HandleCancelSubscription(c *fiber.Ctx) error {
	if !config.AppConfig.StripeEnabled() {
		return stripeUnavailable(c)
	}
	profile, err := middleware.Profile(c)
	if err != nil {
		return err
	}
	subID := profile.Subscription.StripeSubscriptionID
	if subID == nil || !profile.HasPaidSubscription() {
		return badRequest(c, "No active subscription to cancel")
	}

	if _, err := cancelSubscription(*subID, nil); err != nil {
		logger.Log.WithError(err).WithField("userId", profile.ID).Error("[BILLING] cancel failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": "Failed to cancel subscription with provider"})
	}

	updated := profile.Subscription
	updated.Status = models.StatusCanceled
	if err := database.GetStore().UpdateSubscription(c.UserContext(), profile.ID, updated); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Subscription canceled"})
}

// HandleStripeWebhook verifies and applies a Stripe event.
// POST /api/v1/webhooks/stripe
func HandleStripeWebhook(c *fiber.Ctx) error {
	secret := config.AppConfig.StripeWebhookSecret
	if secret == "" {
		return stripeUnavailable(c)
	}

	event, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), secret)
	if err != nil {
		logger.Log.WithError(err).Warn("[BILLING] webhook signature rejected")
		return badRequest(c, "Invalid signature")
	}
	if err := applyStripeEvent(c.UserContext(), database.GetStore(), event); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"received": true})
}

// applyStripeEvent mirrors billing state into the profile store. Events for
// unknown users are acknowledged and dropped so Stripe stops retrying.
func applyStripeEvent(ctx context.Context, store database.Store, event stripe.Event) error {
	log := logger.Log.WithFields(logrus.Fields{"eventId": event.ID, "eventType": event.Type})

	err := func() error {
		switch event.Type {
		case "checkout.session.completed":
			var s stripe.CheckoutSession
			if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
				return fmt.Errorf("decode checkout session: %w", err)
			}
			tier, ok := models.ParsePaidTier(s.Metadata["plan"])
			if s.ClientReferenceID == "" || !ok {
				log.Warn("[BILLING] checkout session without user or plan")
				return nil
			}
			next := models.Subscription{Plan: tier, Status: models.StatusActive}
			if s.Customer != nil {
				next.StripeCustomerID = stripe.String(s.Customer.ID)
			}
			if s.Subscription != nil {
				next.StripeSubscriptionID = stripe.String(s.Subscription.ID)
			}
			if err := store.UpdateSubscription(ctx, s.ClientReferenceID, next); err != nil {
				return err
			}
			return store.ResetUsage(ctx, s.ClientReferenceID, now().UTC())

		case "invoice.payment_succeeded", "invoice.paid", "invoice.payment_failed":
			var inv stripe.Invoice
			if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
				return fmt.Errorf("decode invoice: %w", err)
			}
			if inv.Subscription == nil {
				return nil
			}
			profile, err := store.GetProfileBySubscription(ctx, inv.Subscription.ID)
			if err != nil {
				return err
			}
			next := profile.Subscription
			if event.Type == "invoice.payment_failed" {
				next.Status = models.StatusPastDue
				return store.UpdateSubscription(ctx, profile.ID, next)
			}
			next.Status = models.StatusActive
			if err := store.UpdateSubscription(ctx, profile.ID, next); err != nil {
				return err
			}
			return store.ResetUsage(ctx, profile.ID, now().UTC())

		case "customer.subscription.updated", "customer.subscription.deleted":
			var s stripe.Subscription
			if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
				return fmt.Errorf("decode subscription: %w", err)
			}
			profile, err := store.GetProfileBySubscription(ctx, s.ID)
			if err != nil {
				return err
			}
			next := profile.Subscription
			next.Status = string(s.Status)
			if tier, ok := models.ParsePaidTier(s.Metadata["plan"]); ok {
				next.Plan = tier
			}
			if event.Type == "customer.subscription.deleted" {
				next.Plan = models.PlanFree
				next.Status = models.StatusCanceled
			}
			return store.UpdateSubscription(ctx, profile.ID, next)
		}
		log.Debug("[BILLING] event ignored")
		return nil
	}()

	if errors.Is(err, database.ErrNotFound) {
		log.Warn("[BILLING] event for unknown user ignored")
		return nil
	}
	if err == nil {
		log.Info("[BILLING] event applied")
	}
	return err
}
