package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/drumok/cashflowpre/config"
	"github.com/drumok/cashflowpre/database"
	"github.com/drumok/cashflowpre/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
)

func enableStripe(t *testing.T) {
	t.Helper()
	config.AppConfig.StripeSecretKey = "sk_test_123"
	config.AppConfig.StripeWebhookSecret = "whsec_test"
	config.AppConfig.StripePricePro = "price_pro"
	config.AppConfig.StripePriceProPlus = "price_pro_plus"
	config.AppConfig.CheckoutSuccessURL = "https://app.example.com/billing/success"
	config.AppConfig.CheckoutCancelURL = "https://app.example.com/billing"
}

func stubStripe(t *testing.T) {
	t.Helper()
	origSession, origCancel := newCheckoutSession, cancelSubscription
	t.Cleanup(func() {
		newCheckoutSession = origSession
		cancelSubscription = origCancel
	})
}

func event(t *testing.T, typ string, obj interface{}) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(obj)
	require.NoError(t, err)
	return stripe.Event{ID: "evt_" + typ, Type: typ, Data: &stripe.EventData{Raw: raw}}
}

func TestCreateCheckout(t *testing.T) {
	app, _ := newTestApp(t)
	enableStripe(t)
	stubStripe(t)
	token := tokenFor(t, "user-1")

	var got *stripe.CheckoutSessionParams
	newCheckoutSession = func(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		got = p
		return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1"}, nil
	}

	resp := sendJSON(t, app, "POST", "/api/v1/subscription/checkout", token, models.CheckoutRequest{Plan: "pro_plus"})
	require.Equal(t, fiber.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, "cs_test_1", resp.data()["sessionId"])
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", resp.data()["url"])

	require.NotNil(t, got)
	assert.Equal(t, "user-1", *got.ClientReferenceID)
	assert.Equal(t, "price_pro_plus", *got.LineItems[0].Price)
	assert.Equal(t, "user-1@example.com", *got.CustomerEmail)
	assert.Equal(t, "pro_plus", got.SubscriptionData.Metadata["plan"])
}

func TestCreateCheckoutRejects(t *testing.T) {
	app, _ := newTestApp(t)
	stubStripe(t)
	token := tokenFor(t, "user-1")

	resp := sendJSON(t, app, "POST", "/api/v1/subscription/checkout", token, models.CheckoutRequest{Plan: "pro"})
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.Status)

	enableStripe(t)
	resp = sendJSON(t, app, "POST", "/api/v1/subscription/checkout", token, models.CheckoutRequest{Plan: "free"})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	newCheckoutSession = func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		return nil, errors.New("stripe down")
	}
	resp = sendJSON(t, app, "POST", "/api/v1/subscription/checkout", token, models.CheckoutRequest{Plan: "pro"})
	assert.Equal(t, fiber.StatusBadGateway, resp.Status)
}

func TestCancelSubscription(t *testing.T) {
	app, store := newTestApp(t)
	enableStripe(t)
	stubStripe(t)
	token := tokenFor(t, "user-1")
	ctx := context.Background()

	resp := send(t, app, "POST", "/api/v1/subscription/cancel", token, "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	require.NoError(t, store.UpdateSubscription(ctx, "user-1", models.Subscription{
		Plan:                 models.PlanPro,
		Status:               models.StatusActive,
		StripeSubscriptionID: stripe.String("sub_1"),
	}))

	var canceled string
	cancelSubscription = func(id string, _ *stripe.SubscriptionCancelParams) (*stripe.Subscription, error) {
		canceled = id
		return &stripe.Subscription{ID: id, Status: stripe.SubscriptionStatusCanceled}, nil
	}
	resp = send(t, app, "POST", "/api/v1/subscription/cancel", token, "", nil)
	require.Equal(t, fiber.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, "sub_1", canceled)

	profile, err := store.GetOrCreateProfile(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, profile.Subscription.Status)
	assert.Equal(t, models.PlanFree, profile.Plan().Tier)
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	app, _ := newTestApp(t)

	resp := send(t, app, "POST", "/api/v1/webhooks/stripe", "", fiber.MIMEApplicationJSON, strings.NewReader(`{}`))
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.Status)

	enableStripe(t)
	resp = send(t, app, "POST", "/api/v1/webhooks/stripe", "", fiber.MIMEApplicationJSON, strings.NewReader(`{"id":"evt_1"}`))
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
}

func TestApplyStripeEventLifecycle(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = time.Now })

	_, err := store.GetOrCreateProfile(ctx, "user-1", "user-1@example.com")
	require.NoError(t, err)
	require.NoError(t, store.IncrementUsage(ctx, "user-1", models.Usage{AnalysisRuns: 4, LeadsGenerated: 9}))

	err = applyStripeEvent(ctx, store, event(t, "checkout.session.completed", map[string]interface{}{
		"id":                  "cs_1",
		"client_reference_id": "user-1",
		"metadata":            map[string]string{"plan": "pro"},
		"customer":            "cus_1",
		"subscription":        "sub_1",
	}))
	require.NoError(t, err)

	profile, err := store.GetOrCreateProfile(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, profile.Subscription.Plan)
	assert.Equal(t, models.StatusActive, profile.Subscription.Status)
	assert.Equal(t, "cus_1", *profile.Subscription.StripeCustomerID)
	assert.Equal(t, "sub_1", *profile.Subscription.StripeSubscriptionID)
	assert.Equal(t, models.Usage{}, profile.Usage)
	assert.True(t, profile.UsageResetAt.Equal(fixedNow))

	require.NoError(t, applyStripeEvent(ctx, store, event(t, "invoice.payment_failed", map[string]interface{}{
		"id": "in_1", "subscription": "sub_1",
	})))
	profile, err = store.GetProfileBySubscription(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPastDue, profile.Subscription.Status)
	assert.Equal(t, models.PlanFree, profile.Plan().Tier)

	require.NoError(t, store.IncrementUsage(ctx, "user-1", models.Usage{AnalysisRuns: 2}))
	require.NoError(t, applyStripeEvent(ctx, store, event(t, "invoice.payment_succeeded", map[string]interface{}{
		"id": "in_2", "subscription": "sub_1",
	})))
	profile, err = store.GetProfileBySubscription(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, profile.Subscription.Status)
	assert.Zero(t, profile.Usage.AnalysisRuns)

	require.NoError(t, applyStripeEvent(ctx, store, event(t, "customer.subscription.updated", map[string]interface{}{
		"id": "sub_1", "status": "active", "metadata": map[string]string{"plan": "pro_plus"},
	})))
	profile, err = store.GetProfileBySubscription(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanProPlus, profile.Subscription.Plan)

	require.NoError(t, applyStripeEvent(ctx, store, event(t, "customer.subscription.deleted", map[string]interface{}{
		"id": "sub_1", "status": "canceled",
	})))
	profile, err = store.GetProfileBySubscription(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, profile.Subscription.Plan)
	assert.Equal(t, models.StatusCanceled, profile.Subscription.Status)
}

func TestApplyStripeEventIgnoresUnknown(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()

	assert.NoError(t, applyStripeEvent(ctx, store, event(t, "invoice.paid", map[string]interface{}{
		"id": "in_9", "subscription": "sub_unknown",
	})))
	assert.NoError(t, applyStripeEvent(ctx, store, event(t, "checkout.session.completed", map[string]interface{}{
		"id": "cs_9", "client_reference_id": "ghost", "metadata": map[string]string{"plan": "pro"},
	})))
	assert.NoError(t, applyStripeEvent(ctx, store, event(t, "charge.refunded", map[string]interface{}{"id": "ch_1"})))

	err := applyStripeEvent(ctx, store, stripe.Event{Type: "invoice.payment_failed", Data: &stripe.EventData{Raw: json.RawMessage(`[1,2]`)}})
	assert.Error(t, err)
}
