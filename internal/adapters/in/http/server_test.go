package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/coupon"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/secret"
	"fulfillment/internal/core/domain/model/webhook"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newEcho(t *testing.T, h httpin.Handlers, adminMiddleware ...echo.MiddlewareFunc) *echo.Echo {
	t.Helper()
	e := echo.New()
	httpin.NewServer(h, discard).RegisterRoutes(e, adminMiddleware...)
	return e
}

func do(e *echo.Echo, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func newOrder(t *testing.T) *order.Order {
	t.Helper()
	addr, err := kernel.NewAddress("12 Baker St", "north-1")
	require.NoError(t, err)
	item, err := order.NewItem("SKU-1", "Sourdough", 2)
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), addr, []order.Item{item}, 2400, "",
		time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return o
}

const webhookBody = `{"externalOrderId":"8f14e45f-ceea-467f-a0e6-0b6a1c8e1f11","status":"picked_up",` +
	`"timestamp":"2026-03-01T10:00:00Z","eventId":"evt-1"}`

func TestHandleCourierWebhookPassesRawRequest(t *testing.T) {
	wh := &MockWebhookHandler{}
	wh.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.HandleCourierWebhookCommand) bool {
		return cmd.Platform() == webhook.Platform("swiftcourier") &&
			string(cmd.Body()) == webhookBody &&
			cmd.Signature() == "abc123" &&
			cmd.Timestamp() == "1772359200"
	})).Return(commands.AckResult{DedupeKey: "k", Outcome: webhook.OutcomeApplied}, nil)

	e := newEcho(t, httpin.Handlers{CourierWebhook: wh})
	rec := do(e, http.MethodPost, "/webhooks/SwiftCourier", webhookBody, map[string]string{
		httpin.SignatureHeader: "abc123",
		httpin.TimestampHeader: "1772359200",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	ack := decode[httpin.WebhookAck](t, rec)
	assert.True(t, ack.Accepted)
	assert.False(t, ack.Duplicate)
	assert.Equal(t, "applied", ack.Outcome)
	wh.AssertExpectations(t)
}

func TestHandleCourierWebhookResponses(t *testing.T) {
	tests := []struct {
		name       string
		result     commands.AckResult
		err        error
		wantStatus int
		wantAck    httpin.WebhookAck
	}{
		{
			name:       "duplicate is acknowledged",
			result:     commands.AckResult{DedupeKey: "k", Duplicate: true},
			wantStatus: http.StatusOK,
			wantAck:    httpin.WebhookAck{Accepted: true, Duplicate: true},
		},
		{
			name:       "invalid transition is acknowledged",
			result:     commands.AckResult{DedupeKey: "k", Outcome: webhook.OutcomeInvalidTransition},
			wantStatus: http.StatusOK,
			wantAck:    httpin.WebhookAck{Accepted: true, Outcome: "invalid_transition"},
		},
		{
			name:       "bad signature",
			err:        fmt.Errorf("%w: mismatch", webhook.ErrSignatureInvalid),
			wantStatus: http.StatusUnauthorized,
			wantAck:    httpin.WebhookAck{Reason: "signature_invalid"},
		},
		{
			name:       "stale timestamp",
			err:        fmt.Errorf("%w: skew", webhook.ErrReplayDetected),
			wantStatus: http.StatusConflict,
			wantAck:    httpin.WebhookAck{Reason: "replay_detected"},
		},
		{
			name:       "malformed body",
			err:        errs.NewValueIsRequiredError("externalOrderId"),
			wantStatus: http.StatusBadRequest,
			wantAck:    httpin.WebhookAck{Reason: "malformed_payload"},
		},
		{
			name:       "storage failure is retryable",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantAck:    httpin.WebhookAck{Reason: "temporarily_unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wh := &MockWebhookHandler{}
			wh.On("Handle", mock.Anything, mock.Anything).Return(tt.result, tt.err)

			e := newEcho(t, httpin.Handlers{CourierWebhook: wh})
			rec := do(e, http.MethodPost, "/webhooks/swiftcourier", webhookBody, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAck, decode[httpin.WebhookAck](t, rec))
		})
	}
}

func TestHandleCourierWebhookUnknownPlatform(t *testing.T) {
	wh := &MockWebhookHandler{}
	e := newEcho(t, httpin.Handlers{CourierWebhook: wh})

	rec := do(e, http.MethodPost, "/webhooks/bad%21name", webhookBody, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	wh.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestDispatchOrder(t *testing.T) {
	o := newOrder(t)
	body := fmt.Sprintf(`{"orderId":%q}`, o.ID().String())

	t.Run("success", func(t *testing.T) {
		d := &MockDispatchHandler{}
		d.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.DispatchOrderCommand) bool {
			return cmd.OrderID().IsEqual(o.ID())
		})).Return(commands.DispatchResult{Order: o, TrackingID: "TRK-1", Attempts: 2}, nil)

		rec := do(newEcho(t, httpin.Handlers{DispatchOrder: d}), http.MethodPost, "/dispatch", body, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decode[httpin.Dispatch](t, rec)
		assert.Equal(t, "TRK-1", resp.TrackingID)
		assert.Equal(t, 2, resp.Attempts)
		assert.Equal(t, o.ID().String(), resp.Order.ID.String())
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"in progress", commands.ErrDispatchInProgress, http.StatusConflict, "dispatch_in_progress"},
		{"wrong state", errs.NewPreconditionFailedError("dispatch", "order is Created"), http.StatusConflict, "precondition_failed"},
		{
			"exhausted",
			commands.NewDispatchExhaustedError(o.ID(), 3, ports.ErrDispatchUnavailable),
			http.StatusBadGateway,
			"dispatch_exhausted",
		},
		{"missing order", errs.NewObjectNotFoundError("order", o.ID()), http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &MockDispatchHandler{}
			d.On("Handle", mock.Anything, mock.Anything).Return(commands.DispatchResult{}, tt.err)

			rec := do(newEcho(t, httpin.Handlers{DispatchOrder: d}), http.MethodPost, "/dispatch", body, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decode[httpin.Error](t, rec)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantReason, resp.Reason)
		})
	}
}

func TestCancelOrderAppliesAdminCancelled(t *testing.T) {
	o := newOrder(t)
	tr := &MockTransitionHandler{}
	tr.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.TransitionOrderCommand) bool {
		return cmd.OrderID().IsEqual(o.ID()) &&
			cmd.Event() == order.AdminCancelled &&
			cmd.Actor() == order.ActorAdmin &&
			cmd.ExpectedVersion() == 3
	})).Return(o, nil)

	body := fmt.Sprintf(`{"orderId":%q,"expectedVersion":3}`, o.ID().String())
	rec := do(newEcho(t, httpin.Handlers{TransitionOrder: tr}), http.MethodPost, "/cancel", body, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	tr.AssertExpectations(t)
}

func TestCancelOrderConflict(t *testing.T) {
	o := newOrder(t)
	tr := &MockTransitionHandler{}
	tr.On("Handle", mock.Anything, mock.Anything).
		Return(nil, errs.NewConcurrencyConflictError("order", o.ID().String(), 3, 4))

	body := fmt.Sprintf(`{"orderId":%q,"expectedVersion":3}`, o.ID().String())
	rec := do(newEcho(t, httpin.Handlers{TransitionOrder: tr}), http.MethodPost, "/cancel", body, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "version_conflict", decode[httpin.Error](t, rec).Reason)
}

func TestCreateOrder(t *testing.T) {
	o := newOrder(t)
	co := &MockCreateOrderHandler{}
	co.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.CreateOrderCommand) bool {
		return cmd.TotalAmount() == 2400 && cmd.CouponCode() == "SUMMER10" && len(cmd.Items()) == 1
	})).Return(commands.CreateOrderResult{Order: o, Discount: 240}, nil)

	body := `{"deliveryAddress":{"street":"12 Baker St","zoneId":"north-1"},` +
		`"items":[{"sku":"SKU-1","name":"Sourdough","quantity":2}],"totalAmount":2400,"couponCode":"summer10"}`
	rec := do(newEcho(t, httpin.Handlers{CreateOrder: co}), http.MethodPost, "/orders", body, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[httpin.CreatedOrder](t, rec)
	assert.Equal(t, int64(240), resp.Discount)
	assert.Equal(t, "Created", resp.Order.Status)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	co := &MockCreateOrderHandler{}
	body := `{"deliveryAddress":{"street":"12 Baker St","zoneId":"north-1"},"items":[],"totalAmount":2400}`

	rec := do(newEcho(t, httpin.Handlers{CreateOrder: co}), http.MethodPost, "/orders", body, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	co.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestValidateCoupon(t *testing.T) {
	t.Run("applies", func(t *testing.T) {
		v := &MockValidateCouponHandler{}
		v.On("Handle", mock.Anything, mock.MatchedBy(func(q queries.ValidateCouponQuery) bool {
			return q.Code() == "SUMMER10" && q.CartTotal() == 5000
		})).Return(queries.ValidateCouponQueryResponse{Code: "SUMMER10", CartTotal: 5000, Discount: 500, FinalTotal: 4500}, nil)

		rec := do(newEcho(t, httpin.Handlers{ValidateCoupon: v}), http.MethodPost, "/coupons/validate",
			`{"code":"summer10","cartTotal":5000}`, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, httpin.CouponQuote{Code: "SUMMER10", CartTotal: 5000, Discount: 500, FinalTotal: 4500},
			decode[httpin.CouponQuote](t, rec))
	})

	t.Run("rejected", func(t *testing.T) {
		v := &MockValidateCouponHandler{}
		v.On("Handle", mock.Anything, mock.Anything).
			Return(queries.ValidateCouponQueryResponse{}, coupon.NewRejectedError("OLD", coupon.ReasonExpired))

		rec := do(newEcho(t, httpin.Handlers{ValidateCoupon: v}), http.MethodPost, "/coupons/validate",
			`{"code":"old","cartTotal":5000}`, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "Expired", decode[httpin.Error](t, rec).Reason)
	})
}

func TestRedeemCoupon(t *testing.T) {
	t.Run("redeemed", func(t *testing.T) {
		r := &MockRedeemHandler{}
		r.On("Handle", mock.Anything, mock.Anything).Return(nil)

		rec := do(newEcho(t, httpin.Handlers{RedeemCoupon: r}), http.MethodPost, "/coupons/redeem", `{"code":"LASTONE"}`, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("limit reached", func(t *testing.T) {
		r := &MockRedeemHandler{}
		r.On("Handle", mock.Anything, mock.Anything).Return(coupon.NewRejectedError("LASTONE", coupon.ReasonLimitReached))

		rec := do(newEcho(t, httpin.Handlers{RedeemCoupon: r}), http.MethodPost, "/coupons/redeem", `{"code":"LASTONE"}`, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "LimitReached", decode[httpin.Error](t, rec).Reason)
	})

	t.Run("missing code", func(t *testing.T) {
		r := &MockRedeemHandler{}

		rec := do(newEcho(t, httpin.Handlers{RedeemCoupon: r}), http.MethodPost, "/coupons/redeem", `{"code":" "}`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		r.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})
}

func TestSecretAdmin(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		s := &MockSecretAdmin{}
		s.On("Store", mock.Anything, webhook.Platform("swiftcourier"), []byte("whsec_0123456789abcdef")).
			Return(secret.Record{Platform: "swiftcourier", KeyVersion: 2}, nil)

		rec := do(newEcho(t, httpin.Handlers{Secrets: s}), http.MethodPut, "/secrets/swiftcourier",
			`{"secret":"whsec_0123456789abcdef"}`, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, httpin.SecretVersion{Platform: "swiftcourier", KeyVersion: 2}, decode[httpin.SecretVersion](t, rec))
		assert.NotContains(t, rec.Body.String(), "whsec")
	})

	t.Run("purge refuses a version still in use", func(t *testing.T) {
		s := &MockSecretAdmin{}
		s.On("PurgeKeyVersion", mock.Anything, 1).
			Return(int64(0), errs.NewPreconditionFailedError("purge key version", "swiftcourier is still on version 1"))

		rec := do(newEcho(t, httpin.Handlers{Secrets: s}), http.MethodDelete, "/secrets/versions/1", "", nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("purge rejects a non numeric version", func(t *testing.T) {
		s := &MockSecretAdmin{}

		rec := do(newEcho(t, httpin.Handlers{Secrets: s}), http.MethodDelete, "/secrets/versions/latest", "", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		s.AssertNotCalled(t, "PurgeKeyVersion", mock.Anything, mock.Anything)
	})
}

func TestRequestValidatorRejectsBeforeHandler(t *testing.T) {
	doc, err := httpin.LoadSpec(context.Background())
	require.NoError(t, err)
	validator, err := httpin.RequestValidator(doc)
	require.NoError(t, err)

	v := &MockValidateCouponHandler{}
	e := newEcho(t, httpin.Handlers{ValidateCoupon: v}, validator)

	rec := do(e, http.MethodPost, "/coupons/validate", `{"code":"SUMMER10","cartTotal":-5}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	v.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestRequestValidatorPassesValidRequest(t *testing.T) {
	doc, err := httpin.LoadSpec(context.Background())
	require.NoError(t, err)
	validator, err := httpin.RequestValidator(doc)
	require.NoError(t, err)

	r := &MockRedeemHandler{}
	r.On("Handle", mock.Anything, mock.Anything).Return(nil)
	e := newEcho(t, httpin.Handlers{RedeemCoupon: r}, validator)

	rec := do(e, http.MethodPost, "/coupons/redeem", `{"code":"SUMMER10"}`, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	r.AssertExpectations(t)
}

func TestAdminTokenGuardsAdminRoutesOnly(t *testing.T) {
	wh := &MockWebhookHandler{}
	wh.On("Handle", mock.Anything, mock.Anything).Return(commands.AckResult{Duplicate: true}, nil)
	r := &MockRedeemHandler{}
	e := newEcho(t, httpin.Handlers{CourierWebhook: wh, RedeemCoupon: r}, httpin.AdminToken("s3cret"))

	rec := do(e, http.MethodPost, "/coupons/redeem", `{"code":"SUMMER10"}`, map[string]string{
		echo.HeaderAuthorization: "Bearer wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	r.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)

	rec = do(e, http.MethodPost, "/webhooks/swiftcourier", webhookBody, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
