// Package courier is the HTTP client of the external courier platform's
// create-delivery API.
package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"fulfillment/internal/core/ports"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "fulfillment/courier"
	// maxErrorBody caps how much of an error response is kept for logs.
	maxErrorBody = 512
)

// HTTPClient implements ports.CourierClient. It performs exactly one request
// per call and applies no timeout of its own; the caller's context bounds it.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	tracer  trace.Tracer
}

var _ ports.CourierClient = (*HTTPClient)(nil)

// NewHTTPClient uses http.DefaultTransport when httpClient is nil.
func NewHTTPClient(baseURL, apiKey string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Transport: http.DefaultTransport}
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		tracer:  otel.Tracer(tracerName),
	}
}

type deliveryAddress struct {
	Street string `json:"street"`
	ZoneID string `json:"zoneId"`
}

type deliveryItem struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type createDeliveryRequest struct {
	OrderID         string          `json:"orderId"`
	BranchCode      string          `json:"branchCode"`
	DeliveryAddress deliveryAddress `json:"deliveryAddress"`
	Items           []deliveryItem  `json:"items"`
}

type createDeliveryResponse struct {
	TrackingID string `json:"trackingId"`
}

// CreateDelivery posts the delivery and returns the platform's tracking id.
// Errors wrap ports.ErrDispatchTimeout, ErrDispatchRejected (4xx other
// than 408 and 429) or ErrDispatchUnavailable (everything else).
func (c *HTTPClient) CreateDelivery(ctx context.Context, req ports.DeliveryRequest) (string, error) {
	ctx, span := c.tracer.Start(ctx, "courier.CreateDelivery", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", req.OrderID),
		attribute.String("branch.code", req.BranchCode),
	)

	trackingID, err := c.createDelivery(ctx, req, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("courier.tracking_id", trackingID))
	return trackingID, nil
}

func (c *HTTPClient) createDelivery(ctx context.Context, req ports.DeliveryRequest, span trace.Span) (string, error) {
	payload := createDeliveryRequest{
		OrderID:         req.OrderID,
		BranchCode:      req.BranchCode,
		DeliveryAddress: deliveryAddress{Street: req.Street, ZoneID: req.Zone},
		Items:           make([]deliveryItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		payload.Items = append(payload.Items, deliveryItem(item))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %w", ports.ErrDispatchRejected, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/deliveries", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %w", ports.ErrDispatchRejected, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", classifyStatus(resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded createDeliveryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if ctx.Err() != nil {
			return "", classifyTransportError(ctx, err)
		}
		return "", fmt.Errorf("%w: decode response: %w", ports.ErrDispatchUnavailable, err)
	}
	if decoded.TrackingID == "" {
		return "", fmt.Errorf("%w: response has no trackingId", ports.ErrDispatchUnavailable)
	}
	return decoded.TrackingID, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ports.ErrDispatchTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ports.ErrDispatchTimeout, err)
	}
	return fmt.Errorf("%w: %w", ports.ErrDispatchUnavailable, err)
}

func classifyStatus(status int, body string) error {
	detail := "status " + strconv.Itoa(status)
	if body != "" {
		detail += ": " + body
	}

	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ports.ErrDispatchUnavailable, detail)
	case status >= 400 && status < 500:
		return fmt.Errorf("%w: %s", ports.ErrDispatchRejected, detail)
	default:
		return fmt.Errorf("%w: %s", ports.ErrDispatchUnavailable, detail)
	}
}
