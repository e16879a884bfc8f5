package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// Payload is the decoded body of a courier callback. It is one of
// StatusUpdate or Unrecognized.
type Payload interface {
	isPayload()
}

// CourierInfo is the optional rider contact block.
type CourierInfo struct {
	Name  string
	Phone string
}

// StatusUpdate reports a delivery status change for one order.
type StatusUpdate struct {
	OrderID   kernel.UUID
	Status    string
	Timestamp time.Time
	// EventID is the platform's own event identifier, empty if not sent.
	EventID string
	Courier *CourierInfo
}

// Unrecognized is a well-formed callback of a kind this service does not
// handle. It is acknowledged without effect.
type Unrecognized struct {
	Kind string
	Raw  json.RawMessage
}

func (StatusUpdate) isPayload() {}
func (Unrecognized) isPayload() {}

type wirePayload struct {
	Type            string          `json:"type"`
	ExternalOrderID string          `json:"externalOrderId"`
	Status          string          `json:"status"`
	Timestamp       json.RawMessage `json:"timestamp"`
	EventID         string          `json:"eventId"`
	Courier         *struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"courier"`
}

const statusUpdateKind = "status_update"

// ParsePayload decodes raw into a Payload. Bodies that are not JSON objects
// or that lack required status-update fields are validation errors.
func ParsePayload(raw []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errs.NewValueIsInvalidErrorWithCause("payload", errors.New("body must be a JSON object"))
	}

	var w wirePayload
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("payload", err)
	}

	kind := strings.ToLower(strings.TrimSpace(w.Type))
	if kind != "" && kind != statusUpdateKind {
		return Unrecognized{Kind: kind, Raw: json.RawMessage(trimmed)}, nil
	}

	var errList []error
	orderID, err := kernel.UUIDFromString(strings.TrimSpace(w.ExternalOrderID))
	if err != nil {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("externalOrderId", err))
	}
	status := strings.TrimSpace(w.Status)
	if status == "" {
		errList = append(errList, errs.NewValueIsRequiredError("status"))
	}
	ts, err := parseBodyTimestamp(w.Timestamp)
	if err != nil {
		errList = append(errList, err)
	}
	if err = errors.Join(errList...); err != nil {
		return nil, err
	}

	update := StatusUpdate{
		OrderID:   orderID,
		Status:    status,
		Timestamp: ts,
		EventID:   strings.TrimSpace(w.EventID),
	}
	if w.Courier != nil {
		update.Courier = &CourierInfo{Name: w.Courier.Name, Phone: w.Courier.Phone}
	}
	return update, nil
}

// parseBodyTimestamp accepts an RFC 3339 string or unix seconds as a JSON
// number, the format of the signed timestamp header.
func parseBodyTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, errs.NewValueIsRequiredError("timestamp")
	}

	if raw[0] != '"' {
		var seconds json.Number
		if err := json.Unmarshal(raw, &seconds); err != nil {
			return time.Time{}, errs.NewValueIsInvalidErrorWithCause("timestamp", err)
		}
		n, err := seconds.Int64()
		if err != nil || n <= 0 {
			return time.Time{}, errs.NewValueIsInvalidErrorWithCause("timestamp",
				fmt.Errorf("%s is not unix seconds", seconds))
		}
		return time.Unix(n, 0).UTC(), nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return time.Time{}, errs.NewValueIsInvalidErrorWithCause("timestamp", err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errs.NewValueIsRequiredError("timestamp")
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, errs.NewValueIsInvalidErrorWithCause("timestamp", fmt.Errorf("%q is not RFC 3339", value))
	}
	return ts.UTC(), nil
}
