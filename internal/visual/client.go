// Package visual fetches 3D-scan reference context for a product from the
// visual context service. The service is advisory: callers treat every
// failure here as a soft condition and fall back to form data alone.
package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"standforge/internal/logging"
	"standforge/internal/spec"
)

// ErrUnavailable reports that the service could not produce a usable
// context: network failure, non-2xx status or an unparsable body.
var ErrUnavailable = errors.New("visual context service unavailable")

// ReferenceImage is one captured view of the scanned product.
type ReferenceImage struct {
	URL         string `json:"url"`
	View        string `json:"view"` // front, side, top, detail
	Description string `json:"description,omitempty"`
}

// ProductScale reports whether the scan matched the product's scale. The
// wire format is loose: the service sends a boolean, a numeric scale factor
// or an object depending on its scan pipeline version, and may omit the
// field entirely.
type ProductScale struct {
	Matched bool
	// Value is set only when the service sent a numeric scale factor.
	Value *float64
}

// UnmarshalJSON accepts boolean, number, object or null. Absent, null and
// false all mean "no scale match".
func (p *ProductScale) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*p = ProductScale{Matched: b}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*p = ProductScale{Matched: true, Value: &f}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		*p = ProductScale{Matched: true}
		return nil
	}

	return fmt.Errorf("productScale: unsupported value %s", data)
}

// MarshalJSON emits the numeric form when a value is known, otherwise the
// boolean form.
func (p ProductScale) MarshalJSON() ([]byte, error) {
	if p.Value != nil {
		return json.Marshal(*p.Value)
	}
	return json.Marshal(p.Matched)
}

// ScaleAccuracy reports how well the scan's measurements are trusted.
type ScaleAccuracy struct {
	OverallConfidence float64      `json:"overallConfidence"`
	ProductScale      ProductScale `json:"productScale"`
}

// Context is the service's advisory payload for one product.
type Context struct {
	ReferenceImages []ReferenceImage `json:"referenceImages"`
	ScaleAccuracy   ScaleAccuracy    `json:"scaleAccuracy"`
}

// HasProductScale reports whether the scan matched the product's scale.
func (c *Context) HasProductScale() bool {
	return c != nil && c.ScaleAccuracy.ProductScale.Matched
}

// Client talks to the visual context service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type contextRequest struct {
	RequestID   string  `json:"requestId"`
	BrandName   string  `json:"brandName,omitempty"`
	ProductName string  `json:"productName,omitempty"`
	Width       float64 `json:"width"`
	Depth       float64 `json:"depth"`
	Height      float64 `json:"height"`
}

// Fetch requests visual context for the product in s.
func (c *Client) Fetch(ctx context.Context, s spec.Specification) (*Context, error) {
	log := logging.Get(logging.CategoryVisual)

	req := contextRequest{
		RequestID:   uuid.NewString(),
		BrandName:   s.BrandName,
		ProductName: s.ProductName,
		Width:       s.Product.Width,
		Depth:       s.Product.Depth,
		Height:      s.Product.Height,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/context", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.Warnw("visual context request failed", "requestId", req.RequestID, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Warnw("visual context service error",
			"requestId", req.RequestID, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(bodyBytes))
	}

	var vc Context
	if err := json.NewDecoder(resp.Body).Decode(&vc); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}

	log.Debugw("visual context fetched",
		"requestId", req.RequestID,
		"images", len(vc.ReferenceImages),
		"confidence", vc.ScaleAccuracy.OverallConfidence,
		"hasProductScale", vc.HasProductScale())

	return &vc, nil
}
