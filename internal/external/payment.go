package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "travelease/internal/errors"
)

// PaymentClient talks to the payment gateway service that issues the signed
// redirect payload for the hosted payment page.
type PaymentClient struct {
	baseURL       string
	hostedPageURL string
	httpClient    *http.Client
}

type PaymentConfig struct {
	BaseURL       string
	HostedPageURL string
	Timeout       time.Duration
}

type initiatePaymentRequest struct {
	BookingID string `json:"bookingId"`
}

type initiatePaymentResponse struct {
	Fields  map[string]string `json:"fields"`
	Message string            `json:"message"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PaymentClient{
		baseURL:       cfg.BaseURL,
		hostedPageURL: cfg.HostedPageURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// HostedPageURL returns the fixed URL of the hosted payment page the
// redirect form must post to.
func (pc *PaymentClient) HostedPageURL() string {
	return pc.hostedPageURL
}

// InitiatePayment asks the gateway for a redirect payload for the booking.
// The payload is opaque and signed; it must reach the form unmodified.
// A 2xx response without a payload is treated as a failure.
func (pc *PaymentClient) InitiatePayment(ctx context.Context, token, bookingID string) (map[string]string, error) {
	jsonBody, err := json.Marshal(initiatePaymentRequest{BookingID: bookingID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+"/api/payments/initiate", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&errBody); decodeErr == nil {
			apiErr.Message = errBody.Message
		}
		return nil, apiErr
	}

	var result initiatePaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Fields) == 0 {
		return nil, apperrors.ErrMissingPayload
	}

	return result.Fields, nil
}
