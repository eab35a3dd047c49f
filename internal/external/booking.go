package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"travelease/internal/models"
)

// BookingClient talks to the remote booking service that owns packages,
// bookings and user profiles.
type BookingClient struct {
	baseURL    string
	httpClient *http.Client
}

type BookingConfig struct {
	BaseURL string
	Timeout time.Duration
}

// APIError carries the remote service's own error message so it can be
// surfaced to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote service returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote service returned %d", e.StatusCode)
}

// ErrorMessage returns the server-provided message if err wraps an APIError
// with one, otherwise the fallback.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// CreateBookingRequest is the create payload in the backend wire format.
// The initial status is always pending.
type CreateBookingRequest struct {
	TourPackageID   string `json:"tourPackageId"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	Adults          int    `json:"adults"`
	Children        int    `json:"children"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Country         string `json:"country"`
	SpecialRequests string `json:"specialRequests,omitempty"`
	Status          string `json:"status"`
}

func NewBookingClient(cfg BookingConfig) *BookingClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &BookingClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// do performs one authenticated JSON round trip. Non-2xx responses are
// decoded into an APIError so the server message survives.
func (bc *BookingClient) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, bc.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := bc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to booking service failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&errBody); decodeErr == nil {
			apiErr.Message = errBody.Message
			if apiErr.Message == "" {
				apiErr.Message = errBody.Error
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (bc *BookingClient) GetPackage(ctx context.Context, token, packageID string) (*models.TourPackage, error) {
	var pkg models.TourPackage
	if err := bc.do(ctx, http.MethodGet, "/api/packages/"+packageID, token, nil, &pkg); err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	if pkg.ID == "" {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "Package not found"}
	}
	return &pkg, nil
}

func (bc *BookingClient) ListMyBookings(ctx context.Context, token string) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := bc.do(ctx, http.MethodGet, "/api/bookings/my", token, nil, &bookings); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (bc *BookingClient) CreateBooking(ctx context.Context, token string, req *CreateBookingRequest) (*models.Booking, error) {
	var booking models.Booking
	if err := bc.do(ctx, http.MethodPost, "/api/bookings", token, req, &booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	// A 2xx without a booking id is still a failure
	if booking.ID == "" {
		return nil, fmt.Errorf("booking service returned no booking id")
	}
	return &booking, nil
}

func (bc *BookingClient) ConfirmBooking(ctx context.Context, token, bookingID string) (*models.Booking, error) {
	var booking models.Booking
	if err := bc.do(ctx, http.MethodPatch, "/api/bookings/"+bookingID+"/confirm", token, nil, &booking); err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	return &booking, nil
}

func (bc *BookingClient) CancelBooking(ctx context.Context, token, bookingID string) (*models.Booking, error) {
	var booking models.Booking
	if err := bc.do(ctx, http.MethodPatch, "/api/bookings/"+bookingID+"/cancel", token, nil, &booking); err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	return &booking, nil
}

func (bc *BookingClient) GetProfile(ctx context.Context, token string) (*models.Profile, error) {
	var resp struct {
		UserDetails *models.Profile `json:"userDetails"`
	}
	if err := bc.do(ctx, http.MethodGet, "/api/user/profile", token, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if resp.UserDetails == nil {
		return nil, fmt.Errorf("profile response had no user details")
	}
	return resp.UserDetails, nil
}
