package external

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "travelease/internal/errors"
	"travelease/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingClient_ForwardsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(models.TourPackage{ID: "p1", Title: "Sunrise Trek"})
	}))
	defer srv.Close()

	client := NewBookingClient(BookingConfig{BaseURL: srv.URL})
	pkg, err := client.GetPackage(context.Background(), "tok-123", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "Sunrise Trek", pkg.Title)
}

func TestBookingClient_ServerMessageSurvives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Package fully booked"})
	}))
	defer srv.Close()

	client := NewBookingClient(BookingConfig{BaseURL: srv.URL})
	_, err := client.CreateBooking(context.Background(), "tok", &CreateBookingRequest{TourPackageID: "p1"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Package fully booked", apiErr.Message)
	assert.Equal(t, "Package fully booked", ErrorMessage(err, "fallback"))
}

func TestErrorMessage_Fallback(t *testing.T) {
	assert.Equal(t, "fallback", ErrorMessage(errors.New("dial tcp: connection refused"), "fallback"))
	assert.Equal(t, "fallback", ErrorMessage(&APIError{StatusCode: 500}, "fallback"))
}

func TestBookingClient_CreateWithoutIDFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Booking{})
	}))
	defer srv.Close()

	client := NewBookingClient(BookingConfig{BaseURL: srv.URL})
	_, err := client.CreateBooking(context.Background(), "tok", &CreateBookingRequest{TourPackageID: "p1"})
	assert.ErrorContains(t, err, "no booking id")
}

func TestBookingClient_GetProfileUnwraps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"userDetails": map[string]string{
				"username":    "Asha Rai",
				"email":       "asha@example.com",
				"phoneNumber": "555-0100",
				"country":     "Nepal",
			},
		})
	}))
	defer srv.Close()

	client := NewBookingClient(BookingConfig{BaseURL: srv.URL})
	profile, err := client.GetProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rai", profile.FullName)
	assert.Equal(t, "555-0100", profile.Phone)
}

func TestPaymentClient_InitiatePayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BookingID string `json:"bookingId"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "b-1", req.BookingID)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"fields": map[string]string{"amount": "499"},
		})
	}))
	defer srv.Close()

	client := NewPaymentClient(PaymentConfig{BaseURL: srv.URL, HostedPageURL: "https://pay.example/checkout"})
	fields, err := client.InitiatePayment(context.Background(), "tok", "b-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"amount": "499"}, fields)
	assert.Equal(t, "https://pay.example/checkout", client.HostedPageURL())
}

func TestPaymentClient_EmptyPayloadIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"fields": map[string]string{}})
	}))
	defer srv.Close()

	client := NewPaymentClient(PaymentConfig{BaseURL: srv.URL})
	_, err := client.InitiatePayment(context.Background(), "tok", "b-1")
	assert.ErrorIs(t, err, apperrors.ErrMissingPayload)
}
