package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"travelease/internal/external"
	"travelease/internal/middleware"
	"travelease/internal/models"
	"travelease/internal/session"
	"travelease/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type testBackend struct {
	srv *httptest.Server

	mu            sync.Mutex
	createFailMsg string
	bookings      []models.Booking
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()

	tb := &testBackend{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/packages/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "p-missing" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "Package not found"})
			return
		}
		json.NewEncoder(w).Encode(models.TourPackage{ID: id, Title: "Sunrise Trek", Price: 499})
	})

	mux.HandleFunc("GET /api/bookings/my", func(w http.ResponseWriter, r *http.Request) {
		tb.mu.Lock()
		bookings := tb.bookings
		tb.mu.Unlock()
		if bookings == nil {
			bookings = []models.Booking{}
		}
		json.NewEncoder(w).Encode(bookings)
	})

	mux.HandleFunc("POST /api/bookings", func(w http.ResponseWriter, r *http.Request) {
		tb.mu.Lock()
		failMsg := tb.createFailMsg
		tb.mu.Unlock()

		if failMsg != "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": failMsg})
			return
		}

		var req external.CreateBookingRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Booking{
			ID:            "b-1",
			TourPackageID: req.TourPackageID,
			Status:        models.BookingStatusPending,
		})
	})

	mux.HandleFunc("PATCH /api/bookings/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Booking{
			ID:            r.PathValue("id"),
			TourPackageID: "p1",
			Status:        models.BookingStatusCancelled,
		})
	})

	mux.HandleFunc("GET /api/user/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "No profile"})
	})

	tb.srv = httptest.NewServer(mux)
	t.Cleanup(tb.srv.Close)
	return tb
}

func newTestGateway(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/payments/initiate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"fields": map[string]string{"amount": "499", "signature": "abc123"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupRouter(t *testing.T, tb *testBackend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bookingClient := external.NewBookingClient(external.BookingConfig{BaseURL: tb.srv.URL})
	paymentClient := external.NewPaymentClient(external.PaymentConfig{
		BaseURL:       newTestGateway(t).URL,
		HostedPageURL: "https://pay.travelease.example/checkout",
	})
	sessions, err := session.NewProvider(session.Config{}, bookingClient)
	require.NoError(t, err)

	registry := workflow.NewRegistry(30 * time.Minute)
	h := NewHandlers(registry, workflow.Deps{
		Backend:  bookingClient,
		Gateway:  paymentClient,
		Profiles: sessions,
	})

	router := gin.New()
	api := router.Group("/api")
	api.Use(middleware.BearerAuth(testJWTSecret))
	workflows := api.Group("/workflows")
	{
		workflows.POST("", h.OpenWorkflow)
		workflows.GET("/:id", h.GetWorkflow)
		workflows.PATCH("/:id/draft", h.UpdateDraftField)
		workflows.PATCH("/:id/guests", h.AdjustGuests)
		workflows.POST("/:id/steps/next", h.NextStep)
		workflows.POST("/:id/steps/prev", h.PrevStep)
		workflows.POST("/:id/booking", h.CreateBooking)
		workflows.POST("/:id/payment", h.InitiatePayment)
		workflows.GET("/:id/redirect", h.RedirectPage)
		workflows.POST("/:id/confirm", h.ConfirmBooking)
		workflows.POST("/:id/cancel", h.CancelBooking)
	}
	return router
}

func signTestToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) workflow.Snapshot {
	t.Helper()
	var snap workflow.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestOpenWorkflow(t *testing.T) {
	router := setupRouter(t, newTestBackend(t))

	w := doJSON(router, "POST", "/api/workflows", "", models.OpenWorkflowRequest{PackageID: "p1"})
	assert.Equal(t, http.StatusCreated, w.Code)

	snap := decodeSnapshot(t, w)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, workflow.StatePackageReady, snap.State)
	assert.Equal(t, "Sunrise Trek", snap.Package.Title)
	assert.Equal(t, 2, snap.Draft.Adults)
	assert.True(t, snap.CanSubmit)
}

func TestOpenWorkflow_MissingPackageID(t *testing.T) {
	router := setupRouter(t, newTestBackend(t))

	w := doJSON(router, "POST", "/api/workflows", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpenWorkflow_PackageNotFound(t *testing.T) {
	router := setupRouter(t, newTestBackend(t))

	w := doJSON(router, "POST", "/api/workflows", "", models.OpenWorkflowRequest{PackageID: "p-missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Package not found", resp["error"])
}

func TestGetWorkflow_NotFound(t *testing.T) {
	router := setupRouter(t, newTestBackend(t))

	w := doJSON(router, "GET", "/api/workflows/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBearerAuth_InvalidToken(t *testing.T) {
	router := setupRouter(t, newTestBackend(t))

	w := doJSON(router, "POST", "/api/workflows", "not-a-jwt", models.OpenWorkflowRequest{PackageID: "p1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWorkflow_EndToEnd(t *testing.T) {
	router := setupRouter(t, newTestBackend(t))
	token := signTestToken(t)

	w := doJSON(router, "POST", "/api/workflows", token, models.OpenWorkflowRequest{PackageID: "p1"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeSnapshot(t, w).ID
	base := "/api/workflows/" + id

	w = doJSON(router, "PATCH", base+"/draft", token, models.UpdateFieldRequest{Name: "start_date", Value: futureDate(7)})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, "PATCH", base+"/draft", token, models.UpdateFieldRequest{Name: "end_date", Value: futureDate(10)})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, "PATCH", base+"/draft", token, models.UpdateFieldRequest{Name: "full_name", Value: "Asha Rai"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, "PATCH", base+"/guests", token, models.AdjustGuestsRequest{Counter: "children", Delta: 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeSnapshot(t, w).Draft.Children)

	w = doJSON(router, "POST", base+"/steps/next", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, "POST", base+"/steps/next", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, workflow.StepReview, decodeSnapshot(t, w).Step)

	w = doJSON(router, "POST", base+"/booking", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, workflow.StateBooked, snap.State)
	require.NotNil(t, snap.Booking)
	assert.Equal(t, "b-1", snap.Booking.ID)
	assert.True(t, snap.CanPay)

	w = doJSON(router, "POST", base+"/payment", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var payResp models.InitiatePaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payResp))
	assert.Equal(t, base+"/redirect", payResp.RedirectURL)

	w = doJSON(router, "GET", base+"/redirect", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	html := w.Body.String()
	assert.Contains(t, html, `action="https://pay.travelease.example/checkout"`)
	assert.Contains(t, html, `name="amount" value="499"`)
	assert.Contains(t, html, `name="signature" value="abc123"`)

	// Reloading the redirect page must not re-post the spent payload
	w = doJSON(router, "GET", base+"/redirect", token, nil)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestStepGuard_InvalidDates(t *testing.T) {
	router := setupRouter(t, newTestBackend(t))

	w := doJSON(router, "POST", "/api/workflows", "", models.OpenWorkflowRequest{PackageID: "p1"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeSnapshot(t, w).ID

	// No dates entered yet: step advance is rejected with the guard message
	w = doJSON(router, "POST", "/api/workflows/"+id+"/steps/next", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "start date is required")
}

func TestCreateBooking_UpstreamErrorVerbatim(t *testing.T) {
	tb := newTestBackend(t)
	router := setupRouter(t, tb)

	w := doJSON(router, "POST", "/api/workflows", "", models.OpenWorkflowRequest{PackageID: "p1"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeSnapshot(t, w).ID
	base := "/api/workflows/" + id

	doJSON(router, "PATCH", base+"/draft", "", models.UpdateFieldRequest{Name: "start_date", Value: futureDate(7)})
	doJSON(router, "PATCH", base+"/draft", "", models.UpdateFieldRequest{Name: "end_date", Value: futureDate(10)})

	tb.mu.Lock()
	tb.createFailMsg = "Package fully booked"
	tb.mu.Unlock()

	w = doJSON(router, "POST", base+"/booking", "", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Package fully booked", resp["error"])

	// The workflow itself carries the same message for rendering
	w = doJSON(router, "GET", base, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, workflow.StateBookingError, snap.State)
	assert.Equal(t, "Package fully booked", snap.LastError)
}

func TestRedirect_WithoutPayment(t *testing.T) {
	router := setupRouter(t, newTestBackend(t))

	w := doJSON(router, "POST", "/api/workflows", "", models.OpenWorkflowRequest{PackageID: "p1"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeSnapshot(t, w).ID

	w = doJSON(router, "GET", "/api/workflows/"+id+"/redirect", "", nil)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestCancelBooking_ReleasesSlot(t *testing.T) {
	tb := newTestBackend(t)
	tb.bookings = []models.Booking{
		{ID: "b-1", TourPackageID: "p1", Status: models.BookingStatusPending},
	}
	router := setupRouter(t, tb)
	token := signTestToken(t)

	w := doJSON(router, "POST", "/api/workflows", token, models.OpenWorkflowRequest{PackageID: "p1"})
	require.Equal(t, http.StatusCreated, w.Code)
	snap := decodeSnapshot(t, w)
	require.Equal(t, workflow.StateBooked, snap.State)

	w = doJSON(router, "POST", "/api/workflows/"+snap.ID+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap = decodeSnapshot(t, w)
	assert.Equal(t, workflow.StateCancelled, snap.State)
	assert.Equal(t, models.BookingStatusCancelled, snap.Booking.Status)
	assert.True(t, snap.CanSubmit)
}
