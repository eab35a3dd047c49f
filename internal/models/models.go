package models

// Booking lifecycle statuses as the remote booking service reports them.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// TourPackage - package record owned by the remote booking service.
// Field names follow the backend wire format.
type TourPackage struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Destination string   `json:"destination"`
	Duration    string   `json:"duration"`
	GroupSize   string   `json:"group"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
	Reviews     int      `json:"reviews"`
	Status      string   `json:"status"`
	StartDate   string   `json:"startDate"`
	ImageURLs   []string `json:"imageUrls"`
}

// Booking - reservation record owned by the remote booking service.
// The workflow only references it by ID and tracks its last-known status.
type Booking struct {
	ID            string `json:"id"`
	TourPackageID string `json:"tourPackageId"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Adults        int    `json:"adults"`
	Children      int    `json:"children"`
	Status        string `json:"status"`
}

// Active reports whether the booking still occupies the single
// active-booking slot for its package.
func (b *Booking) Active() bool {
	return b != nil && b.Status != BookingStatusCancelled
}

// Profile - the authenticated user's profile as supplied by the session
// collaborator. Read-only for the workflow.
type Profile struct {
	FullName string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phoneNumber"`
	Country  string `json:"country"`
}

// OpenWorkflowRequest - request to open a booking workflow for a package
type OpenWorkflowRequest struct {
	PackageID string `json:"package_id" binding:"required"`
}

// UpdateFieldRequest - request to set a single draft field
type UpdateFieldRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

// AdjustGuestsRequest - request to bump a guest counter
type AdjustGuestsRequest struct {
	Counter string `json:"counter" binding:"required,oneof=adults children"`
	Delta   int    `json:"delta" binding:"required"`
}

// InitiatePaymentResponse - where the browser should go to perform the
// cross-origin form post
type InitiatePaymentResponse struct {
	RedirectURL string `json:"redirect_url"`
}
