package chi

// ErrorCode is the machine-readable error code of an API error response.
type ErrorCode string

// API error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeInvalidCoordinate ErrorCode = "invalid_coordinate"
	ErrorCodeInvalidRadius     ErrorCode = "invalid_radius"
	ErrorCodeInvalidPagination ErrorCode = "invalid_pagination"
	ErrorCodeInvalidFilter     ErrorCode = "invalid_filter"
	ErrorCodeStoreUnavailable  ErrorCode = "store_unavailable"
	ErrorCodeInternalError     ErrorCode = "internal_error"
	ErrorCodeMethodNotAllowed  ErrorCode = "method_not_allowed"
	ErrorCodeRouteNotFound     ErrorCode = "not_found"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchVendorsParams holds the query parameters of GET /api/v1/vendors/search.
type SearchVendorsParams struct {
	Latitude          *float64  `form:"latitude"`
	Longitude         *float64  `form:"longitude"`
	Radius            *float64  `form:"radius"`
	ServiceCategories *[]string `form:"serviceCategories"`
	City              *string   `form:"city"`
	State             *string   `form:"state"`
	MinRating         *float64  `form:"minRating"`
	MaxHourlyRate     *float64  `form:"maxHourlyRate"`
	Page              *int      `form:"page"`
	Limit             *int      `form:"limit"`
	Sort              *string   `form:"sort"`
}

// VendorItem is a ranked vendor in a search response.
type VendorItem struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"displayName"`
	ServiceCategories []string `json:"serviceCategories"`
	City              string   `json:"city"`
	State             string   `json:"state"`
	HourlyRate        *float64 `json:"hourlyRate"`
	Rating            float64  `json:"rating"`
	RatingCount       int      `json:"ratingCount"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	IsActive          bool     `json:"isActive"`
	Distance          *float64 `json:"distance"`
}

// Pagination describes the returned page. Truncated is set when more vendors
// matched than the service ranks; Total is then a lower bound.
type Pagination struct {
	Page      int  `json:"page"`
	Limit     int  `json:"limit"`
	Total     int  `json:"total"`
	Pages     int  `json:"pages"`
	Truncated bool `json:"truncated,omitempty"`
}

// AppliedFilters echoes the normalized query back to the client.
type AppliedFilters struct {
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	Radius            *float64 `json:"radius,omitempty"`
	ServiceCategories []string `json:"serviceCategories,omitempty"`
	City              string   `json:"city,omitempty"`
	State             string   `json:"state,omitempty"`
	MinRating         *float64 `json:"minRating,omitempty"`
	MaxHourlyRate     *float64 `json:"maxHourlyRate,omitempty"`
	Sort              string   `json:"sort"`
}

// SearchVendorsResponse is the body of a successful vendor search.
type SearchVendorsResponse struct {
	Vendors    []VendorItem   `json:"vendors"`
	Pagination Pagination     `json:"pagination"`
	Filters    AppliedFilters `json:"filters"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
