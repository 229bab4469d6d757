package models

import "time"

// SearchResponse is returned by every search endpoint
// @Description Enforcement proceedings found for the query
type SearchResponse struct {
	Success    bool      `json:"success" example:"true"`
	Query      QueryKind `json:"query" example:"ip"`
	Count      int       `json:"count" example:"1"`
	Items      CaseList  `json:"items"`
	Cached     bool      `json:"cached" example:"false"`
	DurationMs int64     `json:"duration_ms" example:"18450"`
	QueriedAt  time.Time `json:"queried_at" example:"2024-01-15T10:30:00Z"`
	RequestID  string    `json:"request_id,omitempty" example:"5f0c6c1e-5a3c-4e43-9c5a-6c3f1f1f2b11"`
}

// NewSearchResponse converts a facade result into the API representation
func NewSearchResponse(result *SearchResult, requestID string) SearchResponse {
	items := result.Items
	if items == nil {
		items = CaseList{}
	}
	return SearchResponse{
		Success:    true,
		Query:      result.Query,
		Count:      len(items),
		Items:      items,
		Cached:     result.Cached,
		DurationMs: result.Duration.Milliseconds(),
		QueriedAt:  result.QueriedAt,
		RequestID:  requestID,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"FSSP unavailable"`
	Message   string    `json:"message" example:"timeout while waiting for results"`
	Code      string    `json:"code,omitempty" example:"FSSP_UNAVAILABLE"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Path      string    `json:"path" example:"/api/v1/ip"`
	RequestID string    `json:"request_id,omitempty"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Version   string                 `json:"version" example:"1.0.0"`
	Services  map[string]ServiceInfo `json:"services"`
	Uptime    string                 `json:"uptime" example:"2h30m45s"`
}

// ServiceInfo represents individual service health
type ServiceInfo struct {
	Status    string    `json:"status" example:"healthy"`
	LastCheck time.Time `json:"last_check" example:"2024-01-15T10:30:00Z"`
	Error     string    `json:"error,omitempty"`
}

// DetailResponse is the error body of the unversioned /api routes
type DetailResponse struct {
	Detail    string `json:"detail" example:"registry returned an empty response"`
	ErrorCode string `json:"error_code,omitempty" example:"CAPTCHA_LIMIT_EXCEEDED"`
}
