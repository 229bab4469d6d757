package models

import "time"

// BatchQuery is one item of a batch search. Type selects which fields apply.
type BatchQuery struct {
	Type       QueryKind `json:"type" binding:"required" example:"inn"`
	IPNumber   string    `json:"ip_number,omitempty" example:"342956/24/23060-ИП"`
	LastName   string    `json:"last_name,omitempty" example:"Иванов"`
	FirstName  string    `json:"first_name,omitempty" example:"Иван"`
	Patronymic string    `json:"patronymic,omitempty"`
	Birthday   string    `json:"birthday,omitempty" example:"01.01.1980"`
	INN        string    `json:"inn,omitempty" example:"7707083893"`
}

// BatchRequest represents a batch search request
type BatchRequest struct {
	Queries []BatchQuery `json:"queries" binding:"required,min=1,dive"`
}

// BatchItemResult is the outcome of one batch query, in request order
type BatchItemResult struct {
	Index      int       `json:"index"`
	Query      QueryKind `json:"query"`
	Status     string    `json:"status" example:"success"`
	Count      int       `json:"count"`
	Items      CaseList  `json:"items,omitempty"`
	Code       string    `json:"code,omitempty" example:"CAPTCHA_ERROR"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// BatchStats summarises a batch
type BatchStats struct {
	Total      int       `json:"total"`
	Success    int       `json:"success"`
	Errors     int       `json:"errors"`
	Cached     int       `json:"cached"`
	DurationMs int64     `json:"duration_ms"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// BatchResponse represents a batch search response
type BatchResponse struct {
	Results   []BatchItemResult `json:"results"`
	Stats     BatchStats        `json:"stats"`
	RequestID string            `json:"request_id,omitempty"`
}
