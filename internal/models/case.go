package models

import "time"

// CaseRecord represents one enforcement proceeding row of the results table
type CaseRecord struct {
	Region            *string `json:"region" example:"Краснодарский край"`
	Debtor            string  `json:"debtor" example:"Иванов Иван"`
	ProceedingNumber  string  `json:"ip" example:"123/45/67890-ИП"`
	Document          string  `json:"doc" example:"Исполнительный лист от 01.02.2023"`
	// TerminationReason is empty while the proceeding is active
	TerminationReason string  `json:"end_reason" example:""`
	Debt              string  `json:"debt" example:"1000 руб."`
	Office            string  `json:"office" example:"Отдел судебных приставов"`
	Bailiff           string  `json:"bailiff" example:"Судебный пристав"`
}

// RegionName returns the region or an empty string when no header preceded the record
func (r CaseRecord) RegionName() string {
	if r.Region == nil {
		return ""
	}
	return *r.Region
}

// CaseList is an ordered list of records in document order
type CaseList []CaseRecord

// SearchResult is the facade output for one lookup
type SearchResult struct {
	Query     QueryKind     `json:"query"`
	Items     CaseList      `json:"items"`
	Count     int           `json:"count"`
	Cached    bool          `json:"cached"`
	Duration  time.Duration `json:"-"`
	QueriedAt time.Time     `json:"queried_at"`
}
