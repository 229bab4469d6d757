package models

import "strings"

// QueryKind identifies the search variant supported by the registry form
type QueryKind string

const (
	QueryByProceeding QueryKind = "ip"
	QueryByPerson     QueryKind = "person"
	QueryByINN        QueryKind = "inn"
)

// Query is one of IPQuery, PersonQuery or INNQuery
type Query interface {
	Kind() QueryKind
	// CacheKey returns a stable key identifying the query
	CacheKey() string
}

// IPQuery searches by enforcement proceeding number
type IPQuery struct {
	Number string `json:"ip_number"`
}

// Kind implements Query
func (q IPQuery) Kind() QueryKind { return QueryByProceeding }

// CacheKey implements Query
func (q IPQuery) CacheKey() string { return "fssp:ip:" + q.Number }

// PersonQuery searches by debtor name and birth date (DD.MM.YYYY)
type PersonQuery struct {
	LastName   string `json:"last_name"`
	FirstName  string `json:"first_name"`
	Patronymic string `json:"patronymic,omitempty"`
	Birthday   string `json:"birthday"`
}

// Kind implements Query
func (q PersonQuery) Kind() QueryKind { return QueryByPerson }

// CacheKey implements Query
func (q PersonQuery) CacheKey() string {
	parts := []string{q.LastName, q.FirstName, q.Patronymic, q.Birthday}
	return "fssp:person:" + strings.ToLower(strings.Join(parts, "|"))
}

// INNQuery searches by taxpayer identification number
type INNQuery struct {
	INN string `json:"inn"`
}

// Kind implements Query
func (q INNQuery) Kind() QueryKind { return QueryByINN }

// CacheKey implements Query
func (q INNQuery) CacheKey() string { return "fssp:inn:" + q.INN }
