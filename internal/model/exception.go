package model

import "time"

// ExceptionRecord is a raised anomaly awaiting human review (spec.md §3, §4.9).
type ExceptionRecord struct {
	ID           string
	SKUID        string
	PeriodYear   int
	PeriodNumber int
	Type         ExceptionType

	BeforeSnapshot map[string]float64
	AfterSnapshot  map[string]float64

	IsResolved   bool
	ResolvedAt   time.Time
	ResolvedBy   string
	ResolutionNote string

	CreatedAt time.Time
}

// Key uniquely identifies an exception for the deduplication rule of
// spec.md §4.9: "Existing unresolved exceptions for the same (sku,
// year, period, type) are not duplicated."
type ExceptionKey struct {
	SKUID        string
	PeriodYear   int
	PeriodNumber int
	Type         ExceptionType
}

func (e *ExceptionRecord) Key() ExceptionKey {
	return ExceptionKey{SKUID: e.SKUID, PeriodYear: e.PeriodYear, PeriodNumber: e.PeriodNumber, Type: e.Type}
}
