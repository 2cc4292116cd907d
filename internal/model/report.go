package model

import "time"

// ReportFilter is a conjunction; zero-valued fields do not constrain.
// To is exclusive.
type ReportFilter struct {
	Email string
	Name  string
	From  *time.Time
	To    *time.Time
}

type ReportRow struct {
	Presensi
	Email string
	Name  string
}

type ReportUser struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type ReportRowView struct {
	PresensiView
	User ReportUser `json:"user"`
}

type DailyReport struct {
	ReportDate string          `json:"reportDate"`
	Total      int             `json:"total"`
	Records    []ReportRowView `json:"records"`
}
