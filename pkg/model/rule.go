package model

// RecurrenceRule is a weekly-day plus time-of-day template the roster
// importer expands into dated CLASS reservations over the semester window.
// Weekday tokens follow the roster source (Spanish day names, accented or
// not); English names are accepted too.
type RecurrenceRule struct {
	Weekday    string `json:"weekday"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Subject    string `json:"subject"`
	Professor  string `json:"professor,omitempty"`
	LabName    string `json:"lab_name"`
	SchoolCode string `json:"school_code,omitempty"`
}

// SkippedRule records one roster rule the expander could not apply. Skips
// are accumulated and reported; they never abort the batch.
type SkippedRule struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

// ImportSummary is the result of one roster expansion run.
type ImportSummary struct {
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Skipped []SkippedRule `json:"skipped,omitempty"`
}
