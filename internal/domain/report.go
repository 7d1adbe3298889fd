package domain

// ReportMetadata identifies one stored medical report.
type ReportMetadata struct {
	ReportID   string  `json:"report_id"`
	PatientID  string  `json:"patient_id"`
	ReportDate string  `json:"report_date"`
	Confidence float64 `json:"confidence"`
}

// FindingsSet is the structured clinical content extracted from one report:
// an ordered list of findings plus parameter values with their units.
type FindingsSet struct {
	Findings []string          `json:"findings"`
	Values   map[string]string `json:"values"`
}

// Summary is the patient summary produced by comparing the latest findings
// against history.
type Summary struct {
	Summary       string            `json:"summary"`
	KeyChanges    string            `json:"key_changes"`
	CurrentValues map[string]string `json:"current_values"`
}

// Location is a coarse geographic position resolved from the user's IP.
type Location struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}
