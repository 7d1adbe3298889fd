package pipeline

import (
	"MedReportAgent/internal/domain"
)

// InputKind enumerates the accepted report input types.
type InputKind string

const (
	KindDocument InputKind = "document"
	KindImage    InputKind = "image"
	KindAudio    InputKind = "audio"
	KindText     InputKind = "text"
)

// Step names a stage or one of the routing markers a stage may emit.
type Step string

const (
	// StepEnd terminates a run.
	StepEnd Step = "end"
	// StepError routes to the pipeline's error sink.
	StepError Step = "error"

	StepIntake          Step = "intake"
	StepPersist         Step = "persist"
	StepExtractFindings Step = "extract-findings"
	StepSummarize       Step = "summarize"

	StepSearchParams   Step = "determine-search-parameters"
	StepFindCandidates Step = "find-candidates"
)

// SearchParameters couples a doctor specialty with the location to search in.
type SearchParameters struct {
	DoctorType string          `json:"doctor_type"`
	Location   domain.Location `json:"location"`
}

// State is the shared context threaded through every stage of one run. It is
// created fresh per run and owned exclusively by that run; fields start empty
// and are only ever added or overwritten, never removed. Concurrent runs each
// hold their own State and share nothing.
type State struct {
	// Identity.
	InputKind    InputKind `json:"input_kind,omitempty"`
	SourcePath   string    `json:"source_path,omitempty"`
	RawTextInput string    `json:"raw_text_input,omitempty"`
	PatientID    string    `json:"patient_id,omitempty"`

	// Intake outputs.
	ExtractedText        string  `json:"extracted_text,omitempty"`
	ExtractionConfidence float64 `json:"extraction_confidence,omitempty"`

	// Persistence outputs.
	ReportMetadata *domain.ReportMetadata `json:"report_metadata,omitempty"`

	// Clinical outputs.
	Findings []string          `json:"findings,omitempty"`
	Values   map[string]string `json:"values,omitempty"`

	// Summary outputs.
	Summary       string            `json:"summary,omitempty"`
	KeyChanges    string            `json:"key_changes,omitempty"`
	CurrentValues map[string]string `json:"current_values,omitempty"`

	// Search outputs.
	DoctorType           string             `json:"doctor_type,omitempty"`
	Location             *domain.Location   `json:"location,omitempty"`
	SearchParameters     *SearchParameters  `json:"search_parameters,omitempty"`
	SearchResults        []domain.Candidate `json:"search_results,omitempty"`
	TopCandidates        []domain.Candidate `json:"top_candidates,omitempty"`
	TotalCandidatesFound int                `json:"total_candidates_found,omitempty"`

	// Control.
	FinalResponse string `json:"final_response,omitempty"`
	Error         string `json:"error,omitempty"`
	NextStep      Step   `json:"next_step,omitempty"`
}

// NewReportRun builds a fresh state for one report-pipeline run.
func NewReportRun(kind InputKind, sourcePath, rawText, patientID string) *State {
	return &State{
		InputKind:    kind,
		SourcePath:   sourcePath,
		RawTextInput: rawText,
		PatientID:    patientID,
	}
}

// NewSearchRun builds a fresh state for one search-pipeline run.
func NewSearchRun(patientID string) *State {
	return &State{PatientID: patientID}
}

// fail records a stage-local fault and routes the run to the error sink.
// Stage faults never cross the stage boundary as Go errors.
func (s *State) fail(err error) {
	s.Error = err.Error()
	s.NextStep = StepError
}
