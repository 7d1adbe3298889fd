package ports

import (
	"context"
	"errors"

	"MedReportAgent/internal/domain"
)

// ErrNotFound reports that a store lookup matched nothing.
var ErrNotFound = errors.New("not found")

// DocumentExtractor pulls text out of scanned documents and images.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, path string) (content string, confidence float64, err error)
}

// Transcriber converts an audio recording to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// ChatResponder answers conversational queries against the patient's history.
type ChatResponder interface {
	Answer(ctx context.Context, query, patientID string) (string, error)
}

// DocumentStore persists full report content and hands back metadata.
type DocumentStore interface {
	StoreReport(ctx context.Context, content string, confidence float64, patientID string) (domain.ReportMetadata, error)
	ReportContent(ctx context.Context, reportID string) (string, error)
}

// FindingsExtractor turns raw report text into structured findings.
type FindingsExtractor interface {
	Extract(ctx context.Context, reportText string) (domain.FindingsSet, error)
}

// FindingsStore persists extracted findings per report and serves them back
// oldest first.
type FindingsStore interface {
	SaveFindings(ctx context.Context, set domain.FindingsSet, meta domain.ReportMetadata) error
	FindingsHistory(ctx context.Context, patientID string) ([]domain.FindingsSet, error)
}

// FindingsSearcher runs a semantic query over a patient's stored findings.
type FindingsSearcher interface {
	SimilarFindings(ctx context.Context, patientID, query string, topK int) ([]string, error)
}

// Summarizer compares the latest findings against history.
type Summarizer interface {
	Summarize(ctx context.Context, latest domain.FindingsSet, history []domain.FindingsSet) (domain.Summary, error)
}

// SummaryStore keeps generated patient summaries for later lookup.
type SummaryStore interface {
	SaveSummary(ctx context.Context, patientID, summary string) error
	MostRecentSummary(ctx context.Context, patientID string) (string, error)
}

// SpecialtyClassifier maps a medical summary to a doctor specialization.
type SpecialtyClassifier interface {
	ClassifySpecialty(ctx context.Context, summaryText string) (string, error)
}

// Locator resolves the user's coarse geographic location.
type Locator interface {
	Locate(ctx context.Context) (domain.Location, error)
}

// CandidateSearcher finds raw doctor/clinic listings for a specialty in a city.
type CandidateSearcher interface {
	Search(ctx context.Context, specialty, city string) ([]domain.CandidateListing, error)
}

// Embedder produces an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
