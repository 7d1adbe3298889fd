package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"MedReportAgent/internal/domain"
)

type stubChat struct {
	answer string
	calls  int
}

func (c *stubChat) Answer(_ context.Context, _, _ string) (string, error) {
	c.calls++
	return c.answer, nil
}

type stubDocStore struct {
	meta     domain.ReportMetadata
	content  map[string]string
	storeErr error
	stored   int
}

func (s *stubDocStore) StoreReport(_ context.Context, content string, confidence float64, patientID string) (domain.ReportMetadata, error) {
	if s.storeErr != nil {
		return domain.ReportMetadata{}, s.storeErr
	}
	s.stored++
	if s.content == nil {
		s.content = map[string]string{}
	}
	s.content[s.meta.ReportID] = content
	return s.meta, nil
}

func (s *stubDocStore) ReportContent(_ context.Context, reportID string) (string, error) {
	return s.content[reportID], nil
}

type stubExtractor struct {
	set domain.FindingsSet
}

func (e *stubExtractor) Extract(_ context.Context, _ string) (domain.FindingsSet, error) {
	return e.set, nil
}

type stubFindingsStore struct {
	saved []domain.FindingsSet
}

func (f *stubFindingsStore) SaveFindings(_ context.Context, set domain.FindingsSet, _ domain.ReportMetadata) error {
	f.saved = append(f.saved, set)
	return nil
}

func (f *stubFindingsStore) FindingsHistory(_ context.Context, _ string) ([]domain.FindingsSet, error) {
	return f.saved, nil
}

type stubSummarizer struct {
	out domain.Summary
}

func (s *stubSummarizer) Summarize(_ context.Context, _ domain.FindingsSet, _ []domain.FindingsSet) (domain.Summary, error) {
	return s.out, nil
}

type stubSummaryStore struct {
	latest map[string]string
	err    error
}

func (s *stubSummaryStore) SaveSummary(_ context.Context, patientID, summary string) error {
	if s.latest == nil {
		s.latest = map[string]string{}
	}
	s.latest[patientID] = summary
	return nil
}

func (s *stubSummaryStore) MostRecentSummary(_ context.Context, patientID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.latest[patientID], nil
}

func reportFixture(docs *stubDocStore, chat *stubChat) *ReportPipeline {
	return NewReportPipeline(ReportDeps{
		Chat:      chat,
		Store:     docs,
		Extractor: &stubExtractor{set: domain.FindingsSet{
			Findings: []string{"elevated glucose"},
			Values:   map[string]string{"glucose": "110 mg/dL"},
		}},
		Findings:   &stubFindingsStore{},
		Summarizer: &stubSummarizer{out: domain.Summary{
			Summary:       "Glucose slightly elevated.",
			KeyChanges:    "This is the first report on file.",
			CurrentValues: map[string]string{"glucose": "110 mg/dL"},
		}},
		Summaries: &stubSummaryStore{},
	})
}

func TestReportPipelineProcessesReportText(t *testing.T) {
	t.Parallel()

	docs := &stubDocStore{meta: domain.ReportMetadata{
		ReportID: "RPT-1", PatientID: "pt-001", ReportDate: "2026-08-31", Confidence: 1.0,
	}}
	chat := &stubChat{answer: "should not be used"}

	g, err := reportFixture(docs, chat).Graph()
	if err != nil {
		t.Fatalf("graph: %v", err)
	}

	s := NewReportRun(KindText, "", "blood test results: glucose 110", "pt-001")
	if err := g.Run(context.Background(), s); err != nil {
		t.Fatalf("run: %v", err)
	}

	if chat.calls != 0 {
		t.Fatal("report text must not reach the chat responder")
	}
	if docs.stored != 1 {
		t.Fatalf("expected 1 stored report, got %d", docs.stored)
	}
	if s.Error != "" {
		t.Fatalf("unexpected error: %s", s.Error)
	}
	if s.FinalResponse == "" {
		t.Fatal("expected a final response")
	}
	if !strings.Contains(s.FinalResponse, "Glucose slightly elevated.") {
		t.Fatalf("final response missing summary: %q", s.FinalResponse)
	}
	if len(s.Findings) != 1 || s.Values["glucose"] != "110 mg/dL" {
		t.Fatalf("findings not threaded through state: %v %v", s.Findings, s.Values)
	}
}

func TestReportPipelineAnswersQueryDirectly(t *testing.T) {
	t.Parallel()

	docs := &stubDocStore{meta: domain.ReportMetadata{ReportID: "RPT-1"}}
	chat := &stubChat{answer: "Your last cholesterol reading was 180 mg/dL."}

	g, err := reportFixture(docs, chat).Graph()
	if err != nil {
		t.Fatalf("graph: %v", err)
	}

	s := NewReportRun(KindText, "", "What is my cholesterol level?", "pt-001")
	if err := g.Run(context.Background(), s); err != nil {
		t.Fatalf("run: %v", err)
	}

	if chat.calls != 1 {
		t.Fatalf("expected 1 chat call, got %d", chat.calls)
	}
	if docs.stored != 0 {
		t.Fatal("conversational query must bypass persistence")
	}
	if s.FinalResponse != chat.answer {
		t.Fatalf("unexpected final response: %q", s.FinalResponse)
	}
}

func TestReportPipelineStoreFaultReachesErrorSink(t *testing.T) {
	t.Parallel()

	docs := &stubDocStore{storeErr: errors.New("store unavailable")}
	g, err := reportFixture(docs, &stubChat{}).Graph()
	if err != nil {
		t.Fatalf("graph: %v", err)
	}

	s := NewReportRun(KindText, "", "blood test results: glucose 110", "pt-001")
	if err := g.Run(context.Background(), s); err != nil {
		t.Fatalf("run must terminate without engine error, got: %v", err)
	}

	if s.Error == "" {
		t.Fatal("expected error recorded in state")
	}
	if !strings.HasPrefix(s.FinalResponse, "ERROR:") {
		t.Fatalf("expected formatted error response, got %q", s.FinalResponse)
	}
	if !strings.Contains(s.FinalResponse, "store unavailable") {
		t.Fatalf("error response should carry the cause: %q", s.FinalResponse)
	}
}

func TestStateRoundTripReproducesFinalResponse(t *testing.T) {
	t.Parallel()

	docs := &stubDocStore{meta: domain.ReportMetadata{ReportID: "RPT-2", PatientID: "pt-001"}}
	g, err := reportFixture(docs, &stubChat{}).Graph()
	if err != nil {
		t.Fatalf("graph: %v", err)
	}

	s := NewReportRun(KindText, "", "blood test results: glucose 110", "pt-001")
	if err := g.Run(context.Background(), s); err != nil {
		t.Fatalf("run: %v", err)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}

	var restored State
	if err := json.Unmarshal(raw, &restored); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}

	if restored.FinalResponse != s.FinalResponse {
		t.Fatal("final response changed across serialization")
	}
	if diff := cmp.Diff(*s, restored); diff != "" {
		t.Fatalf("state round trip mismatch (-want +got):\n%s", diff)
	}
}
