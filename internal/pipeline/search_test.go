package pipeline

import (
	"context"
	"strings"
	"testing"

	"MedReportAgent/internal/domain"
	"MedReportAgent/internal/ports"
)

type stubClassifier struct {
	specialty string
}

func (c *stubClassifier) ClassifySpecialty(_ context.Context, _ string) (string, error) {
	return c.specialty, nil
}

type stubLocator struct {
	loc domain.Location
}

func (l *stubLocator) Locate(_ context.Context) (domain.Location, error) {
	return l.loc, nil
}

type stubSearcher struct {
	listings []domain.CandidateListing
}

func (s *stubSearcher) Search(_ context.Context, _, _ string) ([]domain.CandidateListing, error) {
	return s.listings, nil
}

func searchFixture(summaries *stubSummaryStore, listings []domain.CandidateListing) *SearchPipeline {
	return NewSearchPipeline(SearchDeps{
		Summaries:  summaries,
		Classifier: &stubClassifier{specialty: "Cardiologist"},
		Locator:    &stubLocator{loc: domain.Location{City: "Kolkata", State: "West Bengal", Country: "India"}},
		Searcher:   &stubSearcher{listings: listings},
	})
}

func TestSearchPipelineRanksAndFormats(t *testing.T) {
	t.Parallel()

	summaries := &stubSummaryStore{latest: map[string]string{"pt-001": "elevated blood pressure"}}
	listings := []domain.CandidateListing{
		{Name: "Dr. Few", Rating: "4.5", Reviews: "10"},
		{Name: "Dr. Many", Rating: "4.5", Reviews: "100"},
		{Name: "Dr. Low", Rating: "3.0", Reviews: "100"},
	}

	g, err := searchFixture(summaries, listings).Graph()
	if err != nil {
		t.Fatalf("graph: %v", err)
	}

	s := NewSearchRun("pt-001")
	if err := g.Run(context.Background(), s); err != nil {
		t.Fatalf("run: %v", err)
	}

	if s.Error != "" {
		t.Fatalf("unexpected error: %s", s.Error)
	}
	if s.DoctorType != "Cardiologist" {
		t.Fatalf("unexpected doctor type: %s", s.DoctorType)
	}
	if s.TotalCandidatesFound != 3 {
		t.Fatalf("expected 3 total candidates, got %d", s.TotalCandidatesFound)
	}
	if len(s.TopCandidates) != 3 {
		t.Fatalf("expected 3 top candidates, got %d", len(s.TopCandidates))
	}
	// Rating ties are separated by review count.
	if s.TopCandidates[0].Name != "Dr. Many" || s.TopCandidates[1].Name != "Dr. Few" {
		t.Fatalf("unexpected ranking: %s, %s", s.TopCandidates[0].Name, s.TopCandidates[1].Name)
	}
	if !strings.Contains(s.FinalResponse, "Cardiologist in Kolkata, West Bengal, India") {
		t.Fatalf("final response missing query line: %q", s.FinalResponse)
	}
	if !strings.Contains(s.FinalResponse, "1. Dr. Many") {
		t.Fatalf("final response missing top candidate: %q", s.FinalResponse)
	}
}

func TestSearchPipelineDisplaysAtMostFive(t *testing.T) {
	t.Parallel()

	summaries := &stubSummaryStore{latest: map[string]string{"pt-001": "summary"}}
	var listings []domain.CandidateListing
	for _, r := range []string{"4.9", "4.8", "4.7", "4.6", "4.5", "4.4", "4.3"} {
		listings = append(listings, domain.CandidateListing{Name: "dr-" + r, Rating: r, Reviews: "50"})
	}

	g, err := searchFixture(summaries, listings).Graph()
	if err != nil {
		t.Fatalf("graph: %v", err)
	}

	s := NewSearchRun("pt-001")
	if err := g.Run(context.Background(), s); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(s.SearchResults) != 6 {
		t.Fatalf("ranking should keep 6, got %d", len(s.SearchResults))
	}
	if len(s.TopCandidates) != 5 {
		t.Fatalf("display should keep 5, got %d", len(s.TopCandidates))
	}
	if s.TotalCandidatesFound != 7 {
		t.Fatalf("expected 7 found, got %d", s.TotalCandidatesFound)
	}
}

func TestSearchPipelineWithoutSummaryFails(t *testing.T) {
	t.Parallel()

	summaries := &stubSummaryStore{err: ports.ErrNotFound}
	g, err := searchFixture(summaries, nil).Graph()
	if err != nil {
		t.Fatalf("graph: %v", err)
	}

	s := NewSearchRun("pt-001")
	if err := g.Run(context.Background(), s); err != nil {
		t.Fatalf("run: %v", err)
	}

	if s.Error == "" {
		t.Fatal("expected error recorded in state")
	}
	if !strings.Contains(s.FinalResponse, "DOCTOR SEARCH ERROR") {
		t.Fatalf("expected search error block, got %q", s.FinalResponse)
	}
	if !strings.Contains(s.FinalResponse, "process a report first") {
		t.Fatalf("expected guidance in error message, got %q", s.FinalResponse)
	}
}
