package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"MedReportAgent/internal/ports"
	"MedReportAgent/internal/ranking"
)

// topCandidateCount is how many ranked candidates the final response shows.
// The ranking engine itself keeps a small margin above this.
const topCandidateCount = 5

// SearchDeps wires the collaborators driven by the specialist-search pipeline.
type SearchDeps struct {
	Summaries  ports.SummaryStore
	Classifier ports.SpecialtyClassifier
	Locator    ports.Locator
	Searcher   ports.CandidateSearcher
	Logger     *slog.Logger
}

// SearchPipeline holds the stage set for finding nearby specialists:
// determine-search-parameters -> find-candidates, with its own error sink.
type SearchPipeline struct {
	deps SearchDeps
}

// NewSearchPipeline constructs the search stage set.
func NewSearchPipeline(deps SearchDeps) *SearchPipeline {
	return &SearchPipeline{deps: deps}
}

// Graph compiles the search pipeline.
func (p *SearchPipeline) Graph() (*Graph, error) {
	stages := map[Step]StageFunc{
		StepSearchParams:   p.searchParameters,
		StepFindCandidates: p.findCandidates,
		StepError:          p.errorSink,
	}
	routes := map[Step]Routes{
		StepSearchParams:   {StepFindCandidates: StepFindCandidates, StepError: StepError},
		StepFindCandidates: {StepEnd: StepEnd, StepError: StepError},
		StepError:          {StepEnd: StepEnd},
	}
	return Compile(StepSearchParams, stages, routes)
}

// searchParameters derives the doctor specialty from the patient's most recent
// summary and resolves the user's location.
func (p *SearchPipeline) searchParameters(ctx context.Context, s *State) {
	p.debug("determine search parameters", "patient", s.PatientID)

	if s.PatientID == "" {
		s.fail(fmt.Errorf("no patient id in state"))
		return
	}

	summary, err := p.deps.Summaries.MostRecentSummary(ctx, s.PatientID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.fail(fmt.Errorf("no summary on file for patient %s; process a report first", s.PatientID))
			return
		}
		s.fail(fmt.Errorf("load summary: %w", err))
		return
	}

	specialty, err := p.deps.Classifier.ClassifySpecialty(ctx, summary)
	if err != nil {
		s.fail(fmt.Errorf("classify specialty: %w", err))
		return
	}
	if specialty == "" || strings.EqualFold(specialty, "unknown") || strings.EqualFold(specialty, "unable to determine") {
		s.fail(fmt.Errorf("could not determine appropriate doctor specialization"))
		return
	}

	location, err := p.deps.Locator.Locate(ctx)
	if err != nil {
		s.fail(fmt.Errorf("resolve location: %w", err))
		return
	}

	s.DoctorType = specialty
	s.Location = &location
	s.SearchParameters = &SearchParameters{DoctorType: specialty, Location: location}
	s.NextStep = StepFindCandidates
}

// findCandidates scrapes listings for the determined parameters, ranks them,
// and renders the final recommendation block.
func (p *SearchPipeline) findCandidates(ctx context.Context, s *State) {
	if s.SearchParameters == nil {
		s.fail(fmt.Errorf("no search parameters in state"))
		return
	}
	params := *s.SearchParameters
	if params.DoctorType == "" || params.Location.City == "" {
		s.fail(fmt.Errorf("missing doctor type or location in search parameters"))
		return
	}

	p.debug("find candidates", "specialty", params.DoctorType, "city", params.Location.City)

	listings, err := p.deps.Searcher.Search(ctx, params.DoctorType, params.Location.City)
	if err != nil {
		s.fail(fmt.Errorf("search candidates: %w", err))
		return
	}

	ranked := ranking.Rank(listings)
	top := ranked
	if len(top) > topCandidateCount {
		top = top[:topCandidateCount]
	}

	s.SearchResults = ranked
	s.TopCandidates = top
	s.TotalCandidatesFound = len(listings)
	s.FinalResponse = formatSearchResults(s)
	s.NextStep = StepEnd
}

// errorSink renders the search failure message and terminates the run.
func (p *SearchPipeline) errorSink(_ context.Context, s *State) {
	msg := s.Error
	if msg == "" {
		msg = "unknown error occurred"
	}

	var b strings.Builder
	b.WriteString("DOCTOR SEARCH ERROR\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	b.WriteString("An error occurred during the doctor search process:\n")
	b.WriteString(msg + "\n\n")
	b.WriteString("Please try again or contact support if the issue persists.\n")

	s.FinalResponse = b.String()
	s.NextStep = StepEnd
}

func (p *SearchPipeline) debug(msg string, args ...any) {
	if p.deps.Logger != nil {
		p.deps.Logger.Debug(msg, args...)
	}
}

func formatSearchResults(s *State) string {
	var b strings.Builder
	b.WriteString("DOCTOR SEARCH RESULTS\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Search Query: %s in %s, %s, %s\n",
		s.DoctorType, s.Location.City, s.Location.State, s.Location.Country)
	fmt.Fprintf(&b, "Total Results Found: %d\n", s.TotalCandidatesFound)
	fmt.Fprintf(&b, "Top %d Recommendations:\n\n", len(s.TopCandidates))

	if len(s.TopCandidates) == 0 {
		b.WriteString("No doctors found matching your criteria.\n")
		return b.String()
	}

	for i, c := range s.TopCandidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Name)
		fmt.Fprintf(&b, "   Address: %s\n", c.Address)
		fmt.Fprintf(&b, "   Phone: %s\n", c.Phone)
		fmt.Fprintf(&b, "   Rating: %.1f (%d reviews)\n", c.Rating, c.Reviews)
		fmt.Fprintf(&b, "   Ranking Score: %.2f\n", c.Score)
		b.WriteString("   " + strings.Repeat("-", 50) + "\n")
	}
	return b.String()
}
