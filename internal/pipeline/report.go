package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"MedReportAgent/internal/ports"
)

// ReportDeps wires all collaborators driven by the report pipeline.
type ReportDeps struct {
	Documents   ports.DocumentExtractor
	Audio       ports.Transcriber
	Chat        ports.ChatResponder
	Store       ports.DocumentStore
	Extractor   ports.FindingsExtractor
	Findings    ports.FindingsStore
	Summarizer  ports.Summarizer
	Summaries   ports.SummaryStore
	Logger      *slog.Logger
}

// ReportPipeline holds the stage set for processing one medical report:
// intake -> persist -> extract-findings -> summarize, with an error sink
// reachable from every stage.
type ReportPipeline struct {
	deps ReportDeps
}

// NewReportPipeline constructs the report stage set.
func NewReportPipeline(deps ReportDeps) *ReportPipeline {
	return &ReportPipeline{deps: deps}
}

// Graph compiles the report pipeline. The routing table enumerates every step
// each stage can emit; Compile rejects the graph otherwise.
func (p *ReportPipeline) Graph() (*Graph, error) {
	stages := map[Step]StageFunc{
		StepIntake:          p.intake,
		StepPersist:         p.persist,
		StepExtractFindings: p.extractFindings,
		StepSummarize:       p.summarize,
		StepError:           p.errorSink,
	}
	routes := map[Step]Routes{
		StepIntake:          {StepPersist: StepPersist, StepEnd: StepEnd, StepError: StepError},
		StepPersist:         {StepExtractFindings: StepExtractFindings, StepError: StepError},
		StepExtractFindings: {StepSummarize: StepSummarize, StepError: StepError},
		StepSummarize:       {StepEnd: StepEnd, StepError: StepError},
		StepError:           {StepEnd: StepEnd},
	}
	return Compile(StepIntake, stages, routes)
}

// intake converts the raw input into text. Documents and images go through
// OCR, audio through transcription. Free text is classified first: queries are
// answered directly and end the run, report content flows on to persistence.
func (p *ReportPipeline) intake(ctx context.Context, s *State) {
	p.debug("intake", "kind", s.InputKind, "patient", s.PatientID)

	switch s.InputKind {
	case KindDocument, KindImage:
		content, confidence, err := p.deps.Documents.ExtractText(ctx, s.SourcePath)
		if err != nil {
			s.fail(fmt.Errorf("extract text from %s: %w", s.SourcePath, err))
			return
		}
		s.ExtractedText = content
		s.ExtractionConfidence = confidence
		s.NextStep = StepPersist

	case KindAudio:
		text, err := p.deps.Audio.Transcribe(ctx, s.SourcePath)
		if err != nil {
			s.fail(fmt.Errorf("transcribe %s: %w", s.SourcePath, err))
			return
		}
		s.ExtractedText = text
		s.ExtractionConfidence = 1.0
		s.NextStep = StepPersist

	case KindText:
		if classifyIntent(s.RawTextInput) == intentChat {
			answer, err := p.deps.Chat.Answer(ctx, s.RawTextInput, s.PatientID)
			if err != nil {
				s.fail(fmt.Errorf("answer query: %w", err))
				return
			}
			s.FinalResponse = answer
			s.NextStep = StepEnd
			return
		}
		s.ExtractedText = s.RawTextInput
		s.ExtractionConfidence = 1.0
		s.NextStep = StepPersist

	default:
		s.fail(fmt.Errorf("unknown input kind %q", s.InputKind))
	}
}

// persist stores the extracted report content and records its metadata.
func (p *ReportPipeline) persist(ctx context.Context, s *State) {
	p.debug("persist", "patient", s.PatientID, "confidence", s.ExtractionConfidence)

	meta, err := p.deps.Store.StoreReport(ctx, s.ExtractedText, s.ExtractionConfidence, s.PatientID)
	if err != nil {
		s.fail(fmt.Errorf("store report: %w", err))
		return
	}
	s.ReportMetadata = &meta
	s.NextStep = StepExtractFindings
}

// extractFindings re-reads the stored report and extracts structured findings.
func (p *ReportPipeline) extractFindings(ctx context.Context, s *State) {
	if s.ReportMetadata == nil {
		s.fail(fmt.Errorf("no report metadata in state"))
		return
	}
	p.debug("extract findings", "report", s.ReportMetadata.ReportID)

	content, err := p.deps.Store.ReportContent(ctx, s.ReportMetadata.ReportID)
	if err != nil {
		s.fail(fmt.Errorf("load report %s: %w", s.ReportMetadata.ReportID, err))
		return
	}

	set, err := p.deps.Extractor.Extract(ctx, content)
	if err != nil {
		s.fail(fmt.Errorf("extract findings: %w", err))
		return
	}

	if err := p.deps.Findings.SaveFindings(ctx, set, *s.ReportMetadata); err != nil {
		s.fail(fmt.Errorf("save findings: %w", err))
		return
	}

	s.Findings = set.Findings
	s.Values = set.Values
	s.NextStep = StepSummarize
}

// summarize compares the latest findings against the patient's history and
// renders the final report summary.
func (p *ReportPipeline) summarize(ctx context.Context, s *State) {
	p.debug("summarize", "patient", s.PatientID)

	history, err := p.deps.Findings.FindingsHistory(ctx, s.PatientID)
	if err != nil {
		s.fail(fmt.Errorf("load findings history: %w", err))
		return
	}
	if len(history) == 0 {
		s.Summary = "No stored findings for this patient."
		s.KeyChanges = "N/A"
		s.FinalResponse = formatReportSummary(s)
		s.NextStep = StepEnd
		return
	}

	latest := history[len(history)-1]
	summary, err := p.deps.Summarizer.Summarize(ctx, latest, history[:len(history)-1])
	if err != nil {
		s.fail(fmt.Errorf("summarize report: %w", err))
		return
	}

	if err := p.deps.Summaries.SaveSummary(ctx, s.PatientID, summary.Summary); err != nil {
		s.fail(fmt.Errorf("save summary: %w", err))
		return
	}

	s.Summary = summary.Summary
	s.KeyChanges = summary.KeyChanges
	s.CurrentValues = summary.CurrentValues
	s.FinalResponse = formatReportSummary(s)
	s.NextStep = StepEnd
}

// errorSink renders the user-facing failure message. It has no collaborators
// and cannot fault itself.
func (p *ReportPipeline) errorSink(_ context.Context, s *State) {
	msg := s.Error
	if msg == "" {
		msg = "unknown error occurred"
	}
	s.FinalResponse = "ERROR: " + msg
	s.NextStep = StepEnd
}

func (p *ReportPipeline) debug(msg string, args ...any) {
	if p.deps.Logger != nil {
		p.deps.Logger.Debug(msg, args...)
	}
}

func formatReportSummary(s *State) string {
	var b strings.Builder
	b.WriteString("MEDICAL REPORT SUMMARY\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	b.WriteString(s.Summary + "\n\n")
	b.WriteString("KEY CHANGES:\n" + s.KeyChanges + "\n")
	if len(s.CurrentValues) > 0 {
		b.WriteString("\nCURRENT VALUES:\n")
		for _, name := range sortedKeys(s.CurrentValues) {
			fmt.Fprintf(&b, "  %s: %s\n", name, s.CurrentValues[name])
		}
	}
	return b.String()
}
