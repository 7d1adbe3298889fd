package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"MedReportAgent/internal/domain"
	"MedReportAgent/internal/ports"
)

const summarizerSystemPrompt = "You are a medical summarization agent. " +
	"Respond with ONLY a valid JSON object, no markdown fences and no extra text."

// Summarizer generates a patient summary by comparing the latest findings
// against the report history.
type Summarizer struct {
	client *Client
	logger *slog.Logger
}

var _ ports.Summarizer = (*Summarizer)(nil)

// NewSummarizer wires the shared completion client.
func NewSummarizer(client *Client, logger *slog.Logger) *Summarizer {
	return &Summarizer{client: client, logger: logger}
}

// Summarize asks the model for a summary, key changes, and current values. An
// unparseable reply degrades to the raw text as the summary with an explicit
// "unable to extract changes" marker.
func (s *Summarizer) Summarize(ctx context.Context, latest domain.FindingsSet, history []domain.FindingsSet) (domain.Summary, error) {
	latestJSON, err := json.Marshal(latest)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("marshal latest findings: %w", err)
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("marshal findings history: %w", err)
	}

	prompt := fmt.Sprintf(`Analyze the patient's medical reports and provide a comprehensive summary.

Latest findings and values:
%s

Past reports (for context):
%s

Return this exact JSON structure:
{
  "summary": "A clear, concise summary of the patient's current medical condition based on the latest report.",
  "key_changes": "Comparison with previous reports. If this is the first report, state 'This is the first report on file.'",
  "current_values": {"parameter_name": "value with unit"}
}

Make sure current_values contains ALL important medical values from the latest report with their units.`,
		latestJSON, historyJSON)

	reply, err := s.client.Complete(ctx, summarizerSystemPrompt, prompt)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("summary completion: %w", err)
	}

	var out domain.Summary
	if err := DecodeJSON(reply, &out); err != nil {
		if s.logger != nil {
			s.logger.Warn("summary reply not parseable, falling back to raw text", "error", err)
		}
		return domain.Summary{
			Summary:       reply,
			KeyChanges:    "Unable to extract changes",
			CurrentValues: map[string]string{},
		}, nil
	}

	if out.Summary == "" {
		out.Summary = "No summary available"
	}
	if out.KeyChanges == "" {
		out.KeyChanges = "No changes detected"
	}
	if out.CurrentValues == nil {
		out.CurrentValues = map[string]string{}
	}
	return out, nil
}
