package llm

import (
	"context"
	"fmt"
	"log/slog"

	"MedReportAgent/internal/domain"
	"MedReportAgent/internal/ports"
)

const extractorSystemPrompt = "You are an information extraction agent for medical reports. " +
	"Respond with ONLY a valid JSON object, no markdown fences and no extra text."

// Extractor pulls structured findings out of raw report text via the LLM.
type Extractor struct {
	client *Client
	logger *slog.Logger
}

var _ ports.FindingsExtractor = (*Extractor)(nil)

// NewExtractor wires the shared completion client.
func NewExtractor(client *Client, logger *slog.Logger) *Extractor {
	return &Extractor{client: client, logger: logger}
}

// Extract asks the model for findings and values. A transport fault is
// returned to the caller; an unparseable reply degrades to an empty findings
// set instead of failing the run.
func (e *Extractor) Extract(ctx context.Context, reportText string) (domain.FindingsSet, error) {
	prompt := fmt.Sprintf(`Analyse the following medical report text and extract the important information.

Report text:
%s

Return this exact JSON structure:
{
  "findings": ["only the important details about the patient's condition"],
  "values": {"parameter_name": "value with unit"}
}`, reportText)

	reply, err := e.client.Complete(ctx, extractorSystemPrompt, prompt)
	if err != nil {
		return domain.FindingsSet{}, fmt.Errorf("extraction completion: %w", err)
	}

	var set domain.FindingsSet
	if err := DecodeJSON(reply, &set); err != nil {
		if e.logger != nil {
			e.logger.Warn("extraction reply not parseable, returning empty findings", "error", err)
		}
		return domain.FindingsSet{Findings: []string{}, Values: map[string]string{}}, nil
	}
	if set.Findings == nil {
		set.Findings = []string{}
	}
	if set.Values == nil {
		set.Values = map[string]string{}
	}
	return set, nil
}
