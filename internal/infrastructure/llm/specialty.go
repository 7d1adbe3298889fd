package llm

import (
	"context"
	"fmt"
	"log/slog"

	"MedReportAgent/internal/ports"
)

const specialtySystemPrompt = "You are a medical search assistant. " +
	"Respond with ONLY a valid JSON object, no markdown fences and no extra text."

// SpecialtyClassifier maps a medical summary to the doctor specialization the
// patient should consult.
type SpecialtyClassifier struct {
	client *Client
	logger *slog.Logger
}

var _ ports.SpecialtyClassifier = (*SpecialtyClassifier)(nil)

// NewSpecialtyClassifier wires the shared completion client.
func NewSpecialtyClassifier(client *Client, logger *slog.Logger) *SpecialtyClassifier {
	return &SpecialtyClassifier{client: client, logger: logger}
}

// ClassifySpecialty returns a specialization name such as "Cardiologist". An
// unparseable reply degrades to "Unable to determine"; the caller decides
// whether that is fatal.
func (c *SpecialtyClassifier) ClassifySpecialty(ctx context.Context, summaryText string) (string, error) {
	prompt := fmt.Sprintf(`Given the patient's most recent medical summary, identify the most appropriate
doctor specialization (e.g., Cardiologist, Nephrologist, Pulmonologist) based on the
symptoms, diagnosis, or treatment described.

Summary:
%s

Return this exact JSON structure:
{"doctor_type": "<doctor specialization>"}`, summaryText)

	reply, err := c.client.Complete(ctx, specialtySystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("specialty completion: %w", err)
	}

	var out struct {
		DoctorType string `json:"doctor_type"`
	}
	if err := DecodeJSON(reply, &out); err != nil {
		if c.logger != nil {
			c.logger.Warn("specialty reply not parseable", "error", err)
		}
		return "Unable to determine", nil
	}
	if out.DoctorType == "" {
		return "Unable to determine", nil
	}
	return out.DoctorType, nil
}
