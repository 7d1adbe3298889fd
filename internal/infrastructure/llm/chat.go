package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"MedReportAgent/internal/ports"
)

const chatSystemPrompt = "You are a helpful medical assistant chatbot. Answer the user's question " +
	"based on their medical history. Be conversational, helpful, and empathetic. " +
	"Always prioritize patient safety."

// relevantFindingsLimit bounds how many semantically similar findings are
// attached to a chat prompt.
const relevantFindingsLimit = 3

// Chat answers conversational queries against the patient's stored history.
// The collaborator sequence is fixed: load the findings history, run one
// semantic query over stored findings, then make a single completion call.
type Chat struct {
	client   *Client
	findings ports.FindingsStore
	searcher ports.FindingsSearcher
	logger   *slog.Logger
}

var _ ports.ChatResponder = (*Chat)(nil)

// NewChat wires the completion client with the findings stores.
func NewChat(client *Client, findings ports.FindingsStore, searcher ports.FindingsSearcher, logger *slog.Logger) *Chat {
	return &Chat{client: client, findings: findings, searcher: searcher, logger: logger}
}

// Answer responds to a free-text query. The semantic search is best effort: a
// failure there only narrows the context, it does not fail the answer.
func (c *Chat) Answer(ctx context.Context, query, patientID string) (string, error) {
	history, err := c.findings.FindingsHistory(ctx, patientID)
	if err != nil {
		return "", fmt.Errorf("load findings history: %w", err)
	}

	var relevant []string
	if c.searcher != nil {
		relevant, err = c.searcher.SimilarFindings(ctx, patientID, query, relevantFindingsLimit)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("semantic findings search failed", "error", err)
			}
			relevant = nil
		}
	}

	historyJSON, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("marshal findings history: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User query: %s\nPatient ID: %s\n\n", query, patientID)
	fmt.Fprintf(&b, "Report history (oldest first):\n%s\n", historyJSON)
	if len(relevant) > 0 {
		b.WriteString("\nFindings most relevant to the query:\n")
		for _, r := range relevant {
			b.WriteString("- " + r + "\n")
		}
	}

	answer, err := c.client.Complete(ctx, chatSystemPrompt, b.String())
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return answer, nil
}
