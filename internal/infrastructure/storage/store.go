package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/pgvector/pgvector-go"

	"MedReportAgent/internal/domain"
	"MedReportAgent/internal/ports"
)

const (
	chunkSize    = 1500
	chunkOverlap = 300
)

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE SEQUENCE IF NOT EXISTS report_id_seq`,
	`CREATE TABLE IF NOT EXISTS reports (
		report_id   TEXT PRIMARY KEY,
		patient_id  TEXT NOT NULL,
		report_date TEXT NOT NULL,
		confidence  DOUBLE PRECISION NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS report_chunks (
		id         TEXT PRIMARY KEY,
		report_id  TEXT NOT NULL,
		patient_id TEXT NOT NULL,
		seq        INT NOT NULL,
		content    TEXT NOT NULL,
		embedding  vector(768),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS findings (
		id         TEXT PRIMARY KEY,
		report_id  TEXT NOT NULL,
		patient_id TEXT NOT NULL,
		doc        TEXT NOT NULL,
		embedding  vector(768),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS summaries (
		id         TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		summary    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Store persists reports, findings, and summaries in Postgres with pgvector
// embeddings for semantic lookup.
type Store struct {
	pool     *pgxpool.Pool
	embedder ports.Embedder
	logger   *slog.Logger
	builder  sq.StatementBuilderType
}

var _ ports.DocumentStore = (*Store)(nil)
var _ ports.FindingsStore = (*Store)(nil)
var _ ports.FindingsSearcher = (*Store)(nil)
var _ ports.SummaryStore = (*Store)(nil)

// New wires a connection pool and an embedder.
func New(pool *pgxpool.Pool, embedder ports.Embedder, logger *slog.Logger) *Store {
	return &Store{
		pool:     pool,
		embedder: embedder,
		logger:   logger,
		builder:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Init creates the schema if it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// StoreReport assigns the next sequential report ID, extracts the report date
// from the content, and persists the content in embedded chunks. Report IDs
// are a single global sequence ("RPT-1", "RPT-2", ...), not per patient.
func (s *Store) StoreReport(ctx context.Context, content string, confidence float64, patientID string) (domain.ReportMetadata, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT nextval('report_id_seq')`).Scan(&n); err != nil {
		return domain.ReportMetadata{}, fmt.Errorf("next report id: %w", err)
	}

	meta := domain.ReportMetadata{
		ReportID:   fmt.Sprintf("RPT-%d", n),
		PatientID:  patientID,
		ReportDate: extractReportDate(content),
		Confidence: confidence,
	}

	query, args, err := s.builder.
		Insert("reports").
		Columns("report_id", "patient_id", "report_date", "confidence").
		Values(meta.ReportID, meta.PatientID, meta.ReportDate, meta.Confidence).
		ToSql()
	if err != nil {
		return domain.ReportMetadata{}, fmt.Errorf("build report insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return domain.ReportMetadata{}, fmt.Errorf("insert report: %w", err)
	}

	chunks := chunkText(content, chunkSize, chunkOverlap)
	for i, chunk := range chunks {
		emb, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			return domain.ReportMetadata{}, fmt.Errorf("embed chunk %d: %w", i, err)
		}

		query, args, err := s.builder.
			Insert("report_chunks").
			Columns("id", "report_id", "patient_id", "seq", "content", "embedding").
			Values(ulid.Make().String(), meta.ReportID, patientID, i, chunk, pgvector.NewVector(emb)).
			ToSql()
		if err != nil {
			return domain.ReportMetadata{}, fmt.Errorf("build chunk insert: %w", err)
		}
		if _, err := s.pool.Exec(ctx, query, args...); err != nil {
			return domain.ReportMetadata{}, fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	s.debug("report stored", "report", meta.ReportID, "patient", patientID, "chunks", len(chunks))
	return meta, nil
}

// ReportContent reassembles the full report text from its stored chunks.
func (s *Store) ReportContent(ctx context.Context, reportID string) (string, error) {
	query, args, err := s.builder.
		Select("content").
		From("report_chunks").
		Where(sq.Eq{"report_id": reportID}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build content query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("query report content: %w", err)
	}
	defer rows.Close()

	var content string
	count := 0
	for rows.Next() {
		var chunk string
		if err := rows.Scan(&chunk); err != nil {
			return "", fmt.Errorf("scan chunk: %w", err)
		}
		if count > 0 {
			content += "\n"
		}
		content += chunk
		count++
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("rows iteration: %w", err)
	}
	if count == 0 {
		return "", fmt.Errorf("report %s: %w", reportID, ports.ErrNotFound)
	}
	return content, nil
}

// SaveFindings persists one extracted findings set together with an embedding
// of its JSON document.
func (s *Store) SaveFindings(ctx context.Context, set domain.FindingsSet, meta domain.ReportMetadata) error {
	doc, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}

	emb, err := s.embedder.Embed(ctx, string(doc))
	if err != nil {
		return fmt.Errorf("embed findings: %w", err)
	}

	query, args, err := s.builder.
		Insert("findings").
		Columns("id", "report_id", "patient_id", "doc", "embedding").
		Values(ulid.Make().String(), meta.ReportID, meta.PatientID, string(doc), pgvector.NewVector(emb)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build findings insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert findings: %w", err)
	}

	s.debug("findings stored", "report", meta.ReportID, "patient", meta.PatientID)
	return nil
}

// FindingsHistory returns the patient's findings sets oldest first.
// Unparseable rows are skipped.
func (s *Store) FindingsHistory(ctx context.Context, patientID string) ([]domain.FindingsSet, error) {
	query, args, err := s.builder.
		Select("doc").
		From("findings").
		Where(sq.Eq{"patient_id": patientID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query findings history: %w", err)
	}
	defer rows.Close()

	var history []domain.FindingsSet
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan findings doc: %w", err)
		}
		var set domain.FindingsSet
		if err := json.Unmarshal([]byte(doc), &set); err != nil {
			s.debug("skipping unparseable findings doc", "patient", patientID, "error", err)
			continue
		}
		history = append(history, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return history, nil
}

// SimilarFindings runs a vector similarity search over the patient's stored
// findings documents.
func (s *Store) SimilarFindings(ctx context.Context, patientID, queryText string, topK int) ([]string, error) {
	emb, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	query, args, err := s.builder.
		Select("doc").
		From("findings").
		Where(sq.Eq{"patient_id": patientID}).
		OrderByClause("embedding <-> ?", pgvector.NewVector(emb)).
		Limit(uint64(topK)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build similarity query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query similar findings: %w", err)
	}
	defer rows.Close()

	var docs []string
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan findings doc: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return docs, nil
}

// SaveSummary stores one generated summary for the patient.
func (s *Store) SaveSummary(ctx context.Context, patientID, summary string) error {
	query, args, err := s.builder.
		Insert("summaries").
		Columns("id", "patient_id", "summary").
		Values(ulid.Make().String(), patientID, summary).
		ToSql()
	if err != nil {
		return fmt.Errorf("build summary insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// MostRecentSummary returns the latest stored summary for the patient, or
// ports.ErrNotFound when none exists.
func (s *Store) MostRecentSummary(ctx context.Context, patientID string) (string, error) {
	query, args, err := s.builder.
		Select("summary").
		From("summaries").
		Where(sq.Eq{"patient_id": patientID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build summary query: %w", err)
	}

	var summary string
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&summary); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("summary for %s: %w", patientID, ports.ErrNotFound)
		}
		return "", fmt.Errorf("query summary: %w", err)
	}
	return summary, nil
}

func (s *Store) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
