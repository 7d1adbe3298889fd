package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"MedReportAgent/internal/config"
	"MedReportAgent/internal/infrastructure/embed"
	"MedReportAgent/internal/infrastructure/geo"
	"MedReportAgent/internal/infrastructure/llm"
	"MedReportAgent/internal/infrastructure/maps"
	"MedReportAgent/internal/infrastructure/ocr"
	"MedReportAgent/internal/infrastructure/storage"
	"MedReportAgent/internal/infrastructure/stt"
	"MedReportAgent/internal/logging"
	"MedReportAgent/internal/pipeline"
)

// Application wires configs to the report and search pipelines and their
// collaborators.
type Application struct {
	cfg    config.Config
	pool   *pgxpool.Pool
	report *pipeline.Graph
	search *pipeline.Graph
	logger *slog.Logger
}

// New connects the database, builds every adapter, and compiles both
// pipeline graphs. A compile failure here means the routing tables are
// misconfigured and nothing should run.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	embedder := embed.NewClient(cfg.Embeddings)
	store := storage.New(pool, embedder, baseLogger.With("component", "storage"))
	if err := store.Init(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}

	llmClient := llm.NewClient(cfg.LLM)

	reportPipeline := pipeline.NewReportPipeline(pipeline.ReportDeps{
		Documents:  ocr.NewExtractor(cfg.OCR, baseLogger),
		Audio:      stt.NewClient(cfg.STT),
		Chat:       llm.NewChat(llmClient, store, store, baseLogger.With("component", "chat")),
		Store:      store,
		Extractor:  llm.NewExtractor(llmClient, baseLogger.With("component", "extractor")),
		Findings:   store,
		Summarizer: llm.NewSummarizer(llmClient, baseLogger.With("component", "summarizer")),
		Summaries:  store,
		Logger:     baseLogger.With("component", "report-pipeline"),
	})
	reportGraph, err := reportPipeline.Graph()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("compile report pipeline: %w", err)
	}

	searchPipeline := pipeline.NewSearchPipeline(pipeline.SearchDeps{
		Summaries:  store,
		Classifier: llm.NewSpecialtyClassifier(llmClient, baseLogger.With("component", "classifier")),
		Locator:    geo.NewLocator(cfg.Geo),
		Searcher:   maps.NewScraper(cfg.Search, nil),
		Logger:     baseLogger.With("component", "search-pipeline"),
	})
	searchGraph, err := searchPipeline.Graph()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("compile search pipeline: %w", err)
	}

	return &Application{
		cfg:    cfg,
		pool:   pool,
		report: reportGraph,
		search: searchGraph,
		logger: baseLogger,
	}, nil
}

// ProcessFile runs the report pipeline on a file, detecting the input kind
// from the extension. Plain text files are read up front; everything else is
// handed to the matching extractor by path.
func (a *Application) ProcessFile(ctx context.Context, path, patientID string) (string, error) {
	kind, err := inputKindForPath(path)
	if err != nil {
		return "", err
	}

	rawText := ""
	if kind == pipeline.KindText {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		rawText = string(data)
	}

	state := pipeline.NewReportRun(kind, path, rawText, patientID)
	if err := a.report.Run(ctx, state); err != nil {
		return "", err
	}
	return state.FinalResponse, nil
}

// ProcessText runs the report pipeline on typed input. The intake stage
// decides whether it is a report or a conversational query.
func (a *Application) ProcessText(ctx context.Context, text, patientID string) (string, error) {
	state := pipeline.NewReportRun(pipeline.KindText, "", text, patientID)
	if err := a.report.Run(ctx, state); err != nil {
		return "", err
	}
	return state.FinalResponse, nil
}

// SearchSpecialists runs the doctor search pipeline for the patient.
func (a *Application) SearchSpecialists(ctx context.Context, patientID string) (string, error) {
	state := pipeline.NewSearchRun(patientID)
	if err := a.search.Run(ctx, state); err != nil {
		return "", err
	}
	return state.FinalResponse, nil
}

// Close releases the database pool.
func (a *Application) Close() {
	a.pool.Close()
}

func inputKindForPath(path string) (pipeline.InputKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return pipeline.KindDocument, nil
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp":
		return pipeline.KindImage, nil
	case ".wav", ".mp3", ".m4a", ".flac", ".ogg":
		return pipeline.KindAudio, nil
	case ".txt", ".md":
		return pipeline.KindText, nil
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}
