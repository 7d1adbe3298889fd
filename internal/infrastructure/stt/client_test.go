package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"MedReportAgent/internal/config"
)

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "visit.wav")
	if err := os.WriteFile(path, []byte("RIFF fake audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribe(t *testing.T) {
	path := writeAudioFixture(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": " Patient reports mild chest pain. "}`))
	}))
	defer srv.Close()

	client := NewClient(config.STTConfig{Endpoint: srv.URL})
	got, err := client.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Patient reports mild chest pain." {
		t.Errorf("got %q", got)
	}
}

func TestTranscribeServerError(t *testing.T) {
	path := writeAudioFixture(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(config.STTConfig{Endpoint: srv.URL})
	if _, err := client.Transcribe(context.Background(), path); err == nil {
		t.Fatal("expected error")
	}
}

func TestTranscribeEmptyResult(t *testing.T) {
	path := writeAudioFixture(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "  "}`))
	}))
	defer srv.Close()

	client := NewClient(config.STTConfig{Endpoint: srv.URL})
	if _, err := client.Transcribe(context.Background(), path); err == nil {
		t.Fatal("expected error for empty transcription")
	}
}
