package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("expected default session TTL 12h, got %v", cfg.SessionTTL)
	}
	if cfg.QualityThreshold != 500 {
		t.Errorf("expected default quality threshold 500, got %d", cfg.QualityThreshold)
	}
	if cfg.OCRDPI != 200 {
		t.Errorf("expected default DPI 200, got %d", cfg.OCRDPI)
	}
	if len(cfg.OCRLanguages) != 1 || cfg.OCRLanguages[0] != "eng" {
		t.Errorf("expected default OCR language [eng], got %v", cfg.OCRLanguages)
	}
	if cfg.GroqModel != "llama-3.1-70b-versatile" {
		t.Errorf("expected default model, got %q", cfg.GroqModel)
	}
	if cfg.Temperature != 0.3 {
		t.Errorf("expected default temperature 0.3, got %v", cfg.Temperature)
	}
	if cfg.MaxAnswerTokens != 2000 {
		t.Errorf("expected default max answer tokens 2000, got %d", cfg.MaxAnswerTokens)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUALITY_THRESHOLD", "100")
	t.Setenv("OCR_LANGUAGES", "eng, deu")
	t.Setenv("TEMPERATURE", "0")
	t.Setenv("WORKER_COUNT", "8")

	cfg := Load()
	if cfg.QualityThreshold != 100 {
		t.Errorf("expected threshold 100, got %d", cfg.QualityThreshold)
	}
	if len(cfg.OCRLanguages) != 2 || cfg.OCRLanguages[1] != "deu" {
		t.Errorf("expected languages [eng deu], got %v", cfg.OCRLanguages)
	}
	// Zero is a valid temperature, distinct from unset.
	if cfg.Temperature != 0 {
		t.Errorf("expected temperature 0, got %v", cfg.Temperature)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.WorkerCount)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")
	t.Setenv("SESSION_TTL", "soon")

	cfg := Load()
	if cfg.WorkerCount != 2 {
		t.Errorf("expected fallback worker count 2, got %d", cfg.WorkerCount)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("expected fallback session TTL, got %v", cfg.SessionTTL)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Load()
		cfg.GroqAPIKey = "gsk-test"
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg := base()
	cfg.GroqAPIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing GROQ_API_KEY")
	}

	cfg = base()
	cfg.CloudOCRURL = "https://ocr.example.com"
	cfg.CloudOCRAPIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for cloud OCR URL without key")
	}

	cfg = base()
	cfg.OCRDPI = 30
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for DPI below 72")
	}

	cfg = base()
	cfg.Temperature = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for temperature above 1")
	}
}
