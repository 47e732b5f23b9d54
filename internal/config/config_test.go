package config

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/peterbourgon/ff/v4"
)

func validScanner() ScannerConfig {
	return ScannerConfig{
		Kind:      ScannerGemini,
		GeminiKey: "key",
		OllamaURL: "http://localhost:11434",
		Timeout:   time.Minute,
	}
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*ServerConfig)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid config",
			modify:  func(c *ServerConfig) {},
			wantErr: false,
		},
		{
			name:    "valid ollama config without gemini key",
			modify:  func(c *ServerConfig) { c.Scanner.Kind = ScannerOllama; c.Scanner.GeminiKey = "" },
			wantErr: false,
		},
		{
			name:        "missing gemini key",
			modify:      func(c *ServerConfig) { c.Scanner.GeminiKey = "" },
			wantErr:     true,
			errorString: "Gemini API key is required",
		},
		{
			name:        "unknown scanner",
			modify:      func(c *ServerConfig) { c.Scanner.Kind = "openai" },
			wantErr:     true,
			errorString: "invalid scanner 'openai': must be one of [gemini ollama]",
		},
		{
			name:        "bad ollama url",
			modify:      func(c *ServerConfig) { c.Scanner.Kind = ScannerOllama; c.Scanner.OllamaURL = "localhost:11434" },
			wantErr:     true,
			errorString: "invalid Ollama URL",
		},
		{
			name:        "short timeout",
			modify:      func(c *ServerConfig) { c.Scanner.Timeout = 0 },
			wantErr:     true,
			errorString: "invalid scan timeout 0s",
		},
		{
			name:        "negative rate limit",
			modify:      func(c *ServerConfig) { c.RateLimit = -1 },
			wantErr:     true,
			errorString: "invalid rate limit -1",
		},
		{
			name:        "image limit too large",
			modify:      func(c *ServerConfig) { c.MaxImageBytes = 1 << 30 },
			wantErr:     true,
			errorString: "invalid max image bytes",
		},
		{
			name:        "bad public origin",
			modify:      func(c *ServerConfig) { c.PublicOrigin = "ftp://example.com" },
			wantErr:     true,
			errorString: "invalid public origin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &ServerConfig{
				Addr:          ":8080",
				Scanner:       validScanner(),
				RateLimit:     20,
				MaxImageBytes: 10 << 20,
			}
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("expected error containing %q, got %q", tt.errorString, err.Error())
				}
			} else if err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
		})
	}
}

func TestServerConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := &ServerConfig{
		Scanner:       ScannerConfig{Kind: "nope"},
		RateLimit:     -5,
		MaxImageBytes: 0,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error but got none")
	}
	for _, want := range []string{
		"configuration validation failed:",
		"listen address cannot be empty",
		"invalid scanner 'nope'",
		"invalid scan timeout",
		"invalid rate limit -5",
		"invalid max image bytes 0",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to contain %q, got:\n%s", want, err.Error())
		}
	}
}

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ClientConfig
		wantErr string
	}{
		{
			name:   "direct gemini",
			config: ClientConfig{Scanner: validScanner(), Origin: "https://tabsplit.example"},
		},
		{
			name:   "server ignores scanner settings",
			config: ClientConfig{ServerURL: "http://localhost:8080", Origin: "http://localhost:8080"},
		},
		{
			name:    "bad server url",
			config:  ClientConfig{ServerURL: "localhost", Origin: "http://localhost:8080"},
			wantErr: "invalid server URL",
		},
		{
			name:    "no scanner and no server",
			config:  ClientConfig{Origin: "http://localhost:8080"},
			wantErr: "invalid scanner ''",
		},
		{
			name:    "bad origin",
			config:  ClientConfig{ServerURL: "http://localhost:8080", Origin: "/share"},
			wantErr: "invalid origin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error but got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "TABSPLIT_ADDR", "TABSPLIT_SCANNER", "TABSPLIT_GEMINI_KEY",
		"TABSPLIT_RATE_LIMIT", "TABSPLIT_SERVER_URL", "TABSPLIT_LOG_JSON",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadServer(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("TABSPLIT_RATE_LIMIT", "5")

	cfg, err := LoadServer([]string{"--addr", ":9090", "--scan-timeout-seconds", "30", "--log-json", "--public-origin", "https://tabsplit.example/"})
	if err != nil {
		t.Fatalf("LoadServer failed: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %q", cfg.Addr)
	}
	if cfg.Scanner.GeminiKey != "from-env" {
		t.Errorf("expected GEMINI_API_KEY fallback, got %q", cfg.Scanner.GeminiKey)
	}
	if cfg.RateLimit != 5 {
		t.Errorf("expected rate limit from TABSPLIT_RATE_LIMIT, got %d", cfg.RateLimit)
	}
	if cfg.Scanner.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Scanner.Timeout)
	}
	if !cfg.LogJSON {
		t.Error("expected --log-json to be set")
	}
	if cfg.PublicOrigin != "https://tabsplit.example" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.PublicOrigin)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected loaded config to be valid: %v", err)
	}
}

func TestLoadServer_FlagOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TABSPLIT_GEMINI_KEY", "env-key")

	cfg, err := LoadServer([]string{"--gemini-key", "flag-key"})
	if err != nil {
		t.Fatalf("LoadServer failed: %v", err)
	}
	if cfg.Scanner.GeminiKey != "flag-key" {
		t.Errorf("expected flag to win, got %q", cfg.Scanner.GeminiKey)
	}
}

func TestLoadServer_UnknownFlag(t *testing.T) {
	clearEnv(t)

	_, err := LoadServer([]string{"--db", "bills.db"})
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("expected UsageError, got %v", err)
	}
	if !strings.Contains(usage.Help, "--rate-limit") {
		t.Errorf("expected help to list flags, got:\n%s", usage.Help)
	}
}

func TestLoadServer_Help(t *testing.T) {
	clearEnv(t)

	_, err := LoadServer([]string{"--help"})
	if !errors.Is(err, ff.ErrHelp) {
		t.Errorf("expected ff.ErrHelp, got %v", err)
	}
}

func TestLoadClient(t *testing.T) {
	clearEnv(t)
	t.Setenv("TABSPLIT_SERVER_URL", "http://localhost:8080/")

	cfg, err := LoadClient([]string{"--origin", "https://tabsplit.example", "receipt.heic"})
	if err != nil {
		t.Fatalf("LoadClient failed: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8080" {
		t.Errorf("unexpected server url %q", cfg.ServerURL)
	}
	if cfg.Image != "receipt.heic" {
		t.Errorf("expected positional image, got %q", cfg.Image)
	}
	if cfg.Scanner.Kind != ScannerGemini {
		t.Errorf("expected default scanner gemini, got %q", cfg.Scanner.Kind)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected loaded config to be valid: %v", err)
	}
}

func TestLoadClient_TooManyImages(t *testing.T) {
	clearEnv(t)

	_, err := LoadClient([]string{"a.jpg", "b.jpg"})
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("expected UsageError, got %v", err)
	}
}
