// Package config reads command-line flags, TABSPLIT_* environment variables
// and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/mmynk/tabsplit/internal/scanning"
)

const envPrefix = "TABSPLIT"

const (
	ScannerGemini = "gemini"
	ScannerOllama = "ollama"
)

// maxImageLimit caps --max-image-bytes.
const maxImageLimit = 50 << 20

// ScannerConfig selects and configures the model backend.
type ScannerConfig struct {
	Kind        string
	GeminiKey   string
	GeminiModel string
	OllamaURL   string
	OllamaModel string
	Timeout     time.Duration
}

// ServerConfig configures cmd/server.
type ServerConfig struct {
	Addr          string
	Scanner       ScannerConfig
	RateLimit     int // scans per minute, 0 disables
	MaxImageBytes int
	PublicOrigin  string
	LogLevel      string
	LogJSON       bool
}

// ClientConfig configures cmd/tabsplit.
type ClientConfig struct {
	// ServerURL, when set, sends scans and commands through a tabsplit server
	// instead of calling the model directly.
	ServerURL string
	Scanner   ScannerConfig
	Origin    string
	LogLevel  string
	// Image is an optional receipt to scan on startup.
	Image string
}

// UsageError is returned when the arguments cannot be parsed. Help holds the
// flag usage text.
type UsageError struct {
	Help string
	Err  error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

type scannerFlags struct {
	kind, geminiKey, geminiModel, ollamaURL, ollamaModel *string
	timeout                                              *int
}

func addScannerFlags(fs *ff.FlagSet) scannerFlags {
	return scannerFlags{
		kind:        fs.StringLong("scanner", ScannerGemini, "model backend: 'gemini' or 'ollama'"),
		geminiKey:   fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY)"),
		geminiModel: fs.StringLong("gemini-model", scanning.DefaultGeminiModel, "Google Gemini model name"),
		ollamaURL:   fs.StringLong("ollama-url", scanning.DefaultOllamaURL, "Ollama API base URL"),
		ollamaModel: fs.StringLong("ollama-model", scanning.DefaultOllamaModel, "Ollama vision model (e.g., llava:1.6, qwen2-vl:7b)"),
		timeout:     fs.IntLong("scan-timeout-seconds", 60, "timeout for a single model call"),
	}
}

func (f scannerFlags) config() ScannerConfig {
	key := *f.geminiKey
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	return ScannerConfig{
		Kind:        strings.ToLower(strings.TrimSpace(*f.kind)),
		GeminiKey:   key,
		GeminiModel: *f.geminiModel,
		OllamaURL:   *f.ollamaURL,
		OllamaModel: *f.ollamaModel,
		Timeout:     time.Duration(*f.timeout) * time.Second,
	}
}

// LoadServer parses the server configuration from args and the environment.
func LoadServer(args []string) (*ServerConfig, error) {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("tabsplit-server")
	var (
		addr          = fs.StringLong("addr", ":8080", "listen address")
		scanner       = addScannerFlags(fs)
		rateLimit     = fs.IntLong("rate-limit", 20, "receipt scans per minute, 0 to disable")
		maxImageBytes = fs.IntLong("max-image-bytes", 10<<20, "largest accepted upload in bytes")
		publicOrigin  = fs.StringLong("public-origin", "", "origin of share links served by this server")
		logLevel      = fs.StringLong("log-level", "info", "log level: debug, info, warn, error")
		logJSON       = fs.BoolLong("log-json", "log JSON lines instead of colored text")
	)

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix(envPrefix)); err != nil {
		return nil, &UsageError{Help: fmt.Sprint(ffhelp.Flags(fs)), Err: err}
	}

	return &ServerConfig{
		Addr:          *addr,
		Scanner:       scanner.config(),
		RateLimit:     *rateLimit,
		MaxImageBytes: *maxImageBytes,
		PublicOrigin:  strings.TrimSuffix(*publicOrigin, "/"),
		LogLevel:      *logLevel,
		LogJSON:       *logJSON,
	}, nil
}

// LoadClient parses the client configuration from args and the environment.
// A single positional argument names a receipt image to scan on startup.
func LoadClient(args []string) (*ClientConfig, error) {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("tabsplit")
	var (
		serverURL = fs.StringLong("server-url", "", "tabsplit server to scan through (empty: call the model directly)")
		scanner   = addScannerFlags(fs)
		origin    = fs.StringLong("origin", "http://localhost:8080", "origin used in share links")
		logLevel  = fs.StringLong("log-level", "warn", "log level: debug, info, warn, error")
	)

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix(envPrefix)); err != nil {
		return nil, &UsageError{Help: fmt.Sprint(ffhelp.Flags(fs, "tabsplit [FLAGS] [receipt.jpg]")), Err: err}
	}

	cfg := &ClientConfig{
		ServerURL: strings.TrimSuffix(*serverURL, "/"),
		Scanner:   scanner.config(),
		Origin:    strings.TrimSuffix(*origin, "/"),
		LogLevel:  *logLevel,
	}
	switch rest := fs.GetArgs(); len(rest) {
	case 0:
	case 1:
		cfg.Image = rest[0]
	default:
		return nil, &UsageError{Help: fmt.Sprint(ffhelp.Flags(fs)), Err: fmt.Errorf("expected at most one image, got %d", len(rest))}
	}
	return cfg, nil
}

// Validate reports every problem with the scanner configuration.
func (c ScannerConfig) Validate() error {
	var errs []string
	switch c.Kind {
	case ScannerGemini:
		if c.GeminiKey == "" {
			errs = append(errs, "Gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
	case ScannerOllama:
		if err := validateHTTPURL(c.OllamaURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid Ollama URL: %v", err))
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid scanner '%s': must be one of [%s %s]", c.Kind, ScannerGemini, ScannerOllama))
	}
	if c.Timeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid scan timeout %v: must be at least 1 second", c.Timeout))
	}
	return joinErrors(errs)
}

// Validate reports every problem with the server configuration.
func (c *ServerConfig) Validate() error {
	var errs []string
	if c.Addr == "" {
		errs = append(errs, "listen address cannot be empty")
	}
	if err := c.Scanner.Validate(); err != nil {
		errs = append(errs, unwrapLines(err)...)
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimit))
	}
	if c.MaxImageBytes < 1 || c.MaxImageBytes > maxImageLimit {
		errs = append(errs, fmt.Sprintf("invalid max image bytes %d: must be between 1 and %d", c.MaxImageBytes, maxImageLimit))
	}
	if c.PublicOrigin != "" {
		if err := validateHTTPURL(c.PublicOrigin); err != nil {
			errs = append(errs, fmt.Sprintf("invalid public origin: %v", err))
		}
	}
	return joinErrors(errs)
}

// Validate reports every problem with the client configuration. The scanner
// settings only matter without a server.
func (c *ClientConfig) Validate() error {
	var errs []string
	if c.ServerURL != "" {
		if err := validateHTTPURL(c.ServerURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid server URL: %v", err))
		}
	} else if err := c.Scanner.Validate(); err != nil {
		errs = append(errs, unwrapLines(err)...)
	}
	if err := validateHTTPURL(c.Origin); err != nil {
		errs = append(errs, fmt.Sprintf("invalid origin: %v", err))
	}
	return joinErrors(errs)
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("'%s' must start with http:// or https://", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("'%s' has no host", raw)
	}
	return nil
}

// validationError keeps the individual problems so that nested Validate calls
// can be merged into one list.
type validationError struct {
	problems []string
}

func (e *validationError) Error() string {
	return "configuration validation failed:\n- " + strings.Join(e.problems, "\n- ")
}

func joinErrors(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &validationError{problems: problems}
}

func unwrapLines(err error) []string {
	var v *validationError
	if errors.As(err, &v) {
		return v.problems
	}
	return []string{err.Error()}
}
