package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/mmynk/tabsplit/internal/models"
)

const (
	DefaultGeminiModel = "gemini-2.5-pro"
	defaultTimeout     = 60 * time.Second
)

// Gemini implements Scanner using Google Gemini.
type Gemini struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGemini creates a Gemini scanner. An empty model name selects
// DefaultGeminiModel; a zero timeout selects 60s per call.
func NewGemini(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	return &Gemini{client: client, model: model, timeout: timeout}, nil
}

// ScanReceipt sends the normalized image with the receipt prompt.
func (g *Gemini) ScanReceipt(ctx context.Context, image []byte, mimeType string) (*models.Receipt, error) {
	png, err := prepareImage(image, mimeType)
	if err != nil {
		return nil, err
	}

	// genai.ImageData takes the format suffix, not the MIME type.
	text, err := g.generate(ctx, genai.ImageData("png", png), genai.Text(receiptPrompt))
	if err != nil {
		return nil, err
	}

	receipt, err := parseReceiptJSON(text)
	if err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}
	slog.Debug("Gemini scanned receipt", "items", len(receipt.Items), "currency", receipt.Currency)
	return receipt, nil
}

// InterpretCommand asks the model to turn a command into assignment updates.
func (g *Gemini) InterpretCommand(ctx context.Context, message string, snapshot models.CommandSnapshot) (*models.CommandResult, error) {
	prompt, err := commandPrompt(message, snapshot)
	if err != nil {
		return nil, err
	}

	text, err := g.generate(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}

	result, err := parseCommandJSON(text)
	if err != nil {
		return nil, fmt.Errorf("parsing command: %w", err)
	}
	return result, nil
}

func (g *Gemini) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no response from gemini", ErrMalformedResponse)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
