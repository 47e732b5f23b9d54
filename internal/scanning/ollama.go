package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmynk/tabsplit/internal/models"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llava"
)

// Ollama implements Scanner against a local Ollama server.
// Vision models that read receipts reasonably well: llava:1.6, qwen2-vl:7b,
// llama3.2-vision.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates an Ollama scanner. Empty arguments select the defaults.
func NewOllama(baseURL, modelName string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if modelName == "" {
		modelName = DefaultOllamaModel
	}
	if timeout <= 0 {
		// Vision models on local hardware are slow.
		timeout = 120 * time.Second
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client:  &http.Client{Timeout: timeout},
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// ScanReceipt sends the normalized image with the receipt prompt.
func (o *Ollama) ScanReceipt(ctx context.Context, image []byte, mimeType string) (*models.Receipt, error) {
	png, err := prepareImage(image, mimeType)
	if err != nil {
		return nil, err
	}

	text, err := o.chat(ctx, ollamaMessage{
		Role:    "user",
		Content: receiptPrompt,
		Images:  []string{base64.StdEncoding.EncodeToString(png)},
	})
	if err != nil {
		return nil, err
	}

	receipt, err := parseReceiptJSON(text)
	if err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}
	return receipt, nil
}

// InterpretCommand asks the model to turn a command into assignment updates.
func (o *Ollama) InterpretCommand(ctx context.Context, message string, snapshot models.CommandSnapshot) (*models.CommandResult, error) {
	prompt, err := commandPrompt(message, snapshot)
	if err != nil {
		return nil, err
	}

	text, err := o.chat(ctx, ollamaMessage{Role: "user", Content: prompt})
	if err != nil {
		return nil, err
	}

	result, err := parseCommandJSON(text)
	if err != nil {
		return nil, fmt.Errorf("parsing command: %w", err)
	}
	return result, nil
}

func (o *Ollama) chat(ctx context.Context, msg ollamaMessage) (string, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    o.model,
		Stream:   false,
		Format:   "json",
		Messages: []ollamaMessage{{Role: "system", Content: systemPrompt}, msg},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: decoding ollama response: %v", ErrMalformedResponse, err)
	}
	return chatResp.Message.Content, nil
}

// Close is a no-op.
func (o *Ollama) Close() error {
	return nil
}
