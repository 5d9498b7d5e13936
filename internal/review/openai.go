package review

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/pairpad/collab-service/internal/config"
)

const systemPrompt = "You are a senior code reviewer. Review the submitted code for " +
	"correctness, readability and potential bugs. Reply in markdown with concrete, " +
	"actionable suggestions."

// OpenAIOracle calls an OpenAI-compatible chat-completions endpoint.
// Identical in-flight requests are collapsed with singleflight so a room
// hammering the review button pays for one upstream call.
type OpenAIOracle struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	sf        singleflight.Group
}

func NewOpenAIOracle(cfg config.ReviewConfig) *OpenAIOracle {
	return &OpenAIOracle{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Review sends the code for review and returns the model's reply text.
func (o *OpenAIOracle) Review(ctx context.Context, code string) (string, error) {
	sum := sha256.Sum256([]byte(code))
	key := hex.EncodeToString(sum[:])

	result, err, _ := o.sf.Do(key, func() (interface{}, error) {
		return o.complete(ctx, code)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (o *OpenAIOracle) complete(ctx context.Context, code string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: code},
		},
		MaxTokens: o.maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("review request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read review response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode review response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("review api error: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("review api returned status %d", resp.StatusCode)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("review api returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
