// Package llm calls the hosted answer generator. The evaluator is specified
// at its interface only: it takes the prompt pair and returns an answer map
// keyed by schema slug. The concrete client speaks the messages REST API and
// extracts the answer JSON from a fenced code block, falling back to parsing
// the whole reply.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/circuitgrid/tasklens/core"
	"github.com/circuitgrid/tasklens/prompt"
)

const (
	defaultAPIURL  = "https://api.anthropic.com/v1/messages"
	defaultTimeout = 120 * time.Second
	apiVersion     = "2023-06-01"
)

// Usage reports token consumption for one call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Result is one evaluation outcome. Raw always carries the model's full
// reply, even when answer parsing failed.
type Result struct {
	Answers core.AnswerMap `json:"answers,omitempty"`
	Raw     string         `json:"raw_response,omitempty"`
	Usage   Usage          `json:"usage"`
	Model   string         `json:"model,omitempty"`
}

// Evaluator produces an answer map for a prompt pair.
type Evaluator interface {
	Evaluate(ctx context.Context, p prompt.Pair) (*Result, error)
}

// Client calls the hosted messages API.
type Client struct {
	apiURL    string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// NewClient creates a Client. apiURL may be "" for the hosted default.
func NewClient(apiURL, apiKey, model string, maxTokens int) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		apiURL:    apiURL,
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: defaultTimeout},
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage Usage `json:"usage"`
}

// Evaluate sends the prompt pair and parses the answer map out of the reply.
func (c *Client) Evaluate(ctx context.Context, p prompt.Pair) (*Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("evaluator: API key not configured")
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    p.System,
		Messages:  []message{{Role: "user", Content: p.User}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling evaluator API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("evaluator API returned %d: %s", resp.StatusCode, string(detail))
	}

	var mr messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decoding evaluator response: %w", err)
	}
	if len(mr.Content) == 0 {
		return nil, fmt.Errorf("evaluator returned no content")
	}

	result := &Result{Raw: mr.Content[0].Text, Usage: mr.Usage, Model: c.model}
	answers, err := ParseAnswers(result.Raw)
	if err != nil {
		return result, fmt.Errorf("parsing answers: %w", err)
	}
	result.Answers = answers
	return result, nil
}

// The closing fence may follow the payload directly; models frequently omit
// the final newline.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\s*```")

// ParseAnswers extracts the answer map from a model reply: a fenced JSON
// block first, the whole text as JSON second.
func ParseAnswers(text string) (core.AnswerMap, error) {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		var answers core.AnswerMap
		if err := json.Unmarshal([]byte(m[1]), &answers); err == nil {
			return answers, nil
		}
	}
	var answers core.AnswerMap
	if err := json.Unmarshal([]byte(text), &answers); err != nil {
		return nil, fmt.Errorf("no parseable JSON answer block")
	}
	return answers, nil
}
