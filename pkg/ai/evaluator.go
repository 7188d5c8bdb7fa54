// Package ai provides the evaluator behind ai-evaluate assertions: a natural
// language check of response data against a prompt, answered by an
// OpenAI-compatible chat endpoint.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// Verdict is the outcome of one AI evaluation. Confidence is 0..1.
type Verdict struct {
	Pass       bool    `json:"pass"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Evaluator answers ai-evaluate assertions. Implementations must not return
// errors: any failure is folded into a failing Verdict with the cause as the
// reason.
type Evaluator interface {
	Evaluate(ctx context.Context, actual any, prompt string) Verdict
}

// Disabled is the evaluator used when no AI credentials are configured.
type Disabled struct{}

// Evaluate always fails with an explanatory reason.
func (Disabled) Evaluate(_ context.Context, _ any, _ string) Verdict {
	return Verdict{Pass: false, Confidence: 0, Reason: "no AI evaluator configured"}
}

const systemPrompt = `You evaluate API test assertions. Given response data and a condition, ` +
	`decide whether the data satisfies the condition. Reply with only a JSON object: ` +
	`{"pass": bool, "confidence": number between 0 and 1, "reason": short string}.`

// Client evaluates assertions via an OpenAI-compatible chat completions API.
type Client struct {
	rc      *resty.Client
	baseURL string
	model   string
}

// NewClient creates a Client for the given endpoint. baseURL is the API root
// (e.g. "https://api.openai.com/v1").
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		rc: resty.New().
			SetTimeout(60 * time.Second).
			SetAuthToken(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
}

// Evaluate asks the model for a verdict on actual against prompt. Transport
// failures, non-2xx statuses, and unparseable replies all yield a failing
// Verdict; this method never returns an error.
func (c *Client) Evaluate(ctx context.Context, actual any, prompt string) Verdict {
	data, err := json.Marshal(actual)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", actual))
	}

	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": fmt.Sprintf("Condition: %s\n\nData:\n%s", prompt, data)},
		},
		"temperature": 0,
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return failure(fmt.Sprintf("AI request failed: %v", err))
	}
	if resp.IsError() {
		return failure(fmt.Sprintf("AI request returned status %d", resp.StatusCode()))
	}

	content := gjson.GetBytes(resp.Body(), "choices.0.message.content").String()
	if content == "" {
		return failure("AI reply had no content")
	}

	return parseVerdict(content)
}

// parseVerdict decodes the model's JSON verdict, tolerating surrounding
// prose or markdown fences.
func parseVerdict(content string) Verdict {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return failure(fmt.Sprintf("AI reply was not JSON: %s", content))
	}

	var v Verdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &v); err != nil {
		return failure(fmt.Sprintf("could not parse AI verdict: %v", err))
	}
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	return v
}

func failure(reason string) Verdict {
	return Verdict{Pass: false, Confidence: 0, Reason: reason}
}
