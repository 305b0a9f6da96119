// Package estimate asks a chat-completions model for the shipping weight of
// an item.
package estimate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strings"
	"text/template"
)

// DefaultBaseURL is the Perplexity API root.
const DefaultBaseURL = "https://api.perplexity.ai"

// DefaultModel is used when Client.Model is empty.
const DefaultModel = "sonar-pro"

var (
	// ErrNotConfigured is returned when the client has no API key.
	ErrNotConfigured = errors.New("weight estimation not configured")
	// ErrUpstream is returned when the model API answers with a non-2xx status.
	ErrUpstream = errors.New("estimation service error")
	// ErrUnparseable is returned when the model reply holds no usable JSON.
	ErrUnparseable = errors.New("failed to parse estimation reply")
	// ErrInvalidEstimate is returned when the reply has no positive actual weight.
	ErrInvalidEstimate = errors.New("invalid weight estimate")
)

// Request describes the item to estimate.
type Request struct {
	Name string
	Type string
	Link string
}

// Result is a weight estimate. WeightGrams is the heavier of the actual and
// volumetric weights and is what callers store as the item's override.
type Result struct {
	WeightGrams           float64  `json:"weightGrams"`
	ActualWeightGrams     float64  `json:"actualWeightGrams"`
	VolumetricWeightGrams *float64 `json:"volumetricWeightGrams"`
	Dimensions            *string  `json:"dimensions"`
	UsedVolumetric        bool     `json:"usedVolumetric"`
	Confidence            string   `json:"confidence"`
	Reasoning             string   `json:"reasoning"`
}

// Client talks to a chat-completions endpoint.
type Client struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c != nil && c.APIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type reply struct {
	ActualWeightGrams     *float64 `json:"actualWeightGrams"`
	VolumetricWeightGrams *float64 `json:"volumetricWeightGrams"`
	Dimensions            string   `json:"dimensions"`
	Confidence            string   `json:"confidence"`
	Reasoning             string   `json:"reasoning"`
}

// Estimate asks the model for the item's weight.
func (c *Client) Estimate(ctx context.Context, req Request) (*Result, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	model := c.Model
	if model == "" {
		model = DefaultModel
	}
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrUnparseable, err)
	}
	var content string
	if len(chat.Choices) > 0 {
		content = strings.TrimSpace(chat.Choices[0].Message.Content)
	}
	return parseReply(content)
}

var jsonSpan = regexp.MustCompile(`(?s)\{.*\}`)

// parseReply pulls the JSON object out of the model's reply, which may be
// wrapped in prose or a markdown code fence.
func parseReply(content string) (*Result, error) {
	span := jsonSpan.FindString(content)
	if span == "" {
		return nil, ErrUnparseable
	}

	var r reply
	if err := json.Unmarshal([]byte(span), &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseable, err)
	}
	if r.ActualWeightGrams == nil || *r.ActualWeightGrams <= 0 {
		return nil, ErrInvalidEstimate
	}

	actual := *r.ActualWeightGrams
	var volumetric float64
	if r.VolumetricWeightGrams != nil {
		volumetric = *r.VolumetricWeightGrams
	}

	res := &Result{
		WeightGrams:       math.Round(math.Max(actual, volumetric)),
		ActualWeightGrams: math.Round(actual),
		UsedVolumetric:    volumetric > actual,
		Confidence:        r.Confidence,
		Reasoning:         r.Reasoning,
	}
	if volumetric > 0 {
		v := math.Round(volumetric)
		res.VolumetricWeightGrams = &v
	}
	if r.Dimensions != "" {
		d := r.Dimensions
		res.Dimensions = &d
	}
	switch res.Confidence {
	case "low", "medium", "high":
	default:
		res.Confidence = "medium"
	}
	return res, nil
}

var promptTmpl = template.Must(template.New("prompt").Parse(`You are a shipping weight estimation expert for clothing and fashion items, specifically for items purchased from Chinese marketplaces (Taobao, Weidian, 1688) and shipped internationally.

Estimate BOTH the actual shipping weight AND volumetric weight in grams for this item.

- Actual weight: the item itself plus packaging (poly bag for clothing, box for shoes ~300-400g)
- Volumetric weight: (L x W x H in cm) / 5000 * 1000 to convert to grams

IMPORTANT: Always err on the side of OVERESTIMATING. This is for quoting customers, so a cushion is better than underestimating. Round up generously.

Item name: {{.Name}}
Item type: {{if .Type}}{{.Type}}{{else}}unknown{{end}}
{{if .Link}}Item link: {{.Link}}{{end}}

Search the internet for the actual weight, dimensions, and materials of this specific item.

Consider:
- Clothing: fabric weight, size category, hardware (zippers, buttons)
- Shoes: typically heavier, always include box weight (~300-400g for box)
- Accessories: varies widely (belts, bags, jewelry, hats)
- Replicas/fashion items from China often use similar materials to retail

Respond with ONLY a JSON object in this exact format, no other text:
{"actualWeightGrams": <number>, "volumetricWeightGrams": <number>, "dimensions": "<LxWxH cm>", "confidence": "<low|medium|high>", "reasoning": "<brief 1-sentence explanation>"}`))

func buildPrompt(req Request) (string, error) {
	var b strings.Builder
	if err := promptTmpl.Execute(&b, req); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return b.String(), nil
}
