// Package insights turns dashboard chart data into short written summaries
// using an LLM hosted on AWS Bedrock.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/saral/aadhaar-pulse/internal/config"
	"github.com/saral/aadhaar-pulse/internal/pkg/logger"
)

// ChartPayload is the chart the dashboard asks to have narrated.
type ChartPayload struct {
	Title     string    `json:"title"`
	ChartType string    `json:"chartType"`
	Labels    []string  `json:"labels"`
	Datasets  []Dataset `json:"datasets"`
}

// Dataset is one series of a chart.
type Dataset struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// bedrockMessage mirrors the Anthropic messages format Bedrock expects.
type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

const systemPrompt = `You are a data analyst for an Aadhaar enrollment analytics dashboard. ` +
	`You are given a chart as a data table and write a short narrative for a ` +
	`public-sector audience. Describe the dominant trend, the top and bottom ` +
	`entries, and anything anomalous. Two to four sentences, plain English, ` +
	`no markdown, no preamble.`

// modelInvoker is the slice of the Bedrock runtime client the generator uses.
type modelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Generator produces narrative summaries of charts.
type Generator struct {
	client  modelInvoker
	modelID string
}

// NewGenerator creates a Generator backed by AWS Bedrock.
func NewGenerator(ctx context.Context, cfg config.BedrockConfig) (*Generator, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	logger.Info("insights generator initialized", "model", cfg.ModelID, "region", cfg.Region)
	return &Generator{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.ModelID,
	}, nil
}

// Narrate generates a written summary of the chart.
func (g *Generator) Narrate(ctx context.Context, chart ChartPayload) (string, error) {
	prompt, err := buildPrompt(chart)
	if err != nil {
		return "", err
	}

	request := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        500,
		System:           systemPrompt,
		Messages: []bedrockMessage{
			{Role: "user", Content: []bedrockContentBlock{{Type: "text", Text: prompt}}},
		},
		Temperature: 0.3,
	}
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	output, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock invoke: %w", err)
	}

	var response bedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	logger.Info("narrative generated",
		"chart", chart.Title,
		"inputTokens", response.Usage.InputTokens,
		"outputTokens", response.Usage.OutputTokens)
	return strings.TrimSpace(text.String()), nil
}

// buildPrompt renders the chart as a pipe-delimited table the model reads
// more reliably than raw JSON.
func buildPrompt(chart ChartPayload) (string, error) {
	if len(chart.Labels) == 0 || len(chart.Datasets) == 0 {
		return "", fmt.Errorf("chart %q has no data to narrate", chart.Title)
	}
	for _, ds := range chart.Datasets {
		if len(ds.Values) != len(chart.Labels) {
			return "", fmt.Errorf("dataset %q has %d values for %d labels", ds.Label, len(ds.Values), len(chart.Labels))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Chart: %s (%s)\n\n", chart.Title, chart.ChartType)

	b.WriteString("Label")
	for _, ds := range chart.Datasets {
		b.WriteString(" | ")
		b.WriteString(ds.Label)
	}
	b.WriteByte('\n')
	for i, label := range chart.Labels {
		b.WriteString(label)
		for _, ds := range chart.Datasets {
			fmt.Fprintf(&b, " | %g", ds.Values[i])
		}
		b.WriteByte('\n')
	}
	b.WriteString("\nWrite the narrative for this chart.")
	return b.String(), nil
}
