package insights

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInvoker struct {
	lastInput *bedrockruntime.InvokeModelInput
	reply     string
}

func (s *stubInvoker) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	s.lastInput = params
	body, _ := json.Marshal(bedrockResponse{
		Content: []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{{Type: "text", Text: s.reply}},
	})
	return &bedrockruntime.InvokeModelOutput{Body: body}, nil
}

func sampleChart() ChartPayload {
	return ChartPayload{
		Title:     "Enrollments by State",
		ChartType: "bar",
		Labels:    []string{"Kerala", "Goa"},
		Datasets: []Dataset{
			{Label: "Total", Values: []float64{150, 42}},
		},
	}
}

func TestBuildPromptRendersTable(t *testing.T) {
	prompt, err := buildPrompt(sampleChart())
	require.NoError(t, err)
	assert.Contains(t, prompt, "Chart: Enrollments by State (bar)")
	assert.Contains(t, prompt, "Label | Total")
	assert.Contains(t, prompt, "Kerala | 150")
	assert.Contains(t, prompt, "Goa | 42")
}

func TestBuildPromptRejectsEmptyChart(t *testing.T) {
	_, err := buildPrompt(ChartPayload{Title: "empty"})
	assert.Error(t, err)
}

func TestBuildPromptRejectsRaggedDataset(t *testing.T) {
	chart := sampleChart()
	chart.Datasets[0].Values = []float64{150}
	_, err := buildPrompt(chart)
	assert.Error(t, err)
}

func TestNarrateInvokesModelAndExtractsText(t *testing.T) {
	stub := &stubInvoker{reply: "Kerala dominates enrollments."}
	g := &Generator{client: stub, modelID: "anthropic.claude-3-sonnet-20240229-v1:0"}

	narrative, err := g.Narrate(context.Background(), sampleChart())
	require.NoError(t, err)
	assert.Equal(t, "Kerala dominates enrollments.", narrative)

	require.NotNil(t, stub.lastInput)
	assert.Equal(t, "anthropic.claude-3-sonnet-20240229-v1:0", *stub.lastInput.ModelId)

	var req bedrockRequest
	require.NoError(t, json.Unmarshal(stub.lastInput.Body, &req))
	assert.Equal(t, "bedrock-2023-05-31", req.AnthropicVersion)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content[0].Text, "Kerala | 150")
}
