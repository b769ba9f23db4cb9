package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const anthropicVersion = "bedrock-2023-05-31"

// BedrockClient completes conversations with Anthropic models on AWS Bedrock.
type BedrockClient struct {
	bedrock     *bedrockruntime.Client
	modelID     string
	temperature float64
	maxTokens   int
}

// NewBedrockClient creates a client for modelID in region.
func NewBedrockClient(ctx context.Context, region, modelID string, temperature float64, maxTokens int) (*BedrockClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &BedrockClient{
		bedrock:     bedrockruntime.NewFromConfig(awsCfg),
		modelID:     modelID,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

type anthropicRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	System           string    `json:"system,omitempty"`
	Messages         []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// anthropicBody builds the request body. System messages are lifted into the
// system field; the remaining turns keep their order.
func anthropicBody(messages []Message, temperature float64, maxTokens int) ([]byte, error) {
	req := anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      temperature,
	}
	var system []string
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, m)
	}
	req.System = strings.Join(system, "\n\n")
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("anthropic request needs at least one non-system message")
	}
	return json.Marshal(req)
}

func (c *BedrockClient) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := anthropicBody(messages, c.temperature, c.maxTokens)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	return withRetry(ctx, func() (string, error) {
		resp, err := c.bedrock.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     &c.modelID,
			ContentType: strPtr("application/json"),
			Accept:      strPtr("application/json"),
			Body:        body,
		})
		if err != nil {
			return "", fmt.Errorf("invoke model: %w", err)
		}
		return decodeAnthropic(resp.Body)
	})
}

func decodeAnthropic(body []byte) (string, error) {
	var result anthropicResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	var sb strings.Builder
	for _, part := range result.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("bedrock returned no text content")
	}
	return strings.TrimSpace(sb.String()), nil
}

// Model returns the Bedrock model identifier.
func (c *BedrockClient) Model() string { return c.modelID }

func strPtr(s string) *string { return &s }
