package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Default Bedrock model. Overridable via BedrockConfig.ModelID.
const defaultBedrockModelID = "anthropic.claude-3-sonnet-20240229-v1:0"

// BedrockClient talks to AWS Bedrock using the Anthropic Messages body
// format. It is the gateway's primary provider.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
}

var _ Client = (*BedrockClient)(nil)

// BedrockConfig holds the AWS-side settings for the client. Credentials are
// optional; when absent the default chain (IAM role, env vars, profile) is
// used.
type BedrockConfig struct {
	Region          string
	ModelID         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

func NewBedrockClient(ctx context.Context, cfg BedrockConfig) (*BedrockClient, error) {
	if cfg.Region == "" {
		return nil, errors.New("bedrock region cannot be empty")
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultBedrockModelID
	}

	var awsCfg aws.Config
	var err error
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				cfg.SessionToken,
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &BedrockClient{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.ModelID,
	}, nil
}

// bedrockResponse covers the fields of the Anthropic Messages response body
// the gateway reads.
type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate performs one unary InvokeModel call.
func (c *BedrockClient) Generate(ctx context.Context, systemPrompt, userMessage string, opts *GenerateOptions) (string, error) {
	// anthropic_version must be "bedrock-2023-05-31" for all Claude models.
	request := map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        opts.maxTokens(),
		"temperature":       opts.temperature(),
		"messages": []map[string]any{
			{"role": "user", "content": userMessage},
		},
	}
	if systemPrompt != "" {
		request["system"] = systemPrompt
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal bedrock request: %w", err)
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("bedrock invocation failed: %w", err)
	}

	var response bedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal bedrock response: %w", err)
	}
	if len(response.Content) == 0 {
		return "", errors.New("no content returned from bedrock")
	}
	return response.Content[0].Text, nil
}
