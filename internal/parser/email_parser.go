package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// ParsedEmail is the best-effort extraction result. All fields are optional:
// callers merge it with defaults and must never depend on any field being
// present.
type ParsedEmail struct {
	Title         string `json:"title,omitempty"`
	CandidateName string `json:"candidate_name,omitempty"`
	Stage         string `json:"stage,omitempty"`
	Status        string `json:"status,omitempty"`
}

// Parser extracts structured case fields from raw recruitment email text.
type Parser interface {
	Extract(ctx context.Context, emailText string) (ParsedEmail, error)
}

const systemPrompt = "You extract structured JSON from recruitment scheduling emails. " +
	"Always respond with valid JSON containing keys title, candidate_name, stage, status."

// OpenAIParser extracts case fields with a chat-completion model.
type OpenAIParser struct {
	client *openai.Client
	model  string
	logger *logrus.Logger
}

// NewOpenAIParser creates a parser backed by the OpenAI API.
func NewOpenAIParser(apiKey, model string, logger *logrus.Logger) *OpenAIParser {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIParser{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Extract asks the model for a JSON object describing the email. A malformed
// response yields the empty result, not an error: partial extraction is the
// normal case, not a failure mode.
func (p *OpenAIParser) Extract(ctx context.Context, emailText string) (ParsedEmail, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(
					"Email body: \"\"\"%s\"\"\"\n\nInfer the case title, candidate name, interview stage and status. "+
						"Answer with JSON only, e.g. {\"title\":\"AI Consultant\",\"candidate_name\":\"Taro Yamada\",\"stage\":\"1st Interview\",\"status\":\"Scheduling\"}",
					emailText,
				),
			},
		},
	})
	if err != nil {
		return ParsedEmail{}, fmt.Errorf("extraction request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return ParsedEmail{}, nil
	}

	return p.safeParse(resp.Choices[0].Message.Content), nil
}

// safeParse tolerates models that wrap the JSON in a code fence.
func (p *OpenAIParser) safeParse(content string) ParsedEmail {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var parsed ParsedEmail
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		p.logger.WithField("content", content).Warn("failed to parse extraction response")
		return ParsedEmail{}
	}
	return parsed
}

// NoopParser is used when no API key is configured; every case falls back to
// defaults.
type NoopParser struct{}

// Extract returns the empty result.
func (NoopParser) Extract(ctx context.Context, emailText string) (ParsedEmail, error) {
	return ParsedEmail{}, nil
}
