package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Sagararora90/ynme/internal/errs"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	analysisModel  = "llama-3.3-70b-versatile"
	recommendModel = "llama-3.1-8b-instant"
)

// GroqProvider implements AI analysis, transcript-grounded answers, and the
// recommendation fallback through Groq's OpenAI-compatible endpoint.
type GroqProvider struct {
	client *openai.Client
	log    *zap.Logger
}

// NewGroqProvider creates the provider against the given OpenAI-compatible
// base URL. An empty key yields a provider whose calls error.
func NewGroqProvider(apiKey, baseURL string, log *zap.Logger) *GroqProvider {
	p := &GroqProvider{log: log}
	if apiKey != "" {
		cfg := openai.DefaultConfig(apiKey)
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		p.client = openai.NewClientWithConfig(cfg)
	}
	return p
}

// Analyze runs the mode-specific analysis prompt over a transcript.
func (p *GroqProvider) Analyze(ctx context.Context, transcript, mode string) (string, error) {
	var prompt string
	switch mode {
	case "summary":
		prompt = fmt.Sprintf("Summarize the following transcript in 3 concise bullet points:\n\n%s", transcript)
	case "explain":
		prompt = fmt.Sprintf("Provide a deep analysis of the meaning and themes of this content based on the transcript:\n\n%s", transcript)
	case "notes":
		prompt = fmt.Sprintf("Generate structured lecture notes from this transcript with headers and sub-bullets:\n\n%s", transcript)
	default:
		prompt = fmt.Sprintf("Analyze the following transcript:\n\n%s", transcript)
	}
	return p.complete(ctx, analysisModel, nil, prompt, 0)
}

// Answer completes a fully formed question prompt (ask_ai).
func (p *GroqProvider) Answer(ctx context.Context, prompt string) (string, error) {
	return p.complete(ctx, analysisModel, nil, prompt, 0)
}

// RecommendTitles asks the model for similar song titles as a strict JSON
// array of "Song - Artist" strings. Markdown fences are stripped before parse.
func (p *GroqProvider) RecommendTitles(ctx context.Context, seedTitle string) ([]string, error) {
	system := "You are an expert music recommendation algorithm API. Your ONLY output must be a valid JSON " +
		"array of strings containing 10 similar song titles. Format each string as 'Song Name - Artist Name'. " +
		"Do not include any explanations, greetings, or markdown formatting outside of the JSON."
	user := fmt.Sprintf("Recommend 10 similar songs to: %q. Return ONLY a JSON array of strings.", seedTitle)

	content, err := p.complete(ctx, recommendModel, &system, user, 0.7)
	if err != nil {
		return nil, err
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(content, "```json", ""), "```", ""))
	var titles []string
	if err := json.Unmarshal([]byte(cleaned), &titles); err != nil {
		p.log.Warn("recommendation parse failed", zap.String("content", content), zap.Error(err))
		return nil, fmt.Errorf("parse recommendations: %w", err)
	}
	if len(titles) > 10 {
		titles = titles[:10]
	}
	return titles, nil
}

func (p *GroqProvider) complete(ctx context.Context, model string, system *string, user string, temperature float32) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("groq api key not configured")
	}
	var messages []openai.ChatCompletionMessage
	if system != nil {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: *system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		p.log.Warn("groq completion failed", zap.Error(err))
		return "", errs.ErrAnalysisFailed
	}
	if len(resp.Choices) == 0 {
		return "", errs.ErrAnalysisFailed
	}
	return resp.Choices[0].Message.Content, nil
}
