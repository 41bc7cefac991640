package provider

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Sagararora90/ynme/internal/errs"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIProvider implements transcription (whisper-1) and subtitle translation
// (gpt-4o-mini) against the OpenAI API.
type OpenAIProvider struct {
	client *openai.Client
	log    *zap.Logger
}

// NewOpenAIProvider creates the provider. An empty key yields a provider whose
// Transcribe errors and whose Translate passes text through unchanged.
func NewOpenAIProvider(apiKey string, log *zap.Logger) *OpenAIProvider {
	p := &OpenAIProvider{log: log}
	if apiKey != "" {
		p.client = openai.NewClient(apiKey)
	}
	return p
}

// Transcribe converts an encoded audio chunk to text via whisper-1.
func (p *OpenAIProvider) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("whisper api key not configured")
	}
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio),
		FilePath: "chunk.webm", // filename hint only; audio is sent from memory
	})
	if err != nil {
		p.log.Warn("whisper transcription failed", zap.Error(err))
		return "", errs.ErrTranscriptionFailed
	}
	return resp.Text, nil
}

// Translate renders text into the target language for subtitle display.
// Failures fall back to the original text rather than erroring, so a broken
// translator degrades subtitles instead of killing the pipeline.
func (p *OpenAIProvider) Translate(ctx context.Context, text, language string) (string, error) {
	if p.client == nil {
		return text, nil
	}
	system := fmt.Sprintf("You are a professional media translator. Translate the following transcript into %s. "+
		"Keep it concise and synchronized for subtitle display. Only return the translated text, no extra commentary.",
		language)
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.3,
	})
	if err != nil {
		p.log.Warn("translation failed, returning original", zap.Error(err))
		return text, nil
	}
	if len(resp.Choices) == 0 {
		return text, nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
