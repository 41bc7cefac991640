package hub

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Transcriber converts captured audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Analyzer produces an AI analysis of a transcript in a named mode, and answers
// free-form questions grounded in a transcript.
type Analyzer interface {
	Analyze(ctx context.Context, transcript, mode string) (string, error)
	Answer(ctx context.Context, prompt string) (string, error)
}

// Translator translates text into a target language. Implementations fall back
// to the input text on failure rather than erroring.
type Translator interface {
	Translate(ctx context.Context, text, language string) (string, error)
}

// Emitter fans an event out to all of a user's connections.
type Emitter interface {
	ToUser(userID, event string, data any)
}

const noContextAnswer = "I haven't captured enough audio yet to answer questions about this video."
const answerFallback = "Sorry, I couldn't process your question right now."

// Pipeline runs the STT → analysis → translation chain for captured audio and
// accumulates chat-mode transcripts. Every failure is contained here and
// reported as an ai_analysis_error event; nothing propagates to the connection.
type Pipeline struct {
	stt        Transcriber
	analyzer   Analyzer
	translator Translator
	chats      *Accumulator
	language   string
	log        *zap.Logger
}

// NewPipeline creates the pipeline. language is the subtitle target language.
func NewPipeline(stt Transcriber, analyzer Analyzer, translator Translator, chats *Accumulator, language string, log *zap.Logger) *Pipeline {
	return &Pipeline{
		stt:        stt,
		analyzer:   analyzer,
		translator: translator,
		chats:      chats,
		language:   language,
		log:        log,
	}
}

// DecodeChunk extracts raw audio bytes from a data-URL payload
// ("data:audio/webm;base64,...."). A bare base64 string is also accepted.
func DecodeChunk(audioData string) ([]byte, error) {
	payload := audioData
	if idx := strings.LastIndex(audioData, ";base64,"); idx >= 0 {
		payload = audioData[idx+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode audio chunk: %w", err)
	}
	return raw, nil
}

// keepTranscript reports whether a chat-mode transcript is worth accumulating.
// Near-empty results and caption-credit artifacts are silence, not speech.
func keepTranscript(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) <= 5 {
		return false
	}
	return !strings.Contains(strings.ToLower(trimmed), "subtitles by")
}

// Process handles one stt_chunk for a user. Blocking: run it on its own
// goroutine so other events on the connection keep flowing.
func (p *Pipeline) Process(ctx context.Context, emit Emitter, userID, audioData, mode string) {
	audio, err := DecodeChunk(audioData)
	if err != nil {
		emit.ToUser(userID, EventAIAnalysisError, AnalysisErrorPayload{Message: err.Error()})
		return
	}

	transcript, err := p.stt.Transcribe(ctx, audio)
	if err != nil {
		p.log.Warn("transcription failed", zap.String("user_id", userID), zap.Error(err))
		emit.ToUser(userID, EventAIAnalysisError, AnalysisErrorPayload{Message: err.Error()})
		return
	}

	if mode == "chat" {
		if !keepTranscript(transcript) {
			return // silence or caption credits, dropped without error
		}
		history := p.chats.Append(userID, transcript)
		emit.ToUser(userID, EventChatTranscriptUpdate, TranscriptUpdatePayload{
			Text:    transcript,
			History: history,
		})
		return
	}

	if mode == "" {
		mode = "summary"
	}
	translated, err := p.translator.Translate(ctx, transcript, p.language)
	if err != nil {
		p.log.Warn("transcript translation failed", zap.String("user_id", userID), zap.Error(err))
		emit.ToUser(userID, EventAIAnalysisError, AnalysisErrorPayload{Message: err.Error()})
		return
	}
	analysis, err := p.analyzer.Analyze(ctx, transcript, mode)
	if err != nil {
		p.log.Warn("analysis failed", zap.String("user_id", userID), zap.Error(err))
		emit.ToUser(userID, EventAIAnalysisError, AnalysisErrorPayload{Message: err.Error()})
		return
	}
	translatedAnalysis, err := p.translator.Translate(ctx, analysis, p.language)
	if err != nil {
		p.log.Warn("analysis translation failed", zap.String("user_id", userID), zap.Error(err))
		emit.ToUser(userID, EventAIAnalysisError, AnalysisErrorPayload{Message: err.Error()})
		return
	}

	emit.ToUser(userID, EventAIAnalysisComplete, AnalysisCompletePayload{
		Analysis:           translatedAnalysis,
		OriginalAnalysis:   analysis,
		Transcript:         translated,
		OriginalTranscript: transcript,
	})
	emit.ToUser(userID, EventSubtitleUpdate, SubtitlePayload{Text: translated})
}

// Answer handles ask_ai: answers a question using only the accumulated chat
// transcript. Without any transcript the AI provider is never invoked.
func (p *Pipeline) Answer(ctx context.Context, emit Emitter, userID, question string) {
	fullTranscript := p.chats.FullText(userID)
	if fullTranscript == "" {
		emit.ToUser(userID, EventAIChatResponse, ChatResponsePayload{Answer: noContextAnswer})
		return
	}

	prompt := fmt.Sprintf("You are a helpful AI assistant. The user is currently watching a video. "+
		"Here is the transcript of what happened in the video so far:\n\n%s\n\nUser Question: %s\n\n"+
		"Answer the user's question concisely based ONLY on the transcript provided above.",
		fullTranscript, question)

	answer, err := p.analyzer.Answer(ctx, prompt)
	if err != nil {
		p.log.Warn("ask_ai failed", zap.String("user_id", userID), zap.Error(err))
		emit.ToUser(userID, EventAIChatResponse, ChatResponsePayload{Answer: answerFallback})
		return
	}
	emit.ToUser(userID, EventAIChatResponse, ChatResponsePayload{Answer: answer})
}
