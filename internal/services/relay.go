package services

import (
	"context"
	"time"

	"github.com/apex/log"

	"interrogame-backend/internal/metrics"
	"interrogame-backend/internal/models"
)

// ChatBackend is the inference capability the relay forwards to.
type ChatBackend interface {
	Chat(ctx context.Context, req *models.OllamaChatRequest) (*models.OllamaChatResponse, error)
}

// Reply is the relay's successful result.
type Reply struct {
	Text string
	// Model is the model that produced Text.
	Model string
	// FellBack is set when Model is the default after the requested one failed.
	FellBack bool
}

// ChatRelay normalizes a conversation, forwards it to the backend and falls
// back to the default model once when a different model fails.
type ChatRelay struct {
	backend      ChatBackend
	defaultModel string
}

func NewChatRelay(backend ChatBackend, defaultModel string) *ChatRelay {
	return &ChatRelay{
		backend:      backend,
		defaultModel: defaultModel,
	}
}

func (r *ChatRelay) DefaultModel() string { return r.defaultModel }

// EffectiveModel returns the requested model, or the default when none was
// requested.
func (r *ChatRelay) EffectiveModel(requested string) string {
	if requested == "" {
		return r.defaultModel
	}
	return requested
}

// BuildMessages puts the system message first, followed by the conversation
// in order. Roles and content are copied verbatim.
func BuildMessages(systemMessage string, conv models.Conversation) []models.Message {
	msgs := make([]models.Message, 0, conv.Len()+1)
	msgs = append(msgs, models.Message{Role: "system", Content: systemMessage})
	return append(msgs, conv.Messages()...)
}

// attempt is the outcome of one backend call: either reply or err is set.
type attempt struct {
	model string
	reply string
	err   error
}

func (a attempt) failed() bool { return a.err != nil }

// try makes one backend call. kind is "first" or "fallback" and is the only
// metric label; the model name is client supplied.
func (r *ChatRelay) try(ctx context.Context, kind, model string, msgs []models.Message, stream, think bool) attempt {
	start := time.Now()
	a := r.call(ctx, model, msgs, stream, think)
	metrics.BackendCallDurationSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	result := "ok"
	if a.failed() {
		result = "error"
	}
	metrics.BackendCallsTotal.WithLabelValues(kind, result).Inc()
	return a
}

func (r *ChatRelay) call(ctx context.Context, model string, msgs []models.Message, stream, think bool) attempt {
	resp, err := r.backend.Chat(ctx, &models.OllamaChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   stream,
		Think:    think,
	})
	if err != nil {
		return attempt{model: model, err: err}
	}
	if resp == nil || resp.Message == nil {
		return attempt{model: model, err: &BackendError{Model: model, Message: "response has no message"}}
	}
	return attempt{model: model, reply: resp.Message.Content}
}

// Handle runs one conversation through the backend. A failure with a
// non-default model is retried exactly once with the default model; any
// other failure is returned as *InferenceError.
func (r *ChatRelay) Handle(ctx context.Context, req *models.ConversationRequest) (*Reply, error) {
	model := r.EffectiveModel(req.Model)
	msgs := BuildMessages(req.SystemMessage, req.Messages)

	logger := log.WithFields(log.Fields{
		"model":    model,
		"messages": len(msgs),
		"stream":   req.Stream,
		"think":    req.Think,
	})
	logger.Info("Using model")

	first := r.try(ctx, "first", model, msgs, req.Stream, req.Think)
	if !first.failed() {
		return &Reply{Text: first.reply, Model: first.model}, nil
	}

	logger.WithError(first.err).Warn("Backend call failed")
	if model == r.defaultModel {
		return nil, &InferenceError{Model: model, Cause: first.err}
	}

	logger.WithField("fallback_model", r.defaultModel).Info("Falling back to default model")
	second := r.try(ctx, "fallback", r.defaultModel, msgs, req.Stream, req.Think)
	if second.failed() {
		metrics.FallbacksTotal.WithLabelValues("error").Inc()
		logger.WithError(second.err).Error("Fallback to default model failed")
		return nil, &InferenceError{
			Model:         model,
			Cause:         first.err,
			FallbackModel: r.defaultModel,
			Fallback:      second.err,
		}
	}

	metrics.FallbacksTotal.WithLabelValues("ok").Inc()
	return &Reply{Text: second.reply, Model: second.model, FellBack: true}, nil
}
