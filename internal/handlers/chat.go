package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"interrogame-backend/internal/models"
	"interrogame-backend/internal/services"
)

// maxChatBody bounds the request body; long interrogation histories stay
// well below it.
const maxChatBody = 4 << 20

type chatRelay interface {
	Handle(ctx context.Context, req *models.ConversationRequest) (*services.Reply, error)
	DefaultModel() string
}

type modelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

type ChatHandler struct {
	relay  chatRelay
	models modelLister
}

func NewChatHandler(relay chatRelay, lister modelLister) *ChatHandler {
	return &ChatHandler{
		relay:  relay,
		models: lister,
	}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeConversationRequest(r.Body)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	reply, err := h.relay.Handle(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("X-Inference-Model", reply.Model)
	if reply.FellBack {
		w.Header().Set("X-Inference-Fallback", "true")
	}
	writeJSON(w, http.StatusOK, models.ReplyEnvelope{Message: reply.Text})
}

func (h *ChatHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	names, err := h.models.ListModels(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ModelsResponse{
		DefaultModel: h.relay.DefaultModel(),
		Models:       names,
	})
}

// decodeConversationRequest checks the payload shape before anything reaches
// the relay. Every problem found is reported under its field name.
func decodeConversationRequest(body io.Reader) (*models.ConversationRequest, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxChatBody+1))
	if err != nil {
		return nil, &services.ValidationError{Fields: map[string]string{"body": "could not be read"}}
	}
	if len(raw) > maxChatBody {
		return nil, &services.ValidationError{Fields: map[string]string{"body": "too large"}}
	}
	if !gjson.ValidBytes(raw) {
		return nil, &services.ValidationError{Fields: map[string]string{"body": "must be valid JSON"}}
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, &services.ValidationError{Fields: map[string]string{"body": "must be a JSON object"}}
	}

	// A repeated top-level key takes its last value, for checks and decoding alike.
	top := map[string]gjson.Result{}
	root.ForEach(func(key, value gjson.Result) bool {
		top[key.String()] = value
		return true
	})

	fields := map[string]string{}
	switch sm := top["system_message"]; {
	case !sm.Exists() || sm.Type == gjson.Null:
		fields["system_message"] = "field required"
	case sm.Type != gjson.String:
		fields["system_message"] = "must be a string"
	}
	if m := top["messages"]; !m.Exists() || m.Type == gjson.Null {
		fields["messages"] = "field required"
	}
	if m := top["model"]; m.Exists() && m.Type != gjson.String && m.Type != gjson.Null {
		fields["model"] = "must be a string"
	}
	for _, key := range []string{"stream", "think"} {
		if v := top[key]; v.Exists() && v.Type != gjson.True && v.Type != gjson.False && v.Type != gjson.Null {
			fields[key] = "must be a boolean"
		}
	}
	if len(fields) > 0 {
		return nil, &services.ValidationError{Fields: fields}
	}

	req := models.ConversationRequest{
		SystemMessage: top["system_message"].String(),
		Model:         top["model"].String(),
		Stream:        top["stream"].Bool(),
		Think:         top["think"].Bool(),
	}
	if err := req.Messages.UnmarshalJSON([]byte(top["messages"].Raw)); err != nil {
		return nil, &services.ValidationError{Fields: map[string]string{"messages": err.Error()}}
	}
	return &req, nil
}
