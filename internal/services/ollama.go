package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"interrogame-backend/internal/metrics"
	"interrogame-backend/internal/models"
)

const maxErrorBody = 64 << 10

// OllamaService talks to a local Ollama server over its native HTTP API.
type OllamaService struct {
	baseURL  string
	client   *http.Client
	rateChan chan struct{} // Token bucket
}

func NewOllamaService(baseURL string, concurrentReqs int, timeout time.Duration) *OllamaService {
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}

	// Token bucket bounding in-flight generations
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &OllamaService{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		rateChan: rateChan,
	}
}

// acquireRate blocks until a slot is available or ctx is done
func (s *OllamaService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OllamaService) releaseRate() {
	s.rateChan <- struct{}{}
}

// Chat sends one /api/chat request. Streamed responses are read to the end
// and folded into a single reply.
func (s *OllamaService) Chat(ctx context.Context, req *models.OllamaChatRequest) (*models.OllamaChatResponse, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, &BackendError{Model: req.Model, Message: "waiting for a backend slot", Err: err}
	}
	defer s.releaseRate()

	metrics.BackendInFlight.Inc()
	defer metrics.BackendInFlight.Dec()

	return s.chat(ctx, req)
}

func (s *OllamaService) chat(ctx context.Context, req *models.OllamaChatRequest) (*models.OllamaChatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Stream {
		httpReq.Header.Set("Accept", "application/x-ndjson")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, &BackendError{Model: req.Model, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &BackendError{
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, resp.Status),
		}
	}

	if req.Stream {
		return readChatStream(req.Model, resp.Body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Model: req.Model, Message: "failed to read response", Err: err}
	}
	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return nil, &BackendError{Model: req.Model, Message: msg.String()}
	}

	var out models.OllamaChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &BackendError{Model: req.Model, Message: "malformed response", Err: err}
	}
	if out.Message == nil {
		return nil, &BackendError{Model: req.Model, Message: "response has no message"}
	}
	return &out, nil
}

// readChatStream folds NDJSON chunks into one response. The last chunk
// (done=true) carries the final metadata.
func readChatStream(model string, body io.Reader) (*models.OllamaChatResponse, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var (
		content  strings.Builder
		thinking strings.Builder
		role     string
		last     models.OllamaChatResponse
		chunks   int
	)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if msg := gjson.GetBytes(line, "error"); msg.Exists() {
			return nil, &BackendError{Model: model, Message: msg.String()}
		}

		var chunk models.OllamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return nil, &BackendError{Model: model, Message: "malformed stream chunk", Err: err}
		}
		chunks++
		if chunk.Message != nil {
			if chunk.Message.Role != "" {
				role = chunk.Message.Role
			}
			content.WriteString(chunk.Message.Content)
			thinking.WriteString(chunk.Message.Thinking)
		}
		last = chunk
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &BackendError{Model: model, Message: "failed to read stream", Err: err}
	}
	if chunks == 0 {
		return nil, &BackendError{Model: model, Message: "empty stream"}
	}
	if !last.Done {
		return nil, &BackendError{Model: model, Message: "stream ended before completion"}
	}

	if role == "" {
		role = "assistant"
	}
	last.Message = &models.OllamaResponseMessage{
		Role:     role,
		Content:  content.String(),
		Thinking: thinking.String(),
	}
	return &last, nil
}

// ListModels returns the names of locally installed models, sorted.
func (s *OllamaService) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tags request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &BackendError{Message: "tags request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &BackendError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.Status)}
	}

	var tags models.OllamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, &BackendError{Message: "malformed tags response", Err: err}
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// errorMessage pulls Ollama's {"error": "..."} text out of a failed response.
func errorMessage(body []byte, fallback string) string {
	if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String && msg.String() != "" {
		return msg.String()
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return fallback
}
