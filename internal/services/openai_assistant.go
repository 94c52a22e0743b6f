package services

import (
	"context"
	"fmt"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"leadchat-backend/internal/metrics"
)

// assistantAPI is the subset of the Assistants API the adapter drives.
type assistantAPI interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
}

type OpenAIAssistant struct {
	newClient    func(apiKey string) assistantAPI
	pollInterval time.Duration
	maxWait      time.Duration
	metrics      *metrics.ChatMetrics
}

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultMaxWait      = 120 * time.Second
)

// NewOpenAIAssistant builds the adapter. Non-positive pollInterval or maxWait
// fall back to the defaults.
func NewOpenAIAssistant(baseURL string, pollInterval, maxWait time.Duration, m *metrics.ChatMetrics) *OpenAIAssistant {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}
	return &OpenAIAssistant{
		newClient: func(apiKey string) assistantAPI {
			cfg := openai.DefaultConfig(apiKey)
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			return openai.NewClientWithConfig(cfg)
		},
		pollInterval: pollInterval,
		maxWait:      maxWait,
		metrics:      m,
	}
}

// Reply creates (or reuses) a thread, posts the user text, runs the assistant
// and returns the text of its newest message.
func (a *OpenAIAssistant) Reply(ctx context.Context, req AssistantRequest) (AssistantReply, error) {
	if err := validateAssistantRequest(req); err != nil {
		return AssistantReply{}, err
	}

	api := a.newClient(req.APIKey)

	threadID := req.ThreadID
	if threadID == "" {
		thread, err := api.CreateThread(ctx, openai.ThreadRequest{})
		if err != nil {
			return AssistantReply{}, &TransportError{Op: "create thread", Err: err}
		}
		threadID = thread.ID
	}

	_, err := api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Text,
	})
	if err != nil {
		return AssistantReply{}, &TransportError{Op: "create message", Err: err}
	}

	run, err := api.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: req.AssistantID})
	if err != nil {
		return AssistantReply{}, &TransportError{Op: "create run", Err: err}
	}

	start := time.Now()
	run, err = a.waitForRun(ctx, api, threadID, run)
	a.metrics.ObserveAssistantWait(time.Since(start).Seconds())
	if err != nil {
		return AssistantReply{}, err
	}
	if run.Status != openai.RunStatusCompleted {
		log.Printf("assistant run %s on thread %s ended with status %s", run.ID, threadID, run.Status)
	}

	order := "desc"
	runID := run.ID
	list, err := api.ListMessage(ctx, threadID, nil, &order, nil, nil, &runID)
	if err != nil {
		return AssistantReply{}, &TransportError{Op: "list messages", Err: err}
	}

	text, ok := latestAssistantText(list.Messages)
	if !ok {
		return AssistantReply{}, &NoReplyError{Status: string(run.Status)}
	}

	return AssistantReply{ThreadID: threadID, Text: text}, nil
}

// waitForRun polls until the run leaves queued/in_progress, the max wait
// elapses or ctx is done.
func (a *OpenAIAssistant) waitForRun(ctx context.Context, api assistantAPI, threadID string, run openai.Run) (openai.Run, error) {
	if !runPending(run.Status) {
		return run, nil
	}

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(a.maxWait)
	defer deadline.Stop()

	for runPending(run.Status) {
		select {
		case <-ctx.Done():
			return run, &TransportError{Op: "poll run", Err: ctx.Err()}
		case <-deadline.C:
			return run, &TransportError{
				Op:  "poll run",
				Err: fmt.Errorf("run %s still %s after %s", run.ID, run.Status, a.maxWait),
			}
		case <-ticker.C:
		}

		next, err := api.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return run, &TransportError{Op: "retrieve run", Err: err}
		}
		run = next
	}

	return run, nil
}

func runPending(status openai.RunStatus) bool {
	return status == openai.RunStatusQueued || status == openai.RunStatusInProgress
}

// latestAssistantText picks the assistant message with the greatest
// created_at rather than trusting list order, and returns the text of its
// first content block.
func latestAssistantText(messages []openai.Message) (string, bool) {
	var latest *openai.Message
	for i := range messages {
		m := &messages[i]
		if m.Role != openai.ChatMessageRoleAssistant {
			continue
		}
		if latest == nil || m.CreatedAt > latest.CreatedAt {
			latest = m
		}
	}
	if latest == nil || len(latest.Content) == 0 || latest.Content[0].Text == nil {
		return "", false
	}
	return latest.Content[0].Text.Value, true
}
