package services

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"leadchat-backend/internal/models"
)

// geminiChat sends one message on top of a replayed history.
type geminiChat interface {
	Send(ctx context.Context, history []*genai.Content, text string) (*genai.GenerateContentResponse, error)
	Close() error
}

// GeminiAssistant answers with a Gemini model. The assistant id names the
// model and the session transcript is replayed as chat history, since Gemini
// has no server-side threads.
type GeminiAssistant struct {
	systemPrompt string
	open         func(ctx context.Context, apiKey, model, systemPrompt string) (geminiChat, error)
}

func NewGeminiAssistant(systemPrompt string) *GeminiAssistant {
	return &GeminiAssistant{
		systemPrompt: systemPrompt,
		open:         openGeminiChat,
	}
}

func (g *GeminiAssistant) Reply(ctx context.Context, req AssistantRequest) (AssistantReply, error) {
	if err := validateAssistantRequest(req); err != nil {
		return AssistantReply{}, err
	}

	chat, err := g.open(ctx, req.APIKey, req.AssistantID, g.systemPrompt)
	if err != nil {
		return AssistantReply{}, &TransportError{Op: "create client", Err: err}
	}
	defer chat.Close()

	resp, err := chat.Send(ctx, toGeminiHistory(req.History), req.Text)
	if err != nil {
		return AssistantReply{}, &TransportError{Op: "send message", Err: err}
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return AssistantReply{}, &NoReplyError{}
	}
	return AssistantReply{Text: text}, nil
}

func toGeminiHistory(messages []models.ChatMessage) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return history
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

type genaiChat struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func openGeminiChat(ctx context.Context, apiKey, model, systemPrompt string) (geminiChat, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	m := client.GenerativeModel(model)
	m.SetTemperature(0.3)
	m.SetTopP(0.95)
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	return &genaiChat{client: client, model: m}, nil
}

func (c *genaiChat) Send(ctx context.Context, history []*genai.Content, text string) (*genai.GenerateContentResponse, error) {
	cs := c.model.StartChat()
	cs.History = history
	return cs.SendMessage(ctx, genai.Text(text))
}

func (c *genaiChat) Close() error {
	return c.client.Close()
}
