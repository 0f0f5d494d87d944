package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/yukikurage/todo-tracker/internal/constants"
	"github.com/yukikurage/todo-tracker/internal/repository"
	"gorm.io/gorm"
)

const subtaskSystemPrompt = "Eres un asistente que convierte descripciones de tareas en subtareas concretas. Responde solo JSON valido."

// subtaskSchema is built per request: Definition.MarshalJSON fills nil maps in place.
func subtaskSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"subtasks": {
				Type:  jsonschema.Array,
				Items: &jsonschema.Definition{Type: jsonschema.String},
			},
		},
		Required:             []string{"subtasks"},
		AdditionalProperties: false,
	}
}

// AIService suggests subtasks for a task description through OpenAI. The API
// key is read from settings on every call, falling back to the environment.
type AIService struct {
	settings   repository.SettingsRepository
	envAPIKey  string
	baseURL    string
	httpClient *http.Client
}

type subtaskResponse struct {
	Subtasks []string `json:"subtasks"`
}

func NewAIService(settings repository.SettingsRepository, envAPIKey, baseURL string, httpClient *http.Client) *AIService {
	return &AIService{
		settings:   settings,
		envAPIKey:  envAPIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// SuggestSubtasks returns up to constants.MaxSubtasks trimmed, non-empty
// subtasks. Every failure is an *IntegrationError.
func (s *AIService) SuggestSubtasks(ctx context.Context, title, description string) ([]string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, &IntegrationError{Reason: ReasonNoDescription}
	}

	apiKey, err := s.apiKey(ctx)
	if err != nil {
		return nil, &IntegrationError{Reason: ReasonNoOpenAIKey, Detail: err.Error()}
	}
	if apiKey == "" {
		return nil, &IntegrationError{Reason: ReasonNoOpenAIKey}
	}

	resp, err := s.client(apiKey).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: subtaskSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildSubtaskPrompt(title, description),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "subtasks_schema",
				Schema: subtaskSchema(),
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &IntegrationError{Reason: ReasonException, Detail: "no response from OpenAI"}
	}

	content := resp.Choices[0].Message.Content

	var parsed subtaskResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, &IntegrationError{
			Reason: ReasonException,
			Detail: fmt.Sprintf("failed to parse AI response: %v", err),
		}
	}

	subtasks := make([]string, 0, len(parsed.Subtasks))
	for _, item := range parsed.Subtasks {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		subtasks = append(subtasks, item)
		if len(subtasks) == constants.MaxSubtasks {
			break
		}
	}

	return subtasks, nil
}

func (s *AIService) apiKey(ctx context.Context) (string, error) {
	key, err := s.settings.Get(ctx, constants.SettingOpenAIAPIKey)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if key != "" {
		return key, nil
	}
	return s.envAPIKey, nil
}

func (s *AIService) client(apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}
	if s.httpClient != nil {
		cfg.HTTPClient = s.httpClient
	}
	return openai.NewClientWithConfig(cfg)
}

func buildSubtaskPrompt(title, description string) string {
	lines := make([]string, 0, 4)
	if title != "" {
		lines = append(lines, "Titulo de la tarea: "+title)
	}
	lines = append(lines,
		"Descripcion: "+description,
		"Devuelve subtareas concretas y accionables.",
		`Responde solo en JSON con el formato: {"subtasks": ["..."]}.`,
	)
	return strings.Join(lines, "\n")
}

func classifyOpenAIError(err error) *IntegrationError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &IntegrationError{
			Reason: ReasonOpenAIError,
			Status: apiErr.HTTPStatusCode,
			Detail: apiErr.Message,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := reqErr.HTTPStatus
		if reqErr.Err != nil {
			detail = reqErr.Err.Error()
		}
		return &IntegrationError{
			Reason: ReasonOpenAIError,
			Status: reqErr.HTTPStatusCode,
			Detail: detail,
		}
	}

	return &IntegrationError{Reason: ReasonException, Detail: err.Error()}
}
