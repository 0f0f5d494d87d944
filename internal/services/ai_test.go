package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/todo-tracker/internal/constants"
	"github.com/yukikurage/todo-tracker/internal/repository"
)

type aiTestEnv struct {
	service  *AIService
	settings repository.SettingsRepository
	requests []map[string]interface{}
}

// setupAITestEnv starts a fake chat completions endpoint answering with handler
func setupAITestEnv(t *testing.T, envKey string, handler func(w http.ResponseWriter, r *http.Request)) *aiTestEnv {
	t.Helper()

	env := &aiTestEnv{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		env.requests = append(env.requests, body)

		handler(w, r)
	}))
	t.Cleanup(server.Close)

	db := setupTestDB(t)
	env.settings = repository.NewSettingsRepository(db)
	env.service = NewAIService(env.settings, envKey, server.URL+"/v1", server.Client())
	return env
}

func chatCompletion(content string) string {
	encoded, _ := json.Marshal(content)
	return fmt.Sprintf(`{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": %s}, "finish_reason": "stop"}]
	}`, encoded)
}

func requireIntegrationReason(t *testing.T, err error, reason IntegrationReason) *IntegrationError {
	t.Helper()

	var integrationErr *IntegrationError
	require.True(t, errors.As(err, &integrationErr), "expected IntegrationError, got %v", err)
	assert.Equal(t, reason, integrationErr.Reason)
	return integrationErr
}

func TestAIService_SuggestSubtasks(t *testing.T) {
	env := setupAITestEnv(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-settings", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletion(`{"subtasks": ["  Buy paint ", "", "Move furniture", "   "]}`))
	})
	ctx := context.Background()
	require.NoError(t, env.settings.Set(ctx, constants.SettingOpenAIAPIKey, "sk-settings"))

	subtasks, err := env.service.SuggestSubtasks(ctx, "Paint room", "Paint the living room white")
	require.NoError(t, err)
	assert.Equal(t, []string{"Buy paint", "Move furniture"}, subtasks)

	require.Len(t, env.requests, 1)
	request := env.requests[0]
	assert.Equal(t, "gpt-4o-mini", request["model"])

	format := request["response_format"].(map[string]interface{})
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]interface{})
	assert.Equal(t, "subtasks_schema", schema["name"])
	assert.Equal(t, true, schema["strict"])

	messages := request["messages"].([]interface{})
	require.Len(t, messages, 2)
	user := messages[1].(map[string]interface{})
	assert.Contains(t, user["content"], "Titulo de la tarea: Paint room")
	assert.Contains(t, user["content"], "Descripcion: Paint the living room white")
}

func TestAIService_SuggestSubtasks_LimitsResults(t *testing.T) {
	items := make([]string, 20)
	for i := range items {
		items[i] = fmt.Sprintf(`"step %d"`, i+1)
	}
	content := `{"subtasks": [` + strings.Join(items, ",") + `]}`

	env := setupAITestEnv(t, "sk-env", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-env", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletion(content))
	})

	subtasks, err := env.service.SuggestSubtasks(context.Background(), "", "Plan the move")
	require.NoError(t, err)
	require.Len(t, subtasks, constants.MaxSubtasks)
	assert.Equal(t, "step 1", subtasks[0])
	assert.Equal(t, "step 12", subtasks[11])
}

func TestAIService_SuggestSubtasks_NoDescription(t *testing.T) {
	env := setupAITestEnv(t, "sk-env", func(w http.ResponseWriter, r *http.Request) {
		t.Error("OpenAI must not be called")
	})

	_, err := env.service.SuggestSubtasks(context.Background(), "Title", "   ")
	requireIntegrationReason(t, err, ReasonNoDescription)
	assert.Empty(t, env.requests)
}

func TestAIService_SuggestSubtasks_NoKey(t *testing.T) {
	env := setupAITestEnv(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("OpenAI must not be called")
	})

	_, err := env.service.SuggestSubtasks(context.Background(), "", "Describe")
	requireIntegrationReason(t, err, ReasonNoOpenAIKey)
}

func TestAIService_SuggestSubtasks_UpstreamError(t *testing.T) {
	env := setupAITestEnv(t, "sk-bad", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`)
	})

	_, err := env.service.SuggestSubtasks(context.Background(), "", "Describe")
	integrationErr := requireIntegrationReason(t, err, ReasonOpenAIError)
	assert.Equal(t, http.StatusUnauthorized, integrationErr.Status)
	assert.Equal(t, "Incorrect API key provided", integrationErr.Detail)
}

func TestAIService_SuggestSubtasks_MalformedContent(t *testing.T) {
	env := setupAITestEnv(t, "sk-env", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletion("not json"))
	})

	_, err := env.service.SuggestSubtasks(context.Background(), "", "Describe")
	requireIntegrationReason(t, err, ReasonException)
}
