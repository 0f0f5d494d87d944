package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/todo-tracker/internal/models"
	"github.com/yukikurage/todo-tracker/internal/repository"
	"github.com/yukikurage/todo-tracker/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type integrationTestEnv struct {
	router   *gin.Engine
	settings repository.SettingsRepository
}

func setupIntegrationTestEnv(t *testing.T) integrationTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(&models.AppConfig{}))

	log, _ := test.NewNullLogger()
	settings := repository.NewSettingsRepository(db)
	notifier := services.NewNotifier(settings, &http.Client{Timeout: 5 * time.Second}, log)

	integrations := NewIntegrationHandler(services.NewAIService(settings, "", "", nil), notifier, log)
	settingsHandler := NewSettingsHandler(services.NewSettingsService(settings), notifier, log)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/subtasks", integrations.GenerateSubtasks)
	api.POST("/webhook", integrations.RelayWebhook)
	api.GET("/settings", settingsHandler.GetSettings)
	api.PUT("/settings/webhook", settingsHandler.SetWebhookURL)
	api.PUT("/settings/openai", settingsHandler.SetOpenAIKey)
	api.POST("/settings/webhook/test", settingsHandler.TestWebhook)

	return integrationTestEnv{
		router:   router,
		settings: settings,
	}
}

func (env integrationTestEnv) request(t *testing.T, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// recordingSink captures the events posted to it
type recordingSink struct {
	server *httptest.Server
	mu     sync.Mutex
	events []services.WebhookPayload
}

func newRecordingSink(t *testing.T, status int) *recordingSink {
	t.Helper()

	sink := &recordingSink{}
	sink.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload services.WebhookPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		sink.mu.Lock()
		sink.events = append(sink.events, payload)
		sink.mu.Unlock()

		w.WriteHeader(status)
	}))
	t.Cleanup(sink.server.Close)
	return sink
}

func (s *recordingSink) received() []services.WebhookPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]services.WebhookPayload(nil), s.events...)
}

func TestIntegrationHandler_GenerateSubtasks_Rejected(t *testing.T) {
	env := setupIntegrationTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/subtasks", map[string]string{"title": "Paint", "description": " "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"ok": false, "reason": "no_description"}`, w.Body.String())

	w = env.request(t, http.MethodPost, "/api/subtasks", map[string]string{"title": "Paint", "description": "Paint the room"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"ok": false, "reason": "no_openai_key"}`, w.Body.String())
}

func TestSubtaskFailureStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *services.IntegrationError
		want int
	}{
		{"no description", &services.IntegrationError{Reason: services.ReasonNoDescription}, http.StatusBadRequest},
		{"no key", &services.IntegrationError{Reason: services.ReasonNoOpenAIKey}, http.StatusBadRequest},
		{"upstream status", &services.IntegrationError{Reason: services.ReasonOpenAIError, Status: http.StatusTooManyRequests}, http.StatusTooManyRequests},
		{"upstream unreachable", &services.IntegrationError{Reason: services.ReasonOpenAIError}, http.StatusBadGateway},
		{"exception", &services.IntegrationError{Reason: services.ReasonException}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, subtaskFailureStatus(tt.err))
		})
	}
}

func TestIntegrationHandler_RelayWebhook(t *testing.T) {
	t.Run("no url configured", func(t *testing.T) {
		env := setupIntegrationTestEnv(t)

		w := env.request(t, http.MethodPost, "/api/webhook", map[string]interface{}{
			"event": "todo.updated",
			"todo":  map[string]string{"id": "t1"},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok": false, "reason": "no_url"}`, w.Body.String())
	})

	t.Run("relayed to sink", func(t *testing.T) {
		env := setupIntegrationTestEnv(t)
		sink := newRecordingSink(t, http.StatusAccepted)

		w := env.request(t, http.MethodPut, "/api/settings/webhook", map[string]string{"url": sink.server.URL})
		require.Equal(t, http.StatusOK, w.Code)

		w = env.request(t, http.MethodPost, "/api/webhook", map[string]interface{}{
			"event":   "todo.updated",
			"todo":    map[string]string{"id": "t1", "text": "Buy milk"},
			"changes": map[string]interface{}{"text": map[string]string{"from": "Buy", "to": "Buy milk"}},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok": true, "status": 202}`, w.Body.String())

		events := sink.received()
		require.Len(t, events, 1)
		assert.Equal(t, services.EventTodoUpdated, events[0].Event)
		assert.Equal(t, map[string]interface{}{"id": "t1", "text": "Buy milk"}, events[0].Todo)
		assert.Equal(t, services.FieldChange{From: "Buy", To: "Buy milk"}, events[0].Changes["text"])
	})
}

func TestSettingsHandler(t *testing.T) {
	env := setupIntegrationTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"webhook_url": "", "openai_api_key_set": false}`, w.Body.String())

	w = env.request(t, http.MethodPut, "/api/settings/openai", map[string]string{"api_key": " sk-abcdef1234 "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"webhook_url": "", "openai_api_key_set": true, "openai_api_key_hint": "…1234"}`, w.Body.String())

	w = env.request(t, http.MethodPost, "/api/settings/webhook/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok": false, "reason": "no_url"}`, w.Body.String())

	sink := newRecordingSink(t, http.StatusOK)
	w = env.request(t, http.MethodPut, "/api/settings/webhook", map[string]string{"url": sink.server.URL})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodPost, "/api/settings/webhook/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok": true, "status": 200}`, w.Body.String())

	events := sink.received()
	require.Len(t, events, 1)
	assert.Equal(t, services.EventTodoTest, events[0].Event)
}
