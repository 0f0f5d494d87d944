package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/todo-tracker/internal/constants"
	"github.com/yukikurage/todo-tracker/internal/models"
	"github.com/yukikurage/todo-tracker/internal/repository"
)

// webhookSink records every payload posted to it
type webhookSink struct {
	server   *httptest.Server
	mu       sync.Mutex
	payloads []WebhookPayload
	status   int
}

func newWebhookSink(t *testing.T, status int) *webhookSink {
	t.Helper()

	sink := &webhookSink{status: status}
	sink.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload WebhookPayload
		assert.NoError(t, json.Unmarshal(body, &payload))

		sink.mu.Lock()
		sink.payloads = append(sink.payloads, payload)
		sink.mu.Unlock()

		w.WriteHeader(sink.status)
	}))
	t.Cleanup(sink.server.Close)

	return sink
}

func (s *webhookSink) received() []WebhookPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]WebhookPayload(nil), s.payloads...)
}

func newTestNotifier(t *testing.T) (*Notifier, repository.SettingsRepository) {
	t.Helper()

	db := setupTestDB(t)
	settings := repository.NewSettingsRepository(db)
	log, _ := test.NewNullLogger()

	notifier := NewNotifier(settings, &http.Client{Timeout: 5 * time.Second}, log)
	notifier.now = func() time.Time { return fixedNow }
	return notifier, settings
}

func TestDiff_OnlyTextChanged(t *testing.T) {
	previous := &models.Task{
		ID:          "t1",
		Text:        "old",
		Status:      models.TaskStatusPending,
		Description: strPtr("same"),
	}
	next := *previous
	next.Text = "new"
	next.Description = strPtr("same")

	changes := Diff(previous, &next)
	assert.Equal(t, Changes{"text": {From: "old", To: "new"}}, changes)
}

func TestDiff_NoChangesIsNil(t *testing.T) {
	task := &models.Task{ID: "t1", Text: "same", Status: models.TaskStatusPending}
	same := *task

	assert.Nil(t, Diff(task, &same))
	assert.Nil(t, Diff(nil, task))
}

func TestDiff_OptionalFields(t *testing.T) {
	previous := &models.Task{Text: "x", Status: models.TaskStatusPending}
	next := &models.Task{Text: "x", Status: models.TaskStatusFinished, Completed: true, EndDate: strPtr("2025-03-14")}

	changes := Diff(previous, next)
	require.Len(t, changes, 3)
	assert.Equal(t, FieldChange{From: "pendiente", To: "finalizado"}, changes["status"])
	assert.Equal(t, FieldChange{From: false, To: true}, changes["completed"])
	assert.Equal(t, FieldChange{From: nil, To: "2025-03-14"}, changes["end_date"])

	body, err := json.Marshal(changes["end_date"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"from": null, "to": "2025-03-14"}`, string(body))
}

func TestNotifier_Relay(t *testing.T) {
	notifier, settings := newTestNotifier(t)
	ctx := context.Background()
	sink := newWebhookSink(t, http.StatusAccepted)

	require.NoError(t, settings.Set(ctx, constants.SettingWebhookURL, sink.server.URL))

	status, err := notifier.Relay(ctx, EventTodoUpdated, map[string]string{"id": "t1"}, Changes{"text": {From: "a", To: "b"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, status)

	payloads := sink.received()
	require.Len(t, payloads, 1)
	assert.Equal(t, EventTodoUpdated, payloads[0].Event)
	assert.Equal(t, "2025-03-14T09:30:00Z", payloads[0].Timestamp)
	assert.Equal(t, map[string]interface{}{"id": "t1"}, payloads[0].Todo)
	assert.Equal(t, Changes{"text": {From: "a", To: "b"}}, payloads[0].Changes)
}

func TestNotifier_Relay_NonSuccessStatusIsReported(t *testing.T) {
	notifier, settings := newTestNotifier(t)
	ctx := context.Background()
	sink := newWebhookSink(t, http.StatusInternalServerError)

	require.NoError(t, settings.Set(ctx, constants.SettingWebhookURL, sink.server.URL))

	status, err := notifier.Relay(ctx, EventTodoCreated, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestNotifier_Relay_NoURL(t *testing.T) {
	notifier, settings := newTestNotifier(t)
	ctx := context.Background()

	_, err := notifier.Relay(ctx, EventTodoCreated, nil, nil)
	var integrationErr *IntegrationError
	require.True(t, errors.As(err, &integrationErr))
	assert.Equal(t, ReasonNoURL, integrationErr.Reason)

	require.NoError(t, settings.Set(ctx, constants.SettingWebhookURL, ""))
	_, err = notifier.Relay(ctx, EventTodoCreated, nil, nil)
	require.True(t, errors.As(err, &integrationErr))
	assert.Equal(t, ReasonNoURL, integrationErr.Reason)
}

func TestNotifier_Relay_SinkUnreachable(t *testing.T) {
	notifier, settings := newTestNotifier(t)
	ctx := context.Background()

	sink := httptest.NewServer(http.NotFoundHandler())
	url := sink.URL
	sink.Close()

	require.NoError(t, settings.Set(ctx, constants.SettingWebhookURL, url))

	_, err := notifier.Relay(ctx, EventTodoCreated, nil, nil)
	var integrationErr *IntegrationError
	require.True(t, errors.As(err, &integrationErr))
	assert.Equal(t, ReasonSinkError, integrationErr.Reason)
}

func TestNotifier_Dispatch(t *testing.T) {
	notifier, settings := newTestNotifier(t)
	ctx := context.Background()
	sink := newWebhookSink(t, http.StatusOK)

	require.NoError(t, settings.Set(ctx, constants.SettingWebhookURL, sink.server.URL))

	previous := &models.Task{ID: "t1", Text: "old", Status: models.TaskStatusPending}
	next := *previous
	next.Text = "new"
	next.Alerts = []models.TaskAlert{{ID: "a1", Title: "ignored"}}

	notifier.Dispatch(EventTodoUpdated, &next, previous)
	notifier.Wait()

	payloads := sink.received()
	require.Len(t, payloads, 1)
	assert.Equal(t, EventTodoUpdated, payloads[0].Event)
	assert.Equal(t, Changes{"text": {From: "old", To: "new"}}, payloads[0].Changes)

	todo, ok := payloads[0].Todo.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "new", todo["text"])
	assert.NotContains(t, todo, "alerts")
}

func TestNotifier_Dispatch_FailureIsSwallowed(t *testing.T) {
	db := setupTestDB(t)
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	notifier := NewNotifier(repository.NewSettingsRepository(db), nil, log)

	notifier.Dispatch(EventTodoCreated, &models.Task{ID: "t1", Text: "x"}, nil)
	notifier.Wait()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "webhook not delivered", entry.Message)
}

func TestNotifier_TestWebhook(t *testing.T) {
	notifier, settings := newTestNotifier(t)
	ctx := context.Background()
	sink := newWebhookSink(t, http.StatusOK)

	require.NoError(t, settings.Set(ctx, constants.SettingWebhookURL, sink.server.URL))

	status, err := notifier.TestWebhook(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	payloads := sink.received()
	require.Len(t, payloads, 1)
	assert.Equal(t, EventTodoTest, payloads[0].Event)
	todo := payloads[0].Todo.(map[string]interface{})
	assert.Equal(t, "test-id", todo["id"])
	assert.Equal(t, "Tarea de prueba", todo["text"])
}
