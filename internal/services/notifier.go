package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/todo-tracker/internal/constants"
	"github.com/yukikurage/todo-tracker/internal/models"
	"github.com/yukikurage/todo-tracker/internal/repository"
	"gorm.io/gorm"
)

type WebhookEvent string

const (
	EventTodoCreated WebhookEvent = "todo.created"
	EventTodoUpdated WebhookEvent = "todo.updated"
	EventTodoTest    WebhookEvent = "todo.test"
)

// FieldChange is the before/after value of one tracked field.
type FieldChange struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// Changes maps a tracked field name to its change.
type Changes map[string]FieldChange

// WebhookPayload is the body posted to the sink.
type WebhookPayload struct {
	Event     WebhookEvent `json:"event"`
	Timestamp string       `json:"timestamp"`
	Todo      interface{}  `json:"todo"`
	Changes   Changes      `json:"changes"`
}

// Dispatcher forwards task lifecycle events. Implementations must never block
// the caller on delivery.
type Dispatcher interface {
	Dispatch(event WebhookEvent, task, previous *models.Task)
}

// trackedFields lists the fields compared by Diff, in payload order.
var trackedFields = []struct {
	name  string
	value func(t *models.Task) interface{}
}{
	{"text", func(t *models.Task) interface{} { return t.Text }},
	{"status", func(t *models.Task) interface{} { return string(t.Status) }},
	{"completed", func(t *models.Task) interface{} { return t.Completed }},
	{"description", func(t *models.Task) interface{} { return deref(t.Description) }},
	{"start_date", func(t *models.Task) interface{} { return deref(t.StartDate) }},
	{"due_date", func(t *models.Task) interface{} { return deref(t.DueDate) }},
	{"end_date", func(t *models.Task) interface{} { return deref(t.EndDate) }},
	{"estimated_time", func(t *models.Task) interface{} { return deref(t.EstimatedTime) }},
}

func deref(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// Diff compares the tracked fields of two task snapshots. It returns nil when
// no tracked field changed.
func Diff(previous, next *models.Task) Changes {
	if previous == nil || next == nil {
		return nil
	}

	changes := Changes{}
	for _, f := range trackedFields {
		from, to := f.value(previous), f.value(next)
		if from != to {
			changes[f.name] = FieldChange{From: from, To: to}
		}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

// Notifier relays task events to the webhook sink configured in settings.
type Notifier struct {
	settings repository.SettingsRepository
	client   *http.Client
	log      *logrus.Logger
	now      func() time.Time
	inflight sync.WaitGroup
}

// NewNotifier creates a new Notifier
func NewNotifier(settings repository.SettingsRepository, client *http.Client, log *logrus.Logger) *Notifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &Notifier{
		settings: settings,
		client:   client,
		log:      log,
		now:      time.Now,
	}
}

// Dispatch sends the event in the background. Failures are logged and dropped.
func (n *Notifier) Dispatch(event WebhookEvent, task, previous *models.Task) {
	if task == nil {
		return
	}

	var changes Changes
	if event == EventTodoUpdated && previous != nil {
		changes = Diff(previous, task)
	}

	snapshot := *task
	snapshot.Alerts, snapshot.Dependencies, snapshot.Comments = nil, nil, nil

	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				n.log.WithField("event", event).Errorf("webhook dispatch panicked: %v", r)
			}
		}()

		status, err := n.Relay(context.Background(), event, snapshot, changes)
		entry := n.log.WithFields(logrus.Fields{
			"operation": "services.Notifier.Dispatch",
			"event":     event,
			"task_id":   snapshot.ID,
		})
		if err != nil {
			entry.WithError(err).Debug("webhook not delivered")
			return
		}
		entry.WithField("status", status).Debug("webhook delivered")
	}()
}

// Wait blocks until every dispatched event has finished.
func (n *Notifier) Wait() {
	n.inflight.Wait()
}

// Relay posts one event to the configured sink and returns the sink's HTTP
// status. A missing sink URL yields an IntegrationError with ReasonNoURL.
func (n *Notifier) Relay(ctx context.Context, event WebhookEvent, todo interface{}, changes Changes) (int, error) {
	url, err := n.settings.Get(ctx, constants.SettingWebhookURL)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, &IntegrationError{Reason: ReasonNoURL, Detail: err.Error()}
	}
	if url == "" {
		return 0, &IntegrationError{Reason: ReasonNoURL}
	}

	body, err := json.Marshal(WebhookPayload{
		Event:     event,
		Timestamp: n.now().UTC().Format(time.RFC3339Nano),
		Todo:      todo,
		Changes:   changes,
	})
	if err != nil {
		return 0, &IntegrationError{Reason: ReasonException, Detail: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, &IntegrationError{Reason: ReasonSinkError, Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, &IntegrationError{Reason: ReasonSinkError, Detail: err.Error()}
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

// TestWebhook relays a todo.test event carrying a sample task.
func (n *Notifier) TestWebhook(ctx context.Context) (int, error) {
	sample := models.Task{
		ID:        "test-id",
		Text:      "Tarea de prueba",
		Status:    models.TaskStatusPending,
		CreatedAt: n.now().UTC(),
	}
	status, err := n.Relay(ctx, EventTodoTest, sample, nil)
	if err != nil {
		return 0, fmt.Errorf("test webhook: %w", err)
	}
	return status, nil
}
