package constants

import "time"

const (
	// SessionCookieName is the cookie carrying the session.
	SessionCookieName = "todo_session"
	// SessionMaxAge is the absolute lifetime of a session from issuance.
	SessionMaxAge = 8 * time.Hour

	SessionKeyUsername = "username"
	SessionKeyIssuedAt = "issued_at"

	LoginPath = "/login"
	RootPath  = "/"

	// ContextKeyTask holds the task resolved by middleware.LoadTask.
	ContextKeyTask = "task"

	MaxSubtasks = 12

	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200

	DateLayout = "2006-01-02"
)

// Setting keys persisted in the app_config table.
const (
	SettingWebhookURL   = "webhook_url"
	SettingOpenAIAPIKey = "openai_api_key"
)
