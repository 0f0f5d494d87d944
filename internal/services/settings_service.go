package services

import (
	"context"
	"strings"

	"github.com/yukikurage/todo-tracker/internal/constants"
	"github.com/yukikurage/todo-tracker/internal/repository"
)

// Settings is the settings surface view. The OpenAI key itself is never
// returned, only whether one is stored and its last characters.
type Settings struct {
	WebhookURL    string `json:"webhook_url"`
	OpenAIKeySet  bool   `json:"openai_api_key_set"`
	OpenAIKeyHint string `json:"openai_api_key_hint,omitempty"`
}

// SettingsService reads and writes the persisted integration settings.
type SettingsService struct {
	repo repository.SettingsRepository
}

func NewSettingsService(repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	values, err := s.repo.GetMany(ctx, []string{constants.SettingWebhookURL, constants.SettingOpenAIAPIKey})
	if err != nil {
		return nil, storeError("load settings", err)
	}

	key := values[constants.SettingOpenAIAPIKey]
	settings := &Settings{
		WebhookURL:   values[constants.SettingWebhookURL],
		OpenAIKeySet: key != "",
	}
	if runes := []rune(key); len(runes) > 4 {
		settings.OpenAIKeyHint = "…" + string(runes[len(runes)-4:])
	}
	return settings, nil
}

func (s *SettingsService) SetWebhookURL(ctx context.Context, url string) error {
	return s.set(ctx, constants.SettingWebhookURL, url)
}

func (s *SettingsService) SetOpenAIKey(ctx context.Context, key string) error {
	return s.set(ctx, constants.SettingOpenAIAPIKey, key)
}

func (s *SettingsService) set(ctx context.Context, key, value string) error {
	if err := s.repo.Set(ctx, key, strings.TrimSpace(value)); err != nil {
		return storeError("save setting "+key, err)
	}
	return nil
}
