package services

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/todo-tracker/internal/repository"
)

func TestSettingsService_Get(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantSet bool
		hint    string
	}{
		{"no key", "", false, ""},
		{"short key has no hint", "sk-1", true, ""},
		{"ascii key", "sk-abcdef1234", true, "…1234"},
		{"multibyte key", "clé-ñandú-ü€", true, "…ú-ü€"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSettingsService(repository.NewSettingsRepository(setupTestDB(t)))
			ctx := context.Background()

			require.NoError(t, svc.SetWebhookURL(ctx, " https://hooks.example/todo "))
			require.NoError(t, svc.SetOpenAIKey(ctx, tt.key))

			settings, err := svc.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, "https://hooks.example/todo", settings.WebhookURL)
			assert.Equal(t, tt.wantSet, settings.OpenAIKeySet)
			assert.Equal(t, tt.hint, settings.OpenAIKeyHint)
			assert.True(t, utf8.ValidString(settings.OpenAIKeyHint))
		})
	}
}
