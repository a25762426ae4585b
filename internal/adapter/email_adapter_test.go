package adapter

import (
	"LykkeLoopAPI/internal/config"
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestNewEmailAdapterDisabled(t *testing.T) {
	logs := captureLogs(t)

	e := NewEmailAdapter(&config.AppConfig{SMTPPort: 587})

	assert.False(t, e.Enabled())
	assert.Contains(t, logs.String(), "email notifications disabled")

	err := e.Send(context.Background(), []string{"someone@example.com"}, "subject", "<p>hi</p>", "hi")
	assert.ErrorIs(t, err, ErrEmailDisabled)
}

func TestNewEmailAdapterEnabled(t *testing.T) {
	logs := captureLogs(t)

	e := NewEmailAdapter(&config.AppConfig{SMTPHost: "smtp.example.com", SMTPPort: 587})

	assert.True(t, e.Enabled())
	assert.NotContains(t, logs.String(), "email notifications disabled")
}
