package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"", zapcore.InfoLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"bogus", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Environment: "production", Output: &buf})
	require.NoError(t, err)

	l.Debug("hidden")
	l.With(Component("session")).Info("signed in", Operation("login"), UserID("42"))
	require.NoError(t, l.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "signed in", line["msg"])
	assert.Equal(t, "session", line["component"])
	assert.Equal(t, "login", line["operation"])
	assert.Equal(t, "42", line["user_id"])
}

func TestNew_DevelopmentAndBadLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Environment: "development", Output: &buf})
	require.NoError(t, err)
	l.Debug("hello", Status(200))
	assert.Contains(t, buf.String(), "hello")

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	nop := NewNop()
	ctx := WithContext(context.Background(), nop)
	assert.Same(t, nop, FromContext(ctx))

	assert.NotNil(t, FromContext(context.Background()))
}
