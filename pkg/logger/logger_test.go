package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imgurdl/pkg/config"
	apperrors "imgurdl/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "empty level defaults to info", cfg: &config.LoggingConfig{}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "imgurdl.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFieldsAreCarried(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(&buf)
	base := &zerologLogger{logger: &zlog, fields: map[string]interface{}{}}

	child := base.WithField("album", "ABC123").WithFields(map[string]interface{}{"images": 3})
	child.Info("Downloading album")

	out := buf.String()
	assert.Contains(t, out, `"album":"ABC123"`)
	assert.Contains(t, out, `"images":3`)
	assert.Contains(t, out, "Downloading album")

	buf.Reset()
	base.Info("no fields")
	assert.NotContains(t, buf.String(), "ABC123", "parent logger must not see child fields")
}

func TestConsoleOutputHidesRunID(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "info", NoColor: true}, &buf)
	require.NoError(t, err)

	l.WithField("file", "My_Album.jpg").Info("File downloaded")

	out := buf.String()
	assert.Contains(t, out, "| File downloaded")
	assert.Contains(t, out, "file=My_Album.jpg")
	assert.NotContains(t, out, RunID)
	assert.False(t, strings.Contains(out, "\033["), "no ANSI codes when colour is off")
}

func TestLogImageFailedCategories(t *testing.T) {
	tl := NewTestLogger()

	LogImageFailed(tl, "https://i.imgur.com/a.jpg", apperrors.New(apperrors.ErrorTypeHTTPStatus, 404, "Not Found"))
	LogImageFailed(tl, "https://i.imgur.com/b.jpg", apperrors.Wrap(apperrors.ErrorTypeNetwork, errors.New("connection reset"), ""))

	httpMsgs := tl.FindMessages("HTTP error downloading image")
	require.Len(t, httpMsgs, 1)
	assert.Equal(t, 404, httpMsgs[0].Field("status_code"))
	assert.Equal(t, "http_status", httpMsgs[0].Field("category"))

	netMsgs := tl.FindMessages("Error downloading image")
	require.Len(t, netMsgs, 1)
	assert.Equal(t, "network", netMsgs[0].Field("category"))
	assert.Error(t, netMsgs[0].Error)
}

func TestTestLoggerChildrenShareSink(t *testing.T) {
	tl := NewTestLogger()
	tl.WithField("album", "x").WithError(errors.New("boom")).Error("Album skipped")
	tl.Info("Cache empty")

	assert.True(t, tl.HasError())
	assert.True(t, tl.HasMessage("Cache empty"))
	assert.Len(t, tl.GetMessages(), 2)
	assert.Equal(t, "x", tl.GetMessagesByLevel("ERROR")[0].Field("album"))

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.WithField("a", 1).WithError(errors.New("x")).Error("ignored")
		l.InfoWithFields("ignored", map[string]interface{}{"b": 2})
	})
	assert.Nil(t, l.GetZerolog())
}
