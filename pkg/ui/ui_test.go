package ui

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imgurdl/pkg/album"
	"imgurdl/pkg/auth"
	apperrors "imgurdl/pkg/errors"
)

func TestMain(m *testing.M) {
	SetColor(false)
	m.Run()
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 7*time.Minute, "2h7m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "2.0 MB", FormatBytes(2*1024*1024))
}

func TestRenderSummary(t *testing.T) {
	summary := &album.Summary{
		Albums: []*album.AlbumResult{
			{ID: "abc123", Name: "Cats", Images: 2, Saved: []string{"a.jpg", "b.jpg"}, Bytes: 2048},
			{ID: "def456", Name: "Dogs", Images: 3, Saved: []string{"c.jpg"}, Failed: 2, Bytes: 100},
			{ID: "gone99", Name: "gone99", Err: apperrors.New(apperrors.ErrorTypeNotFound, 404, "missing")},
		},
	}

	out := RenderSummary(summary, 90*time.Second)

	for _, want := range []string{"abc123", "Cats", "def456", "partial (2 failed)", "gone99", "skipped: not_found 404", "ok", "1m30s"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\033[")

	lines := strings.Split(out, "\n")
	assert.Greater(t, len(lines), 6)
}

func TestRenderSummaryEmpty(t *testing.T) {
	out := RenderSummary(&album.Summary{}, 0)
	assert.Contains(t, out, "0s")
}

func TestAskRunMode(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("maybe\n2\n"), &out)

	mode, err := p.AskRunMode()
	require.NoError(t, err)
	assert.Equal(t, album.ModeFromList, mode)
	assert.Contains(t, out.String(), "Please answer 1 or 2.")
}

func TestAskRunModeWithoutTrailingNewline(t *testing.T) {
	p := NewPrompter(strings.NewReader("1"), io.Discard)

	mode, err := p.AskRunMode()
	require.NoError(t, err)
	assert.Equal(t, album.ModeDirect, mode)
}

func TestAskRunModeEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), io.Discard)

	_, err := p.AskRunMode()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"what\nno\n", true, false},
	}
	for _, tt := range tests {
		p := NewPrompter(strings.NewReader(tt.input), io.Discard)
		got, err := p.Confirm("Build grid?", tt.def)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestPrintHelpers(t *testing.T) {
	var buf bytes.Buffer
	old := Out
	Out = &buf
	defer func() { Out = old }()

	PrintError("failed", "boom")
	PrintSuccess("done")
	PrintInfo("Directory", "images")
	PrintWarning("careful", 3)

	out := buf.String()
	assert.Contains(t, out, "failed: boom")
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "Directory")
	assert.Contains(t, out, "careful: 3")
}

func TestShouldColorizeNonFile(t *testing.T) {
	assert.False(t, ShouldColorize(&bytes.Buffer{}))
}

func TestRenderProfiles(t *testing.T) {
	out := RenderProfiles([]*auth.Profile{
		{Name: "default", ClientID: "abcdef1234567890", ClientSecret: "secretsecretsecret", LastModified: time.Now()},
		{Name: "env", ClientID: "short", ClientSecret: "tiny"},
	})

	assert.Contains(t, out, "default")
	assert.Contains(t, out, "abcd...7890")
	assert.NotContains(t, out, "secretsecretsecret")
	assert.Contains(t, out, "********")
	assert.Contains(t, out, "-")
}
