package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jurisearch/backend/internal/domain/apperr"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "trims line whitespace",
			in:   "  hello  \n\tworld\t",
			want: "hello\nworld",
		},
		{
			name: "drops bare page numbers",
			in:   "first page\n12\nsecond page",
			want: "first page\nsecond page",
		},
		{
			name: "keeps numbers embedded in text",
			in:   "G.R. No. 123456\npage 12 of the record",
			want: "G.R. No. 123456\npage 12 of the record",
		},
		{
			name: "collapses blank runs",
			in:   "a\n\n\n\n\nb",
			want: "a\n\nb",
		},
		{
			name: "empty input",
			in:   "   \n\n  ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestLooksScanned(t *testing.T) {
	assert.True(t, looksScanned("", 1))
	assert.True(t, looksScanned("short", 1))
	assert.True(t, looksScanned(strings.Repeat("x", 300), 20), "300 chars over 20 pages is below density floor")
	assert.False(t, looksScanned(strings.Repeat("x", 300), 1))
	assert.False(t, looksScanned(strings.Repeat("x", 5000), 10))
}

func TestExtractPlainTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decision.txt")
	require.NoError(t, os.WriteFile(path, []byte("  WHEREFORE, premises considered  \n\n\n\nthe petition is GRANTED\n"), 0o644))

	e := NewExtractor(nil, zap.NewNop())
	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "WHEREFORE, premises considered\n\nthe petition is GRANTED", text)
}

func TestExtractUnsupportedExtension(t *testing.T) {
	e := NewExtractor(nil, zap.NewNop())
	_, err := e.Extract(context.Background(), "decision.docx")
	require.Error(t, err)
	assert.Equal(t, apperr.KindExtraction, apperr.KindOf(err))
}

func TestExtractMissingFile(t *testing.T) {
	e := NewExtractor(nil, zap.NewNop())
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindExtraction, apperr.KindOf(err))
}
