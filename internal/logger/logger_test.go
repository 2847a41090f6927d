package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(Config{Level: "debug", Encoding: "weird", OutputPath: path})
	require.NoError(t, err)
	l.Debug("hello")
	_ = l.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)
	assert.Contains(t, string(b), `"level":"DEBUG"`)
}

func TestNewFallsBackOnBadLevel(t *testing.T) {
	l, err := New(Config{Level: "loud"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1), "debug must be disabled at the info fallback")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
