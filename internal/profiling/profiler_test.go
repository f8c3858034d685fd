package profiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nonEmpty(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSession_AllProfiles(t *testing.T) {
	// Given: all three targets
	dir := t.TempDir()
	targets := Targets{
		CPU:   filepath.Join(dir, "cpu.prof"),
		Heap:  filepath.Join(dir, "heap.prof"),
		Trace: filepath.Join(dir, "trace.out"),
	}
	require.True(t, targets.Enabled())

	// When: running a session around some work
	s, err := Start(targets)
	require.NoError(t, err)
	sum := 0
	for i := range 1_000_000 {
		sum += i
	}
	_ = sum
	require.NoError(t, s.Stop())

	// Then: every file has content and a second Stop is a no-op
	nonEmpty(t, targets.CPU)
	nonEmpty(t, targets.Heap)
	nonEmpty(t, targets.Trace)
	assert.NoError(t, s.Stop())
}

func TestSession_Disabled(t *testing.T) {
	s, err := Start(Targets{})
	require.NoError(t, err)

	assert.False(t, Targets{}.Enabled())
	assert.NoError(t, s.Stop())
	assert.NoError(t, (*Session)(nil).Stop())
}

func TestStart_BadPath(t *testing.T) {
	_, err := Start(Targets{CPU: filepath.Join(t.TempDir(), "missing", "cpu.prof")})

	assert.Error(t, err)
}
