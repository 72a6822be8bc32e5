package request

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/blockeval/internal/workdir"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	mgr, err := workdir.NewManager(filepath.Join(t.TempDir(), "evals"))
	require.NoError(t, err)
	return NewBuilder(mgr)
}

func TestBuildValueSession(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(context.Background(), "x = 1\nx + 1\n", ModeValue, "main")
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "main", r.SessionKey)
	assert.False(t, r.Isolated())
	assert.NotEmpty(t, r.Fingerprint)

	wrapped, err := os.ReadFile(r.SourcePath)
	require.NoError(t, err)
	assert.Equal(t, r.ResultVar()+" = begin\nx = 1\nx + 1\nend\n", string(wrapped))
}

func TestBuildValueIsolated(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(context.Background(), "1 + 1", ModeValue, "")
	require.NoError(t, err)

	assert.True(t, r.Isolated())

	wrapped, err := os.ReadFile(r.SourcePath)
	require.NoError(t, err)
	assert.Equal(t, r.ResultVar()+" = let\n1 + 1\nend\n", string(wrapped))
}

func TestBuildOutputSessionLeavesBodyBare(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(context.Background(), "println(1+1)", ModeOutput, "main")
	require.NoError(t, err)

	wrapped, err := os.ReadFile(r.SourcePath)
	require.NoError(t, err)
	assert.Equal(t, "println(1+1)\n", string(wrapped))
}

func TestBuildOutputIsolatedWrapsInLet(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(context.Background(), "println(1+1)", ModeOutput, "none")
	require.NoError(t, err)

	wrapped, err := os.ReadFile(r.SourcePath)
	require.NoError(t, err)
	assert.Equal(t, "let\nprintln(1+1)\nend\n", string(wrapped))
}

func TestLoaderTextValue(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(context.Background(), "1 + 1", ModeValue, "main")
	require.NoError(t, err)

	loader := r.LoaderText()
	assert.Contains(t, loader, "include(raw\""+r.SourcePath+"\")")
	assert.Contains(t, loader, r.ResultVar())
	assert.Contains(t, loader, "raw\""+r.OutputPath+"\"")
	assert.True(t, strings.HasSuffix(loader, ";"), "loader must end in a semicolon to mute echo")
	assert.NotContains(t, loader, "\n", "loader must be a single line")
}

func TestLoaderTextOutputCapturesStdout(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(context.Background(), "println(1+1)", ModeOutput, "main")
	require.NoError(t, err)

	loader := r.LoaderText()
	assert.Contains(t, loader, "redirect_stdout")
	assert.Contains(t, loader, "include(raw\""+r.SourcePath+"\")")
	assert.Contains(t, loader, "raw\""+r.OutputPath+"\"")
	assert.NotContains(t, loader, "\n")
}

func TestBuildRejectsEmptySource(t *testing.T) {
	b := newBuilder(t)
	_, err := b.Build(context.Background(), "  \n ", ModeValue, "main")
	assert.Error(t, err)
}

func TestBuildRejectsUnknownMode(t *testing.T) {
	b := newBuilder(t)
	_, err := b.Build(context.Background(), "1", ResultMode("graph"), "main")
	assert.Error(t, err)
}

func TestFingerprintStableAcrossRequests(t *testing.T) {
	b := newBuilder(t)

	r1, err := b.Build(context.Background(), "1 + 1", ModeValue, "main")
	require.NoError(t, err)
	r2, err := b.Build(context.Background(), "1 + 1", ModeValue, "main")
	require.NoError(t, err)

	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Equal(t, r1.Fingerprint, r2.Fingerprint)
}

func TestDebugBanner(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(context.Background(), "x = 1\nx", ModeValue, "main")
	require.NoError(t, err)

	banner := r.DebugBanner()
	assert.Contains(t, banner, r.ID)
	assert.Contains(t, banner, "session=main mode=value")
	assert.Contains(t, banner, "# | x = 1\n")
	for _, line := range strings.Split(strings.TrimSuffix(banner, "\n"), "\n") {
		assert.True(t, strings.HasPrefix(line, "# "), "banner line %q must be a comment", line)
	}
}
