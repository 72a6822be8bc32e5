package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAndVerifyHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))

	hash, err := ComputeBlake3Hash(path)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	assert.NoError(t, VerifyFileHash(path, hash))
	assert.Error(t, VerifyFileHash(path, "deadbeef"))
}

func TestLockThenCheckPasses(t *testing.T) {
	path := writeConfig(t, "service:\n  name: locked\n")

	manifest, err := WriteChecksums(path)
	require.NoError(t, err)
	assert.Equal(t, 1, manifest.Version)
	assert.Contains(t, manifest.Hashes, "blockeval.yaml")

	result, err := VerifyIntegrity(path)
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestCheckDetectsTampering(t *testing.T) {
	path := writeConfig(t, "service:\n  name: locked\n")
	_, err := WriteChecksums(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("service:\n  name: edited\n"), 0o644))

	result, err := VerifyIntegrity(path)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "hash mismatch")
}

func TestCheckWithoutManifestWarns(t *testing.T) {
	path := writeConfig(t, "service:\n  name: unlocked\n")

	result, err := VerifyIntegrity(path)
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.NotEmpty(t, result.Warnings)
}

func TestLoadChecksumsRejectsBadVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".checksums"),
		[]byte("version: 7\nhashes: {}\n"), 0o600))

	_, err := LoadChecksums(dir)
	assert.Error(t, err)
}
