package interaction

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver(name, serverDir string, lookPath func(string) (string, error), checkVersion func(string) bool) *Resolver {
	r := NewResolver(name)
	r.executable = func() (string, error) { return filepath.Join(serverDir, "sanshu-mcp"), nil }
	r.lookPath = lookPath
	r.checkVersion = checkVersion
	return r
}

func notOnPath(string) (string, error) {
	return "", errors.New("executable file not found in $PATH")
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not used on windows")
	}
}

func TestResolverPrefersColocatedBinary(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	local := filepath.Join(dir, "等一下")
	require.NoError(t, os.WriteFile(local, []byte("#!/bin/sh\n"), 0o755))

	checked := false
	r := testResolver("等一下", dir, func(string) (string, error) { return "/usr/bin/等一下", nil }, func(string) bool {
		checked = true
		return true
	})

	path, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, local, path)
	assert.False(t, checked)
}

func TestResolverSkipsNonExecutableColocatedFile(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "等一下"), []byte("data"), 0o644))

	r := testResolver("等一下", dir, func(string) (string, error) { return "/usr/local/bin/等一下", nil }, func(string) bool { return true })

	path, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/等一下", path)
}

func TestResolverRequiresSuccessfulVersionCheck(t *testing.T) {
	r := testResolver("等一下", t.TempDir(), func(string) (string, error) { return "/usr/local/bin/等一下", nil }, func(string) bool { return false })

	_, err := r.Resolve()
	require.ErrorIs(t, err, ErrBinaryNotFound)
}

func TestResolverNotFound(t *testing.T) {
	r := testResolver("sanshu-ui-that-does-not-exist", t.TempDir(), notOnPath, func(string) bool { return true })

	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve()
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrBinaryNotFound)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Contains(t, err.Error(), "sanshu-ui-that-does-not-exist")
		assert.Contains(t, err.Error(), "SANSHU_UI_BINARY")
	case <-time.After(5 * time.Second):
		t.Fatal("resolver hung")
	}
}

func TestResolverRealLookupNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := NewResolver("sanshu-ui-that-does-not-exist").Resolve()
	require.ErrorIs(t, err, ErrBinaryNotFound)
}

func TestResolverExplicitPath(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	binary := filepath.Join(dir, "popup")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755))

	path, err := NewResolver(binary).Resolve()
	require.NoError(t, err)
	assert.Equal(t, binary, path)

	_, err = NewResolver(filepath.Join(dir, "missing")).Resolve()
	require.ErrorIs(t, err, ErrBinaryNotFound)
}

func TestResolverEmptyName(t *testing.T) {
	_, err := NewResolver("").Resolve()
	require.ErrorIs(t, err, ErrBinaryNotFound)
}
