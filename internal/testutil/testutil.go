// Package testutil provides shared test helpers for the firetoken module.
//
// All helpers accept [testing.TB] for compatibility with both tests and
// benchmarks. Functions that halt the test on failure use [require] from
// testify; functions that record failures without stopping use [assert].
//
// Every helper calls t.Helper() so that test failure messages report the
// caller's file and line number rather than this package's.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fterr "github.com/StricklySoft/firetoken/pkg/errors"
)

// RequireNoError halts the test immediately if err is non-nil.
// Use this for preconditions whose failure makes continuing meaningless.
func RequireNoError(t testing.TB, err error, msgAndArgs ...any) {
	t.Helper()
	require.NoError(t, err, msgAndArgs...)
}

// RequireError halts the test immediately if err is nil.
// Use this when an error is expected and subsequent assertions depend on it.
func RequireError(t testing.TB, err error, msgAndArgs ...any) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
}

// RequireErrorCode halts the test if err is nil, is not an *fterr.Error,
// or does not carry the expected error code. This is the primary helper
// for validating verification failures.
//
// Example:
//
//	_, err := verifier.Verify(ctx, token)
//	testutil.RequireErrorCode(t, err, fterr.CodeTokenExpired)
func RequireErrorCode(t testing.TB, err error, code fterr.Code, msgAndArgs ...any) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	ftErr, ok := fterr.AsError(err)
	require.True(t, ok, "expected *fterr.Error, got %T: %v", err, err)
	require.Equal(t, code, ftErr.Code,
		"error code mismatch: got %q, want %q (message: %s)",
		ftErr.Code, code, ftErr.Message)
}

// AssertErrorCode records a test failure (without halting) if err is nil,
// is not an *fterr.Error, or does not carry the expected error code.
// Use this in table-driven tests where you want to check all rows.
func AssertErrorCode(t testing.TB, err error, code fterr.Code, msgAndArgs ...any) bool {
	t.Helper()
	if !assert.Error(t, err, msgAndArgs...) {
		return false
	}
	ftErr, ok := fterr.AsError(err)
	if !assert.True(t, ok, "expected *fterr.Error, got %T: %v", err, err) {
		return false
	}
	return assert.Equal(t, code, ftErr.Code,
		"error code mismatch: got %q, want %q (message: %s)",
		ftErr.Code, code, ftErr.Message)
}

// RequireErrorDetail halts the test unless err is an *fterr.Error whose
// Details map carries the expected value under the given key. Used to
// assert that claim and key ID names survive into the error.
func RequireErrorDetail(t testing.TB, err error, key string, want any) {
	t.Helper()
	require.Error(t, err)
	ftErr, ok := fterr.AsError(err)
	require.True(t, ok, "expected *fterr.Error, got %T: %v", err, err)
	require.Equal(t, want, ftErr.Details[key],
		"detail %q mismatch (message: %s)", key, ftErr.Message)
}

// TempConfigFile creates a temporary file with the given content and
// extension (e.g., ".yaml", ".json") inside t.TempDir(). The file is
// automatically cleaned up when the test finishes.
//
// The file is created with mode 0600 (owner read/write only) following
// the principle of least privilege for configuration files.
func TempConfigFile(t testing.TB, content, ext string) string {
	t.Helper()
	dir := t.TempDir()
	name := "config" + ext
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err, "failed to write temp config file %s", path)
	return path
}

// TempFile creates a temporary file with the given name and content
// inside t.TempDir(). The file is automatically cleaned up when the
// test finishes.
func TempFile(t testing.TB, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err, "failed to write temp file %s", path)
	return path
}

// SetEnv sets an environment variable and registers a cleanup function
// that restores the original value (or unsets it if it was not set)
// when the test completes.
//
// This is safe for use in parallel tests only if each test sets a
// unique environment variable. For shared variables, do not use
// t.Parallel().
func SetEnv(t testing.TB, key, value string) {
	t.Helper()
	prev, existed := os.LookupEnv(key)
	err := os.Setenv(key, value)
	require.NoError(t, err, "failed to set env var %s", key)
	t.Cleanup(func() {
		if existed {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

// UnsetEnv unsets an environment variable and registers a cleanup
// function that restores the original value when the test completes.
func UnsetEnv(t testing.TB, key string) {
	t.Helper()
	prev, existed := os.LookupEnv(key)
	err := os.Unsetenv(key)
	require.NoError(t, err, "failed to unset env var %s", key)
	t.Cleanup(func() {
		if existed {
			_ = os.Setenv(key, prev)
		}
	})
}
