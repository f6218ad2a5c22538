package main

import (
	"strings"
	"testing"
)

func isolateCLI(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("PORTRAIT_CONFIG_DIR", dir)
	t.Setenv("PORTRAIT_DB", dir+"/portrait.db")
	t.Setenv("PORTRAIT_CACHE_PATH", dir+"/cache/profile_image")
	t.Setenv(logLevelEnvKey, "")
	t.Chdir(dir)
}

func TestRunRejectsInvalidLogLevelFlag(t *testing.T) {
	isolateCLI(t)
	if code := run([]string{"--log-level", "verbose", "config", "get", "log_level"}); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestRunConfigGet(t *testing.T) {
	isolateCLI(t)
	if code := run([]string{"config", "get", "api_url"}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if code := run([]string{"config", "get", "nope"}); code != 1 {
		t.Fatalf("expected exit 1 for unknown key, got %d", code)
	}
}

func TestRunImageSetLocalThenGet(t *testing.T) {
	isolateCLI(t)
	if code := run([]string{"image", "set", "--local", "https://example.com/me.jpg"}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if code := run([]string{"image", "set", "--local", "ftp://example.com/me.jpg"}); code != 1 {
		t.Fatalf("expected exit 1 for rejected input, got %d", code)
	}
}

func TestRootRegistersCommands(t *testing.T) {
	isolateCLI(t)
	root := newRootCmd(configForTest(t))
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"srv", "image", "admin", "migrate", "config"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %s command, got %s", want, joined)
		}
	}
}
