package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"portrait/internal/auth"
	"portrait/internal/config"
	"portrait/internal/models"
	"portrait/internal/store"
)

func configForTest(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(dir, "portrait.db")
	cfg.CachePath = filepath.Join(dir, "cache", "profile_image")
	return &cfg
}

func TestReadPasswordLine(t *testing.T) {
	got, err := readPasswordLine(strings.NewReader("correct horse\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "correct horse" {
		t.Fatalf("expected trailing newline stripped, got %q", got)
	}

	got, err = readPasswordLine(strings.NewReader("no-newline-secret"))
	if err != nil || got != "no-newline-secret" {
		t.Fatalf("expected value without newline, got %q err=%v", got, err)
	}

	if _, err := readPasswordLine(strings.NewReader("   \n")); err == nil {
		t.Fatal("expected blank password to fail")
	}
}

func TestAdminSetPasswordRequiresStdinFlag(t *testing.T) {
	cmd := newAdminSetPasswordCmd(configForTest(t))
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "--password-stdin") {
		t.Fatalf("expected --password-stdin error, got %v", err)
	}
}

func TestAdminSetPasswordStoresHash(t *testing.T) {
	cfg := configForTest(t)
	cmd := newAdminSetPasswordCmd(cfg)
	cmd.SetIn(strings.NewReader("operator-secret\n"))
	cmd.SetArgs([]string{"--password-stdin"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("set password: %v", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	hash, ok, err := st.GetSetting(context.Background(), models.OperatorPasswordKey)
	if err != nil || !ok {
		t.Fatalf("expected stored hash, ok=%v err=%v", ok, err)
	}
	if !auth.VerifyPassword(hash, "operator-secret") {
		t.Fatal("stored hash does not verify")
	}
}
