package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Posture:         balanced")
	requireContains(t, out, "yt-dlp binary:   yt-dlp")
}

func TestRunRequiresURL(t *testing.T) {
	setupHome(t)

	if _, err := runCLI(t, "run"); err == nil {
		t.Fatal("expected run without arguments to fail")
	}
}

func TestLedgerShowEmpty(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t, "ledger", "show", "Some Channel")
	if err != nil {
		t.Fatalf("ledger show: %v", err)
	}
	requireContains(t, out, "No entries")
}

func TestLedgerResetRequiresConfirmation(t *testing.T) {
	setupHome(t)

	if _, err := runCLI(t, "ledger", "reset", "Some Channel"); err == nil {
		t.Fatal("expected reset without --yes to fail")
	}
}
