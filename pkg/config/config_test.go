package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	Addr    string        `split_words:"true" default:":5080"`
	Timeout time.Duration `split_words:"true" default:"2s"`
	Name    string        `split_words:"true" required:"true"`
}

func TestNewReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFGTEST_NAME=outreach\nCFGTEST_TIMEOUT=5s\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("CFGTEST_NAME")
		os.Unsetenv("CFGTEST_TIMEOUT")
		SetEnvFile("")
	})

	SetEnvFile(path)
	got, err := New[sampleConfig]("CFGTEST")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got.Name != "outreach" {
		t.Fatalf("Name = %q, want outreach", got.Name)
	}
	if got.Timeout != 5*time.Second {
		t.Fatalf("Timeout = %v, want 5s", got.Timeout)
	}
	if got.Addr != ":5080" {
		t.Fatalf("Addr = %q, want default", got.Addr)
	}
}

func TestNewEnvironmentWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFGPREC_NAME=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CFGPREC_NAME", "from-env")
	t.Cleanup(func() { SetEnvFile("") })

	SetEnvFile(path)
	got, err := New[sampleConfig]("CFGPREC")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got.Name != "from-env" {
		t.Fatalf("Name = %q, want from-env", got.Name)
	}
}

func TestNewMissingRequired(t *testing.T) {
	t.Cleanup(func() { SetEnvFile("") })
	SetEnvFile(filepath.Join(t.TempDir(), "absent.env"))

	if _, err := New[sampleConfig]("CFGMISSING"); err == nil {
		t.Fatal("expected error for unreadable env file")
	}

	SetEnvFile("")
	if _, err := New[sampleConfig]("CFGMISSING"); err == nil {
		t.Fatal("expected error for missing required field")
	}
}
