package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewFromFile(t *testing.T) {
	path := writeConfigFile(t, `
dir: /var/cache/disklru
max_size: 100
max_items: 100000
app_version: 3
`)

	c, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	expected := &Config{
		Dir:                 "/var/cache/disklru",
		MaxSize:             100,
		MaxItems:            100000,
		AppVersion:          3,
		CompactionThreshold: defaultCompactionThreshold,
		LogLevel:            "info",
	}

	if diff := cmp.Diff(expected, c, cmpopts.IgnoreFields(Config{}, "AccessLogger", "ErrorLogger")); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if c.AccessLogger == nil || c.ErrorLogger == nil {
		t.Error("expected loggers to be set")
	}
	if got, want := c.MaxSizeBytes(), int64(100*1024*1024*1024); got != want {
		t.Errorf("MaxSizeBytes() = %d, want %d", got, want)
	}
}

func TestNewMissingRequiredField(t *testing.T) {
	path := writeConfigFile(t, `
max_size: 100
max_items: 10
`)
	if _, err := New(path, nil); err == nil {
		t.Fatal("expected an error for a missing 'dir'")
	}
}

func TestNewInvalidLogLevel(t *testing.T) {
	path := writeConfigFile(t, `
dir: /tmp/x
max_size: 100
max_items: 10
log_level: verbose
`)
	if _, err := New(path, nil); err == nil {
		t.Fatal("expected an error for an invalid log_level")
	}
}

func TestLogLevelNoneDiscardsAccessLog(t *testing.T) {
	path := writeConfigFile(t, `
dir: /tmp/x
max_size: 100
max_items: 10
log_level: none
`)
	c, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.AccessLogger == nil {
		t.Fatal("AccessLogger should still be non-nil, just discarding output")
	}
}
