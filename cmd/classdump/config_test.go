package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), defaultConfigName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[output]
color = "always"
roundtrip = true

[decode]
raw = true

[log]
verbose = true
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("default format lost: %q", cfg.Output.Format)
	}
	if cfg.Output.Color != "always" || !cfg.Output.RoundTrip {
		t.Errorf("output = %+v", cfg.Output)
	}
	if !cfg.Decode.Raw || cfg.Decode.AnyMagic {
		t.Errorf("decode = %+v", cfg.Decode)
	}
	if !cfg.Log.Verbose {
		t.Error("verbose not set")
	}
}

func TestLoadConfigDefaultAbsent(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if *cfg != *defaultConfig() {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigDefaultPresent(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(defaultConfigName, []byte("[output]\nformat = \"cbor\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Output.Format != "cbor" {
		t.Errorf("format = %q", cfg.Output.Format)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[output\n", "parse error"},
		{"wrong type", "[output]\ncode = \"yes\"\n", "parse error"},
		{"format", "[output]\nformat = \"json\"\n", "unknown output format"},
		{"color", "[output]\ncolor = \"rainbow\"\n", "unknown color mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir for toolchains older than Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
