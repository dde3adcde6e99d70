package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "api-key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	t.Setenv("MATCHER_TEST_KEY", " from-env ")

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{
			name: "file wins",
			src:  Source{File: keyFile, Env: "MATCHER_TEST_KEY", Value: "inline"},
			want: "from-file",
		},
		{
			name: "env over value",
			src:  Source{Env: "MATCHER_TEST_KEY", Value: "inline"},
			want: "from-env",
		},
		{
			name: "unset env falls back to value",
			src:  Source{Env: "MATCHER_TEST_UNSET", Value: " inline "},
			want: "inline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(Source{Name: "api key", File: empty}); err == nil {
		t.Fatal("expected error for empty file")
	}
	if _, err := Load(Source{Name: "api key", File: filepath.Join(dir, "missing")}); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := Load(Source{Name: "api key"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	got, err := LoadOptional(Source{Name: "api key"})
	if err != nil || got != "" {
		t.Fatalf("expected empty secret without error, got %q, %v", got, err)
	}

	if _, err := LoadOptional(Source{File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected read error to be reported")
	}
}
