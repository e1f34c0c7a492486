package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	dsnFile := filepath.Join(dir, "dsn")
	if err := os.WriteFile(dsnFile, []byte("  postgres://file@localhost/tender\n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("writing empty file: %v", err)
	}

	t.Setenv("TENDER_TEST_DSN", " postgres://env@localhost/tender ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr bool
	}{
		{
			name: "file wins over value and env",
			src:  Source{Name: "dsn", File: dsnFile, Value: "postgres://inline", Env: "TENDER_TEST_DSN"},
			want: "postgres://file@localhost/tender",
		},
		{
			name: "value wins over env",
			src:  Source{Name: "dsn", Value: " postgres://inline ", Env: "TENDER_TEST_DSN"},
			want: "postgres://inline",
		},
		{
			name: "env fallback",
			src:  Source{Name: "dsn", Env: "TENDER_TEST_DSN"},
			want: "postgres://env@localhost/tender",
		},
		{
			name:    "missing file",
			src:     Source{Name: "dsn", File: filepath.Join(dir, "nope"), Value: "ignored"},
			wantErr: true,
		},
		{
			name:    "empty file",
			src:     Source{Name: "dsn", File: emptyFile},
			wantErr: true,
		},
		{
			name:    "unset env",
			src:     Source{Name: "dsn", Env: "TENDER_TEST_UNSET"},
			wantErr: true,
		},
		{
			name:    "nothing configured",
			src:     Source{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadNotConfigured(t *testing.T) {
	_, err := Load(Source{Name: "redis password"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	got, err := LoadOptional(Source{Name: "redis password"})
	if err != nil || got != "" {
		t.Fatalf("expected empty secret without error, got %q, %v", got, err)
	}

	_, err = LoadOptional(Source{Name: "redis password", File: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatalf("expected error for unreadable file")
	}
}
