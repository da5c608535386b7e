package secrets

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/keys/gemini", []byte("  file-key \n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if err := afero.WriteFile(fs, "/keys/empty", []byte("\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	t.Setenv("CATALOG_TEST_KEY", " env-key ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{name: "file wins", src: Source{Name: "api key", Value: "inline", File: "/keys/gemini"}, want: "file-key"},
		{name: "inline value", src: Source{Value: " inline ", Env: "CATALOG_TEST_KEY"}, want: "inline"},
		{name: "environment fallback", src: Source{Env: "CATALOG_TEST_KEY"}, want: "env-key"},
		{name: "missing file", src: Source{Name: "api key", File: "/keys/missing"}, wantErr: `reading api key from file "/keys/missing"`},
		{name: "empty file", src: Source{File: "/keys/empty"}, wantErr: `secret file "/keys/empty" is empty`},
		{name: "nothing configured", src: Source{Name: "api key", Env: "CATALOG_TEST_UNSET"}, wantErr: "api key is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(fs, tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
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
