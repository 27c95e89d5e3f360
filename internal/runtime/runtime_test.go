package runtime

import (
	"strings"
	"testing"
)

func TestNormalizeRef(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{
			name: "bare official image",
			ref:  "python:3.9-slim",
			want: "docker.io/library/python:3.9-slim",
		},
		{
			name: "missing tag gains latest",
			ref:  "python",
			want: "docker.io/library/python:latest",
		},
		{
			name: "namespaced image",
			ref:  "forgehq/app:1.0",
			want: "docker.io/forgehq/app:1.0",
		},
		{
			name: "fully qualified unchanged",
			ref:  "ghcr.io/forgehq/app:1.0",
			want: "ghcr.io/forgehq/app:1.0",
		},
		{
			name:    "invalid reference",
			ref:     "python:3.9:slim",
			wantErr: true,
		},
		{
			name:    "empty reference",
			ref:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeRef(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("normalizeRef(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestHostPlatform(t *testing.T) {
	p := hostPlatform()
	if !strings.HasPrefix(p, "linux/") {
		t.Fatalf("hostPlatform = %q, want linux/<arch>", p)
	}
	parts := strings.Split(p, "/")
	if len(parts) != 2 || parts[1] == "" {
		t.Fatalf("hostPlatform = %q, want linux/<arch>", p)
	}
}
