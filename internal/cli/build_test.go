package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsDockerfile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"Dockerfile", true},
		{"/some/dir/Dockerfile", true},
		{"Dockerfile.dev", true},
		{"forged.yaml", false},
		{"forged.yml", false},
		{"descriptor.json", false},
		{"MyDockerfile", false},
	}

	for _, c := range cases {
		if got := isDockerfile(c.path); got != c.want {
			t.Errorf("isDockerfile(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestLoadDescriptorProbesContext(t *testing.T) {
	dir := t.TempDir()

	descriptor := "from: python:3.9-slim\ncommand: [python, main.py]\n"
	if err := os.WriteFile(filepath.Join(dir, "forged.yaml"), []byte(descriptor), 0644); err != nil {
		t.Fatal(err)
	}

	img, err := loadDescriptor("", dir)
	if err != nil {
		t.Fatalf("loadDescriptor failed: %v", err)
	}
	if img.From != "python:3.9-slim" {
		t.Errorf("From = %q, want %q", img.From, "python:3.9-slim")
	}
}

func TestLoadDescriptorPrefersYAMLOverDockerfile(t *testing.T) {
	dir := t.TempDir()

	yaml := "from: alpine:3.20\ncommand: [sh, -c, \"true\"]\n"
	dockerfile := "FROM debian:12\nCMD [\"bash\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "forged.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(dockerfile), 0644); err != nil {
		t.Fatal(err)
	}

	img, err := loadDescriptor("", dir)
	if err != nil {
		t.Fatalf("loadDescriptor failed: %v", err)
	}
	if img.From != "alpine:3.20" {
		t.Errorf("From = %q, want the YAML descriptor to win", img.From)
	}
}

func TestLoadDescriptorMissing(t *testing.T) {
	if _, err := loadDescriptor("", t.TempDir()); err == nil {
		t.Fatal("expected an error for a context with no descriptor")
	}
}

func TestLoadDescriptorExplicitDockerfile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "Dockerfile")
	content := "FROM python:3.9-slim\nWORKDIR /app\nCOPY . .\nCMD [\"python\", \"main.py\"]\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	img, err := loadDescriptor(path, dir)
	if err != nil {
		t.Fatalf("loadDescriptor failed: %v", err)
	}
	if img.Workdir != "/app" {
		t.Errorf("Workdir = %q, want %q", img.Workdir, "/app")
	}
}
