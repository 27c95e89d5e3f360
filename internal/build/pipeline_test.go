package build

import (
	"strings"
	"testing"

	"github.com/forgehq/forged/internal/manifest"
)

// Builds a pipeline around a specification without a runtime; only the
// step plan is inspected.
func planFor(t *testing.T, img *manifest.Image) []string {
	t.Helper()
	p := newPipeline(nil, Options{Image: img, Tag: "app:latest", Context: "."})
	steps := p.steps()
	descs := make([]string, len(steps))
	for i, st := range steps {
		descs[i] = st.desc
	}
	return descs
}

func TestStepsOrder(t *testing.T) {
	img := &manifest.Image{
		From:    "python:3.9-slim",
		Workdir: "/app",
		Copy:    []manifest.CopyRule{{Src: ".", Dest: "."}},
		Install: manifest.Install{Manager: "pip", Packages: []string{"flask"}},
		Run:     []string{"chmod +x main.py"},
		Command: []string{"python", "main.py"},
	}

	want := []string{
		"workdir /app",
		"copy . .",
		"run pip install flask",
		"run chmod +x main.py",
	}

	got := planFor(t, img)
	if len(got) != len(want) {
		t.Fatalf("steps = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("steps[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStepsNoInstall(t *testing.T) {
	img := &manifest.Image{
		From:    "python:3.9-slim",
		Workdir: "/app",
		Copy:    []manifest.CopyRule{{Src: ".", Dest: "."}},
		Command: []string{"python", "main.py"},
	}

	for _, desc := range planFor(t, img) {
		if strings.Contains(desc, "install") {
			t.Fatalf("unexpected install step: %q", desc)
		}
	}
}

func TestStepsMultipleCopyRulesKeepOrder(t *testing.T) {
	img := &manifest.Image{
		From:    "python:3.9-slim",
		Workdir: "/app",
		Copy: []manifest.CopyRule{
			{Src: "requirements.txt", Dest: "."},
			{Src: "src", Dest: "src/"},
		},
		Command: []string{"python", "src/main.py"},
	}

	got := planFor(t, img)
	if got[1] != "copy requirements.txt ." || got[2] != "copy src src/" {
		t.Fatalf("copy steps out of order: %v", got)
	}
}

func TestContainerID(t *testing.T) {
	p := newPipeline(nil, Options{Tag: "forgehq/app:latest"})
	id := p.containerID()
	if id != "forged-build-forgehq-app-latest" {
		t.Errorf("containerID = %q, want forged-build-forgehq-app-latest", id)
	}

	if p.containerID() != id {
		t.Error("containerID is not deterministic")
	}
}

func TestTagSlug(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"app:latest", "app-latest"},
		{"forgehq/app:1.0", "forgehq-app-1.0"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := TagSlug(tt.tag); got != tt.want {
			t.Errorf("TagSlug(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}
