package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// Writes a file for a test, creating parent directories as needed.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forged.yaml")
	writeFile(t, path, `
from: python:3.9-slim
install:
  packages: [flask]
command: [python, main.py]
`)

	img, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if img.From != "python:3.9-slim" {
		t.Errorf("From = %q, want python:3.9-slim", img.From)
	}
	if img.Workdir != DefaultWorkdir {
		t.Errorf("Workdir = %q, want %q", img.Workdir, DefaultWorkdir)
	}
	if img.Install.Manager != DefaultManager {
		t.Errorf("Install.Manager = %q, want %q", img.Install.Manager, DefaultManager)
	}
	if len(img.Copy) != 1 || img.Copy[0].Src != "." || img.Copy[0].Dest != "." {
		t.Errorf("Copy = %v, want the default copy-everything rule", img.Copy)
	}
	if len(img.Command) != 2 || img.Command[0] != "python" || img.Command[1] != "main.py" {
		t.Errorf("Command = %v, want [python main.py]", img.Command)
	}
}

func TestLoadExplicitFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forged.yaml")
	writeFile(t, path, `
from: python:3.9-slim
workdir: /srv
copy:
  - src: app
    dest: app
env:
  PORT: "8080"
install:
  manager: pip3
  packages: [flask, gunicorn]
run:
  - chmod +x app/main.py
command: [python, app/main.py]
`)

	img, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if img.Workdir != "/srv" {
		t.Errorf("Workdir = %q, want /srv", img.Workdir)
	}
	if img.Install.Manager != "pip3" {
		t.Errorf("Install.Manager = %q, want pip3", img.Install.Manager)
	}
	if len(img.Copy) != 1 || img.Copy[0].Src != "app" {
		t.Errorf("Copy = %v, want the declared rule only", img.Copy)
	}
	if img.Env["PORT"] != "8080" {
		t.Errorf("Env[PORT] = %q, want 8080", img.Env["PORT"])
	}
	if len(img.Run) != 1 {
		t.Errorf("Run = %v, want one command", img.Run)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrRead) {
		t.Fatalf("err = %v, want ErrRead", err)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forged.yaml")
	writeFile(t, path, "from: [unclosed")

	_, err := Load(path)
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("err = %v, want ErrSyntax", err)
	}
}

func TestInstallCommand(t *testing.T) {
	tests := []struct {
		name    string
		install Install
		want    string
	}{
		{
			name:    "default manager",
			install: Install{Packages: []string{"flask"}},
			want:    "pip install flask",
		},
		{
			name:    "explicit manager",
			install: Install{Manager: "pip3", Packages: []string{"flask", "gunicorn"}},
			want:    "pip3 install flask gunicorn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.install.Command(); got != tt.want {
				t.Errorf("Command() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnviron(t *testing.T) {
	img := Image{Env: map[string]string{"B": "2", "A": "1"}}
	env := img.Environ()
	if len(env) != 2 || env[0] != "A=1" || env[1] != "B=2" {
		t.Fatalf("Environ() = %v, want sorted [A=1 B=2]", env)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.py"), "print('ok')\n")

	img := &Image{
		From:    "python:3.9-slim",
		Command: []string{"python", "main.py"},
	}
	img.applyDefaults()

	if err := img.Validate(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateMissingEntryFile(t *testing.T) {
	dir := t.TempDir()

	img := &Image{
		From:    "python:3.9-slim",
		Command: []string{"python", "main.py"},
	}
	img.applyDefaults()

	err := img.Validate(dir)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestValidateErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.py"), "")

	tests := []struct {
		name string
		img  Image
	}{
		{
			name: "unparseable base reference",
			img: Image{
				From:    "python:3.9-slim:extra",
				Command: []string{"python", "main.py"},
			},
		},
		{
			name: "no entry point",
			img: Image{
				From: "python:3.9-slim",
			},
		},
		{
			name: "absolute copy source",
			img: Image{
				From:    "python:3.9-slim",
				Copy:    []CopyRule{{Src: "/etc/passwd", Dest: "."}},
				Command: []string{"python", "main.py"},
			},
		},
		{
			name: "copy source escapes context",
			img: Image{
				From:    "python:3.9-slim",
				Copy:    []CopyRule{{Src: "../outside", Dest: "."}},
				Command: []string{"python", "main.py"},
			},
		},
		{
			name: "missing copy source",
			img: Image{
				From:    "python:3.9-slim",
				Copy:    []CopyRule{{Src: "absent", Dest: "."}},
				Command: []string{"python", "main.py"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.img.applyDefaults()
			if err := tt.img.Validate(dir); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestValidateBareBinaryEntry(t *testing.T) {
	// Entry points that do not name a script belong to the base image and
	// are not checked against the context.
	img := &Image{
		From:    "nginx:1.25",
		Command: []string{"nginx", "-g", "daemon off;"},
	}
	img.applyDefaults()

	if err := img.Validate(t.TempDir()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEntryScript(t *testing.T) {
	tests := []struct {
		name    string
		command []string
		want    string
	}{
		{
			name:    "interpreter and script",
			command: []string{"python", "main.py"},
			want:    "main.py",
		},
		{
			name:    "interpreter with flags",
			command: []string{"python", "-u", "main.py"},
			want:    "main.py",
		},
		{
			name:    "absolute interpreter path",
			command: []string{"/usr/bin/python3", "main.py"},
			want:    "main.py",
		},
		{
			name:    "bare binary",
			command: []string{"nginx"},
			want:    "",
		},
		{
			name:    "non-interpreter command",
			command: []string{"gunicorn", "app:app"},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := Image{Command: tt.command}
			if got := img.entryScript(); got != tt.want {
				t.Errorf("entryScript() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveInContext(t *testing.T) {
	tests := []struct {
		name string
		img  Image
		path string
		src  string
		ok   bool
	}{
		{
			name: "default rule maps directly",
			img:  Image{Workdir: "/app", Copy: []CopyRule{{Src: ".", Dest: "."}}},
			path: "main.py",
			src:  "main.py",
			ok:   true,
		},
		{
			name: "absolute path under workdir",
			img:  Image{Workdir: "/app", Copy: []CopyRule{{Src: ".", Dest: "."}}},
			path: "/app/main.py",
			src:  "main.py",
			ok:   true,
		},
		{
			name: "subdirectory rule",
			img:  Image{Workdir: "/app", Copy: []CopyRule{{Src: "src", Dest: "code"}}},
			path: "code/main.py",
			src:  filepath.Join("src", "main.py"),
			ok:   true,
		},
		{
			name: "exact destination match",
			img:  Image{Workdir: "/app", Copy: []CopyRule{{Src: "entry.py", Dest: "main.py"}}},
			path: "main.py",
			src:  "entry.py",
			ok:   true,
		},
		{
			name: "uncovered path",
			img:  Image{Workdir: "/app", Copy: []CopyRule{{Src: "src", Dest: "code"}}},
			path: "other/main.py",
			ok:   false,
		},
		{
			name: "absolute path outside workdir",
			img:  Image{Workdir: "/app", Copy: []CopyRule{{Src: ".", Dest: "."}}},
			path: "/usr/bin/python",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, ok := tt.img.resolveInContext(tt.path)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && src != tt.src {
				t.Errorf("src = %q, want %q", src, tt.src)
			}
		})
	}
}
