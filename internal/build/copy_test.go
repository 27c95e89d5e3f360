package build

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/forgehq/forged/internal/manifest"
)

func TestResolveCopy(t *testing.T) {
	tests := []struct {
		name     string
		rule     manifest.CopyRule
		workdir  string
		srcIsDir bool
		destDir  string
		fileName string
		wantErr  bool
	}{
		{
			name:     "context into workdir",
			rule:     manifest.CopyRule{Src: ".", Dest: "."},
			workdir:  "/app",
			srcIsDir: true,
			destDir:  "/app",
		},
		{
			name:     "file keeps name in directory dest",
			rule:     manifest.CopyRule{Src: "main.py", Dest: "."},
			workdir:  "/app",
			destDir:  "/app",
			fileName: "main.py",
		},
		{
			name:     "file renamed by dest",
			rule:     manifest.CopyRule{Src: "entry.py", Dest: "main.py"},
			workdir:  "/app",
			destDir:  "/app",
			fileName: "main.py",
		},
		{
			name:     "absolute file dest",
			rule:     manifest.CopyRule{Src: "app.conf", Dest: "/etc/app.conf"},
			workdir:  "/app",
			destDir:  "/etc",
			fileName: "app.conf",
		},
		{
			name:     "directory into subdirectory",
			rule:     manifest.CopyRule{Src: "src", Dest: "code/"},
			workdir:  "/app",
			srcIsDir: true,
			destDir:  "/app/code",
		},
		{
			name:    "empty destination",
			rule:    manifest.CopyRule{Src: "main.py", Dest: ""},
			workdir: "/app",
			wantErr: true,
		},
		{
			name:    "relative dest without workdir",
			rule:    manifest.CopyRule{Src: "main.py", Dest: "out"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			destDir, name, err := resolveCopy(tt.rule, tt.workdir, tt.srcIsDir)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if destDir != tt.destDir {
				t.Errorf("destDir = %q, want %q", destDir, tt.destDir)
			}
			if !tt.srcIsDir && name != tt.fileName {
				t.Errorf("name = %q, want %q", name, tt.fileName)
			}
		})
	}
}

func TestWriteDirToTar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.py"), "print('ok')\n")
	writeFile(t, filepath.Join(dir, "pkg", "util.py"), "x = 1\n")

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := writeDirToTar(tw, dir); err != nil {
		t.Fatalf("writeDirToTar: %v", err)
	}
	tw.Close()

	entries := readTar(t, &buf)
	if entries["main.py"] != "print('ok')\n" {
		t.Errorf("main.py content = %q", entries["main.py"])
	}
	if entries["pkg/util.py"] != "x = 1\n" {
		t.Errorf("pkg/util.py content = %q", entries["pkg/util.py"])
	}
	if _, ok := entries["."]; ok {
		t.Error("archive contains the root directory entry")
	}
}

func TestWriteFileToTar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "entry.py"), "print('ok')\n")

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := writeFileToTar(tw, filepath.Join(dir, "entry.py"), "main.py"); err != nil {
		t.Fatalf("writeFileToTar: %v", err)
	}
	tw.Close()

	entries := readTar(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries["main.py"] != "print('ok')\n" {
		t.Errorf("main.py content = %q, want the source file's", entries["main.py"])
	}
}

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

// Reads a tar stream into a map of entry name to content. Directory
// entries map to the empty string.
func readTar(t *testing.T, r io.Reader) map[string]string {
	t.Helper()
	entries := make(map[string]string)

	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar read: %v", err)
		}

		var content []byte
		if header.Typeflag == tar.TypeReg {
			content, err = io.ReadAll(tr)
			if err != nil {
				t.Fatalf("tar entry read: %v", err)
			}
		}
		entries[header.Name] = string(content)
	}

	return entries
}
