package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	configPath string
	indexPath  string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("[paths]\nsession_dir = %q\nlog_dir = %q\n",
		filepath.Join(base, "sessions"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	indexPath := filepath.Join(base, "index.toml")
	index := `
[project]
name = "demo"
code = "dm"
[project.attrib]
fps = 24.0
frame_start = 1001

[[folders]]
path = "/shots/sh010"
folder_type = "Shot"
[folders.attrib]
fps = 24.0

[[folders.tasks]]
name = "comp"
task_type = "Compositing"
`
	if err := os.WriteFile(indexPath, []byte(index), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}

	return &cliTestEnv{configPath: configPath, indexPath: indexPath, baseDir: base}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--config", env.configPath, "--index", env.indexPath}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeManifest(t *testing.T, env *cliTestEnv) string {
	t.Helper()

	moviePath := filepath.Join(env.baseDir, "media", "sh010_plate.mov")
	if err := os.MkdirAll(filepath.Dir(moviePath), 0o755); err != nil {
		t.Fatalf("mkdir media: %v", err)
	}
	if err := os.WriteFile(moviePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write movie: %v", err)
	}

	header := "File Path,Folder Path,Task Name,Product Type,Variant,Version," +
		"Frame Start,Frame End,Handle Start,Handle End,FPS,Representation," +
		"Representation Colorspace,Representation Tags,Version Thumbnail," +
		"Version Comment,Slate Exists,Shot Width,Shot Height,Shot Pixel Aspect\n"
	row := moviePath + ",/shots/sh010,comp,plate,Main,3,1001,1048,0,0,24,main,,,,,,,,\n"

	manifestPath := filepath.Join(env.baseDir, "manifest.csv")
	if err := os.WriteFile(manifestPath, []byte(header+row), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return manifestPath
}

func TestCLIIngestCSVAndSessionCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	manifest := writeManifest(t, env)

	out, _, err := runCLI(t, env, "ingest", "csv", "--project", "demo", "--folder", "/shots/sh010", manifest)
	if err != nil {
		t.Fatalf("ingest csv: %v", err)
	}
	if !strings.Contains(out, "plateMain") || !strings.Contains(out, "Created session") {
		t.Fatalf("unexpected ingest output: %q", out)
	}

	out, _, err = runCLI(t, env, "session", "list")
	if err != nil {
		t.Fatalf("session list: %v", err)
	}
	if !strings.Contains(out, "csv") || !strings.Contains(out, "demo") {
		t.Fatalf("unexpected list output: %q", out)
	}

	out, _, err = runCLI(t, env, "session", "show", "1")
	if err != nil {
		t.Fatalf("session show: %v", err)
	}
	if !strings.Contains(out, "plateMain") || !strings.Contains(out, "1001-1048") {
		t.Fatalf("unexpected show output: %q", out)
	}

	out, _, err = runCLI(t, env, "session", "clear")
	if err != nil {
		t.Fatalf("session clear: %v", err)
	}
	if !strings.Contains(out, "Sessions cleared") {
		t.Fatalf("unexpected clear output: %q", out)
	}

	out, _, err = runCLI(t, env, "session", "list")
	if err != nil {
		t.Fatalf("session list after clear: %v", err)
	}
	if !strings.Contains(out, "No sessions recorded") {
		t.Fatalf("expected empty session list, got %q", out)
	}
}

func TestCLIIngestCSVMissingTaskExitsNonZero(t *testing.T) {
	env := setupCLITestEnv(t)
	manifest := writeManifest(t, env)

	raw, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatal(err)
	}
	broken := strings.Replace(string(raw), ",comp,", ",lighting,", 1)
	if err := os.WriteFile(manifest, []byte(broken), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err = runCLI(t, env, "ingest", "csv", "--project", "demo", "--folder", "/shots/sh010", manifest)
	if err == nil {
		t.Fatal("expected ingest to fail for unknown task")
	}
}

func TestCLIConfigInit(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "fresh", "config.toml")

	out, _, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, env, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestCLIConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate", "--path", env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "is valid") {
		t.Fatalf("unexpected validate output: %q", out)
	}
}
