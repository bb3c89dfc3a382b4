package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/manifest"
	"github.com/jamesainslie/tidy/pkg/tidy/oplog"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
	"github.com/spf13/viper"
)

func TestResolveDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	inbox := filepath.Join(home, "Inbox")
	if err := os.Mkdir(inbox, 0o755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(home, "file.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{DefaultDirectory: "~/Inbox"}

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{name: "configured default", want: inbox},
		{name: "argument wins", args: []string{home}, want: home},
		{name: "tilde argument", args: []string{"~/Inbox"}, want: inbox},
		{name: "missing", args: []string{filepath.Join(home, "nope")}, wantErr: "does not exist"},
		{name: "file", args: []string{file}, wantErr: "not a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveDirectory(tt.args, cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("resolveDirectory() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveDirectory() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveDirectory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveDirectory_Relative(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	got, err := resolveDirectory([]string{"."}, &config.Config{})
	if err != nil {
		t.Fatalf("resolveDirectory() error = %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("resolveDirectory() = %q, want an absolute path", got)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yep\n", false},
	}

	for _, tt := range tests {
		var out strings.Builder
		got := confirm(strings.NewReader(tt.input), &out, "Organize?")
		if got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if out.String() != "Organize? [y/N] " {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestReport_Canceled(t *testing.T) {
	err := report(nil, organizer.ErrCanceled, "plain")

	var exit *exitError
	if !errors.As(err, &exit) {
		t.Fatalf("report() error = %v, want *exitError", err)
	}
	if exit.code != exitCanceled {
		t.Errorf("exit code = %d, want %d", exit.code, exitCanceled)
	}
}

func TestReport_Failure(t *testing.T) {
	boom := errors.New("boom")
	if err := report(nil, boom, "plain"); !errors.Is(err, boom) {
		t.Errorf("report() error = %v, want %v", err, boom)
	}
}

func TestReport_UnknownFormat(t *testing.T) {
	if err := report(&types.OrganizationResult{}, nil, "xml"); err == nil {
		t.Error("report() error = nil, want unknown format error")
	}
}

func pipelineConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Categories: []types.Category{{Name: "pdf", Extensions: []string{"pdf"}}},
		Hash:       config.HashConfig{Algorithm: "md5"},
		Journal:    config.JournalConfig{Enabled: true, Path: t.TempDir()},
		Manifest:   config.ManifestConfig{Enabled: true, Path: t.TempDir()},
	}
}

func TestRunPipeline_RecordsRun(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"report.pdf":    "report",
		"report(1).pdf": "report",
		"notes":         "no extension",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := pipelineConfig(t)

	var progress []int
	res, err := runPipeline(context.Background(), cfg, dir, func(p types.Progress) {
		progress = append(progress, p.Percent)
	})
	if err != nil {
		t.Fatalf("runPipeline() error = %v", err)
	}

	if res.DuplicatesRemoved != 1 {
		t.Errorf("DuplicatesRemoved = %d, want 1", res.DuplicatesRemoved)
	}
	if _, err := os.Stat(filepath.Join(dir, "pdf", "report.pdf")); err != nil {
		t.Errorf("report.pdf was not moved: %v", err)
	}
	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Errorf("progress = %v, want it to end at 100", progress)
	}

	journals, err := os.ReadDir(cfg.Journal.Path)
	if err != nil {
		t.Fatal(err)
	}
	files := 0
	for _, e := range journals {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
			files++
		}
	}
	if files != 1 {
		t.Errorf("journal files = %d, want 1", files)
	}

	m, err := manifest.New(cfg.Manifest.Path)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := m.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Directory != dir {
		t.Errorf("entry.Directory = %q, want %q", entry.Directory, dir)
	}
	deletes := 0
	for _, op := range entry.Operations {
		if op.Kind == oplog.KindDelete {
			deletes++
		}
	}
	if deletes != 1 {
		t.Errorf("recorded deletes = %d, want 1", deletes)
	}
}

func TestRunPipeline_SinksDisabled(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := pipelineConfig(t)
	cfg.Journal.Enabled = false
	cfg.Manifest.Enabled = false

	if _, err := runPipeline(context.Background(), cfg, dir, nil); err != nil {
		t.Fatalf("runPipeline() error = %v", err)
	}

	for _, p := range []string{cfg.Journal.Path, cfg.Manifest.Path} {
		entries, err := os.ReadDir(p)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("%s has %d entries, want none", p, len(entries))
		}
	}
}

func TestRunPipeline_Canceled(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := pipelineConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runPipeline(ctx, cfg, dir, nil)
	if !errors.Is(err, organizer.ErrCanceled) {
		t.Fatalf("runPipeline() error = %v, want ErrCanceled", err)
	}

	m, err := manifest.New(cfg.Manifest.Path)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := m.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("canceled run recorded %d history entries, want 0", len(entries))
	}
}

func TestFormatterFor_Template(t *testing.T) {
	viper.Set("template", "{{.FilesMoved}} moved")
	t.Cleanup(func() { viper.Set("template", "") })

	if got := outputFormat(); got != "template" {
		t.Errorf("outputFormat() = %q, want template", got)
	}

	f, err := formatterFor("template")
	if err != nil {
		t.Fatalf("formatterFor() error = %v", err)
	}
	var buf bytes.Buffer
	if err := f.Format(&buf, &types.OrganizationResult{FilesMoved: 4}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "4 moved" {
		t.Errorf("rendered %q, want %q", buf.String(), "4 moved")
	}

	viper.Set("template", "{{.Broken")
	if _, err := formatterFor("template"); err == nil {
		t.Error("formatterFor() error = nil, want template parse error")
	}
}
