package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hive-ingestion/internal/gitops"
	"hive-ingestion/internal/history"
	"hive-ingestion/internal/model"
)

func setPipelineEnv(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"HDFS_URL":        "http://namenode:9870",
		"HDFS_USER":       "hdfs",
		"DATA_URL":        "https://files.local/co-est2023.csv",
		"HDFS_PATH":       "/data/co-est2023.csv",
		"HIVE_TABLE_NAME": "county_estimates",
		"HIVE_DATABASE":   "census",
		"HIVE_HOST":       "hiveserver",
		"HIVE_PORT":       "10000",
		"HIVE_USER":       "hive",
	} {
		t.Setenv(k, v)
	}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"ingestion-cli"}, args...))
	return out.String(), err
}

func TestDDLCommand(t *testing.T) {
	setPipelineEnv(t)

	out, err := runApp(t, "ddl")
	if err != nil {
		t.Fatalf("ddl failed: %v", err)
	}
	if !strings.HasPrefix(out, "CREATE DATABASE IF NOT EXISTS census;\n\nCREATE TABLE IF NOT EXISTS census.county_estimates (") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.HasSuffix(out, "STORED AS TEXTFILE;\n") {
		t.Errorf("unexpected ending:\n%s", out)
	}

	path := filepath.Join(t.TempDir(), "ddl.sql")
	if _, err := runApp(t, "ddl", "--out", path); err != nil {
		t.Fatalf("ddl --out failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != out {
		t.Errorf("file content differs from stdout output: %v", err)
	}
}

func TestDDLCommandInvalidConfig(t *testing.T) {
	setPipelineEnv(t)
	t.Setenv("HIVE_PORT", "not-a-port")
	t.Setenv("HIVE_DATABASE", "")

	_, err := runApp(t, "ddl")
	if err == nil {
		t.Fatal("expected configuration error")
	}
	for _, want := range []string{"HIVE_PORT", "HIVE_DATABASE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in %v", want, err)
		}
	}
}

func TestEnvFileFlag(t *testing.T) {
	setPipelineEnv(t)
	t.Setenv("HIVE_TABLE_NAME", "")

	envFile := filepath.Join(t.TempDir(), "pipeline.env")
	if err := os.WriteFile(envFile, []byte("HIVE_TABLE_NAME=from_file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("HIVE_TABLE_NAME")

	out, err := runApp(t, "--env-file", envFile, "ddl")
	if err != nil {
		t.Fatalf("ddl failed: %v", err)
	}
	if !strings.Contains(out, "census.from_file") {
		t.Errorf("env file not applied:\n%s", out)
	}

	if _, err := runApp(t, "--env-file", filepath.Join(t.TempDir(), "missing.env"), "ddl"); err == nil {
		t.Error("expected error for missing env file")
	}
}

func TestHistoryCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(db)
	if err != nil {
		t.Fatal(err)
	}
	started := time.Now().Add(-time.Hour)
	report := &model.RunReport{
		RunID:            "run-1",
		StartedAt:        started,
		FinishedAt:       started.Add(time.Second),
		BytesTransferred: 2048,
		Results: []model.StageResult{
			{Stage: model.StageTransfer, Status: model.StatusOK},
			{Stage: model.StageLoad, Status: model.StatusFailed, Err: os.ErrPermission},
		},
	}
	if err := store.RecordRun(report, history.Target{Table: "census.est"}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	out, err := runApp(t, "--history-db", db, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "run-1") || !strings.Contains(out, "census.est") || !strings.Contains(out, "failed") {
		t.Errorf("unexpected listing:\n%s", out)
	}

	out, err = runApp(t, "--history-db", db, "history", "--run", "run-1")
	if err != nil {
		t.Fatalf("history --run failed: %v", err)
	}
	if !strings.Contains(out, "permission denied") || !strings.Contains(out, "2.0 kB") {
		t.Errorf("unexpected details:\n%s", out)
	}

	if _, err := runApp(t, "--history-db", db, "history", "--run", "nope"); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestGitopsEnabled(t *testing.T) {
	cfg := &gitops.Config{RepoURL: "git@git.local:platform/argocd.git"}

	tests := []struct {
		flag    string
		cfg     *gitops.Config
		want    bool
		wantErr bool
	}{
		{"", nil, false, false},
		{"", cfg, true, false},
		{"false", cfg, false, false},
		{"yes", cfg, true, false},
		{"true", nil, false, true},
	}
	for _, tt := range tests {
		t.Setenv("INGESTION_GITOPS_ENABLED", tt.flag)
		got, err := gitopsEnabled(tt.cfg)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("gitopsEnabled(flag=%q, cfg=%v) = %v, %v", tt.flag, tt.cfg != nil, got, err)
		}
	}
}

func TestResolveBaseDir(t *testing.T) {
	anchor := filepath.FromSlash("/srv/repo")
	abs := filepath.FromSlash("/tmp/out")

	if got := resolveBaseDir("apps", anchor); got != filepath.Join(anchor, "apps") {
		t.Errorf("relative: %s", got)
	}
	if got := resolveBaseDir(abs, anchor); got != abs {
		t.Errorf("absolute: %s", got)
	}
}
