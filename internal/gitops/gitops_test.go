package gitops

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GIT_REPO_URL", "")
	cfg, err := LoadConfigFromEnv()
	if err != nil || cfg != nil {
		t.Fatalf("expected gitops disabled, got %+v, %v", cfg, err)
	}

	t.Setenv("GIT_REPO_URL", "git@git.local:platform/argocd.git")
	t.Setenv("GIT_BASE_BRANCH", "")
	cfg, err = LoadConfigFromEnv()
	if err != nil || cfg == nil {
		t.Fatalf("LoadConfigFromEnv() = %+v, %v", cfg, err)
	}
	if cfg.BaseBranch != "main" || cfg.BranchPrefix != "hive-ingestion-" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestResolvePath(t *testing.T) {
	execDir := filepath.FromSlash("/opt/ingestion")
	abs := filepath.FromSlash("/srv/argocd")

	tests := []struct {
		local string
		want  string
	}{
		{"", filepath.Join(execDir, "argocd-repo")},
		{"repos/argocd", filepath.Join(execDir, "repos/argocd")},
		{abs, abs},
	}
	for _, tt := range tests {
		c := &Config{LocalPath: tt.local}
		if got := c.ResolvePath(execDir); got != tt.want {
			t.Errorf("ResolvePath(%q) = %s, want %s", tt.local, got, tt.want)
		}
	}
}

func TestBranchName(t *testing.T) {
	c := &Config{BranchPrefix: "hive-ingestion-"}
	now := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	if got := c.BranchName("census county", now); got != "hive-ingestion-census-county" {
		t.Errorf("BranchName() = %s", got)
	}
	if got := c.BranchName(" ", now); got != "hive-ingestion-20240309-140500" {
		t.Errorf("BranchName() = %s", got)
	}
}
