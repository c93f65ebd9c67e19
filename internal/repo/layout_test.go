package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLayoutPaths(t *testing.T) {
	local := NewLayout("out", "development", false)
	if got := local.JobDir("Census"); got != filepath.Join("out", "jobs", "development", "census") {
		t.Errorf("local JobDir = %s", got)
	}

	argo := NewLayout("apps", "production", true)
	if got := argo.JobDir("census"); got != filepath.Join("apps", "jobs", "hive_envs", "production", "census") {
		t.Errorf("argo JobDir = %s", got)
	}
}

func TestEnsureJobRoot(t *testing.T) {
	dir := t.TempDir()

	local := NewLayout(dir, "development", false)
	if err := local.EnsureJobRoot(); err != nil {
		t.Fatalf("local EnsureJobRoot() failed: %v", err)
	}
	if fi, err := os.Stat(local.JobRoot()); err != nil || !fi.IsDir() {
		t.Errorf("job root not created: %v", err)
	}

	argo := NewLayout(dir, "production", true)
	if err := argo.EnsureJobRoot(); err == nil {
		t.Error("expected error for missing root in GitOps layout")
	}
	if err := os.MkdirAll(argo.JobRoot(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := argo.EnsureJobRoot(); err != nil {
		t.Errorf("existing root rejected: %v", err)
	}
}
