package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Layout knows where job manifests live, either inside an Argo CD
// repository checkout or under a local output folder.
type Layout struct {
	BaseDir   string // apps/ in a GitOps checkout, out/ locally
	Env       string // production | homolog | development
	ArgoStyle bool
}

func NewLayout(baseDir, env string, argoStyle bool) Layout {
	return Layout{BaseDir: baseDir, Env: env, ArgoStyle: argoStyle}
}

// JobRoot:
//
//   - GitOps: apps/jobs/hive_envs/<env>
//   - Local:  out/jobs/<env>
func (l Layout) JobRoot() string {
	if l.ArgoStyle {
		return filepath.Join(l.BaseDir, "jobs", "hive_envs", l.Env)
	}
	return filepath.Join(l.BaseDir, "jobs", l.Env)
}

// JobDir is the per-database folder below JobRoot.
func (l Layout) JobDir(database string) string {
	return filepath.Join(l.JobRoot(), strings.ToLower(database))
}

// EnsureJobRoot checks the root exists in a GitOps checkout and creates it
// locally. A missing root in a checkout usually means the wrong repository.
func (l Layout) EnsureJobRoot() error {
	root := l.JobRoot()
	if l.ArgoStyle {
		fi, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("invalid layout: job root %s not found: %w", root, err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("invalid layout: %s exists but is not a directory", root)
		}
		return nil
	}
	return os.MkdirAll(root, 0o755)
}
