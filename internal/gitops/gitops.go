// Package gitops publishes generated manifests to an Argo CD repository by
// shelling out to git.
package gitops

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"hive-ingestion/internal/config"
)

type Config struct {
	RepoURL      string
	BaseBranch   string
	BranchPrefix string
	LocalPath    string
	UserName     string
	UserEmail    string
}

// LoadConfigFromEnv returns (nil, nil) when GIT_REPO_URL is not set, which
// disables GitOps.
func LoadConfigFromEnv() (*Config, error) {
	repo := config.GetEnvOrDefault("GIT_REPO_URL", "")
	if repo == "" {
		return nil, nil
	}

	return &Config{
		RepoURL:      repo,
		BaseBranch:   config.GetEnvOrDefault("GIT_BASE_BRANCH", "main"),
		BranchPrefix: config.GetEnvOrDefault("GIT_TARGET_BRANCH_PREFIX", "hive-ingestion-"),
		LocalPath:    config.GetEnvOrDefault("GIT_LOCAL_PATH", ""),
		UserName:     config.GetEnvOrDefault("GIT_USER_NAME", ""),
		UserEmail:    config.GetEnvOrDefault("GIT_USER_EMAIL", ""),
	}, nil
}

// ResolvePath returns the checkout directory; relative paths are anchored
// at execDir.
func (c *Config) ResolvePath(execDir string) string {
	p := strings.TrimSpace(c.LocalPath)
	switch {
	case p == "":
		return filepath.Join(execDir, "argocd-repo")
	case filepath.IsAbs(p):
		return p
	default:
		return filepath.Join(execDir, p)
	}
}

// BranchName joins the prefix and suffix; an empty suffix becomes a timestamp.
func (c *Config) BranchName(suffix string, now time.Time) string {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		suffix = now.Format("20060102-150405")
	}
	return c.BranchPrefix + strings.ReplaceAll(suffix, " ", "-")
}

// PrepareRepo clones or fast-forwards the checkout and switches to a work
// branch cut from BaseBranch. Returns the checkout path and branch name.
func PrepareRepo(cfg *Config, execDir, branchSuffix string) (string, string, error) {
	if cfg == nil {
		return "", "", fmt.Errorf("gitops config is nil")
	}
	localPath := cfg.ResolvePath(execDir)

	gitDir := filepath.Join(localPath, ".git")
	if _, err := os.Stat(gitDir); os.IsNotExist(err) {
		if err := cloneRepo(cfg, localPath); err != nil {
			return "", "", fmt.Errorf("cloning repository: %w", err)
		}
	} else if err == nil {
		for _, args := range [][]string{
			{"fetch", "--all"},
			{"checkout", cfg.BaseBranch},
			{"pull", "--ff-only"},
		} {
			if err := runGit(localPath, args...); err != nil {
				return "", "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
			}
		}
	} else {
		return "", "", fmt.Errorf("checking .git in %s: %w", localPath, err)
	}

	if cfg.UserName != "" {
		_ = runGit(localPath, "config", "user.name", cfg.UserName)
	}
	if cfg.UserEmail != "" {
		_ = runGit(localPath, "config", "user.email", cfg.UserEmail)
	}

	branch := cfg.BranchName(branchSuffix, time.Now())
	if err := runGit(localPath, "checkout", cfg.BaseBranch); err != nil {
		return "", "", fmt.Errorf("git checkout %s: %w", cfg.BaseBranch, err)
	}
	if err := runGit(localPath, "checkout", "-B", branch); err != nil {
		return "", "", fmt.Errorf("git checkout -B %s: %w", branch, err)
	}

	return localPath, branch, nil
}

// CommitAndPush stages everything, commits and pushes the branch. Nothing
// happens when the tree is clean.
func CommitAndPush(localPath, branch, message string) error {
	changed, err := HasPendingChanges(localPath)
	if err != nil {
		return fmt.Errorf("checking git status: %w", err)
	}
	if !changed {
		log.Printf("[gitops] nothing changed in %s, no commit", localPath)
		return nil
	}

	if err := runGit(localPath, "add", "."); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	if err := runGit(localPath, "commit", "-m", message); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	if err := runGit(localPath, "push", "-u", "origin", branch); err != nil {
		return fmt.Errorf("git push: %w", err)
	}
	return nil
}

func cloneRepo(cfg *Config, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}

	// never clone over something unexpected
	if entries, err := os.ReadDir(localPath); err == nil && len(entries) > 0 {
		return fmt.Errorf("%s exists and is not empty", localPath)
	}

	cmd := exec.Command("git", "clone", "--branch", cfg.BaseBranch, cfg.RepoURL, localPath)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func runGit(localPath string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = localPath
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// HasPendingChanges reports whether the checkout has uncommitted changes.
func HasPendingChanges(localPath string) (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = localPath

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return false, err
	}
	return strings.TrimSpace(out.String()) != "", nil
}
