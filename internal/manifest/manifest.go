// Package manifest renders the Kubernetes Job or CronJob that runs the
// ingestion CLI, together with the ConfigMap carrying its environment.
package manifest

import (
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
	"k8s.io/apimachinery/pkg/util/validation"

	"hive-ingestion/internal/config"
	"hive-ingestion/internal/generator"
	"hive-ingestion/internal/kustomize"
	"hive-ingestion/internal/model"
	"hive-ingestion/internal/repo"
	"hive-ingestion/internal/templates"
)

// CronJob names get an 11 character suffix on every spawned Job.
const maxCronJobNameLen = 52

type Options struct {
	Image      string
	Schedule   string // empty renders a one-shot Job
	SecretName string // holds HIVE_PASSWORD; optional
	Namespace  string
	Args       []string
}

var DefaultArgs = []string{"run", "--strict"}

var nonNameChars = regexp.MustCompile(`[^a-z0-9-]+`)

func slug(s string) string {
	s = nonNameChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// Build assembles the template input for cfg's target table.
func Build(cfg *config.Config, opts Options) (model.JobManifestConfig, error) {
	var problems []string

	if strings.TrimSpace(opts.Image) == "" {
		problems = append(problems, "image is required")
	}
	if opts.Schedule != "" {
		if _, err := cron.ParseStandard(opts.Schedule); err != nil {
			problems = append(problems, fmt.Sprintf("schedule %q: %v", opts.Schedule, err))
		}
	}

	jobName := fmt.Sprintf("hive-ingestion-%s-%s", slug(cfg.Database), slug(cfg.Table))
	if opts.Schedule != "" {
		jobName += "-cron"
	}
	for _, msg := range validation.IsDNS1123Subdomain(jobName) {
		problems = append(problems, fmt.Sprintf("job name %q: %s", jobName, msg))
	}
	if opts.Schedule != "" && len(jobName) > maxCronJobNameLen {
		problems = append(problems, fmt.Sprintf("cronjob name %q is longer than %d characters", jobName, maxCronJobNameLen))
	}
	if opts.SecretName != "" {
		for _, msg := range validation.IsDNS1123Subdomain(opts.SecretName) {
			problems = append(problems, fmt.Sprintf("secret name %q: %s", opts.SecretName, msg))
		}
	}
	if opts.Namespace != "" {
		for _, msg := range validation.IsDNS1123Label(opts.Namespace) {
			problems = append(problems, fmt.Sprintf("namespace %q: %s", opts.Namespace, msg))
		}
	}

	if len(problems) > 0 {
		return model.JobManifestConfig{}, fmt.Errorf("invalid manifest options:\n- %s", strings.Join(problems, "\n- "))
	}

	args := opts.Args
	if len(args) == 0 {
		args = DefaultArgs
	}

	job := model.JobManifestConfig{
		JobName:       jobName,
		Image:         opts.Image,
		Schedule:      opts.Schedule,
		Args:          args,
		ConfigMapName: jobName + "-env",
		SecretName:    opts.SecretName,
		Env:           cfg.Env(),
	}
	if cfg.HivePassword != "" && opts.SecretName == "" {
		log.Printf("[manifest] HIVE_PASSWORD is set but no secret was given; the job will run without it")
	}
	if cfg.SchemaFile != "" {
		log.Printf("[manifest] TABLE_SCHEMA_FILE=%s must be mounted into the pod", cfg.SchemaFile)
	}

	podSpec, err := generator.Render(templates.PodSpecTemplate, job)
	if err != nil {
		return model.JobManifestConfig{}, err
	}
	job.PodSpec = podSpec
	return job, nil
}

// Write renders job into the layout's folder for database and registers the
// file in that folder's kustomization.yaml. With dryRun nothing is written.
func Write(layout repo.Layout, job model.JobManifestConfig, database, namespace string, dryRun bool) (string, error) {
	dir := layout.JobDir(database)
	fileName := job.JobName + ".yaml"
	path := filepath.Join(dir, fileName)

	tmpl := templates.JobTemplate
	if job.Schedule != "" {
		tmpl = templates.CronJobTemplate
	}

	if dryRun {
		out, err := generator.Render(tmpl, job)
		if err != nil {
			return "", err
		}
		log.Printf("[manifest] DRY-RUN: %s not written (%d bytes)", path, len(out))
		return path, nil
	}

	if err := layout.EnsureJobRoot(); err != nil {
		return "", err
	}
	if err := generator.RenderToFile(tmpl, job, path); err != nil {
		return "", fmt.Errorf("rendering %s: %w", job.JobName, err)
	}
	if err := kustomize.UpdateKustomization(dir, []string{fileName}, namespace); err != nil {
		return "", fmt.Errorf("updating kustomization in %s: %w", dir, err)
	}
	return path, nil
}
