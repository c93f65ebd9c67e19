package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hive-ingestion/internal/config"
	"hive-ingestion/internal/kustomize"
	"hive-ingestion/internal/repo"
)

func testConfig() *config.Config {
	return &config.Config{
		HDFSURL:      "http://namenode:9870",
		HDFSUser:     "hdfs",
		DataURL:      "https://files.local/co-est2023.csv",
		HDFSPath:     "/data/co-est2023.csv",
		HiveHost:     "hiveserver",
		HivePort:     10000,
		HiveUser:     "hive",
		HivePassword: "s3cret",
		HiveAuth:     "NONE",
		Database:     "census",
		Table:        "county_estimates",
		VerifyLimit:  10,
		OnFailure:    config.PolicyContinue,
	}
}

func TestBuildJob(t *testing.T) {
	job, err := Build(testConfig(), Options{Image: "registry.local/ingestion-cli:1.0", SecretName: "hive-credentials"})
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if job.JobName != "hive-ingestion-census-county-estimates" {
		t.Errorf("JobName = %s", job.JobName)
	}
	if job.ConfigMapName != job.JobName+"-env" {
		t.Errorf("ConfigMapName = %s", job.ConfigMapName)
	}
	if strings.Join(job.Args, " ") != "run --strict" {
		t.Errorf("Args = %v", job.Args)
	}
	for _, e := range job.Env {
		if e.Name == "HIVE_PASSWORD" || strings.Contains(e.Value, "s3cret") {
			t.Errorf("password in configmap env: %+v", e)
		}
	}
	if !strings.Contains(job.PodSpec, "name: hive-credentials") {
		t.Errorf("secret not referenced in pod spec:\n%s", job.PodSpec)
	}
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"missing image", Options{}, "image is required"},
		{"bad schedule", Options{Image: "img", Schedule: "every day"}, "schedule"},
		{"bad secret", Options{Image: "img", SecretName: "Hive_Creds"}, "secret name"},
		{"bad namespace", Options{Image: "img", Namespace: "data.jobs"}, "namespace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(testConfig(), tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	long := testConfig()
	long.Table = strings.Repeat("t", 40)
	if _, err := Build(long, Options{Image: "img", Schedule: "0 3 * * *"}); err == nil {
		t.Error("expected error for cronjob name over the length limit")
	}
}

func TestWriteCronJob(t *testing.T) {
	base := t.TempDir()
	layout := repo.NewLayout(base, "development", false)

	job, err := Build(testConfig(), Options{Image: "img:1", Schedule: "0 3 * * *"})
	if err != nil {
		t.Fatal(err)
	}
	path, err := Write(layout, job, "census", "data-jobs", false)
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	want := filepath.Join(base, "jobs", "development", "census", "hive-ingestion-census-county-estimates-cron.yaml")
	if path != want {
		t.Errorf("path = %s, want %s", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"kind: CronJob", `schedule: "0 3 * * *"`, `HIVE_TABLE_NAME: "county_estimates"`} {
		if !strings.Contains(string(data), s) {
			t.Errorf("manifest missing %q", s)
		}
	}

	k, err := kustomize.Read(filepath.Join(filepath.Dir(path), "kustomization.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(k.Resources) != 1 || k.Resources[0] != filepath.Base(path) || k.Namespace != "data-jobs" {
		t.Errorf("unexpected kustomization %+v", k)
	}
}

func TestWriteDryRun(t *testing.T) {
	base := t.TempDir()
	layout := repo.NewLayout(base, "development", false)
	job, _ := Build(testConfig(), Options{Image: "img:1"})

	path, err := Write(layout, job, "census", "", true)
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("dry run wrote the manifest")
	}
}

func TestWriteArgoLayoutRequiresRoot(t *testing.T) {
	layout := repo.NewLayout(t.TempDir(), "production", true)
	job, _ := Build(testConfig(), Options{Image: "img:1"})

	if _, err := Write(layout, job, "census", "", false); err == nil {
		t.Error("expected error when the GitOps job root is missing")
	}
}
