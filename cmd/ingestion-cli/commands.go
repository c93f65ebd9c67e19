package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"hive-ingestion/internal/config"
	"hive-ingestion/internal/gitops"
	"hive-ingestion/internal/hdfs"
	"hive-ingestion/internal/history"
	"hive-ingestion/internal/hive"
	"hive-ingestion/internal/manifest"
	"hive-ingestion/internal/model"
	"hive-ingestion/internal/pipeline"
	"hive-ingestion/internal/repo"
	"hive-ingestion/internal/transfer"
)

func execDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(execPath)
}

// loadEnvFiles seeds the environment from .env files. Variables already set
// in the process win over file values.
func loadEnvFiles(c *cli.Context) error {
	if f := c.String("env-file"); f != "" {
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
		return nil
	}

	for _, f := range []string{filepath.Join(execDir(), ".env"), ".env"} {
		if err := godotenv.Load(f); err == nil {
			log.Printf("loaded %s", f)
		}
	}
	return nil
}

func loadConfig(c *cli.Context) (*config.Config, model.TableSchema, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, model.TableSchema{}, err
	}
	if c.IsSet("on-failure") {
		if cfg.OnFailure, err = config.ParseFailurePolicy(c.String("on-failure")); err != nil {
			return nil, model.TableSchema{}, err
		}
	}

	schema, err := cfg.TableSchema()
	if err != nil {
		return nil, model.TableSchema{}, fmt.Errorf("loading table schema: %w", err)
	}
	return cfg, schema, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Printf("interrupted, stopping after the current stage")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func runPipeline(c *cli.Context) error {
	cfg, schema, err := loadConfig(c)
	if err != nil {
		return err
	}

	storage, err := hdfs.NewFromConfig(cfg)
	if err != nil {
		log.Printf("[hdfs] %v", err)
		storage = hdfs.Unavailable(err)
	}
	defer storage.Close()

	opts := transfer.Options{Retries: cfg.DataRetries, Timeout: cfg.DataTimeout}
	if c.Bool("progress") {
		opts.Progress = os.Stderr
	}

	p := &pipeline.Pipeline{
		Config:  cfg,
		Schema:  schema,
		Connect: func() (hive.Conn, error) { return hive.NewFromConfig(cfg) },
		Storage: storage,
		Fetcher: transfer.New(opts),
		Out:     c.App.Writer,
		Policy:  cfg.OnFailure,
	}

	ctx, cancel := signalContext()
	defer cancel()

	report := p.Run(ctx)
	return finish(c, cfg, report)
}

func verifyTable(c *cli.Context) error {
	cfg, schema, err := loadConfig(c)
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{
		Config:  cfg,
		Schema:  schema,
		Connect: func() (hive.Conn, error) { return hive.NewFromConfig(cfg) },
		Out:     c.App.Writer,
		Policy:  cfg.OnFailure,
	}

	ctx, cancel := signalContext()
	defer cancel()

	return finish(c, cfg, p.Verify(ctx))
}

// finish logs the stage summary, records the run and applies --strict.
func finish(c *cli.Context, cfg *config.Config, report *model.RunReport) error {
	for _, res := range report.Results {
		log.Printf("[summary] %s (%s)", res, res.Duration.Round(time.Millisecond))
	}

	if !c.Bool("no-history") {
		if err := recordRun(c.String("history-db"), cfg, report); err != nil {
			log.Printf("[history] %v", err)
		}
	}

	if c.Bool("strict") && report.Failed() {
		return cli.Exit(fmt.Sprintf("run %s: one or more stages failed", report.RunID), 1)
	}
	return nil
}

func recordRun(path string, cfg *config.Config, report *model.RunReport) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.RecordRun(report, history.Target{
		DataURL:  cfg.DataURL,
		HDFSPath: cfg.HDFSPath,
		Table:    cfg.QualifiedTable(),
	})
}

func printDDL(c *cli.Context) error {
	cfg, schema, err := loadConfig(c)
	if err != nil {
		return err
	}

	stmts, err := hive.Statements(pipeline.TableConfig(cfg, schema))
	if err != nil {
		return err
	}
	text := strings.Join(stmts, ";\n\n") + ";\n"

	if out := c.String("out"); out != "" {
		if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		log.Printf("file written: %s", out)
		return nil
	}
	_, err = fmt.Fprint(c.App.Writer, text)
	return err
}

func showHistory(c *cli.Context) error {
	store, err := history.Open(c.String("history-db"))
	if err != nil {
		return err
	}
	defer store.Close()

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if id := c.String("run"); id != "" {
		run, err := store.GetRun(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Run:\t%s\n", run.ID)
		fmt.Fprintf(w, "Status:\t%s\n", run.Status)
		fmt.Fprintf(w, "Started:\t%s\n", run.StartedAt.Local().Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:\t%s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
		fmt.Fprintf(w, "Source:\t%s\n", run.DataURL)
		fmt.Fprintf(w, "HDFS path:\t%s\n", run.HDFSPath)
		fmt.Fprintf(w, "Table:\t%s\n", run.Table)
		fmt.Fprintf(w, "Transferred:\t%s\n", humanize.Bytes(uint64(run.BytesTransferred)))
		fmt.Fprintf(w, "Rows previewed:\t%d\n\n", run.RowsPreviewed)
		fmt.Fprintln(w, "STAGE\tSTATUS\tDURATION\tERROR")
		for _, st := range run.Stages {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.Stage, st.Status, st.Duration, st.Error)
		}
		return nil
	}

	runs, err := store.ListRuns(c.Int("limit"))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	fmt.Fprintln(w, "RUN\tSTARTED\tSTATUS\tTABLE\tTRANSFERRED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, humanize.Time(r.StartedAt), r.Status, r.Table, humanize.Bytes(uint64(r.BytesTransferred)))
	}
	return nil
}

// gitopsEnabled follows INGESTION_GITOPS_ENABLED when set, otherwise GitOps
// is on whenever GIT_REPO_URL is configured.
func gitopsEnabled(gitCfg *gitops.Config) (bool, error) {
	switch strings.ToLower(config.GetEnvOrDefault("INGESTION_GITOPS_ENABLED", "")) {
	case "true", "1", "yes", "y":
		if gitCfg == nil {
			return false, fmt.Errorf("INGESTION_GITOPS_ENABLED=true but GIT_REPO_URL is not set")
		}
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	default:
		return gitCfg != nil, nil
	}
}

func resolveBaseDir(out, anchor string) string {
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(anchor, out)
}

func writeManifest(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	job, err := manifest.Build(cfg, manifest.Options{
		Image:      c.String("image"),
		Schedule:   c.String("schedule"),
		SecretName: c.String("secret"),
		Namespace:  c.String("namespace"),
	})
	if err != nil {
		return err
	}

	gitCfg, err := gitops.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	gitEnabled, err := gitopsEnabled(gitCfg)
	if err != nil {
		return err
	}
	dryRun := c.Bool("dry-run")

	var repoPath, branch string
	baseDir := resolveBaseDir(c.String("out"), execDir())
	if gitEnabled && !dryRun {
		repoPath, branch, err = gitops.PrepareRepo(gitCfg, execDir(), job.JobName)
		if err != nil {
			return fmt.Errorf("preparing GitOps repository: %w", err)
		}
		baseDir = resolveBaseDir(c.String("out"), repoPath)
	}

	layout := repo.NewLayout(baseDir, c.String("environment"), gitEnabled)
	log.Printf("[manifest] job=%s baseDir=%s env=%s gitops=%v dryRun=%v",
		job.JobName, baseDir, layout.Env, gitEnabled, dryRun)

	path, err := manifest.Write(layout, job, cfg.Database, c.String("namespace"), dryRun)
	if err != nil {
		return err
	}

	if gitEnabled && !dryRun {
		msg := fmt.Sprintf("Hive ingestion job %s", job.JobName)
		if err := gitops.CommitAndPush(repoPath, branch, msg); err != nil {
			return fmt.Errorf("GitOps commit/push: %w", err)
		}
		log.Printf("[gitops] pushed branch %s", branch)
	}

	log.Printf("[manifest] %s", path)
	return nil
}
