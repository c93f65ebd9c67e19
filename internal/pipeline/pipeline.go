// Package pipeline runs the ingestion stages in order and collects a
// per-stage report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"hive-ingestion/internal/config"
	"hive-ingestion/internal/hive"
	"hive-ingestion/internal/model"
	"hive-ingestion/internal/transfer"
)

// Fetcher copies a remote resource into storage; *transfer.Downloader
// implements it.
type Fetcher interface {
	Copy(ctx context.Context, srcURL string, dst transfer.Uploader, path string) (int64, error)
}

// Connector opens the Hive session used by the SQL stages.
type Connector func() (hive.Conn, error)

type Pipeline struct {
	Config  *config.Config
	Schema  model.TableSchema
	Connect Connector
	Storage transfer.Uploader
	Fetcher Fetcher
	// Out receives the verification rows; defaults to io.Discard.
	Out    io.Writer
	Policy config.FailurePolicy
}

// TableConfig builds the statement template input from the run configuration.
func TableConfig(cfg *config.Config, schema model.TableSchema) model.HiveTableConfig {
	return model.HiveTableConfig{
		Database:  cfg.Database,
		Table:     cfg.Table,
		Schema:    schema,
		InPath:    cfg.HDFSPath,
		Overwrite: cfg.LoadOverwrite,
		Limit:     cfg.VerifyLimit,
	}
}

// Run executes every stage and returns the report. The Hive connection is
// opened first and closed before Run returns, whatever happened.
func (p *Pipeline) Run(ctx context.Context) *model.RunReport {
	return p.run(ctx, model.Stages)
}

// Verify runs only the verification stage against an already loaded table.
func (p *Pipeline) Verify(ctx context.Context) *model.RunReport {
	return p.run(ctx, []model.Stage{model.StageVerify})
}

type session struct {
	p       *Pipeline
	conn    hive.Conn
	connErr error
	table   model.HiveTableConfig
	report  *model.RunReport
}

func (p *Pipeline) run(ctx context.Context, stages []model.Stage) *model.RunReport {
	report := &model.RunReport{RunID: uuid.NewString(), StartedAt: time.Now()}
	log.Printf("[pipeline] run %s started (stages=%d policy=%s)", report.RunID, len(stages), p.Policy)

	s := &session{p: p, table: TableConfig(p.Config, p.Schema), report: report}
	if needsHive(stages) {
		s.open()
		defer s.close()
	}

	halted := false
	for _, stage := range stages {
		if halted {
			report.Results = append(report.Results, model.StageResult{Stage: stage, Status: model.StatusSkipped})
			continue
		}

		start := time.Now()
		err := s.exec(ctx, stage)
		res := model.StageResult{Stage: stage, Status: model.StatusOK, Err: err, Duration: time.Since(start)}
		if err != nil {
			res.Status = model.StatusFailed
			log.Printf("[pipeline] stage %s failed: %v", stage, err)
		}
		report.Results = append(report.Results, res)

		switch {
		case ctx.Err() != nil:
			log.Printf("[pipeline] cancelled after stage %s", stage)
			halted = true
		case err != nil && p.Policy == config.PolicyAbort:
			halted = true
		}
	}

	report.FinishedAt = time.Now()
	log.Printf("[pipeline] run %s finished: %s in %s", report.RunID, report.Status(), report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	return report
}

func needsHive(stages []model.Stage) bool {
	for _, s := range stages {
		if s != model.StageTransfer {
			return true
		}
	}
	return false
}

func (s *session) open() {
	if s.p.Connect == nil {
		s.connErr = errors.New("no connector configured")
		return
	}
	conn, err := s.p.Connect()
	if err != nil {
		s.connErr = err
		log.Printf("[hive] %v", err)
		return
	}
	s.conn = conn
}

func (s *session) close() {
	if s.conn == nil {
		return
	}
	if err := s.conn.Close(); err != nil {
		log.Printf("[hive] closing connection: %v", err)
		return
	}
	log.Printf("[hive] connection closed")
}

func (s *session) exec(ctx context.Context, stage model.Stage) error {
	var err error
	switch stage {
	case model.StageTransfer:
		err = s.transfer(ctx)
	case model.StageCreateDatabase:
		err = hive.CreateDatabase(ctx, s.conn, s.table)
	case model.StageCreateTable:
		err = hive.CreateTable(ctx, s.conn, s.table)
	case model.StageLoad:
		err = hive.LoadData(ctx, s.conn, s.table)
	case model.StageVerify:
		err = s.verify(ctx)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}

	if errors.Is(err, hive.ErrNotConnected) && s.connErr != nil {
		return fmt.Errorf("%w: %v", hive.ErrNotConnected, s.connErr)
	}
	return err
}

func (s *session) transfer(ctx context.Context) error {
	cfg := s.p.Config
	n, err := s.p.Fetcher.Copy(ctx, cfg.DataURL, s.p.Storage, cfg.HDFSPath)
	s.report.BytesTransferred = n
	if err != nil {
		return err
	}
	log.Printf("[transfer] %s uploaded to %s (%d bytes)", cfg.DataURL, cfg.HDFSPath, n)
	return nil
}

func (s *session) verify(ctx context.Context) error {
	rs, err := hive.Preview(ctx, s.conn, s.table)
	if err != nil {
		return err
	}
	s.report.Rows = rs.Rows

	out := s.p.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprintln(out, "Data in Hive table:")
	for _, row := range rs.Rows {
		fmt.Fprintln(out, row)
	}
	return nil
}
