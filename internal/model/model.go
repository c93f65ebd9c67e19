package model

import (
	"fmt"
	"strings"
	"time"
)

// Column is one (name, type) pair of a Hive table definition.
type Column struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// TableSchema describes a delimited text table.
type TableSchema struct {
	Columns         []Column `yaml:"columns"`
	FieldDelimiter  string   `yaml:"fieldDelimiter,omitempty"`
	SkipHeaderLines int      `yaml:"skipHeaderLines,omitempty"`
}

// Delimiter returns the field terminator, "," when none is set.
func (s TableSchema) Delimiter() string {
	if s.FieldDelimiter == "" {
		return ","
	}
	return s.FieldDelimiter
}

type Stage string

const (
	StageTransfer       Stage = "transfer"
	StageCreateDatabase Stage = "create-database"
	StageCreateTable    Stage = "create-table"
	StageLoad           Stage = "load"
	StageVerify         Stage = "verify"
)

// Stages in execution order.
var Stages = []Stage{
	StageTransfer,
	StageCreateDatabase,
	StageCreateTable,
	StageLoad,
	StageVerify,
}

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

type StageResult struct {
	Stage    Stage
	Status   Status
	Err      error
	Duration time.Duration
}

func (r StageResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", r.Stage, r.Status, r.Err)
	}
	return fmt.Sprintf("%s: %s", r.Stage, r.Status)
}

// Row is one result row in column order.
type Row []any

// String renders the row as a parenthesised tuple.
func (r Row) String() string {
	parts := make([]string, len(r))
	for i, v := range r {
		switch x := v.(type) {
		case nil:
			parts[i] = "None"
		case string:
			parts[i] = "'" + strings.ReplaceAll(x, "'", `\'`) + "'"
		default:
			parts[i] = fmt.Sprintf("%v", x)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type RunReport struct {
	RunID            string
	StartedAt        time.Time
	FinishedAt       time.Time
	Results          []StageResult
	BytesTransferred int64
	Rows             []Row
}

// Result returns the result recorded for stage, if any.
func (r *RunReport) Result(stage Stage) (StageResult, bool) {
	for _, res := range r.Results {
		if res.Stage == stage {
			return res, true
		}
	}
	return StageResult{}, false
}

// Failed reports whether any stage failed.
func (r *RunReport) Failed() bool {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Status summarises the run: "failed" when any stage failed, else "ok".
func (r *RunReport) Status() Status {
	if r.Failed() {
		return StatusFailed
	}
	return StatusOK
}

// HiveTableConfig feeds the HiveQL statement templates.
type HiveTableConfig struct {
	Database  string
	Table     string
	Schema    TableSchema
	InPath    string
	Overwrite bool
	Limit     int
}

type EnvVar struct {
	Name  string
	Value string
}

// JobManifestConfig feeds the Kubernetes Job/CronJob templates.
type JobManifestConfig struct {
	JobName       string
	Image         string
	Schedule      string
	Args          []string
	ConfigMapName string
	SecretName    string
	Env           []EnvVar
	PodSpec       string
}
