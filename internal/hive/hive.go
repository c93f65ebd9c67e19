// Package hive issues the pipeline's HiveQL statements over a HiveServer2
// connection.
package hive

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"text/template"

	"hive-ingestion/internal/generator"
	"hive-ingestion/internal/model"
	"hive-ingestion/internal/templates"
)

// ErrNotConnected is returned by every statement when no connection could be opened.
var ErrNotConnected = errors.New("hive connection not available")

// Conn is a single, non-reentrant HiveServer2 session.
type Conn interface {
	Exec(ctx context.Context, stmt string) error
	Query(ctx context.Context, stmt string) (*ResultSet, error)
	Close() error
}

type ResultSet struct {
	Columns []string
	Rows    []model.Row
}

// StatementError carries the HiveQL text that failed.
type StatementError struct {
	Stmt string
	Err  error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("executing %q: %v", firstLine(e.Stmt), e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

// Statements returns the CREATE DATABASE and CREATE TABLE text for cfg.
func Statements(cfg model.HiveTableConfig) ([]string, error) {
	var out []string
	for _, t := range []*template.Template{templates.CreateDatabaseTemplate, templates.CreateTableTemplate} {
		s, err := generator.Render(t, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func CreateDatabase(ctx context.Context, conn Conn, cfg model.HiveTableConfig) error {
	if err := execTemplate(ctx, conn, templates.CreateDatabaseTemplate, cfg); err != nil {
		return err
	}
	log.Printf("[hive] database %s ready", cfg.Database)
	return nil
}

func CreateTable(ctx context.Context, conn Conn, cfg model.HiveTableConfig) error {
	if err := execTemplate(ctx, conn, templates.CreateTableTemplate, cfg); err != nil {
		return err
	}
	log.Printf("[hive] table %s.%s ready (%d columns)", cfg.Database, cfg.Table, len(cfg.Schema.Columns))
	return nil
}

// LoadData moves the file at cfg.InPath into the table's storage location.
func LoadData(ctx context.Context, conn Conn, cfg model.HiveTableConfig) error {
	if err := execTemplate(ctx, conn, templates.LoadDataTemplate, cfg); err != nil {
		return err
	}
	log.Printf("[hive] loaded %s into %s.%s", cfg.InPath, cfg.Database, cfg.Table)
	return nil
}

// Preview fetches at most cfg.Limit rows from the table.
func Preview(ctx context.Context, conn Conn, cfg model.HiveTableConfig) (*ResultSet, error) {
	if conn == nil {
		return nil, ErrNotConnected
	}
	stmt, err := generator.Render(templates.PreviewTemplate, cfg)
	if err != nil {
		return nil, err
	}

	rs, err := conn.Query(ctx, stmt)
	if err != nil {
		return nil, &StatementError{Stmt: stmt, Err: err}
	}
	// the engine honours LIMIT, but the contract is enforced here as well
	if cfg.Limit > 0 && len(rs.Rows) > cfg.Limit {
		rs.Rows = rs.Rows[:cfg.Limit]
	}
	return rs, nil
}

func execTemplate(ctx context.Context, conn Conn, t *template.Template, cfg model.HiveTableConfig) error {
	if conn == nil {
		return ErrNotConnected
	}
	stmt, err := generator.Render(t, cfg)
	if err != nil {
		return err
	}
	if err := conn.Exec(ctx, stmt); err != nil {
		return &StatementError{Stmt: stmt, Err: err}
	}
	return nil
}
