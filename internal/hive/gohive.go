package hive

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/beltran/gohive"

	"hive-ingestion/internal/config"
	"hive-ingestion/internal/model"
)

type hs2Conn struct {
	conn *gohive.Connection
}

// NewFromConfig opens a HiveServer2 session with HIVE_HOST/HIVE_PORT/HIVE_USER.
func NewFromConfig(cfg *config.Config) (Conn, error) {
	conf := gohive.NewConnectConfiguration()
	conf.Username = cfg.HiveUser
	conf.Password = cfg.HivePassword

	conn, err := gohive.Connect(cfg.HiveHost, cfg.HivePort, cfg.HiveAuth, conf)
	if err != nil {
		return nil, fmt.Errorf("connecting to hiveserver2 %s:%d as %s: %w", cfg.HiveHost, cfg.HivePort, cfg.HiveUser, err)
	}

	log.Printf("[hive] connected to %s:%d (auth=%s user=%s)", cfg.HiveHost, cfg.HivePort, cfg.HiveAuth, cfg.HiveUser)
	return &hs2Conn{conn: conn}, nil
}

func (c *hs2Conn) Exec(ctx context.Context, stmt string) error {
	cursor := c.conn.Cursor()
	defer cursor.Close()

	cursor.Exec(ctx, stmt)
	return cursor.Err
}

func (c *hs2Conn) Query(ctx context.Context, stmt string) (*ResultSet, error) {
	cursor := c.conn.Cursor()
	defer cursor.Close()

	cursor.Exec(ctx, stmt)
	if cursor.Err != nil {
		return nil, cursor.Err
	}

	desc := cursor.Description()
	if cursor.Err != nil {
		return nil, cursor.Err
	}

	// RowMap is keyed by the raw result names ("table.column")
	keys := make([]string, len(desc))
	rs := &ResultSet{Columns: make([]string, len(desc))}
	for i, d := range desc {
		keys[i] = d[0]
		rs.Columns[i] = d[0][strings.LastIndexByte(d[0], '.')+1:]
	}

	for cursor.HasMore(ctx) {
		if cursor.Err != nil {
			return nil, cursor.Err
		}
		m := cursor.RowMap(ctx)
		if cursor.Err != nil {
			return nil, cursor.Err
		}

		row := make(model.Row, len(keys))
		for i, k := range keys {
			row[i] = m[k]
		}
		rs.Rows = append(rs.Rows, row)
	}
	if cursor.Err != nil {
		return nil, cursor.Err
	}

	return rs, nil
}

func (c *hs2Conn) Close() error {
	return c.conn.Close()
}
