package model

import (
	"errors"
	"testing"
)

func TestRowString(t *testing.T) {
	tests := []struct {
		row  Row
		want string
	}{
		{Row{"050", int32(1), 3.5, nil}, "('050', 1, 3.5, None)"},
		{Row{"St. Mary's"}, `('St. Mary\'s')`},
		{Row{}, "()"},
	}
	for _, tt := range tests {
		if got := tt.row.String(); got != tt.want {
			t.Errorf("Row%v.String() = %s, want %s", []any(tt.row), got, tt.want)
		}
	}
}

func TestRunReportStatus(t *testing.T) {
	r := &RunReport{Results: []StageResult{
		{Stage: StageTransfer, Status: StatusOK},
		{Stage: StageLoad, Status: StatusSkipped},
	}}
	if r.Failed() || r.Status() != StatusOK {
		t.Errorf("skipped stages must not fail the run")
	}

	r.Results = append(r.Results, StageResult{Stage: StageVerify, Status: StatusFailed, Err: errors.New("boom")})
	if !r.Failed() || r.Status() != StatusFailed {
		t.Error("expected failed run")
	}
	if res, ok := r.Result(StageVerify); !ok || res.String() != "verify: failed (boom)" {
		t.Errorf("Result(verify) = %v, %v", res, ok)
	}
	if _, ok := r.Result(StageCreateTable); ok {
		t.Error("unexpected result for a stage that did not run")
	}
}

func TestDelimiterDefault(t *testing.T) {
	if (TableSchema{}).Delimiter() != "," {
		t.Error("expected comma by default")
	}
	if (TableSchema{FieldDelimiter: "|"}).Delimiter() != "|" {
		t.Error("explicit delimiter ignored")
	}
}
