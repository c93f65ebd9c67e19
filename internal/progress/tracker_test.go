package progress

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestTrackerCounts(t *testing.T) {
	tr := New(-1, "downloading", nil)

	src := strings.NewReader(strings.Repeat("x", 20000))
	n, err := io.Copy(io.Discard, io.TeeReader(src, tr))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Current() != n || n != 20000 {
		t.Errorf("expected 20000 bytes counted, got %d (copied %d)", tr.Current(), n)
	}
	tr.Finish()
}

func TestTrackerRendersBar(t *testing.T) {
	var out bytes.Buffer
	tr := New(100, "downloading", &out)

	if _, err := tr.Write(make([]byte, 100)); err != nil {
		t.Fatal(err)
	}
	tr.Finish()

	if !strings.Contains(out.String(), "downloading") {
		t.Errorf("expected description in bar output, got %q", out.String())
	}
}
