package census

import "testing"

func TestSchemaLayout(t *testing.T) {
	s := Schema()

	if got := len(s.Columns); got != 67 {
		t.Fatalf("expected 67 columns, got %d", got)
	}
	if s.Delimiter() != "," {
		t.Errorf("expected comma delimiter, got %q", s.Delimiter())
	}

	checks := map[int]string{
		0:  "SUMLEV",
		6:  "CTYNAME",
		7:  "ESTIMATESBASE2020",
		8:  "POPESTIMATE2020",
		11: "POPESTIMATE2023",
		16: "BIRTHS2020",
		40: "RESIDUAL2020",
		43: "RESIDUAL2023",
		44: "GQESTIMATESBASE2020",
		45: "GQESTIMATES2020",
		49: "RBIRTH2021",
		66: "RNETMIG2023",
	}
	for i, want := range checks {
		if s.Columns[i].Name != want {
			t.Errorf("column %d: expected %s, got %s", i, want, s.Columns[i].Name)
		}
	}
}

func TestSchemaTypes(t *testing.T) {
	counts := map[string]int{}
	for _, c := range Schema().Columns {
		counts[c.Type]++
	}

	if counts["STRING"] != 5 {
		t.Errorf("expected 5 STRING columns, got %d", counts["STRING"])
	}
	if counts["INT"] != 44 {
		t.Errorf("expected 44 INT columns, got %d", counts["INT"])
	}
	if counts["DOUBLE"] != 18 {
		t.Errorf("expected 18 DOUBLE columns, got %d", counts["DOUBLE"])
	}
}

func TestSchemaNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Schema().Columns {
		if seen[c.Name] {
			t.Errorf("duplicate column %s", c.Name)
		}
		seen[c.Name] = true
	}
}
