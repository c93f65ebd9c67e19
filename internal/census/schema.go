// Package census holds the built-in table definition for the county
// population estimates dataset (2020-2023 vintage).
package census

import (
	"fmt"

	"hive-ingestion/internal/model"
)

var countPrefixes = []string{
	"POPESTIMATE",
	"NPOPCHG",
	"BIRTHS",
	"DEATHS",
	"NATURALCHG",
	"INTERNATIONALMIG",
	"DOMESTICMIG",
	"NETMIG",
	"RESIDUAL",
}

var ratePrefixes = []string{
	"RBIRTH",
	"RDEATH",
	"RNATURALCHG",
	"RINTERNATIONALMIG",
	"RDOMESTICMIG",
	"RNETMIG",
}

// Schema returns the column layout of the county estimates CSV, in file order.
func Schema() model.TableSchema {
	cols := []model.Column{
		{Name: "SUMLEV", Type: "STRING"},
		{Name: "REGION", Type: "INT"},
		{Name: "DIVISION", Type: "INT"},
		{Name: "STATE", Type: "STRING"},
		{Name: "COUNTY", Type: "STRING"},
		{Name: "STNAME", Type: "STRING"},
		{Name: "CTYNAME", Type: "STRING"},
		{Name: "ESTIMATESBASE2020", Type: "INT"},
	}
	cols = appendYears(cols, "INT", 2020, 2023, countPrefixes...)
	cols = append(cols, model.Column{Name: "GQESTIMATESBASE2020", Type: "INT"})
	cols = appendYears(cols, "INT", 2020, 2023, "GQESTIMATES")
	// rates start in 2021, there is no prior year to compute them from
	cols = appendYears(cols, "DOUBLE", 2021, 2023, ratePrefixes...)

	return model.TableSchema{
		Columns:        cols,
		FieldDelimiter: ",",
	}
}

func appendYears(cols []model.Column, typ string, from, to int, prefixes ...string) []model.Column {
	for _, p := range prefixes {
		for y := from; y <= to; y++ {
			cols = append(cols, model.Column{Name: fmt.Sprintf("%s%d", p, y), Type: typ})
		}
	}
	return cols
}
