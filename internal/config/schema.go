package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"hive-ingestion/internal/model"
)

var columnTypeRe = regexp.MustCompile(`^(?i)(STRING|INT|INTEGER|BIGINT|SMALLINT|TINYINT|DOUBLE|FLOAT|BOOLEAN|DATE|TIMESTAMP|DECIMAL(\(\d+(,\s*\d+)?\))?|VARCHAR\(\d+\)|CHAR\(\d+\))$`)

func LoadTableSchema(path string) (*model.TableSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := ParseTableSchema(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseTableSchema decodes and validates a YAML table schema.
func ParseTableSchema(data []byte) (*model.TableSchema, error) {
	var s model.TableSchema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := ValidateTableSchema(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ValidateTableSchema checks column names, types, duplicates and the delimiter.
func ValidateTableSchema(s *model.TableSchema) error {
	var problems []string

	if len(s.Columns) == 0 {
		problems = append(problems, "no columns defined in columns")
	}

	seen := map[string]bool{}
	for i, c := range s.Columns {
		ctx := fmt.Sprintf("columns[%d] (name=%s)", i, c.Name)

		name := strings.TrimSpace(c.Name)
		switch {
		case name == "":
			problems = append(problems, ctx+": empty name")
		case !identifierRe.MatchString(name):
			problems = append(problems, fmt.Sprintf("%s: %q is not a valid identifier", ctx, name))
		default:
			// Hive column names are case-insensitive
			upper := strings.ToUpper(name)
			if seen[upper] {
				problems = append(problems, fmt.Sprintf("%s: duplicate column %q", ctx, name))
			}
			seen[upper] = true
		}

		if !columnTypeRe.MatchString(strings.TrimSpace(c.Type)) {
			problems = append(problems, fmt.Sprintf("%s: unsupported type %q", ctx, c.Type))
		}
	}

	if d := s.Delimiter(); len([]rune(d)) != 1 || d == "'" || d == "\n" {
		problems = append(problems, fmt.Sprintf("fieldDelimiter %q must be a single character other than quote or newline", d))
	}
	if s.SkipHeaderLines < 0 {
		problems = append(problems, "skipHeaderLines must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid table schema:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
