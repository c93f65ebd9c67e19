package templates

import (
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"quote":  QuoteLiteral,
	"indent": indent,
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// QuoteLiteral renders s as a single-quoted HiveQL string literal.
func QuoteLiteral(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

func indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}
