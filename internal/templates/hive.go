package templates

import "text/template"

var CreateDatabaseTemplate = template.Must(template.New("create-database").Funcs(funcs).Parse(
	`CREATE DATABASE IF NOT EXISTS {{ .Database }}`))

var CreateTableTemplate = template.Must(template.New("create-table").Funcs(funcs).Parse(`
CREATE TABLE IF NOT EXISTS {{ .Database }}.{{ .Table }} (
{{- range $i, $c := .Schema.Columns }}{{ if $i }},{{ end }}
    {{ $c.Name }} {{ $c.Type }}
{{- end }}
)
ROW FORMAT DELIMITED
FIELDS TERMINATED BY {{ quote .Schema.Delimiter }}
STORED AS TEXTFILE
{{- if gt .Schema.SkipHeaderLines 0 }}
TBLPROPERTIES ("skip.header.line.count"="{{ .Schema.SkipHeaderLines }}")
{{- end }}`[1:]))

var LoadDataTemplate = template.Must(template.New("load-data").Funcs(funcs).Parse(
	`LOAD DATA INPATH {{ quote .InPath }}{{ if .Overwrite }} OVERWRITE{{ end }} INTO TABLE {{ .Database }}.{{ .Table }}`))

var PreviewTemplate = template.Must(template.New("preview").Funcs(funcs).Parse(
	`SELECT * FROM {{ .Database }}.{{ .Table }} LIMIT {{ .Limit }}`))
