package templates

import "text/template"

// PodSpecTemplate is rendered first and embedded into JobTemplate or CronJobTemplate.
var PodSpecTemplate = template.Must(template.New("pod").Funcs(funcs).Parse(`
restartPolicy: Never
containers:
  - name: ingestion-cli
    image: {{ .Image }}
    args:
{{- range .Args }}
      - {{ printf "%q" . }}
{{- end }}
    envFrom:
      - configMapRef:
          name: {{ .ConfigMapName }}
{{- if .SecretName }}
      - secretRef:
          name: {{ .SecretName }}
{{- end }}
`[1:]))

var JobTemplate = template.Must(template.New("job").Funcs(funcs).Parse(`
apiVersion: batch/v1
kind: Job
metadata:
  name: {{ .JobName }}
spec:
  backoffLimit: 0
  template:
    spec:
{{ indent 6 .PodSpec }}
---
{{ template "configmap" . }}`[1:] + configMapBlock))

var CronJobTemplate = template.Must(template.New("cronjob").Funcs(funcs).Parse(`
apiVersion: batch/v1
kind: CronJob
metadata:
  name: {{ .JobName }}
spec:
  schedule: {{ printf "%q" .Schedule }}
  concurrencyPolicy: Forbid
  jobTemplate:
    spec:
      backoffLimit: 0
      template:
        spec:
{{ indent 10 .PodSpec }}
---
{{ template "configmap" . }}`[1:] + configMapBlock))

const configMapBlock = `
{{- define "configmap" -}}
apiVersion: v1
kind: ConfigMap
metadata:
  name: {{ .ConfigMapName }}
data:
{{- range .Env }}
  {{ .Name }}: {{ printf "%q" .Value }}
{{- end }}
{{ end -}}`
