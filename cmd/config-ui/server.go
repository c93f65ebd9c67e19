package main

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"hive-ingestion/internal/config"
)

type pageData struct {
	EnvContent    string
	EnvStatus     string
	EnvPath       string
	SchemaContent string
	SchemaStatus  string
	SchemaPath    string
}

type server struct {
	tmpl       *template.Template
	envPath    string
	schemaPath string
	mutex      sync.Mutex
}

func newServer(envPath, schemaPath string) *server {
	return &server{
		tmpl:       template.Must(template.New("page").Parse(indexHTML)),
		envPath:    envPath,
		schemaPath: schemaPath,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/save-env", s.handleSaveEnv)
	mux.HandleFunc("/save-schema", s.handleSaveSchema)
	return mux
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	envContent, envStatus := s.readFileStatus(s.envPath)
	schemaContent, schemaStatus := s.readFileStatus(s.schemaPath)

	data := pageData{
		EnvContent:    envContent,
		EnvStatus:     envStatus,
		EnvPath:       s.envPath,
		SchemaContent: schemaContent,
		SchemaStatus:  schemaStatus,
		SchemaPath:    s.schemaPath,
	}
	if err := s.tmpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleSaveEnv only writes the file when it parses and yields a complete
// pipeline configuration.
func (s *server) handleSaveEnv(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	content := r.FormValue("env_content")

	values, err := godotenv.Unmarshal(content)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid .env: %v", err), http.StatusBadRequest)
		return
	}
	cfg, err := config.Load(config.MapLookup(values))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.writeFile(s.envPath, []byte(content)); err != nil {
		http.Error(w, fmt.Sprintf("saving .env: %v", err), http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, `<div class="status ok">.env saved to %s (target %s)</div>`,
		template.HTMLEscapeString(s.envPath), template.HTMLEscapeString(cfg.QualifiedTable()))
}

func (s *server) handleSaveSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	content := r.FormValue("schema_content")
	if strings.TrimSpace(content) == "" {
		http.Error(w, "schema cannot be empty", http.StatusBadRequest)
		return
	}

	schema, err := config.ParseTableSchema([]byte(content))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.writeFile(s.schemaPath, []byte(content)); err != nil {
		http.Error(w, fmt.Sprintf("saving schema: %v", err), http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, `<div class="status ok">schema saved to %s (%d columns)</div>`,
		template.HTMLEscapeString(s.schemaPath), len(schema.Columns))
}

func (s *server) readFileStatus(path string) (string, string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Sprintf("file does not exist yet; it will be created at %s", path)
	}
	return string(data), fmt.Sprintf("reading %s", path)
}

func (s *server) writeFile(path string, data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>Hive ingestion config</title>
  <script src="https://unpkg.com/htmx.org@1.9.12" integrity="sha384-+oqoEcJ7+9P+Dg8M0Zy07lzeppoea4T1aI6+RaeMn7nSMeKMKCXmqJazM3QCwFS9" crossorigin="anonymous"></script>
  <style>
    body { font-family: ui-sans-serif, system-ui, sans-serif; margin: 32px; background: #0f172a; color: #e2e8f0; }
    p.small { color: #94a3b8; margin-top: 4px; }
    .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(320px, 1fr)); gap: 24px; margin-top: 24px; }
    .card { background: #111827; border: 1px solid #1f2937; border-radius: 12px; padding: 16px; }
    textarea { width: 100%; min-height: 360px; font-family: ui-monospace, Menlo, Consolas, monospace; background: #0b1224; color: #e2e8f0; border: 1px solid #1f2937; border-radius: 8px; padding: 12px; box-sizing: border-box; }
    button { background: #3b82f6; color: #0b1224; border: none; border-radius: 8px; padding: 10px 16px; font-weight: 700; cursor: pointer; }
    .status { margin-top: 10px; padding: 8px 10px; border-radius: 8px; font-size: 14px; }
    .status.ok { background: rgba(34, 197, 94, 0.15); border: 1px solid rgba(34, 197, 94, 0.5); color: #bbf7d0; }
    code { background: #0b1224; padding: 3px 5px; border-radius: 6px; }
  </style>
</head>
<body>
  <h1>Hive ingestion config</h1>
  <p class="small">Both files are validated before they are written: <code>{{.EnvPath}}</code> and <code>{{.SchemaPath}}</code>.</p>

  <div class="grid">
    <div class="card">
      <h2>.env</h2>
      <form hx-post="/save-env" hx-target="#env-status" hx-swap="innerHTML">
        <textarea name="env_content" spellcheck="false">{{.EnvContent}}</textarea>
        <div style="display:flex; justify-content: space-between; align-items: center; margin-top: 12px;">
          <span id="env-status" class="small">{{.EnvStatus}}</span>
          <button type="submit">Save .env</button>
        </div>
      </form>
    </div>

    <div class="card">
      <h2>Table schema</h2>
      <form hx-post="/save-schema" hx-target="#schema-status" hx-swap="innerHTML">
        <textarea name="schema_content" spellcheck="false">{{.SchemaContent}}</textarea>
        <div style="display:flex; justify-content: space-between; align-items: center; margin-top: 12px;">
          <span id="schema-status" class="small">{{.SchemaStatus}}</span>
          <button type="submit">Save schema</button>
        </div>
      </form>
    </div>
  </div>
</body>
</html>`
