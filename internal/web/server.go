// Package web serves the browser dashboard: a small HTML page plus a
// JSON API that translates HTTP requests into dispatcher invocations
// and relays the result envelope verbatim.
package web

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/rs/cors"

	"github.com/tabulario/datalens/internal/dataset"
	"github.com/tabulario/datalens/internal/dispatch"
	"github.com/tabulario/datalens/internal/domain/errs"
)

// Server is the dashboard HTTP server.
type Server struct {
	addr       string
	dispatcher *dispatch.Dispatcher
	store      *dataset.Store
	outputDir  string
	sessions   *sessions.CookieStore
	corsOrigin string
}

// invokeTimeout bounds a single dashboard invocation.
const invokeTimeout = 30 * time.Second

const sessionName = "datalens-session"

// NewServer builds the dashboard server.
func NewServer(addr string, dispatcher *dispatch.Dispatcher, store *dataset.Store, outputDir, corsOrigin, sessionKey string) *Server {
	return &Server{
		addr:       addr,
		dispatcher: dispatcher,
		store:      store,
		outputDir:  outputDir,
		sessions:   sessions.NewCookieStore([]byte(sessionKey)),
		corsOrigin: corsOrigin,
	}
}

// Run starts serving and blocks.
func (s *Server) Run() error {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleIndex).Methods("GET")
	router.HandleFunc("/api/tools", s.handleTools).Methods("GET")
	router.HandleFunc("/api/files", s.handleFiles).Methods("GET")
	router.HandleFunc("/api/invoke", s.handleInvoke).Methods("POST")
	router.PathPrefix("/output/").Handler(
		http.StripPrefix("/output/", http.FileServer(http.Dir(s.outputDir))))

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{s.corsOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)

	slog.Info("Dashboard listening", "addr", s.addr)
	return http.ListenAndServe(s.addr, handler)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>datalens</title></head>
<body>
<h1>datalens</h1>
<p>Last dataset: {{if .LastDataset}}{{.LastDataset}}{{else}}none{{end}}</p>
<h2>Datasets</h2>
<ul>{{range .Files}}<li>{{.}}</li>{{else}}<li>no CSV files in the data directory</li>{{end}}</ul>
<h2>Operations</h2>
<ul>{{range .Tools}}<li><b>{{.Name}}</b>: {{.Description}}</li>{{end}}</ul>
<p>POST JSON {"op": ..., "args": {...}} to /api/invoke.</p>
</body>
</html>`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	files, err := s.store.List()
	if err != nil {
		files = nil
	}

	session, _ := s.sessions.Get(r, sessionName)
	last, _ := session.Values["last_dataset"].(string)

	data := struct {
		Files       []string
		Tools       []dispatch.Operation
		LastDataset string
	}{files, s.dispatcher.Catalog(), last}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		slog.Error("index render failed", "error", err)
	}
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.dispatcher.Catalog()})
}

type fileInfo struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": errs.AsError(err)})
		return
	}

	files := make([]fileInfo, 0, len(names))
	for _, name := range names {
		path, resolveErr := s.store.Resolve(name)
		if resolveErr != nil {
			continue
		}
		if info, statErr := os.Stat(path); statErr == nil {
			files = append(files, fileInfo{Name: name, Size: info.Size(), Modified: info.ModTime().Unix()})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

type invokeRequest struct {
	Op   string         `json:"op"`
	Args map[string]any `json:"args"`
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dispatch.Result{
			Error: errs.NewInvalidArguments("invalid request body: %v", err),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), invokeTimeout)
	defer cancel()
	result := s.dispatcher.Invoke(ctx, req.Op, req.Args)

	// Remember the dataset for the next dashboard visit.
	if path, ok := req.Args["path"].(string); ok && result.OK {
		session, _ := s.sessions.Get(r, sessionName)
		session.Values["last_dataset"] = path
		_ = session.Save(r, w)
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
