package ui

import (
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"sheetview/internal/viewer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// App is a read-only preview of one viewer, served with chi
type App struct {
	router    *chi.Mux
	viewer    *viewer.Viewer
	templates *template.Template
	config    Config
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates a new preview application over v
func NewApp(v *viewer.Viewer, config Config) (*App, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if config.Port == "" {
		config.Port = "8080"
	}

	app := &App{
		router:    chi.NewRouter(),
		viewer:    v,
		templates: templates,
		config:    config,
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS()))))

	a.router.Get("/", a.handleIndex)
	a.router.Get("/help", a.handleHelp)
	a.router.Get("/api/status", a.handleStatus)
	a.router.Get("/api/sheets", a.handleSheets)
	a.router.Get("/api/sheets/{index}", a.handleSheet)
}

// Handler exposes the router, mainly for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := ":" + a.config.Port
	log.Printf("[App] Starting preview server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	active, _ := strconv.Atoi(r.URL.Query().Get("sheet"))
	page := BuildPage(StateFromSnapshot(a.viewer.Snapshot(), active))
	page.ReadOnly = true
	a.renderTemplate(w, "index.html", page)
}

func (a *App) handleHelp(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, "help.html", map[string]interface{}{"Body": helpPage()})
}

func (a *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := a.viewer.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generation":  snap.Generation,
		"loading":     snap.Loading,
		"last_error":  snap.LastError,
		"source":      snap.Source,
		"format":      snap.Format,
		"sheet_count": snap.Collection.Len(),
	})
}

func (a *App) handleSheets(w http.ResponseWriter, r *http.Request) {
	coll := a.viewer.Collection()
	if coll == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"sheet_names": []string{}})
		return
	}
	writeJSON(w, http.StatusOK, coll)
}

func (a *App) handleSheet(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sheet index must be an integer"})
		return
	}
	name, rows, cols, ok := a.viewer.Collection().Sheet(index)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "sheet not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"name": name, "columns": cols, "rows": rows})
}

// Template helpers
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := executeTemplate(a.templates, w, templateName, data); err != nil {
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[App] error encoding response: %v", err)
	}
}
