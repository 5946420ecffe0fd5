// Package ui serves the viewer: an HTML page with one tab per sheet plus a
// JSON API over the same state.
package ui

import (
	"context"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sheetview/adapters/source"
	"sheetview/domain/sheet"
	"sheetview/internal"
	apperrors "sheetview/internal/errors"
	"sheetview/internal/profiling"
	"sheetview/internal/viewer"
	"sheetview/ports"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/semaphore"
)

// ServerConfig holds the limits applied to incoming loads
type ServerConfig struct {
	MaxUploadBytes int64
	URL            source.URLConfig
	// LoadTimeout bounds one load request end to end.
	LoadTimeout time.Duration
	// MaxConcurrentLoads caps loads running at once; further requests wait.
	MaxConcurrentLoads int64
}

// DefaultServerConfig returns the defaults used when no config is loaded
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		MaxUploadBytes:     source.DefaultMaxBytes,
		URL:                source.DefaultURLConfig(),
		LoadTimeout:        2 * time.Minute,
		MaxConcurrentLoads: 4,
	}
}

// Server is the gin-based viewer server
type Server struct {
	router    *gin.Engine
	viewer    *viewer.Viewer
	history   ports.LoadHistoryRepository
	templates *template.Template
	config    ServerConfig
	loads     *semaphore.Weighted
	logger    *internal.Logger
}

// NewServer creates the server and registers its routes. history may be nil.
func NewServer(v *viewer.Viewer, history ports.LoadHistoryRepository, config ServerConfig) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = source.DefaultMaxBytes
	}
	if config.LoadTimeout <= 0 {
		config.LoadTimeout = DefaultServerConfig().LoadTimeout
	}
	if config.URL.MaxBytes <= 0 {
		config.URL.MaxBytes = config.MaxUploadBytes
	}
	if config.MaxConcurrentLoads <= 0 {
		config.MaxConcurrentLoads = DefaultServerConfig().MaxConcurrentLoads
	}

	s := &Server{
		router:    gin.New(),
		viewer:    v,
		history:   history,
		templates: templates,
		config:    config,
		loads:     semaphore.NewWeighted(config.MaxConcurrentLoads),
		logger:    internal.NewDefaultLogger(),
	}
	s.router.Use(gin.Logger(), gin.Recovery())
	s.router.MaxMultipartMemory = 32 << 20
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server on addr
func (s *Server) Start(addr string) error {
	s.logger.Info("[Server] listening on %s", addr)
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.StaticFS("/static", http.FS(staticFS()))

	s.router.GET("/", s.handleIndex)
	s.router.GET("/help", s.handleHelp)

	api := s.router.Group("/api")
	api.POST("/load/file", s.handleLoadFile)
	api.POST("/load/url", s.handleLoadURL)
	api.GET("/status", s.handleStatus)
	api.GET("/sheets", s.handleSheets)
	api.GET("/sheets/:index", s.handleSheet)
	api.GET("/sheets/:index/profile", s.handleSheetProfile)
	api.GET("/history", s.handleHistory)
}

// renderTemplate executes a template with the given data
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := executeTemplate(s.templates, c.Writer, templateName, data); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed", "details": err.Error()})
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	active, _ := strconv.Atoi(c.Query("sheet"))
	page := BuildPage(StateFromSnapshot(s.viewer.Snapshot(), active))
	s.renderTemplate(c, "index.html", page)
}

func (s *Server) handleHelp(c *gin.Context) {
	s.renderTemplate(c, "help.html", gin.H{"Body": helpPage()})
}

func (s *Server) handleLoadFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		s.logger.Warn("[handleLoadFile] no file uploaded: %v", err)
		s.respondError(c, apperrors.InvalidInput("no file uploaded in field \"file\""))
		return
	}
	defer file.Close()

	if header.Size > s.config.MaxUploadBytes {
		s.respondError(c, apperrors.InvalidInput("file exceeds the upload size limit"))
		return
	}
	if !sheet.IsAcceptedExtension(header.Filename) {
		// the accepted list is advisory; detection decides
		s.logger.Warn("[handleLoadFile] unexpected extension for %q", header.Filename)
	}

	loader := source.NewUploadLoader(header.Filename, header.Header.Get("Content-Type"), file)
	loader.MaxBytes = s.config.MaxUploadBytes
	s.load(c, loader)
}

func (s *Server) handleLoadURL(c *gin.Context) {
	rawURL := strings.TrimSpace(c.PostForm("url"))
	if rawURL == "" && strings.HasPrefix(c.ContentType(), "application/json") {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
		if err == nil && gjson.ValidBytes(body) {
			rawURL = strings.TrimSpace(gjson.GetBytes(body, "url").String())
		}
	}
	if rawURL == "" {
		s.respondError(c, apperrors.InvalidInput("missing \"url\""))
		return
	}
	s.load(c, source.NewURLLoader(rawURL, s.config.URL))
}

// load runs one load and answers with JSON, or redirects browser form posts
// back to the page
func (s *Server) load(c *gin.Context, loader ports.SourceLoader) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.LoadTimeout)
	defer cancel()

	if err := s.loads.Acquire(ctx, 1); err != nil {
		s.logger.Warn("[Server] gave up waiting for a load slot: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many loads in progress", "code": apperrors.CodeInternalError})
		return
	}
	defer s.loads.Release(1)

	res, err := s.viewer.Load(ctx, loader)
	if !wantsJSON(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"load_id":     res.ID,
		"generation":  res.Generation,
		"source":      res.Source,
		"format":      res.Format,
		"sheet_names": res.Collection.SheetNames,
		"bytes":       res.Bytes,
		"duration_ms": res.Duration.Milliseconds(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	snap := s.viewer.Snapshot()
	resp := gin.H{
		"generation":  snap.Generation,
		"loading":     snap.Loading,
		"last_error":  snap.LastError,
		"source":      snap.Source,
		"format":      snap.Format,
		"bytes":       snap.Bytes,
		"sheet_count": snap.Collection.Len(),
	}
	if !snap.LoadedAt.IsZero() {
		resp["loaded_at"] = snap.LoadedAt.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSheets(c *gin.Context) {
	coll := s.viewer.Collection()
	if coll == nil {
		coll = &sheet.SheetCollection{
			SheetNames: []string{},
			Data:       [][]sheet.Row{},
			Columns:    [][]sheet.ColumnDescriptor{},
		}
	}
	c.JSON(http.StatusOK, coll)
}

func (s *Server) handleSheet(c *gin.Context) {
	name, rows, cols, ok := s.sheetParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":    name,
		"columns": cols,
		"rows":    rows,
	})
}

func (s *Server) handleSheetProfile(c *gin.Context) {
	name, rows, cols, ok := s.sheetParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":    name,
		"rows":    len(rows),
		"columns": profiling.ProfileSheet(rows, cols),
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusOK, gin.H{"history": []interface{}{}})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		s.respondError(c, apperrors.InvalidInput("limit must be a positive integer"))
		return
	}
	records, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, apperrors.WithCode(apperrors.CodeDatabaseError, apperrors.Wrapf(err, "failed to read last %d loads", limit)))
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

func (s *Server) sheetParam(c *gin.Context) (string, []sheet.Row, []sheet.ColumnDescriptor, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		s.respondError(c, apperrors.InvalidInput("sheet index must be an integer"))
		return "", nil, nil, false
	}
	name, rows, cols, ok := s.viewer.Collection().Sheet(index)
	if !ok {
		s.respondError(c, apperrors.NotFound("sheet "+strconv.Itoa(index)))
		return "", nil, nil, false
	}
	return name, rows, cols, true
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError && !apperrors.IsAppError(err) {
		s.logger.Error("[Server] unclassified error on %s: %v", c.Request.URL.Path, err)
	}
	appErr := apperrors.FromError(err)
	c.JSON(status, gin.H{
		"error": appErr.Error(),
		"code":  appErr.Code,
	})
}

// wantsJSON is false for plain browser form posts
func wantsJSON(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	return !strings.Contains(accept, "text/html")
}
