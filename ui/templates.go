package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"strings"
	"sync"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed templates/*.html static/* help.md
var embeddedFiles embed.FS

// parseTemplates loads the page templates from the embedded filesystem
func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return templates, nil
}

// staticFS returns the embedded static assets rooted at static/
func staticFS() fs.FS {
	sub, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		// static/ is embedded at build time
		panic(err)
	}
	return sub
}

// executeTemplate renders into a buffer so a failing template never leaves a
// half-written response
func executeTemplate(templates *template.Template, w io.Writer, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("[Templates] error rendering %s: %v", name, err)
		return err
	}
	if !strings.Contains(buf.String(), "</html>") {
		log.Printf("[Templates] WARNING: %s rendered without </html> (%d bytes)", name, buf.Len())
	}
	_, err := buf.WriteTo(w)
	return err
}

var (
	helpOnce sync.Once
	helpHTML template.HTML
)

// helpPage renders help.md once
func helpPage() template.HTML {
	helpOnce.Do(func() {
		source, err := embeddedFiles.ReadFile("help.md")
		if err != nil {
			log.Printf("[Templates] help.md missing: %v", err)
			return
		}
		helpHTML = template.HTML(renderMarkdown(source))
	})
	return helpHTML
}

func renderMarkdown(source []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank})
	return markdown.ToHTML(source, p, renderer)
}
