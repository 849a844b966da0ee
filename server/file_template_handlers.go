package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const (
	layoutTemplate  = "layout.html"
	contentTypeHTML = "text/html; charset=utf-8"
)

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	content, err := fs.ReadFile(TemplateFilesFS(), name)
	if err != nil {
		return nil, err
	}
	return template.New(name).Parse(string(content))
}

// mustParseTemplate is for handler constructors, a missing embedded template is a build defect
func mustParseTemplate(name string) *template.Template {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		panic("Failed to parse " + name + " template: " + err.Error())
	}
	return tmpl
}

var layoutTmpl = mustParseTemplate(layoutTemplate)

// renderPage renders content into the shared layout
func (s *Server) renderPage(w http.ResponseWriter, status int, content *template.Template, data PageData) {
	var contentBuf bytes.Buffer
	if err := content.Execute(&contentBuf, data); err != nil {
		log.Err(err).Str("template", content.Name()).Msg("Failed to render content")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	data.Content = template.HTML(contentBuf.String())

	var page bytes.Buffer
	if err := layoutTmpl.Execute(&page, data); err != nil {
		log.Err(err).Msg("Failed to render layout")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if _, err := page.WriteTo(w); err != nil {
		log.Err(err).Msg("Failed to write page")
	}
}
