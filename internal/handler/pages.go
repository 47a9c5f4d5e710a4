package handler

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"doc-converter/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages renders the server-side HTML views.
type Pages struct {
	templates *template.Template
	logger    domain.Logger
}

func NewPages(logger domain.Logger) (*Pages, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Pages{templates: tmpl, logger: logger}, nil
}

type pageData struct {
	Title    string
	Username string
}

func (p *Pages) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := p.templates.ExecuteTemplate(w, name, data); err != nil {
		p.logger.Error("Failed to render page", err, "template", name)
	}
}

// Index shows the upload form and document list.
func (p *Pages) Index(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Documents"}
	if sess, ok := GetSessionFromContext(r); ok {
		data.Username = sess.Username
	}
	p.render(w, "index.html", data)
}

func (p *Pages) Login(w http.ResponseWriter, r *http.Request) {
	p.render(w, "login.html", pageData{Title: "Login"})
}

func (p *Pages) Register(w http.ResponseWriter, r *http.Request) {
	p.render(w, "register.html", pageData{Title: "Register"})
}

// StaticHandler serves the embedded scripts under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
