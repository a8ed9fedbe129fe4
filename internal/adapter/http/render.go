package adapthttp

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"travelbuddy/internal/app"
	"travelbuddy/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	pageError      = "error"
	currencySymbol = "₹"
)

// StaticFS returns the embedded static assets rooted at the static directory.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// view is the data every page template receives.
type view struct {
	Page      string
	User      *domain.User
	Data      map[string]any
	Error     string
	Flash     string
	CSRFField template.HTML
	SSO       bool
}

// views holds one parsed template set per page, each combined with the
// shared layout.
type views struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"price":    func(cents int64) string { return domain.FormatPrice(cents, currencySymbol) },
	"date":     func(t time.Time) string { return t.Format(domain.DateLayout) },
	"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}

func parseViews() (*views, error) {
	pages := []string{
		app.PageHome, app.PageLogin, app.PageRegister, app.PageBook,
		app.PageMyBookings, app.PageContact, app.PageNotFound, pageError,
	}
	v := &views{pages: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		t, err := template.New(p).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+p+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", p, err)
		}
		v.pages[p] = t
	}
	return v, nil
}

func (v *views) render(w io.Writer, page string, data view) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
