// Package templates holds the embedded email templates. Each template name
// has three files: <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl.
package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmpl "html/template"
	"io"
	"io/fs"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

var ErrUnknownTemplate = errors.New("unknown email template")

// defaultFn supports {{ .Value | default "Fallback" }}.
func defaultFn(fallback, value any) any {
	if value == nil {
		return fallback
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return fallback
	}
	return value
}

var funcs = map[string]any{
	"now":     func() time.Time { return time.Now().UTC() },
	"upper":   strings.ToUpper,
	"default": defaultFn,
}

type parsed struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

// parsed templates by name; the embedded files never change at runtime
var cache sync.Map

func load(name string) (*parsed, error) {
	if v, ok := cache.Load(name); ok {
		return v.(*parsed), nil
	}
	if _, err := fs.Stat(FS, name+".subject.tmpl"); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	var (
		p   parsed
		err error
	)
	if p.subject, err = parseText(name + ".subject.tmpl"); err != nil {
		return nil, err
	}
	if p.text, err = parseText(name + ".text.tmpl"); err != nil {
		return nil, err
	}
	file := name + ".html.tmpl"
	if p.html, err = htmpl.New(file).Funcs(funcs).ParseFS(FS, file); err != nil {
		return nil, fmt.Errorf("parse %q: %w", file, err)
	}
	v, _ := cache.LoadOrStore(name, &p)
	return v.(*parsed), nil
}

func parseText(file string) (*texttpl.Template, error) {
	t, err := texttpl.New(file).Funcs(funcs).ParseFS(FS, file)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", file, err)
	}
	return t, nil
}

type executor interface {
	Name() string
	Execute(w io.Writer, data any) error
}

func execute(t executor, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// Render produces the subject, plain-text and HTML bodies for the named template.
func Render(name string, data any) (subject, text, html string, err error) {
	p, err := load(name)
	if err != nil {
		return "", "", "", err
	}
	if subject, err = execute(p.subject, data); err != nil {
		return "", "", "", err
	}
	if text, err = execute(p.text, data); err != nil {
		return "", "", "", err
	}
	if html, err = execute(p.html, data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
