// Package render renders JSON responses through named templates and streams
// the result to the paginated writer.
package render

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/tidwall/gjson"

	"github.com/netascode/mgmt-cli/pager"
)

// EnvTemplatePath names the environment variable holding the template root.
const EnvTemplatePath = "RENDERER_TEMPLATE_PATH"

// DataKey is the name the response is bound to inside templates.
const DataKey = "json_output"

// TemplateNotFoundError is returned when a template does not exist below the
// template root.
type TemplateNotFoundError struct {
	Name string
	Dir  string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %q not found in %s", e.Name, e.Dir)
}

// TemplateRenderError is returned when a template fails to parse or execute.
type TemplateRenderError struct {
	Name string
	Err  error
}

func (e *TemplateRenderError) Error() string {
	return fmt.Sprintf("template %q: %v", e.Name, e.Err)
}

func (e *TemplateRenderError) Unwrap() error {
	return e.Err
}

// Renderer loads templates from a single root directory.
type Renderer struct {
	TemplateDir string
	Out         *pager.Writer
	ErrOut      io.Writer
	// Funcs are added to the default helpers and override them.
	Funcs template.FuncMap
}

// New returns a renderer writing to out; error text goes to stderr.
func New(templateDir string, out *pager.Writer) *Renderer {
	return &Renderer{TemplateDir: templateDir, Out: out, ErrOut: os.Stderr}
}

// Render executes template name against data and params. Null or missing
// data renders nothing.
func (r *Renderer) Render(name string, data gjson.Result, params map[string]interface{}) (string, error) {
	if !data.Exists() || data.Type == gjson.Null {
		return "", nil
	}
	tmpl, err := r.load(name)
	if err != nil {
		return "", err
	}
	vars := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		vars[k] = v
	}
	vars[DataKey] = data.Value()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, vars); err != nil {
		return "", &TemplateRenderError{Name: name, Err: err}
	}
	return buf.String(), nil
}

// RenderCLI renders and writes the result through the pager. It reports
// whether the user stopped the output. Null data is a silent no-op.
func (r *Renderer) RenderCLI(name string, data gjson.Result, params map[string]interface{}, disablePage bool) (bool, error) {
	if !data.Exists() || data.Type == gjson.Null {
		log.Printf("[DEBUG] no data to render with %s", name)
		return false, nil
	}
	text, err := r.Render(name, data, params)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		if r.ErrOut != nil {
			fmt.Fprintf(r.ErrOut, "%%Error: Unable to render output using template %s\n", name)
		}
		return false, err
	}
	return r.Out.Write(text, disablePage), nil
}

func (r *Renderer) path(name string) (string, bool) {
	if name == "" || filepath.IsAbs(name) {
		return "", false
	}
	root := filepath.Clean(r.TemplateDir)
	p := filepath.Join(root, name)
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return p, true
}

// load parses name together with the other templates in its directory so
// that {{template "header.tmpl" .}} works.
func (r *Renderer) load(name string) (*template.Template, error) {
	p, ok := r.path(name)
	if !ok {
		return nil, &TemplateNotFoundError{Name: name, Dir: r.TemplateDir}
	}
	src, err := os.ReadFile(p)
	if err != nil {
		log.Printf("[DEBUG] reading template %s: %v", p, err)
		return nil, &TemplateNotFoundError{Name: name, Dir: r.TemplateDir}
	}

	tmpl := template.New(name).Funcs(r.funcMap())
	if _, err := tmpl.Parse(trimBlocks(string(src))); err != nil {
		return nil, &TemplateRenderError{Name: name, Err: err}
	}

	dir := filepath.Dir(p)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return tmpl, nil
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != filepath.Ext(p) || e.Name() == filepath.Base(p) {
			continue
		}
		rel, _ := filepath.Rel(filepath.Clean(r.TemplateDir), filepath.Join(dir, e.Name()))
		if tmpl.Lookup(rel) != nil {
			continue
		}
		inc, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		if _, err := tmpl.New(rel).Parse(trimBlocks(string(inc))); err != nil {
			log.Printf("[DEBUG] skipping template %s: %v", rel, err)
		}
	}
	return tmpl, nil
}

func (r *Renderer) funcMap() template.FuncMap {
	fm := FuncMap()
	for k, v := range r.Funcs {
		fm[k] = v
	}
	return fm
}

var (
	blockKeyword = `(?:(?:if|else|end|range|with|define|block|break|continue)\b|/\*)`
	lstripRe     = regexp.MustCompile(`(?m)^[ \t]+(\{\{-?\s*` + blockKeyword + `)`)
	trimRe       = regexp.MustCompile(`(\{\{-?\s*` + blockKeyword + `(?:[^}\n]|\}[^}\n])*\}\})\n`)
)

// trimBlocks strips the indentation in front of block actions and the
// newline following them, so control flow does not leave blank lines.
func trimBlocks(src string) string {
	src = lstripRe.ReplaceAllString(src, "$1")
	return trimRe.ReplaceAllString(src, "$1")
}
