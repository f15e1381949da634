// Package engine interprets a job's ordered steps against a browser driver,
// substituting templated profile values into each step's options.
package engine

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"strings"
	"text/template"

	"github.com/jobflow-cli/jobflow/internal/core"
)

// Renderer substitutes profile values into step option strings using
// text/template. The profile itself is rendered once up front so profile
// values may reference each other.
type Renderer struct {
	data  map[string]any
	funcs template.FuncMap
}

func NewRenderer(profile map[string]any, resolver core.PathResolver) (*Renderer, error) {
	funcs := template.FuncMap{
		"path": resolver.Resolve,
		"env":  os.Getenv,
	}

	// First pass renders the profile against its raw self so entries like
	// full_name: "{{ .Profile.first_name }} {{ .Profile.last_name }}" work.
	rendered, err := renderValue("profile", profile, map[string]any{"Profile": profile}, funcs)
	if err != nil {
		return nil, fmt.Errorf("failed to render profile: %w", err)
	}

	return &Renderer{
		data:  map[string]any{"Profile": rendered},
		funcs: funcs,
	}, nil
}

// WithJob returns a renderer whose context additionally exposes the job's
// name, url and metadata under .Job.
func (r *Renderer) WithJob(job core.Job) *Renderer {
	jobCtx := map[string]any{}
	maps.Copy(jobCtx, job.Meta)
	jobCtx["Name"] = job.Name
	jobCtx["URL"] = job.URL

	data := map[string]any{}
	maps.Copy(data, r.data)
	data["Job"] = jobCtx

	return &Renderer{data: data, funcs: r.funcs}
}

// RenderString renders a single template string. The name is used in error
// messages to identify the failing step.
func (r *Renderer) RenderString(name, s string) (string, error) {
	return renderString(name, s, r.data, r.funcs)
}

// RenderOptions renders every string found in the options mapping,
// recursing into nested lists and mappings.
func (r *Renderer) RenderOptions(name string, opts map[string]any) (Options, error) {
	rendered, err := renderValue(name, opts, r.data, r.funcs)
	if err != nil {
		return nil, err
	}

	out, ok := rendered.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("rendered options for %s are not a mapping", name)
	}

	return Options(out), nil
}

func renderValue(name string, v any, data map[string]any, funcs template.FuncMap) (any, error) {
	switch val := v.(type) {
	case string:
		return renderString(name, val, data, funcs)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			rendered, err := renderValue(name, item, data, funcs)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			rendered, err := renderValue(name, item, data, funcs)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered)
		}
		return out, nil
	default:
		return v, nil
	}
}

func renderString(name, s string, data map[string]any, funcs template.FuncMap) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(s)
	if err != nil {
		return "", NewTemplateError(name, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", NewTemplateError(name, err)
	}

	return buf.String(), nil
}
