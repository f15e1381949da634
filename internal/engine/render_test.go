package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/jobflow-cli/jobflow/internal/core"
)

func testRenderer(t *testing.T, profile map[string]any) *Renderer {
	t.Helper()

	r, err := NewRenderer(profile, core.NewPathResolver("/config/dir"))
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	return r
}

func TestRenderer_RenderString(t *testing.T) {
	r := testRenderer(t, map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain string passes through",
			input: "#first-name",
			want:  "#first-name",
		},
		{
			name:  "profile substitution",
			input: "{{ .Profile.first_name }}",
			want:  "Ada",
		},
		{
			name:  "mixed template",
			input: "Hello {{ .Profile.first_name }} {{ .Profile.last_name }}!",
			want:  "Hello Ada Lovelace!",
		},
		{
			name:  "path helper resolves against config dir",
			input: `{{ path "files/resume.pdf" }}`,
			want:  "/config/dir/files/resume.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.RenderString("test", tt.input)
			if err != nil {
				t.Fatalf("RenderString() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderer_UnknownKeyErrors(t *testing.T) {
	r := testRenderer(t, map[string]any{"first_name": "Ada"})

	_, err := r.RenderString("test", "{{ .Profile.nope }}")
	if err == nil {
		t.Fatal("RenderString() expected error for unknown profile key")
	}

	var te *TemplateError
	if !errors.As(err, &te) {
		t.Errorf("RenderString() error type = %T, want *TemplateError", err)
	}
}

func TestRenderer_TwoPassProfile(t *testing.T) {
	r := testRenderer(t, map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"full_name":  "{{ .Profile.first_name }} {{ .Profile.last_name }}",
	})

	got, err := r.RenderString("test", "{{ .Profile.full_name }}")
	if err != nil {
		t.Fatalf("RenderString() error = %v", err)
	}
	if got != "Ada Lovelace" {
		t.Errorf("RenderString() = %v, want Ada Lovelace", got)
	}
}

func TestRenderer_WithJob(t *testing.T) {
	r := testRenderer(t, map[string]any{"first_name": "Ada"})

	job := core.Job{
		Name: "acme",
		URL:  "https://acme.example/apply",
		Meta: map[string]any{"source": "referral"},
	}

	jr := r.WithJob(job)

	got, err := jr.RenderString("test", "{{ .Job.Name }} via {{ .Job.source }}")
	if err != nil {
		t.Fatalf("RenderString() error = %v", err)
	}
	if got != "acme via referral" {
		t.Errorf("RenderString() = %v", got)
	}

	// The base renderer must not leak job context.
	if _, err := r.RenderString("test", "{{ .Job.Name }}"); err == nil {
		t.Error("base renderer unexpectedly resolved .Job")
	}
}

func TestRenderer_RenderOptions(t *testing.T) {
	r := testRenderer(t, map[string]any{"first_name": "Ada"})

	opts, err := r.RenderOptions("test", map[string]any{
		"selector": "#name",
		"value":    "{{ .Profile.first_name }}",
		"files":    []any{`{{ path "resume.pdf" }}`, "cover.pdf"},
		"count":    3,
	})
	if err != nil {
		t.Fatalf("RenderOptions() error = %v", err)
	}

	if got := opts.String("value"); got != "Ada" {
		t.Errorf("value = %v, want Ada", got)
	}
	if got := opts.String("selector"); got != "#name" {
		t.Errorf("selector = %v", got)
	}

	files := opts.StringSlice("files")
	if len(files) != 2 || files[0] != "/config/dir/resume.pdf" || files[1] != "cover.pdf" {
		t.Errorf("files = %v", files)
	}

	if got := opts.Int("count", 0); got != 3 {
		t.Errorf("count = %v, want 3", got)
	}
}

func TestTemplateError_ParsesPosition(t *testing.T) {
	r := testRenderer(t, map[string]any{})

	_, err := r.RenderString("bad", "line one\n{{ .Profile.missing }}")
	if err == nil {
		t.Fatal("expected error")
	}

	var te *TemplateError
	if !errors.As(err, &te) {
		t.Fatalf("error type = %T, want *TemplateError", err)
	}

	if te.Line != 2 {
		t.Errorf("Line = %d, want 2", te.Line)
	}
	if !strings.Contains(te.Error(), "bad") {
		t.Errorf("Error() = %v, want the template name included", te.Error())
	}
}
