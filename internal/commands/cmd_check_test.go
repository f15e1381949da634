package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func Test_checkFile(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		files   map[string]string // extra files written next to the config
		want    []string          // one substring per expected problem, in order
	}{
		{
			name: "valid config",
			config: `
profile:
  first_name: Ada

jobs:
  - name: acme
    url: https://acme.example/apply
    steps:
      - action: fill
        selector: "#name"
        value: "{{ .Profile.first_name }}"
      - action: upload
        selector: "#resume"
        files: resume.pdf
`,
			files: map[string]string{"resume.pdf": "%PDF"},
			want:  nil,
		},
		{
			name: "document without jobs",
			config: `
profile:
  first_name: Ada
`,
			want: []string{"no jobs defined"},
		},
		{
			name: "unknown action",
			config: `
jobs:
  - name: acme
    url: https://acme.example
    steps:
      - action: teleport
        selector: "#door"
`,
			want: []string{`unsupported action "teleport"`},
		},
		{
			name: "missing required option",
			config: `
jobs:
  - name: acme
    url: https://acme.example
    steps:
      - action: fill
        selector: "#name"
`,
			want: []string{`requires a "value" option`},
		},
		{
			name: "unknown profile key in template",
			config: `
profile:
  first_name: Ada

jobs:
  - name: acme
    url: https://acme.example
    steps:
      - action: fill
        selector: "#name"
        value: "{{ .Profile.nope }}"
`,
			want: []string{"nope"},
		},
		{
			name: "missing upload file",
			config: `
jobs:
  - name: acme
    url: https://acme.example
    steps:
      - action: upload
        selector: "#resume"
        files: missing.pdf
`,
			want: []string{"missing.pdf does not exist"},
		},
		{
			name: "problems reported per step in order",
			config: `
jobs:
  - name: acme
    url: https://acme.example
    steps:
      - action: teleport
        selector: "#door"
      - action: click
        selector: "#ok"
      - action: upload
        selector: "#resume"
        files: missing.pdf
`,
			want: []string{
				`step 01: unsupported action "teleport"`,
				"step 03: upload file",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()

			for name, content := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
					t.Fatalf("failed to write %s: %v", name, err)
				}
			}

			path := filepath.Join(dir, "jobflow.yml")
			if err := os.WriteFile(path, []byte(tt.config), 0o644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			result := checkFile(path)

			if result.File != path {
				t.Errorf("result.File = %v, want %v", result.File, path)
			}
			if len(result.Problems) != len(tt.want) {
				t.Fatalf("problems = %v, want %d problem(s)", result.Problems, len(tt.want))
			}
			for i, substr := range tt.want {
				if !strings.Contains(result.Problems[i], substr) {
					t.Errorf("problems[%d] = %v, want substring %q", i, result.Problems[i], substr)
				}
			}
		})
	}
}
