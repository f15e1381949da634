package commands

import (
	"testing"

	"github.com/jobflow-cli/jobflow/internal/engine"
)

func Test_expandTagShortcuts(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantExpr     string
		wantTagExprs []string
	}{
		{
			name:         "single include tag",
			input:        "+remote",
			wantExpr:     "",
			wantTagExprs: []string{`"remote" in tags`},
		},
		{
			name:         "single exclude tag",
			input:        "!onsite",
			wantExpr:     "",
			wantTagExprs: []string{`not ("onsite" in tags)`},
		},
		{
			name:         "mixed include and exclude tags",
			input:        "+remote !onsite",
			wantExpr:     "",
			wantTagExprs: []string{`"remote" in tags`, `not ("onsite" in tags)`},
		},
		{
			name:         "tags with expression",
			input:        `+remote name == "acme"`,
			wantExpr:     `name == "acme"`,
			wantTagExprs: []string{`"remote" in tags`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotExpr, gotTagExprs := expandTagShortcuts(tt.input)
			if gotExpr != tt.wantExpr {
				t.Errorf("expandTagShortcuts() expr = %v, want %v", gotExpr, tt.wantExpr)
			}
			if len(gotTagExprs) != len(tt.wantTagExprs) {
				t.Errorf("expandTagShortcuts() tagExprs length = %v, want %v", len(gotTagExprs), len(tt.wantTagExprs))
				return
			}
			for i, expr := range gotTagExprs {
				if expr != tt.wantTagExprs[i] {
					t.Errorf("expandTagShortcuts() tagExprs[%d] = %v, want %v", i, expr, tt.wantTagExprs[i])
				}
			}
		})
	}
}

func Test_expandMacros(t *testing.T) {
	macros := map[string]string{
		"remote": `"remote" in tags`,
		"senior": `"staff" in tags || "senior" in tags`,
	}

	tests := []struct {
		name    string
		input   string
		macros  map[string]string
		want    string
		wantErr bool
	}{
		{
			name:    "single macro",
			input:   "@remote",
			macros:  macros,
			want:    `("remote" in tags)`,
			wantErr: false,
		},
		{
			name:    "macro in expression",
			input:   `@remote && name == "acme"`,
			macros:  macros,
			want:    `("remote" in tags) && name == "acme"`,
			wantErr: false,
		},
		{
			name:    "undefined macro",
			input:   "@undefined",
			macros:  macros,
			want:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandMacros(tt.input, tt.macros)
			if (err != nil) != tt.wantErr {
				t.Errorf("expandMacros() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("expandMacros() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_compileExpr(t *testing.T) {
	macros := map[string]string{
		"remote": `"remote" in tags`,
		"senior": `"senior" in tags`,
	}

	tests := []struct {
		name             string
		input            string
		enableExpansions bool
		wantErr          bool
	}{
		{
			name:             "simple expression",
			input:            `name == "acme"`,
			enableExpansions: true,
			wantErr:          false,
		},
		{
			name:             "empty expression matches everything",
			input:            "",
			enableExpansions: true,
			wantErr:          false,
		},
		{
			name:             "tag shortcuts only",
			input:            "+remote !onsite",
			enableExpansions: true,
			wantErr:          false,
		},
		{
			name:             "macro expansion",
			input:            "@remote",
			enableExpansions: true,
			wantErr:          false,
		},
		{
			name:             "combined shortcuts and macros",
			input:            "@remote +swe !onsite",
			enableExpansions: true,
			wantErr:          false,
		},
		{
			name:             "invalid expression syntax",
			input:            "invalid syntax @@",
			enableExpansions: true,
			wantErr:          true,
		},
		{
			name:             "expansions disabled - macro causes error",
			input:            "@remote",
			enableExpansions: false,
			wantErr:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := compileExpr(tt.input, macros, tt.enableExpansions)
			if (err != nil) != tt.wantErr {
				t.Errorf("compileExpr() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && program == nil {
				t.Error("compileExpr() returned nil program without error")
			}
		})
	}
}

func Test_evalCompiledExpr(t *testing.T) {
	macros := map[string]string{
		"remote": `"remote" in tags`,
	}

	tests := []struct {
		name       string
		expression string
		env        map[string]any
		want       bool
	}{
		{
			name:       "include tag matches",
			expression: "+swe",
			env:        map[string]any{"tags": []string{"swe", "remote"}},
			want:       true,
		},
		{
			name:       "exclude tag matches (should exclude)",
			expression: "!onsite",
			env:        map[string]any{"tags": []string{"onsite", "swe"}},
			want:       false,
		},
		{
			name:       "combined include and exclude",
			expression: "+swe !onsite",
			env:        map[string]any{"tags": []string{"swe", "remote"}},
			want:       true,
		},
		{
			name:       "macro expansion matches",
			expression: "@remote",
			env:        map[string]any{"tags": []string{"remote"}},
			want:       true,
		},
		{
			name:       "name match",
			expression: `name == "acme"`,
			env:        map[string]any{"name": "acme", "tags": []string{}},
			want:       true,
		},
		{
			name:       "empty expression matches everything",
			expression: "",
			env:        map[string]any{"name": "acme", "tags": []string{}},
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := compileExpr(tt.expression, macros, true)
			if err != nil {
				t.Fatalf("compileExpr() unexpected error = %v", err)
			}

			got, err := evalCompiledExpr(program, tt.env)
			if err != nil {
				t.Fatalf("evalCompiledExpr() unexpected error = %v", err)
			}

			if got != tt.want {
				t.Errorf("evaluation result = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_formatOptions(t *testing.T) {
	got := formatOptions(engine.Options{
		"value":    "Ada",
		"selector": "#name",
	})

	want := "selector=#name value=Ada"
	if got != want {
		t.Errorf("formatOptions() = %v, want %v", got, want)
	}
}
