package engine

import (
	"testing"
	"time"

	"github.com/jobflow-cli/jobflow/internal/core"
)

func TestOptions_Accessors(t *testing.T) {
	opts := Options{
		"selector":    "#name",
		"empty":       "",
		"count":       uint64(3),
		"delay_ms":    float64(250),
		"checked":     false,
		"checked_str": "true",
		"files":       []any{"a.pdf", "b.pdf"},
		"single":      "only.pdf",
	}

	if got := opts.String("selector"); got != "#name" {
		t.Errorf("String(selector) = %v", got)
	}
	if got := opts.String("missing"); got != "" {
		t.Errorf("String(missing) = %v, want empty", got)
	}

	if _, err := opts.RequireString("missing"); err == nil {
		t.Error("RequireString(missing) expected error")
	}
	if v, err := opts.RequireString("empty"); err != nil || v != "" {
		t.Errorf("RequireString(empty) = %q, %v; want empty string, nil", v, err)
	}

	if got := opts.Int("count", 0); got != 3 {
		t.Errorf("Int(count) = %v, want 3", got)
	}
	if got := opts.Int("missing", 7); got != 7 {
		t.Errorf("Int(missing) = %v, want default 7", got)
	}

	if got := opts.Millis("delay_ms", 0); got != 250*time.Millisecond {
		t.Errorf("Millis(delay_ms) = %v, want 250ms", got)
	}

	if opts.Bool("checked", true) {
		t.Error("Bool(checked) = true, want false")
	}
	if !opts.Bool("checked_str", false) {
		t.Error("Bool(checked_str) = false, want true")
	}
	if !opts.Bool("missing", true) {
		t.Error("Bool(missing) = false, want default true")
	}

	if got := opts.StringSlice("files"); len(got) != 2 || got[0] != "a.pdf" {
		t.Errorf("StringSlice(files) = %v", got)
	}
	if got := opts.StringSlice("single"); len(got) != 1 || got[0] != "only.pdf" {
		t.Errorf("StringSlice(single) = %v", got)
	}
	if got := opts.StringSlice("missing"); got != nil {
		t.Errorf("StringSlice(missing) = %v, want nil", got)
	}

	if _, err := opts.Selector(); err != nil {
		t.Errorf("Selector() error = %v", err)
	}
	if _, err := (Options{}).Selector(); err == nil {
		t.Error("Selector() on empty options expected error")
	}
}

func TestValidateStep(t *testing.T) {
	tests := []struct {
		name    string
		step    core.Step
		wantErr bool
	}{
		{
			name:    "valid fill",
			step:    core.Step{Action: "fill", Options: map[string]any{"selector": "#a", "value": "x"}},
			wantErr: false,
		},
		{
			name:    "fill missing value",
			step:    core.Step{Action: "fill", Options: map[string]any{"selector": "#a"}},
			wantErr: true,
		},
		{
			name:    "unknown action",
			step:    core.Step{Action: "teleport", Options: map[string]any{}},
			wantErr: true,
		},
		{
			name:    "select with value",
			step:    core.Step{Action: "select", Options: map[string]any{"selector": "#a", "value": "US"}},
			wantErr: false,
		},
		{
			name:    "select with values",
			step:    core.Step{Action: "select", Options: map[string]any{"selector": "#a", "values": []any{"US"}}},
			wantErr: false,
		},
		{
			name:    "select without value or values",
			step:    core.Step{Action: "select", Options: map[string]any{"selector": "#a"}},
			wantErr: true,
		},
		{
			name:    "press with key alias",
			step:    core.Step{Action: "press", Options: map[string]any{"selector": "#a", "key": "Enter"}},
			wantErr: false,
		},
		{
			name:    "wait without options",
			step:    core.Step{Action: "wait", Options: map[string]any{}},
			wantErr: false,
		},
		{
			name:    "assert_text without selector",
			step:    core.Step{Action: "assert_text", Options: map[string]any{"text": "Thanks"}},
			wantErr: false,
		},
		{
			name:    "templated value passes static validation",
			step:    core.Step{Action: "fill", Options: map[string]any{"selector": "#a", "value": "{{ .Profile.x }}"}},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStep(tt.step)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStep() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestActions_CoversHandlerTable(t *testing.T) {
	actions := Actions()
	if len(actions) != len(steps) {
		t.Fatalf("Actions() length = %d, want %d", len(actions), len(steps))
	}

	for _, name := range actions {
		if _, ok := Lookup(name); !ok {
			t.Errorf("Lookup(%q) missing", name)
		}
	}
}
