// Package commands contains the CLI commands for the application
package commands

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jobflow-cli/jobflow/internal/engine"
)

// expandTagShortcuts extracts `+tag` / `!tag` tokens from a filter
// expression and returns the remaining expression plus one expr fragment per
// shortcut.
//
//	+remote  -> "remote" in tags
//	!onsite  -> not ("onsite" in tags)
func expandTagShortcuts(input string) (string, []string) {
	var (
		exprTokens []string
		tagExprs   []string
	)

	for _, token := range strings.Fields(input) {
		switch {
		case strings.HasPrefix(token, "+") && len(token) > 1:
			tagExprs = append(tagExprs, fmt.Sprintf("%q in tags", token[1:]))
		case strings.HasPrefix(token, "!") && len(token) > 1:
			tagExprs = append(tagExprs, fmt.Sprintf("not (%q in tags)", token[1:]))
		default:
			exprTokens = append(exprTokens, token)
		}
	}

	return strings.Join(exprTokens, " "), tagExprs
}

var macroPattern = regexp.MustCompile(`@([a-zA-Z_][a-zA-Z0-9_]*)`)

// expandMacros replaces `@name` references with the parenthesized macro body
// from the configuration. Undefined macros are an error.
func expandMacros(input string, macros map[string]string) (string, error) {
	var expandErr error

	expanded := macroPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := strings.TrimPrefix(match, "@")

		body, ok := macros[name]
		if !ok {
			expandErr = fmt.Errorf("undefined macro %q", name)
			return match
		}

		return "(" + body + ")"
	})

	if expandErr != nil {
		return "", expandErr
	}

	return expanded, nil
}

// compileExpr compiles a job filter expression once for reuse. When
// enableExpansions is set, macro and tag shortcuts are expanded first.
func compileExpr(code string, macros map[string]string, enableExpansions bool) (*vm.Program, error) {
	if enableExpansions {
		expanded, err := expandMacros(code, macros)
		if err != nil {
			return nil, err
		}

		rest, tagExprs := expandTagShortcuts(expanded)

		parts := tagExprs
		if rest != "" {
			parts = append(parts, rest)
		}

		code = strings.Join(parts, " && ")
	}

	if code == "" {
		code = "true" // default: match everything
	}

	return expr.Compile(code, expr.AsBool())
}

// evalCompiledExpr evaluates a pre-compiled expression with given context
func evalCompiledExpr(program *vm.Program, env map[string]any) (bool, error) {
	output, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	// expr.AsBool() ensures output is always bool
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not evaluate to boolean, got %T", output)
	}

	return result, nil
}

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Bold(true)
	bracketStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#c0caf5"))
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

// createStyledHeader creates a styled divider header for a job section
func createStyledHeader(label, name string, terminalWidth int) string {
	// Build the header parts
	leftPart := fmt.Sprintf("%s %s%s%s %s ",
		dividerStyle.Render("--"),
		bracketStyle.Render("["),
		labelStyle.Render(label),
		bracketStyle.Render("]"),
		nameStyle.Render(name),
	)

	// Calculate visible length (excluding ANSI codes)
	// Approximate: "-- [LABEL] name "
	visibleLength := 4 + len(label) + len(name) + 4

	// Fill remaining space with dashes
	remainingSpace := max(terminalWidth-visibleLength, 0)

	divider := dividerStyle.Render(strings.Repeat("-", remainingSpace))
	return leftPart + divider
}

// formatOptions renders a step's options as a stable "key=value" line.
func formatOptions(opts engine.Options) string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, opts[k]))
	}

	return strings.Join(parts, " ")
}
