package engine

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jobflow-cli/jobflow/internal/browser"
	"github.com/jobflow-cli/jobflow/internal/core"
)

// Options is a step's rendered, action-specific parameter mapping.
type Options map[string]any

func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// String returns the option as a string, or "" when absent.
func (o Options) String(key string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return ""
	}

	return fmt.Sprint(v)
}

// RequireString returns the option as a string, erroring when the key is
// missing entirely. An explicitly empty value is allowed.
func (o Options) RequireString(key string) (string, error) {
	if !o.Has(key) {
		return "", fmt.Errorf("step requires a %q option", key)
	}

	return o.String(key), nil
}

// Selector returns the required, non-empty selector option.
func (o Options) Selector() (string, error) {
	s := o.String("selector")
	if s == "" {
		return "", fmt.Errorf("step requires a 'selector'")
	}

	return s, nil
}

// Int returns the option as an int, handling the numeric types the YAML
// decoder may produce, or def when the option is absent or unparsable.
func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return def
}

// Bool returns the option as a bool, or def when absent or unparsable.
func (o Options) Bool(key string, def bool) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}

	return def
}

// StringSlice returns the option as a list of strings, accepting either a
// single scalar or a sequence.
func (o Options) StringSlice(key string) []string {
	v, ok := o[key]
	if !ok || v == nil {
		return nil
	}

	if items, ok := v.([]any); ok {
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}

	return []string{fmt.Sprint(v)}
}

// Millis returns the option interpreted as a millisecond duration.
func (o Options) Millis(key string, def time.Duration) time.Duration {
	ms := o.Int(key, -1)
	if ms < 0 {
		return def
	}

	return time.Duration(ms) * time.Millisecond
}

// StepEnv carries runtime helpers into step handlers.
type StepEnv struct {
	Resolver core.PathResolver
}

// StepFunc executes one rendered step against an open page.
type StepFunc func(d browser.Driver, opts Options, env StepEnv) error

type stepDef struct {
	fn StepFunc

	// required holds option keys that must be present before rendering.
	// Entries with alternatives separated by '|' require at least one.
	required []string
}

var steps = map[string]stepDef{
	"goto":              {fn: stepGoto, required: []string{"url"}},
	"fill":              {fn: stepFill, required: []string{"selector", "value"}},
	"type":              {fn: stepType, required: []string{"selector"}},
	"click":             {fn: stepClick, required: []string{"selector"}},
	"check":             {fn: stepCheck, required: []string{"selector"}},
	"select":            {fn: stepSelect, required: []string{"selector", "value|values"}},
	"upload":            {fn: stepUpload, required: []string{"selector", "files"}},
	"wait":              {fn: stepWait},
	"wait_for_selector": {fn: stepWaitForSelector, required: []string{"selector"}},
	"assert_text":       {fn: stepAssertText, required: []string{"text"}},
	"press":             {fn: stepPress, required: []string{"selector", "keys|key"}},
	"hover":             {fn: stepHover, required: []string{"selector"}},
}

// Lookup returns the handler for an action name.
func Lookup(action string) (StepFunc, bool) {
	def, ok := steps[action]
	if !ok {
		return nil, false
	}

	return def.fn, true
}

// Actions returns all known action names, sorted.
func Actions() []string {
	names := make([]string, 0, len(steps))
	for name := range steps {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}

// ValidateStep statically checks a declared step: the action must be known
// and its required options present. Option values are not rendered, so
// templated values pass validation.
func ValidateStep(step core.Step) error {
	def, ok := steps[step.Action]
	if !ok {
		return fmt.Errorf("unsupported action %q (known: %s)", step.Action, strings.Join(Actions(), ", "))
	}

	opts := Options(step.Options)
	for _, req := range def.required {
		found := false
		for _, key := range strings.Split(req, "|") {
			if opts.Has(key) {
				found = true
				break
			}
		}

		if !found {
			return fmt.Errorf("action %q requires a %q option", step.Action, req)
		}
	}

	return nil
}

func stepGoto(d browser.Driver, opts Options, env StepEnv) error {
	url, err := opts.RequireString("url")
	if err != nil {
		return err
	}
	if url == "" {
		return fmt.Errorf("goto action requires a non-empty 'url'")
	}

	return d.Goto(url, opts.String("wait_until"))
}

func stepFill(d browser.Driver, opts Options, env StepEnv) error {
	selector, err := opts.Selector()
	if err != nil {
		return err
	}

	value, err := opts.RequireString("value")
	if err != nil {
		return err
	}

	return d.Fill(selector, value)
}

func stepType(d browser.Driver, opts Options, env StepEnv) error {
	selector, err := opts.Selector()
	if err != nil {
		return err
	}

	return d.Type(selector, opts.String("value"), opts.Millis("delay_ms", 0))
}

func stepClick(d browser.Driver, opts Options, env StepEnv) error {
	selector, err := opts.Selector()
	if err != nil {
		return err
	}

	return d.Click(selector, browser.ClickOptions{
		Button: opts.String("button"),
		Count:  opts.Int("click_count", 0),
		Delay:  opts.Millis("delay_ms", 0),
	})
}

func stepCheck(d browser.Driver, opts Options, env StepEnv) error {
	selector, err := opts.Selector()
	if err != nil {
		return err
	}

	if opts.Bool("checked", true) {
		return d.Check(selector)
	}

	return d.Uncheck(selector)
}

func stepSelect(d browser.Driver, opts Options, env StepEnv) error {
	selector, err := opts.Selector()
	if err != nil {
		return err
	}

	values := opts.StringSlice("values")
	if values == nil {
		values = opts.StringSlice("value")
	}
	if values == nil {
		return fmt.Errorf("select action requires 'value' or 'values'")
	}

	return d.Select(selector, values)
}

func stepUpload(d browser.Driver, opts Options, env StepEnv) error {
	selector, err := opts.Selector()
	if err != nil {
		return err
	}

	files := opts.StringSlice("files")
	if files == nil {
		return fmt.Errorf("upload action requires 'files'")
	}

	resolved, err := env.Resolver.ResolveAll(files)
	if err != nil {
		return err
	}

	return d.Upload(selector, resolved)
}

func stepWait(d browser.Driver, opts Options, env StepEnv) error {
	duration := opts.Millis("duration_ms", -1)
	if duration < 0 {
		duration = opts.Millis("ms", time.Second)
	}

	return d.Wait(duration)
}

func stepWaitForSelector(d browser.Driver, opts Options, env StepEnv) error {
	selector, err := opts.Selector()
	if err != nil {
		return err
	}

	return d.WaitForSelector(selector, opts.String("state"))
}

func stepAssertText(d browser.Driver, opts Options, env StepEnv) error {
	text, err := opts.RequireString("text")
	if err != nil {
		return err
	}

	var content string
	if selector := opts.String("selector"); selector != "" {
		content, err = d.InnerText(selector)
	} else {
		content, err = d.Content()
	}
	if err != nil {
		return err
	}

	if !strings.Contains(content, text) {
		return fmt.Errorf("assert_text failed to find %q in the page content", text)
	}

	return nil
}

func stepPress(d browser.Driver, opts Options, env StepEnv) error {
	selector, err := opts.Selector()
	if err != nil {
		return err
	}

	keys := opts.String("keys")
	if keys == "" {
		keys = opts.String("key")
	}
	if keys == "" {
		return fmt.Errorf("press action requires 'keys' or 'key'")
	}

	return d.Press(selector, keys)
}

func stepHover(d browser.Driver, opts Options, env StepEnv) error {
	selector, err := opts.Selector()
	if err != nil {
		return err
	}

	return d.Hover(selector)
}
