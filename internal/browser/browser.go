// Package browser wraps the browser-automation library behind small
// interfaces so the step interpreter can be tested against a recording
// fake instead of a live browser.
package browser

import "time"

// Config controls how the browser is launched.
type Config struct {
	Headless bool
	SlowMo   time.Duration // delay injected between driver operations, 0 disables
	Timeout  time.Duration // per-action timeout
	Locale   string
}

// ClickOptions carries the optional knobs for a click action.
type ClickOptions struct {
	Button string // "left", "right" or "middle", empty means left
	Count  int
	Delay  time.Duration
}

// Driver is one open page. Each method maps to a single step primitive.
type Driver interface {
	Goto(url string, waitUntil string) error
	Fill(selector, value string) error
	Type(selector, value string, delay time.Duration) error
	Click(selector string, opts ClickOptions) error
	Check(selector string) error
	Uncheck(selector string) error
	Select(selector string, values []string) error
	Upload(selector string, files []string) error
	Wait(d time.Duration) error
	WaitForSelector(selector, state string) error
	InnerText(selector string) (string, error)
	Content() (string, error)
	Press(selector, keys string) error
	Hover(selector string) error

	// Close tears down the page and its context.
	Close() error
}

// Session is one launched browser. Every job gets a fresh page.
type Session interface {
	NewPage() (Driver, error)
	Close() error
}
