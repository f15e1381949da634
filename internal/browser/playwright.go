package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"
)

// Launch starts the playwright driver and a Chromium instance configured
// from cfg. The returned session owns both and tears them down on Close.
func Launch(cfg Config) (Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(float64(cfg.SlowMo.Milliseconds()))
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	log.Debug().
		Bool("headless", cfg.Headless).
		Dur("timeout", cfg.Timeout).
		Msg("browser launched")

	return &playwrightSession{pw: pw, browser: b, cfg: cfg}, nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	cfg     Config
}

func (s *playwrightSession) NewPage() (Driver, error) {
	ctxOpts := playwright.BrowserNewContextOptions{}
	if s.cfg.Locale != "" {
		ctxOpts.Locale = playwright.String(s.cfg.Locale)
	}

	browserCtx, err := s.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	p, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	p.SetDefaultTimeout(float64(s.cfg.Timeout.Milliseconds()))

	return &playwrightPage{ctx: browserCtx, page: p}, nil
}

func (s *playwrightSession) Close() error {
	if err := s.browser.Close(); err != nil {
		_ = s.pw.Stop()
		return fmt.Errorf("failed to close browser: %w", err)
	}

	return s.pw.Stop()
}

type playwrightPage struct {
	ctx  playwright.BrowserContext
	page playwright.Page
}

func (p *playwrightPage) Goto(url string, waitUntil string) error {
	state, err := waitUntilState(waitUntil)
	if err != nil {
		return err
	}

	_, err = p.page.Goto(url, playwright.PageGotoOptions{WaitUntil: state})
	return err
}

func (p *playwrightPage) Fill(selector, value string) error {
	return p.page.Fill(selector, value)
}

func (p *playwrightPage) Type(selector, value string, delay time.Duration) error {
	opts := playwright.PageTypeOptions{}
	if delay > 0 {
		opts.Delay = playwright.Float(float64(delay.Milliseconds()))
	}

	return p.page.Type(selector, value, opts)
}

func (p *playwrightPage) Click(selector string, clickOpts ClickOptions) error {
	opts := playwright.PageClickOptions{}

	button, err := mouseButton(clickOpts.Button)
	if err != nil {
		return err
	}
	opts.Button = button

	if clickOpts.Count > 0 {
		opts.ClickCount = playwright.Int(clickOpts.Count)
	}
	if clickOpts.Delay > 0 {
		opts.Delay = playwright.Float(float64(clickOpts.Delay.Milliseconds()))
	}

	return p.page.Click(selector, opts)
}

func (p *playwrightPage) Check(selector string) error {
	return p.page.Check(selector)
}

func (p *playwrightPage) Uncheck(selector string) error {
	return p.page.Uncheck(selector)
}

func (p *playwrightPage) Select(selector string, values []string) error {
	_, err := p.page.SelectOption(selector, playwright.SelectOptionValues{
		Values: &values,
	})
	return err
}

func (p *playwrightPage) Upload(selector string, files []string) error {
	return p.page.Locator(selector).SetInputFiles(files)
}

func (p *playwrightPage) Wait(d time.Duration) error {
	p.page.WaitForTimeout(float64(d.Milliseconds()))
	return nil
}

func (p *playwrightPage) WaitForSelector(selector, state string) error {
	opts := playwright.PageWaitForSelectorOptions{}

	selectorState, err := waitForSelectorState(state)
	if err != nil {
		return err
	}
	opts.State = selectorState

	_, err = p.page.WaitForSelector(selector, opts)
	return err
}

func (p *playwrightPage) InnerText(selector string) (string, error) {
	locator := p.page.Locator(selector)

	err := locator.WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	})
	if err != nil {
		return "", err
	}

	return locator.InnerText()
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Press(selector, keys string) error {
	return p.page.Press(selector, keys)
}

func (p *playwrightPage) Hover(selector string) error {
	return p.page.Hover(selector)
}

func (p *playwrightPage) Close() error {
	return p.ctx.Close()
}

func waitUntilState(s string) (*playwright.WaitUntilState, error) {
	switch s {
	case "", "load":
		return playwright.WaitUntilStateLoad, nil
	case "domcontentloaded":
		return playwright.WaitUntilStateDomcontentloaded, nil
	case "networkidle":
		return playwright.WaitUntilStateNetworkidle, nil
	case "commit":
		return playwright.WaitUntilStateCommit, nil
	default:
		return nil, fmt.Errorf("unknown wait_until state %q", s)
	}
}

func waitForSelectorState(s string) (*playwright.WaitForSelectorState, error) {
	switch s {
	case "":
		return nil, nil
	case "attached":
		return playwright.WaitForSelectorStateAttached, nil
	case "detached":
		return playwright.WaitForSelectorStateDetached, nil
	case "visible":
		return playwright.WaitForSelectorStateVisible, nil
	case "hidden":
		return playwright.WaitForSelectorStateHidden, nil
	default:
		return nil, fmt.Errorf("unknown selector state %q", s)
	}
}

func mouseButton(s string) (*playwright.MouseButton, error) {
	switch s {
	case "":
		return nil, nil
	case "left":
		return playwright.MouseButtonLeft, nil
	case "right":
		return playwright.MouseButtonRight, nil
	case "middle":
		return playwright.MouseButtonMiddle, nil
	default:
		return nil, fmt.Errorf("unknown mouse button %q", s)
	}
}
