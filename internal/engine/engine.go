package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jobflow-cli/jobflow/internal/browser"
	"github.com/jobflow-cli/jobflow/internal/core"
)

// StepError identifies the job and step a failure came from.
type StepError struct {
	Job    string
	Index  int // 1-based step index, 0 for the implicit navigation
	Action string
	Err    error
}

func (e *StepError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("job %q step %02d (%s): %v", e.Job, e.Index, e.Action, e.Err)
	}
	return fmt.Sprintf("job %q (%s): %v", e.Job, e.Action, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Engine is the linear interpreter over a job's declared steps. With a nil
// session it can only plan; executing requires a launched browser.
type Engine struct {
	session  browser.Session
	renderer *Renderer
	resolver core.PathResolver
}

func New(cfg *core.ConfigFile, session browser.Session) (*Engine, error) {
	profile, err := cfg.MergedProfile()
	if err != nil {
		return nil, err
	}

	resolver := cfg.Resolver()

	renderer, err := NewRenderer(profile, resolver)
	if err != nil {
		return nil, err
	}

	return &Engine{
		session:  session,
		renderer: renderer,
		resolver: resolver,
	}, nil
}

// PlannedStep is one rendered step of a dry-run plan.
type PlannedStep struct {
	Index   int
	Action  string
	Options Options
}

// PlanJob renders a job's url and every step without touching the browser.
func (e *Engine) PlanJob(job core.Job) (string, []PlannedStep, error) {
	r := e.renderer.WithJob(job)

	url, err := r.RenderString(job.Name, job.URL)
	if err != nil {
		return "", nil, err
	}

	planned := make([]PlannedStep, 0, len(job.Steps))
	for i, step := range job.Steps {
		if err := ValidateStep(step); err != nil {
			return "", nil, &StepError{Job: job.Name, Index: i + 1, Action: step.Action, Err: err}
		}

		opts, err := r.RenderOptions(stepName(job, i), step.Options)
		if err != nil {
			return "", nil, &StepError{Job: job.Name, Index: i + 1, Action: step.Action, Err: err}
		}

		planned = append(planned, PlannedStep{Index: i + 1, Action: step.Action, Options: opts})
	}

	return url, planned, nil
}

// RunJob opens a fresh page, navigates to the job's url and dispatches each
// step in order. The first failing step aborts the rest of the job.
func (e *Engine) RunJob(ctx context.Context, job core.Job) error {
	if e.session == nil {
		return fmt.Errorf("engine has no browser session")
	}

	// A cancellation between jobs must not open a page for the next one.
	if err := ctx.Err(); err != nil {
		return err
	}

	r := e.renderer.WithJob(job)

	url, err := r.RenderString(job.Name, job.URL)
	if err != nil {
		return &StepError{Job: job.Name, Action: "goto", Err: err}
	}

	page, err := e.session.NewPage()
	if err != nil {
		return fmt.Errorf("failed to open page for job %q: %w", job.Name, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn().Err(err).Str("job", job.Name).Msg("failed to close page")
		}
	}()

	log.Info().Str("job", job.Name).Str("url", url).Msg("navigating")
	if err := page.Goto(url, ""); err != nil {
		return &StepError{Job: job.Name, Action: "goto", Err: err}
	}

	env := StepEnv{Resolver: e.resolver}

	for i, step := range job.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		fn, ok := Lookup(step.Action)
		if !ok {
			return &StepError{
				Job:    job.Name,
				Index:  i + 1,
				Action: step.Action,
				Err:    fmt.Errorf("unsupported action %q", step.Action),
			}
		}

		opts, err := r.RenderOptions(stepName(job, i), step.Options)
		if err != nil {
			return &StepError{Job: job.Name, Index: i + 1, Action: step.Action, Err: err}
		}

		log.Info().
			Str("job", job.Name).
			Int("step", i+1).
			Str("action", step.Action).
			Msg("dispatching step")

		if err := fn(page, opts, env); err != nil {
			return &StepError{Job: job.Name, Index: i + 1, Action: step.Action, Err: err}
		}
	}

	return nil
}

func stepName(job core.Job, i int) string {
	return fmt.Sprintf("%s/step-%02d", job.Name, i+1)
}
