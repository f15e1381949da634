package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/jobflow-cli/jobflow/internal/browser"
	"github.com/jobflow-cli/jobflow/internal/core"
	"github.com/jobflow-cli/jobflow/internal/engine"
	"github.com/jobflow-cli/jobflow/pkgs/printer"
	"github.com/jobflow-cli/jobflow/pkgs/styles"
)

type RunCmd struct {
	coreFlags *core.Flags
	flags     struct {
		Headless   bool
		NoHeadless bool
		DryRun     bool
		List       bool
	}
	expr string
}

func NewRunCmd(coreFlags *core.Flags) *RunCmd {
	return &RunCmd{
		coreFlags: coreFlags,
	}
}

func (rc *RunCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:      "run",
		Usage:     "Execute the job flows declared in the jobflow.yml configuration",
		ArgsUsage: "[expression]",
		Description: `Execute job application flows defined in your jobflow.yml configuration file.
 Jobs can be filtered using expressions or selected interactively.

 Examples:
	 jobflow run                               # Interactive selection
	 jobflow run "true"                        # Run every job
	 jobflow run '"remote" in tags'            # Run jobs tagged with 'remote'
	 jobflow run 'name == "acme"'              # Run a specific job by name
	 jobflow run '+swe !onsite'                # Tag shortcuts
	 jobflow run '@remote'                     # Macro from the config
	 jobflow run --dry-run                     # Print intended actions only
	 jobflow run --list '+swe'                 # List matching jobs without executing

 Expression variables:
	 - name: Job name
	 - url: Job URL
	 - tags: Array of tags`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "headless",
				Usage:       "force headless mode regardless of the configuration",
				Destination: &rc.flags.Headless,
			},
			&cli.BoolFlag{
				Name:        "no-headless",
				Usage:       "run with a visible browser window",
				Destination: &rc.flags.NoHeadless,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "print the rendered actions without driving a browser",
				Destination: &rc.flags.DryRun,
			},
			&cli.BoolFlag{
				Name:        "list",
				Aliases:     []string{"ls", "l"},
				Usage:       "list matching jobs without executing them",
				Destination: &rc.flags.List,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := core.SetupEnv(rc.coreFlags.ConfigFilePath)
			if err != nil {
				return err
			}

			rc.expr = strings.Join(c.Args().Slice(), " ")

			log.Debug().
				Bool("dry-run", rc.flags.DryRun).
				Bool("list", rc.flags.List).
				Str("expr", rc.expr).
				Msg("run cmd")

			return rc.run(ctx, cfg)
		},
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (rc *RunCmd) run(ctx context.Context, cfg core.ConfigFile) error {
	// Get terminal width
	terminalWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		// Fallback to a default width if unable to get terminal size
		terminalWidth = 80
	}

	jobs, err := rc.selectJobs(cfg)
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		log.Debug().Str("expr", rc.expr).Msg("no jobs matching selector found")
		fmt.Println("No jobs matched")
		return nil
	}

	if rc.flags.List {
		items := make([]string, 0, len(jobs))
		for _, job := range jobs {
			items = append(items, fmt.Sprintf("%s (%s)", job.Name, strings.Join(job.Tags, ", ")))
		}

		printer.List("Jobs", items)
		return nil
	}

	if rc.flags.DryRun {
		eng, err := engine.New(&cfg, nil)
		if err != nil {
			return err
		}

		return rc.dryRun(eng, jobs, terminalWidth)
	}

	session, err := rc.launch(cfg.Browser)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close browser session")
		}
	}()

	eng, err := engine.New(&cfg, session)
	if err != nil {
		return err
	}

	// Create a cancellation context with signal handling
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := 0
	for _, job := range jobs {
		fmt.Println(createStyledHeader("JOB", job.Name, terminalWidth))

		err := eng.RunJob(ctx, job)
		switch {
		case errors.Is(err, context.Canceled):
			return err
		case err != nil:
			log.Error().Err(err).Str("job", job.Name).Msg("job failed")
			fmt.Printf("Status  %s\n\n", styles.Error(styles.Cross+" "+err.Error()))
			failed++
		default:
			fmt.Printf("Status  %s\n\n", styles.Success(styles.Check+" Completed"))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(jobs))
	}

	return nil
}

// selectJobs picks jobs either by the filter expression or interactively
// when no expression was given.
func (rc *RunCmd) selectJobs(cfg core.ConfigFile) ([]core.Job, error) {
	useInteractiveMode := rc.expr == "" && !rc.flags.List && !rc.flags.DryRun

	if useInteractiveMode {
		options := make([]huh.Option[int], 0, len(cfg.Jobs))
		for i, job := range cfg.Jobs {
			displayStr := fmt.Sprintf("%s (%s)", job.Name, strings.Join(job.Tags, ", "))
			options = append(options, huh.NewOption(displayStr, i))
		}

		var selected []int
		form := huh.NewForm(huh.NewGroup(
			huh.NewMultiSelect[int]().
				Title("Select Jobs to Run").
				Options(options...).
				Value(&selected),
		))

		if err := form.Run(); err != nil {
			return nil, err
		}

		jobs := make([]core.Job, 0, len(selected))
		for _, i := range selected {
			jobs = append(jobs, cfg.Jobs[i])
		}

		return jobs, nil
	}

	// Compile expression once before loop
	program, err := compileExpr(rc.expr, cfg.Macros, true)
	if err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}

	jobs := []core.Job{}
	for _, job := range cfg.Jobs {
		enabled, err := evalCompiledExpr(program, map[string]any{
			"name": job.Name,
			"url":  job.URL,
			"tags": job.Tags,
		})
		if err != nil {
			return nil, fmt.Errorf("expression evaluation failed for job %s: %w", job.Name, err)
		}

		if enabled {
			jobs = append(jobs, job)
			log.Debug().Str("job", job.Name).Strs("tags", job.Tags).Msg("included")
			continue
		}
		log.Debug().Str("job", job.Name).Strs("tags", job.Tags).Msg("filtered")
	}

	return jobs, nil
}

func (rc *RunCmd) launch(bcfg core.Browser) (browser.Session, error) {
	headless := bcfg.IsHeadless()
	if rc.flags.Headless {
		headless = true
	}
	if rc.flags.NoHeadless {
		headless = false
	}

	cfg := browser.Config{
		Headless: headless,
		SlowMo:   time.Duration(bcfg.SlowMoMs) * time.Millisecond,
		Timeout:  bcfg.Timeout(),
		Locale:   bcfg.Locale,
	}

	var (
		session   browser.Session
		launchErr error
	)

	err := spinner.New().
		Title("Launching browser...").
		Action(func() {
			session, launchErr = browser.Launch(cfg)
		}).
		Run()
	if err != nil {
		return nil, err
	}
	if launchErr != nil {
		return nil, launchErr
	}

	return session, nil
}

func (rc *RunCmd) dryRun(eng *engine.Engine, jobs []core.Job, terminalWidth int) error {
	for _, job := range jobs {
		fmt.Println(createStyledHeader("JOB", job.Name, terminalWidth))

		url, planned, err := eng.PlanJob(job)
		if err != nil {
			return err
		}

		fmt.Printf("Navigate  %s\n", styles.Subtle(url))
		for _, st := range planned {
			fmt.Printf("  Step %02d  %-18s %s\n", st.Index, st.Action, styles.Subtle(formatOptions(st.Options)))
		}
		fmt.Println()
	}

	return nil
}
