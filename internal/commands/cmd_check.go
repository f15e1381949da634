package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v3"

	"github.com/jobflow-cli/jobflow/internal/core"
	"github.com/jobflow-cli/jobflow/internal/engine"
	"github.com/jobflow-cli/jobflow/pkgs/printer"
)

type CheckCmd struct {
	coreFlags *core.Flags
}

func NewCheckCmd(coreFlags *core.Flags) *CheckCmd {
	return &CheckCmd{coreFlags: coreFlags}
}

func (cc *CheckCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:      "check",
		Usage:     "Validate configuration files without driving a browser",
		ArgsUsage: "[files...]",
		Description: `Statically validates one or more jobflow configuration files:

- the document parses and declares at least one job
- every step uses a known action with its required options
- profile and step templates parse and render
- files referenced by upload steps exist

With no arguments the configured --config file is checked.`,
		Action: func(ctx context.Context, c *cli.Command) error {
			files := c.Args().Slice()
			if len(files) == 0 {
				files = []string{cc.coreFlags.ConfigFilePath}
			}

			return cc.check(files)
		},
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

type checkResult struct {
	File     string
	Problems []string
}

func (cc *CheckCmd) check(files []string) error {
	p := pool.NewWithResults[checkResult]()

	for _, file := range files {
		p.Go(func() checkResult {
			return checkFile(file)
		})
	}

	results := p.Wait()

	problems := 0
	for _, result := range results {
		items := []printer.StatusListItem{}

		if len(result.Problems) == 0 {
			items = append(items, printer.StatusListItem{Ok: true, Status: "configuration valid"})
		}

		for _, problem := range result.Problems {
			items = append(items, printer.StatusListItem{Ok: false, Status: problem})
			problems++
		}

		printer.StatusList(result.File, items)
	}

	if problems > 0 {
		return fmt.Errorf("found %d problem(s) in %d file(s)", problems, len(files))
	}

	return nil
}

func checkFile(path string) checkResult {
	result := checkResult{File: path}

	cfg, err := core.Load(path)
	if err != nil {
		result.Problems = append(result.Problems, err.Error())
		return result
	}

	profile, err := cfg.MergedProfile()
	if err != nil {
		result.Problems = append(result.Problems, err.Error())
		return result
	}

	renderer, err := engine.NewRenderer(profile, cfg.Resolver())
	if err != nil {
		result.Problems = append(result.Problems, err.Error())
		return result
	}

	resolver := cfg.Resolver()

	for _, job := range cfg.Jobs {
		jr := renderer.WithJob(job)

		if _, err := jr.RenderString(job.Name, job.URL); err != nil {
			result.Problems = append(result.Problems, fmt.Sprintf("job %q: %v", job.Name, err))
		}

		for i, step := range job.Steps {
			if err := engine.ValidateStep(step); err != nil {
				result.Problems = append(result.Problems, fmt.Sprintf("job %q step %02d: %v", job.Name, i+1, err))
				continue
			}

			opts, err := jr.RenderOptions(fmt.Sprintf("%s/step-%02d", job.Name, i+1), step.Options)
			if err != nil {
				result.Problems = append(result.Problems, fmt.Sprintf("job %q step %02d: %v", job.Name, i+1, err))
				continue
			}

			if step.Action != "upload" {
				continue
			}

			// Upload files must exist before a real run can succeed.
			files, err := resolver.ResolveAll(opts.StringSlice("files"))
			if err != nil {
				result.Problems = append(result.Problems, fmt.Sprintf("job %q step %02d: %v", job.Name, i+1, err))
				continue
			}

			for _, file := range files {
				if _, err := os.Stat(file); os.IsNotExist(err) {
					result.Problems = append(result.Problems,
						fmt.Sprintf("job %q step %02d: upload file %s does not exist", job.Name, i+1, file))
				}
			}
		}
	}

	log.Debug().Str("file", path).Int("problems", len(result.Problems)).Msg("checked configuration")

	return result
}
