package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/blueprint"
	bt "github.com/fwojciec/blueprint/bubbletea"
	"github.com/fwojciec/blueprint/fs"
	bpjson "github.com/fwojciec/blueprint/json"
	"github.com/fwojciec/blueprint/pipeline"
	"github.com/fwojciec/blueprint/report"
	"github.com/fwojciec/blueprint/sqlite"
	"github.com/fwojciec/blueprint/stage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// inputs are the files every run starts from.
type inputs struct {
	Materials string
	Templates stage.Templates
	Structure string
	Code      string
}

// loadInputs reads every input file up front so a bad path fails before any
// stage runs.
func loadInputs(s settings) (inputs, error) {
	var in inputs
	keys, err := fs.LoadMaterials(s.Materials)
	if err != nil {
		return in, err
	}
	in.Materials = strings.Join(keys, ",")

	if s.Prompts != "" {
		in.Templates, err = stage.LoadTemplates(s.Prompts)
		if err != nil {
			return in, err
		}
	} else {
		in.Templates = stage.DefaultTemplates()
	}

	if in.Structure, err = fs.LoadJSON(s.Structure); err != nil {
		return in, err
	}
	if in.Code, err = fs.LoadText(s.CodeExample); err != nil {
		return in, err
	}
	return in, nil
}

// userInput builds the run input from flags, or asks for it when neither
// --prompt nor --image was given.
func (a *app) userInput(cmd *cobra.Command, materials string) (blueprint.Input, error) {
	in := blueprint.Input{MaterialList: materials}
	f := cmd.Flags()

	var ans answers
	if f.Changed("prompt") || f.Changed("image") {
		ans.Prompt, _ = f.GetString("prompt")
		ans.ImagePath, _ = f.GetString("image")
		ans.Prompt = strings.TrimSpace(ans.Prompt)
	} else {
		var err error
		if ans, err = newAsker(a.stdin, a.stdout).collect(); err != nil {
			return in, err
		}
	}

	in.Prompt = ans.Prompt
	if ans.ImagePath != "" {
		img, err := fs.LoadImage(ans.ImagePath)
		if err != nil {
			return in, err
		}
		in.Image = img
	}
	return in, in.Validate()
}

func (a *app) generate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, err := loadSettings(cmd, a.getenv)
	if err != nil {
		return err
	}
	src, err := loadInputs(s)
	if err != nil {
		return err
	}
	provider, err := resolveProvider(ctx, s.Provider, s.Model, s.APIKey, s.BaseURL, s.Keys)
	if err != nil {
		return err
	}
	in, err := a.userInput(cmd, src.Materials)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	out := fs.NewRunFiles(s.OutputDir, time.Now())
	chain := &stage.Chain{
		Provider:         provider,
		Model:            provider.Model(),
		Templates:        src.Templates,
		StructureExample: src.Structure,
		CodeExample:      src.Code,
		Code:             &fs.CodeFile{Path: out.Code},
	}
	opts := []pipeline.Option{
		pipeline.WithPricing(s.Pricing),
		pipeline.WithModel(provider.Model()),
		pipeline.WithRunID(runID),
		pipeline.WithLogger(a.logger),
		pipeline.WithStageTimeout(s.StageTimeout),
	}
	run := func(ctx context.Context, onEvent func(blueprint.Event)) (blueprint.Report, error) {
		d := pipeline.New(chain.Stages(), &fs.Log{Path: out.Log}, append(opts, pipeline.WithEventHandler(onEvent))...)
		o, err := d.Run(ctx, in)
		return o.Report, err
	}

	theme := blueprint.DefaultTheme()
	var (
		rep    blueprint.Report
		runErr error
	)
	if tuiEnabled(cmd) {
		final, err := bt.Run(ctx, bt.New(ctx, run, theme))
		if err != nil {
			return fmt.Errorf("TUI: %w", err)
		}
		if r := final.Report(); r != nil {
			rep = *r
		}
		runErr = final.Err()
		// The view hides cancellation; the exit status must not.
		if runErr == nil && (final.Running() || rep.Err != "") {
			runErr = context.Canceled
		}
	} else {
		fmt.Fprintf(a.stdout, "\n%s\n", banner)
		rep, runErr = run(ctx, progress{w: a.stdout}.handle)
		if rep.RunID != "" {
			fmt.Fprintf(a.stdout, "\n%s\n", report.Styled(rep, report.NewStyles(theme)))
		}
	}

	if rep.RunID == "" {
		return runErr
	}
	if err := a.persist(ctx, s, out, rep); err != nil {
		if runErr != nil {
			a.logger.Error().Err(err).Msg("persist failed run")
			return runErr
		}
		return err
	}
	fmt.Fprintf(a.stderr, "Log saved to %s\n", out.Log)
	if runErr == nil {
		fmt.Fprintf(a.stderr, "Code saved to %s\n", out.Code)
	}
	return runErr
}

// persist writes the report file and records the run in the ledger. Both
// are attempted even if one fails.
func (a *app) persist(ctx context.Context, s settings, out fs.RunFiles, rep blueprint.Report) error {
	// Cancelled runs are recorded too.
	ctx = context.WithoutCancel(ctx)

	var errs []error
	if err := bpjson.Save(out.Report, rep); err != nil {
		errs = append(errs, fmt.Errorf("save report: %w", err))
	}
	ledger, err := sqlite.Open(s.Ledger)
	if err != nil {
		errs = append(errs, err)
		return errors.Join(errs...)
	}
	defer ledger.Close()
	if err := ledger.Save(ctx, rep); err != nil {
		errs = append(errs, err)
	}
	a.logger.Debug().Str("report", out.Report).Str("ledger", s.Ledger).Msg("run recorded")
	return errors.Join(errs...)
}
