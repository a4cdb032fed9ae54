package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Norgate-AV/widgetpack/internal/bundler"
	"github.com/Norgate-AV/widgetpack/internal/config"
	"github.com/Norgate-AV/widgetpack/internal/ledger"
	"github.com/Norgate-AV/widgetpack/internal/logger"
	"github.com/Norgate-AV/widgetpack/internal/pipeline"
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "build [widget...]",
		Short:        "Build widgets",
		Long:         `Bundle each allowed widget and write name.html and name-<tag>.html to the output directory.`,
		RunE:         runBuild,
		SilenceUsage: true,
		Args:         cobra.ArbitraryArgs,
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	// positional widget names extend --widget
	if len(args) > 0 {
		if err := cmd.Flags().Set("widget", strings.Join(args, ",")); err != nil {
			return err
		}
	}

	cfg, err := config.NewLoader().LoadForBuild(cmd)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Verbose)
	defer func() { _ = log.Sync() }()

	log.Debug("configuration loaded",
		zap.String("project", cfg.ProjectRoot),
		zap.String("source", cfg.SourceDir),
		zap.String("out", cfg.OutDir),
		zap.Strings("widgets", cfg.Widgets),
		zap.String("version", cfg.Version))

	p, err := newPipeline(cfg, afero.NewOsFs(), log)
	if err != nil {
		return err
	}

	if !cfg.NoLedger {
		l, err := ledger.Open(cfg.LedgerDir)
		if err != nil {
			log.Warn("build ledger unavailable, builds will not be recorded", zap.Error(err))
		} else {
			defer l.Close()
			p.WithRecorder(l)
		}
	}

	report, err := p.Run()
	printReport(cmd.OutOrStdout(), report)

	return err
}

func newPipeline(cfg *config.Config, fs afero.Fs, log *zap.Logger) (*pipeline.Pipeline, error) {
	opts := bundler.Options{
		OutDir:   cfg.OutDir,
		Minify:   cfg.Minify,
		Target:   cfg.Target,
		JSX:      cfg.JSX,
		SassPath: cfg.SassPath,
	}

	return pipeline.New(fs, pipeline.Options{
		SourceDir:  cfg.SourceDir,
		OutDir:     cfg.OutDir,
		Version:    cfg.Version,
		Widgets:    cfg.Widgets,
		GlobalCSS:  cfg.GlobalCSS,
		CSSExclude: cfg.CSSExclude,
	}, bundler.NewExportProber(opts), bundler.New(fs, opts, log), log)
}

func printReport(w io.Writer, report *pipeline.Report) {
	if report == nil {
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	for _, b := range report.Built {
		fmt.Fprintf(w, "%s %s -> %s (%d bytes)\n", green("built"), bold(b.Name), b.Versioned, b.Bytes)
	}

	fmt.Fprintf(w, "%d widget(s) built for version %s (tag %s)\n", len(report.Built), report.Version, report.Tag)
}
