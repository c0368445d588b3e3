package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/replware/replace/pkg/config"
	"github.com/replware/replace/pkg/runner"
	"github.com/replware/replace/pkg/userlog"
)

var (
	// Flags
	silent    bool
	verbose   bool
	debug     bool
	jobs      int
	rulesFile string
)

// newRootCmd creates the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace [flags] from to [from to ...] [--] [files...]",
		Short: "Replace strings in files or from stdin to stdout",
		Long: `replace substitutes literal strings in text. It accepts from/to pairs and
replaces each occurrence of a from-string with its to-string, longest match
first. With file arguments after "--" each file is rewritten in place through
a temporary file; without files, stdin is processed to stdout.

Pairs may also come from a rules file (-r), in YAML or HCL, where each rule
can carry a glob restricting which files it applies to.`,
		Version:       FormatVersion(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd)
		},
		RunE: run,
	}

	cmd.Flags().BoolVarP(&silent, "silent", "s", false, "suppress non-error messages")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "report every changed line")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 1, "number of files processed concurrently")
	cmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "rules file (.yaml, .yml or .hcl)")
	cmd.Flags().BoolP("version", "V", false, "print version information")
	cmd.SetVersionTemplate("{{.Version}}")

	return cmd
}

// setupLogging seeds the command context with a zerolog logger on stderr,
// keeping stdout free for replaced text.
func setupLogging(cmd *cobra.Command) {
	level := zerolog.WarnLevel
	switch {
	case debug:
		level = zerolog.DebugLevel
	case verbose:
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger().Level(level)
	cmd.SetContext(logger.WithContext(cmd.Context()))
}

// run executes the root command.
func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, files, err := buildConfig(cmd, args)
	if err != nil {
		// Usage error: show the message and the usage text, exit 1.
		cmd.SilenceUsage = false
		return err
	}

	userLogger := userlog.New(cmd.ErrOrStderr(), *zerolog.Ctx(ctx), cfg.Silent)

	r, err := runner.New(runner.Options{
		Rules:   cfg,
		Files:   files,
		Jobs:    cfg.Jobs,
		Stdin:   cmd.InOrStdin(),
		Stdout:  cmd.OutOrStdout(),
		UserLog: userLogger,
	})
	if err != nil {
		return errors.Errorf("setting up run: %w", err)
	}

	if err := r.Run(ctx); err != nil {
		if !errors.Is(err, runner.ErrFilesFailed) {
			userLogger.Error(err.Error())
		}
		return err
	}
	return nil
}

// buildConfig assembles the effective rule set from positional pairs and the
// optional rules file. Positional pairs come first, so they win equal-length
// tie-breaks against file rules.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, []string, error) {
	pairTokens, files := splitArgs(args, cmd.ArgsLenAtDash())

	if len(pairTokens)%2 != 0 {
		return nil, nil, errors.New("replacement strings must come in from/to pairs")
	}
	if len(pairTokens) == 0 && rulesFile == "" {
		return nil, nil, errors.New("no replacement pairs given (pass from/to tokens or --rules)")
	}

	cfg := &config.Config{
		Silent:  silent,
		Verbose: verbose,
		Jobs:    jobs,
	}
	for i := 0; i < len(pairTokens); i += 2 {
		cfg.Rules = append(cfg.Rules, config.Rule{From: pairTokens[i], To: pairTokens[i+1]})
	}

	if rulesFile != "" {
		fileCfg, err := config.Load(cmd.Context(), rulesFile)
		if err != nil {
			return nil, nil, err
		}
		cfg.Rules = append(cfg.Rules, fileCfg.Rules...)

		// Command-line flags win over rules-file settings.
		if !cmd.Flags().Changed("silent") {
			cfg.Silent = fileCfg.Silent
		}
		if !cmd.Flags().Changed("verbose") {
			cfg.Verbose = fileCfg.Verbose
		}
		if !cmd.Flags().Changed("jobs") && fileCfg.Jobs > 0 {
			cfg.Jobs = fileCfg.Jobs
		}
	}

	return cfg, files, nil
}

// splitArgs separates from/to tokens from file paths. Tokens before "--" are
// pairs, tokens after are files; without "--" every token is a pair and
// input comes from stdin.
func splitArgs(args []string, dashAt int) (pairs, files []string) {
	if dashAt < 0 {
		return args, nil
	}
	return args[:dashAt], args[dashAt:]
}
