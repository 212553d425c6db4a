// Package cli wires the root okto command.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oktotech/okto-go/internal/appctx"
	"github.com/oktotech/okto-go/internal/commands"
	"github.com/oktotech/okto-go/internal/config"
	"github.com/oktotech/okto-go/internal/output"
	"github.com/oktotech/okto-go/internal/version"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:           "okto",
		Short:         "Command-line interface for Okto wallets",
		Long:          "okto manages an Okto wallet session: login, portfolio, transfers and order tracking.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsApp(cmd) {
				return nil
			}

			cfg, err := config.Load(flags.Overrides())
			if err != nil {
				return output.ErrUsage(err.Error())
			}

			app, err := appctx.NewApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			app.Stdin = cmd.InOrStdin()
			app.Stdout = cmd.OutOrStdout()
			app.Stderr = cmd.ErrOrStderr()
			app.Flags = flags
			if err := app.ApplyFlags(); err != nil {
				_ = app.Close()
				return err
			}

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}
	cmd.SetVersionTemplate(version.Full() + "\n")

	// Allow flags anywhere in the command line
	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)

	// --base_url and --base-url are the same flag, matching config.yaml keys
	cmd.SetGlobalNormalizationFunc(normalizeFlagName)

	// Output format flags
	cmd.PersistentFlags().BoolVarP(&flags.JSON, "json", "j", false, "Output as JSON")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Output data only, no envelope")
	cmd.PersistentFlags().BoolVar(&flags.Styled, "styled", false, "Force styled output (ANSI colors)")
	cmd.PersistentFlags().BoolVar(&flags.Count, "count", false, "Output only count")
	cmd.PersistentFlags().StringVar(&flags.JQ, "jq", "", "Filter the JSON envelope with a jq expression")

	// Connection flags
	cmd.PersistentFlags().StringVar(&flags.Env, "env", "", "Okto environment: sandbox, staging or production")
	cmd.PersistentFlags().StringVar(&flags.APIKey, "api-key", "", "Okto API key")
	cmd.PersistentFlags().StringVar(&flags.BaseURL, "base-url", "", "Override the API gateway URL")
	cmd.PersistentFlags().StringVar(&flags.Store, "store", "", "Credential store: auto, keyring, file, memory or redis")

	// Behavior flags
	cmd.PersistentFlags().CountVarP(&flags.Verbose, "verbose", "v", "Verbose output (-v for ops, -vv for requests)")
	cmd.PersistentFlags().BoolVar(&flags.Stats, "stats", false, "Show session statistics")

	_ = cmd.RegisterFlagCompletionFunc("env", fixedCompletion("sandbox", "staging", "production"))
	_ = cmd.RegisterFlagCompletionFunc("store", fixedCompletion(
		config.StoreAuto, config.StoreKeyring, config.StoreFile, config.StoreMemory, config.StoreRedis,
	))

	return cmd
}

// NewCLI returns the root command with every subcommand registered.
func NewCLI() *cobra.Command {
	cmd := NewRootCmd()
	cmd.AddCommand(commands.All()...)
	return cmd
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, NewCLI(), os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// run executes cmd and returns the process exit code. Errors are written to
// stdout in the selected output format.
func run(ctx context.Context, cmd *cobra.Command, args []string, stdout io.Writer) int {
	cmd.SetArgs(args)
	cmd.SetOut(stdout)

	// Use ExecuteC to get the executed command (for correct context access)
	executedCmd, err := cmd.ExecuteContextC(ctx)

	var app *appctx.App
	if executedCmd != nil && executedCmd.Context() != nil {
		app = appctx.FromContext(executedCmd.Context())
	}
	if app != nil {
		defer func() { _ = app.Close() }()
	}
	if err == nil {
		return output.ExitOK
	}

	err = transformCobraError(err)
	apiErr := output.AsError(err)

	// app.Err adds --stats output
	if app != nil {
		_ = app.Err(err)
		return apiErr.ExitCode()
	}

	// Fallback: app not available, e.g. config or store setup failed
	pf := cmd.PersistentFlags()
	format := output.FormatAuto
	quiet, _ := pf.GetBool("quiet")
	count, _ := pf.GetBool("count")
	styled, _ := pf.GetBool("styled")
	jsonFlag, _ := pf.GetBool("json")

	switch {
	case quiet:
		format = output.FormatQuiet
	case count:
		format = output.FormatCount
	case jsonFlag:
		format = output.FormatJSON
	case styled:
		format = output.FormatStyled
	}

	writer := output.New(output.Options{
		Format: format,
		Writer: stdout,
	})
	_ = writer.Err(err)

	return apiErr.ExitCode()
}

// skipsApp reports commands that never talk to the SDK.
func skipsApp(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "version", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return cmd.HasParent() && cmd.Parent().Name() == "completion"
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

var shorthandFlagRE = regexp.MustCompile(`unknown shorthand flag: '.' in (-\w)`)
var requiredFlagRE = regexp.MustCompile(`required flag\(s\) (.+) not set`)

// transformCobraError rewrites Cobra's parse errors as usage errors with
// messages in the CLI's own wording.
func transformCobraError(err error) error {
	msg := err.Error()

	// "flag needs an argument: --FLAG" → "--FLAG requires a value"
	if strings.HasPrefix(msg, "flag needs an argument: ") {
		flag := strings.TrimPrefix(msg, "flag needs an argument: ")
		return output.ErrUsage(flag + " requires a value")
	}

	// "unknown flag: --FLAG" → "Unknown option: --FLAG"
	if strings.HasPrefix(msg, "unknown flag: ") {
		flag := strings.TrimPrefix(msg, "unknown flag: ")
		return output.ErrUsage("Unknown option: " + flag)
	}

	// "unknown shorthand flag: 'X' in -X" → "Unknown option: -X"
	if strings.HasPrefix(msg, "unknown shorthand flag: ") {
		if matches := shorthandFlagRE.FindStringSubmatch(msg); len(matches) > 1 {
			return output.ErrUsage("Unknown option: " + matches[1])
		}
	}

	if strings.HasPrefix(msg, "unknown command ") {
		return output.ErrUsageHint(msg, "Run: okto commands")
	}

	if strings.Contains(msg, "invalid argument") {
		return output.ErrUsage(msg)
	}

	if strings.Contains(msg, "arg(s)") {
		return output.ErrUsage(msg)
	}

	// required flag(s) "network", "to" not set → --network, --to required
	if matches := requiredFlagRE.FindStringSubmatch(msg); len(matches) > 1 {
		var names []string
		for _, f := range strings.Split(matches[1], ",") {
			names = append(names, "--"+strings.Trim(strings.TrimSpace(f), `"`))
		}
		return output.ErrUsage(strings.Join(names, ", ") + " required")
	}

	return err
}
