package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/yme-dev/pagegen/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	verbose bool
	noColor bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "pagegen",
		Short: "Page discovery and route codegen for mini-program projects",
		Long: `pagegen scans the pages directory of a mini-program project and keeps
the app configuration and a typed route module in sync with it.

  • Page list and sub-packages written between marker comments
  • @folder groups pages into a sub-package, @@folder makes it independent
  • utils/pages.ts maps camelCased folder names to routes
  • Watch mode with metrics and a run event stream`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log every pipeline stage")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		genCmd(flags),
		watchCmd(flags),
		versionCmd(),
	)

	return rootCmd
}

// newLogger returns the structured logger for a command. Verbose runs log
// every stage; otherwise only records at or above level are kept.
func newLogger(w io.Writer, flags *globalFlags, level slog.Level) *slog.Logger {
	if flags.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// printer writes human-oriented command output.
type printer struct {
	out    io.Writer
	errOut io.Writer

	successMark lipgloss.Style
	warnMark    lipgloss.Style
	errorMark   lipgloss.Style
	dim         lipgloss.Style
}

func newPrinter(cmd *cobra.Command, flags *globalFlags) *printer {
	p := &printer{
		out:         cmd.OutOrStdout(),
		errOut:      cmd.ErrOrStderr(),
		successMark: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		warnMark:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		errorMark:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
	if flags.noColor {
		p.successMark = lipgloss.NewStyle()
		p.warnMark = lipgloss.NewStyle()
		p.errorMark = lipgloss.NewStyle()
		p.dim = lipgloss.NewStyle()
	}
	return p
}

// success prints a success message.
func (p *printer) success(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.successMark.Render("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func (p *printer) info(format string, args ...any) {
	fmt.Fprintf(p.out, "  %s\n", p.dim.Render(fmt.Sprintf(format, args...)))
}

// warn prints a warning message.
func (p *printer) warn(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.warnMark.Render("⚠"), fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func (p *printer) errorMsg(format string, args ...any) {
	fmt.Fprintf(p.errOut, "%s %s\n", p.errorMark.Render("✗"), fmt.Sprintf(format, args...))
}
