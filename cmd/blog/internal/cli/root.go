package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/cmd/blog/internal/bootstrap"
	"github.com/goliatone/go-blog/internal/commands"
)

// ModuleBuilder builds the module used by every subcommand.
type ModuleBuilder func(ctx context.Context, opts bootstrap.Options) (*blog.Module, error)

var moduleBuilder ModuleBuilder = bootstrap.BuildModule

// isTerminal reports whether prompts can be answered interactively.
var isTerminal = func(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type globalFlags struct {
	configPath string
	logLevel   string
}

// NewRootCommand assembles the blog command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "blog",
		Short: "Ingest static blog posts into the post store",
		Long: `Parses content files with YAML, TOML or JSON front matter and
reconciles them with the stored posts, authors, tags and short URLs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a configuration file (yaml, toml or json)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(
		newLoadPostCommand(flags),
		newLoadPostsCommand(flags),
		newPreviewCommand(flags),
		newShortURLCommand(flags),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", commands.Message(err))
		return 1
	}
	return 0
}

// withModule builds the module for cmd, runs fn and closes the module.
func withModule(cmd *cobra.Command, flags *globalFlags, fn func(context.Context, *blog.Module) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	module, err := moduleBuilder(ctx, bootstrap.Options{
		ConfigPath:  flags.configPath,
		LogLevel:    flags.logLevel,
		In:          cmd.InOrStdin(),
		Out:         cmd.OutOrStdout(),
		Interactive: isTerminal(cmd.InOrStdin()),
	})
	if err != nil {
		return err
	}
	defer module.Close()
	return fn(ctx, module)
}
