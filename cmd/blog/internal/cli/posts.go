package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blog"
)

func newLoadPostCommand(flags *globalFlags) *cobra.Command {
	var force, dryRun bool
	cmd := &cobra.Command{
		Use:   "load-post <path>",
		Short: "Load a single post file",
		Long: `Parses the file, compares it with the stored post and creates or
updates it. Changed posts are only overwritten after confirmation or with --force.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withModule(cmd, flags, func(ctx context.Context, module *blog.Module) error {
				return module.LoadPost(ctx, blog.LoadPostCommand{Path: args[0], Force: force, DryRun: dryRun})
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite changed posts without asking")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and reconcile without saving")
	return cmd
}

func newLoadPostsCommand(flags *globalFlags) *cobra.Command {
	var force, dryRun bool
	cmd := &cobra.Command{
		Use:   "load-posts [directory]",
		Short: "Load every post file under a directory",
		Long: `Loads files in lexicographic path order and stops at the first file
that fails. Files loaded before the failure stay saved. The directory defaults
to the configured content directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withModule(cmd, flags, func(ctx context.Context, module *blog.Module) error {
				dir := module.Container().Config.ContentDir
				if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
					dir = args[0]
				}
				return module.LoadPosts(ctx, blog.LoadPostsCommand{Directory: dir, Force: force, DryRun: dryRun})
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite changed posts without asking")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and reconcile without saving")
	return cmd
}

func newPreviewCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <path>",
		Short: "Render a post body as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withModule(cmd, flags, func(ctx context.Context, module *blog.Module) error {
				return module.Preview(ctx, blog.PreviewPostCommand{Path: args[0]})
			})
		},
	}
}

func newShortURLCommand(flags *globalFlags) *cobra.Command {
	shortURL := &cobra.Command{
		Use:   "shorturl",
		Short: "Manage short URLs referenced by posts",
	}
	shortURL.AddCommand(&cobra.Command{
		Use:   "add <slug> <target>",
		Short: "Register a short URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withModule(cmd, flags, func(ctx context.Context, module *blog.Module) error {
				if err := module.AddShortURL(ctx, blog.AddShortURLCommand{Slug: args[0], TargetURL: args[1]}); err != nil {
					return err
				}
				cmd.Printf("added %s %s\n", args[0], args[1])
				return nil
			})
		},
	})
	return shortURL
}
