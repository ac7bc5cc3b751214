package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/toolkit"
)

func newListCmd(opts *cliOptions) *cobra.Command {
	var args toolkit.QueryToolsArgs
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of tools matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withService(func(s *toolkit.Service) error {
				res, err := s.QueryToolsMCP(cmd.Context(), args)
				if err != nil {
					return err
				}
				return printQuery(cmd.OutOrStdout(), res, opts.jsonOutput)
			})
		},
	}
	cmd.Flags().StringVarP(&args.Category, "category", "c", "all", "category name, all or favorites")
	cmd.Flags().StringVar(&args.Subcategory, "subcategory", "", "subcategory within the category")
	cmd.Flags().StringVarP(&args.Access, "access", "a", "all", "all, direct or restricted")
	cmd.Flags().StringVarP(&args.Search, "search", "s", "", "text to match in title, description or tags")
	cmd.Flags().IntVarP(&args.Page, "page", "p", 1, "page number")
	cmd.Flags().IntVar(&args.PageSize, "page-size", 0, "results per page (default 9)")
	return cmd
}

func newShowCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return opts.withService(func(s *toolkit.Service) error {
				res, err := s.GetToolMCP(cmd.Context(), toolkit.GetToolArgs{ID: argv[0]})
				if err != nil {
					return err
				}
				return printTool(cmd.OutOrStdout(), res, opts.jsonOutput)
			})
		},
	}
}

func newCategoriesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List category tabs with counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withService(func(s *toolkit.Service) error {
				res, err := s.ListCategoriesMCP(cmd.Context(), toolkit.ListCategoriesArgs{})
				if err != nil {
					return err
				}
				return printCategories(cmd.OutOrStdout(), res, opts.jsonOutput)
			})
		},
	}
}

func newFavoriteCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Add a tool to favorites, or remove it if already there",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return opts.withService(func(s *toolkit.Service) error {
				res, err := s.ToggleFavoriteMCP(cmd.Context(), toolkit.ToggleFavoriteArgs{ID: argv[0]})
				if err != nil {
					return err
				}
				return printToggle(cmd.OutOrStdout(), res, opts.jsonOutput)
			})
		},
	}
}

func newFavoritesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "favorites",
		Short: "List favorite tools in the order they were added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withService(func(s *toolkit.Service) error {
				res, err := s.ListFavoritesMCP(cmd.Context(), toolkit.ListFavoritesArgs{})
				if err != nil {
					return err
				}
				return printFavorites(cmd.OutOrStdout(), res, opts.jsonOutput)
			})
		},
	}
}

func newThemeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle]",
		Short:     "Show or change the theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dark", "light", "toggle"},
		RunE: func(cmd *cobra.Command, argv []string) error {
			return opts.withService(func(s *toolkit.Service) error {
				var (
					res toolkit.ThemeResult
					err error
				)
				if len(argv) == 0 {
					res, err = s.GetThemeMCP(cmd.Context(), toolkit.GetThemeArgs{})
				} else {
					res, err = s.SetThemeMCP(cmd.Context(), toolkit.SetThemeArgs{Theme: argv[0]})
				}
				if err != nil {
					return err
				}
				return printTheme(cmd.OutOrStdout(), res, opts.jsonOutput)
			})
		},
	}
}

func newShareCmd(opts *cliOptions) *cobra.Command {
	var copyLink bool
	cmd := &cobra.Command{
		Use:   "share <id>",
		Short: "Print the share text for a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return opts.withService(func(s *toolkit.Service) error {
				res, err := s.ShareToolMCP(cmd.Context(), toolkit.ShareToolArgs{ID: argv[0], Copy: copyLink})
				if err != nil {
					return err
				}
				return printShare(cmd.OutOrStdout(), res, opts.jsonOutput)
			})
		},
	}
	cmd.Flags().BoolVar(&copyLink, "copy", false, "copy the link to the clipboard")
	return cmd
}

func newCheckLinksCmd(opts *cliOptions) *cobra.Command {
	var (
		category string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "check-links [id...]",
		Short: "Check that tool links respond",
		RunE: func(cmd *cobra.Command, argv []string) error {
			return opts.withService(func(s *toolkit.Service) error {
				res, err := s.CheckLinksMCP(cmd.Context(), toolkit.CheckLinksArgs{
					IDs:            argv,
					Category:       category,
					TimeoutSeconds: int(timeout / time.Second),
				})
				if err != nil {
					return err
				}
				return printLinks(cmd.OutOrStdout(), res, opts.jsonOutput)
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category to check when no ids are given")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "timeout for the whole check")
	return cmd
}
