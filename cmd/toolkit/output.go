package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/browse"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/linkcheck"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/toolkit"
)

func writeJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeItems(w io.Writer, items []browse.Item) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, it := range items {
		mark := " "
		if it.IsFavorite {
			mark = "★"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, it.ID, it.Title, strings.Join(it.Tags, ","), it.URL)
	}
	return tw.Flush()
}

func printQuery(w io.Writer, res toolkit.QueryToolsResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, res)
	}
	if res.Empty {
		_, err := fmt.Fprintln(w, browse.EmptyMessage)
		return err
	}
	if err := writeItems(w, res.Tools); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d/%d, %d tools\n", res.Page, res.TotalPages, res.TotalResults)
	return err
}

func printTool(w io.Writer, res toolkit.GetToolResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, res)
	}
	t := res.Tool
	fmt.Fprintf(w, "%s (%s)\n", t.Title, t.ID)
	fmt.Fprintf(w, "  %s\n", t.Description)
	fmt.Fprintf(w, "  url:      %s\n", t.URL)
	category := t.Category
	if t.Subcategory != "" {
		category += " / " + t.Subcategory
	}
	fmt.Fprintf(w, "  category: %s\n", category)
	fmt.Fprintf(w, "  tags:     %s\n", strings.Join(t.Tags, ", "))
	_, err := fmt.Fprintf(w, "  favorite: %t\n", t.IsFavorite)
	return err
}

func printCategories(w io.Writer, res toolkit.ListCategoriesResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, res)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range res.Categories {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Name, c.Count, strings.Join(c.Subcategories, ","))
	}
	return tw.Flush()
}

func printToggle(w io.Writer, res toolkit.ToggleFavoriteResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, res)
	}
	verb := "removed from"
	if res.IsFavorite {
		verb = "added to"
	}
	_, err := fmt.Fprintf(w, "%s %s favorites (%d total)\n", res.ID, verb, res.Count)
	return err
}

func printFavorites(w io.Writer, res toolkit.ListFavoritesResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, res)
	}
	if res.Count == 0 {
		_, err := fmt.Fprintln(w, browse.EmptyMessage)
		return err
	}
	return writeItems(w, res.Tools)
}

func printTheme(w io.Writer, res toolkit.ThemeResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, res)
	}
	_, err := fmt.Fprintf(w, "%s (%s)\n", res.Theme, res.Source)
	return err
}

func printShare(w io.Writer, res toolkit.ShareToolResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, res)
	}
	fmt.Fprintln(w, res.Text)
	fmt.Fprintln(w, res.URL)
	if res.Copied {
		fmt.Fprintln(w, "link copied to clipboard")
	}
	return nil
}

func printLinks(w io.Writer, res linkcheck.Report, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, res)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range res.Results {
		detail := r.Error
		if detail == "" && r.StatusCode != 0 {
			detail = fmt.Sprintf("HTTP %d", r.StatusCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dms\t%s\n", r.Status, r.ID, r.URL, r.LatencyMS, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d checked, %d ok, %d broken\n", res.Checked, res.OK, res.Broken)
	return err
}
