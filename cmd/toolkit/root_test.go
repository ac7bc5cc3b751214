package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/base"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/browse"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/linkcheck"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/prefs"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/toolkit"
)

type stubProber struct{}

func (stubProber) Probe(_ context.Context, u string) base.ProbeResult {
	if u == "https://suno.com" {
		return base.ProbeResult{URL: u, StatusCode: 404}
	}
	return base.ProbeResult{URL: u, StatusCode: 200, OK: true}
}

// execute runs the CLI against a bolt store in dir.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	opts := &cliOptions{
		profile:   prefs.DefaultProfile,
		storePath: filepath.Join(dir, "prefs.db"),
		open:      openService,
	}
	return run(t, opts, args...)
}

func run(t *testing.T, opts *cliOptions, args ...string) (string, error) {
	t.Helper()
	root := buildRootCommand(opts)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "kimi")
	assert.Contains(t, out, "page 1/3, 27 tools")

	out, err = execute(t, dir, "list", "--search", "no-such-tool-anywhere")
	require.NoError(t, err)
	assert.Contains(t, out, browse.EmptyMessage)
}

func TestList_JSON(t *testing.T) {
	out, err := execute(t, t.TempDir(), "--json", "list",
		"--category", "AI工具", "--subcategory", "对话模型", "--access", "restricted")
	require.NoError(t, err)

	var res toolkit.QueryToolsResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Tools, 1)
	assert.Equal(t, "chatgpt", res.Tools[0].ID)
	assert.Equal(t, 1, res.TotalPages)
}

func TestShow(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "show", "kimi")
	require.NoError(t, err)
	assert.Contains(t, out, "https://kimi.moonshot.cn")
	assert.Contains(t, out, "favorite: false")

	_, err = execute(t, dir, "show", "nope")
	assert.Error(t, err)
}

func TestFavorites_PersistAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "favorite", "canva")
	require.NoError(t, err)
	assert.Contains(t, out, "canva added to favorites (1 total)")

	_, err = execute(t, dir, "favorite", "kimi")
	require.NoError(t, err)

	out, err = execute(t, dir, "--json", "favorites")
	require.NoError(t, err)
	var favs toolkit.ListFavoritesResult
	require.NoError(t, json.Unmarshal([]byte(out), &favs))
	require.Len(t, favs.Tools, 2)
	assert.Equal(t, "canva", favs.Tools[0].ID)
	assert.Equal(t, "kimi", favs.Tools[1].ID)

	out, err = execute(t, dir, "favorite", "canva")
	require.NoError(t, err)
	assert.Contains(t, out, "removed from favorites (1 total)")

	_, err = execute(t, dir, "favorite", "missing-tool")
	assert.Error(t, err)

	out, err = execute(t, dir, "--profile", "other", "favorites")
	require.NoError(t, err)
	assert.Contains(t, out, browse.EmptyMessage)
}

func TestTheme(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "light (default)")

	out, err = execute(t, dir, "--prefers-dark", "true", "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "dark (system)")

	_, err = execute(t, dir, "theme", "dark")
	require.NoError(t, err)

	out, err = execute(t, dir, "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "dark (stored)")

	_, err = execute(t, dir, "theme", "purple")
	assert.Error(t, err)
}

func TestCategories(t *testing.T) {
	out, err := execute(t, t.TempDir(), "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "AI工具")
	assert.Contains(t, out, "对话模型")
}

func TestShareAndCheckLinks(t *testing.T) {
	var copied []string
	opts := &cliOptions{
		open: func(*cliOptions) (*toolkit.Service, error) {
			cat, err := catalog.Default()
			if err != nil {
				return nil, err
			}
			return toolkit.New(cat, prefs.NewMemoryStore(), nil, toolkit.Options{
				Prober: stubProber{},
				Clipboard: func(s string) error {
					copied = append(copied, s)
					return nil
				},
			}), nil
		},
	}

	out, err := run(t, opts, "share", "kimi", "--copy")
	require.NoError(t, err)
	assert.Contains(t, out, "推荐好工具：")
	assert.Contains(t, out, "link copied to clipboard")
	assert.Equal(t, []string{"https://kimi.moonshot.cn"}, copied)

	out, err = run(t, opts, "--json", "check-links", "kimi", "suno")
	require.NoError(t, err)
	var report linkcheck.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.OK)
	assert.Equal(t, 1, report.Broken)
}

func TestBadDarkSignal(t *testing.T) {
	_, err := execute(t, t.TempDir(), "--prefers-dark", "maybe", "theme")
	assert.Error(t, err)
}
