// Package share builds the share payload for a tool and performs the
// best-effort clipboard copy. Nothing here touches catalog state.
package share

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
)

const intentBase = "https://twitter.com/intent/tweet"

// Payload is what a native share sheet would receive.
type Payload struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// NewPayload returns the share payload for r.
func NewPayload(r catalog.ToolRecord) Payload {
	return Payload{
		Title: r.Title,
		Text:  "推荐好工具：" + r.Title + " - " + r.Description,
		URL:   r.URL,
	}
}

// IntentURL is the fallback used when no native share target exists.
func IntentURL(r catalog.ToolRecord) string {
	p := NewPayload(r)
	return intentBase + "?text=" + escapeComponent(p.Text) + "&url=" + escapeComponent(p.URL)
}

// componentUnescaper undoes the escapes url.QueryEscape adds beyond those of
// a browser's encodeURIComponent, so intent URLs match the web app's.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// Writer puts text on the clipboard.
type Writer func(text string) error

// Sharer performs clipboard copies.
type Sharer struct {
	write  Writer
	system bool
	logger *slog.Logger
}

// New returns a Sharer writing through the system clipboard.
func New(logger *slog.Logger) *Sharer {
	s := NewWithWriter(clipboard.WriteAll, logger)
	s.system = true
	return s
}

// NewWithWriter returns a Sharer using write instead of the system clipboard.
func NewWithWriter(write Writer, logger *slog.Logger) *Sharer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sharer{write: write, logger: logger}
}

// CopyLink copies r's URL once. Failures are logged and swallowed.
func (s *Sharer) CopyLink(r catalog.ToolRecord) bool {
	if s.write == nil || (s.system && clipboard.Unsupported) {
		s.logger.Debug("Clipboard unavailable", "tool_id", r.ID)
		return false
	}
	if err := s.write(r.URL); err != nil {
		s.logger.Debug("Clipboard copy failed", "tool_id", r.ID, "error", err)
		return false
	}
	return true
}
