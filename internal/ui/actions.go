package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cnharrison/harq/internal/export"
	"github.com/cnharrison/harq/internal/filter"
	"github.com/cnharrison/harq/pkg/clipboard"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// copyCurl copies a curl command for the selected request
func (app *Application) copyCurl() {
	rec, ok := app.selected(app.requests.GetCurrentItem())
	if !ok {
		return
	}
	if err := clipboard.Copy(export.GenerateCurlCommand(rec.Request)); err != nil {
		app.showStatusMessage(fmt.Sprintf("Clipboard error: %v", err))
		return
	}
	app.showStatusMessage("cURL command copied to clipboard!")
}

// copyMarkdown copies the markdown report for the selected exchange
func (app *Application) copyMarkdown() {
	rec, ok := app.selected(app.requests.GetCurrentItem())
	if !ok {
		return
	}
	if err := clipboard.Copy(export.GenerateMarkdownSummary(rec)); err != nil {
		app.showStatusMessage(fmt.Sprintf("Clipboard error: %v", err))
		return
	}
	app.showStatusMessage("Markdown summary copied to clipboard!")
}

// saveFilteredHAR writes the entries matching the search box to a new HAR file
func (app *Application) saveFilteredHAR() {
	search := app.searchText
	filename := savedHARName(search, time.Now())
	go func() {
		entries, err := app.queries.Entries(app.ctx, filter.Contains(search))
		if err == nil {
			err = export.WriteHAR(filename, entries, app.opts.Version)
		}
		app.app.QueueUpdateDraw(func() {
			if err != nil {
				app.showStatusMessage(fmt.Sprintf("Error saving HAR: %v", err))
			} else {
				app.showStatusMessage(fmt.Sprintf("Saved %d entries to %s", len(entries), filename))
			}
			app.updateBottomBar()
		})
	}()
}

// editBody opens the selected response body in $EDITOR
func (app *Application) editBody() {
	rec, ok := app.selected(app.requests.GetCurrentItem())
	if !ok || rec.Response == nil || rec.Response.BodyText() == "" {
		app.showStatusMessage("No body to edit")
		return
	}
	var err error
	app.app.Suspend(func() {
		_, err = export.OpenInEditor(rec.Response.BodyText(), extensionFor(rec.Response.MimeType))
	})
	if err != nil {
		app.showStatusMessage(fmt.Sprintf("Editor error: %v", err))
	}
}

// savedHARName builds a descriptive file name from the active search
func savedHARName(search string, now time.Time) string {
	label := "all"
	if s := strings.Trim(unsafeFilenameChars.ReplaceAllString(search, "_"), "_"); s != "" {
		label = s
	}
	return fmt.Sprintf("harq_%s_%s.har", label, now.Format("20060102-150405"))
}

func extensionFor(mimeType string) string {
	mime := strings.ToLower(mimeType)
	switch {
	case strings.Contains(mime, "json"):
		return "json"
	case strings.Contains(mime, "html"):
		return "html"
	case strings.Contains(mime, "xml"):
		return "xml"
	case strings.Contains(mime, "javascript"):
		return "js"
	case strings.Contains(mime, "css"):
		return "css"
	default:
		return "txt"
	}
}
