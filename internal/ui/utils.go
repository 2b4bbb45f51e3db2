package ui

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rivo/tview"

	"github.com/cnharrison/harq/internal/format"
	"github.com/cnharrison/harq/internal/query"
)

// getCurrentView returns the currently active text view for scrolling
func (app *Application) getCurrentView() *tview.TextView {
	views := app.tabViews()
	if app.currentTab >= 0 && app.currentTab < len(views) {
		return views[app.currentTab]
	}
	return app.requestView
}

// getBlinkingArrows returns blinking arrow characters
func (app *Application) getBlinkingArrows() string {
	if app.animationFrame%animationCycleFrames < pulseCycleFrames {
		return "►"
	}
	return " "
}

// selected returns the record shown at list position index
func (app *Application) selected(index int) (query.CombinedRecord, bool) {
	if index < 0 || index >= len(app.records) {
		return query.CombinedRecord{}, false
	}
	return app.records[index], true
}

func statusColor(status int) string {
	switch {
	case status >= statusCodeClientError:
		return "red"
	case status >= statusCodeRedirect:
		return "yellow"
	case status >= statusCodeSuccess:
		return "green"
	default:
		return "white"
	}
}

// requestRowText renders one line of the requests list
func requestRowText(rec query.CombinedRecord) string {
	host, path := rec.URL, ""
	if u, err := url.Parse(rec.URL); err == nil && u.Host != "" {
		host, path = u.Host, u.Path
	}
	if len(path) > maxPathDisplayLength {
		path = path[:maxPathDisplayLength-pathTruncateOffset] + "..."
	}

	status := "[gray]---[-]"
	if rec.Response != nil {
		status = fmt.Sprintf("[%s]%3d[-]", statusColor(rec.Response.Status), rec.Response.Status)
	}
	return fmt.Sprintf("[aqua]%-6s[-] %s [blue]%s[-] [gray]%s[-]",
		rec.Method, status, tview.Escape(host), tview.Escape(path))
}

// requestTabText renders the Request tab
func requestTabText(f *format.ContentFormatter, rec query.CombinedRecord) string {
	req := rec.Request
	var sb strings.Builder
	fmt.Fprintf(&sb, "[yellow]Method:[-] [aqua]%s[-]\n[yellow]URL:[-] [blue]%s[-]\n",
		req.Method, tview.Escape(req.URL))
	if req.ContentType != "" {
		fmt.Fprintf(&sb, "[yellow]Content Type:[-] %s\n", tview.Escape(req.ContentType))
	}

	sb.WriteString("\n[yellow]Headers:[-]\n")
	writePairs(&sb, req.Headers)

	if len(req.QueryParams) > 0 {
		sb.WriteString("\n[yellow]Query Parameters:[-]\n")
		writePairs(&sb, req.QueryParams)
	}

	sb.WriteString("\n[yellow]Payload:[-]")
	if req.Payload == nil {
		sb.WriteString(" [gray]None[-]")
		return sb.String()
	}
	fmt.Fprintf(&sb, " [gray](%d bytes)[-]\n", req.PayloadSize)
	sb.WriteString(f.FormatBody(*req.Payload, req.ContentType))
	return sb.String()
}

// responseTabText renders the Response tab
func responseTabText(f *format.ContentFormatter, rec query.CombinedRecord) string {
	resp := rec.Response
	if resp == nil {
		return "[gray]No response captured for this request[-]"
	}
	return fmt.Sprintf("[yellow]Status:[-] [%s]%d[-]\n[yellow]Content Type:[-] [aqua]%s[-]\n[yellow]Size:[-] %d bytes\n\n[yellow]Parsed JSON:[-]\n%s",
		statusColor(resp.Status), resp.Status, tview.Escape(resp.MimeType), resp.Size, parsedJSON(f, resp.JSON))
}

// bodyTabText renders the decoded response body
func bodyTabText(f *format.ContentFormatter, rec query.CombinedRecord) string {
	if rec.Response == nil || rec.Response.Body == nil || *rec.Response.Body == "" {
		return "[gray]No body content[-]"
	}
	return f.FormatBody(*rec.Response.Body, rec.Response.MimeType)
}

func parsedJSON(f *format.ContentFormatter, v any) string {
	if v == nil {
		return "[gray]None[-]"
	}
	return f.PrettyJSON(v)
}

func writePairs(sb *strings.Builder, m map[string]string) {
	if len(m) == 0 {
		sb.WriteString("[gray]None[-]\n")
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(sb, "  [aqua]%s[-]: %s\n", tview.Escape(k), tview.Escape(m[k]))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
