package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tidwall/gjson"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/cnharrison/harq/internal/har"
	"github.com/cnharrison/harq/internal/query"
)

// Format names an output encoding
type Format string

const (
	FormatJSON    Format = "json"
	FormatText    Format = "text"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat validates a --output value
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatText, FormatMsgpack:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, text or msgpack)", s)
	}
}

var (
	styleOK       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleRedirect = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styleClient   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleServer   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleMissing  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
)

const previewWidth = 60

// Renderer writes query results to w in one format.
// When a gjson path is selected, only the matching part of the JSON form is written.
type Renderer struct {
	w      io.Writer
	format Format
	path   string
}

// New creates a renderer
func New(w io.Writer, format Format, selectPath string) *Renderer {
	if format == "" {
		format = FormatJSON
	}
	return &Renderer{w: w, format: format, path: selectPath}
}

// Responses renders response body records
func (r *Renderer) Responses(records []query.ResponseBodyRecord) error {
	return r.render(records, func(t table.Writer) int {
		t.AppendHeader(table.Row{"#", "Method", "Status", "MIME", "Size", "URL", "Body"})
		for i, rec := range records {
			t.AppendRow(table.Row{i + 1, rec.Method, statusCell(&rec), rec.MimeType, rec.Size, rec.URL, preview(rec.BodyText())})
		}
		return len(records)
	}, "response")
}

// Payloads renders request payload records
func (r *Renderer) Payloads(records []query.RequestPayloadRecord) error {
	return r.render(records, func(t table.Writer) int {
		t.AppendHeader(table.Row{"#", "Method", "Content-Type", "Size", "URL", "Payload"})
		for i, rec := range records {
			t.AppendRow(table.Row{i + 1, rec.Method, rec.ContentType, rec.PayloadSize, rec.URL, preview(rec.PayloadText())})
		}
		return len(records)
	}, "request")
}

// Combined renders joined request/response records
func (r *Renderer) Combined(records []query.CombinedRecord) error {
	return r.render(records, func(t table.Writer) int {
		t.AppendHeader(table.Row{"#", "Method", "Status", "URL", "Request", "Response"})
		for i, rec := range records {
			var respBody string
			if rec.Response != nil {
				respBody = rec.Response.BodyText()
			}
			t.AppendRow(table.Row{i + 1, rec.Method, statusCell(rec.Response), rec.URL,
				preview(rec.Request.PayloadText()), preview(respBody)})
		}
		return len(records)
	}, "exchange")
}

// Entries renders raw HAR entries
func (r *Renderer) Entries(entries []har.HAREntry) error {
	return r.render(entries, func(t table.Writer) int {
		t.AppendHeader(table.Row{"#", "Method", "Status", "Type", "Size", "URL"})
		for i, e := range entries {
			status := &query.ResponseBodyRecord{Status: e.Response.Status}
			t.AppendRow(table.Row{i + 1, e.Request.Method, statusCell(status), har.GetRequestType(e),
				e.Response.Content.Size, e.Request.URL})
		}
		return len(entries)
	}, "entry")
}

// Value renders any other result; text output falls back to indented JSON
func (r *Renderer) Value(v any) error {
	return r.render(v, nil, "")
}

func (r *Renderer) render(v any, fill func(table.Writer) int, noun string) error {
	if r.path != "" {
		return r.renderSelected(v)
	}
	switch r.format {
	case FormatMsgpack:
		return encodeMsgpack(r.w, v)
	case FormatText:
		if fill == nil {
			return writeJSON(r.w, v)
		}
		t := newTable(r.w)
		n := fill(t)
		t.Render()
		_, err := fmt.Fprintf(r.w, "%d %s\n", n, plural(n, noun))
		return err
	default:
		return writeJSON(r.w, v)
	}
}

func (r *Renderer) renderSelected(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res := gjson.GetBytes(data, r.path)
	if !res.Exists() {
		return fmt.Errorf("select %q: no match", r.path)
	}

	switch r.format {
	case FormatMsgpack:
		return encodeMsgpack(r.w, res.Value())
	case FormatText:
		if res.IsArray() {
			for _, item := range res.Array() {
				if _, err := fmt.Fprintln(r.w, item.String()); err != nil {
					return err
				}
			}
			return nil
		}
		_, err := fmt.Fprintln(r.w, res.String())
		return err
	default:
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(res.Raw), "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(r.w)
		return err
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeMsgpack(w io.Writer, v any) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	return enc.Encode(v)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	return t
}

func statusCell(rec *query.ResponseBodyRecord) string {
	if rec == nil {
		return styleMissing.Render("-")
	}
	s := strconv.Itoa(rec.Status)
	switch {
	case rec.Status >= 500:
		return styleServer.Render(s)
	case rec.Status >= 400:
		return styleClient.Render(s)
	case rec.Status >= 300:
		return styleRedirect.Render(s)
	case rec.Status >= 200:
		return styleOK.Render(s)
	default:
		return s
	}
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= previewWidth {
		return s
	}
	return string(runes[:previewWidth-1]) + "…"
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	if strings.HasSuffix(noun, "y") {
		return strings.TrimSuffix(noun, "y") + "ies"
	}
	return noun + "s"
}
