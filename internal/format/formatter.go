package format

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-xmlfmt/xmlfmt"
	"github.com/rivo/tview"
	"github.com/yosssi/gohtml"
)

// Style selects between plain text and tview color tags
type Style int

const (
	// Plain output for terminals and files
	Plain Style = iota
	// Markup adds tview color tags and escapes the content
	Markup
)

// Content kinds returned by DetectContentType
const (
	KindJSON = "json"
	KindHTML = "html"
	KindXML  = "xml"
	KindForm = "form"
	KindText = "text"
)

var (
	reJSONKey    = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"(\s*:)`)
	reJSONString = regexp.MustCompile(`:\s"((?:[^"\\]|\\.)*)"`)
	reJSONNumber = regexp.MustCompile(`:\s(-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?)`)
	reJSONLit    = regexp.MustCompile(`:\s(true|false|null)`)
	reOpenTag    = regexp.MustCompile(`(<[^/!?][^>]*>)`)
	reCloseTag   = regexp.MustCompile(`(</[^>]+>)`)
	reComment    = regexp.MustCompile(`(<!--.*?-->)`)
	reProlog     = regexp.MustCompile(`(<\?[^>]*\?>)`)
	reMarkupLike = regexp.MustCompile(`^<[a-zA-Z][^>]*>.*</[a-zA-Z][^>]*>$`)
	reHTMLTag    = regexp.MustCompile(`<(div|span|p|body|head|script|style|link|meta)\b[^>]*>`)
)

// ContentFormatter pretty-prints captured bodies
type ContentFormatter struct {
	style Style
}

// NewContentFormatter creates a formatter for the given output style
func NewContentFormatter(style Style) *ContentFormatter {
	return &ContentFormatter{style: style}
}

// FormatBody detects the kind of content and formats it
func (f *ContentFormatter) FormatBody(content, mimeType string) string {
	return f.FormatContent(content, f.DetectContentType(content, mimeType))
}

// FormatContent formats content of a known kind
func (f *ContentFormatter) FormatContent(content, kind string) string {
	if content == "" {
		if f.style == Markup {
			return "[gray]No content[-]"
		}
		return ""
	}

	switch kind {
	case KindJSON:
		return f.formatJSON(content)
	case KindHTML:
		return f.formatMarkup(gohtml.Format(content))
	case KindXML:
		return f.formatMarkup(xmlfmt.FormatXML(content, "", "  "))
	case KindForm:
		return f.formatForm(content)
	default:
		return f.escape(content)
	}
}

// DetectContentType classifies content using the MIME type first, then the bytes
func (f *ContentFormatter) DetectContentType(content, mimeType string) string {
	mime := strings.ToLower(mimeType)
	switch {
	case strings.Contains(mime, "json"):
		return KindJSON
	case strings.Contains(mime, "html"):
		return KindHTML
	case strings.Contains(mime, "xml"):
		return KindXML
	case strings.Contains(mime, "x-www-form-urlencoded"):
		return KindForm
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return KindText
	}

	if (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) && json.Valid([]byte(trimmed)) {
		return KindJSON
	}

	detected := http.DetectContentType([]byte(trimmed))
	switch {
	case strings.Contains(detected, "text/html"):
		return KindHTML
	case strings.Contains(detected, "xml"):
		return KindXML
	}

	if strings.HasPrefix(trimmed, "<?xml") {
		return KindXML
	}
	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "<html") || reHTMLTag.MatchString(lower) {
		return KindHTML
	}
	if reMarkupLike.MatchString(strings.ReplaceAll(trimmed, "\n", "")) {
		var v interface{}
		if xml.Unmarshal([]byte(trimmed), &v) == nil {
			return KindXML
		}
	}
	return KindText
}

func (f *ContentFormatter) formatJSON(content string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(strings.TrimSpace(content)), "", "  "); err != nil {
		return f.escape(content)
	}
	result := buf.String()
	if f.style != Markup {
		return result
	}

	result = tview.Escape(result)
	result = reJSONKey.ReplaceAllString(result, `[aqua]"$1"[-]$2`)
	result = reJSONString.ReplaceAllString(result, `: [green]"$1"[-]`)
	result = reJSONNumber.ReplaceAllString(result, `: [yellow]$1[-]`)
	result = reJSONLit.ReplaceAllString(result, `: [fuchsia]$1[-]`)
	return result
}

func (f *ContentFormatter) formatMarkup(formatted string) string {
	if f.style != Markup {
		return formatted
	}
	formatted = tview.Escape(formatted)
	formatted = reComment.ReplaceAllString(formatted, `[gray]$1[-]`)
	formatted = reProlog.ReplaceAllString(formatted, `[fuchsia]$1[-]`)
	formatted = reOpenTag.ReplaceAllString(formatted, `[blue]$1[-]`)
	formatted = reCloseTag.ReplaceAllString(formatted, `[blue]$1[-]`)
	return formatted
}

func (f *ContentFormatter) formatForm(content string) string {
	var lines []string
	for _, pair := range strings.Split(content, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		if f.style == Markup {
			lines = append(lines, "[aqua]"+tview.Escape(name)+"[-] = "+tview.Escape(value))
		} else {
			lines = append(lines, name+" = "+value)
		}
	}
	return strings.Join(lines, "\n")
}

func (f *ContentFormatter) escape(content string) string {
	if f.style == Markup {
		return tview.Escape(content)
	}
	return content
}

// PrettyJSON renders v as indented JSON
func (f *ContentFormatter) PrettyJSON(v interface{}) string {
	if v == nil {
		return "null"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "error formatting JSON: " + err.Error()
	}
	return f.formatJSON(buf.String())
}
