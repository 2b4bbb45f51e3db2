package export

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/cnharrison/harq/internal/format"
	"github.com/cnharrison/harq/internal/query"
)

var importantRequestHeaders = []string{"authorization", "content-type", "accept", "user-agent", "x-", "cookie", "auth"}

// GenerateMarkdownSummary renders a combined record as a markdown report
// suitable for pasting into a bug ticket
func GenerateMarkdownSummary(rec query.CombinedRecord) string {
	var sb strings.Builder
	plain := format.NewContentFormatter(format.Plain)

	host, path := rec.URL, ""
	if u, err := url.Parse(rec.URL); err == nil && u.Host != "" {
		host, path = u.Host, u.Path
	}

	status := 0
	if rec.Response != nil {
		status = rec.Response.Status
	}
	fmt.Fprintf(&sb, "# %s %s %s - %s\n\n", statusEmoji(rec.Response), rec.Method, statusLabel(rec.Response), host)

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- **Status:** %s\n", statusLabel(rec.Response))
	fmt.Fprintf(&sb, "- **Method:** %s\n", rec.Method)
	fmt.Fprintf(&sb, "- **Host:** %s\n", host)
	fmt.Fprintf(&sb, "- **Path:** %s\n\n", path)
	fmt.Fprintf(&sb, "**Full URL:** `%s`\n\n", rec.URL)

	req := rec.Request
	if headers := pickHeaders(req.Headers, importantRequestHeaders); len(headers) > 0 {
		sb.WriteString("## Key Request Headers\n\n")
		for _, name := range headers {
			fmt.Fprintf(&sb, "- **%s:** `%s`\n", name, redact(name, req.Headers[name]))
		}
		sb.WriteString("\n")
	}

	if len(req.QueryParams) > 0 {
		sb.WriteString("## Query Parameters\n\n")
		for _, name := range sortedKeys(req.QueryParams) {
			fmt.Fprintf(&sb, "- **%s:** `%s`\n", name, req.QueryParams[name])
		}
		sb.WriteString("\n")
	}

	if body := req.PayloadText(); body != "" {
		sb.WriteString("## Request Body\n\n")
		writeFenced(&sb, plain, body, req.ContentType, 500)
	}

	sb.WriteString("## Response\n\n")
	if rec.Response == nil {
		sb.WriteString("No response was captured for this request.\n\n")
	} else {
		resp := rec.Response
		fmt.Fprintf(&sb, "- **MIME type:** %s\n", resp.MimeType)
		fmt.Fprintf(&sb, "- **Size:** %d bytes\n\n", resp.Size)

		if body := resp.BodyText(); body != "" {
			if status >= 400 || strings.Contains(strings.ToLower(body), "error") {
				sb.WriteString("**Error Response:**\n")
			} else {
				sb.WriteString("**Response Body:**\n")
			}
			maxLen := 800
			if status >= 400 {
				maxLen = 1500
			}
			writeFenced(&sb, plain, body, resp.MimeType, maxLen)
		}
	}

	if hints := troubleshooting(status); hints != "" {
		sb.WriteString("## Quick Troubleshooting\n\n")
		sb.WriteString(hints)
		sb.WriteString("\n")
	}

	sb.WriteString("---\n*Generated by harq*")
	return sb.String()
}

func writeFenced(sb *strings.Builder, f *format.ContentFormatter, body, mimeType string, maxLen int) {
	kind := f.DetectContentType(body, mimeType)
	pretty := f.FormatContent(body, kind)
	lang := kind
	if kind == format.KindForm {
		lang = "text"
	}
	if len(pretty) > maxLen {
		fmt.Fprintf(sb, "```%s\n%s\n... (showing first %d chars of %d total)\n```\n\n", lang, pretty[:maxLen], maxLen, len(pretty))
		return
	}
	fmt.Fprintf(sb, "```%s\n%s\n```\n\n", lang, pretty)
}

func statusLabel(resp *query.ResponseBodyRecord) string {
	if resp == nil {
		return "(no response)"
	}
	return fmt.Sprintf("%d", resp.Status)
}

func statusEmoji(resp *query.ResponseBodyRecord) string {
	switch {
	case resp == nil:
		return "❔"
	case resp.Status >= 500:
		return "🔥"
	case resp.Status >= 400:
		return "⚠️"
	case resp.Status >= 300:
		return "↩️"
	default:
		return "✅"
	}
}

func troubleshooting(status int) string {
	switch {
	case status == 401:
		return "- Check authentication headers/tokens\n- Verify API keys are valid\n- Check token expiration\n"
	case status == 403:
		return "- Check user permissions\n- Verify resource access rights\n- Check rate limiting\n"
	case status == 404:
		return "- Verify URL path is correct\n- Check if resource exists\n- Validate route configuration\n"
	case status == 429:
		return "- Rate limiting active\n- Check retry-after header\n- Implement backoff strategy\n"
	case status >= 500:
		return "- Server-side issue\n- Check server logs\n- Verify service health\n"
	default:
		return ""
	}
}

func pickHeaders(headers map[string]string, important []string) []string {
	var picked []string
	for _, name := range sortedKeys(headers) {
		lower := strings.ToLower(name)
		for _, want := range important {
			if strings.Contains(lower, want) {
				picked = append(picked, name)
				break
			}
		}
	}
	return picked
}

func redact(name, value string) string {
	if !strings.Contains(strings.ToLower(name), "auth") || len(value) <= 10 {
		return value
	}
	return value[:10] + "..." + value[len(value)-4:] + " (redacted)"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
