package export

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/cnharrison/harq/internal/har"
	"github.com/cnharrison/harq/internal/query"
)

// headers curl computes itself
var skipCurlHeaders = map[string]bool{
	"host":           true,
	"content-length": true,
}

// GenerateCurlCommand rebuilds a request record as a curl invocation
func GenerateCurlCommand(rec query.RequestPayloadRecord) string {
	var cmd strings.Builder
	fmt.Fprintf(&cmd, "curl -X %s %s", rec.Method, shellQuote(rec.URL))

	names := make([]string, 0, len(rec.Headers))
	for name := range rec.Headers {
		if !skipCurlHeaders[strings.ToLower(name)] && !strings.HasPrefix(name, ":") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&cmd, " -H %s", shellQuote(name+": "+rec.Headers[name]))
	}

	if rec.Payload != nil && *rec.Payload != "" {
		fmt.Fprintf(&cmd, " --data-raw %s", shellQuote(*rec.Payload))
	}
	return cmd.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// WriteHAR saves entries as a HAR 1.2 document attributed to harq
func WriteHAR(path string, entries []har.HAREntry, version string) error {
	creator := har.HARCreator{Name: "harq", Version: version}
	if err := har.SaveHAR(entries, creator, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// OpenInEditor opens content in $EDITOR and returns the edited text
func OpenInEditor(content, extension string) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	tmpFile, err := os.CreateTemp("", "harq-*."+extension)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(content); err != nil {
		tmpFile.Close()
		return "", err
	}
	if err := tmpFile.Close(); err != nil {
		return "", err
	}

	cmd := exec.Command(editor, tmpFile.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}

	edited, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", err
	}
	return string(edited), nil
}
