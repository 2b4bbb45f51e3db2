// Package clipboard copies text to the system clipboard through whichever
// command line utility is installed.
package clipboard

import (
	"fmt"
	"os/exec"
	"strings"
)

// commands are tried in order until one succeeds
var commands = [][]string{
	{"wl-copy"}, // Wayland
	{"xclip", "-selection", "clipboard"},
	{"xsel", "--clipboard", "--input"},
	{"pbcopy"}, // macOS
	{"clip"},   // Windows
}

// Copy copies text to the system clipboard
func Copy(text string) error {
	tried := make([]string, 0, len(commands))
	for _, args := range commands {
		tried = append(tried, args[0])
		if _, err := exec.LookPath(args[0]); err != nil {
			continue
		}
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no clipboard utility found (tried %s)", strings.Join(tried, ", "))
}
