// ABOUTME: Interactive yes/no confirmation for destructive commands
// ABOUTME: Skipped when --force is passed
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// confirm asks a yes/no question. Without a terminal on stdin it refuses
// unless force is set.
func confirm(in io.Reader, out io.Writer, prompt string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return false, fmt.Errorf("refusing to %s without a terminal; pass --yes", prompt)
	}

	fmt.Fprintf(out, "Really %s? [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
