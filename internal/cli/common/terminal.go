package common

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// IsInteractiveTerminal reports whether both the command's input and output
// are attached to a terminal.
func IsInteractiveTerminal(command *cobra.Command) bool {
	return isTerminal(command.InOrStdin()) && isTerminal(command.OutOrStdout())
}

func isTerminal(stream any) bool {
	file, ok := stream.(*os.File)
	if !ok || file == nil {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
