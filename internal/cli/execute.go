package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/planetfederal/gsconfig/faults"
	"github.com/planetfederal/gsconfig/internal/cli/commandmeta"
	"github.com/planetfederal/gsconfig/internal/cli/common"
)

type Dependencies struct {
	Profiles    common.ProfileServiceFactory
	OpenCatalog common.CatalogOpener
	Prompter    common.Prompter
}

func (d Dependencies) commandDependencies() common.CommandDependencies {
	return common.CommandDependencies{
		Profiles:    d.Profiles,
		OpenCatalog: d.OpenCatalog,
		Prompter:    d.Prompter,
	}
}

func Execute(deps Dependencies) error {
	root := NewRootCommand(deps)
	command, err := root.ExecuteC()
	emitStatus := shouldEmitExecutionStatus(os.Args[1:], command)

	if err != nil {
		if emitStatus {
			writeExecutionErrorStatus(root.ErrOrStderr(), err)
		} else {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), strings.TrimSpace(err.Error()))
		}
		return err
	}
	if emitStatus {
		writeExecutionOKStatus(root.ErrOrStderr())
	}
	return nil
}

func ExitCodeForError(err error) int {
	if err == nil {
		return 0
	}

	var typedErr *faults.TypedError
	if !errors.As(err, &typedErr) {
		return 1
	}

	switch typedErr.Category {
	case faults.ValidationError, faults.InterpretationError:
		return 2
	case faults.NotFoundError:
		return 3
	case faults.FailedRequest:
		switch typedErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return 4
		case http.StatusNotFound:
			return 3
		}
		return 7
	case faults.ConflictingData, faults.AmbiguousRequest:
		return 5
	case faults.TransportError:
		return 6
	case faults.ParsingError, faults.UploadError:
		return 8
	default:
		return 1
	}
}

func writeExecutionOKStatus(w io.Writer) {
	_, _ = fmt.Fprintf(w, "%s command executed successfully.\n", formatStatusLabel(w, "OK"))
}

func writeExecutionErrorStatus(w io.Writer, err error) {
	description := "command execution failed"
	if err != nil {
		description = fmt.Sprintf("%s: %s", description, strings.TrimSpace(err.Error()))
	}
	_, _ = fmt.Fprintf(w, "%s %s.\n", formatStatusLabel(w, "ERROR"), description)
}

func formatStatusLabel(w io.Writer, status string) string {
	label := "[" + status + "]"
	if !supportsANSIStatus(w) {
		return label
	}
	if status == "OK" {
		return "\x1b[1;32m" + label + "\x1b[0m"
	}
	return "\x1b[1;31m" + label + "\x1b[0m"
}

func supportsANSIStatus(w io.Writer) bool {
	if shouldSuppressColor(os.Args[1:]) {
		return false
	}
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return false
	}
	terminal := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	return terminal != "" && terminal != "dumb"
}

func shouldSuppressColor(args []string) bool {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		return true
	}
	_, noColor := parseOutputToggles(args)
	return noColor
}

func shouldSuppressStatusMessage(args []string) bool {
	noStatus, _ := parseOutputToggles(args)
	return noStatus
}

// parseOutputToggles reads --no-status and --no-color before cobra runs, so
// the status line can be decided even when the command itself failed to parse.
func parseOutputToggles(args []string) (noStatus bool, noColor bool) {
	flags := pflag.NewFlagSet("output", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.SetOutput(io.Discard)
	flags.BoolVarP(&noStatus, "no-status", "n", false, "")
	flags.BoolVar(&noColor, "no-color", false, "")
	_ = flags.Parse(args)
	return noStatus, noColor
}

func shouldEmitExecutionStatus(args []string, command *cobra.Command) bool {
	if command == nil || shouldSuppressStatusMessage(args) || isHelpOrCompletionInvocation(args) {
		return false
	}
	return commandPathSupportsExecutionStatus(command.CommandPath())
}

func commandPathSupportsExecutionStatus(path string) bool {
	return commandmeta.EmitsExecutionStatusPath(strings.TrimSpace(path))
}

func isHelpOrCompletionInvocation(args []string) bool {
	if len(args) == 0 {
		return true
	}
	switch args[0] {
	case "help", "completion", "__complete", "__completeNoDesc":
		return true
	}
	for _, current := range args {
		if current == "--" {
			break
		}
		if current == "--help" || current == "-h" {
			return true
		}
	}
	return false
}
