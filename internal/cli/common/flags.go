package common

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type GlobalFlags struct {
	Profile      string
	ProfilesFile string
	Overrides    []string
	Debug        bool
	NoStatus     bool
	NoColor      bool
	Output       string
	JQ           string
}

func BindGlobalFlags(command *cobra.Command, flags *GlobalFlags) {
	command.PersistentFlags().StringVarP(&flags.Profile, "profile", "p", "", "profile name")
	command.PersistentFlags().StringVar(&flags.ProfilesFile, "profiles-file", "", "profile catalog path")
	command.PersistentFlags().StringArrayVar(&flags.Overrides, "set", nil, "override a profile value (key=value)")
	command.PersistentFlags().BoolVarP(&flags.Debug, "debug", "d", false, "enable debug output")
	command.PersistentFlags().BoolVarP(&flags.NoStatus, "no-status", "n", false, "hide status output")
	command.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false, "disable color output")
	command.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputText, "output format: text|json|yaml")
	command.PersistentFlags().StringVar(&flags.JQ, "jq", "", "jq expression applied to structured output")
	_ = command.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{OutputText, OutputJSON, OutputYAML}, cobra.ShellCompDirectiveNoFileComp
	})
}

// BindYesFlag registers the confirmation bypass used by destructive commands.
func BindYesFlag(command *cobra.Command, yes *bool) {
	command.Flags().BoolVarP(yes, "yes", "y", false, "skip the confirmation prompt")
}

// ParseOverrides turns repeated key=value flags into a selection override map.
func ParseOverrides(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}

	overrides := make(map[string]string, len(values))
	for _, raw := range values {
		key, value, found := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, ValidationError(fmt.Sprintf("invalid value %q: expected key=value", raw), nil)
		}
		overrides[key] = strings.TrimSpace(value)
	}
	return overrides, nil
}
