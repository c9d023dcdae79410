package common

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// Prompter is the interactive surface commands depend on; tests substitute it.
type Prompter interface {
	IsInteractive(command *cobra.Command) bool
	Confirm(command *cobra.Command, prompt string, defaultYes bool) (bool, error)
	Secret(command *cobra.Command, prompt string) (string, error)
}

type TerminalPrompter struct{}

func (TerminalPrompter) IsInteractive(command *cobra.Command) bool {
	return IsInteractiveTerminal(command)
}

func (TerminalPrompter) Confirm(command *cobra.Command, prompt string, defaultYes bool) (bool, error) {
	return PromptConfirm(command, prompt, defaultYes)
}

func (TerminalPrompter) Secret(command *cobra.Command, prompt string) (string, error) {
	return PromptSecret(command, prompt)
}

// ConfirmDeletion returns true when the deletion may proceed. Without a
// terminal the caller must pass --yes.
func ConfirmDeletion(command *cobra.Command, prompter Prompter, yes bool, prompt string) (bool, error) {
	if yes {
		return true, nil
	}
	if prompter == nil || !prompter.IsInteractive(command) {
		return false, ValidationError("refusing to delete without confirmation: pass --yes", nil)
	}
	return prompter.Confirm(command, prompt, false)
}

// PromptSecret reads a required value without echoing it.
func PromptSecret(command *cobra.Command, prompt string) (string, error) {
	if !IsInteractiveTerminal(command) {
		return "", ValidationError("interactive terminal is required", nil)
	}

	value := ""
	field := huh.NewInput().
		Title(normalizePrompt(prompt)).
		EchoMode(huh.EchoModePassword).
		Validate(huh.ValidateNotEmpty()).
		Value(&value)

	if err := runInteractiveField(command, field); err != nil {
		return "", err
	}
	return value, nil
}

func PromptConfirm(command *cobra.Command, prompt string, defaultYes bool) (bool, error) {
	if !IsInteractiveTerminal(command) {
		return false, ValidationError("interactive terminal is required", nil)
	}

	value := defaultYes
	field := huh.NewConfirm().
		Title(normalizePrompt(prompt)).
		Value(&value)

	if err := runInteractiveField(command, field); err != nil {
		return false, err
	}
	return value, nil
}

func runInteractiveField(command *cobra.Command, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithInput(command.InOrStdin()).
		WithOutput(command.OutOrStdout()).
		WithShowHelp(false)

	err := form.Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ValidationError("interactive prompt interrupted", nil)
	}
	return err
}

func normalizePrompt(prompt string) string {
	title := strings.TrimSpace(prompt)
	title = strings.TrimSuffix(title, ":")
	if title == "" {
		return "Input"
	}
	return title
}
