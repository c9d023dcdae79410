package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/planetfederal/gsconfig/debugctx"
	"github.com/planetfederal/gsconfig/internal/cli/common"
	"github.com/planetfederal/gsconfig/internal/cli/layer"
	"github.com/planetfederal/gsconfig/internal/cli/layergroup"
	"github.com/planetfederal/gsconfig/internal/cli/profile"
	resourcecmd "github.com/planetfederal/gsconfig/internal/cli/resource"
	"github.com/planetfederal/gsconfig/internal/cli/rest"
	"github.com/planetfederal/gsconfig/internal/cli/store"
	"github.com/planetfederal/gsconfig/internal/cli/style"
	"github.com/planetfederal/gsconfig/internal/cli/version"
	"github.com/planetfederal/gsconfig/internal/cli/workspace"
)

const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .LocalNonPersistentFlags.HasAvailableFlags}}

Flags:
{{.LocalNonPersistentFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if or .HasAvailableInheritedFlags .HasAvailablePersistentFlags}}

Global Flags:
{{if .HasAvailableInheritedFlags}}{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}{{if and .HasAvailableInheritedFlags .HasAvailablePersistentFlags}}
{{end}}{{if .HasAvailablePersistentFlags}}{{.PersistentFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}
{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

func NewRootCommand(deps Dependencies) *cobra.Command {
	commandDeps := deps.commandDependencies()
	var globalFlags common.GlobalFlags

	root := &cobra.Command{
		Use:   "gsconfig",
		Short: "Manage a GeoServer catalog over its REST API",
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
		Args: cobra.NoArgs,
		PersistentPreRunE: func(command *cobra.Command, _ []string) error {
			if err := common.ValidateOutputFormat(globalFlags.Output); err != nil {
				return err
			}
			if err := common.ValidateOutputFormatForCommandPath(command.CommandPath(), globalFlags.Output); err != nil {
				return err
			}

			commandContext := command.Context()
			if commandContext == nil {
				commandContext = context.Background()
			}
			commandContext = debugctx.WithEnabled(commandContext, globalFlags.Debug)
			commandContext = debugctx.WithWriter(commandContext, command.ErrOrStderr())
			command.SetContext(commandContext)

			debugctx.Printf(
				command.Context(),
				"root flags profile=%q profiles_file=%q overrides=%d output=%q jq=%q command=%q",
				globalFlags.Profile,
				globalFlags.ProfilesFile,
				len(globalFlags.Overrides),
				globalFlags.Output,
				globalFlags.JQ,
				command.CommandPath(),
			)

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetUsageTemplate(usageTemplate)
	defaultHelpFunc := root.HelpFunc()
	root.SetHelpFunc(func(command *cobra.Command, args []string) {
		originalOut := command.OutOrStdout()
		originalErr := command.ErrOrStderr()

		buffer := &bytes.Buffer{}
		command.SetOut(buffer)
		command.SetErr(buffer)
		defaultHelpFunc(command, args)
		command.SetOut(originalOut)
		command.SetErr(originalErr)

		rendered := strings.TrimRight(buffer.String(), "\n")
		if rendered == "" {
			_, _ = fmt.Fprintln(originalOut)
			return
		}

		_, _ = fmt.Fprintln(originalOut, rendered)
	})

	common.BindGlobalFlags(root, &globalFlags)
	root.PersistentFlags().BoolP("help", "h", false, "help for command")

	root.AddGroup(
		&cobra.Group{ID: "catalog", Title: "Catalog Commands:"},
		&cobra.Group{ID: "other", Title: "Other Commands:"},
	)

	catalogCommands := []*cobra.Command{
		workspace.NewCommand(commandDeps, &globalFlags),
		store.NewCommand(commandDeps, &globalFlags),
		resourcecmd.NewCommand(commandDeps, &globalFlags),
		layer.NewCommand(commandDeps, &globalFlags),
		layergroup.NewCommand(commandDeps, &globalFlags),
		style.NewCommand(commandDeps, &globalFlags),
		rest.NewXMLCommand(commandDeps, &globalFlags),
		rest.NewServerCommand(commandDeps, &globalFlags),
	}
	for _, command := range catalogCommands {
		command.GroupID = "catalog"
		root.AddCommand(command)
	}

	otherCommands := []*cobra.Command{
		profile.NewCommand(commandDeps, &globalFlags),
		version.NewCommand(&globalFlags),
	}
	for _, command := range otherCommands {
		command.GroupID = "other"
		root.AddCommand(command)
	}
	root.SetCompletionCommandGroupID("other")

	printUsageForMissingArgs(root)

	return root
}

// printUsageForMissingArgs shows usage when a command that takes positional
// arguments is invoked with none. Other failures only print the error.
func printUsageForMissingArgs(command *cobra.Command) {
	if validate := command.Args; validate != nil && strings.ContainsAny(command.Use, "<[") {
		command.Args = func(command *cobra.Command, args []string) error {
			err := validate(command, args)
			if err != nil && len(args) == 0 {
				if usage := strings.TrimRight(command.UsageString(), "\n"); usage != "" {
					_, _ = fmt.Fprintln(command.ErrOrStderr(), usage)
				}
			}
			return err
		}
	}
	for _, child := range command.Commands() {
		printUsageForMissingArgs(child)
	}
}
