package style

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/planetfederal/gsconfig/catalog"
	"github.com/planetfederal/gsconfig/internal/cli/common"
)

type view struct {
	Name      string `json:"name" yaml:"name"`
	Workspace string `json:"workspace,omitempty" yaml:"workspace,omitempty"`
}

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "style",
		Short: "Manage SLD styles",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newListCommand(deps, globalFlags),
		newBodyCommand(deps, globalFlags),
		newCreateCommand(deps, globalFlags),
		newDeleteCommand(deps, globalFlags),
	)
	return command
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var workspaces []string

	command := &cobra.Command{
		Use:   "list [name...]",
		Short: "List global and workspace styles",
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			styles, err := gs.ListStyles(command.Context(), catalog.SplitNames(args...), catalog.SplitNames(workspaces...))
			if err != nil {
				return err
			}
			items := make([]view, 0, len(styles))
			for _, style := range styles {
				items = append(items, view{Name: style.Name(), Workspace: style.Workspace()})
			}
			return common.WriteOutput(command, globalFlags, items, common.WriteNames(func(item view) string {
				if item.Workspace == "" {
					return item.Name
				}
				return item.Workspace + ":" + item.Name
			}))
		},
	}
	command.Flags().StringSliceVarP(&workspaces, "workspace", "w", nil, "restrict to these workspaces")
	return command
}

func newBodyCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var workspace string

	command := &cobra.Command{
		Use:   "body <name>",
		Short: "Print a style's SLD document",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			ctx := command.Context()
			style, err := gs.GetStyle(ctx, args[0], workspace)
			if err != nil {
				return err
			}
			body, err := style.Body(ctx)
			if err != nil {
				return err
			}
			_, err = command.OutOrStdout().Write(body)
			return err
		},
	}
	command.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace holding the style")
	return command
}

func newCreateCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		workspace string
		file      string
		overwrite bool
	)

	command := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a style from an SLD file ('-' reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			sld, err := readSLD(command, file)
			if err != nil {
				return err
			}

			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			_, err = gs.CreateStyle(command.Context(), args[0], sld, overwrite, workspace)
			return err
		},
	}
	command.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace (global when omitted)")
	command.Flags().StringVarP(&file, "file", "f", "", "SLD file path")
	command.Flags().BoolVar(&overwrite, "overwrite", false, "replace the body of an existing style")
	_ = command.MarkFlagRequired("file")
	return command
}

func readSLD(command *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(command.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.ValidationError(fmt.Sprintf("failed to read SLD file %q", path), err)
	}
	return data, nil
}

func newDeleteCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		workspace string
		yes       bool
		purge     bool
	)

	command := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a style",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			confirmed, err := common.ConfirmDeletion(command, common.PrompterFor(deps), yes, fmt.Sprintf("Delete style %q?", args[0]))
			if err != nil || !confirmed {
				return err
			}

			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			style, err := gs.GetStyle(command.Context(), args[0], workspace)
			if err != nil {
				return err
			}
			return catalog.DeleteIgnoringMissing(command.Context(), gs, style, catalog.DeleteOptions{Purge: purge})
		},
	}
	command.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace holding the style")
	common.BindYesFlag(command, &yes)
	command.Flags().BoolVar(&purge, "purge", false, "also remove the SLD file on the server")
	return command
}
