package workspace

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/planetfederal/gsconfig/catalog"
	"github.com/planetfederal/gsconfig/internal/cli/common"
)

type view struct {
	Name string `json:"name" yaml:"name"`
	URI  string `json:"uri,omitempty" yaml:"uri,omitempty"`
}

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "workspace",
		Short: "Manage workspaces",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newListCommand(deps, globalFlags),
		newGetCommand(deps, globalFlags),
		newCreateCommand(deps, globalFlags),
		newDeleteCommand(deps, globalFlags),
		newDefaultCommand(deps, globalFlags),
	)
	return command
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list [name...]",
		Short: "List workspaces, optionally filtered by name",
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			workspaces, err := gs.ListWorkspaces(command.Context(), catalog.SplitNames(args...)...)
			if err != nil {
				return err
			}
			items := make([]view, 0, len(workspaces))
			for _, workspace := range workspaces {
				items = append(items, view{Name: workspace.Name()})
			}
			return common.WriteOutput(command, globalFlags, items, common.WriteNames(func(item view) string { return item.Name }))
		},
	}
}

func newGetCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show a workspace and its namespace URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			workspace, err := gs.GetWorkspace(command.Context(), args[0])
			if err != nil {
				return err
			}
			uri, err := workspace.URI(command.Context())
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, view{Name: workspace.Name(), URI: uri}, func(w io.Writer, item view) error {
				_, err := fmt.Fprintf(w, "%s\t%s\n", item.Name, item.URI)
				return err
			})
		},
	}
}

func newCreateCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var uri string

	command := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a workspace with its namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			workspace, err := gs.CreateWorkspace(command.Context(), args[0], uri)
			if err != nil {
				return err
			}
			return gs.Save(command.Context(), workspace)
		},
	}
	command.Flags().StringVar(&uri, "uri", "", "namespace URI")
	return command
}

func newDeleteCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		yes     bool
		recurse bool
	)

	command := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			confirmed, err := common.ConfirmDeletion(command, common.PrompterFor(deps), yes, fmt.Sprintf("Delete workspace %q?", args[0]))
			if err != nil || !confirmed {
				return err
			}

			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			workspace, err := gs.GetWorkspace(command.Context(), args[0])
			if err != nil {
				return err
			}
			return catalog.DeleteIgnoringMissing(command.Context(), gs, workspace, catalog.DeleteOptions{Recurse: recurse})
		},
	}
	common.BindYesFlag(command, &yes)
	command.Flags().BoolVarP(&recurse, "recurse", "r", false, "delete stores, resources and layers in the workspace too")
	return command
}

func newDefaultCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "default",
		Short: "Show or change the default workspace",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Show the default workspace",
			Args:  cobra.NoArgs,
			RunE: func(command *cobra.Command, _ []string) error {
				gs, release, err := common.OpenCatalog(command, deps, globalFlags)
				defer release()
				if err != nil {
					return err
				}

				workspace, err := gs.GetDefaultWorkspace(command.Context())
				if err != nil {
					return err
				}
				return common.WriteOutput(command, globalFlags, view{Name: workspace.Name()}, func(w io.Writer, item view) error {
					_, err := fmt.Fprintln(w, item.Name)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "set <name>",
			Short: "Make a workspace the default",
			Args:  cobra.ExactArgs(1),
			RunE: func(command *cobra.Command, args []string) error {
				gs, release, err := common.OpenCatalog(command, deps, globalFlags)
				defer release()
				if err != nil {
					return err
				}
				return gs.SetDefaultWorkspace(command.Context(), args[0])
			},
		},
	)
	return command
}
