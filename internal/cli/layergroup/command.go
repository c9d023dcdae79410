package layergroup

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/planetfederal/gsconfig/catalog"
	"github.com/planetfederal/gsconfig/internal/cli/common"
)

type member struct {
	Layer string `json:"layer" yaml:"layer"`
	Style string `json:"style,omitempty" yaml:"style,omitempty"`
}

type view struct {
	Name      string   `json:"name" yaml:"name"`
	Workspace string   `json:"workspace,omitempty" yaml:"workspace,omitempty"`
	Members   []member `json:"members,omitempty" yaml:"members,omitempty"`
}

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "layergroup",
		Short: "Manage layer groups",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newListCommand(deps, globalFlags),
		newGetCommand(deps, globalFlags),
		newCreateCommand(deps, globalFlags),
		newDeleteCommand(deps, globalFlags),
	)
	return command
}

func displayName(item view) string {
	if item.Workspace == "" {
		return item.Name
	}
	return item.Workspace + ":" + item.Name
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var workspaces []string

	command := &cobra.Command{
		Use:   "list [name...]",
		Short: "List global and workspace layer groups",
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			groups, err := gs.ListLayerGroups(command.Context(), catalog.SplitNames(args...), catalog.SplitNames(workspaces...))
			if err != nil {
				return err
			}
			items := make([]view, 0, len(groups))
			for _, group := range groups {
				items = append(items, view{Name: group.Name(), Workspace: group.Workspace()})
			}
			return common.WriteOutput(command, globalFlags, items, common.WriteNames(displayName))
		},
	}
	command.Flags().StringSliceVarP(&workspaces, "workspace", "w", nil, "restrict to these workspaces")
	return command
}

func newGetCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var workspace string

	command := &cobra.Command{
		Use:   "get <name>",
		Short: "Show a layer group with its layer/style pairs",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			ctx := command.Context()
			group, err := gs.GetLayerGroup(ctx, args[0], workspace)
			if err != nil {
				return err
			}
			layers, styles, err := group.Layers(ctx)
			if err != nil {
				return err
			}

			item := view{Name: group.Name(), Workspace: group.Workspace(), Members: make([]member, 0, len(layers))}
			for index := range layers {
				item.Members = append(item.Members, member{Layer: layers[index], Style: styles[index]})
			}
			return common.WriteOutput(command, globalFlags, item, func(w io.Writer, value view) error {
				if _, err := fmt.Fprintln(w, displayName(value)); err != nil {
					return err
				}
				for _, entry := range value.Members {
					style := entry.Style
					if style == "" {
						style = "(default)"
					}
					if _, err := fmt.Fprintf(w, "  %s\t%s\n", entry.Layer, style); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	command.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace holding the group")
	return command
}

func newCreateCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		workspace string
		layers    []string
		styles    []string
		title     string
	)

	command := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a layer group",
		Example: "  gsconfig layergroup create base --layers topp:states,topp:roads --styles population,",
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			if len(layers) == 0 {
				return common.ValidationError("--layers is required", nil)
			}
			var pairedStyles []string
			if command.Flags().Changed("styles") {
				pairedStyles = styles
			}

			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			ctx := command.Context()
			group, err := gs.CreateLayerGroup(ctx, args[0], layers, pairedStyles, workspace)
			if err != nil {
				return err
			}
			if title != "" {
				if err := group.Set("title", title); err != nil {
					return err
				}
			}
			return gs.Save(ctx, group)
		},
	}
	command.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace (global when omitted)")
	command.Flags().StringSliceVar(&layers, "layers", nil, "member layers in drawing order")
	command.Flags().StringSliceVar(&styles, "styles", nil, "styles paired with --layers; empty entries use the layer default")
	command.Flags().StringVar(&title, "title", "", "group title")
	return command
}

func newDeleteCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		workspace string
		yes       bool
	)

	command := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a layer group",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			confirmed, err := common.ConfirmDeletion(command, common.PrompterFor(deps), yes, fmt.Sprintf("Delete layer group %q?", args[0]))
			if err != nil || !confirmed {
				return err
			}

			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			group, err := gs.GetLayerGroup(command.Context(), args[0], workspace)
			if err != nil {
				return err
			}
			return catalog.DeleteIgnoringMissing(command.Context(), gs, group, catalog.DeleteOptions{})
		},
	}
	command.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace holding the group")
	common.BindYesFlag(command, &yes)
	return command
}
