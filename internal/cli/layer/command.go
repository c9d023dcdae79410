package layer

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/planetfederal/gsconfig/catalog"
	"github.com/planetfederal/gsconfig/entity"
	"github.com/planetfederal/gsconfig/internal/cli/common"
)

type view struct {
	Name         string   `json:"name" yaml:"name"`
	Ambiguous    bool     `json:"ambiguous,omitempty" yaml:"ambiguous,omitempty"`
	Resource     string   `json:"resource,omitempty" yaml:"resource,omitempty"`
	DefaultStyle string   `json:"defaultStyle,omitempty" yaml:"defaultStyle,omitempty"`
	Styles       []string `json:"styles,omitempty" yaml:"styles,omitempty"`
}

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "layer",
		Short: "Inspect layers and their styles",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newListCommand(deps, globalFlags),
		newGetCommand(deps, globalFlags),
		newSetStyleCommand(deps, globalFlags),
	)
	return command
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var resource string

	command := &cobra.Command{
		Use:   "list",
		Short: "List layers, optionally those publishing one resource",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			layers, err := gs.ListLayers(command.Context(), resource)
			if err != nil {
				return err
			}
			items := make([]view, 0, len(layers))
			for _, layer := range layers {
				items = append(items, view{Name: layer.QualifiedName(), Ambiguous: layer.Ambiguous()})
			}
			return common.WriteOutput(command, globalFlags, items, common.WriteNames(func(item view) string {
				if item.Ambiguous {
					return item.Name + "\t(ambiguous)"
				}
				return item.Name
			}))
		},
	}
	command.Flags().StringVar(&resource, "resource", "", "resource name or workspace:name")
	return command
}

func newGetCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show a layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			ctx := command.Context()
			layer, err := gs.GetLayer(ctx, args[0])
			if err != nil {
				return err
			}

			item := view{Name: layer.QualifiedName()}
			if value, err := layer.Get(ctx, "resource"); err != nil {
				return err
			} else if text, ok := value.(string); ok {
				item.Resource = text
			}
			if value, err := layer.Get(ctx, "defaultStyle"); err != nil {
				return err
			} else if ref, ok := value.(entity.StyleRef); ok {
				item.DefaultStyle = ref.QualifiedName()
			}
			if value, err := layer.Get(ctx, "styles"); err != nil {
				return err
			} else if refs, ok := value.([]entity.StyleRef); ok {
				for _, ref := range refs {
					item.Styles = append(item.Styles, ref.QualifiedName())
				}
			}

			return common.WriteOutput(command, globalFlags, item, func(w io.Writer, value view) error {
				_, err := fmt.Fprintf(w, "%s\n  resource: %s\n  default style: %s\n  styles: %s\n",
					value.Name, value.Resource, value.DefaultStyle, strings.Join(value.Styles, ", "))
				return err
			})
		},
	}
}

func newSetStyleCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		defaultStyle string
		styles       []string
	)

	command := &cobra.Command{
		Use:   "set-style <layer>",
		Short: "Change a layer's default and alternate styles",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			stylesChanged := command.Flags().Changed("styles")
			if defaultStyle == "" && !stylesChanged {
				return common.ValidationError("nothing to change: pass --default or --styles", nil)
			}

			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			ctx := command.Context()
			layer, err := gs.GetLayer(ctx, args[0])
			if err != nil {
				return err
			}
			if defaultStyle != "" {
				if err := layer.SetDefaultStyle(defaultStyle); err != nil {
					return err
				}
			}
			if stylesChanged {
				refs := make([]any, 0, len(styles))
				for _, style := range catalog.SplitNames(styles...) {
					refs = append(refs, style)
				}
				if err := layer.SetStyles(refs...); err != nil {
					return err
				}
			}
			return gs.Save(ctx, layer)
		},
	}
	command.Flags().StringVar(&defaultStyle, "default", "", "default style name or workspace:name")
	command.Flags().StringSliceVar(&styles, "styles", nil, "alternate styles (replaces the current list)")
	return command
}
