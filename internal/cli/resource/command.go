package resource

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/planetfederal/gsconfig/catalog"
	"github.com/planetfederal/gsconfig/entity"
	"github.com/planetfederal/gsconfig/internal/cli/common"
)

type view struct {
	Name      string `json:"name" yaml:"name"`
	Store     string `json:"store" yaml:"store"`
	Workspace string `json:"workspace" yaml:"workspace"`
	Type      string `json:"type" yaml:"type"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	SRS       string `json:"srs,omitempty" yaml:"srs,omitempty"`
	Enabled   *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

func toView(resource *catalog.Resource) view {
	return view{
		Name:      resource.Name(),
		Store:     resource.StoreName(),
		Workspace: resource.Workspace(),
		Type:      string(resource.Type()),
	}
}

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "resource",
		Short: "Inspect and publish feature types, coverages and WMS layers",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newListCommand(deps, globalFlags),
		newGetCommand(deps, globalFlags),
		newPublishCommand(deps, globalFlags),
	)
	return command
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var stores, workspaces []string

	command := &cobra.Command{
		Use:   "list [name...]",
		Short: "List resources across stores",
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			resources, err := gs.ListResources(command.Context(),
				catalog.SplitNames(args...), catalog.SplitNames(stores...), catalog.SplitNames(workspaces...))
			if err != nil {
				return err
			}
			items := make([]view, 0, len(resources))
			for _, resource := range resources {
				items = append(items, toView(resource))
			}
			return common.WriteOutput(command, globalFlags, items, common.WriteNames(func(item view) string {
				return fmt.Sprintf("%s:%s\t%s\t%s", item.Workspace, item.Name, item.Store, item.Type)
			}))
		},
	}
	command.Flags().StringSliceVarP(&stores, "store", "s", nil, "restrict to these stores")
	command.Flags().StringSliceVarP(&workspaces, "workspace", "w", nil, "restrict to these workspaces")
	return command
}

func newGetCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var store, workspace string

	command := &cobra.Command{
		Use:   "get <name>",
		Short: "Show a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			ctx := command.Context()
			resource, err := gs.GetResource(ctx, args[0], store, workspace)
			if err != nil {
				return err
			}

			item := toView(resource)
			if item.Title, err = stringField(command, resource, "title"); err != nil {
				return err
			}
			if item.SRS, err = stringField(command, resource, "srs"); err != nil {
				return err
			}
			enabled, err := resource.Get(ctx, "enabled")
			if err != nil {
				return err
			}
			if value, ok := enabled.(bool); ok {
				item.Enabled = &value
			}

			return common.WriteOutput(command, globalFlags, item, func(w io.Writer, value view) error {
				_, err := fmt.Fprintf(w, "%s:%s\n  store: %s\n  type: %s\n  title: %s\n  srs: %s\n",
					value.Workspace, value.Name, value.Store, value.Type, value.Title, value.SRS)
				return err
			})
		},
	}
	command.Flags().StringVarP(&store, "store", "s", "", "store holding the resource")
	command.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace holding the resource")
	return command
}

func stringField(command *cobra.Command, resource *catalog.Resource, field string) (string, error) {
	value, err := resource.Get(command.Context(), field)
	if err != nil || value == nil {
		return "", err
	}
	text, _ := value.(string)
	return text, nil
}

func newPublishCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		store     string
		workspace string
		nativeCRS string
		srs       string
		sql       string
		keyColumn string
		geometry  string
	)

	command := &cobra.Command{
		Use:   "publish <name>",
		Short: "Publish a feature type from a data store",
		Example: strings.Join([]string{
			"  gsconfig resource publish roads -s postgis -w topp --native-crs EPSG:4326",
			"  gsconfig resource publish big_roads -s postgis --native-crs EPSG:4326 \\",
			"      --sql 'select * from roads where len > 100' --geometry the_geom:LineString:4326",
		}, "\n"),
		Args: cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			virtualTable, err := buildVirtualTable(args[0], sql, keyColumn, geometry)
			if err != nil {
				return err
			}

			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			ctx := command.Context()
			dataStore, err := gs.GetStore(ctx, store, workspace)
			if err != nil {
				return err
			}
			_, err = gs.PublishFeatureType(ctx, args[0], dataStore, nativeCRS, srs, virtualTable)
			return err
		},
	}
	command.Flags().StringVarP(&store, "store", "s", "", "data store to publish from")
	command.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace holding the store")
	command.Flags().StringVar(&nativeCRS, "native-crs", "", "native coordinate reference system")
	command.Flags().StringVar(&srs, "srs", "", "declared SRS (defaults to the native CRS)")
	command.Flags().StringVar(&sql, "sql", "", "publish a SQL view instead of a table")
	command.Flags().StringVar(&keyColumn, "key-column", "", "SQL view key column")
	command.Flags().StringVar(&geometry, "geometry", "", "SQL view geometry as name:type:srid")
	_ = command.MarkFlagRequired("store")
	_ = command.MarkFlagRequired("native-crs")
	return command
}

func buildVirtualTable(name string, sql string, keyColumn string, geometry string) (*entity.VirtualTable, error) {
	if strings.TrimSpace(sql) == "" {
		if keyColumn != "" || geometry != "" {
			return nil, common.ValidationError("--key-column and --geometry require --sql", nil)
		}
		return nil, nil
	}

	table := &entity.VirtualTable{Name: name, SQL: sql, KeyColumn: keyColumn}
	if geometry == "" {
		return table, nil
	}

	parts := strings.Split(geometry, ":")
	if len(parts) != 3 {
		return nil, common.ValidationError(fmt.Sprintf("invalid geometry %q: expected name:type:srid", geometry), nil)
	}
	if _, err := strconv.Atoi(parts[2]); err != nil {
		return nil, common.ValidationError(fmt.Sprintf("invalid geometry srid %q", parts[2]), err)
	}
	table.Geometry = &entity.VirtualTableGeometry{Name: parts[0], Type: parts[1], SRID: parts[2]}
	return table, nil
}
