package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/planetfederal/gsconfig/catalog"
	"github.com/planetfederal/gsconfig/internal/cli/common"
)

type view struct {
	Name      string `json:"name" yaml:"name"`
	Workspace string `json:"workspace" yaml:"workspace"`
	Type      string `json:"type" yaml:"type"`
}

func toView(store *catalog.Store) view {
	return view{Name: store.Name(), Workspace: store.Workspace(), Type: string(store.Type())}
}

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "store",
		Short: "Manage data, coverage and WMS stores",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newListCommand(deps, globalFlags),
		newCreateCommand(deps, globalFlags),
		newDeleteCommand(deps, globalFlags),
		newUploadShapefileCommand(deps, globalFlags),
		newUploadCoverageCommand(deps, globalFlags),
	)
	return command
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var workspaces []string

	command := &cobra.Command{
		Use:   "list [name...]",
		Short: "List stores of every kind",
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			stores, err := gs.ListStores(command.Context(), catalog.SplitNames(args...), catalog.SplitNames(workspaces...))
			if err != nil {
				return err
			}
			items := make([]view, 0, len(stores))
			for _, store := range stores {
				items = append(items, toView(store))
			}
			return common.WriteOutput(command, globalFlags, items, common.WriteNames(func(item view) string {
				return fmt.Sprintf("%s:%s\t%s", item.Workspace, item.Name, item.Type)
			}))
		},
	}
	command.Flags().StringSliceVarP(&workspaces, "workspace", "w", nil, "restrict to these workspaces")
	return command
}

func newCreateCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		workspace       string
		storeType       string
		description     string
		url             string
		capabilitiesURL string
		params          []string
		overwrite       bool
	)

	command := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a store",
		Example: strings.Join([]string{
			"  gsconfig store create roads -w topp --param dbtype=postgis --param host=db",
			"  gsconfig store create dem --type coverage --url file:data/dem.tif",
			"  gsconfig store create remote --type wms --capabilities-url https://example.com/wms?request=GetCapabilities",
		}, "\n"),
		Args: cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			connection, err := common.ParseOverrides(params)
			if err != nil {
				return err
			}

			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			ctx := command.Context()
			var created *catalog.Store
			switch storeType {
			case "data":
				created, err = gs.CreateDataStore(ctx, args[0], workspace, overwrite)
				if err == nil && len(connection) > 0 {
					err = created.Set("connectionParameters", connection)
				}
			case "coverage":
				created, err = gs.CreateCoverageStore(ctx, args[0], workspace, overwrite)
				if err == nil && url != "" {
					err = created.Set("url", url)
				}
			case "wms":
				created, err = gs.CreateWmsStore(ctx, args[0], workspace, overwrite)
				if err == nil && capabilitiesURL != "" {
					err = created.Set("capabilitiesURL", capabilitiesURL)
				}
			default:
				return common.ValidationError(fmt.Sprintf("invalid store type %q: use data, coverage, or wms", storeType), nil)
			}
			if err != nil {
				return err
			}
			if description != "" {
				if err := created.Set("description", description); err != nil {
					return err
				}
			}
			return gs.Save(ctx, created)
		},
	}
	command.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace (default workspace when omitted)")
	command.Flags().StringVarP(&storeType, "type", "t", "data", "store type: data|coverage|wms")
	command.Flags().StringVar(&description, "description", "", "store description")
	command.Flags().StringVar(&url, "url", "", "coverage store data URL")
	command.Flags().StringVar(&capabilitiesURL, "capabilities-url", "", "WMS capabilities URL")
	command.Flags().StringArrayVar(&params, "param", nil, "data store connection parameter (key=value)")
	command.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing store of the same type")
	return command
}

func newDeleteCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		workspace string
		yes       bool
		purge     bool
		recurse   bool
	)

	command := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			confirmed, err := common.ConfirmDeletion(command, common.PrompterFor(deps), yes, fmt.Sprintf("Delete store %q?", args[0]))
			if err != nil || !confirmed {
				return err
			}

			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			store, err := gs.GetStore(command.Context(), args[0], workspace)
			if err != nil {
				return err
			}
			return catalog.DeleteIgnoringMissing(command.Context(), gs, store, catalog.DeleteOptions{Purge: purge, Recurse: recurse})
		},
	}
	command.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace holding the store")
	common.BindYesFlag(command, &yes)
	command.Flags().BoolVar(&purge, "purge", false, "also remove the store's files on the server")
	command.Flags().BoolVarP(&recurse, "recurse", "r", false, "delete the store's resources and layers too")
	return command
}

func newUploadShapefileCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		workspace string
		charset   string
		overwrite bool
	)

	command := &cobra.Command{
		Use:   "upload-shapefile <name> <file...>",
		Short: "Upload shapefile components (.shp, .shx, .dbf, optional .prj) as a data store",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(command *cobra.Command, args []string) error {
			files := make(map[string]string, len(args)-1)
			for _, path := range args[1:] {
				extension := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
				if extension == "" {
					return common.ValidationError(fmt.Sprintf("file %q has no extension", path), nil)
				}
				files[extension] = path
			}

			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			_, err = gs.CreateShapefileStore(command.Context(), args[0], workspace, files, overwrite, charset)
			return err
		},
	}
	command.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace (default workspace when omitted)")
	command.Flags().StringVar(&charset, "charset", "", "character set of the .dbf file")
	command.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing store")
	return command
}

func newUploadCoverageCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		workspace    string
		coverageType string
		overwrite    bool
	)

	command := &cobra.Command{
		Use:   "upload-coverage <name> <file...>",
		Short: "Upload raster files as a coverage store",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			_, err = gs.CreateCoverageStoreFromFile(command.Context(), args[0], workspace, coverageType, args[1:], overwrite)
			return err
		},
	}
	command.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace (default workspace when omitted)")
	command.Flags().StringVarP(&coverageType, "type", "t", "geotiff", "coverage format: geotiff|worldimage|imagemosaic")
	command.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing store")
	return command
}
