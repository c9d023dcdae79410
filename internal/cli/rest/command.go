// Package rest holds the commands that address the REST service directly
// rather than one catalog object.
package rest

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/planetfederal/gsconfig/internal/cli/common"
)

func NewXMLCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "xml",
		Short: "Read raw catalog documents",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(&cobra.Command{
		Use:     "get <path>",
		Short:   "Print the XML document at a REST path or URL",
		Example: "  gsconfig xml get /workspaces/topp/datastores.xml",
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			gs, release, err := common.OpenCatalog(command, deps, globalFlags)
			defer release()
			if err != nil {
				return err
			}

			document, err := gs.GetXML(command.Context(), args[0])
			if err != nil {
				return err
			}
			document.Indent(2)
			_, err = document.WriteTo(command.OutOrStdout())
			return err
		},
	})
	return command
}

type versionView struct {
	Version    string `json:"version" yaml:"version"`
	ServiceURL string `json:"serviceUrl" yaml:"serviceUrl"`
}

func NewServerCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "server",
		Short: "Inspect and reload the GeoServer instance",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the server version",
			Args:  cobra.NoArgs,
			RunE: func(command *cobra.Command, _ []string) error {
				gs, release, err := common.OpenCatalog(command, deps, globalFlags)
				defer release()
				if err != nil {
					return err
				}

				version, err := gs.Version(command.Context())
				if err != nil {
					return err
				}
				value := versionView{Version: version.String(), ServiceURL: gs.ServiceURL()}
				return common.WriteOutput(command, globalFlags, value, func(w io.Writer, item versionView) error {
					_, err := fmt.Fprintf(w, "%s (%s)\n", item.Version, item.ServiceURL)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "reload",
			Short: "Reload the catalog and configuration from disk",
			Args:  cobra.NoArgs,
			RunE: func(command *cobra.Command, _ []string) error {
				gs, release, err := common.OpenCatalog(command, deps, globalFlags)
				defer release()
				if err != nil {
					return err
				}
				return gs.Reload(command.Context())
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Reset the server's resource caches",
			Args:  cobra.NoArgs,
			RunE: func(command *cobra.Command, _ []string) error {
				gs, release, err := common.OpenCatalog(command, deps, globalFlags)
				defer release()
				if err != nil {
					return err
				}
				return gs.Reset(command.Context())
			},
		},
	)
	return command
}
