package profile

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	configdomain "github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/internal/cli/common"
)

const redacted = "********"

type listItem struct {
	Name    string `json:"name" yaml:"name"`
	URL     string `json:"url" yaml:"url"`
	Current bool   `json:"current" yaml:"current"`
}

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "profile",
		Short: "Manage connection profiles",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newListCommand(deps, globalFlags),
		newCurrentCommand(deps, globalFlags),
		newUseCommand(deps, globalFlags),
		newAddCommand(deps, globalFlags),
		newDeleteCommand(deps, globalFlags),
		newResolveCommand(deps, globalFlags),
	)
	return command
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			profiles, err := common.RequireProfiles(deps, globalFlags)
			if err != nil {
				return err
			}
			items, err := profiles.List(command.Context())
			if err != nil {
				return err
			}

			current := ""
			if len(items) > 0 {
				if selected, err := profiles.GetCurrent(command.Context()); err == nil {
					current = selected.Name
				}
			}

			values := make([]listItem, 0, len(items))
			for _, item := range items {
				values = append(values, listItem{Name: item.Name, URL: item.Service.URL, Current: item.Name == current})
			}
			return common.WriteOutput(command, globalFlags, values, common.WriteNames(func(item listItem) string {
				marker := " "
				if item.Current {
					marker = "*"
				}
				return fmt.Sprintf("%s %s\t%s", marker, item.Name, item.URL)
			}))
		},
	}
}

func newCurrentCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the current profile name",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			profiles, err := common.RequireProfiles(deps, globalFlags)
			if err != nil {
				return err
			}
			current, err := profiles.GetCurrent(command.Context())
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, listItem{Name: current.Name, URL: current.Service.URL, Current: true},
				func(w io.Writer, item listItem) error {
					_, err := fmt.Fprintln(w, item.Name)
					return err
				})
		},
	}
}

func newUseCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Set the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			profiles, err := common.RequireProfiles(deps, globalFlags)
			if err != nil {
				return err
			}
			return profiles.SetCurrent(command.Context(), args[0])
		},
	}
}

func newAddCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		url      string
		username string
		password string
		token    string
		ttl      time.Duration
		insecure bool
	)

	command := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a profile",
		Example: strings.Join([]string{
			"  gsconfig profile add local --url http://localhost:8080/geoserver/rest --username admin --password geoserver",
			"  gsconfig profile add prod --url https://maps.example.com/geoserver/rest --token $GS_AUTHKEY",
		}, "\n"),
		Args: cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			profiles, err := common.RequireProfiles(deps, globalFlags)
			if err != nil {
				return err
			}

			if username != "" && password == "" && !command.Flags().Changed("password") {
				prompter := common.PrompterFor(deps)
				if prompter.IsInteractive(command) {
					password, err = prompter.Secret(command, fmt.Sprintf("Password for %s", username))
					if err != nil {
						return err
					}
				}
			}

			profile, err := buildProfile(args[0], url, username, password, token)
			if err != nil {
				return err
			}
			if ttl > 0 {
				profile.Cache = &configdomain.Cache{TTL: ttl}
			}
			if insecure {
				profile.Service.TLS = &configdomain.TLS{InsecureSkipVerify: true}
			}
			return profiles.Create(command.Context(), profile)
		},
	}
	command.Flags().StringVar(&url, "url", configdomain.DefaultServiceURL, "REST service URL")
	command.Flags().StringVar(&username, "username", "", "basic auth user")
	command.Flags().StringVar(&password, "password", "", "basic auth password")
	command.Flags().StringVar(&token, "token", "", "authentication key (sent as bearer header and authkey parameter)")
	command.Flags().DurationVar(&ttl, "cache-ttl", 0, "response cache lifetime")
	command.Flags().BoolVar(&insecure, "insecure-skip-verify", false, "skip TLS certificate verification")
	return command
}

func buildProfile(name string, url string, username string, password string, token string) (configdomain.Profile, error) {
	profile := configdomain.Profile{Name: name, Service: configdomain.Service{URL: url}}
	switch {
	case token != "" && username != "":
		return configdomain.Profile{}, common.ValidationError("use either --token or --username/--password, not both", nil)
	case token != "":
		profile.Service.Auth = &configdomain.Auth{Token: &configdomain.TokenAuth{
			Token:      token,
			QueryParam: configdomain.DefaultTokenQueryParam,
		}}
	case username != "":
		profile.Service.Auth = &configdomain.Auth{BasicAuth: &configdomain.BasicAuth{Username: username, Password: password}}
	}
	return profile, nil
}

func newDeleteCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var yes bool

	command := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			confirmed, err := common.ConfirmDeletion(command, common.PrompterFor(deps), yes, fmt.Sprintf("Delete profile %q?", args[0]))
			if err != nil || !confirmed {
				return err
			}
			profiles, err := common.RequireProfiles(deps, globalFlags)
			if err != nil {
				return err
			}
			return profiles.Delete(command.Context(), args[0])
		},
	}
	common.BindYesFlag(command, &yes)
	return command
}

func newResolveCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Show the profile selected by --profile and --set, credentials redacted",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			profiles, err := common.RequireProfiles(deps, globalFlags)
			if err != nil {
				return err
			}
			overrides, err := common.ParseOverrides(globalFlags.Overrides)
			if err != nil {
				return err
			}

			resolved, err := profiles.ResolveProfile(command.Context(), configdomain.ProfileSelection{
				Name:      globalFlags.Profile,
				Overrides: overrides,
			})
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, redact(resolved), func(w io.Writer, value configdomain.Profile) error {
				_, err := fmt.Fprintf(w, "%s\t%s\t%s\n", value.Name, value.Service.URL, authName(value.Service.Auth))
				return err
			})
		},
	}
}

func redact(profile configdomain.Profile) configdomain.Profile {
	if profile.Service.Auth == nil {
		return profile
	}
	auth := *profile.Service.Auth
	if auth.BasicAuth != nil {
		basic := *auth.BasicAuth
		if basic.Password != "" {
			basic.Password = redacted
		}
		auth.BasicAuth = &basic
	}
	if auth.Token != nil {
		token := *auth.Token
		token.Token = redacted
		auth.Token = &token
	}
	profile.Service.Auth = &auth
	return profile
}

func authName(auth *configdomain.Auth) string {
	switch {
	case auth == nil:
		return "anonymous"
	case auth.BasicAuth != nil:
		return "basic-auth"
	case auth.Certificate != nil:
		return "certificate"
	case auth.Token != nil:
		return "token"
	default:
		return "anonymous"
	}
}
