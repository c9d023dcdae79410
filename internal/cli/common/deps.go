package common

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/planetfederal/gsconfig/catalog"
	"github.com/planetfederal/gsconfig/config"
)

// ProfileServiceFactory returns the profile catalog stored at path; an empty
// path selects the default location.
type ProfileServiceFactory func(path string) config.ProfileService

// CatalogOpener resolves a profile and returns a ready catalog plus a release
// function for the resources it holds.
type CatalogOpener func(ctx context.Context, profilesPath string, selection config.ProfileSelection) (*catalog.Catalog, func() error, error)

type CommandDependencies struct {
	Profiles    ProfileServiceFactory
	OpenCatalog CatalogOpener
	Prompter    Prompter
}

func PrompterFor(deps CommandDependencies) Prompter {
	if deps.Prompter == nil {
		return TerminalPrompter{}
	}
	return deps.Prompter
}

func RequireProfiles(deps CommandDependencies, globalFlags *GlobalFlags) (config.ProfileService, error) {
	if deps.Profiles == nil {
		return nil, ValidationError("profile service is not configured", nil)
	}
	path := ""
	if globalFlags != nil {
		path = globalFlags.ProfilesFile
	}
	service := deps.Profiles(path)
	if service == nil {
		return nil, ValidationError("profile service is not configured", nil)
	}
	return service, nil
}

// OpenCatalog binds the selected profile to a catalog for the duration of one
// command. The returned release function is never nil.
func OpenCatalog(command *cobra.Command, deps CommandDependencies, globalFlags *GlobalFlags) (*catalog.Catalog, func(), error) {
	noop := func() {}
	if deps.OpenCatalog == nil {
		return nil, noop, ValidationError("catalog is not configured", nil)
	}

	selection, profilesPath, err := selectionFromFlags(globalFlags)
	if err != nil {
		return nil, noop, err
	}

	opened, release, err := deps.OpenCatalog(command.Context(), profilesPath, selection)
	if err != nil {
		return nil, noop, err
	}
	if release == nil {
		return opened, noop, nil
	}
	return opened, func() { _ = release() }, nil
}

func selectionFromFlags(globalFlags *GlobalFlags) (config.ProfileSelection, string, error) {
	if globalFlags == nil {
		return config.ProfileSelection{}, "", nil
	}
	overrides, err := ParseOverrides(globalFlags.Overrides)
	if err != nil {
		return config.ProfileSelection{}, "", err
	}
	return config.ProfileSelection{Name: globalFlags.Profile, Overrides: overrides}, globalFlags.ProfilesFile, nil
}
