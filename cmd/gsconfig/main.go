package main

import (
	"context"
	"os"

	"github.com/planetfederal/gsconfig/catalog"
	"github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/core"
	"github.com/planetfederal/gsconfig/internal/cli"
)

func main() {
	deps := cli.Dependencies{
		Profiles:    newProfileService,
		OpenCatalog: openCatalog,
	}
	if err := cli.Execute(deps); err != nil {
		os.Exit(cli.ExitCodeForError(err))
	}
}

func newProfileService(path string) config.ProfileService {
	return core.NewProfileService(core.BootstrapConfig{ProfilesPath: path})
}

func openCatalog(ctx context.Context, profilesPath string, selection config.ProfileSelection) (*catalog.Catalog, func() error, error) {
	session, err := core.NewSession(ctx, core.BootstrapConfig{ProfilesPath: profilesPath}, selection)
	if err != nil {
		return nil, nil, err
	}
	return session.Catalog, session.Close, nil
}
