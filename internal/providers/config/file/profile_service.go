package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/faults"
)

var _ config.ProfileService = (*FileProfileService)(nil)

type FileProfileService struct {
	profileCatalogPath string
}

func NewFileProfileService(path string) *FileProfileService {
	return &FileProfileService{profileCatalogPath: path}
}

func (m *FileProfileService) Create(_ context.Context, profile config.Profile) error {
	if err := validateProfile(profile); err != nil {
		return err
	}

	profileCatalog, err := m.loadCatalog()
	if err != nil {
		return err
	}

	if idx := findProfileIndex(profileCatalog.Profiles, profile.Name); idx >= 0 {
		return validationError(fmt.Sprintf("profile %q already exists", profile.Name), nil)
	}

	profileCatalog.Profiles = append(profileCatalog.Profiles, profile)
	if profileCatalog.Current == "" {
		profileCatalog.Current = profile.Name
	}

	return m.saveCatalog(profileCatalog)
}

func (m *FileProfileService) Update(_ context.Context, profile config.Profile) error {
	if err := validateProfile(profile); err != nil {
		return err
	}

	profileCatalog, err := m.loadCatalog()
	if err != nil {
		return err
	}

	idx := findProfileIndex(profileCatalog.Profiles, profile.Name)
	if idx < 0 {
		return notFoundError(fmt.Sprintf("profile %q not found", profile.Name))
	}

	profileCatalog.Profiles[idx] = profile
	return m.saveCatalog(profileCatalog)
}

func (m *FileProfileService) Delete(_ context.Context, name string) error {
	profileCatalog, err := m.loadCatalog()
	if err != nil {
		return err
	}

	idx := findProfileIndex(profileCatalog.Profiles, name)
	if idx < 0 {
		return notFoundError(fmt.Sprintf("profile %q not found", name))
	}

	profileCatalog.Profiles = append(profileCatalog.Profiles[:idx], profileCatalog.Profiles[idx+1:]...)
	if profileCatalog.Current == name {
		if len(profileCatalog.Profiles) == 0 {
			profileCatalog.Current = ""
		} else {
			profileCatalog.Current = profileCatalog.Profiles[0].Name
		}
	}

	return m.saveCatalog(profileCatalog)
}

func (m *FileProfileService) List(_ context.Context) ([]config.Profile, error) {
	profileCatalog, err := m.loadCatalog()
	if err != nil {
		return nil, err
	}

	profiles := make([]config.Profile, len(profileCatalog.Profiles))
	copy(profiles, profileCatalog.Profiles)
	return profiles, nil
}

func (m *FileProfileService) SetCurrent(_ context.Context, name string) error {
	profileCatalog, err := m.loadCatalog()
	if err != nil {
		return err
	}

	if findProfileIndex(profileCatalog.Profiles, name) < 0 {
		return notFoundError(fmt.Sprintf("profile %q not found", name))
	}

	profileCatalog.Current = name
	return m.saveCatalog(profileCatalog)
}

func (m *FileProfileService) GetCurrent(_ context.Context) (config.Profile, error) {
	profileCatalog, err := m.loadCatalog()
	if err != nil {
		return config.Profile{}, err
	}
	if profileCatalog.Current == "" {
		return config.Profile{}, notFoundError("current profile not set")
	}

	idx := findProfileIndex(profileCatalog.Profiles, profileCatalog.Current)
	if idx < 0 {
		return config.Profile{}, notFoundError(fmt.Sprintf("current profile %q not found", profileCatalog.Current))
	}

	return profileCatalog.Profiles[idx], nil
}

// ResolveProfile picks the selected (or current) profile and layers
// environment and explicit overrides on top of it. With an empty catalog and
// no selection, the environment alone may describe the service.
func (m *FileProfileService) ResolveProfile(_ context.Context, selection config.ProfileSelection) (config.Profile, error) {
	profileCatalog, err := m.loadCatalog()
	if err != nil {
		return config.Profile{}, err
	}

	effectiveName := selection.Name
	if effectiveName == "" {
		effectiveName = profileCatalog.Current
	}

	var resolved config.Profile
	switch {
	case effectiveName != "":
		idx := findProfileIndex(profileCatalog.Profiles, effectiveName)
		if idx < 0 {
			return config.Profile{}, notFoundError(fmt.Sprintf("profile %q not found", effectiveName))
		}
		resolved = profileCatalog.Profiles[idx]
	default:
		resolved = config.Profile{Name: "default", Service: config.Service{URL: config.DefaultServiceURL}}
	}

	resolved, err = applyEnvOverrides(resolved)
	if err != nil {
		return config.Profile{}, err
	}
	resolved, err = applyOverrides(resolved, selection.Overrides)
	if err != nil {
		return config.Profile{}, err
	}
	if err := validateProfile(resolved); err != nil {
		return config.Profile{}, err
	}

	return resolved, nil
}

func (m *FileProfileService) saveCatalog(profileCatalog config.ProfileCatalog) error {
	if err := validateCatalog(profileCatalog); err != nil {
		return err
	}

	resolvedPath, err := resolveCatalogPath(m.profileCatalogPath)
	if err != nil {
		return err
	}

	encoded, err := encodeCatalog(profileCatalog)
	if err != nil {
		return internalError("failed to encode profile catalog", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolvedPath), 0o755); err != nil {
		return internalError("failed to create profile config directory", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(resolvedPath), ".gsconfig-profiles-*")
	if err != nil {
		return internalError("failed to create temporary profile catalog file", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(encoded); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return internalError("failed to write profile catalog", err)
	}
	if err := tempFile.Chmod(0o600); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return internalError("failed to set profile catalog permissions", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return internalError("failed to finalize profile catalog", err)
	}

	if err := os.Rename(tempPath, resolvedPath); err != nil {
		_ = os.Remove(tempPath)
		return internalError("failed to replace profile catalog", err)
	}
	return nil
}

func (m *FileProfileService) loadCatalog() (config.ProfileCatalog, error) {
	resolvedPath, err := resolveCatalogPath(m.profileCatalogPath)
	if err != nil {
		return config.ProfileCatalog{}, err
	}

	profileCatalog, err := decodeCatalogFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.ProfileCatalog{}, nil
		}
		return config.ProfileCatalog{}, err
	}

	if err := validateCatalog(profileCatalog); err != nil {
		return config.ProfileCatalog{}, err
	}
	return profileCatalog, nil
}

func findProfileIndex(profiles []config.Profile, name string) int {
	for idx, item := range profiles {
		if item.Name == name {
			return idx
		}
	}
	return -1
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func notFoundError(message string) error {
	return faults.NewTypedError(faults.NotFoundError, message, nil)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
