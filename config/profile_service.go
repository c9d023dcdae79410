package config

import "context"

type ProfileCatalogWriter interface {
	Create(ctx context.Context, profile Profile) error
	Update(ctx context.Context, profile Profile) error
	Delete(ctx context.Context, name string) error
	SetCurrent(ctx context.Context, name string) error
}

type ProfileCatalogReader interface {
	List(ctx context.Context) ([]Profile, error)
	GetCurrent(ctx context.Context) (Profile, error)
}

type ProfileResolver interface {
	ResolveProfile(ctx context.Context, selection ProfileSelection) (Profile, error)
}

type ProfileService interface {
	ProfileCatalogWriter
	ProfileCatalogReader
	ProfileResolver
}
