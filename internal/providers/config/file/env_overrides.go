package file

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/planetfederal/gsconfig/config"
)

type envOverrides struct {
	URL      string        `env:"GSCONFIG_URL"`
	Username string        `env:"GSCONFIG_USERNAME"`
	Password string        `env:"GSCONFIG_PASSWORD"`
	Token    string        `env:"GSCONFIG_TOKEN"`
	CacheTTL time.Duration `env:"GSCONFIG_CACHE_TTL"`
}

func readEnvOverrides() (envOverrides, error) {
	var overrides envOverrides
	if err := cleanenv.ReadEnv(&overrides); err != nil {
		return envOverrides{}, validationError("invalid GSCONFIG_* environment", err)
	}
	return overrides, nil
}

func applyEnvOverrides(profile config.Profile) (config.Profile, error) {
	overrides, err := readEnvOverrides()
	if err != nil {
		return config.Profile{}, err
	}
	return overrides.apply(profile), nil
}

func (o envOverrides) apply(profile config.Profile) config.Profile {
	if o.URL != "" {
		profile.Service.URL = o.URL
	}
	if o.Token != "" {
		profile.Service.Auth = &config.Auth{Token: &config.TokenAuth{Token: o.Token}}
	} else if o.Username != "" || o.Password != "" {
		basic := ensureBasicAuth(&profile)
		if o.Username != "" {
			basic.Username = o.Username
		}
		if o.Password != "" {
			basic.Password = o.Password
		}
	}
	if o.CacheTTL > 0 {
		cache := config.Cache{}
		if profile.Cache != nil {
			cache = *profile.Cache
		}
		cache.TTL = o.CacheTTL
		profile.Cache = &cache
	}
	return profile
}
