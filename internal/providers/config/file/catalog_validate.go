package file

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/planetfederal/gsconfig/config"
)

func validateCatalog(profileCatalog config.ProfileCatalog) error {
	if len(profileCatalog.Profiles) == 0 {
		if profileCatalog.Current != "" {
			return validationError("current-profile must be empty when profiles list is empty", nil)
		}
		return nil
	}

	seen := map[string]struct{}{}
	for _, item := range profileCatalog.Profiles {
		if item.Name == "" {
			return validationError("profile name must not be empty", nil)
		}
		if _, exists := seen[item.Name]; exists {
			return validationError(fmt.Sprintf("duplicate profile name %q", item.Name), nil)
		}
		seen[item.Name] = struct{}{}

		if err := validateProfile(item); err != nil {
			return err
		}
	}

	if profileCatalog.Current == "" {
		return validationError("current-profile must be set when profiles are defined", nil)
	}
	if _, exists := seen[profileCatalog.Current]; !exists {
		return validationError(fmt.Sprintf("current-profile %q does not match any profile", profileCatalog.Current), nil)
	}

	return nil
}

func validateProfile(profile config.Profile) error {
	if profile.Name == "" {
		return validationError("profile name must not be empty", nil)
	}

	serviceURL := strings.TrimSpace(profile.Service.URL)
	if serviceURL == "" {
		return validationError(fmt.Sprintf("profile %q: service.url is required", profile.Name), nil)
	}
	parsed, err := url.Parse(serviceURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return validationError(fmt.Sprintf("profile %q: service.url must be an absolute http(s) url", profile.Name), err)
	}

	if err := validateAuth(profile.Name, profile.Service.Auth); err != nil {
		return err
	}

	if profile.Cache != nil && profile.Cache.Redis != nil && strings.TrimSpace(profile.Cache.Redis.Addr) == "" {
		return validationError(fmt.Sprintf("profile %q: cache.redis.addr is required", profile.Name), nil)
	}
	if profile.Retry != nil && profile.Retry.Attempts < 0 {
		return validationError(fmt.Sprintf("profile %q: retry.attempts must not be negative", profile.Name), nil)
	}
	if profile.RateLimit != nil && profile.RateLimit.RequestsPerSecond <= 0 {
		return validationError(fmt.Sprintf("profile %q: rate-limit.requests-per-second must be positive", profile.Name), nil)
	}

	return nil
}

func validateAuth(name string, auth *config.Auth) error {
	if auth == nil {
		return nil
	}

	setCount := 0
	if auth.BasicAuth != nil {
		setCount++
	}
	if auth.Certificate != nil {
		setCount++
	}
	if auth.Token != nil {
		setCount++
	}
	if setCount > 1 {
		return validationError(fmt.Sprintf("profile %q: service.auth must define exactly one strategy", name), nil)
	}

	switch {
	case auth.BasicAuth != nil && auth.BasicAuth.Username == "":
		return validationError(fmt.Sprintf("profile %q: service.auth.basic-auth.username is required", name), nil)
	case auth.Certificate != nil && (auth.Certificate.ClientCertFile == "" || auth.Certificate.ClientKeyFile == ""):
		return validationError(fmt.Sprintf("profile %q: service.auth.certificate requires client-cert-file and client-key-file", name), nil)
	case auth.Token != nil && auth.Token.Token == "":
		return validationError(fmt.Sprintf("profile %q: service.auth.token.token is required", name), nil)
	}
	return nil
}

var overrideSetters = map[string]func(*config.Profile, string) error{
	"service.url": func(p *config.Profile, value string) error {
		p.Service.URL = value
		return nil
	},
	"service.auth.basic-auth.username": func(p *config.Profile, value string) error {
		ensureBasicAuth(p).Username = value
		return nil
	},
	"service.auth.basic-auth.password": func(p *config.Profile, value string) error {
		ensureBasicAuth(p).Password = value
		return nil
	},
	"service.auth.token.token": func(p *config.Profile, value string) error {
		p.Service.Auth = &config.Auth{Token: &config.TokenAuth{Token: value}}
		return nil
	},
	"service.tls.insecure-skip-verify": func(p *config.Profile, value string) error {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return validationError("service.tls.insecure-skip-verify must be a boolean", err)
		}
		if p.Service.TLS == nil {
			p.Service.TLS = &config.TLS{}
		}
		p.Service.TLS.InsecureSkipVerify = parsed
		return nil
	},
	"cache.ttl": func(p *config.Profile, value string) error {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return validationError("cache.ttl must be a duration", err)
		}
		if p.Cache == nil {
			p.Cache = &config.Cache{}
		}
		p.Cache.TTL = parsed
		return nil
	},
}

func ensureBasicAuth(p *config.Profile) *config.BasicAuth {
	if p.Service.Auth == nil || p.Service.Auth.BasicAuth == nil {
		p.Service.Auth = &config.Auth{BasicAuth: &config.BasicAuth{}}
	}
	return p.Service.Auth.BasicAuth
}

func applyOverrides(profile config.Profile, overrides map[string]string) (config.Profile, error) {
	for key, value := range overrides {
		setter, found := overrideSetters[key]
		if !found {
			return config.Profile{}, unknownOverrideError(key)
		}
		if err := setter(&profile, value); err != nil {
			return config.Profile{}, err
		}
	}
	return profile, nil
}
