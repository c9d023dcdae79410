package config

import "time"

type ProfileSelection struct {
	Name      string
	Overrides map[string]string
}

const (
	ProfileFileEnvVar         = "GSCONFIG_PROFILES_FILE"
	DefaultProfileCatalogPath = "~/.gsconfig/profiles.yaml"
	DefaultServiceURL         = "http://localhost:8080/geoserver/rest"
	DefaultTokenQueryParam    = "authkey"

	DefaultCacheTTL       = 5 * time.Second
	DefaultRetryAttempts  = 6
	DefaultBackoffFactor  = 0.9
	DefaultRequestTimeout = 30 * time.Second
)

// DefaultRetryStatuses are the transient statuses retried by the transport.
var DefaultRetryStatuses = []int{502, 503, 504}

type ProfileCatalog struct {
	Profiles []Profile `yaml:"profiles"`
	Current  string    `yaml:"current-profile"`
}

type Profile struct {
	Name      string     `yaml:"name"`
	Service   Service    `yaml:"service"`
	Cache     *Cache     `yaml:"cache,omitempty"`
	Retry     *Retry     `yaml:"retry,omitempty"`
	RateLimit *RateLimit `yaml:"rate-limit,omitempty"`
}

type Service struct {
	URL            string            `yaml:"url"`
	DefaultHeaders map[string]string `yaml:"default-headers,omitempty"`
	Auth           *Auth             `yaml:"auth,omitempty"`
	TLS            *TLS              `yaml:"tls,omitempty"`
	Timeout        time.Duration     `yaml:"timeout,omitempty"`
}

// Auth holds exactly one credential strategy.
type Auth struct {
	BasicAuth   *BasicAuth   `yaml:"basic-auth,omitempty"`
	Certificate *Certificate `yaml:"certificate,omitempty"`
	Token       *TokenAuth   `yaml:"token,omitempty"`
}

type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Certificate is the PKI strategy: the client presents a certificate pair.
type Certificate struct {
	ClientCertFile string `yaml:"client-cert-file"`
	ClientKeyFile  string `yaml:"client-key-file"`
	CACertFile     string `yaml:"ca-cert-file,omitempty"`
}

// TokenAuth sends Token as a bearer header, a query parameter, or both.
type TokenAuth struct {
	Token      string `yaml:"token"`
	Header     *bool  `yaml:"header,omitempty"`
	QueryParam string `yaml:"query-param,omitempty"`
}

func (t TokenAuth) HeaderEnabled() bool {
	if t.Header == nil {
		return true
	}
	return *t.Header
}

type TLS struct {
	CACertFile         string `yaml:"ca-cert-file,omitempty"`
	ClientCertFile     string `yaml:"client-cert-file,omitempty"`
	ClientKeyFile      string `yaml:"client-key-file,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure-skip-verify,omitempty"`
}

type Cache struct {
	TTL   time.Duration `yaml:"ttl,omitempty"`
	Redis *RedisCache   `yaml:"redis,omitempty"`
}

type RedisCache struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type Retry struct {
	Attempts      int     `yaml:"attempts,omitempty"`
	BackoffFactor float64 `yaml:"backoff-factor,omitempty"`
	Statuses      []int   `yaml:"statuses,omitempty"`
}

type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requests-per-second"`
	Burst             int     `yaml:"burst,omitempty"`
}

func (p Profile) CacheTTL() time.Duration {
	if p.Cache == nil || p.Cache.TTL <= 0 {
		return DefaultCacheTTL
	}
	return p.Cache.TTL
}

func (p Profile) RetryPolicy() Retry {
	policy := Retry{
		Attempts:      DefaultRetryAttempts,
		BackoffFactor: DefaultBackoffFactor,
		Statuses:      append([]int(nil), DefaultRetryStatuses...),
	}
	if p.Retry == nil {
		return policy
	}
	if p.Retry.Attempts > 0 {
		policy.Attempts = p.Retry.Attempts
	}
	if p.Retry.BackoffFactor > 0 {
		policy.BackoffFactor = p.Retry.BackoffFactor
	}
	if len(p.Retry.Statuses) > 0 {
		policy.Statuses = append([]int(nil), p.Retry.Statuses...)
	}
	return policy
}
