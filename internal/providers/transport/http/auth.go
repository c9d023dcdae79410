package http

import (
	"net/http"
	"strings"

	"github.com/planetfederal/gsconfig/config"
)

type authMode int

const (
	authModeNone authMode = iota
	authModeBasic
	authModeCertificate
	authModeToken
)

type authConfig struct {
	mode      authMode
	basicAuth config.BasicAuth
	token     config.TokenAuth
}

func buildAuthConfig(cfg *config.Auth) (authConfig, error) {
	if cfg == nil {
		return authConfig{mode: authModeNone}, nil
	}

	setCount := 0
	if cfg.BasicAuth != nil {
		setCount++
	}
	if cfg.Certificate != nil {
		setCount++
	}
	if cfg.Token != nil {
		setCount++
	}
	if setCount > 1 {
		return authConfig{}, validationError("service.auth must define exactly one strategy", nil)
	}

	switch {
	case cfg.BasicAuth != nil:
		basic := *cfg.BasicAuth
		if basic.Username == "" {
			return authConfig{}, validationError("service.auth.basic-auth.username is required", nil)
		}
		return authConfig{mode: authModeBasic, basicAuth: basic}, nil
	case cfg.Certificate != nil:
		// the credential travels in the TLS handshake, see buildTLSConfig
		return authConfig{mode: authModeCertificate}, nil
	case cfg.Token != nil:
		token := *cfg.Token
		if strings.TrimSpace(token.Token) == "" {
			return authConfig{}, validationError("service.auth.token.token is required", nil)
		}
		if !token.HeaderEnabled() && strings.TrimSpace(token.QueryParam) == "" {
			return authConfig{}, validationError("service.auth.token needs header or query-param delivery", nil)
		}
		return authConfig{mode: authModeToken, token: token}, nil
	default:
		return authConfig{mode: authModeNone}, nil
	}
}

func (a authConfig) apply(request *http.Request) {
	switch a.mode {
	case authModeBasic:
		request.SetBasicAuth(a.basicAuth.Username, a.basicAuth.Password)
	case authModeToken:
		if a.token.HeaderEnabled() {
			request.Header.Set("Authorization", "Bearer "+a.token.Token)
		}
		if param := strings.TrimSpace(a.token.QueryParam); param != "" {
			query := request.URL.Query()
			query.Set(param, a.token.Token)
			request.URL.RawQuery = query.Encode()
		}
	}
}

func (a authConfig) String() string {
	switch a.mode {
	case authModeBasic:
		return "basic"
	case authModeCertificate:
		return "certificate"
	case authModeToken:
		return "token"
	default:
		return "none"
	}
}
