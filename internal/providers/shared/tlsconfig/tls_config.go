package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/faults"
)

// BuildTLSConfig merges the service TLS settings with the certificate
// credential strategy. It returns nil when neither asks for anything.
func BuildTLSConfig(tlsSettings *config.TLS, certificate *config.Certificate, scope string) (*tls.Config, error) {
	if tlsSettings == nil && certificate == nil {
		return nil, nil
	}

	settings := config.TLS{}
	if tlsSettings != nil {
		settings = *tlsSettings
	}
	if certificate != nil {
		settings.ClientCertFile = certificate.ClientCertFile
		settings.ClientKeyFile = certificate.ClientKeyFile
		if strings.TrimSpace(certificate.CACertFile) != "" {
			settings.CACertFile = certificate.CACertFile
		}
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: settings.InsecureSkipVerify,
	}

	if strings.TrimSpace(settings.CACertFile) != "" {
		caBytes, err := os.ReadFile(settings.CACertFile)
		if err != nil {
			return nil, validationError(fmt.Sprintf("%s.ca-cert-file could not be read", scope), err)
		}

		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caBytes); !ok {
			return nil, validationError(fmt.Sprintf("%s.ca-cert-file is not valid PEM", scope), nil)
		}
		tlsConfig.RootCAs = pool
	}

	clientCertFile := strings.TrimSpace(settings.ClientCertFile)
	clientKeyFile := strings.TrimSpace(settings.ClientKeyFile)
	if (clientCertFile == "") != (clientKeyFile == "") {
		return nil, validationError(
			fmt.Sprintf("%s requires both client-cert-file and client-key-file", scope),
			nil,
		)
	}

	if clientCertFile != "" {
		certificatePair, err := tls.LoadX509KeyPair(clientCertFile, clientKeyFile)
		if err != nil {
			return nil, validationError(
				fmt.Sprintf("%s client certificate pair is invalid", scope),
				err,
			)
		}
		tlsConfig.Certificates = []tls.Certificate{certificatePair}
	}

	return tlsConfig, nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
