package models

import (
	"context"
	"os"
	"strings"
)

// CredentialProvider supplies the bearer token used for hub requests.
// The token is opaque to this package: how consent is granted and how the
// token is minted belong to the hub's own account flow.
//
// Token returns an empty string, with a nil error, when no credential is
// configured; the request is then made anonymously and gated repositories
// answer with a consent-required rejection.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticCredential is a fixed token. Useful for tests and for callers that
// manage the token themselves.
type StaticCredential string

// Token returns the fixed token.
func (s StaticCredential) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// envCredential reads the token from <APPNAME>_HUB_TOKEN on every call, so a
// token granted mid-session is picked up by the next run without restarts.
type envCredential struct {
	varName string
}

// EnvCredential returns a provider backed by the <APPNAME>_HUB_TOKEN
// environment variable.
func EnvCredential(appName string) CredentialProvider {
	return envCredential{varName: strings.ToUpper(appName) + "_HUB_TOKEN"}
}

// Token returns the environment token, or empty when unset.
func (e envCredential) Token(ctx context.Context) (string, error) {
	return strings.TrimSpace(os.Getenv(e.varName)), nil
}
