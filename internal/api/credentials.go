package api

import "context"

// CredentialSource supplies the bearer token attached to every request.
// Issuance and refresh live outside this module.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a CredentialSource backed by a fixed token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// maskToken masks all but the first 4 characters of a token for logging.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
