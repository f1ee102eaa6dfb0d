package myevents

import (
	"os"
)

const (
	EmailEnvVar    = "GOOUT_EMAIL"
	PasswordEnvVar = "GOOUT_PASSWORD"
	TokenEnvVar    = "GOOUT_TOKEN"
)

// AuthenticationError reports missing or rejected Go Out credentials
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "go out authentication failed: " + e.Reason
}

// credentialsFromEnv returns the account login used to renew the token
func credentialsFromEnv() (email, password string, err error) {
	email = os.Getenv(EmailEnvVar)
	password = os.Getenv(PasswordEnvVar)
	if email == "" || password == "" {
		return "", "", &AuthenticationError{Reason: EmailEnvVar + " and " + PasswordEnvVar + " must be set"}
	}
	return email, password, nil
}

// tokenFromEnv returns the token used to bootstrap the auth payload
func tokenFromEnv() (string, error) {
	token := os.Getenv(TokenEnvVar)
	if token == "" {
		return "", &AuthenticationError{Reason: TokenEnvVar + " must be set to bootstrap authentication"}
	}
	return token, nil
}
