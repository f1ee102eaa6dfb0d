package backend

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// PasswordEnvVar names the admin password in the environment and in the env file
const PasswordEnvVar = "PARTIES247_ADMIN_PASSWORD"

// AdminPassword returns the admin password from the environment, falling back to envFile.
func AdminPassword(envFile string) (string, error) {
	if password := os.Getenv(PasswordEnvVar); password != "" {
		return password, nil
	}

	if envFile == "" {
		return "", &AuthenticationError{Reason: "admin password not found in environment"}
	}

	values, err := godotenv.Read(envFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &AuthenticationError{Reason: "admin password not found in environment and " + envFile + " is missing"}
		}
		return "", fmt.Errorf("reading %s: %w", envFile, err)
	}

	password := values[PasswordEnvVar]
	if password == "" {
		return "", &AuthenticationError{Reason: "admin password not found in " + envFile}
	}
	return password, nil
}
