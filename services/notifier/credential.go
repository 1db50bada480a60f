package notifier

import (
	"fmt"
	"os"
	"strings"

	apperrors "sjsage522/aptwatcher/pkg/errors"
)

// ReadCredential reads the sender secret: the file's contents with trailing
// whitespace removed. A missing, unreadable or blank file is a missing
// credential error.
func ReadCredential(path string) (string, error) {
	if path == "" {
		return "", apperrors.NewCredentialMissing(component, "no credential file configured", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.NewCredentialMissing(component, fmt.Sprintf("read %s", path), err)
	}

	secret := strings.TrimRight(string(data), " \t\r\n")
	if secret == "" {
		return "", apperrors.NewCredentialMissing(component, fmt.Sprintf("%s is empty", path), nil)
	}
	return secret, nil
}
