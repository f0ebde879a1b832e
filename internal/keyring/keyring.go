package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/fitbot/internal/constants"
)

var (
	// ErrNotFound is returned when no token is stored in the keyring
	ErrNotFound = errors.New("token not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// GetToken retrieves the Telegram bot token from the OS keyring.
func GetToken() (string, error) {
	token, err := keyring.Get(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return token, nil
}

// SetToken stores the bot token after a format check.
func SetToken(token string) error {
	token = strings.TrimSpace(token)
	if err := ValidateToken(token); err != nil {
		return err
	}
	if err := keyring.Set(constants.AppName, constants.DefaultKeyringUser, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

func DeleteToken() error {
	err := keyring.Delete(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// ValidateToken checks the "<bot id>:<secret>" shape BotFather issues.
func ValidateToken(token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	id, secret, ok := strings.Cut(token, ":")
	if !ok || id == "" || secret == "" {
		return errors.New("token must look like <bot id>:<secret>")
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return errors.New("token bot id must be numeric")
		}
	}
	return nil
}

// Mask keeps the bot id and hides the secret, for display.
func Mask(token string) string {
	id, secret, ok := strings.Cut(token, ":")
	if !ok {
		return "****"
	}
	if len(secret) > 4 {
		return id + ":****" + secret[len(secret)-4:]
	}
	return id + ":****"
}

// ResolveToken returns explicit if set, otherwise the keyring token.
func ResolveToken(explicit string) (string, error) {
	if t := strings.TrimSpace(explicit); t != "" {
		return t, nil
	}
	token, err := GetToken()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", errors.New("no bot token: set FITBOT_TOKEN, pass --token, or run 'fitbot token set'")
		}
		return "", err
	}
	return token, nil
}
