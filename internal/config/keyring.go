package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain
	KeyringService = "devpulse"

	// KeyringGitHubTokenItem is the item holding the github.com token.
	// Tokens for GitHub Enterprise hosts are stored as "github-token@<host>".
	KeyringGitHubTokenItem = "github-token"

	publicAPIHost = "api.github.com"
)

// KeyringManager stores GitHub tokens in the OS keychain, one per API host
type KeyringManager struct {
	logger *logrus.Entry
}

// NewKeyringManager creates a new keyring manager
func NewKeyringManager(logger *logrus.Logger) *KeyringManager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &KeyringManager{
		logger: logger.WithField("component", "keyring"),
	}
}

// APIHost returns the host of a GitHub API base URL; empty or unparsable
// URLs mean api.github.com
func APIHost(apiURL string) string {
	apiURL = strings.TrimSpace(apiURL)
	if apiURL == "" {
		return publicAPIHost
	}
	if !strings.Contains(apiURL, "://") {
		apiURL = "https://" + apiURL
	}
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return publicAPIHost
	}
	host := strings.ToLower(u.Host)
	if host == "github.com" {
		return publicAPIHost
	}
	return host
}

// TokenItem returns the keychain item name for an API host
func TokenItem(host string) string {
	if host == "" || host == publicAPIHost {
		return KeyringGitHubTokenItem
	}
	return KeyringGitHubTokenItem + "@" + host
}

// GetGitHubToken returns the token for host; a missing entry is ("", nil)
func (km *KeyringManager) GetGitHubToken(host string) (string, error) {
	token, err := keyring.Get(KeyringService, TokenItem(host))
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		km.logger.WithError(err).WithField("host", host).Error("failed to get GitHub token from keychain")
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}

	km.logger.WithField("host", host).Debug("github token retrieved from keychain")
	return token, nil
}

// SetGitHubToken stores the token for host
// - macOS: Keychain Access.app → "devpulse" → "github-token"
// - Windows: Credential Manager → "devpulse"
// - Linux: Secret Service (requires libsecret)
func (km *KeyringManager) SetGitHubToken(host, token string) error {
	if token == "" {
		return fmt.Errorf("github token cannot be empty")
	}

	if err := keyring.Set(KeyringService, TokenItem(host), token); err != nil {
		km.logger.WithError(err).WithField("host", host).Error("failed to save GitHub token to keychain")
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}

	km.logger.WithFields(logrus.Fields{
		"service": KeyringService,
		"item":    TokenItem(host),
	}).Info("github token saved to keychain")
	return nil
}

// DeleteGitHubToken removes the token for host; deleting a missing entry
// succeeds
func (km *KeyringManager) DeleteGitHubToken(host string) error {
	err := keyring.Delete(KeyringService, TokenItem(host))
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		km.logger.WithError(err).WithField("host", host).Error("failed to delete GitHub token from keychain")
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}

	km.logger.WithField("item", TokenItem(host)).Info("github token deleted from keychain")
	return nil
}

// IsAvailable probes the keychain. Headless CI machines usually have none.
func (km *KeyringManager) IsAvailable() bool {
	_, err := keyring.Get(KeyringService, "test-availability")
	if err == keyring.ErrNotFound {
		return true
	}
	if err != nil {
		km.logger.WithError(err).Debug("keychain not available")
		return false
	}
	return true
}

// MaskToken masks a token for display: "ghp_...abcd"
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", token[:4], token[len(token)-4:])
}
