package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/rohankatakam/devpulse/internal/errors"
)

// TokenSource names where the GitHub token came from
type TokenSource string

const (
	TokenSourceEnv      TokenSource = "env"
	TokenSourceKeychain TokenSource = "keychain"
	TokenSourceConfig   TokenSource = "config"
	TokenSourcePrompt   TokenSource = "prompt"
	TokenSourceNone     TokenSource = "none"
)

// CredentialManager handles credential retrieval with priority chain
// Priority: Environment Variables → Keychain → Config File → Interactive Prompt
type CredentialManager struct {
	mode    DeploymentMode
	keyring *KeyringManager
	host    string
	in      io.Reader
	out     io.Writer
}

// NewCredentialManager creates a new credential manager
func NewCredentialManager(logger *logrus.Logger) *CredentialManager {
	return &CredentialManager{
		mode:    DetectMode(),
		keyring: NewKeyringManager(logger),
		host:    APIHost(""),
		in:      os.Stdin,
		out:     os.Stderr,
	}
}

// ForAPI scopes keychain lookups to the host of apiURL
func (cm *CredentialManager) ForAPI(apiURL string) *CredentialManager {
	cm.host = APIHost(apiURL)
	return cm
}

// Host returns the API host keychain entries are scoped to
func (cm *CredentialManager) Host() string {
	return cm.host
}

// GitHubToken resolves the GitHub token. The token is optional for public
// organizations, so an empty token with TokenSourceNone is not an error.
func (cm *CredentialManager) GitHubToken(cfg *Config) (string, TokenSource, error) {
	// 1. Environment variable (highest priority)
	for _, envVar := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(envVar); token != "" {
			return token, TokenSourceEnv, nil
		}
	}

	// 2. Keychain (macOS/Linux)
	if cm.mode != ModeCI && cm.keyring.IsAvailable() {
		if token, err := cm.keyring.GetGitHubToken(cm.host); err == nil && token != "" {
			return token, TokenSourceKeychain, nil
		}
	}

	// 3. Config file
	if cfg != nil && cfg.GitHub.Token != "" {
		return cfg.GitHub.Token, TokenSourceConfig, nil
	}

	// 4. Interactive prompt (never in CI)
	if cm.mode.AllowsInteractivePrompts() && isInteractive() {
		fmt.Fprintln(cm.out, "GitHub token not found (optional).")
		fmt.Fprintln(cm.out, "   Required for: private repos, higher rate limits")
		fmt.Fprintln(cm.out, "   Create one at: https://github.com/settings/tokens")
		fmt.Fprint(cm.out, "Enter GitHub token (or press Enter to skip): ")

		token, err := cm.ReadSecret()
		if err != nil {
			return "", TokenSourceNone, errors.WrapConfig(err, "failed to read GitHub token")
		}
		if token != "" {
			if cm.keyring.IsAvailable() {
				if err := cm.keyring.SetGitHubToken(cm.host, token); err == nil {
					fmt.Fprintln(cm.out, "✓ Saved to keychain")
				}
			}
			return token, TokenSourcePrompt, nil
		}
	}

	return "", TokenSourceNone, nil
}

// StoreGitHubToken saves token to the OS keychain
func (cm *CredentialManager) StoreGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.ConfigError("github token cannot be empty")
	}
	if !cm.keyring.IsAvailable() {
		return errors.ConfigError("OS keychain is not available; export GITHUB_TOKEN instead")
	}
	if err := cm.keyring.SetGitHubToken(cm.host, token); err != nil {
		return errors.WrapConfig(err, "failed to save GitHub token to keychain")
	}
	return nil
}

// ForgetGitHubToken removes the token from the OS keychain
func (cm *CredentialManager) ForgetGitHubToken() error {
	return cm.keyring.DeleteGitHubToken(cm.host)
}

// ReadSecret reads a password/token from stdin without echoing
func (cm *CredentialManager) ReadSecret() (string, error) {
	// Try to read from terminal (supports password masking)
	if f, ok := cm.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cm.out) // New line after password input
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	// Fallback: Read from stdin (piped input)
	reader := bufio.NewReader(cm.in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// isInteractive returns true if stdin is a terminal (not piped)
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Mode returns the detected deployment mode
func (cm *CredentialManager) Mode() DeploymentMode {
	return cm.mode
}
