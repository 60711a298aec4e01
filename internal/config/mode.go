package config

import (
	"os"
	"strings"
)

// DeploymentMode decides where credentials may come from
type DeploymentMode string

const (
	// ModeDevelopment: a checkout with .env or go.mod; .env files are loaded
	ModeDevelopment DeploymentMode = "development"
	// ModePackaged: an installed binary; keychain and prompts are allowed
	ModePackaged DeploymentMode = "packaged"
	// ModeCI: scheduled extraction; environment only, never prompt
	ModeCI DeploymentMode = "ci"
)

// ciEnvVars are set by common CI runners
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"JENKINS_URL",
	"BUILDKITE",
	"TF_BUILD",
}

// ParseMode accepts a mode name or one of its aliases
func ParseMode(s string) (DeploymentMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return ModeDevelopment, true
	case "packaged", "pkg", "production", "prod":
		return ModePackaged, true
	case "ci", "cicd":
		return ModeCI, true
	}
	return "", false
}

// DetectMode honours DEVPULSE_MODE, then CI markers, then the presence of
// .env or go.mod in the working directory
func DetectMode() DeploymentMode {
	if mode, ok := ParseMode(os.Getenv("DEVPULSE_MODE")); ok {
		return mode
	}
	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return ModeCI
		}
	}
	for _, marker := range []string{".env", "go.mod"} {
		if _, err := os.Stat(marker); err == nil {
			return ModeDevelopment
		}
	}
	return ModePackaged
}

func (m DeploymentMode) String() string {
	return string(m)
}

// AllowsInteractivePrompts returns true if interactive prompts are allowed
func (m DeploymentMode) AllowsInteractivePrompts() bool {
	return m != ModeCI
}

// Description returns a human-readable description of the mode
func (m DeploymentMode) Description() string {
	switch m {
	case ModeDevelopment:
		return "Local development checkout"
	case ModePackaged:
		return "Installed binary"
	case ModeCI:
		return "CI/CD pipeline"
	default:
		return "Unknown mode"
	}
}
