package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/devpulse/internal/config"
	"github.com/rohankatakam/devpulse/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage DevPulse configuration",
	Long:  `View, validate and initialize DevPulse configuration, and manage the GitHub token.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (token masked)",
	RunE:  runConfigShow,
}

var validateContext string

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration for a command",
	RunE:  runConfigValidate,
}

var (
	initPath  string
	initForce bool
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	RunE:  runConfigInit,
}

var tokenAPIURL string

var configTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the GitHub token in the OS keychain",
}

var configTokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Read a token from stdin and store it in the keychain",
	RunE:  runTokenSet,
}

var configTokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the token from the keychain",
	RunE:  runTokenDelete,
}

var configTokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the token would be read from",
	RunE:  runTokenStatus,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configTokenCmd)
	configTokenCmd.AddCommand(configTokenSetCmd)
	configTokenCmd.AddCommand(configTokenDeleteCmd)
	configTokenCmd.AddCommand(configTokenStatusCmd)

	configTokenCmd.PersistentFlags().StringVar(&tokenAPIURL, "api-url", "", "GitHub Enterprise API URL the token belongs to (default: github.api_url)")
	configValidateCmd.Flags().StringVar(&validateContext, "context", "all", "extract, report, serve or all")
	configInitCmd.Flags().StringVar(&initPath, "path", filepath.Join(".devpulse", "config.yaml"), "where to write the file")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	result := cfg.Validate(config.ValidationContext(validateContext))
	out := cmd.OutOrStdout()
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "⚠️  %s\n", w)
	}
	if err := result.Err(); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Configuration is valid for %s\n", validateContext)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initPath); err == nil && !initForce {
		return errors.ConfigErrorf("%s already exists (use --force to overwrite)", initPath)
	}
	if err := config.Default().Save(initPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %s\n", initPath)
	fmt.Fprintln(cmd.OutOrStdout(), "   Set github.org, then run: devpulse extract")
	return nil
}

// tokenCredentials scopes the credential manager to --api-url, falling back
// to the configured API
func tokenCredentials() *config.CredentialManager {
	apiURL := tokenAPIURL
	if apiURL == "" {
		apiURL = cfg.GitHub.APIURL
	}
	return config.NewCredentialManager(logger).ForAPI(apiURL)
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	cm := tokenCredentials()
	fmt.Fprint(cmd.ErrOrStderr(), "GitHub token: ")
	token, err := cm.ReadSecret()
	if err != nil {
		return errors.WrapConfig(err, "failed to read token")
	}
	if err := cm.StoreGitHubToken(token); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Token %s for %s saved to OS keychain\n", config.MaskToken(token), cm.Host())
	return nil
}

func runTokenDelete(cmd *cobra.Command, args []string) error {
	cm := tokenCredentials()
	if err := cm.ForgetGitHubToken(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Token for %s removed from OS keychain\n", cm.Host())
	return nil
}

func runTokenStatus(cmd *cobra.Command, args []string) error {
	cm := tokenCredentials()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mode: %s (%s)\n", cm.Mode(), cm.Mode().Description())
	fmt.Fprintf(out, "API host: %s\n", cm.Host())

	km := config.NewKeyringManager(logger)
	if token, err := km.GetGitHubToken(cm.Host()); err == nil && token != "" {
		fmt.Fprintf(out, "Keychain: %s\n", config.MaskToken(token))
	} else {
		fmt.Fprintln(out, "Keychain: not set")
	}
	for _, env := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if v := os.Getenv(env); v != "" {
			fmt.Fprintf(out, "%s: %s (takes precedence)\n", env, config.MaskToken(v))
		}
	}
	if cfg.GitHub.Token != "" {
		fmt.Fprintf(out, "Config file: %s\n", config.MaskToken(cfg.GitHub.Token))
	}
	return nil
}
