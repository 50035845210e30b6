package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"profilesync/pkg/auth"
	"profilesync/pkg/config"
	"profilesync/pkg/logger"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage source credentials",
	Long: `Manage stored API credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Sources: instagram, vsco, neodb, lastfm, wakatime, gist.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <source>",
	Short: "Store a credential for a source",
	Long: `Store a credential for a source. The token is read from a hidden
prompt, never from the command line, so it stays out of shell history.

For instagram, the token is the sessionid cookie; you will also be
prompted for the csrftoken cookie.`,
	Example: `  profilesync auth set neodb
  profilesync auth set gist`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthSet,
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete <source>",
	Short: "Remove a stored credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthDelete,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sources with stored credentials",
	RunE:  runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authDeleteCmd)
	authCmd.AddCommand(authListCmd)
}

func newAuthManager() (*auth.Manager, error) {
	if err := logger.Initialize(&config.LoggingConfig{Level: "warn"}); err != nil {
		return nil, err
	}
	return auth.NewManager(logger.GetLogger())
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	source := strings.ToLower(args[0])
	manager, err := newAuthManager()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	token, err := promptSecret(fmt.Sprintf("Token for %s: ", source))
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}

	cred := &auth.Credential{Source: source, Token: token}
	if source == "instagram" {
		csrf, err := promptSecret("CSRF token: ")
		if err != nil {
			return err
		}
		if csrf != "" {
			cred.Fields = map[string]string{"csrf_token": csrf}
		}
	}

	if err := manager.Save(cred); err != nil {
		return err
	}
	fmt.Printf("Credential for %s stored.\n", source)
	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	source := strings.ToLower(args[0])
	manager, err := newAuthManager()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	if err := manager.Delete(source); err != nil {
		if err == auth.ErrCredentialNotFound {
			return fmt.Errorf("no stored credential for %s", source)
		}
		return err
	}
	fmt.Printf("Credential for %s removed.\n", source)
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := newAuthManager()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	sources, err := manager.List()
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Println("No stored credentials.")
		return nil
	}

	fmt.Println("Stored credentials:")
	for _, source := range sources {
		fmt.Printf("  %s\n", source)
	}
	return nil
}

// promptSecret reads a value without echo when stdin is a terminal, and
// falls back to a plain line read when it is not (pipes, CI).
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
