package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/kilnlog/kilnlog/config"
	"github.com/kilnlog/kilnlog/identity"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage bearer tokens",
	Long: `Manage the bearer tokens the API accepts.

Tokens are stored in the YAML file configured at auth.tokens.file; the
server resolves each request's bearer token to an owner through that
file. Changes take effect on the next server start.`,
}

var tokenAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new token",
	Long: `Add a new bearer token interactively.

You will be prompted for the owner id and whether the token should be
an unscoped admin token. The generated token is printed once; store it
somewhere safe.`,
	RunE: runTokenAdd,
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured tokens",
	Long: `List the tokens in the token file.

Token values are masked by default; use --show-tokens to reveal them.`,
	RunE: runTokenList,
}

var tokenRemoveCmd = &cobra.Command{
	Use:     "remove <token>",
	Aliases: []string{"rm"},
	Short:   "Remove a token",
	Args:    cobra.ExactArgs(1),
	RunE:    runTokenRemove,
}

var showTokens bool

func init() {
	tokenCmd.AddCommand(tokenAddCmd)
	tokenCmd.AddCommand(tokenListCmd)
	tokenCmd.AddCommand(tokenRemoveCmd)

	tokenListCmd.Flags().BoolVar(&showTokens, "show-tokens", false, "show full token values")

	rootCmd.AddCommand(tokenCmd)
}

func tokenFilePath(cmd *cobra.Command) (string, error) {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return "", err
	}
	if cfg.Auth.Tokens.File == "" {
		return "", errors.New("auth.tokens.file is not configured")
	}
	return cfg.Auth.Tokens.File, nil
}

func loadTokenFile(path string) ([]identity.TokenEntry, error) {
	entries, err := identity.LoadTokensFromFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

func runTokenAdd(cmd *cobra.Command, _ []string) error {
	path, err := tokenFilePath(cmd)
	if err != nil {
		return err
	}

	entries, err := loadTokenFile(path)
	if err != nil {
		return err
	}

	ownerPrompt := promptui.Prompt{
		Label: "Owner id",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("owner id is required")
			}
			return nil
		},
	}
	ownerID, err := ownerPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	admin := false
	adminPrompt := promptui.Prompt{
		Label:     "Unscoped admin token",
		IsConfirm: true,
	}
	if _, promptErr := adminPrompt.Run(); promptErr == nil {
		admin = true
	}

	token := newToken()
	entries = append(entries, identity.TokenEntry{
		Token:   token,
		OwnerID: strings.TrimSpace(ownerID),
		Admin:   admin,
	})

	if err := identity.SaveTokensToFile(path, entries); err != nil {
		return err
	}

	fmt.Printf("Token added for %s:\n\n  %s\n\nThis value is not shown again.\n", ownerID, token)
	return nil
}

func runTokenList(cmd *cobra.Command, _ []string) error {
	path, err := tokenFilePath(cmd)
	if err != nil {
		return err
	}

	entries, err := loadTokenFile(path)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No tokens configured.")
		fmt.Println("Run 'kilnlog token add' to create one.")
		return nil
	}

	for _, e := range entries {
		value := maskToken(e.Token)
		if showTokens {
			value = e.Token
		}
		role := ""
		if e.Admin {
			role = " (admin)"
		}
		fmt.Printf("%s  %s%s\n", value, e.OwnerID, role)
	}
	return nil
}

func runTokenRemove(cmd *cobra.Command, args []string) error {
	path, err := tokenFilePath(cmd)
	if err != nil {
		return err
	}

	entries, err := loadTokenFile(path)
	if err != nil {
		return err
	}

	kept := entries[:0]
	removed := 0
	for _, e := range entries {
		if e.Token == args[0] {
			removed++
			continue
		}
		kept = append(kept, e)
	}

	if removed == 0 {
		return fmt.Errorf("token not found: %s", maskToken(args[0]))
	}

	if err := identity.SaveTokensToFile(path, kept); err != nil {
		return err
	}

	fmt.Printf("Removed %d token(s).\n", removed)
	return nil
}

func newToken() string {
	return "kl_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:8] + strings.Repeat("*", len(token)-8)
}

func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
