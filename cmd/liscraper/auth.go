package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"liscraper/pkg/auth"
	"liscraper/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage LinkedIn credentials",
	Long: `Manage stored LinkedIn credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (LISCRAPER_EMAIL, LISCRAPER_PASSWORD)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Store LinkedIn credentials securely",
	Long: `Store LinkedIn credentials in the system keychain or an encrypted file.

You will be prompted for:
  - LinkedIn email (if not provided)
  - LinkedIn password (hidden as you type)`,
	Example: `  # Interactive login
  liscraper auth login

  # Login with email
  liscraper auth login me@example.com`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [email]",
	Short: "Remove stored credentials",
	Long: `Remove stored LinkedIn credentials.

If no email is provided, you will be shown a list of stored accounts
to choose from. You can also remove all accounts at once.`,
	Example: `  # Interactive logout
  liscraper auth logout

  # Logout specific account
  liscraper auth logout me@example.com`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored LinkedIn accounts with passwords masked.`,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var email string
	if len(args) > 0 {
		email = strings.TrimSpace(args[0])
	}

	if email == "" {
		email, err = auth.PromptEmail()
		if err != nil {
			ui.PrintError("Failed to read email", err.Error())
			os.Exit(1)
		}
	}

	// Check if account already exists
	if existing, _ := manager.Retrieve(email); existing != nil {
		reader := bufio.NewReader(os.Stdin)
		fmt.Printf("Account '%s' already exists. Update credentials? (y/N): ", email)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	password, err := auth.PromptPassword()
	if err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}

	account := &auth.Account{
		Email:        email,
		Password:     password,
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Account saved: " + email)
	fmt.Println("\nStart scraping with:")
	fmt.Printf("  liscraper scrape -c <channel_url> --account %s\n", email)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if len(args) == 0 {
		accounts, err := manager.List()
		if err != nil || len(accounts) == 0 {
			ui.PrintError("No stored accounts found", "")
			return
		}

		if len(accounts) == 1 {
			// Only one account, confirm deletion
			account := accounts[0]
			reader := bufio.NewReader(os.Stdin)
			fmt.Printf("Remove account '%s'? (y/N): ", account.Email)
			input, _ := reader.ReadString('\n')
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
				return
			}

			if err := manager.Delete(account.Email); err != nil {
				ui.PrintError("Failed to remove account", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("Account removed: " + account.Email)
			return
		}

		// Multiple accounts, show menu
		fmt.Println("Select account to remove:")
		for i, account := range accounts {
			fmt.Printf("  %d. %s\n", i+1, account.Email)
		}
		fmt.Printf("  %d. Remove all accounts\n", len(accounts)+1)
		fmt.Printf("  0. Cancel\n\n")

		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Choice: ")
		input, _ := reader.ReadString('\n')

		var choice int
		fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

		if choice == 0 {
			return
		} else if choice == len(accounts)+1 {
			fmt.Print("Remove ALL accounts? This cannot be undone! (yes/N): ")
			confirm, _ := reader.ReadString('\n')
			if strings.TrimSpace(confirm) != "yes" {
				return
			}

			if err := manager.DeleteAll(); err != nil {
				ui.PrintError("Failed to remove all accounts", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("All accounts removed")
			return
		} else if choice > 0 && choice <= len(accounts) {
			account := accounts[choice-1]
			if err := manager.Delete(account.Email); err != nil {
				ui.PrintError("Failed to remove account", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("Account removed: " + account.Email)
			return
		} else {
			ui.PrintError("Invalid choice", "")
			os.Exit(1)
		}
	}

	email := args[0]
	if err := manager.Delete(email); err != nil {
		ui.PrintError("Failed to remove account", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Account removed: " + email)
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'liscraper auth login' to add an account")
		return
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Println()

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Email: %s\n", i+1, sanitized.Email)
		fmt.Printf("   Password: %s\n", sanitized.Password)
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}
