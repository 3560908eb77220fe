package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/user/leadfindr/internal/api"
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in and save the session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the saved session",
	RunE:  runLogout,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a new account",
	RunE:  runSignup,
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password [email]",
	Short: "Send a password reset email",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runForgotPassword,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE:  runWhoami,
}

func init() {
	whoamiCmd.Flags().Bool("verify", false, "ask the backend whether the saved token is still valid")
}

func runLogin(cmd *cobra.Command, args []string) error {
	email := ""
	if len(args) == 1 {
		email = args[0]
	}
	if email == "" {
		var err error
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	if errs := api.ValidateLogin(email, password); len(errs) > 0 {
		return errors.New(strings.Join(errs, " "))
	}

	client, sess, err := buildClient()
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	token, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := sess.Establish(token, nil); err != nil {
		return fmt.Errorf("logged in but failed to save the session: %w", err)
	}

	// Cache the account record so whoami and admin checks work offline.
	if account, err := client.GetAccount(ctx); err == nil {
		sess.SetAccount(account)
	}

	fmt.Printf("Logged in as %s\n", email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		fmt.Println("Not logged in")
		return nil
	}

	ctx, cancel := cmdContext()
	defer cancel()

	// Best effort: the local session clears even when revocation fails.
	_ = client.Logout(ctx)
	sess.Invalidate()
	fmt.Println("Logged out")
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	name, err := promptLine("Name: ")
	if err != nil {
		return err
	}
	email, err := promptLine("Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}

	if errs := api.ValidateSignup(email, password, confirm); len(errs) > 0 {
		return errors.New(strings.Join(errs, " "))
	}

	client, _, err := buildClient()
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	if err := client.Register(ctx, api.RegisterPayload{Name: name, Email: email, Password: password}); err != nil {
		return err
	}

	fmt.Println("Account created. Check your email to verify it, then run 'leadfindr login'.")
	return nil
}

func runForgotPassword(cmd *cobra.Command, args []string) error {
	email := ""
	if len(args) == 1 {
		email = args[0]
	}
	if email == "" {
		var err error
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}
	if msg := api.ValidateEmail(email); msg != "" {
		return errors.New(msg)
	}

	client, _, err := buildClient()
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	if err := client.ForgotPassword(ctx, email); err != nil {
		return err
	}
	fmt.Println("If that address has an account, a reset email is on its way.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	if verify, _ := cmd.Flags().GetBool("verify"); verify {
		userID, err := client.VerifyToken(ctx)
		if err != nil {
			return fmt.Errorf("saved token is no longer valid: %w", err)
		}
		fmt.Printf("Token valid for %s (user %s)\n", client.BaseURL(), userID)
	}

	account, err := client.GetAccount(ctx)
	if err != nil {
		var terr *api.TransportError
		if errors.As(err, &terr) && terr.Unauthorized() {
			return fmt.Errorf("session expired; run 'leadfindr login' again")
		}
		// Fall back to the cached record when offline.
		if cached := sess.Account(); cached != nil {
			fmt.Printf("%s (%s plan, cached)\n", cached.Email, cached.Plan)
			return nil
		}
		return err
	}
	sess.SetAccount(account)

	fmt.Printf("%s (%s plan, %d/%d scans used)\n",
		account.Email, account.Plan, account.ScanUsage, account.ScanLimit)
	if account.Role == "admin" {
		fmt.Println("Role: admin")
	}
	return nil
}

func promptLine(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
