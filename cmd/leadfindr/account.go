package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/leadfindr/internal/api"
	"github.com/user/leadfindr/internal/model"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage your account and settings",
}

var accountShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show account settings",
	RunE:  runAccountShow,
}

var accountUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields and API keys",
	RunE:  runAccountUpdate,
}

var accountPasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Change the account password",
	RunE:  runAccountPassword,
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Permanently delete the account",
	RunE:  runAccountDelete,
}

func init() {
	accountUpdateCmd.Flags().String("username", "", "display username")
	accountUpdateCmd.Flags().String("full-name", "", "full name")
	accountUpdateCmd.Flags().String("phone", "", "phone number")
	accountUpdateCmd.Flags().String("google-api-key", "", "Google Places API key (BYOK plans)")
	accountUpdateCmd.Flags().String("gemini-api-key", "", "Gemini API key (BYOK plans)")
	accountUpdateCmd.Flags().String("search-api-key", "", "Google Custom Search API key")
	accountUpdateCmd.Flags().String("search-cx", "", "Google Custom Search engine id")

	accountDeleteCmd.Flags().Bool("yes", false, "skip the confirmation prompt")

	accountCmd.AddCommand(accountShowCmd)
	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountPasswordCmd)
	accountCmd.AddCommand(accountDeleteCmd)
}

func runAccountShow(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	account, err := client.GetAccount(ctx)
	if err != nil {
		return err
	}
	sess.SetAccount(account)

	fmt.Printf("Email:      %s\n", account.Email)
	fmt.Printf("Username:   %s\n", strOr(account.Username, "-"))
	fmt.Printf("Name:       %s\n", strOr(account.FullName, "-"))
	fmt.Printf("Phone:      %s\n", strOr(account.Phone, "-"))
	fmt.Printf("Plan:       %s (%s)\n", account.Plan, account.PlanStatus)
	fmt.Printf("Scans:      %d/%d used\n", account.ScanUsage, account.ScanLimit)
	fmt.Printf("Verified:   %v\n", account.IsVerified)
	fmt.Printf("Member since: %s\n", account.CreatedAt)

	fmt.Println("\nAPI keys:")
	fmt.Printf("  Google Places:  %s\n", maskKey(account.GoogleAPIKey))
	fmt.Printf("  Gemini:         %s\n", maskKey(account.GeminiAPIKey))
	fmt.Printf("  Custom Search:  %s\n", maskKey(account.GoogleSearchAPIKey))
	return nil
}

func runAccountUpdate(cmd *cobra.Command, args []string) error {
	var update model.AccountUpdate
	changed := false

	set := func(flag string, dst **string) {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			*dst = &v
			changed = true
		}
	}
	set("username", &update.Username)
	set("full-name", &update.FullName)
	set("phone", &update.Phone)
	set("google-api-key", &update.GoogleAPIKey)
	set("gemini-api-key", &update.GeminiAPIKey)
	set("search-api-key", &update.GoogleSearchAPIKey)
	set("search-cx", &update.GoogleSearchCX)

	if !changed {
		return fmt.Errorf("nothing to update; pass at least one flag")
	}

	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	if err := client.UpdateAccount(ctx, update); err != nil {
		return err
	}
	// Refresh the cached record so whoami reflects the change.
	if account, err := client.GetAccount(ctx); err == nil {
		sess.SetAccount(account)
	}
	fmt.Println("Account updated")
	return nil
}

func runAccountPassword(cmd *cobra.Command, args []string) error {
	current, err := promptPassword("Current password: ")
	if err != nil {
		return err
	}
	next, err := promptPassword("New password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm new password: ")
	if err != nil {
		return err
	}

	if errs := api.ValidateChangePassword(current, next, confirm); len(errs) > 0 {
		return errors.New(strings.Join(errs, " "))
	}

	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	if err := client.ResetPassword(ctx, current, next); err != nil {
		return err
	}
	fmt.Println("Password changed")
	return nil
}

func runAccountDelete(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		answer, err := promptLine("This permanently deletes the account and all scans. Type the account email to confirm: ")
		if err != nil {
			return err
		}
		if answer == "" || answer != sess.Email() {
			return fmt.Errorf("confirmation did not match; nothing deleted")
		}
	}

	ctx, cancel := cmdContext()
	defer cancel()

	if err := client.DeleteAccount(ctx); err != nil {
		return err
	}
	sess.Invalidate()
	fmt.Println("Account deleted")
	return nil
}

func strOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

func maskKey(v *string) string {
	if v == nil || *v == "" {
		return "not set"
	}
	k := *v
	if len(k) <= 6 {
		return "******"
	}
	return k[:3] + strings.Repeat("*", len(k)-6) + k[len(k)-3:]
}
