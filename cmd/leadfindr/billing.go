package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Plan, usage and billing",
}

var billingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current plan and usage",
	RunE:  runBillingShow,
}

var billingUpgradeCmd = &cobra.Command{
	Use:   "upgrade <plan>",
	Short: "Start a plan checkout (starter, pro, growth, premium)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillingUpgrade,
}

var billingPortalCmd = &cobra.Command{
	Use:   "portal",
	Short: "Open the hosted billing portal",
	RunE:  runBillingPortal,
}

var billingCreditsCmd = &cobra.Command{
	Use:   "credits <pack>",
	Short: "Buy a scan credit pack (credit_1000, credit_2000)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillingCredits,
}

func init() {
	billingUpgradeCmd.Flags().String("cycle", "monthly", "billing cycle: monthly or yearly")
	billingUpgradeCmd.Flags().String("mode", "byok", "plan mode: byok (your API keys) or managed")

	billingCmd.AddCommand(billingShowCmd)
	billingCmd.AddCommand(billingUpgradeCmd)
	billingCmd.AddCommand(billingPortalCmd)
	billingCmd.AddCommand(billingCreditsCmd)
}

func runBillingShow(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	sub, err := client.GetSubscription(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Plan:    %s (%s)\n", sub.Plan, sub.PlanStatus)
	fmt.Printf("Scans:   %d/%d used\n", sub.ScanUsage, sub.ScanLimit)
	if sub.PlanRenewal != nil {
		fmt.Printf("Renews:  %s\n", *sub.PlanRenewal)
	}
	return nil
}

func runBillingUpgrade(cmd *cobra.Command, args []string) error {
	cycle, _ := cmd.Flags().GetString("cycle")
	mode, _ := cmd.Flags().GetString("mode")

	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	url, err := client.CreateCheckoutSession(ctx, args[0], cycle, mode)
	if err != nil {
		return err
	}
	fmt.Println("Open this URL to finish checkout:")
	fmt.Println(url)
	return nil
}

func runBillingPortal(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	url, err := client.CreateCustomerPortal(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Open this URL to manage billing:")
	fmt.Println(url)
	return nil
}

func runBillingCredits(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	url, err := client.CreateCreditSession(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println("Open this URL to buy the credit pack:")
	fmt.Println(url)
	return nil
}
