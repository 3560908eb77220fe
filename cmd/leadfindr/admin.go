package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/leadfindr/internal/session"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin dashboard (admin role required)",
}

var adminOverviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Users, scans, businesses and revenue at a glance",
	RunE:  runAdminOverview,
}

var adminActivityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Recent scan activity across all users",
	RunE:  runAdminActivity,
}

var adminHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "API usage and error counters",
	RunE:  runAdminHealth,
}

var adminBusinessesCmd = &cobra.Command{
	Use:   "businesses",
	Short: "Stored-business summary",
	RunE:  runAdminBusinesses,
}

func init() {
	adminCmd.AddCommand(adminOverviewCmd)
	adminCmd.AddCommand(adminActivityCmd)
	adminCmd.AddCommand(adminHealthCmd)
	adminCmd.AddCommand(adminBusinessesCmd)
}

// requireAdmin checks the cached account role before the round trip.
// The backend enforces the role regardless; this only improves the
// error message.
func requireAdmin(sess *session.Session) error {
	if err := requireAuth(sess); err != nil {
		return err
	}
	if sess.Account() != nil && !sess.IsAdmin() {
		return fmt.Errorf("admin commands need an admin account")
	}
	return nil
}

func runAdminOverview(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAdmin(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	overview, err := client.GetAdminOverview(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Users")
	fmt.Printf("  total: %d   active 30d: %d   new 7d: %d\n",
		overview.Users.Total, overview.Users.ActiveLast30Days, overview.Users.NewLast7Days)
	for plan, n := range overview.Users.ByPlan {
		fmt.Printf("  %-10s %d\n", plan, n)
	}

	fmt.Println("\nScans")
	fmt.Printf("  total: %d\n", overview.Scans.Total)
	for _, c := range overview.Scans.TopCities {
		fmt.Printf("  %-20s %d\n", c.City, c.Count)
	}

	fmt.Println("\nBusinesses")
	fmt.Printf("  total: %d   low DPI: %d\n", overview.Businesses.Total, overview.Businesses.LowDPICount)
	for _, c := range overview.Businesses.TopCategories {
		fmt.Printf("  %-20s %d\n", c.Category, c.Count)
	}

	fmt.Println("\nSubscriptions")
	fmt.Printf("  active: %d   revenue this month: $%.2f   canceled: %d\n",
		overview.Subscriptions.TotalActive,
		overview.Subscriptions.RevenueThisMonth,
		overview.Subscriptions.CanceledThisMonth)
	return nil
}

func runAdminActivity(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAdmin(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	feed, err := client.GetActivityFeed(ctx)
	if err != nil {
		return err
	}
	if len(feed) == 0 {
		fmt.Println("No recent activity")
		return nil
	}

	fmt.Printf("%-22s %-18s %-28s %s\n", "WHEN", "CITY", "USER", "STATUS")
	fmt.Println(strings.Repeat("─", 84))
	for _, e := range feed {
		status := e.Status
		if e.Error != nil && *e.Error != "" {
			status += " (" + *e.Error + ")"
		}
		fmt.Printf("%-22s %-18s %-28s %s\n", e.Timestamp, clip(e.City, 16), clip(e.UserEmail, 26), status)
	}
	return nil
}

func runAdminBusinesses(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAdmin(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	stats, err := client.GetBusinessStats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Total businesses: %d\n", stats.Total)
	fmt.Printf("Low DPI (<30):    %d\n", stats.LowDPICount)
	if len(stats.TopCategories) > 0 {
		fmt.Println("\nTop categories:")
		for _, c := range stats.TopCategories {
			fmt.Printf("  %-20s %d\n", c.Category, c.Count)
		}
	}
	return nil
}

func runAdminHealth(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAdmin(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	health, err := client.GetSystemHealth(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Google API usage:  %.1f%%\n", health.GoogleAPIUsage)
	fmt.Printf("Gemini API usage:  %.1f%%\n", health.GeminiAPIUsage)
	fmt.Printf("Last enrichment:   %s\n", health.LastEnrichment)
	fmt.Printf("Errors (24h):      %d\n", health.ErrorCountLast24h)
	for _, w := range health.Warnings {
		fmt.Printf("  ! %s\n", w)
	}
	return nil
}
