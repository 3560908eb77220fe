package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/leadfindr/internal/api"
	"github.com/user/leadfindr/internal/filter"
	"github.com/user/leadfindr/internal/model"
	"github.com/user/leadfindr/internal/progress"
	"github.com/user/leadfindr/internal/report"
	"github.com/user/leadfindr/internal/storage"
	"github.com/user/leadfindr/internal/tui"
	"github.com/user/leadfindr/internal/util"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run and inspect visibility scans",
}

var scanStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a scan for a city, state or country",
	RunE:  runScanStart,
}

var scanListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show your scan history",
	RunE:  runScanList,
}

var scanShowCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Show one scan's details",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanShow,
}

var scanWatchCmd = &cobra.Command{
	Use:   "watch <scan-id>",
	Short: "Watch a running scan's progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanWatch,
}

var scanReportCmd = &cobra.Command{
	Use:   "report <scan-id>",
	Short: "Write a markdown report for a completed scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanReport,
}

func init() {
	scanStartCmd.Flags().String("city", "", "city to scan")
	scanStartCmd.Flags().String("state", "", "state or region")
	scanStartCmd.Flags().String("country", "", "country")
	scanStartCmd.Flags().StringSlice("keywords", nil, "business keywords (e.g. plumber,roofing)")
	scanStartCmd.Flags().String("region-type", "city", "scan scope: city, state or country")
	scanStartCmd.Flags().Int("places-limit", 0, "cap on fetched places (0 = plan default)")
	scanStartCmd.Flags().String("cache-scope", "", "accept cached results up to: 1d, 7d or 30d")
	scanStartCmd.Flags().Bool("watch", true, "watch progress until the scan completes")
	scanListCmd.Flags().Bool("recent", false, "show recent scans across all users instead of your history")
	scanListCmd.Flags().String("recent-city", "", "narrow --recent to one city")
	scanListCmd.Flags().Int("limit", 0, "cap the number of rows")

	scanCmd.AddCommand(scanStartCmd)
	scanCmd.AddCommand(scanListCmd)
	scanCmd.AddCommand(scanShowCmd)
	scanCmd.AddCommand(scanWatchCmd)
	scanCmd.AddCommand(scanReportCmd)
}

func runScanStart(cmd *cobra.Command, args []string) error {
	city, _ := cmd.Flags().GetString("city")
	state, _ := cmd.Flags().GetString("state")
	country, _ := cmd.Flags().GetString("country")
	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	regionType, _ := cmd.Flags().GetString("region-type")
	placesLimit, _ := cmd.Flags().GetInt("places-limit")
	cacheScope, _ := cmd.Flags().GetString("cache-scope")
	watch, _ := cmd.Flags().GetBool("watch")

	switch regionType {
	case "city":
		if city == "" || country == "" {
			return fmt.Errorf("a city scan needs --city and --country")
		}
	case "state":
		if state == "" || country == "" {
			return fmt.Errorf("a state scan needs --state and --country")
		}
	case "country":
		if country == "" {
			return fmt.Errorf("a country scan needs --country")
		}
	default:
		return fmt.Errorf("unknown region type %q; use city, state or country", regionType)
	}
	if len(keywords) == 0 {
		return fmt.Errorf("at least one --keywords entry is required")
	}

	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	payload := model.ScanPayload{
		Mode:        "choice",
		RegionType:  regionType,
		City:        city,
		State:       state,
		Country:     country,
		Keywords:    keywords,
		PlacesLimit: placesLimit,
		CacheScope:  cacheScope,
	}

	ctx, cancel := cmdContext()
	defer cancel()

	started, err := client.StartScan(ctx, payload)
	if err != nil {
		return err
	}
	fmt.Printf("Scan %s started\n", started.ScanID)

	if !watch {
		fmt.Printf("Watch it later with: leadfindr scan watch %s\n", started.ScanID)
		return nil
	}
	return watchScan(client, started.ScanID, started.Step)
}

func runScanWatch(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}
	return watchScan(client, args[0], 1)
}

// watchScan runs the live progress view, then refreshes the local scan
// history mirror so list works offline right away.
func watchScan(client *api.Client, scanID string, initialStep int) error {
	poller := progress.NewPoller(client, cfg.PollBase)
	view := tui.NewScanView(poller, scanID, initialStep)
	if err := view.Run(); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()
	syncScanHistory(ctx)

	if entry, err := client.GetScanByID(ctx, scanID); err == nil {
		fmt.Printf("Scan %s: %s, %d businesses\n", scanID, entry.Status, entry.BusinessCount)
		fmt.Printf("Browse them with: leadfindr businesses list --scan %s\n", scanID)
	}
	return nil
}

func runScanList(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	recent, _ := cmd.Flags().GetBool("recent")
	recentCity, _ := cmd.Flags().GetString("recent-city")
	limit, _ := cmd.Flags().GetInt("limit")

	ctx, cancel := cmdContext()
	defer cancel()

	var scans []model.ScanHistoryEntry
	if recent {
		scans, err = client.GetRecentScans(ctx, recentCity, limit)
		if err != nil {
			return err
		}
	} else {
		scans, err = client.GetMyScans(ctx)
		if err != nil {
			// Offline: fall back to the local mirror.
			history := storage.NewScanHistoryStorage(storage.GetDB())
			cached, cacheErr := history.List(limit)
			if cacheErr != nil || len(cached) == 0 {
				return err
			}
			fmt.Println("(offline, showing cached history)")
			scans = cached
		} else {
			mirrorScans(scans)
			if limit > 0 && len(scans) > limit {
				scans = scans[:limit]
			}
		}
	}

	if len(scans) == 0 {
		fmt.Println("No scans yet. Start one with 'leadfindr scan start'.")
		return nil
	}

	fmt.Printf("%-26s %-20s %-9s %10s %8s\n", "SCAN", "REGION", "STATUS", "BUSINESSES", "AVG DPI")
	fmt.Println(strings.Repeat("─", 78))
	for _, s := range scans {
		avg := "-"
		if s.DPIAvg != nil {
			avg = fmt.Sprintf("%.1f", *s.DPIAvg)
		}
		fmt.Printf("%-26s %-20s %-9s %10d %8s\n",
			s.ScanID, regionLabel(s), s.Status, s.BusinessCount, avg)
	}
	return nil
}

func runScanShow(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	entry, err := client.GetScanByID(ctx, args[0])
	if err != nil {
		// Offline: fall back to the local mirror.
		history := storage.NewScanHistoryStorage(storage.GetDB())
		cached, cacheErr := history.Get(args[0])
		if cacheErr != nil || cached == nil {
			return err
		}
		fmt.Println("(offline, showing cached entry)")
		entry = *cached
	}

	fmt.Printf("Scan:       %s\n", entry.ScanID)
	fmt.Printf("Region:     %s\n", regionLabel(entry))
	fmt.Printf("Keywords:   %s\n", strings.Join(entry.Keywords, ", "))
	fmt.Printf("Status:     %s\n", entry.Status)
	fmt.Printf("Businesses: %d\n", entry.BusinessCount)
	if entry.DPIAvg != nil {
		fmt.Printf("Avg DPI:    %.1f\n", *entry.DPIAvg)
	}
	fmt.Printf("Duration:   %.1fs\n", entry.DurationSeconds)
	fmt.Printf("When:       %s\n", entry.Timestamp)
	if entry.ErrorMessage != "" {
		fmt.Printf("Error:      %s\n", entry.ErrorMessage)
	}
	return nil
}

func runScanReport(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	entry, err := client.GetScanByID(ctx, args[0])
	if err != nil {
		return err
	}
	businesses, err := client.GetBusinessesByScan(ctx, args[0], filter.Criteria{})
	if err != nil {
		return err
	}

	path, err := report.Save(cfg.ExportDir, report.Build(entry, businesses))
	if err != nil {
		return err
	}
	fmt.Printf("Report for scan %s (%d businesses) written to %s\n",
		entry.ScanID, len(businesses), path)
	return nil
}

func regionLabel(s model.ScanHistoryEntry) string {
	switch s.RegionType {
	case "state":
		return s.State + ", " + s.Country
	case "country":
		return s.Country
	default:
		return s.City + ", " + s.Country
	}
}

// mirrorScans updates the offline history copy, logging rather than
// failing: the mirror is a convenience, not a dependency.
func mirrorScans(scans []model.ScanHistoryEntry) {
	history := storage.NewScanHistoryStorage(storage.GetDB())
	if err := history.SaveAll(scans); err != nil {
		util.Warn("failed to mirror scan history: %v", err)
	}
}

func syncScanHistory(ctx context.Context) {
	client, sess, err := buildClient()
	if err != nil || !sess.Authenticated() {
		return
	}
	if scans, err := client.GetMyScans(ctx); err == nil {
		mirrorScans(scans)
	}
}
