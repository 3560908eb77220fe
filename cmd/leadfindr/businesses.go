package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/leadfindr/internal/export"
	"github.com/user/leadfindr/internal/fetch"
	"github.com/user/leadfindr/internal/filter"
	"github.com/user/leadfindr/internal/geocode"
	"github.com/user/leadfindr/internal/model"
	"github.com/user/leadfindr/internal/probe"
	"github.com/user/leadfindr/internal/score"
	"github.com/user/leadfindr/internal/storage"
	"github.com/user/leadfindr/internal/tui"
	"github.com/user/leadfindr/internal/util"
)

var businessesCmd = &cobra.Command{
	Use:   "businesses",
	Short: "Browse, filter and export scored businesses",
}

var businessesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List businesses for the selected scope",
	RunE:  runBusinessesList,
}

var businessesShowCmd = &cobra.Command{
	Use:   "show <place-id>",
	Short: "Show one business with its score breakdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runBusinessesShow,
}

var businessesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the filtered set to a file",
	RunE:  runBusinessesExport,
}

var businessesInsightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Aggregate stats over the filtered set",
	RunE:  runBusinessesInsights,
}

var businessesLocateCmd = &cobra.Command{
	Use:   "locate <place-id>",
	Short: "Reverse-geocode a business's coordinates",
	Long: `Resolve a business's stored coordinates into a human-readable place
name. Handy when the scan captured coordinates but no street address.`,
	Args: cobra.ExactArgs(1),
	RunE: runBusinessesLocate,
}

var businessesCheckCmd = &cobra.Command{
	Use:   "check [place-id]",
	Short: "Probe business websites live from this machine",
	Long: `Probe the websites of the filtered set (or one business) and compare
what answers right now against the stored has_website / is_secure flags.
Useful when scan data is a few weeks old.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBusinessesCheck,
}

func init() {
	for _, c := range []*cobra.Command{businessesListCmd, businessesExportCmd, businessesInsightsCmd, businessesCheckCmd} {
		addFilterFlags(c)
	}
	businessesListCmd.Flags().Int("page", 1, "page to show (all-businesses scope only)")
	businessesExportCmd.Flags().String("format", "csv", "csv, json or xlsx")
	businessesExportCmd.Flags().Bool("local", false, "render csv/json locally instead of asking the backend")
	businessesCheckCmd.Flags().Int("concurrency", 8, "parallel website checks")
	businessesCheckCmd.Flags().Duration("probe-timeout", 10*time.Second, "per-site timeout")

	businessesCmd.AddCommand(businessesListCmd)
	businessesCmd.AddCommand(businessesShowCmd)
	businessesCmd.AddCommand(businessesExportCmd)
	businessesCmd.AddCommand(businessesInsightsCmd)
	businessesCmd.AddCommand(businessesCheckCmd)
	businessesCmd.AddCommand(businessesLocateCmd)
}

func addFilterFlags(c *cobra.Command) {
	c.Flags().String("scan", "", "restrict to one scan id")
	c.Flags().String("city", "", "restrict to one scanned city (with --state and --country)")
	c.Flags().String("state", "", "state of the --city scope")
	c.Flags().String("country", "", "country of the --city scope")
	c.Flags().Int("min-dpi", -1, "minimum DPI score")
	c.Flags().Int("max-dpi", -1, "maximum DPI score")
	c.Flags().StringSlice("badge", nil, "restrict to DPI badges (repeatable)")
	c.Flags().String("category", "", "restrict to a business category")
	c.Flags().String("search", "", "name search")
	c.Flags().String("sort", "", "sort order (dpi_asc, dpi_desc, name)")
	c.Flags().String("has-website", "", "yes or no")
	c.Flags().String("is-secure", "", "yes or no")
}

// criteriaFromFlags builds filter criteria from the shared flag set.
func criteriaFromFlags(c *cobra.Command) (filter.Criteria, error) {
	var criteria filter.Criteria

	scanID, _ := c.Flags().GetString("scan")
	city, _ := c.Flags().GetString("city")
	state, _ := c.Flags().GetString("state")
	country, _ := c.Flags().GetString("country")

	if scanID != "" && city != "" {
		return criteria, fmt.Errorf("--scan and --city are mutually exclusive scopes")
	}
	if scanID != "" {
		criteria.SelectionType = filter.SelectionScan
		criteria.ScanID = scanID
	}
	if city != "" {
		if state == "" || country == "" {
			return criteria, fmt.Errorf("--city needs --state and --country")
		}
		criteria.SelectionType = filter.SelectionCity
		criteria.CitySelection = &filter.CitySelection{City: city, State: state, Country: country}
	}

	if v, _ := c.Flags().GetInt("min-dpi"); v >= 0 {
		criteria.MinDPI = &v
	}
	if v, _ := c.Flags().GetInt("max-dpi"); v >= 0 {
		criteria.MaxDPI = &v
	}
	criteria.Badges, _ = c.Flags().GetStringSlice("badge")
	criteria.Category, _ = c.Flags().GetString("category")
	criteria.Search, _ = c.Flags().GetString("search")
	criteria.SortBy, _ = c.Flags().GetString("sort")

	var err error
	if criteria.HasWebsite, err = triFlag(c, "has-website"); err != nil {
		return criteria, err
	}
	if criteria.IsSecure, err = triFlag(c, "is-secure"); err != nil {
		return criteria, err
	}

	return criteria, nil
}

func triFlag(c *cobra.Command, name string) (filter.Tri, error) {
	v, _ := c.Flags().GetString(name)
	switch strings.ToLower(v) {
	case "":
		return filter.TriUnset, nil
	case "yes", "true":
		return filter.TriTrue, nil
	case "no", "false":
		return filter.TriFalse, nil
	default:
		return filter.TriUnset, fmt.Errorf("--%s takes yes or no, got %q", name, v)
	}
}

func runBusinessesList(cmd *cobra.Command, args []string) error {
	criteria, err := criteriaFromFlags(cmd)
	if err != nil {
		return err
	}
	page, _ := cmd.Flags().GetInt("page")

	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	dispatcher := fetch.NewDispatcher(client)
	req := fetch.Request{
		Mode:     fetch.ModeFor(criteria),
		Criteria: criteria,
		Page:     page,
		PageSize: cfg.PageSize,
	}

	ctx, cancel := cmdContext()
	defer cancel()

	env, err := dispatcher.Fetch(ctx, req)
	if err != nil {
		// Offline: fall back to the cached copy of this scope.
		cache := storage.NewBusinessStorage(storage.GetDB())
		scope, key := scopeAndKey(criteria)
		cached, meta, cacheErr := cache.GetScope(scope, key)
		if cacheErr != nil || meta == nil {
			return err
		}
		fmt.Printf("(offline, cached %s)\n", meta.FetchedAt.Format("2006-01-02 15:04"))
		env = fetch.Envelope{Results: cached, Total: meta.Total}
	} else {
		mirrorBusinesses(criteria, env)
	}

	if len(env.Results) == 0 {
		fmt.Println("No businesses match.")
		return nil
	}

	fmt.Printf("%-30s %-16s %6s  %-18s %-7s %-7s\n", "NAME", "CITY", "DPI", "BADGE", "WEBSITE", "SECURE")
	fmt.Println(strings.Repeat("─", 92))
	for _, b := range env.Results {
		fmt.Printf("%-30s %-16s %6.1f  %-18s %-7s %-7s\n",
			clip(b.Name, 28), clip(b.City, 14), b.DPIScore,
			score.BadgeFor(b), triLabel(b.HasWebsite), triLabel(b.IsSecure))
	}

	if total, ok := env.KnownTotal(); ok {
		pages := (total + cfg.PageSize - 1) / cfg.PageSize
		if pages < 1 {
			pages = 1
		}
		fmt.Printf("\nPage %d/%d — %d businesses\n", page, pages, total)
	} else {
		fmt.Printf("\n%d businesses\n", len(env.Results))
	}
	return nil
}

func runBusinessesShow(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	b, err := client.GetBusinessByPlaceID(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", b.Name)
	fmt.Printf("%s, %s\n\n", b.Address, b.City)
	fmt.Printf("DPI: %.1f (%s)\n\n", b.DPIScore, score.BadgeFor(*b))

	printSubScore("Website", b.WebsiteScore)
	printSubScore("Social", b.SocialScore)
	printSubScore("Backlinks", b.BacklinkScore)
	printSubScore("Brand", b.BrandScore)

	if b.WebsiteURL != "" {
		fmt.Printf("\nWebsite: %s", b.WebsiteURL)
		if b.IsSecure != nil && !*b.IsSecure {
			fmt.Print("  (not https)")
		}
		fmt.Println()
	}
	if b.Phone != "" {
		fmt.Printf("Phone:   %s\n", b.Phone)
	}
	if b.Category != "" {
		fmt.Printf("Category: %s\n", b.Category)
	}
	printBreakdown("Website breakdown", b.WebsiteBreakdown)
	printBreakdown("Social breakdown", b.SocialBreakdown)
	return nil
}

func printSubScore(label string, value float64) {
	fmt.Printf("  %-10s %4.1f/%d  %s\n", label, value, model.DefaultSubScoreMax,
		tui.RenderBar(score.SubScorePercent(value), 100, 10))
}

func printBreakdown(title string, breakdown model.Breakdown) {
	if len(breakdown) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)

	keys := make([]string, 0, len(breakdown))
	for k := range breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		item := breakdown[k]
		fmt.Printf("  %-24s %4.1f/%.0f", item.Label, item.Score, item.MaxScore)
		if item.Tip != "" {
			fmt.Printf("  %s", item.Tip)
		}
		fmt.Println()
	}
}

func runBusinessesExport(cmd *cobra.Command, args []string) error {
	criteria, err := criteriaFromFlags(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	local, _ := cmd.Flags().GetBool("local")

	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	label := exportLabel(criteria)

	if local {
		// Fetch the full set and render on this machine.
		dispatcher := fetch.NewDispatcher(client)
		env, err := dispatcher.Fetch(ctx, fetch.Request{
			Mode: fetch.ModeFor(criteria), Criteria: criteria, Page: 1, PageSize: cfg.PageSize,
		})
		if err != nil {
			return err
		}
		path, err := export.Save(cfg.ExportDir, format, label, env.Results)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d businesses to %s\n", len(env.Results), path)
		return nil
	}

	data, err := client.ExportBusinesses(ctx, criteria, format)
	if err != nil {
		return err
	}
	path, err := export.SaveRaw(cfg.ExportDir, format, label, data)
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

func runBusinessesInsights(cmd *cobra.Command, args []string) error {
	criteria, err := criteriaFromFlags(cmd)
	if err != nil {
		return err
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

	insights, err := client.GetInsights(ctx, criteria)
	if err != nil {
		return err
	}

	fmt.Printf("Average DPI: %.1f\n", insights.AvgDPI)
	if insights.TopBadge != "" {
		fmt.Printf("Most common tier: %s\n", insights.TopBadge)
	}
	if insights.TopCity != "" {
		fmt.Printf("Strongest city: %s\n", insights.TopCity)
	}
	if len(insights.BadgeCounts) > 0 {
		fmt.Println("\nTier distribution:")
		for _, t := range score.Tiers() {
			if n, ok := insights.BadgeCounts[t.Name]; ok {
				fmt.Printf("  %-18s %d\n", t.Name, n)
			}
		}
	}
	return nil
}

func runBusinessesLocate(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	b, err := client.GetBusinessByPlaceID(ctx, args[0])
	if err != nil {
		return err
	}
	if !b.HasCoords() {
		return fmt.Errorf("%s has no coordinates on record", b.Name)
	}

	geo := geocode.New(geocode.Options{
		Endpoint: cfg.GeocodeEndpoint,
		TTL:      cfg.GeocodeCacheTTL,
		MaxItems: cfg.GeocodeCacheMax,
		RPS:      cfg.GeocodeRPS,
	})
	place, err := geo.Reverse(ctx, *b.Lat, *b.Lng)
	if err != nil {
		return err
	}
	util.Debug("geocode cache after lookup: %+v", geo.CacheStats())

	fmt.Printf("%s\n", b.Name)
	fmt.Printf("Coordinates: %.4f, %.4f\n", *b.Lat, *b.Lng)
	fmt.Printf("Resolved:    %s\n", place.Label)
	if b.Address != "" {
		fmt.Printf("On record:   %s\n", b.Address)
	}
	return nil
}

func runBusinessesCheck(cmd *cobra.Command, args []string) error {
	criteria, err := criteriaFromFlags(cmd)
	if err != nil {
		return err
	}
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	probeTimeout, _ := cmd.Flags().GetDuration("probe-timeout")

	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	var set []model.Business
	if len(args) == 1 {
		b, err := client.GetBusinessByPlaceID(ctx, args[0])
		if err != nil {
			return err
		}
		set = []model.Business{*b}
	} else {
		dispatcher := fetch.NewDispatcher(client)
		env, err := dispatcher.Fetch(ctx, fetch.Request{
			Mode: fetch.ModeFor(criteria), Criteria: criteria, Page: 1, PageSize: cfg.PageSize,
		})
		if err != nil {
			return err
		}
		set = env.Results
	}
	if len(set) == 0 {
		fmt.Println("No businesses match.")
		return nil
	}

	stored := make(map[string]model.Business, len(set))
	skipped := 0
	for _, b := range set {
		stored[b.PlaceID] = b
		if b.WebsiteURL == "" {
			skipped++
		}
	}

	// Probing runs on its own clock; the per-site timeout bounds it,
	// not the API request timeout.
	p := probe.NewWebsiteProbe(concurrency, probeTimeout)
	results := p.CheckAll(context.Background(), set)

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	fmt.Printf("%-30s %-12s %-7s %9s  %s\n", "NAME", "LIVE", "HTTPS", "LATENCY", "NOTES")
	fmt.Println(strings.Repeat("─", 84))
	for _, r := range results {
		// Pad before styling: ANSI escapes would defeat Printf widths.
		live := tui.RenderStatus(r.Reachable,
			fmt.Sprintf("%-10s", fmt.Sprintf("up (%d)", r.Status)),
			fmt.Sprintf("%-10s", "down"))
		https := "no"
		if r.Secure {
			https = "yes"
		}
		latency := "-"
		if r.Err == nil {
			latency = fmt.Sprintf("%.0f ms", r.LatencyMs)
		}
		fmt.Printf("%-30s %s %-7s %9s  %s\n",
			clip(r.Name, 28), live, https, latency, checkNote(stored[r.PlaceID], r))
	}
	if skipped > 0 {
		fmt.Printf("\n%d businesses have no website on record and were skipped\n", skipped)
	}
	return nil
}

// checkNote flags disagreements between the live probe and the flags
// recorded at scan time.
func checkNote(b model.Business, r probe.Result) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	var notes []string
	if b.HasWebsite != nil && *b.HasWebsite && !r.Reachable {
		notes = append(notes, "was up at scan time")
	}
	if b.IsSecure != nil && *b.IsSecure != r.Secure {
		if r.Secure {
			notes = append(notes, "https since scan")
		} else {
			notes = append(notes, "lost https since scan")
		}
	}
	return strings.Join(notes, "; ")
}

// mirrorBusinesses caches the fetched set for offline exports. Failures
// only log; the listing already succeeded.
func mirrorBusinesses(criteria filter.Criteria, env fetch.Envelope) {
	cache := storage.NewBusinessStorage(storage.GetDB())
	scope, key := scopeAndKey(criteria)
	if err := cache.ReplaceScope(scope, key, env.Results, env.Total); err != nil {
		util.Warn("failed to cache businesses: %v", err)
	}
}

func scopeAndKey(criteria filter.Criteria) (string, string) {
	switch criteria.SelectionType {
	case filter.SelectionScan:
		return "scan", criteria.ScanID
	case filter.SelectionCity:
		sel := criteria.CitySelection
		return "city", strings.ToLower(sel.City + "|" + sel.State + "|" + sel.Country)
	default:
		return "user", "all"
	}
}

func exportLabel(criteria filter.Criteria) string {
	scope, key := scopeAndKey(criteria)
	if scope == "user" {
		return "businesses"
	}
	return scope + "-" + strings.ReplaceAll(key, "|", "-")
}

func triLabel(v *bool) string {
	if v == nil {
		return "-"
	}
	if *v {
		return "yes"
	}
	return "no"
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
