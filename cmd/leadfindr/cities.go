package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/leadfindr/internal/api"
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List your scanned cities",
	RunE:  runCities,
}

func runCities(cmd *cobra.Command, args []string) error {
	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	cities, err := client.GetMyCities(ctx)
	if err != nil {
		return err
	}
	// The backend may report the same city once per scan with
	// inconsistent state spellings; collapse those.
	cities = api.CombineDuplicateCities(cities)

	if len(cities) == 0 {
		fmt.Println("No scanned cities yet. Start with 'leadfindr scan start'.")
		return nil
	}

	fmt.Printf("%-20s %-16s %-10s %10s  %s\n", "CITY", "STATE", "COUNTRY", "BUSINESSES", "LAST SCANNED")
	fmt.Println(strings.Repeat("─", 78))
	for _, c := range cities {
		fmt.Printf("%-20s %-16s %-10s %10d  %s\n",
			clip(c.City, 18), clip(c.State, 14), c.Country, c.BusinessCount, c.LastScanned)
	}
	fmt.Printf("\nBrowse one with: leadfindr businesses list --city <city> --state <state> --country <country>\n")
	return nil
}
