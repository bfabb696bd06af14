// Command probe drives the resource layer against a live backend and prints
// what it got back. It only reads.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/robby/leadgen/internal/api"
	"github.com/robby/leadgen/internal/auth"
	"github.com/robby/leadgen/internal/domain"
	"github.com/robby/leadgen/internal/logging"
	"github.com/robby/leadgen/internal/resource"
	"github.com/robby/leadgen/internal/table"
)

var (
	baseURLFlag string
	limitFlag   int
	pagesFlag   int
	statusFlag  string
	verboseFlag bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "probe",
		Short: "Smoke-test a lead generation backend",
		RunE:  run,
	}
	rootCmd.Flags().StringVar(&baseURLFlag, "base-url", api.DefaultBaseURL, "Backend API root")
	rootCmd.Flags().IntVar(&limitFlag, "limit", 10, "Leads per page")
	rootCmd.Flags().IntVar(&pagesFlag, "pages", 2, "Pages to load")
	rootCmd.Flags().StringVar(&statusFlag, "status", "", "Only list leads with this status")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log requests to stderr")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	level := "warn"
	if verboseFlag {
		level = "debug"
	}
	logging.Setup(logging.Config{Level: level, Pretty: true, Output: os.Stderr})

	cfg := api.DefaultConfig()
	cfg.BaseURL = baseURLFlag
	cfg.Timeout = 10 * time.Second
	cfg.Tokens = auth.Default("")
	client, err := api.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	if err := probeAnalytics(ctx, client); err != nil {
		return err
	}
	return probeLeads(ctx, client)
}

// probeAnalytics fetches health and both stats endpoints concurrently.
func probeAnalytics(ctx context.Context, client *api.Client) error {
	var (
		health    resource.Result[domain.Health]
		leads     resource.Result[domain.LeadStats]
		campaigns resource.Result[domain.CampaignStats]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		health, err = client.Health(gctx)
		return err
	})
	g.Go(func() (err error) {
		leads, err = client.LeadStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		campaigns, err = client.CampaignStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("analytics: %w", err)
	}

	fmt.Printf("Backend: %s\n", client.BaseURL())
	if health.Success {
		fmt.Printf("Health: %s\n", health.Data.Status)
		for name, status := range health.Data.Components {
			fmt.Printf("  %s: %s\n", name, status)
		}
	} else {
		fmt.Printf("Health: %s\n", resource.ErrorMessage(health, nil))
	}

	if leads.Success {
		fmt.Printf("\nLeads: %d\n", leads.Data.TotalLeads)
		for _, c := range leads.Data.LeadsByStatus {
			fmt.Printf("  %-14s %d\n", c.Status, c.Count)
		}
	} else {
		fmt.Printf("\nLead stats: %s\n", resource.ErrorMessage(leads, nil))
	}

	if campaigns.Success {
		e, l := campaigns.Data.Email, campaigns.Data.LinkedIn
		fmt.Printf("\nEmail: %d campaigns, %d sent, open %.1f%%\n", e.Total, e.EmailsSent, e.OpenRate*100)
		fmt.Printf("LinkedIn: %d campaigns, %d connections, accepted %.1f%%\n", l.Total, l.ConnectionsSent, l.AcceptanceRate*100)
	} else {
		fmt.Printf("\nCampaign stats: %s\n", resource.ErrorMessage(campaigns, nil))
	}
	return nil
}

// probeLeads loads pages through an Accumulator, the way the leads screen does.
func probeLeads(ctx context.Context, client *api.Client) error {
	filters := map[string]string{}
	if statusFlag != "" {
		filters["status"] = statusFlag
	}
	acc := resource.NewAccumulator(client.ListLeads, resource.NewPageParams(limitFlag, filters))

	acc.Refresh(ctx)
	for i := 1; i < pagesFlag && acc.HasMore(); i++ {
		acc.LoadMore(ctx)
	}

	snap := acc.Snapshot()
	if snap.Status == resource.StatusError {
		return fmt.Errorf("list leads: %s", snap.Err)
	}

	fmt.Printf("\nLoaded %d leads", len(snap.Items))
	if snap.Pagination != nil {
		fmt.Printf(" (%s)", table.Window(*snap.Pagination))
	}
	fmt.Println()
	for _, l := range snap.Items {
		score := "-"
		if l.Score != nil {
			score = fmt.Sprintf("%d", *l.Score)
		}
		fmt.Printf("  #%-5d %-32s %-14s %4s\n", l.ID, l.CompanyName, l.EffectiveStatus(), score)
	}
	if snap.HasMore {
		fmt.Println("  ...")
	}
	return nil
}
