package main

import (
	"context"
	"fmt"
	"os"

	"sponsorhub-backend/internal/app"

	"github.com/spf13/cobra"
)

// withApp builds the application for one command and closes it afterwards
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Store.Migrate(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("Schema applied")
				return nil
			})
		},
	}
}

func repairOrphansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair-orphans",
		Short: "Reset intents whose sponsorship no longer exists",
		Long: `Finds converted intents pointing at a deleted sponsorship, clears the
stale reference and moves them back to a reviewable status. Completed
payments are kept, so a repaired paid intent converts again without a
second charge.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				repaired, err := a.Maintenance.RepairOrphanedIntents(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Repaired %d intent(s)\n", len(repaired))
				for _, id := range repaired {
					fmt.Printf("  - intent %d\n", id)
				}
				return nil
			})
		},
	}
}

func mergeDuplicateSponsorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge-duplicate-sponsors",
		Short: "Merge sponsor profiles that share an email address",
		Long: `Groups sponsor profiles by case-insensitive email, keeps the most recently
created profile, repoints the others' sponsorships to it and recomputes its
stats. This never runs automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				removed, err := a.Maintenance.MergeDuplicateSponsors(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Removed %d duplicate sponsor profile(s)\n", removed)
				return nil
			})
		},
	}
}

func recomputeStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-stats",
		Short: "Rebuild every sponsor's stats from stored sponsorships",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				n, err := a.Maintenance.RecomputeAllStats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Recomputed stats for %d sponsor(s)\n", n)
				return nil
			})
		},
	}
}

func exportReportCmd() *cobra.Command {
	var (
		orgID   int32
		adminID int32
		out     string
	)
	cmd := &cobra.Command{
		Use:   "export-report",
		Short: "Write an organization's sponsorship report as an .xlsx workbook",
		Example: `  sponsorctl export-report --org 10 --admin 1
  sponsorctl export-report --org 10 --admin 1 -o riverside.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = fmt.Sprintf("org-%d-sponsorships.xlsx", orgID)
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				data, err := a.Maintenance.ExportOrganizationReport(cmd.Context(), adminID, orgID)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				fmt.Printf("Wrote %s (%d bytes)\n", out, len(data))
				return nil
			})
		},
	}
	cmd.Flags().Int32Var(&orgID, "org", 0, "Organization id")
	cmd.Flags().Int32Var(&adminID, "admin", 0, "Id of an admin of the organization")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default org-<id>-sponsorships.xlsx)")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		userID int32
		email  string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a one-hour access token for a user (local testing)",
		RunE: func(cmd *cobra.Command, args []string) error {
			tm := app.TokenManager(cfg)
			token, err := tm.GenerateAccessToken(userID, email, nil)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().Int32Var(&userID, "user", 0, "User id")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
