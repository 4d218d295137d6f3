package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/jobboard/internal/models"
	"github.com/Lllllllleong/jobboard/internal/services"
)

func newJobsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "jobs", Short: "List and post jobs"}
	cmd.AddCommand(newJobsListCmd(opts))
	cmd.AddCommand(newJobsPostCmd(opts))
	return cmd
}

func newJobsListCmd(opts *rootOptions) *cobra.Command {
	var asc, asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all jobs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			order := services.Descending
			if asc {
				order = services.Ascending
			}
			future := opts.app.Jobs.ListAllOrderedAsync(ctx, order)
			return await(ctx, future, func(jobs []*models.Job) error {
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(jobs)
				}
				return printJobs(cmd.OutOrStdout(), jobs)
			})
		},
	}
	cmd.Flags().BoolVar(&asc, "asc", false, "Oldest first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func printJobs(w io.Writer, jobs []*models.Job) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPOSTED\tTITLE\tCATEGORY\tBUDGET\tPOSTED BY")
	for _, j := range jobs {
		posted := "-"
		if j.Timestamp > 0 {
			posted = j.PostedTime().Local().Format("2006-01-02 15:04")
		}
		budget := j.SalaryRange
		if budget == "" {
			budget = models.FormatBudgetRange(j.BudgetMin, j.BudgetMax)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", j.ID, posted, j.Title, j.CategoryDisplay, budget, j.CompanyName)
	}
	return tw.Flush()
}

func newJobsPostCmd(opts *rootOptions) *cobra.Command {
	var (
		draft     models.JobDraft
		skills    string
		budgetMin float64
		budgetMax float64
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a new job as the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := opts.app
			snap := a.Session.Snapshot()
			if !snap.IsAuthenticated() {
				return fmt.Errorf("you must be signed in to post a job (use --email)")
			}
			draft.PostedByUserID = snap.UserID
			draft.CompanyName = snap.DisplayName
			draft.Skills = models.ParseSkills(skills)
			if cmd.Flags().Changed("budget-min") {
				draft.BudgetMin = &budgetMin
			}
			if cmd.Flags().Changed("budget-max") {
				draft.BudgetMax = &budgetMax
			}

			job, err := models.NewJob(draft, time.Now())
			if err != nil {
				return err
			}
			return await(cmd.Context(), a.Jobs.AddAsync(cmd.Context(), job), func(id string) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Job posted. Job ID: %s\n", id)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&draft.Title, "title", "", "Job title (required)")
	f.StringVar(&draft.Description, "description", "", "Job description (required)")
	f.StringVar(&draft.CategoryDisplay, "category", "Other", "Category: "+strings.Join(categoryLabels(), ", "))
	f.StringVar(&draft.Location, "location", "", "Location")
	f.StringVar(&draft.ExperienceLevel, "experience", models.ExperienceLevels[0], "Experience level: "+strings.Join(models.ExperienceLevels, ", "))
	f.StringVar(&skills, "skills", "", "Comma separated skills")
	f.Float64Var(&budgetMin, "budget-min", 0, "Minimum budget")
	f.Float64Var(&budgetMax, "budget-max", 0, "Maximum budget")
	return cmd
}

func categoryLabels() []string {
	return slices.Sorted(maps.Keys(models.Categories))
}
