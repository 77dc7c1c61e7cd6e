package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect ingest jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs in flight or retained after failure",
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

var volumesCmd = &cobra.Command{
	Use:   "volumes",
	Short: "Inspect catalog volumes",
}

var volumesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all volumes",
	Args:  cobra.NoArgs,
	RunE:  runVolumesList,
}

var volumesShowCmd = &cobra.Command{
	Use:   "show [pid]",
	Short: "Show a volume's metadata and pages",
	Args:  cobra.ExactArgs(1),
	RunE:  runVolumesShow,
}

func init() {
	jobsCmd.AddCommand(jobsListCmd)
	volumesCmd.AddCommand(volumesListCmd, volumesShowCmd)
	rootCmd.AddCommand(jobsCmd, volumesCmd)
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}
	jobs, err := catalogService.ListJobs(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing jobs: %w", err)
	}
	if len(jobs) == 0 {
		cmd.Println("No jobs.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSTATE\tBUNDLE\tUPDATED\tERROR")
	for i := range jobs {
		j := &jobs[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID, j.Kind, j.State, j.DisplayName(), j.UpdatedAt.Format("2006-01-02 15:04"), j.Error)
	}
	return tw.Flush()
}

func runVolumesList(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}
	vols, err := catalogService.ListVolumes(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing volumes: %w", err)
	}
	if len(vols) == 0 {
		cmd.Println("No volumes.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tLABEL")
	for i := range vols {
		fmt.Fprintf(tw, "%s\t%s\n", vols[i].PID, vols[i].Label)
	}
	return tw.Flush()
}

func runVolumesShow(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}
	ctx := cmd.Context()

	vol, err := catalogService.GetVolume(ctx, args[0])
	if err != nil {
		return fmt.Errorf("getting volume: %w", err)
	}
	pages, err := catalogService.ListPages(ctx, vol.PID)
	if err != nil {
		return fmt.Errorf("listing pages: %w", err)
	}

	cmd.Printf("PID:         %s\n", vol.PID)
	cmd.Printf("Label:       %s\n", vol.Label)
	if len(vol.Collections) > 0 {
		cmd.Printf("Collections: %v\n", vol.Collections)
	}
	for _, m := range vol.Metadata {
		cmd.Printf("  %s: %v\n", m.Label, m.Value)
	}
	cmd.Printf("Pages:       %d\n", len(pages))
	for i := range pages {
		p := &pages[i]
		cmd.Printf("  %4d  %s  %dx%d\n", p.Position, p.PID, p.Width, p.Height)
	}
	return nil
}
