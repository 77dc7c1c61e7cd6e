package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/bookingest/internal/adapters/driving/inbox"
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest zip bundles dropped into a directory",
	Long: `Watches a directory and ingests every zip bundle written to it once the
file has stopped changing. Bundles already present are ingested at start.
Finished bundles are moved to done/ or failed/ inside the directory.

Without an argument the configured inbox directory is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&ingestCollections, "collection", "c", nil, "collection to add volumes to (repeatable)")
	watchCmd.Flags().Int64Var(&ingestImageServer, "image-server", 0, "image server ID for the volumes")
	watchCmd.Flags().StringVar(&ingestEmail, "email", "", "address to notify when each job finishes")
	watchCmd.Flags().Duration("settle", inbox.DefaultSettle, "quiet period before a bundle is submitted")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if jobQueue == nil {
		return errors.New("job queue not configured")
	}
	dir := ""
	if services != nil {
		dir = services.InboxDir
	}
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return errors.New("no inbox directory given or configured")
	}
	settle, err := cmd.Flags().GetDuration("settle")
	if err != nil {
		return err
	}

	w := inbox.New(dir, jobQueue,
		inbox.WithSettle(settle),
		inbox.WithJobTemplate(domain.IngestJob{
			ImageServerID: ingestImageServer,
			Collections:   ingestCollections,
			Creator:       domain.Creator{Email: ingestEmail},
		}),
	)
	jobQueue.OnResult(func(job *domain.IngestJob, results []domain.Result) {
		if err := w.Finish(job, results); err != nil {
			logger.Warn("Inbox: %v", err)
		}
	})

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	return runWithQueue(cmd.Context(), w.Run)
}

// runWithQueue runs fn alongside the job queue and stops both when either ends.
func runWithQueue(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := jobQueue.Start(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer cancel()
		return fn(gctx)
	})
	return g.Wait()
}
