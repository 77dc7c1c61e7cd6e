package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

var (
	ingestCollections []string
	ingestImageServer int64
	ingestEmail       string
	ingestName        string
	ingestJSON        bool
	cloudBucket       string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [bundle.zip]",
	Short: "Ingest one zip bundle as a volume",
	Long: `Ingests a zip bundle containing page images, optional OCR sidecars and
an optional metadata spreadsheet. The volume pid comes from the metadata
when present; otherwise a new pid is generated.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var batchCmd = &cobra.Command{
	Use:   "batch [files...]",
	Short: "Ingest several bundles matched against one metadata file",
	Long: `Ingests each zip bundle as its own volume. A single metadata file
(CSV, TSV or xlsx with "metadata" in its name) supplies one row per bundle,
matched on the filename column with or without the .zip extension.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var cloudCmd = &cobra.Command{
	Use:   "cloud [spreadsheet]",
	Short: "Ingest volumes listed by pid from an object store bucket",
	Long: `Reads a spreadsheet with a "pid" column and, for each pid, copies the
matching images and OCR files from the source bucket into staging before
building pages and OCR.`,
	Args: cobra.ExactArgs(1),
	RunE: runCloud,
}

func init() {
	for _, cmd := range []*cobra.Command{ingestCmd, batchCmd, cloudCmd} {
		cmd.Flags().StringSliceVarP(&ingestCollections, "collection", "c", nil, "collection to add volumes to (repeatable)")
		cmd.Flags().Int64Var(&ingestImageServer, "image-server", 0, "image server ID for the volumes")
		cmd.Flags().StringVar(&ingestEmail, "email", "", "address to notify when the job finishes")
		cmd.Flags().StringVar(&ingestName, "name", "", "name of the person submitting the job")
		cmd.Flags().BoolVar(&ingestJSON, "json", false, "output results as JSON")
		rootCmd.AddCommand(cmd)
	}
	cloudCmd.Flags().StringVar(&cloudBucket, "bucket", "", "source bucket to copy from")
	cloudCmd.MarkFlagRequired("bucket") //nolint:errcheck
}

func newJob(kind domain.JobKind) *domain.IngestJob {
	return &domain.IngestJob{
		Kind:          kind,
		ImageServerID: ingestImageServer,
		Collections:   ingestCollections,
		Creator:       domain.Creator{Name: ingestName, Email: ingestEmail},
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	job := newJob(domain.JobSingle)
	job.BundlePath = path
	job.BundleName = filepath.Base(path)

	res := ingestService.IngestSingle(cmd.Context(), job)
	return printResults(cmd, []domain.Result{res})
}

func runBatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	files := make([]string, len(args))
	for i, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return err
		}
		files[i] = abs
	}

	job := newJob(domain.JobBatch)
	job.Files = files

	return printResults(cmd, ingestService.IngestBatch(cmd.Context(), job))
}

func runCloud(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	job := newJob(domain.JobCloud)
	job.MetadataPath = path
	job.BundleName = filepath.Base(path)
	job.SourceBucket = cloudBucket

	return printResults(cmd, ingestService.IngestCloud(cmd.Context(), job))
}

type resultOutput struct {
	Bundle   string   `json:"bundle"`
	OK       bool     `json:"ok"`
	PID      string   `json:"pid,omitempty"`
	Pages    int      `json:"pages"`
	Warnings []string `json:"warnings,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// printResults prints one line per result and fails if any result failed.
func printResults(cmd *cobra.Command, results []domain.Result) error {
	outputs := make([]resultOutput, len(results))
	failed := 0
	for i, r := range results {
		out := resultOutput{Bundle: r.Bundle, OK: r.IsOk(), Pages: r.Pages, Warnings: r.Warnings}
		if r.Volume != nil {
			out.PID = r.Volume.PID
		}
		if r.Err != nil {
			failed++
			out.Kind = string(r.Kind)
			out.Error = r.Err.Error()
		}
		outputs[i] = out
	}

	if ingestJSON {
		data, err := json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
	} else {
		for _, o := range outputs {
			if o.OK {
				cmd.Printf("ok      %s -> %s (%d pages)\n", displayBundle(o), o.PID, o.Pages)
				for _, w := range o.Warnings {
					cmd.Printf("        warning: %s\n", w)
				}
				continue
			}
			cmd.Printf("failed  %s: %s\n", displayBundle(o), o.Error)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d ingests failed", failed, len(results))
	}
	return nil
}

func displayBundle(o resultOutput) string {
	if o.Bundle != "" {
		return o.Bundle
	}
	return "bundle"
}
