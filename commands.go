package civit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// NewCommand creates the Cobra command tree for the downloader.
//
// Commands provided:
//   - civitdl download --ids <id>... [--all] [--override-id <id>]
//   - civitdl info <model-id>
//
// Global flags: --quiet, --verbose
func NewCommand(cfg Config, opts ...Option) *cobra.Command {
	var (
		quiet   bool
		verbose bool
	)

	// Client is created in PersistentPreRunE so flag errors surface first.
	var client *Client

	cmd := &cobra.Command{
		Use:   "civitdl",
		Short: "Download model artifacts from the Civitai catalog",
		Long:  "Fetch model metadata from the catalog and download the preferred file variant of each version into a stable-diffusion directory tree.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			var err error
			client, err = New(cfg, opts...)
			if err != nil {
				return fmt.Errorf("failed to initialize client: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	cmd.AddCommand(downloadCmd(&client, &quiet, &verbose))
	cmd.AddCommand(infoCmd(&client))

	return cmd
}

func downloadCmd(client **Client, quiet, verbose *bool) *cobra.Command {
	var (
		ids        []string
		all        bool
		overrideID string
	)

	cmd := &cobra.Command{
		Use:   "download --ids <model-id>...",
		Short: "Download model files",
		Long:  "Download the preferred file of each requested model. With --all, every version of each model is downloaded. With --override-id, exactly one version of the first requested model is downloaded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(ids) == 0 {
				return fmt.Errorf("no model ids provided")
			}

			var opts []DownloadOption
			var render *progressRenderer
			if !*quiet {
				render = newProgressRenderer(cmd.OutOrStdout())
				tracker := NewTracker()
				tracker.OnUpdate(render.update)
				opts = append(opts, WithTracker(tracker))
			}

			var results []TransferResult
			if overrideID != "" {
				results = []TransferResult{(*client).DownloadVersion(ctx, ids[0], overrideID, opts...)}
			} else {
				results = (*client).DownloadModels(ctx, ids, all, opts...)
			}

			if render != nil {
				render.finish()
			}

			return reportResults(cmd.OutOrStdout(), results, *quiet, *verbose)
		},
	}

	cmd.Flags().StringSliceVarP(&ids, "ids", "i", nil, "IDs of the models to download")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Download all available versions of the specified models")
	cmd.Flags().StringVarP(&overrideID, "override-id", "o", "", "ID of the single model version to download")
	return cmd
}

func infoCmd(client **Client) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info <model-id>",
		Short: "Show catalog metadata for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := (*client).GetModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(model)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintf(w, "MODEL\t%d\n", model.ID)
			fmt.Fprintf(w, "NAME\t%s\n", model.Name)
			fmt.Fprintf(w, "CATEGORY\t%s\n", model.Category())
			fmt.Fprintf(w, "VERSIONS\t%d\n", len(model.ModelVersions))
			fmt.Fprintln(w)
			fmt.Fprintln(w, "VERSION ID\tNAME\tFILES")
			for _, v := range model.ModelVersions {
				fmt.Fprintf(w, "%d\t%s\t%d\n", v.ID, v.Name, len(v.Files))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

// reportResults prints one line per unit of work and returns an error
// when any unit failed, so the process exits non-zero.
func reportResults(w io.Writer, results []TransferResult, quiet, verbose bool) error {
	var errs []error
	for _, r := range results {
		switch {
		case r.Err != nil:
			errs = append(errs, r.Err)
			fmt.Fprintf(w, "failed: model %s version %s: %v\n", r.ModelID, r.VersionID, r.Err)
		case r.Outcome.Status == TransferSkipped:
			if !quiet {
				fmt.Fprintf(w, "exists: %s\n", r.Outcome.Path)
			}
		default:
			if !quiet {
				fmt.Fprintf(w, "done: %s (%d bytes)\n", r.Outcome.Path, r.Outcome.BytesWritten)
			}
			if verbose {
				fmt.Fprintf(w, "  model %s version %s file %s\n", r.ModelID, r.VersionID, r.Filename)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d transfers failed: %w", len(errs), len(results), errors.Join(errs...))
	}
	return nil
}

// progressRenderer draws one mpb bar per transfer label. The engine only
// emits ProgressUpdate events; all terminal concerns live here.
type progressRenderer struct {
	mu       sync.Mutex
	progress *mpb.Progress
	bars     map[string]*mpb.Bar
}

func newProgressRenderer(w io.Writer) *progressRenderer {
	return &progressRenderer{
		progress: mpb.New(mpb.WithOutput(w), mpb.WithWidth(48)),
		bars:     make(map[string]*mpb.Bar),
	}
}

func (r *progressRenderer) update(u ProgressUpdate) {
	r.mu.Lock()
	bar, ok := r.bars[u.Label]
	if !ok {
		bar = r.progress.AddBar(u.Total,
			mpb.PrependDecorators(
				decor.Name(u.Label, decor.WC{C: decor.DindentRight | decor.DextraSpace}),
				decor.CountersKibiByte("% .2f / % .2f"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
		r.bars[u.Label] = bar
	}
	r.mu.Unlock()

	bar.SetTotal(u.Total, false)
	bar.SetCurrent(u.Downloaded)
}

// finish completes or drops every bar so the render goroutine can exit.
func (r *progressRenderer) finish() {
	r.mu.Lock()
	for _, bar := range r.bars {
		if !bar.Completed() {
			bar.Abort(false)
		}
	}
	r.mu.Unlock()
	r.progress.Wait()
}
