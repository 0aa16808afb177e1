package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/pkg/client"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// newImportCmd uploads a JSON file of records to a running API server in
// batches. Records the server rejects are reported, not fatal.
func newImportCmd() *cobra.Command {
	src := &sourceOptions{}
	var batchSize int

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upload survey records from a JSON file to an API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if src.Input == "" || src.Server == "" {
				return errors.New(errors.ErrCodeValidation, "import needs both --input and --server")
			}
			if batchSize <= 0 {
				return errors.Newf(errors.ErrCodeValidation, "batch size must be positive, got %d", batchSize)
			}

			records, err := src.loadFile(cmd)
			if err != nil {
				return err
			}
			c, err := src.newClient(cliCtx)
			if err != nil {
				return err
			}

			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()

			summary := importSummary{Rejected: []client.ImportRejection{}}
			for start := 0; start < len(records); start += batchSize {
				end := start + batchSize
				if end > len(records) {
					end = len(records)
				}
				res, err := c.Surveys().Import(ctx, records[start:end])
				if err != nil {
					return errors.Wrap(err, errors.CodeUnknown, "import failed").
						WithDetail("batch starting at record " + strconv.Itoa(start))
				}
				summary.Imported += res.Imported
				for _, r := range res.Rejected {
					r.Index += start
					summary.Rejected = append(summary.Rejected, r)
				}
				cliCtx.Logger.Debug("batch imported",
					logging.Int("offset", start),
					logging.Int("imported", res.Imported),
					logging.Int("rejected", len(res.Rejected)))
			}
			return PrintResult(cmd, summary)
		},
	}
	// Both --input and --server are required here.
	f := cmd.Flags()
	f.StringVarP(&src.Input, "input", "i", "", `JSON file of survey records ("-" reads stdin)`)
	f.StringVar(&src.Server, "server", "", "API server to upload to")
	f.StringVar(&src.APIKey, "api-key", os.Getenv("GPSURVEY_API_KEY"), "bearer token for --server")
	f.IntVar(&batchSize, "batch-size", 200, "records per import request")
	return cmd
}

type importSummary struct {
	Imported int                      `json:"imported"`
	Rejected []client.ImportRejection `json:"rejected"`
}

func (importSummary) TableHeaders() []string { return []string{"INDEX", "KEY", "REASON"} }

func (s importSummary) TableRows() [][]string {
	rows := make([][]string, 0, len(s.Rejected)+1)
	for _, r := range s.Rejected {
		rows = append(rows, []string{strconv.Itoa(r.Index), r.Key, r.Reason})
	}
	return append(rows, []string{"", "imported", strconv.Itoa(s.Imported)})
}

//Personal.AI order the ending
