package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/gpsurvey-insight/internal/application/dashboard"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// newExportCmd writes the dashboard workbook to a local file. It renders the
// same sheets as POST /api/v1/dashboard/export without object storage.
func newExportCmd() *cobra.Command {
	src := &sourceOptions{}
	filter := &filterOptions{}
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the metrics, distribution, completion and coverage views to an XLSX file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			f, err := filter.state()
			if err != nil {
				return err
			}

			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()

			records, err := src.load(ctx, cmd, cliCtx)
			if err != nil {
				return err
			}
			svc := newOfflineService(cliCtx, records)

			metrics, err := svc.Metrics(ctx, f)
			if err != nil {
				return err
			}
			dist, err := svc.Distribution(ctx, f)
			if err != nil {
				return err
			}
			completion, err := svc.Completion(ctx, f)
			if err != nil {
				return err
			}
			coverage, err := svc.Coverage(ctx, f)
			if err != nil {
				return err
			}

			data, err := dashboard.BuildWorkbook(metrics, dist, completion, coverage)
			if err != nil {
				return err
			}
			if err := os.WriteFile(file, data, 0o644); err != nil {
				return errors.Wrap(err, errors.ErrCodeExportFailed, "failed to write workbook").WithDetail(file)
			}
			cliCtx.Logger.Info("workbook written", logging.String("file", file), logging.Int("bytes", len(data)))
			return PrintResult(cmd, exportSummary{File: file, Size: int64(len(data)), Records: metrics.RecordCount})
		},
	}
	src.bind(cmd)
	filter.bind(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "gpsurvey-dashboard.xlsx", "workbook path to write")
	return cmd
}

type exportSummary struct {
	File    string `json:"file"`
	Size    int64  `json:"size"`
	Records int    `json:"records"`
}

//Personal.AI order the ending
