package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/gpsurvey-insight/internal/application/dashboard"
	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/database/memory"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/pkg/client"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// sourceOptions selects where survey records are read from.
type sourceOptions struct {
	Input    string
	Server   string
	APIKey   string
	PageSize int
}

func (o *sourceOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.Input, "input", "i", "", `JSON file of survey records ("-" reads stdin)`)
	f.StringVar(&o.Server, "server", "", "API server to fetch records from, e.g. http://localhost:8080")
	f.StringVar(&o.APIKey, "api-key", os.Getenv("GPSURVEY_API_KEY"), "bearer token for --server")
	f.IntVar(&o.PageSize, "page-size", client.DefaultPageSize, "records per request when fetching from --server")
	cmd.MarkFlagsMutuallyExclusive("input", "server")
}

// filterOptions is the district/block/GP/year selection of a view command.
type filterOptions struct {
	District string
	Block    string
	GP       string
	Year     string
}

func (o *filterOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.District, "district", survey.All, "district to select")
	f.StringVar(&o.Block, "block", survey.All, "block to select")
	f.StringVar(&o.GP, "gp", survey.All, "gram panchayat to select")
	f.StringVar(&o.Year, "year", survey.All, `financial year "YYYY-YYYY" to select`)
}

func (o *filterOptions) state() (survey.FilterState, error) {
	return dashboard.ParseFilter(o.District, o.Block, o.GP, o.Year)
}

// load reads every record from the configured source.
func (o *sourceOptions) load(ctx context.Context, cmd *cobra.Command, cliCtx *CLIContext) ([]survey.SurveyRecord, error) {
	switch {
	case o.Input != "":
		return o.loadFile(cmd)
	case o.Server != "":
		return o.fetch(ctx, cliCtx)
	default:
		return nil, errors.New(errors.ErrCodeValidation, "one of --input or --server is required")
	}
}

func (o *sourceOptions) loadFile(cmd *cobra.Command) ([]survey.SurveyRecord, error) {
	var (
		data []byte
		err  error
	)
	if o.Input == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(o.Input)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read input").WithDetail(o.Input)
	}
	return decodeRecords(data)
}

// decodeRecords accepts a bare JSON array of records or the {"records": [...]}
// page body returned by GET /api/v1/surveys.
func decodeRecords(data []byte) ([]survey.SurveyRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []survey.SurveyRecord{}, nil
	}

	var records []survey.SurveyRecord
	if data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode survey records")
		}
	} else {
		var page struct {
			Records []survey.SurveyRecord `json:"records"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode survey records")
		}
		records = page.Records
	}
	if records == nil {
		records = []survey.SurveyRecord{}
	}
	return records, nil
}

func (o *sourceOptions) newClient(cliCtx *CLIContext) (*client.Client, error) {
	opts := []client.Option{
		client.WithUserAgent("gpsurvey-cli/" + Version),
		client.WithLogger(sdkLogger{cliCtx.Logger.Named("client")}),
	}
	if o.APIKey != "" {
		opts = append(opts, client.WithAPIKey(o.APIKey))
	}
	if cliCtx.Timeout > 0 {
		opts = append(opts, client.WithTimeout(cliCtx.Timeout))
	}
	return client.NewClient(o.Server, opts...)
}

// fetch pulls the whole dataset, unfiltered: filter options and
// distributions need records outside the selection.
func (o *sourceOptions) fetch(ctx context.Context, cliCtx *CLIContext) ([]survey.SurveyRecord, error) {
	c, err := o.newClient(cliCtx)
	if err != nil {
		return nil, err
	}
	records, version, err := c.Surveys().Pager(o.PageSize).ListAll(ctx, survey.NewFilterState())
	if err != nil {
		return nil, err
	}
	cliCtx.Logger.Debug("fetched survey records",
		logging.String("server", o.Server),
		logging.Int("records", len(records)),
		logging.String("dataset_version", version))
	return records, nil
}

// newOfflineService runs the dashboard service over records held in memory.
func newOfflineService(cliCtx *CLIContext, records []survey.SurveyRecord) dashboard.Service {
	repo := memory.NewSurveyRepository(records...)
	return dashboard.NewService(repo, cliCtx.Logger, dashboard.Config{
		FiscalStartYear: cliCtx.Config.Engine.FiscalStartYear,
	})
}

// sdkLogger adapts the structured logger to the SDK's printf interface.
type sdkLogger struct {
	logger logging.Logger
}

func (l sdkLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l sdkLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l sdkLogger) Errorf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

//Personal.AI order the ending
