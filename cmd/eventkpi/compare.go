package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"eventkpi/internal/config"
	apierrors "eventkpi/internal/errors"
	"eventkpi/internal/dataprocessing"
	"eventkpi/internal/exporter"
	"eventkpi/internal/infrastructure"
	"eventkpi/internal/kpi"
	"eventkpi/internal/middleware"
	"eventkpi/internal/validation"
	api "eventkpi/pkg/contracts/api/v1"
	"eventkpi/pkg/contracts/domain"
)

type compareOptions struct {
	root *rootOptions

	yearA       int
	yearB       int
	refA        string
	refB        string
	cutoff      string
	cutoffA     string
	cutoffB     string
	daysBefore  int
	job         string
	institution string
	axis        string
	export      string
	watch       bool
}

func newCompareCmd(root *rootOptions) *cobra.Command {
	opts := &compareOptions{root: root}

	cmd := &cobra.Command{
		Use:   "compare <fileA> <fileB>",
		Short: "Compare the KPIs of two registration exports",
		Example: "  eventkpi compare reg2023.csv reg2024.xlsx --year-a 2023 --year-b 2024\n" +
			"  eventkpi compare a.csv b.csv --year-a 2023 --year-b 2024 --days-before 30 --ref-a 2023-03-14 --ref-b 2024-03-12\n" +
			"  eventkpi compare a.csv b.csv --year-a 2023 --year-b 2024 --institution 'Higher Education' --export summary.xlsx",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return opts.run(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.yearA, "year-a", 0, "year label of the first file")
	f.IntVar(&opts.yearB, "year-b", 0, "year label of the second file")
	f.StringVar(&opts.refA, "ref-a", "", "event date of the first year (YYYY-MM-DD)")
	f.StringVar(&opts.refB, "ref-b", "", "event date of the second year (YYYY-MM-DD)")
	f.StringVar(&opts.cutoff, "cutoff", "", "shared absolute cutoff date (YYYY-MM-DD); defaults to the overlap end")
	f.StringVar(&opts.cutoffA, "cutoff-a", "", "absolute cutoff of the first file when the ranges do not overlap")
	f.StringVar(&opts.cutoffB, "cutoff-b", "", "absolute cutoff of the second file when the ranges do not overlap")
	f.IntVar(&opts.daysBefore, "days-before", 0, "cut off N days before each event date; needs --ref-a and --ref-b")
	f.StringVar(&opts.job, "job", "", "only count registrations with this job classification")
	f.StringVar(&opts.institution, "institution", "", "institution type filter: All, 'Higher Education' or K-12")
	f.StringVar(&opts.axis, "axis", "", "trend axis: calendar or days_before")
	f.StringVar(&opts.export, "export", "", "also write the summary to this .csv or .xlsx file")
	f.BoolVar(&opts.watch, "watch", false, "recompute whenever either file changes")

	_ = cmd.MarkFlagRequired("year-a")
	_ = cmd.MarkFlagRequired("year-b")
	cmd.MarkFlagsMutuallyExclusive("cutoff", "days-before")
	return cmd
}

// request builds and validates the comparison parameters from the flags
func (o *compareOptions) request(v middleware.StructValidator) (api.ComparisonRequest, error) {
	req := api.ComparisonRequest{
		CutoffDate:        o.cutoff,
		CutoffDateA:       o.cutoffA,
		CutoffDateB:       o.cutoffB,
		DaysBefore:        o.daysBefore,
		JobClassification: o.job,
		InstitutionType:   o.institution,
		Axis:              o.axis,
	}
	if o.daysBefore > 0 {
		req.CutoffMode = string(domain.CutoffDaysBefore)
	}

	for _, r := range []interface{}{
		req,
		api.DatasetUpdateRequest{Year: o.yearA, ReferenceDate: o.refA},
		api.DatasetUpdateRequest{Year: o.yearB, ReferenceDate: o.refB},
	} {
		if err := v.ValidateStruct(r); err != nil {
			return req, describeValidation(err)
		}
	}
	return req, nil
}

func (o *compareOptions) run(ctx context.Context, out, errOut io.Writer, fileA, fileB string) error {
	logger := infrastructure.NewLogger(o.root.logLevel, errOut)

	req, err := o.request(middleware.NewValidationMiddleware(logger, nil))
	if err != nil {
		return err
	}

	files := validation.NewFileValidator(logger, config.Default().Upload.MaxBytes)
	for _, f := range []string{fileA, fileB} {
		if err := files.ValidateRegistrationFile(f); err != nil {
			return err
		}
	}

	if o.export != "" {
		if _, err := exportFormat(o.export); err != nil {
			return err
		}
		if err := files.ValidateOutputDirectory(filepath.Dir(o.export)); err != nil {
			return err
		}
	}

	c := &comparer{
		opts:     o,
		req:      req,
		loader:   dataprocessing.NewLoader(logger, dataprocessing.DefaultLoaderConfig()),
		engine:   kpi.NewEngine(logger, kpi.DefaultClassifier()),
		exporter: exporter.NewFileExporter(nil, logger),
	}

	if err := c.runOnce(ctx, out, fileA, fileB); err != nil {
		if !o.watch {
			return err
		}
		fmt.Fprintf(errOut, "error: %v\n", err)
	}

	if !o.watch {
		return nil
	}
	return watchFiles(ctx, logger, []string{fileA, fileB}, func() {
		if err := c.runOnce(ctx, out, fileA, fileB); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
	})
}

type comparer struct {
	opts     *compareOptions
	req      api.ComparisonRequest
	loader   *dataprocessing.Loader
	engine   *kpi.Engine
	exporter *exporter.FileExporter
}

// runOnce loads both files, compares them and prints the summary table
func (c *comparer) runOnce(ctx context.Context, out io.Writer, fileA, fileB string) error {
	ctx = infrastructure.WithTraceID(ctx, infrastructure.GenerateTraceID())

	dsA, err := c.loader.LoadFile(ctx, fileA)
	if err != nil {
		return fmt.Errorf("loading %s: %w", fileA, err)
	}
	dsB, err := c.loader.LoadFile(ctx, fileB)
	if err != nil {
		return fmt.Errorf("loading %s: %w", fileB, err)
	}

	policy, filters, axis := c.req.ToPolicy()
	cc := domain.ComparisonContext{
		A:       domain.Side{Dataset: dsA, Label: c.opts.yearA, ReferenceDate: api.ParseDate(c.opts.refA)},
		B:       domain.Side{Dataset: dsB, Label: c.opts.yearB, ReferenceDate: api.ParseDate(c.opts.refB)},
		Cutoff:  policy,
		Filters: filters,
		Axis:    axis,
	}

	result, err := c.engine.Compare(ctx, cc)
	if err != nil {
		return err
	}

	exporter.RenderTable(out, result)

	if c.opts.export != "" {
		f, _ := exportFormat(c.opts.export)
		path, err := c.exporter.Save(c.opts.export, result, f)
		if err != nil {
			return fmt.Errorf("exporting summary: %w", err)
		}
		fmt.Fprintf(out, "Summary written to %s\n", path)
	}
	return nil
}

// exportFormat derives the export format from the file extension
func exportFormat(path string) (exporter.Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("export file %q needs a .csv or .xlsx extension", path)
	}
	return exporter.ParseFormat(ext)
}

// describeValidation flattens field errors into one line
func describeValidation(err error) error {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	details, ok := apiErr.Details.(apierrors.ValidationErrors)
	if !ok || len(details.Errors) == 0 {
		return apiErr
	}
	msgs := make([]string, 0, len(details.Errors))
	for _, fe := range details.Errors {
		msgs = append(msgs, fe.Message)
	}
	return fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
}
