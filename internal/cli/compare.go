package cli

import (
	"context"
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/koustreak/schemadiff/internal/compare"
	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/filestore/minio"
	"github.com/koustreak/schemadiff/internal/report"
)

type compareFlags struct {
	one, two       string
	oneAlias       string
	twoAlias       string
	ignores        []string
	skipInspectors []string
	resultFile     string
	errorsFile     string
	format         string
	bucket, prefix string
	quiet          bool
}

func newCompareCommand(a *app) *cobra.Command {
	f := &compareFlags{}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two database schemas",
		Long: `Compare inspects both databases and prints the differences.

Databases are given as URIs: postgres://, mysql:// or sqlite://.
Ignore clauses take the form <table>, <table>.<inspector>.<name> or enums.<name>.
The command exits with status 1 when the schemas differ.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCompare(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.one, "one", "", "URI of the first database")
	fl.StringVar(&f.two, "two", "", "URI of the second database")
	fl.StringVar(&f.oneAlias, "one-alias", "", "label of the first database in reports")
	fl.StringVar(&f.twoAlias, "two-alias", "", "label of the second database in reports")
	fl.StringSliceVar(&f.ignores, "ignore", nil, "ignore clause (repeatable)")
	fl.StringSliceVar(&f.skipInspectors, "skip-inspector", nil, "inspector to skip (repeatable)")
	fl.StringVar(&f.resultFile, "result-file", "", "write the full result to this file")
	fl.StringVar(&f.errorsFile, "errors-file", "", "write the differences to this file")
	fl.StringVar(&f.format, "format", "", "report format (json, yaml)")
	fl.StringVar(&f.bucket, "bucket", "", "also upload reports to this object storage bucket")
	fl.StringVar(&f.prefix, "prefix", "", "object key prefix for uploaded reports")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "do not print differences to stdout")
	return cmd
}

func (a *app) runCompare(cmd *cobra.Command, f *compareFlags) error {
	cfg := a.cfg
	override(&cfg.One, f.one)
	override(&cfg.Two, f.two)

	opts := cfg.Compare.Options()
	if f.oneAlias != "" {
		opts.OneAlias = f.oneAlias
	}
	if f.twoAlias != "" {
		opts.TwoAlias = f.twoAlias
	}
	if cmd.Flags().Changed("ignore") {
		opts.Ignores = f.ignores
	}
	if cmd.Flags().Changed("skip-inspector") {
		opts.IgnoreInspectors = f.skipInspectors
	}

	formatName := cfg.Compare.Format
	if f.format != "" {
		formatName = f.format
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.Compare.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Compare.Timeout)
		defer cancel()
	}

	cmp, err := compare.Open(ctx, &cfg.One, &cfg.Two, compare.WithLogger(a.log))
	if err != nil {
		return err
	}
	defer cmp.Close()

	res, err := cmp.Compare(ctx, opts)
	if err != nil {
		return err
	}

	if err := writeFile(res, compare.ViewResult, format, f.resultFile); err != nil {
		return err
	}
	if err := writeFile(res, compare.ViewErrors, format, f.errorsFile); err != nil {
		return err
	}
	if err := a.upload(ctx, res, format, f); err != nil {
		return err
	}

	if !f.quiet && !res.IsMatch() {
		data, err := res.Encode(compare.ViewErrors, format)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}

	a.log.With().Str("run_id", res.RunID).Logger().
		Infof("compared %s with %s: match=%t", res.Aliases.One, res.Aliases.Two, res.IsMatch())
	if !res.IsMatch() {
		return ErrMismatch
	}
	return nil
}

// override replaces the configured location with uri when one is given.
func override(cfg *database.Config, uri string) {
	if uri == "" {
		return
	}
	cfg.URI = uri
	cfg.DSN = ""
	cfg.Driver = ""
}

func writeFile(res *compare.Result, v compare.View, f report.Format, p string) error {
	if p == "" {
		return nil
	}
	data, err := res.Encode(v, f)
	if err != nil {
		return err
	}
	return report.WriteFile(p, data)
}

func (a *app) upload(ctx context.Context, res *compare.Result, format report.Format, f *compareFlags) error {
	storage := a.cfg.Storage
	if f.bucket != "" {
		storage.Bucket = f.bucket
	}
	if f.prefix != "" {
		storage.Prefix = f.prefix
	}
	if storage.Bucket == "" {
		return nil
	}

	store, err := minio.New(ctx, &storage)
	if err != nil {
		return err
	}
	defer store.Close()

	dst := report.ObjectDestination{
		Store:    store,
		Bucket:   storage.Bucket,
		Prefix:   path.Join(storage.Prefix, res.RunID),
		Metadata: map[string]string{"run-id": res.RunID},
	}
	for _, v := range []compare.View{compare.ViewResult, compare.ViewErrors} {
		loc, err := res.Publish(ctx, dst, v, format)
		if err != nil {
			return err
		}
		a.log.Infof("uploaded %s report to %s", v, loc)
	}
	return nil
}
