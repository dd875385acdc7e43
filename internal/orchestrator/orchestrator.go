// Package orchestrator wires record extraction, external-schema resolution,
// schema inference, and sink writers into one end-to-end run. It is
// single-threaded and synchronous throughout: schema inference makes one
// pass over the source, the write phase makes a second, independent pass —
// no goroutines, no channels, matching the pull-mode architecture the rest
// of the module follows.
//
// The wiring order is construct source → infer schema → open sink → ensure
// destination → stream batches → report, with a running "batch #N
// rps=... inserted=... total_inserted=..." progress log and an end-of-run
// summary.
package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"xmletl/internal/config"
	"xmletl/internal/datasource"
	"xmletl/internal/datasource/file"
	"xmletl/internal/datasource/httpsource"
	"xmletl/internal/ddl"
	"xmletl/internal/httpfetch"
	"xmletl/internal/metrics"
	"xmletl/internal/schemainfer"
	"xmletl/internal/schemasource"
	"xmletl/internal/sink"
	"xmletl/internal/sink/batch"
	"xmletl/internal/sink/columnar"
	"xmletl/internal/sink/relational"
	"xmletl/internal/sink/textfile"
	"xmletl/internal/sink/warehouse"
	"xmletl/internal/xlog"
	"xmletl/internal/xmlrecord"

	humanize "github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Report summarizes one completed run. RunID is a fresh identifier minted
// per call to Run, useful for correlating a run's log lines and pushed
// metrics when the same job runs repeatedly (e.g. on a schedule).
type Report struct {
	RunID          string
	Written        int64
	CoercionErrors int64
	Batches        int64
}

// Run executes one pipeline end-to-end: opens spec.Source, infers the
// destination schema per spec.Schema, opens the configured sink, and
// streams every record from a fresh pass over the source into it.
func Run(ctx context.Context, spec config.Pipeline) (Report, error) {
	runID := uuid.NewString()

	src, err := openSource(spec.Source)
	if err != nil {
		return Report{RunID: runID}, fmt.Errorf("orchestrator: open source: %w", err)
	}

	httpClient := httpfetch.NewClient(httpfetch.Config{})
	resolver := schemasource.NewResolver(httpClient, spec.Schema.Mode == "external" || spec.Schema.Mode == "hybrid")

	inferCfg := schemainfer.Config{
		Mode:         modeFromString(spec.Schema.Mode),
		SamplingSize: spec.Schema.SamplingSize,
		ForceArrays:  spec.Schema.ForceArrays,
		TypeHints:    spec.Schema.TypeHints,
	}

	xlog.Infof("orchestrator: job=%s run=%s inferring schema (mode=%s)", spec.Job, runID, inferCfg.Mode)
	inferStart := time.Now()
	schema, err := schemainfer.InferFromSource(ctx, src, resolver, inferCfg)
	metrics.RecordStep(spec.Job, "infer", err, time.Since(inferStart))
	if err != nil {
		return Report{RunID: runID}, fmt.Errorf("orchestrator: infer schema: %w", err)
	}
	xlog.Infof("orchestrator: job=%s resolved %d top-level fields", spec.Job, schema.Len())

	s, err := openSink(ctx, httpClient, spec.Sink)
	if err != nil {
		return Report{RunID: runID}, fmt.Errorf("orchestrator: open sink: %w", err)
	}

	mode := sink.Append
	if spec.Sink.Mode == "overwrite" {
		mode = sink.Overwrite
	}
	if err := s.EnsureDestination(ctx, schema, mode); err != nil {
		return Report{RunID: runID}, fmt.Errorf("orchestrator: ensure destination: %w", err)
	}
	defer s.Close(ctx)

	batchSize := spec.Runtime.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	buf := batch.NewBuffer(batchSize)

	ex, err := xmlrecord.Open(ctx, src, xmlrecord.Options{})
	if err != nil {
		return Report{RunID: runID}, fmt.Errorf("orchestrator: open extractor: %w", err)
	}
	defer ex.Close()

	report := Report{RunID: runID}
	flush := func(records []sink.Record) error {
		if len(records) == 0 {
			return nil
		}
		writeStart := time.Now()
		n, coerceErrs, err := s.WriteBatch(ctx, records)
		metrics.RecordStep(spec.Job, "write", err, time.Since(writeStart))
		if err != nil {
			return err
		}
		report.Written += n
		report.CoercionErrors += coerceErrs
		report.Batches++
		metrics.RecordRow(spec.Job, spec.Sink.Kind, "written", n)
		metrics.RecordBatches(spec.Job, spec.Sink.Kind, 1)
		for i := int64(0); i < coerceErrs; i++ {
			metrics.RecordCoercionError(spec.Job, "")
		}
		buf.ReportFlush(n)
		return nil
	}

	var extracted int64
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name, v, ok, err := ex.Next(ctx)
		if err != nil {
			return report, fmt.Errorf("orchestrator: extract record: %w", err)
		}
		if !ok {
			break
		}
		extracted++
		if b, full := buf.Add(sink.Record{Name: name, Value: v}); full {
			if err := flush(b); err != nil {
				return report, fmt.Errorf("orchestrator: write batch: %w", err)
			}
		}
	}
	if err := flush(buf.Drain()); err != nil {
		return report, fmt.Errorf("orchestrator: write final batch: %w", err)
	}
	metrics.RecordRow(spec.Job, spec.Sink.Kind, "extracted", extracted)

	xlog.Infof("orchestrator: job=%s run=%s complete: total_written=%s coercion_errors=%d batches=%d",
		spec.Job, runID, humanize.Comma(report.Written), report.CoercionErrors, report.Batches)
	return report, nil
}

func modeFromString(s string) schemainfer.ModeKind {
	switch s {
	case "external":
		return schemainfer.External
	case "manual":
		return schemainfer.Manual
	case "hybrid":
		return schemainfer.Hybrid
	default:
		return schemainfer.Auto
	}
}

func openSource(cfg config.Source) (datasource.Source, error) {
	switch cfg.Kind {
	case "http":
		hdr := http.Header{}
		for k, v := range cfg.HTTP.Headers {
			hdr.Set(k, v)
		}
		return httpsource.NewRemote(httpfetch.NewClient(httpfetch.Config{}), cfg.HTTP.URL, hdr), nil
	default: // "file"
		return file.NewLocal(cfg.File.Path), nil
	}
}

func openSink(ctx context.Context, httpClient *httpfetch.Client, cfg config.Sink) (sink.Sink, error) {
	shape := sink.Columnar
	if cfg.Shape == "flattened" {
		shape = sink.Flattened
	}

	switch cfg.Kind {
	case "textfile_doc":
		f, err := createFile(cfg.Options.String("path", ""))
		if err != nil {
			return nil, err
		}
		return textfile.NewDocWriter(f, cfg.Options.Bool("pretty", false)), nil

	case "textfile_ldjson":
		f, err := createFile(cfg.Options.String("path", ""))
		if err != nil {
			return nil, err
		}
		return textfile.NewLDJSONWriter(f), nil

	case "columnar":
		f, err := createFile(cfg.Options.String("path", ""))
		if err != nil {
			return nil, err
		}
		return columnar.NewWriter(f, shape), nil

	case "warehouse":
		whCfg := warehouse.Config{
			Endpoint: cfg.Options.String("endpoint", ""),
			Project:  cfg.Options.String("project", ""),
			Dataset:  cfg.Options.String("dataset", ""),
			Table:    cfg.Options.String("table", ""),
			Shape:    shape,
		}
		if hdrs := cfg.Options.StringMap("headers"); len(hdrs) > 0 {
			h := http.Header{}
			for k, v := range hdrs {
				h.Set(k, v)
			}
			whCfg.Headers = h
		}
		return warehouse.NewWriter(httpClient, whCfg), nil

	case "relational":
		dialect, err := dialectFromString(cfg.Options.String("dialect", ""))
		if err != nil {
			return nil, err
		}
		return relational.NewSink(ctx, relational.Config{
			DSN:     cfg.Options.String("dsn", ""),
			Table:   cfg.Options.String("table", ""),
			Dialect: dialect,
			Shape:   shape,
		})

	default:
		return nil, fmt.Errorf("orchestrator: unknown sink kind %q", cfg.Kind)
	}
}

func createFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("orchestrator: sink.options.path must not be empty")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: create %s: %w", path, err)
	}
	return f, nil
}

func dialectFromString(s string) (ddl.Dialect, error) {
	switch s {
	case "postgres":
		return ddl.Postgres, nil
	case "mysql":
		return ddl.MySQL, nil
	case "mssql":
		return ddl.MSSQL, nil
	case "sqlite":
		return ddl.SQLite, nil
	default:
		return 0, fmt.Errorf("orchestrator: unknown relational dialect %q", s)
	}
}
