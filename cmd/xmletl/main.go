// Command xmletl is the project's CLI: it inspects XML inputs, generates
// starter pipeline configs, and runs the extract/infer/sink pipeline end to
// end.
//
// Example usage:
//
//	# Discover all relative paths under the record tag and print a report.
//	xmletl -i sample.xml -record_tag PubmedArticle -discover > report.json
//
//	# Guess the record tag from the file, then generate a starter config.
//	xmletl -i sample.xml -generate-config > config.json
//
//	# Run a pipeline described by a config file.
//	xmletl -config configs/pipelines/sample.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"xmletl/internal/config"
	"xmletl/internal/inspect"
	"xmletl/internal/metrics"
	"xmletl/internal/metrics/datadog"
	"xmletl/internal/metrics/prompush"
	"xmletl/internal/orchestrator"
)

func main() {
	var (
		inputPath  = flag.String("i", "", "input XML file path (discovery/config-generation modes)")
		configPath = flag.String("config", "", "pipeline config JSON path (run mode)")
		recordTag  = flag.String("record_tag", "", "override record tag; if empty, guessed from -i or read from -config")

		discover    = flag.Bool("discover", false, "scan the XML input and print a path/attribute inventory under the record tag")
		generateCfg = flag.Bool("generate-config", false, "print a starter pipeline config inferred from discovery")
		pretty      = flag.Bool("pretty", false, "pretty-print JSON output")

		metricsBackendFlg = flag.String("metrics-backend", "", "metrics backend to use (pushgateway, datadog, none)")
		pushGatewayURLFlg = flag.String("pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
		datadogAddrFlg    = flag.String("datadog-addr", "", "DogStatsD address, e.g. 127.0.0.1:8125 (overrides env DD_DOGSTATSD_ADDR)")
		validateOnly      = flag.Bool("validate", false, "validate -config and exit without running the pipeline")
		verbose           = flag.Bool("v", false, "enable verbose logs")
	)
	flag.Parse()

	if *discover || *generateCfg {
		runDiscovery(*inputPath, *recordTag, *configPath, *pretty, *generateCfg)
		return
	}

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "No action specified. Use -discover, -generate-config, or -config to run a pipeline.")
		flag.Usage()
		os.Exit(2)
	}

	spec, err := readPipelineConfig(*configPath)
	if err != nil {
		log.Fatalf("read config: %v", err)
	}
	if *inputPath != "" && spec.Source.Kind != "http" {
		spec.Source.Kind = "file"
		spec.Source.File.Path = *inputPath
	}
	if *recordTag != "" {
		if spec.Parser.Options == nil {
			spec.Parser.Options = config.Options{}
		}
		spec.Parser.Options["record_tag"] = *recordTag
	}

	issues := config.ValidatePipeline(spec)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("configuration is invalid: %v", *configPath)
		os.Exit(1)
	}
	if *validateOnly {
		log.Printf("configuration is valid: %v", *configPath)
		return
	}

	setupMetrics(spec.Job, *metricsBackendFlg, *pushGatewayURLFlg, *datadogAddrFlg, *verbose)

	if *verbose {
		log.Printf("pipeline: job=%s source=%s parser=%s sink=%s",
			spec.Job, spec.Source.Kind, spec.Parser.Kind, spec.Sink.Kind)
	}

	start := time.Now()
	report, err := orchestrator.Run(context.Background(), spec)
	if err != nil {
		log.Fatalf("run: %v", err)
	}
	if err := metrics.Flush(); err != nil {
		log.Printf("metrics: flush error: %v", err)
	}

	log.Printf("done: run=%s written=%d coercion_errors=%d batches=%d elapsed=%s",
		report.RunID, report.Written, report.CoercionErrors, report.Batches,
		time.Since(start).Truncate(time.Millisecond))
}

// setupMetrics wires a metrics backend by flag, falling back to the
// METRICS_BACKEND/PUSHGATEWAY_URL/DD_DOGSTATSD_ADDR environment variables.
// An empty/unknown backend leaves the no-op backend in place.
func setupMetrics(job, backendFlg, gwURLFlg, datadogAddrFlg string, verbose bool) {
	backendName := backendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := gwURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		jobName := job
		if jobName == "" {
			jobName = "xmletl_job"
		}
		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prometheus push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: url=%s backend=%s job=%s", gwURL, backendName, jobName)
		metrics.SetBackend(b)
	case "datadog":
		addr := datadogAddrFlg
		if addr == "" {
			addr = os.Getenv("DD_DOGSTATSD_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		jobName := job
		if jobName == "" {
			jobName = "xmletl_job"
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: addr, Namespace: "xmletl.", GlobalTags: []string{"job:" + jobName}})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: addr=%s backend=%s job=%s", addr, backendName, jobName)
		metrics.SetBackend(b)
	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

// runDiscovery handles the -discover and -generate-config modes: both need
// an input file and a record tag, either given directly or guessed/read
// from an existing config. -generate-config additionally converts the
// discovery report into a starter pipeline config.
func runDiscovery(inputPath, recordTag, configPath string, pretty, generateCfg bool) {
	if inputPath == "" {
		log.Fatal("missing -i")
	}
	f, err := os.Open(inputPath)
	if err != nil {
		log.Fatalf("open input: %v", err)
	}
	defer f.Close()

	rt := strings.TrimSpace(recordTag)
	if rt == "" && configPath != "" {
		if cfgRT, err := readConfigRecordTag(configPath); err == nil && cfgRT != "" {
			rt = cfgRT
		}
	}
	if rt == "" {
		if g, err := inspect.GuessRecordTag(io.LimitReader(f, 1<<20)); err == nil {
			rt = g
		}
		if rt == "" {
			log.Fatal("could not determine record_tag; provide -record_tag or -config")
		}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		log.Fatalf("seek: %v", err)
	}
	rep, err := inspect.Discover(f, rt)
	if err != nil {
		log.Fatalf("discover: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}

	if generateCfg {
		if err := enc.Encode(inspect.StarterConfigFrom(rep, inputPath)); err != nil {
			log.Fatalf("encode starter config: %v", err)
		}
		return
	}
	if err := enc.Encode(rep); err != nil {
		log.Fatalf("encode report: %v", err)
	}
}

func readConfigRecordTag(path string) (string, error) {
	spec, err := readPipelineConfig(path)
	if err != nil {
		return "", err
	}
	return spec.Parser.Options.String("record_tag", ""), nil
}

func readPipelineConfig(path string) (config.Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return config.Pipeline{}, err
	}
	var p config.Pipeline
	if err := json.Unmarshal(b, &p); err != nil {
		return config.Pipeline{}, err
	}
	return p, nil
}
