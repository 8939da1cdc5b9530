// Command metricsdk-demo wires a MeterProvider, a couple of instruments,
// and one of the built-in exporters, so the SDK can be exercised end to
// end from the command line. Flag parsing follows the teacher's habit
// (visible throughout the retrieved corpus) of a package-level kingpin
// application rather than the standard library's flag package.
package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	metric "github.com/otelmetric/sdk"
	"github.com/otelmetric/sdk/attribute"
	"github.com/otelmetric/sdk/config"
	"github.com/otelmetric/sdk/export"
	"github.com/otelmetric/sdk/export/prometheusbridge"
	"github.com/otelmetric/sdk/internal/level"
	"github.com/otelmetric/sdk/periodic"
)

var (
	app           = kingpin.New("metricsdk-demo", "Demonstration harness for the metric SDK.")
	configPath    = app.Flag("config.file", "Path to a YAML reader/exporter config.").String()
	exporterFlag  = app.Flag("exporter", "Exporter to use when no config file is given.").Default("log").Enum("log", "memory", "prometheus")
	intervalFlag  = app.Flag("interval", "Collection interval when no config file is given.").Default("10s").Duration()
	listenAddress = app.Flag("web.listen-address", "Address to expose /metrics on, for the prometheus exporter.").Default(":9464").String()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := level.New(kitlog.NewLogfmtLogger(os.Stdout), level.Info)

	cfg := loadOrDefaultConfig(logger)

	selfRegistry := prometheus.NewRegistry()
	provider := metric.NewMeterProvider(
		metric.WithResource(cfg.ResourceAttributes()),
		metric.WithLogger(logger),
		metric.WithSelfObserve(selfRegistry),
	)

	var periodicReader *periodic.PeriodicExportingMetricReader
	var closeHTTP func()

	switch cfg.Reader.Exporter {
	case config.ExporterPrometheus:
		reader := metric.NewMetricReader(metric.WithTemporalitySelector(cfg.TemporalitySelector()))
		if err := provider.AddReader(reader); err != nil {
			logger.Errorf("attaching reader: %v", err)
			os.Exit(1)
		}
		bridge := prometheusbridge.New(reader)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(bridge, promhttp.HandlerOpts{}))
		mux.Handle("/self-metrics", promhttp.HandlerFor(selfRegistry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: *listenAddress, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("http server: %v", err)
			}
		}()
		closeHTTP = func() { _ = srv.Close() }
	default:
		exporter := buildPushExporter(cfg)
		periodicReader = periodic.NewPeriodicExportingMetricReader(exporter,
			periodic.WithInterval(cfg.Reader.Interval),
			periodic.WithTimeout(cfg.Reader.Timeout),
			periodic.WithReaderLogger(logger),
		)
		if err := provider.AddReader(periodicReader.Reader()); err != nil {
			logger.Errorf("attaching reader: %v", err)
			os.Exit(1)
		}
	}

	meter, err := provider.Meter("metricsdk-demo", metric.WithMeterVersion("1.0.0"))
	if err != nil {
		logger.Errorf("creating meter: %v", err)
		os.Exit(1)
	}
	requests, err := metric.CreateCounter[uint64](meter, "demo.requests", metric.WithDescription("Demo request count."), metric.WithUnit("1"))
	if err != nil {
		logger.Errorf("creating counter: %v", err)
		os.Exit(1)
	}
	latency, err := metric.CreateHistogram[float64](meter, "demo.latency", metric.WithDescription("Demo request latency."), metric.WithUnit("ms"))
	if err != nil {
		logger.Errorf("creating histogram: %v", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(1))
	for {
		select {
		case <-ticker.C:
			attrs := demoAttributes(rng)
			_ = requests.Add(1, attrs)
			latency.Record(demoLatencyMillis(rng), attrs)
		case <-stop:
			logger.Infof("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if periodicReader != nil {
				if err := periodicReader.Shutdown(ctx); err != nil {
					logger.Errorf("periodic shutdown: %v", err)
				}
			}
			if err := provider.Shutdown(ctx); err != nil {
				logger.Errorf("provider shutdown: %v", err)
			}
			if closeHTTP != nil {
				closeHTTP()
			}
			return
		}
	}
}

func loadOrDefaultConfig(logger *level.Logger) *config.Config {
	if *configPath != "" {
		if cfg, err := config.Load(*configPath); err == nil {
			return cfg
		} else {
			logger.Errorf("loading config, falling back to flags: %v", err)
		}
	}
	return &config.Config{
		Reader: config.ReaderConfig{
			Interval:    *intervalFlag,
			Timeout:     30 * time.Second,
			Exporter:    config.ExporterKind(*exporterFlag),
			Temporality: config.TemporalityCumulative,
		},
	}
}

func buildPushExporter(cfg *config.Config) export.Exporter {
	if cfg.Reader.Exporter == config.ExporterMemory {
		return export.NewMemoryExporter(export.WithMemoryTemporality(cfg.TemporalitySelector()))
	}
	return export.NewLogExporter(kitlog.NewLogfmtLogger(os.Stdout), export.WithLogTemporality(cfg.TemporalitySelector()))
}

func demoAttributes(rng *rand.Rand) attribute.Set {
	routes := []string{"/list", "/get", "/create"}
	return attribute.NewSet(attribute.String("route", routes[rng.Intn(len(routes))]))
}

func demoLatencyMillis(rng *rand.Rand) float64 {
	return 5 + rng.Float64()*120
}
