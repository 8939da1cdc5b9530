package periodic_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	metric "github.com/otelmetric/sdk"
	"github.com/otelmetric/sdk/attribute"
	"github.com/otelmetric/sdk/export"
	"github.com/otelmetric/sdk/internal/otlpmodel"
	"github.com/otelmetric/sdk/periodic"
)

var _ = Describe("PeriodicExportingMetricReader", func() {
	var (
		exporter *export.MemoryExporter
		reader   *periodic.PeriodicExportingMetricReader
		provider *metric.MeterProvider
	)

	BeforeEach(func() {
		exporter = export.NewMemoryExporter()
		reader = periodic.NewPeriodicExportingMetricReader(exporter, periodic.WithInterval(10*time.Millisecond))
		provider = metric.NewMeterProvider()
		Expect(provider.AddReader(reader.Reader())).To(Succeed())
	})

	AfterEach(func() {
		Expect(reader.Shutdown(context.Background())).To(Succeed())
	})

	It("exports on every tick without being told to collect", func() {
		m, err := provider.Meter("ticks")
		Expect(err).NotTo(HaveOccurred())
		c, err := metric.CreateCounter[uint64](m, "requests")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Add(1, attribute.NewSet())).To(Succeed())

		Eventually(func() bool {
			_, ok := exporter.Fetch()
			return ok
		}, "200ms", "5ms").Should(BeTrue())
	})

	It("keeps exporting on a steady cadence, not just once", func() {
		m, err := provider.Meter("cadence")
		Expect(err).NotTo(HaveOccurred())
		c, err := metric.CreateCounter[uint64](m, "requests")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Add(1, attribute.NewSet())).To(Succeed())

		Eventually(func() bool {
			_, ok := exporter.Fetch()
			return ok
		}, "200ms", "5ms").Should(BeTrue())

		firstData, _ := exporter.Fetch()
		Expect(c.Add(1, attribute.NewSet())).To(Succeed())

		Eventually(func() int64 {
			data, ok := exporter.Fetch()
			if !ok {
				return sumValue(firstData)
			}
			return sumValue(data)
		}, "200ms", "5ms").ShouldNot(Equal(sumValue(firstData)))
	})

	It("stops exporting once shut down", func() {
		m, err := provider.Meter("shutdown")
		Expect(err).NotTo(HaveOccurred())
		c, err := metric.CreateCounter[uint64](m, "requests")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Add(1, attribute.NewSet())).To(Succeed())

		Eventually(func() bool {
			_, ok := exporter.Fetch()
			return ok
		}, "200ms", "5ms").Should(BeTrue())

		Expect(reader.Shutdown(context.Background())).To(Succeed())
		Expect(reader.Shutdown(context.Background())).To(Succeed(), "shutdown must be idempotent")

		lastData, _ := exporter.Fetch()
		lastValue := sumValue(lastData)

		Consistently(func() int64 {
			data, _ := exporter.Fetch()
			return sumValue(data)
		}, "60ms", "5ms").Should(Equal(lastValue))
	})

	It("force flushes synchronously without waiting for the next tick", func() {
		slowExporter := export.NewMemoryExporter()
		slow := periodic.NewPeriodicExportingMetricReader(slowExporter, periodic.WithInterval(time.Hour))
		defer slow.Shutdown(context.Background())
		slowProvider := metric.NewMeterProvider()
		Expect(slowProvider.AddReader(slow.Reader())).To(Succeed())

		m, err := slowProvider.Meter("flush")
		Expect(err).NotTo(HaveOccurred())
		c, err := metric.CreateCounter[uint64](m, "requests")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Add(1, attribute.NewSet())).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		Expect(slow.ForceFlush(ctx)).To(Succeed())

		_, ok := slowExporter.Fetch()
		Expect(ok).To(BeTrue(), "force flush should have exported immediately, well inside the hour-long interval")
	})
})

// sumValue extracts the "requests" counter's accumulated value out of an
// exported snapshot, or -1 if the snapshot has no data points yet, so
// Eventually/Consistently have something comparable across ticks.
func sumValue(data otlpmodel.MetricsData) int64 {
	for _, rm := range data.ResourceMetrics {
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if m.Sum == nil || len(m.Sum.DataPoints) == 0 {
					continue
				}
				dp := m.Sum.DataPoints[0]
				if dp.ValueKind == otlpmodel.NumberInt64 {
					return dp.IntValue
				}
				return int64(dp.FloatValue)
			}
		}
	}
	return -1
}
