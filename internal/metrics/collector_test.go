package metrics_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/lbhealth/internal/metrics"
)

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, log)
	})

	AfterEach(func() {
		cancel()
	})

	Describe("event processing", func() {
		It("should process EventProbeReceived", func() {
			collector.Start(ctx)
			Expect(collector.Emit(metrics.MetricEvent{Type: metrics.EventProbeReceived})).To(BeTrue())

			Eventually(func() int64 {
				return collector.Snapshot().TotalProbes
			}).Should(Equal(int64(1)))
		})

		It("should process EventCheckCompleted", func() {
			collector.Start(ctx)
			Expect(collector.Emit(metrics.MetricEvent{
				Type:      metrics.EventCheckCompleted,
				Timestamp: time.Now(),
				Command:   "exit 1",
				Duration:  100 * time.Millisecond,
				ExitCode:  1,
			})).To(BeTrue())

			Eventually(func() int64 {
				return collector.Snapshot().Checks["exit 1"].Failures
			}).Should(Equal(int64(1)))
		})

		It("should process EventVerdict", func() {
			collector.Start(ctx)
			Expect(collector.Emit(metrics.MetricEvent{Type: metrics.EventVerdict, Healthy: false})).To(BeTrue())

			Eventually(func() int64 {
				return collector.Snapshot().Unhealthy
			}).Should(Equal(int64(1)))
		})

		It("should process EventKillSwitch", func() {
			collector.Start(ctx)
			Expect(collector.Emit(metrics.MetricEvent{Type: metrics.EventKillSwitch})).To(BeTrue())

			Eventually(func() int64 {
				return collector.Snapshot().KillSwitched
			}).Should(Equal(int64(1)))
		})

		It("should drain events on context cancellation", func() {
			for i := 0; i < 5; i++ {
				Expect(collector.Emit(metrics.MetricEvent{Type: metrics.EventProbeReceived})).To(BeTrue())
			}

			cancel()
			collector.Start(ctx)

			Eventually(func() int64 {
				return collector.Snapshot().TotalProbes
			}).Should(Equal(int64(5)))
		})
	})

	Describe("Emit", func() {
		It("should drop events when the buffer is full", func() {
			small := metrics.NewCollector(1, log)
			Expect(small.Emit(metrics.MetricEvent{Type: metrics.EventProbeReceived})).To(BeTrue())
			Expect(small.Emit(metrics.MetricEvent{Type: metrics.EventProbeReceived})).To(BeFalse())
		})
	})

	Describe("Handler", func() {
		It("should serve the snapshot as JSON", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{Type: metrics.EventProbeReceived})
			Eventually(func() int64 {
				return collector.Snapshot().TotalProbes
			}).Should(Equal(int64(1)))

			w := httptest.NewRecorder()
			collector.Handler()(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))
			Expect(w.Body.String()).To(ContainSubstring(`"total_probes":1`))
		})
	})
})
