package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/angeloszaimis/lbhealth/internal/healthcheck"
	"github.com/angeloszaimis/lbhealth/internal/killswitch"
	"github.com/angeloszaimis/lbhealth/internal/metrics"
	"github.com/angeloszaimis/lbhealth/internal/verdict"
)

// Request is the part of an inbound probe the pipeline looks at.
type Request struct {
	Method string
	// Path is the request target exactly as sent, query string included.
	Path string
}

// Runner executes check commands and returns one result per command, in
// order.
type Runner interface {
	Run(ctx context.Context, commands []string) []healthcheck.Result
}

// CommandSource yields the check commands for one probe.
type CommandSource func() []string

type ProbeHandler struct {
	logger           *slog.Logger
	gate             killswitch.Gate
	source           CommandSource
	runner           Runner
	metricsCollector *metrics.Collector
}

func NewProbeHandler(logger *slog.Logger, gate killswitch.Gate, source CommandSource, runner Runner, collector *metrics.Collector) *ProbeHandler {
	if gate == nil {
		gate = killswitch.Off
	}
	if source == nil {
		source = func() []string { return nil }
	}

	return &ProbeHandler{
		logger:           logger,
		gate:             gate,
		source:           source,
		runner:           runner,
		metricsCollector: collector,
	}
}

// Handle runs one probe. The kill switch is consulted first; when it is
// engaged no command is loaded or run.
func (h *ProbeHandler) Handle(ctx context.Context, req Request) verdict.Response {
	h.emitEvent(metrics.MetricEvent{
		Type:      metrics.EventProbeReceived,
		Timestamp: time.Now(),
	})

	if h.gate.Active() {
		h.logger.Info("Found kill-switch file, failing probe",
			slog.String("path", req.Path))
		h.emitEvent(metrics.MetricEvent{
			Type:      metrics.EventKillSwitch,
			Timestamp: time.Now(),
		})
		return verdict.KillSwitch()
	}

	commands := h.source()

	start := time.Now()
	results := h.runner.Run(ctx, commands)

	for _, result := range results {
		h.emitEvent(metrics.MetricEvent{
			Type:      metrics.EventCheckCompleted,
			Timestamp: time.Now(),
			Command:   result.Command,
			Duration:  result.Duration,
			ExitCode:  result.ExitCode,
		})
	}

	v := verdict.Of(results)
	h.emitEvent(metrics.MetricEvent{
		Type:      metrics.EventVerdict,
		Timestamp: time.Now(),
		Healthy:   v == verdict.Healthy,
	})

	level := slog.LevelDebug
	if v == verdict.Unhealthy {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, "Checks completed",
		slog.String("verdict", v.String()),
		slog.Int("checks", len(results)),
		slog.Int("failed", countFailed(results)),
		slog.Duration("duration", time.Since(start)),
		slog.String("path", req.Path))

	return verdict.Render(results, req.Path)
}

func (h *ProbeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Received probe",
		slog.String("from", r.RemoteAddr),
		slog.String("method", r.Method),
		slog.String("path", r.RequestURI),
		slog.String("user_agent", r.UserAgent()))

	resp := h.Handle(r.Context(), Request{Method: r.Method, Path: r.RequestURI})

	if err := resp.Write(w); err != nil {
		h.logger.Warn("Failed to write probe response",
			slog.String("from", r.RemoteAddr),
			slog.Any("err", err))
	}
}

func (h *ProbeHandler) emitEvent(event metrics.MetricEvent) {
	if h.metricsCollector == nil {
		return
	}

	h.metricsCollector.Emit(event)
}

func countFailed(results []healthcheck.Result) int {
	failed := 0
	for _, result := range results {
		if !result.Passed() {
			failed++
		}
	}
	return failed
}
