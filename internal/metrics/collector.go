package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventProbeReceived  EventType = "probe_received"
	EventKillSwitch     EventType = "kill_switch"
	EventCheckCompleted EventType = "check_completed"
	EventVerdict        EventType = "verdict"
)

type MetricEvent struct {
	Type      EventType
	Timestamp time.Time
	Command   string
	Duration  time.Duration
	ExitCode  int
	Healthy   bool
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit sends event without blocking. It reports false when the event was
// dropped because the buffer is full.
func (c *Collector) Emit(event MetricEvent) bool {
	select {
	case c.eventCh <- event:
		return true
	default:
		return false
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventProbeReceived:
		c.metrics.IncrementProbes()

	case EventKillSwitch:
		c.metrics.RecordKillSwitch()

	case EventCheckCompleted:
		c.metrics.RecordCheck(event.Command, event.Duration, event.ExitCode)

	case EventVerdict:
		c.metrics.RecordVerdict(event.Healthy)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
