package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex        sync.RWMutex
	probes       int64
	healthy      int64
	unhealthy    int64
	killSwitched int64
	runs         map[string]int64
	failures     map[string]int64
	durations    map[string][]time.Duration
	exitCodes    map[string]map[int]int64
	lastExitCode map[string]int
	startTime    time.Time
}

type Snapshot struct {
	TotalProbes  int64                   `json:"total_probes"`
	Healthy      int64                   `json:"healthy"`
	Unhealthy    int64                   `json:"unhealthy"`
	KillSwitched int64                   `json:"kill_switched"`
	Uptime       time.Duration           `json:"uptime"`
	Checks       map[string]CheckMetrics `json:"checks"`
}

type CheckMetrics struct {
	Runs         int64         `json:"runs"`
	Failures     int64         `json:"failures"`
	LastExitCode int           `json:"last_exit_code"`
	AvgDuration  time.Duration `json:"avg_duration"`
	P50Duration  time.Duration `json:"p50_duration"`
	P95Duration  time.Duration `json:"p95_duration"`
	P99Duration  time.Duration `json:"p99_duration"`
	ExitCodes    map[int]int64 `json:"exit_codes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		runs:         make(map[string]int64),
		failures:     make(map[string]int64),
		durations:    make(map[string][]time.Duration),
		exitCodes:    make(map[string]map[int]int64),
		lastExitCode: make(map[string]int),
		startTime:    time.Now(),
	}
}

func (m *Metrics) IncrementProbes() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.probes++
}

func (m *Metrics) RecordKillSwitch() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.killSwitched++
}

func (m *Metrics) RecordVerdict(healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if healthy {
		m.healthy++
	} else {
		m.unhealthy++
	}
}

func (m *Metrics) RecordCheck(command string, duration time.Duration, exitCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.runs[command]++
	if exitCode != 0 {
		m.failures[command]++
	}
	m.lastExitCode[command] = exitCode

	m.durations[command] = append(m.durations[command], duration)
	if len(m.durations[command]) > maxSamples {
		m.durations[command] = m.durations[command][1:]
	}

	if m.exitCodes[command] == nil {
		m.exitCodes[command] = make(map[int]int64)
	}
	m.exitCodes[command][exitCode]++
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		TotalProbes:  m.probes,
		Healthy:      m.healthy,
		Unhealthy:    m.unhealthy,
		KillSwitched: m.killSwitched,
		Uptime:       time.Since(m.startTime),
		Checks:       make(map[string]CheckMetrics, len(m.runs)),
	}

	for command, runs := range m.runs {
		exitCodes := make(map[int]int64, len(m.exitCodes[command]))
		for code, n := range m.exitCodes[command] {
			exitCodes[code] = n
		}

		cm := CheckMetrics{
			Runs:         runs,
			Failures:     m.failures[command],
			LastExitCode: m.lastExitCode[command],
			ExitCodes:    exitCodes,
		}

		durations := m.durations[command]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			cm.AvgDuration = average(sorted)
			cm.P50Duration = percentile(sorted, 0.50)
			cm.P95Duration = percentile(sorted, 0.95)
			cm.P99Duration = percentile(sorted, 0.99)
		}

		snap.Checks[command] = cm
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
