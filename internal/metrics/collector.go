// Package metrics aggregates task execution metrics using HDR histograms.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/wesleyorama2/stampede/internal/schedule"
)

// Histogram range: 1 microsecond to 1 hour, 3 significant figures.
const (
	histMin     = 1
	histMax     = 3600000000
	histSigFigs = 3
)

// Collector aggregates scheduling events across all virtual users. It
// implements schedule.Reporter.
//
// Counters use atomic operations; histograms are mutex-protected because HDR
// histogram RecordValue is not thread-safe.
type Collector struct {
	startTime time.Time

	// Overall task-latency histogram, microseconds.
	taskHist   *hdrhistogram.Histogram
	taskHistMu sync.Mutex

	// Per-task histograms keyed by "taskset/task" description.
	perTask   map[string]*taskStats
	perTaskMu sync.Mutex

	// Paired request/response latency histogram, microseconds.
	pairHist   *hdrhistogram.Histogram
	pairHistMu sync.Mutex

	totalTasks    atomic.Int64
	failedTasks   atomic.Int64
	bytesSent     atomic.Int64
	bytesReceived atomic.Int64
	messagesSent  atomic.Int64
	messagesRecvd atomic.Int64
}

type taskStats struct {
	hist     *hdrhistogram.Histogram
	count    int64
	failures int64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		taskHist:  hdrhistogram.New(histMin, histMax, histSigFigs),
		pairHist:  hdrhistogram.New(histMin, histMax, histSigFigs),
		perTask:   make(map[string]*taskStats),
	}
}

// TaskCompleted records one task execution.
func (c *Collector) TaskCompleted(e schedule.TaskCompletion) {
	micros := clamp(e.Elapsed.Microseconds())

	c.taskHistMu.Lock()
	c.taskHist.RecordValue(micros)
	c.taskHistMu.Unlock()

	key := e.TaskSet + "/" + e.Task
	c.perTaskMu.Lock()
	st, ok := c.perTask[key]
	if !ok {
		st = &taskStats{hist: hdrhistogram.New(histMin, histMax, histSigFigs)}
		c.perTask[key] = st
	}
	st.hist.RecordValue(micros)
	st.count++
	if e.Failure != "" {
		st.failures++
	}
	c.perTaskMu.Unlock()

	c.totalTasks.Add(1)
	if e.Failure != "" {
		c.failedTasks.Add(1)
	}
	c.bytesSent.Add(e.BytesSent)
	c.bytesReceived.Add(e.BytesReceived)
}

// MessageSent records one outbound message.
func (c *Collector) MessageSent(e schedule.MessageEvent) {
	c.messagesSent.Add(1)
}

// MessageReceived records one inbound message.
func (c *Collector) MessageReceived(e schedule.MessageEvent) {
	c.messagesRecvd.Add(1)
}

// MessagePaired records the round-trip latency of a send/receive pair.
func (c *Collector) MessagePaired(e schedule.PairedMessageRecord) {
	c.pairHistMu.Lock()
	c.pairHist.RecordValue(clamp(e.Elapsed.Microseconds()))
	c.pairHistMu.Unlock()
}

// LatencyStats summarizes one histogram.
type LatencyStats struct {
	Count int64
	Min   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// TaskSummary is the per-task slice of a snapshot.
type TaskSummary struct {
	Name     string
	Failures int64
	Latency  LatencyStats
}

// Snapshot is a point-in-time copy of everything the collector aggregated.
type Snapshot struct {
	Elapsed       time.Duration
	TotalTasks    int64
	FailedTasks   int64
	BytesSent     int64
	BytesReceived int64
	MessagesSent  int64
	MessagesRecvd int64

	TaskLatency LatencyStats
	PairLatency LatencyStats
	Tasks       []TaskSummary
}

// Snapshot copies the current aggregates. Per-task entries are sorted by
// name for stable output.
func (c *Collector) Snapshot() Snapshot {
	snap := Snapshot{
		Elapsed:       time.Since(c.startTime),
		TotalTasks:    c.totalTasks.Load(),
		FailedTasks:   c.failedTasks.Load(),
		BytesSent:     c.bytesSent.Load(),
		BytesReceived: c.bytesReceived.Load(),
		MessagesSent:  c.messagesSent.Load(),
		MessagesRecvd: c.messagesRecvd.Load(),
	}

	c.taskHistMu.Lock()
	snap.TaskLatency = summarize(c.taskHist)
	c.taskHistMu.Unlock()

	c.pairHistMu.Lock()
	snap.PairLatency = summarize(c.pairHist)
	c.pairHistMu.Unlock()

	c.perTaskMu.Lock()
	for name, st := range c.perTask {
		snap.Tasks = append(snap.Tasks, TaskSummary{
			Name:     name,
			Failures: st.failures,
			Latency:  summarize(st.hist),
		})
	}
	c.perTaskMu.Unlock()

	sort.Slice(snap.Tasks, func(i, j int) bool { return snap.Tasks[i].Name < snap.Tasks[j].Name })
	return snap
}

func summarize(h *hdrhistogram.Histogram) LatencyStats {
	if h.TotalCount() == 0 {
		return LatencyStats{}
	}
	return LatencyStats{
		Count: h.TotalCount(),
		Min:   time.Duration(h.Min()) * time.Microsecond,
		Mean:  time.Duration(h.Mean()) * time.Microsecond,
		P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P90:   time.Duration(h.ValueAtQuantile(90)) * time.Microsecond,
		P99:   time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
		Max:   time.Duration(h.Max()) * time.Microsecond,
	}
}

func clamp(micros int64) int64 {
	if micros < histMin {
		return histMin
	}
	if micros > histMax {
		return histMax
	}
	return micros
}
