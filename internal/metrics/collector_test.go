package metrics

import (
	"testing"
	"time"

	"github.com/wesleyorama2/stampede/internal/schedule"
)

func TestCollectorAggregatesCompletions(t *testing.T) {
	c := NewCollector()

	c.TaskCompleted(schedule.TaskCompletion{
		TaskSet:       "browse",
		Task:          "000-fetch",
		Elapsed:       10 * time.Millisecond,
		BytesSent:     100,
		BytesReceived: 2000,
	})
	c.TaskCompleted(schedule.TaskCompletion{
		TaskSet: "browse",
		Task:    "000-fetch",
		Elapsed: 20 * time.Millisecond,
		Failure: "timeout",
	})
	c.TaskCompleted(schedule.TaskCompletion{
		TaskSet: "checkout",
		Task:    "001-pay",
		Elapsed: 5 * time.Millisecond,
	})

	snap := c.Snapshot()

	if snap.TotalTasks != 3 {
		t.Errorf("expected 3 tasks, got %d", snap.TotalTasks)
	}
	if snap.FailedTasks != 1 {
		t.Errorf("expected 1 failed task, got %d", snap.FailedTasks)
	}
	if snap.BytesSent != 100 || snap.BytesReceived != 2000 {
		t.Errorf("byte totals wrong: %d/%d", snap.BytesSent, snap.BytesReceived)
	}
	if snap.TaskLatency.Count != 3 {
		t.Errorf("expected 3 latency samples, got %d", snap.TaskLatency.Count)
	}

	if len(snap.Tasks) != 2 {
		t.Fatalf("expected 2 per-task entries, got %d", len(snap.Tasks))
	}
	// Sorted by name: browse before checkout.
	if snap.Tasks[0].Name != "browse/000-fetch" {
		t.Errorf("unexpected first task: %s", snap.Tasks[0].Name)
	}
	if snap.Tasks[0].Failures != 1 {
		t.Errorf("expected 1 failure for browse task, got %d", snap.Tasks[0].Failures)
	}
	if snap.Tasks[1].Name != "checkout/001-pay" {
		t.Errorf("unexpected second task: %s", snap.Tasks[1].Name)
	}
}

func TestCollectorLatencyPercentiles(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 100; i++ {
		c.TaskCompleted(schedule.TaskCompletion{
			TaskSet: "s",
			Task:    "t",
			Elapsed: time.Duration(i) * time.Millisecond,
		})
	}

	l := c.Snapshot().TaskLatency
	if l.Min < time.Millisecond/2 || l.Min > 2*time.Millisecond {
		t.Errorf("min out of range: %v", l.Min)
	}
	if l.Max < 90*time.Millisecond {
		t.Errorf("max out of range: %v", l.Max)
	}
	if l.P50 < 40*time.Millisecond || l.P50 > 60*time.Millisecond {
		t.Errorf("p50 out of range: %v", l.P50)
	}
	if l.P99 < l.P50 {
		t.Errorf("p99 %v below p50 %v", l.P99, l.P50)
	}
}

func TestCollectorMessageEvents(t *testing.T) {
	c := NewCollector()

	c.MessageSent(schedule.MessageEvent{MessageID: 1, ByteLength: 10})
	c.MessageSent(schedule.MessageEvent{MessageID: 2, ByteLength: 10})
	c.MessageReceived(schedule.MessageEvent{MessageID: 3, ByteLength: 20})
	c.MessagePaired(schedule.PairedMessageRecord{Elapsed: 3 * time.Millisecond})

	snap := c.Snapshot()
	if snap.MessagesSent != 2 {
		t.Errorf("expected 2 sends, got %d", snap.MessagesSent)
	}
	if snap.MessagesRecvd != 1 {
		t.Errorf("expected 1 receive, got %d", snap.MessagesRecvd)
	}
	if snap.PairLatency.Count != 1 {
		t.Errorf("expected 1 paired sample, got %d", snap.PairLatency.Count)
	}
}

func TestCollectorClampsOutOfRangeLatency(t *testing.T) {
	c := NewCollector()
	c.TaskCompleted(schedule.TaskCompletion{TaskSet: "s", Task: "t", Elapsed: 0})
	c.TaskCompleted(schedule.TaskCompletion{TaskSet: "s", Task: "t", Elapsed: 48 * time.Hour})

	l := c.Snapshot().TaskLatency
	if l.Count != 2 {
		t.Fatalf("expected 2 samples, got %d", l.Count)
	}
	if l.Max > 2*time.Hour {
		t.Errorf("max not clamped: %v", l.Max)
	}
}

func TestEmptySnapshot(t *testing.T) {
	snap := NewCollector().Snapshot()
	if snap.TaskLatency.Count != 0 || snap.Tasks != nil {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
