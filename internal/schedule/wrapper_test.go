package schedule

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteEmitsOneCompletionPerExecution(t *testing.T) {
	rec := &recorder{}
	p := mustProfile(t,
		mustTaskSet(t, "A", CategoryBase, 2),
		mustTaskSet(t, "B", CategoryBase, 1),
	)
	s := newTestScheduler(t, p, nil, rec)

	for i := 0; i < 4; i++ {
		tick(t, s)
	}
	if len(rec.completions) != 4 {
		t.Fatalf("expected 4 completions, got %d", len(rec.completions))
	}
}

func TestExecuteCompletionAttribution(t *testing.T) {
	// A completion is attributed to the (task-set, task) pair that actually
	// executed, even when the body jumps elsewhere mid-run.
	rec := &recorder{}
	a, err := NewTaskSet("A", CategoryBase).
		Desc("set a").
		TaskDesc(0, "hop", "hop away", func(ctx context.Context, ts *TaskSet) error {
			return ts.JumpToTaskSet(TaskSetByName("B"), TaskRef{}, false)
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	p := mustProfile(t, a, mustTaskSet(t, "B", CategoryBase, 1))
	s := newTestScheduler(t, p, nil, rec)

	tick(t, s)

	if len(rec.completions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(rec.completions))
	}
	c := rec.completions[0]
	if c.TaskSet != "set a" || c.Task != "000-hop away" {
		t.Fatalf("completion misattributed: %+v", c)
	}
}

func TestExecuteResetsStats(t *testing.T) {
	first := true
	def, err := NewTaskSet("A", CategoryBase).
		Task(0, "report", func(ctx context.Context, ts *TaskSet) error {
			if first {
				first = false
				ts.ReportSend(1, 100)
				ts.ReportRecv(2, 200, 0)
				return nil
			}
			st := ts.Stats()
			if st.TotalBytesSent != 0 || st.TotalBytesReceived != 0 {
				t.Errorf("stats not reset: %+v", st)
			}
			if len(st.SentMessages) != 0 || len(st.ReceivedMessages) != 0 {
				t.Errorf("message records not reset: %+v", st)
			}
			return nil
		}).
		Exclusive().
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	s := newTestScheduler(t, mustProfile(t, def), nil, nil)

	tick(t, s)
	tick(t, s)
}

func TestExecuteRecordsBodyErrorAsFailure(t *testing.T) {
	rec := &recorder{}
	def, err := NewTaskSet("A", CategoryBase).
		Task(0, "fail", func(ctx context.Context, ts *TaskSet) error {
			return errors.New("backend said no")
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	s := newTestScheduler(t, mustProfile(t, def), nil, rec)

	item := s.NextWorkItem()
	_, execErr := s.Execute(context.Background(), item)
	if execErr == nil {
		t.Fatal("expected body error to propagate")
	}
	if len(rec.completions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(rec.completions))
	}
	if rec.completions[0].Failure != "backend said no" {
		t.Fatalf("expected failure desc, got %q", rec.completions[0].Failure)
	}
}

func TestExecuteKeepsExplicitFailureOverBodyError(t *testing.T) {
	rec := &recorder{}
	def, err := NewTaskSet("A", CategoryBase).
		Task(0, "fail", func(ctx context.Context, ts *TaskSet) error {
			ts.ReportFailure("specific diagnosis", false)
			return errors.New("generic error")
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	s := newTestScheduler(t, mustProfile(t, def), nil, rec)

	item := s.NextWorkItem()
	s.Execute(context.Background(), item)

	if rec.completions[0].Failure != "specific diagnosis" {
		t.Fatalf("explicit failure overwritten: %q", rec.completions[0].Failure)
	}
}

func TestReportFailureLastWriteWins(t *testing.T) {
	rec := &recorder{}
	def, err := NewTaskSet("A", CategoryBase).
		Task(0, "fail", func(ctx context.Context, ts *TaskSet) error {
			ts.ReportFailure("first", false)
			ts.ReportFailure("second", false)
			return nil
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	s := newTestScheduler(t, mustProfile(t, def), nil, rec)

	tick(t, s)

	if rec.completions[0].Failure != "second" {
		t.Fatalf("expected last failure to win, got %q", rec.completions[0].Failure)
	}
}

func TestStopFlaggedFailureEscalates(t *testing.T) {
	owner := &stubOwner{}
	def, err := NewTaskSet("A", CategoryBase).
		Task(0, "fatal", func(ctx context.Context, ts *TaskSet) error {
			ts.ReportFailure("unrecoverable", true)
			return nil
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	s := newTestScheduler(t, mustProfile(t, def), owner, nil)

	tick(t, s)

	if !owner.stopRequested {
		t.Fatal("expected stop escalation to the owner")
	}
}

func TestExecuteTotalsIncludePairedBytes(t *testing.T) {
	rec := &recorder{}
	def, err := NewTaskSet("A", CategoryBase).
		Task(0, "exchange", func(ctx context.Context, ts *TaskSet) error {
			ts.ReportSend(1, 10)
			ts.ReportSendRecv(2, 30, 3, 400, 200, 5*time.Millisecond)
			return nil
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	s := newTestScheduler(t, mustProfile(t, def), nil, rec)

	tick(t, s)

	c := rec.completions[0]
	if c.BytesSent != 40 {
		t.Errorf("expected 40 bytes sent, got %d", c.BytesSent)
	}
	if c.BytesReceived != 400 {
		t.Errorf("expected 400 bytes received, got %d", c.BytesReceived)
	}
	if len(rec.sent) != 1 || len(rec.paired) != 1 {
		t.Errorf("expected 1 send and 1 paired event, got %d/%d", len(rec.sent), len(rec.paired))
	}
	if rec.paired[0].Elapsed != 5*time.Millisecond {
		t.Errorf("paired elapsed not preserved: %v", rec.paired[0].Elapsed)
	}
}

type panickyReporter struct{ NopReporter }

func (panickyReporter) TaskCompleted(TaskCompletion) { panic("reporter bug") }

func TestExecuteSurvivesReporterPanic(t *testing.T) {
	p := mustProfile(t, mustTaskSet(t, "A", CategoryBase, 1))
	s := newTestScheduler(t, p, nil, panickyReporter{})

	// Must not panic, and scheduling must continue.
	tick(t, s)
	tick(t, s)
}

func TestExecuteHeartbeats(t *testing.T) {
	owner := &stubHeartbeatOwner{}
	tsBeats := 0
	def, err := NewTaskSet("A", CategoryBase).
		Task(0, "noopTask", noop).
		OnHeartbeat(func(ts *TaskSet) { tsBeats++ }).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	s := newTestScheduler(t, mustProfile(t, def), owner, nil)

	tick(t, s)
	tick(t, s)

	if owner.beats != 2 {
		t.Errorf("expected 2 owner heartbeats, got %d", owner.beats)
	}
	if tsBeats != 2 {
		t.Errorf("expected 2 task-set heartbeats, got %d", tsBeats)
	}
}

func TestPlaceholderTaskSetExecutes(t *testing.T) {
	rec := &recorder{}
	empty, err := NewTaskSet("empty", CategoryBase).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	p := mustProfile(t, empty, mustTaskSet(t, "B", CategoryBase, 1))
	s := newTestScheduler(t, p, nil, rec)

	got, _ := tick(t, s)
	if got != "empty/placeholder" {
		t.Fatalf("expected placeholder execution, got %s", got)
	}

	// The placeholder counts as a full cycle, so the schedule still
	// advances.
	got, _ = tick(t, s)
	if got != "B/task0" {
		t.Fatalf("expected hand-off to B, got %s", got)
	}
}
