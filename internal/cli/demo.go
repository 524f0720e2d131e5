package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/stampede/internal/config"
	"github.com/wesleyorama2/stampede/internal/schedule"
	"github.com/wesleyorama2/stampede/internal/session"
)

// demoProfile builds the built-in HTTP browsing profile. It exists so the
// harness is usable against an ordinary web service without writing Go:
// a warmup task-set establishes the session, then a browse task-set walks
// JSON endpoints, pairing each request with its response for latency
// reporting.
func demoProfile(cfg *config.RunConfig) (*schedule.Profile, error) {
	warmup, err := schedule.NewTaskSet("warmup", schedule.CategoryBase).
		Desc("session warmup").
		Task(0, "connect", func(ctx context.Context, ts *schedule.TaskSet) error {
			sess := ts.Session()
			if sess == nil || sess.Connected() {
				return nil
			}
			return sess.Connect(ctx, session.Params{"path": "/"})
		}).
		Build()
	if err != nil {
		return nil, err
	}

	browse, err := schedule.NewTaskSet("browse", schedule.CategoryBase).
		Desc("json browsing").
		Task(0, "fetchIndex", fetchJSON("/", "")).
		Task(1, "fetchHealth", fetchJSON("/health", "status")).
		Build()
	if err != nil {
		return nil, err
	}

	pb := schedule.NewProfile(cfg.Name).
		TaskSet(warmup).
		TaskSet(browse)

	if cfg.Exclusive {
		pb.Exclusive()
	}
	if err := applyCategoryOverrides(pb, cfg); err != nil {
		return nil, err
	}
	return pb.Build()
}

// fetchJSON returns a task body that GETs path as one paired exchange and,
// when field is non-empty, requires it to be present in the JSON response.
func fetchJSON(path, field string) schedule.TaskFunc {
	return func(ctx context.Context, ts *schedule.TaskSet) error {
		sess := ts.Session()
		if sess == nil {
			return nil
		}
		if !sess.Connected() {
			if err := sess.Connect(ctx, session.Params{"path": "/"}); err != nil {
				ts.ReportFailure(fmt.Sprintf("reconnect: %v", err), false)
				return nil
			}
		}

		start := time.Now()
		resp, err := sess.SendAndRecv(ctx, session.Params{"method": "GET", "path": path})
		if err != nil {
			ts.ReportFailure(fmt.Sprintf("GET %s: %v", path, err), false)
			return nil
		}

		body, _ := resp.([]byte)
		ts.ReportSendRecv(0, 0, 0, int64(len(body)), 200, time.Since(start))

		if field != "" && !gjson.GetBytes(body, field).Exists() {
			ts.ReportFailure(fmt.Sprintf("GET %s: missing field %q", path, field), false)
		}
		return nil
	}
}

// applyCategoryOverrides maps the config's per-category schedule overrides
// onto the profile builder.
func applyCategoryOverrides(pb *schedule.ProfileBuilder, cfg *config.RunConfig) error {
	for name, cc := range cfg.Categories {
		cat, err := config.ParseCategory(name)
		if err != nil {
			return err
		}
		if cc.Mode != "" {
			mode, err := config.ParseScheduleMode(cc.Mode)
			if err != nil {
				return err
			}
			pb.CategoryMode(cat, mode)
		}
		if len(cc.FixedTaskSets) > 0 {
			refs := make([]schedule.TaskSetRef, 0, len(cc.FixedTaskSets))
			for _, n := range cc.FixedTaskSets {
				refs = append(refs, schedule.TaskSetByName(n))
			}
			pb.FixedTaskSets(cat, refs...)
		}
	}
	return nil
}
