package telemetry

import (
	"strings"
	"sync"
)

type Report struct {
	Kind   string
	ID     string
	Params []any
	Count  int64
}

const (
	KindBroken  = "broken"
	KindWarning = "warning"
	KindDebug   = "debug"
	KindCount   = "count"
)

// Recorder is an API that keeps every report in memory, it is meant for tests.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func (r *Recorder) add(report Report) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(Report{Kind: KindBroken, ID: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(Report{Kind: KindWarning, ID: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(Report{Kind: KindDebug, ID: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(Report{Kind: KindCount, ID: id, Count: count})
}

// Reports returns a copy of the reports of the given kind whose id contains `substr`.
func (r *Recorder) Reports(kind, substr string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Kind == kind && strings.Contains(report.ID, substr) {
			out = append(out, report)
		}
	}
	return out
}
