package observ_test

import (
	"strings"
	"testing"

	"keb/internal/observ"
)

func TestTimerReport(t *testing.T) {
	timer := observ.NewTimer()
	parse := timer.Begin("parse")
	timer.End(parse, "nodes=3")
	infer := timer.Begin("infer")
	timer.End(infer, "")
	timer.End(42, "ignored")

	report := timer.Report()
	if len(report.Phases) != 2 || timer.Len() != 2 {
		t.Fatalf("phases = %+v", report.Phases)
	}
	if report.Phases[0].Name != "parse" || report.Phases[0].Note != "nodes=3" {
		t.Fatalf("first phase = %+v", report.Phases[0])
	}
	if report.TotalMS < report.Phases[0].DurationMS {
		t.Fatalf("total %.3f smaller than a phase", report.TotalMS)
	}

	summary := timer.Summary()
	for _, want := range []string{"timings:", "parse", "// nodes=3", "total"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary misses %q:\n%s", want, summary)
		}
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := observ.NewTimer().Report(); r.TotalMS != 0 || len(r.Phases) != 0 {
		t.Fatalf("report = %+v", r)
	}
}
