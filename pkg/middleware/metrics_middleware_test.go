package middleware

import (
	stderrors "errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/yme-dev/pagegen/internal/errors"
	"github.com/yme-dev/pagegen/pkg/pages"
)

func resetGlobalMetricsForTest() {
	globalMetricsMu.Lock()
	globalMetrics = nil
	globalMetricsMu.Unlock()
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestPrometheusMiddleware_RecordsSuccessAndError(t *testing.T) {
	t.Run("success increments success counter and duration", func(t *testing.T) {
		resetGlobalMetricsForTest()
		reg := prometheus.NewRegistry()

		mw := Prometheus(WithRegistry(reg))
		stage := newStage(pages.StageClassify)

		err := mw.Handle(stage, func() error { return nil })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		c := GetMetrics()
		if c == nil {
			t.Fatal("expected GetMetrics to return collector after initialization")
		}

		if got := metricCounterValue(t, c.StageRuns.WithLabelValues("classify", "success")); got != 1 {
			t.Fatalf("stage_runs_total(success)=%v, want 1", got)
		}
		if got := metricCounterValue(t, c.StageRuns.WithLabelValues("classify", "error")); got != 0 {
			t.Fatalf("stage_runs_total(error)=%v, want 0", got)
		}
		if got := metricHistogramCount(t, c.StageDuration.WithLabelValues("classify")); got == 0 {
			t.Fatal("expected stage_duration_seconds histogram to have sample count > 0")
		}
	})

	t.Run("error increments error counter with its code", func(t *testing.T) {
		resetGlobalMetricsForTest()
		reg := prometheus.NewRegistry()

		mw := Prometheus(WithRegistry(reg))
		stage := newStage(pages.StageReadConfig)

		err := mw.Handle(stage, func() error { return errors.New(errors.CodeConfigRead) })
		if err == nil {
			t.Fatal("expected error to propagate")
		}

		c := GetMetrics()
		if got := metricCounterValue(t, c.StageRuns.WithLabelValues("read-config", "error")); got != 1 {
			t.Fatalf("stage_runs_total(error)=%v, want 1", got)
		}
		if got := metricCounterValue(t, c.StageErrors.WithLabelValues("read-config", "E202")); got != 1 {
			t.Fatalf("stage_errors_total(E202)=%v, want 1", got)
		}
	})

	t.Run("uncoded error is labeled unknown", func(t *testing.T) {
		resetGlobalMetricsForTest()
		reg := prometheus.NewRegistry()

		mw := Prometheus(WithRegistry(reg))
		_ = mw.Handle(newStage(pages.StagePatch), func() error { return stderrors.New("boom") })

		c := GetMetrics()
		if got := metricCounterValue(t, c.StageErrors.WithLabelValues("patch", "unknown")); got != 1 {
			t.Fatalf("stage_errors_total(unknown)=%v, want 1", got)
		}
	})
}

func TestPrometheusMiddleware_Gauges(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()
	mw := Prometheus(WithRegistry(reg))

	scan := newStage(pages.StageScan)
	_ = mw.Handle(scan, func() error {
		scan.Result.Pages = []string{"pages/a/page", "pages/b/page", "pages/@c/d/page"}
		return nil
	})

	group := newStage(pages.StageGroup)
	_ = mw.Handle(group, func() error {
		group.Result.SubBundles = []pages.SubBundle{{Root: "pages/@c", Pages: []string{"d/page"}}}
		return nil
	})

	c := GetMetrics()
	if got := metricGaugeValue(t, c.PagesFound); got != 3 {
		t.Fatalf("pages_discovered=%v, want 3", got)
	}
	if got := metricGaugeValue(t, c.SubBundles); got != 1 {
		t.Fatalf("sub_bundles=%v, want 1", got)
	}

	// A failed scan leaves the last good value.
	failed := newStage(pages.StageScan)
	_ = mw.Handle(failed, func() error { return errors.New(errors.CodeDiscovery) })
	if got := metricGaugeValue(t, c.PagesFound); got != 3 {
		t.Fatalf("pages_discovered=%v after failed scan, want 3", got)
	}
}

func TestPrometheusMiddleware_Namespace(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	mw := Prometheus(WithRegistry(reg), WithNamespace("shop"), WithSubsystem("codegen"))
	_ = mw.Handle(newStage(pages.StageRender), func() error { return nil })

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "shop_codegen_stage_runs_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected shop_codegen_stage_runs_total to be registered")
	}
}

func TestMetricsRecordFunctions_WithInitializedMetrics(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	_ = Prometheus(WithRegistry(reg)) // initialize global metrics
	c := GetMetrics()
	if c == nil {
		t.Fatal("expected GetMetrics to return collector after initialization")
	}

	RecordRegeneration(nil)
	RecordRegeneration(nil)
	RecordRegeneration(stderrors.New("boom"))
	RecordClientConnect()
	RecordClientConnect()
	RecordClientDisconnect()

	if got := metricCounterValue(t, c.Regenerations.WithLabelValues("success")); got != 2 {
		t.Fatalf("regenerations_total(success)=%v, want 2", got)
	}
	if got := metricCounterValue(t, c.Regenerations.WithLabelValues("error")); got != 1 {
		t.Fatalf("regenerations_total(error)=%v, want 1", got)
	}
	if got := metricGaugeValue(t, c.EventClients); got != 1 {
		t.Fatalf("event_clients=%v, want 1", got)
	}
}
