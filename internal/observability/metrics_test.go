package observability

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"gld-feature-lab/internal/domain"
)

func TestRecordFetch_Status(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordFetch("fred", time.Second, nil)
	m.RecordFetch("fred", time.Second, fmt.Errorf("wrapped: %w", domain.ErrFetchFailure))
	m.RecordFetch("yahoo", time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(m.FetchRequests.WithLabelValues("fred", "success")); got != 1 {
		t.Errorf("fred success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.FetchRequests.WithLabelValues("fred", "fetch_failure")); got != 1 {
		t.Errorf("fred fetch_failure = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.FetchRequests.WithLabelValues("yahoo", "error")); got != 1 {
		t.Errorf("yahoo error = %v, want 1", got)
	}
}

func TestRecordTable(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	tbl, err := domain.NewTable(
		[]time.Time{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		domain.Column{Name: "a", Values: []*float64{nil}},
		domain.Column{Name: "b", Values: []*float64{nil}},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	m.RecordTable(tbl, 2)

	if got := testutil.ToFloat64(m.TableRows); got != 1 {
		t.Errorf("rows = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TableColumns); got != 2 {
		t.Errorf("columns = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SparseColumns); got != 2 {
		t.Errorf("sparse = %v, want 2", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordFetch("fred", time.Second, nil)
	m.RecordPhase("fetch", time.Second, nil)
	m.RecordTable(nil, 0)
	m.RecordSuccess(time.Now())
	m.RecordExport()
	m.RecordArticles(1, 1)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("", reg)
	m.RecordPhase("align", 10*time.Millisecond, nil)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `gld_feature_lab_pipeline_runs_total{phase="align",status="success"} 1`) {
		t.Errorf("metrics output missing phase counter:\n%s", body)
	}
}
