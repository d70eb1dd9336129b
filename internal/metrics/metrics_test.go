package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/biomarker-engine/pkg/types"
)

func TestObserver(t *testing.T) {
	pattern := ExtractionsTotal.WithLabelValues("ER", "pattern")
	fuzzy := ExtractionsTotal.WithLabelValues("HER2", "fuzzy")
	none := ExtractionsTotal.WithLabelValues("TMB", "none")
	before := []float64{testutil.ToFloat64(pattern), testutil.ToFloat64(fuzzy), testutil.ToFloat64(none)}

	Observer().ObserveReport(types.NewReport([]types.ReportEntry{
		{Name: "ER", Result: types.Found("90", types.ConfidencePattern, "")},
		{Name: "HER2", Result: types.Found("HER-Z", types.ConfidenceFuzzy, "")},
		{Name: "TMB", Result: types.Absent()},
	}))

	assert.Equal(t, before[0]+1, testutil.ToFloat64(pattern))
	assert.Equal(t, before[1]+1, testutil.ToFloat64(fuzzy))
	assert.Equal(t, before[2]+1, testutil.ToFloat64(none))
}

func TestObserveDocument(t *testing.T) {
	ok := DocumentsTotal.WithLabelValues("success")
	failed := DocumentsTotal.WithLabelValues("error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	ObserveDocument(time.Now(), nil)
	ObserveDocument(time.Now(), errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestObserveCache(t *testing.T) {
	hit := CacheLookupsTotal.WithLabelValues("hit")
	miss := CacheLookupsTotal.WithLabelValues("miss")
	hitBefore, missBefore := testutil.ToFloat64(hit), testutil.ToFloat64(miss)

	ObserveCache(true)
	ObserveCache(false)
	ObserveCache(false)

	assert.Equal(t, hitBefore+1, testutil.ToFloat64(hit))
	assert.Equal(t, missBefore+2, testutil.ToFloat64(miss))
}

func TestObserveRequest(t *testing.T) {
	c := HTTPRequestsTotal.WithLabelValues("/upload", "400")
	before := testutil.ToFloat64(c)
	ObserveRequest("/upload", 400)
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
