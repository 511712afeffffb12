package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordIntent("wedding", "en")
	m.RecordIntent("wedding", "en")
	m.RecordCatalogFetch("store", 6)
	m.RecordNotification("confirmation", "link", errors.New("boom"))
	m.RecordHTTPRequest("POST", "/api/chat", 200, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MatcherIntentsTotal.WithLabelValues("wedding", "en")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogFetchesTotal.WithLabelValues("store")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.CatalogSize))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("confirmation", "link", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/chat", "200")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordIntent("default", "en")
		m.RecordOrderPlaced()
		m.RecordTransition("shipped", nil)
		m.RecordTranscription(nil)
	})
}
