package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector("workspace")

	c.ObserveChat(OutcomeOK, 300*time.Millisecond)
	c.ObserveChat(OutcomeOK, time.Second)
	c.ObserveChat(OutcomeFailed, time.Second)
	c.RecordDocumentChange("imported", 12)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ChatRequests.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ChatRequests.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.DocumentChanges.WithLabelValues("imported")))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `workspace_chat_requests_total{outcome="ok"} 2`)
	assert.Contains(t, string(body), "workspace_chat_request_duration_seconds_count 3")
}

func TestCollector_Independent(t *testing.T) {
	a := NewCollector("a")
	b := NewCollector("a")
	a.RecordDocumentChange("created", 1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.DocumentChanges.WithLabelValues("created")))
}
