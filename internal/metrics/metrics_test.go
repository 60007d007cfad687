package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupExportsRecordedMetrics(t *testing.T) {
	m, handler, err := Setup("blog-test")
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordHTTPRequest(ctx, http.MethodGet, "/post/{postID}", http.StatusOK, 15*time.Millisecond)
	m.RecordPostEvent(ctx, "created")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `blog_post_events_total{action="created"`)
	assert.Contains(t, body, "blog_http_requests_total")
	assert.Contains(t, body, "blog_http_duration_seconds")
}

func TestSetupTwice(t *testing.T) {
	_, _, err := Setup("blog-test")
	require.NoError(t, err)
	_, _, err = Setup("blog-test")
	assert.NoError(t, err)
}
