// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dossier/internal/platform/metrics"
)

/*
TestMetrics_Record verifies that helpers land on the expected series.
*/
func TestMetrics_Record(t *testing.T) {
	m := metrics.New()

	m.AuthRejected("expired")
	m.AuthRejected("expired")
	m.IndexRebuilt(nil, 10*time.Millisecond)
	m.IndexRebuilt(errors.New("boom"), time.Millisecond)
	m.QueryServed(metrics.QueryDegraded)
	m.Uploaded(128)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	series := map[string]int{}
	for _, family := range families {
		series[family.GetName()] = len(family.GetMetric())
	}
	assert.Equal(t, 1, series["dossier_auth_rejections_total"])
	assert.Equal(t, 2, series["dossier_index_rebuilds_total"])

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	response, err := http.Get(server.URL)
	require.NoError(t, err)
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dossier_auth_rejections_total{reason="expired"} 2`)
	assert.Contains(t, string(body), `dossier_queries_total{outcome="degraded"} 1`)
	assert.Contains(t, string(body), `dossier_uploaded_bytes_total 128`)
}

/*
TestMetrics_NilSafe verifies that a nil *Metrics can be passed around freely.
*/
func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.AuthRejected("malformed")
		m.IndexRebuilt(nil, time.Second)
		m.QueryServed(metrics.QueryAnswered)
		m.Uploaded(1)
	})
}
