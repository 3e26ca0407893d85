package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetglass/fleetglass/pkg/demo"
	"github.com/fleetglass/fleetglass/pkg/types"
)

func TestRestFetch(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"deployments": [{"name": "frontend"}, {"name": "api"}, {"name": "ingest"}]}`))
	}))
	defer srv.Close()

	s := NewRestSource(srv.URL, liveToken)
	items, err := s.Fetch(context.Background(), testFamily("deployments"), types.Scope{})
	require.NoError(t, err)

	assert.Len(t, items, 3)
	assert.Equal(t, "/api/v1/deployments", gotPath)
	assert.Equal(t, "Bearer session-token-abc", gotAuth)
}

func TestRestScopeParameters(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"pods": []}`))
	}))
	defer srv.Close()

	s := NewRestSource(srv.URL, liveToken)
	_, err := s.Fetch(context.Background(), testFamily("pods"), types.Scope{Cluster: "prod-east", Namespace: "default"})
	require.NoError(t, err)
	assert.Equal(t, "cluster=prod-east&namespace=default", gotQuery)
}

func TestRestDemoSentinelDisables(t *testing.T) {
	s := NewRestSource("http://127.0.0.1:1", func() string { return demo.TokenSentinel })
	assert.ErrorIs(t, s.Available(context.Background()), types.ErrSourceUnavailable)
}

func TestRestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewRestSource(srv.URL, liveToken)
	_, err := s.Fetch(context.Background(), testFamily("pods"), types.Scope{})
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestDemoSourceScopesItems(t *testing.T) {
	d := NewDemoSource(demo.NewProvider())

	require.NoError(t, d.Available(context.Background()))
	items, err := d.Fetch(context.Background(), testFamily("pods"), types.Scope{Cluster: "demo-west"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ingest-0", items[0].Name)
}
