package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/jsat-analyzer/pkg/model"
	"github.com/ritzau/jsat-analyzer/pkg/pubsub"
	"github.com/ritzau/jsat-analyzer/pkg/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := NewServer(func(p pubsub.Publisher) *session.Session {
		return session.New(session.WithPublisher(p))
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.publisher.Close()
		ts.Close()
	})
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func addNode(t *testing.T, ts *httptest.Server, typ, label string) model.Node {
	t.Helper()
	status, body := call(t, ts, "POST", "/api/nodes", map[string]any{"type": typ, "label": label})
	require.Equal(t, http.StatusCreated, status, string(body))
	var n model.Node
	require.NoError(t, json.Unmarshal(body, &n))
	return n
}

func TestNodeAndEdgeLifecycle(t *testing.T) {
	ts := newTestServer(t)
	f := addNode(t, ts, "function", "F1")
	r := addNode(t, ts, "Resource", "R1")
	assert.Equal(t, model.LayerDistributed, f.Layer)
	assert.Equal(t, model.LayerBase, r.Layer)

	status, body := call(t, ts, "POST", "/api/edges", map[string]any{"source": f.ID, "target": r.ID, "type": "hard"})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = call(t, ts, "POST", "/api/edges/1/2/flip", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"type":"soft"`)

	status, body = call(t, ts, "GET", "/api/metrics/Density", nil)
	require.Equal(t, http.StatusOK, status)
	var m metricResponse
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, "0.500", m.Value)
	assert.Equal(t, "ok", m.Status)
	assert.NotEmpty(t, m.Description)

	status, _ = call(t, ts, "DELETE", "/api/nodes/2", nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = call(t, ts, "DELETE", "/api/edges/1/2", nil)
	assert.Equal(t, http.StatusNotFound, status, "edge should be gone with its node")

	status, body = call(t, ts, "POST", "/api/undo", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"changed": true}`, string(body))
	status, body = call(t, ts, "GET", "/api/graph", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"label":"R1"`)
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	f := addNode(t, ts, "Function", "F1")
	f2 := addNode(t, ts, "Function", "F2")

	status, _ := call(t, ts, "POST", "/api/edges", map[string]any{"source": f.ID, "target": f2.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, ts, "PATCH", "/api/nodes/99", map[string]any{"label": "x"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, ts, "POST", "/api/agents", map[string]any{"name": "A"})
	assert.Equal(t, http.StatusCreated, status)
	status, _ = call(t, ts, "POST", "/api/agents", map[string]any{"name": "A"})
	assert.Equal(t, http.StatusConflict, status)
	status, _ = call(t, ts, "DELETE", "/api/agents/Unassigned", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = call(t, ts, "PUT", "/api/document", `{"GraphData": {"Nodes": []}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, ts, "POST", "/api/nodes", `{"type": "Widget"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, ts, "GET", "/api/compare?arch=missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAgentsAndHighlights(t *testing.T) {
	ts := newTestServer(t)
	f := addNode(t, ts, "Function", "F1")
	r := addNode(t, ts, "Resource", "R1")
	call(t, ts, "POST", "/api/edges", map[string]any{"source": f.ID, "target": r.ID})
	call(t, ts, "POST", "/api/agents", map[string]any{"name": "Pilot", "color": "blue"})

	status, body := call(t, ts, "POST", "/api/nodes/1/agents/Pilot", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = call(t, ts, "PATCH", "/api/agents/Pilot", map[string]any{"name": "Captain"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"name":"Captain"`)

	status, _ = call(t, ts, "PATCH", "/api/agents/Captain", map[string]any{"color": "red", "name": "Unassigned"})
	assert.Equal(t, http.StatusConflict, status)
	_, body = call(t, ts, "GET", "/api/graph", nil)
	assert.Contains(t, string(body), `"name":"Captain","color":"blue"`)
	assert.NotContains(t, string(body), `"red"`)

	status, body = call(t, ts, "GET", "/api/highlights?mode=cycle&index=-1", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"groups":[]`)

	status, body = call(t, ts, "POST", "/api/highlights/toggle", map[string]any{"mode": "interdependence"})
	require.Equal(t, http.StatusOK, status)
	var resp struct {
		Active *struct {
			Mode string `json:"mode"`
		} `json:"active"`
		Groups []struct {
			Edges []model.EdgeKey `json:"edges"`
			Color string          `json:"color"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotNil(t, resp.Active)
	assert.Equal(t, "interdependence", resp.Active.Mode)
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, []model.EdgeKey{{From: f.ID, To: r.ID}}, resp.Groups[0].Edges)

	// Toggling again clears the selection
	_, body = call(t, ts, "POST", "/api/highlights/toggle", map[string]any{"mode": "interdependence"})
	assert.JSONEq(t, `{"active": null, "groups": []}`, string(body))
}

func TestDocumentAndComparison(t *testing.T) {
	ts := newTestServer(t)
	doc := `{"GraphData": {
		"Nodes": {"F1": {"Type": "SynchronyFunction"}, "R1": {"Type": "BaseEnvironmentResource"}},
		"Edges": [{"Source": "F1", "Target": "R1", "UserData": {"type": "hard"}},
		          {"Source": "F1", "Target": "Ghost"}],
		"Agents": {}}}`
	status, body := call(t, ts, "PUT", "/api/document", doc)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"item":"F1 -> Ghost"`)

	status, body = call(t, ts, "GET", "/api/document", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"SynchronyFunction"`)

	status, _ = call(t, ts, "POST", "/api/architectures", map[string]any{"name": "baseline"})
	require.Equal(t, http.StatusCreated, status)
	status, body = call(t, ts, "GET", "/api/compare", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"columns":["Current","baseline"]`)

	status, body = call(t, ts, "GET", "/api/compare/node/R1?arch=baseline", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `{"metric":"In-Degree","values":["1"]}`)
}

func TestPrometheusMetrics(t *testing.T) {
	ts := newTestServer(t)
	addNode(t, ts, "Function", "F1")
	call(t, ts, "GET", "/api/nodes/1/metrics", nil)

	status, body := call(t, ts, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	text := string(body)
	assert.Contains(t, text, "jsat_graph_nodes 1")
	assert.Contains(t, text, `jsat_http_requests_total{method="POST",path="/api/nodes",status="201"} 1`)
	assert.Contains(t, text, `jsat_graph_mutations_total{op="add node",outcome="ok"} 1`)
}

func TestSubscribeStreamsDiffs(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/subscribe/graph", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, ": connected", lines.Text())

	// The graph topic replays its last event, so the diff arrives whether
	// the subscription registers before or after the mutation
	addNode(t, ts, "Resource", "R1")

	for lines.Scan() {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event pubsub.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
		assert.Equal(t, pubsub.EventGraphDiff, event.Type)
		assert.Contains(t, string(event.Data), `"label":"R1"`)
		return
	}
	t.Fatalf("stream ended without an event: %v", lines.Err())
}
