package server

import (
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heatsink/config"
	"heatsink/correction"
	"heatsink/model"
)

const defaultTj = 97.49486366231099

func testPredictor(t *testing.T) *correction.Model {
	t.Helper()
	var mean, std correction.Features
	for i := range std {
		std[i] = 1
	}
	m, err := correction.New(correction.NewNetwork(rand.New(rand.NewSource(1))), mean, std)
	require.NoError(t, err)
	return m
}

func newTestServer(t *testing.T, predictor *correction.Model) *httptest.Server {
	t.Helper()
	s := NewServer(config.ServerConfig{Addr: ":0"}, websocket.Upgrader{}, predictor)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestDefaultEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/default")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.AnalyzeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.InDelta(t, defaultTj, out.TjPhysics, 1e-9)
	assert.Equal(t, out.TjPhysics, out.TjExcel)
	assert.Equal(t, "laminar", string(out.Details.Regime))
}

func TestAnalyzeEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := post(t, ts.URL+"/api/analyze", `{"processor": {"tdp": 0}, "unknown": 1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out model.AnalyzeResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.InDelta(t, 25.0, out.TjPhysics, 1e-12)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Contains(t, raw, "Tj_physics")
	assert.Contains(t, raw, "Tj_excel")
	details := raw["details"].(map[string]interface{})
	for _, key := range []string{"Re", "Nu", "h", "A_total", "R_conv", "regime"} {
		assert.Contains(t, details, key)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	cases := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"single fin", `{"heat_sink": {"num_fins": 1}}`, http.StatusUnprocessableEntity, "invalid_geometry"},
		{"still air", `{"air": {"velocity": 0}}`, http.StatusUnprocessableEntity, "numerical_degeneracy"},
		{"wrong type", `{"processor": {"tdp": "a lot"}}`, http.StatusBadRequest, "invalid_input"},
		{"negative velocity", `{"air": {"velocity": -1}}`, http.StatusBadRequest, "invalid_input"},
		{"broken json", `{"air": `, http.StatusBadRequest, "invalid_input"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := post(t, ts.URL+"/api/analyze", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			var out model.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, tc.kind, out.Kind)
			assert.NotEmpty(t, out.Error)
			assert.NotContains(t, string(body), "Tj_physics")
		})
	}
}

func TestPredictWithoutModel(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := post(t, ts.URL+"/api/predict", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "model_unavailable")

	// analyze keeps working
	resp, _ = post(t, ts.URL+"/api/analyze", `{}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPredictReportsLoadFailure(t *testing.T) {
	_, loadErr := correction.Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, loadErr, correction.ErrModelLoad)

	s := NewServer(config.ServerConfig{Addr: ":0"}, websocket.Upgrader{}, nil)
	s.SetLoadError(loadErr)
	_, err := s.dispatch(model.MsgPredict, model.Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPredictUnavailable)
	assert.ErrorIs(t, err, correction.ErrModelLoad)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(err))

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	resp, body := post(t, ts.URL+"/api/predict", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var out model.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "model_unavailable", out.Kind)
	assert.Contains(t, out.Error, "missing.json")
}

func TestPredictEndpoint(t *testing.T) {
	ts := newTestServer(t, testPredictor(t))

	resp, body := post(t, ts.URL+"/api/predict", `{"air": {"velocity": 2}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out model.PredictResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, out.TjPhysics+out.DeltaT, out.TjCorrected)
	assert.Less(t, out.DeltaT, correction.Scale)
	assert.Greater(t, out.DeltaT, -correction.Scale)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/api/analyze")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg model.Msg) model.Msg {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
	var reply model.Msg
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestWebsocketHub(t *testing.T) {
	ts := newTestServer(t, testPredictor(t))
	conn := dial(t, ts)

	reply := roundTrip(t, conn, model.Msg{Type: model.MsgDefault})
	require.Equal(t, model.MsgDefaulted, reply.Type)
	var def model.AnalyzeResponse
	require.NoError(t, json.Unmarshal([]byte(reply.Content), &def))
	assert.InDelta(t, defaultTj, def.TjPhysics, 1e-9)

	reply = roundTrip(t, conn, model.Msg{Type: model.MsgAnalyze, Content: `{"air": {"velocity": 3}}`})
	require.Equal(t, model.MsgAnalyzed, reply.Type)
	var analyzed model.AnalyzeResponse
	require.NoError(t, json.Unmarshal([]byte(reply.Content), &analyzed))
	assert.Less(t, analyzed.TjPhysics, def.TjPhysics)

	reply = roundTrip(t, conn, model.Msg{Type: model.MsgPredict, Content: `{}`})
	require.Equal(t, model.MsgPredicted, reply.Type)
	var predicted model.PredictResponse
	require.NoError(t, json.Unmarshal([]byte(reply.Content), &predicted))
	assert.Equal(t, predicted.TjPhysics+predicted.DeltaT, predicted.TjCorrected)

	reply = roundTrip(t, conn, model.Msg{Type: model.MsgAnalyze, Content: `{"heat_sink": {"num_fins": 1}}`})
	require.Equal(t, model.MsgError, reply.Type)
	assert.Contains(t, reply.Content, "invalid_geometry")

	reply = roundTrip(t, conn, model.Msg{Type: "start"})
	require.Equal(t, model.MsgError, reply.Type)
	assert.Contains(t, reply.Content, "no such type")
}

func TestWebsocketPredictWithoutModel(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := dial(t, ts)

	reply := roundTrip(t, conn, model.Msg{Type: model.MsgPredict})
	require.Equal(t, model.MsgError, reply.Type)
	assert.Contains(t, reply.Content, "model_unavailable")
}
