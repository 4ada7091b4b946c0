package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-simulator/internal/profile"
	"github.com/xtding233/gacha-simulator/internal/simulator"
)

const defaultYAML = `
version: "1"
table:
  - {grade: S, label: Crown, weight: 5}
  - {grade: A, label: Shield, weight: 95}
draw:
  count: 100
  pity_limit: 20
synthesis:
  rates: {A: 18}
  pity: 5
  count: 20
  start_grade: A
`

func newTestServer(t *testing.T) (*echo.Echo, *logtest.Hook) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles", "default.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(defaultYAML), 0o644))

	logger, hook := logtest.NewNullLogger()
	log := logrus.NewEntry(logger)
	svc := simulator.NewService(profile.NewLoader(dir, log), simulator.Options{MaxTrials: 10_000, BatchWorkers: 2, Logger: log})
	return NewServer(svc, log), hook
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	e, _ := newTestServer(t)
	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestGetProfile(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/v1/profiles/default", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p profile.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "default", p.Name)
	assert.Equal(t, 20, p.PityLimit)
	require.Len(t, p.Table, 2)
	assert.Equal(t, "A", p.Table[0].Grade)

	rec = do(e, http.MethodGet, "/v1/profiles/event", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraws(t *testing.T) {
	e, hook := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/draws", strings.NewReader(`{"seed": 3, "count": 40}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(headerRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Profile  string `json:"profile"`
		Outcomes []struct {
			Trial int    `json:"trial"`
			Grade string `json:"grade"`
		} `json:"outcomes"`
		Summary struct {
			Draws int `json:"draws"`
			Cost  struct {
				Bundles int    `json:"bundles"`
				Total   string `json:"total"`
			} `json:"cost"`
		} `json:"summary"`
		Meta MetaResp `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "default", resp.Profile)
	assert.Len(t, resp.Outcomes, 40)
	assert.Equal(t, 40, resp.Summary.Draws)
	assert.Equal(t, 4, resp.Summary.Cost.Bundles)
	assert.Equal(t, "110000", resp.Summary.Cost.Total)
	assert.Equal(t, "req-1", resp.Meta.RequestID)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "request", entry.Message)
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}

func TestSynthesis(t *testing.T) {
	e, _ := newTestServer(t)
	rec := do(e, http.MethodPost, "/v1/synthesis", `{"seed": 1, "attempts": 12, "start_grade": "SR"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SynthesisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.DegradedPity)
	assert.Equal(t, 2, resp.Summary.PitySuccesses)
	assert.Len(t, resp.Outcomes, 12)
}

func TestBatches(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodPost, "/v1/batch/draws", `{"seed": 1, "runs": 25}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, simulator.KindDraws, resp.Kind)
	assert.Equal(t, 25, resp.Result.Runs)

	rec = do(e, http.MethodPost, "/v1/batch/synthesis", `{"seed": 1, "runs": 25}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestErrorMapping(t *testing.T) {
	e, _ := newTestServer(t)
	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"unknown profile", "/v1/draws", `{"profile": "nope"}`, http.StatusNotFound},
		{"bad profile name", "/v1/draws", `{"profile": "a.b"}`, http.StatusBadRequest},
		{"zero pity", "/v1/draws", `{"pity_limit": 0}`, http.StatusBadRequest},
		{"start grade off the ladder", "/v1/synthesis", `{"start_grade": "Z"}`, http.StatusBadRequest},
		{"no runs", "/v1/batch/draws", `{}`, http.StatusBadRequest},
		{"over trial limit", "/v1/batch/draws", `{"runs": 1000}`, http.StatusBadRequest},
		{"malformed body", "/v1/draws", `{"count": "many"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			var er ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
			assert.NotEmpty(t, er.Error)
			assert.NotEmpty(t, er.RequestID)
		})
	}
}

type failingSimulator struct{ Simulator }

func (failingSimulator) RunDraws(context.Context, simulator.Request) (simulator.DrawReport, error) {
	return simulator.DrawReport{}, errors.New("disk on fire")
}

func TestInternalErrorIsHidden(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	e := NewServer(failingSimulator{}, logrus.NewEntry(logger))

	rec := do(e, http.MethodPost, "/v1/draws", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")

	entries := hook.AllEntries()
	require.NotEmpty(t, entries)
	assert.Equal(t, logrus.ErrorLevel, entries[0].Level)
	assert.Equal(t, "internal error", entries[0].Message)
}

func TestNewServer_NilLogger(t *testing.T) {
	e := NewServer(failingSimulator{}, nil)
	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestID(t *testing.T) {
	e, hook := newTestServer(t)

	rec := do(e, http.MethodGet, "/healthz", "")
	generated := rec.Header().Get(headerRequestID)
	require.NotEmpty(t, generated)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, generated, hook.LastEntry().Data["request_id"])

	rec = do(e, http.MethodPost, "/v1/draws", `{"profile": "nope"}`)
	assert.NotEqual(t, generated, rec.Header().Get(headerRequestID))
	assert.Equal(t, http.StatusNotFound, hook.LastEntry().Data["status"])
	assert.Equal(t, "/v1/draws", hook.LastEntry().Data["path"])
}
