package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupsched/internal/config"
	"groupsched/internal/model"
	"groupsched/internal/store"
)

func testServer(t *testing.T, cfg *config.Config) (*Server, *store.Store) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Normalize()

	st, err := store.Open(filepath.Join(t.TempDir(), "workspace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return NewServer(cfg, st), st
}

func addSchedule(t *testing.T, st *store.Store, name string, slots ...model.Slot) {
	t.Helper()
	g := model.NewGrid(model.DefaultWindow)
	for _, s := range slots {
		require.NoError(t, g.Set(s))
	}
	_, err := st.Add(model.ParticipantSchedule{Name: name, Grid: g})
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestUploadAndHeatmap(t *testing.T) {
	s, _ := testServer(t, nil)

	body := "username\tday\tday_name\thour\nAda\t0\tMonday\t10\n"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/schedules", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Name  string `json:"name"`
		Slots int    `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Ada", created.Name)
	assert.Equal(t, 1, created.Slots)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/heatmap", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var heat heatmapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &heat))
	assert.Equal(t, 1, heat.TotalParticipants)
	assert.Equal(t, 9, heat.StartHour)
	assert.Len(t, heat.Cells, 7*11)

	var mon10 *cellDTO
	for i := range heat.Cells {
		if heat.Cells[i].Day == 0 && heat.Cells[i].Hour == 10 {
			mon10 = &heat.Cells[i]
		}
	}
	require.NotNil(t, mon10)
	assert.Equal(t, 1, mon10.Count)
	assert.Equal(t, []string{"Ada"}, mon10.Participants)
}

func TestUploadRejectsMalformed(t *testing.T) {
	s, _ := testServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/schedules", strings.NewReader("garbage\n")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRankOrdering(t *testing.T) {
	s, st := testServer(t, nil)
	mon10 := model.Slot{Day: model.Monday, Hour: 10}
	mon11 := model.Slot{Day: model.Monday, Hour: 11}
	addSchedule(t, st, "A", mon10)
	addSchedule(t, st, "B", mon10, mon11)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rank", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp rankResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalParticipants)
	require.Len(t, resp.Ranked, 2)
	assert.Equal(t, 10, resp.Ranked[0].Hour)
	assert.Equal(t, 2, resp.Ranked[0].Count)
	assert.InDelta(t, 100.0, resp.Ranked[0].Percentage, 0.01)
	require.Len(t, resp.PerfectMatches, 1)
	assert.Equal(t, 10, resp.PerfectMatches[0].Hour)
}

func TestCacheInvalidationOnUpload(t *testing.T) {
	s, _ := testServer(t, nil)

	// Prime the cache with an empty workspace.
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/heatmap", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := "username\tday\tday_name\thour\nAda\t0\tMonday\t10\n"
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/schedules", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/heatmap", nil))
	var heat heatmapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &heat))
	assert.Equal(t, 1, heat.TotalParticipants)
}

func TestDeleteSchedules(t *testing.T) {
	s, st := testServer(t, nil)
	addSchedule(t, st, "Ada", model.Slot{Day: model.Monday, Hour: 10})
	addSchedule(t, st, "Bob", model.Slot{Day: model.Monday, Hour: 11})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/schedules?name=Ada", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/schedules?name=Ada", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/schedules?all=1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedules", nil))
	var resp schedulesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Participants)
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "org", Password: "secret"}
	s, _ := testServer(t, cfg)

	// /health stays open.
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// API requires credentials.
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedules", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/schedules", nil)
	req.SetBasicAuth("org", "secret")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownAPIPathIs404(t *testing.T) {
	s, _ := testServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
