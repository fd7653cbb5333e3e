package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiforge/epidamp/internal/monitoring"
	"github.com/epiforge/epidamp/internal/store"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return setupRouter(st, monitoring.NewMetrics(), monitoring.NewLogger())
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleScenarioBody() map[string]interface{} {
	return map[string]interface{}{
		"name": "spring lockdown",
		"rows": 2,
		"cols": 2,
		"dampings": []map[string]interface{}{
			{"level": 7, "type": 3, "time": 0.5, "shape": "scalar", "scalar": 0.25},
			{"level": 13, "type": 3, "time": 2.0, "shape": "matrix",
				"matrix": [][]float64{{0.25, 0.5}, {0.75, 1}}},
		},
	}
}

func createScenario(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, "POST", "/api/v1/scenarios", sampleScenarioBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestHealthEndpoint(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Contains(t, resp, "metrics")
}

func TestCreateScenario(t *testing.T) {
	r := testRouter(t)
	id := createScenario(t, r)

	w := doJSON(t, r, "GET", "/api/v1/scenarios/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var sc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sc))
	assert.Equal(t, "spring lockdown", sc["name"])
	assert.Len(t, sc["dampings"], 2)
}

func TestCreateScenarioRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{
			name: "zero dimensions",
			body: map[string]interface{}{"rows": 0, "cols": 0},
		},
		{
			name: "matrix dims mismatch",
			body: map[string]interface{}{
				"rows": 2, "cols": 2,
				"dampings": []map[string]interface{}{
					{"level": 0, "type": 0, "time": 1, "shape": "matrix",
						"matrix": [][]float64{{0.1, 0.2, 0.3}}},
				},
			},
		},
		{
			name: "shape conflict in one series",
			body: map[string]interface{}{
				"rows": 2, "cols": 2,
				"dampings": []map[string]interface{}{
					{"level": 0, "type": 0, "time": 1, "shape": "scalar", "scalar": 0.2},
					{"level": 0, "type": 0, "time": 2, "shape": "vector", "vector": []float64{0.1, 0.2}},
				},
			},
		},
	}

	r := testRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, "POST", "/api/v1/scenarios", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetUnknownScenario(t *testing.T) {
	r := testRouter(t)
	w := doJSON(t, r, "GET", "/api/v1/scenarios/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMatrix(t *testing.T) {
	r := testRouter(t)
	id := createScenario(t, r)

	w := doJSON(t, r, "GET", fmt.Sprintf("/api/v1/scenarios/%s/matrix?t=%g", id, 1e5), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Rows   int         `json:"rows"`
		Cols   int         `json:"cols"`
		Matrix [][]float64 `json:"matrix"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Rows)
	assert.Equal(t, 2, resp.Cols)

	// 0.25 + M - 0.25*M elementwise for the stored matrix M
	m := [][]float64{{0.25, 0.5}, {0.75, 1}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := 0.25 + m[i][j] - 0.25*m[i][j]
			assert.InDelta(t, want, resp.Matrix[i][j], 1e-12)
		}
	}
}

func TestGetMatrixRequiresTime(t *testing.T) {
	r := testRouter(t)
	id := createScenario(t, r)

	w := doJSON(t, r, "GET", "/api/v1/scenarios/"+id+"/matrix", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "GET", "/api/v1/scenarios/"+id+"/matrix?t=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddDamping(t *testing.T) {
	r := testRouter(t)
	id := createScenario(t, r)

	w := doJSON(t, r, "POST", "/api/v1/scenarios/"+id+"/dampings", map[string]interface{}{
		"level": 7, "type": 4, "time": 5.0, "shape": "vector", "vector": []float64{0.1, 0.2},
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// conflicting shape for an existing series is rejected
	w = doJSON(t, r, "POST", "/api/v1/scenarios/"+id+"/dampings", map[string]interface{}{
		"level": 7, "type": 3, "time": 9.0, "shape": "vector", "vector": []float64{0.1, 0.2},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "GET", "/api/v1/scenarios/"+id, nil)
	var sc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sc))
	assert.Len(t, sc["dampings"], 3)
}

func TestSimulate(t *testing.T) {
	r := testRouter(t)
	id := createScenario(t, r)

	w := doJSON(t, r, "POST", "/api/v1/scenarios/"+id+"/simulate", map[string]interface{}{
		"t0":                0.0,
		"tmax":              10.0,
		"latent_time":       3.0,
		"carrier_time":      2.0,
		"infectious_time":   6.0,
		"transmission_risk": 0.1,
		"baseline_contacts": [][]float64{{8, 2}, {2, 8}},
		"population":        []float64{10000, 20000},
		"exposed":           []float64{100, 50},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Times  []float64   `json:"times"`
		Values [][]float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Times)
	assert.Equal(t, 0.0, resp.Times[0])
	assert.Equal(t, 10.0, resp.Times[len(resp.Times)-1])
	assert.Len(t, resp.Values[0], 10, "2 groups x 5 compartments")
}

func TestSimulateRejectsMismatchedDimensions(t *testing.T) {
	r := testRouter(t)
	id := createScenario(t, r)

	// one group against a 2x2 scenario container
	w := doJSON(t, r, "POST", "/api/v1/scenarios/"+id+"/simulate", map[string]interface{}{
		"t0":                0.0,
		"tmax":              10.0,
		"latent_time":       3.0,
		"carrier_time":      2.0,
		"infectious_time":   6.0,
		"transmission_risk": 0.1,
		"baseline_contacts": [][]float64{{8}},
		"population":        []float64{10000},
		"exposed":           []float64{100},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteScenario(t *testing.T) {
	r := testRouter(t)
	id := createScenario(t, r)

	w := doJSON(t, r, "DELETE", "/api/v1/scenarios/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, "GET", "/api/v1/scenarios/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
