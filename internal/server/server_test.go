package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/census-choropleth/internal/artifact"
	"github.com/sells-group/census-choropleth/internal/figstore"
	"github.com/sells-group/census-choropleth/internal/figure"
	"github.com/sells-group/census-choropleth/internal/normalize"
)

var testKey = artifact.Key{Year: 2021, Topic: "G01", Area: "AUST", DatumSpec: "GDA2020", BoundaryType: "SA4"}

func seededStore(t *testing.T) *figstore.Store {
	t.Helper()

	spec := normalize.ColumnSpec{Name: "Tot_P_P", Rename: "Total Persons", Type: normalize.TypeInt}
	table := &normalize.Table{
		ValueColumn: spec.Rename,
		ValueType:   spec.Type,
		Rows: []normalize.Row{{
			Location: "Brisbane Inner City",
			Value:    int64(2500000),
			Geometry: geom.NewMultiPolygonFlat(geom.XY,
				[]float64{153, -27, 153, -26, 154, -26, 154, -27, 153, -27},
				[][]int{{10}},
			),
		}},
	}
	fig, err := figure.Build(table, spec)
	require.NoError(t, err)

	store := figstore.New(t.TempDir())
	require.NoError(t, store.Save(testKey, fig, artifact.EncodingJSON))
	return store
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, New(figstore.New(t.TempDir()), Options{}), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestListFigures(t *testing.T) {
	rec := do(t, New(seededStore(t), Options{}), http.MethodGet, "/figures")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Figures []string `json:"figures"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"G01_SA4_2021_AUST_GDA2020"}, body.Figures)
}

func TestListFigures_Empty(t *testing.T) {
	rec := do(t, New(figstore.New(t.TempDir()), Options{}), http.MethodGet, "/figures")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"figures":[]}`, rec.Body.String())
}

func TestGetFigureJSON(t *testing.T) {
	rec := do(t, New(seededStore(t), Options{}), http.MethodGet, "/figures/G01_SA4_2021_AUST_GDA2020.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	fig, err := figure.Unmarshal(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []string{"Brisbane Inner City"}, fig.Data[0].Locations)
}

func TestGetFigureHTML(t *testing.T) {
	rec := do(t, New(seededStore(t), Options{}), http.MethodGet, "/figures/G01_SA4_2021_AUST_GDA2020.html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), figstore.PlotlyURL)
	assert.Contains(t, rec.Body.String(), "Brisbane Inner City")
}

func TestGetFigure_NotFound(t *testing.T) {
	s := New(seededStore(t), Options{})

	for _, target := range []string{
		"/figures/G02_SA4_2021_AUST_GDA2020.json",
		"/figures/G01_SA4_2021_AUST_GDA2020.png",
		"/figures/G01_SA4_2021_AUST_GDA2020",
	} {
		rec := do(t, s, http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestGetFigure_CorruptDocument(t *testing.T) {
	store := figstore.New(t.TempDir())
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "broken.json"), []byte("{"), 0o644))

	rec := do(t, New(store, Options{}), http.MethodGet, "/figures/broken.json")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORS(t *testing.T) {
	s := New(seededStore(t), Options{AllowedOrigins: []string{"https://maps.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/figures", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://maps.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	s := New(figstore.New(t.TempDir()), Options{RateLimit: 0.001, Burst: 2})

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, s, http.MethodGet, "/health").Code)
}
