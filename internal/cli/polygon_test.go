package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeGeoJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "area.geojson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPolygon_FeatureCollection(t *testing.T) {
	path := writeGeoJSON(t, `{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"properties": {"name": "survey zone 3"},
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]
			}
		}]
	}`)

	p, err := loadPolygon(path)
	require.NoError(t, err)
	require.Len(t, p, 1)
	require.Len(t, p[0], 5)
}

func TestLoadPolygon_BareGeometry(t *testing.T) {
	path := writeGeoJSON(t, `{
		"type": "Polygon",
		"coordinates": [[[0,0],[1,0],[1,1],[0,0]]]
	}`)

	p, err := loadPolygon(path)
	require.NoError(t, err)
	require.Len(t, p, 1)
}

func TestLoadPolygon_MultiPolygonTakesFirst(t *testing.T) {
	path := writeGeoJSON(t, `{
		"type": "Feature",
		"geometry": {
			"type": "MultiPolygon",
			"coordinates": [
				[[[0,0],[1,0],[1,1],[0,0]]],
				[[[5,5],[6,5],[6,6],[5,5]]]
			]
		}
	}`)

	p, err := loadPolygon(path)
	require.NoError(t, err)
	require.Len(t, p, 1)
	require.Equal(t, 0.0, p[0][0][0])
}

func TestLoadPolygon_WrongGeometry(t *testing.T) {
	path := writeGeoJSON(t, `{
		"type": "Point",
		"coordinates": [1, 2]
	}`)

	_, err := loadPolygon(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "want Polygon")
}

func TestLoadPolygon_MissingFile(t *testing.T) {
	_, err := loadPolygon(filepath.Join(t.TempDir(), "missing.geojson"))
	require.Error(t, err)
}
