package intake

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDateTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"exif timestamp", "2024:01:02 10:20:30", "2024-01-02T10:20:30"},
		{"already normalized", "2024-01-02T10:20:30", "2024-01-02T10:20:30"},
		{"empty", "", ""},
		{"time colons untouched", "2023:12:31 23:59:59", "2023-12-31T23:59:59"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeDateTime(tt.in))
			// Substitution is idempotent.
			require.Equal(t, tt.want, NormalizeDateTime(NormalizeDateTime(tt.in)))
		})
	}
}

func TestSignedDegrees(t *testing.T) {
	require.Equal(t, -12.5, signedDegrees(12.5, "S"))
	require.Equal(t, 12.5, signedDegrees(12.5, "N"))
	require.Equal(t, -103.25, signedDegrees(103.25, "W"))
	require.Equal(t, 103.25, signedDegrees(103.25, "E"))
	// Unknown refs leave the value positive rather than guessing.
	require.Equal(t, 1.0, signedDegrees(1.0, ""))
}

func TestPairCoordinates(t *testing.T) {
	lat, lon := 1.5, -2.5

	c := pairCoordinates(&lat, &lon)
	require.NotNil(t, c)
	require.Equal(t, 1.5, c.Latitude)
	require.Equal(t, -2.5, c.Longitude)

	// A partial pair is treated as no coordinates at all.
	require.Nil(t, pairCoordinates(&lat, nil))
	require.Nil(t, pairCoordinates(nil, &lon))
	require.Nil(t, pairCoordinates(nil, nil))
}
