package intake

import (
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/aerialops/uplink/internal/models"
)

// metadata is what intake pulls out of a file's EXIF block. Absent tags are
// represented by the zero values, never by an error.
type metadata struct {
	DateTime    string
	Coordinates *models.Coordinates
}

// NormalizeDateTime converts an EXIF timestamp ("2024:01:02 10:20:30") to
// ISO-8601 ("2024-01-02T10:20:30"). Only the date-segment colons are
// substituted; calling it on an already-normalized value is a no-op.
func NormalizeDateTime(s string) string {
	date, clock, found := strings.Cut(s, " ")
	if !found {
		return s
	}
	return strings.ReplaceAll(date, ":", "-") + "T" + clock
}

// signedDegrees applies the hemisphere reference to an absolute coordinate:
// "S" and "W" are negative, "N" and "E" positive.
func signedDegrees(deg float64, ref string) float64 {
	if ref == "S" || ref == "W" {
		return -deg
	}
	return deg
}

// degrees converts a degrees/minutes/seconds rational triple to decimal.
func degrees(tag *tiff.Tag) (float64, error) {
	if tag.Count < 3 {
		return 0, fmt.Errorf("gps tag has %d rationals, want 3", tag.Count)
	}
	divisors := []float64{1, 60, 3600}
	var out float64
	for i := 0; i < 3; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return 0, err
		}
		if den == 0 {
			return 0, fmt.Errorf("gps rational %d has zero denominator", i)
		}
		out += float64(num) / float64(den) / divisors[i]
	}
	return out, nil
}

// extractMetadata reads the EXIF block and pulls out capture time and GPS
// position. Missing or malformed tags degrade to empty values: a file with
// no usable EXIF is still a valid staged file.
func extractMetadata(r io.Reader) metadata {
	var m metadata

	x, err := exif.Decode(r)
	if err != nil {
		return m
	}

	if tag, err := x.Get(exif.DateTime); err == nil {
		if s, err := tag.StringVal(); err == nil {
			m.DateTime = NormalizeDateTime(s)
		}
	}

	m.Coordinates = extractCoordinates(x)
	return m
}

// extractCoordinates returns nil unless both latitude and longitude resolve.
func extractCoordinates(x *exif.Exif) *models.Coordinates {
	lat := axis(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	lon := axis(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	return pairCoordinates(lat, lon)
}

// pairCoordinates builds a coordinate pair only when both halves are known.
// Partial coordinates are treated as no coordinates; the pipeline never
// guesses the missing half.
func pairCoordinates(lat, lon *float64) *models.Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	return &models.Coordinates{Longitude: *lon, Latitude: *lat}
}

// axis resolves one GPS axis to signed decimal degrees, or nil when the
// value or hemisphere tag is absent or malformed.
func axis(x *exif.Exif, value, ref exif.FieldName) *float64 {
	vTag, err := x.Get(value)
	if err != nil {
		return nil
	}
	deg, err := degrees(vTag)
	if err != nil {
		return nil
	}

	rTag, err := x.Get(ref)
	if err != nil {
		return nil
	}
	r, err := rTag.StringVal()
	if err != nil {
		return nil
	}

	signed := signedDegrees(deg, strings.TrimSpace(r))
	return &signed
}
