// Package intake turns user-selected image files into staged files: each one
// gets a stable client-side id and whatever EXIF metadata it carries.
package intake

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"github.com/aerialops/uplink/internal/models"
)

// ErrUnreadableImage marks a file whose binary cannot be parsed as an image
// at all. It is a per-file condition: the caller excludes the file and keeps
// going, it never aborts the whole intake.
var ErrUnreadableImage = errors.New("unreadable image")

// Report is the outcome of staging a directory: the files that made it in,
// plus per-file errors for the ones that did not.
type Report struct {
	Files  []*models.StagedFile
	Errors map[string]error
}

// Stage reads one image file and produces a StagedFile. Missing EXIF tags
// are not an error; an unparseable binary is, wrapping ErrUnreadableImage.
func Stage(path string) (*models.StagedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableImage, filepath.Base(path), err)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableImage, filepath.Base(path), err)
	}

	m := extractMetadata(bytes.NewReader(data))

	return &models.StagedFile{
		ID:          uuid.NewString(),
		Name:        filepath.Base(path),
		Path:        path,
		DateTime:    m.DateTime,
		Coordinates: m.Coordinates,
	}, nil
}

// StageDir stages every image file directly under dir, in name order.
// Files that fail to parse are recorded in the report and skipped.
func StageDir(dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	report := &Report{Errors: make(map[string]error)}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isImageName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		sf, err := Stage(filepath.Join(dir, name))
		if err != nil {
			report.Errors[name] = err
			continue
		}
		report.Files = append(report.Files, sf)
	}

	return report, nil
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
