// Package storage implements the image hosting collaborator used by the
// upload endpoint.  Images are normalized and written to a local
// directory that the HTTP server exposes statically; the returned URL is
// what clients store as poster_url / logo_url.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxEdge bounds the longer side of stored images.  Uploads are club
// logos and event posters; nothing needs more than this.
const maxEdge = 1600

// ImageStore writes normalized JPEG images under a base directory and
// maps them to public URLs under a base URL prefix.
type ImageStore struct {
	dir     string
	baseURL string
}

// NewImageStore creates the base directory if needed and returns a store.
func NewImageStore(dir, baseURL string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{dir: dir, baseURL: baseURL}, nil
}

// Dir returns the directory backing the store, for static file serving.
func (s *ImageStore) Dir() string { return s.dir }

// Save decodes the uploaded image, downscales anything larger than
// maxEdge on its longer side, re-encodes it as JPEG under a random name
// inside the given folder, and returns the public URL.  Re-encoding
// strips whatever bytes were hiding in the original container, so only
// real images ever land on disk.
func (s *ImageStore) Save(r io.Reader, folder string) (string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxEdge || bounds.Dy() > maxEdge {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}

	name := uuid.NewString() + ".jpg"
	if err := os.MkdirAll(filepath.Join(s.dir, folder), 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	dest := filepath.Join(s.dir, folder, name)
	if err := imaging.Save(img, dest, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"file":   dest,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	}).Info("image stored")

	return s.baseURL + "/" + folder + "/" + name, nil
}
