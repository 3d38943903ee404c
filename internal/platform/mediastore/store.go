package mediastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
)

const urlPrefix = "/storage"

// Store writes artifacts under a fixed filesystem layout and hands back the
// relative URL they are served at:
//
//	{root}/images/{jobID}.png   -> /storage/images/{jobID}.png
//	{root}/videos/{jobID}.mp4   -> /storage/videos/{jobID}.mp4
//	{root}/temp/{jobID}.{png|jpg}  (reference uploads, deleted after use)
type Store struct {
	root string
	log  *logger.Logger
}

func New(root string, baseLog *logger.Logger) (*Store, error) {
	for _, dir := range []string{"images", "videos", "temp"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("mediastore: create %s dir: %w", dir, err)
		}
	}
	return &Store{root: root, log: baseLog.With("service", "MediaStore")}, nil
}

func (s *Store) Root() string { return s.root }

func (s *Store) SaveImage(jobID string, data []byte) (string, error) {
	name := jobID + ".png"
	if err := os.WriteFile(filepath.Join(s.root, "images", name), data, 0o644); err != nil {
		return "", fmt.Errorf("mediastore: write image: %w", err)
	}
	return urlPrefix + "/images/" + name, nil
}

func (s *Store) SaveVideo(jobID string, data []byte) (string, error) {
	name := jobID + ".mp4"
	if err := os.WriteFile(filepath.Join(s.root, "videos", name), data, 0o644); err != nil {
		return "", fmt.Errorf("mediastore: write video: %w", err)
	}
	return urlPrefix + "/videos/" + name, nil
}

// SaveTemp persists an uploaded reference image and returns its absolute
// path. The extension follows the declared MIME type; anything that is not
// a JPEG is stored as .png.
func (s *Store) SaveTemp(jobID, mimeType string, data []byte) (string, error) {
	ext := ".png"
	if mimeType == "image/jpeg" || mimeType == "image/jpg" {
		ext = ".jpg"
	}
	path := filepath.Join(s.root, "temp", jobID+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("mediastore: write temp image: %w", err)
	}
	return path, nil
}

// RemoveByURL deletes the file behind a /storage/... URL. A missing file is
// not an error; asset deletion stays idempotent.
func (s *Store) RemoveByURL(fileURL string) error {
	rel, ok := strings.CutPrefix(fileURL, urlPrefix+"/")
	if !ok {
		return fmt.Errorf("mediastore: not a storage url: %q", fileURL)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("mediastore: invalid storage path: %q", fileURL)
	}
	err := os.Remove(filepath.Join(s.root, rel))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("mediastore: remove artifact: %w", err)
	}
	return nil
}

// RemoveTemp deletes a reference upload by absolute path; best effort.
func (s *Store) RemoveTemp(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
