// Package service contains business logic that sits between handlers and repositories.
package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"strings"
	"time"

	"photogram/internal/config"
	"photogram/internal/models"
)

const (
	// DefaultImageUploadDir is where uploaded images land when no directory
	// is configured. Files in it are served statically under /images/.
	DefaultImageUploadDir = "public/images"
	// DefaultImageMaxSizeKB caps uploads at 2048 KB.
	DefaultImageMaxSizeKB = 2048
)

// allowedExtensions is the accepted upload format set. Raster entries map to
// the format name reported by image.Decode; svg is validated by sniffing.
var allowedExtensions = map[string]string{
	"jpeg": "jpeg",
	"jpg":  "jpeg",
	"png":  "png",
	"gif":  "gif",
	"svg":  "",
}

// UploadImageInput carries one uploaded file through validation and storage.
type UploadImageInput struct {
	Filename string
	Content  []byte
}

// ImageService validates uploaded images and persists them to the public
// images directory under a timestamp-derived filename.
type ImageService struct {
	uploadDir    string
	maxSizeBytes int64
	now          func() time.Time
}

// NewImageService creates an ImageService from configuration.
func NewImageService(cfg *config.Config) *ImageService {
	uploadDir := DefaultImageUploadDir
	maxSizeKB := DefaultImageMaxSizeKB

	if cfg != nil {
		if cfg.ImageUploadDir != "" {
			uploadDir = cfg.ImageUploadDir
		}
		if cfg.ImageMaxSizeKB > 0 {
			maxSizeKB = cfg.ImageMaxSizeKB
		}
	}

	return &ImageService{
		uploadDir:    uploadDir,
		maxSizeBytes: int64(maxSizeKB) * 1024,
		now:          time.Now,
	}
}

// Store validates the upload and writes it to the public images directory.
// It returns the stored filename: the upload unix timestamp plus the
// original extension, matching how clients reference the file afterwards.
// Two uploads in the same second can collide; the second write wins. That is
// a documented property of the naming scheme, not an accident.
func (s *ImageService) Store(in UploadImageInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("An image file is required")
	}
	if int64(len(in.Content)) > s.maxSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("Image exceeds the maximum size of %d KB", s.maxSizeBytes/1024))
	}

	ext := normalizedExtension(in.Filename)
	wantFormat, ok := allowedExtensions[ext]
	if !ok {
		return "", models.NewValidationError("Image must be one of: jpeg, png, jpg, gif, svg")
	}

	if ext == "svg" {
		if !looksLikeSVG(in.Content) {
			return "", models.NewValidationError("File is not a valid SVG image")
		}
	} else {
		format, err := decodeFormat(in.Content)
		if err != nil || format != wantFormat {
			return "", models.NewValidationError("File is not a valid image")
		}
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}

	name := fmt.Sprintf("%d.%s", s.now().Unix(), ext)
	if err := os.WriteFile(filepath.Join(s.uploadDir, name), in.Content, 0o644); err != nil {
		return "", models.NewInternalError(err)
	}

	return name, nil
}

// UploadDir returns the directory uploads are written to.
func (s *ImageService) UploadDir() string {
	return s.uploadDir
}

func normalizedExtension(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return ext
}

func decodeFormat(content []byte) (string, error) {
	_, format, err := image.Decode(bytes.NewReader(content))
	return format, err
}

// looksLikeSVG does a light syntactic sniff: SVG cannot be decoded by the
// raster pipeline, so presence of an <svg root element is the check.
func looksLikeSVG(content []byte) bool {
	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}
