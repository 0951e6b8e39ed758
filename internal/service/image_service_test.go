package service

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"photogram/internal/config"
	"photogram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) *ImageService {
	t.Helper()
	return NewImageService(&config.Config{
		ImageUploadDir: t.TempDir(),
		ImageMaxSizeKB: 2048,
	})
}

func encode(t *testing.T, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImageService_Store(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		wantErr  bool
	}{
		{"PNG", "photo.png", nil, false},
		{"JPEG", "photo.jpeg", nil, false},
		{"JPG Alias", "photo.jpg", nil, false},
		{"GIF", "anim.gif", nil, false},
		{"SVG", "icon.svg", []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"/>`), false},
		{"Uppercase Extension", "PHOTO.PNG", nil, false},
		{"Disallowed Extension", "photo.bmp", nil, true},
		{"No Extension", "photo", nil, true},
		{"Empty Content", "photo.png", []byte{}, true},
		{"Text As PNG", "fake.png", []byte("not an image"), true},
		{"Text As SVG", "fake.svg", []byte("plain text"), true},
		{"Format Extension Mismatch", "photo.gif", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testService(t)

			content := tt.content
			if content == nil {
				switch tt.name {
				case "JPEG", "JPG Alias":
					content = encode(t, "jpeg")
				case "GIF":
					content = encode(t, "gif")
				case "Format Extension Mismatch":
					content = encode(t, "png")
				default:
					content = encode(t, "png")
				}
			}

			name, err := svc.Store(UploadImageInput{Filename: tt.filename, Content: content})
			if tt.wantErr {
				require.Error(t, err)
				var appErr *models.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
				return
			}

			require.NoError(t, err)
			assert.Regexp(t, `^\d+\.[a-z]+$`, name)

			stored, err := os.ReadFile(filepath.Join(svc.UploadDir(), name))
			require.NoError(t, err)
			// Bytes are stored exactly as uploaded.
			assert.Equal(t, content, stored)
		})
	}
}

func TestImageService_StoredNameIsTimestampDerived(t *testing.T) {
	svc := testService(t)
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	name, err := svc.Store(UploadImageInput{Filename: "a.png", Content: encode(t, "png")})
	require.NoError(t, err)
	assert.Equal(t, "1788091200.png", name)

	// A second upload in the same second reuses the name; last write wins.
	other := encode(t, "png")
	name2, err := svc.Store(UploadImageInput{Filename: "b.png", Content: other})
	require.NoError(t, err)
	assert.Equal(t, name, name2)
}

func TestImageService_SizeCap(t *testing.T) {
	svc := NewImageService(&config.Config{
		ImageUploadDir: t.TempDir(),
		ImageMaxSizeKB: 1,
	})

	// Valid PNG padded beyond the cap.
	content := append(encode(t, "png"), bytes.Repeat([]byte{0}, 2048)...)
	_, err := svc.Store(UploadImageInput{Filename: "big.png", Content: content})
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}
