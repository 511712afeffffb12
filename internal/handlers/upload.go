package handlers

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const (
	maxUploadSize = 10 << 20 // 10MB
	imageWidth    = 800

	// UploadURLPrefix is where saved images are served from.
	UploadURLPrefix = "/uploads/"
)

var errUnsupportedImage = errors.New("unsupported image format, only PNG, JPG and JPEG are allowed")

// parseAdminForm accepts both multipart and urlencoded submissions.
func parseAdminForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxUploadSize)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// saveImage stores the optional "image" upload resized to 800px wide and
// returns its public URL, or "" when no file was sent.
func (h *AdminHandler) saveImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	img, err := decodeImage(file, header)
	if err != nil {
		return "", err
	}

	// Resize image (max width 800px, preserve aspect ratio)
	resized := resize.Resize(imageWidth, 0, img, resize.Lanczos3)

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	filename := uuid.NewString() + ".jpg"
	out, err := os.Create(filepath.Join(h.UploadDir, filename))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, resized, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return UploadURLPrefix + filename, nil
}

func decodeImage(file multipart.File, header *multipart.FileHeader) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".png":
		return png.Decode(file)
	case ".jpg", ".jpeg":
		return jpeg.Decode(file)
	}
	return nil, errUnsupportedImage
}
