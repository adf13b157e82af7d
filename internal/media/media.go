// Package media uploads item photos to hosted image storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// ErrNotConfigured is returned when upload credentials are missing.
var ErrNotConfigured = errors.New("image upload is not configured")

// Uploader stores a local image file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// CloudinaryConfig holds Cloudinary credentials.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Configured reports whether all credentials are present.
func (c CloudinaryConfig) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Cloudinary uploads images with the Cloudinary SDK.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary creates an uploader from the given credentials.
func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("creating cloudinary client: %w", err)
	}
	folder := cfg.Folder
	if folder == "" {
		folder = "rentshed"
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

// Upload sends the file at path and returns its secure URL.
func (c *Cloudinary) Upload(ctx context.Context, path string) (string, error) {
	resp, err := c.cld.Upload.Upload(ctx, path, uploader.UploadParams{
		Folder:   c.folder,
		PublicID: PublicID(path),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", filepath.Base(path), err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("uploading %s: %s", filepath.Base(path), resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// PublicID builds a unique public id from the file's base name.
func PublicID(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.ToLower(strings.Join(strings.Fields(base), "-"))
	return base + "-" + uuid.NewString()[:8]
}

// IsRemote reports whether ref is already a URL or a server path rather
// than a local file to upload.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "/static/")
}
