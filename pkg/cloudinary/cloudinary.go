// Package cloudinary stores avatar images on Cloudinary.
package cloudinary

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Uploader is what the avatar handler needs from an image host.
type Uploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url string, err error)
}

// AvatarSize is the square edge, in pixels, avatars are cropped to on upload.
const AvatarSize = 256

// AvatarURL returns a face-cropped square delivery URL for an uploaded public id.
func AvatarURL(cloudName, publicID string, size int) string {
	if size <= 0 {
		size = AvatarSize
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,h_%d,c_thumb,g_face/%s",
		cloudName, size, size, publicID)
}

var eagerAsyncFalse = false

type client struct {
	cloudName string
	uploader  *uploader.API
}

// UploadImage uploads an avatar and returns its optimized square URL.
func (c *client) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	overwrite := true
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Overwrite:  &overwrite,
		Eager:      fmt.Sprintf("q_auto,f_auto,w_%d,h_%d,c_thumb,g_face", AvatarSize, AvatarSize),
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	if len(result.Eager) > 0 && result.Eager[0].SecureURL != "" {
		return result.Eager[0].SecureURL, nil
	}
	if result.PublicID != "" {
		return AvatarURL(c.cloudName, result.PublicID, AvatarSize), nil
	}
	return result.SecureURL, nil
}

// New builds an Uploader from Cloudinary credentials.
func New(cloudName, apiKey, apiSecret string) (Uploader, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &client{cloudName: cloudName, uploader: up}, nil
}
