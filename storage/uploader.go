package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const avatarKeyPrefix = "avatars"

// UploadResult describes an object stored in the bucket.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader хранит аватары пользователей во внешнем объектном хранилище.
type FileUploader interface {
	// Upload writes the object under key, replacing any previous content.
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Delete removes the object; a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetPublicURL builds the URL the frontend loads the object from.
	// It does not check that the object exists.
	GetPublicURL(key string) string
}

// AvatarKey returns a fresh object key for a user's avatar, e.g.
// "avatars/5/<uuid>.png". Every call returns a different key.
func AvatarKey(userID int, ext string) string {
	return fmt.Sprintf("%s/%d/%s%s", avatarKeyPrefix, userID, uuid.NewString(), ext)
}
