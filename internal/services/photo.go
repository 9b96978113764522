package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"mime"
	"path"
	"regexp"

	"github.com/chorsey/apiserver/internal/store"
	"github.com/chorsey/apiserver/types"
	"github.com/gabriel-vasile/mimetype"
)

const (
	// MaxPhotoBytes is the largest photo accepted for drafting.
	MaxPhotoBytes = 4 << 20

	photoKeyPrefix = "task-photos/"
)

var allowedPhotoTypes = []string{"image/png", "image/jpeg", "image/webp"}

var photoKeyPattern = regexp.MustCompile(`^task-photos/[0-9a-f]{64}\.(png|jpg|webp)$`)

// PhotoStore is the object storage used for task photos.
type PhotoStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// DraftFromPhoto asks the captioning service for a task title and
// description matching the photo. When a photo store is configured the photo
// is kept, keyed by its content hash, and the key is returned with the draft.
func (s *TaskService) DraftFromPhoto(ctx context.Context, image []byte) (types.TaskDraft, error) {
	if s.captioner == nil {
		return types.TaskDraft{}, ErrCaptionDisabled
	}

	mtype, err := detectPhoto(image)
	if err != nil {
		return types.TaskDraft{}, err
	}

	draft, err := s.captioner.Caption(ctx, image, mtype.String())
	if err != nil {
		s.log.Warn("caption failed", "error", err)
		return types.TaskDraft{}, err
	}

	if s.photos != nil {
		key := photoKey(image, mtype.Extension())
		if err := s.storePhoto(ctx, key, image, mtype.String()); err != nil {
			s.log.Warn("failed to store task photo", "key", key, "error", err)
		} else {
			draft.PhotoKey = key
		}
	}
	return draft, nil
}

func (s *TaskService) storePhoto(ctx context.Context, key string, data []byte, contentType string) error {
	exists, err := s.photos.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.photos.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}

// OpenPhoto streams the photo a task was drafted from. The caller must close
// the reader.
func (s *TaskService) OpenPhoto(ctx context.Context, taskID string) (io.ReadCloser, string, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, "", err
	}
	if task.PhotoKey == "" || s.photos == nil {
		return nil, "", &Error{Kind: store.ErrNotFound, Message: "Task has no photo."}
	}

	rc, err := s.photos.Get(ctx, task.PhotoKey)
	if err != nil {
		return nil, "", err
	}

	contentType := mime.TypeByExtension(path.Ext(task.PhotoKey))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return rc, contentType, nil
}

func detectPhoto(data []byte) (*mimetype.MIME, error) {
	if len(data) == 0 {
		return nil, validationError("Please select an image first.")
	}
	if len(data) > MaxPhotoBytes {
		return nil, validationError("Image is too large. Please select a file under 4MB.")
	}

	mtype := mimetype.Detect(data)
	for _, allowed := range allowedPhotoTypes {
		if mtype.Is(allowed) {
			return mtype, nil
		}
	}
	return nil, validationError("Unsupported image type. Use PNG, JPEG or WebP.")
}

// photoKey derives a content-addressed object key so the same photo is only
// stored once.
func photoKey(data []byte, ext string) string {
	hash := sha256.Sum256(data)
	return photoKeyPrefix + hex.EncodeToString(hash[:]) + ext
}

// validPhotoKey reports whether key is empty or was produced by photoKey.
func validPhotoKey(key string) bool {
	return key == "" || photoKeyPattern.MatchString(key)
}
