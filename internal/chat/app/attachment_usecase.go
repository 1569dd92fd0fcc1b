package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"team_match_service/pkg/database"
	errprocess "team_match_service/pkg/err"
	"team_match_service/pkg/logger"
)

const urlCachePrefix = "attachment:url:"

// AttachmentUseCase stores image/file message payloads in object storage
// and hands back the metadata the message row carries. Presigned URLs are
// cached so re-rendering a history page does not re-sign every attachment.
type AttachmentUseCase struct {
	store    *database.MinIOClient
	urlCache database.RedisRepository[string]
	urlTTL   time.Duration
}

// NewAttachmentUseCase init attachment use case
func NewAttachmentUseCase(store *database.MinIOClient, urlCache database.RedisRepository[string], urlTTL time.Duration) *AttachmentUseCase {
	if urlTTL <= 0 {
		urlTTL = 24 * time.Hour
	}
	return &AttachmentUseCase{store: store, urlCache: urlCache, urlTTL: urlTTL}
}

// Upload put one attachment under chat/<room>/<uuid>/<filename> and return
// the metadata map recorded on the message.
func (uc *AttachmentUseCase) Upload(ctx context.Context, roomID, senderID, filename string, r io.Reader, size int64, contentType string) (map[string]interface{}, error) {
	if filename == "" {
		return nil, errprocess.New(errprocess.KindValidation, "filename is required")
	}
	if size <= 0 {
		return nil, errprocess.New(errprocess.KindValidation, "attachment is empty")
	}

	objectName := fmt.Sprintf("chat/%s/%s/%s", roomID, uuid.New().String(), filename)
	if err := uc.store.UploadStream(ctx, objectName, r, size, contentType); err != nil {
		return nil, errprocess.Wrap(errprocess.KindWrite, "upload attachment", err)
	}

	url, err := uc.PresignedURL(ctx, objectName)
	if err != nil {
		// the object landed; surface the URL failure but leave cleanup to
		// a later presign retry rather than deleting the upload
		return nil, err
	}

	return map[string]interface{}{
		"object":       objectName,
		"url":          url,
		"filename":     filename,
		"size":         size,
		"content_type": contentType,
		"uploaded_by":  senderID,
	}, nil
}

// PresignedURL a download URL for objectName, from cache when one is still
// live. The cache TTL stays below the signature TTL so a cached URL never
// outlives its signature.
func (uc *AttachmentUseCase) PresignedURL(ctx context.Context, objectName string) (string, error) {
	if uc.urlCache != nil {
		if url, err := uc.urlCache.Get(ctx, urlCachePrefix+objectName); err == nil && url != "" {
			return url, nil
		}
	}

	url, err := uc.store.PresignGetURL(ctx, objectName, uc.urlTTL)
	if err != nil {
		return "", errprocess.Wrap(errprocess.KindWrite, "presign attachment", err)
	}

	if uc.urlCache != nil {
		if err := uc.urlCache.Set(ctx, urlCachePrefix+objectName, url, uc.urlTTL/2); err != nil {
			logger.Log.Errorf("cache presigned url failed:", err)
		}
	}
	return url, nil
}
