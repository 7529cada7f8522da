package services

import (
  "context"
  "fmt"
  "io"
  "os"
  "time"

  "cloud.google.com/go/storage"
  "google.golang.org/api/option"
  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/logger"
)

type BucketService interface {
  UploadFile(ctx context.Context, tx *gorm.DB, key string, body io.Reader) error
  DeleteFile(ctx context.Context, key string) error
  GetPublicURL(key string) string
}

type bucketService struct {
  log        *logger.Logger
  client     *storage.Client
  bucketName string
}

func NewBucketService(ctx context.Context, log *logger.Logger) (BucketService, error) {
  serviceLog := log.With("service", "BucketService")
  bucketName := os.Getenv("GCS_BUCKET_NAME")
  if bucketName == "" {
    return nil, fmt.Errorf("Missing GCS_BUCKET_NAME environment variable")
  }
  var opts []option.ClientOption
  if credsFile := os.Getenv("GCS_CREDENTIALS_FILE"); credsFile != "" {
    opts = append(opts, option.WithCredentialsFile(credsFile))
  }
  client, err := storage.NewClient(ctx, opts...)
  if err != nil {
    serviceLog.Error("Failed to create GCS client", "error", err)
    return nil, fmt.Errorf("Failed to create GCS client: %w", err)
  }
  return &bucketService{
    log:        serviceLog,
    client:     client,
    bucketName: bucketName,
  }, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, tx *gorm.DB, key string, body io.Reader) error {
  uploadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
  defer cancel()

  w := bs.client.Bucket(bs.bucketName).Object(key).NewWriter(uploadCtx)
  w.ContentType = "image/png"
  if _, err := io.Copy(w, body); err != nil {
    bs.log.Warn("Failed to copy object body to GCS writer", "error", err, "key", key)
    return fmt.Errorf("failed to write object %q: %w", key, err)
  }
  if err := w.Close(); err != nil {
    bs.log.Warn("Failed to finalize GCS upload", "error", err, "key", key)
    return fmt.Errorf("failed to finalize upload of %q: %w", key, err)
  }
  bs.log.Info("Uploaded object to GCS", "key", key)
  return nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, key string) error {
  if err := bs.client.Bucket(bs.bucketName).Object(key).Delete(ctx); err != nil {
    bs.log.Warn("Failed to delete object from GCS", "error", err, "key", key)
    return fmt.Errorf("failed to delete object %q: %w", key, err)
  }
  return nil
}

func (bs *bucketService) GetPublicURL(key string) string {
  return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, key)
}
