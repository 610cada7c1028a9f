package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"schedule-viewer/config"
	"schedule-viewer/logger"
	"schedule-viewer/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// XLSXContentType MIME-тип выгрузки
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type MinIOService struct {
	client *minio.Client
	urlTTL time.Duration
	log    logger.Logger
}

func NewMinIOService(cfg *config.Config, log logger.Logger) (*MinIOService, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	return &MinIOService{
		client: client,
		urlTTL: cfg.PresignedURLTTL(),
		log:    log,
	}, nil
}

// EnsureBucket создаёт бакет, если его ещё нет
func (s *MinIOService) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	s.log.Infof("created bucket %s", bucket)
	return nil
}

// ListFiles возвращает xlsx-выгрузки в указанном префиксе, новые первыми
func (s *MinIOService) ListFiles(ctx context.Context, bucket, prefix string) ([]models.ExportFile, error) {
	files := []models.ExportFile{}

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	for object := range s.client.ListObjects(ctx, bucket, opts) {
		if object.Err != nil {
			return nil, object.Err
		}

		// Игнорируем директории
		if strings.HasSuffix(object.Key, "/") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(object.Key), ".xlsx") {
			continue
		}

		files = append(files, models.ExportFile{
			Name:         extractFileName(object.Key),
			Path:         object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ETag:         object.ETag,
			Version:      object.VersionID,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].LastModified.After(files[j].LastModified)
	})
	return files, nil
}

// GetPresignedURL генерирует presigned URL для скачивания
func (s *MinIOService) GetPresignedURL(ctx context.Context, bucket, objectPath string) (*models.PresignedURLResponse, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", ContentDisposition(extractFileName(objectPath)))

	presignedURL, err := s.client.PresignedGetObject(ctx, bucket, objectPath, s.urlTTL, reqParams)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned url: %w", err)
	}

	return &models.PresignedURLResponse{
		URL:       presignedURL.String(),
		ExpiresAt: time.Now().Add(s.urlTTL),
		FileName:  extractFileName(objectPath),
	}, nil
}

// ObjectExists проверяет существование объекта в указанном бакете
func (s *MinIOService) ObjectExists(ctx context.Context, bucket, objectPath string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, objectPath, minio.StatObjectOptions{})
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DownloadFile скачивает файл из указанного бакета
func (s *MinIOService) DownloadFile(ctx context.Context, bucket, objectPath string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	return data, nil
}

// UploadFile загружает файл в указанный бакет
func (s *MinIOService) UploadFile(ctx context.Context, bucket, objectPath string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, objectPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// ExportStore сохраняет готовые выгрузки в бакет
type ExportStore struct {
	storage *MinIOService
	bucket  string
	prefix  string
}

func NewExportStore(storage *MinIOService, bucket, prefix string) *ExportStore {
	return &ExportStore{storage: storage, bucket: bucket, prefix: prefix}
}

// Save кладёт книгу под уникальным ключом и возвращает ссылку на скачивание
func (e *ExportStore) Save(ctx context.Context, wb *Workbook) (*models.PresignedURLResponse, error) {
	key := ExportObjectKey(e.prefix, uuid.NewString(), wb.FileName)
	if err := e.storage.UploadFile(ctx, e.bucket, key, bytes.NewReader(wb.Data), int64(len(wb.Data)), XLSXContentType); err != nil {
		return nil, err
	}
	e.storage.log.Infow("export stored", map[string]any{"bucket": e.bucket, "object": key, "entries": wb.Entries})
	return e.storage.GetPresignedURL(ctx, e.bucket, key)
}

func (e *ExportStore) List(ctx context.Context) ([]models.ExportFile, error) {
	return e.storage.ListFiles(ctx, e.bucket, e.prefix)
}

// ExportObjectKey ключ объекта: <prefix>/<id>/<имя файла>
func ExportObjectKey(prefix, id, fileName string) string {
	return path.Join(prefix, id, fileName)
}

// ContentDisposition заголовок скачивания с именем файла в UTF-8
func ContentDisposition(fileName string) string {
	return fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(fileName))
}

// Вспомогательные функции
func extractFileName(path string) string {
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}
