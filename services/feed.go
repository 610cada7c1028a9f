package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"schedule-viewer/config"
	"schedule-viewer/logger"
	"schedule-viewer/models"
)

// ErrFeedNotArray фид должен быть JSON-массивом занятий
var ErrFeedNotArray = errors.New("feed is not a JSON array")

// FeedLoader источник сырого фида
type FeedLoader interface {
	Load(ctx context.Context) ([]byte, error)
	Name() string
}

type FileFeed struct {
	Path string
}

func (f FileFeed) Name() string { return config.FeedSourceFile }

func (f FileFeed) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed %s: %w", f.Path, err)
	}
	return data, nil
}

type HTTPFeed struct {
	URL    string
	Client *http.Client
}

func NewHTTPFeed(url string, timeout time.Duration) HTTPFeed {
	return HTTPFeed{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (f HTTPFeed) Name() string { return config.FeedSourceHTTP }

func (f HTTPFeed) Load(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch feed: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}
	return data, nil
}

// ObjectDownloader часть MinIOService, нужная для чтения фида
type ObjectDownloader interface {
	DownloadFile(ctx context.Context, bucket, objectPath string) ([]byte, error)
}

type MinIOFeed struct {
	Storage ObjectDownloader
	Bucket  string
	Object  string
}

func (f MinIOFeed) Name() string { return config.FeedSourceMinIO }

func (f MinIOFeed) Load(ctx context.Context) ([]byte, error) {
	data, err := f.Storage.DownloadFile(ctx, f.Bucket, f.Object)
	if err != nil {
		return nil, fmt.Errorf("failed to download feed %s/%s: %w", f.Bucket, f.Object, err)
	}
	return data, nil
}

// NewFeedLoader выбирает источник по конфигурации
func NewFeedLoader(cfg *config.Config, storage ObjectDownloader) (FeedLoader, error) {
	switch cfg.FeedSource {
	case config.FeedSourceFile:
		return FileFeed{Path: cfg.FeedPath}, nil
	case config.FeedSourceHTTP:
		return NewHTTPFeed(cfg.FeedURL, cfg.FeedTimeout()), nil
	case config.FeedSourceMinIO:
		if storage == nil {
			return nil, errors.New("minio feed requires a storage client")
		}
		return MinIOFeed{Storage: storage, Bucket: cfg.FeedBucket, Object: cfg.FeedObject}, nil
	default:
		return nil, fmt.Errorf("unknown feed source %q", cfg.FeedSource)
	}
}

// FeedReport итоги разбора фида
type FeedReport struct {
	Total      int `json:"total"`
	Loaded     int `json:"loaded"`
	Malformed  int `json:"malformed"`
	Degenerate int `json:"degenerate"`
	Duplicates int `json:"duplicates"`
}

// DecodeFeed разбирает фид по одному занятию: битые занятия пропускаются
// с предупреждением, остальные загружаются
func DecodeFeed(data []byte, rejectDegenerate bool, log logger.Logger) ([]models.ScheduleEntry, FeedReport, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, FeedReport{}, fmt.Errorf("%w: %v", ErrFeedNotArray, err)
	}
	if raw == nil {
		return nil, FeedReport{}, ErrFeedNotArray
	}

	report := FeedReport{Total: len(raw)}
	entries := make([]models.ScheduleEntry, 0, len(raw))
	seen := make(map[models.EntryID]bool, len(raw))
	for i, item := range raw {
		var e models.ScheduleEntry
		if err := json.Unmarshal(item, &e); err != nil {
			report.Malformed++
			log.Warnf("skipping malformed entry #%d: %v", i, err)
			continue
		}
		if e.ID == "" {
			report.Malformed++
			log.Warnf("skipping entry #%d without id", i)
			continue
		}
		if seen[e.ID] {
			report.Duplicates++
			log.Warnf("skipping duplicate entry id %q at #%d", e.ID, i)
			continue
		}
		if e.Degenerate() {
			report.Degenerate++
			if rejectDegenerate {
				log.Warnf("dropping entry %q: empty time range %s", e.ID, e.Time)
				continue
			}
			log.Warnf("entry %q has empty time range %s", e.ID, e.Time)
		}
		seen[e.ID] = true
		entries = append(entries, e)
	}
	report.Loaded = len(entries)
	return entries, report, nil
}
