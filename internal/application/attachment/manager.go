package attachment

import (
	"context"
	"sync"

	"github.com/taskflow/backend/internal/domain/task"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BlobStore deletes stored files addressed by their public URL
type BlobStore interface {
	DeleteByURL(ctx context.Context, url string) error
}

// defaultConcurrency bounds the number of in-flight blob deletions
const defaultConcurrency = 8

// FailedDelete records one blob that could not be removed
type FailedDelete struct {
	URL string
	Err error
}

// DeleteReport summarizes a batch deletion. A batch never fails as a whole.
type DeleteReport struct {
	Requested int
	Deleted   int
	Failed    []FailedDelete
}

// Manager removes blobs that are no longer referenced by any task or activity
type Manager struct {
	store       BlobStore
	logger      *zap.Logger
	concurrency int
}

// NewManager creates a new attachment lifecycle manager
func NewManager(store BlobStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:       store,
		logger:      logger,
		concurrency: defaultConcurrency,
	}
}

// DeleteAll deletes every distinct non-empty URL in parallel. Individual
// failures are logged and collected in the report.
func (m *Manager) DeleteAll(ctx context.Context, urls []string) DeleteReport {
	unique := dedupe(urls)
	report := DeleteReport{Requested: len(unique)}
	if len(unique) == 0 {
		return report
	}

	// failures go into the report, never through the group
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(m.concurrency)
	for _, url := range unique {
		g.Go(func() error {
			err := m.store.DeleteByURL(ctx, url)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed = append(report.Failed, FailedDelete{URL: url, Err: err})
				return nil
			}
			report.Deleted++
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range report.Failed {
		m.logger.Warn("Failed to delete attachment blob",
			zap.String("url", f.URL),
			zap.Error(f.Err),
		)
	}
	if report.Requested > 0 {
		m.logger.Debug("Attachment blobs deleted",
			zap.Int("requested", report.Requested),
			zap.Int("deleted", report.Deleted),
			zap.Int("failed", len(report.Failed)),
		)
	}
	return report
}

// CollectURLs gathers the attachment URLs of the given tasks and the uploaded
// files of their activity entries.
func CollectURLs(tasks []*task.Task, activities []*task.Activity) []string {
	var urls []string
	for _, t := range tasks {
		urls = append(urls, t.AttachmentURLs()...)
	}
	for _, a := range activities {
		if u := a.FileURL(); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
