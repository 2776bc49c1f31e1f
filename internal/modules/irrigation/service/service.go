package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/analysis"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/cache"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/repository"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/types"
)

var ErrNoUpload = errors.New("no file uploaded")

// Publisher delivers recommendation messages downstream.
type Publisher interface {
	Publish(v any) error
}

type Service struct {
	repository repository.UploadRepository
	tables     *cache.TableCache
	publisher  Publisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewService wires the upload store and table cache. publisher may be nil.
func NewService(repo repository.UploadRepository, tables *cache.TableCache, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repository: repo,
		tables:     tables,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// Upload parses raw and makes it the session's current file. On a parse
// failure nothing is stored and the session keeps its previous file. The
// previous file is dropped from the cache and from the store once no session
// references it.
func (s *Service) Upload(sessionID, filename string, raw []byte) (types.Upload, *analysis.Table, error) {
	key, table, err := s.tables.Load(raw)
	if err != nil {
		return types.Upload{}, nil, err
	}

	upload, previous, err := s.repository.StoreSessionUpload(sessionID, types.Upload{
		Key:       key,
		Filename:  filename,
		SizeBytes: len(raw),
		Rows:      table.Len(),
	}, raw)
	if err != nil {
		return types.Upload{}, nil, fmt.Errorf("store upload: %w", err)
	}
	if previous != "" && previous != key {
		s.release(previous)
	}

	s.logger.Info("upload stored",
		"session_id", sessionID,
		"key", key,
		"filename", filename,
		"rows", upload.Rows,
	)
	s.publishMostRecent(key, table)
	return upload, table, nil
}

// Current returns the session and its current file. ErrNoUpload is returned
// when the session has none.
func (s *Service) Current(sessionID string) (types.Session, types.Upload, *analysis.Table, error) {
	session, err := s.repository.GetSession(sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Session{ID: sessionID}, types.Upload{}, nil, ErrNoUpload
	}
	if err != nil {
		return types.Session{}, types.Upload{}, nil, err
	}
	if session.UploadKey == "" {
		return session, types.Upload{}, nil, ErrNoUpload
	}

	upload, table, err := s.Lookup(session.UploadKey)
	if errors.Is(err, repository.ErrNotFound) {
		return session, types.Upload{}, nil, ErrNoUpload
	}
	if err != nil {
		return session, types.Upload{}, nil, err
	}
	if session.Filename != "" {
		upload.Filename = session.Filename
	}
	return session, upload, table, nil
}

// Lookup returns a stored upload by content key, parsing it again only when
// the cache no longer holds it.
func (s *Service) Lookup(key string) (types.Upload, *analysis.Table, error) {
	upload, body, err := s.repository.GetUpload(key)
	if err != nil {
		return types.Upload{}, nil, err
	}
	if table, ok := s.tables.Get(key); ok {
		return upload, table, nil
	}
	_, table, err := s.tables.Load(body)
	if err != nil {
		return types.Upload{}, nil, fmt.Errorf("reload upload %q: %w", key, err)
	}
	return upload, table, nil
}

// SelectDate remembers the date the session last looked at.
func (s *Service) SelectDate(sessionID string, date time.Time) error {
	return s.repository.SetSelectedDate(sessionID, date.Format(analysis.DateLayout))
}

func (s *Service) release(key string) {
	s.tables.Invalidate(key)
	deleted, err := s.repository.DeleteUploadIfUnreferenced(key)
	if err != nil {
		s.logger.Error("delete previous upload", "key", key, "error", err)
		return
	}
	if deleted {
		s.logger.Debug("previous upload deleted", "key", key)
	}
}

// publishMostRecent sends the latest day's recommendation. Failures are
// logged; the upload itself has already succeeded.
func (s *Service) publishMostRecent(key string, table *analysis.Table) {
	if s.publisher == nil {
		return
	}
	summary, err := table.DailySummary()
	if err != nil {
		s.logger.Error("daily summary", "key", key, "error", err)
		return
	}
	day, rec, err := analysis.MostRecentRecommendation(summary)
	if err != nil {
		s.logger.Info("no recommendation to publish", "key", key, "reason", err)
		return
	}
	msg := types.RecommendationMessage{
		UploadKey:       key,
		Date:            day.Date.Format(analysis.DateLayout),
		Category:        rec.Category.Code(),
		Rationale:       rec.Rationale,
		MeanTemperature: day.MeanTemperature,
		MeanHumidity:    day.MeanHumidity,
		MeanLightLevel:  day.MeanLightLevel,
		PublishedAt:     s.now().UTC(),
	}
	if err := s.publisher.Publish(msg); err != nil {
		s.logger.Warn("publish recommendation", "key", key, "error", err)
		return
	}
	s.logger.Debug("recommendation published", "key", key, "date", msg.Date, "category", msg.Category)
}
