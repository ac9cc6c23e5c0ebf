package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/ofertas/internal/config"
	"github.com/JonMunkholm/ofertas/internal/logging"
	"github.com/JonMunkholm/ofertas/internal/metrics"
)

// Service provides the offer analysis operations behind the web layer.
type Service struct {
	ref      *ReferenceIndex
	upload   config.UploadConfig
	sessions *SessionStore
	limiter  *RunLimiter
	metrics  *metrics.Metrics
	now      func() time.Time
}

// ReferenceStats describes the loaded reference index.
type ReferenceStats struct {
	Records    int `json:"records"`
	Duplicates int `json:"duplicates"`
}

// NewService creates a Service over a loaded reference index. m may be nil.
func NewService(ref *ReferenceIndex, cfg *config.Config, m *metrics.Metrics) (*Service, error) {
	if ref == nil {
		return nil, errors.New("reference index is required")
	}
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	m.SetReferenceRecords(ref.Len())

	return &Service{
		ref:      ref,
		upload:   cfg.Upload,
		sessions: NewSessionStore(cfg.Session.TTL, cfg.Session.MaxSessions),
		limiter:  NewRunLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		metrics:  m,
		now:      time.Now,
	}, nil
}

// Reference returns the reference index.
func (s *Service) Reference() *ReferenceIndex {
	return s.ref
}

// ReferenceStats returns the size of the reference index.
func (s *Service) ReferenceStats() ReferenceStats {
	return ReferenceStats{Records: s.ref.Len(), Duplicates: s.ref.Duplicates()}
}

// Limiter returns the run limiter, for health output and shutdown.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

// CreateSession validates and stores uploaded files and previews the first.
func (s *Service) CreateSession(ctx context.Context, files []UploadedFile) (Session, error) {
	if len(files) == 0 {
		return Session{}, ErrNoFiles
	}
	if s.upload.MaxFiles > 0 && len(files) > s.upload.MaxFiles {
		return Session{}, fmt.Errorf("%w: %d (max %d)", ErrTooManyFiles, len(files), s.upload.MaxFiles)
	}
	for _, f := range files {
		if s.upload.MaxFileSize > 0 && f.Size() > s.upload.MaxFileSize {
			return Session{}, fmt.Errorf("%s: %w (max %d bytes)", f.Name, ErrFileTooLarge, s.upload.MaxFileSize)
		}
	}

	preview := PreviewFile(files[0], s.upload.PreviewRows)

	sess, err := s.sessions.Create(files, preview)
	if err != nil {
		return Session{}, err
	}
	s.metrics.SetActiveSessions(s.sessions.Len())

	logging.WithFields(logging.WithSession(ctx, sess.ID),
		"files", len(files),
		"preview_columns", len(preview.Columns()),
	).Info("session created")
	return sess, nil
}

// Session returns the session with id.
func (s *Service) Session(_ context.Context, id string) (Session, error) {
	return s.sessions.Get(id)
}

// DeleteSession discards a session and its files.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if !s.sessions.Delete(id) {
		return ErrSessionNotFound
	}
	s.metrics.SetActiveSessions(s.sessions.Len())
	logging.FromContext(logging.WithSession(ctx, id)).Info("session deleted")
	return nil
}

// Process runs the offer pipeline over a session's files with priceColumn
// and stores the result on the session, replacing earlier offers.
//
// With no files or an empty priceColumn nothing runs: the session is left
// unchanged and the result has Ran set to false.
func (s *Service) Process(ctx context.Context, id, priceColumn string) (ProcessResult, error) {
	ctx = logging.WithSession(ctx, id)
	log := logging.FromContext(ctx)

	sess, err := s.sessions.Get(id)
	if err != nil {
		return ProcessResult{}, err
	}
	if len(sess.Files) == 0 || priceColumn == "" {
		log.Debug("processing not run", "files", len(sess.Files), "price_column", priceColumn)
		return ProcessResult{PriceColumn: priceColumn}, nil
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return ProcessResult{}, err
	}
	defer s.limiter.Release()

	if s.upload.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.upload.Timeout)
		defer cancel()
	}

	res, err := ProcessFiles(ctx, sess.Files, priceColumn, s.ref, s.upload.DecodeWorkers)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("process session: %w", err)
	}
	s.record(res)

	if err := s.sessions.Put(sess.WithResult(res, s.now())); err != nil {
		return ProcessResult{}, err
	}

	log.Info("offers processed",
		"price_column", priceColumn,
		"files", len(res.Files),
		"files_failed", res.FailedFiles(),
		"offers", len(res.Offers),
		"matched", res.Matched(),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// record updates metrics for a finished run.
func (s *Service) record(res ProcessResult) {
	skipped := 0
	for _, f := range res.Files {
		outcome := metrics.OutcomeOK
		if f.Error != "" {
			outcome = metrics.OutcomeError
		}
		s.metrics.FileDecoded(f.Format, outcome)
		skipped += f.SheetsSkipped
	}
	s.metrics.SheetsSkipped(skipped)
	s.metrics.OffersProduced(len(res.Offers), len(res.Offers)-res.Matched())
	s.metrics.ObserveProcess(res.Duration)
}

// Offers returns the session's offers narrowed by q. The filter always runs
// over the full offer list of the last run.
func (s *Service) Offers(_ context.Context, id string, q FilterQuery) ([]OfferRecord, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return FilterOffers(sess.Offers, q), nil
}

// Export writes the session's filtered offers to w in format.
func (s *Service) Export(ctx context.Context, id string, q FilterQuery, format ExportFormat, w io.Writer) error {
	offers, err := s.Offers(ctx, id, q)
	if err != nil {
		return err
	}
	if err := WriteOffers(w, format, offers); err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	logging.WithFields(logging.WithSession(ctx, id), "format", string(format), "offers", len(offers)).
		Info("offers exported")
	return nil
}

// Shutdown waits for in-flight runs to finish or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
