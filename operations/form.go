package operations

import (
	"context"
	"fmt"

	"github.com/CorrelAid/debtor_submission_uploader/form"
	"github.com/CorrelAid/debtor_submission_uploader/models"
	"github.com/CorrelAid/debtor_submission_uploader/widget"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FormService drives form sessions: field edits, starting uploads and
// applying widget callbacks.
type FormService struct {
	store  *Store
	widget widget.Widget
	config widget.Config
	logger *logrus.Logger
	newID  func() string
}

func NewFormService(store *Store, w widget.Widget, config widget.Config, logger *logrus.Logger) *FormService {
	return &FormService{
		store:  store,
		widget: w,
		config: config,
		logger: logger,
		newID:  uuid.NewString,
	}
}

func (s *FormService) CreateSession() (*models.Session, error) {
	session, err := s.store.CreateSession()
	if err != nil {
		return nil, err
	}
	s.logger.WithField("session_id", session.ID).Debug("Form session created")
	return session, nil
}

func (s *FormService) GetSession(id string) (*models.Session, error) {
	return s.store.GetSession(id)
}

func (s *FormService) UpdateField(id, name, value string) (*models.Session, error) {
	return s.store.UpdateSession(id, func(session *models.Session) error {
		return form.New(session).UpdateField(name, value)
	})
}

// CheckFields applies the required-field check alone, so a request can be
// rejected before its file is read.
func (s *FormService) CheckFields(id string) (session *models.Session, ok bool, err error) {
	session, err = s.store.UpdateSession(id, func(session *models.Session) error {
		_, ok = form.New(session).CheckRequired()
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return session, ok, nil
}

// BeginUpload validates the form and hands file to the server-side widget.
// delegated is false when the form was rejected; the session status then
// says why.
func (s *FormService) BeginUpload(ctx context.Context, id string, file widget.File) (session *models.Session, delegated bool, err error) {
	attemptID := s.newID()
	var metadata map[string]string

	session, err = s.store.UpdateSession(id, func(session *models.Session) error {
		metadata, delegated = form.New(session).BeginUpload(attemptID)
		return nil
	})
	if err != nil || !delegated {
		return session, false, err
	}

	entry := s.logger.WithFields(logrus.Fields{
		"session_id": id,
		"attempt_id": attemptID,
		"file":       file.Name,
	})
	callback := func(result *models.UploadResult, uploadErr error) {
		if _, err := s.ReportResult(id, attemptID, result, uploadErr); err != nil {
			entry.WithError(err).Warn("Upload result could not be applied")
		}
	}

	if err := s.widget.Open(ctx, s.config.WithMetadata(metadata), file, callback); err != nil {
		// The widget never started, so settle the attempt here.
		callback(nil, &models.WidgetError{Message: err.Error()})
		return nil, false, fmt.Errorf("open widget: %w", err)
	}
	entry.Info("Upload delegated to widget")
	return session, true, nil
}

// PrepareClientUpload validates the form for an upload performed by the
// browser widget and returns the configuration to open it with. The
// browser reports the widget callback back through ReportResult.
func (s *FormService) PrepareClientUpload(id string) (session *models.Session, cfg widget.Config, delegated bool, err error) {
	attemptID := s.newID()
	var metadata map[string]string

	session, err = s.store.UpdateSession(id, func(session *models.Session) error {
		metadata, delegated = form.New(session).BeginUpload(attemptID)
		return nil
	})
	if err != nil || !delegated {
		return session, widget.Config{}, false, err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": id,
		"attempt_id": attemptID,
	}).Info("Upload delegated to browser widget")
	return session, s.config.WithMetadata(metadata), true, nil
}

// ReportResult applies a widget callback to the session. Callbacks for an
// attempt that already settled, or was superseded, are dropped.
func (s *FormService) ReportResult(id, attemptID string, result *models.UploadResult, uploadErr error) (*models.Session, error) {
	var (
		submission *models.Submission
		settled    bool
	)
	session, err := s.store.UpdateSession(id, func(session *models.Session) error {
		submission, settled = form.New(session).OnUploadResult(attemptID, result, uploadErr)
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := s.logger.WithFields(logrus.Fields{
		"session_id": id,
		"attempt_id": attemptID,
	})
	switch {
	case !settled:
		entry.Debug("Widget callback ignored")
	case submission != nil:
		entry.WithFields(logrus.Fields{
			"full_name":    submission.FullName,
			"company_name": submission.CompanyName,
			"document_url": submission.DocumentURL,
		}).Info("Form submitted")
	default:
		entry.WithField("status", session.Status).Warn("Upload failed")
	}
	return session, nil
}
