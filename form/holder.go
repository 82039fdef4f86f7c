// Package form holds the state machine of the debtor form, from field edits
// up to the outcome reported by the upload widget.
package form

import (
	"errors"

	"github.com/CorrelAid/debtor_submission_uploader/models"
	"github.com/CorrelAid/debtor_submission_uploader/validators"
)

var ErrUnknownField = errors.New("unknown form field")

// Holder applies form transitions to a session. It does no locking; callers
// serialise access (the session store runs every transition inside a write
// transaction).
type Holder struct {
	s *models.Session
}

func New(s *models.Session) *Holder {
	if s.Phase == "" {
		s.Phase = models.PhaseIdle
	}
	return &Holder{s: s}
}

// UpdateField sets one text field. Values are stored as typed.
func (h *Holder) UpdateField(name, value string) error {
	switch name {
	case models.FieldFullName:
		h.s.FormData.FullName = value
	case models.FieldCompanyName:
		h.s.FormData.CompanyName = value
	default:
		return ErrUnknownField
	}
	return nil
}

// CheckRequired reports whether both required fields are filled in. When one
// is missing the status says so; a pending upload stays pending.
func (h *Holder) CheckRequired() (models.FormData, bool) {
	data, err := validators.ValidateRequiredFields(h.s.FormData)
	if err != nil {
		h.s.Status = StatusMissingFields
		if h.s.Phase != models.PhaseDelegated {
			h.s.Phase = models.PhaseIdle
		}
		return models.FormData{}, false
	}
	return data, true
}

// BeginUpload checks the required fields and, when they are present, marks
// attemptID as the pending upload and returns the trimmed metadata to hand to
// the widget. When a field is missing only the status changes and ok is false.
func (h *Holder) BeginUpload(attemptID string) (metadata map[string]string, ok bool) {
	data, ok := h.CheckRequired()
	if !ok {
		return nil, false
	}

	h.s.AttemptID = attemptID
	h.s.Phase = models.PhaseDelegated
	return map[string]string{
		models.FieldFullName:    data.FullName,
		models.FieldCompanyName: data.CompanyName,
	}, true
}

// OnUploadResult settles the pending attempt with the widget callback. Each
// attempt settles at most once: callbacks for an attempt that is not pending,
// and events other than success or error, leave the session untouched and
// report settled == false. A non-nil submission means the upload succeeded
// and the form was submitted and reset.
func (h *Holder) OnUploadResult(attemptID string, res *models.UploadResult, uploadErr error) (submission *models.Submission, settled bool) {
	if attemptID == "" || h.s.Phase != models.PhaseDelegated || h.s.AttemptID != attemptID {
		return nil, false
	}

	if uploadErr != nil {
		h.s.AttemptID = ""
		h.fail(ClassifyUploadError(uploadErr.Error(), "Failed to upload file: %s", "Unknown error. Please try again."))
		return nil, true
	}

	// The widget reports progress events too; only success and error settle.
	if res == nil {
		return nil, false
	}
	switch res.Event {
	case models.EventSuccess:
		h.s.AttemptID = ""
		return h.submit(res.Info), true
	case models.EventError:
		h.s.AttemptID = ""
		h.fail(ClassifyUploadError(res.Info.Message, "Upload failed: %s", "Unknown error"))
		return nil, true
	}
	return nil, false
}

func (h *Holder) submit(info models.UploadInfo) *models.Submission {
	h.s.DocumentURL = info.SecureURL
	h.s.Status = uploadedStatus(info.OriginalFilename)

	data, err := validators.ValidateRequiredFields(h.s.FormData)
	if err != nil || info.SecureURL == "" {
		h.fail(StatusSubmissionFailed)
		return nil
	}

	sub := &models.Submission{
		FullName:    data.FullName,
		CompanyName: data.CompanyName,
		DocumentURL: info.SecureURL,
	}
	h.s.Status = StatusSubmitted
	h.s.FormData = models.FormData{}
	h.s.DocumentURL = ""
	h.s.Phase = models.PhaseSucceeded
	return sub
}

func (h *Holder) fail(status string) {
	h.s.Status = status
	h.s.Phase = models.PhaseFailed
}
