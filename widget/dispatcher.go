package widget

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/CorrelAid/debtor_submission_uploader/models"
	"github.com/CorrelAid/debtor_submission_uploader/validators"
	"github.com/sirupsen/logrus"
)

// Dispatcher runs each upload on its own goroutine and calls back exactly
// once per Open.
type Dispatcher struct {
	transport Transport
	timeout   time.Duration
	logger    *logrus.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(transport Transport, timeout time.Duration, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		timeout:   timeout,
		logger:    logger,
	}
}

func (d *Dispatcher) Open(ctx context.Context, cfg Config, file File, cb Callback) error {
	if cb == nil {
		return errors.New("widget callback is required")
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	// The upload outlives the request that started it.
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer d.wg.Done()
		cb(d.run(ctx, cfg, file))
	}()
	return nil
}

func (d *Dispatcher) run(ctx context.Context, cfg Config, file File) (result *models.UploadResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithField("panic", r).Error("Upload transport panicked")
			result, err = nil, &models.WidgetError{Message: "upload aborted unexpectedly"}
		}
	}()

	if err := validators.ValidateFile(file.Name, int64(len(file.Content)), cfg.ClientAllowedFormats, cfg.MaxFileSize); err != nil {
		return nil, &models.WidgetError{Message: err.Error()}
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err = d.transport.Transfer(ctx, cfg, file)
	entry := d.logger.WithFields(logrus.Fields{
		"file":     file.Name,
		"size":     len(file.Content),
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("Upload transfer failed")
		return nil, err
	}
	if result == nil {
		return nil, &models.WidgetError{Message: "upload finished without a result"}
	}
	entry.WithField("event", result.Event).Info("Upload transfer finished")
	return result, nil
}

// Close stops accepting uploads and waits for running ones.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
