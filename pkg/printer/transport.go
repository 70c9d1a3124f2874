package printer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// DefaultStepTimeout bounds each device step when none is configured.
const DefaultStepTimeout = 5 * time.Second

// BulkDevice is a raw byte sink reached through the usual bulk transfer
// lifecycle. Steps are called in order, once each, from a single goroutine
// at a time. Close must tolerate being called after a failed step.
type BulkDevice interface {
	Open(ctx context.Context) error
	Configure(ctx context.Context) error
	Claim(ctx context.Context) error
	TransferOut(ctx context.Context, data []byte) (int, error)
	Close() error
}

// StatusReporter is implemented by devices that can report reachability without
// printing.
type StatusReporter interface {
	IsConnected(ctx context.Context) bool
}

// Step names a stage of delivery.
type Step string

const (
	StepOpen      Step = "open"
	StepConfigure Step = "configure"
	StepClaim     Step = "claim"
	StepTransfer  Step = "transferOut"
	StepClose     Step = "close"
)

// ErrorKind classifies a TransportError.
type ErrorKind int

const (
	NoDeviceAvailable ErrorKind = iota + 1
	PermissionDenied
	TransferFailed
)

func (k ErrorKind) String() string {
	switch k {
	case NoDeviceAvailable:
		return "NoDeviceAvailable"
	case PermissionDenied:
		return "PermissionDenied"
	case TransferFailed:
		return "TransferFailed"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

var (
	// ErrNoDevice is wrapped by devices when nothing answers at the configured address.
	ErrNoDevice = errors.New("printer: no device available")
	// ErrPermission is wrapped by devices when the OS refuses access.
	ErrPermission = errors.New("printer: permission denied")
	// ErrShortWrite means the device accepted fewer bytes than were sent.
	ErrShortWrite = errors.New("printer: short write")
	// ErrStepTimeout means a step did not finish within its timeout.
	ErrStepTimeout = errors.New("printer: step timed out")
	// ErrEmptyBuffer is returned when there is nothing to send.
	ErrEmptyBuffer = errors.New("printer: empty command buffer")
	// ErrDeviceBusy means another job kept the device past the wait limit.
	ErrDeviceBusy = errors.New("printer: device busy")
)

// TransportError is the only error Deliver returns.
type TransportError struct {
	Kind ErrorKind
	Step Step
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("printer: %s during %s: %v", e.Kind, e.Step, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func classify(step Step, err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	kind := TransferFailed
	switch {
	case errors.Is(err, ErrNoDevice), errors.Is(err, os.ErrNotExist):
		kind = NoDeviceAvailable
	case errors.Is(err, ErrPermission), errors.Is(err, os.ErrPermission):
		kind = PermissionDenied
	}
	return &TransportError{Kind: kind, Step: step, Err: err}
}

// Transport delivers command buffers to a single device, one job at a time.
type Transport struct {
	device      BulkDevice
	stepTimeout time.Duration
	logger      *zap.Logger

	// sem is held for the whole device lifecycle. When a step overruns its
	// timeout, the holder is the goroutine waiting for that step to return.
	sem chan struct{}
}

// NewTransport wraps device. A zero stepTimeout means DefaultStepTimeout.
func NewTransport(device BulkDevice, stepTimeout time.Duration, logger *zap.Logger) *Transport {
	if stepTimeout <= 0 {
		stepTimeout = DefaultStepTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{
		device:      device,
		stepTimeout: stepTimeout,
		logger:      logger,
		sem:         make(chan struct{}, 1),
	}
}

// Device returns the wrapped device.
func (t *Transport) Device() BulkDevice {
	return t.device
}

// Deliver runs open, configure, claim, transferOut and close against the
// device. Once called it ignores cancellation of ctx and ends either by
// finishing or by a step timing out. The device is closed on every path
// after a successful open; if a step is still running on the device when
// Deliver gives up, the close happens as soon as that step returns. Every
// failure is a *TransportError.
func (t *Transport) Deliver(ctx context.Context, data []byte) error {
	if t.device == nil {
		return &TransportError{Kind: NoDeviceAvailable, Step: StepOpen, Err: ErrNoDevice}
	}
	if len(data) == 0 {
		return &TransportError{Kind: TransferFailed, Step: StepTransfer, Err: ErrEmptyBuffer}
	}

	ctx = context.WithoutCancel(ctx)
	if !t.acquire() {
		return &TransportError{Kind: TransferFailed, Step: StepOpen, Err: ErrDeviceBusy}
	}

	start := time.Now()
	pending, err := t.deliver(ctx, data)
	if pending != nil {
		go func() {
			pending()
			t.release()
		}()
	} else {
		t.release()
	}
	if err != nil {
		return err
	}

	t.logger.Debug("printer: delivered",
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// deliver returns a non-nil pending func when a step is still running on
// the device; it must run before the device is used again.
func (t *Transport) deliver(ctx context.Context, data []byte) (pending func(), err error) {
	hung, err := t.run(ctx, StepOpen, t.device.Open)
	if hung != nil {
		return func() {
			if <-hung == nil {
				t.closeQuietly("late open")
			}
		}, err
	}
	if err != nil {
		return nil, err
	}

	hung, err = t.session(ctx, data)
	if hung != nil {
		return func() {
			<-hung
			t.closeQuietly("timed out step")
		}, err
	}

	hung, cerr := t.run(ctx, StepClose, func(context.Context) error { return t.device.Close() })
	switch {
	case cerr == nil:
	case err == nil:
		// The receipt is already on paper.
		t.logger.Warn("printer: close failed after transfer", zap.Error(cerr))
	default:
		t.logger.Debug("printer: close failed after error", zap.Error(cerr), zap.NamedError("cause", err))
	}
	if hung != nil {
		return func() { <-hung }, err
	}
	return nil, err
}

// session runs the steps between open and close.
func (t *Transport) session(ctx context.Context, data []byte) (<-chan error, error) {
	transfer := func(stepCtx context.Context) error {
		n, err := t.device.TransferOut(stepCtx, data)
		if err != nil {
			return err
		}
		if n != len(data) {
			return fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, len(data))
		}
		return nil
	}

	steps := []struct {
		step Step
		fn   func(context.Context) error
	}{
		{StepConfigure, t.device.Configure},
		{StepClaim, t.device.Claim},
		{StepTransfer, transfer},
	}
	for _, s := range steps {
		if hung, err := t.run(ctx, s.step, s.fn); err != nil {
			return hung, err
		}
	}
	return nil, nil
}

// run executes fn with the step timeout. When the timeout wins, the
// returned channel yields fn's result once it finally returns.
func (t *Transport) run(ctx context.Context, step Step, fn func(context.Context) error) (<-chan error, error) {
	stepCtx, cancel := context.WithTimeout(ctx, t.stepTimeout)
	done := make(chan error, 1)
	go func() {
		defer cancel()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		return nil, stepError(step, err)
	case <-stepCtx.Done():
		// fn writes done before cancelling, so a finished step is never
		// mistaken for a timeout.
		select {
		case err := <-done:
			return nil, stepError(step, err)
		default:
		}
		return done, &TransportError{
			Kind: TransferFailed,
			Step: step,
			Err:  fmt.Errorf("%w after %s", ErrStepTimeout, t.stepTimeout),
		}
	}
}

func stepError(step Step, err error) error {
	if err == nil {
		return nil
	}
	return classify(step, err)
}

func (t *Transport) closeQuietly(reason string) {
	if err := t.device.Close(); err != nil {
		t.logger.Warn("printer: deferred close failed", zap.String("reason", reason), zap.Error(err))
	}
}

// acquire waits for the device for at most one full lifecycle of step timeouts.
func (t *Transport) acquire() bool {
	select {
	case t.sem <- struct{}{}:
		return true
	default:
	}
	timer := time.NewTimer(5 * t.stepTimeout)
	defer timer.Stop()
	select {
	case t.sem <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

func (t *Transport) release() {
	<-t.sem
}
