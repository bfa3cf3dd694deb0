package bridge

import (
	"errors"
	"fmt"
)

// Step contexts written into the error channel. Callers match on these
// strings, so they are part of the public surface.
const (
	CtxInvalidInput   = "Invalid input"
	CtxInvalidHandle  = "Invalid handle"
	CtxUnavailable    = "Runtime unavailable"
	CtxModel          = "Model creation failed"
	CtxConfig         = "Config creation failed"
	CtxClearProviders = "Clearing providers failed"
	CtxAppendProvider = "Appending provider failed"
	CtxProviderOption = "Setting provider option failed"
	CtxProcessor      = "MultiModal processor creation failed"
	CtxTokenizer      = "Tokenizer creation failed"
	CtxImages         = "Image loading failed"
	CtxParams         = "Generator params creation failed"
	CtxMaxLength      = "Setting max length failed"
	CtxProcess        = "Image processing failed"
	CtxTokenize       = "Tokenization failed"
	CtxSetTensors     = "Setting input tensors failed"
	CtxSetSequences   = "Setting input sequences failed"
	CtxGenerator      = "Generator creation failed"
	CtxStream         = "Tokenizer stream creation failed"
	CtxGenerateNext   = "Generate next token failed"
	CtxDecode         = "Token decode failed"
	errorPrefix       = "ERROR: "
)

// InputError rejects a call before any engine resource is touched.
type InputError struct{ Msg string }

func (e *InputError) Error() string { return CtxInvalidInput + ": " + e.Msg }

func errInput(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// IsInput reports whether err is an input validation failure.
func IsInput(err error) bool {
	var e *InputError
	return errors.As(err, &e)
}

// StepError names the chain step that failed. Err is the engine's message.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return e.Step + ": " + e.Err.Error() }

func (e *StepError) Unwrap() error { return e.Err }

// IsStep reports whether err failed at the given step context.
func IsStep(err error, step string) bool {
	var e *StepError
	return errors.As(err, &e) && e.Step == step
}

// HandleError reports a configuration handle that is zero, never issued, or
// already destroyed.
type HandleError struct {
	Handle Handle
	Reason string
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", CtxInvalidHandle, e.Reason, e.Handle)
}

// IsHandle reports whether err is an unknown or stale handle.
func IsHandle(err error) bool {
	var e *HandleError
	return errors.As(err, &e)
}

// ErrShutdown is returned by every operation after Shutdown.
var ErrShutdown = errors.New("runtime has been shut down")

// IsShutdown reports whether err indicates the bridge was shut down.
func IsShutdown(err error) bool { return errors.Is(err, ErrShutdown) }
