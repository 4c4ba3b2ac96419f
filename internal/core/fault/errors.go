package fault

import (
	"errors"
	"time"
)

// Core engine errors
var (
	// Container errors

	ErrSystemNotFound     = errors.New("system not found")
	ErrSystemDisposed     = errors.New("system is disposed")
	ErrCircularDependency = errors.New("circular dependency detected")
	ErrMissingDependency  = errors.New("missing dependency")
	ErrInvalidDefinition  = errors.New("invalid system definition")
	ErrFactoryFailed      = errors.New("system factory failed")
	ErrInitializeFailed   = errors.New("system initialization failed")
	ErrTypeMismatch       = errors.New("system type mismatch")

	// Render errors

	ErrRendererNotFound    = errors.New("renderer not found")
	ErrRendererInitFailed  = errors.New("renderer initialization failed")
	ErrRendererDisposed    = errors.New("renderer is disposed")
	ErrUnknownCommandKind  = errors.New("unknown render command kind")
	ErrFrameDeliveryFailed = errors.New("frame delivery failed")

	// Scene and state errors

	ErrSceneNotFound    = errors.New("scene not found")
	ErrSceneInvalid     = errors.New("invalid scene definition")
	ErrStateNotFound    = errors.New("game state not found")
	ErrStateStackEmpty  = errors.New("game state stack is empty")
	ErrStateStackActive = errors.New("game state stack is not empty")

	// Save errors

	ErrSlotNotFound      = errors.New("save slot not found")
	ErrAdapterRejected   = errors.New("storage adapter rejected operation")
	ErrPayloadCorrupt    = errors.New("save payload corrupt")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrSystemKeyConflict = errors.New("serializable system key already registered")

	// Asset errors

	ErrLoaderNotFound    = errors.New("asset loader not found")
	ErrAssetNotFound     = errors.New("asset not found")
	ErrAssetLoadFailed   = errors.New("asset load failed")
	ErrAssetTypeMismatch = errors.New("asset type mismatch")

	// Audio errors

	ErrChannelNotFound = errors.New("audio channel not found")

	// Configuration errors

	ErrInvalidConfig = errors.New("invalid configuration")

	// Generic errors

	ErrNotImplemented = errors.New("not implemented")
	ErrInternalError  = errors.New("internal error")
)

// Code represents a numeric error code for efficient error handling
type Code int

const (
	// Success

	CodeSuccess Code = 0

	// Container error codes (1000-1999)

	CodeSystemNotFound     Code = 1001
	CodeSystemDisposed     Code = 1002
	CodeCircularDependency Code = 1003
	CodeMissingDependency  Code = 1004
	CodeInvalidDefinition  Code = 1005
	CodeFactoryFailed      Code = 1006
	CodeInitializeFailed   Code = 1007
	CodeTypeMismatch       Code = 1008

	// Render error codes (2000-2999)

	CodeRendererNotFound    Code = 2001
	CodeRendererInitFailed  Code = 2002
	CodeRendererDisposed    Code = 2003
	CodeUnknownCommandKind  Code = 2004
	CodeFrameDeliveryFailed Code = 2005

	// Scene and state error codes (3000-3999)

	CodeSceneNotFound    Code = 3001
	CodeSceneInvalid     Code = 3002
	CodeStateNotFound    Code = 3101
	CodeStateStackEmpty  Code = 3102
	CodeStateStackActive Code = 3103

	// Save error codes (4000-4999)

	CodeSlotNotFound      Code = 4001
	CodeAdapterRejected   Code = 4002
	CodePayloadCorrupt    Code = 4003
	CodeChecksumMismatch  Code = 4004
	CodeSystemKeyConflict Code = 4005

	// Asset error codes (5000-5999)

	CodeLoaderNotFound    Code = 5001
	CodeAssetNotFound     Code = 5002
	CodeAssetLoadFailed   Code = 5003
	CodeAssetTypeMismatch Code = 5004

	// Audio error codes (6000-6999)

	CodeChannelNotFound Code = 6001

	// Configuration error codes (7000-7999)

	CodeInvalidConfig Code = 7001

	// Generic error codes (9000-9999)

	CodeNotImplemented Code = 9001
	CodeInternalError  Code = 9003
	CodeUnknown        Code = 9999
)

// Error represents an engine error with additional context
type Error struct {
	Code      Code
	Message   string
	Cause     error
	Context   map[string]interface{}
	Timestamp int64
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// codeSentinels ties every Code to its sentinel so errors.Is matches the
// category even when Cause carries a lower-level error.
var codeSentinels = map[Code]error{
	CodeSystemNotFound:      ErrSystemNotFound,
	CodeSystemDisposed:      ErrSystemDisposed,
	CodeCircularDependency:  ErrCircularDependency,
	CodeMissingDependency:   ErrMissingDependency,
	CodeInvalidDefinition:   ErrInvalidDefinition,
	CodeFactoryFailed:       ErrFactoryFailed,
	CodeInitializeFailed:    ErrInitializeFailed,
	CodeTypeMismatch:        ErrTypeMismatch,
	CodeRendererNotFound:    ErrRendererNotFound,
	CodeRendererInitFailed:  ErrRendererInitFailed,
	CodeRendererDisposed:    ErrRendererDisposed,
	CodeUnknownCommandKind:  ErrUnknownCommandKind,
	CodeFrameDeliveryFailed: ErrFrameDeliveryFailed,
	CodeSceneNotFound:       ErrSceneNotFound,
	CodeSceneInvalid:        ErrSceneInvalid,
	CodeStateNotFound:       ErrStateNotFound,
	CodeStateStackEmpty:     ErrStateStackEmpty,
	CodeStateStackActive:    ErrStateStackActive,
	CodeSlotNotFound:        ErrSlotNotFound,
	CodeAdapterRejected:     ErrAdapterRejected,
	CodePayloadCorrupt:      ErrPayloadCorrupt,
	CodeChecksumMismatch:    ErrChecksumMismatch,
	CodeSystemKeyConflict:   ErrSystemKeyConflict,
	CodeLoaderNotFound:      ErrLoaderNotFound,
	CodeAssetNotFound:       ErrAssetNotFound,
	CodeAssetLoadFailed:     ErrAssetLoadFailed,
	CodeAssetTypeMismatch:   ErrAssetTypeMismatch,
	CodeChannelNotFound:     ErrChannelNotFound,
	CodeInvalidConfig:       ErrInvalidConfig,
	CodeNotImplemented:      ErrNotImplemented,
	CodeInternalError:       ErrInternalError,
}

// Is lets errors.Is match the sentinel for this error's Code regardless of
// what Cause carries.
func (e *Error) Is(target error) bool {
	sentinel, ok := codeSentinels[e.Code]
	return ok && target == sentinel
}

// New creates a new engine error. Cause is usually one of the package
// sentinels so callers can match with errors.Is, or a wrapped lower-level
// error when one exists.
func New(code Code, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Context:   make(map[string]interface{}),
		Timestamp: time.Now().Unix(),
	}
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	e.Context[key] = value
	return e
}

// IsRecoverable reports whether the engine should degrade and continue after
// this error. Wiring faults (container, configuration) are programming
// mistakes and must fail fast; resource and data faults are part of normal
// operation and are reported through events instead.
func (e *Error) IsRecoverable() bool {
	switch {
	case e.Code >= 1000 && e.Code < 2000:
		return false
	case e.Code == CodeInvalidConfig:
		return false
	case e.Code == CodeInternalError, e.Code == CodeNotImplemented:
		return false
	default:
		return true
	}
}
