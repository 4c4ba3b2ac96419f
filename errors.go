package footlight

import "errors"

var (
	ErrEngineClosed         = errors.New("engine is closed")
	ErrEngineNotRunning     = errors.New("engine is not running")
	ErrEngineAlreadyRunning = errors.New("engine is already running")
)
