package bot

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("invalid bot configuration")

	ErrNilGateway      = errors.New("bot: gateway cannot be nil")
	ErrAlreadyStarted  = errors.New("bot: already started")
	ErrShuttingDown    = errors.New("bot: shutting down")
	ErrNotInitialized  = errors.New("bot: instance not initialized")
	ErrUncaughtPanic   = errors.New("bot: uncaught panic")
	ErrGatewayOpen     = errors.New("bot: failed to open gateway")
	ErrRegisterCommand = errors.New("bot: failed to register commands")
)

// ConfigurationError reports a missing or invalid setting. It is fatal at startup.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
