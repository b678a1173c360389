package commonGo

import "time"

// FileLoggingHandler defines a component able to save the application logs to a rotating file
type FileLoggingHandler interface {
	ChangeFileLifeSpan(newDuration time.Duration, newSizeInMB uint64) error
	Close() error
	IsInterfaceNil() bool
}
