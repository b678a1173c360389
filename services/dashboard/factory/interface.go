package factory

// Server defines the operation of an entity able to serve requests
type Server interface {
	Start()
	Address() string
	Close() error
}

// Bridge defines the live update channel lifecycle
type Bridge interface {
	Start()
	Close()
}

// Scheduler defines the view scheduler lifecycle
type Scheduler interface {
	Start()
	Close()
}
