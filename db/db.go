package db

import "context"

// DB is a connection owned by the process for its whole lifetime.
type DB interface {
	Connect() error
	Disconnect() error
	GetContext() context.Context
}
