package devices

import "context"

type Repository interface {
	// FindName returns the stored device name for the user, or
	// common.ErrorNotFound if the user has no device with that name.
	FindName(ctx context.Context, userID int64, name string) (string, error)
	Create(ctx context.Context, userID int64, name string) error
}
