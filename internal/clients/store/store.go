// Package store persists client registry records.
package store

import (
	"context"

	"github.com/google/uuid"

	"redeco/internal/clients/models"
)

// Store is the persistence contract for the client registry.
// Create and Update return sentinel.ErrDuplicate when another record already
// holds the same RFC.
type Store interface {
	Create(ctx context.Context, c *models.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	FindByRFC(ctx context.Context, rfc string) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
	Update(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
}
