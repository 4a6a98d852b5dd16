// Package service implements the client registry use cases on top of the
// store.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"redeco/internal/clients/models"
	"redeco/internal/clients/store"
	"redeco/internal/platform/metrics"
	"redeco/internal/sentinel"
	dErrors "redeco/pkg/domain-errors"
)

// Service handles client registry operations. It owns validation and the
// duplicate-RFC translation; handlers only see domain errors.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a registry service. The metrics argument may be nil.
func New(st store.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: st, logger: logger, metrics: m}
}

// Create validates and persists a new client record.
func (s *Service) Create(ctx context.Context, input models.Client) (*models.Client, error) {
	c, err := models.New(input)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "Ya existe un cliente con ese RFC.")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo guardar el cliente")
	}

	s.count("create")
	s.logger.InfoContext(ctx, "client created", "client_id", c.ID, "rfc", c.RFC)
	return c, nil
}

// List returns all records, most-recently-created first.
func (s *Service) List(ctx context.Context) ([]*models.Client, error) {
	clients, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo listar los clientes")
	}
	return clients, nil
}

// Get fetches a single record by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	c, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "Cliente no encontrado.")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo consultar el cliente")
	}
	return c, nil
}

// Update applies the same validation as Create, excluding the record itself
// from the RFC uniqueness check.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input models.Client) (*models.Client, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := input
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	normalized, err := models.New(updated)
	if err != nil {
		return nil, err
	}
	normalized.ID = existing.ID
	normalized.CreatedAt = existing.CreatedAt

	if err := s.store.Update(ctx, normalized); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "Ya existe un cliente con ese RFC.")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Cliente no encontrado.")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo actualizar el cliente")
	}

	s.count("update")
	s.logger.InfoContext(ctx, "client updated", "client_id", normalized.ID, "rfc", normalized.RFC)
	return normalized, nil
}

// Delete removes a record by ID.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "Cliente no encontrado.")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo eliminar el cliente")
	}

	s.count("delete")
	s.logger.InfoContext(ctx, "client deleted", "client_id", id)
	return nil
}

func (s *Service) count(operation string) {
	if s.metrics != nil {
		s.metrics.RegistryOperations.WithLabelValues(operation).Inc()
	}
}
