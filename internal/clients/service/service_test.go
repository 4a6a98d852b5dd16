package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redeco/internal/clients/models"
	"redeco/internal/clients/store"
	"redeco/internal/platform/logger"
	dErrors "redeco/pkg/domain-errors"
)

func intPtr(v int) *int { return &v }

func newService() *Service {
	return New(store.NewInMemory(), logger.New(), nil)
}

func validInput() models.Client {
	return models.Client{
		Nombre:       "Juan Pérez",
		RFC:          "PEPJ800101XXX",
		TipoPersona:  models.PersonaFisica,
		EstadoID:     9,
		CodigoPostal: "11550",
		Sexo:         "H",
		Edad:         intPtr(34),
	}
}

func TestService_CreateAndList(t *testing.T) {
	s := newService()
	ctx := context.Background()

	created, err := s.Create(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, "PEPJ800101XXX", created.RFC)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestService_CreateDuplicateRFCConflicts(t *testing.T) {
	s := newService()
	ctx := context.Background()

	_, err := s.Create(ctx, validInput())
	require.NoError(t, err)

	_, err = s.Create(ctx, validInput())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Contains(t, err.Error(), "RFC")
}

func TestService_CreateInvalidInputRejected(t *testing.T) {
	s := newService()

	input := validInput()
	input.CodigoPostal = "1234"

	_, err := s.Create(context.Background(), input)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestService_UpdateKeepsOwnRFC(t *testing.T) {
	s := newService()
	ctx := context.Background()

	created, err := s.Create(ctx, validInput())
	require.NoError(t, err)

	// Same RFC on the same record passes the uniqueness check.
	input := validInput()
	input.Nombre = "Juan P. Actualizado"
	updated, err := s.Update(ctx, created.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Juan P. Actualizado", updated.Nombre)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestService_UpdateToTakenRFCConflicts(t *testing.T) {
	s := newService()
	ctx := context.Background()

	_, err := s.Create(ctx, validInput())
	require.NoError(t, err)

	other := validInput()
	other.RFC = "ACM010101XX9"
	otherCreated, err := s.Create(ctx, other)
	require.NoError(t, err)

	steal := validInput()
	_, err = s.Update(ctx, otherCreated.ID, steal)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestService_UpdateUnknownID(t *testing.T) {
	s := newService()

	_, err := s.Update(context.Background(), uuid.New(), validInput())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestService_Delete(t *testing.T) {
	s := newService()
	ctx := context.Background()

	created, err := s.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))

	err = s.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestService_GetUnknownID(t *testing.T) {
	s := newService()

	_, err := s.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
