package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"redeco/internal/clients/models"
	"redeco/internal/sentinel"
)

// Postgres persists registry records in the clients table. The RFC unique
// index enforces the tax-identifier constraint at the database level.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed registry store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const clientColumns = `id, nombre, rfc, tipo_persona, estado_id, estado_nombre,
	codigo_postal, municipio_id, municipio_nombre, colonia_id, colonia_nombre,
	localidad, sexo, edad, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, c *models.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, c.ID, c.Nombre, c.RFC, c.TipoPersona, c.EstadoID, c.EstadoNombre,
		c.CodigoPostal, nullInt(c.MunicipioID), c.MunicipioNombre,
		nullInt(c.ColoniaID), c.ColoniaNombre, c.Localidad,
		nullString(c.Sexo), nullInt(c.Edad), c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("rfc already registered: %w", sentinel.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+clientColumns+` FROM clients WHERE id = $1
	`, id)
	return scanClient(row)
}

func (s *Postgres) FindByRFC(ctx context.Context, rfc string) (*models.Client, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+clientColumns+` FROM clients WHERE rfc = $1
	`, rfc)
	return scanClient(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

func (s *Postgres) Update(ctx context.Context, c *models.Client) error {
	c.UpdatedAt = time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE clients SET
			nombre = $2, rfc = $3, tipo_persona = $4, estado_id = $5,
			estado_nombre = $6, codigo_postal = $7, municipio_id = $8,
			municipio_nombre = $9, colonia_id = $10, colonia_nombre = $11,
			localidad = $12, sexo = $13, edad = $14, updated_at = $15
		WHERE id = $1
	`, c.ID, c.Nombre, c.RFC, c.TipoPersona, c.EstadoID, c.EstadoNombre,
		c.CodigoPostal, nullInt(c.MunicipioID), c.MunicipioNombre,
		nullInt(c.ColoniaID), c.ColoniaNombre, c.Localidad,
		nullString(c.Sexo), nullInt(c.Edad), c.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("rfc already registered: %w", sentinel.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update client rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete client rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		c           models.Client
		municipioID sql.NullInt64
		coloniaID   sql.NullInt64
		sexo        sql.NullString
		edad        sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.Nombre, &c.RFC, &c.TipoPersona, &c.EstadoID,
		&c.EstadoNombre, &c.CodigoPostal, &municipioID, &c.MunicipioNombre,
		&coloniaID, &c.ColoniaNombre, &c.Localidad, &sexo, &edad,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan client: %w", err)
	}

	if municipioID.Valid {
		v := int(municipioID.Int64)
		c.MunicipioID = &v
	}
	if coloniaID.Valid {
		v := int(coloniaID.Int64)
		c.ColoniaID = &v
	}
	if sexo.Valid {
		c.Sexo = sexo.String
	}
	if edad.Valid {
		v := int(edad.Int64)
		c.Edad = &v
	}
	return &c, nil
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
