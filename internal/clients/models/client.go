// Package models defines the local client registry record and its
// validation rules. The registry is portal-local; nothing here touches the
// CONDUSEF APIs.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "redeco/pkg/domain-errors"
)

// Person types per the REDECO catalog convention.
const (
	PersonaFisica = 1
	PersonaMoral  = 2
)

// Client is a registered customer of the institution. RFC is the Mexican
// tax identifier and must be unique across the registry.
type Client struct {
	ID          uuid.UUID
	Nombre      string
	RFC         string
	TipoPersona int

	EstadoID        int
	EstadoNombre    string
	CodigoPostal    string
	MunicipioID     *int
	MunicipioNombre string
	ColoniaID       *int
	ColoniaNombre   string
	Localidad       string

	// Only meaningful for physical persons.
	Sexo string
	Edad *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds a validated client record with a fresh ID. Nombre and RFC are
// trimmed, RFC uppercased.
func New(c Client) (*Client, error) {
	c.ID = uuid.New()
	c.Nombre = strings.TrimSpace(c.Nombre)
	c.RFC = strings.ToUpper(strings.TrimSpace(c.RFC))
	c.Sexo = strings.TrimSpace(c.Sexo)

	if err := c.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	return &c, nil
}

// Validate applies the model-level rules. Uniqueness of the RFC is the
// store's job, not the model's.
func (c *Client) Validate() error {
	if c.Nombre == "" {
		return dErrors.New(dErrors.CodeValidation, "El nombre del cliente es obligatorio.")
	}
	if !validRFC(c.RFC) {
		return dErrors.New(dErrors.CodeValidation, "El RFC debe tener entre 12 y 13 caracteres alfanuméricos.")
	}
	if c.TipoPersona != PersonaFisica && c.TipoPersona != PersonaMoral {
		return dErrors.New(dErrors.CodeValidation, "El tipo de persona debe ser 1 (física) o 2 (moral).")
	}
	if c.TipoPersona == PersonaMoral && (c.Sexo != "" || c.Edad != nil) {
		return dErrors.New(dErrors.CodeValidation, "Las personas morales no pueden tener sexo o edad.")
	}
	if c.Sexo != "" && c.Sexo != "H" && c.Sexo != "M" {
		return dErrors.New(dErrors.CodeValidation, "El sexo debe ser H o M.")
	}
	if c.Edad != nil && (*c.Edad < 0 || *c.Edad > 999) {
		return dErrors.New(dErrors.CodeValidation, "La edad debe estar entre 0 y 999.")
	}
	if c.EstadoID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "La entidad federativa es obligatoria.")
	}
	if !validPostalCode(c.CodigoPostal) {
		return dErrors.New(dErrors.CodeValidation, "El código postal debe tener 5 dígitos.")
	}
	return nil
}

func validRFC(rfc string) bool {
	if len(rfc) < 12 || len(rfc) > 13 {
		return false
	}
	for _, r := range rfc {
		alnum := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '&' || r == 'Ñ'
		if !alnum {
			return false
		}
	}
	return true
}

func validPostalCode(cp string) bool {
	if len(cp) != 5 {
		return false
	}
	for _, r := range cp {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
