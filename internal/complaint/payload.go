// Package complaint builds and submits REDECO complaint records and REUNE
// bulk queries.
package complaint

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	dErrors "redeco/pkg/domain-errors"
)

// Form field names match the REDECO quejas payload fields one to one.
var requiredFields = []string{
	"QuejasTrim",
	"QuejasFolio",
	"QuejasFecRecepcion",
	"MedioId",
	"NivelATId",
	"Producto",
	"CausaId",
	"QuejasPORI",
	"QuejasEstatus",
	"EstadosId",
	"QuejasMpioId",
	"QuejasColId",
	"QuejasCP",
	"QuejasTipoPersona",
}

// Optional fields are omitted from the payload entirely when empty, never
// sent as null.
var optionalFields = []string{
	"QuejasLocId",
	"QuejasSexo",
	"QuejasEdad",
	"QuejasFecResolucion",
	"QuejasFecNotificacion",
	"QuejasRespuesta",
	"QuejasNumPenal",
	"PenalizacionId",
}

// Fields the API types as integers. Coercion is lenient: a non-digit value
// stays a string and the API remains the authority on rejecting it.
var numericFields = map[string]bool{
	"QuejasTrim":        true,
	"MedioId":           true,
	"NivelATId":         true,
	"QuejasEstatus":     true,
	"EstadosId":         true,
	"QuejasMpioId":      true,
	"QuejasLocId":       true,
	"QuejasColId":       true,
	"QuejasCP":          true,
	"QuejasTipoPersona": true,
	"QuejasEdad":        true,
	"QuejasRespuesta":   true,
	"QuejasNumPenal":    true,
	"PenalizacionId":    true,
}

var dateFields = map[string]bool{
	"QuejasFecRecepcion":    true,
	"QuejasFecResolucion":   true,
	"QuejasFecNotificacion": true,
}

// BuildPayload turns raw form input into the JSON body the REDECO quejas
// endpoint expects. It validates presence and enumerated values only;
// catalog-level validity is left to the API. No network call happens here.
func BuildPayload(fields map[string]string) (map[string]any, error) {
	cleaned := make(map[string]string, len(fields))
	for k, v := range fields {
		cleaned[k] = strings.TrimSpace(v)
	}
	cleaned["QuejasPORI"] = strings.ToUpper(cleaned["QuejasPORI"])

	var missing []string
	for _, name := range requiredFields {
		if cleaned[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("Faltan campos obligatorios: %s", strings.Join(missing, ", ")))
	}

	if pori := cleaned["QuejasPORI"]; pori != "SI" && pori != "NO" {
		return nil, dErrors.New(dErrors.CodeValidation, "QuejasPORI debe ser SI o NO")
	}
	if estatus := cleaned["QuejasEstatus"]; estatus != "1" && estatus != "2" {
		return nil, dErrors.New(dErrors.CodeValidation, "QuejasEstatus debe ser 1 (pendiente) o 2 (concluida)")
	}

	payload := make(map[string]any, len(requiredFields)+len(optionalFields))
	for _, name := range requiredFields {
		payload[name] = coerce(name, cleaned[name])
	}
	for _, name := range optionalFields {
		value := cleaned[name]
		if value == "" {
			continue
		}
		if numericFields[name] && !isDigits(value) {
			continue
		}
		payload[name] = coerce(name, value)
	}
	return payload, nil
}

func coerce(name, value string) any {
	if dateFields[name] {
		return normalizeDate(value)
	}
	if numericFields[name] && isDigits(value) {
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
	}
	return value
}

// normalizeDate accepts ISO (YYYY-MM-DD) or already-localized (DD/MM/YYYY)
// dates and emits DD/MM/YYYY. Anything else passes through unchanged; the
// API reports its own validation errors for malformed dates.
func normalizeDate(value string) string {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.Format("02/01/2006")
	}
	if _, err := time.Parse("02/01/2006", value); err == nil {
		return value
	}
	return value
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
