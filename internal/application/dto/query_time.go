package dto

import "time"

// ParseTime convierte un parámetro RFC3339 opcional; vacío = nil.
// Se llama después de validar el DTO, por eso un error de parseo devuelve nil.
func ParseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// OptionalID devuelve nil para un id vacío.
func OptionalID(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
