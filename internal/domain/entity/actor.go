package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Actor es el contexto de autorización que acompaña cada operación.
// Lo construye un colaborador externo de sesión; el núcleo lo trata como confiable.
type Actor struct {
	UserID     string
	Role       string
	BarID      string
	DeviceID   string
	ShiftID    *string    // turno abierto desde el que opera, si aplica
	ClientTime *time.Time // hora reportada por el dispositivo
	DedupID    string     // clave de idempotencia del cliente para reintentos
}

// HasRole indica si el actor tiene alguno de los roles.
func (a Actor) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// OccurredAt hora efectiva de la operación: la del cliente si viene, si no now.
func (a Actor) OccurredAt(now time.Time) time.Time {
	if a.ClientTime != nil && !a.ClientTime.IsZero() {
		return a.ClientTime.UTC()
	}
	return now
}

// DedupRef devuelve la clave de idempotencia o nil.
func (a Actor) DedupRef() *string {
	if strings.TrimSpace(a.DedupID) == "" {
		return nil
	}
	s := strings.TrimSpace(a.DedupID)
	return &s
}

// MinReasonLength longitud mínima (en caracteres) de un motivo.
const MinReasonLength = 3

// NormalizeReason recorta y normaliza (NFC) el motivo.
func NormalizeReason(reason string) string {
	return norm.NFC.String(strings.TrimSpace(reason))
}

// ValidReason indica si el motivo tiene al menos MinReasonLength caracteres.
func ValidReason(reason string) bool {
	return utf8.RuneCountInString(NormalizeReason(reason)) >= MinReasonLength
}
