package repository

// Tamaño de página de los listados.
const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// PageLimit normaliza el límite pedido: sin valor usa DefaultLimit, por encima de MaxLimit se recorta.
func PageLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
