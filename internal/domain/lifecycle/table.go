// Package lifecycle define las máquinas de estado de Sale, Day y Shift como tablas de transición
// explícitas consultadas por un único chequeo genérico.
package lifecycle

import "github.com/jhoicas/custodia-api/internal/domain"

// Table mapea estado origen → destinos legales.
type Table[S comparable] struct {
	name  string
	edges map[S][]S
}

// NewTable construye una tabla; name se usa en los errores.
func NewTable[S comparable](name string, edges map[S][]S) Table[S] {
	return Table[S]{name: name, edges: edges}
}

// Allows indica si from→to es legal.
func (t Table[S]) Allows(from, to S) bool {
	for _, s := range t.edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Check devuelve IllegalTransition si from→to no está en la tabla.
func (t Table[S]) Check(from, to S) error {
	if !t.Allows(from, to) {
		return domain.IllegalTransition(t.name, from, to)
	}
	return nil
}

// Targets destinos legales desde from (copia).
func (t Table[S]) Targets(from S) []S {
	return append([]S(nil), t.edges[from]...)
}

// Terminal indica si from no tiene salidas.
func (t Table[S]) Terminal(from S) bool {
	return len(t.edges[from]) == 0
}
