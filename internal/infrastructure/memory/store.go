// Package memory implementa los puertos de repositorio en memoria (desarrollo y tests).
// Las transacciones se simulan con un lock global + snapshot y rollback ante error.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

// Store almacén en memoria. Todas las lecturas devuelven copias: mutar una entidad
// leída no altera el estado hasta que se escribe con el repositorio.
type Store struct {
	mu sync.RWMutex
	st state
}

type state struct {
	bars map[string]*entity.Bar

	movements     []*entity.Movement
	movementByID  map[string]int
	movementDedup map[string]string

	sales     map[string]*entity.Sale
	saleOrder []string
	saleDedup map[string]string

	days      map[string]*entity.Day
	dayByDate map[string]string

	shifts     map[string]*entity.Shift
	shiftOrder []string

	assignments     map[string]*entity.ShiftAssignment
	assignmentOrder []string

	events []*entity.Event

	products     map[string]*entity.Product
	productOrder []string

	users     map[string]*entity.User
	userOrder []string
	userPhone map[string]string
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{st: state{
		bars:          make(map[string]*entity.Bar),
		movementByID:  make(map[string]int),
		movementDedup: make(map[string]string),
		sales:         make(map[string]*entity.Sale),
		saleDedup:     make(map[string]string),
		days:          make(map[string]*entity.Day),
		dayByDate:     make(map[string]string),
		shifts:        make(map[string]*entity.Shift),
		assignments:   make(map[string]*entity.ShiftAssignment),
		products:      make(map[string]*entity.Product),
		users:         make(map[string]*entity.User),
		userPhone:     make(map[string]string),
	}}
}

// snapshot copia superficial: las entidades guardadas nunca se mutan en sitio,
// cada escritura reemplaza el puntero por una copia nueva.
func (s *state) snapshot() state {
	return state{
		bars:            maps.Clone(s.bars),
		movements:       slices.Clone(s.movements),
		movementByID:    maps.Clone(s.movementByID),
		movementDedup:   maps.Clone(s.movementDedup),
		sales:           maps.Clone(s.sales),
		saleOrder:       slices.Clone(s.saleOrder),
		saleDedup:       maps.Clone(s.saleDedup),
		days:            maps.Clone(s.days),
		dayByDate:       maps.Clone(s.dayByDate),
		shifts:          maps.Clone(s.shifts),
		shiftOrder:      slices.Clone(s.shiftOrder),
		assignments:     maps.Clone(s.assignments),
		assignmentOrder: slices.Clone(s.assignmentOrder),
		events:          slices.Clone(s.events),
		products:        maps.Clone(s.products),
		productOrder:    slices.Clone(s.productOrder),
		users:           maps.Clone(s.users),
		userOrder:       slices.Clone(s.userOrder),
		userPhone:       maps.Clone(s.userPhone),
	}
}

// Run ejecuta fn con el lock de escritura tomado. Si fn falla se restaura el snapshot.
// Implementa ports.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(tx repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.st.snapshot()
	if err := fn(s.repos(true)); err != nil {
		s.st = snap
		return err
	}
	return nil
}

// Repos repositorios fuera de transacción (cada llamada toma su propio lock).
func (s *Store) Repos() repository.Repos {
	return s.repos(false)
}

func (s *Store) repos(inTx bool) repository.Repos {
	v := view{s: s, inTx: inTx}
	return repository.Repos{
		Movements:   movementRepo{v},
		Sales:       saleRepo{v},
		Days:        dayRepo{v},
		Shifts:      shiftRepo{v},
		Assignments: assignmentRepo{v},
		Events:      eventRepo{v},
		Products:    productRepo{v},
		Users:       userRepo{v},
		Locker:      locker{},
	}
}

// view evita re-tomar el lock cuando ya se está dentro de Run.
type view struct {
	s    *Store
	inTx bool
}

func (v view) read() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.RLock()
	return v.s.mu.RUnlock
}

func (v view) write() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

// locker no-op: Run ya serializa todas las transacciones.
type locker struct{}

func (locker) Lock(context.Context, string) error { return nil }

// CreateBar registra un bar (seed y tests).
func (s *Store) CreateBar(b *entity.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *b
	s.st.bars[b.ID] = &c
}

func scoped(barID, key string) string { return barID + "|" + key }

func paginate[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return []T{}
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
