package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/ledger"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

type movementRepo struct{ view }

func cloneMovement(m *entity.Movement) *entity.Movement {
	c := *m
	return &c
}

func (r movementRepo) Create(_ context.Context, m *entity.Movement) error {
	defer r.write()()
	st := &r.s.st
	if _, ok := st.movementByID[m.ID]; ok {
		return repository.ErrDuplicate
	}
	if m.DedupID != nil {
		k := scoped(m.BarID, *m.DedupID)
		if _, ok := st.movementDedup[k]; ok {
			return repository.ErrDuplicate
		}
		st.movementDedup[k] = m.ID
	}
	st.movementByID[m.ID] = len(st.movements)
	st.movements = append(st.movements, cloneMovement(m))
	return nil
}

func (r movementRepo) GetByID(_ context.Context, barID, id string) (*entity.Movement, error) {
	defer r.read()()
	i, ok := r.s.st.movementByID[id]
	if !ok || r.s.st.movements[i].BarID != barID {
		return nil, nil
	}
	return cloneMovement(r.s.st.movements[i]), nil
}

func (r movementRepo) GetByDedup(ctx context.Context, barID, dedupID string) (*entity.Movement, error) {
	unlock := r.read()
	id, ok := r.s.st.movementDedup[scoped(barID, dedupID)]
	unlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, barID, id)
}

// Balance delega en ledger.Balance sobre las filas guardadas: misma fórmula que la agregación SQL.
func (r movementRepo) Balance(_ context.Context, scope ledger.Scope) (int64, error) {
	defer r.read()()
	return ledger.Balance(r.s.st.movements, scope), nil
}

func (r movementRepo) ListByProduct(_ context.Context, barID, productID string) ([]*entity.Movement, error) {
	defer r.read()()
	var out []*entity.Movement
	for _, m := range r.s.st.movements {
		if m.BarID == barID && m.ProductID == productID {
			out = append(out, cloneMovement(m))
		}
	}
	return out, nil
}

// List más reciente primero.
func (r movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	defer r.read()()
	var out []*entity.Movement
	for i := len(r.s.st.movements) - 1; i >= 0; i-- {
		m := r.s.st.movements[i]
		if matchMovement(m, f) {
			out = append(out, cloneMovement(m))
		}
	}
	return paginate(out, f.Limit, f.Offset), nil
}

func matchMovement(m *entity.Movement, f repository.MovementFilter) bool {
	if m.BarID != f.BarID {
		return false
	}
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.HolderID != nil && !slices.Contains(m.Holders(), *f.HolderID) {
		return false
	}
	if f.ShiftID != nil && (m.ShiftID == nil || *m.ShiftID != *f.ShiftID) {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, m.Type) {
		return false
	}
	if f.From != nil && m.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.OccurredAt.After(*f.To) {
		return false
	}
	return true
}
