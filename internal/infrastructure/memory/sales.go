package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

type saleRepo struct{ view }

func cloneSale(s *entity.Sale) *entity.Sale {
	c := *s
	if s.CollectedAmount != nil {
		amount := *s.CollectedAmount
		c.CollectedAmount = &amount
	}
	return &c
}

func (r saleRepo) Create(_ context.Context, s *entity.Sale) error {
	defer r.write()()
	st := &r.s.st
	if _, ok := st.sales[s.ID]; ok {
		return repository.ErrDuplicate
	}
	if s.DedupID != nil {
		k := scoped(s.BarID, *s.DedupID)
		if _, ok := st.saleDedup[k]; ok {
			return repository.ErrDuplicate
		}
		st.saleDedup[k] = s.ID
	}
	st.sales[s.ID] = cloneSale(s)
	st.saleOrder = append(st.saleOrder, s.ID)
	return nil
}

func (r saleRepo) get(barID, id string) *entity.Sale {
	s, ok := r.s.st.sales[id]
	if !ok || s.BarID != barID {
		return nil
	}
	return cloneSale(s)
}

func (r saleRepo) GetByID(_ context.Context, barID, id string) (*entity.Sale, error) {
	defer r.read()()
	return r.get(barID, id), nil
}

// GetForUpdate dentro de Run el lock global ya serializa; igual a GetByID.
func (r saleRepo) GetForUpdate(ctx context.Context, barID, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, barID, id)
}

func (r saleRepo) GetByDedup(_ context.Context, barID, dedupID string) (*entity.Sale, error) {
	defer r.read()()
	id, ok := r.s.st.saleDedup[scoped(barID, dedupID)]
	if !ok {
		return nil, nil
	}
	return r.get(barID, id), nil
}

func (r saleRepo) UpdateStatus(_ context.Context, s *entity.Sale, expected entity.SaleStatus) error {
	defer r.write()()
	cur, ok := r.s.st.sales[s.ID]
	if !ok || cur.BarID != s.BarID || cur.Status != expected {
		return repository.ErrStaleWrite
	}
	r.s.st.sales[s.ID] = cloneSale(s)
	return nil
}

// List en orden de creación.
func (r saleRepo) List(_ context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	defer r.read()()
	var out []*entity.Sale
	for _, id := range r.s.st.saleOrder {
		s := r.s.st.sales[id]
		if s.BarID != f.BarID {
			continue
		}
		if f.ShiftID != "" && s.ShiftID != f.ShiftID {
			continue
		}
		if f.ServerID != "" && s.ServerID != f.ServerID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, s.Status) {
			continue
		}
		out = append(out, cloneSale(s))
	}
	return paginate(out, f.Limit, f.Offset), nil
}

func (r saleRepo) CountByShift(_ context.Context, barID, shiftID string, statuses []entity.SaleStatus) (int, error) {
	defer r.read()()
	n := 0
	for _, s := range r.s.st.sales {
		if s.BarID == barID && s.ShiftID == shiftID && (len(statuses) == 0 || slices.Contains(statuses, s.Status)) {
			n++
		}
	}
	return n, nil
}
