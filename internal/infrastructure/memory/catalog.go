package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

type eventRepo struct{ view }

func (r eventRepo) Append(_ context.Context, e *entity.Event) error {
	defer r.write()()
	c := *e
	c.Payload = slices.Clone(e.Payload)
	r.s.st.events = append(r.s.st.events, &c)
	return nil
}

// List más reciente primero.
func (r eventRepo) List(_ context.Context, f repository.EventFilter) ([]*entity.Event, error) {
	defer r.read()()
	var out []*entity.Event
	for i := len(r.s.st.events) - 1; i >= 0; i-- {
		e := r.s.st.events[i]
		switch {
		case e.BarID != f.BarID,
			f.EntityType != "" && e.EntityType != f.EntityType,
			f.EntityID != "" && e.EntityID != f.EntityID,
			f.ActorID != "" && e.ActorID != f.ActorID,
			len(f.Types) > 0 && !slices.Contains(f.Types, e.Type),
			f.From != nil && e.OccurredAt.Before(*f.From),
			f.To != nil && e.OccurredAt.After(*f.To):
			continue
		}
		c := *e
		out = append(out, &c)
	}
	return paginate(out, f.Limit, f.Offset), nil
}

type productRepo struct{ view }

func (r productRepo) Create(_ context.Context, p *entity.Product) error {
	defer r.write()()
	if _, ok := r.s.st.products[p.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, id := range r.s.st.productOrder {
		if q := r.s.st.products[id]; q.BarID == p.BarID && q.SKU == p.SKU && p.SKU != "" {
			return repository.ErrDuplicate
		}
	}
	c := *p
	r.s.st.products[p.ID] = &c
	r.s.st.productOrder = append(r.s.st.productOrder, p.ID)
	return nil
}

func (r productRepo) GetByID(_ context.Context, barID, id string) (*entity.Product, error) {
	defer r.read()()
	p, ok := r.s.st.products[id]
	if !ok || p.BarID != barID {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r productRepo) ListByBar(_ context.Context, barID string, limit, offset int) ([]*entity.Product, error) {
	defer r.read()()
	var out []*entity.Product
	for _, id := range r.s.st.productOrder {
		if p := r.s.st.products[id]; p.BarID == barID {
			c := *p
			out = append(out, &c)
		}
	}
	return paginate(out, limit, offset), nil
}

type userRepo struct{ view }

func (r userRepo) Create(_ context.Context, u *entity.User) error {
	defer r.write()()
	if _, ok := r.s.st.users[u.ID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := r.s.st.userPhone[u.Phone]; ok && u.Phone != "" {
		return repository.ErrDuplicate
	}
	c := *u
	r.s.st.users[u.ID] = &c
	r.s.st.userOrder = append(r.s.st.userOrder, u.ID)
	if u.Phone != "" {
		r.s.st.userPhone[u.Phone] = u.ID
	}
	return nil
}

func (r userRepo) GetByID(_ context.Context, barID, id string) (*entity.User, error) {
	defer r.read()()
	u, ok := r.s.st.users[id]
	if !ok || u.BarID != barID {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r userRepo) FindByPhone(_ context.Context, phone string) (*entity.User, error) {
	defer r.read()()
	id, ok := r.s.st.userPhone[phone]
	if !ok {
		return nil, nil
	}
	c := *r.s.st.users[id]
	return &c, nil
}

func (r userRepo) ListByBar(_ context.Context, barID string, limit, offset int) ([]*entity.User, error) {
	defer r.read()()
	var out []*entity.User
	for _, id := range r.s.st.userOrder {
		if u := r.s.st.users[id]; u.BarID == barID {
			c := *u
			out = append(out, &c)
		}
	}
	return paginate(out, limit, offset), nil
}
