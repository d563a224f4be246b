package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

type dayRepo struct{ view }

func cloneDay(d *entity.Day) *entity.Day {
	c := *d
	return &c
}

func (r dayRepo) Create(_ context.Context, d *entity.Day) error {
	defer r.write()()
	st := &r.s.st
	k := scoped(d.BarID, d.BusinessDate)
	if _, ok := st.dayByDate[k]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := st.days[d.ID]; ok {
		return repository.ErrDuplicate
	}
	st.days[d.ID] = cloneDay(d)
	st.dayByDate[k] = d.ID
	return nil
}

func (r dayRepo) get(barID, id string) *entity.Day {
	d, ok := r.s.st.days[id]
	if !ok || d.BarID != barID {
		return nil
	}
	return cloneDay(d)
}

func (r dayRepo) GetByID(_ context.Context, barID, id string) (*entity.Day, error) {
	defer r.read()()
	return r.get(barID, id), nil
}

func (r dayRepo) GetForUpdate(ctx context.Context, barID, id string) (*entity.Day, error) {
	return r.GetByID(ctx, barID, id)
}

func (r dayRepo) GetByDate(_ context.Context, barID, businessDate string) (*entity.Day, error) {
	defer r.read()()
	id, ok := r.s.st.dayByDate[scoped(barID, businessDate)]
	if !ok {
		return nil, nil
	}
	return r.get(barID, id), nil
}

func (r dayRepo) ListByStatus(_ context.Context, barID string, status entity.DayStatus) ([]*entity.Day, error) {
	defer r.read()()
	var out []*entity.Day
	for _, d := range r.s.st.days {
		if d.BarID == barID && d.Status == status {
			out = append(out, cloneDay(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessDate > out[j].BusinessDate })
	return out, nil
}

func (r dayRepo) Update(_ context.Context, d *entity.Day, expected entity.DayStatus) error {
	defer r.write()()
	cur, ok := r.s.st.days[d.ID]
	if !ok || cur.BarID != d.BarID || cur.Status != expected {
		return repository.ErrStaleWrite
	}
	r.s.st.days[d.ID] = cloneDay(d)
	return nil
}

type shiftRepo struct{ view }

func cloneShift(s *entity.Shift) *entity.Shift {
	c := *s
	return &c
}

func (r shiftRepo) Create(_ context.Context, s *entity.Shift) error {
	defer r.write()()
	if _, ok := r.s.st.shifts[s.ID]; ok {
		return repository.ErrDuplicate
	}
	r.s.st.shifts[s.ID] = cloneShift(s)
	r.s.st.shiftOrder = append(r.s.st.shiftOrder, s.ID)
	return nil
}

func (r shiftRepo) GetByID(_ context.Context, barID, id string) (*entity.Shift, error) {
	defer r.read()()
	s, ok := r.s.st.shifts[id]
	if !ok || s.BarID != barID {
		return nil, nil
	}
	return cloneShift(s), nil
}

func (r shiftRepo) GetForUpdate(ctx context.Context, barID, id string) (*entity.Shift, error) {
	return r.GetByID(ctx, barID, id)
}

func (r shiftRepo) GetForShare(ctx context.Context, barID, id string) (*entity.Shift, error) {
	return r.GetByID(ctx, barID, id)
}

func (r shiftRepo) ListByDay(_ context.Context, barID, dayID string) ([]*entity.Shift, error) {
	defer r.read()()
	var out []*entity.Shift
	for _, id := range r.s.st.shiftOrder {
		s := r.s.st.shifts[id]
		if s.BarID == barID && s.DayID == dayID {
			out = append(out, cloneShift(s))
		}
	}
	return out, nil
}

func (r shiftRepo) Update(_ context.Context, s *entity.Shift, expected entity.ShiftStatus) error {
	defer r.write()()
	cur, ok := r.s.st.shifts[s.ID]
	if !ok || cur.BarID != s.BarID || cur.Status != expected {
		return repository.ErrStaleWrite
	}
	r.s.st.shifts[s.ID] = cloneShift(s)
	return nil
}

type assignmentRepo struct{ view }

func (r assignmentRepo) Create(_ context.Context, a *entity.ShiftAssignment) error {
	defer r.write()()
	k := a.ShiftID + "|" + a.UserID
	if _, ok := r.s.st.assignments[k]; ok {
		return repository.ErrDuplicate
	}
	c := *a
	r.s.st.assignments[k] = &c
	r.s.st.assignmentOrder = append(r.s.st.assignmentOrder, k)
	return nil
}

func (r assignmentRepo) Get(_ context.Context, barID, shiftID, userID string) (*entity.ShiftAssignment, error) {
	defer r.read()()
	a, ok := r.s.st.assignments[shiftID+"|"+userID]
	if !ok || a.BarID != barID {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r assignmentRepo) ListByShift(_ context.Context, barID, shiftID string) ([]*entity.ShiftAssignment, error) {
	defer r.read()()
	var out []*entity.ShiftAssignment
	for _, k := range r.s.st.assignmentOrder {
		a := r.s.st.assignments[k]
		if a.BarID == barID && a.ShiftID == shiftID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}
