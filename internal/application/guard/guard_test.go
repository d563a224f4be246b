package guard_test

import (
	"context"
	"testing"

	"github.com/jhoicas/custodia-api/internal/application/guard"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shiftRepoSpy registra qué lectura usó el guard.
type shiftRepoSpy struct {
	repository.ShiftRepository
	shift *entity.Shift
	calls []string
}

func (r *shiftRepoSpy) GetByID(context.Context, string, string) (*entity.Shift, error) {
	r.calls = append(r.calls, "GetByID")
	return r.shift, nil
}

func (r *shiftRepoSpy) GetForShare(context.Context, string, string) (*entity.Shift, error) {
	r.calls = append(r.calls, "GetForShare")
	return r.shift, nil
}

func TestShift_LeeConBloqueoCompartido(t *testing.T) {
	id := "00000000-0000-0000-0000-0000000000aa"
	repo := &shiftRepoSpy{shift: &entity.Shift{ID: id, BarID: "bar-1", Status: entity.ShiftOpen}}
	actor := entity.Actor{UserID: "u1", BarID: "bar-1", Role: entity.RoleBartender, ShiftID: &id}

	got, err := guard.Shift(context.Background(), repo, actor, true, entity.ShiftOpen)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, []string{"GetForShare"}, repo.calls)
}

func TestShift_Ventana(t *testing.T) {
	id := "00000000-0000-0000-0000-0000000000aa"
	repo := &shiftRepoSpy{shift: &entity.Shift{ID: id, BarID: "bar-1", Status: entity.ShiftClosing}}
	withShift := entity.Actor{UserID: "u1", BarID: "bar-1", Role: entity.RoleBartender, ShiftID: &id}
	noShift := entity.Actor{UserID: "u1", BarID: "bar-1", Role: entity.RoleBartender}
	ctx := context.Background()

	_, err := guard.Shift(ctx, repo, withShift, true, entity.ShiftOpen)
	assert.Equal(t, domain.CodeWindowClosed, domain.CodeOf(err))

	got, err := guard.Shift(ctx, repo, withShift, false, entity.ShiftOpen, entity.ShiftClosing)
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftClosing, got.Status)

	_, err = guard.Shift(ctx, repo, noShift, true, entity.ShiftOpen)
	assert.Equal(t, domain.CodeWindowClosed, domain.CodeOf(err))

	got, err = guard.Shift(ctx, repo, noShift, false, entity.ShiftOpen)
	require.NoError(t, err)
	assert.Nil(t, got)

	repo.shift = nil
	_, err = guard.Shift(ctx, repo, withShift, true, entity.ShiftOpen)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}
