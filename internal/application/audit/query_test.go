package audit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/custodia-api/internal/application/audit"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
)

type eventRepoSpy struct {
	repository.EventRepository
	filters []repository.EventFilter
}

func (s *eventRepoSpy) List(_ context.Context, f repository.EventFilter) ([]*entity.Event, error) {
	s.filters = append(s.filters, f)
	return nil, nil
}

func TestQueryList_LimiteYOffset(t *testing.T) {
	spy := &eventRepoSpy{}
	uc := audit.NewQueryUseCase(spy)
	owner := entity.Actor{UserID: "u-1", Role: entity.RoleOwner, BarID: "bar-1"}

	for _, in := range []audit.ListInput{
		{},
		{Limit: 20, Offset: -5},
		{Limit: 1000, Offset: 40},
	} {
		_, err := uc.List(context.Background(), owner, in)
		require.NoError(t, err)
	}

	require.Len(t, spy.filters, 3)
	assert.Equal(t, repository.DefaultLimit, spy.filters[0].Limit)
	assert.Equal(t, 20, spy.filters[1].Limit)
	assert.Equal(t, 0, spy.filters[1].Offset)
	assert.Equal(t, repository.MaxLimit, spy.filters[2].Limit, "un límite grande se recorta, no vuelve al default")
	assert.Equal(t, 40, spy.filters[2].Offset)
	for _, f := range spy.filters {
		assert.Equal(t, "bar-1", f.BarID)
	}
}

func TestQueryList_SoloOwnerYManager(t *testing.T) {
	spy := &eventRepoSpy{}
	uc := audit.NewQueryUseCase(spy)

	_, err := uc.List(context.Background(), entity.Actor{UserID: "u-2", Role: entity.RoleBartender, BarID: "bar-1"}, audit.ListInput{})
	assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	assert.Empty(t, spy.filters)
}
