package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/pkg/errors"
)

func TestGeographyScope_Memoizes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.geography.NewScope()

	first, err := scope.Descendants(ctx, districtJaipur)
	require.NoError(t, err)
	second, err := scope.Descendants(ctx, districtJaipur)
	require.NoError(t, err)

	assert.Equal(t, []int64{villageBagru, villageMuhana, villageKunda}, first.IDs())
	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.store.descendantCalls)

	_, err = env.geography.NewScope().Descendants(ctx, districtJaipur)
	require.NoError(t, err)
	assert.Equal(t, 2, env.store.descendantCalls)
}

func TestGeography_Lookups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	village, err := env.geography.Village(ctx, villageKunda)
	require.NoError(t, err)
	assert.Equal(t, "Kunda", village.Name)

	_, err = env.geography.Village(ctx, districtJaipur)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	children, err := env.geography.Children(ctx, blockSanganer)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Bagru", children[0].Name)

	_, err = env.geography.Children(ctx, 999)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	chain, err := env.geography.Ancestors(ctx, villageRoopangar)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, districtAjmer, chain[0].ID)
	assert.NoError(t, domain.CheckChain(chain))

	districts, err := env.geography.Districts(ctx)
	require.NoError(t, err)
	assert.Len(t, districts, 2)
}
