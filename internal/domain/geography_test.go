package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCheckChain(t *testing.T) {
	jaipur := GeographyNode{ID: 1, Kind: NodeDistrict, Name: "Jaipur"}
	sanganer := GeographyNode{ID: 2, Kind: NodeBlock, ParentID: ptr(int64(1)), Name: "Sanganer"}
	bagru := GeographyNode{ID: 3, Kind: NodeVillage, ParentID: ptr(int64(2)), Name: "Bagru"}

	assert.NoError(t, CheckChain([]GeographyNode{jaipur, sanganer, bagru}))
	assert.NoError(t, CheckChain([]GeographyNode{jaipur}))

	t.Run("village directly under district", func(t *testing.T) {
		bad := GeographyNode{ID: 4, Kind: NodeVillage, ParentID: ptr(int64(1)), Name: "Orphan"}
		assert.Error(t, CheckChain([]GeographyNode{jaipur, bad}))
	})

	t.Run("district with parent", func(t *testing.T) {
		bad := GeographyNode{ID: 5, Kind: NodeDistrict, ParentID: ptr(int64(1))}
		assert.Error(t, bad.CheckParent(nil))
	})

	t.Run("block without parent", func(t *testing.T) {
		assert.Error(t, GeographyNode{ID: 6, Kind: NodeBlock}.CheckParent(nil))
	})
}

func TestVillageSet_JSON(t *testing.T) {
	s := NewVillageSet(30, 10, 20)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `[10,20,30]`, string(data))

	var back VillageSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Has(20))
	assert.Len(t, back, 3)
}

func TestVillageSet_Intersect(t *testing.T) {
	got := NewVillageSet(1, 2, 3).Intersect(NewVillageSet(2, 3, 4))
	assert.Equal(t, []int64{2, 3}, got.IDs())
}
