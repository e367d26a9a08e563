package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueJSON(t *testing.T) {
	in := map[string]Value{
		"humanity":  Number(5),
		"door_open": Bool(true),
		"location":  String("cellar"),
		"omen":      Null(),
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out map[string]Value
	require.NoError(t, json.Unmarshal(data, &out))
	for k, v := range in {
		assert.True(t, v.Equal(out[k]), "key %s", k)
	}
}

func TestValueCoercion(t *testing.T) {
	n, ok := Bool(true).AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 1.0, n)

	_, ok = String("5").AsNumber()
	assert.False(t, ok, "strings never coerce to numbers")

	assert.True(t, Null().IsNull())
	assert.False(t, Number(0).Equal(Bool(false)), "kinds must match for equality")
}

func TestWorldStateCloneIsolation(t *testing.T) {
	ws := newTestWorld()
	clone := ws.Clone()

	clone.NPCs["brother"].Stats["trust"] = 99
	clone.Vars["humanity"] = Number(-50)
	clone.Inventory = append(clone.Inventory, "key")

	assert.Equal(t, 50, ws.NPCs["brother"].Stats["trust"])
	h, _ := ws.Vars["humanity"].AsNumber()
	assert.Equal(t, 5.0, h)
	assert.Equal(t, []string{"candle"}, ws.Inventory)
}
