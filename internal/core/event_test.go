package core_test

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/Tabletop/internal/core"
	"github.com/dkeye/Tabletop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEventTypedVariant(t *testing.T) {
	frame := []byte(`{"event":"GameObjectMoved","gameObjectID":"obj-1","x":3.5,"y":-1}`)
	ev, err := core.DecodeEvent(frame)
	require.NoError(t, err)

	mv, ok := ev.(*core.GameObjectMoved)
	require.True(t, ok)
	assert.Equal(t, domain.GameObjectID("obj-1"), mv.GameObjectID)
	assert.Equal(t, 3.5, mv.X)
	assert.Equal(t, -1.0, mv.Y)
}

func TestDecodeEventRejectsUnknownAndServerOnly(t *testing.T) {
	for _, frame := range []string{
		`{"event":"Shuffle"}`,
		`{"event":"PlayerJoined"}`, // server-originated only
		`{"event":"Error"}`,
		`{}`,
	} {
		_, err := core.DecodeEvent([]byte(frame))
		assert.ErrorIs(t, err, core.ErrUnknownEvent, frame)
	}
}

func TestDecodeEventBadJSON(t *testing.T) {
	_, err := core.DecodeEvent([]byte(`{"event":`))
	assert.Error(t, err)
}

func TestEncodeEventStampsDiscriminant(t *testing.T) {
	ev := &core.CounterUpdated{GameObjectID: "obj-1", Val: 7}
	ev.RoomID = "R"
	ev.PlayerID = "P1"

	frame, err := core.EncodeEvent(ev)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(frame, &wire))
	assert.Equal(t, "CounterUpdated", wire["event"])
	assert.Equal(t, "R", wire["roomID"])
	assert.Equal(t, "P1", wire["playerID"])
	assert.Equal(t, 7.0, wire["val"])
}

func TestEncodeEventIgnoresForgedDiscriminant(t *testing.T) {
	// A client may put anything in the envelope; the type wins.
	ev, err := core.DecodeEvent([]byte(`{"event":"PlayerLeft","roomID":"forged"}`))
	require.NoError(t, err)
	ev.Hdr().Event = "Forged"
	ev.Hdr().RoomID = "R"

	frame, err := core.EncodeEvent(ev)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(frame, &wire))
	assert.Equal(t, "PlayerLeft", wire["event"])
	assert.Equal(t, "R", wire["roomID"])
}
