package inspect

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenegraph/internal/core/hierarchy"
	"github.com/zeusync/scenegraph/internal/core/models"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/systems/physics"
	"github.com/zeusync/scenegraph/internal/core/world"
)

func testWorld(t *testing.T) (*world.World, models.EntityID, models.EntityID) {
	t.Helper()
	w := world.New()
	root, child := w.Spawn(), w.Spawn()
	w.Spawn() // no transform, not captured
	require.NoError(t, world.Insert(w, root, physics.At(10, 10)))
	require.NoError(t, world.Insert(w, child, physics.Identity()))
	require.NoError(t, world.Insert(w, child, hierarchy.Parent{Entity: root, Offset: physics.At(1, 0)}))
	hierarchy.Evaluate(w, 0)
	return w, root, child
}

func TestCapture(t *testing.T) {
	w, root, child := testWorld(t)
	snap := Capture(7, w)

	assert.Equal(t, uint64(7), snap.Tick)
	require.Len(t, snap.Entities, 2)
	assert.Equal(t, EntityState{ID: root, X: 10, Y: 10, Scale: 1}, snap.Entities[0])
	assert.Equal(t, EntityState{ID: child, Parent: root, X: 11, Y: 10, Scale: 1}, snap.Entities[1])
}

func TestBroadcastReachesClients(t *testing.T) {
	s := NewServer(log.NewNop())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 10*time.Millisecond)

	w, _, child := testWorld(t)
	s.Broadcast(Capture(1, w))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Snapshot
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, uint64(1), got.Tick)
	require.Len(t, got.Entities, 2)
	assert.Equal(t, child, got.Entities[1].ID)
	assert.Equal(t, 11.0, got.Entities[1].X)
}

func TestClosedClientIsDropped(t *testing.T) {
	s := NewServer(log.NewNop())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return s.Clients() == 0 }, time.Second, 10*time.Millisecond)
}
