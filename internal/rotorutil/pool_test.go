package rotorutil

import (
	"testing"

	"github.com/roasbeef/rotorgo/internal/rotor"
	"github.com/stretchr/testify/require"
)

type pingMsg struct {
	rotor.BaseMessage
}

// MessageType implements rotor.Message.
func (pingMsg) MessageType() string { return "rotorutil_test.ping" }

// poolMember tracks which pool slot handled each delivered message.
type poolMember struct {
	base    *rotor.ActorBase
	idx     int
	handled *int
}

func (m *poolMember) Configure(a *rotor.ActorBase) {
	m.base = a
	rotor.Subscribe[pingMsg](a, a.Address(), func(rotor.Envelope, pingMsg) {
		*m.handled++
	})
}

func TestPoolRoundRobinAndBroadcast(t *testing.T) {
	t.Parallel()

	loc := rotor.NewLocality("pool-test")
	sup, err := rotor.CreateSupervisor(loc).Unpack()
	require.NoError(t, err)

	handledCounts := make([]int, 4)
	pool, err := NewPool(sup, PoolConfig[*poolMember]{
		ID:   "workers",
		Size: 4,
		Factory: func(idx int) *poolMember {
			return &poolMember{idx: idx, handled: &handledCounts[idx]}
		},
	})
	require.NoError(t, err)

	loc.DoProcess()

	require.Equal(t, "workers", pool.ID())
	require.Equal(t, 4, pool.Size())
	require.Len(t, pool.Addresses(), 4)

	driver := sup.Base()
	for i := 0; i < 4; i++ {
		pool.Tell(driver, pingMsg{})
	}
	loc.DoProcess()

	for i, count := range handledCounts {
		require.Equal(t, 1, count, "member %d should have handled exactly one Tell", i)
	}

	pool.Broadcast(driver, pingMsg{})
	loc.DoProcess()

	for i, count := range handledCounts {
		require.Equal(t, 2, count, "member %d should have handled the broadcast too", i)
	}
}

func TestNewPoolDefaultsSizeToOne(t *testing.T) {
	t.Parallel()

	loc := rotor.NewLocality("pool-test")
	sup, err := rotor.CreateSupervisor(loc).Unpack()
	require.NoError(t, err)

	pool, err := NewPool(sup, PoolConfig[*poolMember]{
		ID: "solo",
		Factory: func(idx int) *poolMember {
			return &poolMember{idx: idx}
		},
	})
	require.NoError(t, err)

	require.Equal(t, 1, pool.Size())
}
