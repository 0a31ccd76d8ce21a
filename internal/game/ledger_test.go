package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gogserver/bank"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLedger(t *testing.T, sink Sink) (*Ledger, *bank.Memory, *testClock) {
	t.Helper()
	clk := &testClock{now: time.Unix(1700000000, 0)}
	b := bank.NewMemory()
	l := NewLedger(b, Config{
		Admin: "admin",
		Asset: "mUSDC",
		Now:   clk.Now,
		Sink:  sink,
	}, nil)
	return l, b, clk
}

func fund(t *testing.T, b *bank.Memory, account string, amount int64) {
	t.Helper()
	require.NoError(t, b.Mint(account, amount))
	require.NoError(t, b.Approve(account, amount))
}

// activeRoom creates a funded room with alice and bob both escrowed.
func activeRoom(t *testing.T, l *Ledger, b *bank.Memory, stake int64) uint64 {
	t.Helper()
	fund(t, b, "alice", 100)
	fund(t, b, "bob", 100)
	id, err := l.CreateRoom("alice", stake)
	require.NoError(t, err)
	require.NoError(t, l.JoinRoom("bob", id))
	return id
}

func balance(t *testing.T, b *bank.Memory, account string) int64 {
	t.Helper()
	v, err := b.Balance(account)
	require.NoError(t, err)
	return v
}

func TestCreateRoomOpensRoom(t *testing.T) {
	l, b, _ := newTestLedger(t, nil)
	fund(t, b, "alice", 100)

	id, err := l.CreateRoom("alice", 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	room, err := l.Room(id)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, room.Status)
	assert.Equal(t, "alice", room.Player1)
	assert.Empty(t, room.Player2)
	assert.Equal(t, int64(10), room.Stake)
	assert.Equal(t, DecisionUnset, room.Decision1)
	assert.Equal(t, DecisionUnset, room.Decision2)

	// Stake is already in custody.
	assert.Equal(t, int64(90), balance(t, b, "alice"))
	assert.Equal(t, int64(10), b.Custody())
}

func TestCreateRoomRejectsZeroStake(t *testing.T) {
	l, b, _ := newTestLedger(t, nil)
	fund(t, b, "alice", 100)

	_, err := l.CreateRoom("alice", 0)
	assert.ErrorIs(t, err, ErrInvalidStake)
	_, err = l.CreateRoom("alice", -5)
	assert.ErrorIs(t, err, ErrInvalidStake)
	assert.Equal(t, uint64(0), l.RoomCount())
}

func TestCreateRoomFailedEscrowCreatesNothing(t *testing.T) {
	l, b, _ := newTestLedger(t, nil)
	require.NoError(t, b.Mint("alice", 100)) // no allowance granted

	_, err := l.CreateRoom("alice", 10)
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, uint64(0), l.RoomCount())
	assert.Equal(t, int64(100), balance(t, b, "alice"))
	assert.Equal(t, int64(0), b.Custody())
}

func TestJoinRoomRules(t *testing.T) {
	l, b, _ := newTestLedger(t, nil)
	fund(t, b, "alice", 100)
	fund(t, b, "bob", 100)

	id, err := l.CreateRoom("alice", 10)
	require.NoError(t, err)

	assert.ErrorIs(t, l.JoinRoom("bob", 99), ErrRoomNotFound)
	assert.ErrorIs(t, l.JoinRoom("alice", id), ErrSelfJoin)

	require.NoError(t, l.JoinRoom("bob", id))
	room, err := l.Room(id)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, room.Status)
	assert.Equal(t, "bob", room.Player2)
	assert.False(t, room.StartTime.IsZero())
	assert.Equal(t, int64(20), b.Custody())

	// The room only ever admits one joiner.
	fund(t, b, "carol", 100)
	assert.ErrorIs(t, l.JoinRoom("carol", id), ErrRoomNotOpen)
}

func TestJoinRoomFailedEscrowLeavesRoomOpen(t *testing.T) {
	l, b, _ := newTestLedger(t, nil)
	fund(t, b, "alice", 100)

	id, err := l.CreateRoom("alice", 10)
	require.NoError(t, err)

	// bob has funds but granted no allowance.
	require.NoError(t, b.Mint("bob", 100))
	err = l.JoinRoom("bob", id)
	assert.ErrorIs(t, err, ErrTransferFailed)

	room, err := l.Room(id)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, room.Status)
	assert.Empty(t, room.Player2)
	assert.True(t, room.StartTime.IsZero())
	assert.Equal(t, int64(10), b.Custody())
}

func TestPayoutTable(t *testing.T) {
	tests := []struct {
		name        string
		d1, d2      Decision
		wantAlice   int64 // balance after the game, started at 100
		wantBob     int64
		wantStatus  Status
		wantCustody int64
	}{
		{"both split", DecisionSplit, DecisionSplit, 100, 100, StatusResolved, 0},
		{"player1 steals", DecisionSteal, DecisionSplit, 110, 90, StatusResolved, 0},
		{"player2 steals", DecisionSplit, DecisionSteal, 90, 110, StatusResolved, 0},
		{"both steal", DecisionSteal, DecisionSteal, 90, 90, StatusLocked, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, b, _ := newTestLedger(t, nil)
			id := activeRoom(t, l, b, 10)

			require.NoError(t, l.MakeDecision("alice", id, tt.d1))
			require.NoError(t, l.MakeDecision("bob", id, tt.d2))

			room, err := l.Room(id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, room.Status)
			assert.True(t, room.Terminal())

			assert.Equal(t, tt.wantAlice, balance(t, b, "alice"))
			assert.Equal(t, tt.wantBob, balance(t, b, "bob"))
			assert.Equal(t, tt.wantCustody, b.Custody())

			// Conservation: payouts plus custody equal the escrowed pot.
			paidOut := (balance(t, b, "alice") - 90) + (balance(t, b, "bob") - 90)
			assert.Equal(t, int64(20), paidOut+b.Custody())
		})
	}
}

func TestStealSplitScenario(t *testing.T) {
	// Stake 10 each: A creates, B joins, A steals, B splits within the
	// window. A nets the full pot, B gets nothing back.
	l, b, _ := newTestLedger(t, nil)
	id := activeRoom(t, l, b, 10)
	require.Equal(t, uint64(1), id)

	afterStakeA := balance(t, b, "alice")
	afterStakeB := balance(t, b, "bob")

	require.NoError(t, l.MakeDecision("alice", id, DecisionSteal))
	require.NoError(t, l.MakeDecision("bob", id, DecisionSplit))

	assert.Equal(t, afterStakeA+20, balance(t, b, "alice"))
	assert.Equal(t, afterStakeB, balance(t, b, "bob"))

	room, err := l.Room(id)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, room.Status)
}

func TestMakeDecisionGuards(t *testing.T) {
	l, b, _ := newTestLedger(t, nil)
	id := activeRoom(t, l, b, 10)

	assert.ErrorIs(t, l.MakeDecision("alice", 99, DecisionSplit), ErrRoomNotFound)
	assert.ErrorIs(t, l.MakeDecision("mallory", id, DecisionSplit), ErrNotAParticipant)
	assert.ErrorIs(t, l.MakeDecision("alice", id, DecisionUnset), ErrInvalidDecision)

	require.NoError(t, l.MakeDecision("alice", id, DecisionSplit))
	assert.ErrorIs(t, l.MakeDecision("alice", id, DecisionSteal), ErrDecisionAlreadyMade)

	// Decisions are only accepted on active rooms.
	fund(t, b, "carol", 100)
	openID, err := l.CreateRoom("carol", 10)
	require.NoError(t, err)
	assert.ErrorIs(t, l.MakeDecision("carol", openID, DecisionSplit), ErrRoomNotActive)
}

func TestMakeDecisionAfterDeadlineFails(t *testing.T) {
	l, b, clk := newTestLedger(t, nil)
	id := activeRoom(t, l, b, 10)

	clk.Advance(DefaultDecisionWindow + time.Second)
	err := l.MakeDecision("alice", id, DecisionSplit)
	assert.ErrorIs(t, err, ErrDecisionWindowExpired)

	// The room stays active; only ForceResolve can finish it now.
	room, err := l.Room(id)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, room.Status)
}

func TestForceResolveGuards(t *testing.T) {
	l, b, _ := newTestLedger(t, nil)
	fund(t, b, "alice", 100)
	openID, err := l.CreateRoom("alice", 10)
	require.NoError(t, err)

	assert.ErrorIs(t, l.ForceResolve(99), ErrRoomNotFound)
	assert.ErrorIs(t, l.ForceResolve(openID), ErrRoomNotActive)

	fund(t, b, "bob", 100)
	require.NoError(t, l.JoinRoom("bob", openID))
	assert.ErrorIs(t, l.ForceResolve(openID), ErrWindowNotYetExpired)
}

func TestTimeoutForfeitsEverything(t *testing.T) {
	// Stake 10 each, nobody decides. After the window anyone may resolve:
	// custody keeps the full 20 and the room locks with the fixed message.
	l, b, clk := newTestLedger(t, nil)
	id := activeRoom(t, l, b, 10)

	clk.Advance(DefaultDecisionWindow + time.Second)
	require.NoError(t, l.ForceResolve(id))

	room, err := l.Room(id)
	require.NoError(t, err)
	assert.Equal(t, StatusLocked, room.Status)
	assert.Equal(t, TimeoutMessage, room.Message)
	assert.Equal(t, int64(20), b.Custody())
	assert.Equal(t, int64(20), l.Forfeited())
	assert.Equal(t, int64(90), balance(t, b, "alice"))
	assert.Equal(t, int64(90), balance(t, b, "bob"))
}

func TestTimeoutDominatesPartialCompliance(t *testing.T) {
	// One player split in time; the pot is still forfeited in full.
	l, b, clk := newTestLedger(t, nil)
	id := activeRoom(t, l, b, 10)

	require.NoError(t, l.MakeDecision("bob", id, DecisionSplit))
	clk.Advance(DefaultDecisionWindow + time.Second)
	require.NoError(t, l.ForceResolve(id))

	room, err := l.Room(id)
	require.NoError(t, err)
	assert.Equal(t, StatusLocked, room.Status)
	assert.Equal(t, TimeoutMessage, room.Message)
	assert.Equal(t, int64(90), balance(t, b, "bob"))
	assert.Equal(t, int64(20), l.Forfeited())
}

func TestTerminalRoomsNeverMutate(t *testing.T) {
	l, b, _ := newTestLedger(t, nil)
	id := activeRoom(t, l, b, 10)
	require.NoError(t, l.MakeDecision("alice", id, DecisionSplit))
	require.NoError(t, l.MakeDecision("bob", id, DecisionSplit))

	fund(t, b, "carol", 100)
	assert.ErrorIs(t, l.JoinRoom("carol", id), ErrRoomNotOpen)
	assert.ErrorIs(t, l.MakeDecision("alice", id, DecisionSteal), ErrRoomNotActive)
	assert.ErrorIs(t, l.ForceResolve(id), ErrRoomNotActive)
}

func TestWithdrawContractFunds(t *testing.T) {
	l, b, _ := newTestLedger(t, nil)
	id := activeRoom(t, l, b, 10)
	require.NoError(t, l.MakeDecision("alice", id, DecisionSteal))
	require.NoError(t, l.MakeDecision("bob", id, DecisionSteal))
	require.Equal(t, int64(20), l.Forfeited())

	// A second room still in play: its stakes must survive the withdrawal.
	fund(t, b, "carol", 100)
	fund(t, b, "dave", 100)
	activeID, err := l.CreateRoom("carol", 15)
	require.NoError(t, err)
	require.NoError(t, l.JoinRoom("dave", activeID))

	_, err = l.WithdrawContractFunds("mallory")
	assert.ErrorIs(t, err, ErrUnauthorized)

	amount, err := l.WithdrawContractFunds("admin")
	require.NoError(t, err)
	assert.Equal(t, int64(20), amount)
	assert.Equal(t, int64(20), balance(t, b, "admin"))
	assert.Equal(t, int64(0), l.Forfeited())

	// Only forfeited funds left custody; the active room's 30 remain.
	assert.Equal(t, int64(30), b.Custody())

	// Nothing further to withdraw.
	amount, err = l.WithdrawContractFunds("admin")
	require.NoError(t, err)
	assert.Equal(t, int64(0), amount)
}

func TestRoomIDsAreMonotonic(t *testing.T) {
	l, b, clk := newTestLedger(t, nil)

	id1 := activeRoom(t, l, b, 10)
	require.NoError(t, l.MakeDecision("alice", id1, DecisionSplit))
	require.NoError(t, l.MakeDecision("bob", id1, DecisionSplit))

	// Prune the terminal room, then keep creating: ids never restart.
	clk.Advance(48 * time.Hour)
	require.Equal(t, 1, l.PruneTerminal(24*time.Hour))
	_, err := l.Room(id1)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	fund(t, b, "alice", 100)
	id2, err := l.CreateRoom("alice", 10)
	require.NoError(t, err)
	assert.Equal(t, id1+1, id2)
	assert.Equal(t, uint64(2), l.RoomCount())
}

func TestExpiredRooms(t *testing.T) {
	l, b, clk := newTestLedger(t, nil)
	id := activeRoom(t, l, b, 10)

	assert.Empty(t, l.ExpiredRooms())

	clk.Advance(DefaultDecisionWindow + time.Second)
	assert.Equal(t, []uint64{id}, l.ExpiredRooms())

	require.NoError(t, l.ForceResolve(id))
	assert.Empty(t, l.ExpiredRooms())
}

func TestEventSequence(t *testing.T) {
	var events []Event
	sink := SinkFunc(func(e Event) { events = append(events, e) })

	l, b, _ := newTestLedger(t, sink)
	id := activeRoom(t, l, b, 10)
	require.NoError(t, l.MakeDecision("alice", id, DecisionSteal))
	require.NoError(t, l.MakeDecision("bob", id, DecisionSteal))
	_, err := l.WithdrawContractFunds("admin")
	require.NoError(t, err)

	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{
		EventRoomCreated,
		EventPlayerJoined,
		EventDecisionMade,
		EventDecisionMade,
		EventRoomResolved,
		EventFundsWithdrawn,
	}, types)

	assert.Equal(t, "steal", events[2].Decision)
	assert.Equal(t, StatusLocked.String(), events[4].Status)
	assert.Equal(t, int64(20), events[5].Amount)
}

// flakyBank delegates to a Memory bank but starts failing pushes after a
// set number of successes, standing in for a custody collaborator that
// breaks mid-resolution.
type flakyBank struct {
	*bank.Memory
	goodPushes int // pushes that still succeed; negative means unlimited
}

var errBankDown = errors.New("bank down")

func (f *flakyBank) Push(to string, amount int64) error {
	if f.goodPushes == 0 {
		return errBankDown
	}
	if f.goodPushes > 0 {
		f.goodPushes--
	}
	return f.Memory.Push(to, amount)
}

func flakyLedger(t *testing.T, goodPushes int) (*Ledger, *flakyBank) {
	t.Helper()
	clk := &testClock{now: time.Unix(1700000000, 0)}
	fb := &flakyBank{Memory: bank.NewMemory(), goodPushes: goodPushes}
	l := NewLedger(fb, Config{Admin: "admin", Now: clk.Now}, nil)

	fund(t, fb.Memory, "alice", 100)
	fund(t, fb.Memory, "bob", 100)
	return l, fb
}

func TestPayoutFailureBooksOwedCredit(t *testing.T) {
	l, fb := flakyLedger(t, 0)
	id, err := l.CreateRoom("alice", 10)
	require.NoError(t, err)
	require.NoError(t, l.JoinRoom("bob", id))

	require.NoError(t, l.MakeDecision("alice", id, DecisionSplit))
	require.NoError(t, l.MakeDecision("bob", id, DecisionSplit))

	// The room settled even though no push went through; the shares are
	// owed, still in custody and not withdrawable as forfeited.
	room, err := l.Room(id)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, room.Status)
	assert.Equal(t, int64(10), l.Owed("alice"))
	assert.Equal(t, int64(10), l.Owed("bob"))
	assert.Equal(t, int64(20), fb.Custody())
	assert.Equal(t, int64(0), l.Forfeited())

	// Once the bank recovers the retry drains the owed book.
	fb.goodPushes = -1
	assert.Equal(t, int64(20), l.RetryOwed())
	assert.Equal(t, int64(0), l.Owed("alice"))
	assert.Equal(t, int64(100), balance(t, fb.Memory, "alice"))
	assert.Equal(t, int64(100), balance(t, fb.Memory, "bob"))
	assert.Equal(t, int64(0), fb.Custody())
}

func TestPartialPayoutFailureCannotDrainCustody(t *testing.T) {
	// The bank dies between the two split/split pushes: player1 is paid,
	// player2's share must stay in custody as owed, never as forfeited,
	// so an admin withdrawal cannot reach it.
	l, fb := flakyLedger(t, 1)
	id, err := l.CreateRoom("alice", 10)
	require.NoError(t, err)
	require.NoError(t, l.JoinRoom("bob", id))

	require.NoError(t, l.MakeDecision("alice", id, DecisionSplit))
	require.NoError(t, l.MakeDecision("bob", id, DecisionSplit))

	room, err := l.Room(id)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, room.Status)
	assert.Equal(t, int64(100), balance(t, fb.Memory, "alice"))
	assert.Equal(t, int64(90), balance(t, fb.Memory, "bob"))
	assert.Equal(t, int64(0), l.Owed("alice"))
	assert.Equal(t, int64(10), l.Owed("bob"))
	assert.Equal(t, int64(10), fb.Custody())
	assert.Equal(t, int64(0), l.Forfeited())

	// A terminal room never reaches ForceResolve, so the half-paid pot can
	// never be re-booked as forfeited.
	assert.ErrorIs(t, l.ForceResolve(id), ErrRoomNotActive)

	// The admin withdraws nothing; bob's share survives in custody.
	fb.goodPushes = -1
	amount, err := l.WithdrawContractFunds("admin")
	require.NoError(t, err)
	assert.Equal(t, int64(0), amount)
	assert.Equal(t, int64(10), fb.Custody())

	assert.Equal(t, int64(10), l.RetryOwed())
	assert.Equal(t, int64(100), balance(t, fb.Memory, "bob"))
	assert.Equal(t, int64(0), fb.Custody())
}

func TestRetryOwedKeepsFailingEntries(t *testing.T) {
	l, fb := flakyLedger(t, 0)
	id, err := l.CreateRoom("alice", 10)
	require.NoError(t, err)
	require.NoError(t, l.JoinRoom("bob", id))
	require.NoError(t, l.MakeDecision("alice", id, DecisionSplit))
	require.NoError(t, l.MakeDecision("bob", id, DecisionSplit))

	// Bank still down: nothing pays out, nothing is forgotten.
	assert.Equal(t, int64(0), l.RetryOwed())
	assert.Equal(t, int64(10), l.Owed("alice"))
	assert.Equal(t, int64(10), l.Owed("bob"))
	assert.Equal(t, int64(20), fb.Custody())
}
