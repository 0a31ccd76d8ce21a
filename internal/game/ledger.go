package game

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gogserver/bank"
)

// DefaultDecisionWindow matches the deployed contract's 600 second limit.
const DefaultDecisionWindow = 600 * time.Second

// Config carries the fixed parameters of a ledger instance.
type Config struct {
	Admin          string        // identity allowed to withdraw forfeited funds
	Asset          string        // symbol of the escrowed asset, informational
	DecisionWindow time.Duration // zero means DefaultDecisionWindow
	Now            func() time.Time
	Sink           Sink
}

// Ledger owns the room table and serializes every mutation behind one mutex.
// Caller identities are opaque strings compared only for equality; the bank
// is the only collaborator that moves funds.
type Ledger struct {
	mu        sync.Mutex
	rooms     map[uint64]*Room
	counter   uint64
	forfeited int64            // custody attributable to Locked rooms, withdrawable by admin
	owed      map[string]int64 // settled payouts whose push failed, still held in custody

	admin  string
	asset  string
	window time.Duration
	now    func() time.Time
	bank   bank.Bank
	sink   Sink
	logger *zap.Logger
}

func NewLedger(b bank.Bank, cfg Config, logger *zap.Logger) *Ledger {
	if cfg.DecisionWindow <= 0 {
		cfg.DecisionWindow = DefaultDecisionWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		rooms:  make(map[uint64]*Room),
		owed:   make(map[string]int64),
		admin:  cfg.Admin,
		asset:  cfg.Asset,
		window: cfg.DecisionWindow,
		now:    cfg.Now,
		bank:   b,
		sink:   cfg.Sink,
		logger: logger,
	}
}

// CreateRoom escrows the caller's stake and opens a new room. The stake pull
// happens before any state is written, so a failed transfer creates nothing.
func (l *Ledger) CreateRoom(caller string, stake int64) (uint64, error) {
	if stake <= 0 {
		return 0, ErrInvalidStake
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.bank.Pull(caller, stake); err != nil {
		l.logger.Warn("stake escrow failed on create",
			zap.String("player", caller), zap.Int64("stake", stake), zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	l.counter++
	id := l.counter
	l.rooms[id] = &Room{
		ID:      id,
		Player1: caller,
		Stake:   stake,
		Status:  StatusOpen,
	}

	l.logger.Info("room created",
		zap.Uint64("roomID", id), zap.String("player1", caller), zap.Int64("stake", stake))
	l.publish(Event{Type: EventRoomCreated, RoomID: id, Player: caller, Stake: stake,
		Status: StatusOpen.String(), Time: l.now().Unix()})
	return id, nil
}

// JoinRoom escrows the second stake and starts the decision clock.
func (l *Ledger) JoinRoom(caller string, id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	if r.Status != StatusOpen {
		return ErrRoomNotOpen
	}
	if caller == r.Player1 {
		return ErrSelfJoin
	}

	if err := l.bank.Pull(caller, r.Stake); err != nil {
		l.logger.Warn("stake escrow failed on join",
			zap.Uint64("roomID", id), zap.String("player", caller), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	r.Player2 = caller
	r.StartTime = l.now()
	r.Status = StatusActive

	l.logger.Info("player joined",
		zap.Uint64("roomID", id), zap.String("player2", caller))
	l.publish(Event{Type: EventPlayerJoined, RoomID: id, Player: caller,
		Status: StatusActive.String(), Time: r.StartTime.Unix()})
	return nil
}

// MakeDecision records the caller's choice. The second decision of a pair
// settles the room immediately. Past the deadline the call fails; expiry is
// only ever resolved through ForceResolve.
func (l *Ledger) MakeDecision(caller string, id uint64, d Decision) error {
	if d != DecisionSteal && d != DecisionSplit {
		return ErrInvalidDecision
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	if r.Status != StatusActive {
		return ErrRoomNotActive
	}

	var slot *Decision
	switch caller {
	case r.Player1:
		slot = &r.Decision1
	case r.Player2:
		slot = &r.Decision2
	default:
		return ErrNotAParticipant
	}
	if *slot != DecisionUnset {
		return ErrDecisionAlreadyMade
	}
	if l.now().After(r.Deadline(l.window)) {
		return ErrDecisionWindowExpired
	}

	*slot = d

	l.logger.Info("decision recorded",
		zap.Uint64("roomID", id), zap.String("player", caller))
	l.publish(Event{Type: EventDecisionMade, RoomID: id, Player: caller,
		Decision: d.String(), Time: l.now().Unix()})

	if r.Decision1 != DecisionUnset && r.Decision2 != DecisionUnset {
		l.finalize(r, Resolve(r.Decision1, r.Decision2, r.Stake))
	}
	return nil
}

// ForceResolve is permissionless: once the window elapsed anyone may lock the
// room. The full pot is forfeited regardless of how many decisions arrived.
func (l *Ledger) ForceResolve(id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	if r.Status != StatusActive {
		return ErrRoomNotActive
	}
	if !l.now().After(r.Deadline(l.window)) {
		return ErrWindowNotYetExpired
	}

	l.finalize(r, ResolveTimeout(r.Stake))
	return nil
}

// WithdrawContractFunds pays the forfeited counter out to the administrator.
// Stakes of Open or Active rooms are not part of that counter and can never
// be reached here.
func (l *Ledger) WithdrawContractFunds(caller string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.admin {
		return 0, ErrUnauthorized
	}
	amount := l.forfeited
	if amount == 0 {
		return 0, nil
	}
	if err := l.bank.Push(l.admin, amount); err != nil {
		l.logger.Error("withdrawal transfer failed", zap.Int64("amount", amount), zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	l.forfeited = 0

	l.logger.Info("contract funds withdrawn", zap.Int64("amount", amount))
	l.publish(Event{Type: EventFundsWithdrawn, Player: l.admin, Amount: amount,
		Time: l.now().Unix()})
	return amount, nil
}

// pay pushes one settled share out of custody. A failed push is booked as an
// owed credit instead of unwinding the settlement: the amount stays in
// custody, is never counted as forfeited, and RetryOwed pays it later. That
// keeps a two-push settlement all-or-nothing on the ledger's books even when
// the bank fails between the pushes.
func (l *Ledger) pay(to string, amount int64) {
	if amount == 0 {
		return
	}
	if err := l.bank.Push(to, amount); err != nil {
		l.owed[to] += amount
		l.logger.Error("payout push failed, booked as owed",
			zap.String("player", to), zap.Int64("amount", amount), zap.Error(err))
	}
}

// Owed reports the account's settled winnings still held in custody because
// their payout push failed.
func (l *Ledger) Owed(account string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owed[account]
}

// RetryOwed attempts every outstanding owed payout and returns the amount
// successfully paid out.
func (l *Ledger) RetryOwed() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var paid int64
	for account, amount := range l.owed {
		if err := l.bank.Push(account, amount); err != nil {
			l.logger.Warn("owed payout retry failed",
				zap.String("player", account), zap.Int64("amount", amount), zap.Error(err))
			continue
		}
		delete(l.owed, account)
		paid += amount
		l.logger.Info("owed payout settled",
			zap.String("player", account), zap.Int64("amount", amount))
	}
	return paid
}

// finalize moves the room into its terminal state, pays the settled shares
// and books any forfeiture.
func (l *Ledger) finalize(r *Room, out Outcome) {
	r.Status = out.Status
	r.Message = out.Message
	r.ResolvedAt = l.now()
	l.forfeited += out.Forfeit
	l.pay(r.Player1, out.Payout1)
	l.pay(r.Player2, out.Payout2)

	l.logger.Info("room resolved",
		zap.Uint64("roomID", r.ID),
		zap.String("status", r.Status.String()),
		zap.String("message", out.Message),
		zap.Int64("forfeited", out.Forfeit))
	l.publish(Event{Type: EventRoomResolved, RoomID: r.ID,
		Status: r.Status.String(), Message: out.Message, Time: r.ResolvedAt.Unix()})
}

func (l *Ledger) publish(e Event) {
	if l.sink != nil {
		l.sink.Publish(e)
	}
}

// Room returns a snapshot of one room.
func (l *Ledger) Room(id uint64) (Room, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.rooms[id]
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	return *r, nil
}

// RoomCount returns the number of rooms ever created.
func (l *Ledger) RoomCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counter
}

// Forfeited returns the custody amount currently withdrawable by the admin.
func (l *Ledger) Forfeited() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.forfeited
}

// ExpiredRooms lists Active rooms whose decision window has elapsed.
// Used by the maintenance sweeper; ForceResolve stays the only way to act.
func (l *Ledger) ExpiredRooms() []uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ids []uint64
	now := l.now()
	for id, r := range l.rooms {
		if r.Status == StatusActive && now.After(r.Deadline(l.window)) {
			ids = append(ids, id)
		}
	}
	return ids
}

// PruneTerminal drops terminal rooms resolved longer than retention ago from
// the in-memory table. Their history rows remain the durable read path.
func (l *Ledger) PruneTerminal(retention time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-retention)
	n := 0
	for id, r := range l.rooms {
		if r.Terminal() && r.ResolvedAt.Before(cutoff) {
			delete(l.rooms, id)
			n++
		}
	}
	return n
}

func (l *Ledger) DecisionWindow() time.Duration { return l.window }
func (l *Ledger) Admin() string                 { return l.admin }
func (l *Ledger) Asset() string                 { return l.asset }
