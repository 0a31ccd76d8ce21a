package bank

import "sync"

// Memory is an in-process bank used by tests and dev mode. It mirrors the
// mock token the contract was developed against: balances, one allowance per
// account granted to the contract, and a custody total.
type Memory struct {
	mu         sync.Mutex
	balances   map[string]int64
	allowances map[string]int64
	custody    int64
}

func NewMemory() *Memory {
	return &Memory{
		balances:   make(map[string]int64),
		allowances: make(map[string]int64),
	}
}

// Mint credits an account out of thin air.
func (m *Memory) Mint(account string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] += amount
	return nil
}

// Approve sets the amount the contract may draw from an account.
func (m *Memory) Approve(account string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowances[account] = amount
	return nil
}

func (m *Memory) Pull(from string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.allowances[from] < amount {
		return ErrInsufficientAllowance
	}
	if m.balances[from] < amount {
		return ErrInsufficientFunds
	}
	m.allowances[from] -= amount
	m.balances[from] -= amount
	m.custody += amount
	return nil
}

func (m *Memory) Push(to string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.custody < amount {
		return ErrInsufficientFunds
	}
	m.custody -= amount
	m.balances[to] += amount
	return nil
}

// Balance returns an account's free balance.
func (m *Memory) Balance(account string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account], nil
}

// Custody returns the total currently held by the contract.
func (m *Memory) Custody() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.custody
}
