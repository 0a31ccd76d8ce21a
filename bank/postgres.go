package bank

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustodyIdentity is the reserved account row holding escrowed funds.
const CustodyIdentity = "$custody"

// Account is one balance row. Allowance is the amount the contract may still
// draw from this account.
type Account struct {
	gorm.Model
	Identity  string `gorm:"uniqueIndex;not null"`
	Balance   int64  `gorm:"not null;default:0"`
	Allowance int64  `gorm:"not null;default:0"`
}

// Postgres is the gorm-backed bank. Every transfer runs in one database
// transaction with the touched rows locked, so a pull or push is atomic
// with respect to concurrent requests.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Pull(from string, amount int64) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		acc, err := lockAccount(tx, from)
		if err != nil {
			return err
		}
		if acc.Allowance < amount {
			return ErrInsufficientAllowance
		}
		if acc.Balance < amount {
			return ErrInsufficientFunds
		}
		acc.Allowance -= amount
		acc.Balance -= amount
		if err := tx.Save(acc).Error; err != nil {
			return err
		}
		return credit(tx, CustodyIdentity, amount)
	})
}

func (p *Postgres) Push(to string, amount int64) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		custody, err := lockAccount(tx, CustodyIdentity)
		if err != nil {
			return err
		}
		if custody.Balance < amount {
			return ErrInsufficientFunds
		}
		custody.Balance -= amount
		if err := tx.Save(custody).Error; err != nil {
			return err
		}
		return credit(tx, to, amount)
	})
}

// Approve sets the contract's allowance on an account, creating it if needed.
func (p *Postgres) Approve(identity string, amount int64) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		acc, err := lockOrCreateAccount(tx, identity)
		if err != nil {
			return err
		}
		acc.Allowance = amount
		return tx.Save(acc).Error
	})
}

// Mint credits an account; the dev faucet behind this has no place in a real
// deployment, but neither did the mock token the contract shipped with.
func (p *Postgres) Mint(identity string, amount int64) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		return credit(tx, identity, amount)
	})
}

func (p *Postgres) Balance(identity string) (int64, error) {
	var acc Account
	err := p.db.Where("identity = ?", identity).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUnknownAccount
	}
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

func lockAccount(tx *gorm.DB, identity string) (*Account, error) {
	var acc Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("identity = ?", identity).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownAccount
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func lockOrCreateAccount(tx *gorm.DB, identity string) (*Account, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Account{Identity: identity}).Error; err != nil {
		return nil, err
	}
	return lockAccount(tx, identity)
}

func credit(tx *gorm.DB, identity string, amount int64) error {
	acc, err := lockOrCreateAccount(tx, identity)
	if err != nil {
		return err
	}
	acc.Balance += amount
	return tx.Save(acc).Error
}
