// Package ledger is an in-process fungible settlement token with ERC20
// style balances and allowances.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"landrent-backend/internal/domain"
	"landrent-backend/internal/logger"
)

// Transfer describes a committed movement of funds.
type Transfer struct {
	Operator domain.Address
	From     domain.Address
	To       domain.Address
	Amount   domain.Amount
}

// TransferHook runs after a transfer commits, outside the ledger lock. The
// receiving side of a real token may execute arbitrary code at this point.
type TransferHook func(ctx context.Context, t Transfer)

type Ledger struct {
	mu         sync.Mutex
	balances   map[domain.Address]domain.Amount
	allowances map[domain.Address]map[domain.Address]domain.Amount
	hook       TransferHook
}

func New() *Ledger {
	return &Ledger{
		balances:   make(map[domain.Address]domain.Amount),
		allowances: make(map[domain.Address]map[domain.Address]domain.Amount),
	}
}

func (l *Ledger) SetTransferHook(hook TransferHook) {
	l.mu.Lock()
	l.hook = hook
	l.mu.Unlock()
}

// Mint credits new units to a party.
func (l *Ledger) Mint(to domain.Address, amount domain.Amount) {
	l.mu.Lock()
	l.balances[to] += amount
	l.mu.Unlock()
}

func (l *Ledger) BalanceOf(ctx context.Context, party domain.Address) (domain.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[party], nil
}

// Approve lets spender move up to amount from owner's balance.
func (l *Ledger) Approve(ctx context.Context, owner, spender domain.Address, amount domain.Amount) error {
	if amount < 0 {
		return fmt.Errorf("negative allowance %d", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[domain.Address]domain.Amount)
	}
	l.allowances[owner][spender] = amount
	return nil
}

func (l *Ledger) Allowance(ctx context.Context, owner, spender domain.Address) (domain.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner][spender], nil
}

// Transfer moves the caller's own funds.
func (l *Ledger) Transfer(ctx context.Context, from, to domain.Address, amount domain.Amount) error {
	return l.TransferFrom(ctx, from, from, to, amount)
}

// TransferFrom moves funds from one party to another on behalf of
// operator. An operator other than from spends from's allowance.
func (l *Ledger) TransferFrom(ctx context.Context, operator, from, to domain.Address, amount domain.Amount) error {
	if amount < 0 {
		return fmt.Errorf("negative transfer amount %d", amount)
	}
	l.mu.Lock()
	if operator != from && l.allowances[from][operator] < amount {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s may spend %d of %s, needs %d", domain.ErrInsufficientApproval, operator, l.allowances[from][operator], from, amount)
	}
	if l.balances[from] < amount {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s holds %d, needs %d", domain.ErrInsufficientBalance, from, l.balances[from], amount)
	}
	if operator != from {
		l.allowances[from][operator] -= amount
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	hook := l.hook
	l.mu.Unlock()

	logger.Debug("Settlement transfer", "operator", operator, "from", from, "to", to, "amount", amount)
	if hook != nil {
		hook(ctx, Transfer{Operator: operator, From: from, To: to, Amount: amount})
	}
	return nil
}

// Account is the ledger as seen by one operator, e.g. the rental engine's
// custody address.
type Account struct {
	ledger   *Ledger
	operator domain.Address
}

func (l *Ledger) Account(operator domain.Address) *Account {
	return &Account{ledger: l, operator: operator}
}

func (a *Account) Address() domain.Address { return a.operator }

func (a *Account) TransferFrom(ctx context.Context, from, to domain.Address, amount domain.Amount) error {
	return a.ledger.TransferFrom(ctx, a.operator, from, to, amount)
}

func (a *Account) BalanceOf(ctx context.Context, party domain.Address) (domain.Amount, error) {
	return a.ledger.BalanceOf(ctx, party)
}
