// Package shop implements the purchase flow for guild shop items: balance
// check, charge, role grant, with a refund when the grant fails.
package shop

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/starstream/starstream/internal/store"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// ItemStore is the slice of the store a purchase needs.
type ItemStore interface {
	Item(ctx context.Context, guildID, name string) (store.ShopItem, error)
	MarkPurchased(ctx context.Context, id int64, userID string) error
	ClearPurchase(ctx context.Context, id int64) error
}

// Ledger is the coin balance a purchase draws from.
type Ledger interface {
	Balance(ctx context.Context, account string) (int64, error)
	Add(ctx context.Context, account string, delta int64) error
}

// RoleGranter assigns the purchased role to the buyer. Implementations talk
// to the chat platform.
type RoleGranter interface {
	Grant(ctx context.Context, guildID, userID, roleID string) error
}

// Receipt describes a completed purchase.
type Receipt struct {
	Item    store.ShopItem `json:"item"`
	Buyer   string         `json:"buyer"`
	Paid    int64          `json:"paid"`
	Balance int64          `json:"balance"`
}

type Service struct {
	items  ItemStore
	ledger Ledger
	roles  RoleGranter
	logger *log.Logger
}

func NewService(items ItemStore, ledger Ledger, roles RoleGranter, logger *log.Logger) *Service {
	return &Service{
		items:  items,
		ledger: ledger,
		roles:  roles,
		logger: logger.WithPrefix("shop"),
	}
}

// Purchase buys the named item for userID. One-time-buy items are reserved
// before charging so two buyers cannot race; if the role grant fails after
// payment, the charge is refunded and the reservation released.
func (s *Service) Purchase(ctx context.Context, guildID, userID, name string) (Receipt, error) {
	item, err := s.items.Item(ctx, guildID, name)
	if err != nil {
		return Receipt{}, err
	}

	if item.OneTimeBuy {
		if err := s.items.MarkPurchased(ctx, item.ID, userID); err != nil {
			return Receipt{}, err
		}
	}

	if err := s.ledger.Add(ctx, userID, -item.Cost); err != nil {
		if item.OneTimeBuy {
			s.releaseReservation(ctx, item.ID)
		}
		if errors.Is(err, store.ErrInsufficientFunds) {
			return Receipt{}, ErrInsufficientFunds
		}
		return Receipt{}, fmt.Errorf("charge %s for %q: %w", userID, item.Name, err)
	}

	if item.RoleID != "" {
		if err := s.roles.Grant(ctx, guildID, userID, item.RoleID); err != nil {
			s.refund(ctx, userID, item)
			return Receipt{}, fmt.Errorf("grant role for %q: %w", item.Name, err)
		}
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		balance = -1
	}
	s.logger.Info("purchase complete", "user", userID, "item", item.Name, "cost", item.Cost)
	return Receipt{Item: item, Buyer: userID, Paid: item.Cost, Balance: balance}, nil
}

func (s *Service) refund(ctx context.Context, userID string, item store.ShopItem) {
	if err := s.ledger.Add(ctx, userID, item.Cost); err != nil {
		s.logger.Error("refund failed", "user", userID, "item", item.Name, "error", err)
	}
	if item.OneTimeBuy {
		s.releaseReservation(ctx, item.ID)
	}
}

func (s *Service) releaseReservation(ctx context.Context, id int64) {
	if err := s.items.ClearPurchase(ctx, id); err != nil {
		s.logger.Error("release reservation failed", "item_id", id, "error", err)
	}
}
