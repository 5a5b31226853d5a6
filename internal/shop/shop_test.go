package shop

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starstream/starstream/internal/store"
)

type fakeItems struct {
	items    map[string]store.ShopItem
	reserved map[int64]string
}

func newFakeItems(items ...store.ShopItem) *fakeItems {
	f := &fakeItems{items: map[string]store.ShopItem{}, reserved: map[int64]string{}}
	for _, it := range items {
		f.items[it.Name] = it
	}
	return f
}

func (f *fakeItems) Item(_ context.Context, _, name string) (store.ShopItem, error) {
	it, ok := f.items[name]
	if !ok {
		return store.ShopItem{}, store.ErrItemNotFound
	}
	return it, nil
}

func (f *fakeItems) MarkPurchased(_ context.Context, id int64, userID string) error {
	if _, taken := f.reserved[id]; taken {
		return store.ErrItemSoldOut
	}
	f.reserved[id] = userID
	return nil
}

func (f *fakeItems) ClearPurchase(_ context.Context, id int64) error {
	delete(f.reserved, id)
	return nil
}

type fakeLedger struct {
	balances map[string]int64
}

func (f *fakeLedger) Balance(_ context.Context, account string) (int64, error) {
	return f.balances[account], nil
}

func (f *fakeLedger) Add(_ context.Context, account string, delta int64) error {
	if f.balances[account]+delta < 0 {
		return store.ErrInsufficientFunds
	}
	f.balances[account] += delta
	return nil
}

type fakeRoles struct {
	granted []string
	err     error
}

func (f *fakeRoles) Grant(_ context.Context, _, userID, roleID string) error {
	if f.err != nil {
		return f.err
	}
	f.granted = append(f.granted, userID+":"+roleID)
	return nil
}

func testService(items *fakeItems, ledger *fakeLedger, roles *fakeRoles) *Service {
	return NewService(items, ledger, roles, log.New(io.Discard))
}

func TestPurchaseChargesAndGrants(t *testing.T) {
	items := newFakeItems(store.ShopItem{ID: 1, Name: "vip", Cost: 300, RoleID: "r-42"})
	ledger := &fakeLedger{balances: map[string]int64{"alice": 1000}}
	roles := &fakeRoles{}

	receipt, err := testService(items, ledger, roles).Purchase(context.Background(), "g1", "alice", "vip")
	require.NoError(t, err)

	assert.Equal(t, int64(300), receipt.Paid)
	assert.Equal(t, int64(700), receipt.Balance)
	assert.Equal(t, []string{"alice:r-42"}, roles.granted)
}

func TestPurchaseRejectsPoorBuyer(t *testing.T) {
	items := newFakeItems(store.ShopItem{ID: 1, Name: "vip", Cost: 300, RoleID: "r-42"})
	ledger := &fakeLedger{balances: map[string]int64{"alice": 100}}
	roles := &fakeRoles{}

	_, err := testService(items, ledger, roles).Purchase(context.Background(), "g1", "alice", "vip")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	assert.Equal(t, int64(100), ledger.balances["alice"])
	assert.Empty(t, roles.granted)
}

func TestPurchaseUnknownItem(t *testing.T) {
	items := newFakeItems()
	ledger := &fakeLedger{balances: map[string]int64{"alice": 1000}}

	_, err := testService(items, ledger, &fakeRoles{}).Purchase(context.Background(), "g1", "alice", "ghost")
	require.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestFailedGrantRefunds(t *testing.T) {
	items := newFakeItems(store.ShopItem{ID: 7, Name: "crown", Cost: 500, RoleID: "r-9", OneTimeBuy: true})
	ledger := &fakeLedger{balances: map[string]int64{"bob": 600}}
	roles := &fakeRoles{err: errors.New("api down")}

	_, err := testService(items, ledger, roles).Purchase(context.Background(), "g1", "bob", "crown")
	require.Error(t, err)

	assert.Equal(t, int64(600), ledger.balances["bob"], "charge must be refunded")
	assert.Empty(t, items.reserved, "reservation must be released")
}

func TestOneTimeBuySecondBuyerRejected(t *testing.T) {
	items := newFakeItems(store.ShopItem{ID: 7, Name: "crown", Cost: 500, RoleID: "r-9", OneTimeBuy: true})
	ledger := &fakeLedger{balances: map[string]int64{"alice": 1000, "bob": 1000}}
	svc := testService(items, ledger, &fakeRoles{})

	_, err := svc.Purchase(context.Background(), "g1", "alice", "crown")
	require.NoError(t, err)

	_, err = svc.Purchase(context.Background(), "g1", "bob", "crown")
	require.ErrorIs(t, err, store.ErrItemSoldOut)
	assert.Equal(t, int64(1000), ledger.balances["bob"])
}

func TestItemWithoutRoleSkipsGrant(t *testing.T) {
	items := newFakeItems(store.ShopItem{ID: 2, Name: "badge", Cost: 50})
	ledger := &fakeLedger{balances: map[string]int64{"alice": 100}}
	roles := &fakeRoles{}

	receipt, err := testService(items, ledger, roles).Purchase(context.Background(), "g1", "alice", "badge")
	require.NoError(t, err)
	assert.Equal(t, int64(50), receipt.Balance)
	assert.Empty(t, roles.granted)
}
