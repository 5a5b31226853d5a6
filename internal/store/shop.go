package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	ErrItemNotFound = errors.New("shop item not found")

	// ErrItemSoldOut is returned when a one-time-buy item was already purchased.
	ErrItemSoldOut = errors.New("shop item already purchased")
)

// ShopItem is one entry in a guild's shop.
type ShopItem struct {
	ID          int64   `json:"id"`
	GuildID     string  `json:"guild_id"`
	Name        string  `json:"name"`
	Cost        int64   `json:"cost"`
	RoleID      string  `json:"role_id"`
	ImageURL    string  `json:"image_url"`
	OneTimeBuy  bool    `json:"is_one_time_buy"`
	PurchasedBy *string `json:"purchased_by,omitempty"`
}

const shopColumns = `item_id, guild_id, name, cost, role_id, image_url, is_one_time_buy, purchased_by_user_id`

func scanShopItem(row pgx.Row) (ShopItem, error) {
	var it ShopItem
	err := row.Scan(&it.ID, &it.GuildID, &it.Name, &it.Cost, &it.RoleID,
		&it.ImageURL, &it.OneTimeBuy, &it.PurchasedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return it, ErrItemNotFound
	}
	return it, err
}

// AddItem inserts a shop item and returns it with its assigned id.
func (db *DB) AddItem(ctx context.Context, it ShopItem) (ShopItem, error) {
	return scanShopItem(db.QueryRow(ctx, `
		INSERT INTO shop_items (guild_id, name, cost, role_id, image_url, is_one_time_buy)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+shopColumns,
		it.GuildID, it.Name, it.Cost, it.RoleID, it.ImageURL, it.OneTimeBuy))
}

// Item looks a shop item up by guild and name.
func (db *DB) Item(ctx context.Context, guildID, name string) (ShopItem, error) {
	return scanShopItem(db.QueryRow(ctx,
		`SELECT `+shopColumns+` FROM shop_items WHERE guild_id = $1 AND LOWER(name) = LOWER($2)`,
		guildID, name))
}

// ItemByID looks a shop item up by id.
func (db *DB) ItemByID(ctx context.Context, id int64) (ShopItem, error) {
	return scanShopItem(db.QueryRow(ctx,
		`SELECT `+shopColumns+` FROM shop_items WHERE item_id = $1`, id))
}

// Items lists a guild's shop, cheapest first.
func (db *DB) Items(ctx context.Context, guildID string) ([]ShopItem, error) {
	rows, err := db.Query(ctx,
		`SELECT `+shopColumns+` FROM shop_items WHERE guild_id = $1 ORDER BY cost, name`,
		guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShopItem
	for rows.Next() {
		var it ShopItem
		if err := rows.Scan(&it.ID, &it.GuildID, &it.Name, &it.Cost, &it.RoleID,
			&it.ImageURL, &it.OneTimeBuy, &it.PurchasedBy); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// AllItems lists every guild's shop items (admin panel view).
func (db *DB) AllItems(ctx context.Context) ([]ShopItem, error) {
	rows, err := db.Query(ctx,
		`SELECT `+shopColumns+` FROM shop_items ORDER BY guild_id, cost, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShopItem
	for rows.Next() {
		var it ShopItem
		if err := rows.Scan(&it.ID, &it.GuildID, &it.Name, &it.Cost, &it.RoleID,
			&it.ImageURL, &it.OneTimeBuy, &it.PurchasedBy); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateItem overwrites an item's editable fields.
func (db *DB) UpdateItem(ctx context.Context, it ShopItem) error {
	tag, err := db.Exec(ctx, `
		UPDATE shop_items
		   SET name = $2, cost = $3, role_id = $4, image_url = $5, is_one_time_buy = $6
		 WHERE item_id = $1
	`, it.ID, it.Name, it.Cost, it.RoleID, it.ImageURL, it.OneTimeBuy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// RemoveItem deletes an item by id.
func (db *DB) RemoveItem(ctx context.Context, id int64) error {
	tag, err := db.Exec(ctx, `DELETE FROM shop_items WHERE item_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// MarkPurchased records the buyer of a one-time-buy item. Fails with
// ErrItemSoldOut when someone already bought it.
func (db *DB) MarkPurchased(ctx context.Context, id int64, userID string) error {
	tag, err := db.Exec(ctx, `
		UPDATE shop_items
		   SET purchased_by_user_id = $2
		 WHERE item_id = $1 AND is_one_time_buy AND purchased_by_user_id IS NULL
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemSoldOut
	}
	return nil
}

// ClearPurchase releases a one-time-buy item after a failed grant so the
// purchase can be retried.
func (db *DB) ClearPurchase(ctx context.Context, id int64) error {
	_, err := db.Exec(ctx,
		`UPDATE shop_items SET purchased_by_user_id = NULL WHERE item_id = $1`, id)
	return err
}
