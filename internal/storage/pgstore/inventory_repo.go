package pgstore

import (
	"context"

	"github.com/BearBump/RetailDesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const inventoryColumns = `sku, style, category, style_number, colour, size, size_2, upc, category_number, sku_status, in_catalog`

func (s *Storage) FindInventoryByUPC(ctx context.Context, upc string) ([]*models.InventoryItem, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+inventoryColumns+`
FROM inventory_items
WHERE upc = $1
ORDER BY sku
`, upc)
	if err != nil {
		return nil, errors.Wrap(err, "select inventory by upc")
	}
	return collectInventory(rows)
}

func (s *Storage) FindInventoryBySKU(ctx context.Context, sku string) ([]*models.InventoryItem, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+inventoryColumns+`
FROM inventory_items
WHERE sku = $1
`, sku)
	if err != nil {
		return nil, errors.Wrap(err, "select inventory by sku")
	}
	return collectInventory(rows)
}

// FindInventoryByStyleNumber matches case-insensitively and returns every
// colour/size variant of the style.
func (s *Storage) FindInventoryByStyleNumber(ctx context.Context, styleNumber string) ([]*models.InventoryItem, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+inventoryColumns+`
FROM inventory_items
WHERE upper(style_number) = upper($1)
ORDER BY colour, size, size_2, sku
`, styleNumber)
	if err != nil {
		return nil, errors.Wrap(err, "select inventory by style number")
	}
	return collectInventory(rows)
}

// UpsertInventoryItems loads catalogue rows, replacing existing SKUs.
func (s *Storage) UpsertInventoryItems(ctx context.Context, items []models.InventoryItem) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range items {
		_, err := tx.Exec(ctx, `
INSERT INTO inventory_items (`+inventoryColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (sku) DO UPDATE SET
  style = EXCLUDED.style,
  category = EXCLUDED.category,
  style_number = EXCLUDED.style_number,
  colour = EXCLUDED.colour,
  size = EXCLUDED.size,
  size_2 = EXCLUDED.size_2,
  upc = EXCLUDED.upc,
  category_number = EXCLUDED.category_number,
  sku_status = EXCLUDED.sku_status,
  in_catalog = EXCLUDED.in_catalog
`, it.SKU, it.Style, it.Category, it.StyleNumber, it.Colour, it.Size, it.Size2,
			it.UPC, it.CategoryNumber, it.SKUStatus, it.InCatalog)
		if err != nil {
			return errors.Wrap(err, "upsert inventory item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func collectInventory(rows pgx.Rows) ([]*models.InventoryItem, error) {
	defer rows.Close()

	out := make([]*models.InventoryItem, 0)
	for rows.Next() {
		var it models.InventoryItem
		if err := rows.Scan(
			&it.SKU, &it.Style, &it.Category, &it.StyleNumber, &it.Colour,
			&it.Size, &it.Size2, &it.UPC, &it.CategoryNumber, &it.SKUStatus, &it.InCatalog,
		); err != nil {
			return nil, errors.Wrap(err, "scan inventory item")
		}
		out = append(out, &it)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
