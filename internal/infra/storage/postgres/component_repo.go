package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hwbot/partswatch/internal/core/domain"
)

// ComponentRepo implements storage.ComponentRepository using PostgreSQL.
type ComponentRepo struct {
	db *DB
}

// NewComponentRepo creates a new PostgreSQL component repository.
func NewComponentRepo(db *DB) *ComponentRepo {
	return &ComponentRepo{db: db}
}

type componentRow struct {
	ID       string `db:"id"`
	Category string `db:"category"`
	Title    string `db:"title"`
	Link     string `db:"link"`
	Image    string `db:"img"`
	Price    int64  `db:"price"`
	Brand    string `db:"brand"`
	Model    string `db:"model"`
	Attrs    []byte `db:"attrs"`
}

func (r *componentRow) toDomain() (domain.Component, error) {
	c := domain.Component{
		ID:       r.ID,
		Category: domain.Category(r.Category),
		Title:    r.Title,
		Link:     r.Link,
		Image:    r.Image,
		Price:    r.Price,
		Brand:    r.Brand,
		Model:    r.Model,
	}
	if len(r.Attrs) > 0 {
		if err := json.Unmarshal(r.Attrs, &c.Attrs); err != nil {
			return c, fmt.Errorf("failed to decode attrs for %s/%s: %w", r.Category, r.ID, err)
		}
	}
	return c, nil
}

// InsertBatch appends one fetched page. The whole page goes through a single
// transaction so a constraint violation leaves nothing behind.
func (r *ComponentRepo) InsertBatch(ctx context.Context, components []domain.Component) error {
	if len(components) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO components (id, category, title, link, img, price, brand, model, attrs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range components {
		attrs, err := json.Marshal(c.Attrs)
		if err != nil {
			return fmt.Errorf("failed to encode attrs for %s/%s: %w", c.Category, c.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			c.ID,
			string(c.Category),
			c.Title,
			c.Link,
			c.Image,
			c.Price,
			c.Brand,
			c.Model,
			attrs,
		)
		if err != nil {
			return fmt.Errorf("failed to insert component %s/%s: %w", c.Category, c.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteCategory removes every record of a category.
func (r *ComponentRepo) DeleteCategory(ctx context.Context, category domain.Category) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM components WHERE category = $1`, string(category))
	if err != nil {
		return fmt.Errorf("failed to delete category %s: %w", category, err)
	}
	return nil
}

// Count returns the number of stored records for a category.
func (r *ComponentRepo) Count(ctx context.Context, category domain.Category) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM components WHERE category = $1`, string(category))
	if err != nil {
		return 0, fmt.Errorf("failed to count components for %s: %w", category, err)
	}
	return count, nil
}

// MinPrice returns the lowest price in a category.
func (r *ComponentRepo) MinPrice(
	ctx context.Context,
	category domain.Category,
	includeZero bool,
) (int64, bool, error) {
	return r.boundPrice(ctx, "MIN", category, includeZero)
}

// MaxPrice returns the highest price in a category.
func (r *ComponentRepo) MaxPrice(
	ctx context.Context,
	category domain.Category,
	includeZero bool,
) (int64, bool, error) {
	return r.boundPrice(ctx, "MAX", category, includeZero)
}

func (r *ComponentRepo) boundPrice(
	ctx context.Context,
	fn string,
	category domain.Category,
	includeZero bool,
) (int64, bool, error) {
	query := fmt.Sprintf(`SELECT %s(price) FROM components WHERE category = $1`, fn)
	if !includeZero {
		query += ` AND price > 0`
	}

	var price sql.NullInt64
	if err := r.db.GetContext(ctx, &price, query, string(category)); err != nil {
		return 0, false, fmt.Errorf("failed to get %s price for %s: %w", fn, category, err)
	}
	if !price.Valid {
		return 0, false, nil
	}
	return price.Int64, true, nil
}

// PriceRange returns the category's records with price in [from, upTo].
func (r *ComponentRepo) PriceRange(
	ctx context.Context,
	category domain.Category,
	from, upTo int64,
) ([]domain.Component, error) {
	query := `
		SELECT id, category, title, link, img, price, brand, model, attrs
		FROM components
		WHERE category = $1 AND price >= $2 AND price <= $3
		ORDER BY price
	`

	var rows []componentRow
	if err := r.db.SelectContext(ctx, &rows, query, string(category), from, upTo); err != nil {
		return nil, fmt.Errorf("failed to query price range for %s: %w", category, err)
	}

	components := make([]domain.Component, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, nil
}
