package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/sakif/game-store/internal/apperror"
	"github.com/sakif/game-store/internal/model"
	"github.com/sakif/game-store/internal/repository"
)

// compile-time check that *DB implements repository.ProductRepository
var _ repository.ProductRepository = (*DB)(nil)

// CreateProduct inserts a product and its platform association in one transaction.
//
// WHY A TRANSACTION?
// The association insert needs the generated product ID, so the writes are
// inherently ordered. Without a transaction, a failed second write would
// leave an orphaned product with no platform link. BEGIN/COMMIT makes the
// pair atomic: either both rows land or neither does.
//
// The deferred Rollback is a no-op after a successful Commit — this is the
// standard database/sql pattern for covering every early-return path.
func (db *DB) CreateProduct(ctx context.Context, product *model.Product, platformID int64, used bool) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning product transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO products (name, description, price, release_date, imageurl, videourl)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		product.Name,
		product.Description,
		product.Price,
		product.ReleaseDate,
		product.ImageURL,
		product.VideoURL,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting product %q: %w", product.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading product id: %w", err)
	}
	product.ID = id

	_, err = tx.ExecContext(ctx,
		`INSERT INTO product_platforms (product_id, platform_id, used)
		 VALUES (?, ?, ?)`,
		id, platformID, used,
	)
	if err != nil {
		// Unknown platform IDs fail the foreign key check here; the
		// rollback removes the product row inserted above.
		return fmt.Errorf("sqlite: associating product %d with platform %d: %w", id, platformID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing product %d: %w", id, err)
	}

	return nil
}

// GetProductByID returns the product and all of its platform associations.
// Platforms are ordered by platform ID so the list is deterministic.
// Returns apperror.ErrNotFound for unknown product IDs.
func (db *DB) GetProductByID(ctx context.Context, id int64) (*model.ProductDetail, error) {
	var (
		detail   model.ProductDetail
		imageURL sql.NullString
		videoURL sql.NullString
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, price, release_date, imageurl, videourl, created_at
		 FROM products WHERE id = ?`,
		id,
	).Scan(
		&detail.ID,
		&detail.Name,
		&detail.Description,
		&detail.Price,
		&detail.ReleaseDate,
		&imageURL,
		&videoURL,
		&detail.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("product", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting product %d: %w", id, err)
	}

	if imageURL.Valid {
		detail.ImageURL = &imageURL.String
	}
	if videoURL.Valid {
		detail.VideoURL = &videoURL.String
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.id, p.name, pp.used
		 FROM platforms p
		 JOIN product_platforms pp ON pp.platform_id = p.id
		 WHERE pp.product_id = ?
		 ORDER BY p.id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting platforms for product %d: %w", id, err)
	}
	defer rows.Close()

	detail.Platforms = []model.ProductPlatform{}
	for rows.Next() {
		var pp model.ProductPlatform
		if err := rows.Scan(&pp.ID, &pp.Name, &pp.Used); err != nil {
			return nil, fmt.Errorf("sqlite: scanning platform row: %w", err)
		}
		detail.Platforms = append(detail.Platforms, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating platform rows: %w", err)
	}

	return &detail, nil
}

// ListProducts returns every product in the catalog, newest first.
func (db *DB) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, description, price, release_date, imageurl, created_at
		 FROM products ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing products: %w", err)
	}
	defer rows.Close()

	// Non-nil slice: an empty catalog serializes as [] rather than null.
	products := []model.Product{}
	for rows.Next() {
		var (
			p        model.Product
			imageURL sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ReleaseDate, &imageURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning product row: %w", err)
		}
		if imageURL.Valid {
			p.ImageURL = &imageURL.String
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating product rows: %w", err)
	}

	return products, nil
}
