package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations in sqlite dialect. UUIDs are
// stored as TEXT and must be set by the application.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS books (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  title TEXT NOT NULL,
  author TEXT NOT NULL,
  isbn TEXT,
  description TEXT,
  price_cents INTEGER NOT NULL CHECK (price_cents >= 0),
  discount_price_cents INTEGER,
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  is_active INTEGER NOT NULL DEFAULT 1,
  is_featured INTEGER NOT NULL DEFAULT 0,
  image_url TEXT,
  gallery_image_urls TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE INDEX IF NOT EXISTS idx_books_created_at ON books (created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  book_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_user_book ON cart_items (user_id, book_id);`,
	`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_number TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  shipping_name TEXT NOT NULL,
  shipping_phone TEXT NOT NULL,
  shipping_address TEXT NOT NULL,
  shipping_city TEXT NOT NULL,
  shipping_country TEXT NOT NULL,
  notes TEXT,
  subtotal_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL,
  shipping_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  cancelled_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_order_number ON orders (order_number);`,
	`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  book_id TEXT NOT NULL,
  title TEXT NOT NULL,
  author TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  line_total_cents INTEGER NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS wishlist_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  book_id TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_wishlist_items_user_book ON wishlist_items (user_id, book_id);`,
	`CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  book_id TEXT NOT NULL,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  comment TEXT,
  is_approved INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_user_book ON reviews (user_id, book_id);`,
}

// RunSQLite creates the schema on a sqlite connection.
func RunSQLite(ctx context.Context, conn *gorm.DB) error {
	for _, stmt := range sqliteSchema {
		if err := conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("applying sqlite schema: %w", err)
		}
	}
	return nil
}
