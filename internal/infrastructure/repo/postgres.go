package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"

	"fooddash-backend/internal/domain"
)

// PostgresRepo implements every repository interface on one connection pool.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	r := &PostgresRepo{db: db}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PostgresRepo) init() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			name TEXT,
			role TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS restaurants (
			restaurant_id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS menu_items (
			menu_item_id TEXT PRIMARY KEY,
			restaurant_id TEXT NOT NULL,
			name TEXT,
			price NUMERIC(12,2) NOT NULL,
			is_available BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			restaurant_id TEXT NOT NULL,
			items TEXT NOT NULL,
			subtotal NUMERIC(12,2) NOT NULL,
			tax NUMERIC(12,2) NOT NULL,
			delivery_fee NUMERIC(12,2) NOT NULL,
			tip NUMERIC(12,2) NOT NULL,
			total NUMERIC(12,2) NOT NULL,
			delivery_address TEXT NOT NULL,
			status TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			payment_details TEXT NOT NULL,
			refund TEXT,
			estimated_delivery_time TIMESTAMPTZ,
			actual_delivery_time TIMESTAMPTZ,
			created_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders (customer_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_restaurant ON orders (restaurant_id, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepo) Close() error { return r.db.Close() }

const orderColumns = `order_id, customer_id, restaurant_id, items, subtotal, tax, delivery_fee, tip, total,
	delivery_address, status, payment_status, payment_details, refund,
	estimated_delivery_time, actual_delivery_time, created_at, updated_at`

func (r *PostgresRepo) Put(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	address, err := json.Marshal(o.DeliveryAddress)
	if err != nil {
		return err
	}
	payment, err := json.Marshal(o.Payment)
	if err != nil {
		return err
	}
	var refund sql.NullString
	if o.Refund != nil {
		raw, err := json.Marshal(o.Refund)
		if err != nil {
			return err
		}
		refund = sql.NullString{String: string(raw), Valid: true}
	}
	var actual sql.NullTime
	if o.ActualDeliveryTime != nil {
		actual = sql.NullTime{Time: *o.ActualDeliveryTime, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (order_id) DO UPDATE SET
			status = EXCLUDED.status,
			payment_status = EXCLUDED.payment_status,
			payment_details = EXCLUDED.payment_details,
			refund = EXCLUDED.refund,
			actual_delivery_time = EXCLUDED.actual_delivery_time,
			updated_at = EXCLUDED.updated_at`,
		o.OrderID, o.CustomerID, o.RestaurantID, string(items),
		o.Subtotal, o.Tax, o.DeliveryFee, o.Tip, o.Total,
		string(address), string(o.Status), string(o.PaymentStatus), string(payment), refund,
		o.EstimatedDeliveryTime, actual, o.CreatedAt, o.UpdatedAt)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*domain.Order, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return o, true, nil
}

func (r *PostgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *PostgresRepo) ListByRestaurants(ctx context.Context, restaurantIDs []string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE restaurant_id = ANY($1) ORDER BY created_at DESC`, pq.Array(restaurantIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o       domain.Order
		items   string
		address string
		payment string
		refund  sql.NullString
		actual  sql.NullTime
	)
	err := row.Scan(&o.OrderID, &o.CustomerID, &o.RestaurantID, &items,
		&o.Subtotal, &o.Tax, &o.DeliveryFee, &o.Tip, &o.Total,
		&address, &o.Status, &o.PaymentStatus, &payment, &refund,
		&o.EstimatedDeliveryTime, &actual, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(address), &o.DeliveryAddress); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payment), &o.Payment); err != nil {
		return nil, err
	}
	if refund.Valid {
		o.Refund = &domain.Refund{}
		if err := json.Unmarshal([]byte(refund.String), o.Refund); err != nil {
			return nil, err
		}
	}
	if actual.Valid {
		t := actual.Time
		o.ActualDeliveryTime = &t
	}
	return &o, nil
}

func collectOrders(rows *sql.Rows) ([]domain.Order, error) {
	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

type PostgresMenuItemRepo struct{ *PostgresRepo }

func (r *PostgresRepo) MenuItems() *PostgresMenuItemRepo { return &PostgresMenuItemRepo{r} }

func (r *PostgresMenuItemRepo) Put(ctx context.Context, mi *domain.MenuItem) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO menu_items (menu_item_id, restaurant_id, name, price, is_available)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (menu_item_id) DO UPDATE SET
			name = EXCLUDED.name, price = EXCLUDED.price, is_available = EXCLUDED.is_available`,
		mi.MenuItemID, mi.RestaurantID, mi.Name, mi.Price, mi.IsAvailable)
	return err
}

func (r *PostgresMenuItemRepo) Get(ctx context.Context, id string) (*domain.MenuItem, bool, error) {
	var mi domain.MenuItem
	err := r.db.QueryRowContext(ctx, `SELECT menu_item_id, restaurant_id, name, price, is_available
		FROM menu_items WHERE menu_item_id = $1`, id).
		Scan(&mi.MenuItemID, &mi.RestaurantID, &mi.Name, &mi.Price, &mi.IsAvailable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &mi, true, nil
}

type PostgresRestaurantRepo struct{ *PostgresRepo }

func (r *PostgresRepo) Restaurants() *PostgresRestaurantRepo { return &PostgresRestaurantRepo{r} }

func (r *PostgresRestaurantRepo) Put(ctx context.Context, rest *domain.Restaurant) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO restaurants (restaurant_id, owner_id, name, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (restaurant_id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id, name = EXCLUDED.name,
			is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`,
		rest.RestaurantID, rest.OwnerID, rest.Name, rest.IsActive, rest.CreatedAt, rest.UpdatedAt)
	return err
}

func (r *PostgresRestaurantRepo) Get(ctx context.Context, id string) (*domain.Restaurant, bool, error) {
	var rest domain.Restaurant
	err := r.db.QueryRowContext(ctx, `SELECT restaurant_id, owner_id, name, is_active, created_at, updated_at
		FROM restaurants WHERE restaurant_id = $1`, id).
		Scan(&rest.RestaurantID, &rest.OwnerID, &rest.Name, &rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &rest, true, nil
}

func (r *PostgresRestaurantRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Restaurant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT restaurant_id, owner_id, name, is_active, created_at, updated_at
		FROM restaurants WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Restaurant
	for rows.Next() {
		var rest domain.Restaurant
		if err := rows.Scan(&rest.RestaurantID, &rest.OwnerID, &rest.Name, &rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

type PostgresUserRepo struct{ *PostgresRepo }

func (r *PostgresRepo) Users() *PostgresUserRepo { return &PostgresUserRepo{r} }

func (r *PostgresUserRepo) Put(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (user_id, email, name, role, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email, name = EXCLUDED.name, role = EXCLUDED.role,
			password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at`,
		u.UserID, u.Email, u.Name, string(u.Role), u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *PostgresUserRepo) Get(ctx context.Context, id string) (*domain.User, bool, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `SELECT user_id, email, name, role, password_hash, created_at, updated_at
		FROM users WHERE user_id = $1`, id))
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `SELECT user_id, email, name, role, password_hash, created_at, updated_at
		FROM users WHERE email = $1`, email))
}

func (r *PostgresUserRepo) scanUser(row rowScanner) (*domain.User, bool, error) {
	var u domain.User
	err := row.Scan(&u.UserID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &u, true, nil
}
