package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the integration-test database. Tests that need it are
// skipped when no MySQL instance named 'swiftparcel_test' is reachable on
// localhost:3306.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/swiftparcel_test?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"coupon_redemptions", "coupons", "orders"}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables creates the tables the repositories expect.
func SetupTestTables(t *testing.T, db *sql.DB) {
	createOrdersTable := `
	CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) NOT NULL PRIMARY KEY,
		code VARCHAR(16) NOT NULL UNIQUE,
		customer_id CHAR(36) NOT NULL,
		status VARCHAR(16) NOT NULL,
		payment_status VARCHAR(16) NOT NULL,
		driver_id CHAR(36),
		driver_name VARCHAR(255),
		driver_phone VARCHAR(32),
		pickup_address VARCHAR(512) NOT NULL,
		pickup_lat DOUBLE NOT NULL,
		pickup_lng DOUBLE NOT NULL,
		pickup_contact_name VARCHAR(255),
		pickup_contact_phone VARCHAR(32),
		pickup_photo_ref VARCHAR(512),
		pickup_photo_at DATETIME,
		dropoff_address VARCHAR(512) NOT NULL,
		dropoff_lat DOUBLE NOT NULL,
		dropoff_lng DOUBLE NOT NULL,
		dropoff_contact_name VARCHAR(255),
		dropoff_contact_phone VARCHAR(32),
		dropoff_photo_ref VARCHAR(512),
		dropoff_photo_at DATETIME,
		package_size VARCHAR(4) NOT NULL,
		package_weight_grams BIGINT,
		package_declared_value BIGINT,
		item_photo_ref VARCHAR(512),
		item_photo_at DATETIME,
		base_fare BIGINT NOT NULL,
		distance_surcharge BIGINT NOT NULL,
		courier_fee BIGINT NOT NULL,
		carbon_fee BIGINT NOT NULL,
		service_fee BIGINT NOT NULL,
		gst BIGINT NOT NULL,
		discount BIGINT NOT NULL,
		total BIGINT NOT NULL,
		currency CHAR(3) NOT NULL,
		distance_meters BIGINT NOT NULL,
		duration_minutes BIGINT NOT NULL,
		coupon_code VARCHAR(64),
		coupon_discount BIGINT,
		created_at DATETIME NOT NULL,
		assigned_at DATETIME,
		picked_up_at DATETIME,
		in_transit_at DATETIME,
		delivered_at DATETIME,
		cancelled_at DATETIME,
		updated_at DATETIME NOT NULL,
		INDEX idx_status (status),
		INDEX idx_customer (customer_id)
	)`

	createCouponsTable := `
	CREATE TABLE IF NOT EXISTS coupons (
		code VARCHAR(64) NOT NULL PRIMARY KEY,
		discount_type VARCHAR(16) NOT NULL,
		value BIGINT NOT NULL,
		valid_from DATETIME NOT NULL,
		valid_until DATETIME,
		active TINYINT(1) NOT NULL DEFAULT 1,
		max_redemptions BIGINT NOT NULL DEFAULT 0,
		max_per_user BIGINT NOT NULL DEFAULT 0,
		redemptions BIGINT NOT NULL DEFAULT 0,
		min_order_cents BIGINT NOT NULL DEFAULT 0
	)`

	createRedemptionsTable := `
	CREATE TABLE IF NOT EXISTS coupon_redemptions (
		id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(64) NOT NULL,
		customer_id CHAR(36) NOT NULL,
		redeemed_at DATETIME NOT NULL,
		INDEX idx_code_customer (code, customer_id)
	)`

	for _, stmt := range []string{createOrdersTable, createCouponsTable, createRedemptionsTable} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to create test table: %v", err)
		}
	}
}
