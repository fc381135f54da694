// Package dbtest opens isolated file-backed sqlite databases carrying the
// servizas schema, plus small fixture builders for repository tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/db/models"
)

var schema = []string{
	`CREATE TABLE clients (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		email TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE car_models (
		id TEXT PRIMARY KEY,
		make TEXT NOT NULL,
		model TEXT NOT NULL,
		year INTEGER NOT NULL,
		engine TEXT NOT NULL,
		created_at DATETIME
	);`,
	`CREATE TABLE services (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE vehicles (
		id TEXT PRIMARY KEY,
		client_id TEXT REFERENCES clients(id) ON DELETE SET NULL,
		car_model_id TEXT REFERENCES car_models(id) ON DELETE SET NULL,
		license_plate TEXT NOT NULL,
		vin TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		vehicle_id TEXT NOT NULL REFERENCES vehicles(id),
		date DATE,
		due_back DATE,
		price TEXT NOT NULL DEFAULT '0',
		version INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE entries (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		service_id TEXT NOT NULL REFERENCES services(id),
		quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 0),
		price TEXT NOT NULL DEFAULT '0',
		total TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'new',
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE reviews (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		reviewer_id TEXT REFERENCES clients(id) ON DELETE SET NULL,
		reviewed_at DATETIME NOT NULL,
		content TEXT NOT NULL
	);`,
}

// Open returns a fresh database in the test's temp dir, limited to one
// connection so concurrent transactions queue instead of failing with
// SQLITE_BUSY. The file outlives any single connection, so a connection
// discarded after a cancelled context does not take the schema with it.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servizas.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000", path)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}

// OpenClient wraps Open in a db.Client.
func OpenClient(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.FromGorm(conn), conn
}

// Money parses a decimal literal, failing the test on bad input.
func Money(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}

// Client inserts an owning client.
func Client(t *testing.T, conn *gorm.DB, name string) models.Client {
	t.Helper()
	client := models.Client{DisplayName: name}
	if err := conn.Create(&client).Error; err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

// Service inserts a catalog service. An empty price leaves it unpriced.
func Service(t *testing.T, conn *gorm.DB, name, price string) models.Service {
	t.Helper()
	service := models.Service{Name: name}
	if price != "" {
		service.Price = decimal.NewNullDecimal(Money(t, price))
	}
	if err := conn.Create(&service).Error; err != nil {
		t.Fatalf("create service: %v", err)
	}
	return service
}

// Vehicle inserts a vehicle optionally owned by clientID.
func Vehicle(t *testing.T, conn *gorm.DB, plate string, clientID *uuid.UUID) models.Vehicle {
	t.Helper()
	vehicle := models.Vehicle{LicensePlate: plate, VIN: "VIN-" + plate, ClientID: clientID}
	if err := conn.Create(&vehicle).Error; err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	return vehicle
}

// Order inserts an order with price 0 against vehicleID.
func Order(t *testing.T, conn *gorm.DB, vehicleID uuid.UUID, dueBack *time.Time) models.Order {
	t.Helper()
	order := models.Order{VehicleID: vehicleID, DueBack: dueBack, Price: decimal.Zero}
	if err := conn.Create(&order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

// ReloadOrder reads the order row back from storage.
func ReloadOrder(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Order {
	t.Helper()
	var order models.Order
	if err := conn.First(&order, "id = ?", id).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	return order
}

// ReloadEntry reads the entry row back from storage.
func ReloadEntry(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Entry {
	t.Helper()
	var entry models.Entry
	if err := conn.First(&entry, "id = ?", id).Error; err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	return entry
}
