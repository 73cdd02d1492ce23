package database

import (
	"fmt"
	"os"

	"deliveroo-backend/logger"
	log_model "deliveroo-backend/models/log"
	"deliveroo-backend/models/parcel"
	"deliveroo-backend/models/user"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB opens the Postgres connection and migrates the schema.
func InitDB() (*gorm.DB, error) {
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	username := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, username, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := Migrate(DB); err != nil {
		logger.Error("Failed to migrate database schema", err)
		return nil, err
	}
	logger.Success("Database schema migrated")

	return DB, nil
}

// Migrate creates or updates the tables for every model and enforces the
// cascade from parcels onto their timeline entries.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&user.User{},
		&parcel.Parcel{},
		&parcel.Location{},
		&log_model.Log{},
	); err != nil {
		return err
	}
	return createForeignKeyConstraints(db)
}

// createForeignKeyConstraints adds the constraints AutoMigrate cannot express
// for pre-existing tables: locations must die with their parcel.
func createForeignKeyConstraints(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return db.Exec(`
		DO $$ BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE constraint_name = 'fk_parcels_timeline'
			) THEN
				ALTER TABLE locations
					ADD CONSTRAINT fk_parcels_timeline
					FOREIGN KEY (parcel_id) REFERENCES parcels(id) ON DELETE CASCADE;
			END IF;
		END $$;
	`).Error
}
