package db

import (
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/appointly/scheduler/internal/config"
	"github.com/appointly/scheduler/internal/models"
)

func NewDB(cfg *config.Config, log zerolog.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql.DB")
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Location{},
		&models.Category{},
		&models.Service{},
		&models.ServiceExtra{},
		&models.Provider{},
		&models.ProviderService{},
		&models.Package{},
		&models.PackageBookable{},
		&models.PackageCustomer{},
		&models.PackageCustomerService{},
		&models.Appointment{},
		&models.CustomerBooking{},
		&models.CustomerBookingExtra{},
		&models.Payment{},
		&models.Setting{},
		&models.AuditLog{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate")
	}

	return db
}
