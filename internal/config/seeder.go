package config

import (
	"errors"
	"log"
	"strconv"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/core/domain"
	"pustaka-desk/internal/pkg/password"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Default administrator. ResetDatabase restores this password.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		return err
	}
	if err := s.seedSettings(); err != nil {
		return err
	}
	if s.cfg.IsDev() {
		if err := seedDemoCatalog(s.db); err != nil {
			log.Printf("⚠️ Demo catalog seeder skipped: %v", err)
		}
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser creates the default administrator on an empty users table
func (s *Seeder) seedAdminUser() error {
	var existing models.User
	err := s.db.Where("username = ?", DefaultAdminUsername).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := password.Hash(DefaultAdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: DefaultAdminUsername,
		Name:     "Administrator",
		Password: hashed,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s (change the default password!)", admin.Username)
	return nil
}

// seedSettings stores the loan rules from the environment without
// overwriting values a librarian already changed.
func (s *Seeder) seedSettings() error {
	lib := s.cfg.Library
	rows := []models.Setting{
		{Key: domain.SettingFinePerDay, Value: strconv.FormatInt(lib.FinePerDay, 10)},
		{Key: domain.SettingLoanDays, Value: strconv.Itoa(lib.LoanDays)},
		{Key: domain.SettingMaxActiveLoans, Value: strconv.Itoa(lib.MaxActiveLoans)},
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
