package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/adapters/persistence/repositories"
	"pustaka-desk/internal/config"
	"pustaka-desk/internal/core/domain"
	"pustaka-desk/internal/pkg/pagination"
	"pustaka-desk/internal/pkg/password"
)

// ErrInvalidSetting is returned for a bad key or value
var ErrInvalidSetting = errors.New("nilai pengaturan tidak valid")

// SettingInput represents update_setting arguments
type SettingInput struct {
	Key   string `json:"key" validate:"required,max=64"`
	Value string `json:"value" validate:"max=255"`
}

// Backup is the snapshot written by BackupDatabase
type Backup struct {
	Version   string            `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Settings  []*models.Setting `json:"settings"`
	Books     []*models.Book    `json:"books"`
	Members   []*models.Member  `json:"members"`
	Loans     []*models.Loan    `json:"loans"`
}

// SettingsService handles settings and maintenance
type SettingsService struct {
	uow      repositories.UnitOfWork
	repos    repositories.Repos
	defaults LoanRules
	cfg      *config.Config
	now      func() time.Time
}

// NewSettingsService creates a new settings service
func NewSettingsService(uow repositories.UnitOfWork, repos repositories.Repos, cfg *config.Config) *SettingsService {
	return &SettingsService{
		uow:      uow,
		repos:    repos,
		defaults: DefaultRules(cfg.Library),
		cfg:      cfg,
		now:      time.Now,
	}
}

// GetSettings returns every stored setting. Loan rule keys are always
// present, filled from the defaults when not stored.
func (s *SettingsService) GetSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.repos.Settings.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := map[string]string{
		domain.SettingFinePerDay:     strconv.FormatInt(s.defaults.FinePerDay, 10),
		domain.SettingLoanDays:       strconv.Itoa(s.defaults.LoanDays),
		domain.SettingMaxActiveLoans: strconv.Itoa(s.defaults.MaxActiveLoans),
	}
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// UpdateSetting upserts one setting. Loan rule keys only take
// non-negative integers, and loan_days must be positive.
func (s *SettingsService) UpdateSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || len(key) > 64 {
		return ErrInvalidSetting
	}

	if isRuleKey(key) {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 || (key == domain.SettingLoanDays && n == 0) {
			return fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, value)
		}
	}

	if err := s.repos.Settings.Set(ctx, key, value); err != nil {
		return err
	}
	log.Printf("⚙️ Setting updated: %s=%s", key, value)
	return nil
}

// BackupDatabase writes a JSON snapshot into the backup directory and
// returns its path
func (s *SettingsService) BackupDatabase(ctx context.Context) (string, error) {
	now := s.now()
	snapshot := &Backup{Version: config.AppVersion, CreatedAt: now}

	var err error
	if snapshot.Settings, err = s.repos.Settings.GetAll(ctx); err != nil {
		return "", err
	}
	if snapshot.Books, err = s.repos.Books.List(ctx); err != nil {
		return "", err
	}
	if snapshot.Members, err = s.repos.Members.List(ctx); err != nil {
		return "", err
	}
	if snapshot.Loans, err = s.repos.Loans.ListAll(ctx); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.cfg.Backup.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(s.cfg.Backup.Dir, fmt.Sprintf("library_backup_%s.json", now.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	log.Printf("💾 Backup written: %s (%d books, %d members, %d loans)",
		path, len(snapshot.Books), len(snapshot.Members), len(snapshot.Loans))
	return path, nil
}

// ResetDatabase deletes all loans, books and members and restores the
// default admin password. Settings and librarian accounts are kept.
func (s *SettingsService) ResetDatabase(ctx context.Context) error {
	hashed, err := password.Hash(config.DefaultAdminPassword)
	if err != nil {
		return err
	}

	err = s.uow.Do(ctx, func(tx repositories.Repos) error {
		if err := tx.Loans.DeleteAll(ctx); err != nil {
			return err
		}
		if err := tx.Books.DeleteAll(ctx); err != nil {
			return err
		}
		if err := tx.Members.DeleteAll(ctx); err != nil {
			return err
		}
		return tx.Users.UpdatePasswordByUsername(ctx, config.DefaultAdminUsername, hashed)
	})
	if err != nil {
		return err
	}

	log.Printf("⚠️ Database reset: loans, books and members deleted")
	return nil
}

// AppVersion returns the backend version
func (s *SettingsService) AppVersion() string {
	return config.AppVersion
}

// AuditLog pages through the audit trail, newest first. An empty entity
// returns every entity.
func (s *SettingsService) AuditLog(ctx context.Context, entity string, params *pagination.Params) (*pagination.Response, error) {
	rows, total, err := s.repos.Audit.List(ctx, entity, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewResponse(rows, params, total), nil
}
