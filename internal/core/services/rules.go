package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/adapters/persistence/repositories"
	"pustaka-desk/internal/config"
	"pustaka-desk/internal/core/domain"

	"gorm.io/datatypes"
)

// LoanRules are the effective circulation parameters
type LoanRules struct {
	FinePerDay     int64 `json:"fine_per_day"`
	LoanDays       int   `json:"loan_days"`
	MaxActiveLoans int   `json:"max_active_loans"`
}

// DefaultRules turns the env fallbacks into rules
func DefaultRules(cfg config.LibraryConfig) LoanRules {
	return LoanRules{
		FinePerDay:     cfg.FinePerDay,
		LoanDays:       cfg.LoanDays,
		MaxActiveLoans: cfg.MaxActiveLoans,
	}
}

// loadRules overlays the settings table on the defaults. Unparsable or
// negative values keep the default.
func loadRules(ctx context.Context, settings repositories.SettingRepository, defaults LoanRules) (LoanRules, error) {
	rows, err := settings.GetAll(ctx)
	if err != nil {
		return defaults, err
	}

	rules := defaults
	for _, row := range rows {
		n, err := strconv.ParseInt(row.Value, 10, 64)
		if err != nil || n < 0 {
			if isRuleKey(row.Key) {
				log.Printf("⚠️ Ignoring invalid setting %s=%q", row.Key, row.Value)
			}
			continue
		}
		switch row.Key {
		case domain.SettingFinePerDay:
			rules.FinePerDay = n
		case domain.SettingLoanDays:
			if n > 0 {
				rules.LoanDays = int(n)
			}
		case domain.SettingMaxActiveLoans:
			rules.MaxActiveLoans = int(n)
		}
	}
	return rules, nil
}

func isRuleKey(key string) bool {
	return key == domain.SettingFinePerDay || key == domain.SettingLoanDays || key == domain.SettingMaxActiveLoans
}

// OverdueDays counts the whole days between due and at. Partial days and
// early returns count as zero.
func OverdueDays(due, at time.Time) int64 {
	if !at.After(due) {
		return 0
	}
	return int64(at.Sub(due) / (24 * time.Hour))
}

// Fine is OverdueDays × rate
func Fine(due, at time.Time, rate int64) int64 {
	return OverdueDays(due, at) * rate
}

// withLiveFines fills FineAmount of borrowed rows with the fine accrued so far
func withLiveFines(rows []*models.LoanDetail, now time.Time, rate int64) []*models.LoanDetail {
	for _, row := range rows {
		if row.Status == string(domain.LoanBorrowed) {
			row.FineAmount = Fine(row.DueDate, now, rate)
		}
	}
	return rows
}

// writeAudit stores one audit row; payload is marshalled as JSON
func writeAudit(ctx context.Context, audit repositories.AuditRepository, entity string, entityID uint, action string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return audit.Create(ctx, &models.AuditLog{
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		UserID:   ActorFrom(ctx),
		Data:     datatypes.JSON(data),
	})
}

type actorKey struct{}

// WithActor tags ctx with the id of the librarian performing an operation
func WithActor(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the librarian id set by WithActor, or nil
func ActorFrom(ctx context.Context) *uint {
	if id, ok := ctx.Value(actorKey{}).(uint); ok && id != 0 {
		return &id
	}
	return nil
}
