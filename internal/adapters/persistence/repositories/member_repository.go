package repositories

import (
	"context"
	"errors"
	"time"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *memberRepository) Save(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *memberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) GetByCode(ctx context.Context, code string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Where("member_code = ?", code).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) List(ctx context.Context) ([]*models.Member, error) {
	var members []*models.Member
	err := r.db.WithContext(ctx).Order("name ASC").Find(&members).Error
	return members, err
}

func (r *memberRepository) SetStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// MySQL reports changed rows, so an unchanged status reads as zero
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *memberRepository) LastCodeWithPrefix(ctx context.Context, prefix string) (string, error) {
	var member models.Member
	err := lastCodeQuery(r.db.WithContext(ctx), prefix).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.MemberCode, nil
}

// lastCodeQuery orders by length first so MBR-2024-10000 outranks MBR-2024-9999
func lastCodeQuery(db *gorm.DB, prefix string) *gorm.DB {
	return db.
		Select("member_code").
		Where("member_code LIKE ?", prefix+"%").
		Order("LENGTH(member_code) DESC").
		Order("member_code DESC")
}

func (r *memberRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("member_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

// CountActive counts members that may borrow
func (r *memberRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("status = ? OR status IS NULL", string(domain.MemberActive)).
		Count(&count).Error
	return count, err
}

func (r *memberRepository) CountJoinedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("joined_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *memberRepository) RecentJoined(ctx context.Context, limit int) ([]*models.Member, error) {
	var members []*models.Member
	err := r.db.WithContext(ctx).
		Order("joined_at DESC").
		Limit(limit).
		Find(&members).Error
	return members, err
}

func (r *memberRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Member{}).Error
}
