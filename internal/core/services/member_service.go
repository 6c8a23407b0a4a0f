package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/adapters/persistence/repositories"
	"pustaka-desk/internal/core/domain"
	"pustaka-desk/internal/pkg/validation"

	"gorm.io/gorm"
)

// MemberInput is the editable part of a member record
type MemberInput struct {
	MemberCode   string `json:"member_code" validate:"max=32"`
	Name         string `json:"name" validate:"required,max=150"`
	Email        string `json:"email" validate:"omitempty,email,max=100"`
	Phone        string `json:"phone" validate:"max=30"`
	Kelas        string `json:"kelas" validate:"max=30"`
	JenisKelamin string `json:"jenis_kelamin" validate:"max=20"`
	Status       string `json:"status" validate:"omitempty,oneof=Aktif Nonaktif"`
}

// MemberService manages library members
type MemberService struct {
	uow     repositories.UnitOfWork
	members repositories.MemberRepository
	now     func() time.Time
}

// NewMemberService creates a new member service
func NewMemberService(uow repositories.UnitOfWork, repos repositories.Repos) *MemberService {
	return &MemberService{
		uow:     uow,
		members: repos.Members,
		now:     time.Now,
	}
}

// List returns members ordered by name
func (s *MemberService) List(ctx context.Context) ([]*models.Member, error) {
	return s.members.List(ctx)
}

// Get returns one member
func (s *MemberService) Get(ctx context.Context, id uint) (*models.Member, error) {
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// GenerateCode returns the next free MBR-<year>-<n> code
func (s *MemberService) GenerateCode(ctx context.Context) (string, error) {
	return nextMemberCode(ctx, s.members, s.now())
}

func nextMemberCode(ctx context.Context, members repositories.MemberRepository, now time.Time) (string, error) {
	prefix := fmt.Sprintf("MBR-%d-", now.Year())
	last, err := members.LastCodeWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	next := 1
	if last != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(last, prefix)); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, next), nil
}

// Add registers a member. A blank code is generated.
func (s *MemberService) Add(ctx context.Context, input MemberInput) (*models.Member, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	member := &models.Member{
		MemberCode:   strings.TrimSpace(input.MemberCode),
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		Phone:        input.Phone,
		Kelas:        input.Kelas,
		JenisKelamin: input.JenisKelamin,
		Status:       input.Status,
	}
	if member.Status == "" {
		member.Status = string(domain.MemberActive)
	}

	err := s.uow.Do(ctx, func(tx repositories.Repos) error {
		if member.MemberCode == "" {
			code, err := nextMemberCode(ctx, tx.Members, s.now())
			if err != nil {
				return err
			}
			member.MemberCode = code
		} else {
			exists, err := tx.Members.ExistsByCode(ctx, member.MemberCode)
			if err != nil {
				return err
			}
			if exists {
				return domain.ErrMemberCodeExists
			}
		}
		if err := tx.Members.Create(ctx, member); err != nil {
			return err
		}
		return writeAudit(ctx, tx.Audit, domain.AuditEntityMember, member.ID, domain.AuditActionCreate, map[string]string{
			"member_code": member.MemberCode,
			"name":        member.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Member %s registered: %s", member.MemberCode, member.Name)
	return member, nil
}

// Update rewrites a member record
func (s *MemberService) Update(ctx context.Context, id uint, input MemberInput) (*models.Member, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if code := strings.TrimSpace(input.MemberCode); code != "" && code != member.MemberCode {
		exists, err := s.members.ExistsByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrMemberCodeExists
		}
		member.MemberCode = code
	}
	member.Name = strings.TrimSpace(input.Name)
	member.Email = input.Email
	member.Phone = input.Phone
	member.Kelas = input.Kelas
	member.JenisKelamin = input.JenisKelamin
	if input.Status != "" {
		member.Status = input.Status
	}

	if err := s.members.Save(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Delete deactivates a member. Loan history is kept.
func (s *MemberService) Delete(ctx context.Context, id uint) error {
	return s.uow.Do(ctx, func(tx repositories.Repos) error {
		if err := tx.Members.SetStatus(ctx, id, string(domain.MemberInactive)); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrMemberNotFound
			}
			return err
		}
		return writeAudit(ctx, tx.Audit, domain.AuditEntityMember, id, domain.AuditActionDelete, map[string]string{
			"status": string(domain.MemberInactive),
		})
	})
}

// FindByCode looks a member up by member code
func (s *MemberService) FindByCode(ctx context.Context, code string) (*models.Member, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrMemberNotFound
	}
	member, err := s.members.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}
