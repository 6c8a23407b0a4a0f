package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/adapters/persistence/repositories"
	"pustaka-desk/internal/core/domain"

	"gorm.io/gorm"
)

// memStore backs every fake repository. Transactions are serialised by
// the unit of work lock but not rolled back.
type memStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	books    map[uint]*models.Book
	members  map[uint]*models.Member
	loans    map[uint]*models.Loan
	settings map[string]string
	audit    []*models.AuditLog
	users    map[uint]*models.User
	tokens   map[uint]*models.RefreshToken
	nextID   uint
}

func newMemStore() *memStore {
	return &memStore{
		books:    map[uint]*models.Book{},
		members:  map[uint]*models.Member{},
		loans:    map[uint]*models.Loan{},
		settings: map[string]string{},
		users:    map[uint]*models.User{},
		tokens:   map[uint]*models.RefreshToken{},
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) repos() repositories.Repos {
	return repositories.Repos{
		Books:    &fakeBooks{s},
		Members:  &fakeMembers{s},
		Loans:    &fakeLoans{s},
		Settings: &fakeSettings{s},
		Audit:    &fakeAudit{s},
		Users:    &fakeUsers{s},
	}
}

func (s *memStore) Do(ctx context.Context, fn func(tx repositories.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s.repos())
}

// ---- books

type fakeBooks struct{ s *memStore }

func (r *fakeBooks) live(id uint) (*models.Book, error) {
	b, ok := r.s.books[id]
	if !ok || b.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBooks) Create(ctx context.Context, book *models.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	book.ID = r.s.id()
	cp := *book
	r.s.books[book.ID] = &cp
	return nil
}

func (r *fakeBooks) Save(ctx context.Context, book *models.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *book
	r.s.books[book.ID] = &cp
	return nil
}

func (r *fakeBooks) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.live(id)
}

func (r *fakeBooks) GetByIDForUpdate(ctx context.Context, id uint) (*models.Book, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeBooks) GetByCode(ctx context.Context, code string) (*models.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.books {
		if b.DeletedAt.Valid {
			continue
		}
		if b.ISBN == code || (b.Barcode != nil && *b.Barcode == code) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBooks) List(ctx context.Context) ([]*models.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Book
	for _, b := range r.s.books {
		if !b.DeletedAt.Valid {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *fakeBooks) UpdateStock(ctx context.Context, id uint, available int, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b, ok := r.s.books[id]; ok {
		b.AvailableCopy = available
		b.Status = status
	}
	return nil
}

func (r *fakeBooks) SetBarcode(ctx context.Context, id uint, barcode string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b, ok := r.s.books[id]; ok {
		b.Barcode = &barcode
	}
	return nil
}

func (r *fakeBooks) SoftDelete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b, ok := r.s.books[id]; ok {
		b.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return nil
}

func (r *fakeBooks) Count(ctx context.Context) (int64, error) {
	books, _ := r.List(ctx)
	return int64(len(books)), nil
}

func (r *fakeBooks) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.books = map[uint]*models.Book{}
	return nil
}

// ---- members

type fakeMembers struct{ s *memStore }

func (r *fakeMembers) Create(ctx context.Context, m *models.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id()
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	cp := *m
	r.s.members[m.ID] = &cp
	return nil
}

func (r *fakeMembers) Save(ctx context.Context, m *models.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	r.s.members[m.ID] = &cp
	return nil
}

func (r *fakeMembers) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMembers) GetByIDForUpdate(ctx context.Context, id uint) (*models.Member, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeMembers) GetByCode(ctx context.Context, code string) (*models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.members {
		if m.MemberCode == code {
			cp := *m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMembers) List(ctx context.Context) ([]*models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Member
	for _, m := range r.s.members {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeMembers) SetStatus(ctx context.Context, id uint, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Status = status
	return nil
}

func (r *fakeMembers) LastCodeWithPrefix(ctx context.Context, prefix string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	last := ""
	for _, m := range r.s.members {
		if strings.HasPrefix(m.MemberCode, prefix) && m.MemberCode > last {
			last = m.MemberCode
		}
	}
	return last, nil
}

func (r *fakeMembers) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	return err == nil, nil
}

func (r *fakeMembers) CountActive(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range r.s.members {
		if m.Status == string(domain.MemberActive) || m.Status == "" {
			n++
		}
	}
	return n, nil
}

func (r *fakeMembers) CountJoinedSince(ctx context.Context, since time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range r.s.members {
		if !m.JoinedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeMembers) RecentJoined(ctx context.Context, limit int) ([]*models.Member, error) {
	all, _ := r.List(ctx)
	sort.Slice(all, func(i, j int) bool { return all[i].JoinedAt.After(all[j].JoinedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeMembers) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.members = map[uint]*models.Member{}
	return nil
}

// ---- loans

type fakeLoans struct{ s *memStore }

func (r *fakeLoans) Create(ctx context.Context, l *models.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.id()
	cp := *l
	r.s.loans[l.ID] = &cp
	return nil
}

func (r *fakeLoans) GetByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLoans) MarkReturned(ctx context.Context, id uint, at time.Time, fine int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l := r.s.loans[id]
	l.Status = string(domain.LoanReturned)
	l.ReturnDate = &at
	l.FineAmount = fine
	return nil
}

func (r *fakeLoans) count(match func(*models.Loan) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, l := range r.s.loans {
		if match(l) {
			n++
		}
	}
	return n
}

func active(l *models.Loan) bool { return l.Status == string(domain.LoanBorrowed) }

func (r *fakeLoans) CountActiveByMember(ctx context.Context, memberID uint) (int64, error) {
	return r.count(func(l *models.Loan) bool { return active(l) && l.MemberID == memberID }), nil
}

func (r *fakeLoans) CountActiveByBook(ctx context.Context, bookID uint) (int64, error) {
	return r.count(func(l *models.Loan) bool { return active(l) && l.BookID == bookID }), nil
}

func (r *fakeLoans) CountByMemberSince(ctx context.Context, memberID uint, since time.Time) (int64, error) {
	return r.count(func(l *models.Loan) bool { return l.MemberID == memberID && !l.LoanDate.Before(since) }), nil
}

func (r *fakeLoans) CountByBookSince(ctx context.Context, bookID uint, since time.Time) (int64, error) {
	return r.count(func(l *models.Loan) bool { return l.BookID == bookID && !l.LoanDate.Before(since) }), nil
}

// details joins loans with live books and their members
func (r *fakeLoans) details(match func(*models.Loan, *models.Book, *models.Member) bool) []*models.LoanDetail {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.LoanDetail{}
	for _, l := range r.s.loans {
		b, ok := r.s.books[l.BookID]
		if !ok || b.DeletedAt.Valid {
			continue
		}
		m := r.s.members[l.MemberID]
		if m == nil || !match(l, b, m) {
			continue
		}
		var activeCount int64
		for _, o := range r.s.loans {
			if o.MemberID == m.ID && active(o) {
				activeCount++
			}
		}
		out = append(out, &models.LoanDetail{
			ID: l.ID, BookID: l.BookID, MemberID: l.MemberID,
			BookTitle: b.Title, BookISBN: b.ISBN,
			MemberName: m.Name, MemberCode: m.MemberCode, MemberStatus: m.Status,
			LoanDate: l.LoanDate, DueDate: l.DueDate, ReturnDate: l.ReturnDate,
			Status: l.Status, FineAmount: l.FineAmount, MemberActiveLoans: activeCount,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

func (r *fakeLoans) FindActive(ctx context.Context, query string) ([]*models.LoanDetail, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	id, _ := strconv.ParseUint(q, 10, 64)
	return r.details(func(l *models.Loan, b *models.Book, m *models.Member) bool {
		if !active(l) {
			return false
		}
		return b.ISBN == query || (b.Barcode != nil && *b.Barcode == query) ||
			m.MemberCode == query || strings.Contains(strings.ToLower(m.Name), q) ||
			(id != 0 && uint(id) == l.ID)
	}), nil
}

func (r *fakeLoans) ListActive(ctx context.Context) ([]*models.LoanDetail, error) {
	return r.details(func(l *models.Loan, _ *models.Book, _ *models.Member) bool { return active(l) }), nil
}

func (r *fakeLoans) ListOverdue(ctx context.Context, now time.Time) ([]*models.LoanDetail, error) {
	return r.details(func(l *models.Loan, _ *models.Book, _ *models.Member) bool {
		return active(l) && l.DueDate.Before(now)
	}), nil
}

func (r *fakeLoans) RecentReturns(ctx context.Context, limit int) ([]*models.LoanDetail, error) {
	rows := r.details(func(l *models.Loan, _ *models.Book, _ *models.Member) bool { return !active(l) })
	sort.Slice(rows, func(i, j int) bool { return rows[i].ReturnDate.After(*rows[j].ReturnDate) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *fakeLoans) ActiveByMember(ctx context.Context, memberID uint) ([]*models.LoanDetail, error) {
	return r.details(func(l *models.Loan, _ *models.Book, _ *models.Member) bool {
		return active(l) && l.MemberID == memberID
	}), nil
}

func (r *fakeLoans) HistoryByMember(ctx context.Context, memberID uint) ([]*models.LoanDetail, error) {
	rows := r.details(func(l *models.Loan, _ *models.Book, _ *models.Member) bool { return l.MemberID == memberID })
	sort.Slice(rows, func(i, j int) bool { return rows[i].LoanDate.After(rows[j].LoanDate) })
	return rows, nil
}

func (r *fakeLoans) ActiveByBook(ctx context.Context, bookID uint) ([]*models.LoanDetail, error) {
	return r.details(func(l *models.Loan, _ *models.Book, _ *models.Member) bool {
		return active(l) && l.BookID == bookID
	}), nil
}

func (r *fakeLoans) RecentLoans(ctx context.Context, limit int) ([]*models.LoanDetail, error) {
	rows := r.details(func(*models.Loan, *models.Book, *models.Member) bool { return true })
	sort.Slice(rows, func(i, j int) bool { return rows[i].LoanDate.After(rows[j].LoanDate) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *fakeLoans) Count(ctx context.Context) (int64, error) {
	return r.count(func(*models.Loan) bool { return true }), nil
}

func (r *fakeLoans) CountActive(ctx context.Context) (int64, error) {
	rows, _ := r.ListActive(ctx)
	return int64(len(rows)), nil
}

func (r *fakeLoans) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	rows, _ := r.ListOverdue(ctx, now)
	return int64(len(rows)), nil
}

func (r *fakeLoans) LoanDatesSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []time.Time
	for _, l := range r.s.loans {
		if !l.LoanDate.Before(since) {
			out = append(out, l.LoanDate)
		}
	}
	return out, nil
}

func (r *fakeLoans) PopularCategories(ctx context.Context, limit int) ([]*models.CategoryStat, error) {
	return []*models.CategoryStat{}, nil
}

func (r *fakeLoans) MostBorrowed(ctx context.Context, limit int) ([]*models.BookStat, error) {
	return []*models.BookStat{}, nil
}

func (r *fakeLoans) MemberActivity(ctx context.Context, limit int) ([]*models.MemberActivity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.MemberActivity{}
	for _, m := range r.s.members {
		row := &models.MemberActivity{Name: m.Name}
		for _, l := range r.s.loans {
			if l.MemberID != m.ID {
				continue
			}
			row.TotalLoans++
			if row.LastActivity == nil || l.LoanDate.After(*row.LastActivity) {
				d := l.LoanDate
				row.LastActivity = &d
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *fakeLoans) ListAll(ctx context.Context) ([]*models.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Loan
	for _, l := range r.s.loans {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeLoans) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.loans = map[uint]*models.Loan{}
	return nil
}

// ---- settings, audit, users, tokens

type fakeSettings struct{ s *memStore }

func (r *fakeSettings) GetAll(ctx context.Context) ([]*models.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Setting
	for k, v := range r.s.settings {
		out = append(out, &models.Setting{Key: k, Value: v})
	}
	return out, nil
}

func (r *fakeSettings) Get(ctx context.Context, key string) (*models.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.settings[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Setting{Key: key, Value: v}, nil
}

func (r *fakeSettings) Set(ctx context.Context, key, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.settings[key] = value
	return nil
}

type fakeAudit struct{ s *memStore }

func (r *fakeAudit) Create(ctx context.Context, e *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.id()
	r.s.audit = append(r.s.audit, e)
	return nil
}

func (r *fakeAudit) List(ctx context.Context, entity string, offset, limit int) ([]*models.AuditLog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*models.AuditLog
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		if entity == "" || r.s.audit[i].Entity == entity {
			rows = append(rows, r.s.audit[i])
		}
	}
	total := int64(len(rows))
	if offset >= len(rows) {
		return []*models.AuditLog{}, total, nil
	}
	rows = rows[offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, total, nil
}

type fakeUsers struct{ s *memStore }

func (r *fakeUsers) Create(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.ID = r.s.id()
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *fakeUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUsers) Update(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *fakeUsers) UpdatePasswordByUsername(ctx context.Context, username, hashed string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			u.Password = hashed
		}
	}
	return nil
}

func (r *fakeUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

type fakeTokens struct{ s *memStore }

func (r *fakeTokens) Create(ctx context.Context, t *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = r.s.id()
	cp := *t
	r.s.tokens[t.ID] = &cp
	return nil
}

func (r *fakeTokens) GetByTokenHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTokens) revoke(match func(*models.RefreshToken) bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, t := range r.s.tokens {
		if t.RevokedAt == nil && match(t) {
			t.RevokedAt = &now
		}
	}
}

func (r *fakeTokens) Revoke(ctx context.Context, id uint) error {
	r.revoke(func(t *models.RefreshToken) bool { return t.ID == id })
	return nil
}

func (r *fakeTokens) RevokeByTokenHash(ctx context.Context, hash string) error {
	r.revoke(func(t *models.RefreshToken) bool { return t.TokenHash == hash })
	return nil
}

func (r *fakeTokens) RevokeAllByUserID(ctx context.Context, userID uint) error {
	r.revoke(func(t *models.RefreshToken) bool { return t.UserID == userID })
	return nil
}

func (r *fakeTokens) DeleteExpired(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.tokens {
		if t.RevokedAt != nil || t.IsExpired() {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}

// ---- fixtures

func (s *memStore) addBook(title string, total, available int) *models.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &models.Book{
		ID:            s.id(),
		Title:         title,
		Author:        "Penulis",
		ISBN:          "978-" + title,
		TotalCopy:     total,
		AvailableCopy: available,
		Status:        string(domain.BookAvailable),
	}
	if available == 0 {
		b.Status = string(domain.BookBorrowedOut)
	}
	s.books[b.ID] = b
	return b
}

func (s *memStore) addMember(code, name string, status domain.MemberStatus) *models.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &models.Member{
		ID:         s.id(),
		MemberCode: code,
		Name:       name,
		Status:     string(status),
		JoinedAt:   time.Now(),
	}
	s.members[m.ID] = m
	return m
}

func (s *memStore) book(id uint) models.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.books[id]
}

func (s *memStore) loan(id uint) models.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.loans[id]
}
