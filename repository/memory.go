package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"dailybread/models"
)

// MemoryStore implements every repository interface in process. It backs
// DB_TYPE=memory and the test suites.
type MemoryStore struct {
	mu sync.Mutex

	nextID int64

	users     map[int64]*models.AppUser
	profiles  map[int64]*models.Profile
	sessions  map[string]*models.Session
	roles     []models.UserRole
	churches  map[int64]*models.Church
	settings  map[int64]*models.GivingSettings
	roundups  []*models.RoundUp
	donations []*models.Donation
	claims    map[int64]time.Time
	audit     []*models.AuditEvent
	messages  []*models.ContactMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*models.AppUser),
		profiles: make(map[int64]*models.Profile),
		sessions: make(map[string]*models.Session),
		churches: make(map[int64]*models.Church),
		settings: make(map[int64]*models.GivingSettings),
		claims:   make(map[int64]time.Time),
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

// ------------------------ Accounts ------------------------

func (m *MemoryStore) emailTaken(email string) bool {
	for _, u := range m.users {
		if u.Email == email {
			return true
		}
	}
	return false
}

func (m *MemoryStore) insertUser(u *models.AppUser, p *models.Profile) {
	now := time.Now().UTC()
	u.ID = m.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	cu := *u
	m.users[u.ID] = &cu

	p.UserID = u.ID
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	m.profiles[u.ID] = &cp

	if _, ok := m.settings[u.ID]; !ok {
		m.settings[u.ID] = models.DefaultGivingSettings(u.ID)
	}
}

func (m *MemoryStore) CreateUser(_ context.Context, u *models.AppUser, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(u.Email) {
		return ErrDuplicate
	}
	m.insertUser(u, p)
	return nil
}

func (m *MemoryStore) CreateChurchAdmin(_ context.Context, u *models.AppUser, p *models.Profile, c *models.Church) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(u.Email) || m.churchTaken(c) {
		return ErrDuplicate
	}
	m.insertChurch(c)
	p.ChurchID = &c.ID
	m.insertUser(u, p)

	churchID := c.ID
	m.roles = append(m.roles, models.UserRole{
		ID:        m.id(),
		UserID:    u.ID,
		Role:      models.RoleChurchAdmin,
		ChurchID:  &churchID,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.AppUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cu := *u
			return &cu, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByID(_ context.Context, id int64) (*models.AppUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cu := *u
	return &cu, nil
}

func (m *MemoryStore) GetProfile(_ context.Context, userID int64) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) UpdateProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.profiles[p.UserID]
	if !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	cur.FirstName, cur.LastName, cur.Phone, cur.UpdatedAt = p.FirstName, p.LastName, p.Phone, p.UpdatedAt
	return nil
}

func (m *MemoryStore) SetProfileChurch(_ context.Context, userID int64, churchID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	if churchID != nil {
		id := *churchID
		cur.ChurchID = &id
	} else {
		cur.ChurchID = nil
	}
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

// ------------------------ Sessions ------------------------

func (m *MemoryStore) CreateSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.Token]; ok {
		return ErrDuplicate
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	cs := *s
	m.sessions[s.Token] = &cs
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, token string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	cs := *s
	return &cs, nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *MemoryStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

// ------------------------ Roles ------------------------

func (m *MemoryStore) GetRoles(_ context.Context, userID int64) ([]models.UserRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UserRole
	for _, r := range m.roles {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) AssignRole(_ context.Context, ur *models.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.UserID == ur.UserID && r.Role == ur.Role && equalIDPtr(r.ChurchID, ur.ChurchID) {
			return ErrDuplicate
		}
	}
	ur.ID = m.id()
	if ur.CreatedAt.IsZero() {
		ur.CreatedAt = time.Now().UTC()
	}
	m.roles = append(m.roles, *ur)
	return nil
}

func equalIDPtr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ------------------------ Churches ------------------------

func (m *MemoryStore) churchTaken(c *models.Church) bool {
	for _, existing := range m.churches {
		if existing.ID != c.ID && (existing.Slug == c.Slug || strings.EqualFold(existing.Name, c.Name)) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) insertChurch(c *models.Church) {
	now := time.Now().UTC()
	c.ID = m.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Country == "" {
		c.Country = "US"
	}
	if c.Status == "" {
		c.Status = models.ChurchPending
	}
	cc := *c
	m.churches[c.ID] = &cc
}

func (m *MemoryStore) churchCopy(c *models.Church) *models.Church {
	cc := *c
	cc.MemberCount = m.members(c.ID)
	return &cc
}

func (m *MemoryStore) members(churchID int64) int {
	n := 0
	for _, p := range m.profiles {
		if p.ChurchID != nil && *p.ChurchID == churchID {
			n++
		}
	}
	return n
}

func (m *MemoryStore) CreateChurch(_ context.Context, c *models.Church) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.churchTaken(c) {
		return ErrDuplicate
	}
	m.insertChurch(c)
	return nil
}

func (m *MemoryStore) GetChurch(_ context.Context, id int64) (*models.Church, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.churches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.churchCopy(c), nil
}

func (m *MemoryStore) GetChurchBySlug(_ context.Context, slug string) (*models.Church, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.churches {
		if c.Slug == slug {
			return m.churchCopy(c), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListChurches(_ context.Context, f models.ChurchFilter) ([]*models.Church, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(f.Query))

	var list []*models.Church
	for _, c := range m.churches {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if q != "" {
			city := ""
			if c.City != nil {
				city = strings.ToLower(*c.City)
			}
			if !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(city, q) {
				continue
			}
		}
		list = append(list, m.churchCopy(c))
	}

	sort.Slice(list, func(i, j int) bool {
		if f.NewestFirst {
			if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
				return list[i].CreatedAt.After(list[j].CreatedAt)
			}
			return list[i].ID > list[j].ID
		}
		a, b := strings.ToLower(list[i].Name), strings.ToLower(list[j].Name)
		if a != b {
			return a < b
		}
		return list[i].ID < list[j].ID
	})
	if f.Limit > 0 && len(list) > f.Limit {
		list = list[:f.Limit]
	}
	return list, nil
}

func (m *MemoryStore) UpdateChurch(_ context.Context, c *models.Church) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.churches[c.ID]
	if !ok {
		return ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	cur.City, cur.State, cur.Website, cur.ContactEmail, cur.LogoURL = c.City, c.State, c.Website, c.ContactEmail, c.LogoURL
	cur.UpdatedAt = c.UpdatedAt
	return nil
}

func (m *MemoryStore) TransitionStatus(_ context.Context, id int64, from, to models.ChurchStatus, reason *string) (*models.Church, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.churches[id]
	if !ok {
		return nil, ErrNotFound
	}
	if cur.Status != from {
		return nil, ErrConflict
	}
	cur.Status = to
	cur.RejectionReason = reason
	cur.UpdatedAt = time.Now().UTC()
	return m.churchCopy(cur), nil
}

func (m *MemoryStore) CountByStatus(_ context.Context) (map[models.ChurchStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.ChurchStatus]int{
		models.ChurchPending:  0,
		models.ChurchActive:   0,
		models.ChurchRejected: 0,
	}
	for _, c := range m.churches {
		counts[c.Status]++
	}
	return counts, nil
}

func (m *MemoryStore) CountMembers(_ context.Context, churchID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members(churchID), nil
}

// ------------------------ Settings ------------------------

func (m *MemoryStore) GetSettings(_ context.Context, userID int64) (*models.GivingSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[userID]
	if !ok {
		return models.DefaultGivingSettings(userID), nil
	}
	cs := *s
	if s.Card != nil {
		card := *s.Card
		cs.Card = &card
	}
	return &cs, nil
}

func (m *MemoryStore) SaveSettings(_ context.Context, s *models.GivingSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = time.Now().UTC()
	cs := *s
	if s.Card != nil {
		card := *s.Card
		cs.Card = &card
	}
	m.settings[s.UserID] = &cs
	return nil
}

// ------------------------ Round-ups & donations ------------------------

func (m *MemoryStore) AddRoundUp(_ context.Context, ru *models.RoundUp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ru.ID = m.id()
	if ru.CreatedAt.IsZero() {
		ru.CreatedAt = time.Now().UTC()
	}
	cr := *ru
	m.roundups = append(m.roundups, &cr)
	return nil
}

func (m *MemoryStore) ListRoundUps(_ context.Context, userID int64, limit int) ([]*models.RoundUp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.RoundUp
	for _, ru := range m.roundups {
		if ru.UserID == userID {
			cr := *ru
			list = append(list, &cr)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].OccurredAt.Equal(list[j].OccurredAt) {
			return list[i].OccurredAt.After(list[j].OccurredAt)
		}
		return list[i].ID > list[j].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MemoryStore) PendingBalance(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, ru := range m.roundups {
		if ru.UserID == userID && ru.Status == models.RoundUpPending {
			total += ru.AppliedCents
		}
	}
	return total, nil
}

func (m *MemoryStore) SweepPending(_ context.Context, userID, churchID, minCents int64, fee FeeFunc) (*models.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []*models.RoundUp
	var gross int64
	for _, ru := range m.roundups {
		if ru.UserID == userID && ru.Status == models.RoundUpPending {
			pending = append(pending, ru)
			gross += ru.AppliedCents
		}
	}
	if len(pending) == 0 || gross < minCents {
		return nil, nil
	}

	feeCents := fee(gross)
	net := gross - feeCents
	if net < 0 {
		net = 0
	}
	d := &models.Donation{
		ID:           m.id(),
		UserID:       userID,
		ChurchID:     churchID,
		GrossCents:   gross,
		FeeCents:     feeCents,
		NetCents:     net,
		RoundUpCount: len(pending),
		Status:       models.DonationPending,
		CreatedAt:    time.Now().UTC(),
	}
	for _, ru := range pending {
		id := d.ID
		ru.Status = models.RoundUpSwept
		ru.DonationID = &id
	}
	m.donations = append(m.donations, d)
	cd := *d
	return &cd, nil
}

func matchDonation(d *models.Donation, f models.DonationFilter) bool {
	if f.UserID != 0 && d.UserID != f.UserID {
		return false
	}
	if f.ChurchID != 0 && d.ChurchID != f.ChurchID {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && d.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !d.CreatedAt.Before(f.Until) {
		return false
	}
	return true
}

func (m *MemoryStore) ListDonations(_ context.Context, f models.DonationFilter) ([]*models.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Donation
	for _, d := range m.donations {
		if matchDonation(d, f) {
			cd := *d
			list = append(list, &cd)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	if f.Limit > 0 && len(list) > f.Limit {
		list = list[:f.Limit]
	}
	return list, nil
}

func (m *MemoryStore) DonationTotals(_ context.Context, f models.DonationFilter) (models.DonationTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var t models.DonationTotals
	donors := make(map[int64]struct{})
	for _, d := range m.donations {
		if !matchDonation(d, f) {
			continue
		}
		t.GrossCents += d.GrossCents
		t.NetCents += d.NetCents
		t.Count++
		donors[d.UserID] = struct{}{}
	}
	t.Donors = len(donors)
	return t, nil
}

func (m *MemoryStore) TopGivers(_ context.Context, churchID int64, since time.Time, limit int) ([]models.Giver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byUser := make(map[int64]*models.Giver)
	for _, d := range m.donations {
		if d.ChurchID != churchID || d.Status != models.DonationCompleted || d.CreatedAt.Before(since) {
			continue
		}
		g, ok := byUser[d.UserID]
		if !ok {
			g = &models.Giver{UserID: d.UserID}
			if p, ok := m.profiles[d.UserID]; ok {
				g.Name = p.DisplayName()
			}
			byUser[d.UserID] = g
		}
		g.Donations++
		g.TotalCents += d.GrossCents
	}

	givers := make([]models.Giver, 0, len(byUser))
	for _, g := range byUser {
		givers = append(givers, *g)
	}
	sort.Slice(givers, func(i, j int) bool {
		if givers[i].TotalCents != givers[j].TotalCents {
			return givers[i].TotalCents > givers[j].TotalCents
		}
		return givers[i].UserID < givers[j].UserID
	})
	if limit > 0 && len(givers) > limit {
		givers = givers[:limit]
	}
	return givers, nil
}

func (m *MemoryStore) ClaimPendingDonations(_ context.Context, limit int, lease time.Duration) ([]*models.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var list []*models.Donation
	for _, d := range m.donations {
		if d.Status != models.DonationPending || m.claims[d.ID].After(now) {
			continue
		}
		m.claims[d.ID] = now.Add(lease)
		cd := *d
		list = append(list, &cd)
		if limit > 0 && len(list) == limit {
			break
		}
	}
	return list, nil
}

func (m *MemoryStore) UpdateDonation(_ context.Context, d *models.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.donations {
		if cur.ID == d.ID {
			cur.Status, cur.Attempts, cur.ChargeRef, cur.FailureReason, cur.SettledAt =
				d.Status, d.Attempts, d.ChargeRef, d.FailureReason, d.SettledAt
			delete(m.claims, d.ID)
			return nil
		}
	}
	return ErrNotFound
}

// ------------------------ Audit & contact ------------------------

func (m *MemoryStore) Record(_ context.Context, e *models.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = strconv.FormatInt(m.id(), 10)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	ce := *e
	m.audit = append(m.audit, &ce)
	return nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]*models.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuditEvent
	for i := len(m.audit) - 1; i >= 0; i-- {
		ce := *m.audit[i]
		out = append(out, &ce)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveMessage(_ context.Context, msg *models.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.id()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	cm := *msg
	m.messages = append(m.messages, &cm)
	return nil
}

func (m *MemoryStore) ListMessages(_ context.Context, limit int) ([]*models.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ContactMessage
	for i := len(m.messages) - 1; i >= 0; i-- {
		cm := *m.messages[i]
		out = append(out, &cm)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

var (
	_ UserRepository     = (*MemoryStore)(nil)
	_ SessionRepository  = (*MemoryStore)(nil)
	_ RoleRepository     = (*MemoryStore)(nil)
	_ ChurchRepository   = (*MemoryStore)(nil)
	_ SettingsRepository = (*MemoryStore)(nil)
	_ GivingRepository   = (*MemoryStore)(nil)
	_ AuditRepository    = (*MemoryStore)(nil)
	_ ContactRepository  = (*MemoryStore)(nil)

	_ UserRepository     = (*PostgresUserRepo)(nil)
	_ SessionRepository  = (*PostgresSessionRepo)(nil)
	_ RoleRepository     = (*PostgresRoleRepo)(nil)
	_ ChurchRepository   = (*PostgresChurchRepo)(nil)
	_ SettingsRepository = (*PostgresSettingsRepo)(nil)
	_ GivingRepository   = (*PostgresGivingRepo)(nil)
	_ AuditRepository    = (*PostgresAuditRepo)(nil)
	_ AuditRepository    = (*MongoAuditRepo)(nil)
	_ ContactRepository  = (*PostgresContactRepo)(nil)
)
