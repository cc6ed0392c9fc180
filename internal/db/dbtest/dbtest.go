// Package dbtest provides in-memory repositories for tests.
package dbtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/example/gymdesk/internal/db"
	"github.com/example/gymdesk/internal/models"
)

// Store implements every repository in package db over maps. Fail, when
// set, is returned by every call.
type Store struct {
	mu sync.Mutex

	Users        map[string]models.UserProfile
	Members      map[string]models.Member
	Payments     []models.Payment
	Classes      map[string]models.GymClass
	TourRequests []models.TourRequest
	AuditLogs    []models.AuditLog

	Fail   error
	Writes int
}

func New() *Store {
	return &Store{
		Users:   map[string]models.UserProfile{},
		Members: map[string]models.Member{},
		Classes: map[string]models.GymClass{},
	}
}

func (s *Store) UserRepo() db.UserRepository               { return userRepo{s} }
func (s *Store) MemberRepo() db.MemberRepository           { return memberRepo{s} }
func (s *Store) PaymentRepo() db.PaymentRepository         { return paymentRepo{s} }
func (s *Store) ClassRepo() db.ClassRepository             { return classRepo{s} }
func (s *Store) TourRequestRepo() db.TourRequestRepository { return tourRepo{s} }
func (s *Store) AuditRepo() db.AuditRepository             { return auditRepo{s} }

// WriteCount returns the number of successful writes.
func (s *Store) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Writes
}

func (s *Store) lock() error {
	s.mu.Lock()
	if s.Fail != nil {
		err := s.Fail
		s.mu.Unlock()
		return err
	}
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s '%s': %w", kind, id, db.ErrNotFound)
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(_ context.Context, uid string) (*models.UserProfile, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	p, ok := r.s.Users[uid]
	if !ok {
		return nil, notFound("user", uid)
	}
	p.ID = uid
	return &p, nil
}

func (r userRepo) Put(_ context.Context, uid string, p models.UserProfile) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	r.s.Users[uid] = p
	r.s.Writes++
	return nil
}

type memberRepo struct{ s *Store }

func (r memberRepo) Create(_ context.Context, m *models.Member) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.Members[m.UID]; ok {
		return fmt.Errorf("member '%s': %w", m.UID, db.ErrAlreadyExists)
	}
	stored := *m
	stored.PaymentMethod = nil
	stored.BookedClasses = append([]string{}, m.BookedClasses...)
	r.s.Members[m.UID] = stored
	r.s.Writes++
	return nil
}

func (r memberRepo) GetByID(_ context.Context, uid string) (*models.Member, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	m, ok := r.s.Members[uid]
	if !ok {
		return nil, notFound("member", uid)
	}
	m.BookedClasses = append([]string{}, m.BookedClasses...)
	return &m, nil
}

func (r memberRepo) List(_ context.Context) ([]*models.Member, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []*models.Member{}
	for _, m := range r.s.Members {
		m := m
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memberRepo) Update(_ context.Context, uid string, fields map[string]interface{}) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	m, ok := r.s.Members[uid]
	if !ok {
		return notFound("member", uid)
	}
	for k, v := range fields {
		switch k {
		case "name":
			m.Name = v.(string)
		case "phone":
			m.Phone = v.(string)
		case "membershipPlan":
			m.MembershipPlan = v.(models.MembershipPlan)
		case "status":
			m.Status = v.(string)
		case "paymentMethodEncrypted":
			m.PaymentMethodEncrypted = v.(string)
		default:
			return fmt.Errorf("dbtest: unsupported member field %q", k)
		}
	}
	r.s.Members[uid] = m
	r.s.Writes++
	return nil
}

func (r memberRepo) AddBookedClass(_ context.Context, uid, classID string) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	m, ok := r.s.Members[uid]
	if !ok {
		return notFound("member", uid)
	}
	m.BookedClasses = union(m.BookedClasses, classID)
	r.s.Members[uid] = m
	r.s.Writes++
	return nil
}

func (r memberRepo) RemoveBookedClass(_ context.Context, uid, classID string) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	m, ok := r.s.Members[uid]
	if !ok {
		return notFound("member", uid)
	}
	m.BookedClasses = remove(m.BookedClasses, classID)
	r.s.Members[uid] = m
	r.s.Writes++
	return nil
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p *models.Payment) (string, error) {
	if err := r.s.lock(); err != nil {
		return "", err
	}
	defer r.s.mu.Unlock()
	p.ID = uuid.NewString()
	r.s.Payments = append(r.s.Payments, *p)
	r.s.Writes++
	return p.ID, nil
}

// ListByMember returns payments in insertion order; callers sort.
func (r paymentRepo) ListByMember(_ context.Context, memberID string) ([]*models.Payment, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*models.Payment
	for _, p := range r.s.Payments {
		if p.MemberID == memberID {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

type classRepo struct{ s *Store }

func (r classRepo) Create(_ context.Context, c *models.GymClass) (string, error) {
	if err := r.s.lock(); err != nil {
		return "", err
	}
	defer r.s.mu.Unlock()
	c.ID = uuid.NewString()
	stored := *c
	stored.Bookings = append([]string{}, c.Bookings...)
	r.s.Classes[c.ID] = stored
	r.s.Writes++
	return c.ID, nil
}

func (r classRepo) GetByID(_ context.Context, id string) (*models.GymClass, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	c, ok := r.s.Classes[id]
	if !ok {
		return nil, notFound("class", id)
	}
	c.Bookings = append([]string{}, c.Bookings...)
	return &c, nil
}

func (r classRepo) List(_ context.Context) ([]*models.GymClass, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []*models.GymClass{}
	for _, c := range r.s.Classes {
		c := c
		c.Bookings = append([]string{}, c.Bookings...)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r classRepo) UpdateBookings(_ context.Context, id string, bookings []string) error {
	return r.mutate(id, func(c *models.GymClass) { c.Bookings = append([]string{}, bookings...) })
}

func (r classRepo) AddBooking(_ context.Context, id, uid string) (*models.GymClass, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	c, ok := r.s.Classes[id]
	if !ok {
		return nil, notFound("class", id)
	}
	if c.HasBooking(uid) {
		return nil, db.ErrAlreadyBooked
	}
	if c.Full() {
		return nil, db.ErrClassFull
	}
	c.Bookings = append(append([]string{}, c.Bookings...), uid)
	r.s.Classes[id] = c
	r.s.Writes++
	out := c
	out.Bookings = append([]string{}, c.Bookings...)
	return &out, nil
}

func (r classRepo) RemoveBooking(_ context.Context, id, uid string) error {
	return r.mutate(id, func(c *models.GymClass) { c.Bookings = remove(c.Bookings, uid) })
}

func (r classRepo) mutate(id string, fn func(*models.GymClass)) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	c, ok := r.s.Classes[id]
	if !ok {
		return notFound("class", id)
	}
	fn(&c)
	r.s.Classes[id] = c
	r.s.Writes++
	return nil
}

type tourRepo struct{ s *Store }

func (r tourRepo) Create(_ context.Context, t *models.TourRequest) (string, error) {
	if err := r.s.lock(); err != nil {
		return "", err
	}
	defer r.s.mu.Unlock()
	t.ID = uuid.NewString()
	r.s.TourRequests = append(r.s.TourRequests, *t)
	r.s.Writes++
	return t.ID, nil
}

func (r tourRepo) List(_ context.Context) ([]*models.TourRequest, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []*models.TourRequest{}
	for i := len(r.s.TourRequests) - 1; i >= 0; i-- {
		t := r.s.TourRequests[i]
		out = append(out, &t)
	}
	return out, nil
}

func (r tourRepo) UpdateStatus(_ context.Context, id, status string) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for i := range r.s.TourRequests {
		if r.s.TourRequests[i].ID == id {
			r.s.TourRequests[i].Status = status
			r.s.Writes++
			return nil
		}
	}
	return notFound("tour request", id)
}

type auditRepo struct{ s *Store }

func (r auditRepo) Create(_ context.Context, entry models.AuditLog) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	r.s.AuditLogs = append(r.s.AuditLogs, entry)
	return nil
}

func union(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func remove(list []string, v string) []string {
	out := []string{}
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
