package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"carrent/internal/domain"
	"carrent/internal/redis"
	"carrent/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK CAR REPOSITORY
// ──────────────────────────────────────────────

// MockCarRepository is a mock implementation of CarRepository.
type MockCarRepository struct {
	mu   sync.RWMutex
	cars map[int64]*domain.Car

	// Counters for verification
	ListActiveCallCount int32

	// Error injection
	ListActiveError error
}

// NewMockCarRepository creates a new mock car repository.
func NewMockCarRepository() *MockCarRepository {
	return &MockCarRepository{
		cars: make(map[int64]*domain.Car),
	}
}

// AddCar adds a car to the mock repository.
func (m *MockCarRepository) AddCar(car *domain.Car) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cars[car.ID] = car
}

func (m *MockCarRepository) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	car, ok := m.cars[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *car
	return &copy, nil
}

func (m *MockCarRepository) ListActive(ctx context.Context) ([]*domain.Car, error) {
	atomic.AddInt32(&m.ListActiveCallCount, 1)
	if m.ListActiveError != nil {
		return nil, m.ListActiveError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Car, 0, len(m.cars))
	for _, c := range m.cars {
		if !c.IsActive {
			continue
		}
		copy := *c
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError  error
	BookedError  error
	OverlapError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *booking
	m.bookings[booking.ID] = &copy
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *b
	return &copy, nil
}

func overlaps(b *domain.Booking, start, end time.Time) bool {
	return b.Status == domain.BookingStatusApproved && !b.StartDate.After(end) && !b.EndDate.Before(start)
}

func (m *MockBookingRepository) HasApprovedOverlap(ctx context.Context, carID int64, start, end time.Time) (bool, error) {
	if m.OverlapError != nil {
		return false, m.OverlapError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bookings {
		if b.CarID == carID && overlaps(b, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockBookingRepository) BookedCarIDs(ctx context.Context, start, end time.Time) (map[int64]bool, error) {
	if m.BookedError != nil {
		return nil, m.BookedError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	booked := make(map[int64]bool)
	for _, b := range m.bookings {
		if overlaps(b, start, end) {
			booked[b.CarID] = true
		}
	}
	return booked, nil
}

func (m *MockBookingRepository) UpdateOrderStage(ctx context.Context, id string, stage domain.OrderStage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.OrderStage = stage
	return nil
}

// GetBooking returns booking for test assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

// CountBookings returns the number of stored bookings.
func (m *MockBookingRepository) CountBookings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

// ──────────────────────────────────────────────
// MOCK DEPOSIT REPOSITORY
// ──────────────────────────────────────────────

// MockDepositRepository is a mock implementation of DepositRepository.
type MockDepositRepository struct {
	mu       sync.RWMutex
	deposits map[string]*domain.Deposit

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockDepositRepository creates a new mock deposit repository.
func NewMockDepositRepository() *MockDepositRepository {
	return &MockDepositRepository{
		deposits: make(map[string]*domain.Deposit),
	}
}

func (m *MockDepositRepository) Create(ctx context.Context, deposit *domain.Deposit) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *deposit
	m.deposits[deposit.ID] = &copy
	return nil
}

func (m *MockDepositRepository) GetByID(ctx context.Context, id string) (*domain.Deposit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.deposits[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *d
	return &copy, nil
}

func (m *MockDepositRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Deposit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.deposits {
		if d.IdempotencyKey == key {
			copy := *d
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockDepositRepository) UpdateStatus(ctx context.Context, id string, status domain.DepositStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deposits[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Status = status
	return nil
}

// CountDeposits returns the number of stored deposits.
func (m *MockDepositRepository) CountDeposits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.deposits)
}

// ──────────────────────────────────────────────
// MOCK NOTIFICATION REPOSITORY
// ──────────────────────────────────────────────

// MockNotificationRepository is a mock implementation of NotificationRepository.
type MockNotificationRepository struct {
	mu            sync.Mutex
	notifications []*domain.Notification
}

// NewMockNotificationRepository creates a new mock notification repository.
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *n
	m.notifications = append(m.notifications, &copy)
	return nil
}

func (m *MockNotificationRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Notification
	for _, n := range m.notifications {
		if n.BookingID == bookingID {
			copy := *n
			result = append(result, &copy)
		}
	}
	return result, nil
}

// Kinds returns the kinds of every recorded notification in order.
func (m *MockNotificationRepository) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]string, 0, len(m.notifications))
	for _, n := range m.notifications {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[int64]mockLock

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool

	// OnAcquire runs after a successful acquire.
	OnAcquire func()
}

type mockLock struct {
	token  string
	expiry time.Time
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[int64]mockLock),
	}
}

func (m *MockLockStore) AcquireCarLock(ctx context.Context, carID int64, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return "", false, nil
	}
	m.mu.Lock()
	if l, exists := m.locks[carID]; exists && time.Now().Before(l.expiry) {
		m.mu.Unlock()
		return "", false, nil // Lock still held.
	}
	token := uuid.NewString()
	m.locks[carID] = mockLock{token: token, expiry: time.Now().Add(ttl)}
	m.mu.Unlock()

	if m.OnAcquire != nil {
		m.OnAcquire()
	}
	return token, true, nil
}

// ReleaseCarLock fails like a Redis call on a cancelled context, and only
// drops the lock while token still owns it.
func (m *MockLockStore) ReleaseCarLock(ctx context.Context, carID int64, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, exists := m.locks[carID]; exists && l.token == token {
		delete(m.locks, carID)
	}
	return nil
}

// IsLocked checks if a car is locked (for test assertions).
func (m *MockLockStore) IsLocked(carID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, exists := m.locks[carID]
	return exists && time.Now().Before(l.expiry)
}

// ──────────────────────────────────────────────
// MOCK AVAILABILITY CACHE
// ──────────────────────────────────────────────

// MockAvailabilityCache is an in-memory AvailabilityCacheInterface.
type MockAvailabilityCache struct {
	mu      sync.Mutex
	entries map[string][]domain.CarAvailability

	// Counters
	HitCount        int32
	InvalidateCount int32

	// Error injection
	GetError error
}

// NewMockAvailabilityCache creates a new mock availability cache.
func NewMockAvailabilityCache() *MockAvailabilityCache {
	return &MockAvailabilityCache{
		entries: make(map[string][]domain.CarAvailability),
	}
}

func rangeKey(start, end time.Time) string {
	return start.Format(domain.DateLayout) + ":" + end.Format(domain.DateLayout)
}

func (m *MockAvailabilityCache) GetAvailability(ctx context.Context, start, end time.Time) ([]domain.CarAvailability, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	got, ok := m.entries[rangeKey(start, end)]
	if !ok {
		return nil, nil
	}
	atomic.AddInt32(&m.HitCount, 1)
	return append([]domain.CarAvailability(nil), got...), nil
}

func (m *MockAvailabilityCache) SetAvailability(ctx context.Context, start, end time.Time, result []domain.CarAvailability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[rangeKey(start, end)] = append([]domain.CarAvailability(nil), result...)
	return nil
}

func (m *MockAvailabilityCache) InvalidateAvailability(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]domain.CarAvailability)
	return nil
}

// ──────────────────────────────────────────────
// MOCK PSP (Payment Service Provider)
// ──────────────────────────────────────────────

// MockPSP is a mock payment service provider.
type MockPSP struct {
	mu sync.Mutex

	// Control behavior
	ShouldFail bool
	FailError  error

	// Counters
	ChargeCallCount int32
	LastAmount      int64
}

// NewMockPSP creates a new mock PSP.
func NewMockPSP() *MockPSP {
	return &MockPSP{}
}

func (m *MockPSP) Charge(ctx context.Context, amount int64) (bool, error) {
	atomic.AddInt32(&m.ChargeCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastAmount = amount
	if m.FailError != nil {
		return false, m.FailError
	}
	if m.ShouldFail {
		return false, nil
	}
	return true, nil
}

// SetFailure configures the PSP to fail.
func (m *MockPSP) SetFailure(shouldFail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldFail = shouldFail
	m.FailError = err
}

// Ensure mocks implement the interfaces they stand in for.
var (
	_ repository.CarRepository          = (*MockCarRepository)(nil)
	_ repository.BookingRepository      = (*MockBookingRepository)(nil)
	_ repository.DepositRepository      = (*MockDepositRepository)(nil)
	_ repository.NotificationRepository = (*MockNotificationRepository)(nil)
	_ redis.LockStoreInterface          = (*MockLockStore)(nil)
	_ redis.AvailabilityCacheInterface  = (*MockAvailabilityCache)(nil)
)

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
