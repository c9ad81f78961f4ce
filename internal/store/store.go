package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"itms-booking-backend/internal/booking"
	"itms-booking-backend/internal/model"
)

// Store defines every database operation the application performs. It embeds
// the engine-facing booking.Ledger and adds the administrative surfaces.
type Store interface {
	booking.Ledger

	CreateResource(ctx context.Context, r *model.Resource) error
	UpdateResource(ctx context.Context, r *model.Resource) error
	ListResources(ctx context.Context, category model.ResourceCategory) ([]model.Resource, error)

	SaveSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error)

	Stats(ctx context.Context, now time.Time) (Stats, error)
}

// Stats aggregates the dashboard counters.
type Stats struct {
	TotalResources   int64 `json:"totalResources"`
	TotalBookings    int64 `json:"totalBookings"`
	PendingBookings  int64 `json:"pendingBookings"`
	ApprovedBookings int64 `json:"approvedBookings"`
	TodayBookings    int64 `json:"todayBookings"`
}

// gormStore implements Store using GORM.
type gormStore struct {
	db    *gorm.DB
	locks resourceLocks
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// resourceLocks serializes mutating booking operations per resource.
// Operations on different resources proceed in parallel; two writers on the
// same resource queue up, so the overlap check and the insert they bracket
// cannot interleave. The transaction-level re-check below still guards the
// multi-process case.
type resourceLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *resourceLocks) forResource(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	lock, ok := l.m[id]
	if !ok {
		lock = &sync.Mutex{}
		l.m[id] = lock
	}
	return lock
}

// --- Resources ---

func (s *gormStore) CreateResource(ctx context.Context, r *model.Resource) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *gormStore) UpdateResource(ctx context.Context, r *model.Resource) error {
	return s.db.WithContext(ctx).Save(r).Error
}

func (s *gormStore) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	var r model.Resource
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", booking.ErrResourceNotFound, id)
		}
		return nil, err
	}
	return &r, nil
}

func (s *gormStore) ListResources(ctx context.Context, category model.ResourceCategory) ([]model.Resource, error) {
	q := s.db.WithContext(ctx).Order("name ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var out []model.Resource
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// --- Bookings ---

// overlapQuery matches active bookings for the resource whose half-open
// interval intersects [start, end), optionally excluding one booking id.
func overlapQuery(tx *gorm.DB, resourceID string, start, end time.Time, excludeID string) *gorm.DB {
	q := tx.Model(&model.Booking{}).
		Where("resource_id = ? AND status IN ?", resourceID, model.ActiveStatuses).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	return q
}

// hasConflictTx runs the overlap check inside tx, locking the matched rows on
// dialects that support it. SQLite serializes writers on its own and rejects
// the FOR UPDATE syntax, so the clause is skipped there.
func hasConflictTx(tx *gorm.DB, resourceID string, start, end time.Time, excludeID string) (bool, error) {
	q := overlapQuery(tx, resourceID, start, end, excludeID)
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var existing model.Booking
	err := q.Take(&existing).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// CreateBooking inserts the booking after re-validating, inside the same
// transaction, that no active booking overlaps it. Validate-and-insert is
// atomic: two concurrent creates for overlapping intervals on the same
// resource yield exactly one insert and one booking.ErrBookingConflict.
func (s *gormStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	lock := s.locks.forResource(b.ResourceID)
	lock.Lock()
	defer lock.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conflict, err := hasConflictTx(tx, b.ResourceID, b.StartTime, b.EndTime, "")
		if err != nil {
			return err
		}
		if conflict {
			return booking.ErrBookingConflict
		}
		return tx.Create(b).Error
	})
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", booking.ErrBookingNotFound, id)
		}
		return nil, err
	}
	return &b, nil
}

func (s *gormStore) ListBookings(ctx context.Context, f booking.ListFilter) ([]model.Booking, error) {
	q := s.db.WithContext(ctx).Model(&model.Booking{}).Order("start_time ASC")
	if f.ResourceID != "" {
		q = q.Where("resource_id = ?", f.ResourceID)
	}
	if f.RequesterID != "" {
		q = q.Where("requester_id = ?", f.RequesterID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if !f.From.IsZero() && !f.To.IsZero() {
		q = q.Where("start_time < ? AND end_time > ?", f.To, f.From)
	}
	var out []model.Booking
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// txChecker exposes the transactional overlap check to the apply callback.
type txChecker struct {
	tx *gorm.DB
}

func (c txChecker) HasConflict(resourceID string, start, end time.Time, excludeID string) (bool, error) {
	return hasConflictTx(c.tx, resourceID, start, end, excludeID)
}

// UpdateBooking loads the booking, applies the callback and saves the result
// in a single transaction, serialized with every other write on the same
// resource. The callback decides legality (workflow transitions, conflict
// re-checks); any error it returns rolls the transaction back.
func (s *gormStore) UpdateBooking(ctx context.Context, id string, apply func(c booking.ConflictChecker, b *model.Booking) error) (*model.Booking, error) {
	// The resource id is needed before the row can be locked.
	var probe model.Booking
	if err := s.db.WithContext(ctx).Select("resource_id").First(&probe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", booking.ErrBookingNotFound, id)
		}
		return nil, err
	}

	lock := s.locks.forResource(probe.ResourceID)
	lock.Lock()
	defer lock.Unlock()

	var out *model.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var b model.Booking
		if err := q.First(&b, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", booking.ErrBookingNotFound, id)
			}
			return err
		}

		if err := apply(txChecker{tx: tx}, &b); err != nil {
			return err
		}

		if err := tx.Save(&b).Error; err != nil {
			return err
		}
		out = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *gormStore) HasConflict(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (bool, error) {
	var count int64
	if err := overlapQuery(s.db.WithContext(ctx), resourceID, start, end, excludeID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListStartDue returns CONFIRMED bookings whose interval has begun.
func (s *gormStore) ListStartDue(ctx context.Context, asOf time.Time) ([]model.Booking, error) {
	var out []model.Booking
	err := s.db.WithContext(ctx).
		Where("status = ? AND start_time <= ?", model.BookingConfirmed, asOf).
		Order("start_time ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListEndDue returns IN_USE bookings whose interval has ended.
func (s *gormStore) ListEndDue(ctx context.Context, asOf time.Time) ([]model.Booking, error) {
	var out []model.Booking
	err := s.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", model.BookingInUse, asOf).
		Order("end_time ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// --- Push subscriptions ---

func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}

func (s *gormStore) SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	var out []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// --- Stats ---

// Stats aggregates the dashboard counters in one pass per table.
func (s *gormStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.Resource{}).Count(&st.TotalResources).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&model.Booking{}).Count(&st.TotalBookings).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&model.Booking{}).Where("status = ?", model.BookingPending).Count(&st.PendingBookings).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&model.Booking{}).Where("status = ?", model.BookingApproved).Count(&st.ApprovedBookings).Error; err != nil {
		return Stats{}, err
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	if err := db.Model(&model.Booking{}).
		Where("start_time < ? AND end_time > ?", dayEnd, dayStart).
		Count(&st.TodayBookings).Error; err != nil {
		return Stats{}, err
	}
	return st, nil
}
