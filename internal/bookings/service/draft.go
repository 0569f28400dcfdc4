package service

import (
	"sync"
	"time"

	"staybook/internal/action"
	"staybook/internal/availability"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/identity"
	"staybook/pkg/metrics"
	"staybook/pkg/model"
	"staybook/pkg/timeutil"

	"github.com/google/uuid"
)

// Draft is one booking attempt in progress. Scope is guarded by the
// store's mutex and every other field by mu.
type Draft struct {
	mu sync.Mutex

	ID              string
	Scope           string
	Hotel           *model.Hotel
	CheckIn         time.Time
	CheckOut        time.Time
	Selections      []model.RoomSelection
	SpecialRequests string

	available   []model.RoomType
	resolvedKey string
	fetchingKey string
	checkFailed bool
	blocked     bool
	message     string
	submission  *action.Guard
	lastTouched time.Time
}

func newDraft(scope string, hotel *model.Hotel, now time.Time, loc *time.Location) *Draft {
	today := timeutil.DateOnly(now, loc)
	d := &Draft{
		ID:          uuid.New().String(),
		Scope:       scope,
		Hotel:       hotel,
		CheckIn:     today,
		CheckOut:    timeutil.AddDays(today, 1),
		Selections:  []model.RoomSelection{},
		available:   append([]model.RoomType(nil), hotel.Rooms...),
		submission:  action.NewGuard(),
		lastTouched: now,
	}
	if len(hotel.Rooms) > 0 {
		d.Selections = append(d.Selections, model.RoomSelection{RoomType: hotel.Rooms[0].Type, NumRooms: 1})
	}
	return d
}

func (d *Draft) key() string {
	return availability.Key(d.Hotel.ID, d.CheckIn, d.CheckOut)
}

// setDates moves check-out to the day after check-in when the new check-in
// is on or after it.
func (d *Draft) setDates(checkIn, checkOut time.Time) {
	if !checkIn.IsZero() && !checkOut.IsZero() && !checkIn.Before(checkOut) {
		checkOut = timeutil.AddDays(checkIn, 1)
	}
	d.CheckIn = checkIn
	d.CheckOut = checkOut
}

// addSelection appends the first available type not yet selected. It reports
// false when every available type is taken.
func (d *Draft) addSelection() bool {
	taken := make(map[string]struct{}, len(d.Selections))
	for _, sel := range d.Selections {
		taken[sel.RoomType] = struct{}{}
	}
	for _, room := range d.available {
		if _, ok := taken[room.Type]; !ok {
			d.Selections = append(d.Selections, model.RoomSelection{RoomType: room.Type, NumRooms: 1})
			return true
		}
	}
	return false
}

func (d *Draft) removeSelection(i int) error {
	if i < 0 || i >= len(d.Selections) {
		return bookingserrors.ErrInvalidSelection
	}
	d.Selections = append(d.Selections[:i], d.Selections[i+1:]...)
	if len(d.Selections) == 0 && len(d.available) > 0 {
		d.Selections = []model.RoomSelection{{RoomType: d.available[0].Type, NumRooms: 1}}
	}
	return nil
}

func (d *Draft) updateSelection(i int, roomType string, numRooms int) error {
	if i < 0 || i >= len(d.Selections) {
		return bookingserrors.ErrInvalidSelection
	}
	d.Selections[i] = model.RoomSelection{RoomType: roomType, NumRooms: numRooms}
	return nil
}

// beginRefresh marks a lookup for the current key as outstanding.
func (d *Draft) beginRefresh() string {
	key := d.key()
	d.fetchingKey = key
	d.message = availability.MsgChecking
	return key
}

// applyResolution installs a lookup outcome unless the dates changed while
// it was in flight. It reports whether the outcome was applied.
func (d *Draft) applyResolution(key string, res availability.Resolution, err error) bool {
	if key != d.key() {
		return false
	}
	if d.fetchingKey == key {
		d.fetchingKey = ""
	}
	d.resolvedKey = key

	if err != nil {
		d.checkFailed = true
		d.message = availability.MsgCheckFailed
		return true
	}

	d.checkFailed = false
	d.available = res.Available
	rec := availability.Reconcile(d.Selections, res.Available)
	d.Selections = rec.Selections
	d.blocked = rec.Blocked
	d.message = rec.Message
	return true
}

func (d *Draft) fetching() bool {
	return d.fetchingKey != "" && d.fetchingKey == d.key()
}

func (d *Draft) canSubmit() bool {
	return !d.submission.Pending() &&
		!d.fetching() &&
		!d.checkFailed &&
		!d.blocked &&
		len(d.available) > 0
}

func (d *Draft) request() *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		HotelID:         d.Hotel.ID,
		CheckIn:         d.CheckIn,
		CheckOut:        d.CheckOut,
		RoomSelections:  append([]model.RoomSelection(nil), d.Selections...),
		SpecialRequests: d.SpecialRequests,
	}
}

// DraftStore holds drafts in memory and expires idle ones.
type DraftStore struct {
	mu      sync.Mutex
	drafts  map[string]*Draft
	ttl     time.Duration
	metrics *metrics.Metrics
	stopCh  chan struct{}
	once    sync.Once
}

func NewDraftStore(ttl time.Duration, m *metrics.Metrics) *DraftStore {
	s := &DraftStore{
		drafts:  make(map[string]*Draft),
		ttl:     ttl,
		metrics: m,
		stopCh:  make(chan struct{}),
	}
	go s.cleanup(ttl / 2)
	return s
}

func (s *DraftStore) put(d *Draft) {
	s.mu.Lock()
	s.drafts[d.ID] = d
	n := len(s.drafts)
	s.mu.Unlock()
	s.gauge(n)
}

// get returns the draft if it exists, has not expired and belongs to scope.
// A signed-in caller takes over a draft opened while signed out.
func (s *DraftStore) get(id, scope string, now time.Time) (*Draft, error) {
	s.mu.Lock()
	d, ok := s.drafts[id]
	if ok && d.Scope == identity.AnonymousScope && scope != identity.AnonymousScope {
		d.Scope = scope
	}
	owned := ok && d.Scope == scope
	s.mu.Unlock()
	if !owned {
		return nil, bookingserrors.ErrDraftNotFound
	}

	d.mu.Lock()
	expired := now.Sub(d.lastTouched) > s.ttl && !d.submission.Pending()
	if !expired {
		d.lastTouched = now
	}
	d.mu.Unlock()

	if expired {
		s.delete(id)
		return nil, bookingserrors.ErrDraftNotFound
	}
	return d, nil
}

func (s *DraftStore) delete(id string) {
	s.mu.Lock()
	delete(s.drafts, id)
	n := len(s.drafts)
	s.mu.Unlock()
	s.gauge(n)
}

func (s *DraftStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

func (s *DraftStore) gauge(n int) {
	if s.metrics != nil {
		s.metrics.DraftsActive.Set(float64(n))
	}
}

func (s *DraftStore) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, d := range s.drafts {
		d.mu.Lock()
		idle := now.Sub(d.lastTouched) > s.ttl && !d.submission.Pending()
		d.mu.Unlock()
		if idle {
			delete(s.drafts, id)
			removed++
		}
	}
	if s.metrics != nil {
		s.metrics.DraftsActive.Set(float64(len(s.drafts)))
	}
	return removed
}

func (s *DraftStore) cleanup(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(time.Now())
		case <-s.stopCh:
			return
		}
	}
}

func (s *DraftStore) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}
