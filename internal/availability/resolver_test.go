package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"staybook/internal/identity"
	"staybook/internal/querycache"
	"staybook/pkg/model"
)

type mockSource struct {
	availabilityFunc func(ctx context.Context, hotelID string, checkIn, checkOut time.Time) ([]model.AvailabilityRecord, error)
	calls            int
}

func (m *mockSource) Availability(ctx context.Context, hotelID string, checkIn, checkOut time.Time) ([]model.AvailabilityRecord, error) {
	m.calls++
	return m.availabilityFunc(ctx, hotelID, checkIn, checkOut)
}

func testHotel() *model.Hotel {
	return &model.Hotel{
		ID:   "h1",
		Name: "Harbor View",
		Rooms: []model.RoomType{
			{Type: "Single", Price: 80},
			{Type: "Double", Price: 120},
			{Type: "Suite", Price: 300},
		},
	}
}

func newResolver(src Source) *Resolver {
	cache := querycache.New(querycache.NewMemoryStore(0), time.Minute, nil, nil)
	return NewResolver(src, cache, nil)
}

func TestResolve_FiltersToPositiveCountsInCatalogOrder(t *testing.T) {
	src := &mockSource{availabilityFunc: func(context.Context, string, time.Time, time.Time) ([]model.AvailabilityRecord, error) {
		return []model.AvailabilityRecord{
			{Type: "Suite", AvailableCount: 1},
			{Type: "Single", AvailableCount: 0},
			{Type: "Double", AvailableCount: 4},
		}, nil
	}}
	r := newResolver(src)

	in := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	res, err := r.Resolve(context.Background(), identity.Principal{}, testHotel(), in, in.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Available) != 2 || res.Available[0].Type != "Double" || res.Available[1].Type != "Suite" {
		t.Fatalf("unexpected available rooms %+v", res.Available)
	}
}

func TestResolve_MissingDatesSkipsQuery(t *testing.T) {
	src := &mockSource{availabilityFunc: func(context.Context, string, time.Time, time.Time) ([]model.AvailabilityRecord, error) {
		t.Fatal("backend must not be queried without both dates")
		return nil, nil
	}}
	r := newResolver(src)

	res, err := r.Resolve(context.Background(), identity.Principal{}, testHotel(), time.Time{}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Skipped || len(res.Available) != 3 {
		t.Errorf("expected full catalog with skip flag, got %+v", res)
	}
}

func TestResolve_OneQueryPerWindow(t *testing.T) {
	src := &mockSource{availabilityFunc: func(context.Context, string, time.Time, time.Time) ([]model.AvailabilityRecord, error) {
		return []model.AvailabilityRecord{{Type: "Single", AvailableCount: 2}}, nil
	}}
	r := newResolver(src)
	ctx := context.Background()
	in := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(ctx, identity.Principal{}, testHotel(), in, in.AddDate(0, 0, 1)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.Resolve(ctx, identity.Principal{}, testHotel(), in, in.AddDate(0, 0, 3)); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("expected 2 backend queries for 2 distinct windows, got %d", src.calls)
	}
}

func TestResolve_FailureWrapsCheckFailed(t *testing.T) {
	src := &mockSource{availabilityFunc: func(context.Context, string, time.Time, time.Time) ([]model.AvailabilityRecord, error) {
		return nil, errors.New("connection refused")
	}}
	r := newResolver(src)
	in := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	_, err := r.Resolve(context.Background(), identity.Principal{}, testHotel(), in, in.AddDate(0, 0, 1))
	if !errors.Is(err, ErrCheckFailed) {
		t.Fatalf("expected ErrCheckFailed, got %v", err)
	}
}

func TestReconcile(t *testing.T) {
	double := model.RoomType{Type: "Double", Price: 120}
	suite := model.RoomType{Type: "Suite", Price: 300}

	tests := []struct {
		name        string
		selections  []model.RoomSelection
		available   []model.RoomType
		want        []model.RoomSelection
		blocked     bool
		synthesized bool
	}{
		{
			name:       "nothing available clears and blocks",
			selections: []model.RoomSelection{{RoomType: "Double", NumRooms: 2}},
			available:  nil,
			want:       []model.RoomSelection{},
			blocked:    true,
		},
		{
			name:       "unavailable selections are dropped",
			selections: []model.RoomSelection{{RoomType: "Single", NumRooms: 1}, {RoomType: "Suite", NumRooms: 2}},
			available:  []model.RoomType{double, suite},
			want:       []model.RoomSelection{{RoomType: "Suite", NumRooms: 2}},
		},
		{
			name:        "no survivors synthesizes first available",
			selections:  []model.RoomSelection{{RoomType: "Single", NumRooms: 3}},
			available:   []model.RoomType{double, suite},
			want:        []model.RoomSelection{{RoomType: "Double", NumRooms: 1}},
			synthesized: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.selections, tt.available)
			if got.Blocked != tt.blocked || got.Synthesized != tt.synthesized {
				t.Fatalf("flags = blocked:%v synthesized:%v", got.Blocked, got.Synthesized)
			}
			if tt.blocked && got.Message != MsgNoneAvailable {
				t.Errorf("unexpected message %q", got.Message)
			}
			if len(got.Selections) != len(tt.want) {
				t.Fatalf("selections = %+v, want %+v", got.Selections, tt.want)
			}
			for i := range tt.want {
				if got.Selections[i] != tt.want[i] {
					t.Errorf("selection %d = %+v, want %+v", i, got.Selections[i], tt.want[i])
				}
			}
			for _, sel := range got.Selections {
				found := false
				for _, room := range tt.available {
					if room.Type == sel.RoomType {
						found = true
					}
				}
				if !found {
					t.Errorf("selection %q is not among available types", sel.RoomType)
				}
			}
		})
	}
}
