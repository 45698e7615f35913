package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeBookingDB implements rowQuerier over an in-memory booking map, close
// enough to exercise the conditional-update semantics the repository relies on.
type fakeBookingDB struct {
	bookings map[uuid.UUID]*Booking
}

func newFakeBookingDB() *fakeBookingDB {
	return &fakeBookingDB{bookings: make(map[uuid.UUID]*Booking)}
}

func (f *fakeBookingDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	switch {
	case contains(sql, "INSERT INTO bookings"):
		b := &Booking{
			ID:        args[0].(uuid.UUID),
			UserID:    args[1].(uuid.UUID),
			Category:  args[2].(string),
			FeePaise:  args[3].(int),
			TimeSlot:  args[4].(string),
			Status:    args[5].(Status),
			Rebooking: args[6].(bool),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		f.bookings[b.ID] = b
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case contains(sql, "SET payment_url"):
		if b, ok := f.bookings[args[0].(uuid.UUID)]; ok {
			b.PaymentURL = args[1].(string)
			return pgconn.NewCommandTag("UPDATE 1"), nil
		}
		return pgconn.NewCommandTag("UPDATE 0"), nil
	case contains(sql, "SET status") && contains(sql, "payment_ref"):
		b, ok := f.bookings[args[0].(uuid.UUID)]
		if !ok || b.Status != args[3].(Status) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		b.Status = args[1].(Status)
		b.PaymentRef = args[2].(string)
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case contains(sql, "SET status"):
		b, ok := f.bookings[args[0].(uuid.UUID)]
		if !ok || b.Status != args[2].(Status) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		b.Status = args[1].(Status)
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case contains(sql, "SET rating"):
		b, ok := f.bookings[args[0].(uuid.UUID)]
		if !ok || b.Rating != nil || b.Status != args[2].(Status) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		score := args[1].(int)
		b.Rating = &score
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.CommandTag{}, errors.New("fake: unrecognized exec")
}

func (f *fakeBookingDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if contains(sql, "status <>") {
		userID := args[0].(uuid.UUID)
		for _, b := range f.bookings {
			if b.UserID == userID && b.Active() {
				return fakeRow{exists: true}
			}
		}
		return fakeRow{err: pgx.ErrNoRows}
	}
	b, ok := f.bookings[args[0].(uuid.UUID)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{b: b}
}

type fakeRow struct {
	b      *Booking
	exists bool
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.exists {
		*dest[0].(*int) = 1
		return nil
	}
	b := r.b
	*dest[0].(*uuid.UUID) = b.ID
	*dest[1].(*uuid.UUID) = b.UserID
	*dest[2].(*string) = b.Category
	*dest[3].(*int) = b.FeePaise
	*dest[4].(*string) = b.TimeSlot
	*dest[5].(*Status) = b.Status
	*dest[6].(*string) = b.PaymentRef
	*dest[7].(*string) = b.PaymentURL
	*dest[8].(**int) = b.Rating
	*dest[9].(*bool) = b.Rebooking
	*dest[10].(*time.Time) = b.CreatedAt
	*dest[11].(*time.Time) = b.UpdatedAt
	return nil
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && searchIndex(s, sub) >= 0
}

func searchIndex(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

type stubLinks struct {
	calls int
	fail  bool
}

func (s *stubLinks) CreateLink(ctx context.Context, bookingID uuid.UUID, amountPaise int) (string, error) {
	s.calls++
	if s.fail {
		return "", errors.New("provider down")
	}
	return "https://pay.test/" + bookingID.String(), nil
}

func newTestService(t *testing.T) (*Service, *fakeBookingDB, *stubLinks) {
	t.Helper()
	db := newFakeBookingDB()
	links := &stubLinks{}
	return NewService(NewRepositoryWithExec(db), links, nil), db, links
}

func TestCreateRequestsPaymentLink(t *testing.T) {
	svc, _, links := newTestService(t)
	userID := uuid.New()

	b, err := svc.Create(context.Background(), userID, "police", 19900, "Tomorrow 5pm", false)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if b.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", b.Status)
	}
	if links.calls != 1 || b.PaymentURL == "" {
		t.Fatalf("expected one link request with URL populated, got calls=%d url=%q", links.calls, b.PaymentURL)
	}
}

func TestCreateZeroFeeRebookingSkipsLink(t *testing.T) {
	svc, _, links := newTestService(t)

	b, err := svc.Create(context.Background(), uuid.New(), "other", 0, "Friday morning", true)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if b.Status != StatusPaid {
		t.Fatalf("expected free rebooking to be PAID, got %s", b.Status)
	}
	if links.calls != 0 {
		t.Fatalf("expected no link request for zero fee, got %d", links.calls)
	}
}

func TestCreateRejectsSecondActiveBooking(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := uuid.New()

	if _, err := svc.Create(context.Background(), userID, "police", 19900, "Tomorrow 5pm", false); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	_, err := svc.Create(context.Background(), userID, "family", 24900, "Monday", false)
	if !errors.Is(err, ErrActiveBookingExists) {
		t.Fatalf("expected ErrActiveBookingExists, got %v", err)
	}
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	b, err := svc.Create(context.Background(), uuid.New(), "police", 19900, "Tomorrow 5pm", false)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	first, err := svc.ConfirmPayment(context.Background(), b.ID, "pay_123")
	if err != nil || !first {
		t.Fatalf("first confirmation: confirmed=%v err=%v", first, err)
	}
	second, err := svc.ConfirmPayment(context.Background(), b.ID, "pay_123")
	if err != nil {
		t.Fatalf("duplicate confirmation should be a no-op, got %v", err)
	}
	if second {
		t.Fatal("duplicate confirmation must not report as first")
	}

	got, _ := svc.Get(context.Background(), b.ID)
	if got.Status != StatusPaid || got.PaymentRef != "pay_123" {
		t.Fatalf("unexpected booking after duplicate confirm: %+v", got)
	}
}

func TestMarkCompletedRequiresPaid(t *testing.T) {
	svc, _, _ := newTestService(t)
	b, _ := svc.Create(context.Background(), uuid.New(), "police", 19900, "Tomorrow 5pm", false)

	err := svc.MarkCompleted(context.Background(), b.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on PENDING booking, got %v", err)
	}

	if _, err := svc.ConfirmPayment(context.Background(), b.ID, "pay_1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := svc.MarkCompleted(context.Background(), b.ID); err != nil {
		t.Fatalf("complete after paid: %v", err)
	}

	// Status never regresses: a late payment confirmation is still a no-op.
	confirmed, err := svc.ConfirmPayment(context.Background(), b.ID, "pay_2")
	if err != nil || confirmed {
		t.Fatalf("late confirm after completion: confirmed=%v err=%v", confirmed, err)
	}
	got, _ := svc.Get(context.Background(), b.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("status regressed to %s", got.Status)
	}
}

func TestRecordRatingOnlyOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	b, _ := svc.Create(context.Background(), uuid.New(), "police", 19900, "Tomorrow 5pm", false)
	_, _ = svc.ConfirmPayment(context.Background(), b.ID, "pay_1")
	_ = svc.MarkCompleted(context.Background(), b.ID)

	if err := svc.RecordRating(context.Background(), b.ID, 3); err != nil {
		t.Fatalf("first rating: %v", err)
	}
	err := svc.RecordRating(context.Background(), b.ID, 1)
	if !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("expected ErrAlreadyRated, got %v", err)
	}
	got, _ := svc.Get(context.Background(), b.ID)
	if got.Rating == nil || *got.Rating != 3 {
		t.Fatalf("stored score changed: %+v", got.Rating)
	}
}

func TestRecordRatingRequiresCompleted(t *testing.T) {
	svc, _, _ := newTestService(t)
	b, _ := svc.Create(context.Background(), uuid.New(), "police", 19900, "Tomorrow 5pm", false)

	err := svc.RecordRating(context.Background(), b.ID, 2)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition before completion, got %v", err)
	}
}

func TestCreateSurfacesLinkFailureButKeepsBooking(t *testing.T) {
	db := newFakeBookingDB()
	links := &stubLinks{fail: true}
	svc := NewService(NewRepositoryWithExec(db), links, nil)

	b, err := svc.Create(context.Background(), uuid.New(), "consumer", 19900, "Tonight", false)
	if err == nil {
		t.Fatal("expected link failure error")
	}
	if b == nil {
		t.Fatal("booking should exist despite link failure")
	}
	if _, ok := db.bookings[b.ID]; !ok {
		t.Fatal("booking row missing")
	}
}
