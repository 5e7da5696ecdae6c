package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"guidehub/internal/data/entity"
	"guidehub/internal/data/repository"
	"guidehub/internal/gateway"
	"guidehub/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// In-memory repositories. Rows are copied on the way in and out so that
// callers cannot mutate stored state, as with a real database.

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[uuid.UUID]entity.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: map[uuid.UUID]entity.Listing{}}
}

func (r *fakeListingRepo) Create(_ context.Context, l *entity.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[l.ID] = *l
	return nil
}

func (r *fakeListingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok || l.DeletedAt != nil {
		return nil, nil
	}
	return &l, nil
}

func (r *fakeListingRepo) FindAll(_ context.Context, offset, limit int, city *string) ([]*entity.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Listing
	for _, l := range r.listings {
		if l.DeletedAt != nil {
			continue
		}
		if city != nil && *city != "" && (l.City == nil || !strings.EqualFold(*l.City, *city)) {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, offset, limit), nil
}

func (r *fakeListingRepo) CountAll(ctx context.Context, city *string) (int64, error) {
	all, _ := r.FindAll(ctx, 0, 1<<30, city)
	return int64(len(all)), nil
}

func (r *fakeListingRepo) Update(_ context.Context, l *entity.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[l.ID]; !ok {
		return fmt.Errorf("listing %s not found", l.ID)
	}
	r.listings[l.ID] = *l
	return nil
}

func (r *fakeListingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return fmt.Errorf("listing %s not found", id)
	}
	now := time.Now()
	l.DeletedAt = &now
	r.listings[id] = l
	return nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings []entity.Booking
}

func (r *fakeBookingRepo) Create(_ context.Context, b *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, *b)
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, nil
}

func (r *fakeBookingRepo) filter(match func(entity.Booking) bool) []*entity.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if match(b) {
			b := b
			out = append(out, &b)
		}
	}
	return out
}

func (r *fakeBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return page(r.filter(func(b entity.Booking) bool { return b.UserID == userID }), offset, limit), nil
}

func (r *fakeBookingRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(r.filter(func(b entity.Booking) bool { return b.UserID == userID }))), nil
}

func (r *fakeBookingRepo) FindByListingID(_ context.Context, listingID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return page(r.filter(func(b entity.Booking) bool { return b.ListingID == listingID }), offset, limit), nil
}

func (r *fakeBookingRepo) CountByListingID(_ context.Context, listingID uuid.UUID) (int64, error) {
	return int64(len(r.filter(func(b entity.Booking) bool { return b.ListingID == listingID }))), nil
}

// fakePaymentRepo enforces the same constraints as the schema: unique
// processor_ref and at most one pending or succeeded payment per booking.
type fakePaymentRepo struct {
	mu          sync.Mutex
	payments    []entity.Payment
	lookups     int
	transitions int
	lookupErr   error
}

func (r *fakePaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payments {
		if existing.ProcessorRef == p.ProcessorRef {
			return repository.ErrDuplicate
		}
		live := p.Status != entity.PaymentStatusFailed && existing.Status != entity.PaymentStatusFailed
		if existing.BookingID == p.BookingID && live {
			return repository.ErrDuplicate
		}
	}
	r.payments = append(r.payments, *p)
	return nil
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) FindByProcessorRef(_ context.Context, ref string) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	for _, p := range r.payments {
		if p.ProcessorRef == ref {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Payment
	for _, p := range r.payments {
		if p.BookingID == bookingID {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) FindActiveByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.BookingID == bookingID && p.Status != entity.PaymentStatusFailed {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) TransitionStatus(_ context.Context, id uuid.UUID, to entity.PaymentStatus, reason *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.payments {
		if r.payments[i].ID == id && r.payments[i].Status == entity.PaymentStatusPending {
			r.payments[i].Status = to
			r.payments[i].FailureReason = reason
			r.payments[i].UpdatedAt = time.Now()
			r.transitions++
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePaymentRepo) all() []entity.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Payment(nil), r.payments...)
}

func (r *fakePaymentRepo) stats() (lookups, transitions int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups, r.transitions
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]entity.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	r.users[u.ID] = *u
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]entity.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[uuid.UUID]entity.Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *fakeSessionRepo) FindValidSession(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.RevokedAt != nil || !s.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeSessionRepo) Revoke(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok && s.RevokedAt == nil {
		now := time.Now()
		s.RevokedAt = &now
		r.sessions[id] = s
	}
	return nil
}

func (r *fakeSessionRepo) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	ids := []uuid.UUID{}
	for id, s := range r.sessions {
		if s.UserID == userID {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()
	for _, id := range ids {
		_ = r.Revoke(ctx, id)
	}
	return nil
}

func (r *fakeSessionRepo) CleanExpiredSessions(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(time.Now().Add(-7 * 24 * time.Hour)) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews []entity.Review
}

func (r *fakeReviewRepo) Create(_ context.Context, review *entity.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.ListingID == review.ListingID && existing.UserID == review.UserID {
			return repository.ErrDuplicate
		}
	}
	r.reviews = append(r.reviews, *review)
	return nil
}

func (r *fakeReviewRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, review := range r.reviews {
		if review.ID == id {
			return &review, nil
		}
	}
	return nil, nil
}

func (r *fakeReviewRepo) forListing(listingID uuid.UUID) []*entity.Review {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Review
	for _, review := range r.reviews {
		if review.ListingID == listingID {
			review := review
			out = append(out, &review)
		}
	}
	return out
}

func (r *fakeReviewRepo) FindByListingID(_ context.Context, listingID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	return page(r.forListing(listingID), offset, limit), nil
}

func (r *fakeReviewRepo) CountByListingID(_ context.Context, listingID uuid.UUID) (int64, error) {
	return int64(len(r.forListing(listingID))), nil
}

func (r *fakeReviewRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, review := range r.reviews {
		if review.ID == id {
			r.reviews = append(r.reviews[:i], r.reviews[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("review %s not found", id)
}

func (r *fakeReviewRepo) GetListingReviewStats(_ context.Context, listingID uuid.UUID) (float64, int64, error) {
	reviews := r.forListing(listingID)
	if len(reviews) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	return float64(sum) / float64(len(reviews)), int64(len(reviews)), nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// fakeGateway accepts webhooks signed "valid" whose payload is a JSON
// encoded gateway.Event.
type fakeGateway struct {
	mu        sync.Mutex
	seq       int
	intents   map[string]*gateway.ChargeIntent
	opened    []openedIntent
	cancelled []string
	openErr   error
	cancelErr error
	// onOpen runs after an intent is created, before it is returned.
	onOpen func(intent *gateway.ChargeIntent)
}

type openedIntent struct {
	ID          string
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}

const validSignature = "valid"

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*gateway.ChargeIntent{}}
}

func (g *fakeGateway) OpenChargeIntent(_ context.Context, amountMinor int64, currency string, metadata map[string]string) (*gateway.ChargeIntent, error) {
	g.mu.Lock()
	if g.openErr != nil {
		err := g.openErr
		g.mu.Unlock()
		return nil, err
	}
	g.seq++
	intent := &gateway.ChargeIntent{
		ID:           fmt.Sprintf("pi_%d", g.seq),
		ClientSecret: fmt.Sprintf("pi_%d_secret", g.seq),
		Status:       "requires_payment_method",
	}
	g.intents[intent.ID] = intent
	g.opened = append(g.opened, openedIntent{ID: intent.ID, AmountMinor: amountMinor, Currency: currency, Metadata: metadata})
	hook := g.onOpen
	g.mu.Unlock()

	if hook != nil {
		hook(intent)
	}
	return intent, nil
}

func (g *fakeGateway) register(intent *gateway.ChargeIntent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[intent.ID] = intent
}

func (g *fakeGateway) GetChargeIntent(_ context.Context, id string) (*gateway.ChargeIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("%w: no such intent %s", gateway.ErrGateway, id)
	}
	return intent, nil
}

func (g *fakeGateway) CancelChargeIntent(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.cancelled = append(g.cancelled, id)
	if intent, ok := g.intents[id]; ok {
		intent.Status = gateway.IntentCanceled
	}
	return nil
}

func (g *fakeGateway) setCancelErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelErr = err
}

func (g *fakeGateway) cancelledIntents() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.cancelled...)
}

func (g *fakeGateway) VerifyWebhook(payload []byte, signature string) (*gateway.Event, error) {
	if signature != validSignature {
		return nil, fmt.Errorf("%w: bad signature", gateway.ErrVerification)
	}
	var event gateway.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, errors.Join(gateway.ErrMalformedEvent, err)
	}
	return &event, nil
}

func (g *fakeGateway) openedIntents() []openedIntent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]openedIntent(nil), g.opened...)
}

func (g *fakeGateway) setOpenErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.openErr = err
}

type testEnv struct {
	listings *fakeListingRepo
	bookings *fakeBookingRepo
	payments *fakePaymentRepo
	gw       *fakeGateway
	booking  BookingService
	payment  PaymentService
}

func newTestEnv() *testEnv {
	return newTestEnvWithLogger(zap.NewNop())
}

func newTestEnvWithLogger(log *zap.Logger) *testEnv {
	env := &testEnv{
		listings: newFakeListingRepo(),
		bookings: &fakeBookingRepo{},
		payments: &fakePaymentRepo{},
		gw:       newFakeGateway(),
	}
	repo := &repository.Repository{
		Listing: env.listings,
		Booking: env.bookings,
		Payment: env.payments,
	}
	env.booking = NewBookingService(repo, log)
	env.payment = NewPaymentService(repo, env.gw, &utils.PaymentConfig{Currency: "USD"}, log)
	return env
}

func (env *testEnv) addListing(price string) *entity.Listing {
	now := time.Now().UTC()
	l := &entity.Listing{
		Base:        entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		HostID:      uuid.New(),
		Title:       "Old town walking tour",
		Description: "Three hours through the historic centre",
		Price:       decimal.RequireFromString(price),
	}
	_ = env.listings.Create(context.Background(), l)
	return l
}
