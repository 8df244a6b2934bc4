// Package memdb is an in-memory stand-in for the PostgreSQL adapters used by
// service tests. Transactions are serialized and roll back on error.
package memdb

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/shopspring/decimal"
)

type txKey struct{}

// Store holds orders, status log entries, outbox records and store settings.
type Store struct {
	mu           sync.Mutex
	orders       map[int64]*domain.Order
	settings     map[string]string
	logs         []*domain.StatusLogEntry
	outbox       []*ports.OutboxRecord
	nextOrderID  int64
	nextLogID    int64
	nextOutboxID int64
	now          func() time.Time

	// BeforeCreate, when set, runs before an order insert and can fail it.
	BeforeCreate func(o *domain.Order) error
}

var (
	_ ports.DBPort              = (*Store)(nil)
	_ ports.OrderRepository     = (*OrderRepository)(nil)
	_ ports.StatusLogRepository = (*StatusLogRepository)(nil)
	_ ports.OutboxRepository    = (*OutboxRepository)(nil)
	_ ports.SettingsRepository  = (*SettingsRepository)(nil)
)

// New creates an empty store
func New() *Store {
	return &Store{
		orders:   make(map[int64]*domain.Order),
		settings: make(map[string]string),
		now:      time.Now,
	}
}

// SetClock replaces the time source used for created_at and updated_at
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// GetDB returns nil; repositories in this package ignore their executor.
func (s *Store) GetDB() *pgxpool.Pool {
	return nil
}

// WithTransaction runs fn holding the store lock and restores the previous
// state when fn fails.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx, nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true), nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// WithReadOnlyTransaction behaves like WithTransaction
func (s *Store) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return s.WithTransaction(ctx, fn)
}

type snapshot struct {
	orders                            map[int64]*domain.Order
	settings                          map[string]string
	logs                              []*domain.StatusLogEntry
	outbox                            []*ports.OutboxRecord
	nextOrderID, nextLogID, nextOutID int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		orders:      make(map[int64]*domain.Order, len(s.orders)),
		settings:    make(map[string]string, len(s.settings)),
		logs:        append([]*domain.StatusLogEntry(nil), s.logs...),
		nextOrderID: s.nextOrderID,
		nextLogID:   s.nextLogID,
		nextOutID:   s.nextOutboxID,
	}
	for id, o := range s.orders {
		snap.orders[id] = cloneOrder(o)
	}
	for k, v := range s.settings {
		snap.settings[k] = v
	}
	for _, r := range s.outbox {
		c := *r
		snap.outbox = append(snap.outbox, &c)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.orders = snap.orders
	s.settings = snap.settings
	s.logs = snap.logs
	s.outbox = snap.outbox
	s.nextOrderID = snap.nextOrderID
	s.nextLogID = snap.nextLogID
	s.nextOutboxID = snap.nextOutID
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	if o.GatewayChargeID != nil {
		id := *o.GatewayChargeID
		c.GatewayChargeID = &id
	}
	if o.GatewayRawData != nil {
		c.GatewayRawData = append([]byte(nil), o.GatewayRawData...)
	}
	return &c
}

// Orders returns an OrderRepository backed by the store
func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

// StatusLog returns a StatusLogRepository backed by the store
func (s *Store) StatusLog() *StatusLogRepository { return &StatusLogRepository{s: s} }

// Outbox returns an OutboxRepository backed by the store
func (s *Store) Outbox() *OutboxRepository { return &OutboxRepository{s: s} }

// Settings returns a SettingsRepository backed by the store
func (s *Store) Settings() *SettingsRepository { return &SettingsRepository{s: s} }

// Seed inserts o as-is, assigning an ID when it has none.
func (s *Store) Seed(o *domain.Order) *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		s.nextOrderID++
		o.ID = s.nextOrderID
	} else if o.ID > s.nextOrderID {
		s.nextOrderID = o.ID
	}
	s.orders[o.ID] = cloneOrder(o)
	return o
}

// Order returns a copy of the stored order or nil
func (s *Store) Order(id int64) *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		return cloneOrder(o)
	}
	return nil
}

// Logs returns a copy of the status log of an order, oldest first
func (s *Store) Logs(orderID int64) []domain.StatusLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StatusLogEntry
	for _, e := range s.logs {
		if e.OrderID == orderID {
			out = append(out, *e)
		}
	}
	return out
}

// OutboxRecords returns a copy of every outbox record
func (s *Store) OutboxRecords() []ports.OutboxRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.OutboxRecord, 0, len(s.outbox))
	for _, r := range s.outbox {
		out = append(out, *r)
	}
	return out
}

// OrderRepository implements ports.OrderRepository in memory
type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Create(ctx context.Context, _ ports.DBTX, o *domain.Order) error {
	defer r.s.lock(ctx)()
	if r.s.BeforeCreate != nil {
		if err := r.s.BeforeCreate(o); err != nil {
			return err
		}
	}
	for _, existing := range r.s.orders {
		if existing.Code == o.Code {
			return domain.NewDomainError(domain.ErrorCodeConflictRetryable, "duplicate key").
				WithDetail("constraint", "orders_code_key")
		}
	}
	r.s.nextOrderID++
	o.ID = r.s.nextOrderID
	o.CreatedAt = r.s.now()
	o.UpdatedAt = o.CreatedAt
	r.s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, _ ports.DBTX, id int64) (*domain.Order, error) {
	defer r.s.lock(ctx)()
	if o, ok := r.s.orders[id]; ok {
		return cloneOrder(o), nil
	}
	return nil, domain.ErrOrderNotFound
}

func (r *OrderRepository) GetByCode(ctx context.Context, _ ports.DBTX, code string) (*domain.Order, error) {
	defer r.s.lock(ctx)()
	for _, o := range r.s.orders {
		if o.Code == code {
			return cloneOrder(o), nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, db ports.DBTX, id int64) (*domain.Order, error) {
	return r.GetByID(ctx, db, id)
}

func (r *OrderRepository) GetByChargeID(ctx context.Context, _ ports.DBTX, chargeID string) (*domain.Order, error) {
	defer r.s.lock(ctx)()
	var found *domain.Order
	for _, o := range r.s.orders {
		if o.ChargeID() == chargeID && (found == nil || o.ID > found.ID) {
			found = o
		}
	}
	if found == nil {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(found), nil
}

func (r *OrderRepository) FindLatestNewByTotal(ctx context.Context, _ ports.DBTX, total decimal.Decimal) (*domain.Order, error) {
	defer r.s.lock(ctx)()
	var found *domain.Order
	for _, o := range r.s.orders {
		if o.Status != domain.OrderStatusNew || !o.Total.Equal(total) {
			continue
		}
		if found == nil || o.CreatedAt.After(found.CreatedAt) ||
			(o.CreatedAt.Equal(found.CreatedAt) && o.ID > found.ID) {
			found = o
		}
	}
	if found == nil {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(found), nil
}

func (r *OrderRepository) UpdatePaymentState(ctx context.Context, _ ports.DBTX, u ports.PaymentStateUpdate) (bool, error) {
	defer r.s.lock(ctx)()
	o, ok := r.s.orders[u.OrderID]
	if !ok || o.PaymentStatus != u.ExpectedPaymentStatus {
		return false, nil
	}
	o.Status = u.Status
	o.PaymentStatus = u.PaymentStatus
	if u.ChargeID != nil {
		id := *u.ChargeID
		o.GatewayChargeID = &id
	}
	if len(u.RawData) > 0 {
		o.GatewayRawData = append([]byte(nil), u.RawData...)
	}
	o.UpdatedAt = r.s.now()
	return true, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, _ ports.DBTX, id int64, expected, status domain.OrderStatus, paymentStatus *domain.PaymentStatus) (bool, error) {
	defer r.s.lock(ctx)()
	o, ok := r.s.orders[id]
	if !ok || o.Status != expected {
		return false, nil
	}
	o.Status = status
	if paymentStatus != nil {
		o.PaymentStatus = *paymentStatus
	}
	o.UpdatedAt = r.s.now()
	return true, nil
}

func (r *OrderRepository) SetCharge(ctx context.Context, _ ports.DBTX, id int64, chargeID string, rawData []byte) error {
	defer r.s.lock(ctx)()
	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.GatewayChargeID = &chargeID
	o.GatewayRawData = append([]byte(nil), rawData...)
	o.UpdatedAt = r.s.now()
	return nil
}

func (r *OrderRepository) UpdateRawData(ctx context.Context, _ ports.DBTX, id int64, rawData []byte) error {
	if len(rawData) == 0 {
		return nil
	}
	defer r.s.lock(ctx)()
	if o, ok := r.s.orders[id]; ok {
		o.GatewayRawData = append([]byte(nil), rawData...)
		o.UpdatedAt = r.s.now()
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, _ ports.DBTX, id int64) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	for _, e := range r.s.logs {
		if e.OrderID == id {
			return domain.NewDomainError(domain.ErrorCodeDatabaseError, "order still has status log entries")
		}
	}
	delete(r.s.orders, id)
	return nil
}

func (r *OrderRepository) MaxSequence(ctx context.Context, _ ports.DBTX, prefix string) (int, error) {
	defer r.s.lock(ctx)()
	max := 0
	for _, o := range r.s.orders {
		if !strings.HasPrefix(o.Code, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(o.Code, prefix))
		if err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

// LockCodePrefix is a no-op; transactions are already serialized.
func (r *OrderRepository) LockCodePrefix(context.Context, ports.DBTX, string) error {
	return nil
}

func (r *OrderRepository) ListByPhone(ctx context.Context, _ ports.DBTX, digits string, limit int) ([]*domain.Order, error) {
	defer r.s.lock(ctx)()
	var out []*domain.Order
	for _, o := range r.s.orders {
		if strings.Contains(onlyDigits(o.Delivery.RecipientPhone), digits) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// StatusLogRepository implements ports.StatusLogRepository in memory
type StatusLogRepository struct {
	s *Store
}

func (r *StatusLogRepository) Append(ctx context.Context, _ ports.DBTX, e *domain.StatusLogEntry) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.orders[e.OrderID]; !ok {
		return domain.NewDomainError(domain.ErrorCodeDatabaseError, "status log references missing order")
	}
	r.s.nextLogID++
	e.ID = r.s.nextLogID
	e.CreatedAt = r.s.now()
	c := *e
	r.s.logs = append(r.s.logs, &c)
	return nil
}

func (r *StatusLogRepository) ListByOrder(ctx context.Context, _ ports.DBTX, orderID int64) ([]*domain.StatusLogEntry, error) {
	defer r.s.lock(ctx)()
	var out []*domain.StatusLogEntry
	for _, e := range r.s.logs {
		if e.OrderID == orderID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *StatusLogRepository) DeleteByOrder(ctx context.Context, _ ports.DBTX, orderID int64) error {
	defer r.s.lock(ctx)()
	kept := r.s.logs[:0:0]
	for _, e := range r.s.logs {
		if e.OrderID != orderID {
			kept = append(kept, e)
		}
	}
	r.s.logs = kept
	return nil
}

// OutboxRepository implements ports.OutboxRepository in memory
type OutboxRepository struct {
	s *Store
}

func (r *OutboxRepository) Insert(ctx context.Context, _ ports.DBTX, rec *ports.OutboxRecord) error {
	defer r.s.lock(ctx)()
	r.s.nextOutboxID++
	rec.ID = r.s.nextOutboxID
	rec.CreatedAt = r.s.now()
	c := *rec
	r.s.outbox = append(r.s.outbox, &c)
	return nil
}

func (r *OutboxRepository) FetchPending(ctx context.Context, _ ports.DBTX, limit int) ([]*ports.OutboxRecord, error) {
	defer r.s.lock(ctx)()
	var out []*ports.OutboxRecord
	for _, rec := range r.s.outbox {
		if rec.SentAt != nil {
			continue
		}
		c := *rec
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, _ ports.DBTX, id int64) error {
	defer r.s.lock(ctx)()
	for _, rec := range r.s.outbox {
		if rec.ID == id {
			now := r.s.now()
			rec.SentAt = &now
			return nil
		}
	}
	return nil
}

// SettingsRepository implements ports.SettingsRepository in memory
type SettingsRepository struct {
	s *Store
}

func (r *SettingsRepository) List(ctx context.Context, _ ports.DBTX) (domain.StoreSettings, error) {
	defer r.s.lock(ctx)()
	out := make(domain.StoreSettings, len(r.s.settings))
	for k, v := range r.s.settings {
		out[k] = v
	}
	return out, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, _ ports.DBTX, key, value string) error {
	defer r.s.lock(ctx)()
	r.s.settings[key] = value
	return nil
}
