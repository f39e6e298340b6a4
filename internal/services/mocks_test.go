package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"shoply/internal/models/db_models"
	"shoply/internal/repositories"
	"shoply/pkg/utils"
)

// Fixed point in time for deterministic TTL and timestamp assertions.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(at time.Time) utils.Clock {
	return func() time.Time { return at }
}

// movableClock lets a test advance time mid-scenario.
type movableClock struct {
	mu sync.Mutex
	at time.Time
}

func newMovableClock(at time.Time) *movableClock {
	return &movableClock{at: at}
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *movableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

// --- catalog ---

type fakeCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]*db_models.Product
}

func newFakeCatalog(products ...*db_models.Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[uuid.UUID]*db_models.Product)}
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (*db_models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (c *fakeCatalog) DecrementStock(_ context.Context, id uuid.UUID, qty int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (c *fakeCatalog) IncrementStock(_ context.Context, id uuid.UUID, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.products[id]; ok {
		p.Stock += qty
	}
	return nil
}

func (c *fakeCatalog) stock(id uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products[id].Stock
}

// --- purchase intents ---

type fakeIntentRepo struct {
	mu      sync.Mutex
	intents map[uuid.UUID]*db_models.PurchaseIntent
	// statuses each intent actually moved through via TransitionStatus
	moves map[uuid.UUID][]db_models.PurchaseIntentStatus
}

func newFakeIntentRepo() *fakeIntentRepo {
	return &fakeIntentRepo{
		intents: make(map[uuid.UUID]*db_models.PurchaseIntent),
		moves:   make(map[uuid.UUID][]db_models.PurchaseIntentStatus),
	}
}

func (r *fakeIntentRepo) Create(_ context.Context, intent *db_models.PurchaseIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if intent.ID == uuid.Nil {
		intent.ID = uuid.New()
	}
	cp := *intent
	r.intents[intent.ID] = &cp
	return nil
}

func (r *fakeIntentRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.PurchaseIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.intents[id]
	if !ok {
		return nil, nil
	}
	cp := *stored
	return &cp, nil
}

func (r *fakeIntentRepo) Update(_ context.Context, intent *db_models.PurchaseIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *intent
	r.intents[intent.ID] = &cp
	return nil
}

func (r *fakeIntentRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to db_models.PurchaseIntentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.intents[id]
	if !ok || stored.Status != from {
		return false, nil
	}
	stored.Status = to
	r.moves[id] = append(r.moves[id], to)
	return true, nil
}

func (r *fakeIntentRepo) ExpireAllPending(_ context.Context, now int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, intent := range r.intents {
		if intent.Status == db_models.IntentStatusPending && intent.ExpiresAt < now {
			intent.Status = db_models.IntentStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeIntentRepo) status(id uuid.UUID) db_models.PurchaseIntentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.intents[id].Status
}

func (r *fakeIntentRepo) history(id uuid.UUID) []db_models.PurchaseIntentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]db_models.PurchaseIntentStatus(nil), r.moves[id]...)
}

// --- carts ---

type fakeCartRepo struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*db_models.Cart
	items map[uuid.UUID]*db_models.CartItem
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{
		carts: make(map[uuid.UUID]*db_models.Cart),
		items: make(map[uuid.UUID]*db_models.CartItem),
	}
}

func (r *fakeCartRepo) withItems(cart *db_models.Cart) *db_models.Cart {
	cp := *cart
	cp.Items = nil
	for _, item := range r.items {
		if item.CartID == cart.ID {
			cp.Items = append(cp.Items, *item)
		}
	}
	return &cp
}

func (r *fakeCartRepo) GetByOwner(_ context.Context, ownerID uuid.UUID) (*db_models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cart := range r.carts {
		if cart.OwnerID != nil && *cart.OwnerID == ownerID {
			return r.withItems(cart), nil
		}
	}
	return nil, nil
}

func (r *fakeCartRepo) GetBySession(_ context.Context, sessionID string) (*db_models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cart := range r.carts {
		if cart.SessionID != nil && *cart.SessionID == sessionID {
			return r.withItems(cart), nil
		}
	}
	return nil, nil
}

func (r *fakeCartRepo) GetByID(_ context.Context, cartID uuid.UUID) (*db_models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[cartID]
	if !ok {
		return nil, nil
	}
	return r.withItems(cart), nil
}

func (r *fakeCartRepo) Create(_ context.Context, cart *db_models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	cp := *cart
	cp.Items = nil
	r.carts[cart.ID] = &cp
	return nil
}

func (r *fakeCartRepo) GetItem(_ context.Context, itemID uuid.UUID) (*db_models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (r *fakeCartRepo) AddItem(_ context.Context, item *db_models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeCartRepo) UpdateItem(_ context.Context, item *db_models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, itemID)
	return nil
}

func (r *fakeCartRepo) DeleteItems(_ context.Context, cartID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if item.CartID == cartID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *fakeCartRepo) UpdateTotals(_ context.Context, cart *db_models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.carts[cart.ID]
	if !ok {
		return nil
	}
	stored.SubtotalMinor = cart.SubtotalMinor
	stored.TaxMinor = cart.TaxMinor
	stored.ShippingMinor = cart.ShippingMinor
	stored.TotalMinor = cart.TotalMinor
	return nil
}

func (r *fakeCartRepo) itemCount(cartID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.CartID == cartID {
			n++
		}
	}
	return n
}

// --- orders ---

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*db_models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*db_models.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *db_models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	cp := *order
	cp.Items = append([]db_models.OrderItem(nil), order.Items...)
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *stored
	cp.Items = append([]db_models.OrderItem(nil), stored.Items...)
	return &cp, nil
}

func (r *fakeOrderRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status db_models.OrderPaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.orders[id]; ok {
		stored.PaymentStatus = status
	}
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

func (r *fakeOrderRepo) paymentStatus(id uuid.UUID) db_models.OrderPaymentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].PaymentStatus
}

func (r *fakeOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// --- transactions ---

type fakeTxnRepo struct {
	mu      sync.Mutex
	txns    []*db_models.PaymentTransaction
	refunds []*db_models.Refund
	wallets []*db_models.WalletPayment
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{}
}

func (r *fakeTxnRepo) Create(_ context.Context, txn *db_models.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	cp := *txn
	r.txns = append(r.txns, &cp)
	return nil
}

func (r *fakeTxnRepo) find(id uuid.UUID) *db_models.PaymentTransaction {
	for _, txn := range r.txns {
		if txn.ID == id {
			return txn
		}
	}
	return nil
}

func (r *fakeTxnRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn := r.find(id)
	if txn == nil {
		return nil, nil
	}
	cp := *txn
	return &cp, nil
}

func (r *fakeTxnRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn := r.find(id)
	if txn == nil {
		return nil
	}
	for key, value := range fields {
		switch key {
		case "status":
			txn.Status = value.(db_models.TransactionStatus)
		case "processed_at":
			txn.ProcessedAt = value.(int64)
		case "failure_reason":
			reason := value.(string)
			txn.FailureReason = &reason
		case "gateway_reference":
			txn.GatewayReference = value.(string)
		case "fee_breakdown":
			txn.FeeBreakdown = value.(datatypes.JSON)
		case "fraud_assessment":
			txn.FraudAssessment = value.(datatypes.JSON)
		case "captured_at":
			if value == nil {
				txn.CapturedAt = nil
			} else {
				at := value.(int64)
				txn.CapturedAt = &at
			}
		}
	}
	return nil
}

func (r *fakeTxnRepo) MarkCaptured(_ context.Context, id uuid.UUID, at int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn := r.find(id)
	if txn == nil || txn.CapturedAt != nil {
		return false, nil
	}
	txn.CapturedAt = &at
	return true, nil
}

func (r *fakeTxnRepo) SumRefunds(_ context.Context, originalID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, refund := range r.refunds {
		if refund.OriginalTransactionID == originalID && refund.Status == db_models.TxnStatusSuccess {
			total += refund.AmountMinor
		}
	}
	return total, nil
}

func (r *fakeTxnRepo) GetPendingByOrderAndGateway(_ context.Context, orderID uuid.UUID, gateway string) (*db_models.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, txn := range r.txns {
		if txn.OrderID != nil && *txn.OrderID == orderID && txn.Gateway == gateway && txn.Status == db_models.TxnStatusPending {
			cp := *txn
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTxnRepo) CreateRefund(_ context.Context, refund *db_models.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if refund.ID == uuid.Nil {
		refund.ID = uuid.New()
	}
	cp := *refund
	r.refunds = append(r.refunds, &cp)
	return nil
}

func (r *fakeTxnRepo) CreateWalletPayment(_ context.Context, wp *db_models.WalletPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if wp.ID == uuid.Nil {
		wp.ID = uuid.New()
	}
	cp := *wp
	r.wallets = append(r.wallets, &cp)
	return nil
}

func (r *fakeTxnRepo) UpdateWalletVerification(_ context.Context, id uuid.UUID, verification string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, wp := range r.wallets {
		if wp.ID == id {
			wp.Verification = verification
		}
	}
	return nil
}

func (r *fakeTxnRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.txns)
}

func (r *fakeTxnRepo) byOrder(orderID uuid.UUID) []*db_models.PaymentTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*db_models.PaymentTransaction
	for _, txn := range r.txns {
		if txn.OrderID != nil && *txn.OrderID == orderID {
			cp := *txn
			out = append(out, &cp)
		}
	}
	return out
}

// --- payment methods ---

type fakeMethodRepo struct {
	mu      sync.Mutex
	methods map[uuid.UUID]*db_models.PaymentMethod
}

func newFakeMethodRepo(methods ...*db_models.PaymentMethod) *fakeMethodRepo {
	r := &fakeMethodRepo{methods: make(map[uuid.UUID]*db_models.PaymentMethod)}
	for _, m := range methods {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		r.methods[m.ID] = m
	}
	return r
}

func (r *fakeMethodRepo) Create(_ context.Context, method *db_models.PaymentMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}
	cp := *method
	r.methods[method.ID] = &cp
	return nil
}

func (r *fakeMethodRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.PaymentMethod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.methods[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMethodRepo) GetDefaultForOwner(_ context.Context, ownerID uuid.UUID) (*db_models.PaymentMethod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.methods {
		if m.OwnerID == ownerID && m.IsDefault {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

// --- 3-D Secure challenges ---

type fakeThreeDSRepo struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]*db_models.ThreeDSecureChallenge
}

func newFakeThreeDSRepo() *fakeThreeDSRepo {
	return &fakeThreeDSRepo{challenges: make(map[uuid.UUID]*db_models.ThreeDSecureChallenge)}
}

func (r *fakeThreeDSRepo) Create(_ context.Context, challenge *db_models.ThreeDSecureChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if challenge.ID == uuid.Nil {
		challenge.ID = uuid.New()
	}
	cp := *challenge
	r.challenges[challenge.ID] = &cp
	return nil
}

func (r *fakeThreeDSRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.ThreeDSecureChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeThreeDSRepo) GetByTransaction(_ context.Context, transactionID uuid.UUID) (*db_models.ThreeDSecureChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.challenges {
		if c.TransactionID == transactionID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeThreeDSRepo) Resolve(_ context.Context, id uuid.UUID, status db_models.ThreeDSecureStatus, at int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok || c.Status != db_models.ThreeDSStatusPending {
		return false, nil
	}
	c.Status = status
	c.CompletedAt = &at
	return true, nil
}

// --- mail ---

type fakeMailer struct {
	mu   sync.Mutex
	sent []string // recipient addresses
}

func (m *fakeMailer) SendOrderConfirmation(to, orderNumber string, totalMinor int64, currency string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

// --- gateway that always fails transport ---

type downGateway struct{}

func (downGateway) Name() string { return "downpay" }

func (downGateway) CreateIntent(context.Context, int64, string, string) (GatewayHandle, error) {
	return GatewayHandle{}, errTransport
}

func (downGateway) Confirm(context.Context, GatewayHandle) (ConfirmResult, error) {
	return ConfirmResult{}, errTransport
}

func (downGateway) Capture(context.Context, GatewayHandle, int64) (CaptureResult, error) {
	return CaptureResult{}, errTransport
}

func (downGateway) Refund(context.Context, GatewayHandle, int64) (RefundResult, error) {
	return RefundResult{}, errTransport
}

var errTransport = &transportError{}

type transportError struct{}

func (*transportError) Error() string { return "connection refused" }

// compile-time interface checks for the fakes
var (
	_ repositories.ProductCatalog                    = (*fakeCatalog)(nil)
	_ repositories.IntentRepositoryInterface         = (*fakeIntentRepo)(nil)
	_ repositories.CartRepositoryInterface           = (*fakeCartRepo)(nil)
	_ repositories.OrderRepositoryInterface          = (*fakeOrderRepo)(nil)
	_ repositories.TransactionRepositoryInterface    = (*fakeTxnRepo)(nil)
	_ repositories.PaymentMethodRepositoryInterface  = (*fakeMethodRepo)(nil)
	_ repositories.ThreeDSRepositoryInterface        = (*fakeThreeDSRepo)(nil)
	_ IMailService                                   = (*fakeMailer)(nil)
	_ PaymentGateway                                 = downGateway{}
)
