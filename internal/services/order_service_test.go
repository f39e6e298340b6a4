package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoply/internal/models/db_models"
	"shoply/internal/models/request_models"
	"shoply/pkg/pubsub"
	"shoply/pkg/utils"
)

type orderFixture struct {
	svc     OrderService
	orders  *fakeOrderRepo
	carts   *fakeCartRepo
	catalog *fakeCatalog
	txns    *fakeTxnRepo
	methods *fakeMethodRepo
	mailer  *fakeMailer

	ownerID uuid.UUID
	caller  request_models.Caller
	cart    *db_models.Cart
}

func newOrderFixture(t *testing.T, methodRef string, products ...*db_models.Product) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orders:  newFakeOrderRepo(),
		carts:   newFakeCartRepo(),
		catalog: newFakeCatalog(products...),
		txns:    newFakeTxnRepo(),
		mailer:  &fakeMailer{},
		ownerID: uuid.New(),
	}
	f.caller = ownerCaller(f.ownerID)
	f.methods = newFakeMethodRepo(&db_models.PaymentMethod{OwnerID: f.ownerID, MethodRef: methodRef, Brand: "visa", Last4: "4242"})

	clock := fixedClock(testNow)
	payments := NewPaymentService(f.txns, f.orders, f.methods, NewMockGateway(), DefaultFeeConfig(), nil, nil, clock)
	f.svc = NewOrderService(
		f.orders, f.carts, f.catalog, payments,
		DefaultPricingConfig(), pubsub.NewBroker(), f.mailer, nil, nil,
		clock, func(n int) int { return 7 },
	)

	f.cart = &db_models.Cart{OwnerID: &f.ownerID, Currency: "USD"}
	require.NoError(t, f.carts.Create(context.Background(), f.cart))
	return f
}

func (f *orderFixture) addLine(t *testing.T, product *db_models.Product, qty int, saved bool) uuid.UUID {
	t.Helper()
	item := &db_models.CartItem{
		CartID:         f.cart.ID,
		ProductID:      product.ID,
		Quantity:       qty,
		UnitPriceMinor: product.UnitPriceMinor(),
		SavedForLater:  saved,
	}
	require.NoError(t, f.carts.AddItem(context.Background(), item))
	return item.ID
}

func (f *orderFixture) methodID() *uuid.UUID {
	for id := range f.methods.methods {
		cp := id
		return &cp
	}
	return nil
}

func checkoutRequest(method string, methodID *uuid.UUID) request_models.CartCheckoutRequest {
	return request_models.CartCheckoutRequest{
		PaymentMethod:   method,
		PaymentMethodID: methodID,
		Address: request_models.ShippingAddress{
			FullName:   "Ada Lovelace",
			Line1:      "1 Analytical Way",
			City:       "London",
			PostalCode: "EC1A",
			Country:    "GB",
		},
		Email: "ada@example.com",
	}
}

func TestCheckoutCartCashOnDelivery(t *testing.T) {
	mug := &db_models.Product{Name: "Mug", SKU: "MUG-1", Description: "Ceramic", PriceMinor: 1200, Currency: "USD", Stock: 10}
	f := newOrderFixture(t, "tok_visa_4242", mug)
	f.addLine(t, mug, 2, false)

	resp, err := f.svc.CheckoutCart(context.Background(), f.caller, checkoutRequest("cod", nil))
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("ORD-%d-0007", testNow.Unix()), resp.OrderNumber)
	assert.Equal(t, string(db_models.OrderStatusConfirmed), resp.Status)
	assert.Equal(t, string(db_models.PaymentStatusUnpaid), resp.PaymentStatus)
	assert.Equal(t, int64(2400), resp.SubtotalMinor)
	assert.Equal(t, int64(500), resp.ShippingMinor)
	assert.Equal(t, int64(192), resp.TaxMinor)
	assert.Equal(t, int64(3092), resp.TotalMinor)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Mug", resp.Items[0].ProductName)
	assert.Equal(t, "MUG-1", resp.Items[0].ProductSKU)

	// The COD ledger row waits for delivery confirmation.
	rows := f.txns.byOrder(uuid.MustParse(resp.ID))
	require.Len(t, rows, 1)
	assert.Equal(t, db_models.TxnStatusPending, rows[0].Status)
	assert.Equal(t, db_models.GatewayCOD, rows[0].Gateway)

	assert.Equal(t, 8, f.catalog.stock(mug.ID))
	assert.Equal(t, 0, f.carts.itemCount(f.cart.ID))

	assert.Eventually(t, func() bool {
		f.mailer.mu.Lock()
		defer f.mailer.mu.Unlock()
		return len(f.mailer.sent) == 1 && f.mailer.sent[0] == "ada@example.com"
	}, time.Second, 10*time.Millisecond)
}

func TestCheckoutCartCardSuccess(t *testing.T) {
	mug := &db_models.Product{Name: "Mug", SKU: "MUG-1", PriceMinor: 1200, Currency: "USD", Stock: 10}
	f := newOrderFixture(t, "tok_visa_4242", mug)
	f.addLine(t, mug, 1, false)

	resp, err := f.svc.CheckoutCart(context.Background(), f.caller, checkoutRequest("card", f.methodID()))
	require.NoError(t, err)

	assert.Equal(t, string(db_models.PaymentStatusPaid), resp.PaymentStatus)
	rows := f.txns.byOrder(uuid.MustParse(resp.ID))
	require.Len(t, rows, 1)
	assert.Equal(t, db_models.TxnStatusSuccess, rows[0].Status)
	assert.Equal(t, resp.TotalMinor, rows[0].AmountMinor)
}

func TestCheckoutCartCardDeclined(t *testing.T) {
	mug := &db_models.Product{Name: "Mug", SKU: "MUG-1", PriceMinor: 1200, Currency: "USD", Stock: 10}
	f := newOrderFixture(t, "tok_fail_visa", mug)
	f.addLine(t, mug, 1, false)

	// A decline still produces the order; it is simply unpaid with a failed
	// ledger row, payable again through the ledger.
	resp, err := f.svc.CheckoutCart(context.Background(), f.caller, checkoutRequest("card", f.methodID()))
	require.NoError(t, err)

	assert.Equal(t, string(db_models.PaymentStatusUnpaid), resp.PaymentStatus)
	rows := f.txns.byOrder(uuid.MustParse(resp.ID))
	require.Len(t, rows, 1)
	assert.Equal(t, db_models.TxnStatusFailed, rows[0].Status)
}

func TestCheckoutCartKeepsSavedForLaterLines(t *testing.T) {
	mug := &db_models.Product{Name: "Mug", SKU: "MUG-1", PriceMinor: 1200, Currency: "USD", Stock: 10}
	tee := &db_models.Product{Name: "Tee", SKU: "TEE-1", PriceMinor: 2000, Currency: "USD", Stock: 10}
	f := newOrderFixture(t, "tok_visa_4242", mug, tee)
	f.addLine(t, mug, 1, false)
	savedID := f.addLine(t, tee, 1, true)

	resp, err := f.svc.CheckoutCart(context.Background(), f.caller, checkoutRequest("cod", nil))
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, mug.ID.String(), resp.Items[0].ProductID)
	assert.Equal(t, 10, f.catalog.stock(tee.ID)) // never claimed

	remaining, err := f.carts.GetItem(context.Background(), savedID)
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.True(t, remaining.SavedForLater)
}

func TestCheckoutCartInsufficientStockRollsBack(t *testing.T) {
	mug := &db_models.Product{Name: "Mug", SKU: "MUG-1", PriceMinor: 1200, Currency: "USD", Stock: 10}
	tee := &db_models.Product{Name: "Tee", SKU: "TEE-1", PriceMinor: 2000, Currency: "USD", Stock: 1}
	f := newOrderFixture(t, "tok_visa_4242", mug, tee)
	f.addLine(t, mug, 2, false)
	f.addLine(t, tee, 3, false)

	_, err := f.svc.CheckoutCart(context.Background(), f.caller, checkoutRequest("cod", nil))
	var stockErr *utils.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	// Every claimed line was restored and the cart is untouched.
	assert.Equal(t, 10, f.catalog.stock(mug.ID))
	assert.Equal(t, 1, f.catalog.stock(tee.ID))
	assert.Equal(t, 2, f.carts.itemCount(f.cart.ID))
}

func TestCheckoutCartUnknownMethodVoidsOrder(t *testing.T) {
	mug := &db_models.Product{Name: "Mug", SKU: "MUG-1", PriceMinor: 1200, Currency: "USD", Stock: 10}
	f := newOrderFixture(t, "tok_visa_4242", mug)
	f.addLine(t, mug, 2, false)

	// A method id that resolves to no stored method fails payment hard after
	// the order row exists; the order is voided, the stock claim restored,
	// and the cart left ready for a retry.
	bogus := uuid.New()
	_, err := f.svc.CheckoutCart(context.Background(), f.caller, checkoutRequest("card", &bogus))
	require.ErrorIs(t, err, utils.ErrNotFound)

	assert.Equal(t, 0, f.orders.count())
	assert.Equal(t, 10, f.catalog.stock(mug.ID))
	assert.Equal(t, 1, f.carts.itemCount(f.cart.ID))
}

func TestCheckoutCartGuards(t *testing.T) {
	mug := &db_models.Product{Name: "Mug", SKU: "MUG-1", PriceMinor: 1200, Currency: "USD", Stock: 10}
	f := newOrderFixture(t, "tok_visa_4242", mug)

	_, err := f.svc.CheckoutCart(context.Background(), guestCaller("sess-1"), checkoutRequest("cod", nil))
	assert.ErrorIs(t, err, utils.ErrAuthRequired)

	// Empty cart has nothing to check out.
	_, err = f.svc.CheckoutCart(context.Background(), f.caller, checkoutRequest("cod", nil))
	assert.ErrorIs(t, err, utils.ErrConflict)

	// A card checkout without a stored method id cannot proceed.
	f.addLine(t, mug, 1, false)
	_, err = f.svc.CheckoutCart(context.Background(), f.caller, checkoutRequest("card", nil))
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestGetOrderAccess(t *testing.T) {
	mug := &db_models.Product{Name: "Mug", SKU: "MUG-1", PriceMinor: 1200, Currency: "USD", Stock: 10}
	f := newOrderFixture(t, "tok_visa_4242", mug)
	f.addLine(t, mug, 1, false)

	created, err := f.svc.CheckoutCart(context.Background(), f.caller, checkoutRequest("cod", nil))
	require.NoError(t, err)
	orderID := uuid.MustParse(created.ID)

	got, err := f.svc.GetOrder(context.Background(), f.caller, orderID)
	require.NoError(t, err)
	assert.Equal(t, created.OrderNumber, got.OrderNumber)

	_, err = f.svc.GetOrder(context.Background(), ownerCaller(uuid.New()), orderID)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	staff := request_models.Caller{IsAuthenticated: true, IsStaff: true}
	_, err = f.svc.GetOrder(context.Background(), staff, orderID)
	assert.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), f.caller, uuid.New())
	assert.ErrorIs(t, err, utils.ErrNotFound)
}
