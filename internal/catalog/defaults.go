package catalog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forgo/storefront-e2e/internal/isolation"
	"github.com/forgo/storefront-e2e/internal/model"
)

// Canonical identifiers asserted against by the browser suite
const (
	AdminEmail      = "admin@e2e.test"
	CustomerEmail   = "customer@e2e.test"
	UnverifiedEmail = "unverified@e2e.test"

	CustomerResetKey        = "rst_canonical_customer"
	UnverifiedActivationKey = "act_canonical_unverified"

	PercentageCouponCode = "E2E-SAVE10"
	FixedCouponCode      = "E2E-FLAT20"
	ExpiredCouponCode    = "E2E-EXPIRED"

	// CouponTolerance is how far a reported total may drift from ExpectedTotal
	CouponTolerance = "0.10"
)

// DefaultSpec returns the storefront's canonical fixtures.
// A fresh value is built on every call.
func DefaultSpec() Spec {
	products := []model.Product{
		{SKU: "E2E-TSHIRT", Name: "E2E Classic T-Shirt", Price: dec("24.99"), Stock: 100},
		{SKU: "E2E-MUG", Name: "E2E Coffee Mug", Price: dec("12.50"), Stock: 50},
		{SKU: "E2E-HOODIE", Name: "E2E Zip Hoodie", Price: dec("49.99"), Stock: 25},
		{SKU: "E2E-POSTER", Name: "E2E Framed Poster", Price: dec("99.99"), Stock: 10},
		{SKU: "E2E-CAP", Name: "E2E Limited Edition Cap", Price: dec("29.99"), Stock: 0},
	}

	expired := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	minFifty := dec("50")

	return Spec{
		Users: map[UserKind]model.UserFixture{
			UserAdmin: {
				Email:        AdminEmail,
				Password:     "Adm1n-E2e-Passw0rd!",
				Firstname:    "Ada",
				Lastname:     "Admin",
				Role:         model.UserRoleAdmin,
				Verification: model.Verified,
			},
			UserCustomer: {
				Email:        CustomerEmail,
				Password:     isolation.DefaultPassword,
				Firstname:    "Casey",
				Lastname:     "Customer",
				Role:         model.UserRoleCustomer,
				Verification: model.Verified,
				ResetKey:     CustomerResetKey,
			},
			UserUnverified: {
				Email:         UnverifiedEmail,
				Password:      isolation.DefaultPassword,
				Firstname:     "Uma",
				Lastname:      "Unverified",
				Role:          model.UserRoleCustomer,
				Verification:  model.Unverified,
				ActivationKey: UnverifiedActivationKey,
			},
		},
		Products: products,
		Coupons: map[CouponKind]model.Coupon{
			CouponPercentage: {Code: PercentageCouponCode, Type: model.DiscountPercentage, Value: dec("10"), Active: true},
			CouponFixed:      {Code: FixedCouponCode, Type: model.DiscountFixed, Value: dec("20"), MinOrderAmount: &minFifty, Active: true},
			CouponExpired:    {Code: ExpiredCouponCode, Type: model.DiscountPercentage, Value: dec("15"), ExpiresAt: &expired, Active: true},
		},
		ValidAddress: model.Address{
			Name:       "Casey Customer",
			Line1:      "1600 Amphitheatre Parkway",
			City:       "Mountain View",
			State:      "CA",
			PostalCode: "94043",
			Country:    "US",
		},
		InvalidAddress: model.Address{
			Name:       "Casey Customer",
			Line1:      "123 Nowhere Street",
			Line2:      "Unit 0",
			City:       "Faketown",
			State:      "ZZ",
			PostalCode: "00000",
			Country:    "US",
		},
		Orders: canonicalOrders(CustomerEmail, products),
		Purposes: map[isolation.Namespace][]string{
			isolation.NamespaceIsolated:   {"authLogin", "authLogout", "passwordReset", "sessionExpiry"},
			isolation.NamespaceBitcoin:    {"payInvoice", "invoiceExpiry"},
			isolation.NamespaceCheckout:   {"guestCheckout", "applyCoupon", "cardPayment"},
			isolation.NamespaceAccount:    {"changeName", "changePassword", "orderHistory", "addressBook"},
			isolation.NamespaceActivation: {"activateAccount", "reuseActivation"},
		},
		LaneOrderPurpose: "orderHistory",
		FillerCustomers:  25,
		FakerSeed:        20240611,
	}
}

// canonicalOrders covers every status the state machine can produce
func canonicalOrders(owner string, p []model.Product) []model.Order {
	type tmpl struct {
		status model.OrderStatus
		pay    model.PaymentMethod
		items  []model.OrderItem
	}
	line := func(prod model.Product, qty int) model.OrderItem {
		return model.OrderItem{SKU: prod.SKU, Quantity: qty, UnitPrice: prod.Price}
	}

	templates := []tmpl{
		{model.OrderStatusPending, model.PaymentMethodCard, []model.OrderItem{line(p[0], 2)}},
		{model.OrderStatusAwaitingPayment, model.PaymentMethodBitcoin, []model.OrderItem{line(p[3], 1)}},
		{model.OrderStatusConfirmed, model.PaymentMethodCard, []model.OrderItem{line(p[1], 1), line(p[2], 1)}},
		{model.OrderStatusProcessing, model.PaymentMethodCard, []model.OrderItem{line(p[2], 1)}},
		{model.OrderStatusShipped, model.PaymentMethodCard, []model.OrderItem{line(p[0], 1), line(p[1], 3)}},
		{model.OrderStatusDelivered, model.PaymentMethodBitcoin, []model.OrderItem{line(p[3], 2)}},
		{model.OrderStatusCompleted, model.PaymentMethodCard, []model.OrderItem{line(p[1], 4)}},
		{model.OrderStatusCancelled, model.PaymentMethodCard, []model.OrderItem{line(p[0], 1)}},
	}

	orders := make([]model.Order, len(templates))
	for i, t := range templates {
		o := model.Order{
			Number:        fmt.Sprintf("E2E-ORD-%04d", i+1),
			OwnerEmail:    owner,
			Status:        t.status,
			PaymentMethod: t.pay,
			Items:         t.items,
		}
		o.Total = o.ItemsTotal()
		switch t.status {
		case model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCompleted:
			o.TrackingNumber = fmt.Sprintf("1ZE2E%08d", i+1)
		}
		orders[i] = o
	}
	return orders
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
