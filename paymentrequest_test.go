package main

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testOrderContext(orderTotal int64) OrderContext {
	return OrderContext{
		OrderId:     "42",
		OrderExpiry: testNow.Add(2 * time.Hour),
		OrderStatus: AwaitingPaymentStatus,
		OrderTotal:  orderTotal,
		LabelPrefix: "Blocktank",
	}
}

func testEnvironment() Environment {
	return Environment{Query: url.Values{}, Now: testNow}
}

func receiving(amount int64) *int64 {
	return &amount
}

func TestOnchainPaymentRequestView(t *testing.T) {
	request := OnchainRequest{Address: "1ExampleAddress", Sats: 150_000_000}
	view, err := newPaymentRequestView(testOrderContext(150_000_000), request, testEnvironment())
	assert.NoError(t, err)
	assert.Equal(t, OrderId("42"), view.OrderId)
	assert.Equal(t, "bitcoin:1ExampleAddress?amount=1.5&label=Blocktank%20%2342", view.QrValue)
	assert.Equal(t, "Bitcoin address", view.Title)
	assert.Equal(t, "1ExampleAddress", view.Text)
	assert.Equal(t, "1ExampleAddress", view.ClippedText)
	assert.Equal(t, "Copy address", view.CopyButtonTitle)
	assert.Equal(t, AwaitingPaymentStatus, view.OrderStatus)
	assert.False(t, view.IsLightning)
	assert.False(t, view.PayNowOffered)
}

func TestOnchainMessage(t *testing.T) {
	baseMessage := "This order expires in 2 hours."
	transactions := []OnchainTransaction{{TxHash: "a1b2", Amount: 500, Confirmations: 0}}
	for _, c := range []struct {
		testName        string
		receivingAmount *int64
		transactions    []OnchainTransaction
		expectedMessage string
	}{
		{"nothing_received", nil, nil, baseMessage},
		{"partially_received", receiving(500), nil, baseMessage + " Received 500 of 1000 sats."},
		{"fully_received", receiving(1000), nil, fullPaymentMessage},
		{"fully_received_with_transactions", receiving(1000), transactions, fullPaymentMessage},
		{"overpaid", receiving(1500), transactions, baseMessage},
		{"zero_received", receiving(0), nil, baseMessage},
		{"zero_received_with_transactions", receiving(0), transactions, awaitingConfirmMessage},
		{"transactions_only", nil, transactions, awaitingConfirmMessage},
	} {
		t.Run(c.testName, func(t *testing.T) {
			request := OnchainRequest{
				Address:             "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
				Sats:                1000,
				ReceivingAmount:     c.receivingAmount,
				TransactionsOnChain: c.transactions,
			}
			view, err := newPaymentRequestView(testOrderContext(1000), request, testEnvironment())
			assert.NoError(t, err)
			assert.Equal(t, c.expectedMessage, view.Message)
		})
	}
}

func TestLightningPaymentRequestView(t *testing.T) {
	invoice := "lnbc1500n1pj9nr6mpp5" + strings.Repeat("q", 200) + "xyzend"
	view, err := newPaymentRequestView(testOrderContext(150), LightningRequest{invoice}, testEnvironment())
	assert.NoError(t, err)
	assert.Equal(t, "lightning:"+invoice, view.QrValue)
	assert.Equal(t, "Invoice", view.Title)
	assert.Equal(t, invoice, view.Text)
	assert.Equal(t, "Copy invoice", view.CopyButtonTitle)
	assert.Equal(t, "This order expires in 2 hours.", view.Message)
	assert.True(t, view.IsLightning)

	assert.Len(t, view.ClippedText, paymentRequestTextLength)
	assert.True(t, strings.HasPrefix(view.ClippedText, invoice[:20]))
	assert.True(t, strings.HasSuffix(view.ClippedText, invoice[len(invoice)-19:]))
	assert.Contains(t, view.ClippedText, "...")
}

func TestLightningPaymentRequestViewIgnoresReceipts(t *testing.T) {
	order := testOrderContext(1000)
	order.OrderExpiry = testNow.Add(-72 * time.Hour)
	view, err := newPaymentRequestView(order, LightningRequest{"lnbc1"}, testEnvironment())
	assert.NoError(t, err)
	assert.Equal(t, "This order expired 3 days ago.", view.Message)
}

func TestPayNowOffered(t *testing.T) {
	withWallet := testEnvironment()
	withWallet.Wallet = &fakeWallet{}

	view, err := newPaymentRequestView(testOrderContext(1000), LightningRequest{"lnbc1"}, withWallet)
	assert.NoError(t, err)
	assert.True(t, view.PayNowOffered)

	view, err = newPaymentRequestView(testOrderContext(1000), LightningRequest{"lnbc1"}, testEnvironment())
	assert.NoError(t, err)
	assert.False(t, view.PayNowOffered)

	view, err = newPaymentRequestView(testOrderContext(1000), OnchainRequest{Address: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", Sats: 1000}, withWallet)
	assert.NoError(t, err)
	assert.False(t, view.PayNowOffered)
}

func TestNoPaymentMethod(t *testing.T) {
	view, err := newPaymentRequestView(testOrderContext(1000), nil, testEnvironment())
	assert.ErrorIs(t, err, ErrNoPaymentMethod)
	assert.Nil(t, view)
}

func TestTheme(t *testing.T) {
	for _, c := range []struct {
		testName      string
		query         url.Values
		expectedTheme Theme
	}{
		{"absent", url.Values{}, DefaultTheme},
		{"ln-dark", url.Values{"theme": {"ln-dark"}}, PurpleTheme},
		{"ln-light", url.Values{"theme": {"ln-light"}}, PurpleTheme},
		{"dark", url.Values{"theme": {"dark"}}, DefaultTheme},
		{"empty", url.Values{"theme": {""}}, DefaultTheme},
	} {
		t.Run(c.testName, func(t *testing.T) {
			environment := testEnvironment()
			environment.Query = c.query
			view, err := newPaymentRequestView(testOrderContext(1000), LightningRequest{"lnbc1"}, environment)
			assert.NoError(t, err)
			assert.Equal(t, c.expectedTheme, view.Theme)
			assert.Equal(t, c.expectedTheme.AmountIcon(), view.AmountIcon)
			assert.Equal(t, c.expectedTheme.StatusIcon(), view.StatusIcon)
		})
	}

	assert.Equal(t, "lightning-active.svg", DefaultTheme.AmountIcon())
	assert.Equal(t, "transfer-active.svg", DefaultTheme.StatusIcon())
	assert.Equal(t, "lightning-purple.svg", PurpleTheme.AmountIcon())
	assert.Equal(t, "transfer-active-purple.svg", PurpleTheme.StatusIcon())
}

func TestOrderTotalDisplay(t *testing.T) {
	environment := testEnvironment()
	environment.Display = newDisplayConverter(nil, "")

	view, err := newPaymentRequestView(testOrderContext(1_250_000), LightningRequest{"lnbc1"}, environment)
	assert.NoError(t, err)
	assert.Equal(t, DisplayValues{BitcoinFormatted: "1,250,000", BitcoinSymbol: "sats"}, view.OrderTotal)
}
