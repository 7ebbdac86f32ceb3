package main

import (
	"errors"
	"net/url"
	"strconv"
	"time"
)

const (
	paymentRequestTextLength = 42
	themeParam               = "theme"

	fullPaymentMessage     = "Full payment received. Please wait for your on-chain Bitcoin payment to confirm (needs at least 1 confirmation)."
	awaitingConfirmMessage = "Payment received, we await confirmation of the transaction"
)

var ErrNoPaymentMethod = errors.New("order has no payment method")

// PaymentMethod is either an OnchainRequest or a LightningRequest.
type PaymentMethod interface {
	paymentMethod()
}

type OnchainRequest struct {
	Address             string
	Sats                int64
	ReceivingAmount     *int64
	TransactionsOnChain []OnchainTransaction
}

func (OnchainRequest) paymentMethod() {}

type LightningRequest struct {
	Invoice string
}

func (LightningRequest) paymentMethod() {}

type OrderContext struct {
	OrderId     OrderId
	OrderExpiry time.Time
	OrderStatus string
	OrderTotal  int64
	LabelPrefix string
}

func (order OrderContext) label() string {
	return order.LabelPrefix + " #" + string(order.OrderId)
}

// Environment carries what a browser would read from globals: the page query
// string and the optional wallet capability.
type Environment struct {
	Query   url.Values
	Wallet  Wallet
	Now     time.Time
	Display DisplayConverter
}

type Theme string

const (
	DefaultTheme Theme = "default"
	PurpleTheme  Theme = "purple"
)

func themeOf(query url.Values) Theme {
	switch query.Get(themeParam) {
	case "ln-dark", "ln-light":
		return PurpleTheme
	}
	return DefaultTheme
}

func (theme Theme) AmountIcon() string {
	if theme == PurpleTheme {
		return "lightning-purple.svg"
	}
	return "lightning-active.svg"
}

func (theme Theme) StatusIcon() string {
	if theme == PurpleTheme {
		return "transfer-active-purple.svg"
	}
	return "transfer-active.svg"
}

type PaymentRequestView struct {
	OrderId         OrderId       `json:"orderId"`
	Title           string        `json:"title"`
	Text            string        `json:"text"`
	ClippedText     string        `json:"clippedText"`
	CopyButtonTitle string        `json:"copyButtonTitle"`
	QrValue         string        `json:"qrValue"`
	Message         string        `json:"message"`
	OrderStatus     string        `json:"orderStatus"`
	OrderTotal      DisplayValues `json:"orderTotal"`
	IsLightning     bool          `json:"isLightning"`
	PayNowOffered   bool          `json:"payNowOffered"`
	Theme           Theme         `json:"theme"`
	AmountIcon      string        `json:"amountIcon"`
	StatusIcon      string        `json:"statusIcon"`
}

func newPaymentRequestView(order OrderContext, method PaymentMethod, env Environment) (*PaymentRequestView, error) {
	theme := themeOf(env.Query)
	view := PaymentRequestView{
		OrderId:     order.OrderId,
		Message:     "This order " + orderExpiryFormat(order.OrderExpiry, env.Now) + ".",
		OrderStatus: order.OrderStatus,
		Theme:       theme,
		AmountIcon:  theme.AmountIcon(),
		StatusIcon:  theme.StatusIcon(),
	}
	if env.Display != nil {
		view.OrderTotal = env.Display.displayValues(order.OrderTotal)
	}

	switch request := method.(type) {
	case OnchainRequest:
		qrValue, err := encodeBip21Uri(request.Address, satsToBitcoin(request.Sats), order.label())
		if err != nil {
			return nil, err
		}
		view.QrValue = qrValue
		view.Title = "Bitcoin address"
		view.Text = request.Address
		view.CopyButtonTitle = "Copy address"
		view.Message = onchainMessage(view.Message, request, order.OrderTotal)
	case LightningRequest:
		view.QrValue = "lightning:" + request.Invoice
		view.Title = "Invoice"
		view.Text = request.Invoice
		view.CopyButtonTitle = "Copy invoice"
		view.IsLightning = true
		view.PayNowOffered = env.Wallet != nil
	default:
		return nil, ErrNoPaymentMethod
	}

	view.ClippedText = clipCenter(view.Text, paymentRequestTextLength)
	return &view, nil
}

func onchainMessage(message string, request OnchainRequest, orderTotal int64) string {
	if receivingAmount := request.ReceivingAmount; receivingAmount != nil && *receivingAmount != 0 {
		if *receivingAmount < orderTotal {
			return message + " Received " + strconv.FormatInt(*receivingAmount, 10) + " of " +
				strconv.FormatInt(orderTotal, 10) + " sats."
		} else if *receivingAmount == orderTotal {
			return fullPaymentMessage
		}
	} else if len(request.TransactionsOnChain) != 0 {
		return awaitingConfirmMessage
	}
	return message
}
