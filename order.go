package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
)

type OrderId string

type PaymentMethodKind string

const (
	OnchainMethod   PaymentMethodKind = "onchain"
	LightningMethod PaymentMethodKind = "lightning"
)

const (
	AwaitingPaymentStatus = "Awaiting payment"
	PaidStatus            = "Paid"
	ExpiredStatus         = "Expired"
)

var ErrAmountOutOfRange = errors.New("amount out of range")

type OrdersConfig struct {
	LabelPrefix string        `yaml:"label-prefix"`
	Expiry      time.Duration `yaml:"expiry"`
	MinAmount   int64         `yaml:"min-amount"`
	MaxAmount   int64         `yaml:"max-amount"`
	Thumbnail   string
}

type Order struct {
	Id          OrderId           `json:"-"`
	Owner       UserKey           `json:"owner"`
	Method      PaymentMethodKind `json:"method"`
	Total       int64             `json:"total"`
	Description string            `json:"description"`
	Created     time.Time         `json:"created"`
	Expiry      time.Time         `json:"expiry"`
	Address     string            `json:"address,omitempty"`
	BlockHeight int32             `json:"blockHeight,omitempty"`
	PaymentHash PaymentHash       `json:"paymentHash,omitempty"`
	Invoice     string            `json:"invoice,omitempty"`
}

func (order *Order) isExpired(now time.Time) bool {
	return !order.Expiry.After(now)
}

type OrderState struct {
	Status string
	Method PaymentMethod
}

type OrderService struct {
	repository *Repository
	backend    PaymentBackend
	params     *chaincfg.Params
	config     OrdersConfig
}

func newOrderService(repository *Repository, backend PaymentBackend, params *chaincfg.Params, config OrdersConfig) *OrderService {
	return &OrderService{
		repository: repository,
		backend:    backend,
		params:     params,
		config:     config,
	}
}

func (service *OrderService) createOrder(order *Order, now time.Time) error {
	if order.Total < service.config.MinAmount || order.Total > service.config.MaxAmount {
		return fmt.Errorf("%w: %d", ErrAmountOutOfRange, order.Total)
	}

	order.Created = now
	order.Expiry = now.Add(service.config.Expiry)

	switch order.Method {
	case LightningMethod:
		invoice, err := service.backend.createInvoice(order.Total, order.Description, service.config.Expiry)
		if err != nil {
			return fmt.Errorf("creating invoice: %w", err)
		}
		order.PaymentHash = invoice.paymentHash
		order.Invoice = invoice.paymentRequest
	case OnchainMethod:
		address, err := service.backend.newAddress()
		if err != nil {
			return fmt.Errorf("creating address: %w", err)
		}
		if err := validateAddress(address.address, service.params); err != nil {
			return fmt.Errorf("validating address: %w", err)
		}
		order.Address = address.address
		order.BlockHeight = address.blockHeight
	default:
		return errors.New("unknown payment method: " + string(order.Method))
	}

	return service.repository.createOrder(order)
}

func (service *OrderService) getOrderState(order *Order, now time.Time) (*OrderState, error) {
	switch order.Method {
	case LightningMethod:
		status := AwaitingPaymentStatus
		if invoice := service.backend.getInvoice(order.PaymentHash); invoice != nil {
			if invoice.isSettled() {
				status = PaidStatus
			} else if invoice.canceled {
				status = ExpiredStatus
			}
		}
		if status == AwaitingPaymentStatus && order.isExpired(now) {
			status = ExpiredStatus
		}
		return &OrderState{status, LightningRequest{Invoice: order.Invoice}}, nil
	case OnchainMethod:
		transactions, err := service.backend.getAddressTransactions(order.Address, order.BlockHeight)
		if err != nil {
			return nil, fmt.Errorf("reading transactions: %w", err)
		}
		return &OrderState{
			Status: onchainStatus(order, transactions, now),
			Method: onchainRequest(order, transactions),
		}, nil
	}

	return nil, ErrNoPaymentMethod
}

func onchainStatus(order *Order, transactions []OnchainTransaction, now time.Time) string {
	var confirmed int64
	for _, transaction := range transactions {
		if transaction.isConfirmed() {
			confirmed += transaction.Amount
		}
	}

	if confirmed >= order.Total {
		return PaidStatus
	}
	if len(transactions) == 0 && order.isExpired(now) {
		return ExpiredStatus
	}
	return AwaitingPaymentStatus
}

func onchainRequest(order *Order, transactions []OnchainTransaction) OnchainRequest {
	request := OnchainRequest{
		Address:             order.Address,
		Sats:                order.Total,
		TransactionsOnChain: transactions,
	}

	var unconfirmed int64
	for _, transaction := range transactions {
		if !transaction.isConfirmed() {
			unconfirmed += transaction.Amount
		}
	}
	if unconfirmed > 0 {
		request.ReceivingAmount = &unconfirmed
	}

	return request
}

func (service *OrderService) orderContext(order *Order, state *OrderState) OrderContext {
	return OrderContext{
		OrderId:     order.Id,
		OrderExpiry: order.Expiry,
		OrderStatus: state.Status,
		OrderTotal:  order.Total,
		LabelPrefix: service.config.LabelPrefix,
	}
}

func sortOrders(orders []*Order) []*Order {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].Created.After(orders[j].Created)
	})
	return orders
}
