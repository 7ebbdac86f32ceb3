package main

import (
	"context"
	"encoding/hex"
	"errors"
	"github.com/hashicorp/golang-lru/v2"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/macaroons"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"gopkg.in/macaroon.v2"
	"log"
	"os"
	"time"
)

type LndConfig struct {
	Address      string
	CertFile     string `yaml:"cert-file"`
	MacaroonFile string `yaml:"macaroon-file"`
	CacheSize    uint16 `yaml:"cache-size"`
	FeeLimit     int64  `yaml:"fee-limit"`
}

type PaymentHash string

func (paymentHash PaymentHash) bytes() []byte {
	if bytes, err := hex.DecodeString(string(paymentHash)); err == nil {
		return bytes
	}
	return nil
}

type Invoice struct {
	paymentHash    PaymentHash
	paymentRequest string
	settleDate     time.Time
	canceled       bool
}

func (invoice *Invoice) isSettled() bool {
	return !invoice.settleDate.IsZero()
}

type OnchainAddress struct {
	address     string
	blockHeight int32
}

type OnchainTransaction struct {
	TxHash        string `json:"txHash"`
	Amount        int64  `json:"amount"`
	Confirmations int32  `json:"confirmations"`
}

func (transaction OnchainTransaction) isConfirmed() bool {
	return transaction.Confirmations > 0
}

// PaymentBackend issues and tracks the payment requests of orders.
type PaymentBackend interface {
	createInvoice(sats int64, memo string, expiry time.Duration) (*Invoice, error)
	newAddress() (*OnchainAddress, error)
	getInvoice(paymentHash PaymentHash) *Invoice
	getAddressTransactions(address string, startHeight int32) ([]OnchainTransaction, error)
}

type LndClient struct {
	lnClient lnrpc.LightningClient
	ctx      context.Context
	invoices *lru.Cache[PaymentHash, Invoice]
	feeLimit int64
}

func newLndClient(config LndConfig) *LndClient {
	if config.CertFile == "" {
		log.Fatal("LND certificate file missing")
	}
	if config.MacaroonFile == "" {
		log.Fatal("LND macaroon file missing")
	}

	transportCredentials, err := credentials.NewClientTLSFromFile(config.CertFile, "")
	if err != nil {
		log.Fatal(err)
	}

	macaroonData, err := os.ReadFile(config.MacaroonFile)
	if err != nil {
		log.Fatal(err)
	}
	macaroonInstance := &macaroon.Macaroon{}
	if err := macaroonInstance.UnmarshalBinary(macaroonData); err != nil {
		log.Fatal(err)
	}
	macaroonCredentials, err := macaroons.NewMacaroonCredential(macaroonInstance)
	if err != nil {
		log.Fatal(err)
	}

	connection, err := grpc.Dial(config.Address,
		grpc.WithTransportCredentials(transportCredentials),
		grpc.WithPerRPCCredentials(macaroonCredentials),
	)
	if err != nil {
		log.Fatal(err)
	}

	invoices, err := lru.New[PaymentHash, Invoice](int(config.CacheSize))
	if err != nil {
		log.Fatal(err)
	}

	return &LndClient{
		lnClient: lnrpc.NewLightningClient(connection),
		ctx:      context.Background(),
		invoices: invoices,
		feeLimit: config.FeeLimit,
	}
}

func (client *LndClient) createInvoice(sats int64, memo string, expiry time.Duration) (*Invoice, error) {
	lnInvoice := lnrpc.Invoice{
		Memo:   memo,
		Value:  sats,
		Expiry: int64(expiry.Seconds()),
	}

	newLnInvoice, err := client.lnClient.AddInvoice(client.ctx, &lnInvoice)
	if err != nil {
		return nil, err
	}

	return &Invoice{
		paymentHash:    PaymentHash(hex.EncodeToString(newLnInvoice.RHash)),
		paymentRequest: newLnInvoice.PaymentRequest,
	}, nil
}

// newAddress also records the current chain height so that transaction lookups
// can skip the blocks mined before the address existed.
func (client *LndClient) newAddress() (*OnchainAddress, error) {
	info, err := client.lnClient.GetInfo(client.ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return nil, err
	}

	request := lnrpc.NewAddressRequest{Type: lnrpc.AddressType_WITNESS_PUBKEY_HASH}
	response, err := client.lnClient.NewAddress(client.ctx, &request)
	if err != nil {
		return nil, err
	}

	return &OnchainAddress{
		address:     response.Address,
		blockHeight: int32(info.BlockHeight),
	}, nil
}

func (client *LndClient) getInvoice(paymentHash PaymentHash) *Invoice {
	if invoice, invoiceCached := client.invoices.Get(paymentHash); invoiceCached {
		return &invoice
	}

	lnPaymentHash := lnrpc.PaymentHash{RHash: paymentHash.bytes()}
	lnInvoice, err := client.lnClient.LookupInvoice(client.ctx, &lnPaymentHash)
	if err != nil {
		log.Println("error looking up invoice:", err)
		return nil
	}

	var settleDate time.Time
	if lnInvoice.State == lnrpc.Invoice_SETTLED {
		settleDate = time.Unix(lnInvoice.SettleDate, 0)
	}

	invoice := Invoice{
		paymentHash:    paymentHash,
		paymentRequest: lnInvoice.PaymentRequest,
		settleDate:     settleDate,
		canceled:       lnInvoice.State == lnrpc.Invoice_CANCELED,
	}

	if lnInvoice.State == lnrpc.Invoice_SETTLED || lnInvoice.State == lnrpc.Invoice_CANCELED {
		client.invoices.Add(paymentHash, invoice)
	}

	return &invoice
}

// getAddressTransactions lists wallet transactions paying to address, mined
// from startHeight on or still unconfirmed.
func (client *LndClient) getAddressTransactions(address string, startHeight int32) ([]OnchainTransaction, error) {
	request := lnrpc.GetTransactionsRequest{StartHeight: startHeight, EndHeight: -1}
	details, err := client.lnClient.GetTransactions(client.ctx, &request)
	if err != nil {
		return nil, err
	}

	var transactions []OnchainTransaction
	for _, lnTransaction := range details.Transactions {
		var amount int64
		for _, output := range lnTransaction.OutputDetails {
			if output.IsOurAddress && output.Address == address {
				amount += output.Amount
			}
		}
		if amount > 0 {
			transactions = append(transactions, OnchainTransaction{
				TxHash:        lnTransaction.TxHash,
				Amount:        amount,
				Confirmations: lnTransaction.NumConfirmations,
			})
		}
	}

	return transactions, nil
}

// LndWallet lets the node itself act as the wallet behind the Pay Now action.
// Orders are invoiced by the same node, so payments are circular self-payments
// routed out through one channel and back in through another.
type LndWallet struct {
	client *LndClient
}

func (wallet *LndWallet) Enable(ctx context.Context) error {
	info, err := wallet.client.lnClient.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return err
	}
	if !info.SyncedToGraph {
		return errors.New("node not synced to graph")
	}
	return nil
}

func (wallet *LndWallet) SendPayment(ctx context.Context, invoice string) error {
	sendRequest := lnrpc.SendRequest{
		PaymentRequest:   invoice,
		AllowSelfPayment: true,
		FeeLimit:         &lnrpc.FeeLimit{Limit: &lnrpc.FeeLimit_Fixed{Fixed: wallet.client.feeLimit}},
	}
	response, err := wallet.client.lnClient.SendPaymentSync(ctx, &sendRequest)
	if err != nil {
		return err
	}
	if response.PaymentError != "" {
		return errors.New(response.PaymentError)
	}

	return nil
}
