package main

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

const bitcoinScheme = "bitcoin:"

func satsToBitcoin(sats int64) float64 {
	return btcutil.Amount(sats).ToBTC()
}

func encodeBip21Uri(address string, amount float64, label string) (string, error) {
	if math.IsInf(amount, 0) || math.IsNaN(amount) || amount < 0 {
		return "", errors.New("invalid amount")
	}

	query := "amount=" + bip21Escape(strconv.FormatFloat(amount, 'f', -1, 64))
	if label != "" {
		query += "&label=" + bip21Escape(label)
	}

	return bitcoinScheme + address + "?" + query, nil
}

func bip21Escape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

func validateAddress(address string, params *chaincfg.Params) error {
	decodedAddress, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return err
	}
	if !decodedAddress.IsForNet(params) {
		return errors.New("address not for " + params.Name)
	}
	return nil
}

func networkParams(network string) *chaincfg.Params {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams
	case "testnet":
		return &chaincfg.TestNet3Params
	case "signet":
		return &chaincfg.SigNetParams
	case "regtest":
		return &chaincfg.RegressionNetParams
	}
	return nil
}
