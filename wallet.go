package main

import (
	"fmt"
	"log"
	"sync"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// CoinLedger persists the coin counter owned by an account
type CoinLedger interface {
	Credit(accountID int64, amount int) (int, error)
	Balance(accountID int64) (int, error)
}

// LocalAccountID is the single account of an offline run
const LocalAccountID int64 = 1

const (
	walletObject   = "wallet"
	walletProperty = "coins"
)

type walletData struct {
	Coins int `yaml:"coins"`
}

// LocalWallet keeps the offline coin counter in the user's data directory.
// With a nil manager it still counts, in memory only.
type LocalWallet struct {
	mu      sync.Mutex
	manager *gdata.Manager
	coins   int
}

// OpenLocalWallet opens the wallet for appName. A storage failure is not
// fatal: the wallet falls back to memory and the error is logged.
func OpenLocalWallet(appName string) *LocalWallet {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("wallet: local storage unavailable, coins will not persist: %v", err)
		m = nil
	}
	w, err := NewLocalWallet(m)
	if err != nil {
		log.Printf("wallet: %v (starting from 0)", err)
	}
	return w
}

// NewLocalWallet wraps a gdata manager, which may be nil
func NewLocalWallet(m *gdata.Manager) (*LocalWallet, error) {
	w := &LocalWallet{manager: m}
	return w, w.load()
}

func (w *LocalWallet) load() error {
	if w.manager == nil || !w.manager.ObjectPropExists(walletObject, walletProperty) {
		return nil
	}
	raw, err := w.manager.LoadObjectProp(walletObject, walletProperty)
	if err != nil {
		return fmt.Errorf("load wallet: %w", err)
	}
	var d walletData
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return fmt.Errorf("decode wallet: %w", err)
	}
	w.coins = d.Coins
	return nil
}

func (w *LocalWallet) save() error {
	if w.manager == nil {
		return nil
	}
	raw, err := yaml.Marshal(walletData{Coins: w.coins})
	if err != nil {
		return fmt.Errorf("encode wallet: %w", err)
	}
	if err := w.manager.SaveObjectProp(walletObject, walletProperty, raw); err != nil {
		return fmt.Errorf("save wallet: %w", err)
	}
	return nil
}

// Credit adds coins and returns the new balance. The account id is
// ignored; there is only one local account.
func (w *LocalWallet) Credit(_ int64, amount int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if amount <= 0 {
		return w.coins, nil
	}
	w.coins += amount
	return w.coins, w.save()
}

// Balance returns the current coin count
func (w *LocalWallet) Balance(_ int64) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.coins, nil
}
