package ledger

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/config"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository/repositorytest"
)

type fakeNotifier struct {
	mu        sync.Mutex
	transfers []int64
	deposits  []int64
	err       error
}

func (n *fakeNotifier) SendTransferNotification(telegramID int64, _ string, _ int64, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transfers = append(n.transfers, telegramID)
	return n.err
}

func (n *fakeNotifier) SendDepositNotification(telegramID int64, _ int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deposits = append(n.deposits, telegramID)
	return n.err
}

func testConfig() config.LedgerConfig {
	return config.LedgerConfig{
		OperatorPrimary:    "op-main",
		OperatorSecondaryA: "op-a",
		OperatorSecondaryB: "op-b",
		SenderFeeRate:      0.02,
		ReceiverFeeRate:    0.01,
		ReferralBonusStep:  1,
	}
}

func newTestEngine(store *repositorytest.Store, cfg config.LedgerConfig) *TransferEngine {
	locker := NewLocker()
	registry := NewAccountRegistry(store)
	return NewTransferEngine(store, registry, cfg, locker, zerolog.Nop())
}
