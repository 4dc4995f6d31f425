package ledger

// Notifier delivers best-effort Telegram notices. Delivery failures are
// logged by the caller and never affect ledger state.
type Notifier interface {
	SendTransferNotification(telegramID int64, fromAccount string, amount int64, note string) error
	SendDepositNotification(telegramID int64, amount int64) error
}
