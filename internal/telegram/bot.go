package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/config"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/ledger"
)

// Bot is the Telegram side of the platform: it answers /start with the
// mini-app link, reports balances on demand, and delivers the ledger's
// best-effort transfer and deposit notices.
type Bot struct {
	bot        *tele.Bot
	cfg        *config.Config
	registry   *ledger.AccountRegistry
	reconciler *ledger.BalanceReconciler
	log        zerolog.Logger
}

func NewBot(cfg *config.Config, registry *ledger.AccountRegistry, reconciler *ledger.BalanceReconciler, log zerolog.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Telegram.BotToken,
		Poller: &tele.LongPoller{Timeout: 60 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:        bot,
		cfg:        cfg,
		registry:   registry,
		reconciler: reconciler,
		log:        log.With().Str("component", "telegram").Logger(),
	}

	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/balance", b.handleBalance)

	return b, nil
}

func (b *Bot) GetBotUsername() string {
	return b.bot.Me.Username
}

func (b *Bot) StartPolling(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()
	b.bot.Start()
}

func (b *Bot) handleStart(c tele.Context) error {
	telegramID := c.Sender().ID
	if _, err := b.registry.GetOrCreate(context.Background(), &telegramID); err != nil {
		b.log.Error().Err(err).Int64("telegram_id", telegramID).Msg("failed to provision account on /start")
	}

	if b.cfg.Telegram.WebAppURL == "" {
		return c.Send("Welcome to TonPlaygram!")
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.WebApp("Open TonPlaygram", &tele.WebApp{URL: b.cfg.Telegram.WebAppURL})))
	return c.Send("Welcome to TonPlaygram! Tap below to play.", markup)
}

func (b *Bot) handleBalance(c tele.Context) error {
	telegramID := c.Sender().ID
	account, err := b.registry.GetOrCreate(context.Background(), &telegramID)
	if err != nil {
		return c.Send("Could not look up your account, try again later.")
	}

	balance, err := b.reconciler.Reconcile(context.Background(), account.AccountID)
	if err != nil {
		return c.Send("Could not look up your balance, try again later.")
	}

	return c.Send("💰 Your balance: " + strconv.FormatInt(balance, 10) + " TPC")
}

// SendTransferNotification tells a receiver about an incoming transfer.
func (b *Bot) SendTransferNotification(telegramID int64, fromAccount string, amount int64, note string) error {
	msg := fmt.Sprintf("🪙 You received %d TPC from %s", amount, fromAccount)
	if note != "" {
		msg += "\n📝 " + note
	}
	_, err := b.bot.Send(&tele.User{ID: telegramID}, msg)
	return err
}

// SendDepositNotification tells an account owner about a credited
// deposit.
func (b *Bot) SendDepositNotification(telegramID int64, amount int64) error {
	msg := fmt.Sprintf("🪙 Your deposit of %d TPC was credited", amount)
	_, err := b.bot.Send(&tele.User{ID: telegramID}, msg)
	return err
}
