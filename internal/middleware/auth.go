package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/config"
)

const (
	TelegramUserKey = "telegram_user"
	UserIDKey       = "user_id"
)

// InitDataMaxAge bounds how old a signed init-data payload may be.
const InitDataMaxAge = time.Hour

type TelegramUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
}

// TelegramAuth validates the Telegram WebApp init data carried in the
// X-Telegram-Init-Data header (or an Authorization "tma" scheme) and
// stores the authenticated user in request locals.
func TelegramAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		initData := c.Get("X-Telegram-Init-Data")
		if initData == "" {
			initData = c.Get("Authorization")
			if strings.HasPrefix(initData, "tma ") {
				initData = strings.TrimPrefix(initData, "tma ")
			}
		}

		if initData == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing telegram init data",
			})
		}

		user, err := ValidateInitData(initData, cfg.Telegram.BotToken)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid telegram init data: " + err.Error(),
			})
		}

		c.Locals(TelegramUserKey, user)
		c.Locals(UserIDKey, user.ID)

		return c.Next()
	}
}

// ValidateInitData checks the HMAC signature and freshness of a Telegram
// WebApp init-data query string and returns the embedded user.
func ValidateInitData(initData, botToken string) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "missing hash")
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid auth_date")
	}
	if time.Now().Unix()-authDate > int64(InitDataMaxAge.Seconds()) {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "auth_date expired")
	}

	values.Del("hash")
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+values.Get(key))
	}
	dataCheckString := strings.Join(parts, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	if hex.EncodeToString(mac.Sum(nil)) != hash {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid hash")
	}

	var user TelegramUser
	if raw := values.Get("user"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "malformed user payload")
		}
	}

	return &user, nil
}

// GetUserID returns the authenticated Telegram id, or zero when the
// request carried no identity.
func GetUserID(c *fiber.Ctx) int64 {
	userID, ok := c.Locals(UserIDKey).(int64)
	if !ok {
		return 0
	}
	return userID
}

func GetTelegramUser(c *fiber.Ctx) *TelegramUser {
	user, ok := c.Locals(TelegramUserKey).(*TelegramUser)
	if !ok {
		return nil
	}
	return user
}
