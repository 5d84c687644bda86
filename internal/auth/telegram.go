package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// telegramAuthMaxAge rejects login payloads older than a day.
const telegramAuthMaxAge = 24 * time.Hour

// TelegramLogin is the payload posted by the Telegram login widget.
type TelegramLogin struct {
	ID        int64  `json:"id" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
	AuthDate  int64  `json:"auth_date" binding:"required"`
	Hash      string `json:"hash" binding:"required"`
}

// DisplayName derives the user-visible name the way Telegram clients do:
// username first, otherwise first+last name.
func (t TelegramLogin) DisplayName() string {
	if t.Username != "" {
		return t.Username
	}
	parts := make([]string, 0, 2)
	if t.FirstName != "" {
		parts = append(parts, t.FirstName)
	}
	if t.LastName != "" {
		parts = append(parts, t.LastName)
	}
	return strings.Join(parts, " ")
}

// VerifyTelegramLogin checks the widget payload signature: the data-check
// string is every non-empty field except hash, sorted by key, HMAC-SHA256
// signed with SHA256(bot token) as the key. Stale payloads are rejected.
func VerifyTelegramLogin(login TelegramLogin, botToken string, now time.Time) bool {
	if login.Hash == "" || botToken == "" {
		return false
	}
	authTime := time.Unix(login.AuthDate, 0)
	if now.Sub(authTime) > telegramAuthMaxAge || authTime.Sub(now) > telegramAuthMaxAge {
		return false
	}

	fields := map[string]string{
		"id":        fmt.Sprintf("%d", login.ID),
		"auth_date": fmt.Sprintf("%d", login.AuthDate),
	}
	if login.FirstName != "" {
		fields["first_name"] = login.FirstName
	}
	if login.LastName != "" {
		fields["last_name"] = login.LastName
	}
	if login.Username != "" {
		fields["username"] = login.Username
	}
	if login.PhotoURL != "" {
		fields["photo_url"] = login.PhotoURL
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	checkString := strings.Join(pairs, "\n")

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(checkString))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(login.Hash))
}
