package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"
)

const testBotToken = "123456:ABC-TEST-TOKEN"

// signLogin computes the widget signature the way Telegram does, so the
// verifier can be tested against authentic payloads.
func signLogin(login TelegramLogin, botToken string) string {
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
	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

func validLogin(now time.Time) TelegramLogin {
	login := TelegramLogin{
		ID:        987654321,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  "ada",
		PhotoURL:  "https://t.me/i/userpic/ada.jpg",
		AuthDate:  now.Unix(),
	}
	login.Hash = signLogin(login, testBotToken)
	return login
}

func TestVerifyTelegramLogin(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	if !VerifyTelegramLogin(validLogin(now), testBotToken, now) {
		t.Fatal("valid payload rejected")
	}
}

func TestVerifyTelegramLoginPartialFields(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	login := TelegramLogin{ID: 42, FirstName: "Bob", AuthDate: now.Unix()}
	login.Hash = signLogin(login, testBotToken)

	if !VerifyTelegramLogin(login, testBotToken, now) {
		t.Fatal("payload with only mandatory fields rejected")
	}
}

func TestVerifyTelegramLoginTampered(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	login := validLogin(now)
	login.Username = "mallory"
	if VerifyTelegramLogin(login, testBotToken, now) {
		t.Error("tampered payload accepted")
	}

	login = validLogin(now)
	login.Hash = strings.Repeat("0", len(login.Hash))
	if VerifyTelegramLogin(login, testBotToken, now) {
		t.Error("forged hash accepted")
	}
}

func TestVerifyTelegramLoginWrongToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	login := validLogin(now)

	if VerifyTelegramLogin(login, "other:token", now) {
		t.Error("payload accepted with a different bot token")
	}
	if VerifyTelegramLogin(login, "", now) {
		t.Error("payload accepted with an empty bot token")
	}
}

func TestVerifyTelegramLoginStale(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	login := validLogin(now.Add(-25 * time.Hour))

	if VerifyTelegramLogin(login, testBotToken, now) {
		t.Error("day-old payload accepted")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		login TelegramLogin
		want  string
	}{
		{"username wins", TelegramLogin{Username: "ada", FirstName: "Ada", LastName: "Lovelace"}, "ada"},
		{"full name", TelegramLogin{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{"first only", TelegramLogin{FirstName: "Ada"}, "Ada"},
		{"empty", TelegramLogin{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.login.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
