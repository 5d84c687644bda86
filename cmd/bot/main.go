// The bot worker delivers invite notifications queued by the API server and
// long-polls Telegram for the accept/decline button callbacks, feeding them
// back into the invite decision flow.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackform/backend/config"
	"github.com/hackform/backend/internal/roster"
	"github.com/hackform/backend/pkg/database"
	"github.com/hackform/backend/pkg/queue"
	redisclient "github.com/hackform/backend/pkg/redis"
	"github.com/hackform/backend/pkg/telegram"
)

const (
	callbackAccept  = "accept_invite:"
	callbackDecline = "decline_invite:"

	pollTimeoutSec = 30
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Telegram.BotToken == "" {
		logger.Fatal("TG_BOT_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redisclient.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}
	defer rdb.Close()

	jobs := queue.NewQueue(rdb.Client, logger)
	tg := telegram.NewClient(cfg.Telegram.BotToken, logger)

	rosterService := roster.NewService(
		roster.NewPostgresStore(pool),
		roster.NewOutboxNotifier(jobs),
		logger,
	)

	if err := tg.DeleteWebhook(ctx); err != nil {
		logger.Warn("delete webhook failed", zap.Error(err))
	}

	w := &worker{
		jobs:   jobs,
		tg:     tg,
		roster: rosterService,
		logger: logger,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.deliverLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		w.pollLoop(ctx)
	}()

	logger.Info("bot worker started")
	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()
	logger.Info("bot worker stopped")
}

type worker struct {
	jobs   *queue.Queue
	tg     *telegram.Client
	roster *roster.Service
	logger *zap.Logger
}

// deliverLoop drains the notification queue into Telegram messages.
func (w *worker) deliverLoop(ctx context.Context) {
	for {
		job, err := w.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		if job.Type != queue.JobTypeNotify {
			w.logger.Warn("unknown job type", zap.String("type", string(job.Type)), zap.String("job_id", job.ID))
			continue
		}

		var payload queue.NotifyPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			w.logger.Warn("invalid notify payload", zap.Error(err), zap.String("job_id", job.ID))
			continue
		}

		if err := w.deliver(ctx, payload); err != nil {
			w.logger.Warn("delivery failed",
				zap.Error(err),
				zap.String("job_id", job.ID),
				zap.Int64("chat_id", payload.ChatID),
			)
			if err := w.jobs.Retry(ctx, job); err != nil {
				w.logger.Error("retry failed", zap.Error(err), zap.String("job_id", job.ID))
			}
		}
	}
}

func (w *worker) deliver(ctx context.Context, payload queue.NotifyPayload) error {
	var keyboard *telegram.InlineKeyboard
	if payload.InviteID != uuid.Nil {
		keyboard = &telegram.InlineKeyboard{
			InlineKeyboard: [][]telegram.InlineButton{{
				{Text: "Accept", CallbackData: callbackAccept + payload.InviteID.String()},
				{Text: "Decline", CallbackData: callbackDecline + payload.InviteID.String()},
			}},
		}
	}
	return w.tg.SendMessage(ctx, payload.ChatID, payload.Text, keyboard)
}

// pollLoop long-polls Telegram updates and handles button callbacks.
func (w *worker) pollLoop(ctx context.Context) {
	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := w.tg.GetUpdates(ctx, offset, pollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("getUpdates failed", zap.Error(err))
			time.Sleep(3 * time.Second)
			continue
		}
		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.CallbackQuery != nil {
				w.handleCallback(ctx, update.CallbackQuery)
			}
		}
	}
}

func (w *worker) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	decision, inviteID, err := parseCallback(cb.Data)
	if err != nil {
		w.logger.Warn("unrecognized callback", zap.String("data", cb.Data))
		_ = w.tg.AnswerCallbackQuery(ctx, cb.ID, "", false)
		return
	}

	err = w.roster.Decide(ctx, inviteID, decision)
	switch {
	case err == nil:
		text := "Invite accepted, you are on the team!"
		if decision == roster.DecisionReject {
			text = "Invite declined."
		}
		if err := w.tg.AnswerCallbackQuery(ctx, cb.ID, text, false); err != nil {
			w.logger.Warn("answer callback failed", zap.Error(err))
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			if err := w.tg.ClearReplyMarkup(ctx, cb.Message.Chat.ID, cb.Message.MessageID); err != nil {
				w.logger.Warn("clear keyboard failed", zap.Error(err))
			}
		}
	case errors.Is(err, roster.ErrInviteNotActionable):
		_ = w.tg.AnswerCallbackQuery(ctx, cb.ID, "This invite has already been handled.", true)
	case errors.Is(err, roster.ErrRoleSlotUnavailable):
		_ = w.tg.AnswerCallbackQuery(ctx, cb.ID, "No open slot for your role anymore.", true)
	default:
		w.logger.Error("decide failed", zap.Error(err), zap.String("invite_id", inviteID.String()))
		_ = w.tg.AnswerCallbackQuery(ctx, cb.ID, "Something went wrong, try again later.", true)
	}
}

func parseCallback(data string) (roster.Decision, uuid.UUID, error) {
	var (
		decision roster.Decision
		raw      string
	)
	switch {
	case strings.HasPrefix(data, callbackAccept):
		decision = roster.DecisionAccept
		raw = strings.TrimPrefix(data, callbackAccept)
	case strings.HasPrefix(data, callbackDecline):
		decision = roster.DecisionReject
		raw = strings.TrimPrefix(data, callbackDecline)
	default:
		return "", uuid.Nil, fmt.Errorf("unknown callback %q", data)
	}
	inviteID, err := uuid.Parse(raw)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("bad invite id in callback: %w", err)
	}
	return decision, inviteID, nil
}
