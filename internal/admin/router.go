package admin

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"partnerbot/internal/storage"
	"partnerbot/internal/transport"
	logx "partnerbot/pkg/logx"
	"partnerbot/pkg/tgui"
)

// Config carries the hot-reloadable knobs of the admin router.
type Config struct {
	AdminUserIDs []int64

	// Broadcast pacing: sends per second and how often the progress notice is
	// refreshed (in successful sends).
	BroadcastRatePerSec    int
	BroadcastProgressEvery int

	// WelcomeDefault is shown by /start until an admin persists a replacement.
	WelcomeDefault string
}

// Router owns the conversation state machine: it dispatches inbound messages
// either to an entry command or to the caller's active workflow step.
type Router struct {
	log      logx.Logger
	store    storage.Store
	sender   transport.Sender
	sessions *sessions

	mu             sync.RWMutex
	admins         map[int64]struct{}
	limiter        *rate.Limiter
	progressEvery  int
	welcomeDefault string
}

func New(cfg Config, store storage.Store, sender transport.Sender, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Router{
		log:      log,
		store:    store,
		sender:   sender,
		sessions: newSessions(),
	}
	r.Apply(cfg)
	return r
}

// Apply swaps the reloadable config. Safe to call while dispatching.
func (r *Router) Apply(cfg Config) {
	admins := make(map[int64]struct{}, len(cfg.AdminUserIDs))
	for _, id := range cfg.AdminUserIDs {
		admins[id] = struct{}{}
	}
	rps := cfg.BroadcastRatePerSec
	if rps <= 0 {
		rps = 10
	}
	every := cfg.BroadcastProgressEvery
	if every <= 0 {
		every = 10
	}

	r.mu.Lock()
	r.admins = admins
	// Burst of 1 keeps sends evenly spaced instead of allowing an initial burst.
	r.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	r.progressEvery = every
	r.welcomeDefault = cfg.WelcomeDefault
	r.mu.Unlock()
}

// DispatchLoop consumes inbound messages until ctx is done. Messages are
// handled sequentially; each caller's workflow advances one input at a time.
func (r *Router) DispatchLoop(ctx context.Context, updates <-chan transport.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-updates:
			if !ok {
				return nil
			}
			r.dispatch(ctx, msg)
		}
	}
}

func (r *Router) dispatch(ctx context.Context, msg transport.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic in dispatch",
				logx.Any("panic", rec),
				logx.Int64("from_id", msg.FromID),
				logx.String("stack", string(debug.Stack())),
			)
			r.sessions.Clear(msg.FromID)
		}
	}()

	if st := r.sessions.Get(msg.FromID); st != nil {
		if r.maybeCancel(ctx, msg) {
			return
		}
		r.handleStep(ctx, msg, st)
		return
	}

	switch normalizeCommand(msg.Text) {
	case "/start", btnStart:
		r.cmdStart(ctx, msg)
	case btnUsers, "/admin":
		r.cmdUsers(ctx, msg)
	case btnAddUser, "/adduser":
		r.cmdAddUser(ctx, msg)
	case btnEditUser, "/edituser":
		r.cmdEditUser(ctx, msg)
	case btnDeleteUser, "/deleteuser":
		r.cmdDeleteUser(ctx, msg)
	case btnBroadcast, "/broadcast":
		r.cmdBroadcastAll(ctx, msg)
	case btnSendByID, "/broadcast_by_id":
		r.cmdSendByID(ctx, msg)
	case btnLinksChannel:
		r.cmdSetChannel(ctx, msg, storage.ChannelLinks)
	case btnMessagesChannel:
		r.cmdSetChannel(ctx, msg, storage.ChannelMessages)
	case btnEditWelcome, "/edit_welcome":
		r.cmdEditWelcome(ctx, msg)
	}
}

func (r *Router) handleStep(ctx context.Context, msg transport.Message, st step) {
	switch s := st.(type) {
	case stepAddUsername:
		r.stepAddUsername(ctx, msg)
	case stepAddPassword:
		r.stepAddPassword(ctx, msg, s)
	case stepEditSelect:
		r.stepEditSelect(ctx, msg)
	case stepEditAction:
		r.stepEditAction(ctx, msg, s)
	case stepEditNewUsername:
		r.stepEditNewUsername(ctx, msg, s)
	case stepEditNewPassword:
		r.stepEditNewPassword(ctx, msg, s)
	case stepDeleteSelect:
		r.stepDeleteSelect(ctx, msg)
	case stepBroadcastContent:
		r.stepBroadcastContent(ctx, msg)
	case stepSendSelect:
		r.stepSendSelect(ctx, msg)
	case stepSendContent:
		r.stepSendContent(ctx, msg, s)
	case stepChannelID:
		r.stepChannelID(ctx, msg, s)
	case stepWelcomeText:
		r.stepWelcomeText(ctx, msg)
	default:
		// Unknown state; drop it rather than trap the caller.
		r.log.Warn("unknown conversation state cleared", logx.Int64("from_id", msg.FromID))
		r.sessions.Clear(msg.FromID)
	}
}

// normalizeCommand strips the "@botname" suffix Telegram appends to slash
// commands issued in groups.
func normalizeCommand(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "/") {
		if i := strings.IndexByte(text, '@'); i > 0 {
			text = text[:i]
		}
	}
	return text
}

func (r *Router) isAdmin(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.admins[userID]
	return ok
}

// denyNonAdmin implements the admin gate: on denial it sends the fixed
// unauthorized notice with the public menu and reports true so the invoking
// workflow stops immediately.
func (r *Router) denyNonAdmin(ctx context.Context, msg transport.Message) bool {
	if r.isAdmin(msg.FromID) {
		return false
	}
	r.errorNotice(ctx, msg.ChatID, textAccessDenied, startMenu())
	return true
}

// maybeCancel handles the global cancel keyword: clears the caller's state
// and re-renders the menu matching their authorization.
func (r *Router) maybeCancel(ctx context.Context, msg transport.Message) bool {
	if strings.TrimSpace(msg.Text) != btnCancel {
		return false
	}
	// Clear state first so no further step handler runs for this caller.
	r.sessions.Clear(msg.FromID)

	switch {
	case r.isAdmin(msg.FromID):
		r.reply(ctx, msg.ChatID, textActionCancelled, adminMenu())
	case r.isLinkedUser(ctx, msg.FromID):
		// Drop the workflow keyboard before re-rendering the menu.
		r.reply(ctx, msg.ChatID, textActionCancelled, tgui.Remove())
		r.reply(ctx, msg.ChatID, textChooseAction, mainMenu())
	default:
		r.reply(ctx, msg.ChatID, textActionCancelled, tgui.Remove())
		r.reply(ctx, msg.ChatID, textPressStart, startMenu())
	}
	return true
}

func (r *Router) isLinkedUser(ctx context.Context, telegramID int64) bool {
	_, err := r.store.UserByTelegramID(ctx, telegramID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.log.Warn("linked-user lookup failed", logx.Err(err))
	}
	return err == nil
}

// ---- outbound helpers ----

func (r *Router) reply(ctx context.Context, chatID int64, text string, markup any) {
	opt := &transport.SendOptions{ReplyMarkup: markup}
	if _, err := r.sender.SendText(ctx, transport.ChatTarget{ChatID: chatID}, text, opt); err != nil {
		r.log.Warn("send failed", logx.Int64("chat_id", chatID), logx.Err(err))
	}
}

func (r *Router) replyHTML(ctx context.Context, chatID int64, html string, markup any) {
	opt := &transport.SendOptions{ParseMode: transport.ParseModeHTML, ReplyMarkup: markup}
	if _, err := r.sender.SendText(ctx, transport.ChatTarget{ChatID: chatID}, html, opt); err != nil {
		r.log.Warn("send failed", logx.Int64("chat_id", chatID), logx.Err(err))
	}
}

func (r *Router) errorNotice(ctx context.Context, chatID int64, text string, markup any) {
	r.reply(ctx, chatID, "❌ "+text, markup)
}

func (r *Router) successNotice(ctx context.Context, chatID int64, text string, markup any) {
	r.reply(ctx, chatID, "✅ "+text, markup)
}

// showAdminMenu is the common workflow epilogue: report done, offer actions.
func (r *Router) showAdminMenu(ctx context.Context, chatID int64) {
	r.reply(ctx, chatID, textChooseAction, adminMenu())
}
