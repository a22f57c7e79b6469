// Package bot is the per-user dialog controller. It turns inbound chat
// events into registry and ledger calls and renders every outcome,
// including errors, as a reply.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hilthontt/todoroom/internal/application/usecases/room"
	"github.com/hilthontt/todoroom/internal/application/usecases/todo"
	"github.com/hilthontt/todoroom/internal/domain"
	"github.com/hilthontt/todoroom/internal/infrastructure/metrics"
)

type RateLimiter interface {
	Allow(userID int64) (bool, time.Duration)
}

type Deps struct {
	Rooms    room.RoomUseCase
	Todos    todo.TodoUseCase
	Users    domain.UserRepository
	Sessions domain.SessionStore
	Sender   domain.Sender
	// Limiter is optional.
	Limiter RateLimiter
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// request is one inbound event bound to its user and session.
type request struct {
	user    domain.User
	session *domain.Session
	text    string
	args    string
	logger  *zap.Logger
}

type handlerFunc func(ctx context.Context, r *request) (domain.Message, error)

type Controller struct {
	rooms    room.RoomUseCase
	todos    todo.TodoUseCase
	users    domain.UserRepository
	sessions domain.SessionStore
	sender   domain.Sender
	limiter  RateLimiter
	logger   *zap.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	commands map[string]handlerFunc
	states   map[domain.State]handlerFunc
}

func NewController(d Deps) *Controller {
	c := &Controller{
		rooms:    d.Rooms,
		todos:    d.Todos,
		users:    d.Users,
		sessions: d.Sessions,
		sender:   d.Sender,
		limiter:  d.Limiter,
		logger:   d.Logger,
		metrics:  d.Metrics,
		tracer:   otel.Tracer("todoroom/presentation/bot"),
	}

	c.commands = map[string]handlerFunc{
		"start":  c.cmdStart,
		"help":   c.cmdHelp,
		"cancel": c.cmdCancel,
		"create": c.cmdCreate,
		"join":   c.cmdJoin,
		"add":    c.cmdAdd,
		"list":   c.cmdList,
		"done":   c.cmdDone,
		"delete": c.cmdDelete,
		"rooms":  c.cmdRooms,
		"switch": c.cmdSwitch,
		"room":   c.cmdRoom,
	}

	// Each state accepts exactly one kind of input.
	c.states = map[domain.State]handlerFunc{
		domain.StateIdle:                 c.onIdleText,
		domain.StateAwaitingRoomName:     c.onRoomName,
		domain.StateAwaitingRoomPassword: c.onRoomPassword,
		domain.StateAwaitingJoinCode:     c.onJoinCode,
		domain.StateAwaitingJoinPassword: c.onJoinPassword,
		domain.StateAwaitingCategory:     c.onCategory,
		domain.StateAwaitingTodoText:     c.onTodoText,
		domain.StateAwaitingDeleteChoice: c.onDeleteChoice,
	}

	return c
}

// Handle processes one inbound event and sends exactly one reply. It never
// panics on user input and never returns an error: failures become text.
func (c *Controller) Handle(ctx context.Context, in domain.Inbound) {
	start := time.Now()
	correlationID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, "Controller.Handle")
	defer span.End()
	span.SetAttributes(
		attribute.String("update.id", correlationID),
		attribute.Int64("user.id", in.UserID),
		attribute.Bool("update.callback", in.Callback),
	)

	logger := c.logger.With(zap.String("update", correlationID), zap.Int64("user", in.UserID))

	if c.limiter != nil {
		if ok, wait := c.limiter.Allow(in.UserID); !ok {
			c.metrics.RateLimited()
			logger.Debug("inbound event rate limited", zap.Duration("retryIn", wait))
			c.reply(ctx, logger, in.UserID, rateLimitedMessage(wait))
			return
		}
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("dialog handler panicked", zap.Any("panic", r))
			span.SetStatus(codes.Error, "panic")
			c.reply(ctx, logger, in.UserID, domain.Message{Text: describeError(domain.ErrStoreUnavailable)})
		}
	}()

	session, err := c.sessions.Get(ctx, in.UserID)
	if err != nil {
		logger.Error("failed to load session", zap.Error(err))
		c.metrics.DomainError(errorKind(err))
		c.reply(ctx, logger, in.UserID, domain.Message{Text: describeError(err)})
		return
	}
	stateBefore := session.State

	user := domain.NewUser(in.UserID, in.DisplayName)
	if err := c.users.Upsert(ctx, user); err != nil {
		logger.Warn("failed to upsert user", zap.Error(err))
	}

	r := &request{user: *user, session: session, text: strings.TrimSpace(in.Text), logger: logger}
	msg, err := c.dispatch(ctx, r)
	if err != nil {
		kind := errorKind(err)
		c.metrics.DomainError(kind)
		if kind == "store_unavailable" {
			logger.Error("request failed", zap.Error(err), zap.Stringer("state", stateBefore))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			logger.Info("request rejected", zap.String("reason", kind), zap.Stringer("state", stateBefore))
		}
		session.Reset()
		msg = domain.Message{Text: describeError(err)}
	}

	if saveErr := c.sessions.Save(ctx, session); saveErr != nil {
		logger.Error("failed to save session", zap.Error(saveErr))
		if err == nil {
			msg.Text += sessionNotSavedNote
		}
	}

	c.reply(ctx, logger, in.UserID, msg)
	c.metrics.ObserveInbound(stateBefore.String(), time.Since(start))
}

// dispatch routes commands first. A command received mid-dialog abandons
// the pending dialog.
func (c *Controller) dispatch(ctx context.Context, r *request) (domain.Message, error) {
	if name, args, ok := parseCommand(r.text); ok {
		handler, known := c.commands[name]
		if !known {
			return domain.Message{Text: unknownCommandText}, nil
		}
		if r.session.State != domain.StateIdle {
			r.logger.Debug("dialog abandoned", zap.Stringer("state", r.session.State), zap.String("command", name))
			r.session.Reset()
		}
		r.args = args
		return handler(ctx, r)
	}

	if r.text == "" && r.session.State != domain.StateIdle {
		return domain.Message{}, fmt.Errorf("%w: no text in reply", domain.ErrInvalidInput)
	}

	handler, ok := c.states[r.session.State]
	if !ok {
		r.session.Reset()
		return domain.Message{Text: helpText, Keyboard: mainMenu()}, nil
	}
	return handler(ctx, r)
}

func (c *Controller) reply(ctx context.Context, logger *zap.Logger, userID int64, msg domain.Message) {
	if msg.Text == "" {
		return
	}
	if err := c.sender.Send(ctx, userID, msg); err != nil {
		logger.Warn("failed to send reply", zap.Error(err))
	}
}

// parseCommand splits "/cmd@BotName args" into its name and arguments.
func parseCommand(text string) (string, string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, args, _ := strings.Cut(text[1:], " ")
	name, _, _ := strings.Cut(head, "@")
	return strings.ToLower(name), strings.TrimSpace(args), true
}
