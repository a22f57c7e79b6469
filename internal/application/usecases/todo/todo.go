package todo

import (
	"context"
	"errors"

	"github.com/hilthontt/todoroom/internal/domain"
	"github.com/hilthontt/todoroom/internal/infrastructure/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TodoUseCase interface {
	Add(ctx context.Context, roomCode string, category domain.Category, text string, actor domain.User) (*domain.Todo, error)
	// List returns the room's todos oldest first. Only members may list.
	List(ctx context.Context, roomCode string, filter domain.TodoFilter, userID int64) ([]domain.Todo, error)
	// MarkDone is idempotent: marking a done todo again succeeds and
	// notifies again.
	MarkDone(ctx context.Context, roomCode string, id uint64, actor domain.User) (*domain.Todo, error)
	Delete(ctx context.Context, roomCode string, id uint64, actor domain.User) (*domain.Todo, error)
}

type todoUseCase struct {
	rooms       domain.RoomRepository
	todos       domain.TodoRepository
	broadcaster domain.Broadcaster
	logger      *zap.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

func NewTodoUseCase(
	rooms domain.RoomRepository,
	todos domain.TodoRepository,
	broadcaster domain.Broadcaster,
	logger *zap.Logger,
	m *metrics.Metrics,
) TodoUseCase {
	return &todoUseCase{
		rooms:       rooms,
		todos:       todos,
		broadcaster: broadcaster,
		logger:      logger,
		metrics:     m,
		tracer:      otel.Tracer("todoroom/usecases/todo"),
	}
}

func (uc *todoUseCase) Add(ctx context.Context, roomCode string, category domain.Category, text string, actor domain.User) (*domain.Todo, error) {
	ctx, span := uc.tracer.Start(ctx, "todoUseCase.Add")
	defer span.End()
	span.SetAttributes(
		attribute.String("room.code", roomCode),
		attribute.String("todo.category", string(category)),
		attribute.Int64("user.id", actor.ID),
	)

	room, err := uc.memberRoom(ctx, roomCode, actor.ID)
	if err != nil {
		return nil, recordError(span, err)
	}

	todo, err := domain.NewTodo(roomCode, category, text, actor.ID)
	if err != nil {
		return nil, recordError(span, err)
	}

	if err := uc.todos.Create(ctx, todo); err != nil {
		uc.logger.Error("failed to create todo", zap.Error(err), zap.String("room", roomCode))
		return nil, recordError(span, err)
	}
	span.SetAttributes(attribute.Int64("todo.id", int64(todo.ID)))

	uc.metrics.TodoMutation("add")
	uc.logger.Info("todo added",
		zap.String("room", roomCode),
		zap.Uint64("todo", todo.ID),
		zap.String("category", string(category)),
		zap.Int64("user", actor.ID),
	)
	uc.notify(ctx, domain.EventTodoAdded, room, actor, todo)

	span.SetStatus(codes.Ok, "todo added")
	return todo, nil
}

func (uc *todoUseCase) List(ctx context.Context, roomCode string, filter domain.TodoFilter, userID int64) ([]domain.Todo, error) {
	ctx, span := uc.tracer.Start(ctx, "todoUseCase.List")
	defer span.End()
	span.SetAttributes(attribute.String("room.code", roomCode), attribute.Int64("user.id", userID))

	if _, err := uc.memberRoom(ctx, roomCode, userID); err != nil {
		return nil, recordError(span, err)
	}

	todos, err := uc.todos.List(ctx, roomCode, filter)
	if err != nil {
		uc.logger.Error("failed to list todos", zap.Error(err), zap.String("room", roomCode))
		return nil, recordError(span, err)
	}

	span.SetAttributes(attribute.Int("todo.count", len(todos)))
	return todos, nil
}

func (uc *todoUseCase) MarkDone(ctx context.Context, roomCode string, id uint64, actor domain.User) (*domain.Todo, error) {
	ctx, span := uc.tracer.Start(ctx, "todoUseCase.MarkDone")
	defer span.End()
	span.SetAttributes(
		attribute.String("room.code", roomCode),
		attribute.Int64("todo.id", int64(id)),
		attribute.Int64("user.id", actor.ID),
	)

	room, err := uc.memberRoom(ctx, roomCode, actor.ID)
	if err != nil {
		return nil, recordError(span, err)
	}

	todo, err := uc.todos.MarkDone(ctx, roomCode, id)
	if err != nil {
		if !errors.Is(err, domain.ErrTodoNotFound) {
			uc.logger.Error("failed to mark todo done", zap.Error(err), zap.String("room", roomCode), zap.Uint64("todo", id))
		}
		return nil, recordError(span, err)
	}

	uc.metrics.TodoMutation("done")
	uc.logger.Info("todo done", zap.String("room", roomCode), zap.Uint64("todo", id), zap.Int64("user", actor.ID))
	uc.notify(ctx, domain.EventTodoDone, room, actor, todo)

	span.SetStatus(codes.Ok, "todo done")
	return todo, nil
}

func (uc *todoUseCase) Delete(ctx context.Context, roomCode string, id uint64, actor domain.User) (*domain.Todo, error) {
	ctx, span := uc.tracer.Start(ctx, "todoUseCase.Delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("room.code", roomCode),
		attribute.Int64("todo.id", int64(id)),
		attribute.Int64("user.id", actor.ID),
	)

	room, err := uc.memberRoom(ctx, roomCode, actor.ID)
	if err != nil {
		return nil, recordError(span, err)
	}

	todo, err := uc.todos.Delete(ctx, roomCode, id)
	if err != nil {
		if !errors.Is(err, domain.ErrTodoNotFound) {
			uc.logger.Error("failed to delete todo", zap.Error(err), zap.String("room", roomCode), zap.Uint64("todo", id))
		}
		return nil, recordError(span, err)
	}

	uc.metrics.TodoMutation("delete")
	uc.logger.Info("todo deleted", zap.String("room", roomCode), zap.Uint64("todo", id), zap.Int64("user", actor.ID))
	uc.notify(ctx, domain.EventTodoDeleted, room, actor, todo)

	span.SetStatus(codes.Ok, "todo deleted")
	return todo, nil
}

// memberRoom loads the room and checks that userID belongs to it.
func (uc *todoUseCase) memberRoom(ctx context.Context, roomCode string, userID int64) (*domain.Room, error) {
	if roomCode == "" {
		return nil, domain.ErrNoCurrentRoom
	}

	room, err := uc.rooms.GetByCode(ctx, roomCode)
	if err != nil {
		if !errors.Is(err, domain.ErrRoomNotFound) {
			uc.logger.Error("failed to load room", zap.Error(err), zap.String("room", roomCode))
		}
		return nil, err
	}

	member, err := uc.rooms.IsMember(ctx, roomCode, userID)
	if err != nil {
		uc.logger.Error("failed to check membership", zap.Error(err), zap.String("room", roomCode))
		return nil, err
	}
	if !member {
		uc.logger.Warn("non-member touched room", zap.String("room", roomCode), zap.Int64("user", userID))
		return nil, domain.ErrNotAMember
	}
	return room, nil
}

func (uc *todoUseCase) notify(ctx context.Context, kind domain.EventKind, room *domain.Room, actor domain.User, todo *domain.Todo) {
	uc.broadcaster.Broadcast(ctx, domain.Event{
		Kind:      kind,
		RoomCode:  room.Code,
		RoomName:  room.Name,
		ActorID:   actor.ID,
		ActorName: actor.DisplayName,
		Todo:      todo,
	}, actor.ID)
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
