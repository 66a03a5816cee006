package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/latchjack/burger/pkg/burger"
	"github.com/latchjack/burger/pkg/repository"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("builder session not found")

type IngredientSource interface {
	All(ctx context.Context) (burger.Ingredients, error)
}

type SnapshotStore interface {
	SaveSession(ctx context.Context, id string, state burger.State) error
	LoadSession(ctx context.Context, id string) (burger.State, error)
	DeleteSession(ctx context.Context, id string) error
}

// Hub maps session IDs to session actors. Sessions whose actor is gone are
// revived from the snapshot store.
type Hub struct {
	system    *actor.ActorSystem
	menu      *burger.Menu
	source    IngredientSource
	snapshots SnapshotStore
	logger    *zap.Logger
	timeout   time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

// session is a live actor. closed is set under Hub.mu once Close has run,
// so an in-flight save can tell its snapshot is stale.
type session struct {
	pid    *actor.PID
	closed bool
}

func NewHub(system *actor.ActorSystem, menu *burger.Menu, source IngredientSource, snapshots SnapshotStore, logger *zap.Logger) *Hub {
	return &Hub{
		system:    system,
		menu:      menu,
		source:    source,
		snapshots: snapshots,
		logger:    logger,
		timeout:   5 * time.Second,
		sessions:  make(map[string]*session),
	}
}

func (h *Hub) Menu() *burger.Menu {
	return h.menu
}

// Open starts a session seeded from the ingredient source. A failing source
// still yields a session, with its Error flag set.
func (h *Hub) Open(ctx context.Context) (string, burger.State, error) {
	id := uuid.NewString()
	pid := h.spawn()

	var msg interface{}
	ingredients, err := h.source.All(ctx)
	if err != nil {
		h.logger.Warn("Failed to fetch ingredients for builder", zap.String("session_id", id), zap.Error(err))
		msg = &LoadFailed{}
	} else {
		msg = &Load{Ingredients: ingredients}
	}

	reply, err := h.request(pid, msg)
	if err != nil {
		h.system.Root.Stop(pid)
		return "", burger.State{}, err
	}
	if reply.Err != nil {
		h.logger.Warn("Stored ingredients rejected by menu", zap.String("session_id", id), zap.Error(reply.Err))
		if reply, err = h.request(pid, &LoadFailed{}); err != nil {
			h.system.Root.Stop(pid)
			return "", burger.State{}, err
		}
	}

	sess := &session{pid: pid}
	h.mu.Lock()
	h.sessions[id] = sess
	h.mu.Unlock()

	h.save(ctx, id, sess, reply.State)
	return id, reply.State, nil
}

func (h *Hub) State(ctx context.Context, id string) (burger.State, error) {
	return h.send(ctx, id, &Snapshot{})
}

func (h *Hub) Add(ctx context.Context, id, name string) (burger.State, error) {
	return h.send(ctx, id, &Add{Name: name})
}

func (h *Hub) Remove(ctx context.Context, id, name string) (burger.State, error) {
	return h.send(ctx, id, &Remove{Name: name})
}

// Close stops the session and drops its snapshot. Closing an unknown
// session is not an error.
func (h *Hub) Close(ctx context.Context, id string) error {
	h.mu.Lock()
	sess, ok := h.sessions[id]
	if ok {
		sess.closed = true
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	if ok {
		h.system.Root.Stop(sess.pid)
	}
	if h.snapshots == nil {
		return nil
	}
	if err := h.snapshots.DeleteSession(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete session snapshot: %w", err)
	}
	return nil
}

// Shutdown stops every live session actor. Snapshots are kept.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sess := range h.sessions {
		h.system.Root.Stop(sess.pid)
		delete(h.sessions, id)
	}
}

func (h *Hub) send(ctx context.Context, id string, msg interface{}) (burger.State, error) {
	sess, err := h.lookup(ctx, id)
	if err != nil {
		return burger.State{}, err
	}
	reply, err := h.request(sess.pid, msg)
	if err != nil {
		if h.isClosed(sess) {
			return burger.State{}, ErrSessionNotFound
		}
		return burger.State{}, err
	}
	if reply.Err != nil {
		return reply.State, reply.Err
	}
	if reply.Changed {
		h.save(ctx, id, sess, reply.State)
	}
	return reply.State, nil
}

// lookup returns the live session for id, reviving it from its snapshot.
// The snapshot is read without holding h.mu.
func (h *Hub) lookup(ctx context.Context, id string) (*session, error) {
	h.mu.Lock()
	sess, ok := h.sessions[id]
	h.mu.Unlock()
	if ok {
		return sess, nil
	}
	if h.snapshots == nil {
		return nil, ErrSessionNotFound
	}

	state, err := h.snapshots.LoadSession(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session snapshot: %w", err)
	}

	pid := h.spawn()
	if _, err := h.request(pid, &Restore{State: state}); err != nil {
		h.system.Root.Stop(pid)
		return nil, err
	}

	h.mu.Lock()
	if existing, ok := h.sessions[id]; ok {
		h.mu.Unlock()
		h.system.Root.Stop(pid)
		return existing, nil
	}
	sess = &session{pid: pid}
	h.sessions[id] = sess
	h.mu.Unlock()

	h.logger.Info("Builder session restored", zap.String("session_id", id))
	return sess, nil
}

func (h *Hub) isClosed(sess *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return sess.closed
}

func (h *Hub) spawn() *actor.PID {
	props := actor.PropsFromProducer(func() actor.Actor {
		return newSessionActor(h.menu, h.logger)
	})
	return h.system.Root.Spawn(props)
}

func (h *Hub) request(pid *actor.PID, msg interface{}) (*Reply, error) {
	result, err := h.system.Root.RequestFuture(pid, msg, h.timeout).Result()
	if err != nil {
		return nil, fmt.Errorf("builder session request failed: %w", err)
	}
	reply, ok := result.(*Reply)
	if !ok {
		return nil, fmt.Errorf("unexpected builder reply %T", result)
	}
	return reply, nil
}

// save writes a snapshot unless the session was closed. A Close that lands
// while the write is in flight is undone by deleting the snapshot again.
func (h *Hub) save(ctx context.Context, id string, sess *session, state burger.State) {
	if h.snapshots == nil || h.isClosed(sess) {
		return
	}
	if err := h.snapshots.SaveSession(ctx, id, state); err != nil {
		h.logger.Warn("Failed to save builder snapshot", zap.String("session_id", id), zap.Error(err))
		return
	}
	if h.isClosed(sess) {
		if err := h.snapshots.DeleteSession(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			h.logger.Warn("Failed to drop snapshot of closed session", zap.String("session_id", id), zap.Error(err))
		}
	}
}
