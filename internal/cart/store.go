package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// SnapshotStore persists one cart snapshot per visitor session.
// Consumers define this interface, not the Redis implementation.
type SnapshotStore interface {
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Save(ctx context.Context, sessionID string, snap *Snapshot) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrSnapshotNotFound = errors.New("cart snapshot not found")

// Store is the single source of truth for what is in each visitor's cart.
// Carts are held in memory and mirrored to the snapshot store after every
// mutation, so a session survives a server restart or page reload.
//
// All operations are total: unknown session IDs get a fresh empty cart,
// unknown item IDs are no-ops, and snapshot failures are logged rather than
// surfaced (persistence is an optimization, not a correctness requirement
// of the in-memory state).
type Store struct {
	mu        sync.Mutex
	states    map[string]*State
	seq       map[string]uint64
	snapshots SnapshotStore
	logger    *slog.Logger

	// saveMu serializes snapshot writes; together with the sequence
	// numbers taken under mu it guarantees the last mutation is also the
	// last snapshot written, even when an earlier save is slow.
	saveMu    sync.Mutex
	lastSaved map[string]uint64
}

func NewStore(snapshots SnapshotStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		states:    make(map[string]*State),
		seq:       make(map[string]uint64),
		snapshots: snapshots,
		logger:    logger,
		lastSaved: make(map[string]uint64),
	}
}

// state returns the in-memory cart for a session, rehydrating it from the
// snapshot store on first access. A snapshot with the wrong version is
// discarded and the cart starts empty. Callers must hold s.mu.
func (s *Store) state(ctx context.Context, sessionID string) *State {
	if st, ok := s.states[sessionID]; ok {
		return st
	}

	st := &State{}
	if s.snapshots != nil {
		snap, err := s.snapshots.Load(ctx, sessionID)
		switch {
		case err == nil && snap.Version == SnapshotVersion:
			st.Items = snap.Items
			st.IsOpen = snap.IsOpen
		case err == nil:
			s.logger.Info("discarding cart snapshot with stale version",
				"session_id", sessionID, "version", snap.Version)
		case !errors.Is(err, ErrSnapshotNotFound):
			s.logger.Warn("failed to load cart snapshot", "session_id", sessionID, "error", err)
		}
	}

	s.states[sessionID] = st
	return st
}

// snapshotLocked copies the state and stamps it with the next save
// sequence number for the session. Callers must hold s.mu.
func (s *Store) snapshotLocked(sessionID string, st *State) (State, uint64) {
	s.seq[sessionID]++
	return copyState(st), s.seq[sessionID]
}

// persist writes a copied state to the snapshot store. A save that was
// taken before an already persisted one is skipped, so a stale state can
// never overwrite a newer snapshot. A failed write only costs durability.
func (s *Store) persist(ctx context.Context, sessionID string, st State, seq uint64) {
	if s.snapshots == nil {
		return
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if seq <= s.lastSaved[sessionID] {
		return
	}

	snap := &Snapshot{
		Version: SnapshotVersion,
		Items:   st.Items,
		IsOpen:  st.IsOpen,
	}
	if err := s.snapshots.Save(ctx, sessionID, snap); err != nil {
		s.logger.Warn("failed to persist cart snapshot", "session_id", sessionID, "error", err)
		return
	}
	s.lastSaved[sessionID] = seq
}

// AddItem puts a product in the cart. Re-adding an existing product id
// increments its quantity in place, keeping the name, price and image from
// the original add and leaving its position untouched. New items are
// appended. Adding always opens the cart panel.
//
// Quantity must be positive. The HTTP layer validates it before calling;
// the store passes it through as given.
func (s *Store) AddItem(ctx context.Context, sessionID string, ref ProductRef, quantity int) {
	s.mu.Lock()
	st := s.state(ctx, sessionID)

	merged := false
	for i := range st.Items {
		if st.Items[i].ID == ref.ID {
			st.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		st.Items = append(st.Items, LineItem{
			ID:       ref.ID,
			Name:     ref.Name,
			Slug:     ref.Slug,
			Price:    ref.Price,
			Image:    ref.image(),
			Quantity: quantity,
		})
	}
	st.IsOpen = true

	snapshot, seq := s.snapshotLocked(sessionID, st)
	s.mu.Unlock()

	s.persist(ctx, sessionID, snapshot, seq)
}

// UpdateQuantity sets the quantity of an existing line item. A quantity of
// zero or less removes the item entirely; a line item never stays in the
// cart with a non-positive quantity. Unknown ids are a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, sessionID, id string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(ctx, sessionID, id)
		return
	}

	s.mu.Lock()
	st := s.state(ctx, sessionID)

	changed := false
	for i := range st.Items {
		if st.Items[i].ID == id {
			st.Items[i].Quantity = quantity
			changed = true
			break
		}
	}

	snapshot, seq := s.snapshotLocked(sessionID, st)
	s.mu.Unlock()

	if changed {
		s.persist(ctx, sessionID, snapshot, seq)
	}
}

// RemoveItem deletes the line item with the given id, if present.
func (s *Store) RemoveItem(ctx context.Context, sessionID, id string) {
	s.mu.Lock()
	st := s.state(ctx, sessionID)

	removed := false
	for i := range st.Items {
		if st.Items[i].ID == id {
			st.Items = append(st.Items[:i], st.Items[i+1:]...)
			removed = true
			break
		}
	}

	snapshot, seq := s.snapshotLocked(sessionID, st)
	s.mu.Unlock()

	if removed {
		s.persist(ctx, sessionID, snapshot, seq)
	}
}

// ClearCart empties the cart. The panel visibility flag is left as-is.
func (s *Store) ClearCart(ctx context.Context, sessionID string) {
	s.mu.Lock()
	st := s.state(ctx, sessionID)
	st.Items = nil

	snapshot, seq := s.snapshotLocked(sessionID, st)
	s.mu.Unlock()

	s.persist(ctx, sessionID, snapshot, seq)
}

// ToggleCart flips the panel visibility flag.
func (s *Store) ToggleCart(ctx context.Context, sessionID string) {
	s.setOpen(ctx, sessionID, func(open bool) bool { return !open })
}

// OpenCart shows the cart panel.
func (s *Store) OpenCart(ctx context.Context, sessionID string) {
	s.setOpen(ctx, sessionID, func(bool) bool { return true })
}

// CloseCart hides the cart panel.
func (s *Store) CloseCart(ctx context.Context, sessionID string) {
	s.setOpen(ctx, sessionID, func(bool) bool { return false })
}

func (s *Store) setOpen(ctx context.Context, sessionID string, next func(bool) bool) {
	s.mu.Lock()
	st := s.state(ctx, sessionID)
	st.IsOpen = next(st.IsOpen)

	snapshot, seq := s.snapshotLocked(sessionID, st)
	s.mu.Unlock()

	s.persist(ctx, sessionID, snapshot, seq)
}

// Get returns a copy of the session's cart state.
func (s *Store) Get(ctx context.Context, sessionID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state(ctx, sessionID))
}

// Summary computes the derived totals for the session's cart. It reads the
// in-memory state only and has no side effects. The totals are computed
// while the lock is held so concurrent mutations cannot be observed
// mid-flight.
func (s *Store) Summary(ctx context.Context, sessionID string) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summarize(s.state(ctx, sessionID).Items)
}

func copyState(st *State) State {
	out := State{IsOpen: st.IsOpen}
	if len(st.Items) > 0 {
		out.Items = make([]LineItem, len(st.Items))
		copy(out.Items, st.Items)
	}
	return out
}
