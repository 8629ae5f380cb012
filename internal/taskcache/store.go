package taskcache

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

const DefaultHydrationDelay = 2 * time.Second

// Refetcher triggers a full reload of the task list. It must not block.
type Refetcher interface {
	Refetch()
}

type RefetchFunc func()

func (refetch RefetchFunc) Refetch() {
	refetch()
}

// RollbackFunc restores the list captured before an optimistic update.
type RollbackFunc func()

type UpsertOptions struct {
	// MarkForHydration defaults to true when nil. A complete payload is
	// never marked.
	MarkForHydration *bool
	Prepend          bool
}

// Store is the shared task list. Writes replace the slice instead of
// editing it, so a slice handed out by Tasks stays valid.
type Store struct {
	mu          sync.RWMutex
	tasks       []Task
	loaded      bool
	version     uint64
	refetcher   Refetcher
	subscribers map[int]func([]Task)
	nextID      int
	now         func() time.Time

	// pending is the newest list not yet delivered. delivering is set while
	// one goroutine drains it, so subscribers see lists in version order.
	pending    []Task
	hasPending bool
	delivering bool
}

func NewStore(refetcher Refetcher) *Store {
	return &Store{
		refetcher:   refetcher,
		subscribers: make(map[int]func([]Task)),
		now:         time.Now,
	}
}

// SetRefetcher wires the fetch layer after construction, since the poller
// itself needs the store.
func (store *Store) SetRefetcher(refetcher Refetcher) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.refetcher = refetcher
}

func (store *Store) Tasks() []Task {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return slices.Clone(store.tasks)
}

func (store *Store) Get(id string) (Task, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	index := store.indexOf(id)
	if index < 0 {
		return Task{}, false
	}
	return store.tasks[index], true
}

// Loaded reports whether the list has been seeded by a fetch or an upsert.
func (store *Store) Loaded() bool {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.loaded
}

// Version increases on every change of the list.
func (store *Store) Version() uint64 {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.version
}

func (store *Store) PendingHydration() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.pendingLocked()
}

// Subscribe registers fn to receive the new list after every change. The
// returned func removes the subscription.
func (store *Store) Subscribe(fn func([]Task)) func() {
	store.mu.Lock()
	defer store.mu.Unlock()
	id := store.nextID
	store.nextID++
	store.subscribers[id] = fn
	return func() {
		store.mu.Lock()
		defer store.mu.Unlock()
		delete(store.subscribers, id)
	}
}

func (store *Store) Upsert(payload Payload, options UpsertOptions) {
	complete := IsCompleteTaskPayload(payload)
	needsHydration := true
	if options.MarkForHydration != nil {
		needsHydration = *options.MarkForHydration
	}
	if complete {
		needsHydration = false
	}

	store.mu.Lock()
	partial, ok := normalizeAt(payload, needsHydration, store.now())
	if !ok {
		store.mu.Unlock()
		slog.Warn("cannot upsert task without id")
		return
	}
	slog.Debug("upserting cached task",
		"task_id", partial.ID,
		"complete", complete,
		"needs_hydration", needsHydration,
		"prepend", options.Prepend,
	)

	fresh := Task{ID: partial.ID, NeedsHydration: needsHydration, Fields: partial.Fields}
	var tasks []Task
	switch index := store.indexOf(partial.ID); {
	case !store.loaded || len(store.tasks) == 0:
		tasks = []Task{fresh}
	case index >= 0:
		tasks = slices.Clone(store.tasks)
		tasks[index] = Merge(store.tasks[index], partial)
	case options.Prepend:
		tasks = make([]Task, 0, len(store.tasks)+1)
		tasks = append(tasks, fresh)
		tasks = append(tasks, store.tasks...)
	default:
		tasks = make([]Task, 0, len(store.tasks)+1)
		tasks = append(tasks, store.tasks...)
		tasks = append(tasks, fresh)
	}
	store.commitAndNotify(tasks)
}

// Remove drops the task with id. An unknown id changes nothing and
// notifies nobody.
func (store *Store) Remove(id string) {
	store.mu.Lock()
	index := store.indexOf(id)
	if index < 0 {
		store.mu.Unlock()
		slog.Debug("task not cached, nothing to remove", "task_id", id)
		return
	}
	slog.Debug("removing cached task", "task_id", id)
	store.commitAndNotify(slices.Delete(slices.Clone(store.tasks), index, index+1))
}

// ScheduleHydration checks after delay whether any task still needs
// hydration and asks the fetch layer for a full reload if so. Each call
// arms its own timer.
func (store *Store) ScheduleHydration(delay time.Duration) {
	slog.Debug("scheduling background hydration", "delay", delay)
	time.AfterFunc(delay, func() {
		store.mu.RLock()
		loaded := store.loaded
		pending := store.pendingLocked()
		refetcher := store.refetcher
		store.mu.RUnlock()

		if !loaded || pending == 0 || refetcher == nil {
			return
		}
		slog.Debug("hydrating cached tasks", "pending", pending)
		refetcher.Refetch()
	})
}

// OptimisticUpdate merges updates into the task with id and returns a func
// that puts back the whole list as it was before. An unloaded list or an
// unknown id makes both a no-op.
func (store *Store) OptimisticUpdate(id string, updates Payload) RollbackFunc {
	store.mu.Lock()
	snapshot := store.tasks
	index := store.indexOf(id)
	if !store.loaded || index < 0 {
		store.mu.Unlock()
		return func() {}
	}

	// Empty and null values are kept so a write can clear a field.
	partial := Partial{ID: id, Fields: copyFields(updates, anyValue)}
	if flag, ok := updates["needsHydration"].(bool); ok {
		partial.NeedsHydration = &flag
	}
	slog.Debug("optimistic task update", "task_id", id, "fields", len(partial.Fields))

	tasks := slices.Clone(store.tasks)
	tasks[index] = Merge(tasks[index], partial)
	store.commitAndNotify(tasks)

	return func() {
		slog.Debug("rolling back optimistic task update", "task_id", id)
		store.mu.Lock()
		store.commitAndNotify(snapshot)
	}
}

// Replace swaps in a freshly fetched list. Fetched rows are complete by
// definition.
func (store *Store) Replace(tasks []Task) {
	replaced := make([]Task, len(tasks))
	for index, task := range tasks {
		task.NeedsHydration = false
		replaced[index] = task
	}

	store.mu.Lock()
	store.commitAndNotify(replaced)
}

// ReplaceFromRecords normalizes REST rows and replaces the list. Rows
// without an id are skipped.
func (store *Store) ReplaceFromRecords(records []map[string]any) {
	tasks := make([]Task, 0, len(records))
	for _, record := range records {
		partial, ok := Normalize(record, false)
		if !ok {
			continue
		}
		tasks = append(tasks, Task{ID: partial.ID, Fields: partial.Fields})
	}
	store.Replace(tasks)
}

func (store *Store) indexOf(id string) int {
	return slices.IndexFunc(store.tasks, func(task Task) bool {
		return task.ID == id
	})
}

func (store *Store) pendingLocked() int {
	pending := 0
	for _, task := range store.tasks {
		if task.NeedsHydration {
			pending++
		}
	}
	return pending
}

// commitAndNotify must be called with the write lock held and releases it
// before calling subscribers. Subscribers always receive lists in commit
// order. A list committed while another goroutine is delivering is handed
// to that goroutine, and superseded lists may be skipped.
func (store *Store) commitAndNotify(tasks []Task) {
	store.tasks = tasks
	store.loaded = true
	store.version++
	store.pending = tasks
	store.hasPending = true

	if store.delivering {
		store.mu.Unlock()
		return
	}
	store.delivering = true

	for store.hasPending {
		latest := store.pending
		store.pending = nil
		store.hasPending = false
		subscribers := make([]func([]Task), 0, len(store.subscribers))
		for _, fn := range store.subscribers {
			subscribers = append(subscribers, fn)
		}
		store.mu.Unlock()

		for _, fn := range subscribers {
			fn(slices.Clone(latest))
		}

		store.mu.Lock()
	}
	store.delivering = false
	store.mu.Unlock()
}
