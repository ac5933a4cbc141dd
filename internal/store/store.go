// Package store owns an origin's task and category collections and keeps
// them synchronized with persistent storage.
//
// Every mutation builds a new collection, persists it and only then replaces
// the in-memory one, so memory and storage agree after each operation.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todo-planner/internal/model"
	"todo-planner/internal/storage"
)

// Snapshot is a copy of the store's collections.
type Snapshot struct {
	Tasks      []model.Task
	Categories []string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for recoverable load problems and mutations.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time source used by PastDue.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides task identifier generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Store holds the task and category collections of one origin.
type Store struct {
	mu          sync.RWMutex
	storage     storage.Storage
	logger      *log.Logger
	now         func() time.Time
	newID       func() string
	tasks       []model.Task
	categories  []string
	subscribers map[int]func(Snapshot)
	nextSub     int
}

func New(st storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage:     st,
		logger:      log.Default(),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
		tasks:       []model.Task{},
		categories:  []string{},
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadInitialState hydrates both collections from storage. Missing or
// malformed entries leave the corresponding collection empty; only storage
// failures are returned. Tasks stored without an identifier get one, and the
// todos are written back once so later loads see the same identifiers.
func (s *Store) LoadInitialState(ctx context.Context) error {
	rawTasks, foundTasks, err := s.storage.Get(ctx, storage.KeyTodos)
	if err != nil {
		return fmt.Errorf("load todos: %w", err)
	}
	rawCategories, foundCategories, err := s.storage.Get(ctx, storage.KeyCategories)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	tasks := []model.Task{}
	if foundTasks {
		decoded, err := decodeTasks(rawTasks)
		if err != nil {
			s.logger.Warn("ignoring malformed stored todos", "err", err)
		} else {
			tasks = append(tasks, decoded...)
		}
	}
	assigned := 0
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = s.newID()
			assigned++
		}
	}

	categories := []string{}
	if foundCategories {
		decoded, err := decodeCategories(rawCategories)
		if err != nil {
			s.logger.Warn("ignoring malformed stored categories", "err", err)
		} else {
			categories = append(categories, decoded...)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = categories
	if assigned == 0 {
		s.tasks = tasks
	} else if err := s.commitTasks(ctx, tasks); err != nil {
		// Identifiers must be stored before anything can refer to them.
		return fmt.Errorf("store assigned task ids: %w", err)
	}

	s.logger.Debug("state loaded", "tasks", len(tasks), "categories", len(categories), "assigned_ids", assigned)
	return nil
}

// AddTask appends a new, not yet completed task. Surrounding whitespace is
// trimmed from text and category before they are stored.
func (s *Store) AddTask(ctx context.Context, text string, dueDate *time.Time, category string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}
	task := model.Task{
		ID:       s.newID(),
		Text:     text,
		DueDate:  copyTime(dueDate),
		Category: strings.TrimSpace(category),
	}

	s.mu.Lock()
	next := append(cloneTasks(s.tasks), task)
	err := s.commitTasks(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return model.Task{}, err
	}

	s.logger.Debug("task added", "index", len(next)-1, "category", task.Category)
	s.notify()
	return task, nil
}

// ToggleTask flips the completion flag of the task at index.
func (s *Store) ToggleTask(ctx context.Context, index int) (model.Task, error) {
	s.mu.Lock()
	if err := checkIndex("toggle task", index, len(s.tasks)); err != nil {
		s.mu.Unlock()
		return model.Task{}, err
	}
	next := cloneTasks(s.tasks)
	next[index].Completed = !next[index].Completed
	err := s.commitTasks(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return model.Task{}, err
	}

	s.logger.Debug("task toggled", "index", index, "completed", next[index].Completed)
	s.notify()
	return next[index], nil
}

// EditTask replaces the text, due date and category of the task at index.
// Identifier and completion flag are kept; text and category are trimmed.
func (s *Store) EditTask(ctx context.Context, index int, text string, dueDate *time.Time, category string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}

	s.mu.Lock()
	if err := checkIndex("edit task", index, len(s.tasks)); err != nil {
		s.mu.Unlock()
		return model.Task{}, err
	}
	next := cloneTasks(s.tasks)
	next[index].Text = text
	next[index].DueDate = copyTime(dueDate)
	next[index].Category = strings.TrimSpace(category)
	err := s.commitTasks(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return model.Task{}, err
	}

	s.logger.Debug("task edited", "index", index)
	s.notify()
	return next[index], nil
}

// DeleteTask removes the task at index and returns it.
func (s *Store) DeleteTask(ctx context.Context, index int) (model.Task, error) {
	s.mu.Lock()
	if err := checkIndex("delete task", index, len(s.tasks)); err != nil {
		s.mu.Unlock()
		return model.Task{}, err
	}
	removed := s.tasks[index]
	next := make([]model.Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:index]...)
	next = append(next, s.tasks[index+1:]...)
	err := s.commitTasks(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return model.Task{}, err
	}

	s.logger.Debug("task deleted", "index", index)
	s.notify()
	return removed, nil
}

// AddCategory appends a category name. Duplicates are allowed.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyText
	}

	s.mu.Lock()
	next := append(cloneStrings(s.categories), name)
	err := s.commitCategories(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Debug("category added", "name", name)
	s.notify()
	return nil
}

// EditCategory renames the category at index. Tasks keep the old name.
func (s *Store) EditCategory(ctx context.Context, index int, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyText
	}

	s.mu.Lock()
	if err := checkIndex("edit category", index, len(s.categories)); err != nil {
		s.mu.Unlock()
		return err
	}
	next := cloneStrings(s.categories)
	next[index] = newName
	err := s.commitCategories(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Debug("category edited", "index", index, "name", newName)
	s.notify()
	return nil
}

// DeleteCategory removes the category at index and returns its name.
// Tasks referencing it are left untouched.
func (s *Store) DeleteCategory(ctx context.Context, index int) (string, error) {
	s.mu.Lock()
	if err := checkIndex("delete category", index, len(s.categories)); err != nil {
		s.mu.Unlock()
		return "", err
	}
	removed := s.categories[index]
	next := make([]string, 0, len(s.categories)-1)
	next = append(next, s.categories[:index]...)
	next = append(next, s.categories[index+1:]...)
	err := s.commitCategories(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	s.logger.Debug("category deleted", "index", index, "name", removed)
	s.notify()
	return removed, nil
}

// Tasks returns a copy of the task collection.
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

// Categories returns a copy of the category collection.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneStrings(s.categories)
}

// Snapshot returns copies of both collections taken under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Tasks: cloneTasks(s.tasks), Categories: cloneStrings(s.categories)}
}

// IndexOfTask resolves a task identifier to its current position.
func (s *Store) IndexOfTask(id string) (int, bool) {
	if id == "" {
		return -1, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, task := range s.tasks {
		if task.ID == id {
			return i, true
		}
	}
	return -1, false
}

// PastDue reports whether task is past due according to the store's clock.
func (s *Store) PastDue(task model.Task) bool {
	return IsPastDueAt(task.DueDate, s.now())
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Subscribe registers fn to receive a snapshot after every successful
// mutation. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	if len(s.subscribers) == 0 {
		s.mu.RUnlock()
		return
	}
	snap := Snapshot{Tasks: cloneTasks(s.tasks), Categories: cloneStrings(s.categories)}
	fns := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// commitTasks persists next and installs it. Caller holds s.mu.
func (s *Store) commitTasks(ctx context.Context, next []model.Task) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode todos: %w", err)
	}
	if err := s.storage.Set(ctx, storage.KeyTodos, string(data)); err != nil {
		return fmt.Errorf("persist todos: %w", err)
	}
	s.tasks = next
	return nil
}

// commitCategories persists next and installs it. Caller holds s.mu.
func (s *Store) commitCategories(ctx context.Context, next []string) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	if err := s.storage.Set(ctx, storage.KeyCategories, string(data)); err != nil {
		return fmt.Errorf("persist categories: %w", err)
	}
	s.categories = next
	return nil
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks), len(tasks)+1)
	for i, task := range tasks {
		task.DueDate = copyTime(task.DueDate)
		out[i] = task
	}
	return out
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values), len(values)+1)
	copy(out, values)
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
