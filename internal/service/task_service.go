package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/store"
)

// ErrTaskNotFound is returned when a task identifier no longer resolves.
var ErrTaskNotFound = errors.New("task not found")

// TaskInput represents data required to create or edit a task.
type TaskInput struct {
	Text     string
	Category string
	DueDate  *time.Time
}

// TaskService wraps task operations for an origin.
type TaskService struct {
	stores *Registry
}

func NewTaskService(stores *Registry) *TaskService {
	return &TaskService{stores: stores}
}

// Store returns the origin's store for read-side rendering.
func (s *TaskService) Store(ctx context.Context, origin string) (*store.Store, error) {
	return s.stores.Store(ctx, origin)
}

func (s *TaskService) CreateTask(ctx context.Context, origin string, input TaskInput) (model.Task, error) {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return model.Task{}, err
	}
	task, err := st.AddTask(ctx, input.Text, input.DueDate, input.Category)
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// List returns every task in collection order.
func (s *TaskService) List(ctx context.Context, origin string) ([]model.Task, error) {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return nil, err
	}
	return st.Tasks(), nil
}

// Filter returns the rows matching pred.
func (s *TaskService) Filter(ctx context.Context, origin string, pred store.Predicate) ([]store.Row, error) {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return nil, err
	}
	return st.FilterTasks(pred), nil
}

// ToggleTask flips the task at index.
func (s *TaskService) ToggleTask(ctx context.Context, origin string, index int) (model.Task, error) {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return model.Task{}, err
	}
	return st.ToggleTask(ctx, index)
}

// ToggleTaskByID resolves id to its current position and flips that task.
func (s *TaskService) ToggleTaskByID(ctx context.Context, origin, id string) (model.Task, error) {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return model.Task{}, err
	}
	index, ok := st.IndexOfTask(id)
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	return st.ToggleTask(ctx, index)
}

// EditTask replaces text, due date and category of the task at index.
func (s *TaskService) EditTask(ctx context.Context, origin string, index int, input TaskInput) (model.Task, error) {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return model.Task{}, err
	}
	return st.EditTask(ctx, index, input.Text, input.DueDate, input.Category)
}

// DeleteTask removes the task at index.
func (s *TaskService) DeleteTask(ctx context.Context, origin string, index int) (model.Task, error) {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return model.Task{}, err
	}
	return st.DeleteTask(ctx, index)
}

// DeleteTaskByID resolves id to its current position and removes that task.
func (s *TaskService) DeleteTaskByID(ctx context.Context, origin, id string) (model.Task, error) {
	st, err := s.stores.Store(ctx, origin)
	if err != nil {
		return model.Task{}, err
	}
	index, ok := st.IndexOfTask(id)
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	return st.DeleteTask(ctx, index)
}
