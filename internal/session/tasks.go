package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/verte-zerg/paperlist/internal/model"
	"github.com/verte-zerg/paperlist/internal/store"
)

// Tasks returns all tasks in display order.
func (s *Service) Tasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return tasks, nil
}

// AddTask appends a task to the end of the list.
func (s *Service) AddTask(ctx context.Context, content string) (model.Task, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return model.Task{}, err
	}
	task, err := s.store.CreateTask(ctx, content)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to add task: %w", err)
	}
	return task, nil
}

// AddTasks appends several tasks at once. Nothing is added if any is invalid.
func (s *Service) AddTasks(ctx context.Context, contents []string) ([]model.Task, error) {
	normalized := make([]string, 0, len(contents))
	for _, content := range contents {
		content, err := normalizeContent(content)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, content)
	}
	tasks := make([]model.Task, 0, len(normalized))
	err := s.store.WithinTx(ctx, func(tx *store.Tx) error {
		for _, content := range normalized {
			task, err := tx.CreateTask(ctx, content)
			if err != nil {
				return err
			}
			tasks = append(tasks, task)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add tasks: %w", err)
	}
	s.log.Debug("tasks added", "count", len(tasks))
	return tasks, nil
}

// EditTask replaces the content of a task.
func (s *Service) EditTask(ctx context.Context, id int64, content string) (model.Task, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return model.Task{}, err
	}
	var task model.Task
	err = s.store.WithinTx(ctx, func(tx *store.Tx) error {
		var err error
		task, err = tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		task.Content = content
		return tx.UpdateTask(ctx, task)
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to edit task: %w", err)
	}
	return task, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// SetTaskCompleted checks or unchecks a task. Tasks can only be checked while
// the list is running.
func (s *Service) SetTaskCompleted(ctx context.Context, id int64, completed bool) (model.Task, error) {
	var task model.Task
	err := s.store.WithinTx(ctx, func(tx *store.Tx) error {
		session, err := tx.GetSession(ctx)
		if err != nil {
			return err
		}
		if session.Status != model.StatusRunning {
			return fmt.Errorf("%w: start the list to check tasks", ErrNotRunning)
		}
		task, err = tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		task.Completed = completed
		return tx.UpdateTask(ctx, task)
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// ReorderTasks sets the display order to the order of ids.
func (s *Service) ReorderTasks(ctx context.Context, ids []int64) ([]model.Task, error) {
	if err := s.store.ReorderTasks(ctx, ids); err != nil {
		return nil, fmt.Errorf("failed to reorder tasks: %w", err)
	}
	return s.Tasks(ctx)
}

// MoveTask shifts a task by delta positions, clamped to the list bounds.
func (s *Service) MoveTask(ctx context.Context, id int64, delta int) ([]model.Task, error) {
	var tasks []model.Task
	err := s.store.WithinTx(ctx, func(tx *store.Tx) error {
		var err error
		tasks, err = tx.ListTasks(ctx)
		if err != nil {
			return err
		}
		from := -1
		for i, task := range tasks {
			if task.ID == id {
				from = i
				break
			}
		}
		if from < 0 {
			return fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
		to := from + delta
		if to < 0 {
			to = 0
		}
		if to > len(tasks)-1 {
			to = len(tasks) - 1
		}
		if to == from {
			return nil
		}
		moved := tasks[from]
		tasks = append(tasks[:from], tasks[from+1:]...)
		tasks = append(tasks[:to], append([]model.Task{moved}, tasks[to:]...)...)
		ids := make([]int64, len(tasks))
		for i := range tasks {
			tasks[i].Order = i
			ids[i] = tasks[i].ID
		}
		return tx.ReorderTasks(ctx, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to move task: %w", err)
	}
	return tasks, nil
}

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: task must not be empty", ErrInvalidInput)
	}
	return content, nil
}
