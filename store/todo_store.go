package store

import (
	"context"
	"database/sql"
	"fmt"

	"todo-service/models"
)

// TodoStore persists todos. Every query is scoped by the owning user's id;
// there is deliberately no unscoped accessor.
type TodoStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Todo, error)
	ListByUserAndCompleted(ctx context.Context, userID int64, completed bool) ([]models.Todo, error)
	FindByIDAndUser(ctx context.Context, id, userID int64) (*models.Todo, error)
	Create(ctx context.Context, todo *models.Todo) error
	Update(ctx context.Context, todo *models.Todo) error
	DeleteByIDAndUser(ctx context.Context, id, userID int64) error
}

const todoColumns = "id, title, description, completed, priority, due_date, created_at, updated_at, user_id"

type PostgresTodoStore struct {
	db *sql.DB
}

func NewPostgresTodoStore(db *sql.DB) *PostgresTodoStore {
	return &PostgresTodoStore{db: db}
}

func (s *PostgresTodoStore) ListByUser(ctx context.Context, userID int64) ([]models.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE user_id = $1 ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("error listing todos: %w", err)
	}
	defer rows.Close()
	return collectTodos(rows)
}

func (s *PostgresTodoStore) ListByUserAndCompleted(ctx context.Context, userID int64, completed bool) ([]models.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE user_id = $1 AND completed = $2 ORDER BY id",
		userID, completed)
	if err != nil {
		return nil, fmt.Errorf("error listing todos: %w", err)
	}
	defer rows.Close()
	return collectTodos(rows)
}

func (s *PostgresTodoStore) FindByIDAndUser(ctx context.Context, id, userID int64) (*models.Todo, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE id = $1 AND user_id = $2", id, userID)
	todo := &models.Todo{}
	if err := scanTodo(row, todo); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error loading todo: %w", err)
	}
	return todo, nil
}

func (s *PostgresTodoStore) Create(ctx context.Context, todo *models.Todo) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO todos (title, description, completed, priority, due_date, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		todo.Title, nullString(todo.Description), todo.Completed, todo.Priority, todo.DueDate, todo.UserID).
		Scan(&todo.ID, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating todo: %w", err)
	}
	return nil
}

// Update overwrites all mutable fields of the caller's todo in a single
// statement and refreshes updated_at. Zero matched rows means the todo does
// not exist or belongs to another user.
func (s *PostgresTodoStore) Update(ctx context.Context, todo *models.Todo) error {
	err := s.db.QueryRowContext(ctx,
		`UPDATE todos
		 SET title = $1, description = $2, completed = $3, priority = $4, due_date = $5, updated_at = now()
		 WHERE id = $6 AND user_id = $7
		 RETURNING created_at, updated_at`,
		todo.Title, nullString(todo.Description), todo.Completed, todo.Priority, todo.DueDate,
		todo.ID, todo.UserID).
		Scan(&todo.CreatedAt, &todo.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("error updating todo: %w", err)
	}
	return nil
}

// DeleteByIDAndUser removes the caller's todo. The lookup and delete are one
// statement, so concurrent deletes of the same id cannot both report success.
func (s *PostgresTodoStore) DeleteByIDAndUser(ctx context.Context, id, userID int64) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM todos WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("error deleting todo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting todo: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTodo(row rowScanner, todo *models.Todo) error {
	var description sql.NullString
	if err := row.Scan(&todo.ID, &todo.Title, &description, &todo.Completed, &todo.Priority,
		&todo.DueDate, &todo.CreatedAt, &todo.UpdatedAt, &todo.UserID); err != nil {
		return err
	}
	todo.Description = description.String
	return nil
}

func collectTodos(rows *sql.Rows) ([]models.Todo, error) {
	todos := []models.Todo{}
	for rows.Next() {
		var todo models.Todo
		if err := scanTodo(rows, &todo); err != nil {
			return nil, fmt.Errorf("error scanning todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading todos: %w", err)
	}
	return todos, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
