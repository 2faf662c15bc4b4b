package store

import (
	"context"
	"testing"
	"time"

	"todo-service/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var todoRows = []string{"id", "title", "description", "completed", "priority", "due_date", "created_at", "updated_at", "user_id"}

func TestListByUser(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM todos WHERE user_id = \$1 ORDER BY id`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(todoRows).
			AddRow(int64(1), "Buy milk", "2 litres", false, "HIGH", nil, now, now, int64(1)).
			AddRow(int64(2), "Walk dog", nil, true, "MEDIUM", nil, now, now, int64(1)))

	todos := NewPostgresTodoStore(mockDB)
	list, err := todos.ListByUser(context.Background(), 1)
	assert.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "Buy milk", list[0].Title)
	assert.Equal(t, "2 litres", list[0].Description)
	assert.Equal(t, models.PriorityHigh, list[0].Priority)
	assert.Empty(t, list[1].Description)
	assert.True(t, list[1].Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUserEmpty(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT .+ FROM todos WHERE user_id = \$1 ORDER BY id`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(todoRows))

	todos := NewPostgresTodoStore(mockDB)
	list, err := todos.ListByUser(context.Background(), 5)
	assert.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUserAndCompleted(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM todos WHERE user_id = \$1 AND completed = \$2 ORDER BY id`).
		WithArgs(int64(1), true).
		WillReturnRows(sqlmock.NewRows(todoRows).
			AddRow(int64(2), "Walk dog", nil, true, "LOW", nil, now, now, int64(1)))

	todos := NewPostgresTodoStore(mockDB)
	list, err := todos.ListByUserAndCompleted(context.Background(), 1, true)
	assert.NoError(t, err)
	assert.Len(t, list, 1)
	assert.True(t, list[0].Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDAndUser(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	now := time.Now()
	due := now.Add(24 * time.Hour)
	mock.ExpectQuery(`SELECT .+ FROM todos WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(sqlmock.NewRows(todoRows).
			AddRow(int64(3), "Buy milk", "2 litres", false, "HIGH", due, now, now, int64(1)))

	todos := NewPostgresTodoStore(mockDB)
	todo, err := todos.FindByIDAndUser(context.Background(), 3, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), todo.ID)
	assert.NotNil(t, todo.DueDate)
	assert.WithinDuration(t, due, *todo.DueDate, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDAndUserNotOwned(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT .+ FROM todos WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(3), int64(2)).
		WillReturnRows(sqlmock.NewRows(todoRows))

	todos := NewPostgresTodoStore(mockDB)
	_, err = todos.FindByIDAndUser(context.Background(), 3, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTodoAssignsIDAndTimestamps(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO todos`).
		WithArgs("Buy milk", "2 litres", false, models.PriorityHigh, nil, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(10), now, now))

	todos := NewPostgresTodoStore(mockDB)
	todo := &models.Todo{Title: "Buy milk", Description: "2 litres", Priority: models.PriorityHigh, UserID: 1}
	assert.NoError(t, todos.Create(context.Background(), todo))
	assert.Equal(t, int64(10), todo.ID)
	assert.False(t, todo.CreatedAt.IsZero())
	assert.False(t, todo.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTodoRefreshesTimestamps(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	created := time.Now().Add(-time.Hour)
	updated := time.Now()
	mock.ExpectQuery(`UPDATE todos`).
		WithArgs("Buy milk and eggs", sqlmock.AnyArg(), true, models.PriorityLow, nil, int64(10), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, updated))

	todos := NewPostgresTodoStore(mockDB)
	todo := &models.Todo{ID: 10, Title: "Buy milk and eggs", Completed: true, Priority: models.PriorityLow, UserID: 1}
	assert.NoError(t, todos.Update(context.Background(), todo))
	assert.WithinDuration(t, created, todo.CreatedAt, time.Second)
	assert.WithinDuration(t, updated, todo.UpdatedAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTodoNotOwned(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery(`UPDATE todos`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}))

	todos := NewPostgresTodoStore(mockDB)
	todo := &models.Todo{ID: 10, Title: "Buy milk", Priority: models.PriorityMedium, UserID: 2}
	assert.ErrorIs(t, todos.Update(context.Background(), todo), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTodo(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec(`DELETE FROM todos WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(10), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	todos := NewPostgresTodoStore(mockDB)
	assert.NoError(t, todos.DeleteByIDAndUser(context.Background(), 10, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTodoNotOwned(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec(`DELETE FROM todos WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(10), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	todos := NewPostgresTodoStore(mockDB)
	assert.ErrorIs(t, todos.DeleteByIDAndUser(context.Background(), 10, 2), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
