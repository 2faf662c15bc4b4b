package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"todo-service/middleware"
	"todo-service/models"
	"todo-service/store"

	"github.com/gorilla/mux"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 1000
)

type todoRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   *bool      `json:"completed"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

type TodoHandler struct {
	users store.UserStore
	todos store.TodoStore
}

func NewTodoHandler(users store.UserStore, todos store.TodoStore) *TodoHandler {
	return &TodoHandler{users: users, todos: todos}
}

// ListTodosHandler returns all of the caller's todos, optionally filtered by
// the ?completed= query parameter.
func (h *TodoHandler) ListTodosHandler(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	user, err := h.currentUser(r)
	if err != nil {
		return err
	}

	var todos []models.Todo
	if raw := r.URL.Query().Get("completed"); raw != "" {
		completed, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			return middleware.NewValidationError(map[string]string{"completed": "Completed must be true or false"})
		}
		todos, err = h.todos.ListByUserAndCompleted(r.Context(), user.ID, completed)
	} else {
		todos, err = h.todos.ListByUser(r.Context(), user.ID)
	}
	if err != nil {
		log.Printf("Error listing todos: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}

	return json.NewEncoder(w).Encode(todos)
}

func (h *TodoHandler) GetTodoHandler(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	user, err := h.currentUser(r)
	if err != nil {
		return err
	}

	id, err := todoID(r)
	if err != nil {
		return err
	}

	todo, err := h.todos.FindByIDAndUser(r.Context(), id, user.ID)
	if err != nil {
		return todoStoreError(err)
	}

	return json.NewEncoder(w).Encode(todo)
}

func (h *TodoHandler) CreateTodoHandler(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	user, err := h.currentUser(r)
	if err != nil {
		return err
	}

	req, err := decodeTodoRequest(r)
	if err != nil {
		return err
	}

	todo := todoFromRequest(req)
	todo.UserID = user.ID
	if err := h.todos.Create(r.Context(), todo); err != nil {
		log.Printf("Error creating todo: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}

	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(todo)
}

// UpdateTodoHandler is a full replace: every mutable field is overwritten
// with the request values, id and owner stay unchanged.
func (h *TodoHandler) UpdateTodoHandler(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	user, err := h.currentUser(r)
	if err != nil {
		return err
	}

	id, err := todoID(r)
	if err != nil {
		return err
	}

	req, err := decodeTodoRequest(r)
	if err != nil {
		return err
	}

	todo := todoFromRequest(req)
	todo.ID = id
	todo.UserID = user.ID
	if err := h.todos.Update(r.Context(), todo); err != nil {
		return todoStoreError(err)
	}

	return json.NewEncoder(w).Encode(todo)
}

func (h *TodoHandler) DeleteTodoHandler(w http.ResponseWriter, r *http.Request) error {
	user, err := h.currentUser(r)
	if err != nil {
		return err
	}

	id, err := todoID(r)
	if err != nil {
		return err
	}

	if err := h.todos.DeleteByIDAndUser(r.Context(), id, user.ID); err != nil {
		return todoStoreError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// currentUser resolves the caller from the claims the auth middleware placed
// in the request context. A valid token whose user row is gone is an
// invariant violation and surfaces as a server error, never as 404.
func (h *TodoHandler) currentUser(r *http.Request) (*models.User, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil, middleware.NewAppError(http.StatusUnauthorized, "Authentication required", nil)
	}

	user, err := h.users.FindByUsername(r.Context(), claims.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("Token subject has no user row: username=%s", claims.Username)
			return nil, middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
		}
		log.Printf("Error loading current user: %v", err)
		return nil, middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
	return user, nil
}

func todoID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, middleware.NewValidationError(map[string]string{"id": "Id must be a positive integer"})
	}
	return id, nil
}

func decodeTodoRequest(r *http.Request) (*todoRequest, error) {
	var req todoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, middleware.NewAppError(http.StatusBadRequest, "Invalid request payload", err)
	}
	if fields := validateTodoRequest(&req); len(fields) > 0 {
		return nil, middleware.NewValidationError(fields)
	}
	return &req, nil
}

func validateTodoRequest(req *todoRequest) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "Title is required"
	} else if len(req.Title) > maxTitleLength {
		fields["title"] = "Title must not exceed 255 characters"
	}

	if len(req.Description) > maxDescriptionLength {
		fields["description"] = "Description must not exceed 1000 characters"
	}

	if req.Priority != "" && !models.Priority(req.Priority).Valid() {
		fields["priority"] = "Priority must be one of LOW, MEDIUM, HIGH"
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func todoFromRequest(req *todoRequest) *models.Todo {
	todo := &models.Todo{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.PriorityMedium,
		DueDate:     req.DueDate,
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}
	if req.Priority != "" {
		todo.Priority = models.Priority(req.Priority)
	}
	return todo
}

func todoStoreError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return middleware.NewAppError(http.StatusNotFound, "Todo not found", err)
	}
	log.Printf("Todo store error: %v", err)
	return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
}
