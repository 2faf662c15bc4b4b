package routes

import (
	"todo-service/config"
	"todo-service/handlers"
	"todo-service/middleware"

	"github.com/gorilla/mux"
)

func SetupRoutes(cfg config.Config, authHandler *handlers.AuthHandler, todoHandler *handlers.TodoHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger)

	api := router.PathPrefix("/api").Subrouter()
	api.Handle("/auth/register", middleware.ErrorHandler(authHandler.RegisterHandler)).Methods("POST")
	api.Handle("/auth/login", middleware.ErrorHandler(authHandler.LoginHandler)).Methods("POST")
	api.HandleFunc("/health", handlers.HealthHandler).Methods("GET")

	todos := api.PathPrefix("/todos").Subrouter()
	todos.Use(middleware.AuthMiddleware(cfg))
	todos.Handle("", middleware.ErrorHandler(todoHandler.ListTodosHandler)).Methods("GET")
	todos.Handle("", middleware.ErrorHandler(todoHandler.CreateTodoHandler)).Methods("POST")
	todos.Handle("/{id}", middleware.ErrorHandler(todoHandler.GetTodoHandler)).Methods("GET")
	todos.Handle("/{id}", middleware.ErrorHandler(todoHandler.UpdateTodoHandler)).Methods("PUT")
	todos.Handle("/{id}", middleware.ErrorHandler(todoHandler.DeleteTodoHandler)).Methods("DELETE")

	return router
}
