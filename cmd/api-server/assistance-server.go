package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"assistance/db"
	"assistance/db/migrations"
	"assistance/internal/config"
	"assistance/internal/handlers"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to DB")
	}
	defer dbConn.Close()

	if err := migrations.Run(cfg.PostgresConn); err != nil {
		log.Fatal().Err(err).Msg("cannot run migrations")
	}

	store := db.NewStorage(dbConn)
	h := handlers.NewHandler(store, log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		// пользователи
		r.Post("/users/new", h.RegisterUserHandler)
		r.Get("/users", h.GetUsersHandler)
		r.Get("/users/{username}", h.GetUserHandler)
		r.Patch("/users/{username}/profile", h.UpdateUserProfileHandler)
		r.Patch("/users/{username}/contacts", h.UpdateUserContactsHandler)
		r.Patch("/users/{username}/settings", h.UpdateUserSettingsHandler)

		// задания
		r.Post("/tasks/new", h.CreateTaskHandler)
		r.Get("/tasks", h.GetTasksHandler)
		r.Get("/tasks/my", h.GetUserTasksHandler)
		r.Get("/tasks/{taskId}", h.GetTaskHandler)
		r.Patch("/tasks/{taskId}/edit", h.EditTaskHandler)
		r.Delete("/tasks/{taskId}", h.DeleteTaskHandler)
		r.Put("/tasks/{taskId}/close", h.CloseTaskHandler)
		r.Post("/tasks/{taskId}/files", h.AddTaskFileHandler)

		// заявки и назначение исполнителя
		r.Post("/tasks/{taskId}/apply", h.ApplyHandler)
		r.Get("/tasks/{taskId}/applications", h.GetTaskApplicationsHandler)
		r.Get("/applications/my", h.GetUserApplicationsHandler)
		r.Put("/tasks/{taskId}/implementer", h.AssignImplementerHandler)
		r.Get("/tasks/{taskId}/implementer", h.GetTaskImplementerHandler)

		// отзывы
		r.Post("/tasks/{taskId}/reviews", h.SubmitReviewHandler)
		r.Get("/tasks/{taskId}/reviews", h.GetTaskReviewsHandler)

		// уведомления
		r.Get("/notifications", h.GetNotificationsHandler)

		// справочники
		r.Post("/tags/new", h.CreateTagHandler)
		r.Get("/tags", h.GetTagsHandler)
		r.Post("/subjects/new", h.CreateSubjectHandler)
		r.Get("/subjects", h.GetSubjectsHandler)
		r.Get("/info", h.InformationalHandler)
	})

	log.Info().Str("addr", cfg.ServerAddress).Msg("starting server")
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// requestLogger пишет строку на каждый запрос
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		})
	}
}
