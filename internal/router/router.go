package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studyden-backend/internal/handlers"
	"studyden-backend/internal/middleware"
	"studyden-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	sessionHandler *handlers.SessionHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	courseHandler *handlers.CourseHandler,
	taskHandler *handlers.TaskHandler,
	examHandler *handlers.ExamHandler,
	noteHandler *handlers.NoteHandler,
	suggestionHandler *handlers.SuggestionHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// The AI planner is the expensive surface (20 req/min per IP)
	suggestionLimiter := middleware.NewRateLimiter(20, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Study Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/start", sessionHandler.Start)
			r.Get("/active", sessionHandler.Active)
			r.Get("/", sessionHandler.List)
			r.Get("/{id}", sessionHandler.Get)
			r.Post("/{id}/pause", sessionHandler.Pause)
			r.Post("/{id}/resume", sessionHandler.Resume)
			r.Post("/{id}/complete", sessionHandler.Complete)
			r.Post("/{id}/interrupt", sessionHandler.Interrupt)
			r.Post("/{id}/cancel", sessionHandler.Cancel)
		})

		// ──── Analytics Routes ────
		r.Route("/analytics", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/summary", analyticsHandler.Summary)
			r.Get("/total-minutes", analyticsHandler.TotalMinutes)
			r.Get("/streak", analyticsHandler.Streak)
			r.Get("/top-courses", analyticsHandler.TopCourses)
			r.Get("/time-of-day", analyticsHandler.TimeOfDay)
			r.Get("/completion-rate", analyticsHandler.CompletionRate)
		})

		// ──── Course Routes ────
		r.Route("/courses", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", courseHandler.Create)
			r.Get("/", courseHandler.List)
			r.Get("/{id}", courseHandler.Get)
			r.Put("/{id}", courseHandler.Update)
			r.Put("/{id}/archive", courseHandler.Archive)
			r.Delete("/{id}", courseHandler.Delete)
		})

		// ──── Task Routes ────
		r.Route("/tasks", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", taskHandler.Create)
			r.Get("/", taskHandler.List)
			r.Get("/{id}", taskHandler.Get)
			r.Put("/{id}", taskHandler.Update)
			r.Put("/{id}/status", taskHandler.SetStatus)
			r.Delete("/{id}", taskHandler.Delete)
		})

		// ──── Exam Routes ────
		r.Route("/exams", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", examHandler.Create)
			r.Get("/", examHandler.List)
			r.Get("/{id}", examHandler.Get)
			r.Put("/{id}", examHandler.Update)
			r.Delete("/{id}", examHandler.Delete)
		})

		// ──── Note Routes ────
		r.Route("/notes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", noteHandler.Create)
			r.Get("/", noteHandler.List)
			r.Get("/{id}", noteHandler.Get)
			r.Put("/{id}", noteHandler.Update)
			r.Delete("/{id}", noteHandler.Delete)
		})

		// ──── Suggestion Routes ────
		r.Route("/suggestions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(suggestionLimiter.Middleware)
			r.Get("/next-session", suggestionHandler.NextSession)
			r.Post("/summarize-session", suggestionHandler.SummarizeSession)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
