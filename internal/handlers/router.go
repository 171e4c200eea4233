package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"mindwell/internal/auth"
	"mindwell/internal/chat"
	mw "mindwell/internal/middleware"
	"mindwell/internal/models"
	"mindwell/internal/risk"
	"mindwell/internal/store"
)

type Deps struct {
	Store          store.Store
	Issuer         *auth.Issuer
	Chat           *chat.Service
	Risk           *risk.Service
	Logger         *zap.Logger
	WebhookSecret  string
	CORSOrigins    []string
	InsightsWindow int
	Location       *time.Location
}

func NewRouter(d Deps) http.Handler {
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(d.Logger))
	r.Use(mw.Recoverer(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authHandler := NewAuthHandler(d.Store, d.Issuer, d.Logger)
	userHandler := NewUserHandler(d.Store, d.Logger)
	moodHandler := NewMoodHandler(d.Store, d.Logger)
	importHandler := NewImportHandler(d.Store, d.Store, d.Logger)
	insightsHandler := NewInsightsHandler(d.Store, d.InsightsWindow, d.Location, d.Logger)
	chatHandler := NewChatHandler(d.Chat, d.Logger)
	convHandler := NewConversationHandler(d.Chat, d.Logger)
	oversight := NewOversightHandler(d.Store, d.Logger)
	hooks := NewHookHandler(d.Risk, d.WebhookSecret, d.Logger)
	authMW := mw.NewAuthMiddleware(d.Issuer, d.Store, d.Logger)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", authHandler.Signup)
		api.Post("/auth/login", authHandler.Login)
		api.Post("/hooks/messages", hooks.MessageInserted)

		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)

			pr.Get("/me", userHandler.GetMe)
			pr.Patch("/me", userHandler.UpdateMe)

			pr.Post("/moods", moodHandler.Create)
			pr.Get("/moods", moodHandler.List)
			pr.Delete("/moods/{id}", moodHandler.Delete)
			pr.Post("/moods/import", importHandler.Import)
			pr.Get("/insights", insightsHandler.Get)

			pr.Post("/chat", chatHandler.Chat)
			pr.Get("/conversations", convHandler.List)
			pr.Post("/conversations", convHandler.Create)
			pr.Get("/conversations/{id}/messages", convHandler.Messages)
			pr.Post("/conversations/{id}/messages", convHandler.Send)
			pr.Post("/conversations/{id}/messages/stream", convHandler.Stream)

			pr.With(authMW.RequireRole(models.RoleCounselor)).
				Get("/counselor/conversations", oversight.FlaggedConversations)
			pr.With(authMW.RequireRole(models.RoleEmployer)).
				Get("/employer/overview", oversight.EmployerOverview)
		})
	})

	return r
}
