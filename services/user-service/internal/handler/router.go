package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	usertypes "github.com/vasapolrittideah/platform-api/services/user-service/pkg/types"
	"github.com/vasapolrittideah/platform-api/shared/auth"
	"github.com/vasapolrittideah/platform-api/shared/middleware"
)

// NewRouter wires the user service routes. Everything below /api/users,
// /api/me and /api/groups requires an access token.
func NewRouter(
	h *UserHTTPHandler,
	jwtAuth auth.JWTAuthenticator,
	accessTokenSecret string,
	mediaDir string,
	logger *zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if mediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir))))
	}

	requireAuth := middleware.NewJWTMiddleware(
		jwtAuth,
		accessTokenSecret,
		func() jwt.Claims { return &usertypes.JWTClaims{} },
		h.writeError,
	)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Route("/recovery", func(r chi.Router) {
			r.Post("/", h.RequestRecovery)
			r.Get("/{token}", h.ValidateRecoveryToken)
			r.Post("/{token}", h.ConsumeRecovery)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, h.requireActor)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/username/{username}", h.GetUserByUsername)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetUser)
					r.Put("/", h.UpdateUser)
					r.Delete("/", h.DeleteUser)
					r.Get("/audit", h.GetUserAudit)
					r.Post("/password", h.AdminChangePassword)
					r.Post("/change-password", h.ChangePassword)
				})
			})

			r.Post("/me/avatar", h.UploadAvatar)

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", h.ListGroups)
				r.Post("/", h.CreateGroup)
				r.Get("/{id}", h.GetGroup)
				r.Get("/{id}/members", h.GetGroupMembers)
				r.Put("/{id}/members", h.SetGroupMembers)
			})
		})
	})

	return r
}
