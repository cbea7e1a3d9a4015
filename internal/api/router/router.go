package router

import (
	"net/http"

	"coolmember/internal/api/handler"
	"coolmember/internal/api/middleware"
	"coolmember/internal/api/util"
	"coolmember/internal/config"
	"coolmember/internal/core/service"
	"coolmember/internal/metrics"

	"github.com/rs/zerolog"
)

func NewRouter(
	memberService service.MemberService,
	serverConfig config.ServerConfig,
	authConfig config.AuthConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) http.Handler {
	// Initialize handlers
	memberHandler := handler.NewMemberHandler(memberService)
	dashboardHandler := handler.NewDashboardHandler(memberService)
	authHandler := handler.NewAuthHandler(authConfig.AccessSecret, authConfig.RefreshSecret)
	authMiddleware := middleware.NewAuthMiddleware(authConfig.AccessSecret)
	logging := middleware.LoggingMiddleware(logger.With().Str("module", "http").Logger(), m)
	cors := middleware.CORSMiddleware(serverConfig.CORSMaxAge)

	mux := http.NewServeMux()

	public := func(h http.Handler) http.Handler {
		return cors(logging(h))
	}
	withAuth := func(h http.Handler) http.Handler {
		return public(authMiddleware.Authenticate(h))
	}

	mux.Handle("/health", public(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		util.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"backend": memberService.ActiveBackend().String(),
		})
	})))

	mux.Handle("/metrics", m.Handler())

	if authConfig.TestLogin {
		mux.Handle("/api/auth/test-login", public(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			authHandler.TestLogin(w, r)
		})))
	}

	// Member routes
	mux.Handle("/api/members", withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		memberHandler.Create(w, r)
	})))

	mux.Handle("/api/members/list", withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		memberHandler.GetMembers(w, r)
	})))

	mux.Handle("/api/members/get", withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		memberHandler.GetMember(w, r)
	})))

	mux.Handle("/api/members/update", withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut, http.MethodPatch:
			memberHandler.Update(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/api/members/delete", withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		memberHandler.Delete(w, r)
	})))

	mux.Handle("/api/dashboard", withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		dashboardHandler.GetDashboard(w, r)
	})))

	return mux
}
