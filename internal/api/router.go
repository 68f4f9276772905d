package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/safecollab/safecollab/internal/access"
	"github.com/safecollab/safecollab/internal/auth"
	"github.com/safecollab/safecollab/internal/group"
	"github.com/safecollab/safecollab/internal/membership"
	"github.com/safecollab/safecollab/internal/metrics"
	"github.com/safecollab/safecollab/internal/ratelimit"
	"github.com/safecollab/safecollab/internal/rbac"
	"github.com/safecollab/safecollab/internal/record"
	"github.com/safecollab/safecollab/internal/respond"
)

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	DBPool         Pinger // optional; health reports "connected" when nil
	Users          UserStore
	Sessions       auth.SessionLookup
	Memberships    access.MembershipFinder
	Groups         *group.Service
	Members        *membership.Service
	Records        *record.Service
	AuthLimiter    *ratelimit.Limiter
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	MaxBodySize    int64
	TrustProxy     bool // take client IPs from proxy headers
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	m := deps.Metrics

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(slogRequestLogger)
	r.Use(metricsMiddleware(m))

	gate := access.NewGate(access.NewResolver(deps.Memberships), m)
	requireSession := auth.SessionMiddleware(deps.Sessions, func() { m.IncAuthFailure("session") })
	limitAuth := ratelimit.Middleware(deps.AuthLimiter, func() { m.IncRateLimitRejection("auth") })

	// Handlers.
	authH := &authHandler{
		users:       deps.Users,
		members:     deps.Members,
		onSuccess:   m.IncAuthSuccess,
		onFailure:   m.IncAuthFailure,
		maxBodySize: deps.MaxBodySize,
	}
	groupsH := &groupsHandler{
		groups:      deps.Groups,
		members:     deps.Members,
		observe:     m.ObserveGroupLifecycle,
		maxBodySize: deps.MaxBodySize,
	}
	membersH := &membersHandler{members: deps.Members, maxBodySize: deps.MaxBodySize}
	recordsH := &recordsHandler{records: deps.Records, maxBodySize: deps.MaxBodySize}

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.DBPool != nil {
			if err := deps.DBPool.Ping(r.Context()); err != nil {
				respond.JSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":   "unavailable",
					"database": "unreachable",
				})
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{
			"status":   "ok",
			"database": "connected",
		})
	})

	// Metrics.
	r.Handle("/metrics", m.PromHandler())
	r.Get("/api/v1/metrics/summary", m.Handler())

	r.Route("/api/v1", func(ar chi.Router) {
		// Public auth routes, rate limited per client IP.
		ar.With(limitAuth).Post("/auth/register", authH.Register)
		ar.With(limitAuth).Post("/auth/login", authH.Login)

		// Session-authed routes.
		ar.Group(func(sr chi.Router) {
			sr.Use(requireSession)

			sr.Get("/auth/me", authH.Me)
			sr.Post("/auth/logout", authH.Logout)

			sr.Get("/groups", groupsH.List)
			sr.Post("/groups", groupsH.Create)
			sr.With(gate.Require(rbac.DeleteGroup)).Delete("/groups/{groupID}", groupsH.Delete)

			// Active-group routes: the group comes from the X-Group-ID header
			// and the role from the membership store, on every request.
			sr.With(gate.Require(rbac.Read)).Get("/group/role", groupsH.Role)

			sr.Route("/group/members", func(mr chi.Router) {
				mr.Use(gate.Require(rbac.ManageMembers))
				mr.Get("/", membersH.List)
				mr.Post("/", membersH.Add)
				mr.Put("/{membershipID}", membersH.UpdateRole)
				mr.Delete("/{membershipID}", membersH.Remove)
			})

			sr.With(gate.Require(rbac.Read)).Get("/records", recordsH.List)
			sr.With(gate.Require(rbac.Create)).Post("/records", recordsH.Create)
			sr.With(gate.Require(rbac.Update)).Put("/records/{recordID}", recordsH.Update)
			sr.With(gate.Require(rbac.Delete)).Delete("/records/{recordID}", recordsH.Delete)
		})
	})

	return r
}
