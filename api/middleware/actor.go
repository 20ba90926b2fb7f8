package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/teahouse-backend/api/responses"
	"github.com/angelmondragon/teahouse-backend/pkg/auth"
	"github.com/angelmondragon/teahouse-backend/pkg/config"
	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

type actorCtxKey struct{}

// ResolveActor attaches an actor to every request. A valid bearer token
// yields a registered actor; otherwise the request proceeds as a guest
// scoped to its session header. A missing session header gets a fresh
// session id so the storefront can adopt it from the response.
func ResolveActor(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader))
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			w.Header().Set(sessionIDHeader, sessionID)

			actor := auth.Guest(sessionID)
			if token := bearerToken(r); token != "" {
				claims, err := auth.ParseSessionToken(cfg, token)
				if err != nil {
					responses.WriteError(r.Context(), logg, w,
						pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token"))
					return
				}
				actor = auth.Actor{
					Email:     claims.Email,
					Name:      claims.Name,
					SessionID: sessionID,
					Role:      claims.Role,
				}
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
				if actor.Email != "" {
					ctx = logg.WithActorEmail(ctx, actor.Email)
					ctx = logg.WithActorRole(ctx, actor.Role.String())
				}
			}
			ctx = context.WithValue(ctx, actorCtxKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose actor is not an admin. It assumes
// ResolveActor already ran.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor.Role != enums.ActorRoleAdmin {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithActor attaches an actor to the context directly, bypassing the
// middleware. Handler tests use it.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

// ActorFromContext returns the actor resolved for the request, or a
// zero-session guest when the middleware never ran.
func ActorFromContext(ctx context.Context) auth.Actor {
	if actor, ok := ctx.Value(actorCtxKey{}).(auth.Actor); ok {
		return actor
	}
	return auth.Guest("")
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
