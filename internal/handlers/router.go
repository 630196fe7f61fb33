package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"popstack/internal/auth"
	"popstack/internal/logging"
	"popstack/internal/metrics"
	"popstack/internal/services"
)

// loginAttemptsPerMinute caps demo sign-ins per client IP.
const loginAttemptsPerMinute = 10

type RouterOptions struct {
	Services    *services.Services
	Auth        auth.Middleware
	Demo        *auth.DemoCredentials // nil outside demo mode
	Logger      zerolog.Logger
	CORSOrigins []string
	RateLimit   int    // requests per minute per IP, 0 disables
	StaticDir   string // built web client, optional
}

func NewRouter(opts RouterOptions) http.Handler {
	svc := opts.Services

	userHandler := NewUserHandler(svc)
	friendHandler := NewFriendHandler(svc.Friends)
	feedHandler := NewFeedHandler(svc.Activity)
	reviewHandler := NewReviewHandler(svc.Reviews)
	watchlistHandler := NewWatchlistHandler(svc.Watchlist)
	collectionHandler := NewCollectionHandler(svc.Collections)
	catalogHandler := NewCatalogHandler(svc.Catalog)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		if opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}

		if opts.Demo != nil {
			authHandler := NewAuthHandler(*opts.Demo, svc.Profiles)
			r.With(httprate.LimitByIP(loginAttemptsPerMinute, time.Minute)).
				Post("/auth/login", authHandler.Login)
		}

		r.Route("/catalog/{kind}", func(r chi.Router) {
			r.Get("/search", catalogHandler.Search)
			r.Get("/lists/{list}", catalogHandler.List)
			r.Get("/genres", catalogHandler.Genres)
			r.Get("/discover", catalogHandler.Discover)
			r.Get("/{id}", catalogHandler.Details)
		})

		r.Group(func(r chi.Router) {
			r.Use(opts.Auth)

			r.Get("/me", userHandler.GetCurrentUser)
			r.Put("/me", userHandler.UpdateCurrentUser)
			r.Get("/me/preferences", userHandler.GetUserPreferences)
			r.Put("/me/preferences", userHandler.UpdateUserPreferences)
			r.Get("/me/stats", userHandler.GetStats)
			r.Get("/me/favorites", userHandler.GetFavorites)

			r.Get("/users/search", friendHandler.SearchUsers)
			r.Get("/users/{id}", userHandler.GetUser)
			r.Get("/users/{id}/stats", userHandler.GetStats)
			r.Get("/users/{id}/favorites", userHandler.GetFavorites)
			r.Get("/users/{id}/collections", userHandler.GetUserCollections)

			r.Get("/friends", friendHandler.ListFriends)
			r.Delete("/friends/{id}", friendHandler.RemoveFriend)
			r.Get("/friends/requests/incoming", friendHandler.IncomingRequests)
			r.Get("/friends/requests/outgoing", friendHandler.OutgoingRequests)
			r.Post("/friends/requests", friendHandler.SendRequest)
			r.Post("/friends/requests/{id}/accept", friendHandler.AcceptRequest)
			r.Delete("/friends/requests/{id}", friendHandler.RejectRequest)

			r.Get("/feed/friends", feedHandler.GetFriendsFeed)

			r.Get("/reviews", reviewHandler.ListAll)
			r.Get("/reviews/{kind}", reviewHandler.List)
			r.Get("/reviews/{kind}/{mediaId}", reviewHandler.Get)
			r.Put("/reviews/{kind}/{mediaId}", reviewHandler.Save)
			r.Delete("/reviews/{kind}/{mediaId}", reviewHandler.Delete)

			r.Get("/watchlist", watchlistHandler.List)
			r.Get("/watchlist/{kind}/{mediaId}", watchlistHandler.Contains)
			r.Put("/watchlist/{kind}/{mediaId}", watchlistHandler.Add)
			r.Delete("/watchlist/{kind}/{mediaId}", watchlistHandler.Remove)

			r.Get("/collections", collectionHandler.GetCollections)
			r.Post("/collections", collectionHandler.CreateCollection)
			r.Get("/collections/containing/{kind}/{mediaId}", collectionHandler.Containing)
			r.Get("/collections/{id}", collectionHandler.GetCollection)
			r.Put("/collections/{id}", collectionHandler.UpdateCollection)
			r.Delete("/collections/{id}", collectionHandler.DeleteCollection)
			r.Post("/collections/{id}/items", collectionHandler.AddItem)
			r.Delete("/collections/{id}/items/{itemId}", collectionHandler.RemoveItem)
		})
	})

	if opts.StaticDir != "" {
		if _, err := os.Stat(opts.StaticDir); err == nil {
			opts.Logger.Info().Str("dir", opts.StaticDir).Msg("serving web client")
			r.NotFound(spaHandler(opts.StaticDir))
		} else {
			opts.Logger.Warn().Str("dir", opts.StaticDir).Msg("static dir not found, web client disabled")
		}
	}
	return r
}

// spaHandler serves the built web client, falling back to index.html so
// client-side routes resolve.
func spaHandler(dir string) http.HandlerFunc {
	files := addCacheHeaders(http.FileServer(http.Dir(dir)))
	return func(w http.ResponseWriter, r *http.Request) {
		if (r.Method != http.MethodGet && r.Method != http.MethodHead) || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		path := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			r.URL.Path = "/"
		}
		files.ServeHTTP(w, r)
	}
}

// addCacheHeaders keeps index.html fresh and lets hashed assets be cached.
func addCacheHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" || r.URL.Path == "/index.html" {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=31536000")
		}
		next.ServeHTTP(w, r)
	})
}
