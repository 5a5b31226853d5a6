// Package dashboard serves the admin panel: a password-gated web UI for
// balances, shop items, runtime settings, and a live log feed over
// websocket.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/starstream/starstream/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Store is the slice of the persistence layer the panel needs.
type Store interface {
	CombinedUsers(ctx context.Context) ([]store.CombinedRow, error)
	SetBalances(ctx context.Context, userID string, coins, grr int64) error

	AllItems(ctx context.Context) ([]store.ShopItem, error)
	AddItem(ctx context.Context, it store.ShopItem) (store.ShopItem, error)
	UpdateItem(ctx context.Context, it store.ShopItem) error
	RemoveItem(ctx context.Context, id int64) error

	AllSettings(ctx context.Context) (map[string]string, error)
	SetSetting(ctx context.Context, key, value string) error
}

type Server struct {
	store         Store
	logs          *LogBuffer
	logger        *log.Logger
	passwordHash  string
	sessionSecret []byte
	upgrader      websocket.Upgrader
	templates     *template.Template
}

func NewServer(st Store, logs *LogBuffer, passwordHash string, sessionSecret []byte, logger *log.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{
		store:         st,
		logs:          logs,
		logger:        logger.WithPrefix("dashboard"),
		passwordHash:  passwordHash,
		sessionSecret: sessionSecret,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		templates: tmpl,
	}, nil
}

// Handler builds the panel's route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/", s.handlePage("dashboard.html"))
		r.Get("/users", s.handlePage("users.html"))
		r.Get("/shop", s.handlePage("shop.html"))
		r.Get("/settings", s.handlePage("settings.html"))

		r.Get("/api/users", s.handleListUsers)
		r.Post("/api/users/{id}", s.handleSetBalances)

		r.Get("/api/shop", s.handleListItems)
		r.Post("/api/shop", s.handleAddItem)
		r.Put("/api/shop/{id}", s.handleUpdateItem)
		r.Delete("/api/shop/{id}", s.handleRemoveItem)

		r.Get("/api/settings", s.handleListSettings)
		r.Post("/api/settings", s.handleSetSetting)

		r.Get("/ws/logs", s.handleLogSocket)
	})

	return r
}

func (s *Server) handlePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.templates.ExecuteTemplate(w, name, nil); err != nil {
			s.logger.Error("render failed", "template", name, "error", err)
		}
	}
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.handlePage("login.html")(w, r)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.checkPassword(r.FormValue("password")) {
		s.logger.Warn("rejected login", "remote", r.RemoteAddr)
		http.Error(w, "invalid password", http.StatusUnauthorized)
		return
	}
	s.setSession(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.CombinedUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"users": users})
}

func (s *Server) handleSetBalances(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Coins int64 `json:"coins"`
		Grr   int64 `json:"grr"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if body.Coins < 0 || body.Grr < 0 {
		http.Error(w, "balances must not be negative", http.StatusBadRequest)
		return
	}
	userID := chi.URLParam(r, "id")
	if err := s.store.SetBalances(r.Context(), userID, body.Coins, body.Grr); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Info("balances edited", "user", userID, "coins", body.Coins, "grr", body.Grr)
	writeJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.AllItems(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"items": items})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var it store.ShopItem
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if it.GuildID == "" || it.Name == "" || it.Cost <= 0 {
		http.Error(w, "guild_id, name and a positive cost are required", http.StatusBadRequest)
		return
	}
	created, err := s.store.AddItem(r.Context(), it)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, created)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "bad item id", http.StatusBadRequest)
		return
	}
	var it store.ShopItem
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	it.ID = id
	if err := s.store.UpdateItem(r.Context(), it); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrItemNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "bad item id", http.StatusBadRequest)
		return
	}
	if err := s.store.RemoveItem(r.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrItemNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.AllSettings(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"settings": settings})
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Key == "" {
		http.Error(w, "key and value are required", http.StatusBadRequest)
		return
	}
	if err := s.store.SetSetting(r.Context(), body.Key, body.Value); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Info("setting changed", "key", body.Key, "value", body.Value)
	writeJSON(w, map[string]any{"ok": true})
}

// handleLogSocket streams the buffered log history followed by live lines.
func (s *Server) handleLogSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	feed, cancel := s.logs.Subscribe()
	defer cancel()

	for _, line := range s.logs.History() {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}

	// Reader goroutine only watches for the peer closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case line := <-feed:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
