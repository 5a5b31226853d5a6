// Package api is the JSON gateway the chat integration calls: poker table
// actions, the chance games, the economy commands, and shop purchases.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starstream/starstream/internal/games"
	"github.com/starstream/starstream/internal/shop"
	"github.com/starstream/starstream/internal/store"
	"github.com/starstream/starstream/internal/table"
)

// Economy is the slice of the store the gateway's currency commands need.
type Economy interface {
	Balance(ctx context.Context, userID string) (int64, error)
	GrrBalance(ctx context.Context, userID string) (int64, error)
	Transfer(ctx context.Context, from, to string, amount int64) error
	GrrTransfer(ctx context.Context, from, to string, amount int64) error
	Leaderboard(ctx context.Context, limit int) ([]store.BalanceRow, error)
	GrrLeaderboard(ctx context.Context, limit int) ([]store.BalanceRow, error)
	ClaimDaily(ctx context.Context, userID string, amount int64) error
	Exchange(ctx context.Context, userID string, grrCost, coinReward int64) error
	Items(ctx context.Context, guildID string) ([]store.ShopItem, error)
}

// Config carries the tunables the gateway applies itself.
type Config struct {
	DailyMin           int64
	DailyMax           int64
	ExchangeGrrCost    int64
	ExchangeCoinReward int64
}

type Server struct {
	registry *table.Registry
	house    *games.House
	shop     *shop.Service
	economy  Economy
	cfg      Config
	logger   *log.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewServer(registry *table.Registry, house *games.House, shopSvc *shop.Service, economy Economy, cfg Config, rng *rand.Rand, logger *log.Logger) *Server {
	return &Server{
		registry: registry,
		house:    house,
		shop:     shopSvc,
		economy:  economy,
		cfg:      cfg,
		logger:   logger.WithPrefix("api"),
		rng:      rng,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1/tables/{channel}", func(r chi.Router) {
		r.Post("/", s.handleCreateTable)
		r.Get("/", s.handleStatus)
		r.Get("/hand/{player}", s.handleHand)
		r.Post("/join", s.tableAction(func(ctx context.Context, ch string, req actionRequest) (table.Result, error) {
			return s.registry.Join(ctx, ch, req.Player, req.Bet)
		}))
		r.Post("/start", s.tableAction(func(ctx context.Context, ch string, req actionRequest) (table.Result, error) {
			return s.registry.Start(ctx, ch, req.Player)
		}))
		r.Post("/check", s.tableAction(func(ctx context.Context, ch string, req actionRequest) (table.Result, error) {
			return s.registry.Check(ctx, ch, req.Player)
		}))
		r.Post("/call", s.tableAction(func(ctx context.Context, ch string, req actionRequest) (table.Result, error) {
			return s.registry.Call(ctx, ch, req.Player)
		}))
		r.Post("/raise", s.tableAction(func(ctx context.Context, ch string, req actionRequest) (table.Result, error) {
			return s.registry.Raise(ctx, ch, req.Player, req.Amount)
		}))
		r.Post("/fold", s.tableAction(func(ctx context.Context, ch string, req actionRequest) (table.Result, error) {
			return s.registry.Fold(ctx, ch, req.Player)
		}))
		r.Post("/discard", s.tableAction(func(ctx context.Context, ch string, req actionRequest) (table.Result, error) {
			return s.registry.Discard(ctx, ch, req.Player, req.Positions)
		}))
	})

	r.Route("/v1/economy", func(r chi.Router) {
		r.Get("/balance/{user}", s.handleBalance)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Post("/daily", s.handleDaily)
		r.Post("/transfer", s.handleTransfer)
		r.Post("/exchange", s.handleExchange)
	})

	r.Route("/v1/games", func(r chi.Router) {
		r.Post("/coinflip", s.handleCoinflip)
		r.Post("/highstakes", s.handleHighStakes)
	})

	r.Route("/v1/shop/{guild}", func(r chi.Router) {
		r.Get("/", s.handleListShop)
		r.Post("/buy", s.handleBuy)
	})

	return r
}

type actionRequest struct {
	Player    string `json:"player"`
	Bet       int64  `json:"bet"`
	Amount    int64  `json:"amount"`
	Positions []int  `json:"positions"`
}

// resultPayload wraps a table action result for the wire.
type resultPayload struct {
	Snapshot   table.Snapshot    `json:"snapshot"`
	Settlement *table.Settlement `json:"settlement,omitempty"`
}

func (s *Server) tableAction(run func(ctx context.Context, channel string, req actionRequest) (table.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Player == "" {
			writeError(w, http.StatusBadRequest, errors.New("player is required"))
			return
		}
		res, err := run(r.Context(), chi.URLParam(r, "channel"), req)
		if err != nil {
			writeError(w, tableStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resultPayload{Snapshot: res.Snapshot, Settlement: res.Settlement})
	}
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player string `json:"player"`
		Bet    int64  `json:"bet"`
		Mode   string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Player == "" {
		writeError(w, http.StatusBadRequest, errors.New("player is required"))
		return
	}
	channel := chi.URLParam(r, "channel")

	var (
		res table.Result
		err error
	)
	switch req.Mode {
	case "solo":
		res, err = s.registry.CreateSolo(r.Context(), channel, req.Player, req.Bet)
	case "", "multi":
		res, err = s.registry.CreateMulti(r.Context(), channel, req.Player, req.Bet)
	default:
		writeError(w, http.StatusBadRequest, errors.New("mode must be solo or multi"))
		return
	}
	if err != nil {
		writeError(w, tableStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, resultPayload{Snapshot: res.Snapshot, Settlement: res.Settlement})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.registry.Status(chi.URLParam(r, "channel"))
	if err != nil {
		writeError(w, tableStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHand(w http.ResponseWriter, r *http.Request) {
	hand, err := s.registry.PlayerHand(chi.URLParam(r, "channel"), chi.URLParam(r, "player"))
	if err != nil {
		writeError(w, tableStatus(err), err)
		return
	}
	cards := make([]string, 0, len(hand))
	for _, c := range hand {
		cards = append(cards, c.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	coins, err := s.economy.Balance(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	grr, err := s.economy.GrrBalance(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "coins": coins, "grr": grr})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be 1..100"))
			return
		}
		limit = n
	}

	var (
		rows []store.BalanceRow
		err  error
	)
	switch r.URL.Query().Get("currency") {
	case "grr":
		rows, err = s.economy.GrrLeaderboard(r.Context(), limit)
	case "", "coins":
		rows, err = s.economy.Leaderboard(r.Context(), limit)
	default:
		writeError(w, http.StatusBadRequest, errors.New("currency must be coins or grr"))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.User == "" {
		writeError(w, http.StatusBadRequest, errors.New("user is required"))
		return
	}

	amount := s.dailyAmount()
	if err := s.economy.ClaimDaily(r.Context(), req.User, amount); err != nil {
		if errors.Is(err, store.ErrAlreadyClaimed) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("daily claimed", "user", req.User, "amount", amount)
	writeJSON(w, http.StatusOK, map[string]any{"user": req.User, "amount": amount})
}

func (s *Server) dailyAmount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	span := s.cfg.DailyMax - s.cfg.DailyMin
	if span <= 0 {
		return s.cfg.DailyMin
	}
	return s.cfg.DailyMin + s.rng.Int63n(span+1)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From     string `json:"from"`
		To       string `json:"to"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.From == "" || req.To == "" || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("from, to and a positive amount are required"))
		return
	}
	if req.From == req.To {
		writeError(w, http.StatusBadRequest, errors.New("cannot transfer to yourself"))
		return
	}

	var err error
	switch req.Currency {
	case "grr":
		err = s.economy.GrrTransfer(r.Context(), req.From, req.To, req.Amount)
	case "", "coins":
		err = s.economy.Transfer(r.Context(), req.From, req.To, req.Amount)
	default:
		writeError(w, http.StatusBadRequest, errors.New("currency must be coins or grr"))
		return
	}
	if err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			writeError(w, http.StatusPaymentRequired, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.User == "" {
		writeError(w, http.StatusBadRequest, errors.New("user is required"))
		return
	}
	err := s.economy.Exchange(r.Context(), req.User, s.cfg.ExchangeGrrCost, s.cfg.ExchangeCoinReward)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			writeError(w, http.StatusPaymentRequired, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": req.User, "spent_grr": s.cfg.ExchangeGrrCost, "earned_coins": s.cfg.ExchangeCoinReward,
	})
}

func (s *Server) handleCoinflip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User string `json:"user"`
		Bet  int64  `json:"bet"`
		Call string `json:"call"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.User == "" {
		writeError(w, http.StatusBadRequest, errors.New("user is required"))
		return
	}
	side, err := games.ParseSide(req.Call)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := s.house.Coinflip(r.Context(), req.User, req.Bet, side)
	if err != nil {
		writeError(w, gameStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHighStakes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User string `json:"user"`
		Bet  int64  `json:"bet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.User == "" {
		writeError(w, http.StatusBadRequest, errors.New("user is required"))
		return
	}
	out, err := s.house.HighStakes(r.Context(), req.User, req.Bet)
	if err != nil {
		writeError(w, gameStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListShop(w http.ResponseWriter, r *http.Request) {
	items, err := s.economy.Items(r.Context(), chi.URLParam(r, "guild"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User string `json:"user"`
		Item string `json:"item"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.User == "" || req.Item == "" {
		writeError(w, http.StatusBadRequest, errors.New("user and item are required"))
		return
	}
	receipt, err := s.shop.Purchase(r.Context(), chi.URLParam(r, "guild"), req.User, req.Item)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrItemNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, store.ErrItemSoldOut):
			writeError(w, http.StatusConflict, err)
		case errors.Is(err, shop.ErrInsufficientFunds):
			writeError(w, http.StatusPaymentRequired, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// tableStatus maps engine sentinels onto HTTP statuses.
func tableStatus(err error) int {
	switch {
	case errors.Is(err, table.ErrNoTable):
		return http.StatusNotFound
	case errors.Is(err, table.ErrTableExists),
		errors.Is(err, table.ErrAlreadyJoined),
		errors.Is(err, table.ErrAlreadyDiscarded):
		return http.StatusConflict
	case errors.Is(err, table.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, table.ErrNotInGame):
		return http.StatusForbidden
	case errors.Is(err, table.ErrNotYourTurn),
		errors.Is(err, table.ErrWrongStage),
		errors.Is(err, table.ErrNotHost),
		errors.Is(err, table.ErrNotEnoughPlayers),
		errors.Is(err, table.ErrBetMismatch),
		errors.Is(err, table.ErrCannotCheck),
		errors.Is(err, table.ErrRaiseTooSmall),
		errors.Is(err, table.ErrInvalidDiscard),
		errors.Is(err, table.ErrInvalidBet),
		errors.Is(err, table.ErrFolded):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func gameStatus(err error) int {
	switch {
	case errors.Is(err, games.ErrInvalidBet), errors.Is(err, games.ErrInvalidSide):
		return http.StatusBadRequest
	case errors.Is(err, games.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
