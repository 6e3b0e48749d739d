package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"banktycoon/internal/config"
	"banktycoon/internal/game"
	"banktycoon/internal/runner"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxImportBytes = 1 << 20

// Clock is the tick loop as the API sees it.
type Clock interface {
	Status() runner.Status
	SetSpeed(runner.Speed)
	Pause()
	Resume()
	Toggle() bool
}

// CommandObserver is told about every player command.
type CommandObserver interface {
	ObserveCommand(name string, err error)
}

type Server struct {
	cfg      config.APIConfig
	log      *slog.Logger
	game     *game.Service
	clock    Clock
	observer CommandObserver
	metrics  http.Handler
	mux      *chi.Mux
}

type Options struct {
	Clock    Clock
	Observer CommandObserver
	Metrics  http.Handler
}

func New(cfg config.APIConfig, logger *slog.Logger, gameSvc *game.Service, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		game:     gameSvc,
		clock:    opts.Clock,
		observer: opts.Observer,
		metrics:  opts.Metrics,
		mux:      chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/state", s.handleState)
		r.Get("/analytics", s.handleAnalytics)
		r.Get("/objectives", s.handleObjectives)

		r.Post("/customers/{id}/approve", s.handleCustomer(true))
		r.Post("/customers/{id}/deny", s.handleCustomer(false))
		r.Post("/loans/{id}/approve", s.handleLoan(true))
		r.Post("/loans/{id}/deny", s.handleLoan(false))

		r.Post("/staff/{role}/hire", s.handleStaff(true))
		r.Post("/staff/{role}/fire", s.handleStaff(false))
		r.Post("/bank/upgrade", s.handleUpgrade)
		r.Post("/investments", s.handleInvest)
		r.Post("/tech/{category}/{id}/research", s.handleResearch)
		r.Post("/rates", s.handleRates)
		r.Put("/automation", s.handleAutomation)
		r.Post("/event/resolve", s.handleResolveEvent)

		r.Get("/clock", s.handleClock)
		r.Post("/clock/toggle", s.handleClockToggle)
		r.Post("/clock/speed", s.handleClockSpeed)
		r.Post("/clock/advance", s.handleAdvance)

		r.Post("/save", s.handleSave)
		r.Post("/load", s.handleLoad)
		r.Delete("/save", s.handleDeleteSave)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Post("/new-game", s.handleNewGame)
	})
}

// authMiddleware is a no-op when no BANK_API_TOKEN is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.APIToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) observe(name string, err error) {
	if s.observer != nil {
		s.observer.ObserveCommand(name, err)
	}
	if err != nil {
		s.log.Info("command rejected", "command", name, "err", err)
	}
}

// reply answers a command with the fresh state, or maps its error.
func (s *Server) reply(w http.ResponseWriter, name string, err error) {
	s.observe(name, err)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.handleState(w, nil)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	st, err := s.game.State()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Analytics())
}

type objectiveView struct {
	game.Objective
	Progress float64 `json:"progress"`
}

func (s *Server) handleObjectives(w http.ResponseWriter, _ *http.Request) {
	st, err := s.game.State()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	visible := game.VisibleObjectives(st)
	out := make([]objectiveView, 0, len(visible))
	for _, o := range visible {
		out = append(out, objectiveView{Objective: o, Progress: game.ObjectiveProgress(st, o)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"objectives": out})
}

func (s *Server) handleCustomer(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if approve {
			s.reply(w, "approve_customer", s.game.ApproveCustomer(idempotencyKey(r), id))
			return
		}
		s.reply(w, "deny_customer", s.game.DenyCustomer(idempotencyKey(r), id))
	}
}

func (s *Server) handleLoan(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if approve {
			s.reply(w, "approve_loan", s.game.ApproveLoan(idempotencyKey(r), id))
			return
		}
		s.reply(w, "deny_loan", s.game.DenyLoan(idempotencyKey(r), id))
	}
}

func (s *Server) handleStaff(hire bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := game.ParseRole(chi.URLParam(r, "role"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if hire {
			s.reply(w, "hire", s.game.Hire(idempotencyKey(r), role))
			return
		}
		s.reply(w, "fire", s.game.Fire(idempotencyKey(r), role))
	}
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	s.reply(w, "upgrade_bank", s.game.UpgradeBank(idempotencyKey(r)))
}

func (s *Server) handleInvest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Bucket string  `json:"bucket"`
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bucket, err := game.ParseBucket(strings.TrimSpace(in.Bucket))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.reply(w, "invest", s.game.Invest(idempotencyKey(r), bucket, in.Amount))
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	cat, err := game.ParseTechCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.reply(w, "research", s.game.ResearchTech(idempotencyKey(r), cat, chi.URLParam(r, "id")))
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Deposit float64 `json:"deposit"`
		Loan    float64 `json:"loan"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.reply(w, "set_rates", s.game.SetRates(idempotencyKey(r), in.Deposit, in.Loan))
}

func (s *Server) handleAutomation(w http.ResponseWriter, r *http.Request) {
	var in game.AutomationConfig
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.reply(w, "set_automation", s.game.SetAutomation(idempotencyKey(r), in))
}

func (s *Server) handleResolveEvent(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Choice int `json:"choice"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.game.ResolveEvent(r.Context(), idempotencyKey(r), in.Choice)
	s.observe("resolve_event", err)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleClock(w http.ResponseWriter, _ *http.Request) {
	if s.clock == nil {
		writeError(w, http.StatusNotImplemented, "no clock attached")
		return
	}
	writeJSON(w, http.StatusOK, s.clock.Status())
}

func (s *Server) handleClockToggle(w http.ResponseWriter, r *http.Request) {
	if s.clock == nil {
		writeError(w, http.StatusNotImplemented, "no clock attached")
		return
	}
	s.clock.Toggle()
	s.handleClock(w, r)
}

func (s *Server) handleClockSpeed(w http.ResponseWriter, r *http.Request) {
	if s.clock == nil {
		writeError(w, http.StatusNotImplemented, "no clock attached")
		return
	}
	var in struct {
		Speed string `json:"speed"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	speed, err := runner.ParseSpeed(in.Speed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.clock.SetSpeed(speed)
	s.handleClock(w, r)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Days int `json:"days"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Days > 3650 {
		writeError(w, http.StatusBadRequest, "days must be at most 3650")
		return
	}
	rep, err := s.game.Advance(r.Context(), in.Days)
	s.observe("advance", err)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	err := s.game.Save(r.Context())
	s.observe("save", err)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "key": s.game.SaveKey()})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	s.reply(w, "load", s.game.Load(r.Context()))
}

func (s *Server) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	err := s.game.DeleteSave(r.Context())
	s.observe("delete_save", err)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.game.Export(r.Context())
	s.observe("export", err)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+s.game.SaveKey()+`.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(data) > maxImportBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "save file too large")
		return
	}
	s.reply(w, "import", s.game.Import(r.Context(), data))
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	s.reply(w, "new_game", s.game.NewGame(r.Context()))
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrDuplicateIdempotency):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInsufficientFunds),
		errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrInvalidRate),
		errors.Is(err, game.ErrInvalidChoice),
		errors.Is(err, game.ErrUnknownRole),
		errors.Is(err, game.ErrUnknownBucket),
		errors.Is(err, game.ErrInvalidSnapshot):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrRequestNotFound),
		errors.Is(err, game.ErrTechNotFound),
		errors.Is(err, game.ErrNoActiveEvent),
		errors.Is(err, game.ErrNoSnapshot):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrStaffCapacity),
		errors.Is(err, game.ErrNoStaff),
		errors.Is(err, game.ErrTechLocked),
		errors.Is(err, game.ErrMaxLevel):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
