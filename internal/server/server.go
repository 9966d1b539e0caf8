package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/auth"
	"github.com/dogwatchapp/dogwatch/internal/backup"
	"github.com/dogwatchapp/dogwatch/internal/handler"
	"github.com/dogwatchapp/dogwatch/internal/identity"
	"github.com/dogwatchapp/dogwatch/internal/middleware"
	"github.com/dogwatchapp/dogwatch/internal/push"
	"github.com/dogwatchapp/dogwatch/internal/shift"
	"github.com/dogwatchapp/dogwatch/internal/store"
	ws "github.com/dogwatchapp/dogwatch/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	gate          *auth.Gate
	verifier      identity.Verifier
	householdH    *handler.HouseholdHandler
	memberH       *handler.MemberHandler
	shiftH        *handler.ShiftHandler
	appointmentH  *handler.AppointmentHandler
	taskH         *handler.TaskHandler
	pushH         *handler.PushHandler
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, verifier identity.Verifier, backupCfg backup.Config, pushCfg push.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	householdStore := store.NewHouseholdStore(db)
	memberStore := store.NewMemberStore(db)
	shiftStore := store.NewShiftStore(db)
	appointmentStore := store.NewAppointmentStore(db)
	taskStore := store.NewTaskStore(db)
	pushStore := store.NewPushStore(db)

	gate := auth.NewGate(memberStore, householdStore)

	// Push is optional; without VAPID keys notifications are simply off.
	var pushSvc *push.Service
	var pushH *handler.PushHandler
	var fanout *push.Fanout
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
		fanout = push.NewFanout(pushSvc, pushStore, logger.With("component", "push"))
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	ledger := shift.NewLedger(shiftStore, memberStore, gate, fanout, logger.With("component", "shift"))

	backupMgr := backup.NewManager(backupCfg, db, logger.With("component", "backup"))

	return &Server{
		db:            db,
		hub:           hub,
		gate:          gate,
		verifier:      verifier,
		householdH:    handler.NewHouseholdHandler(householdStore, memberStore, logger.With("component", "household")),
		memberH:       handler.NewMemberHandler(memberStore, logger.With("component", "member")),
		shiftH:        handler.NewShiftHandler(ledger, hub, logger.With("component", "shift_handler")),
		appointmentH:  handler.NewAppointmentHandler(appointmentStore, gate, fanout, hub, logger.With("component", "appointment")),
		taskH:         handler.NewTaskHandler(taskStore, gate, fanout, hub, logger.With("component", "task")),
		pushH:         pushH,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	outerMux.HandleFunc("GET /healthz", s.healthHandler)

	// Onboarding routes only need a verified identity; the member may not
	// have a household yet.
	identityMux := http.NewServeMux()
	identityMux.HandleFunc("POST /api/households", s.rateLimited(s.householdH.Create))
	identityMux.HandleFunc("POST /api/households/join", s.rateLimited(s.householdH.Join))

	// Everything else requires a member with a household.
	actorMux := http.NewServeMux()
	s.registerActorRoutes(actorMux)

	withIdentity := middleware.WithIdentity(s.verifier)
	requireActor := middleware.RequireActor(s.gate)

	outerMux.Handle("POST /api/households", withIdentity(identityMux))
	outerMux.Handle("POST /api/households/join", withIdentity(identityMux))
	outerMux.Handle("/", withIdentity(requireActor(actorMux)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerActorRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/households/mine", s.householdH.Get)
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("PUT /api/members/me", s.memberH.UpdateMe)

	// Care shift routes. Slots are addressed by day and kind, completion
	// state by shift id.
	mux.HandleFunc("GET /api/shifts", s.shiftH.GetRange)
	mux.HandleFunc("PUT /api/shifts/{day}/{kind}", s.shiftH.Schedule)
	mux.HandleFunc("POST /api/shifts/{day}/{kind}/log", s.shiftH.LogNow)
	mux.HandleFunc("DELETE /api/shifts/{day}/{kind}", s.shiftH.Clear)
	mux.HandleFunc("POST /api/shifts/{id}/complete", s.shiftH.Complete)
	mux.HandleFunc("POST /api/shifts/{id}/uncomplete", s.shiftH.Uncomplete)

	mux.HandleFunc("POST /api/appointments", s.appointmentH.Create)
	mux.HandleFunc("GET /api/appointments", s.appointmentH.List)
	mux.HandleFunc("PUT /api/appointments/{id}", s.appointmentH.Update)
	mux.HandleFunc("DELETE /api/appointments/{id}", s.appointmentH.Delete)
	mux.HandleFunc("POST /api/appointments/{id}/complete", s.appointmentH.Complete)

	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/done", s.taskH.Done)

	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscriptions", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
