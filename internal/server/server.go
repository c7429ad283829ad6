package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hollyoak/pawtrail/internal/backup"
	"github.com/hollyoak/pawtrail/internal/handler"
	"github.com/hollyoak/pawtrail/internal/middleware"
	"github.com/hollyoak/pawtrail/internal/push"
	"github.com/hollyoak/pawtrail/internal/store"
	"github.com/hollyoak/pawtrail/internal/timeline"
	ws "github.com/hollyoak/pawtrail/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	petH          *handler.PetHandler
	reminderH     *handler.ReminderHandler
	visitH        *handler.VisitHandler
	vaccineH      *handler.VaccineHandler
	medicationH   *handler.MedicationHandler
	walkH         *handler.WalkHandler
	trainingH     *handler.TrainingHandler
	incidentH     *handler.IncidentHandler
	timelineH     *handler.TimelineHandler
	exportH       *handler.ExportHandler
	pushH         *handler.PushHandler
	sessionStore  *store.SessionStore
	pushStore     *store.PushStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	pushService   *push.Service
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, backupCfg backup.Config, pushCfg push.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	petStore := store.NewPetStore(db)
	reminderStore := store.NewReminderStore(db)
	visitStore := store.NewVisitStore(db)
	vaccineStore := store.NewVaccineStore(db)
	medicationStore := store.NewMedicationStore(db)
	walkStore := store.NewWalkStore(db)
	trainingStore := store.NewTrainingStore(db)
	incidentStore := store.NewIncidentStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	timelineSvc := timeline.NewService(reminderStore, visitStore, petStore, logger.With("component", "timeline"))

	backupMgr := backup.NewManager(backupCfg, db, backupStore, logger.With("component", "backup"), nil)

	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
		pushSched = push.NewScheduler(pushSvc, pushStore, userStore, reminderStore, visitStore)
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push"))
	}

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		petH:          handler.NewPetHandler(petStore, hub, logger.With("component", "pet")),
		reminderH:     handler.NewReminderHandler(reminderStore, petStore, hub, logger.With("component", "reminder")),
		visitH:        handler.NewVisitHandler(visitStore, petStore, hub, logger.With("component", "visit")),
		vaccineH:      handler.NewVaccineHandler(vaccineStore, petStore, hub, logger.With("component", "vaccine")),
		medicationH:   handler.NewMedicationHandler(medicationStore, petStore, hub, logger.With("component", "medication")),
		walkH:         handler.NewWalkHandler(walkStore, petStore, hub, logger.With("component", "walk")),
		trainingH:     handler.NewTrainingHandler(trainingStore, petStore, hub, logger.With("component", "training")),
		incidentH:     handler.NewIncidentHandler(incidentStore, petStore, hub, logger.With("component", "incident")),
		timelineH:     handler.NewTimelineHandler(timelineSvc, hub, logger.With("component", "timeline")),
		exportH:       handler.NewExportHandler(timelineSvc, logger.With("component", "export")),
		pushH:         pushH,
		sessionStore:  sessionStore,
		pushStore:     pushStore,
		// 10 credential attempts per minute per client before 429s.
		rateLimiter:   middleware.NewRateLimiter(10, time.Minute),
		backupManager: backupMgr,
		pushService:   pushSvc,
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the push notification scheduler, nil when push is not
// configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.Handle("POST /api/auth/register", s.rateLimiter.Limit(http.HandlerFunc(s.authH.Register)))
	outerMux.Handle("POST /api/auth/login", s.rateLimiter.Limit(http.HandlerFunc(s.authH.Login)))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Pets
	mux.HandleFunc("POST /api/pets", s.petH.Create)
	mux.HandleFunc("GET /api/pets", s.petH.List)
	mux.HandleFunc("GET /api/pets/{id}", s.petH.Get)
	mux.HandleFunc("PUT /api/pets/{id}", s.petH.Update)
	mux.HandleFunc("DELETE /api/pets/{id}", s.petH.Delete)

	// Reminders
	mux.HandleFunc("POST /api/reminders", s.reminderH.Create)
	mux.HandleFunc("GET /api/reminders", s.reminderH.List)
	mux.HandleFunc("GET /api/reminders/{id}", s.reminderH.Get)
	mux.HandleFunc("PUT /api/reminders/{id}", s.reminderH.Update)
	mux.HandleFunc("DELETE /api/reminders/{id}", s.reminderH.Delete)

	// Vet visits
	mux.HandleFunc("POST /api/visits", s.visitH.Create)
	mux.HandleFunc("GET /api/visits", s.visitH.List)
	mux.HandleFunc("GET /api/visits/{id}", s.visitH.Get)
	mux.HandleFunc("PUT /api/visits/{id}", s.visitH.Update)
	mux.HandleFunc("DELETE /api/visits/{id}", s.visitH.Delete)

	// Care log: vaccinations
	mux.HandleFunc("POST /api/vaccines", s.vaccineH.Create)
	mux.HandleFunc("GET /api/pets/{id}/vaccines", s.vaccineH.ListByPet)
	mux.HandleFunc("PUT /api/vaccines/{id}", s.vaccineH.Update)
	mux.HandleFunc("DELETE /api/vaccines/{id}", s.vaccineH.Delete)

	// Care log: medications
	mux.HandleFunc("POST /api/medications", s.medicationH.Create)
	mux.HandleFunc("GET /api/pets/{id}/medications", s.medicationH.ListByPet)
	mux.HandleFunc("PUT /api/medications/{id}", s.medicationH.Update)
	mux.HandleFunc("DELETE /api/medications/{id}", s.medicationH.Delete)

	// Care log: walks
	mux.HandleFunc("POST /api/walks", s.walkH.Create)
	mux.HandleFunc("GET /api/pets/{id}/walks", s.walkH.ListByPet)
	mux.HandleFunc("PUT /api/walks/{id}", s.walkH.Update)
	mux.HandleFunc("DELETE /api/walks/{id}", s.walkH.Delete)

	// Care log: training sessions
	mux.HandleFunc("POST /api/training", s.trainingH.Create)
	mux.HandleFunc("GET /api/pets/{id}/training", s.trainingH.ListByPet)
	mux.HandleFunc("PUT /api/training/{id}", s.trainingH.Update)
	mux.HandleFunc("DELETE /api/training/{id}", s.trainingH.Delete)

	// Care log: incidents
	mux.HandleFunc("POST /api/incidents", s.incidentH.Create)
	mux.HandleFunc("GET /api/pets/{id}/incidents", s.incidentH.ListByPet)
	mux.HandleFunc("PUT /api/incidents/{id}", s.incidentH.Update)
	mux.HandleFunc("DELETE /api/incidents/{id}", s.incidentH.Delete)

	// Timeline
	mux.HandleFunc("GET /api/timeline", s.timelineH.Window)
	mux.HandleFunc("GET /api/timeline/calendar", s.timelineH.Calendar)
	mux.HandleFunc("POST /api/timeline/items/{id}/toggle", s.timelineH.Toggle)

	// Calendar export
	mux.HandleFunc("GET /api/export/calendar.ics", s.exportH.Calendar)

	// Push notifications
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
		mux.HandleFunc("POST /api/push/test", s.pushH.TestNotification)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
