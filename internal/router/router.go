package router

import (
	"net/http"
	"time"

	"neurothrive/internal/auth"
	"neurothrive/internal/config"
	"neurothrive/internal/handlers"
	"neurothrive/internal/repository"
	"neurothrive/internal/screening"
	"neurothrive/internal/session"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

const sessionCookieName = "nt_session"

// Deps are the services the HTTP layer is wired to. Config is read on every
// use so reloaded values take effect without a restart.
type Deps struct {
	Log           *zap.Logger
	Config        func() *config.Config
	Users         *repository.UserRepository
	Screenings    *repository.ScreeningRepository
	Interventions *repository.InterventionRepository
	Patients      *repository.PatientRepository
	Monitoring    *repository.MonitoringRepository
	Screening     *screening.Service
	Routes        *auth.RouteTable
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String() + ".",
	})
}

func Setup(d Deps) (*gin.Engine, error) {
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}
	cfg := d.Config()
	log := d.Log

	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "same-origin",
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	// Health and metrics are registered before the session middleware so they never set cookies.
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Server.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions(sessionCookieName, store))

	// --- Now that sessions are initialized, other middleware can use them ---
	router.Use(session.Loader(d.Users, func() string { return d.Config().Auth.JWTSecret }, log))
	router.Use(session.CSRFProtection(func() bool { return d.Config().Server.CSRFEnabled }))

	authHandler := handlers.NewAuthHandler(log, d.Users, func() config.AuthConfig { return d.Config().Auth })
	navHandler := handlers.NewNavigationHandler(d.Routes)
	screeningHandler := handlers.NewScreeningHandler(log, d.Screening, d.Screenings, func() config.ScreeningConfig { return d.Config().Screening })
	interventionHandler := handlers.NewInterventionHandler(log, d.Interventions)
	patientHandler := handlers.NewPatientHandler(log, d.Patients)
	monitoringHandler := handlers.NewMonitoringHandler(log, d.Patients, d.Monitoring)
	userHandler := handlers.NewUserHandler(log, d.Users)

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: uint(max(cfg.Server.LoginRateLimit, 1)),
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.GET("/csrf", authHandler.CSRF)
		authRoutes.POST("/register", limiter, authHandler.Register)
		authRoutes.POST("/login", limiter, authHandler.Login)
		authRoutes.POST("/logout", authHandler.Logout)
		authRoutes.GET("/me", session.Require(), authHandler.Me)
	}

	navRoutes := api.Group("/navigation")
	{
		navRoutes.GET("/landing", navHandler.Landing)
		navRoutes.GET("/resolve", navHandler.Resolve)
		navRoutes.GET("/items", session.Require(), navHandler.Items)
	}

	api.GET("/risk/classify", handlers.ClassifyRisk)

	clinicalStaff := session.Require(auth.RoleClinician, auth.RoleAdmin)

	screeningRoutes := api.Group("/screening")
	{
		screeningRoutes.POST("", session.Require(), screeningHandler.Upload)
		screeningRoutes.GET("/history", session.Require(auth.RoleAdmin, auth.RoleClinician, auth.RoleTherapist), screeningHandler.History)
	}

	protoRoutes := api.Group("/proto")
	protoRoutes.Use(session.Require(auth.RoleClinician, auth.RoleAdmin, auth.RoleTherapist))
	{
		protoRoutes.POST("/interventions/generate", interventionHandler.Generate)
		protoRoutes.GET("/interventions/:proto_patient_id", interventionHandler.List)
		protoRoutes.GET("/plans/:plan_id", interventionHandler.Get)
		protoRoutes.PATCH("/plans/:plan_id/accept", clinicalStaff, interventionHandler.Accept)
		protoRoutes.PATCH("/plans/:plan_id/reject", clinicalStaff, interventionHandler.Reject)
	}

	patientRoutes := api.Group("/patients")
	patientRoutes.Use(session.Require())
	{
		patientRoutes.GET("", patientHandler.List)
		patientRoutes.POST("", session.Require(auth.RoleParent, auth.RoleClinician, auth.RoleAdmin), patientHandler.Create)
	}

	monitoringRoutes := api.Group("/monitoring")
	monitoringRoutes.Use(session.Require())
	{
		monitoringRoutes.POST("/checkin", monitoringHandler.SubmitCheckin)
		monitoringRoutes.GET("/checkin/:patient_id", monitoringHandler.ListCheckins)
		monitoringRoutes.GET("/checkin/:patient_id/latest", monitoringHandler.LatestCheckin)
		monitoringRoutes.GET("/crisis/:patient_id", monitoringHandler.ListCrisisEvents)
		monitoringRoutes.POST("/crisis/:patient_id/log", monitoringHandler.LogCrisis)
		monitoringRoutes.PATCH("/crisis/:event_id/resolve", clinicalStaff, monitoringHandler.ResolveCrisis)
		monitoringRoutes.GET("/trends/:patient_id", monitoringHandler.Trends)
	}

	adminRoutes := api.Group("/admin")
	adminRoutes.Use(session.Require(auth.RoleAdmin))
	{
		adminRoutes.GET("/users", userHandler.List)
		adminRoutes.PATCH("/users/:id/active", userHandler.SetActive)
		adminRoutes.DELETE("/users/:id", userHandler.Delete)
	}

	return router, nil
}
