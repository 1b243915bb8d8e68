package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/kaksaab/club-event-ticketing/internal/config"
	"github.com/kaksaab/club-event-ticketing/internal/database"
	"github.com/kaksaab/club-event-ticketing/internal/handler"
	"github.com/kaksaab/club-event-ticketing/internal/ledger"
	"github.com/kaksaab/club-event-ticketing/internal/middleware"
	"github.com/kaksaab/club-event-ticketing/internal/queue"
	"github.com/kaksaab/club-event-ticketing/internal/repository"
	"github.com/kaksaab/club-event-ticketing/internal/router"
	"github.com/kaksaab/club-event-ticketing/internal/storage"
)

func main() {
	// A .env file is a development convenience; in production the
	// variables come from the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the rate limiter and the response cache.  Both degrade
	// to pass-through when the client is nil, so a missing Redis only
	// costs the protection, not the service.
	rdb := config.NewRedisClient()

	store, err := storage.NewImageStore(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		log.Fatalf("image store: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	clubs := repository.NewClubRepo(db)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)
	seatLedger := ledger.New(db, bookings)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	eventH := handler.NewEventHandler(events, seatLedger)
	bookingH := handler.NewBookingHandler(seatLedger, bookings)
	clubH := handler.NewClubHandler(clubs, events)
	uploadH := handler.NewUploadHandler(store)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterEvents(e, eventH, cfg.JWTSecret, config.LoadCacheConfig(), rdb)
	router.RegisterBookings(e, bookingH, cfg.JWTSecret)
	router.RegisterClubs(e, clubH, cfg.JWTSecret)
	router.RegisterUpload(e, uploadH, cfg.JWTSecret, cfg.UploadBaseURL, store.Dir())

	// The consumer keeps its own connection and reconnect loop; it logs
	// and retries rather than taking the API down with it.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			logrus.WithError(err).Warn("booking consumer stopped")
		}
	}()

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("server starting")

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
