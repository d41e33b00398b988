package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/amicale/member-portal/internal/config"
	"github.com/amicale/member-portal/internal/database"
	"github.com/amicale/member-portal/internal/handler"
	"github.com/amicale/member-portal/internal/queue"
	"github.com/amicale/member-portal/internal/ratelimit"
	"github.com/amicale/member-portal/internal/repository"
	"github.com/amicale/member-portal/internal/router"
	"github.com/amicale/member-portal/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	rateCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()
	quotaCfg := config.LoadQuotaConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	var store ratelimit.Store
	if rdb != nil {
		store = ratelimit.NewRedisStore(rdb, rateCfg.Prefix)
		log.Printf("rate limiter backed by redis")
	} else {
		mem := ratelimit.NewMemoryStore()
		mem.StartSweeper(context.Background(), rateCfg.Window, rateCfg.Window)
		store = mem
		log.Printf("rate limiter in memory (no redis)")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tickets := repository.NewTicketRepo(db)
	orders := repository.NewOrderRepo(db)
	waitlist := repository.NewWaitlistRepo(db)
	blog := repository.NewBlogRepo(db)
	newsletter := repository.NewNewsletterRepo(db)
	reimbursements := repository.NewReimbursementRepo(db)

	events := queue.NewPublisher()
	cinemaSvc := service.NewCinemaService(tickets, orders, waitlist, events, quotaCfg)
	newsletterSvc := service.NewNewsletterService(newsletter, events)

	go func() {
		if err := queue.StartConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Cfg:            cfg,
		RateLimitCfg:   rateCfg,
		CacheCfg:       cacheCfg,
		RateStore:      store,
		Redis:          rdb,
		Auth:           handler.NewAuthHandler(cfg, users, tokens),
		Cinema:         handler.NewCinemaHandler(cinemaSvc),
		Blog:           handler.NewBlogHandler(blog),
		Newsletter:     handler.NewNewsletterHandler(newsletterSvc),
		Reimbursements: handler.NewReimbursementHandler(reimbursements),
		Admin: &handler.AdminHandler{
			Tickets:        tickets,
			Orders:         orders,
			Waitlist:       waitlist,
			Reimbursements: reimbursements,
			Newsletter:     newsletter,
		},
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
