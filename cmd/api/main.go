package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/appointly/scheduler/internal/config"
	dbpkg "github.com/appointly/scheduler/internal/db"
	"github.com/appointly/scheduler/internal/middleware"
	"github.com/appointly/scheduler/internal/routes"
	"github.com/appointly/scheduler/internal/timeutil"
)

func main() {

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db := dbpkg.NewDB(cfg, log)
	cache := dbpkg.NewRedis(cfg, log)
	tenant := timeutil.Location(cfg.Timezone)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.RegisterRoutes(r, db, cache, cfg, log, tenant)

	log.Info().Str("addr", cfg.Addr()).Msg("server running")
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
