package main

import (
	"campus/internal/auth"
	"campus/internal/clock"
	"campus/internal/common"
	"campus/internal/databases"
	"campus/internal/env"
	"campus/internal/logging"
	"campus/internal/mail"
	"campus/internal/scheduler"
	"campus/internal/v0/refectory"
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	logger, err := logging.New(env.GetEnv(env.EnvLogLevel, "info"), env.GetEnv(env.EnvLogFormat, "console"))
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := env.GetLocation(env.EnvTimezone, time.Local)

	db, err := databases.Open(env.GetEnv(env.EnvDatabasePath, "./campus.db"))
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := databases.Migrate(db); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	// Auth components
	authRepo := auth.NewRepository(db)
	tokenStore := auth.NewTokenStore(authRepo)
	authHandler := auth.NewHandler(authRepo, tokenStore, logger)
	adminHandler := auth.NewAdminHandler(authRepo, tokenStore, logger)
	authMiddleware := auth.NewMiddleware(tokenStore, logger)

	if err := auth.Bootstrap(ctx, authRepo, tokenStore,
		env.GetEnv(env.EnvBootstrapAdminEmail, ""),
		env.GetEnv(env.EnvBootstrapAdminName, ""),
		logger,
	); err != nil {
		logger.Fatal("bootstrap admin", zap.Error(err))
	}

	// Refectory components
	notifier, err := mail.NewDispatcher(mail.Config{
		Host:     env.GetEnv(env.EnvSMTPHost, ""),
		Port:     env.GetInt(env.EnvSMTPPort, 587),
		Username: env.GetEnv(env.EnvSMTPUsername, ""),
		Password: env.GetEnv(env.EnvSMTPPassword, ""),
		From:     env.GetEnv(env.EnvMailFrom, "refectory@localhost"),
		Subject:  env.GetEnv(env.EnvMailSubject, mail.DefaultSubject),
	}, logger)
	if err != nil {
		logger.Fatal("mail dispatcher", zap.Error(err))
	}

	forms := refectory.NewFormStore(db, loc)
	answers := refectory.NewAnswerStore(db, loc)
	engine := refectory.NewEngine(
		forms,
		answers,
		refectory.NewReporter(forms, answers, authRepo),
		notifier,
		clock.System{Location: loc},
		logger.Named("refectory"),
		refectory.Options{
			Location:               loc,
			AcceptAnswersWhileOpen: env.GetBool(env.EnvRefectoryAcceptOpen, false),
		},
	)
	refectoryHandler := refectory.NewHandler(engine)

	sched, err := scheduler.New(engine, scheduler.Config{
		Location:       loc,
		Daily:          env.GetEnv(env.EnvCronDaily, scheduler.DefaultDaily),
		ServiceOpening: env.GetEnv(env.EnvCronServiceOpening, scheduler.DefaultServiceOpening),
		Weekly:         env.GetEnv(env.EnvCronWeekly, scheduler.DefaultWeekly),
		JobTimeout:     env.GetDuration(env.EnvJobTimeout, scheduler.DefaultJobTimeout),
	}, logger.Named("scheduler"))
	if err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}
	sched.Start(ctx)

	router := gin.Default()

	// Global routes
	global := router.Group("/api")
	common.RegisterRoutes(global, db)

	// Auth routes (token-protected + admin)
	auth.RegisterRoutes(global, authHandler, adminHandler, authMiddleware)

	// v0 API routes
	v0Group := router.Group("/api/v0")
	{
		refectory.RegisterRoutes(v0Group, refectoryHandler, authMiddleware)
	}

	srv := &http.Server{
		Addr:    env.GetEnv(env.EnvHTTPAddr, ":9237"),
		Handler: router,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", zap.Error(err))
			stop()
		}
	}()

	// Graceful shutdown handling
	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	sched.Stop()
}

/*
This project is the monolithic backend API for the campus services team. Access to campus data and helper endpoints to integrate with our apps.
API Copyright (C) 2025 OpenSourceDUTH
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
