// Package worker implements the link router lifecycle and Redis Streams integration.
//
// The worker reads browser history changes from a Redis stream, routes each
// token to a screen, and hands the decision to the display collaborators.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(&redis.Options{...})
//	r, _ := router.NewRouter(services, routerConfig, logger)
//	d := display.NewRedisDisplay(redisClient, cfg.ResultStream, cfg.NoticeStream, cfg.SessionTTL, logger)
//
//	worker := worker.NewWorker(cfg, redisClient, r, d, d, logger)
//	if err := worker.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer worker.Stop(ctx)
//
// History events carry JSON in the "data" field of each stream entry:
//
//	{"session_id": "s-1", "token": "change,42"}
//
// The worker handles:
//   - Redis Streams subscription and consumer group management
//   - Token routing
//   - Screen display and not-found notices
//   - Error reporting on the "<result stream>.errors" stream
//   - Graceful shutdown
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8082, redisClient, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
