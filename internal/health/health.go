// Package health tracks whether the database and Redis are reachable and
// publishes the result through the standard gRPC health service.
package health

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"
)

const (
	ServiceDatabase = "whisk.database"
	ServiceCache    = "whisk.cache"

	// ServiceOverall is the empty service name; it serves only when every
	// dependency does.
	ServiceOverall = ""
)

var errNotConfigured = errors.New("not configured")

// Services lists the dependency names in reporting order.
var Services = []string{ServiceDatabase, ServiceCache}

type Checker struct {
	db     *gorm.DB
	redis  *redis.Client
	server *health.Server
}

// NewChecker starts with every service NOT_SERVING until the first Check.
func NewChecker(db *gorm.DB, rdb *redis.Client) *Checker {
	srv := health.NewServer()
	for _, name := range append([]string{ServiceOverall}, Services...) {
		srv.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return &Checker{db: db, redis: rdb, server: srv}
}

func (c *Checker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, c.server)
}

func (c *Checker) pingDB(ctx context.Context) error {
	if c.db == nil {
		return errNotConfigured
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Checker) pingRedis(ctx context.Context) error {
	if c.redis == nil {
		return errNotConfigured
	}
	return c.redis.Ping(ctx).Err()
}

// Check pings each dependency, records the result and returns it.
func (c *Checker) Check(ctx context.Context) map[string]healthpb.HealthCheckResponse_ServingStatus {
	results := map[string]error{
		ServiceDatabase: c.pingDB(ctx),
		ServiceCache:    c.pingRedis(ctx),
	}

	out := make(map[string]healthpb.HealthCheckResponse_ServingStatus, len(results)+1)
	overall := healthpb.HealthCheckResponse_SERVING
	for name, err := range results {
		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
			log.Printf("Health check for %s failed: %v", name, err)
		}
		c.server.SetServingStatus(name, st)
		out[name] = st
	}
	c.server.SetServingStatus(ServiceOverall, overall)
	out[ServiceOverall] = overall
	return out
}

// Run re-checks every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}
