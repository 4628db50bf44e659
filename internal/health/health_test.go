package health

import (
	"context"
	"net"
	"strings"
	"testing"

	"whisk-system/internal/gateway/clients"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupChecker(t *testing.T) (*Checker, *miniredis.Miniredis) {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	return NewChecker(db, rdb), mr
}

func TestCheckReportsEachDependency(t *testing.T) {
	c, mr := setupChecker(t)
	ctx := context.Background()

	got := c.Check(ctx)
	for _, name := range append([]string{ServiceOverall}, Services...) {
		if got[name] != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("%q = %s, want SERVING", name, got[name])
		}
	}

	mr.Close()
	got = c.Check(ctx)
	if got[ServiceCache] != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("cache = %s after redis stopped", got[ServiceCache])
	}
	if got[ServiceDatabase] != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("database = %s", got[ServiceDatabase])
	}
	if got[ServiceOverall] != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("overall = %s", got[ServiceOverall])
	}
}

func TestMissingDependenciesNeverServe(t *testing.T) {
	c := NewChecker(nil, nil)
	got := c.Check(context.Background())
	if got[ServiceOverall] != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("overall = %s", got[ServiceOverall])
	}
}

func TestStatusOverGRPC(t *testing.T) {
	c, _ := setupChecker(t)
	c.Check(context.Background())

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	c.Register(srv)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	hc, err := clients.NewHealthClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	defer hc.Close()

	ctx := context.Background()
	if got := hc.Status(ctx, ServiceDatabase); got != "SERVING" {
		t.Errorf("database = %s", got)
	}
	if got := hc.Status(ctx, "whisk.unknown"); got != "UNAVAILABLE" {
		t.Errorf("unknown service = %s", got)
	}
}
