package clients

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthClient asks the gRPC health service how each dependency is doing.
type HealthClient struct {
	Health healthpb.HealthClient
	conn   *grpc.ClientConn
}

func NewHealthClient(addr string, opts ...grpc.DialOption) (*HealthClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("health service connection failed: %v", err)
	}

	log.Printf("Health client targeting %s", addr)
	return &HealthClient{
		Health: healthpb.NewHealthClient(conn),
		conn:   conn,
	}, nil
}

// Status returns the serving status name for service, or "UNAVAILABLE" when
// the health service cannot be reached.
func (c *HealthClient) Status(ctx context.Context, service string) string {
	if c == nil || c.Health == nil {
		return "UNAVAILABLE"
	}
	resp, err := c.Health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return "UNAVAILABLE"
	}
	return resp.GetStatus().String()
}

func (c *HealthClient) Close() {
	if c != nil && c.conn != nil {
		c.conn.Close()
	}
}
