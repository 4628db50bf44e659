package main

import (
	"log"
	"net"

	"whisk-system/internal/health"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

// startGRPC serves the health service on port until the returned server is
// stopped.
func startGRPC(port string, checker *health.Checker) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, err
	}

	s := grpc.NewServer()
	checker.Register(s)
	reflection.Register(s)

	go func() {
		log.Printf("gRPC health service listening on :%s", port)
		if err := s.Serve(lis); err != nil {
			log.Printf("gRPC server stopped: %v", err)
		}
	}()
	return s, nil
}
