//go:build integration

package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	databaseURL string
	redisAddr   string
)

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "galaxy",
				"POSTGRES_PASSWORD": "galaxy",
				"POSTGRES_DB":       "galaxy",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer terminate(pg)

	rd, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start redis: %v", err)
	}
	defer terminate(rd)

	pgEndpoint, err := pg.PortEndpoint(ctx, "5432/tcp", "")
	if err != nil {
		log.Fatalf("postgres endpoint: %v", err)
	}
	databaseURL = fmt.Sprintf("postgres://galaxy:galaxy@%s/galaxy?sslmode=disable", pgEndpoint)

	redisAddr, err = rd.PortEndpoint(ctx, "6379/tcp", "")
	if err != nil {
		log.Fatalf("redis endpoint: %v", err)
	}
	log.Printf("postgres at %s, redis at %s", pgEndpoint, redisAddr)

	return m.Run()
}

func terminate(c testcontainers.Container) {
	if err := c.Terminate(context.Background()); err != nil {
		log.Printf("terminate container: %v", err)
	}
}
