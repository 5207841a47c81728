// This file is a helper for running tests with testcontainers.
// It is used by the integration tests and by the standalone cmd/testcontainers executable.
// Reads DB_TYPE, DB_IMAGE, DB_DATABASE, DB_USER, DB_PASSWORD and REDIS_IMAGE from the environment when set.
//

package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/localnerve/dbreview/internal/config"
	"github.com/localnerve/dbreview/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

type TestContainers struct {
	DBContainer    testcontainers.Container
	RedisContainer testcontainers.Container

	// Config points at the mapped database port on the docker host
	Config *config.Config
	// RedisAddr is empty unless redis was requested
	RedisAddr string
}

func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.RedisContainer != nil {
		if err := tc.RedisContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Redis: %v", err)
		}
	}
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Database: %v", err)
		}
	}
}

// DockerAvailable reports whether a docker daemon answers on the environment's endpoint
func DockerAvailable(ctx context.Context) bool {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false
	}
	defer cli.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err = cli.Ping(pingCtx)
	return err == nil
}

// SkipWithoutDocker skips integration tests in short mode or without a docker daemon
func SkipWithoutDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if !DockerAvailable(context.Background()) {
		t.Skip("Skipping integration test, docker is not available")
	}
}

// CreateTestContainers starts the database and, optionally, redis.
// With a nil t, failures print and exit the process.
func CreateTestContainers(t *testing.T, withRedis bool) (*TestContainers, error) {
	ctx := context.Background()
	testContainers := &TestContainers{}

	dbType := strings.ToLower(getEnv("DB_TYPE", "postgres"))
	dbName := getEnv("DB_DATABASE", "dbreview")
	dbUser := getEnv("DB_USER", "dbreview")
	dbPassword := getEnv("DB_PASSWORD", "dbreview")

	image, containerPort, env := dbContainerSpec(dbType, dbName, dbUser, dbPassword)
	if image == "" {
		exitWithError(t, fmt.Errorf("unsupported database type: %s", dbType), "Failed to select database image")
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	tcpDbPort, err := nat.NewPort("tcp", containerPort)
	if err != nil {
		exitWithError(t, err, "Failed to create DB port")
		return nil, err
	}

	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        getEnv("DB_IMAGE", image),
			ExposedPorts: []string{string(tcpDbPort)},
			Env:          env,
			WaitingFor:   wait.ForListeningPort(tcpDbPort).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start Database")
		return nil, err
	}
	testContainers.DBContainer = dbContainer

	dbHost, err := dbContainer.Host(ctx)
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to get Database host")
		return nil, err
	}
	dbPort, err := dbContainer.MappedPort(ctx, tcpDbPort)
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to get Database port")
		return nil, err
	}

	testContainers.Config = &config.Config{
		ServiceName:       "dbreview-test",
		DBType:            dbType,
		DBHost:            dbHost,
		DBPort:            dbPort.Port(),
		DBDatabase:        dbName,
		DBUser:            dbUser,
		DBPassword:        dbPassword,
		DBConnectionLimit: 5,
		DBLogLevel:        "silent",
		MailTransport:     config.MailTransportLog,
		NotifyConcurrency: 1,
	}
	logMessage(t, "DB_HOST=%s", dbHost)
	logMessage(t, "DB_PORT=%s", dbPort.Port())

	if withRedis {
		redisContainer, redisAddr, err := StartRedis(ctx)
		if err != nil {
			testContainers.Terminate(t)
			exitWithError(t, err, "Failed to start Redis")
			return nil, err
		}
		testContainers.RedisContainer = redisContainer
		testContainers.RedisAddr = redisAddr
		testContainers.Config.RedisAddr = redisAddr
		logMessage(t, "REDIS_ADDR=%s", redisAddr)
	}

	logMessage(t, "dbreview testcontainers started successfully")
	return testContainers, nil
}

// StartRedis starts a standalone redis and returns its host address
func StartRedis(ctx context.Context) (testcontainers.Container, string, error) {
	tcpRedisPort, err := nat.NewPort("tcp", "6379")
	if err != nil {
		return nil, "", err
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        getEnv("REDIS_IMAGE", "redis:7-alpine"),
			ExposedPorts: []string{string(tcpRedisPort)},
			WaitingFor:   wait.ForListeningPort(tcpRedisPort).WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", err
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		redisContainer.Terminate(ctx)
		return nil, "", err
	}
	port, err := redisContainer.MappedPort(ctx, tcpRedisPort)
	if err != nil {
		redisContainer.Terminate(ctx)
		return nil, "", err
	}

	return redisContainer, fmt.Sprintf("%s:%s", host, port.Port()), nil
}

// ConnectAndMigrate connects to the container database, waiting for it to accept queries
func (tc *TestContainers) ConnectAndMigrate(t *testing.T) *gorm.DB {
	db, err := database.Connect(tc.Config)
	if err != nil {
		exitWithError(t, err, "Failed to connect to Database")
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		exitWithError(t, err, "Failed to get underlying SQL DB")
		return nil
	}

	// Wait for connection to be really ready
	for i := 0; i < 30; i++ {
		err = sqlDB.Ping()
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		exitWithError(t, err, "Database not ready after 30 seconds")
		return nil
	}

	if err := database.AutoMigrate(db); err != nil {
		exitWithError(t, err, "Failed to run migrations")
		return nil
	}

	return db
}

func dbContainerSpec(dbType, name, user, password string) (string, string, map[string]string) {
	switch dbType {
	case "postgres", "postgresql":
		return "postgres:16-alpine", "5432", map[string]string{
			"POSTGRES_PASSWORD": password,
			"POSTGRES_USER":     user,
			"POSTGRES_DB":       name,
		}
	case "mariadb", "mysql":
		return "mariadb:11", "3306", map[string]string{
			"MYSQL_ROOT_PASSWORD": password,
			"MYSQL_DATABASE":      name,
			"MYSQL_USER":          user,
			"MYSQL_PASSWORD":      password,
		}
	}
	return "", "", nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
		os.Exit(1)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
