package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/dbreview/data"
	"github.com/localnerve/dbreview/internal/database"
	"github.com/localnerve/dbreview/internal/services"
	"github.com/localnerve/dbreview/internal/testutil"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var withRedis bool
	flag.BoolVar(&withRedis, "redis", false, "also start redis for the dispatch lock")
	var seed bool
	flag.BoolVar(&seed, "seed", false, "load the sample employees and database records")
	flag.Parse()

	usage := `
Run the dbreview testcontainers with the environment variables from the .env file.
Prints DB_HOST, DB_PORT (and REDIS_ADDR) to point a local server at.

Usage:

testcontainers [-h] [-redis] [-seed] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

example
  testcontainers -redis -seed -f /path/to/something/.env
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGTSTP, syscall.SIGQUIT)

	testContainers, err := testutil.CreateTestContainers(nil, withRedis)
	if err != nil {
		log.Fatalf("Failed to create test containers: %v\n", err)
	}

	// create the schema so the server can start against an empty database
	db := testContainers.ConnectAndMigrate(nil)
	if seed {
		ctx := context.Background()
		employees, err := services.ImportEmployees(ctx, db, data.SampleEmployeesCSV, services.EmployeeFormatCSV)
		if err != nil {
			testContainers.Terminate(nil)
			log.Fatalf("Failed to seed employees: %v\n", err)
		}
		records, err := services.IngestDatabaseRecords(ctx, db, data.SampleDBInfoJSON)
		if err != nil {
			testContainers.Terminate(nil)
			log.Fatalf("Failed to seed database records: %v\n", err)
		}
		log.Printf("Seeded %d employees, %d database records (%d invalid entries skipped)\n",
			employees.Total, records.Total, len(records.Rejected))
	}
	database.Close(db)

	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating test containers...\n", sig)
	testContainers.Terminate(nil)
}
