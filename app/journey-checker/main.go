package main

import (
	"context"
	"encoding/json"
	"fmt"
	logger "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/OpenTransitTools/journeycheck/app/journey-checker/checker"
	"github.com/OpenTransitTools/journeycheck/business/bayes"
	"github.com/OpenTransitTools/journeycheck/business/journey"
	"github.com/OpenTransitTools/journeycheck/business/schedule"
	"github.com/OpenTransitTools/journeycheck/foundation/database"
	"github.com/ardanlabs/conf"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "JOURNEY_CHECKER : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	if err := run(log); err != nil {
		log.Printf("main: error: %v", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	var cfg struct {
		conf.Version
		Args     conf.Args
		Schedule struct {
			Source   string `conf:"default:file"`
			BusPath  string `conf:"default:gtfs/bus"`
			LuasPath string `conf:"default:gtfs/luas"`
			DartPath string `conf:"default:gtfs/dart"`
		}
		DB struct {
			URL        string `conf:"noprint"`
			User       string `conf:"default:postgres"`
			Password   string `conf:"default:postgres,noprint"`
			Host       string `conf:"default:0.0.0.0"`
			Name       string `conf:"default:postgres"`
			DisableTLS bool   `conf:"default:true"`
		}
		Bayes struct {
			ProbabilityTable string
		}
		Check struct {
			MaxGoroutines int `conf:"default:8"`
		}
		NATS struct {
			URL            string `conf:"default:nats://127.0.0.1:4222"`
			RequestSubject string `conf:"default:journey-check-request"`
			QueueGroup     string `conf:"default:journey-checker"`
			ResultsSubject string `conf:"default:journey-check-results"`
		}
		Web struct {
			Port int `conf:"default:8080"`
		}
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Verify declared journeys against their gps traces"
	const prefix = "JOURNEY_CHECKER"

	// values from a .env file are used when not already set in the environment
	_ = godotenv.Load()
	if err := conf.Parse(os.Args[1:], prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %w", err)
			}
			printUsage(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Printf("main : Started : Application initializing : version %s", build)
	defer log.Println("main: Completed")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Printf("main: Config :\n%v\n", out)

	// =========================================================================
	// Schedules

	modes := make([]string, 0, len(journey.AllModes))
	for _, mode := range journey.AllModes {
		if mode.IsPublic() {
			modes = append(modes, string(mode))
		}
	}
	var statusCheck checker.StatusCheck
	feeds := make([]*schedule.Feed, 0, len(modes))
	switch cfg.Schedule.Source {
	case "file":
		paths := map[string]string{
			string(journey.Bus):  cfg.Schedule.BusPath,
			string(journey.Luas): cfg.Schedule.LuasPath,
			string(journey.Dart): cfg.Schedule.DartPath,
		}
		for _, mode := range modes {
			if _, err := os.Stat(paths[mode]); err != nil {
				log.Printf("main: no %s schedule at %s, %s segments will not be matched", mode, paths[mode], mode)
				continue
			}
			feeds = append(feeds, schedule.NewFeed(log, mode, schedule.NewFileSource(log, paths[mode])))
		}
	case "db":
		log.Println("main: Initializing database support")
		var db *sqlx.DB
		db, err = database.Open(database.Config{
			URL:        cfg.DB.URL,
			User:       cfg.DB.User,
			Password:   cfg.DB.Password,
			Host:       cfg.DB.Host,
			Name:       cfg.DB.Name,
			DisableTLS: cfg.DB.DisableTLS,
		})
		if err != nil {
			return fmt.Errorf("connecting to db: %w", err)
		}
		defer func() {
			log.Printf("main: Database Stopping : %s", cfg.DB.Host)
			err = db.Close()
			if err != nil {
				log.Printf("main: error closing database: %v", err)
			}
		}()
		for _, mode := range modes {
			feeds = append(feeds, schedule.NewFeed(log, mode, schedule.NewDatabaseSource(db, mode)))
		}
		statusCheck = func(ctx context.Context) error {
			return database.StatusCheck(ctx, db)
		}
	default:
		return fmt.Errorf("unknown schedule source %q, expected file or db", cfg.Schedule.Source)
	}
	repository := schedule.NewRepository(feeds...)
	log.Printf("main: schedules available for modes %v", repository.Modes())

	table, err := probabilityTable(cfg.Bayes.ProbabilityTable)
	if err != nil {
		return err
	}
	metrics := checker.NewMetrics()
	verifier := journey.NewVerifier(log, repository, bayes.NewClassifier(table))
	journeyChecker := checker.NewChecker(log, verifier, metrics)

	switch cfg.Args.Num(0) {
	case "check":
		paths, err := checker.ExpandPaths(cfg.Args[1:])
		if err != nil {
			return err
		}
		return printResults(journeyChecker.CheckFiles(paths, cfg.Check.MaxGoroutines))

	case "lines":
		mode := cfg.Args.Num(1)
		lines, err := repository.Lines(mode)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil

	case "serve":
		log.Printf("main: Connecting to nats at %s", cfg.NATS.URL)
		natsConn, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		defer natsConn.Close()

		// Make a channel to listen for an interrupt or terminate signal from the OS.
		// Use a buffered channel because the signal package requires it.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		checker.StartServices(log, natsConn, checker.ListenerConfig{
			RequestSubject: cfg.NATS.RequestSubject,
			QueueGroup:     cfg.NATS.QueueGroup,
			ResultsSubject: cfg.NATS.ResultsSubject,
		}, cfg.Web.Port, journeyChecker, repository, statusCheck, metrics, shutdown)
		return nil

	default:
		fmt.Println("check <file or directory>...: verify journey files and print one json result per line")
		fmt.Println("lines <mode>: list the lines of a mode's schedule")
		fmt.Println("serve: verify journeys received over nats and serve status and metrics")
		usage, err := conf.Usage(prefix, &cfg)
		if err != nil {
			return fmt.Errorf("generating config usage: %w", err)
		}
		printUsage(usage)
	}
	return nil
}

// probabilityTable loads the table at path, or the built in table when path is empty
func probabilityTable(path string) (bayes.Table, error) {
	if len(path) == 0 {
		return bayes.DefaultTable()
	}
	return bayes.LoadTable(path)
}

// printResults writes each result as a json line and fails when a journey could not be checked
func printResults(results []*checker.Result) error {
	encoder := json.NewEncoder(os.Stdout)
	failures := 0
	for _, result := range results {
		if err := encoder.Encode(result); err != nil {
			return err
		}
		if len(result.Error) > 0 {
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d journeys could not be checked", failures, len(results))
	}
	return nil
}

func printUsage(confUsage string) {
	fmt.Println(confUsage)
}
