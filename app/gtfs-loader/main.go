package main

import (
	"context"
	"fmt"
	logger "log"
	"os"
	"strconv"
	"time"

	"github.com/OpenTransitTools/journeycheck/app/gtfs-loader/gtfsmanager"
	"github.com/OpenTransitTools/journeycheck/business/data/gtfs"
	"github.com/OpenTransitTools/journeycheck/foundation/database"
	"github.com/OpenTransitTools/journeycheck/foundation/httpclient"
	"github.com/ardanlabs/conf"
	"github.com/joho/godotenv"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "GTFS_LOADER : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	if err := run(log); err != nil {
		log.Printf("main: error: %v", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	var cfg struct {
		conf.Version
		Args conf.Args
		DB   struct {
			URL        string `conf:"noprint"`
			User       string `conf:"default:postgres"`
			Password   string `conf:"default:postgres,noprint"`
			Host       string `conf:"default:0.0.0.0"`
			Name       string `conf:"default:postgres"`
			DisableTLS bool   `conf:"default:true"`
		}
		GTFS struct {
			BusUrl         string        `conf:"default:https://www.transportforireland.ie/transitData/google_transit_dublinbus.zip"`
			LuasUrl        string        `conf:"default:https://www.transportforireland.ie/transitData/google_transit_luas.zip"`
			DartUrl        string        `conf:"default:https://www.transportforireland.ie/transitData/google_transit_irishrail.zip"`
			TempDir        string        `conf:"default:gtfs_tmp"`
			ForceDownload  bool          `conf:"default:false"`
			RequestTimeout time.Duration `conf:"default:5m"`
		}
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Maintain the gtfs schedule of each public transport mode in database"
	const prefix = "GTFS_LOADER"

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
	// Start Database

	log.Println("main: Initializing database support")

	db, err := database.Open(database.Config{
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

	urls := map[string]string{
		"bus":  cfg.GTFS.BusUrl,
		"luas": cfg.GTFS.LuasUrl,
		"dart": cfg.GTFS.DartUrl,
	}

	switch cfg.Args.Num(0) {
	case "schema":
		if err = gtfs.CreateSchema(db); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
		log.Printf("main: schema ready")
		return nil
	case "load":
		mode := cfg.Args.Num(1)
		url, present := urls[mode]
		if !present {
			return fmt.Errorf("expected one of bus, luas or dart with command load, found %q", mode)
		}
		if location := cfg.Args.Num(2); len(location) > 0 {
			_, err = gtfsmanager.LoadGTFSScheduleFromFile(log, db, mode, location, httpclient.RemoteFileInfo{},
				time.Now())
		} else {
			client := httpclient.NewClient(cfg.GTFS.RequestTimeout)
			err = gtfsmanager.UpdateGTFSSchedule(context.Background(), log, db, client, mode, cfg.GTFS.TempDir, url,
				cfg.GTFS.ForceDownload)
		}
		if err != nil {
			return err
		}
		return gtfsmanager.ListGTFSSchedules(db, os.Stdout)
	case "delete":
		dataSetIdString := cfg.Args.Num(1)
		if len(dataSetIdString) < 1 {
			return fmt.Errorf("expected data set id with command delete")
		}
		dataSetId, err := strconv.ParseInt(dataSetIdString, 10, 64)
		if err != nil {
			return fmt.Errorf("unable to parse data set Id %s, error: %w", dataSetIdString, err)
		}
		return gtfsmanager.DeleteGTFSSchedule(log, db, dataSetId)

	case "list":
		return gtfsmanager.ListGTFSSchedules(db, os.Stdout)

	default:
		fmt.Println("schema: create the schedule tables if they don't exist")
		fmt.Println("load <mode> [location]: download and update (if needed) the latest gtfs data set of mode, " +
			"or load it from a local directory or zip file")
		fmt.Println("delete <id>: remove a gtfs data set from the database")
		fmt.Println("list: list all gtfs data sets in the database")
		usage, err := conf.Usage(prefix, &cfg)
		if err != nil {
			return fmt.Errorf("generating config usage: %w", err)
		}
		printUsage(usage)

	}
	return nil
}

func printUsage(confUsage string) {
	fmt.Println(confUsage)
}
