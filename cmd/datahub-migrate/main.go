package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/shaiso/Datahub/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

func main() {
	var (
		dsn     = flag.String("dsn", "", "Database connection string (default: database.url from config)")
		up      = flag.Bool("up", false, "Apply all up migrations")
		down    = flag.Bool("down", false, "Revert all migrations")
		steps   = flag.Int("steps", 0, "Number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print current migration version")
		force   = flag.Int("force", -1, "Force set version")
	)
	flag.Parse()

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	if *dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		*dsn = cfg.Database.URL
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		log.Fatalf("migration source: %v", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, *dsn)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatalf("get version: %v", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			log.Fatalf("force version: %v", err)
		}
		fmt.Printf("forced to version %d\n", *force)
	case *up:
		apply("up", m.Up)
	case *down:
		apply("down", m.Down)
	case *steps != 0:
		apply(fmt.Sprintf("%d steps", *steps), func() error { return m.Steps(*steps) })
	default:
		fmt.Println("usage: datahub-migrate [-dsn URL] -up | -down | -steps N | -version | -force N")
		flag.PrintDefaults()
	}
}

func apply(what string, fn func() error) {
	if err := fn(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migrate %s: %v", what, err)
	}
	fmt.Printf("migrate %s: done\n", what)
}
