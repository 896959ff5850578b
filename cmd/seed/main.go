// Command seed loads the twelve months and a year of generated
// devotionals, and optionally creates an administrator account.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/devocional/internal/calendar"
	"github.com/iliyamo/devocional/internal/config"
	"github.com/iliyamo/devocional/internal/database"
	"github.com/iliyamo/devocional/internal/logger"
	"github.com/iliyamo/devocional/internal/model"
	"github.com/iliyamo/devocional/internal/queue"
	"github.com/iliyamo/devocional/internal/repository"
	"github.com/iliyamo/devocional/internal/service"
)

const seedActor = "seed"

func main() {
	cfg := config.LoadTooling()
	var (
		reset    = flag.Bool("reset", false, "delete every devotional before seeding")
		year     = flag.Int("year", calendar.Resolve(cfg.CalendarYear), "calendar year bounding February")
		email    = flag.String("admin-email", "", "create an administrator with this email")
		password = flag.String("admin-password", "", "administrator password")
		username = flag.String("admin-username", "admin", "administrator display name")
	)
	flag.Parse()
	cfg.CalendarYear = *year

	lg := logger.Setup(config.LoadLogConfig())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := loadSeed(seedYAML)
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Open(cfg, lg)
	if err != nil {
		log.Fatalf("database unavailable: %v", err)
	}
	defer db.Close()
	if _, err := db.Migrate(ctx); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	events := queue.LogPublisher{Logger: lg}
	content := &service.ContentService{
		Months:      repository.NewMonthRepo(db),
		Devotionals: repository.NewDevotionalRepo(db),
		Activities:  repository.NewActivityRepo(db),
		Year:        cfg.CalendarYear,
		Events:      events,
		Logger:      lg,
	}

	if *reset {
		n, err := content.Devotionals.DeleteAll(ctx)
		if err != nil {
			log.Fatalf("reset devotionals: %v", err)
		}
		lg.Info("devotionals deleted", slog.Int64("count", n))
	}

	written, skipped, err := seedContent(ctx, content, data, *reset)
	if err != nil {
		log.Fatalf("seed content: %v", err)
	}
	lg.Info("content seeded", slog.Int("written", written), slog.Int("skipped", skipped), slog.Int("year", cfg.CalendarYear))

	if *email == "" {
		return
	}
	users := &service.UserService{
		Identities: repository.NewIdentityRepo(db),
		Profiles:   repository.NewProfileRepo(db),
		Progress:   repository.NewProgressRepo(db),
		Tokens:     repository.NewTokenRepo(db),
		BcryptCost: cfg.BcryptCost,
		Events:     events,
		Logger:     lg,
	}
	p, err := users.CreateUser(ctx, seedActor, service.NewUser{
		Email: *email, Username: *username, Password: *password, Role: model.RoleAdmin,
	})
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		lg.Info("administrator already exists", slog.String("email", *email))
	case err != nil:
		log.Fatalf("create administrator: %v", err)
	default:
		lg.Info("administrator created", slog.String("id", p.ID), slog.String("email", *email))
	}
}

// seedContent upserts the months and one devotional per calendar day.
// Existing devotionals are kept unless overwrite is set.  The content
// index runs across the whole year so consecutive months differ.
func seedContent(ctx context.Context, content *service.ContentService, data seedData, overwrite bool) (written, skipped int, err error) {
	for _, m := range data.Months {
		if err := content.Months.Upsert(ctx, m); err != nil {
			return written, skipped, err
		}
	}
	idx := 0
	for month := 1; month <= 12; month++ {
		for day := 1; day <= content.DaysInMonth(month); day++ {
			f := data.devotional(idx)
			idx++
			if !overwrite {
				existing, err := content.GetDevotional(ctx, month, day)
				if err != nil {
					return written, skipped, err
				}
				if existing != nil {
					skipped++
					continue
				}
			}
			if _, err := content.UpsertDevotional(ctx, seedActor, month, day, f); err != nil {
				return written, skipped, err
			}
			written++
		}
	}
	return written, skipped, nil
}
