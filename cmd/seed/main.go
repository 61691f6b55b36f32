package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/academie/admission-backend/internal/config"
	"github.com/academie/admission-backend/internal/database"
	"github.com/academie/admission-backend/internal/logger"
	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/repository"
)

//go:embed fixture.json
var defaultFixture []byte

// fixture is the seed file layout: cohorts and quizzes with their questions.
type fixture struct {
	Sessions []model.Session `json:"sessions"`
	Quizzes  []model.Quiz    `json:"quizzes"`
}

func main() {
	var path string
	var dryRun bool
	flag.StringVar(&path, "file", "", "Fixture JSON file; the bundled sample is used when empty")
	flag.BoolVar(&dryRun, "dry-run", false, "Validate the fixture without writing")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat).With().Str("component", "seed").Logger()

	raw := defaultFixture
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to read fixture")
		}
		raw = b
	}

	fx, err := loadFixture(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid fixture")
	}
	if dryRun {
		fmt.Printf("Fixture OK: %d sessions, %d quizzes\n", len(fx.Sessions), len(fx.Quizzes))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	tx := repository.NewTxManager(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		for i := range fx.Sessions {
			if err := sessionRepo.Create(ctx, &fx.Sessions[i]); err != nil {
				return fmt.Errorf("session %q: %w", fx.Sessions[i].Name, err)
			}
		}
		for i := range fx.Quizzes {
			if err := quizRepo.Create(ctx, &fx.Quizzes[i]); err != nil {
				return fmt.Errorf("quiz %q: %w", fx.Quizzes[i].Title, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed, nothing written")
	}

	for _, s := range fx.Sessions {
		fmt.Printf("session  %s  %-8s %s\n", s.ID, s.Status, s.Name)
	}
	for _, q := range fx.Quizzes {
		kind := "admission"
		if q.Practice {
			kind = "practice"
		}
		fmt.Printf("quiz     %s  %-9s %s (%d questions)\n", q.ID, kind, q.Title, len(q.Questions))
	}
}

// loadFixture decodes and validates a fixture, assigning question order and
// default session status.
func loadFixture(raw []byte) (*fixture, error) {
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	for i := range fx.Sessions {
		s := &fx.Sessions[i]
		if s.Name == "" {
			return nil, fmt.Errorf("session %d: name is required", i+1)
		}
		switch s.Status {
		case "":
			s.Status = model.SessionStatusPlanned
		case model.SessionStatusPlanned, model.SessionStatusActive, model.SessionStatusClosed:
		default:
			return nil, fmt.Errorf("session %q: unknown status %q", s.Name, s.Status)
		}
	}
	for i := range fx.Quizzes {
		q := &fx.Quizzes[i]
		for j := range q.Questions {
			q.Questions[j].OrderNum = j
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("quiz %q: %w", q.Title, err)
		}
	}
	return &fx, nil
}
