// Package pattern turns a configuration into a finished score: it seeds
// the opening segment, runs the voice-leading engine and retries with a
// fresh seed when a walk fails.
package pattern

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/voicelead/config"
	"github.com/jsphweid/voicelead/engine"
	"github.com/jsphweid/voicelead/harmony"
	"github.com/jsphweid/voicelead/logging"
	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/rhythm"
	"github.com/jsphweid/voicelead/score"
	"go.uber.org/zap"
)

// Rhythms expands every voice's bar template over total ticks.
func Rhythms(cfg *config.Config, total int) (map[int]*rhythm.Rhythm, error) {
	res := make(map[int]*rhythm.Rhythm, len(cfg.Voices))
	for _, v := range cfg.Voices {
		r, err := rhythm.FromTemplate(v.Rhythm, total)
		if err != nil {
			return nil, fmt.Errorf("voice %d: %w", v.ID, err)
		}
		res[v.ID] = r
	}
	return res, nil
}

// Generate runs up to cfg.Pattern.Attempts walks, seeding attempt n with
// cfg.Pattern.Seed+n. Rhythms given in overrides replace the templates of
// their voices. The report is returned whether or not a walk succeeded.
func Generate(cfg *config.Config, overrides map[int]*rhythm.Rhythm, logger *zap.Logger) (*score.Score, *model.RunReport, error) {
	log := logging.OrNop(logger)

	progression, err := harmony.NewProgression(cfg.Tet, cfg.ModelHarmonies())
	if err != nil {
		return nil, nil, fmt.Errorf("invalid harmonies: %w", err)
	}
	rhythms, err := Rhythms(cfg, progression.End())
	if err != nil {
		return nil, nil, err
	}
	for voice, r := range overrides {
		rhythms[voice] = r
	}
	items := engine.BuildOrder(cfg.VoiceIDs(), cfg.Pattern.SegmentLength, progression.End())

	report := &model.RunReport{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	var lastErr error
	for attempt := 0; attempt < cfg.Pattern.Attempts; attempt++ {
		seed := cfg.Pattern.Seed + uint64(attempt)
		rng := rand.New(rand.NewPCG(seed, 0))
		report.Attempts = attempt + 1
		report.Seed = seed

		s := score.New()
		if err := Seed(cfg, progression, rhythms, s, rng); err != nil {
			return nil, report, err
		}

		diag, err := engine.New(cfg, s, progression, rhythms, rng, log).Resolve(items)
		diag.Fill(report)
		if err == nil {
			report.Succeeded = true
			report.Notes = s.Len()
			log.Info("pattern generated",
				zap.String("id", report.ID),
				zap.Uint64("seed", seed),
				zap.Int("attempts", report.Attempts),
				zap.Int("notes", report.Notes),
			)
			return s, report, nil
		}
		if !errors.Is(err, engine.ErrExhausted) && !errors.Is(err, engine.ErrCeiling) {
			return nil, report, err
		}
		lastErr = err
		log.Info("attempt failed, reseeding", zap.Int("attempt", attempt), zap.Uint64("seed", seed), zap.Error(err))
	}
	return nil, report, fmt.Errorf("no pattern after %d attempts: %w", cfg.Pattern.Attempts, lastErr)
}
