// Package sequencer drives one card capture through the front, back,
// completed sequence. The Engine is shared and stateless. Each Session owns
// the mutable state of a single capture.
package sequencer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"cardscan/internal/scan/classifier"
	"cardscan/internal/scan/extractor"
	"cardscan/internal/scan/gazetteer"
	"cardscan/internal/scan/models"
	"cardscan/internal/scan/similarity"
	"cardscan/internal/scan/textnorm"
	id "cardscan/pkg/domain"
)

// Config selects the recognition tuning shared by every session of an Engine.
type Config struct {
	StrictIDPrefix bool
	// Gazetteer defaults to gazetteer.Default when nil.
	Gazetteer *gazetteer.Gazetteer
	// Nationalities extends extractor.CommonNationalities.
	Nationalities []string
}

// Engine bundles the classifier, duplicate detector and extractor.
type Engine struct {
	classifier *classifier.Classifier
	detector   *similarity.DuplicateDetector
	extractor  *extractor.Extractor
}

// NewEngine builds an engine from cfg.
func NewEngine(cfg Config) *Engine {
	places := cfg.Gazetteer
	if places == nil {
		places = gazetteer.Default
	}
	return &Engine{
		classifier: classifier.New(
			classifier.WithStrictIDPrefix(cfg.StrictIDPrefix),
			classifier.WithGazetteer(places),
		),
		detector: similarity.NewDuplicateDetector(cfg.StrictIDPrefix),
		extractor: extractor.New(
			extractor.WithStrictIDPrefix(cfg.StrictIDPrefix),
			extractor.WithGazetteer(places),
			extractor.WithNationalities(cfg.Nationalities...),
		),
	}
}

// NewSession starts a capture waiting for the front side.
func (e *Engine) NewSession(sessionID id.ScanSessionID, now time.Time, ttl time.Duration) *Session {
	snap := models.Snapshot{
		ID:        sessionID,
		State:     models.StateFront,
		Platform:  models.PlatformOther,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ttl > 0 {
		snap.ExpiresAt = now.Add(ttl)
	}
	return &Session{engine: e, snap: snap}
}

// Restore rebuilds a session from a stored snapshot.
func (e *Engine) Restore(snap *models.Snapshot) (*Session, error) {
	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}
	restored := *snap
	restored.Front = cloneSide(snap.Front)
	restored.Back = cloneSide(snap.Back)
	if snap.Fields != nil {
		restored.Fields = snap.Fields.Clone()
	}
	return &Session{engine: e, snap: restored}, nil
}

func (e *Engine) score(side models.Side, t *textnorm.Text) classifier.Verdict {
	if side == models.SideFront {
		return e.classifier.ScoreFront(t)
	}
	return e.classifier.ScoreBack(t)
}

func (e *Engine) isDuplicate(candidate *textnorm.Text, other *models.SideText, candidateIsFront bool) bool {
	otherText := textnorm.New(other.Text)
	if candidate.Clean() == otherText.Clean() {
		return true
	}
	return e.detector.Compare(candidate, otherText, candidateIsFront).Duplicate
}

// extract runs the front and back chains concurrently and merges the results.
func (e *Engine) extract(ctx context.Context, front, back string) (models.FieldMap, error) {
	var frontFields, backFields models.FieldMap
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		frontFields = e.extractor.ExtractFront(front)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		backFields = e.extractor.ExtractBack(back)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return extractor.Merge(frontFields, backFields), nil
}

func cloneSide(s *models.SideText) *models.SideText {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
