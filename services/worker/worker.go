package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"sjsage522/aptwatcher/helpers"
	"sjsage522/aptwatcher/internal/crawler"
	"sjsage522/aptwatcher/logger"
	"sjsage522/aptwatcher/services/notifier"
	"sjsage522/aptwatcher/services/publisher"
	"sjsage522/aptwatcher/services/store"
)

// Settings holds the worker's tunables
type Settings struct {
	MinSqFeet int
	Interval  time.Duration
	Window    Window

	// Now and Sleep default to the wall clock; tests replace them
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// CycleResult summarises one cycle
type CycleResult struct {
	CycleID     string
	Skipped     bool
	Cards       int
	Parsed      int
	ParseErrors int
	Kept        int
	New         int
	Notified    int
	Published   int
	Saved       int
}

// Worker runs the fetch, parse, filter, diff, notify, persist cycle on a schedule
type Worker struct {
	crawler   crawler.Crawler
	store     store.Store
	notifier  notifier.Notifier
	publisher publisher.Publisher
	logger    helpers.LoggerInterface
	settings  Settings
}

// NewWorker creates a new worker. pub may be nil.
func NewWorker(
	c crawler.Crawler,
	st store.Store,
	n notifier.Notifier,
	pub publisher.Publisher,
	logger helpers.LoggerInterface,
	settings Settings,
) *Worker {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.Sleep == nil {
		settings.Sleep = sleepContext
	}

	return &Worker{
		crawler:   c,
		store:     st,
		notifier:  n,
		publisher: pub,
		logger:    logger,
		settings:  settings,
	}
}

// Start runs a cycle immediately and then once per interval until ctx is
// cancelled. A cycle in progress is never interrupted by the schedule.
func (w *Worker) Start(ctx context.Context) error {
	log := logger.ForWorker()
	log.Info().
		Dur("interval", w.settings.Interval).
		Str("window", w.settings.Window.String()).
		Int("min_sq_feet", w.settings.MinSqFeet).
		Msg("Worker started")

	for {
		start := w.settings.Now()
		w.RunCycle(ctx)
		log.Debug().Dur("elapsed", w.settings.Now().Sub(start)).Msg("Cycle finished")

		if err := w.settings.Sleep(ctx, w.settings.Interval); err != nil {
			log.Info().Msg("Worker stopped")
			return nil
		}
	}
}

// RunCycle performs one cycle. Errors are logged through the worker's logger
// and the cycle returns early when fetching or loading state fails; nothing
// is persisted in that case.
func (w *Worker) RunCycle(ctx context.Context) CycleResult {
	result := CycleResult{CycleID: uuid.NewString()}
	log := logger.ForWorker().WithFields(logger.Fields{
		"cycle_id":    result.CycleID,
		"min_sq_feet": w.settings.MinSqFeet,
	})

	if now := w.settings.Now(); !w.settings.Window.Contains(now) {
		result.Skipped = true
		log.Info().
			Str("time", now.Format("15:04")).
			Str("window", w.settings.Window.String()).
			Msg("Outside allowed time range, skipping cycle")
		return result
	}

	extraction, err := w.crawler.FetchListings(ctx)
	if err != nil {
		w.logger.LogError(w.crawler.GetName(), err)
		return result
	}
	result.Cards = extraction.Cards
	result.Parsed = len(extraction.Listings)
	result.ParseErrors = len(extraction.Failures)

	kept := crawler.FilterBySize(extraction.Listings, w.settings.MinSqFeet)
	result.Kept = len(kept)

	seen, err := w.store.Load()
	if err != nil {
		w.logger.LogError("store", err)
		return result
	}

	fresh := store.NewEntries(kept, seen)
	result.New = len(fresh)

	if len(fresh) == 0 {
		w.logger.LogInfo("No new listings for now (%d checked)", len(kept))
	} else {
		result.Notified = w.notify(ctx, fresh)
		result.Published = w.publish(ctx, fresh)
	}

	saved, err := w.store.Save(seen, store.IDsOf(kept))
	if err != nil {
		w.logger.LogError("store", err)
		return result
	}
	result.Saved = len(saved)

	log.Info().
		Int("cards", result.Cards).
		Int("parse_errors", result.ParseErrors).
		Int("kept", result.Kept).
		Int("new", result.New).
		Int("notified", result.Notified).
		Int("seen", result.Saved).
		Msg("Cycle complete")

	return result
}

// notify sends one alert per new listing and returns how many reached
// every recipient.
func (w *Worker) notify(ctx context.Context, fresh []crawler.Listing) int {
	if err := w.notifier.Ready(); err != nil {
		w.logger.LogError("notifier", err)
		w.logger.LogInfo("Notifications disabled this cycle, %d new listings not sent", len(fresh))
		return 0
	}

	notified := 0
	for _, listing := range fresh {
		w.logger.LogInfo("New listing found: %s with ID: %s", listing.Name, listing.ID)
		if err := w.notifier.Notify(ctx, listing); err != nil {
			w.logger.LogError("notifier", err)
			continue
		}
		notified++
	}
	return notified
}

func (w *Worker) publish(ctx context.Context, fresh []crawler.Listing) int {
	if w.publisher == nil {
		return 0
	}

	published := 0
	for _, listing := range fresh {
		data, err := json.Marshal(listing)
		if err != nil {
			w.logger.LogError("publisher", err)
			continue
		}
		if err := w.publisher.Publish(ctx, "listing", data); err != nil {
			w.logger.LogError("publisher", err)
			continue
		}
		published++
	}
	return published
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
