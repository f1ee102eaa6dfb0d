package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/parties247/party-fetcher/internal/backend"
	"github.com/parties247/party-fetcher/internal/goout"
	"github.com/parties247/party-fetcher/internal/logger"
	"github.com/parties247/party-fetcher/internal/metrics"
	"github.com/parties247/party-fetcher/internal/myevents"
	"github.com/parties247/party-fetcher/internal/record"
	"github.com/parties247/party-fetcher/internal/storage"
)

const (
	NameNightlife = goout.CategoryNightlife
	NameWeekend   = goout.CategoryWeekend
	NameMyEvents  = myevents.CarouselName
)

// Names lists every job in the order RunAll runs them by default
var Names = []string{NameNightlife, NameWeekend, NameMyEvents}

// Job is one fetch-and-forward pass
type Job interface {
	Name() string
	Run(ctx context.Context) ([]record.EventRecord, error)
}

// EventSource fetches public Go Out event URLs
type EventSource interface {
	FetchNightlifeEvents(ctx context.Context) ([]string, error)
	FetchWeekendEvents(ctx context.Context) ([]string, error)
	Referral() string
}

// MyEventsSource fetches the account's own events
type MyEventsSource interface {
	FetchEvents(ctx context.Context) (map[string]any, error)
}

// CarouselImporter replaces the contents of a carousel
type CarouselImporter interface {
	ImportCarouselURLs(ctx context.Context, carouselName, referral string, urls []string) (map[string]any, error)
}

// PartyAdder adds parties one URL at a time
type PartyAdder interface {
	AddPartyURLs(ctx context.Context, urls []string) ([]backend.PartyResult, error)
}

// carouselJob fetches URLs and imports them into the carousel named after the job
type carouselJob struct {
	name     string
	fetch    func(ctx context.Context) ([]string, error)
	referral string
	importer CarouselImporter
	store    *storage.Storage
	now      func() time.Time
}

// NewNightlife creates the nightlife job. store may be nil.
func NewNightlife(source EventSource, importer CarouselImporter, store *storage.Storage) Job {
	return &carouselJob{
		name:     NameNightlife,
		fetch:    source.FetchNightlifeEvents,
		referral: source.Referral(),
		importer: importer,
		store:    store,
		now:      time.Now,
	}
}

// NewWeekend creates the weekend job. store may be nil.
func NewWeekend(source EventSource, importer CarouselImporter, store *storage.Storage) Job {
	return &carouselJob{
		name:     NameWeekend,
		fetch:    source.FetchWeekendEvents,
		referral: source.Referral(),
		importer: importer,
		store:    store,
		now:      time.Now,
	}
}

func (j *carouselJob) Name() string {
	return j.name
}

func (j *carouselJob) Run(ctx context.Context) ([]record.EventRecord, error) {
	urls, err := j.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s events: %w", j.name, err)
	}

	records := record.Build(j.name, urls)
	if err := saveRecords(j.store, j.name, records, j.now()); err != nil {
		return nil, err
	}

	if _, err := j.importer.ImportCarouselURLs(ctx, j.name, j.referral, record.URLs(records)); err != nil {
		return nil, fmt.Errorf("importing %s carousel: %w", j.name, err)
	}

	metrics.Records(j.name, len(records))
	logger.Info("Sent event URLs to backend", logger.Fields{"job": j.name, "count": len(records)})
	return records, nil
}

type myEventsJob struct {
	source       MyEventsSource
	adder        PartyAdder
	eventBaseURL string
	store        *storage.Storage
	now          func() time.Time
}

// NewMyEvents creates the my_events job. URLs are built on eventBaseURL without a
// referral. store may be nil.
func NewMyEvents(source MyEventsSource, adder PartyAdder, eventBaseURL string, store *storage.Storage) Job {
	return &myEventsJob{
		source:       source,
		adder:        adder,
		eventBaseURL: eventBaseURL,
		store:        store,
		now:          time.Now,
	}
}

func (j *myEventsJob) Name() string {
	return NameMyEvents
}

func (j *myEventsJob) Run(ctx context.Context) ([]record.EventRecord, error) {
	payload, err := j.source.FetchEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching my events: %w", err)
	}

	records := record.Build(NameMyEvents, myevents.EventURLs(payload, j.eventBaseURL))
	if err := saveRecords(j.store, NameMyEvents, records, j.now()); err != nil {
		return nil, err
	}

	if _, err := j.adder.AddPartyURLs(ctx, record.URLs(records)); err != nil {
		return nil, fmt.Errorf("adding my events: %w", err)
	}

	metrics.Records(NameMyEvents, len(records))
	logger.Info("Sent 'my events' URLs to backend", logger.Fields{"job": NameMyEvents, "count": len(records)})
	return records, nil
}

// RunAll runs jobs in order and merges their records. The first failure stops the run.
func RunAll(ctx context.Context, jobs ...Job) ([]record.EventRecord, error) {
	collections := make([][]record.EventRecord, 0, len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		logger.Info("Running job", logger.Fields{"job": job.Name()})
		records, err := job.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s job: %w", job.Name(), err)
		}
		collections = append(collections, records)
	}
	return record.Merge(collections...), nil
}

func saveRecords(store *storage.Storage, job string, records []record.EventRecord, at time.Time) error {
	if store == nil {
		return nil
	}
	path, err := store.SaveRecords(job, records, at)
	if err != nil {
		return fmt.Errorf("saving %s records: %w", job, err)
	}
	logger.Info("Saved event records", logger.Fields{"job": job, "count": len(records), "path": path})
	return nil
}
