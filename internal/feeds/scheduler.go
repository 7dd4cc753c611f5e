package feeds

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs each adapter's collection cycle on a fixed interval.
// SkipIfStillRunning gives every task a single-flight guard: a slow cycle
// is never overlapped by the next tick. Fetches get a per-cycle timeout so
// a hung source skips the cycle instead of blocking the schedule.
type Scheduler struct {
	cron         *cron.Cron
	interval     time.Duration
	fetchTimeout time.Duration
	initial      []func()
}

func NewScheduler(interval, fetchTimeout time.Duration) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(logger),
			cron.Recover(logger),
		)),
		interval:     interval,
		fetchTimeout: fetchTimeout,
	}
}

// AddAdapter registers an adapter's fetch-normalize-write cycle.
func (s *Scheduler) AddAdapter(a Adapter) {
	job := func() { s.runCycle(a) }
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(job))
	s.initial = append(s.initial, job)
}

// AddJob registers an arbitrary periodic task (e.g. aggregate-and-sync).
func (s *Scheduler) AddJob(name string, fn func()) {
	job := func() {
		log.Printf("scheduler: running job %s", name)
		fn()
	}
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(job))
	s.initial = append(s.initial, job)
}

// Start kicks off an initial run of every task, then hands the recurring
// schedule to cron.
func (s *Scheduler) Start() {
	go func() {
		for _, job := range s.initial {
			job()
		}
	}()
	s.cron.Start()
}

// Stop halts the schedule and waits for in-flight tasks to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runCycle(a Adapter) {
	ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
	defer cancel()

	log.Printf("feeds: %s: fetching", a.Name())
	docs, err := a.Fetch(ctx)
	if err != nil {
		// Logged and skipped; the source gets retried next cycle.
		log.Printf("feeds: %s: fetch failed, skipping cycle: %v", a.Name(), err)
		return
	}
	if len(docs) == 0 {
		log.Printf("feeds: %s: no new records", a.Name())
		return
	}

	if err := WriteDocuments(a.OutputFile(), docs, a.Mode()); err != nil {
		log.Printf("feeds: %s: failed to write output: %v", a.Name(), err)
		return
	}
	log.Printf("feeds: %s: wrote %d records to %s (%s)", a.Name(), len(docs), a.OutputFile(), a.Mode())
}
