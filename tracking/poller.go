package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/rail-live/config"
	"github.com/theoremus-urban-solutions/rail-live/gtfs"
	"github.com/theoremus-urban-solutions/rail-live/gtfsrt"
	"github.com/theoremus-urban-solutions/rail-live/metrics"
	"github.com/theoremus-urban-solutions/rail-live/nmbs"
)

// Poller runs one background loop per data class: a slow one that
// reloads the static schedule and a fast one that polls the realtime
// feed and assembles a fresh snapshot. Readers always see the most
// recently completed snapshot; a failed poll keeps the previous one.
type Poller struct {
	client  *nmbs.Client
	metrics *metrics.Collector
	cfg     config.PollConfig
	opts    gtfs.Options

	mu       sync.RWMutex
	index    *gtfs.Index
	snapshot *Snapshot
	loc      *time.Location

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPoller wires a poller; Start must be called before Snapshot
// returns anything useful. col may be nil.
func NewPoller(client *nmbs.Client, col *metrics.Collector, cfg config.PollConfig, opts gtfs.Options) *Poller {
	return &Poller{
		client:  client,
		metrics: col,
		cfg:     cfg,
		opts:    opts,
		loc:     time.UTC,
		stop:    make(chan struct{}),
	}
}

// Start performs the initial static load and realtime poll, then spawns
// the two background loops. The initial static load failing entirely is
// not fatal: the indexer falls back to the synthetic network.
func (p *Poller) Start(ctx context.Context) {
	p.loadStatic(ctx)
	p.pollRealtime(ctx)

	p.wg.Add(2)
	go p.staticLoop(ctx)
	go p.realtimeLoop(ctx)
}

// Stop signals both loops and waits for them to drain. Safe to call
// more than once; in-flight requests are not preempted.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}

// Snapshot returns the latest completed snapshot, or nil before the
// first successful realtime poll.
func (p *Poller) Snapshot() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Index returns the current static schedule index.
func (p *Poller) Index() *gtfs.Index {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.index
}

func (p *Poller) realtimeLoop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(time.Duration(p.cfg.RealtimeIntervalSecs) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollRealtime(ctx)
		}
	}
}

func (p *Poller) staticLoop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(time.Duration(p.cfg.StaticIntervalSecs) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.loadStatic(ctx)
		}
	}
}

// loadStatic fetches every schedule table with a bounded retry loop,
// builds a fresh index, and swaps it in. A refresh that exhausts its
// retries never replaces an existing index: a transient outage at the
// daily tick must not trade real schedule data for the synthetic
// fallback. Only the very first load indexes a failed fetch, so the
// poller still comes up degraded rather than empty.
func (p *Poller) loadStatic(ctx context.Context) {
	backoff := time.Duration(p.cfg.StaticBackoffMS) * time.Millisecond
	var tables gtfs.Tables
	var err error
	for attempt := 0; ; attempt++ {
		tables, err = p.client.Tables(ctx)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("static schedule load failed")
		if p.metrics != nil {
			p.metrics.IncPollCycle("static", "error")
		}
		if attempt >= p.cfg.StaticRetries {
			break
		}
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if err != nil {
		p.mu.RLock()
		existing := p.index
		p.mu.RUnlock()
		if existing != nil {
			log.Warn().Err(err).Msg("static schedule refresh failed, keeping previous index")
			return
		}
	}

	idx := gtfs.BuildIndex(tables, p.opts)
	loc := p.loc
	if l, lerr := time.LoadLocation(idx.AgencyTZ); lerr == nil && idx.AgencyTZ != "" {
		loc = l
	} else if l, lerr := time.LoadLocation("Europe/Brussels"); lerr == nil {
		loc = l
	}

	p.mu.Lock()
	p.index = idx
	p.loc = loc
	p.mu.Unlock()

	if err == nil && p.metrics != nil {
		p.metrics.IncPollCycle("static", "ok")
	}
	log.Info().
		Int("routes", len(idx.Routes)).
		Int("stops", len(idx.Stops)).
		Bool("synthetic", idx.Synthetic).
		Msg("static schedule indexed")
}

// pollRealtime fetches and decodes one feed, assembles a snapshot, and
// swaps it in atomically. Any failure leaves the previous snapshot in
// place.
func (p *Poller) pollRealtime(ctx context.Context) {
	raw, err := p.client.Realtime(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("realtime poll failed")
		if p.metrics != nil {
			p.metrics.IncPollCycle("realtime", "error")
		}
		return
	}
	fm, err := gtfsrt.Decode(raw)
	if err != nil {
		log.Warn().Err(err).Msg("realtime feed rejected")
		if p.metrics != nil {
			p.metrics.IncPollCycle("realtime", "error")
		}
		return
	}

	p.mu.RLock()
	idx := p.index
	loc := p.loc
	p.mu.RUnlock()

	snap := Assemble(idx, fm.Entities, time.Now().In(loc))

	p.mu.Lock()
	p.snapshot = snap
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.IncPollCycle("realtime", "ok")
		p.metrics.SetActiveTrains(len(snap.ActiveTrains))
		p.metrics.SetSnapshotTime(snap.GeneratedAt)
	}
	log.Debug().
		Int("active", len(snap.ActiveTrains)).
		Int("unmatched", len(snap.Unmatched)).
		Msg("snapshot assembled")
}
