package nmbs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/rail-live/cache"
	"github.com/theoremus-urban-solutions/rail-live/config"
	"github.com/theoremus-urban-solutions/rail-live/gtfs"
	"github.com/theoremus-urban-solutions/rail-live/metrics"
)

// Static table endpoints. The realtime feed lives beside them but does
// not page and is never cached.
const (
	pathStops         = "/api/v1/stops"
	pathRoutes        = "/api/v1/routes"
	pathTrips         = "/api/v1/trips"
	pathStopTimes     = "/api/v1/stop_times"
	pathCalendar      = "/api/v1/calendar"
	pathCalendarDates = "/api/v1/calendar_dates"
	pathAgency        = "/api/v1/agency"
	pathRealtime      = "/api/v1/realtime"
	pathHealth        = "/api/v1/health"
)

// envelope is the paginated response wrapper every static endpoint uses.
type envelope struct {
	Data []json.RawMessage `json:"data"`
	Meta *pageMeta         `json:"meta"`
}

type pageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

// Client reads the relay's static tables and realtime feed. Construct
// one per relay; it is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	store    *cache.Store
	ttl      time.Duration
	maxPages int
	metrics  *metrics.Collector
}

// New builds a client from the API section of the config. store and col
// may be nil to disable caching and instrumentation.
func New(cfg config.APIConfig, store *cache.Store, ttl time.Duration, col *metrics.Collector) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		store:    store,
		ttl:      ttl,
		maxPages: cfg.MaxPages,
		metrics:  col,
	}
}

// get performs one GET and returns the body. Non-2xx responses are
// drained and reported as transport errors. endpoint is the unparamized
// path used as the metrics label, so page numbers do not blow up the
// label space.
func (c *Client) get(ctx context.Context, url, endpoint string) ([]byte, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{URL: url, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	if c.metrics != nil {
		c.metrics.ObserveFetch(endpoint, time.Since(start))
	}
	return body, nil
}

// fetchAll walks every page of a static endpoint and returns the
// combined records. On a mid-pagination transport failure the pages
// gathered so far are returned alongside the error, so callers can keep
// a partial table rather than nothing. Complete results are cached
// under a key derived from the path.
func (c *Client) fetchAll(ctx context.Context, path string) ([]json.RawMessage, error) {
	cacheKey := path + "|all"
	if c.store != nil {
		if payload, ok := c.store.Get(cacheKey); ok {
			var records []json.RawMessage
			if err := json.Unmarshal(payload, &records); err == nil {
				if c.metrics != nil {
					c.metrics.IncCacheHit()
				}
				return records, nil
			}
			c.store.Invalidate(cacheKey)
		}
		if c.metrics != nil {
			c.metrics.IncCacheMiss()
		}
	}

	var records []json.RawMessage
	truncated := false
	for page := 1; ; page++ {
		if c.maxPages > 0 && page > c.maxPages {
			log.Warn().Str("path", path).Int("max_pages", c.maxPages).
				Msg("pagination bound reached, truncating table")
			truncated = true
			break
		}
		url := fmt.Sprintf("%s%s?page=%d", c.baseURL, path, page)
		body, err := c.get(ctx, url, path)
		if err != nil {
			return records, err
		}
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return records, &DecodeError{URL: url, Err: err}
		}
		if len(env.Data) == 0 {
			break
		}
		records = append(records, env.Data...)
		if env.Meta != nil && env.Meta.CurrentPage >= env.Meta.LastPage {
			break
		}
	}

	// A truncated walk is an incomplete table. Caching it would serve the
	// short result to later calls whose page bound allows a full walk.
	if c.store != nil && !truncated {
		if payload, err := json.Marshal(records); err == nil {
			c.store.Put(cacheKey, payload, c.ttl)
		}
	}
	return records, nil
}

// fetchRows fetches an endpoint and decodes every record into T. Records
// gathered before a transport failure are still decoded and returned
// with the error.
func fetchRows[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	records, fetchErr := c.fetchAll(ctx, path)
	rows := make([]T, 0, len(records))
	for _, rec := range records {
		var row T
		if err := json.Unmarshal(rec, &row); err != nil {
			return rows, &DecodeError{URL: c.baseURL + path, Err: err}
		}
		rows = append(rows, row)
	}
	return rows, fetchErr
}

// Stops fetches the full stops table.
func (c *Client) Stops(ctx context.Context) ([]gtfs.StopRow, error) {
	return fetchRows[gtfs.StopRow](ctx, c, pathStops)
}

// Routes fetches the full routes table.
func (c *Client) Routes(ctx context.Context) ([]gtfs.RouteRow, error) {
	return fetchRows[gtfs.RouteRow](ctx, c, pathRoutes)
}

// Trips fetches the full trips table.
func (c *Client) Trips(ctx context.Context) ([]gtfs.TripRow, error) {
	return fetchRows[gtfs.TripRow](ctx, c, pathTrips)
}

// StopTimes fetches the full stop_times table. This is by far the
// largest table, so the pagination bound matters most here.
func (c *Client) StopTimes(ctx context.Context) ([]gtfs.StopTimeRow, error) {
	return fetchRows[gtfs.StopTimeRow](ctx, c, pathStopTimes)
}

// Calendar fetches the service calendar table.
func (c *Client) Calendar(ctx context.Context) ([]gtfs.CalendarRow, error) {
	return fetchRows[gtfs.CalendarRow](ctx, c, pathCalendar)
}

// CalendarDates fetches the calendar exceptions table.
func (c *Client) CalendarDates(ctx context.Context) ([]gtfs.CalendarDateRow, error) {
	return fetchRows[gtfs.CalendarDateRow](ctx, c, pathCalendarDates)
}

// Agency fetches the agency table.
func (c *Client) Agency(ctx context.Context) ([]gtfs.AgencyRow, error) {
	return fetchRows[gtfs.AgencyRow](ctx, c, pathAgency)
}

// Tables fetches every static table in one call. A failure on any table
// aborts the load; partially fetched tables from earlier endpoints are
// kept in the result so the caller can decide what to do with them.
func (c *Client) Tables(ctx context.Context) (gtfs.Tables, error) {
	var t gtfs.Tables
	var err error
	if t.Stops, err = c.Stops(ctx); err != nil {
		return t, err
	}
	if t.Routes, err = c.Routes(ctx); err != nil {
		return t, err
	}
	if t.Trips, err = c.Trips(ctx); err != nil {
		return t, err
	}
	if t.StopTimes, err = c.StopTimes(ctx); err != nil {
		return t, err
	}
	if t.Calendar, err = c.Calendar(ctx); err != nil {
		return t, err
	}
	if t.CalendarDates, err = c.CalendarDates(ctx); err != nil {
		return t, err
	}
	if t.Agency, err = c.Agency(ctx); err != nil {
		return t, err
	}
	return t, nil
}

// Realtime fetches the raw realtime feed body. The bytes are returned
// as-is for the feed decoder and are never cached.
func (c *Client) Realtime(ctx context.Context) ([]byte, error) {
	return c.get(ctx, c.baseURL+pathRealtime, pathRealtime)
}

// Health probes the relay's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, c.baseURL+pathHealth, pathHealth)
	return err
}
