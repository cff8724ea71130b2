package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/viant/flagly/internal/clock"
	"github.com/viant/flagly/internal/idgen"
	"github.com/viant/flagly/service/event"
	"github.com/viant/flagly/service/store"
	"github.com/viant/flagly/stats"
	"github.com/viant/flagly/tracing"
)

const (
	apiKeyHeader = "x-api-key"
	featuresPath = "/api/%s/features"
)

// pollLoop owns the refresh schedule. The delay is measured from the end of
// one poll to the start of the next, so a slow fetch can never overlap the
// following tick. The first tick fires immediately.
func (r *Resolver) pollLoop(ctx context.Context) {
	defer close(r.stopped)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-timer.C:
		}
		r.poll(ctx)
		timer.Reset(time.Duration(r.config.Refresh) * time.Millisecond)
	}
}

// poll fetches the full feature set and applies the outcome to the cache.
func (r *Resolver) poll(ctx context.Context) {
	started := clock.Now()
	ctx, span := tracing.StartSpan(ctx, "flagly.poll", "CLIENT")
	span.WithAttributes(map[string]string{"flagly.project": r.config.Project})
	flows, err := r.fetch(ctx, span)
	if err != nil {
		r.onPollFailure(err)
		tracing.EndSpan(span, err)
		return
	}
	if flows == nil {
		// The control plane answered with a JSON null; keep the current
		// generation and count the poll as successful.
		r.recordStats(stats.Delta{Polls: 1})
		tracing.EndSpan(span, nil)
		return
	}
	r.onPollSuccess(ctx, flows, started)
	tracing.EndSpan(span, nil)
}

// fetch performs one HTTP round trip. A nil map with a nil error signals a
// JSON null response body.
func (r *Resolver) fetch(ctx context.Context, span *tracing.Span) (map[string]string, error) {
	if r.config.Project == "" {
		return nil, fmt.Errorf("project was empty")
	}
	URL := strings.TrimSuffix(r.config.URL, "/") + fmt.Sprintf(featuresPath, r.config.Project)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set(apiKeyHeader, r.apiKey)

	response, err := r.transport.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %v: %w", URL, err)
	}
	defer response.Body.Close()
	span.SetStatusFromHTTPCode(response.StatusCode)
	span.WithAttributes(map[string]string{"http.status_code": strconv.Itoa(response.StatusCode)})
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch %v: status %v", URL, response.StatusCode)
	}
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var flows map[string]string
	if err = json.Unmarshal(data, &flows); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return flows, nil
}

func (r *Resolver) onPollSuccess(ctx context.Context, flows map[string]string, started time.Time) {
	next := &generation{flows: flows, fetchedAt: clock.Now()}
	previous := r.current.Swap(next)

	changes := diffFlows(previous.flows, flows)
	now := clock.Now()
	for i := range changes {
		changes[i].ID = idgen.New()
		changes[i].At = now
	}
	r.persist(ctx, next)
	r.publish(ctx, changes, int(clock.Since(started).Milliseconds()))
	if r.listener != nil {
		r.listener(Update{
			Project:   r.config.Project,
			Flows:     flows,
			Changes:   changes,
			FetchedAt: next.fetchedAt,
		})
	}
	r.recordStats(stats.Delta{Polls: 1})
}

func (r *Resolver) onPollFailure(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Printf("failed to poll %v: %v", r.config.Project, err)
	if r.config.Fallback {
		r.current.Store(&generation{flows: map[string]string{}, fetchedAt: clock.Now()})
	}
	r.recordStats(stats.Delta{Polls: 1, PollFailures: 1, Err: err})
}

func (r *Resolver) persist(ctx context.Context, next *generation) {
	if r.snapshots == nil {
		return
	}
	snapshot := &store.Snapshot{
		ID:        idgen.New(),
		Project:   r.config.Project,
		Flows:     next.flows,
		FetchedAt: next.fetchedAt,
	}
	if err := r.snapshots.Save(ctx, snapshot); err != nil {
		log.Printf("failed to persist snapshot for %v: %v", r.config.Project, err)
	}
}

func (r *Resolver) publish(ctx context.Context, changes []Change, elapsedMs int) {
	if r.changes == nil || len(changes) == 0 {
		return
	}
	for i := range changes {
		change := changes[i]
		evt := event.NewEvent(&event.Context{
			Project:   r.config.Project,
			Source:    "remote",
			EventType: "flow." + change.Kind,
			Feature:   change.Feature,
			Flow:      change.To,
			ElapsedMs: elapsedMs,
		}, change)
		if err := r.changes.Publish(ctx, evt); err != nil {
			log.Printf("failed to publish change for %v: %v", change.Feature, err)
		}
	}
}

func (r *Resolver) recordStats(delta stats.Delta) {
	if r.stats == nil {
		return
	}
	r.stats.Update(delta)
}
