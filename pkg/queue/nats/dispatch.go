package nats

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/tunogya/hcpart/internal/log"
	"github.com/tunogya/hcpart/pkg/cluster"
	"github.com/tunogya/hcpart/pkg/model"
)

// Publisher publishes raw messages; *Client implements it
type Publisher interface {
	Publish(ctx context.Context, subject, msgID string, data []byte) error
}

// ProcessFunc clusters one profile on a worker
type ProcessFunc func(p model.Profile, cfg cluster.Config) (*model.ClusteringResult, error)

// JobHandler returns the worker side of a run: it decodes a job, processes it
// and publishes the result. Clustering errors are reported in the result
// since a retry would fail the same way; transport errors Nak the job.
func JobHandler(pub Publisher, worker string, process ProcessFunc) MessageHandler {
	return func(msg jetstream.Msg) error {
		return handleJob(context.Background(), pub, worker, process, msg.Data())
	}
}

func handleJob(ctx context.Context, pub Publisher, worker string, process ProcessFunc, data []byte) error {
	job, err := DecodeJob(data)
	if err != nil {
		// A malformed job never succeeds; acknowledge and drop it.
		log.Errorf("Failed to decode job: %v", err)
		return nil
	}

	res := ResultMsg{RunID: job.RunID, JobID: job.JobID, Worker: worker}
	r, err := process(job.Profile, job.Config)
	if err != nil {
		log.Warnw("job failed", "run", job.RunID, "job", job.JobID, "profile", job.Profile.Name, "error", err)
		res.Error = err.Error()
	} else {
		res.Result = r
	}

	payload, err := Encode(res)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	msgID := job.RunID + "." + strconv.Itoa(job.JobID)
	return pub.Publish(ctx, ResultSubject(job.RunID), msgID, payload)
}

// Gather collects exactly one result per job of a run
type Gather struct {
	runID   string
	mu      sync.Mutex
	results []*model.ClusteringResult
	seen    []bool
	missing int
	err     error
	done    chan struct{}
}

// NewGather expects total results for runID
func NewGather(runID string, total int) *Gather {
	g := &Gather{
		runID:   runID,
		results: make([]*model.ClusteringResult, total),
		seen:    make([]bool, total),
		missing: total,
		done:    make(chan struct{}),
	}
	if total == 0 {
		close(g.done)
	}
	return g
}

// Add records one result message; duplicates and foreign runs are ignored.
// The first failed job completes the gather with its error.
func (g *Gather) Add(msg *ResultMsg) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if msg.RunID != g.runID || msg.JobID < 0 || msg.JobID >= len(g.results) {
		return
	}
	if g.seen[msg.JobID] || g.missing == 0 || g.err != nil {
		return
	}
	g.seen[msg.JobID] = true

	if err := msg.Err(); err != nil {
		g.err = err
		close(g.done)
		return
	}
	if msg.Result == nil {
		g.err = fmt.Errorf("job %d returned no result", msg.JobID)
		close(g.done)
		return
	}

	g.results[msg.JobID] = msg.Result
	g.missing--
	if g.missing == 0 {
		close(g.done)
	}
}

// Wait blocks until every result arrived, a job failed or ctx ends. Results
// are returned in job order.
func (g *Gather) Wait(ctx context.Context) ([]*model.ClusteringResult, error) {
	select {
	case <-g.done:
	case <-ctx.Done():
		g.mu.Lock()
		missing := g.missing
		g.mu.Unlock()
		return nil, fmt.Errorf("run %s: %d results missing: %w", g.runID, missing, ctx.Err())
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, fmt.Errorf("run %s: %w", g.runID, g.err)
	}
	return g.results, nil
}

// Dispatcher is the coordinator side of a distributed run
type Dispatcher struct {
	client *Client
}

// NewDispatcher creates a dispatcher on an open client
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// Run publishes one job per profile and waits for all of their results
func (d *Dispatcher) Run(ctx context.Context, runID string, profiles []model.Profile, cfg cluster.Config) ([]*model.ClusteringResult, error) {
	gather := NewGather(runID, len(profiles))

	consumer, err := d.client.SubscribeEphemeral(ctx, ResultSubject(runID), func(msg jetstream.Msg) error {
		res, err := DecodeResult(msg.Data())
		if err != nil {
			log.Errorf("Failed to decode result: %v", err)
			return nil
		}
		gather.Add(res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer consumer.Stop()

	if err := PublishJobs(ctx, d.client, runID, profiles, cfg); err != nil {
		return nil, err
	}
	log.Infow("published jobs", "run", runID, "jobs", len(profiles))

	return gather.Wait(ctx)
}

// PublishJobs publishes one job message per profile
func PublishJobs(ctx context.Context, pub Publisher, runID string, profiles []model.Profile, cfg cluster.Config) error {
	for i, p := range profiles {
		payload, err := Encode(JobMsg{RunID: runID, JobID: i, Total: len(profiles), Profile: p, Config: cfg})
		if err != nil {
			return fmt.Errorf("failed to encode job %d (%s): %w", i, p.Name, err)
		}
		if err := pub.Publish(ctx, SubjectJobs, runID+".job."+strconv.Itoa(i), payload); err != nil {
			return fmt.Errorf("failed to publish job %d: %w", i, err)
		}
	}
	return nil
}

// WorkerName identifies this process in result messages
func WorkerName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return host + "-" + strconv.Itoa(os.Getpid())
}
