package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kilianp07/optimanage/core/events"
	"github.com/kilianp07/optimanage/core/logger"
	"github.com/kilianp07/optimanage/core/metrics"
	"github.com/kilianp07/optimanage/core/monitoring"
	"github.com/kilianp07/optimanage/core/objective"
	"github.com/kilianp07/optimanage/core/record"
	"github.com/kilianp07/optimanage/core/store"
	"github.com/kilianp07/optimanage/core/workflow"
	"github.com/kilianp07/optimanage/internal/eventbus"
)

type entry struct {
	obj       objective.Objective
	weight    float64
	partition Partition
	token     string
	gen       uint64
	// run serialises train+score of the objective.
	run sync.Mutex
}

func (e *entry) runLocked(fn func() ([]Scored, error)) ([]Scored, error) {
	e.run.Lock()
	defer e.run.Unlock()
	return fn()
}

// Dispatcher owns the registered objectives, their weights and cached
// partitions, and ranks candidate workflows across all of them.
type Dispatcher struct {
	store   store.RecordStore
	cfg     Config
	limiter *rate.Limiter
	logger  logger.Logger
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
	gen     uint64
	metrics metrics.MetricsSink
	bus     *eventbus.TypedBus[events.Event]
	monitor monitoring.Monitor
}

// NewDispatcher returns a dispatcher reading records from st.
func NewDispatcher(st store.RecordStore, cfg Config, log logger.Logger) (*Dispatcher, error) {
	if st == nil {
		return nil, errors.New("dispatch: record store is required")
	}
	if log == nil {
		log = logger.Nop{}
	}
	d := &Dispatcher{
		store:   st,
		cfg:     cfg,
		logger:  log,
		now:     time.Now,
		entries: make(map[string]*entry),
		metrics: metrics.NopSink{},
		monitor: monitoring.NopMonitor{},
	}
	if cfg.StoreQPS > 0 {
		burst := cfg.StoreBurst
		if burst <= 0 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(cfg.StoreQPS), burst)
	}
	return d, nil
}

// SetMetricsSink configures the sink receiving ranking and run events.
func (d *Dispatcher) SetMetricsSink(s metrics.MetricsSink) {
	if s == nil {
		s = metrics.NopSink{}
	}
	d.mu.Lock()
	d.metrics = s
	d.mu.Unlock()
}

// SetEventBus configures the bus dispatcher events are published on.
func (d *Dispatcher) SetEventBus(b *eventbus.TypedBus[events.Event]) {
	d.mu.Lock()
	d.bus = b
	d.mu.Unlock()
}

// SetMonitor configures where objective failures are reported.
func (d *Dispatcher) SetMonitor(m monitoring.Monitor) {
	if m == nil {
		m = monitoring.NopMonitor{}
	}
	d.mu.Lock()
	d.monitor = m
	d.mu.Unlock()
}

// AddObjective registers obj with the given weight, or replaces the objective
// and weight already registered under the same id. The objective is
// partitioned once; nothing is registered if partitioning fails.
func (d *Dispatcher) AddObjective(ctx context.Context, obj objective.Objective, weight float64) error {
	if obj == nil {
		return errors.New("dispatch: nil objective")
	}
	id := obj.ID()
	if id == "" {
		return errors.New("dispatch: objective id is required")
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return fmt.Errorf("%w: %v for objective %s", ErrInvalidWeight, weight, id)
	}
	if err := checkPartitionable(obj); err != nil {
		return err
	}
	token, err := d.fingerprint(ctx)
	if err != nil {
		return fmt.Errorf("add objective %s: %w", id, err)
	}
	part, err := d.PartitionData(ctx, obj)
	if err != nil {
		return err
	}

	d.mu.Lock()
	e, ok := d.entries[id]
	if !ok {
		e = &entry{}
		d.entries[id] = e
		d.order = append(d.order, id)
	}
	d.gen++
	e.obj = obj
	e.weight = weight
	e.partition = part
	e.token = token
	e.gen = d.gen
	d.mu.Unlock()

	d.recordPartition(id, part, token)
	d.logger.Infow("objective registered", map[string]any{
		"objective":  id,
		"weight":     weight,
		"replaced":   ok,
		"training":   len(part.Training),
		"candidates": len(part.Candidates),
	})
	return nil
}

// RemoveObjective unregisters the objective with the given id.
func (d *Dispatcher) RemoveObjective(id string) error {
	d.mu.Lock()
	if _, ok := d.entries[id]; !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownObjective, id)
	}
	delete(d.entries, id)
	for i, o := range d.order {
		if o == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	d.mu.Unlock()
	partitionRecords.DeleteLabelValues(id, "training")
	partitionRecords.DeleteLabelValues(id, "candidates")
	d.logger.Infof("objective %s removed", id)
	return nil
}

// Objectives returns the registered objectives in registration order.
func (d *Dispatcher) Objectives() []objective.Objective {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]objective.Objective, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.entries[id].obj)
	}
	return out
}

// Weight returns the weight registered for id.
func (d *Dispatcher) Weight(id string) (float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[id]
	if !ok {
		return 0, false
	}
	return e.weight, true
}

// Partition returns the cached partition of id.
func (d *Dispatcher) Partition(id string) (Partition, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[id]
	if !ok {
		return Partition{}, false
	}
	return Partition{
		Training:   append([]record.Record(nil), e.partition.Training...),
		Candidates: append([]record.Record(nil), e.partition.Candidates...),
	}, true
}

// Update rebuilds the partitions built against an older store fingerprint and
// returns the ids it refreshed. Without dataset changes only the fingerprint
// is read.
func (d *Dispatcher) Update(ctx context.Context) ([]string, error) {
	token, err := d.fingerprint(ctx)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	jobs := d.snapshot(token)
	var stale []job
	for _, j := range jobs {
		if j.stale {
			stale = append(stale, j)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}

	parts := make([]Partition, len(stale))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit(len(stale)))
	for i, j := range stale {
		i, j := i, j
		g.Go(func() error {
			p, err := d.PartitionData(gctx, j.obj)
			if err != nil {
				return err
			}
			parts[i] = p
			return nil
		})
	}
	err = g.Wait()
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	return d.install(stale, parts, token), nil
}

// PartitionData splits the store into the training records of obj, holding
// every input and response, and its candidates, holding every input but
// missing at least one response. Both sets are projected onto the input and
// response properties.
func (d *Dispatcher) PartitionData(ctx context.Context, obj objective.Objective) (Partition, error) {
	if err := checkPartitionable(obj); err != nil {
		return Partition{}, err
	}
	inputs := obj.InputProperties()
	responses := obj.ResponseProperties()
	props := union(inputs, responses)

	training, err := d.query(ctx, store.Criteria{Exists: props}, props)
	if err != nil {
		return Partition{}, fmt.Errorf("partition %s: training: %w", obj.ID(), err)
	}
	candidates, err := d.query(ctx, store.Criteria{Exists: inputs, AnyMissing: responses}, props)
	if err != nil {
		return Partition{}, fmt.Errorf("partition %s: candidates: %w", obj.ID(), err)
	}
	return Partition{Training: training, Candidates: candidates}, nil
}

// RunObjective trains the objective registered under id on training, scores
// candidates and expands every score into one entry per declared workflow
// type, in declaration order.
func (d *Dispatcher) RunObjective(ctx context.Context, id string, training, candidates []record.Record) ([]Scored, error) {
	d.mu.RLock()
	e, ok := d.entries[id]
	var obj objective.Objective
	if ok {
		obj = e.obj
	}
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObjective, id)
	}
	return e.runLocked(func() ([]Scored, error) {
		return d.run(ctx, obj, training, candidates)
	})
}

// RankWflows returns at most n workflow instances ordered by aggregate score.
// Each objective contributes weight*score to the instances it scores.
// Objectives whose training or scoring fails are left out and reported in
// Ranking.Errors; store failures abort the ranking.
func (d *Dispatcher) RankWflows(ctx context.Context, n int) (Ranking, error) {
	if n < 0 {
		return Ranking{}, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	if n == 0 {
		return Ranking{Entries: []RankedWorkflow{}}, nil
	}
	start := d.now()
	token, err := d.fingerprint(ctx)
	if err != nil {
		return Ranking{}, fmt.Errorf("rank: %w", err)
	}
	jobs := d.snapshot(token)
	results := make([]jobResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit(len(jobs)))
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			part := j.partition
			if j.stale {
				p, err := d.PartitionData(gctx, j.obj)
				if err != nil {
					return err
				}
				part = p
			}
			results[i].partition = part
			if len(part.Candidates) == 0 || j.weight == 0 {
				return nil
			}
			scored, err := j.entry.runLocked(func() ([]Scored, error) {
				return d.run(gctx, j.obj, part.Training, part.Candidates)
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				results[i].err = err
				return nil
			}
			results[i].scored = scored
			return nil
		})
	}
	err = g.Wait()
	if cerr := ctx.Err(); cerr != nil {
		return Ranking{}, cerr
	}
	if err != nil {
		return Ranking{}, fmt.Errorf("rank: %w", err)
	}

	var stale []job
	var parts []Partition
	for i, j := range jobs {
		if j.stale {
			stale = append(stale, j)
			parts = append(parts, results[i].partition)
		}
	}
	if len(stale) > 0 {
		d.install(stale, parts, token)
	}

	ranking := Ranking{
		ID:        uuid.NewString(),
		CreatedAt: start,
		Entries:   aggregate(jobs, results, n),
	}
	for _, r := range results {
		if r.err != nil {
			ranking.Errors = append(ranking.Errors, r.err)
		}
	}
	d.recordRanking(ranking, len(jobs), d.now().Sub(start))
	return ranking, nil
}

type job struct {
	id        string
	entry     *entry
	obj       objective.Objective
	weight    float64
	partition Partition
	gen       uint64
	stale     bool
}

type jobResult struct {
	partition Partition
	scored    []Scored
	err       error
}

// snapshot returns the registered objectives in registration order, flagging
// those whose partition was built against another token.
func (d *Dispatcher) snapshot(token string) []job {
	d.mu.RLock()
	defer d.mu.RUnlock()
	jobs := make([]job, 0, len(d.order))
	for _, id := range d.order {
		e := d.entries[id]
		jobs = append(jobs, job{
			id:        id,
			entry:     e,
			obj:       e.obj,
			weight:    e.weight,
			partition: e.partition,
			gen:       e.gen,
			stale:     e.token != token,
		})
	}
	return jobs
}

// install stores refreshed partitions, skipping entries re-registered or
// removed since the snapshot was taken.
func (d *Dispatcher) install(jobs []job, parts []Partition, token string) []string {
	var refreshed []string
	d.mu.Lock()
	for i, j := range jobs {
		e, ok := d.entries[j.id]
		if !ok || e.gen != j.gen {
			continue
		}
		e.partition = parts[i]
		e.token = token
		refreshed = append(refreshed, j.id)
	}
	d.mu.Unlock()
	for i, j := range jobs {
		d.recordPartition(j.id, parts[i], token)
	}
	if len(refreshed) > 0 {
		d.logger.Debugw("partitions refreshed", map[string]any{"objectives": refreshed, "token": token})
	}
	return refreshed
}

func (d *Dispatcher) run(ctx context.Context, obj objective.Objective, training, candidates []record.Record) ([]Scored, error) {
	id := obj.ID()
	start := d.now()
	scored, err := d.execute(ctx, obj, training, candidates)
	d.recordRun(id, len(training), len(candidates), len(scored), d.now().Sub(start), err)
	return scored, err
}

func (d *Dispatcher) execute(ctx context.Context, obj objective.Objective, training, candidates []record.Record) (out []Scored, err error) {
	id := obj.ID()
	stage := StageTrain
	defer func() {
		if r := recover(); r != nil {
			_, _, mon := d.observers()
			mon.CapturePanic(r)
			out = nil
			err = &ObjectiveExecutionError{ObjectiveID: id, Stage: stage, Err: fmt.Errorf("%w: %v", ErrObjectivePanic, r)}
		}
	}()
	if err := obj.TrainModel(ctx, training); err != nil {
		return nil, &ObjectiveExecutionError{ObjectiveID: id, Stage: StageTrain, Err: err}
	}
	stage = StageScore
	scores, err := obj.ReturnScores(ctx, candidates)
	if err != nil {
		return nil, &ObjectiveExecutionError{ObjectiveID: id, Stage: StageScore, Err: err}
	}
	types := obj.WorkflowTypes()
	out = make([]Scored, 0, len(scores)*len(types))
	for _, s := range scores {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return nil, &ObjectiveExecutionError{
				ObjectiveID: id,
				Stage:       StageScore,
				Err:         fmt.Errorf("record %s: non-finite score %v", s.Record.ID(), s.Value),
			}
		}
		for _, wt := range types {
			out = append(out, Scored{Instance: wt.Instantiate(s.Record.ID()), Score: s.Value})
		}
	}
	return out, nil
}

func aggregate(jobs []job, results []jobResult, n int) []RankedWorkflow {
	byInstance := make(map[workflow.Instance]*RankedWorkflow)
	for i, j := range jobs {
		for _, s := range results[i].scored {
			rw, ok := byInstance[s.Instance]
			if !ok {
				rw = &RankedWorkflow{Instance: s.Instance, Contributions: make(map[string]float64)}
				byInstance[s.Instance] = rw
			}
			c := j.weight * s.Score
			rw.Score += c
			rw.Contributions[j.id] += c
		}
	}
	entries := make([]RankedWorkflow, 0, len(byInstance))
	for _, rw := range byInstance {
		entries = append(entries, *rw)
	}
	sort.Slice(entries, func(a, b int) bool { return less(entries[a], entries[b]) })
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func (d *Dispatcher) fingerprint(ctx context.Context) (string, error) {
	if err := d.wait(ctx); err != nil {
		return "", err
	}
	return d.store.Fingerprint(ctx)
}

func (d *Dispatcher) query(ctx context.Context, c store.Criteria, props []string) ([]record.Record, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	return d.store.Query(ctx, c, props)
}

func (d *Dispatcher) wait(ctx context.Context) error {
	if d.limiter == nil {
		return ctx.Err()
	}
	return d.limiter.Wait(ctx)
}

func (d *Dispatcher) limit(n int) int {
	if d.cfg.Concurrency > 0 && d.cfg.Concurrency < n {
		return d.cfg.Concurrency
	}
	if n < 1 {
		return 1
	}
	return n
}

func checkPartitionable(obj objective.Objective) error {
	if len(obj.InputProperties()) == 0 {
		return fmt.Errorf("%w: objective %s declares no input properties", ErrPartition, obj.ID())
	}
	if len(obj.ResponseProperties()) == 0 {
		return fmt.Errorf("%w: objective %s declares no response properties", ErrPartition, obj.ID())
	}
	return nil
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
