// Package viewer owns the current SheetCollection and runs the ingestion
// pipeline: load, parse, normalize, commit.
package viewer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"sheetview/domain/core"
	"sheetview/domain/load"
	"sheetview/domain/sheet"
	"sheetview/internal"
	"sheetview/ports"
)

// Result is the outcome of one load attempt
type Result struct {
	ID         core.LoadID
	Generation uint64
	Source     string
	Format     sheet.Format
	Collection *sheet.SheetCollection
	Bytes      int64
	Checksum   core.Hash
	Duration   time.Duration
	Err        error
}

// Snapshot is a consistent read of the viewer state
type Snapshot struct {
	Collection *sheet.SheetCollection
	Generation uint64
	Source     string
	Format     sheet.Format
	Bytes      int64
	LoadedAt   time.Time
	Loading    bool
	LastError  string
}

// Viewer holds the committed collection. Loads may run concurrently; a
// completion commits only when its generation is newer than the committed
// one, and failures never clear what is committed.
type Viewer struct {
	parser  ports.WorkbookParser
	history ports.LoadHistoryRepository
	store   ports.DocumentStore
	logger  *internal.Logger

	nextGeneration atomic.Uint64
	inFlight       atomic.Int32

	mu         sync.RWMutex
	collection *sheet.SheetCollection
	committed  uint64
	source     string
	format     sheet.Format
	bytes      int64
	loadedAt   time.Time
	lastError  string
	// generation of the attempt that set lastError
	errorGeneration uint64
}

// Option configures a Viewer
type Option func(*Viewer)

// WithHistory records every attempt in repo
func WithHistory(repo ports.LoadHistoryRepository) Option {
	return func(v *Viewer) { v.history = repo }
}

// WithDocumentStore keeps a copy of each uploaded original
func WithDocumentStore(store ports.DocumentStore) Option {
	return func(v *Viewer) { v.store = store }
}

// WithLogger overrides the default logger
func WithLogger(logger *internal.Logger) Option {
	return func(v *Viewer) { v.logger = logger }
}

// New creates a viewer with no collection loaded
func New(parser ports.WorkbookParser, opts ...Option) *Viewer {
	v := &Viewer{
		parser: parser,
		logger: internal.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Snapshot returns the committed state
func (v *Viewer) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Snapshot{
		Collection: v.collection,
		Generation: v.committed,
		Source:     v.source,
		Format:     v.format,
		Bytes:      v.bytes,
		LoadedAt:   v.loadedAt,
		Loading:    v.inFlight.Load() > 0,
		LastError:  v.lastError,
	}
}

// Collection returns the committed collection, nil before the first load
func (v *Viewer) Collection() *sheet.SheetCollection {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.collection
}

// Load runs the pipeline synchronously. The returned error is also set on
// the Result.
func (v *Viewer) Load(ctx context.Context, loader ports.SourceLoader) (Result, error) {
	gen := v.nextGeneration.Add(1)
	v.inFlight.Add(1)
	defer v.inFlight.Add(-1)

	start := time.Now()
	res := Result{
		ID:         core.NewLoadID(),
		Generation: gen,
		Source:     loader.Describe(),
	}
	v.logger.Info("[Viewer] load #%d started: %s", gen, res.Source)

	coll, err := v.run(ctx, loader, &res)
	res.Duration = time.Since(start)
	if err == nil {
		err = v.commit(gen, coll, &res)
	} else {
		v.fail(gen, err)
	}
	res.Err = err
	if err == nil {
		res.Collection = coll
	}

	v.record(ctx, loader, res, start)
	switch {
	case err == nil:
		v.logger.Info("[Viewer] load #%d committed: %d sheets (%s) in %.2fms",
			gen, coll.Len(), res.Format, float64(res.Duration.Nanoseconds())/1e6)
	case errors.Is(err, core.ErrSuperseded):
		v.logger.Info("[Viewer] load #%d superseded", gen)
	default:
		v.logger.Warn("[Viewer] load #%d failed: %v", gen, err)
	}
	return res, err
}

// LoadAsync runs Load in a goroutine and passes the result to done, which
// may be nil
func (v *Viewer) LoadAsync(ctx context.Context, loader ports.SourceLoader, done func(Result)) {
	go func() {
		res, _ := v.Load(ctx, loader)
		if done != nil {
			done(res)
		}
	}()
}

func (v *Viewer) run(ctx context.Context, loader ports.SourceLoader, res *Result) (*sheet.SheetCollection, error) {
	doc, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	res.Bytes = int64(doc.Size())
	res.Checksum = core.NewHash(doc.Data)
	if doc.Size() == 0 {
		return nil, core.NewLoadError(core.IOFailure, res.Source, core.ErrEmptySource)
	}

	if v.store != nil && loader.Kind() == load.SourceFile {
		if path, err := v.store.Keep(ctx, doc); err != nil {
			v.logger.Warn("[Viewer] could not keep original %q: %v", doc.Name, err)
		} else {
			v.logger.Debug("[Viewer] kept original at %s", path)
		}
	}

	wb, err := v.parser.Parse(ctx, doc)
	if err != nil {
		return nil, err
	}
	res.Format = wb.Format

	return sheet.Normalize(ctx, wb)
}

func (v *Viewer) commit(gen uint64, coll *sheet.SheetCollection, res *Result) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen <= v.committed {
		return core.ErrSuperseded
	}
	v.collection = coll
	v.committed = gen
	v.source = res.Source
	v.format = res.Format
	v.bytes = res.Bytes
	v.loadedAt = time.Now()
	if v.errorGeneration < gen {
		v.lastError = ""
		v.errorGeneration = gen
	}
	return nil
}

// fail records the error for display unless a newer attempt already
// reported its own outcome
func (v *Viewer) fail(gen uint64, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen < v.committed || gen < v.errorGeneration {
		return
	}
	v.lastError = err.Error()
	v.errorGeneration = gen
}

func (v *Viewer) record(ctx context.Context, loader ports.SourceLoader, res Result, start time.Time) {
	if v.history == nil {
		return
	}
	rec := &load.Record{
		ID:         res.ID,
		Generation: res.Generation,
		SourceKind: loader.Kind(),
		Source:     res.Source,
		Format:     string(res.Format),
		Bytes:      res.Bytes,
		Checksum:   res.Checksum,
		Status:     load.StatusLoaded,
		StartedAt:  start.UTC(),
		DurationMS: res.Duration.Milliseconds(),
	}
	switch {
	case res.Err == nil:
		rec.SheetCount = res.Collection.Len()
	case errors.Is(res.Err, core.ErrSuperseded):
		rec.Status = load.StatusSuperseded
	default:
		rec.Status = load.StatusFailed
		rec.Error = res.Err.Error()
	}

	// recorded even when the request context is already cancelled
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := v.history.Record(recordCtx, rec); err != nil {
		v.logger.Warn("[Viewer] could not record load #%d: %v", res.Generation, err)
	}
}
