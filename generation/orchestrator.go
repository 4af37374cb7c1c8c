package generation

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/ids"
	"github.com/hupe1980/layoutgen/logging"
)

// DefaultParallelism is the number of slots per batch when none is configured.
const DefaultParallelism = 3

// Options configures an Orchestrator.
type Options struct {
	// Parallelism is the number of slot requests per batch (N).
	Parallelism int

	// EditorSessionID defaults to the process-wide ids.EditorSessionID().
	EditorSessionID string

	// SessionID identifies the panel open. A fresh one is minted if empty.
	SessionID string

	// Context supplies the editor snapshot sent with each batch.
	Context core.ContextProvider

	// Claim decides which slot a settled request lands in.
	Claim ClaimStrategy

	// OnChange is invoked with a snapshot after every state change. Calls are
	// serialised on a dispatcher goroutine and never observe an older state
	// after a newer one. It may call Generate, Regenerate and Abort but must
	// not call Wait.
	OnChange func(State)

	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// ClaimStrategy selects how completions are mapped onto pending slots.
type ClaimStrategy int

const (
	// ClaimFirstLast lets a success take the first pending slot of its batch
	// and a failure the last one. Completion order decides the final
	// positions.
	ClaimFirstLast ClaimStrategy = iota
	// ClaimByIndex pins the request for lane i to the i-th slot of its batch.
	ClaimByIndex
)

// State is the derived readout of an Orchestrator.
type State struct {
	Results    []core.SlotResult
	GenerateID string
	IsLoading  bool
	// Err is set only when every lane of the most recent batch failed and no
	// non-error slot remains in Results.
	Err error
	// Version increases with every state change.
	Version uint64
}

// slot is a result entry tagged with the batch that owns it.
type slot struct {
	result core.SlotResult
	batch  uint64
}

// lane tracks the latest request outcome for one slot index.
type lane struct {
	batch uint64
	err   error
}

// Orchestrator runs batches of concurrent slot requests. All exported methods
// are goroutine-safe.
type Orchestrator struct {
	gen  core.Generator
	opts Options

	mu         sync.Mutex
	cond       *sync.Cond
	slots      []slot
	lanes      []lane
	generateID string
	nextBatch  uint64
	cancel     context.CancelFunc
	running    int
	version    uint64
	delivered  uint64

	notifyMu    sync.Mutex
	queue       []State
	queued      uint64
	dispatching bool
}

// New creates an Orchestrator around gen.
func New(gen core.Generator, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Parallelism: DefaultParallelism,
		Context:     core.StaticContext(core.EditorContext{}),
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultParallelism
	}
	if opts.EditorSessionID == "" {
		opts.EditorSessionID = ids.EditorSessionID()
	}
	if opts.SessionID == "" {
		opts.SessionID = ids.NewSessionID()
	}
	if opts.Context == nil {
		opts.Context = core.StaticContext(core.EditorContext{})
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	o := &Orchestrator{
		gen:   gen,
		opts:  opts,
		slots: []slot{},
		lanes: make([]lane, opts.Parallelism),
	}
	o.cond = sync.NewCond(&o.mu)

	return o
}

// Parallelism returns N.
func (o *Orchestrator) Parallelism() int { return o.opts.Parallelism }

// SessionID returns the panel session id the orchestrator stamps on requests.
func (o *Orchestrator) SessionID() string { return o.opts.SessionID }

// Generate starts a new generation lineage: it mints a generate id, replaces
// the result set with N pending slots and fires the batch. It returns
// immediately; progress is observed through State or OnChange.
func (o *Orchestrator) Generate(ctx context.Context, prompt string, attachments []core.Attachment) {
	o.start(ctx, prompt, attachments, true)
}

// Regenerate fires another batch for the current generate id, appending N
// pending slots after the existing history.
func (o *Orchestrator) Regenerate(ctx context.Context, prompt string, attachments []core.Attachment) {
	o.start(ctx, prompt, attachments, false)
}

// Abort cancels the most recently started batch. Its outstanding requests
// settle as failures.
func (o *Orchestrator) Abort() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until no batch is outstanding and OnChange has seen the
// settled state.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for o.running > 0 || o.undeliveredLocked() {
		o.cond.Wait()
	}
}

func (o *Orchestrator) undeliveredLocked() bool {
	return o.opts.OnChange != nil && o.delivered < o.version
}

// State returns a consistent snapshot of the readouts.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stateLocked()
}

// Results returns a copy of the result set.
func (o *Orchestrator) Results() []core.SlotResult { return o.State().Results }

// IsLoading reports whether any slot request is outstanding.
func (o *Orchestrator) IsLoading() bool { return o.State().IsLoading }

// Err returns the top-level error readout.
func (o *Orchestrator) Err() error { return o.State().Err }

func (o *Orchestrator) start(parent context.Context, prompt string, attachments []core.Attachment, fresh bool) {
	n := o.opts.Parallelism

	o.mu.Lock()
	// Prior ids come from the state as it was before this call.
	prevIDs := o.generatedIDsLocked()
	if fresh {
		o.generateID = ids.NewGenerateID()
		o.slots = o.slots[:0:0]
	}
	o.nextBatch++
	batch := o.nextBatch
	for i := 0; i < n; i++ {
		o.slots = append(o.slots, slot{result: core.Pending(), batch: batch})
		o.lanes[i] = lane{batch: batch}
	}
	ctx, cancel := context.WithCancel(parent)
	o.cancel = cancel
	o.running++
	generateID := o.generateID
	snap := o.bumpLocked()
	o.mu.Unlock()

	o.notify(snap)

	req := core.Request{
		Prompt:           prompt,
		PrevGeneratedIDs: prevIDs,
		CurrentContext:   o.opts.Context(),
		IDs: core.IDs{
			EditorSessionID: o.opts.EditorSessionID,
			SessionID:       o.opts.SessionID,
			GenerateID:      generateID,
			BatchID:         ids.NewBatchID(),
		},
		Attachments: core.StripAttachments(attachments),
	}

	go o.runBatch(ctx, cancel, batch, req)
}

// runBatch fans req out to N slot requests and applies the all-failed
// rollback once every request settled.
func (o *Orchestrator) runBatch(ctx context.Context, cancel context.CancelFunc, batch uint64, req core.Request) {
	defer cancel()

	n := o.opts.Parallelism
	start := time.Now()
	outcomes := make([]bool, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		slotReq := req
		slotReq.Slot = i
		slotReq.IDs.RequestID = ids.NewRequestID()
		slotReq.PrevGeneratedIDs = append([]string(nil), req.PrevGeneratedIDs...)
		slotReq.Attachments = append([]core.RequestAttachment(nil), req.Attachments...)

		wg.Add(1)
		go func(r core.Request) {
			defer wg.Done()
			outcomes[r.Slot] = o.runSlot(ctx, batch, r)
		}(slotReq)
	}
	wg.Wait()

	failed := 0
	for _, ok := range outcomes {
		if !ok {
			failed++
		}
	}
	allFailed := failed == n

	o.mu.Lock()
	if allFailed {
		o.removeBatchLocked(batch)
	}
	o.running--
	snap := o.bumpLocked()
	if o.opts.OnChange == nil {
		o.cond.Broadcast()
	}
	o.mu.Unlock()

	logging.LogBatch(o.opts.Logger, req.IDs.BatchID, n, failed, time.Since(start), allFailed)
	o.notify(snap)
}

// runSlot performs one slot request and folds its outcome into the result set.
func (o *Orchestrator) runSlot(ctx context.Context, batch uint64, req core.Request) bool {
	start := time.Now()
	layout, err := o.gen.Generate(ctx, req)
	if err == nil {
		// A generator may ignore cancellation; a late success still counts.
		return o.settle(batch, req, &layout, nil, time.Since(start))
	}
	return o.settle(batch, req, nil, &core.SlotError{Slot: req.Slot, RequestID: req.IDs.RequestID, Err: err}, time.Since(start))
}

func (o *Orchestrator) settle(batch uint64, req core.Request, layout *core.Layout, err error, dur time.Duration) bool {
	logging.LogSlot(o.opts.Logger, req.Slot, req.IDs.RequestID, dur, err)

	o.mu.Lock()
	if i := o.claimLocked(batch, req.Slot, err == nil); i >= 0 {
		if err == nil {
			o.slots[i].result = core.Succeeded(*layout)
		} else {
			o.slots[i].result = core.Failed()
		}
	}
	if o.lanes[req.Slot].batch == batch {
		o.lanes[req.Slot].err = err
	}
	snap := o.bumpLocked()
	o.mu.Unlock()

	o.notify(snap)

	return err == nil
}

// claimLocked returns the index of the slot a completion of laneIdx should fill,
// or -1 if the batch has no pending slot left (e.g. it was reset by Generate).
func (o *Orchestrator) claimLocked(batch uint64, laneIdx int, success bool) int {
	if o.opts.Claim == ClaimByIndex {
		for i, s := range o.slots {
			if s.batch != batch {
				continue
			}
			j := i + laneIdx
			if j < len(o.slots) && o.slots[j].batch == batch && o.slots[j].result.IsPending() {
				return j
			}
			return -1
		}
		return -1
	}
	if success {
		return o.firstPendingLocked(batch)
	}
	return o.lastPendingLocked(batch)
}

func (o *Orchestrator) firstPendingLocked(batch uint64) int {
	for i, s := range o.slots {
		if s.batch == batch && s.result.IsPending() {
			return i
		}
	}
	return -1
}

func (o *Orchestrator) lastPendingLocked(batch uint64) int {
	for i := len(o.slots) - 1; i >= 0; i-- {
		if o.slots[i].batch == batch && o.slots[i].result.IsPending() {
			return i
		}
	}
	return -1
}

// removeBatchLocked drops every entry owned by batch. When batch is the most
// recent one these are exactly the last N entries.
func (o *Orchestrator) removeBatchLocked(batch uint64) {
	kept := o.slots[:0]
	for _, s := range o.slots {
		if s.batch != batch {
			kept = append(kept, s)
		}
	}
	o.slots = kept
}

func (o *Orchestrator) generatedIDsLocked() []string {
	results := make([]core.SlotResult, len(o.slots))
	for i, s := range o.slots {
		results[i] = s.result
	}
	return core.GeneratedIDs(results)
}

func (o *Orchestrator) bumpLocked() State {
	o.version++
	return o.stateLocked()
}

func (o *Orchestrator) stateLocked() State {
	results := make([]core.SlotResult, len(o.slots))
	for i, s := range o.slots {
		results[i] = s.result
	}
	return State{
		Results:    core.CloneResults(results),
		GenerateID: o.generateID,
		IsLoading:  o.running > 0,
		Err:        o.errLocked(),
		Version:    o.version,
	}
}

// errLocked surfaces lane 0's failure only when the latest outcome of every
// lane is a failure and no non-error slot is left in the result set.
func (o *Orchestrator) errLocked() error {
	if o.running > 0 {
		return nil
	}
	for _, l := range o.lanes {
		if l.err == nil {
			return nil
		}
	}
	for _, s := range o.slots {
		if !s.result.IsError() {
			return nil
		}
	}
	return o.lanes[0].err
}

// notify queues s for OnChange. States older than one already queued are
// dropped. A single dispatcher goroutine drains the queue, so OnChange runs
// without any orchestrator lock held.
func (o *Orchestrator) notify(s State) {
	if o.opts.OnChange == nil {
		return
	}

	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	if s.Version <= o.queued {
		return
	}
	o.queued = s.Version
	o.queue = append(o.queue, s)
	if !o.dispatching {
		o.dispatching = true
		go o.dispatch()
	}
}

func (o *Orchestrator) dispatch() {
	for {
		o.notifyMu.Lock()
		if len(o.queue) == 0 {
			o.dispatching = false
			o.notifyMu.Unlock()
			return
		}
		s := o.queue[0]
		o.queue = o.queue[1:]
		o.notifyMu.Unlock()

		o.opts.OnChange(s)

		o.mu.Lock()
		o.delivered = s.Version
		o.cond.Broadcast()
		o.mu.Unlock()
	}
}
