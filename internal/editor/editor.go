// Package editor orchestrates the per-tick poll/detect/merge/broadcast
// cycle described in spec.md §4.6, wiring together the registry, mailbox,
// receive ring, change detector, and merge engine.
package editor

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhinavnagar29/synctext/internal/change"
	"github.com/abhinavnagar29/synctext/internal/config"
	"github.com/abhinavnagar29/synctext/internal/document"
	"github.com/abhinavnagar29/synctext/internal/mailbox"
	"github.com/abhinavnagar29/synctext/internal/merge"
	"github.com/abhinavnagar29/synctext/internal/registry"
	"github.com/abhinavnagar29/synctext/internal/render"
	"github.com/abhinavnagar29/synctext/internal/ring"
	"github.com/abhinavnagar29/synctext/internal/update"
	"github.com/abhinavnagar29/synctext/internal/wire"
)

// Exit codes, matching spec.md §6 exactly.
const (
	ExitArgMisuse      = 1
	ExitInitFailure    = 2
	ExitRegistrationFull = 3
	ExitDocStatFailure = 4
	ExitOK             = 0
)

// InitError wraps a startup failure with the exit code it maps to.
type InitError struct {
	Code int
	Err  error
}

func (e *InitError) Error() string { return e.Err.Error() }
func (e *InitError) Unwrap() error { return e.Err }

// Editor is one peer's running state.
type Editor struct {
	cfg    config.Config
	userID string
	log    *zap.Logger

	reg    *registry.Handle
	own    *mailbox.Mailbox
	recv   *ring.Ring
	docPath string

	prevLines     []string
	mergeBaseline []string
	lastMtime     time.Time

	localOps      []wire.UpdateMessage
	localUnmerged []update.Ext
	recvUnmerged  []update.Ext

	lastSender string
	justMerged bool

	onSnapshot func(render.Snapshot)
}

// Open performs all of a peer's startup steps: opening the registry,
// creating its own mailbox, registering its slot, and seeding/stating its
// document file. Errors are wrapped in *InitError with the exit code
// spec.md §6 assigns to that failure class.
func Open(cfg config.Config, userID string, log *zap.Logger) (*Editor, error) {
	log = log.With(zap.String("user_id", userID), zap.String("instance_id", uuid.NewString()))

	reg, err := registry.OpenOrCreate(cfg.ShmDir)
	if err != nil {
		return nil, &InitError{Code: ExitInitFailure, Err: err}
	}

	own, err := mailbox.Create(cfg.ShmDir, userID)
	if err != nil {
		reg.Close()
		return nil, &InitError{Code: ExitInitFailure, Err: err}
	}

	queueName := mailbox.Name(userID)
	if _, err := reg.Register(userID, queueName); err != nil {
		own.Close()
		reg.Close()
		code := ExitInitFailure
		if errors.Is(err, registry.ErrNoSlots) {
			code = ExitRegistrationFull
		}
		return nil, &InitError{Code: code, Err: err}
	}

	docPath := document.Path(cfg.DocDir, userID)
	if err := document.EnsureSeeded(docPath); err != nil {
		cleanupRegistered(reg, own, cfg, userID, log)
		return nil, &InitError{Code: ExitDocStatFailure, Err: err}
	}
	fi, err := os.Stat(docPath)
	if err != nil {
		cleanupRegistered(reg, own, cfg, userID, log)
		return nil, &InitError{Code: ExitDocStatFailure, Err: err}
	}
	lines, err := document.Read(docPath)
	if err != nil {
		cleanupRegistered(reg, own, cfg, userID, log)
		return nil, &InitError{Code: ExitDocStatFailure, Err: err}
	}

	e := &Editor{
		cfg:           cfg,
		userID:        userID,
		log:           log,
		reg:           reg,
		own:           own,
		recv:          ring.New(),
		docPath:       docPath,
		prevLines:     lines,
		mergeBaseline: append([]string(nil), lines...),
		lastMtime:     fi.ModTime(),
	}
	return e, nil
}

// OnSnapshot registers a callback invoked whenever the editor loop
// produces a new render snapshot. Optional; render is an external
// collaborator per spec.md §1.
func (e *Editor) OnSnapshot(f func(render.Snapshot)) { e.onSnapshot = f }

// Run starts the listener and editor tasks and blocks until ctx is
// canceled or one of them fails. It always attempts Shutdown before
// returning.
func (e *Editor) Run(ctx context.Context) error {
	defer e.Shutdown()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.listen(ctx) })
	g.Go(func() error { return e.loop(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// listen continuously drains the peer's own mailbox into the receive
// ring, backing off on an empty queue and on errors (spec.md §4.6
// "Listener task").
func (e *Editor) listen(ctx context.Context) error {
	emptyBackoff := backoff.NewConstantBackOff(50 * time.Millisecond)
	errBackoff := backoff.NewConstantBackOff(100 * time.Millisecond)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := e.own.Receive()
		switch {
		case err == nil:
			e.recv.Push(update.FromMessage(&msg))
		case errors.Is(err, mailbox.ErrEmpty):
			sleep(ctx, emptyBackoff.NextBackOff())
		default:
			e.log.Warn("mailbox receive error", zap.Error(err))
			sleep(ctx, errBackoff.NextBackOff())
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// loop runs the fixed-interval editor task: drain, detect, merge,
// broadcast, sleep (spec.md §4.6 "Per-tick duties").
func (e *Editor) loop(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	e.emitSnapshot(nil, false)

	for {
		e.tick()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick executes one iteration of the editor loop's per-tick duties.
func (e *Editor) tick() {
	activePeers := e.activePeers()

	gotRemote, lastSender := e.drainRing()
	if gotRemote {
		e.lastSender = lastSender
	}

	fi, err := os.Stat(e.docPath)
	if err != nil {
		e.log.Warn("document stat failed; skipping tick", zap.Error(err))
		return
	}

	skipDetect := e.justMerged
	e.justMerged = false

	var lastChange *update.Change
	if fi.ModTime() != e.lastMtime && !skipDetect {
		e.lastMtime = fi.ModTime()
		newLines, err := document.Read(e.docPath)
		if err != nil {
			e.log.Warn("document read failed; skipping tick", zap.Error(err))
		} else {
			changes, last := change.Detect(e.prevLines, newLines, e.userID, time.Now().Format("15:04:05"), nowNs)
			for _, c := range changes {
				msg := c.ToMessage()
				e.localOps = append(e.localOps, msg)
				e.localUnmerged = append(e.localUnmerged, c.Ext)
			}
			lastChange = last
			e.prevLines = newLines
		}
	}

	e.maybeMerge()
	if gotMore, sender := e.drainRing(); gotMore {
		e.lastSender = sender
		e.maybeMergeLateArrival()
	}

	e.broadcast(activePeers)
	e.emitSnapshot(lastChange, gotRemote)
}

// activePeers lists registered peers other than self whose mailbox is
// currently probeable, matching the "displayable only if mailbox exists"
// filter (spec.md §4.6 step 1).
func (e *Editor) activePeers() []registry.Entry {
	var out []registry.Entry
	for _, ent := range e.reg.List() {
		if ent.UserID == e.userID {
			continue
		}
		if !mailbox.Probe(e.cfg.ShmDir, ent.UserID) {
			continue
		}
		out = append(out, ent)
	}
	return out
}

// drainRing pops every buffered message into recvUnmerged, filtering out
// self-sent messages (spec.md §4.6 step 2).
func (e *Editor) drainRing() (got bool, lastSender string) {
	for {
		v, ok := e.recv.Pop()
		if !ok {
			return got, lastSender
		}
		if v.UID == e.userID {
			continue
		}
		e.recvUnmerged = append(e.recvUnmerged, v)
		got = true
		lastSender = v.UID
	}
}

// maybeMerge runs the merge engine when the merge condition holds and the
// document isn't mid-edit (spec.md §4.6 step 4).
func (e *Editor) maybeMerge() {
	should := len(e.recvUnmerged) > 0 || len(e.localUnmerged) >= e.cfg.NMerge
	if !should {
		return
	}
	if e.fileDirty() {
		return // local edits in flight; retry next tick
	}
	e.runMerge(true)
}

// maybeMergeLateArrival re-merges after the post-merge re-drain if more
// remote updates arrived (spec.md §4.6 step 5). Unlike the first merge,
// this does not set justMerged.
func (e *Editor) maybeMergeLateArrival() {
	if e.fileDirty() {
		return
	}
	e.runMerge(false)
}

func (e *Editor) fileDirty() bool {
	fi, err := os.Stat(e.docPath)
	return err == nil && fi.ModTime() != e.lastMtime
}

func (e *Editor) runMerge(setJustMerged bool) {
	merged, changed := merge.Apply(e.mergeBaseline, e.localUnmerged, e.recvUnmerged)
	e.localUnmerged = nil
	e.recvUnmerged = nil
	if !changed {
		return
	}

	if err := document.Write(e.docPath, merged); err != nil {
		e.log.Error("failed to write merged document", zap.Error(err))
		return
	}
	e.prevLines = merged
	e.mergeBaseline = append([]string(nil), merged...)

	if fi, err := os.Stat(e.docPath); err == nil {
		e.lastMtime = fi.ModTime()
	}
	if setJustMerged {
		e.justMerged = true
	}
	e.log.Info("merged updates", zap.Int("lines", len(merged)))
}

// broadcast sends the first NBroadcast buffered local operations to every
// other active peer once enough have accumulated (spec.md §4.6 step 6).
func (e *Editor) broadcast(activePeers []registry.Entry) {
	if len(e.localOps) < e.cfg.NBroadcast {
		return
	}
	n := e.cfg.NBroadcast
	if n > len(e.localOps) {
		n = len(e.localOps)
	}
	batch := e.localOps[:n]

	for _, peer := range activePeers {
		mb, err := mailbox.OpenSend(e.cfg.ShmDir, peer.UserID)
		if err != nil {
			continue
		}
		for i := range batch {
			if err := mb.Send(&batch[i]); err != nil {
				break // Full or Gone: stop sending to this peer this round
			}
		}
		mb.Close()
	}
	e.localOps = append([]wire.UpdateMessage(nil), e.localOps[n:]...)
}

func (e *Editor) emitSnapshot(lastChange *update.Change, receivedAny bool) {
	if e.onSnapshot == nil {
		return
	}
	names := make([]string, 0, len(e.reg.List()))
	for _, p := range e.activePeers() {
		names = append(names, p.UserID)
	}
	e.onSnapshot(render.Build(e.docPath, e.prevLines, names, lastChange, e.lastSender, receivedAny))
}

// Shutdown unregisters the peer's slot, closes and unlinks its mailbox,
// and unmaps the registry. Idempotent and safe to call on partially
// initialized state (spec.md §5).
func (e *Editor) Shutdown() {
	cleanupRegistered(e.reg, e.own, e.cfg, e.userID, e.log)
	e.reg = nil
	e.own = nil
}

// cleanupRegistered tears down a registered, mailbox-holding peer:
// unregister its registry slot, close and unlink its mailbox, then unmap
// the registry. Shared by Shutdown and by Open's post-registration
// failure paths, which must undo the same state (spec.md §5, §6 exit
// code 4).
func cleanupRegistered(reg *registry.Handle, own *mailbox.Mailbox, cfg config.Config, userID string, log *zap.Logger) {
	if reg != nil {
		if err := reg.Unregister(userID); err != nil && !errors.Is(err, registry.ErrNotFound) {
			log.Warn("unregister failed", zap.Error(err))
		}
	}
	if own != nil {
		own.Close()
	}
	if err := mailbox.Unlink(cfg.ShmDir, userID); err != nil {
		log.Warn("mailbox unlink failed", zap.Error(err))
	}
	if reg != nil {
		reg.Close()
	}
}

func nowNs() uint64 { return uint64(time.Now().UnixNano()) }
