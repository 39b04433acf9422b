package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
)

// LoadState is the state of one tree view's data.
type LoadState int

const (
	// LoadIdle means nothing has been requested yet.
	LoadIdle LoadState = iota
	// LoadLoading means a fetch is in flight.
	LoadLoading
	// LoadDisplayed means a fetched tree is shown.
	LoadDisplayed
	// LoadError means the last fetch failed. It is terminal for the view.
	LoadError
)

func (s LoadState) String() string {
	switch s {
	case LoadLoading:
		return "loading"
	case LoadDisplayed:
		return "displayed"
	case LoadError:
		return "error"
	default:
		return "idle"
	}
}

// ErrDeleteRejected is returned when a delete is requested while the view
// cannot accept one.
var ErrDeleteRejected = errors.New("delete rejected")

// TreeLoadedMsg carries the result of one fetch back to the view that
// issued it.
type TreeLoadedMsg struct {
	Session uint64
	Seq     uint64
	Tree    *model.TreeNode
	Err     error
}

// HorseDeletedMsg carries the result of a delete back to its view.
type HorseDeletedMsg struct {
	Session uint64
	ID      int64
	Name    string
	Err     error
}

// LoadResult tells the view what a fetch result did.
type LoadResult int

const (
	// ResultDiscarded means the result was stale or the view was closed.
	ResultDiscarded LoadResult = iota
	// ResultDisplayed means a new tree is ready to show.
	ResultDisplayed
	// ResultFailed means the fetch failed and the view is in LoadError.
	ResultFailed
)

// DeleteResult tells the view what a delete result did.
type DeleteResult int

const (
	// DeleteDiscarded means the view was closed or the session changed.
	DeleteDiscarded DeleteResult = iota
	// DeleteFailed means the store refused; the tree is unchanged.
	DeleteFailed
	// DeleteReloading means the tree is being fetched again.
	DeleteReloading
	// DeleteRootGone means the root itself was deleted; the view must go.
	DeleteRootGone
)

var sessionCounter atomic.Uint64

// TreeLoader coordinates fetches and deletes for one tree view. At most
// one fetch is in flight; a reload requested meanwhile marks the loader
// dirty and is issued once the in-flight fetch returns, whose result is
// then dropped. All methods run on the bubbletea update goroutine.
type TreeLoader struct {
	store       store.RecordStore
	rootID      int64
	generations int

	session  uint64
	seq      uint64 // sequence of the last issued fetch
	inFlight bool
	dirty    bool
	state    LoadState
	tree     *model.TreeNode
	lastErr  error

	deleting bool
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewTreeLoader creates a loader for the pedigree of rootID.
func NewTreeLoader(parent context.Context, s store.RecordStore, rootID int64, generations int) *TreeLoader {
	ctx, cancel := context.WithCancel(parent)
	return &TreeLoader{
		store:       s,
		rootID:      rootID,
		generations: generations,
		session:     sessionCounter.Add(1),
		state:       LoadIdle,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// RootID returns the horse whose pedigree is loaded.
func (l *TreeLoader) RootID() int64 { return l.rootID }

// Generations returns the requested depth.
func (l *TreeLoader) Generations() int { return l.generations }

// Session identifies this loader's messages.
func (l *TreeLoader) Session() uint64 { return l.session }

// State returns the current load state.
func (l *TreeLoader) State() LoadState { return l.state }

// Tree returns the displayed tree, nil until the first successful fetch.
func (l *TreeLoader) Tree() *model.TreeNode { return l.tree }

// LastError returns the error of the last failed fetch.
func (l *TreeLoader) LastError() error { return l.lastErr }

// Deleting reports whether a delete is in flight.
func (l *TreeLoader) Deleting() bool { return l.deleting }

// Load issues the initial fetch.
func (l *TreeLoader) Load() tea.Cmd {
	return l.request()
}

// Reload fetches the same pedigree again, e.g. after the store changed.
func (l *TreeLoader) Reload() tea.Cmd {
	if l.state == LoadIdle {
		return nil
	}
	return l.request()
}

// SetGenerations changes the requested depth and reloads.
func (l *TreeLoader) SetGenerations(n int) tea.Cmd {
	if n < 1 || n == l.generations || l.closed || l.state == LoadError {
		return nil
	}
	l.generations = n
	return l.request()
}

// request issues a fetch, or marks the loader dirty when one is in flight.
func (l *TreeLoader) request() tea.Cmd {
	if l.closed || l.state == LoadError {
		return nil
	}
	if l.inFlight {
		l.dirty = true
		return nil
	}
	l.seq++
	l.inFlight = true
	l.state = LoadLoading
	return l.fetchCmd(l.seq, l.generations)
}

func (l *TreeLoader) fetchCmd(seq uint64, generations int) tea.Cmd {
	ctx, s, session, id := l.ctx, l.store, l.session, l.rootID
	return func() tea.Msg {
		tree, err := s.Tree(ctx, id, generations)
		return TreeLoadedMsg{Session: session, Seq: seq, Tree: tree, Err: err}
	}
}

// HandleLoaded applies a fetch result. Results from another session, a
// superseded fetch or a closed loader are dropped without side effects.
func (l *TreeLoader) HandleLoaded(msg TreeLoadedMsg) (LoadResult, tea.Cmd) {
	if l.closed || msg.Session != l.session || msg.Seq != l.seq || !l.inFlight {
		return ResultDiscarded, nil
	}
	l.inFlight = false
	if l.dirty {
		l.dirty = false
		return ResultDiscarded, l.request()
	}
	if msg.Err != nil {
		l.state = LoadError
		l.lastErr = msg.Err
		log.Printf("error: loading pedigree of horse %d (%d generations): %v", l.rootID, l.generations, msg.Err)
		return ResultFailed, nil
	}
	l.state = LoadDisplayed
	l.tree = msg.Tree
	l.lastErr = nil
	return ResultDisplayed, nil
}

// Delete removes a horse shown in the tree. It is rejected while a fetch
// or another delete is in flight, and for ids not in the displayed tree.
func (l *TreeLoader) Delete(id int64) (tea.Cmd, error) {
	switch {
	case l.closed:
		return nil, fmt.Errorf("%w: view is closed", ErrDeleteRejected)
	case l.deleting:
		return nil, fmt.Errorf("%w: another delete is in progress", ErrDeleteRejected)
	case l.state != LoadDisplayed:
		return nil, fmt.Errorf("%w: pedigree is %s", ErrDeleteRejected, l.state)
	}
	node := l.tree.Find(id)
	if node == nil {
		return nil, fmt.Errorf("%w: horse %d is not in the displayed pedigree", ErrDeleteRejected, id)
	}
	l.deleting = true
	// a confirmed delete outlives the view; only its result is dropped
	ctx, s, session, name := context.WithoutCancel(l.ctx), l.store, l.session, node.Name
	return func() tea.Msg {
		err := s.DeleteHorse(ctx, id)
		return HorseDeletedMsg{Session: session, ID: id, Name: name, Err: err}
	}, nil
}

// HandleDeleted applies a delete result. After a successful delete of an
// ancestor the same pedigree is fetched again; a deleted root closes the
// loader and the caller must navigate away.
func (l *TreeLoader) HandleDeleted(msg HorseDeletedMsg) (DeleteResult, tea.Cmd) {
	if l.closed || msg.Session != l.session {
		return DeleteDiscarded, nil
	}
	l.deleting = false
	if msg.Err != nil {
		log.Printf("error: deleting horse %d: %v", msg.ID, msg.Err)
		return DeleteFailed, nil
	}
	if msg.ID == l.rootID {
		l.Close()
		return DeleteRootGone, nil
	}
	return DeleteReloading, l.request()
}

// Close tears the loader down. In-flight fetches are cancelled; results of
// fetches and deletes are dropped.
func (l *TreeLoader) Close() {
	if l.closed {
		return
	}
	l.closed = true
	l.cancel()
}

// Closed reports whether Close was called.
func (l *TreeLoader) Closed() bool { return l.closed }
