package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhinavnagar29/synctext/internal/config"
	"github.com/abhinavnagar29/synctext/internal/document"
	"github.com/abhinavnagar29/synctext/internal/update"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DocDir = t.TempDir()
	cfg.ShmDir = t.TempDir()
	cfg.NMerge = 1
	cfg.NBroadcast = 1
	return cfg
}

// drainOwnMailboxIntoRing simulates the listener task for a test without
// running real goroutines: it moves every buffered message from e's own
// mailbox into its in-process receive ring.
func drainOwnMailboxIntoRing(t *testing.T, e *Editor) {
	t.Helper()
	for {
		msg, err := e.own.Receive()
		if err != nil {
			return
		}
		e.recv.Push(update.FromMessage(&msg))
	}
}

func TestOpenSeedsDocumentAndRegisters(t *testing.T) {
	cfg := testConfig(t)
	log := zap.NewNop()

	e, err := Open(cfg, "alice", log)
	require.NoError(t, err)
	defer e.Shutdown()

	assert.Equal(t, document.SeedLines, e.prevLines)
	entries := e.reg.List()
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].UserID)
}

func TestOpenRegistrationFullReturnsInitError(t *testing.T) {
	cfg := testConfig(t)
	log := zap.NewNop()

	var editors []*Editor
	defer func() {
		for _, e := range editors {
			e.Shutdown()
		}
	}()
	for i := 0; i < 5; i++ {
		e, err := Open(cfg, string(rune('a'+i)), log)
		require.NoError(t, err)
		editors = append(editors, e)
	}

	_, err := Open(cfg, "overflow", log)
	require.Error(t, err)
	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, ExitRegistrationFull, initErr.Code)
}

func TestTickDetectsAndMergesLocalEdit(t *testing.T) {
	cfg := testConfig(t)
	log := zap.NewNop()

	e, err := Open(cfg, "alice", log)
	require.NoError(t, err)
	defer e.Shutdown()

	lines := append([]string(nil), document.SeedLines...)
	lines[0] = "int x = 99;"
	require.NoError(t, document.Write(e.docPath, lines))

	e.tick()

	got, err := document.Read(e.docPath)
	require.NoError(t, err)
	assert.Equal(t, "int x = 99;", got[0])
}

func TestBroadcastDeliversToPeerAndConverges(t *testing.T) {
	cfg := testConfig(t)
	log := zap.NewNop()

	alice, err := Open(cfg, "alice", log)
	require.NoError(t, err)
	defer alice.Shutdown()

	bob, err := Open(cfg, "bob", log)
	require.NoError(t, err)
	defer bob.Shutdown()

	lines := append([]string(nil), document.SeedLines...)
	lines[1] = "int y = 42;"
	require.NoError(t, document.Write(alice.docPath, lines))

	alice.tick() // detects + merges locally + broadcasts to bob

	drainOwnMailboxIntoRing(t, bob)
	bob.tick() // merges the remote update into bob's own document

	bobLines, err := document.Read(bob.docPath)
	require.NoError(t, err)
	assert.Equal(t, "int y = 42;", bobLines[1])
}

func TestMaybeMergeSkippedWhileFileDirty(t *testing.T) {
	cfg := testConfig(t)
	log := zap.NewNop()

	e, err := Open(cfg, "alice", log)
	require.NoError(t, err)
	defer e.Shutdown()

	e.recvUnmerged = append(e.recvUnmerged, update.Ext{Line: 0, NewText: "z"})

	// Simulate "local edits in flight": lastMtime no longer matches the
	// file's actual mtime, as if detection hasn't caught up yet.
	e.lastMtime = e.lastMtime.Add(-time.Hour)

	e.maybeMerge()
	assert.NotEmpty(t, e.recvUnmerged, "merge should have been deferred while file was dirty")
}
