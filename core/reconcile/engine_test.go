package reconcile

import (
	"context"
	"errors"
	"testing"

	"docsync/core/metrics"
	"docsync/core/remote"
	"docsync/core/remote/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func listingOf(t *testing.T, store remote.Store) *Listing {
	t.Helper()
	items, err := store.List(context.Background())
	require.NoError(t, err)
	return NewListing(items)
}

func rootCollection() remote.Item {
	return remote.Item{ID: "R", Type: remote.TypeCollection, Parent: remote.RootParent, VisibleName: "Drive", Version: 1}
}

func TestEngine_MirrorConvergesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(
		rootCollection(),
		server(doc("S", "R", "stale.pdf", 10), 2),
	)
	candidates := []remote.Item{
		folder("F", "R", "Books"),
		doc("D1", "F", "a.pdf", 100),
		doc("D2", "R", "b.epub", 100),
		doc("D3", "R", "notes.txt", 1),
	}
	spec := &Spec{Mode: ModeMirror, Root: "R"}
	engine := NewEngine(store, payloadOf(), WithMetrics(metrics.New()))

	plan, report, err := engine.ReconcileAndApply(ctx, spec, listingOf(t, store), candidates, ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, PlanSummary{Candidates: 4, RemoteItems: 2, Uploads: 3, Deletions: 1, Excluded: 1}, plan.Summary)
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 2, report.Uploaded)
	assert.Equal(t, 3, report.Committed)
	assert.Empty(t, report.Failed())
	assert.Equal(t, []string{
		"delete:S",
		"request:F,D1,D2",
		"upload:D1",
		"upload:D2",
		"commit:F,D1,D2",
	}, store.Calls())

	before := len(store.Calls())
	plan, report, err = engine.ReconcileAndApply(ctx, spec, listingOf(t, store), candidates, ReconcileOptions{})
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.Equal(t, 3, plan.Summary.Unchanged)
	assert.Equal(t, 1, plan.Summary.Excluded)
	assert.Zero(t, report.Batches)
	assert.Len(t, store.Calls(), before, "second run must not touch the remote")
}

func TestEngine_UpdateModeNeverDeletes(t *testing.T) {
	store := newMemStore(rootCollection(), server(doc("S", "R", "stale.pdf", 10), 1))
	engine := NewEngine(store, payloadOf())

	plan, report, err := engine.ReconcileAndApply(context.Background(), &Spec{Mode: ModeUpdate, Root: "R"},
		listingOf(t, store), []remote.Item{doc("D1", "R", "a.pdf", 1)}, ReconcileOptions{})
	require.NoError(t, err)
	assert.Empty(t, plan.Deletions())
	assert.Zero(t, report.Deleted)
	assert.NotContains(t, store.Calls(), "delete:S")
}

func TestEngine_FailedUploadIsCompensated(t *testing.T) {
	store := newMemStore(rootCollection())
	store.failPut["d3"] = true
	candidates := []remote.Item{
		doc("d1", "R", "1.pdf", 1),
		doc("d2", "R", "2.pdf", 1),
		doc("d3", "R", "3.pdf", 1),
		doc("d4", "R", "4.pdf", 1),
		doc("d5", "R", "5.pdf", 1),
	}
	engine := NewEngine(store, payloadOf())

	_, report, err := engine.ReconcileAndApply(context.Background(), &Spec{Mode: ModeUpdate, Root: "R"},
		listingOf(t, store), candidates, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"request:d1,d2,d3,d4,d5",
		"upload:d1",
		"upload:d2",
		"upload:d3",
		"upload:d4",
		"upload:d5",
		"commit:d1,d2,d3,d4,d5",
		"delete:d3",
	}, store.Calls())
	assert.Equal(t, 4, report.Uploaded)
	assert.Equal(t, 1, report.UploadFailures)
	assert.Equal(t, 5, report.Committed)
	assert.Equal(t, 1, report.Compensated)
	assert.Equal(t, 1, report.Batches)
	assert.Zero(t, report.BatchErrors)

	l := listingOf(t, store)
	for _, id := range []string{"d1", "d2", "d4", "d5"} {
		assert.True(t, l.Has(id), id)
	}
	assert.False(t, l.Has("d3"))
}

func TestEngine_PayloadBuildFailureIsCompensated(t *testing.T) {
	store := newMemStore(rootCollection())
	engine := NewEngine(store, payloadOf("d2"))

	_, report, err := engine.ReconcileAndApply(context.Background(), &Spec{Mode: ModeUpdate, Root: "R"},
		listingOf(t, store), []remote.Item{doc("d1", "R", "1.pdf", 1), doc("d2", "R", "2.pdf", 1)}, ReconcileOptions{})
	require.NoError(t, err)

	assert.NotContains(t, store.Calls(), "upload:d2")
	assert.Contains(t, store.Calls(), "delete:d2")
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, PhaseUpload, report.Failed()[0].Phase)
	assert.Contains(t, report.Failed()[0].Message, "build payload")
}

func TestEngine_BatchesOfFive(t *testing.T) {
	store := newMemStore(rootCollection())
	var candidates []remote.Item
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		candidates = append(candidates, doc(id, "R", id+".pdf", 1))
	}
	engine := NewEngine(store, payloadOf())

	_, report, err := engine.ReconcileAndApply(context.Background(), &Spec{Mode: ModeUpdate, Root: "R"},
		listingOf(t, store), candidates, ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Batches)

	var requests []string
	for _, call := range store.Calls() {
		if len(call) > 8 && call[:8] == "request:" {
			requests = append(requests, call)
		}
	}
	assert.Equal(t, []string{"request:a,b,c,d,e", "request:f,g,h,i,j", "request:k,l"}, requests)
}

func TestEngine_RenameSkipsBlobUnlessForced(t *testing.T) {
	onServer := server(doc("d1", "R", "old.pdf", 1), 3)
	onServer.CurrentPage = 9

	t.Run("Rename", func(t *testing.T) {
		store := newMemStore(rootCollection(), onServer)
		engine := NewEngine(store, payloadOf())

		plan, report, err := engine.ReconcileAndApply(context.Background(), &Spec{Mode: ModeUpdate, Root: "R"},
			listingOf(t, store), []remote.Item{doc("d1", "R", "new.pdf", 1)}, ReconcileOptions{})
		require.NoError(t, err)
		require.Len(t, plan.Uploads(), 1)
		assert.Equal(t, 4, plan.Uploads()[0].Version)
		assert.Equal(t, []string{"request:d1", "commit:d1"}, store.Calls())
		assert.Zero(t, report.Uploaded)

		got, _ := listingOf(t, store).Get("d1")
		assert.Equal(t, "new.pdf", got.VisibleName)
		assert.Equal(t, 4, got.Version)
		assert.Equal(t, 9, got.CurrentPage)
	})

	t.Run("Forced", func(t *testing.T) {
		store := newMemStore(rootCollection(), onServer)
		engine := NewEngine(store, payloadOf())

		_, report, err := engine.ReconcileAndApply(context.Background(), &Spec{Mode: ModeUpdate, Root: "R", Force: ForceIDs("d1")},
			listingOf(t, store), []remote.Item{doc("d1", "R", "old.pdf", 1)}, ReconcileOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"request:d1", "upload:d1", "commit:d1"}, store.Calls())
		assert.Equal(t, 1, report.Uploaded)
		assert.Equal(t, []byte("payload:d1"), store.blobs["d1"])
	})
}

func TestEngine_RejectedTicketIsStillCommitted(t *testing.T) {
	store := newMemStore(rootCollection())
	store.reject["d2"] = true
	engine := NewEngine(store, payloadOf())

	_, report, err := engine.ReconcileAndApply(context.Background(), &Spec{Mode: ModeUpdate, Root: "R"},
		listingOf(t, store), []remote.Item{doc("d1", "R", "1.pdf", 1), doc("d2", "R", "2.pdf", 1)}, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"request:d1,d2", "upload:d1", "commit:d1,d2"}, store.Calls())
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 1, report.Committed)
	assert.Equal(t, 1, report.CommitFailures)
	assert.Zero(t, report.Compensated)
}

func TestEngine_DryRunTouchesNothing(t *testing.T) {
	m := new(mocks.Store)
	listing := NewListing([]remote.Item{rootCollection(), server(doc("S", "R", "stale.pdf", 1), 1)})
	engine := NewEngine(m, payloadOf())

	plan, report, err := engine.ReconcileAndApply(context.Background(), &Spec{Mode: ModeMirror, Root: "R"},
		listing, []remote.Item{doc("d1", "R", "1.pdf", 1)}, ReconcileOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Len(t, plan.Actions, 2)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, Outcome{ID: "S", Name: "stale.pdf", Phase: PhasePlanned, Success: true, Message: "absent from source"}, report.Outcomes[0])
	assert.Equal(t, PhasePlanned, report.Outcomes[1].Phase)
	m.AssertExpectations(t)
	m.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "RequestUpload", mock.Anything, mock.Anything)
}

func TestEngine_DeletionTransportErrorAborts(t *testing.T) {
	m := new(mocks.Store)
	m.On("Delete", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	listing := NewListing([]remote.Item{rootCollection(), server(doc("S", "R", "stale.pdf", 1), 1)})
	engine := NewEngine(m, payloadOf())

	_, _, err := engine.ReconcileAndApply(context.Background(), &Spec{Mode: ModeMirror, Root: "R"},
		listing, []remote.Item{doc("d1", "R", "1.pdf", 1)}, ReconcileOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	m.AssertExpectations(t)
	m.AssertNotCalled(t, "RequestUpload", mock.Anything, mock.Anything)
}

func TestEngine_BatchTransportErrorContinues(t *testing.T) {
	firstIs := func(id string) interface{} {
		return mock.MatchedBy(func(items []remote.Item) bool { return len(items) > 0 && items[0].ID == id })
	}

	m := new(mocks.Store)
	m.On("RequestUpload", mock.Anything, firstIs("d1")).Return(nil, errors.New("gateway timeout")).Once()
	m.On("RequestUpload", mock.Anything, firstIs("d6")).
		Return([]remote.UploadTicket{{ID: "d6", Success: true, URL: "put://d6"}}, nil).Once()
	m.On("UploadBlob", mock.Anything, "put://d6", []byte("payload:d6")).Return(nil).Once()
	m.On("CommitMetadata", mock.Anything, firstIs("d6")).
		Return([]remote.Result{{ID: "d6", Success: true}}, nil).Once()

	var candidates []remote.Item
	for _, id := range []string{"d1", "d2", "d3", "d4", "d5", "d6"} {
		candidates = append(candidates, doc(id, "R", id+".pdf", 1))
	}
	engine := NewEngine(m, payloadOf())

	_, report, err := engine.ReconcileAndApply(context.Background(), &Spec{Mode: ModeUpdate, Root: "R"},
		NewListing([]remote.Item{rootCollection()}), candidates, ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Batches)
	assert.Equal(t, 1, report.BatchErrors)
	assert.Equal(t, 1, report.Uploaded)
	assert.Equal(t, 1, report.Committed)
	assert.Len(t, report.Failed(), 5)
	m.AssertExpectations(t)
}

func TestEngine_CanceledContextStopsBatches(t *testing.T) {
	store := newMemStore(rootCollection())
	engine := NewEngine(store, payloadOf())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := engine.ReconcileAndApply(ctx, &Spec{Mode: ModeUpdate, Root: "R"},
		listingOf(t, store), []remote.Item{doc("d1", "R", "1.pdf", 1)}, ReconcileOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.Calls())
}
