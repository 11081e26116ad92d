package tasks

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"

	"github.com/desertthunder/listkit/internal/journal"
	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/services"
	"github.com/desertthunder/listkit/internal/shared"
	"github.com/desertthunder/listkit/internal/structure"
	tu "github.com/desertthunder/listkit/internal/testing"
)

func newEngine(t *testing.T, fake *tu.FakeProvider, opts ...Option) *PlaylistEngine {
	t.Helper()
	token := services.NewToken("test-token")
	policy := services.RetryPolicy{MaxAttempts: 3}
	history := journal.NewHistory(fake, token, journal.WithRetryPolicy(policy))
	opts = append([]Option{WithRetryPolicy(policy)}, opts...)
	return NewPlaylistEngine(fake, token, history, opts...)
}

// drain closes ch and returns everything it buffered.
func drain(ch chan ProgressUpdate) []ProgressUpdate {
	close(ch)
	var out []ProgressUpdate
	for u := range ch {
		out = append(out, u)
	}
	return out
}

func phases(updates []ProgressUpdate) []Phase {
	out := make([]Phase, len(updates))
	for i, u := range updates {
		out[i] = u.Phase
	}
	return out
}

// sequence returns an intn that replays values modulo n.
func sequence(values ...int) func(int) int {
	i := 0
	return func(n int) int {
		v := values[i%len(values)] % n
		i++
		return v
	}
}

func TestPlaylistEngine_Copy(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a copied playlist when no target is given", func(t *testing.T) {
		fake := tu.NewFakeProvider(models.ProviderSpotify)
		source := fake.Seed("Road Trip", tu.Items("a", "b", "c")...)
		engine := newEngine(t, fake)

		result, err := engine.Copy(ctx, nil, CopyOpts{SourceID: source.ID})
		if err != nil {
			t.Fatalf("copy failed: %v", err)
		}
		if !result.Created || result.Target.Title != "Road Trip - Copied" {
			t.Errorf("expected created 'Road Trip - Copied', got %+v", result.Target)
		}
		if got := fake.ResourceIDs(result.Target.ID); !slices.Equal(got, []string{"a", "b", "c"}) {
			t.Errorf("expected items in source order, got %v", got)
		}
		if fake.Privacy(result.Target.ID) != models.PrivacyPrivate {
			t.Errorf("expected private playlist, got %s", fake.Privacy(result.Target.ID))
		}

		cmds := engine.History().Commands()
		if len(cmds) != 1 || cmds[0].ID != result.CommandID {
			t.Fatalf("expected one recorded command, got %+v", cmds)
		}
		if len(cmds[0].Jobs) != 4 || cmds[0].Jobs[0].Kind != journal.KindCreatePlaylist {
			t.Errorf("expected create + 3 add jobs, got %+v", cmds[0].Jobs)
		}
	})

	t.Run("second copy without duplicates adds nothing", func(t *testing.T) {
		fake := tu.NewFakeProvider(models.ProviderSpotify)
		source := fake.Seed("Source", tu.Items("a", "b", "c")...)
		target := fake.Seed("Target", tu.Items("b")...)
		engine := newEngine(t, fake)

		opts := CopyOpts{SourceID: source.ID, TargetID: target.ID}
		first, err := engine.Copy(ctx, nil, opts)
		if err != nil {
			t.Fatalf("first copy failed: %v", err)
		}
		if len(first.Added) != 2 || first.Skipped != 1 {
			t.Errorf("expected 2 added and 1 skipped, got %d and %d", len(first.Added), first.Skipped)
		}

		fake.ResetCalls()
		second, err := engine.Copy(ctx, nil, opts)
		if err != nil {
			t.Fatalf("second copy failed: %v", err)
		}
		if len(second.Added) != 0 || second.Skipped != 3 {
			t.Errorf("expected second copy to skip everything, got %+v", second)
		}
		if n := len(fake.CallsTo(tu.OpAddPlaylistItem)); n != 0 {
			t.Errorf("expected no add calls, got %d", n)
		}
		if second.CommandID != "" {
			t.Error("a copy that changed nothing should not be journaled")
		}
		if n := len(engine.History().Commands()); n != 1 {
			t.Errorf("expected 1 command in history, got %d", n)
		}
	})

	t.Run("allow duplicates adds again", func(t *testing.T) {
		fake := tu.NewFakeProvider(models.ProviderSpotify)
		source := fake.Seed("Source", tu.Items("a", "b")...)
		target := fake.Seed("Target", tu.Items("a")...)
		engine := newEngine(t, fake)

		result, err := engine.Copy(ctx, nil, CopyOpts{SourceID: source.ID, TargetID: target.ID, AllowDuplicates: true})
		if err != nil {
			t.Fatalf("copy failed: %v", err)
		}
		if got := fake.ResourceIDs(target.ID); !slices.Equal(got, []string{"a", "a", "b"}) {
			t.Errorf("expected duplicates to be added, got %v", got)
		}
		if result.Created {
			t.Error("existing target should not be reported as created")
		}
	})

	t.Run("missing source id", func(t *testing.T) {
		fake := tu.NewFakeProvider(models.ProviderSpotify)
		engine := newEngine(t, fake)
		if _, err := engine.Copy(ctx, nil, CopyOpts{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if n := len(fake.Calls()); n != 0 {
			t.Errorf("expected no provider calls, got %d", n)
		}
	})
}

func TestPlaylistEngine_Retry(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		status       int
		failures     int
		wantErr      bool
		wantAttempts int
	}{
		{name: "success on first attempt", failures: 0, wantAttempts: 1},
		{name: "transient failure then success", status: http.StatusInternalServerError, failures: 2, wantAttempts: 3},
		{name: "rate limited then success", status: http.StatusTooManyRequests, failures: 1, wantAttempts: 2},
		{name: "budget exhausted", status: http.StatusServiceUnavailable, failures: 3, wantErr: true, wantAttempts: 3},
		{name: "expired credential is not retried", status: http.StatusUnauthorized, failures: 1, wantErr: true, wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := tu.NewFakeProvider(models.ProviderYouTube)
			source := fake.Seed("Source", tu.Items("a")...)
			target := fake.Seed("Target")
			engine := newEngine(t, fake)
			if tt.failures > 0 {
				fake.FailStatus(tu.OpAddPlaylistItem, tt.status, tt.failures)
			}

			_, err := engine.Copy(ctx, nil, CopyOpts{SourceID: source.ID, TargetID: target.ID})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Copy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := len(fake.CallsTo(tu.OpAddPlaylistItem)); got != tt.wantAttempts {
				t.Errorf("expected %d attempts, got %d", tt.wantAttempts, got)
			}
			if tt.wantErr {
				f, ok := services.AsFailure(err)
				if !ok || f.StatusCode != tt.status {
					t.Errorf("expected Failure with status %d, got %v", tt.status, err)
				}
			}
		})
	}

	t.Run("reads are retried too", func(t *testing.T) {
		fake := tu.NewFakeProvider(models.ProviderSpotify)
		source := fake.Seed("Source", tu.Items("a")...)
		engine := newEngine(t, fake)
		fake.FailStatus(tu.OpGetFullPlaylist, http.StatusBadGateway, 2)

		if _, err := engine.Copy(ctx, nil, CopyOpts{SourceID: source.ID}); err != nil {
			t.Fatalf("copy failed: %v", err)
		}
		if got := len(fake.CallsTo(tu.OpGetFullPlaylist)); got != 3 {
			t.Errorf("expected 3 fetch attempts, got %d", got)
		}
	})

	t.Run("missing token fails locally after one attempt", func(t *testing.T) {
		fake := tu.NewFakeProvider(models.ProviderSpotify)
		source := fake.Seed("Source", tu.Items("a")...)
		engine := NewPlaylistEngine(fake, services.NewToken(""), nil, WithRetryPolicy(services.RetryPolicy{MaxAttempts: 5}))

		_, err := engine.Copy(ctx, nil, CopyOpts{SourceID: source.ID})
		if !errors.Is(err, shared.ErrTokenExpired) {
			if f, ok := services.AsFailure(err); !ok || !f.Expired() {
				t.Fatalf("expected expired credential failure, got %v", err)
			}
		}
		if got := len(fake.Calls()); got != 1 {
			t.Errorf("expected exactly 1 call, got %d", got)
		}
	})
}

func TestPlaylistEngine_PartialFailure(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakeProvider(models.ProviderSpotify)
	source := fake.Seed("Source", tu.Items("a", "b", "c")...)
	engine := newEngine(t, fake)

	injected := &services.Failure{Provider: models.ProviderSpotify, Op: tu.OpAddPlaylistItem, StatusCode: http.StatusInternalServerError}
	fake.FailNext(tu.OpAddPlaylistItem, nil, injected, injected, injected)

	result, err := engine.Copy(ctx, nil, CopyOpts{SourceID: source.ID})
	if f, ok := services.AsFailure(err); !ok || f.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected the exhausted Failure, got %v", err)
	}
	if len(result.Added) != 1 {
		t.Errorf("expected 1 item added before the failure, got %d", len(result.Added))
	}
	if got := fake.ResourceIDs(result.Target.ID); !slices.Equal(got, []string{"a"}) {
		t.Errorf("progress should be left in place, got %v", got)
	}

	cmds := engine.History().Commands()
	if len(cmds) != 1 || len(cmds[0].Jobs) != 2 {
		t.Fatalf("expected partial command with 2 jobs, got %+v", cmds)
	}

	if _, err := engine.History().Undo(ctx); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if fake.PlaylistCount() != 1 {
		t.Errorf("expected only the source after undo, got %d playlists", fake.PlaylistCount())
	}
}

func TestPlaylistEngine_Merge(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakeProvider(models.ProviderSpotify)
	first := fake.Seed("Chill", tu.Items("a", "b")...)
	second := fake.Seed("Focus", tu.Items("b", "c")...)
	engine := newEngine(t, fake)

	result, err := engine.Merge(ctx, nil, MergeOpts{SourceIDs: []string{first.ID, second.ID}, Privacy: models.PrivacyUnlisted})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if result.Target.Title != "Chill & Focus" {
		t.Errorf("expected title 'Chill & Focus', got %q", result.Target.Title)
	}
	if got := fake.ResourceIDs(result.Target.ID); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("expected merged items without duplicates, got %v", got)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped duplicate, got %d", result.Skipped)
	}
	if fake.Privacy(result.Target.ID) != models.PrivacyUnlisted {
		t.Errorf("expected unlisted privacy, got %s", fake.Privacy(result.Target.ID))
	}

	t.Run("explicit title", func(t *testing.T) {
		result, err := engine.Merge(ctx, nil, MergeOpts{SourceIDs: []string{second.ID}, Title: "Mine"})
		if err != nil {
			t.Fatalf("merge failed: %v", err)
		}
		if result.Target.Title != "Mine" {
			t.Errorf("expected title 'Mine', got %q", result.Target.Title)
		}
	})

	t.Run("no sources", func(t *testing.T) {
		if _, err := engine.Merge(ctx, nil, MergeOpts{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestPlaylistEngine_Extract(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakeProvider(models.ProviderSpotify)
	first := fake.Seed("Mix",
		models.PlaylistItem{ResourceID: "a", Author: "Nina Simone"},
		models.PlaylistItem{ResourceID: "b", Author: "Miles Davis"},
		models.PlaylistItem{ResourceID: "c", Author: "nina simone"},
	)
	second := fake.Seed("More",
		models.PlaylistItem{ResourceID: "d", Author: "John Coltrane"},
		models.PlaylistItem{ResourceID: "e", Author: "Nina Simone"},
	)
	engine := newEngine(t, fake)

	result, err := engine.Extract(ctx, nil, ExtractOpts{
		SourceIDs:   []string{first.ID, second.ID},
		ArtistNames: []string{"Nina Simone", "John Coltrane"},
	})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if result.Target.Title != "Nina Simone & John Coltrane" {
		t.Errorf("unexpected title %q", result.Target.Title)
	}
	if got := fake.ResourceIDs(result.Target.ID); !slices.Equal(got, []string{"a", "d", "e"}) {
		t.Errorf("expected exact author matches in order, got %v", got)
	}

	if _, err := engine.Extract(ctx, nil, ExtractOpts{SourceIDs: []string{first.ID}}); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument without artists, got %v", err)
	}
}

func TestPlaylistEngine_Import(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakeProvider(models.ProviderYouTube)
	source := fake.Seed("Live Set", tu.Items("v1", "v2")...)
	engine := newEngine(t, fake)

	for range 2 {
		result, err := engine.Import(ctx, nil, ImportOpts{SourceID: source.ID, Privacy: models.PrivacyPublic})
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !result.Created || result.Target.Title != "Live Set - Imported" {
			t.Errorf("expected a new 'Live Set - Imported', got %+v", result.Target)
		}
		if fake.Privacy(result.Target.ID) != models.PrivacyPublic {
			t.Errorf("expected public privacy, got %s", fake.Privacy(result.Target.ID))
		}
	}
	if n := len(fake.CallsTo(tu.OpAddPlaylist)); n != 2 {
		t.Errorf("each import should create a playlist, got %d creates", n)
	}
}

func TestPlaylistEngine_Shuffle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		items     int
		ratio     float64
		wantMoves int
	}{
		{name: "ratio 0 makes no calls", items: 5, ratio: 0, wantMoves: 0},
		{name: "ratio 1 makes n calls", items: 5, ratio: 1, wantMoves: 5},
		{name: "ratio is floored", items: 5, ratio: 0.5, wantMoves: 2},
		{name: "empty playlist", items: 0, ratio: 1, wantMoves: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := tu.NewFakeProvider(models.ProviderSpotify)
			ids := make([]string, tt.items)
			for i := range ids {
				ids[i] = string(rune('a' + i))
			}
			target := fake.Seed("Target", tu.Items(ids...)...)
			engine := newEngine(t, fake, WithRandom(sequence(0, 4, 3, 3, 1, 2, 4, 0, 2, 1)))

			result, err := engine.Shuffle(ctx, nil, target.ID, tt.ratio)
			if err != nil {
				t.Fatalf("shuffle failed: %v", err)
			}
			if got := len(fake.CallsTo(tu.OpUpdatePlaylistItemPosition)); got != tt.wantMoves {
				t.Errorf("expected %d position updates, got %d", tt.wantMoves, got)
			}
			if result.Moves != tt.wantMoves {
				t.Errorf("expected %d moves in result, got %d", tt.wantMoves, result.Moves)
			}

			local := make([]string, len(result.Items))
			for i, item := range result.Items {
				local[i] = item.ResourceID
			}
			if remote := fake.ResourceIDs(target.ID); !slices.Equal(local, remote) {
				t.Errorf("local order %v drifted from remote %v", local, remote)
			}
		})
	}

	t.Run("undo restores the original order", func(t *testing.T) {
		fake := tu.NewFakeProvider(models.ProviderSpotify)
		target := fake.Seed("Target", tu.Items("a", "b", "c", "d")...)
		engine := newEngine(t, fake, WithRandom(sequence(0, 3, 2, 0, 1, 1, 3, 1)))

		if _, err := engine.Shuffle(ctx, nil, target.ID, 1); err != nil {
			t.Fatalf("shuffle failed: %v", err)
		}
		if _, err := engine.History().Undo(ctx); err != nil {
			t.Fatalf("undo failed: %v", err)
		}
		if got := fake.ResourceIDs(target.ID); !slices.Equal(got, []string{"a", "b", "c", "d"}) {
			t.Errorf("expected original order after undo, got %v", got)
		}
	})

	t.Run("ratio outside [0, 1] panics", func(t *testing.T) {
		fake := tu.NewFakeProvider(models.ProviderSpotify)
		engine := newEngine(t, fake)

		for _, ratio := range []float64{-0.1, 1.5} {
			func() {
				defer func() {
					if recover() == nil {
						t.Errorf("expected panic for ratio %v", ratio)
					}
				}()
				engine.Shuffle(ctx, nil, "pl-1", ratio)
			}()
		}
		if n := len(fake.Calls()); n != 0 {
			t.Errorf("expected no provider calls, got %d", n)
		}
	})
}

func TestPlaylistEngine_DeletePlaylist(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakeProvider(models.ProviderYouTube)
	target := fake.Seed("Old Favourites", tu.Items("x", "y")...)
	engine := newEngine(t, fake)

	deleted, err := engine.DeletePlaylist(ctx, nil, target.ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted.ID != target.ID {
		t.Errorf("expected deleted id %s, got %s", target.ID, deleted.ID)
	}
	if fake.PlaylistCount() != 0 {
		t.Fatalf("expected playlist to be gone")
	}
	if n := len(fake.CallsTo(tu.OpDeletePlaylist)); n != 1 {
		t.Errorf("expected a single delete call, got %d", n)
	}

	if _, err := engine.History().Undo(ctx); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	playlists, err := engine.ListPlaylists(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(playlists) != 1 || playlists[0].Title != "Old Favourites" {
		t.Fatalf("expected recreated playlist, got %+v", playlists)
	}
	if got := fake.ResourceIDs(playlists[0].ID); !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("expected snapshot items restored in order, got %v", got)
	}
}

func node(id string, deps ...models.PlaylistDefinitionNode) models.PlaylistDefinitionNode {
	return models.PlaylistDefinitionNode{ID: id, Dependencies: deps}
}

func TestPlaylistEngine_SyncStructured(t *testing.T) {
	ctx := context.Background()

	t.Run("syncs bottom-up", func(t *testing.T) {
		fake := tu.NewFakeProvider(models.ProviderSpotify)
		d := fake.Seed("D", tu.Items("d1", "d2")...)
		b := fake.Seed("B", tu.Items("b1")...)
		c := fake.Seed("C", tu.Items("c1", "d1")...)
		a := fake.Seed("A", tu.Items("a1")...)
		engine := newEngine(t, fake)

		def := &models.StructuredPlaylistsDefinition{
			Version:  1,
			Name:     "library",
			Provider: models.ProviderSpotify,
			UserID:   "me",
			Playlists: []models.PlaylistDefinitionNode{
				node(a.ID, node(b.ID, node(d.ID)), node(c.ID)),
			},
		}

		progress := make(chan ProgressUpdate, 256)
		result, err := engine.SyncStructured(ctx, progress, def)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if got := fake.ResourceIDs(b.ID); !slices.Equal(got, []string{"b1", "d1", "d2"}) {
			t.Errorf("B: got %v", got)
		}
		if got := fake.ResourceIDs(a.ID); !slices.Equal(got, []string{"a1", "b1", "d1", "d2", "c1"}) {
			t.Errorf("A: got %v", got)
		}
		if got := fake.ResourceIDs(c.ID); !slices.Equal(got, []string{"c1", "d1"}) {
			t.Errorf("leaf C should be untouched, got %v", got)
		}

		if len(result.Executed) != 2 || result.Executed[0].ID != b.ID || result.Executed[1].ID != a.ID {
			t.Errorf("expected B then A, got %+v", result.Executed)
		}

		var executed []ExecutedData
		for _, u := range drain(progress) {
			if u.Phase == Executed {
				executed = append(executed, u.Data.(ExecutedData))
			}
		}
		if len(executed) != 2 || executed[1].Completed != 2 || executed[1].Total != 2 {
			t.Errorf("unexpected executed events %+v", executed)
		}

		if n := len(fake.CallsTo(tu.OpGetFullPlaylist)); n != 4 {
			t.Errorf("expected each playlist fetched once, got %d fetches", n)
		}
	})

	t.Run("invalid definitions make no calls", func(t *testing.T) {
		tests := []struct {
			name     string
			roots    []models.PlaylistDefinitionNode
			wantCode structure.ErrorCode
		}{
			{name: "cycle", roots: []models.PlaylistDefinitionNode{node("A", node("B", node("A")))}, wantCode: structure.CodeDependencyCycle},
			{name: "duplicate siblings", roots: []models.PlaylistDefinitionNode{node("A", node("B"), node("B"))}, wantCode: structure.CodeInvalidStructure},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				fake := tu.NewFakeProvider(models.ProviderSpotify)
				engine := newEngine(t, fake)
				def := &models.StructuredPlaylistsDefinition{Version: 1, Name: "x", Provider: models.ProviderSpotify, UserID: "me", Playlists: tt.roots}

				_, err := engine.SyncStructured(ctx, nil, def)
				defErr, ok := structure.AsDefinitionError(err)
				if !ok || defErr.Code != tt.wantCode {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				if n := len(fake.Calls()); n != 0 {
					t.Errorf("expected zero provider calls, got %d", n)
				}
				if engine.History().Undoable() {
					t.Error("nothing should be journaled")
				}
			})
		}
	})

	t.Run("provider mismatch", func(t *testing.T) {
		fake := tu.NewFakeProvider(models.ProviderYouTube)
		engine := newEngine(t, fake)
		def := &models.StructuredPlaylistsDefinition{Version: 1, Name: "x", Provider: models.ProviderSpotify, UserID: "me",
			Playlists: []models.PlaylistDefinitionNode{node("A", node("B"))}}

		if _, err := engine.SyncStructured(ctx, nil, def); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if n := len(fake.Calls()); n != 0 {
			t.Errorf("expected zero provider calls, got %d", n)
		}
	})
}

func TestPlaylistEngine_Progress(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakeProvider(models.ProviderSpotify)
	source := fake.Seed("Source", tu.Items("a", "b")...)
	engine := newEngine(t, fake)

	progress := make(chan ProgressUpdate, 64)
	if _, err := engine.Copy(ctx, progress, CopyOpts{SourceID: source.ID}); err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	updates := drain(progress)

	want := []Phase{FetchSource, CreatePlaylist, Adding, Added, Adding, Added}
	if got := phases(updates); !slices.Equal(got, want) {
		t.Fatalf("expected phases %v, got %v", want, got)
	}

	last := updates[len(updates)-1].Data.(AddedData)
	if last.Index != 1 || last.Total != 2 || last.Item.ResourceID != "b" {
		t.Errorf("unexpected added payload %+v", last)
	}
}

func TestPlaylistEngine_UndoRefusedWhileRunning(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakeProvider(models.ProviderSpotify)
	source := fake.Seed("Source", tu.Items("a", "b")...)
	engine := newEngine(t, fake)

	progress := make(chan ProgressUpdate)
	errCh := make(chan error, 1)
	go func() {
		_, err := engine.Copy(ctx, progress, CopyOpts{SourceID: source.ID})
		close(progress)
		errCh <- err
	}()

	<-progress
	if _, err := engine.History().Undo(ctx); !errors.Is(err, shared.ErrOperationInProgress) {
		t.Errorf("expected ErrOperationInProgress, got %v", err)
	}

	for range progress {
	}
	if err := <-errCh; err != nil {
		t.Fatalf("copy failed: %v", err)
	}

	cmd, err := engine.History().Undo(ctx)
	if err != nil || cmd == nil {
		t.Fatalf("expected undo to succeed once the copy finished, got %v", err)
	}
	if len(cmd.Jobs) != 3 {
		t.Errorf("expected 3 jobs, got %d", len(cmd.Jobs))
	}
}

func TestConcurrentOperationsShareHistory(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakeProvider(models.ProviderSpotify)
	engine := newEngine(t, fake)

	var ids []string
	for _, title := range []string{"one", "two", "three", "four"} {
		ids = append(ids, fake.Seed(title, tu.Items(title+"-1", title+"-2")...).ID)
	}

	errs := make(chan error, len(ids))
	for _, id := range ids {
		go func() {
			_, err := engine.Copy(ctx, nil, CopyOpts{SourceID: id})
			errs <- err
		}()
	}
	for range ids {
		if err := <-errs; err != nil {
			t.Fatalf("copy failed: %v", err)
		}
	}

	if n := len(engine.History().Commands()); n != len(ids) {
		t.Errorf("expected %d commands, got %d", len(ids), n)
	}
}

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{FetchSource, "Fetching source"},
		{CreatePlaylist, "Creating playlist"},
		{Added, "Added item"},
		{Updated, "Moved item"},
		{Executed, "Synced playlist"},
		{Deleted, "Deleted playlist"},
		{Phase(99), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.phase.String(); got != tt.want {
				t.Errorf("Phase.String() = %q, want %q", got, tt.want)
			}
		})
	}
}
