package testing

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/services"
	"golang.org/x/oauth2"
)

// Provider operation names, matching the op recorded on [services.Failure].
const (
	OpGetMinePlaylists           = "get_mine_playlists"
	OpGetFullPlaylist            = "get_full_playlist"
	OpAddPlaylist                = "add_playlist"
	OpAddPlaylistItem            = "add_playlist_item"
	OpUpdatePlaylistItemPosition = "update_playlist_item_position"
	OpDeletePlaylist             = "delete_playlist"
	OpDeletePlaylistItem         = "delete_playlist_item"
)

// Call records one invocation of a [FakeProvider] method.
type Call struct {
	Op         string
	PlaylistID string
	ItemID     string
	ResourceID string
	Title      string
	From       int
	To         int
}

// FakeProvider is an in-memory [services.ProviderRepository].
//
// Playlists behave like the real services: adds append, moves remove then insert,
// and every read returns a fresh copy. Errors queued with FailNext are returned by the
// next calls to that op, before any state changes.
type FakeProvider struct {
	mu        sync.Mutex
	provider  models.Provider
	playlists map[string]*models.FullPlaylist
	privacy   map[string]models.Privacy
	order     []string
	catalog   map[string]models.PlaylistItem
	failures  map[string][]error
	calls     []Call
	nextID    int
}

// NewFakeProvider creates an empty fake for provider.
func NewFakeProvider(provider models.Provider) *FakeProvider {
	return &FakeProvider{
		provider:  provider,
		playlists: make(map[string]*models.FullPlaylist),
		privacy:   make(map[string]models.Privacy),
		catalog:   make(map[string]models.PlaylistItem),
		failures:  make(map[string][]error),
	}
}

// Seed creates a playlist holding items, registering each item's metadata so copies keep it.
// Items only need ResourceID; ids and positions are assigned.
func (f *FakeProvider) Seed(title string, items ...models.PlaylistItem) *models.FullPlaylist {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := f.create(title, models.PrivacyPrivate)
	for _, item := range items {
		if item.Title == "" {
			item.Title = "Track " + item.ResourceID
		}
		f.catalog[item.ResourceID] = item
		f.append(p, item.ResourceID)
	}
	return clone(p)
}

// Items builds playlist items from resource ids.
func Items(resourceIDs ...string) []models.PlaylistItem {
	items := make([]models.PlaylistItem, len(resourceIDs))
	for i, id := range resourceIDs {
		items[i] = models.PlaylistItem{ResourceID: id}
	}
	return items
}

// FailNext queues errors for the next calls to op.
func (f *FakeProvider) FailNext(op string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = append(f.failures[op], errs...)
}

// FailStatus queues n failures with the given status code for op.
func (f *FakeProvider) FailStatus(op string, status, n int) {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = &services.Failure{Provider: f.provider, Op: op, StatusCode: status, Message: "injected"}
	}
	f.FailNext(op, errs...)
}

// Calls returns a copy of every recorded call.
func (f *FakeProvider) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsTo returns the recorded calls for op.
func (f *FakeProvider) CallsTo(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded calls.
func (f *FakeProvider) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Playlist returns a copy of the stored playlist, or nil.
func (f *FakeProvider) Playlist(id string) *models.FullPlaylist {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[id]
	if !ok {
		return nil
	}
	return clone(p)
}

// ResourceIDs returns the playlist's resource ids in order.
func (f *FakeProvider) ResourceIDs(id string) []string {
	p := f.Playlist(id)
	if p == nil {
		return nil
	}
	out := make([]string, len(p.Items))
	for i, item := range p.Items {
		out[i] = item.ResourceID
	}
	return out
}

// PlaylistCount returns the number of stored playlists.
func (f *FakeProvider) PlaylistCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.playlists)
}

func (f *FakeProvider) Provider() models.Provider { return f.provider }

func (f *FakeProvider) GetMinePlaylists(ctx context.Context, token *oauth2.Token) ([]models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(Call{Op: OpGetMinePlaylists}, token); err != nil {
		return nil, err
	}
	out := make([]models.Playlist, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.playlists[id].Playlist)
	}
	return out, nil
}

func (f *FakeProvider) GetFullPlaylist(ctx context.Context, playlistID string, token *oauth2.Token) (*models.FullPlaylist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(Call{Op: OpGetFullPlaylist, PlaylistID: playlistID}, token); err != nil {
		return nil, err
	}
	p, err := f.lookup(OpGetFullPlaylist, playlistID)
	if err != nil {
		return nil, err
	}
	return clone(p), nil
}

func (f *FakeProvider) AddPlaylist(ctx context.Context, title string, privacy models.Privacy, token *oauth2.Token) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(Call{Op: OpAddPlaylist, Title: title}, token); err != nil {
		return nil, err
	}
	p := f.create(title, privacy)
	out := p.Playlist
	return &out, nil
}

func (f *FakeProvider) AddPlaylistItem(ctx context.Context, playlistID, resourceID string, token *oauth2.Token) (*models.PlaylistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(Call{Op: OpAddPlaylistItem, PlaylistID: playlistID, ResourceID: resourceID}, token); err != nil {
		return nil, err
	}
	p, err := f.lookup(OpAddPlaylistItem, playlistID)
	if err != nil {
		return nil, err
	}
	item := f.append(p, resourceID)
	return &item, nil
}

func (f *FakeProvider) UpdatePlaylistItemPosition(ctx context.Context, playlistID string, item models.PlaylistItem, newIndex int, token *oauth2.Token) (*models.PlaylistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := Call{Op: OpUpdatePlaylistItemPosition, PlaylistID: playlistID, ItemID: item.ID, ResourceID: item.ResourceID, From: item.Position, To: newIndex}
	if err := f.begin(call, token); err != nil {
		return nil, err
	}
	p, err := f.lookup(OpUpdatePlaylistItemPosition, playlistID)
	if err != nil {
		return nil, err
	}

	from := item.Position
	if from < 0 || from >= len(p.Items) || newIndex < 0 || newIndex >= len(p.Items) || p.Items[from].ID != item.ID {
		return nil, &services.Failure{
			Provider:   f.provider,
			Op:         OpUpdatePlaylistItemPosition,
			StatusCode: http.StatusBadRequest,
			Message:    fmt.Sprintf("item %s is not at position %d", item.ID, from),
		}
	}

	moved := p.Items[from]
	p.Items = slices.Delete(p.Items, from, from+1)
	p.Items = slices.Insert(p.Items, newIndex, moved)
	renumber(p)
	out := p.Items[newIndex]
	return &out, nil
}

func (f *FakeProvider) DeletePlaylist(ctx context.Context, playlistID string, token *oauth2.Token) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(Call{Op: OpDeletePlaylist, PlaylistID: playlistID}, token); err != nil {
		return nil, err
	}
	if _, err := f.lookup(OpDeletePlaylist, playlistID); err != nil {
		return nil, err
	}
	delete(f.playlists, playlistID)
	delete(f.privacy, playlistID)
	f.order = slices.DeleteFunc(f.order, func(id string) bool { return id == playlistID })
	return &models.Playlist{ID: playlistID, Provider: f.provider}, nil
}

func (f *FakeProvider) DeletePlaylistItem(ctx context.Context, playlistID string, item models.PlaylistItem, token *oauth2.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(Call{Op: OpDeletePlaylistItem, PlaylistID: playlistID, ItemID: item.ID, ResourceID: item.ResourceID}, token); err != nil {
		return err
	}
	p, err := f.lookup(OpDeletePlaylistItem, playlistID)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(p.Items, func(it models.PlaylistItem) bool { return it.ID == item.ID })
	if idx < 0 {
		return &services.Failure{Provider: f.provider, Op: OpDeletePlaylistItem, StatusCode: http.StatusNotFound, Message: "item not found"}
	}
	p.Items = slices.Delete(p.Items, idx, idx+1)
	renumber(p)
	return nil
}

// Privacy returns the privacy a playlist was created with.
func (f *FakeProvider) Privacy(id string) models.Privacy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.privacy[id]
}

// begin records the call, checks the token and pops an injected failure. Callers hold mu.
func (f *FakeProvider) begin(call Call, token *oauth2.Token) error {
	f.calls = append(f.calls, call)
	if token == nil || !token.Valid() {
		return &services.Failure{Provider: f.provider, Op: call.Op, StatusCode: http.StatusUnauthorized, Message: "token expired"}
	}
	if queued := f.failures[call.Op]; len(queued) > 0 {
		f.failures[call.Op] = queued[1:]
		return queued[0]
	}
	return nil
}

func (f *FakeProvider) lookup(op, id string) (*models.FullPlaylist, error) {
	p, ok := f.playlists[id]
	if !ok {
		return nil, &services.Failure{Provider: f.provider, Op: op, StatusCode: http.StatusNotFound, Message: "playlist " + id + " not found"}
	}
	return p, nil
}

func (f *FakeProvider) create(title string, privacy models.Privacy) *models.FullPlaylist {
	f.nextID++
	id := fmt.Sprintf("pl-%d", f.nextID)
	p := &models.FullPlaylist{Playlist: models.Playlist{ID: id, Title: title, Provider: f.provider}}
	f.playlists[id] = p
	f.privacy[id] = privacy
	f.order = append(f.order, id)
	return p
}

func (f *FakeProvider) append(p *models.FullPlaylist, resourceID string) models.PlaylistItem {
	f.nextID++
	item, ok := f.catalog[resourceID]
	if !ok {
		item = models.PlaylistItem{ResourceID: resourceID, Title: "Track " + resourceID}
	}
	item.ID = fmt.Sprintf("item-%d", f.nextID)
	item.Position = len(p.Items)
	p.Items = append(p.Items, item)
	p.ItemsTotal = len(p.Items)
	return item
}

func renumber(p *models.FullPlaylist) {
	for i := range p.Items {
		p.Items[i].Position = i
	}
	p.ItemsTotal = len(p.Items)
}

func clone(p *models.FullPlaylist) *models.FullPlaylist {
	out := *p
	out.Items = slices.Clone(p.Items)
	return &out
}

var _ services.ProviderRepository = (*FakeProvider)(nil)
