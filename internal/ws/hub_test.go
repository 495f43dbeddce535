package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DulakshanaMalith/Photography-Learning/internal/chat"
	"github.com/DulakshanaMalith/Photography-Learning/internal/model"
	"github.com/DulakshanaMalith/Photography-Learning/internal/presence"
)

// fakeStore is an in-memory chat.MessageStore for hub tests.
type fakeStore struct {
	msgs    map[string]model.Message
	order   []string
	convErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{msgs: make(map[string]model.Message)}
}

func (s *fakeStore) Create(_ context.Context, m *model.Message) error {
	s.msgs[m.ID] = *m
	s.order = append(s.order, m.ID)
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*model.Message, error) {
	m, ok := s.msgs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &m, nil
}

func (s *fakeStore) Update(_ context.Context, m *model.Message) error {
	if _, ok := s.msgs[m.ID]; !ok {
		return errors.New("not found")
	}
	s.msgs[m.ID] = *m
	return nil
}

func (s *fakeStore) pair(userID, peerID string) []model.Message {
	var out []model.Message
	for _, id := range s.order {
		m := s.msgs[id]
		if (m.SenderID == userID && m.RecipientID == peerID) ||
			(m.SenderID == peerID && m.RecipientID == userID) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *fakeStore) Conversation(_ context.Context, userID, peerID string, limit, offset int) ([]model.Message, error) {
	if s.convErr != nil {
		return nil, s.convErr
	}
	all := s.pair(userID, peerID)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *fakeStore) Search(_ context.Context, userID, query string) ([]model.Message, error) {
	return nil, nil
}

func (s *fakeStore) CountBetween(_ context.Context, userID, peerID string) (int64, error) {
	return int64(len(s.pair(userID, peerID))), nil
}

func (s *fakeStore) CountUnread(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, m := range s.msgs {
		if m.RecipientID == userID && m.Status != model.MessageStatusRead {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) LastMessage(_ context.Context, userID, peerID string) (*model.Message, error) {
	all := s.pair(userID, peerID)
	if len(all) == 0 {
		return nil, nil
	}
	return &all[0], nil
}

func (s *fakeStore) SetArchived(_ context.Context, userID, peerID string, archived bool) error {
	for id, m := range s.msgs {
		if (m.SenderID == userID && m.RecipientID == peerID) ||
			(m.SenderID == peerID && m.RecipientID == userID) {
			if m.Metadata == nil {
				m.Metadata = make(map[string]any)
			}
			m.Metadata["archived"] = archived
			s.msgs[id] = m
		}
	}
	return nil
}

type fakeDir struct {
	users map[string]model.User
}

func (d *fakeDir) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &u, nil
}

func (d *fakeDir) ListAll(_ context.Context, limit int) ([]model.User, error) {
	out := make([]model.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeNotifier struct {
	ch chan model.Notification
}

func (n *fakeNotifier) Accept(_ context.Context, event model.Notification) {
	n.ch <- event
}

type hubFixture struct {
	hub      *Hub
	store    *fakeStore
	notifier *fakeNotifier
	clients  map[string]*Client
}

func newHubFixture(t *testing.T, userIDs ...string) *hubFixture {
	t.Helper()
	store := newFakeStore()
	dir := &fakeDir{users: map[string]model.User{}}
	for _, id := range userIDs {
		dir.users[id] = model.User{ID: id, Username: "user-" + id}
	}
	tracker := presence.NewMemory()
	notifier := &fakeNotifier{ch: make(chan model.Notification, 8)}
	svc := chat.NewService(store, dir, tracker)
	hub := NewHub(store, dir, svc, tracker, notifier, 100)

	f := &hubFixture{hub: hub, store: store, notifier: notifier, clients: map[string]*Client{}}
	for _, id := range userIDs {
		c := NewClient(hub, nil, id)
		hub.addClient(c)
		f.clients[id] = c
	}
	return f
}

// receivedFrame is an outbound frame with the payload kept raw for the test
// to decode per type.
type receivedFrame struct {
	Type    FrameType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (f *hubFixture) nextFrame(t *testing.T, userID string) receivedFrame {
	t.Helper()
	select {
	case data := <-f.clients[userID].send:
		var frame receivedFrame
		require.NoError(t, json.Unmarshal(data, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatalf("no frame for user %s", userID)
		return receivedFrame{}
	}
}

func (f *hubFixture) nextMessage(t *testing.T, userID string) model.Message {
	t.Helper()
	frame := f.nextFrame(t, userID)
	require.Equal(t, FrameMessage, frame.Type)
	var m model.Message
	require.NoError(t, json.Unmarshal(frame.Payload, &m))
	return m
}

func (f *hubFixture) assertNoFrame(t *testing.T, userID string) {
	t.Helper()
	select {
	case data := <-f.clients[userID].send:
		t.Fatalf("unexpected frame for user %s: %s", userID, data)
	case <-time.After(50 * time.Millisecond):
	}
}

func (f *hubFixture) dispatch(userID string, env Envelope) {
	f.hub.Dispatch(context.Background(), f.clients[userID], env)
}

func (f *hubFixture) send(t *testing.T, from, to, content string) model.Message {
	t.Helper()
	f.dispatch(from, Envelope{Op: OpSend, RecipientID: to, Content: content})
	got := f.nextMessage(t, to)
	sent := f.nextMessage(t, from)
	require.Equal(t, got.ID, sent.ID)
	return got
}

func TestSendFansOutToBothParticipants(t *testing.T) {
	f := newHubFixture(t, "a", "b")

	f.dispatch("a", Envelope{Op: OpSend, RecipientID: "b", Content: "hello"})

	forB := f.nextMessage(t, "b")
	forA := f.nextMessage(t, "a")
	assert.Equal(t, forB.ID, forA.ID)
	assert.Equal(t, "hello", forB.Content)
	assert.Equal(t, model.MessageStatusSent, forB.Status)
	assert.Equal(t, model.MessageStatusSent, forA.Status)
	require.NotNil(t, forB.Sender)
	assert.Equal(t, "user-a", forB.Sender.Username)

	select {
	case n := <-f.notifier.ch:
		assert.Equal(t, "b", n.UserID)
		assert.Equal(t, "message", n.Type)
		assert.Equal(t, "a", n.Sender.ID)
		assert.Equal(t, forB.ID, n.MessageID)
	case <-time.After(time.Second):
		t.Fatal("no notification dispatched")
	}
}

func TestSendToSelfDeliversOnceWithoutNotification(t *testing.T) {
	f := newHubFixture(t, "a")

	f.dispatch("a", Envelope{Op: OpSend, RecipientID: "a", Content: "note to self"})

	f.nextMessage(t, "a")
	f.assertNoFrame(t, "a")
	select {
	case <-f.notifier.ch:
		t.Fatal("self-send must not notify")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendWithoutContentIsDropped(t *testing.T) {
	f := newHubFixture(t, "a", "b")

	f.dispatch("a", Envelope{Op: OpSend, RecipientID: "b"})
	f.assertNoFrame(t, "a")
	f.assertNoFrame(t, "b")
	assert.Empty(t, f.store.msgs)
}

func TestUnknownOpIsDropped(t *testing.T) {
	f := newHubFixture(t, "a")

	f.dispatch("a", Envelope{Op: "resend-everything"})
	f.assertNoFrame(t, "a")
}

func TestStatusRecipientOnlyAndMonotonic(t *testing.T) {
	f := newHubFixture(t, "a", "b")
	m := f.send(t, "a", "b", "hi")

	// the sender cannot flip its own message
	f.dispatch("a", Envelope{Op: OpDelivered, MessageID: m.ID})
	f.assertNoFrame(t, "a")
	f.assertNoFrame(t, "b")

	// the recipient can; both sides hear about it
	f.dispatch("b", Envelope{Op: OpDelivered, MessageID: m.ID})
	assert.Equal(t, model.MessageStatusDelivered, f.nextMessage(t, "b").Status)
	assert.Equal(t, model.MessageStatusDelivered, f.nextMessage(t, "a").Status)

	f.dispatch("b", Envelope{Op: OpRead, MessageID: m.ID})
	assert.Equal(t, model.MessageStatusRead, f.nextMessage(t, "b").Status)
	assert.Equal(t, model.MessageStatusRead, f.nextMessage(t, "a").Status)

	// delivered after read stays read
	f.dispatch("b", Envelope{Op: OpDelivered, MessageID: m.ID})
	assert.Equal(t, model.MessageStatusRead, f.nextMessage(t, "b").Status)
	assert.Equal(t, model.MessageStatusRead, f.nextMessage(t, "a").Status)
}

func TestEditSenderOnlyFanout(t *testing.T) {
	f := newHubFixture(t, "a", "b")
	m := f.send(t, "a", "b", "first")

	f.dispatch("b", Envelope{Op: OpEdit, MessageID: m.ID, Content: "hijack"})
	f.assertNoFrame(t, "a")
	f.assertNoFrame(t, "b")

	f.dispatch("a", Envelope{Op: OpEdit, MessageID: m.ID, Content: "second"})
	edited := f.nextMessage(t, "b")
	assert.Equal(t, "second", edited.Content)
	assert.True(t, edited.Edited)
	assert.NotNil(t, edited.EditedAt)
	assert.Equal(t, edited.Content, f.nextMessage(t, "a").Content)
}

func TestDeleteReplacesContentForBothSides(t *testing.T) {
	f := newHubFixture(t, "a", "b")
	m := f.send(t, "a", "b", "oops")

	f.dispatch("a", Envelope{Op: OpDelete, MessageID: m.ID})
	gone := f.nextMessage(t, "b")
	assert.True(t, gone.Deleted)
	assert.Equal(t, chat.DeletedPlaceholder, gone.Content)
	f.nextMessage(t, "a")

	stored := f.store.msgs[m.ID]
	assert.Equal(t, chat.DeletedPlaceholder, stored.Content)
}

func TestReactOverwriteAndRemove(t *testing.T) {
	f := newHubFixture(t, "a", "b")
	m := f.send(t, "a", "b", "hi")

	f.dispatch("b", Envelope{Op: OpReact, MessageID: m.ID, Reaction: "👍"})
	assert.Equal(t, map[string]string{"b": "👍"}, f.nextMessage(t, "b").Reactions)
	f.nextMessage(t, "a")

	f.dispatch("b", Envelope{Op: OpReact, MessageID: m.ID, Reaction: "❤️"})
	assert.Equal(t, map[string]string{"b": "❤️"}, f.nextMessage(t, "b").Reactions)
	f.nextMessage(t, "a")

	// empty reaction removes
	f.dispatch("b", Envelope{Op: OpReact, MessageID: m.ID})
	assert.Empty(t, f.nextMessage(t, "b").Reactions)
	f.nextMessage(t, "a")
}

func TestListMessagesSendsBatchAndReadReceipts(t *testing.T) {
	f := newHubFixture(t, "a", "b")
	m := f.send(t, "b", "a", "unread for a")

	f.dispatch("a", Envelope{Op: OpListMessages, RecipientID: "b"})

	// b hears the read receipt for its message
	receipt := f.nextMessage(t, "b")
	assert.Equal(t, m.ID, receipt.ID)
	assert.Equal(t, model.MessageStatusRead, receipt.Status)

	batch := f.nextFrame(t, "a")
	require.Equal(t, FrameMessageBatch, batch.Type)
	var msgs []model.Message
	require.NoError(t, json.Unmarshal(batch.Payload, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, model.MessageStatusRead, msgs[0].Status)
}

func TestListMessagesFailureEmitsErrorFrame(t *testing.T) {
	f := newHubFixture(t, "a", "b")
	f.store.convErr = errors.New("db down")

	f.dispatch("a", Envelope{Op: OpListMessages, RecipientID: "b"})

	frame := f.nextFrame(t, "a")
	require.Equal(t, FrameError, frame.Type)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	assert.Equal(t, "Failed to load messages", payload.Error)
	assert.NotEmpty(t, payload.Message)
	f.assertNoFrame(t, "b")
}

func TestRosterBroadcastReachesEveryClient(t *testing.T) {
	f := newHubFixture(t, "a", "b", "c")

	f.dispatch("a", Envelope{Op: OpListUsers})

	for _, id := range []string{"a", "b", "c"} {
		frame := f.nextFrame(t, id)
		require.Equal(t, FrameRoster, frame.Type)
		var roster []model.RosterEntry
		require.NoError(t, json.Unmarshal(frame.Payload, &roster))
		// the roster is the requester's view: everyone but a
		require.Len(t, roster, 2)
		for _, e := range roster {
			assert.NotEqual(t, "a", e.UserID)
		}
	}
}

func TestArchiveNotifiesBothNamingThePeer(t *testing.T) {
	f := newHubFixture(t, "a", "b")
	f.send(t, "a", "b", "hi")

	f.dispatch("a", Envelope{Op: OpArchive, RecipientID: "b"})

	frame := f.nextFrame(t, "a")
	require.Equal(t, FrameArchive, frame.Type)
	var p ArchivePayload
	require.NoError(t, json.Unmarshal(frame.Payload, &p))
	assert.Equal(t, ArchivePayload{PeerID: "b", Archived: true}, p)

	frame = f.nextFrame(t, "b")
	require.NoError(t, json.Unmarshal(frame.Payload, &p))
	assert.Equal(t, ArchivePayload{PeerID: "a", Archived: true}, p)

	// explicit unarchive restores
	unarchived := false
	f.dispatch("a", Envelope{Op: OpArchive, RecipientID: "b", Archived: &unarchived})
	frame = f.nextFrame(t, "a")
	require.NoError(t, json.Unmarshal(frame.Payload, &p))
	assert.False(t, p.Archived)
	f.nextFrame(t, "b")
	for _, m := range f.store.msgs {
		assert.False(t, m.Archived())
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	f := newHubFixture(t, "a")

	f.dispatch("a", Envelope{Op: OpSearch})
	f.assertNoFrame(t, "a")

	f.dispatch("a", Envelope{Op: OpSearch, Query: "anything"})
	frame := f.nextFrame(t, "a")
	assert.Equal(t, FrameMessageBatch, frame.Type)
}

func TestConnectionLimit(t *testing.T) {
	store := newFakeStore()
	dir := &fakeDir{users: map[string]model.User{}}
	tracker := presence.NewMemory()
	svc := chat.NewService(store, dir, tracker)
	hub := NewHub(store, dir, svc, tracker, nil, 1)

	first := NewClient(hub, nil, "a")
	hub.addClient(first)
	second := NewClient(hub, nil, "b")
	hub.addClient(second)

	// the second client was closed instead of admitted
	select {
	case <-second.done:
	default:
		t.Fatal("client above the connection limit must be closed")
	}
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Equal(t, 1, hub.total)
}
