package ws

import (
	"context"
	"sync"
	"time"

	"github.com/DulakshanaMalith/Photography-Learning/internal/chat"
	"github.com/DulakshanaMalith/Photography-Learning/internal/logger"
	"github.com/DulakshanaMalith/Photography-Learning/internal/model"
	"github.com/DulakshanaMalith/Photography-Learning/internal/presence"
)

// Notifier forwards a notification event to the notification collaborator.
// Implementations must be safe to call concurrently; failures stay inside.
type Notifier interface {
	Accept(ctx context.Context, n model.Notification)
}

// Hub owns every live connection, routes inbound envelopes to their handlers
// and fans mutation results out to participant channels. One hub per process;
// envelopes from different connections run concurrently, envelopes on one
// connection arrive in receipt order from its read pump.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]struct{}
	total    int
	maxConns int

	store    chat.MessageStore
	dir      chat.Directory
	svc      *chat.Service
	presence presence.Tracker
	notifier Notifier

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(
	store chat.MessageStore,
	dir chat.Directory,
	svc *chat.Service,
	tracker presence.Tracker,
	notifier Notifier,
	maxConns int,
) *Hub {
	if maxConns <= 0 {
		maxConns = 10000
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		maxConns:   maxConns,
		store:      store,
		dir:        dir,
		svc:        svc,
		presence:   tracker,
		notifier:   notifier,
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) shutdown() {
	// Collect all clients under the lock, no I/O while holding it.
	h.mu.Lock()
	allClients := make([]*Client, 0, h.total)
	for _, clients := range h.clients {
		for c := range clients {
			allClients = append(allClients, c)
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.total = 0
	h.mu.Unlock()

	for _, c := range allClients {
		c.Close()
	}
	for _, c := range allClients {
		c.Wait()
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	if h.total >= h.maxConns {
		h.mu.Unlock()
		logger.Errorf("ws connection limit reached (%d), rejecting user=%s", h.maxConns, c.userID)
		c.Close()
		return
	}
	if _, ok := h.clients[c.userID]; !ok {
		h.clients[c.userID] = make(map[*Client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	h.total++
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.presence.SetOnline(ctx, c.userID); err != nil {
		logger.Errorf("ws set online user=%s: %v", c.userID, err)
	}
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	clients, ok := h.clients[c.userID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, exists := clients[c]; !exists {
		h.mu.Unlock()
		return
	}
	delete(clients, c)
	h.total--
	lastClient := len(clients) == 0
	if lastClient {
		delete(h.clients, c.userID)
	}
	h.mu.Unlock()

	c.Close()

	if lastClient {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.presence.SetOffline(ctx, c.userID, time.Now().UTC()); err != nil {
			logger.Errorf("ws set offline user=%s: %v", c.userID, err)
		}
	}
}

// Dispatch routes one inbound envelope. Unknown or malformed envelopes are
// dropped with a log line and no receipt; only list-messages answers failures
// with an error frame (the frontend renders that one, everything else
// re-requests on its own).
func (h *Hub) Dispatch(ctx context.Context, c *Client, env Envelope) {
	switch env.Op {
	case OpSend:
		h.handleSend(ctx, c, env)
	case OpRead:
		h.handleStatus(ctx, c, env, chat.MarkRead)
	case OpDelivered:
		h.handleStatus(ctx, c, env, chat.MarkDelivered)
	case OpEdit:
		h.handleEdit(ctx, c, env)
	case OpDelete:
		h.handleDelete(ctx, c, env)
	case OpReact:
		h.handleReact(ctx, c, env)
	case OpListUsers:
		h.handleListUsers(ctx, c)
	case OpListMessages:
		h.handleListMessages(ctx, c, env)
	case OpSearch:
		h.handleSearch(ctx, c, env)
	case OpArchive:
		h.handleArchive(ctx, c, env)
	default:
		logger.Errorf("ws unknown op %q from user=%s", env.Op, c.userID)
	}
}

func (h *Hub) handleSend(ctx context.Context, c *Client, env Envelope) {
	defer logger.DeferLogDuration("ws.handleSend", time.Now())()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	m, err := chat.NewMessage(c.userID, env.RecipientID, env.Content, env.Type)
	if err != nil {
		logger.Errorf("ws send user=%s: %v", c.userID, err)
		return
	}
	if err := h.store.Create(ctx, &m); err != nil {
		logger.Errorf("ws save message user=%s: %v", c.userID, err)
		return
	}

	sender, err := h.dir.GetByID(ctx, c.userID)
	if err != nil {
		logger.Errorf("ws get sender user=%s: %v", c.userID, err)
	} else {
		pub := sender.ToPublic()
		m.Sender = &pub
	}

	h.fanoutMessage(m)

	// Notification is a side effect, never part of the send path.
	if h.notifier != nil && sender != nil && m.SenderID != m.RecipientID {
		n := model.Notification{
			UserID:    m.RecipientID,
			Type:      "message",
			Sender:    sender.ToPublic(),
			MessageID: m.ID,
			CreatedAt: time.Now().UTC(),
		}
		go h.notifier.Accept(context.Background(), n)
	}
}

// handleStatus covers read and delivered: recipient-only, forward-only.
func (h *Hub) handleStatus(ctx context.Context, c *Client, env Envelope, transition func(model.Message) model.Message) {
	if env.MessageID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	m, err := h.store.GetByID(ctx, env.MessageID)
	if err != nil {
		logger.Errorf("ws status message=%s: %v", env.MessageID, err)
		return
	}
	if m.RecipientID != c.userID {
		return
	}

	next := transition(*m)
	if err := h.store.Update(ctx, &next); err != nil {
		logger.Errorf("ws update status message=%s: %v", env.MessageID, err)
		return
	}
	h.fanoutMessage(next)
}

func (h *Hub) handleEdit(ctx context.Context, c *Client, env Envelope) {
	defer logger.DeferLogDuration("ws.handleEdit", time.Now())()
	if env.MessageID == "" || env.Content == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	m, err := h.store.GetByID(ctx, env.MessageID)
	if err != nil {
		logger.Errorf("ws edit message=%s: %v", env.MessageID, err)
		return
	}
	next, ok := chat.Edit(*m, c.userID, env.Content, time.Now())
	if !ok {
		return
	}
	if err := h.store.Update(ctx, &next); err != nil {
		logger.Errorf("ws edit update message=%s: %v", env.MessageID, err)
		return
	}
	h.fanoutMessage(next)
}

func (h *Hub) handleDelete(ctx context.Context, c *Client, env Envelope) {
	defer logger.DeferLogDuration("ws.handleDelete", time.Now())()
	if env.MessageID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	m, err := h.store.GetByID(ctx, env.MessageID)
	if err != nil {
		logger.Errorf("ws delete message=%s: %v", env.MessageID, err)
		return
	}
	next, ok := chat.Delete(*m, c.userID)
	if !ok {
		return
	}
	if err := h.store.Update(ctx, &next); err != nil {
		logger.Errorf("ws delete update message=%s: %v", env.MessageID, err)
		return
	}
	h.fanoutMessage(next)
}

func (h *Hub) handleReact(ctx context.Context, c *Client, env Envelope) {
	if env.MessageID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	m, err := h.store.GetByID(ctx, env.MessageID)
	if err != nil {
		logger.Errorf("ws react message=%s: %v", env.MessageID, err)
		return
	}

	var next model.Message
	if env.Reaction == "" {
		next = chat.RemoveReaction(*m, c.userID)
	} else {
		next = chat.React(*m, c.userID, env.Reaction)
	}
	if err := h.store.Update(ctx, &next); err != nil {
		logger.Errorf("ws react update message=%s: %v", env.MessageID, err)
		return
	}
	h.fanoutMessage(next)
}

func (h *Hub) handleListUsers(ctx context.Context, c *Client) {
	defer logger.DeferLogDuration("ws.handleListUsers", time.Now())()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roster, err := h.svc.Roster(ctx, c.userID)
	if err != nil {
		logger.Errorf("ws roster user=%s: %v", c.userID, err)
		return
	}
	// The roster goes to the shared topic, not just the requester: every
	// connected client refreshes its user list off the same broadcast.
	h.broadcast(Frame{Type: FrameRoster, Payload: roster})
}

func (h *Hub) handleListMessages(ctx context.Context, c *Client, env Envelope) {
	defer logger.DeferLogDuration("ws.handleListMessages", time.Now())()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	msgs, read, err := h.svc.Messages(ctx, c.userID, env.RecipientID, env.Page, env.Size)
	if err != nil {
		logger.Errorf("ws list messages user=%s peer=%s: %v", c.userID, env.RecipientID, err)
		h.sendToUser(c.userID, Frame{Type: FrameError, Payload: ErrorPayload{
			Error:   "Failed to load messages",
			Message: err.Error(),
		}})
		return
	}

	// Read-on-fetch: each message that flipped to read is announced to its
	// sender so the other side sees the read receipts.
	for _, m := range read {
		h.sendToUser(m.SenderID, Frame{Type: FrameMessage, Payload: m})
	}

	h.sendToUser(c.userID, Frame{Type: FrameMessageBatch, Payload: msgs})
}

func (h *Hub) handleSearch(ctx context.Context, c *Client, env Envelope) {
	if env.Query == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	msgs, err := h.svc.Search(ctx, c.userID, env.Query)
	if err != nil {
		logger.Errorf("ws search user=%s: %v", c.userID, err)
		return
	}
	h.sendToUser(c.userID, Frame{Type: FrameMessageBatch, Payload: msgs})
}

func (h *Hub) handleArchive(ctx context.Context, c *Client, env Envelope) {
	if env.RecipientID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	archived := true
	if env.Archived != nil {
		archived = *env.Archived
	}
	if err := h.svc.SetArchived(ctx, c.userID, env.RecipientID, archived); err != nil {
		logger.Errorf("ws archive user=%s peer=%s: %v", c.userID, env.RecipientID, err)
		return
	}

	h.sendToUser(c.userID, Frame{Type: FrameArchive, Payload: ArchivePayload{PeerID: env.RecipientID, Archived: archived}})
	h.sendToUser(env.RecipientID, Frame{Type: FrameArchive, Payload: ArchivePayload{PeerID: c.userID, Archived: archived}})
}

// fanoutMessage pushes the canonical snapshot to both participants' private
// channels, whoever the actor was. At-least-once within the process; clients
// treat repeated deliveries of the same state as idempotent.
func (h *Hub) fanoutMessage(m model.Message) {
	out := Frame{Type: FrameMessage, Payload: m}
	h.sendToUser(m.RecipientID, out)
	if m.SenderID != m.RecipientID {
		h.sendToUser(m.SenderID, out)
	}
}

// broadcast pushes a frame to every connected client (the shared roster topic).
func (h *Hub) broadcast(f Frame) {
	h.mu.RLock()
	targets := make([]*Client, 0, h.total)
	for _, clients := range h.clients {
		for c := range clients {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(f)
	}
}

// sendToUser pushes a frame to every connection the user holds.
func (h *Hub) sendToUser(userID string, f Frame) {
	h.mu.RLock()
	clients, ok := h.clients[userID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	targets := make([]*Client, 0, len(clients))
	for c := range clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(f)
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
