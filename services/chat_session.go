// Package services exposes the public contract of the chat session core.
// The ChatSession façade wires the volatile runtime state to the external
// transport and storage delegates and owns the init/teardown lifecycle.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"market-chat/contract"
	"market-chat/domain"
	errs "market-chat/errors"
	"market-chat/internal"
	"market-chat/runtime"
	"market-chat/runtime/workers"
)

const (
	workerRestartInterval = 200 * time.Millisecond
	searchFetchLimit      = 1000
	notifyPreviewRunes    = 80
)

// ChatSession is the buyer-seller chat façade of the marketplace client.
//
// It exclusively owns the four volatile maps (rooms, message cache,
// typing indicators, subscriber list) for its lifetime. A single mutex
// guards the room registry, the message cache, and the unread counters
// as one unit, so a caller-initiated send and an inbound realtime event
// for the same room cannot interleave between those structures.
type ChatSession struct {
	mu  sync.Mutex
	log *slog.Logger
	cfg internal.Config

	transport contract.Transport
	storage   contract.Storage
	notifier  contract.Notifier

	rooms      *runtime.RoomRegistry
	cache      *runtime.MessageCache
	typing     *runtime.TypingTracker
	dispatcher *runtime.Dispatcher

	supervisor contract.ISupervisor
	cancel     context.CancelFunc
	connected  bool
}

func NewChatSession(
	log *slog.Logger,
	cfg internal.Config,
	transport contract.Transport,
	storage contract.Storage,
	notifier contract.Notifier,
) *ChatSession {
	return &ChatSession{
		log:        log,
		cfg:        cfg,
		transport:  transport,
		storage:    storage,
		notifier:   notifier,
		rooms:      runtime.NewRoomRegistry(),
		cache:      runtime.NewMessageCache(cfg.MaxCachedMessages),
		typing:     runtime.NewTypingTracker(cfg.TypingTTL),
		dispatcher: runtime.NewDispatcher(log, cfg.MaxSubscribers, cfg.DelegateTimeout),
	}
}

// Init connects both delegates concurrently and subscribes the update
// router to the inbound event stream. Either delegate failing to come up
// is fatal for the whole session. Init on an already connected session
// is rejected; the running workers and delegates stay untouched.
func (s *ChatSession) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return fmt.Errorf("%w: session already initialized", errs.ErrInit)
	}
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, s.cfg.DelegateTimeout)
		defer cancel()
		return s.transport.Connect(cctx)
	})
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, s.cfg.DelegateTimeout)
		defer cancel()
		return s.storage.Connect(cctx)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInit, err)
	}

	sweepInterval := s.cfg.TypingTTL / 2
	if sweepInterval <= 0 {
		sweepInterval = time.Second
	}

	sup := workers.NewSupervisor(s.log, workerRestartInterval)
	sup.Add(
		workers.NewUpdateRouter(s.log, s.transport.Events(), s),
		workers.NewTypingSweeper(s.log, s.typing, sweepInterval),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	s.supervisor = sup
	s.cancel = cancel
	s.connected = true
	s.mu.Unlock()

	go sup.Run(runCtx)

	s.log.Info("Chat session initialized",
		"network", s.cfg.NetworkID, "user", s.cfg.LocalUserID)
	return nil
}

// CreateOrGetRoom derives the room id from the listing and both
// participants. Repeated calls with the same logical inputs return the
// existing room; a room_created notification fires only on first creation.
func (s *ChatSession) CreateOrGetRoom(ctx context.Context, listingID, sellerID, buyerID, title string) *domain.ChatRoom {
	now := time.Now().UTC()

	s.mu.Lock()
	room, created := s.rooms.CreateOrGet(listingID, sellerID, buyerID, title, now)
	snapshot := *room
	s.mu.Unlock()

	if created {
		s.dispatcher.Dispatch(ctx, domain.NewNotification(
			domain.NotificationRoomCreated, snapshot.ID, s.cfg.LocalUserID, title, now))
	}
	return &snapshot
}

// ListRooms returns snapshots of all rooms, most recently active first.
// Callers never receive pointers into the authoritative registry.
func (s *ChatSession) ListRooms() []*domain.ChatRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.rooms.List(), func(r *domain.ChatRoom, _ int) *domain.ChatRoom {
		snapshot := *r
		return &snapshot
	})
}

// SendMessage validates content, resolves the counterpart of the local
// user in the room, and delegates the send to the transport. The cache
// and room metadata are only touched after the transport acknowledged;
// failed sends leave no trace.
func (s *ChatSession) SendMessage(ctx context.Context, roomID, content string, msgType domain.MessageType) (domain.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return domain.ChatMessage{}, errs.ErrContentRequired
	}
	if utf8.RuneCountInString(content) > s.cfg.MaxMessageLength {
		return domain.ChatMessage{}, fmt.Errorf("%w: limit is %d characters",
			errs.ErrMessageTooLong, s.cfg.MaxMessageLength)
	}

	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return domain.ChatMessage{}, errs.ErrNotConnected
	}
	room, ok := s.rooms.Get(roomID)
	if !ok {
		s.mu.Unlock()
		return domain.ChatMessage{}, fmt.Errorf("%w: %s", errs.ErrRoomNotFound, roomID)
	}
	recipient, ok := room.Other(s.cfg.LocalUserID)
	listingID := room.ListingID
	s.mu.Unlock()
	if !ok {
		return domain.ChatMessage{}, fmt.Errorf("%w: local user is not a participant of %s",
			errs.ErrRecipientNotFound, roomID)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.DelegateTimeout)
	defer cancel()
	msg, err := s.transport.Send(sendCtx, recipient, content, listingID, msgType)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	if msg.Attachment == nil && msg.Type != domain.MessageTypeText {
		msg.Attachment = domain.ParseAttachment(msg.Content)
	}

	s.mu.Lock()
	if room, ok := s.rooms.Get(roomID); ok {
		s.cache.Append(roomID, msg)
		room.LastMessage = &msg
		room.UpdatedAt = msg.CreatedAt
	}
	s.mu.Unlock()

	s.dispatcher.Dispatch(ctx, domain.NewNotification(
		domain.NotificationMessage, roomID, msg.Sender, msg.Content, msg.CreatedAt))
	return msg, nil
}

// GetMessages reads a page of a room's history. Offset 0 is served from
// the cached head slice; any deeper page round-trips to the transport and
// the fetched page replaces the cached head. Only the first page is ever
// cache-authoritative.
func (s *ChatSession) GetMessages(ctx context.Context, roomID string, limit, offset int) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	if _, ok := s.rooms.Get(roomID); !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", errs.ErrRoomNotFound, roomID)
	}
	if offset == 0 {
		defer s.mu.Unlock()
		return s.cache.Head(roomID, limit), nil
	}
	connected := s.connected
	s.mu.Unlock()

	if !connected {
		return nil, errs.ErrNotConnected
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.DelegateTimeout)
	defer cancel()
	msgs, err := s.transport.Fetch(fetchCtx, roomID, limit, offset)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache.ReplaceHead(roomID, msgs)
	s.mu.Unlock()
	return msgs, nil
}

// DeleteMessage removes a message from the local cache only. The
// transport keeps the message; deletion does not propagate.
func (s *ChatSession) DeleteMessage(roomID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms.Get(roomID); !ok {
		return fmt.Errorf("%w: %s", errs.ErrRoomNotFound, roomID)
	}
	s.cache.Delete(roomID, messageID)
	return nil
}

// MarkAsRead resets the unread counter of a room to zero.
func (s *ChatSession) MarkAsRead(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms.Get(roomID)
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrRoomNotFound, roomID)
	}
	room.UnreadCount = 0
	return nil
}

func (s *ChatSession) StartTyping(roomID string) {
	s.typing.Start(roomID, s.cfg.LocalUserID, time.Now().UTC())
}

func (s *ChatSession) StopTyping(roomID string) {
	s.typing.Stop(roomID, s.cfg.LocalUserID)
}

// GetTypingIndicators returns who is composing in a room, never
// including the local user's own indicator.
func (s *ChatSession) GetTypingIndicators(roomID string) []domain.TypingIndicator {
	return s.typing.Active(roomID, s.cfg.LocalUserID, time.Now().UTC())
}

func (s *ChatSession) Subscribe(sink contract.EventSink) error {
	return s.dispatcher.Subscribe(sink)
}

func (s *ChatSession) Unsubscribe(sink contract.EventSink) {
	s.dispatcher.Unsubscribe(sink)
}

// SendImageMessage uploads the raw bytes to the storage delegate and
// sends an image message embedding the returned content hash. A storage
// failure aborts before any send attempt.
func (s *ChatSession) SendImageMessage(ctx context.Context, roomID string, data []byte, filename string) (domain.ChatMessage, error) {
	return s.sendAttachment(ctx, roomID, data, filename, domain.MessageTypeImage)
}

// SendFileMessage is SendImageMessage for arbitrary files; the wire form
// additionally carries the original filename.
func (s *ChatSession) SendFileMessage(ctx context.Context, roomID string, data []byte, filename string) (domain.ChatMessage, error) {
	return s.sendAttachment(ctx, roomID, data, filename, domain.MessageTypeFile)
}

func (s *ChatSession) sendAttachment(ctx context.Context, roomID string, data []byte, filename string, msgType domain.MessageType) (domain.ChatMessage, error) {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	if !connected {
		return domain.ChatMessage{}, errs.ErrNotConnected
	}

	contentType := mimetype.Detect(data).String()
	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.DelegateTimeout)
	defer cancel()
	hash, err := s.storage.Store(storeCtx, data, filename, contentType, s.cfg.LocalUserID)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("%w: %w", errs.ErrUpload, err)
	}

	attachment := domain.Attachment{Hash: hash, Filename: filename, Size: int64(len(data))}
	content := domain.EncodeAttachment(msgType, attachment)

	msg, err := s.SendMessage(ctx, roomID, content, msgType)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	msg.Attachment = &attachment
	return msg, nil
}

// SearchMessages scans one room, or every known room when roomID is
// empty, through the normal read path and returns the case-insensitive
// substring matches sorted by timestamp descending.
func (s *ChatSession) SearchMessages(ctx context.Context, query, roomID string) ([]domain.ChatMessage, error) {
	var roomIDs []string
	s.mu.Lock()
	if roomID != "" {
		if _, ok := s.rooms.Get(roomID); !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", errs.ErrRoomNotFound, roomID)
		}
		roomIDs = []string{roomID}
	} else {
		roomIDs = lo.Map(s.rooms.List(), func(r *domain.ChatRoom, _ int) string { return r.ID })
	}
	s.mu.Unlock()

	needle := strings.ToLower(query)
	var matches []domain.ChatMessage
	for _, id := range roomIDs {
		msgs, err := s.GetMessages(ctx, id, searchFetchLimit, 0)
		if err != nil {
			return nil, err
		}
		matches = append(matches, lo.Filter(msgs, func(m domain.ChatMessage, _ int) bool {
			return strings.Contains(strings.ToLower(m.Content), needle)
		})...)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// HandleInbound folds one realtime chat_message event into the session
// state. Events that match no known room are dropped; rooms are only
// created explicitly, never from inbound traffic. A message id already
// in the cache is dropped too: the realtime stream echoes the session's
// own publishes back, and those were cached on send.
func (s *ChatSession) HandleInbound(ctx context.Context, ev contract.InboundEvent) {
	msg := ev.Message
	if msg.Attachment == nil && msg.Type != domain.MessageTypeText {
		msg.Attachment = domain.ParseAttachment(msg.Content)
	}

	s.mu.Lock()
	room, ok := s.rooms.FindByParticipants(msg.Sender, msg.Recipient, msg.ListingID)
	if !ok {
		s.mu.Unlock()
		s.log.Debug("Dropping inbound message for unknown room",
			"sender", msg.Sender, "recipient", msg.Recipient)
		return
	}
	if s.cache.Contains(room.ID, msg.ID) {
		s.mu.Unlock()
		s.log.Debug("Dropping already cached inbound message", "id", msg.ID)
		return
	}
	s.cache.Append(room.ID, msg)
	room.LastMessage = &msg
	room.UpdatedAt = msg.CreatedAt
	remote := msg.Sender != s.cfg.LocalUserID
	if remote {
		room.UnreadCount++
	}
	s.mu.Unlock()

	if remote && s.cfg.EnableNotifications && s.notifier != nil {
		s.notifier.Notify(fmt.Sprintf("New message from %s: %s", msg.Sender, preview(msg.Content)))
	}
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= notifyPreviewRunes {
		return content
	}
	return string(runes[:notifyPreviewRunes]) + "..."
}

// Disconnect tears the session down: all four volatile maps are cleared
// synchronously before returning, the workers stop, and both delegates
// are disconnected. Nothing survives; durability is the delegates' job.
func (s *ChatSession) Disconnect() error {
	s.mu.Lock()
	wasConnected := s.connected
	s.connected = false
	s.rooms.Clear()
	s.cache.Clear()
	sup := s.supervisor
	cancel := s.cancel
	s.supervisor = nil
	s.cancel = nil
	s.mu.Unlock()

	s.typing.Clear()
	s.dispatcher.Clear()

	if sup != nil {
		sup.Stop()
	}
	if cancel != nil {
		cancel()
	}
	if !wasConnected {
		return nil
	}

	if err := s.transport.Close(); err != nil {
		return err
	}
	if err := s.storage.Close(); err != nil {
		return err
	}
	s.log.Info("Chat session disconnected")
	return nil
}
