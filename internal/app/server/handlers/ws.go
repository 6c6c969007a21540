package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/SbuKhoza/handy-rentals-app/internal/app/server/ws"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/services"
	"github.com/SbuKhoza/handy-rentals-app/pkg/middleware"
)

// WSHandler owns one shell session per socket: it streams conversation,
// message, and unread snapshots down and applies open/send/contact
// commands coming up.
type WSHandler struct {
	hub       contracts.Registry
	directory *services.ConversationDirectory
	channel   *services.MessageChannel
	tracker   *services.ReadStateTracker
}

func NewWSHandler(
	hub contracts.Registry,
	directory *services.ConversationDirectory,
	channel *services.MessageChannel,
	tracker *services.ReadStateTracker,
) *WSHandler {
	return &WSHandler{
		hub:       hub,
		directory: directory,
		channel:   channel,
		tracker:   tracker,
	}
}

func (s *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log, _ := r.Context().Value(middleware.LoggerKey).(*slog.Logger)
	if log == nil {
		log = slog.Default()
	}
	who, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		log.ErrorContext(r.Context(), "ws handler - unauthorised missing identity")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("user.id", who.ID))

	// The session outlives the HTTP request body but not the socket.
	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	defer cancel()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // tighten later
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(ctx, "ws handler - upgrade failed", "user_id", who.ID, "err", err)
		return
	}
	socket := ws.NewWebSocket(ctx, conn)
	client := ws.NewClient(ctx, socket, who.ID)
	s.hub.Register(client)
	defer s.hub.Unregister(client)
	defer client.Close()

	sess := newShellSession(ctx, log, who, client, s.directory, s.channel, s.tracker)
	defer sess.close()

	if err := sess.start(); err != nil {
		log.ErrorContext(ctx, "ws handler - session start failed", "user_id", who.ID, "err", err)
		return
	}

	// Contact-owner entry point: arriving from a listing page carries
	// the counterpart in the URL.
	if ownerID := r.URL.Query().Get("owner"); ownerID != "" {
		sess.contact(ownerID, r.URL.Query().Get("listing"))
	}

	log.InfoContext(ctx, "ws handler - session connected", "user_id", who.ID)
	socket.ReadLoop(func(data []byte) {
		sess.handleFrame(data)
	})
	log.InfoContext(ctx, "ws handler - session disconnected", "user_id", who.ID)
}

// shellSession is the server side of the presentation shell contract.
type shellSession struct {
	ctx       context.Context
	log       *slog.Logger
	who       domain.Identity
	client    contracts.Client
	directory *services.ConversationDirectory
	channel   *services.MessageChannel
	tracker   *services.ReadStateTracker
	thread    *services.ThreadSession
}

func newShellSession(
	ctx context.Context,
	log *slog.Logger,
	who domain.Identity,
	client contracts.Client,
	directory *services.ConversationDirectory,
	channel *services.MessageChannel,
	tracker *services.ReadStateTracker,
) *shellSession {
	return &shellSession{
		ctx:       ctx,
		log:       log,
		who:       who,
		client:    client,
		directory: directory,
		channel:   channel,
		tracker:   tracker,
		thread:    services.NewThreadSession(log, who, channel),
	}
}

// start arms the conversation-list and unread-count streams.
func (s *shellSession) start() error {
	convs, err := s.directory.Subscribe(s.ctx, s.who.ID)
	if err != nil {
		return err
	}
	unread, err := s.tracker.Subscribe(s.ctx, s.who.ID)
	if err != nil {
		return err
	}
	go func() {
		for snap := range convs {
			frame := domain.ConversationListFrame{Type: domain.TypeConversations}
			if snap.Err != nil {
				frame.Error = snap.Err.Error()
			} else {
				frame.Conversations = s.views(snap.Conversations)
			}
			s.push(frame)
		}
	}()
	go func() {
		for snap := range unread {
			frame := domain.UnreadFrame{Type: domain.TypeUnread, Count: snap.Count}
			if snap.Err != nil {
				frame.Error = snap.Err.Error()
			}
			s.push(frame)
		}
	}()
	return nil
}

func (s *shellSession) handleFrame(data []byte) {
	var in domain.ClientFrame
	if err := json.Unmarshal(data, &in); err != nil {
		s.log.Error("shell - handle frame - wrong format", "user_id", s.who.ID)
		s.pushError("bad_frame", "malformed frame")
		return
	}
	switch in.Type {
	case domain.TypeOpen:
		s.open(in.ConversationID)
	case domain.TypeCloseThread:
		s.thread.CloseThread()
	case domain.TypeSend:
		s.send(in.ConversationID, in.Text)
	case domain.TypeContact:
		s.contact(in.OwnerID, in.ListingID)
	default:
		s.pushError("bad_frame", "unknown frame type "+in.Type)
	}
}

func (s *shellSession) open(convID string) {
	err := s.thread.Open(s.ctx, convID, func(snap contracts.MessageSnapshot) {
		frame := domain.MessageListFrame{Type: domain.TypeMessages, ConversationID: convID}
		if snap.Err != nil {
			frame.Error = snap.Err.Error()
		} else {
			frame.Messages = messageViews(snap.Messages)
		}
		s.push(frame)
	})
	if err != nil {
		s.log.ErrorContext(s.ctx, "shell - open - failed", "conv_id", convID, "user_id", s.who.ID, "err", err)
		s.pushError("open_failed", err.Error())
	}
}

func (s *shellSession) send(convID, text string) {
	if convID == "" {
		convID = s.thread.ActiveID()
	}
	if _, err := s.channel.Send(s.ctx, s.who, convID, text); err != nil {
		s.log.WarnContext(s.ctx, "shell - send - rejected", "conv_id", convID, "user_id", s.who.ID, "err", err)
		s.pushError("send_failed", err.Error())
	}
}

func (s *shellSession) contact(ownerID, listingID string) {
	conv, err := s.directory.GetOrCreate(s.ctx, s.who, ownerID, listingID)
	if err != nil {
		s.log.WarnContext(s.ctx, "shell - contact - failed", "owner_id", ownerID, "listing_id", listingID, "err", err)
		s.pushError("contact_failed", err.Error())
		return
	}
	s.push(domain.ThreadFrame{Type: domain.TypeThread, Conversation: s.view(conv)})
	s.open(conv.ID)
}

func (s *shellSession) views(convs []domain.Conversation) []domain.ConversationView {
	out := make([]domain.ConversationView, 0, len(convs))
	for i := range convs {
		out = append(out, s.view(&convs[i]))
	}
	return out
}

func (s *shellSession) view(c *domain.Conversation) domain.ConversationView {
	other := c.OtherParticipant(s.who.ID)
	return domain.ConversationView{
		ID:                 c.ID,
		Participants:       c.Participants,
		ParticipantNames:   c.ParticipantNames,
		ParticipantAvatars: c.ParticipantAvatars,
		ListingID:          c.ListingID,
		ListingTitle:       c.ListingTitle,
		LastMessage:        c.LastMessage,
		LastMessageAt:      c.LastMessageAt,
		CreatedAt:          c.CreatedAt,
		CounterpartID:      other,
		CounterpartName:    s.directory.CounterpartName(s.ctx, c, s.who.ID),
	}
}

func messageViews(msgs []domain.Message) []domain.MessageView {
	out := make([]domain.MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, domain.MessageView{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			SenderID:       m.SenderID,
			SenderName:     m.SenderName,
			SenderAvatar:   m.SenderAvatar,
			ReceiverID:     m.ReceiverID,
			Text:           m.Text,
			CreatedAt:      m.CreatedAt,
			Read:           m.Read,
		})
	}
	return out
}

func (s *shellSession) push(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		s.log.Error("shell - push - marshal failed", "err", err)
		return
	}
	_ = s.client.Send(s.ctx, data)
}

func (s *shellSession) pushError(code, msg string) {
	s.push(domain.ErrorFrame{Type: domain.TypeError, Code: code, Message: msg})
}

func (s *shellSession) close() {
	s.thread.Close()
}
