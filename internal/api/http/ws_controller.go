package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/homechat/internal/auth"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/immxrtalbeast/homechat/internal/registry"
	"github.com/immxrtalbeast/homechat/internal/service"
	"github.com/immxrtalbeast/homechat/lib/logger/sl"
)

// WSController owns the persistent connection: it authenticates once at
// connect time, multiplexes the room and document channels over the same
// socket, and tears the session down atomically on disconnect.
type WSController struct {
	guard     *auth.Guard
	chat      service.ChatInteractor
	documents service.DocumentInteractor
	presence  *service.PresenceTracker
	registry  *registry.Registry
	log       *slog.Logger
	upgrader  websocket.Upgrader
}

func NewWSController(guard *auth.Guard, chat service.ChatInteractor, documents service.DocumentInteractor, presence *service.PresenceTracker, reg *registry.Registry, log *slog.Logger) *WSController {
	if log == nil {
		log = slog.Default()
	}
	return &WSController{
		guard:     guard,
		chat:      chat,
		documents: documents,
		presence:  presence,
		registry:  reg,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Connect handles the websocket endpoint. The credential must arrive at
// connect time; a bad one is refused before the session is admitted.
func (c *WSController) Connect(ctx *gin.Context) {
	token := ctx.Query("token")
	if token == "" {
		header := ctx.GetHeader("Authorization")
		token, _ = strings.CutPrefix(header, "Bearer ")
	}

	user, err := c.guard.Authenticate(ctx.Request.Context(), token)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctx.String(http.StatusInternalServerError, "failed to upgrade connection")
		return
	}

	sess := domain.NewSession(user.ID, user.DisplayName)
	sess.Socket = conn

	// The connection outlives the upgrade request, so session work runs
	// on a background context.
	bg := context.Background()

	first := c.registry.Register(sess)
	c.presence.SessionConnected(bg, sess, first)

	if err := c.chat.AttachSession(bg, sess); err != nil {
		c.log.Error("failed to attach session", sl.Err(err), slog.String("session", sess.ID))
		c.teardown(bg, sess)
		conn.Close()
		return
	}
	c.documents.AttachSession(sess)

	go forwardSessionEvents(sess)

	c.log.Info("session connected",
		slog.String("session", sess.ID),
		slog.String("user_id", user.ID.String()),
	)

	for {
		var env domain.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.teardown(bg, sess)
			conn.Close()
			return
		}
		sess.Touch()

		if err := c.dispatch(bg, sess, env); err != nil {
			c.sendError(sess, err)
		}
	}
}

// teardown atomically removes the session from the registry and every
// broadcast group it joined, emitting collaborator-left and presence
// events as the protocol requires.
func (c *WSController) teardown(ctx context.Context, sess *domain.Session) {
	c.chat.DetachSession(sess)
	c.documents.DetachSession(sess)
	last := c.registry.Unregister(sess)
	c.presence.SessionDisconnected(ctx, sess, last)
	sess.Close()

	c.log.Info("session disconnected", slog.String("session", sess.ID))
}

func (c *WSController) dispatch(ctx context.Context, sess *domain.Session, env domain.Envelope) error {
	switch env.Type {
	case domain.EventJoinRoom:
		var p domain.JoinRoomPayload
		roomID, err := decodeRoomPayload(env.Data, &p, func() string { return p.RoomID })
		if err != nil {
			return err
		}
		return c.chat.JoinRoom(ctx, sess, roomID)

	case domain.EventLeaveRoom:
		var p domain.LeaveRoomPayload
		roomID, err := decodeRoomPayload(env.Data, &p, func() string { return p.RoomID })
		if err != nil {
			return err
		}
		return c.chat.LeaveRoom(sess, roomID)

	case domain.EventSendMessage:
		var p domain.SendMessagePayload
		if err := decodePayload(env.Data, &p); err != nil {
			return err
		}
		roomID, err := uuid.Parse(p.RoomID)
		if err != nil {
			return errMalformedPayload
		}
		req := service.SendMessageRequest{
			RoomID:        roomID,
			Content:       p.Content,
			CorrelationID: p.CorrelationID,
		}
		if p.ReplyTo != "" {
			replyTo, err := uuid.Parse(p.ReplyTo)
			if err != nil {
				return errMalformedPayload
			}
			req.ReplyTo = &replyTo
		}
		return c.chat.SendMessage(ctx, sess, req)

	case domain.EventMarkRead:
		var p domain.MarkReadPayload
		if err := decodePayload(env.Data, &p); err != nil {
			return err
		}
		roomID, err := uuid.Parse(p.RoomID)
		if err != nil {
			return errMalformedPayload
		}
		messageID, err := uuid.Parse(p.MessageID)
		if err != nil {
			return errMalformedPayload
		}
		return c.chat.MarkRead(ctx, sess, roomID, messageID)

	case domain.EventTypingStart, domain.EventTypingStop:
		var p domain.TypingPayload
		roomID, err := decodeRoomPayload(env.Data, &p, func() string { return p.RoomID })
		if err != nil {
			return err
		}
		return c.chat.Typing(sess, roomID, env.Type == domain.EventTypingStart)

	case domain.EventDocumentJoin:
		var p domain.DocumentJoinPayload
		documentID, err := decodeRoomPayload(env.Data, &p, func() string { return p.DocumentID })
		if err != nil {
			return err
		}
		return c.documents.Join(ctx, sess, documentID)

	case domain.EventDocumentLeave:
		var p domain.DocumentLeavePayload
		documentID, err := decodeRoomPayload(env.Data, &p, func() string { return p.DocumentID })
		if err != nil {
			return err
		}
		return c.documents.Leave(sess, documentID)

	case domain.EventDocumentUpdate:
		var p domain.DocumentUpdatePayload
		if err := decodePayload(env.Data, &p); err != nil {
			return err
		}
		documentID, err := uuid.Parse(p.DocumentID)
		if err != nil {
			return errMalformedPayload
		}
		return c.documents.RelayUpdate(sess, documentID, p.Frame)

	case domain.EventDocumentAwareness:
		var p domain.DocumentAwarenessPayload
		if err := decodePayload(env.Data, &p); err != nil {
			return err
		}
		documentID, err := uuid.Parse(p.DocumentID)
		if err != nil {
			return errMalformedPayload
		}
		return c.documents.RelayAwareness(sess, documentID, p.State)

	case domain.EventDocumentCreate:
		var p domain.DocumentCreatePayload
		if err := decodePayload(env.Data, &p); err != nil {
			return err
		}
		return c.documents.Create(ctx, sess, p.Title, p.IsPublic)

	case domain.EventDocumentDelete:
		var p domain.DocumentDeletePayload
		documentID, err := decodeRoomPayload(env.Data, &p, func() string { return p.DocumentID })
		if err != nil {
			return err
		}
		return c.documents.Delete(ctx, sess, documentID)

	case domain.EventDocumentList:
		return c.documents.List(ctx, sess)

	default:
		return errUnknownEvent
	}
}

var (
	errMalformedPayload = errors.New("malformed event payload")
	errUnknownEvent     = errors.New("unknown event type")
)

// decodePayload unmarshals and shape-validates a client payload before
// any dispatch or store access.
func decodePayload(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return errMalformedPayload
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errMalformedPayload
	}
	if err := validate.Struct(target); err != nil {
		return errMalformedPayload
	}
	return nil
}

// decodeRoomPayload handles the common single-id payload shape.
func decodeRoomPayload(data json.RawMessage, target any, id func() string) (uuid.UUID, error) {
	if err := decodePayload(data, target); err != nil {
		return uuid.Nil, err
	}
	parsed, err := uuid.Parse(id())
	if err != nil {
		return uuid.Nil, errMalformedPayload
	}
	return parsed, nil
}

// sendError reports an operation failure to the requesting session only;
// failures never terminate the connection or leak resource existence.
func (c *WSController) sendError(sess *domain.Session, err error) {
	message := err.Error()
	if errors.Is(err, auth.ErrUnauthorized) || errors.Is(err, auth.ErrNotFound) {
		message = "not found or not allowed"
	}

	event, encErr := domain.NewEvent(domain.EventError, domain.ErrorPayload{Message: message})
	if encErr != nil {
		return
	}
	sess.EnqueueEvent(event)
}

func forwardSessionEvents(sess *domain.Session) {
	for event := range sess.Events {
		if sess.Socket == nil {
			return
		}
		if err := sess.Socket.WriteJSON(event); err != nil {
			return
		}
	}
}
