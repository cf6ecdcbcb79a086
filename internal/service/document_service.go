package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/auth"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/immxrtalbeast/homechat/internal/registry"
	"github.com/immxrtalbeast/homechat/internal/repository"
	"github.com/immxrtalbeast/homechat/lib/logger/sl"
)

var ErrNotInDocument = errors.New("session has not joined the document")

// collabMember records a group member together with the write access it
// held at join time. Update frames trust this snapshot until the session
// leaves or disconnects; permissions are not re-checked per frame.
type collabMember struct {
	sess     *domain.Session
	canWrite bool
}

// DocumentService relays opaque update and awareness frames between the
// sessions collaborating on a document. Frames are never interpreted,
// validated structurally or persisted; the conflict-resolution library
// lives in the clients.
type DocumentService struct {
	documents repository.DocumentRepository
	guard     *auth.Guard
	registry  *registry.Registry
	log       *slog.Logger

	mu     sync.RWMutex
	groups map[uuid.UUID]map[string]collabMember
}

func NewDocumentService(documents repository.DocumentRepository, guard *auth.Guard, reg *registry.Registry, log *slog.Logger) *DocumentService {
	if log == nil {
		log = slog.Default()
	}
	return &DocumentService{
		documents: documents,
		guard:     guard,
		registry:  reg,
		log:       log,
		groups:    make(map[uuid.UUID]map[string]collabMember),
	}
}

// AttachSession is a no-op today: document groups are joined explicitly,
// unlike chat rooms. Kept so the transport tears both channels down the
// same way.
func (s *DocumentService) AttachSession(sess *domain.Session) {}

// DetachSession removes the session from every document group it joined
// and notifies the remaining collaborators.
func (s *DocumentService) DetachSession(sess *domain.Session) {
	for _, documentID := range sess.Documents() {
		s.removeMember(sess, documentID, true)
	}
}

// Join admits the session with read-or-above access, sends it the
// current snapshot and announces the collaborator to the group. Write
// capability is captured here and trusted for the lifetime of the
// membership.
func (s *DocumentService) Join(ctx context.Context, sess *domain.Session, documentID uuid.UUID) error {
	const op = "service.document.join"
	log := s.log.With(
		slog.String("op", op),
		slog.String("document_id", documentID.String()),
		slog.String("session", sess.ID),
	)

	if err := s.guard.AuthorizeDocument(ctx, sess.UserID, documentID, domain.DocumentPermissionRead); err != nil {
		return err
	}

	canWrite := s.guard.AuthorizeDocument(ctx, sess.UserID, documentID, domain.DocumentPermissionWrite) == nil

	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return auth.ErrNotFound
		}
		return err
	}
	collaborators, err := s.documents.Collaborators(ctx, documentID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	group, ok := s.groups[documentID]
	if !ok {
		group = make(map[string]collabMember)
		s.groups[documentID] = group
	}
	group[sess.ID] = collabMember{sess: sess, canWrite: canWrite}
	s.mu.Unlock()
	sess.JoinDocument(documentID)

	s.emit(sess, domain.EventDocumentJoined, domain.DocumentJoinedPayload{
		DocumentID:    documentID,
		Document:      doc,
		Collaborators: collaborators,
	})
	s.broadcast(documentID, domain.EventDocumentCollaboratorJoined, domain.DocumentCollaboratorJoinedPayload{
		DocumentID: documentID,
		UserID:     sess.UserID,
		Name:       sess.DisplayName,
	}, sess.ID)

	log.Info("collaborator joined", slog.Bool("write", canWrite))
	return nil
}

// Leave is always permitted.
func (s *DocumentService) Leave(sess *domain.Session, documentID uuid.UUID) error {
	s.removeMember(sess, documentID, true)
	return nil
}

// RelayUpdate re-broadcasts the frame verbatim to every other session in
// the group. Only sessions that joined with write access may emit.
func (s *DocumentService) RelayUpdate(sess *domain.Session, documentID uuid.UUID, frame []byte) error {
	s.mu.RLock()
	member, ok := s.groups[documentID][sess.ID]
	s.mu.RUnlock()
	if !ok {
		return ErrNotInDocument
	}
	if !member.canWrite {
		return auth.ErrUnauthorized
	}

	s.broadcast(documentID, domain.EventDocumentUpdate, domain.DocumentFramePayload{
		DocumentID: documentID,
		Frame:      frame,
	}, sess.ID)
	return nil
}

// RelayAwareness relays ephemeral per-user state (cursor, color) under
// the same verbatim contract; never persisted.
func (s *DocumentService) RelayAwareness(sess *domain.Session, documentID uuid.UUID, state []byte) error {
	s.mu.RLock()
	_, ok := s.groups[documentID][sess.ID]
	s.mu.RUnlock()
	if !ok {
		return ErrNotInDocument
	}

	s.broadcast(documentID, domain.EventDocumentAwareness, domain.DocumentAwarenessEventPayload{
		DocumentID: documentID,
		State:      state,
	}, sess.ID)
	return nil
}

func (s *DocumentService) Create(ctx context.Context, sess *domain.Session, title string, isPublic bool) error {
	const op = "service.document.create"
	log := s.log.With(slog.String("op", op), slog.String("owner", sess.UserID.String()))

	doc := domain.NewDocument(title, sess.UserID, isPublic)
	if err := s.documents.Create(ctx, doc); err != nil {
		log.Error("failed to create document", sl.Err(err))
		return err
	}

	s.emit(sess, domain.EventDocumentCreated, domain.DocumentCreatedPayload{Document: doc})
	log.Info("document created", slog.String("document_id", doc.ID.String()))
	return nil
}

// Delete is owner-only. Every session in the group is told the document
// is gone and then force-removed server-side; the relay does not wait
// for voluntary leaves.
func (s *DocumentService) Delete(ctx context.Context, sess *domain.Session, documentID uuid.UUID) error {
	const op = "service.document.delete"
	log := s.log.With(slog.String("op", op), slog.String("document_id", documentID.String()))

	owner, err := s.guard.IsDocumentOwner(ctx, sess.UserID, documentID)
	if err != nil {
		return err
	}
	if !owner {
		return auth.ErrUnauthorized
	}

	if err := s.documents.Delete(ctx, documentID); err != nil {
		log.Error("failed to delete document", sl.Err(err))
		return err
	}

	event, err := domain.NewEvent(domain.EventDocumentDeleted, domain.DocumentDeletedPayload{DocumentID: documentID})
	if err != nil {
		return err
	}

	s.mu.Lock()
	group := s.groups[documentID]
	delete(s.groups, documentID)
	s.mu.Unlock()

	for _, member := range group {
		member.sess.LeaveDocument(documentID)
		if !member.sess.EnqueueEvent(event) {
			log.Debug("dropping delete event", slog.String("session", member.sess.ID))
		}
	}

	log.Info("document deleted", slog.Int("evicted", len(group)))
	return nil
}

// List sends the caller every document it can see: owned, public, or
// shared with it.
func (s *DocumentService) List(ctx context.Context, sess *domain.Session) error {
	docs, err := s.documents.ListVisible(ctx, sess.UserID)
	if err != nil {
		return err
	}

	s.emit(sess, domain.EventDocumentList, domain.DocumentListPayload{Items: docs})
	return nil
}

// SaveContent is the out-of-band persistence path invoked by clients on
// editor blur or periodic save, distinct from the frame relay.
func (s *DocumentService) SaveContent(ctx context.Context, userID, documentID uuid.UUID, content []byte) error {
	if err := s.guard.AuthorizeDocument(ctx, userID, documentID, domain.DocumentPermissionWrite); err != nil {
		return err
	}
	return s.documents.UpdateContent(ctx, documentID, content, userID)
}

func (s *DocumentService) AddCollaborator(ctx context.Context, actorID, documentID, userID uuid.UUID, permission domain.DocumentPermission) error {
	owner, err := s.guard.IsDocumentOwner(ctx, actorID, documentID)
	if err != nil {
		return err
	}
	if !owner {
		return auth.ErrUnauthorized
	}
	return s.documents.AddCollaborator(ctx, documentID, userID, permission)
}

func (s *DocumentService) RemoveCollaborator(ctx context.Context, actorID, documentID, userID uuid.UUID) error {
	owner, err := s.guard.IsDocumentOwner(ctx, actorID, documentID)
	if err != nil {
		return err
	}
	if !owner {
		return auth.ErrUnauthorized
	}
	return s.documents.RemoveCollaborator(ctx, documentID, userID)
}

// VisibleDocuments is the request/response twin of List, used by the
// REST surface.
func (s *DocumentService) VisibleDocuments(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error) {
	return s.documents.ListVisible(ctx, userID)
}

func (s *DocumentService) CollaboratorList(ctx context.Context, userID, documentID uuid.UUID) ([]domain.DocumentCollaborator, error) {
	if err := s.guard.AuthorizeDocument(ctx, userID, documentID, domain.DocumentPermissionRead); err != nil {
		return nil, err
	}
	return s.documents.Collaborators(ctx, documentID)
}

func (s *DocumentService) removeMember(sess *domain.Session, documentID uuid.UUID, notify bool) {
	s.mu.Lock()
	group, ok := s.groups[documentID]
	if ok {
		if _, present := group[sess.ID]; !present {
			ok = false
		}
		delete(group, sess.ID)
		if len(group) == 0 {
			delete(s.groups, documentID)
		}
	}
	s.mu.Unlock()
	sess.LeaveDocument(documentID)

	if ok && notify {
		s.broadcast(documentID, domain.EventDocumentCollaboratorLeft, domain.DocumentCollaboratorLeftPayload{
			DocumentID: documentID,
			UserID:     sess.UserID,
		}, sess.ID)
	}
}

func (s *DocumentService) broadcast(documentID uuid.UUID, eventType domain.EventType, payload any, exclude string) {
	event, err := domain.NewEvent(eventType, payload)
	if err != nil {
		s.log.Error("failed to encode broadcast event", sl.Err(err), slog.String("type", string(eventType)))
		return
	}

	s.mu.RLock()
	group := s.groups[documentID]
	sessions := make([]*domain.Session, 0, len(group))
	for id, member := range group {
		if id == exclude {
			continue
		}
		sessions = append(sessions, member.sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		if !sess.EnqueueEvent(event) {
			s.log.Debug("dropping broadcast event",
				slog.String("session", sess.ID),
				slog.String("type", string(eventType)),
			)
		}
	}
}

func (s *DocumentService) emit(sess *domain.Session, eventType domain.EventType, payload any) {
	event, err := domain.NewEvent(eventType, payload)
	if err != nil {
		s.log.Error("failed to encode event", sl.Err(err), slog.String("type", string(eventType)))
		return
	}
	if !sess.EnqueueEvent(event) {
		s.log.Debug("dropping event", slog.String("session", sess.ID), slog.String("type", string(eventType)))
	}
}
