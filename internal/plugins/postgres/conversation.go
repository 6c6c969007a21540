package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

/*
	-- Conversations: two fixed participants, jsonb display snapshots.
	CREATE TABLE conversations (
		id                  UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		participant_a       TEXT NOT NULL,
		participant_b       TEXT NOT NULL,
		participant_names   JSONB NOT NULL DEFAULT '{}',
		participant_avatars JSONB NOT NULL DEFAULT '{}',
		listing_id          TEXT NOT NULL DEFAULT '',
		listing_title       TEXT NOT NULL DEFAULT '',
		last_message        TEXT NOT NULL DEFAULT '',
		last_message_at     TIMESTAMPTZ,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	);
*/

type ConversationRepo struct {
	db       *sql.DB
	notifier contracts.ChangeNotifier
}

func NewConversationRepo(db *sql.DB, notifier contracts.ChangeNotifier) *ConversationRepo {
	return &ConversationRepo{db: db, notifier: notifier}
}

const conversationColumns = `
	id, participant_a, participant_b, participant_names, participant_avatars,
	listing_id, listing_title, last_message, last_message_at, created_at`

func (r *ConversationRepo) GetConversation(ctx context.Context, convID string) (*domain.Conversation, error) {
	exec := GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations WHERE id = $1
	`, convID)
	c, err := scanConversation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *ConversationRepo) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	exec := GetExecutor(ctx, r.db)
	// The pair of equality checks is the relational spelling of the
	// document store's array-contains query.
	rows, err := exec.QueryContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ConversationRepo) CreateConversation(ctx context.Context, c *domain.Conversation) (*domain.Conversation, error) {
	if len(c.Participants) != 2 {
		return nil, domain.ErrInvalidConversation
	}
	names, err := json.Marshal(c.ParticipantNames)
	if err != nil {
		return nil, err
	}
	avatars, err := json.Marshal(c.ParticipantAvatars)
	if err != nil {
		return nil, err
	}
	exec := GetExecutor(ctx, r.db)
	created := *c
	created.Participants = append([]string(nil), c.Participants...)
	// last_message_at stays NULL until the first send; empty threads
	// then sort last.
	err = exec.QueryRowContext(ctx, `
		INSERT INTO conversations (
			participant_a, participant_b, participant_names,
			participant_avatars, listing_id, listing_title
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`,
		c.Participants[0],
		c.Participants[1],
		names,
		avatars,
		c.ListingID,
		c.ListingTitle,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, err
	}
	_ = r.notifier.Publish(ctx,
		contracts.TopicConversations(c.Participants[0]),
		contracts.TopicConversations(c.Participants[1]),
	)
	return &created, nil
}

func (r *ConversationRepo) SetLastMessage(ctx context.Context, convID, text string) error {
	exec := GetExecutor(ctx, r.db)
	var a, b string
	err := exec.QueryRowContext(ctx, `
		UPDATE conversations
		SET last_message = $2, last_message_at = now()
		WHERE id = $1
		RETURNING participant_a, participant_b
	`, convID, text).Scan(&a, &b)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrConversationNotFound
		}
		return err
	}
	_ = r.notifier.Publish(ctx, contracts.TopicConversations(a), contracts.TopicConversations(b))
	return nil
}

func (r *ConversationRepo) WatchConversations(ctx context.Context, userID string) (<-chan contracts.ConversationSnapshot, error) {
	return watchQuery(ctx, r.notifier,
		[]string{contracts.TopicConversations(userID)},
		func(ctx context.Context) contracts.ConversationSnapshot {
			convs, err := r.ListConversations(ctx, userID)
			return contracts.ConversationSnapshot{Conversations: convs, Err: err}
		})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var (
		c             domain.Conversation
		a, b          string
		names         []byte
		avatars       []byte
		lastMessageAt sql.NullTime
	)
	if err := row.Scan(
		&c.ID, &a, &b, &names, &avatars,
		&c.ListingID, &c.ListingTitle, &c.LastMessage, &lastMessageAt, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.Participants = []string{a, b}
	if err := json.Unmarshal(names, &c.ParticipantNames); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(avatars, &c.ParticipantAvatars); err != nil {
		return nil, err
	}
	if lastMessageAt.Valid {
		c.LastMessageAt = lastMessageAt.Time
	}
	return &c, nil
}
