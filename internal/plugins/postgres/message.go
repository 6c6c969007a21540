package postgres

import (
	"context"
	"database/sql"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

/*
	-- Messages: append-only, created_at assigned by the server.
	CREATE TABLE messages (
		id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		conversation_id UUID NOT NULL REFERENCES conversations(id),
		sender_id       TEXT NOT NULL,
		sender_name     TEXT NOT NULL DEFAULT '',
		sender_avatar   TEXT NOT NULL DEFAULT '',
		receiver_id     TEXT NOT NULL,
		body            TEXT NOT NULL,
		read            BOOLEAN NOT NULL DEFAULT false,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX messages_conversation_idx ON messages (conversation_id);
	CREATE INDEX messages_unread_idx ON messages (receiver_id) WHERE NOT read;
*/

type MessageRepo struct {
	db       *sql.DB
	txm      *TxManager
	notifier contracts.ChangeNotifier
}

func NewMessageRepo(db *sql.DB, txm *TxManager, notifier contracts.ChangeNotifier) *MessageRepo {
	return &MessageRepo{db: db, txm: txm, notifier: notifier}
}

func (r *MessageRepo) AppendMessage(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	exec := GetExecutor(ctx, r.db)
	saved := *m
	err := exec.QueryRowContext(ctx, `
		INSERT INTO messages (
			conversation_id, sender_id, sender_name, sender_avatar,
			receiver_id, body, read
		) VALUES ($1, $2, $3, $4, $5, $6, false)
		RETURNING id, created_at
	`,
		m.ConversationID,
		m.SenderID,
		m.SenderName,
		m.SenderAvatar,
		m.ReceiverID,
		m.Text,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, err
	}
	_ = r.notifier.Publish(ctx,
		contracts.TopicMessages(m.ConversationID),
		contracts.TopicInbox(m.ReceiverID),
	)
	return &saved, nil
}

func (r *MessageRepo) ListMessages(ctx context.Context, convID string) ([]domain.Message, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, sender_name, sender_avatar,
		       receiver_id, body, read, created_at
		FROM messages
		WHERE conversation_id = $1
	`, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.SenderName,
			&m.SenderAvatar, &m.ReceiverID, &m.Text, &m.Read, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkConversationRead flips the reader's unread messages in one
// transaction: the select-then-update pair commits or rolls back as a
// unit, so a partially marked conversation is never observable.
func (r *MessageRepo) MarkConversationRead(ctx context.Context, convID, readerID string) (int, error) {
	var marked int
	err := r.txm.WithTx(ctx, func(txCtx context.Context) error {
		exec := GetExecutor(txCtx, r.db)
		rows, err := exec.QueryContext(txCtx, `
			SELECT id FROM messages
			WHERE conversation_id = $1 AND receiver_id = $2 AND NOT read
			FOR UPDATE
		`, convID, readerID)
		if err != nil {
			return err
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		res, err := exec.ExecContext(txCtx, `
			UPDATE messages SET read = true WHERE id = ANY($1::uuid[])
		`, ids)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		marked = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		_ = r.notifier.Publish(ctx,
			contracts.TopicMessages(convID),
			contracts.TopicInbox(readerID),
		)
	}
	return marked, nil
}

func (r *MessageRepo) CountUnread(ctx context.Context, receiverID string) (int, error) {
	exec := GetExecutor(ctx, r.db)
	var n int
	err := exec.QueryRowContext(ctx, `
		SELECT count(*) FROM messages
		WHERE receiver_id = $1 AND NOT read
	`, receiverID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *MessageRepo) WatchMessages(ctx context.Context, convID string) (<-chan contracts.MessageSnapshot, error) {
	return watchQuery(ctx, r.notifier,
		[]string{contracts.TopicMessages(convID)},
		func(ctx context.Context) contracts.MessageSnapshot {
			msgs, err := r.ListMessages(ctx, convID)
			return contracts.MessageSnapshot{Messages: msgs, Err: err}
		})
}

func (r *MessageRepo) WatchUnread(ctx context.Context, receiverID string) (<-chan contracts.UnreadSnapshot, error) {
	return watchQuery(ctx, r.notifier,
		[]string{contracts.TopicInbox(receiverID)},
		func(ctx context.Context) contracts.UnreadSnapshot {
			n, err := r.CountUnread(ctx, receiverID)
			return contracts.UnreadSnapshot{Count: n, Err: err}
		})
}
