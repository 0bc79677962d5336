package chat

import (
	"context"
	"strconv"

	"coffeespot/internal/db"
	"coffeespot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectChat = `
SELECT c.id::text, c.user_id::text, u.user_name, u.email, u.profile_picture,
       c.agent_id::text, a.user_name, a.email, a.profile_picture,
       c.is_active, c.created_at, c.updated_at
FROM chats c
JOIN users u ON u.id = c.user_id
JOIN admins a ON a.id = c.agent_id
`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) LeastLoadedAgent(ctx context.Context) (string, error) {
	const q = `
SELECT a.id::text
FROM admins a
LEFT JOIN chats c ON c.agent_id = a.id AND c.is_active
WHERE a.is_support_agent
GROUP BY a.id, a.created_at
ORDER BY count(c.id) ASC, a.created_at ASC
LIMIT 1
`
	var id string
	if err := r.pool.QueryRow(ctx, q).Scan(&id); err != nil {
		return "", db.MapErr(err)
	}
	return id, nil
}

func (r *postgresRepo) GetActiveByUser(ctx context.Context, userID string) (*domain.ChatSession, error) {
	return r.load(ctx, r.pool, `WHERE c.user_id = $1 AND c.is_active`, userID)
}

func (r *postgresRepo) Create(ctx context.Context, userID, agentID string, messages []NewMessage) (*domain.ChatSession, error) {
	var out *domain.ChatSession
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id string
		if err := tx.QueryRow(ctx, `
INSERT INTO chats (user_id, agent_id) VALUES ($1, $2)
RETURNING id::text
`, userID, agentID).Scan(&id); err != nil {
			if db.IsForeignKeyViolation(err) {
				return domain.ErrNotFound
			}
			return db.MapErr(err)
		}
		for _, m := range messages {
			if err := insertMessage(ctx, tx, id, m, nil); err != nil {
				return err
			}
		}
		var err error
		out, err = r.load(ctx, tx, `WHERE c.id = $1`, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.ChatSession, error) {
	return r.load(ctx, r.pool, `WHERE c.id = $1`, id)
}

func (r *postgresRepo) AppendMessage(ctx context.Context, chatID string, msg NewMessage) (*domain.ChatMessage, error) {
	var out domain.ChatMessage
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var active bool
		if err := tx.QueryRow(ctx, `SELECT is_active FROM chats WHERE id = $1 FOR UPDATE`, chatID).Scan(&active); err != nil {
			return db.MapErr(err)
		}
		if !active {
			return ErrClosed
		}
		if _, err := tx.Exec(ctx, `UPDATE chats SET updated_at = now() WHERE id = $1`, chatID); err != nil {
			return err
		}
		return insertMessage(ctx, tx, chatID, msg, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Close(ctx context.Context, chatID string) (*domain.ChatSession, error) {
	cmd, err := r.pool.Exec(ctx, `UPDATE chats SET is_active = FALSE, updated_at = now() WHERE id = $1`, chatID)
	if err != nil {
		return nil, db.MapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, chatID)
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.ChatSession, error) {
	rows, err := r.pool.Query(ctx, selectChat+`ORDER BY c.updated_at DESC, c.id`)
	if err != nil {
		return nil, err
	}
	chats := []domain.ChatSession{}
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		chats = append(chats, *c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return chats, nil
	}

	ids := make([]string, len(chats))
	index := make(map[string]*domain.ChatSession, len(chats))
	for i := range chats {
		ids[i] = chats[i].ID
		index[chats[i].ID] = &chats[i]
	}
	if err := fillMessages(ctx, r.pool, ids, index); err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *postgresRepo) Delete(ctx context.Context, chatID string) (*domain.ChatSession, error) {
	var out *domain.ChatSession
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = r.load(ctx, tx, `WHERE c.id = $1`, chatID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM chats WHERE id = $1`, chatID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) load(ctx context.Context, q querier, where string, args ...any) (*domain.ChatSession, error) {
	c, err := scanChat(q.QueryRow(ctx, selectChat+where, args...))
	if err != nil {
		return nil, db.MapErr(err)
	}
	if err := fillMessages(ctx, q, []string{c.ID}, map[string]*domain.ChatSession{c.ID: c}); err != nil {
		return nil, err
	}
	return c, nil
}

func insertMessage(ctx context.Context, tx pgx.Tx, chatID string, m NewMessage, out *domain.ChatMessage) error {
	var msg domain.ChatMessage
	var id int64
	err := tx.QueryRow(ctx, `
INSERT INTO chat_messages (chat_id, sender, text) VALUES ($1, $2, $3)
RETURNING id, chat_id::text, sender, text, sent_at
`, chatID, m.Sender, m.Text).Scan(&id, &msg.ChatID, &msg.Sender, &msg.Text, &msg.SentAt)
	if err != nil {
		return err
	}
	msg.ID = formatID(id)
	if out != nil {
		*out = msg
	}
	return nil
}

func fillMessages(ctx context.Context, q querier, ids []string, index map[string]*domain.ChatSession) error {
	rows, err := q.Query(ctx, `
SELECT id, chat_id::text, sender, text, sent_at
FROM chat_messages
WHERE chat_id = ANY($1::uuid[])
ORDER BY chat_id, id
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var m domain.ChatMessage
		var id int64
		if err := rows.Scan(&id, &m.ChatID, &m.Sender, &m.Text, &m.SentAt); err != nil {
			return err
		}
		m.ID = formatID(id)
		if c, ok := index[m.ChatID]; ok {
			c.Messages = append(c.Messages, m)
		}
	}
	return rows.Err()
}

func scanChat(row pgx.Row) (*domain.ChatSession, error) {
	var c domain.ChatSession
	u := &domain.UserSummary{}
	a := &domain.UserSummary{}
	if err := row.Scan(
		&c.ID,
		&c.UserID, &u.UserName, &u.Email, &u.ProfilePicture,
		&c.AgentID, &a.UserName, &a.Email, &a.ProfilePicture,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.ID = c.UserID
	a.ID = c.AgentID
	c.User = u
	c.Agent = a
	c.Messages = []domain.ChatMessage{}
	return &c, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
