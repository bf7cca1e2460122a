package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stonx/internal/domain/group"
)

// ListGroups 依名稱排序回傳群組與成員。
func (r *Repo) ListGroups(ctx context.Context) ([]group.Group, error) {
	const q = `
SELECT g.id, g.name, g.type, m.symbol
FROM groups g
LEFT JOIN group_members m ON m.group_id = g.id
ORDER BY g.name, g.id, m.position;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []group.Group{}
	for rows.Next() {
		var (
			id, name, typ string
			symbol        sql.NullString
		)
		if err := rows.Scan(&id, &name, &typ, &symbol); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ID != id {
			out = append(out, group.Group{ID: id, Name: name, Type: group.Type(typ), Symbols: []string{}})
		}
		if symbol.Valid {
			last := &out[len(out)-1]
			last.Symbols = append(last.Symbols, symbol.String)
		}
	}
	return out, rows.Err()
}

func (r *Repo) GetGroup(ctx context.Context, id string) (group.Group, error) {
	const q = `SELECT id, name, type FROM groups WHERE id = $1;`
	var (
		g   group.Group
		typ string
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&g.ID, &g.Name, &typ); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return group.Group{}, group.ErrGroupNotFound
		}
		return group.Group{}, err
	}
	g.Type = group.Type(typ)

	const mq = `SELECT symbol FROM group_members WHERE group_id = $1 ORDER BY position;`
	rows, err := r.db.QueryContext(ctx, mq, id)
	if err != nil {
		return group.Group{}, err
	}
	defer rows.Close()
	g.Symbols = []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return group.Group{}, err
		}
		g.Symbols = append(g.Symbols, s)
	}
	return g, rows.Err()
}

// CreateGroup 建立群組；ID 衝突時回傳 group.ErrGroupExists。
func (r *Repo) CreateGroup(ctx context.Context, g group.Group) error {
	const q = `INSERT INTO groups (id, name, type) VALUES ($1, $2, $3);`
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, q, g.ID, g.Name, string(g.Type)); err != nil {
			if isUniqueViolation(err) {
				return group.ErrGroupExists
			}
			return fmt.Errorf("insert group: %w", err)
		}
		return insertMembers(ctx, tx, g.ID, g.Symbols)
	})
}

// UpsertGroup 覆寫名稱、類型並整批取代成員。
func (r *Repo) UpsertGroup(ctx context.Context, g group.Group) error {
	const q = `
INSERT INTO groups (id, name, type) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, type = EXCLUDED.type, updated_at = NOW();
`
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, q, g.ID, g.Name, string(g.Type)); err != nil {
			return fmt.Errorf("upsert group: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1;`, g.ID); err != nil {
			return fmt.Errorf("clear members: %w", err)
		}
		return insertMembers(ctx, tx, g.ID, g.Symbols)
	})
}

func (r *Repo) ReplaceMembers(ctx context.Context, id string, symbols []string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE groups SET updated_at = NOW() WHERE id = $1;`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return group.ErrGroupNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1;`, id); err != nil {
			return fmt.Errorf("clear members: %w", err)
		}
		return insertMembers(ctx, tx, id, symbols)
	})
}

func (r *Repo) DeleteGroup(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return group.ErrGroupNotFound
	}
	return nil
}

func insertMembers(ctx context.Context, tx *sql.Tx, groupID string, symbols []string) error {
	const q = `INSERT INTO group_members (group_id, symbol, position) VALUES ($1, $2, $3);`
	for i, s := range symbols {
		if _, err := tx.ExecContext(ctx, q, groupID, s, i); err != nil {
			return fmt.Errorf("insert member %s: %w", s, err)
		}
	}
	return nil
}
