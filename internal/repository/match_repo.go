package repository

import (
	"context"
	"encoding/json"

	"game_lounge/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create сохраняет завершённую партию
func (r *MatchRepository) Create(ctx context.Context, m *domain.Match) error {
	playersJSON, err := json.Marshal(m.PlayerIDs)
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO matches (room_id, game_type, player_ids, winner_id, result, turns)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		m.RoomID,
		m.GameType,
		playersJSON,
		m.WinnerID,
		m.Result,
		m.Turns,
	).Scan(&m.ID, &m.CreatedAt)
}

// GetByUser возвращает партии игрока, новые первыми
func (r *MatchRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*domain.Match, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, room_id, game_type, player_ids, winner_id, result, turns, created_at
		 FROM matches
		 WHERE player_ids @> to_jsonb($1::text)
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Match
	for rows.Next() {
		var (
			m           domain.Match
			playersJSON []byte
		)
		if err := rows.Scan(&m.ID, &m.RoomID, &m.GameType, &playersJSON, &m.WinnerID, &m.Result, &m.Turns, &m.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(playersJSON, &m.PlayerIDs)
		res = append(res, &m)
	}

	return res, rows.Err()
}
