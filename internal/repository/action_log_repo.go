package repository

import (
	"context"

	"game_lounge/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ActionLogRepository struct {
	db *pgxpool.Pool
}

func NewActionLogRepository(db *pgxpool.Pool) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

// Append дописывает действие в журнал комнаты
func (r *ActionLogRepository) Append(ctx context.Context, rec domain.ActionRecord) error {
	payload := rec.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO action_log (room_id, seq, player_id, action_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.RoomID,
		rec.Seq,
		rec.PlayerID,
		rec.Type,
		payload,
		rec.At,
	)
	return err
}

// GetByRoom возвращает журнал комнаты в порядке применения
func (r *ActionLogRepository) GetByRoom(ctx context.Context, roomID string) ([]domain.ActionRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT room_id, seq, player_id, action_type, payload, created_at
		 FROM action_log
		 WHERE room_id = $1
		 ORDER BY seq ASC`,
		roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.ActionRecord
	for rows.Next() {
		var rec domain.ActionRecord
		if err := rows.Scan(&rec.RoomID, &rec.Seq, &rec.PlayerID, &rec.Type, &rec.Payload, &rec.At); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}

	return res, rows.Err()
}
