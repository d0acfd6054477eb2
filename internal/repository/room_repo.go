package repository

import (
	"context"
	"encoding/json"
	"errors"

	"game_lounge/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create сохраняет комнату
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	playersJSON, err := json.Marshal(room.PlayerIDs)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO rooms (id, name, creator_id, game_type, status, player_ids, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		room.ID,
		room.Name,
		room.CreatorID,
		room.GameType,
		room.Status,
		playersJSON,
		room.CreatedAt,
	)
	return err
}

func (r *RoomRepository) UpdateStatus(ctx context.Context, id string, status domain.RoomStatus) error {
	_, err := r.db.Exec(ctx,
		`UPDATE rooms SET status = $2 WHERE id = $1`,
		id, status,
	)
	return err
}

func (r *RoomRepository) UpdatePlayers(ctx context.Context, id string, playerIDs []string) error {
	playersJSON, err := json.Marshal(playerIDs)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`UPDATE rooms SET player_ids = $2 WHERE id = $1`,
		id, playersJSON,
	)
	return err
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	var (
		room        domain.Room
		playersJSON []byte
	)

	err := r.db.QueryRow(ctx,
		`SELECT id, name, creator_id, game_type, status, player_ids, created_at
		 FROM rooms WHERE id = $1`,
		id,
	).Scan(&room.ID, &room.Name, &room.CreatorID, &room.GameType, &room.Status, &playersJSON, &room.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	_ = json.Unmarshal(playersJSON, &room.PlayerIDs)
	return &room, nil
}

// List возвращает комнаты, новые первыми
func (r *RoomRepository) List(ctx context.Context, status string, limit int) ([]*domain.Room, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, name, creator_id, game_type, status, player_ids, created_at
	          FROM rooms ORDER BY created_at DESC LIMIT $1`
	args := []interface{}{limit}
	if status != "" {
		query = `SELECT id, name, creator_id, game_type, status, player_ids, created_at
		         FROM rooms WHERE status = $2 ORDER BY created_at DESC LIMIT $1`
		args = append(args, status)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Room
	for rows.Next() {
		var (
			room        domain.Room
			playersJSON []byte
		)
		if err := rows.Scan(&room.ID, &room.Name, &room.CreatorID, &room.GameType, &room.Status, &playersJSON, &room.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(playersJSON, &room.PlayerIDs)
		res = append(res, &room)
	}

	return res, rows.Err()
}
