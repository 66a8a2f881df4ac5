package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var ErrParticipantNotFound = errors.New("participant not found")

// ParticipantRepository is the directory view of the platform's
// identities, keyed by (id, role). The messaging core only validates
// existence and reads profile fields from it.
type ParticipantRepository interface {
	Exists(ctx context.Context, ref models.ParticipantRef) (bool, error)
	Get(ctx context.Context, ref models.ParticipantRef) (models.Participant, error)
	BulkGet(ctx context.Context, refs []models.ParticipantRef) ([]models.Participant, error)
}

// ParticipantRepo is a sqlx implementation of ParticipantRepository.
type ParticipantRepo struct {
	db *sqlx.DB
}

// NewParticipantRepo constructs a ParticipantRepo.
func NewParticipantRepo(db *sqlx.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Exists checks the directory for the reference.
func (r *ParticipantRepo) Exists(ctx context.Context, ref models.ParticipantRef) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM participants WHERE id=$1 AND role=$2)`, ref.ID, ref.Role)
	return exists, err
}

// Get fetches a directory entry.
func (r *ParticipantRepo) Get(ctx context.Context, ref models.ParticipantRef) (models.Participant, error) {
	var p models.Participant
	err := r.db.GetContext(ctx, &p,
		`SELECT id, role, username, display_name, created_at FROM participants WHERE id=$1 AND role=$2`,
		ref.ID, ref.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrParticipantNotFound
	}
	return p, err
}

// BulkGet fetches multiple entries in one query. Ids can collide across
// roles, so results are filtered back down to the requested pairs.
func (r *ParticipantRepo) BulkGet(ctx context.Context, refs []models.ParticipantRef) ([]models.Participant, error) {
	if len(refs) == 0 {
		return []models.Participant{}, nil
	}
	ids := make([]string, 0, len(refs))
	wanted := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
		wanted[ref.Key()] = struct{}{}
	}

	var all []models.Participant
	err := r.db.SelectContext(ctx, &all,
		`SELECT id, role, username, display_name, created_at FROM participants WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return nil, err
	}

	result := make([]models.Participant, 0, len(all))
	for _, p := range all {
		if _, ok := wanted[p.Ref().Key()]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}
