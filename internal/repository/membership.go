package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/database"
)

// MembershipRepository answers the community-membership check gating group
// calls. The membership rows themselves are owned by the surrounding
// platform; this repository only reads them.
type MembershipRepository interface {
	IsMember(ctx context.Context, communityID, userID string) (bool, error)
}

type membershipRepo struct {
	db database.DBTX
}

func NewMembershipRepository(db *sqlx.DB) MembershipRepository {
	return &membershipRepo{db: db}
}

func (r *membershipRepo) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM community_members
		WHERE community_id = $1 AND user_id = $2
	`, communityID, userID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
