package repository

import (
	"context"
	"errors"

	"salesadmin/internal/cafe24"
	"salesadmin/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cafe24TokenRepository keeps the mall's OAuth grant in PostgreSQL. It is the
// token store used when no Redis is configured.
type Cafe24TokenRepository struct {
	db     *gorm.DB
	mallID string
}

var _ cafe24.TokenStore = (*Cafe24TokenRepository)(nil)

func NewCafe24TokenRepository(db *gorm.DB, mallID string) *Cafe24TokenRepository {
	return &Cafe24TokenRepository{db: db, mallID: mallID}
}

func (r *Cafe24TokenRepository) Load(ctx context.Context) (*cafe24.Token, error) {
	var row model.Cafe24Token
	err := GetDB(ctx, r.db).First(&row, "mall_id = ?", r.mallID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cafe24.Token{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		ExpiresAt:    row.ExpiresAt,
	}, nil
}

func (r *Cafe24TokenRepository) Save(ctx context.Context, tok cafe24.Token) error {
	row := model.Cafe24Token{
		MallID:       r.mallID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.ExpiresAt,
	}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mall_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "updated_at"}),
	}).Create(&row).Error
}
