package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/auth"
	"github.com/frahmantamala/household-ledger/internal/core/database"
	userDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	var u userDatamodel.User
	if err := database.Conn(ctx, r.db).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", internal.ErrUserNotFound, email)
		}
		return nil, err
	}
	return toAccount(&u), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*auth.Account, error) {
	var u userDatamodel.User
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", internal.ErrUserNotFound, id)
		}
		return nil, err
	}
	return toAccount(&u), nil
}

func (r *UserRepository) Create(ctx context.Context, a *auth.Account) error {
	u := userDatamodel.User{
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		IsActive:     a.IsActive,
	}
	if err := database.Conn(ctx, r.db).Create(&u).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", internal.ErrEmailTaken, a.Email)
		}
		return err
	}
	a.ID = u.ID
	return nil
}

func toAccount(u *userDatamodel.User) *auth.Account {
	return &auth.Account{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
	}
}

// isUniqueViolation covers postgres (SQLSTATE 23505) and sqlite messages.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "UNIQUE constraint failed")
}
