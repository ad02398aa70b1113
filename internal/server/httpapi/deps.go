package httpapi

import (
	"context"

	"github.com/dmitrijs2005/mneme/internal/server/models"
	"github.com/dmitrijs2005/mneme/internal/server/services"
)

type UserService interface {
	Login(ctx context.Context, userName, password string) (string, error)
	ResolveToken(ctx context.Context, token string) (*models.User, error)
	RegisterPublic(ctx context.Context, in services.NewUser) (*models.User, error)
	RegisterByAdmin(ctx context.Context, caller *models.User, in services.NewUser) (*models.User, error)
	ListUsers(ctx context.Context, skip, limit int) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User, newUserName *string, encrypted *bool) (*models.User, error)
	UpdatePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error
	DeleteUser(ctx context.Context, id string) error
}

type JournalService interface {
	Create(ctx context.Context, userID, name string) (*models.Journal, error)
	List(ctx context.Context, userID string, includeDeleted bool, skip, limit int) ([]*models.Journal, error)
	Get(ctx context.Context, userID, name string, includeDeleted bool) (*models.Journal, error)
	Rename(ctx context.Context, userID, name, newName string) (*models.Journal, error)
	Delete(ctx context.Context, userID, name string, now bool) error
	Revive(ctx context.Context, userID, name string, newName *string) (*models.Journal, error)
}

type EntryService interface {
	Create(ctx context.Context, userID, journalName string, in services.EntryInput) (*models.Entry, error)
	Get(ctx context.Context, userID, journalName string, id int64, includeDeleted bool) (*models.Entry, error)
	Update(ctx context.Context, userID, journalName string, id int64, in services.EntryInput, destJournalID *int64) (*models.Entry, error)
	Delete(ctx context.Context, userID, journalName string, id int64, now bool) error
	Revive(ctx context.Context, userID string, id int64, opts services.ReviveOptions) (*models.Entry, error)
	Search(ctx context.Context, userID string, q services.SearchQuery) ([]*models.Entry, error)
}

// Subscriber opens a user's live update stream.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan []byte, error)
}
