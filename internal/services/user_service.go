package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// UserService handles registration, login, profiles and admin user management.
type UserService struct {
	db        *gorm.DB
	jwtSecret string
	tokenTTL  time.Duration
}

// NewUserService constructs UserService.
func NewUserService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{db: db, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// RegisterInput is the self-registration payload. Role is only honoured for
// admin-created accounts.
type RegisterInput struct {
	Username string      `validate:"required,max=64"`
	Password string      `validate:"required"`
	Email    string      `validate:"required,email"`
	FullName string      `validate:"max=255"`
	Address  string      `validate:"max=512"`
	Role     models.Role `validate:"min=0,max=1"`
}

// UserUpdate carries user fields; nil fields are left unchanged.
type UserUpdate struct {
	Username *string
	Password *string
	Email    *string
	FullName *string
	Address  *string
	Role     *models.Role
}

// Register creates a customer account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Role = models.RoleCustomer
	return s.create(ctx, in)
}

// CreateByAdmin creates an account with any role.
func (s *UserService) CreateByAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	if !in.Role.IsValid() {
		return nil, Validation("invalid role %d", int(in.Role))
	}
	return s.create(ctx, in)
}

// Login verifies credentials and issues a bearer token carrying the user's id and role.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", Validation("username and password are required")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", Unauthenticated("invalid credentials")
		}
		return nil, "", Internal(err, "failed to load user")
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, "", Unauthenticated("invalid credentials")
	}

	token, err := utils.GenerateToken(s.jwtSecret, user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return nil, "", Internal(err, "failed to generate token")
	}

	return &user, token, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("user not found")
		}
		return nil, Internal(err, "failed to load user")
	}
	return &user, nil
}

// List returns a page of users matching search (username, email or full name)
// and the total number of matches.
func (s *UserService) List(ctx context.Context, pg utils.Pagination, search string) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, Internal(err, "failed to count users")
	}

	users := []models.User{}
	if err := query.Order("id asc").Limit(pg.Limit).Offset(pg.Offset).Find(&users).Error; err != nil {
		return nil, 0, Internal(err, "failed to list users")
	}
	return users, total, nil
}

// Update changes a user. Admins may change any field of any user; other callers
// may only change their own email, full name, address and password.
func (s *UserService) Update(ctx context.Context, actor Actor, id uint, in UserUpdate) (*models.User, error) {
	if !actor.IsAdmin() {
		if !actor.Owns(id) {
			return nil, Forbidden("you can only update your own profile")
		}
		if in.Role != nil || in.Username != nil {
			return nil, Forbidden("username and role can only be changed by an admin")
		}
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, Validation("username is required")
		}
		if err := s.ensureUnique(db, "username", username, user.ID); err != nil {
			return nil, err
		}
		user.Username = username
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := utils.ValidateStruct(struct {
			Email string `validate:"required,email"`
		}{email}); err != nil {
			return nil, Validation("%s", err.Error())
		}
		if err := s.ensureUnique(db, "email", email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Address != nil {
		user.Address = strings.TrimSpace(*in.Address)
	}
	if in.Role != nil {
		if !in.Role.IsValid() {
			return nil, Validation("invalid role %d", int(*in.Role))
		}
		user.Role = *in.Role
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, Validation("password must not be empty")
		}
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, Internal(err, "failed to hash password")
		}
		user.PasswordHash = hash
	}

	if err := db.Save(user).Error; err != nil {
		return nil, userWriteError(err, "failed to update user")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"actor_id": actor.UserID,
	}).Info("user updated")

	return user, nil
}

// Delete removes a user who owns no orders.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	err := applyDeletion(ctx, s.db, &models.User{}, "user", id, referenceGuard{
		model:   &models.Order{},
		column:  "user_id",
		message: "user has orders and cannot be deleted",
	})
	if err == nil {
		logrus.WithField("user_id", id).Info("user deleted")
	}
	return err
}

func (s *UserService) create(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, Validation("%s", err.Error())
	}

	db := s.db.WithContext(ctx)
	if err := s.ensureUnique(db, "username", in.Username, 0); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(db, "email", in.Email, 0); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, Internal(err, "failed to hash password")
	}

	user := models.User{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		FullName:     strings.TrimSpace(in.FullName),
		Address:      strings.TrimSpace(in.Address),
		Role:         in.Role,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, userWriteError(err, "failed to create user")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     int(user.Role),
	}).Info("user created")

	return &user, nil
}

func (s *UserService) ensureUnique(db *gorm.DB, column, value string, exceptID uint) error {
	var count int64
	if err := db.Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, exceptID).
		Count(&count).Error; err != nil {
		return Internal(err, "failed to check %s", column)
	}
	if count > 0 {
		return Conflict("%s already taken", column)
	}
	return nil
}

// userWriteError covers a duplicate that slipped past ensureUnique between the check and the write.
func userWriteError(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Conflict("username or email already taken")
	}
	return Internal(err, msg)
}
