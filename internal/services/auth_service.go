package services

import (
	"context"
	"errors"

	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountRepository is the interface that wraps methods for users table data access
type AccountRepository interface {
	// Method Create inserts a new account into the database and assigns its initial role atomically.
	//
	// "account" parameter is the account to create, its ID, CreatedAt and Role are filled in.
	// The role is super-admin when no account existed yet and user otherwise.
	//
	// If the email is already taken, an ErrDuplicateEmail error is returned.
	// If a concurrent signup became the super-admin first, an ErrConflict error is returned.
	Create(ctx context.Context, account *models.Account) error
	// Method GetByID retrieves an account by ID.
	//
	// If account with such ID does not exist, an ErrNotFound error will be returned together with "nil" value.
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// Method GetByEmail retrieves an account by its exact email.
	//
	// If account with such email does not exist, an ErrNotFound error will be returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	// Method ExistsByEmail checks if an account with such email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method List returns every account.
	List(ctx context.Context) ([]models.Account, error)
	// Method UpdateRole changes the role of an account from "from" to "to".
	//
	// Returns false when the account no longer has role "from" or does not exist.
	UpdateRole(ctx context.Context, id string, from, to models.Role) (bool, error)
	// Method Delete removes an account that still has the given role.
	//
	// Returns false when the account no longer has that role or does not exist.
	Delete(ctx context.Context, id string, role models.Role) (bool, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns an ErrInvalidCredential error when password does not match hash
	Compare(hash, password string) error
}

// TokenIssuer issues access tokens for accounts
type TokenIssuer interface {
	GenerateAccessToken(account *models.Account) (string, error)
}

// bcryptHasher implements PasswordHasher with bcrypt
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a bcrypt password hasher, cost 0 means bcrypt.DefaultCost
func NewBcryptHasher(cost int) *bcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

// Hash hashes the password
func (h *bcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperrors.Validation("password must be at most 72 bytes")
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare checks password against hash
func (h *bcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return apperrors.Wrap(apperrors.ErrInvalidCredential, "password does not match")
	}
	return err
}

// authService implements AuthService
type authService struct {
	accountRepo AccountRepository
	hasher      PasswordHasher
	tokens      TokenIssuer
	logger      *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(accountRepo AccountRepository, hasher PasswordHasher, tokens TokenIssuer, logger *zap.Logger) *authService {
	return &authService{
		accountRepo: accountRepo,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger,
	}
}

// Signup creates a new account and returns it with an access token.
// The first account ever created becomes super-admin, every later one a user.
func (s *authService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.accountRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Wrap(apperrors.ErrDuplicateEmail, "%s", req.Email)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if account.Role == models.RoleSuperAdmin {
		s.logger.Info("bootstrap super-admin created", zap.String("id", account.ID), zap.String("email", account.Email))
	}

	token, err := s.tokens.GenerateAccessToken(account)
	if err != nil {
		s.logger.Error("failed to generate token", zap.Error(err), zap.String("id", account.ID))
		return nil, err
	}

	return &models.AuthResponse{Message: "User created", Token: token, Account: account}, nil
}

// Login verifies the credentials and returns the account with an access token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "user not found, please sign up first")
		}
		return nil, err
	}

	if err := s.hasher.Compare(account.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, apperrors.ErrInvalidCredential) {
			s.logger.Error("failed to compare password", zap.Error(err), zap.String("id", account.ID))
		}
		return nil, err
	}

	token, err := s.tokens.GenerateAccessToken(account)
	if err != nil {
		s.logger.Error("failed to generate token", zap.Error(err), zap.String("id", account.ID))
		return nil, err
	}

	return &models.AuthResponse{Message: "Login successful", Token: token, Account: account}, nil
}
