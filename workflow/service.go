package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/quillhq/quill/models"
)

// TokenIssuer mints an authentication token for a user.
type TokenIssuer interface {
	Issue(u *models.User) (string, error)
}

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// Service orchestrates the publishing workflow: account registration and
// login, the post state machine, and role-based visibility. Persistence and
// the identity collaborators are injected so tests can swap in fakes.
type Service struct {
	store  Store
	tokens TokenIssuer
	hasher PasswordHasher
	now    func() time.Time
}

// NewService builds a Service on the given collaborators.
func NewService(store Store, tokens TokenIssuer, hasher PasswordHasher) *Service {
	return &Service{store: store, tokens: tokens, hasher: hasher, now: time.Now}
}

// RegisterInput carries the registration request fields.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string // optional, defaults to PUBLISHER
}

const minPasswordLen = 6

// Register creates an account and returns it together with a fresh token.
// Duplicate emails yield KindConflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || in.Password == "" {
		return nil, "", errf(KindValidation, "email, password and name are required")
	}
	if !strings.Contains(email, "@") {
		return nil, "", errf(KindValidation, "invalid email address")
	}
	if len(in.Password) < minPasswordLen {
		return nil, "", errf(KindValidation, "password must be at least %d characters", minPasswordLen)
	}

	role := RolePublisher
	if in.Role != "" {
		parsed, ok := ParseRole(in.Role)
		if !ok {
			return nil, "", errf(KindValidation, "unknown role %q", in.Role)
		}
		role = parsed
	}

	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return nil, "", errf(KindConflict, "email already registered")
	} else if KindOf(err) != KindNotFound {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", wrap(KindStorage, err, "failed to hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         string(role),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", wrap(KindStorage, err, "failed to issue token")
	}
	return user, token, nil
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", errf(KindValidation, "email and password are required")
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, "", errf(KindUnauthenticated, "invalid email or password")
		}
		return nil, "", err
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, "", errf(KindUnauthenticated, "invalid email or password")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", wrap(KindStorage, err, "failed to issue token")
	}
	return user, token, nil
}

// Me loads the caller's own account.
func (s *Service) Me(ctx context.Context, callerID string) (*models.User, error) {
	return s.store.FindUserByID(ctx, callerID)
}
