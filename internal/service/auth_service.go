package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"asset-portal/internal/domain"
)

// AuthService coordina registro y login sobre el CredentialStore y el TokenService.
type AuthService struct {
	logger  *zap.Logger
	store   *CredentialStore
	tokens  *TokenService
	limiter LoginLimiter
}

// Session es lo que recibe el cliente tras registrarse o iniciar sesión.
type Session struct {
	Token     string
	ExpiresIn int64
	Identity  domain.Identity
}

func NewAuthService(logger *zap.Logger, store *CredentialStore, tokens *TokenService, limiter LoginLimiter) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewMemoryLoginLimiter(15*time.Minute, 5)
	}
	return &AuthService{
		logger:  logger,
		store:   store,
		tokens:  tokens,
		limiter: limiter,
	}
}

// Register crea la identidad y devuelve una sesión ya iniciada.
func (s *AuthService) Register(ctx context.Context, input CreateIdentityInput) (Session, error) {
	identity, err := s.store.CreateIdentity(ctx, input)
	if err != nil {
		return Session{}, err
	}
	return s.session(identity)
}

func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (Session, error) {
	if !s.limiter.Allow(emailAddr) {
		s.logger.Warn("login throttled")
		return Session{}, ErrRateLimited
	}
	identity, err := s.store.Authenticate(ctx, emailAddr, password)
	if err != nil {
		return Session{}, err
	}
	s.limiter.Reset(emailAddr)
	return s.session(identity)
}

// UpdatePassword limita los intentos de reverificación por identidad, igual que el login.
func (s *AuthService) UpdatePassword(ctx context.Context, identityID, oldPassword, newPassword string) error {
	key := passwordChangeKey(identityID)
	if !s.limiter.Allow(key) {
		s.logger.Warn("password change throttled", zap.String("identity_id", identityID))
		return ErrRateLimited
	}
	if err := s.store.UpdatePassword(ctx, identityID, oldPassword, newPassword); err != nil {
		return err
	}
	s.limiter.Reset(key)
	return nil
}

func passwordChangeKey(identityID string) string {
	return "password:" + identityID
}

func (s *AuthService) session(identity domain.Identity) (Session, error) {
	token, err := s.tokens.Issue(identity.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		Identity:  identity.Public(),
	}, nil
}
