package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"asset-portal/internal/domain"
	"asset-portal/internal/email"
	"asset-portal/internal/repository"
)

const maxProfileFieldLength = 200

var validate = validator.New()

// CredentialStore es dueño de las identidades y de sus contraseñas.
// El hash nunca sale de aquí salvo por FindByEmail, que usa el flujo de login.
type CredentialStore struct {
	logger     *zap.Logger
	identities repository.IdentityRepository
	hasher     PasswordHasher
	policy     PasswordPolicy
	notifier   email.Sender
	now        func() time.Time

	// dummyHash iguala el costo de Authenticate cuando el email no existe.
	dummyHash string
}

func NewCredentialStore(
	logger *zap.Logger,
	identities repository.IdentityRepository,
	hasher PasswordHasher,
	policy PasswordPolicy,
	notifier email.Sender,
) *CredentialStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = email.NewDisabledSender("email sender not configured")
	}
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		logger.Warn("dummy hash generation failed", zap.Error(err))
	}
	return &CredentialStore{
		logger:     logger,
		identities: identities,
		hasher:     hasher,
		policy:     policy,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
		dummyHash:  dummy,
	}
}

type CreateIdentityInput struct {
	Email    string
	Password string
	Profile  domain.ProfileFields
}

// CreateIdentity registra una identidad nueva con rol client.
func (s *CredentialStore) CreateIdentity(ctx context.Context, input CreateIdentityInput) (domain.Identity, error) {
	emailAddr, err := validateEmail(input.Email)
	if err != nil {
		return domain.Identity{}, err
	}
	if err := s.policy.Validate(input.Password); err != nil {
		return domain.Identity{}, err
	}
	profile, err := normalizeProfile(input.Profile)
	if err != nil {
		return domain.Identity{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.Identity{}, err
	}

	now := s.now()
	identity := domain.Identity{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		PasswordHash: hash,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Phone:        profile.Phone,
		Address:      profile.Address,
		City:         profile.City,
		Country:      profile.Country,
		Role:         domain.RoleClient,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return domain.Identity{}, ErrDuplicateIdentity
		}
		return domain.Identity{}, storeError("create identity", err)
	}

	s.logger.Info("identity created", zap.String("identity_id", identity.ID))
	return identity.Public(), nil
}

// FindByEmail devuelve el registro completo, hash incluido. Solo para el flujo de login.
func (s *CredentialStore) FindByEmail(ctx context.Context, emailAddr string) (domain.Identity, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.Identity{}, ErrNotFound
	}
	identity, err := s.identities.GetByEmail(ctx, emailAddr)
	if err != nil {
		return domain.Identity{}, storeError("find identity by email", err)
	}
	return identity, nil
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (domain.Identity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Identity{}, ErrNotFound
	}
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		return domain.Identity{}, storeError("find identity by id", err)
	}
	return identity.Public(), nil
}

// Authenticate verifica email y contraseña. No distingue email inexistente de contraseña incorrecta.
func (s *CredentialStore) Authenticate(ctx context.Context, emailAddr, password string) (domain.Identity, error) {
	if normalizeEmail(emailAddr) == "" || password == "" {
		return domain.Identity{}, ErrInvalidCredentials
	}
	identity, err := s.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if s.dummyHash != "" {
				_, _ = s.hasher.Compare(s.dummyHash, password)
			}
			return domain.Identity{}, ErrInvalidCredentials
		}
		return domain.Identity{}, err
	}
	ok, err := s.hasher.Compare(identity.PasswordHash, password)
	if err != nil {
		s.logger.Error("stored password hash unreadable", zap.String("identity_id", identity.ID), zap.Error(err))
		return domain.Identity{}, ErrInvalidCredentials
	}
	if !ok {
		return domain.Identity{}, ErrInvalidCredentials
	}
	return identity.Public(), nil
}

// UpdateProfile aplica una actualización parcial de los campos de perfil.
func (s *CredentialStore) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.Identity, error) {
	if err := validateProfileUpdate(update); err != nil {
		return domain.Identity{}, err
	}
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		return domain.Identity{}, storeError("find identity by id", err)
	}
	if update.Empty() {
		return identity.Public(), nil
	}

	update.Apply(&identity)
	identity.UpdatedAt = s.now()
	if err := s.identities.UpdateProfile(ctx, identity); err != nil {
		return domain.Identity{}, storeError("update profile", err)
	}
	return identity.Public(), nil
}

// UpdatePassword exige la contraseña actual antes de reemplazarla.
func (s *CredentialStore) UpdatePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		return storeError("find identity by id", err)
	}
	ok, err := s.hasher.Compare(identity.PasswordHash, oldPassword)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	if err := s.policy.Validate(newPassword); err != nil {
		return err
	}
	if oldPassword == newPassword {
		return invalidInput("new_password", "new password must differ from the current one")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	changedAt := s.now()
	if err := s.identities.UpdatePasswordHash(ctx, identity.ID, hash, changedAt); err != nil {
		return storeError("update password", err)
	}

	s.logger.Info("password changed", zap.String("identity_id", identity.ID))
	if err := s.notifier.SendPasswordChanged(ctx, identity.Email, changedAt); err != nil {
		s.logger.Warn("password change notice not sent", zap.String("identity_id", identity.ID), zap.Error(err))
	}
	return nil
}

func normalizeEmail(emailAddr string) string {
	return strings.ToLower(strings.TrimSpace(emailAddr))
}

func validateEmail(emailAddr string) (string, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return "", invalidInput("email", "email is required")
	}
	if err := validate.Var(emailAddr, "email"); err != nil {
		return "", invalidInput("email", "email is malformed")
	}
	return emailAddr, nil
}

func normalizeProfile(p domain.ProfileFields) (domain.ProfileFields, error) {
	out := domain.ProfileFields{
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
		Phone:     strings.TrimSpace(p.Phone),
		Address:   strings.TrimSpace(p.Address),
		City:      strings.TrimSpace(p.City),
		Country:   strings.TrimSpace(p.Country),
	}
	for field, value := range map[string]string{
		"first_name": out.FirstName,
		"last_name":  out.LastName,
		"phone":      out.Phone,
		"address":    out.Address,
		"city":       out.City,
		"country":    out.Country,
	} {
		if err := checkFieldLength(field, value); err != nil {
			return domain.ProfileFields{}, err
		}
	}
	return out, nil
}

func validateProfileUpdate(u domain.ProfileUpdate) error {
	for field, value := range map[string]*string{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"phone":      u.Phone,
		"address":    u.Address,
		"city":       u.City,
		"country":    u.Country,
	} {
		if value == nil {
			continue
		}
		*value = strings.TrimSpace(*value)
		if err := checkFieldLength(field, *value); err != nil {
			return err
		}
	}
	return nil
}

func checkFieldLength(field, value string) error {
	if utf8.RuneCountInString(value) > maxProfileFieldLength {
		return invalidInput(field, "value is too long")
	}
	return nil
}
