package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"asset-portal/internal/domain"
	"asset-portal/internal/repository"
)

type mockIdentityRepo struct {
	mu           sync.Mutex
	byID         map[string]domain.Identity
	byEmail      map[string]string
	err          error
	updateCalls  int
	passwordSets int
}

func newMockIdentityRepo() *mockIdentityRepo {
	return &mockIdentityRepo{
		byID:    make(map[string]domain.Identity),
		byEmail: make(map[string]string),
	}
}

func (m *mockIdentityRepo) Create(_ context.Context, identity domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	key := strings.ToLower(identity.Email)
	if _, ok := m.byEmail[key]; ok {
		return repository.ErrDuplicateEmail
	}
	m.byID[identity.ID] = identity
	m.byEmail[key] = identity.ID
	return nil
}

func (m *mockIdentityRepo) GetByID(_ context.Context, id string) (domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Identity{}, m.err
	}
	identity, ok := m.byID[id]
	if !ok {
		return domain.Identity{}, pgx.ErrNoRows
	}
	return identity, nil
}

func (m *mockIdentityRepo) GetByEmail(ctx context.Context, email string) (domain.Identity, error) {
	m.mu.Lock()
	id, ok := m.byEmail[strings.ToLower(email)]
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return domain.Identity{}, err
	}
	if !ok {
		return domain.Identity{}, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

func (m *mockIdentityRepo) UpdateProfile(_ context.Context, identity domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	stored, ok := m.byID[identity.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	identity.PasswordHash = stored.PasswordHash
	m.byID[identity.ID] = identity
	m.updateCalls++
	return nil
}

func (m *mockIdentityRepo) UpdatePasswordHash(_ context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	stored, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.PasswordHash = passwordHash
	stored.UpdatedAt = updatedAt
	m.byID[id] = stored
	m.passwordSets++
	return nil
}

type mockSender struct {
	lastTo string
	lastAt time.Time
	calls  int
	err    error
}

func (m *mockSender) SendPasswordChanged(_ context.Context, toEmail string, changedAt time.Time) error {
	m.calls++
	m.lastTo = toEmail
	m.lastAt = changedAt
	return m.err
}

func newTestCredentialStore(repo repository.IdentityRepository, sender *mockSender) *CredentialStore {
	if sender == nil {
		sender = &mockSender{}
	}
	return NewCredentialStore(zap.NewNop(), repo, NewBcryptHasher(bcrypt.MinCost), DefaultPasswordPolicy(), sender)
}

func createAlice(t *testing.T, store *CredentialStore) domain.Identity {
	t.Helper()
	identity, err := store.CreateIdentity(context.Background(), CreateIdentityInput{
		Email:    "alice@example.com",
		Password: "Secret#123",
		Profile:  domain.ProfileFields{FirstName: " Alice ", LastName: "Doe", Country: "PT"},
	})
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	return identity
}

func TestCredentialStore_CreateThenFindByEmail(t *testing.T) {
	repo := newMockIdentityRepo()
	store := newTestCredentialStore(repo, nil)

	created := createAlice(t, store)
	if created.PasswordHash != "" {
		t.Fatalf("expected returned identity without hash")
	}
	if created.Role != domain.RoleClient {
		t.Fatalf("expected client role, got %q", created.Role)
	}
	if created.FirstName != "Alice" {
		t.Fatalf("expected trimmed first name, got %q", created.FirstName)
	}

	stored, err := store.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "Secret#123" {
		t.Fatalf("expected a hash distinct from the plaintext, got %q", stored.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Secret#123")); err != nil {
		t.Fatalf("expected hash to verify against original password: %v", err)
	}
}

func TestCredentialStore_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	store := newTestCredentialStore(newMockIdentityRepo(), nil)
	createAlice(t, store)

	for _, email := range []string{"alice@example.com", "ALICE@Example.com", "  Alice@example.COM "} {
		_, err := store.CreateIdentity(context.Background(), CreateIdentityInput{Email: email, Password: "Other#456"})
		if !errors.Is(err, ErrDuplicateIdentity) {
			t.Fatalf("expected ErrDuplicateIdentity for %q, got %v", email, err)
		}
	}
}

func TestCredentialStore_CreateRejectsInvalidInput(t *testing.T) {
	store := newTestCredentialStore(newMockIdentityRepo(), nil)

	cases := []struct {
		name  string
		input CreateIdentityInput
		field string
	}{
		{name: "missing email", input: CreateIdentityInput{Password: "Secret#123"}, field: "email"},
		{name: "malformed email", input: CreateIdentityInput{Email: "not-an-email", Password: "Secret#123"}, field: "email"},
		{name: "short password", input: CreateIdentityInput{Email: "a@example.com", Password: "S#1"}, field: "password"},
		{name: "letters only", input: CreateIdentityInput{Email: "a@example.com", Password: "Secretpassword"}, field: "password"},
		{name: "too long field", input: CreateIdentityInput{
			Email:    "a@example.com",
			Password: "Secret#123",
			Profile:  domain.ProfileFields{City: strings.Repeat("x", 201)},
		}, field: "city"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.CreateIdentity(context.Background(), tc.input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var inputErr *InputError
			if !errors.As(err, &inputErr) || inputErr.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestCredentialStore_StoreFailureIsUnavailable(t *testing.T) {
	repo := newMockIdentityRepo()
	repo.err = errors.New("connection refused")
	store := newTestCredentialStore(repo, nil)

	_, err := store.CreateIdentity(context.Background(), CreateIdentityInput{Email: "a@example.com", Password: "Secret#123"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on create, got %v", err)
	}
	if _, err := store.FindByID(context.Background(), "id"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on find, got %v", err)
	}
	if _, err := store.Authenticate(context.Background(), "a@example.com", "Secret#123"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on authenticate, got %v", err)
	}
}

func TestCredentialStore_FindByEmailIsIdempotent(t *testing.T) {
	store := newTestCredentialStore(newMockIdentityRepo(), nil)
	createAlice(t, store)

	first, err := store.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	second, err := store.FindByEmail(context.Background(), "ALICE@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical records, got %+v and %+v", first, second)
	}
}

func TestCredentialStore_FindByIDHidesHash(t *testing.T) {
	store := newTestCredentialStore(newMockIdentityRepo(), nil)
	created := createAlice(t, store)

	found, err := store.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if found.PasswordHash != "" {
		t.Fatalf("expected hash to be hidden")
	}
	if _, err := store.FindByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCredentialStore_Authenticate(t *testing.T) {
	store := newTestCredentialStore(newMockIdentityRepo(), nil)
	created := createAlice(t, store)

	identity, err := store.Authenticate(context.Background(), "Alice@Example.com", "Secret#123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.ID != created.ID || identity.PasswordHash != "" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	for _, tc := range []struct{ email, password string }{
		{"alice@example.com", "wrong#pass1"},
		{"nobody@example.com", "Secret#123"},
		{"", "Secret#123"},
		{"alice@example.com", ""},
	} {
		if _, err := store.Authenticate(context.Background(), tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for %q/%q, got %v", tc.email, tc.password, err)
		}
	}
}

func TestCredentialStore_UpdateProfilePartial(t *testing.T) {
	repo := newMockIdentityRepo()
	store := newTestCredentialStore(repo, nil)
	created := createAlice(t, store)

	phone := " +351 900 000 000 "
	updated, err := store.UpdateProfile(context.Background(), created.ID, domain.ProfileUpdate{Phone: &phone})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Phone != "+351 900 000 000" {
		t.Fatalf("expected trimmed phone, got %q", updated.Phone)
	}
	if updated.FirstName != "Alice" || updated.Country != "PT" {
		t.Fatalf("expected untouched fields preserved, got %+v", updated)
	}
	if updated.PasswordHash != "" {
		t.Fatalf("expected hash hidden")
	}

	stored, _ := repo.GetByID(context.Background(), created.ID)
	if stored.Phone != "+351 900 000 000" || stored.PasswordHash == "" {
		t.Fatalf("unexpected stored identity: %+v", stored)
	}
}

func TestCredentialStore_UpdateProfileNotFound(t *testing.T) {
	store := newTestCredentialStore(newMockIdentityRepo(), nil)
	name := "Bob"
	if _, err := store.UpdateProfile(context.Background(), "missing", domain.ProfileUpdate{FirstName: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCredentialStore_UpdateProfileEmptyIsNoop(t *testing.T) {
	repo := newMockIdentityRepo()
	store := newTestCredentialStore(repo, nil)
	created := createAlice(t, store)

	if _, err := store.UpdateProfile(context.Background(), created.ID, domain.ProfileUpdate{}); err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("expected no write for empty update, got %d", repo.updateCalls)
	}
}

func TestCredentialStore_UpdatePassword(t *testing.T) {
	repo := newMockIdentityRepo()
	sender := &mockSender{}
	store := newTestCredentialStore(repo, sender)
	created := createAlice(t, store)

	if err := store.UpdatePassword(context.Background(), created.ID, "wrong#pass1", "Newer#456"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong old password, got %v", err)
	}
	if repo.passwordSets != 0 {
		t.Fatalf("expected no write on wrong old password")
	}

	if err := store.UpdatePassword(context.Background(), created.ID, "Secret#123", "short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for weak new password, got %v", err)
	}
	if err := store.UpdatePassword(context.Background(), created.ID, "Secret#123", "Secret#123"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unchanged password, got %v", err)
	}

	if err := store.UpdatePassword(context.Background(), created.ID, "Secret#123", "Newer#456"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if _, err := store.Authenticate(context.Background(), "alice@example.com", "Secret#123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, err := store.Authenticate(context.Background(), "alice@example.com", "Newer#456"); err != nil {
		t.Fatalf("expected new password accepted, got %v", err)
	}
	if sender.calls != 1 || sender.lastTo != "alice@example.com" {
		t.Fatalf("expected one notice to alice, got %d to %q", sender.calls, sender.lastTo)
	}
}

func TestCredentialStore_UpdatePasswordSurvivesNoticeFailure(t *testing.T) {
	sender := &mockSender{err: errors.New("smtp down")}
	store := newTestCredentialStore(newMockIdentityRepo(), sender)
	created := createAlice(t, store)

	if err := store.UpdatePassword(context.Background(), created.ID, "Secret#123", "Newer#456"); err != nil {
		t.Fatalf("expected password change to succeed despite notice failure, got %v", err)
	}
}

func TestCredentialStore_UpdatePasswordUnknownIdentity(t *testing.T) {
	store := newTestCredentialStore(newMockIdentityRepo(), nil)
	if err := store.UpdatePassword(context.Background(), "missing", "Secret#123", "Newer#456"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
