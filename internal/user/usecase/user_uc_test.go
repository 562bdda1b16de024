package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/grenier-labs/marketplace/internal/adapter/repository/mongodb"
	"github.com/grenier-labs/marketplace/internal/listing/domain"
	"github.com/grenier-labs/marketplace/internal/user/entity"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return mongodb.ErrDuplicateEmail
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return mongodb.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, mongodb.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, mongodb.ErrUserNotFound
}

type fakeAvatarStorage struct {
	mu        sync.Mutex
	publicIDs []string
	uploadErr error
}

func (s *fakeAvatarStorage) Upload(ctx context.Context, folder, publicID string, data []byte) (domain.ImageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return domain.ImageRef{}, s.uploadErr
	}
	s.publicIDs = append(s.publicIDs, publicID)
	return domain.ImageRef{
		URL:      "http://media.local/" + folder + "/" + publicID,
		PublicID: publicID,
	}, nil
}

func (s *fakeAvatarStorage) Delete(ctx context.Context, publicID string) error { return nil }

type fakeEvents struct {
	mu       sync.Mutex
	subjects []string
}

func (p *fakeEvents) Publish(ctx context.Context, subject string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func newUserFixture() (*UserUsecase, *fakeUserRepo, *fakeAvatarStorage, *fakeEvents) {
	repo := newFakeUserRepo()
	storage := &fakeAvatarStorage{}
	events := &fakeEvents{}
	uc := NewUserUsecase(repo, storage, events, "marketplace/profile_pictures", "test-secret", zap.NewNop())
	return uc, repo, storage, events
}

func TestRegister_Success(t *testing.T) {
	uc, repo, _, events := newUserFixture()

	registered, err := uc.Register(context.Background(), "camille", "camille@example.com", "s3cret", true, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, registered.ID)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "camille", registered.Account.Username)

	stored, err := repo.FindByID(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cret")))
	assert.Equal(t, []string{"user.registered"}, events.subjects)
}

func TestRegister_ValidationRejects(t *testing.T) {
	uc, _, _, _ := newUserFixture()

	_, err := uc.Register(context.Background(), "", "camille@example.com", "s3cret", false, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = uc.Register(context.Background(), "camille", "", "s3cret", false, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = uc.Register(context.Background(), "camille", "camille@example.com", "", false, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	uc, _, _, _ := newUserFixture()

	_, err := uc.Register(context.Background(), "camille", "camille@example.com", "s3cret", false, nil)
	require.NoError(t, err)

	_, err = uc.Register(context.Background(), "other", "camille@example.com", "different", false, nil)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_AvatarKeyedByUserID(t *testing.T) {
	uc, repo, storage, _ := newUserFixture()

	registered, err := uc.Register(context.Background(), "camille", "camille@example.com", "s3cret", false, []byte{0xff, 0xd8})
	require.NoError(t, err)

	require.Len(t, storage.publicIDs, 1)
	assert.Equal(t, registered.ID, storage.publicIDs[0])

	stored, err := repo.FindByID(context.Background(), registered.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Avatar)
	assert.Equal(t, registered.ID, stored.Avatar.PublicID)
}

func TestRegister_AvatarFailureStillRegisters(t *testing.T) {
	uc, repo, storage, _ := newUserFixture()
	storage.uploadErr = fmt.Errorf("bucket unreachable")

	registered, err := uc.Register(context.Background(), "camille", "camille@example.com", "s3cret", false, []byte{0xff, 0xd8})
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Avatar)
}

func TestLogin_Success(t *testing.T) {
	uc, _, _, _ := newUserFixture()
	_, err := uc.Register(context.Background(), "camille", "camille@example.com", "s3cret", false, nil)
	require.NoError(t, err)

	logged, err := uc.Login(context.Background(), "camille@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, logged.Token)
	assert.Equal(t, "camille", logged.Account.Username)
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	uc, _, _, _ := newUserFixture()
	_, err := uc.Register(context.Background(), "camille", "camille@example.com", "s3cret", false, nil)
	require.NoError(t, err)

	_, wrongPassword := uc.Login(context.Background(), "camille@example.com", "nope")
	_, unknownEmail := uc.Login(context.Background(), "nobody@example.com", "s3cret")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthenticate_RoundTrip(t *testing.T) {
	uc, _, _, _ := newUserFixture()
	registered, err := uc.Register(context.Background(), "camille", "camille@example.com", "s3cret", false, nil)
	require.NoError(t, err)

	user, err := uc.Authenticate(context.Background(), registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "camille", user.Username)
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	uc, _, _, _ := newUserFixture()
	registered, err := uc.Register(context.Background(), "camille", "camille@example.com", "s3cret", false, nil)
	require.NoError(t, err)

	_, err = uc.Authenticate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	other := NewUserUsecase(newFakeUserRepo(), &fakeAvatarStorage{}, &fakeEvents{}, "marketplace/profile_pictures", "other-secret", zap.NewNop())
	_, err = other.Authenticate(context.Background(), registered.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	uc, repo, _, _ := newUserFixture()
	registered, err := uc.Register(context.Background(), "camille", "camille@example.com", "s3cret", false, nil)
	require.NoError(t, err)

	repo.mu.Lock()
	delete(repo.users, registered.ID)
	repo.mu.Unlock()

	_, err = uc.Authenticate(context.Background(), registered.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
