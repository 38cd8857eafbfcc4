package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	appctx "stockbook/internal/core/context"
	"stockbook/internal/core/id"
)

type memUserRepo struct {
	users map[string]*User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*User)}
}

func (r *memUserRepo) Create(_ context.Context, user *User) error {
	cp := *user
	r.users[user.ID.String()] = &cp
	return nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByID(_ context.Context, userID id.ID) (*User, error) {
	u, ok := r.users[userID.String()]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) ListByTenant(_ context.Context, tenantID string) ([]User, error) {
	var out []User
	for _, u := range r.users {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUserRepo) Update(_ context.Context, user *User) error {
	cp := *user
	r.users[user.ID.String()] = &cp
	return nil
}

func newTestService() (*Service, *memUserRepo) {
	repo := newMemUserRepo()
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	return NewService(repo, jwtSvc, DefaultServiceConfig()), repo
}

func TestRegister_CreatesTenantOwner(t *testing.T) {
	svc, _ := newTestService()

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "owner@example.com",
		Password: "s3cret-pass",
		Name:     "Owner",
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), user.TenantID)
	assert.True(t, user.HasRole(RoleAdmin))
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "owner@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "owner@example.com", Password: "another-pass"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))
}

func TestRegister_ValidatesInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "not-an-email", Password: "s3cret-pass"})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.Register(ctx, RegisterRequest{Email: "owner@example.com", Password: "short"})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestLogin_RoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{Email: "owner@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, Credentials{Email: "owner@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "Bearer", token.TokenType)

	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	uc, err := jwtSvc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID.String(), uc.UserID)
	assert.Equal(t, registered.TenantID, uc.TenantID)
	assert.True(t, uc.IsAdmin)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "owner@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, Credentials{Email: "owner@example.com", Password: "wrong-pass"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthenticated))
}

func TestValidateToken_WrongSecret(t *testing.T) {
	signer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	user := &User{ID: id.New(), TenantID: "tenant-a", Email: "a@example.com", Roles: []string{RoleStaff}}
	tokenString, _, err := signer.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestAddStaff_JoinsCallerTenant(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	owner, err := svc.Register(ctx, RegisterRequest{Email: "owner@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	adminCtx := appctx.WithUser(ctx, &appctx.UserContext{
		UserID:   owner.ID.String(),
		TenantID: owner.TenantID,
		Roles:    []string{RoleAdmin},
		IsAdmin:  true,
	})

	staff, err := svc.AddStaff(adminCtx, RegisterRequest{Email: "staff@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, owner.TenantID, staff.TenantID)
	assert.True(t, staff.HasRole(RoleStaff))
	assert.False(t, staff.HasRole(RoleAdmin))
}

func TestDeactivate_ScopedToTenant(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	owner, err := svc.Register(ctx, RegisterRequest{Email: "owner@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	outsider, err := svc.Register(ctx, RegisterRequest{Email: "other@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	adminCtx := appctx.WithUser(ctx, &appctx.UserContext{
		UserID:   owner.ID.String(),
		TenantID: owner.TenantID,
		Roles:    []string{RoleAdmin},
	})

	err = svc.Deactivate(adminCtx, outsider.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	err = svc.Deactivate(adminCtx, owner.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}
