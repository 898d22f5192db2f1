package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jhoicas/invoicing-api/internal/application/auth"
	"github.com/jhoicas/invoicing-api/internal/application/dto"
	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres/postgrestest"
	pkgjwt "github.com/jhoicas/invoicing-api/pkg/jwt"
)

var testJWT = auth.JWTConfig{Secret: "test-secret", ExpMinutes: 60, Issuer: "invoicing-test"}

func newAuth(t *testing.T) (*auth.AuthUseCase, *gorm.DB) {
	t.Helper()
	db := postgrestest.Open(t, nil)
	uc := auth.NewAuthUseCase(
		postgres.NewTxRunner(db),
		postgres.NewUserRepository(db),
		postgres.NewTenantRepository(db),
		testJWT,
	)
	return uc, db
}

func countTenants(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table("tenants").Count(&n).Error)
	return n
}

func TestSignup_CreaTenantYUsuario(t *testing.T) {
	uc, _ := newAuth(t)
	ctx := context.Background()

	s, err := uc.Signup(ctx, dto.SignupRequest{Email: "  Ana@Acme.COM ", Password: "secreta123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@acme.com", s.User.Email)
	require.NotNil(t, s.Tenant)
	assert.Equal(t, "ana", s.Tenant.Name)
	assert.Regexp(t, `^[a-z0-9]{8}$`, s.Tenant.Subdomain)
	assert.Equal(t, s.Tenant.ID, s.User.TenantID)

	userID, tenantID, err := pkgjwt.Parse(testJWT.Secret, s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, userID)
	assert.Equal(t, s.Tenant.ID, tenantID)
}

func TestSignup_EmailRepetidoNoDejaTenantHuerfano(t *testing.T) {
	uc, db := newAuth(t)
	ctx := context.Background()

	_, err := uc.Signup(ctx, dto.SignupRequest{Email: "ana@acme.com", Password: "secreta123", Subdomain: "acme"})
	require.NoError(t, err)
	before := countTenants(t, db)

	_, err = uc.Signup(ctx, dto.SignupRequest{Email: "ANA@acme.com", Password: "otra-clave", Subdomain: "globex"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	assert.Equal(t, before, countTenants(t, db), "el tenant debe revertirse junto con el usuario")
}

func TestSignup_SubdominioPedidoYaUsado(t *testing.T) {
	uc, _ := newAuth(t)
	ctx := context.Background()

	_, err := uc.Signup(ctx, dto.SignupRequest{Email: "ana@acme.com", Password: "secreta123", Subdomain: "acme"})
	require.NoError(t, err)

	_, err = uc.Signup(ctx, dto.SignupRequest{Email: "bob@acme.com", Password: "secreta123", Subdomain: "ACME"})
	assert.ErrorIs(t, err, domain.ErrSubdomainTaken)
}

func TestSignup_Validaciones(t *testing.T) {
	uc, db := newAuth(t)
	ctx := context.Background()

	cases := map[string]dto.SignupRequest{
		"email vacío":                {Email: "", Password: "secreta123"},
		"email sin arroba":           {Email: "ana.acme.com", Password: "secreta123"},
		"email con nombre":           {Email: "Ana <ana@acme.com>", Password: "secreta123"},
		"contraseña corta":           {Email: "ana@acme.com", Password: "1234567"},
		"contraseña vacía":           {Email: "ana@acme.com", Password: ""},
		"subdominio con punto":       {Email: "ana@acme.com", Password: "secreta123", Subdomain: "a.b"},
		"subdominio con espacio":     {Email: "ana@acme.com", Password: "secreta123", Subdomain: "x y"},
		"subdominio con guion":       {Email: "ana@acme.com", Password: "secreta123", Subdomain: "-acme"},
		"subdominio reservado":       {Email: "ana@acme.com", Password: "secreta123", Subdomain: "www"},
		"subdominio demasiado largo": {Email: "ana@acme.com", Password: "secreta123", Subdomain: strings.Repeat("a", 64)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Signup(ctx, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Zero(t, countTenants(t, db))
}

func TestLogin(t *testing.T) {
	uc, _ := newAuth(t)
	ctx := context.Background()

	created, err := uc.Signup(ctx, dto.SignupRequest{Email: "ana@acme.com", Password: "secreta123", TenantName: "Acme"})
	require.NoError(t, err)

	s, err := uc.Login(ctx, dto.LoginRequest{Email: " ANA@Acme.com", Password: "secreta123"})
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, s.User.ID)
	assert.Equal(t, "Acme", s.Tenant.Name)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@acme.com", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@acme.com", Password: "secreta123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSignup_SubdominioEtiquetaDNS(t *testing.T) {
	uc, _ := newAuth(t)
	ctx := context.Background()

	s, err := uc.Signup(ctx, dto.SignupRequest{Email: "ana@acme.com", Password: "secreta123", Subdomain: " Acme-2 "})
	require.NoError(t, err)
	assert.Equal(t, "acme-2", s.Tenant.Subdomain)

	s, err = uc.Signup(ctx, dto.SignupRequest{Email: "bob@acme.com", Password: "secreta123", Subdomain: strings.Repeat("b", 63)})
	require.NoError(t, err)
	assert.Len(t, s.Tenant.Subdomain, 63)
}

func TestLogin_EmailDesconocidoComparaIgualQueUnoExistente(t *testing.T) {
	uc, _ := newAuth(t)
	ctx := context.Background()

	_, err := uc.Signup(ctx, dto.SignupRequest{Email: "ana@acme.com", Password: "secreta123"})
	require.NoError(t, err)

	var hashes [][]byte
	auth.SetCompare(uc, func(hash, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	})

	_, errKnown := uc.Login(ctx, dto.LoginRequest{Email: "ana@acme.com", Password: "incorrecta"})
	_, errUnknown := uc.Login(ctx, dto.LoginRequest{Email: "nadie@acme.com", Password: "incorrecta"})
	assert.ErrorIs(t, errKnown, domain.ErrUnauthorized)
	assert.ErrorIs(t, errUnknown, domain.ErrUnauthorized)
	assert.Equal(t, errKnown.Error(), errUnknown.Error())

	require.Len(t, hashes, 2, "bcrypt corre también cuando el email no existe")
	costKnown, err := bcrypt.Cost(hashes[0])
	require.NoError(t, err)
	costUnknown, err := bcrypt.Cost(hashes[1])
	require.NoError(t, err)
	assert.Equal(t, costKnown, costUnknown)
	assert.Equal(t, auth.PasswordCost, costUnknown)
}

func TestSession(t *testing.T) {
	uc, _ := newAuth(t)
	ctx := context.Background()

	created, err := uc.Signup(ctx, dto.SignupRequest{Email: "ana@acme.com", Password: "secreta123"})
	require.NoError(t, err)

	s, err := uc.Session(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, s.UserID)
	assert.Equal(t, created.Tenant.ID, s.TenantID)
	assert.Equal(t, "ana@acme.com", s.Email)

	_, err = uc.Session(ctx, "no-es-un-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	forged, err := pkgjwt.Generate(testJWT.Secret, created.User.ID, "99999999-0000-0000-0000-000000000000", testJWT.Issuer, 60)
	require.NoError(t, err)
	_, err = uc.Session(ctx, forged)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "un tenant inexistente invalida la sesión")
}
