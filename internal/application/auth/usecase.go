package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/invoicing-api/internal/application/dto"
	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
	"github.com/jhoicas/invoicing-api/internal/domain/repository"
	"github.com/jhoicas/invoicing-api/pkg/jwt"
)

const (
	// PasswordCost costo bcrypt de las contraseñas.
	PasswordCost = 10
	// MinPasswordLength largo mínimo de contraseña.
	MinPasswordLength = 8

	subdomainAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	subdomainLength   = 8
	subdomainAttempts = 3
)

// subdomainRe una sola etiqueta DNS en minúsculas: sin puntos ni espacios, sin guion al inicio o al final.
var subdomainRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// dummyHash se compara cuando el email no existe: Login hace el mismo trabajo bcrypt exista o no la cuenta.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("cuenta-inexistente"), PasswordCost)
	if err != nil {
		panic(fmt.Sprintf("hash de referencia: %v", err))
	}
	return h
})

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// SignupTxRunner ejecuta el alta de tenant y usuario en una sola transacción.
// Si fn devuelve error se revierte todo.
type SignupTxRunner interface {
	RunSignup(ctx context.Context, fn func(tenantRepo repository.TenantRepository, userRepo repository.UserRepository) error) error
}

// Session sesión validada de un request.
type Session struct {
	UserID   string
	TenantID string
	Email    string
	Tenant   *entity.Tenant
}

// AuthUseCase casos de uso de autenticación: registro, login y validación de sesión.
type AuthUseCase struct {
	tx      SignupTxRunner
	users   repository.UserRepository
	tenants repository.TenantRepository
	jwtCfg  JWTConfig
	compare func(hash, password []byte) error
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(tx SignupTxRunner, users repository.UserRepository, tenants repository.TenantRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{tx: tx, users: users, tenants: tenants, jwtCfg: jwtCfg, compare: bcrypt.CompareHashAndPassword}
}

// Signup crea un tenant y su primer usuario de forma atómica y devuelve la sesión.
// Email repetido: domain.ErrEmailAlreadyExists. Subdominio pedido ya usado: domain.ErrSubdomainTaken.
func (uc *AuthUseCase) Signup(ctx context.Context, in dto.SignupRequest) (*dto.SessionResponse, error) {
	email := entity.NormalizeEmail(in.Email)
	if err := validateCredentials(email, in.Password); err != nil {
		return nil, err
	}
	subdomain := strings.ToLower(strings.TrimSpace(in.Subdomain))
	generated := subdomain == ""
	if !generated {
		if err := validateSubdomain(subdomain); err != nil {
			return nil, err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	name := strings.TrimSpace(in.TenantName)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	var tenant *entity.Tenant
	var user *entity.User
	for attempt := 1; ; attempt++ {
		if generated {
			if subdomain, err = randomSubdomain(); err != nil {
				return nil, err
			}
		}
		tenant = &entity.Tenant{Name: name, Subdomain: subdomain}
		user = &entity.User{Email: email, PasswordHash: string(hash)}

		err = uc.tx.RunSignup(ctx, func(tenantRepo repository.TenantRepository, userRepo repository.UserRepository) error {
			if err := tenantRepo.Create(ctx, tenant); err != nil {
				return err
			}
			return userRepo.Create(ctx, tenant.ID, user)
		})
		// Un subdominio aleatorio repetido se reintenta con otro; uno pedido por el usuario no.
		if generated && errors.Is(err, domain.ErrSubdomainTaken) && attempt < subdomainAttempts {
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}
	return uc.session(user, tenant)
}

// Login verifica email y contraseña. Usuario inexistente y contraseña incorrecta dan el mismo error.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.SessionResponse, error) {
	user, err := uc.users.FindByEmail(ctx, entity.NormalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = uc.compare(dummyHash(), []byte(in.Password))
		return nil, fmt.Errorf("%w: credenciales inválidas", domain.ErrUnauthorized)
	}
	if err := uc.compare([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, fmt.Errorf("%w: credenciales inválidas", domain.ErrUnauthorized)
	}
	tenant, err := uc.tenants.GetByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, fmt.Errorf("%w: credenciales inválidas", domain.ErrUnauthorized)
	}
	return uc.session(user, tenant)
}

// Session valida el token y vuelve a comprobar que el tenant y el usuario existen.
func (uc *AuthUseCase) Session(ctx context.Context, token string) (*Session, error) {
	userID, tenantID, err := jwt.Parse(uc.jwtCfg.Secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	tenant, err := uc.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, fmt.Errorf("%w: el tenant de la sesión no existe", domain.ErrUnauthorized)
	}
	user, err := uc.users.GetByID(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: el usuario de la sesión no existe", domain.ErrUnauthorized)
		}
		return nil, err
	}
	return &Session{UserID: user.ID, TenantID: tenant.ID, Email: user.Email, Tenant: tenant}, nil
}

func (uc *AuthUseCase) session(user *entity.User, tenant *entity.Tenant) (*dto.SessionResponse, error) {
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, tenant.ID, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{
		Token: token,
		User: dto.UserResponse{
			ID:        user.ID,
			TenantID:  tenant.ID,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
		Tenant: &dto.TenantResponse{ID: tenant.ID, Name: tenant.Name, Subdomain: tenant.Subdomain},
	}, nil
}

func validateCredentials(email, password string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email inválido", domain.ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: la contraseña debe tener al menos %d caracteres", domain.ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// validateSubdomain exige una etiqueta DNS que SubdomainOf pueda resolver; www queda reservado.
func validateSubdomain(subdomain string) error {
	if !subdomainRe.MatchString(subdomain) || subdomain == "www" {
		return fmt.Errorf("%w: subdomain debe ser una etiqueta DNS (a-z, 0-9 y guion, máx. 63)", domain.ErrInvalidInput)
	}
	return nil
}

func randomSubdomain() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(subdomainAlphabet)))
	for i := 0; i < subdomainLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("subdominio aleatorio: %w", err)
		}
		b.WriteByte(subdomainAlphabet[n.Int64()])
	}
	return b.String(), nil
}
