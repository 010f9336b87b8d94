package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"roastery-backend/internal/domains/user"
	"roastery-backend/internal/infrastructure/metrics"
	"roastery-backend/pkg/cache"
	"roastery-backend/pkg/jwt"
)

// Options điều chỉnh hành vi của userService
type Options struct {
	BcryptCost       int
	MaxFailedLogins  int64
	FailedLoginAfter time.Duration
}

func (o *Options) setDefaults() {
	if o.BcryptCost == 0 {
		o.BcryptCost = 12
	}
	if o.MaxFailedLogins == 0 {
		o.MaxFailedLogins = 5
	}
	if o.FailedLoginAfter == 0 {
		o.FailedLoginAfter = 15 * time.Minute
	}
}

// userService implement user.Service interface
type userService struct {
	repo    user.Repository
	tokens  *jwt.Manager
	cache   cache.Cache
	metrics *metrics.Metrics
	opts    Options

	// hash giả để so sánh khi email không tồn tại, giữ thời gian phản hồi đồng đều
	dummyHash []byte
}

func NewUserService(repo user.Repository, tokens *jwt.Manager, c cache.Cache, m *metrics.Metrics, opts Options) user.Service {
	opts.setDefaults()
	dummy, _ := bcrypt.GenerateFromPassword([]byte("roastery-dummy-password"), opts.BcryptCost)
	return &userService{
		repo:      repo,
		tokens:    tokens,
		cache:     c,
		metrics:   m,
		opts:      opts,
		dummyHash: dummy,
	}
}

// ========================================
// SESSION AUTHORITY
// ========================================

// Issue xác thực email/password và ký session token
func (s *userService) Issue(ctx context.Context, email, password string) (*user.SessionToken, *user.User, error) {
	email = user.NormalizeEmail(email)

	// 1. RATE LIMIT theo email
	if s.tooManyFailures(ctx, email) {
		s.metrics.SessionDecision("issue", "locked")
		return nil, nil, user.ErrTooManyAttempts
	}

	// 2. FIND USER
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			return nil, nil, fmt.Errorf("find user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.recordFailure(ctx, email)
		s.metrics.SessionDecision("issue", "invalid_credentials")
		return nil, nil, user.ErrInvalidCredentials
	}

	// 3. VERIFY PASSWORD trước, rồi mới check active
	// để không lộ trạng thái tài khoản cho người không có mật khẩu
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(ctx, email)
		s.metrics.SessionDecision("issue", "invalid_credentials")
		return nil, nil, user.ErrInvalidCredentials
	}

	if !u.IsActive {
		s.metrics.SessionDecision("issue", "inactive")
		return nil, nil, user.ErrAccountInactive
	}

	// 4. SIGN TOKEN
	token, expiresAt, err := s.tokens.GenerateSessionToken(u.ID.String(), u.Email, u.Role.String())
	if err != nil {
		return nil, nil, fmt.Errorf("sign session token: %w", err)
	}

	s.clearFailures(ctx, email)

	// 5. LAST LOGIN (best effort)
	if err := s.repo.UpdateLastLogin(ctx, u.ID); err != nil {
		log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("failed to record last login")
	}

	s.metrics.SessionDecision("issue", "ok")
	return &user.SessionToken{Token: token, ExpiresAt: expiresAt}, u, nil
}

// Verify kiểm tra chữ ký + expiry, rồi đọc lại user từ store.
// Role trả về là role hiện tại trong DB, không phải role trong token.
func (s *userService) Verify(ctx context.Context, token string) (*user.Principal, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		s.metrics.SessionDecision("verify", "invalid_token")
		return nil, user.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		s.metrics.SessionDecision("verify", "invalid_token")
		return nil, user.ErrInvalidToken
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.metrics.SessionDecision("verify", "invalid_token")
			return nil, user.ErrInvalidToken
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}

	if !u.IsActive {
		s.metrics.SessionDecision("verify", "inactive")
		return nil, user.ErrAccountInactive
	}

	s.metrics.SessionDecision("verify", "ok")
	return u.Principal(), nil
}

// Authorize = Verify + role membership
func (s *userService) Authorize(ctx context.Context, token string, allowed ...user.Role) (*user.Principal, error) {
	p, err := s.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	if !p.Role.In(allowed...) {
		s.metrics.SessionDecision("authorize", "forbidden")
		return nil, user.ErrForbidden
	}
	return p, nil
}

// ========================================
// FAILED LOGIN TRACKING
// ========================================
// Redis lỗi thì bỏ qua: không chặn login chỉ vì cache down

func failedLoginKey(email string) string {
	return "failed_login:" + email
}

func (s *userService) tooManyFailures(ctx context.Context, email string) bool {
	if s.cache == nil {
		return false
	}
	var count int64
	found, err := s.cache.Get(ctx, failedLoginKey(email), &count)
	if err != nil {
		log.Warn().Err(err).Msg("failed login counter unavailable")
		return false
	}
	return found && count >= s.opts.MaxFailedLogins
}

func (s *userService) recordFailure(ctx context.Context, email string) {
	if s.cache == nil {
		return
	}
	key := failedLoginKey(email)
	n, err := s.cache.Increment(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("failed to increment failed login counter")
		return
	}
	if n == 1 {
		if err := s.cache.Expire(ctx, key, s.opts.FailedLoginAfter); err != nil {
			log.Warn().Err(err).Msg("failed to set failed login window")
		}
	}
}

func (s *userService) clearFailures(ctx context.Context, email string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, failedLoginKey(email)); err != nil {
		log.Warn().Err(err).Msg("failed to clear failed login counter")
	}
}

// ========================================
// ACCOUNTS
// ========================================

// Register - customer self-registration
func (s *userService) Register(ctx context.Context, req user.RegisterRequest) (*user.UserDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        user.NormalizeEmail(req.Email),
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         user.RoleCustomer,
		IsActive:     true,
	}

	// unique index bắt email trùng, kể cả race giữa 2 request
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", u.ID.String()).Msg("customer registered")
	dto := u.ToDTO()
	return &dto, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*user.UserDTO, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := u.ToDTO()
	return &dto, nil
}

// ========================================
// ADMIN FUNCTIONS
// ========================================

func (s *userService) ListUsers(ctx context.Context, req user.ListUsersRequest) (*user.ListUsersResponse, error) {
	req.SetDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	users, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	dtos := make([]user.UserDTO, len(users))
	for i := range users {
		dtos[i] = users[i].ToDTO()
	}
	return &user.ListUsersResponse{Users: dtos, Total: total}, nil
}

// UpdateUserRole - thay đổi có hiệu lực ở Verify kế tiếp
func (s *userService) UpdateUserRole(ctx context.Context, actorID, userID uuid.UUID, role user.Role) error {
	if !role.IsValid() {
		return user.ErrInvalidRole
	}
	if actorID == userID {
		return user.ErrSelfModification
	}
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return err
	}

	log.Info().
		Str("actor_id", actorID.String()).
		Str("user_id", userID.String()).
		Str("role", role.String()).
		Msg("user role updated")
	return nil
}

// SetUserActive - deactivate là cách thu hồi session: Verify đọc lại is_active
func (s *userService) SetUserActive(ctx context.Context, actorID, userID uuid.UUID, active bool) error {
	if actorID == userID {
		return user.ErrSelfModification
	}
	if err := s.repo.UpdateStatus(ctx, userID, active); err != nil {
		return err
	}

	log.Info().
		Str("actor_id", actorID.String()).
		Str("user_id", userID.String()).
		Bool("is_active", active).
		Msg("user status updated")
	return nil
}

// EnsureAdmin tạo tài khoản admin từ config (BOOTSTRAP_ADMIN_*) nếu email chưa có.
// Account đã tồn tại được giữ nguyên, kể cả khi đang bị deactivate.
func (s *userService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Administrator",
	}
	created, err := s.repo.CreateAdminIfAbsent(ctx, u)
	if err != nil {
		return err
	}
	if !created {
		log.Warn().Msg("bootstrap admin email already registered, account left unchanged")
		return nil
	}

	log.Info().Str("user_id", u.ID.String()).Msg("bootstrap admin created")
	return nil
}
