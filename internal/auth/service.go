// Package auth はSign in with Appleによるログインと、セッショントークンによる認証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/mossy/internal/appleid"
	"github.com/hitoshi/mossy/internal/metrics"
	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
)

// KeyFetcher はIdPの公開鍵セットを取得する。
type KeyFetcher interface {
	FetchKeys(ctx context.Context) (*appleid.KeySet, error)
}

// TokenVerifier はIDトークンを鍵セットで検証する。
type TokenVerifier interface {
	Verify(token string, keys *appleid.KeySet) (*appleid.Claims, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	fetcher  KeyFetcher
	verifier TokenVerifier
	userRepo repository.UserRepository
	metrics  metrics.MetricsCollector

	now      func() time.Time
	newID    func() (string, error)
	newToken func() string
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	fetcher KeyFetcher,
	verifier TokenVerifier,
	userRepo repository.UserRepository,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		fetcher:  fetcher,
		verifier: verifier,
		userRepo: userRepo,
		metrics:  collector,
		now:      time.Now,
		newID:    model.NewID,
		newToken: uuid.NewString,
	}
}

// Login はIDトークンを検証し、セッショントークンを発行したユーザーを返す。
// 鍵取得 → 署名検証 → nonce照合 → ユーザーUPSERT の順に処理し、
// いずれかで失敗した場合は*appleid.CredentialsErrorを返す。
func (s *Service) Login(ctx context.Context, creds appleid.Credentials) (*model.User, error) {
	user, err := s.login(ctx, creds)
	if err != nil {
		kind := appleid.KindOf(err)
		s.metrics.RecordLoginFailure(string(kind))
		slog.Warn("login failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.metrics.RecordLoginSuccess()
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user, nil
}

func (s *Service) login(ctx context.Context, creds appleid.Credentials) (*model.User, error) {
	start := time.Now()
	keys, err := s.fetcher.FetchKeys(ctx)
	s.metrics.RecordKeyFetchLatency(time.Since(start))
	if err != nil {
		return nil, err
	}

	claims, err := s.verifier.Verify(creds.IdentityToken, keys)
	if err != nil {
		return nil, err
	}

	if err := appleid.ValidateNonce(claims, creds.Nonce); err != nil {
		return nil, err
	}

	// ユーザーの特定には検証済みのsubを使う。クライアント申告のuserは照合のみ
	if claims.Subject == "" {
		return nil, appleid.NewError(appleid.KindSubjectMismatch, errors.New("subject claim is missing"))
	}
	if creds.User != "" && creds.User != claims.Subject {
		return nil, appleid.NewError(appleid.KindSubjectMismatch, errors.New("user does not match subject claim"))
	}

	return s.Issue(ctx, claims.Subject, claims)
}

// Issue はsubject識別子でユーザーを原子的にUPSERTし、新しいセッショントークンを発行する。
// 新規ユーザーはクレームのemailと既定の表示設定で作成される。
// 既存ユーザーはトークンのみが差し替えられ、以前のトークンは無効になる。
func (s *Service) Issue(ctx context.Context, subject string, claims *appleid.Claims) (*model.User, error) {
	id, err := s.newID()
	if err != nil {
		return nil, appleid.NewError(appleid.KindDatabase, fmt.Errorf("failed to generate user ID: %w", err))
	}

	now := s.now()
	candidate := &model.User{
		ID:            id,
		AppleUserID:   subject,
		Token:         s.newToken(),
		IsAdmin:       false,
		Theme:         model.DefaultThemeSettings(),
		TokenIssuedAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if claims != nil {
		candidate.Email = claims.Email
	}

	user, err := s.userRepo.UpsertLogin(ctx, candidate)
	if err != nil {
		return nil, appleid.NewError(appleid.KindDatabase, err)
	}
	return user, nil
}

// Authenticate はAuthorizationヘッダーからユーザーを解決する。
// appleUserIDが空でない場合はsubject識別子でも絞り込む。
// 失敗時は*model.APIError（ヘッダー欠落、形式不正、未認証）または内部エラーを返す。
func (s *Service) Authenticate(ctx context.Context, header, appleUserID string) (*model.User, error) {
	token, err := ParseAuthorizationHeader(header)
	if err != nil {
		return nil, err
	}

	filter := repository.ByToken(token)
	if appleUserID != "" {
		filter = repository.ByTokenAndAppleUserID(token, appleUserID)
	}

	user, err := s.userRepo.FindByToken(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by token: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}

// ParseAuthorizationHeader は"<scheme> <token>"形式のヘッダーからトークンを取り出す。
// スペースで分割した2番目のフィールドをトークンとみなし、スキームは検査しない。
func ParseAuthorizationHeader(header string) (string, error) {
	if header == "" {
		return "", model.NewMissingAuthorizationError()
	}
	fields := strings.Split(header, " ")
	if len(fields) < 2 || fields[1] == "" {
		return "", model.NewMalformedAuthorizationError()
	}
	return fields[1], nil
}
