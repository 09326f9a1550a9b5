package appleid

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuer はAppleが発行するIDトークンのiss。
const DefaultIssuer = "https://appleid.apple.com"

// Claims は検証済みIDトークンのクレーム。SubjectがAppleのユーザー識別子。
type Claims struct {
	Email string `json:"email"`
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// Credentials はクライアントから送られるログイン資格情報。
type Credentials struct {
	AuthorizationCode string
	IdentityToken     string
	Nonce             string
	User              string
}

// Verifier はIDトークンの署名とクレームを検証する。
type Verifier struct {
	issuer   string
	audience string
	now      func() time.Time
}

// NewVerifier はVerifierを生成する。audienceはAppleに登録したクライアントID。
func NewVerifier(issuer, audience string) *Verifier {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Verifier{issuer: issuer, audience: audience, now: time.Now}
}

// Verify はトークンを鍵セットで検証し、クレームを返す。
//
//  1. 署名を検証せずにヘッダーを読み、kidを取り出す
//  2. kidに一致する鍵を探す
//  3. 一致しない鍵が他にあれば、それで検証が失敗することを確認する
//  4. 一致する鍵でRS256署名・iss・aud・expを検証する
func (v *Verifier) Verify(token string, keys *KeySet) (*Claims, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(token, &Claims{})
	if err != nil {
		return nil, NewError(KindDecodeJWT, err)
	}

	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, ErrNoKid
	}

	matching, ok := keys.Find(kid)
	if !ok {
		return nil, ErrNoMatchingKid
	}

	if other, ok := keys.FirstOther(kid); ok {
		otherKey, err := other.PublicKey()
		if err != nil {
			return nil, err
		}
		if _, err := v.parse(token, otherKey); err == nil {
			return nil, ErrInvalidKeySucceeded
		}
	}

	matchingKey, err := matching.PublicKey()
	if err != nil {
		return nil, err
	}

	claims, err := v.parse(token, matchingKey)
	if err != nil {
		return nil, NewError(KindMatchingKeyFailed, err)
	}
	return claims, nil
}

func (v *Verifier) parse(token string, key any) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}

// ValidateNonce は検証済みクレームのnonceがクライアントの送ったnonceと一致することを確認する。
func ValidateNonce(claims *Claims, nonce string) error {
	if claims == nil || claims.Nonce == "" {
		return NewError(KindInvalidNonce, errors.New("nonce claim is missing"))
	}
	if subtle.ConstantTimeCompare([]byte(claims.Nonce), []byte(nonce)) != 1 {
		return NewError(KindInvalidNonce, errors.New("nonce mismatch"))
	}
	return nil
}
