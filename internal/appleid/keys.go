// Package appleid はSign in with AppleのIDトークンを検証する。
//
// ログインのたびにAppleの公開鍵セットを取得し（キャッシュしない）、
// ヘッダーのkidに一致する鍵でRS256署名・発行者・受信者・有効期限を検証する。
// 一致しない鍵での検証が成功してしまう場合は検証器の異常とみなして拒否する。
package appleid

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
)

// DefaultKeysURL はAppleの公開鍵セットのエンドポイント。
const DefaultKeysURL = "https://appleid.apple.com/auth/keys"

// maxKeySetSize は鍵セットのレスポンスサイズ上限（1MB）。
const maxKeySetSize = 1 << 20

// Key はJWKS形式の公開鍵1件。nとeはパディングなしbase64url。
type Key struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// KeySet は鍵エンドポイントのレスポンス。
type KeySet struct {
	Keys []Key `json:"keys"`
}

// Find はkidに一致する鍵を返す。
func (s *KeySet) Find(kid string) (Key, bool) {
	for _, k := range s.Keys {
		if k.Kid == kid {
			return k, true
		}
	}
	return Key{}, false
}

// FirstOther はkidと異なる最初の鍵を返す。
func (s *KeySet) FirstOther(kid string) (Key, bool) {
	for _, k := range s.Keys {
		if k.Kid != kid {
			return k, true
		}
	}
	return Key{}, false
}

// PublicKey はnとeからRSA公開鍵を復元する。
func (k Key) PublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "" && k.Kty != "RSA" {
		return nil, NewError(KindDecodeComponent, fmt.Errorf("unsupported key type %q", k.Kty))
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, NewError(KindDecodeComponent, fmt.Errorf("failed to decode modulus: %w", err))
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, NewError(KindDecodeComponent, fmt.Errorf("failed to decode exponent: %w", err))
	}
	if len(nBytes) == 0 || len(eBytes) == 0 {
		return nil, NewError(KindDecodeComponent, errors.New("empty key component"))
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() > int64(^uint32(0)>>1) {
		return nil, NewError(KindDecodeComponent, errors.New("exponent out of range"))
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}

// HTTPClient は鍵取得に使うHTTPクライアント。*http.Clientが満たす。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// KeyFetcher はAppleの公開鍵セットを取得する。
type KeyFetcher struct {
	client HTTPClient
	url    string
}

// NewKeyFetcher はKeyFetcherを生成する。urlが空の場合はDefaultKeysURLを使う。
func NewKeyFetcher(client HTTPClient, url string) *KeyFetcher {
	if url == "" {
		url = DefaultKeysURL
	}
	return &KeyFetcher{client: client, url: url}
}

// FetchKeys は鍵セットを取得する。
// 通信失敗と200以外のステータスはKindFetchKeys、JSONとして読めない場合はKindDeserializeJSON。
func (f *KeyFetcher) FetchKeys(ctx context.Context) (*KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, NewError(KindFetchKeys, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, NewError(KindFetchKeys, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewError(KindFetchKeys, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeySetSize))
	if err != nil {
		return nil, NewError(KindFetchKeys, fmt.Errorf("failed to read response: %w", err))
	}

	var set KeySet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, NewError(KindDeserializeJSON, err)
	}
	return &set, nil
}
