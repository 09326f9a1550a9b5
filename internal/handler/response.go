package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/mossy/internal/middleware"
	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
)

// maxRequestBodyBytes はリクエストボディの上限サイズ。
const maxRequestBodyBytes = 1 << 20

// insertResult は1件作成のAPIレスポンス。
type insertResult struct {
	InsertedID string `json:"inserted_id"`
}

// insertManyResult は複数件作成のAPIレスポンス。
type insertManyResult struct {
	InsertedIDs []string `json:"inserted_ids"`
}

// updateResult は更新のAPIレスポンス。
type updateResult struct {
	MatchedCount  int64 `json:"matched_count"`
	ModifiedCount int64 `json:"modified_count"`
}

// deleteResult は削除のAPIレスポンス。
type deleteResult struct {
	DeletedCount int64 `json:"deleted_count"`
}

func toUpdateResult(result repository.UpdateResult) updateResult {
	return updateResult{
		MatchedCount:  result.MatchedCount,
		ModifiedCount: result.ModifiedCount,
	}
}

func toInsertManyResult(ids []string) insertManyResult {
	if ids == nil {
		ids = []string{}
	}
	return insertManyResult{InsertedIDs: ids}
}

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをdstにデコードする。
// 上限サイズを超えるボディや不正なJSONはINVALID_REQUESTとして扱う。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return model.NewInvalidRequestError("リクエストボディが大きすぎます")
		case errors.Is(err, io.EOF):
			return model.NewInvalidRequestError("リクエストボディが空です")
		default:
			return model.NewInvalidRequestError("リクエストボディの解析に失敗しました")
		}
	}
	return nil
}

// parsePage はクエリパラメータlimitとoffsetからページ指定を作る。
// 省略時は0。limit=0の解釈は一覧ごとに異なる（タスクは0件、イベントとタグは無制限）。
func parsePage(r *http.Request) (repository.Page, error) {
	limit, err := parseNonNegativeQuery(r, "limit")
	if err != nil {
		return repository.Page{}, err
	}
	offset, err := parseNonNegativeQuery(r, "offset")
	if err != nil {
		return repository.Page{}, err
	}
	return repository.NewPage(limit, offset), nil
}

func parseNonNegativeQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 31)
	if err != nil {
		return 0, model.NewInvalidRequestError(name + "は0以上の整数で指定してください")
	}
	return int(n), nil
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, middleware.StatusCodeFor(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// currentUser は認証済みユーザーを取り出す。取り出せない場合は401を書き込みfalseを返す。
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		apiErr := model.NewUnauthorizedError()
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
		return nil, false
	}
	return user, true
}

// decodeIDs は削除系リクエストのID配列をデコードする。
func decodeIDs(w http.ResponseWriter, r *http.Request) ([]string, error) {
	var ids []string
	if err := decodeJSON(w, r, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
