// Package authz はタスク・イベント・タグの所有者検証と管理者判定を提供する。
package authz

import (
	"github.com/hitoshi/mossy/internal/model"
)

// Owned は所有者を持つエンティティ。
type Owned interface {
	OwnerID() string
}

// EnsureOwner は単一エンティティの変更前検証を行う。
// entityがnilならnotFoundを、所有者が一致しなければForbiddenを返す。
func EnsureOwner[T Owned](entity *T, userID string, notFound *model.APIError) error {
	if entity == nil {
		return notFound
	}
	if (*entity).OwnerID() != userID {
		return model.NewForbiddenError()
	}
	return nil
}

// EnsureAllOwned は一括削除前の検証を行う。
// 見つかった全エンティティがuserIDの所有でなければForbiddenを返す（部分削除はしない）。
// 存在しないIDは検証対象外。
func EnsureAllOwned[T Owned](entities []*T, userID string) error {
	for _, e := range entities {
		if e == nil || (*e).OwnerID() != userID {
			return model.NewForbiddenError()
		}
	}
	return nil
}

// RequireAdmin は管理者専用操作の実行可否を判定する。
func RequireAdmin(user *model.User) error {
	if user == nil || !user.IsAdmin {
		return model.NewForbiddenError()
	}
	return nil
}
