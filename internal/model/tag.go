package model

// Tag はタスクを分類する階層ラベルを表す。
// ParentTagIDは自己参照の弱参照で、循環の検出は行わない。
type Tag struct {
	ID          string
	UserID      string
	Name        string
	Description *string
	ParentTagID *string
}

// OwnerID は所有ユーザーのIDを返す。
func (t Tag) OwnerID() string { return t.UserID }
