// Package model はドメインモデルを定義する。
package model

import "time"

// DefaultColorTheme は新規ユーザーに設定されるカラーテーマ番号。
const DefaultColorTheme = 1

// User はサービス利用ユーザーを表す。
// AppleUserIDはIdPが払い出す不変のsubject識別子で、ユーザー間で一意。
// Tokenは現在有効な唯一のセッショントークンで、ログインのたびに上書きされる。
type User struct {
	ID            string
	Email         string
	AppleUserID   string
	Token         string
	IsAdmin       bool
	Theme         ThemeSettings
	TokenIssuedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ThemeSettings はユーザーの表示設定を表す。
type ThemeSettings struct {
	UseSystemColorScheme bool
	DarkMode             bool
	ColorTheme           int
}

// DefaultThemeSettings は新規ユーザーの表示設定を返す。
func DefaultThemeSettings() ThemeSettings {
	return ThemeSettings{
		UseSystemColorScheme: false,
		DarkMode:             false,
		ColorTheme:           DefaultColorTheme,
	}
}
