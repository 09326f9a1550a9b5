package model

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID は新しいエンティティIDを生成する。
// UUIDv7は生成時刻順に並ぶため、id降順は新しい順になる。
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}
	return id.String(), nil
}

// ValidateID はIDがUUID形式であることを検証する。
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return NewInvalidRequestError(fmt.Sprintf("不正なID形式です: %q", id))
	}
	return nil
}

// ValidateIDs は全IDがUUID形式であることを検証する。
func ValidateIDs(ids []string) error {
	for _, id := range ids {
		if err := ValidateID(id); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOptionalID はnilでないIDがUUID形式であることを検証する。
func ValidateOptionalID(id *string) error {
	if id == nil {
		return nil
	}
	return ValidateID(*id)
}
