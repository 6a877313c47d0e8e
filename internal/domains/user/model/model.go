package model

import (
	"campus/shared/model"
)

const (
	TableName  = "users"
	EntityName = "user"

	FieldID       = "id"
	FieldEmail    = "email"
	FieldName     = "name"
	FieldNickname = "nickname"
	FieldSchool   = "school"
	FieldIsAdmin  = "is_admin"
)

// User rows are provisioned by the campus identity pipeline. This service
// reads them to resolve a caller's school and admin standing.
type User struct {
	ID       string `db:"id"`
	Email    string `db:"email"`
	Name     string `db:"name"`
	Nickname string `db:"nickname"`
	School   string `db:"school"`
	IsAdmin  bool   `db:"is_admin"`
	model.Metadata
}
