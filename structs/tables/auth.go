package tables

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	Id            uuid.UUID `json:"id" bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name          string    `json:"name" bun:"name,notnull"`
	Email         string    `json:"email" bun:"email,unique,notnull"`
	PasswordHash  string    `json:"-" bun:"password_hash,notnull"`
	CreatedAt     time.Time `json:"created_at" bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `json:"updated_at" bun:"updated_at,notnull,default:current_timestamp"`
}

// AccessToken is the server-side record of an issued bearer token; its id is the token's jti.
type AccessToken struct {
	bun.BaseModel `bun:"table:access_tokens,alias:at"`
	Id            uuid.UUID  `json:"id" bun:"id,pk,type:uuid"`
	UserId        uuid.UUID  `json:"user_id" bun:"user_id,notnull,type:uuid"`
	Name          string     `json:"name" bun:"name,notnull,default:'authToken'"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty" bun:"last_used_at,nullzero"`
	ExpiresAt     time.Time  `json:"expires_at" bun:"expires_at,notnull"`
	CreatedAt     time.Time  `json:"created_at" bun:"created_at,notnull,default:current_timestamp"`
	User          *User      `json:"-" bun:"rel:belongs-to,join:user_id=id,on_delete:cascade"`
}
