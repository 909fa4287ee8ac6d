package repo

import (
	"gorm.io/gorm"

	"github.com/izinapp/izin-api/internal/hash"
)

const credentialsTable = "refresh_tokens"

// Repo is the persistence boundary for credentials, audit entries and the
// read-only user directory. All credential mutations run inside a single
// gorm transaction together with their audit write; nothing else in the
// service touches these tables.
type Repo struct {
	DB     *gorm.DB
	Hasher *hash.TokenHasher
}
