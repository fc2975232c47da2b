package common

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/labstack/gommon/random"
	"golang.org/x/crypto/pbkdf2"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

const defaultSecretSalt = "deliverdesk-secret"

var (
	snowflakeNode *snowflake.Node
	snowflakeOnce sync.Once
)

// UUIDint64 returns a cluster-unique int64 identifier.
func UUIDint64() int64 {
	snowflakeOnce.Do(func() {
		var err error
		snowflakeNode, err = snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
	})
	return snowflakeNode.Generate().Int64()
}

// ShortCode returns an uppercase alphanumeric code of n characters,
// used for human-readable order codes.
func ShortCode(n uint8) string {
	return random.String(n, random.Uppercase+random.Numeric)
}

// GetSecretSalt returns the password salt, overridable by environment.
func GetSecretSalt() string {
	if s := os.Getenv("DELIVERDESK_SECRET"); s != "" {
		return s
	}
	return defaultSecretSalt
}

// Sha256HashWithSalt derives a hex-encoded PBKDF2-SHA256 hash of src.
func Sha256HashWithSalt(src string, salt string) string {
	dk := pbkdf2.Key([]byte(src), []byte(salt), 4096, 32, sha256.New)
	return hex.EncodeToString(dk)
}
