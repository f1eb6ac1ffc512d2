package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// keySeparator keeps field boundaries unambiguous in the hashed canonical form.
const keySeparator = "\x1f"

// Key derives the stable cache key for a translation request. Including the
// account ID partitions the cache per account; an empty account ID addresses
// the shared partition.
func Key(text, sourceLang, targetLang, engine, accountID string) string {
	h := sha256.New()
	h.Write([]byte(accountID))
	h.Write([]byte(keySeparator))
	h.Write([]byte(sourceLang))
	h.Write([]byte(keySeparator))
	h.Write([]byte(targetLang))
	h.Write([]byte(keySeparator))
	h.Write([]byte(engine))
	h.Write([]byte(keySeparator))
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
