package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"
)

// sessionIDBytes is the length of the derived identifier before hex
// encoding, giving the 32 character IDs hosts expect.
const sessionIDBytes = 16

// DeriveSessionID computes the session identifier for a principal.
//
// The token is the HKDF secret, the tenant the salt and the username the
// info parameter, so each input occupies its own slot and the token cannot
// be recovered from the result. The output is stable for identical inputs.
func DeriveSessionID(tenantID, username, token string) string {
	kdf := hkdf.New(sha256.New, []byte(token), []byte(tenantID), []byte("networksession:"+username))

	out := make([]byte, sessionIDBytes)
	if _, err := io.ReadFull(kdf, out); err != nil {
		// HKDF-SHA256 only fails past 255*32 bytes of output.
		panic("auth: hkdf read failed: " + err.Error())
	}
	return hex.EncodeToString(out)
}
