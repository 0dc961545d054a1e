package nse

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/mfdesk/mfgateway/common/crypto"
)

// Fixed parameters of the broker's encrypted password scheme
const (
	saltLength          = 16
	ivLength            = 16
	keyLength           = 16
	kdfIterations       = 1000
	tokenFieldSeparator = "::"
	plaintextSeparator  = "|"
	authScheme          = "BASIC "
)

// upper bound of the random number appended to the API secret
var maxNonce = big.NewInt(10_000_000_000)

// Fixed request headers expected by the broker
const (
	headerContentType    = "Content-Type"
	headerMemberID       = "memberId"
	headerAuthorization  = "Authorization"
	headerAcceptLanguage = "Accept-Language"
	headerReferer        = "Referer"
	headerConnection     = "Connection"
	headerUserAgent      = "User-Agent"

	contentTypeJSON = "application/json"
	acceptLanguage  = "en-US"
	referer         = "www.google.com"
	connection      = "keep-alive"
	userAgent       = "NSE-API-Client/1.0"
)

// Cipher produces single use credential tokens from the member's API key and
// secret. It holds no mutable state and is safe for concurrent use.
type Cipher struct {
	loginUserID string
	memberID    string
	apiKey      []byte
	apiSecret   string
}

// NewCipher returns a Cipher for the supplied credential material
func NewCipher(loginUserID, memberID, apiKey, apiSecret string) *Cipher {
	return &Cipher{
		loginUserID: loginUserID,
		memberID:    memberID,
		apiKey:      []byte(apiKey),
		apiSecret:   apiSecret,
	}
}

// GenerateToken returns a freshly encrypted credential token. Every call
// draws a new salt, IV and nonce so no two tokens are equal. An error is only
// returned when the system random source fails.
func (c *Cipher) GenerateToken() (string, error) {
	salt, err := crypto.RandomBytes(saltLength)
	if err != nil {
		return "", err
	}
	iv, err := crypto.RandomBytes(ivLength)
	if err != nil {
		return "", err
	}
	n, err := rand.Int(rand.Reader, maxNonce)
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return c.token(salt, iv, n.Int64()+1)
}

func (c *Cipher) token(salt, iv []byte, nonce int64) (string, error) {
	key := crypto.PBKDF2SHA1(c.apiKey, salt, kdfIterations, keyLength)
	plaintext := c.apiSecret + plaintextSeparator + strconv.FormatInt(nonce, 10)
	ct, err := crypto.EncryptAESCBC(key, iv, []byte(plaintext))
	if err != nil {
		return "", err
	}
	joined := crypto.HexEncodeToString(iv) +
		tokenFieldSeparator +
		crypto.HexEncodeToString(salt) +
		tokenFieldSeparator +
		crypto.Base64Encode(ct)
	return crypto.Base64Encode([]byte(joined)), nil
}

// AuthorizationHeader returns the Authorization header value for a single
// request, wrapping a fresh token
func (c *Cipher) AuthorizationHeader() (string, error) {
	tok, err := c.GenerateToken()
	if err != nil {
		return "", err
	}
	return c.authorization(tok), nil
}

func (c *Cipher) authorization(token string) string {
	return authScheme + crypto.Base64Encode([]byte(c.loginUserID+":"+token))
}

// Headers returns the complete header set for one broker request. Header
// names are returned exactly as the broker expects them.
func (c *Cipher) Headers() (map[string]string, error) {
	auth, err := c.AuthorizationHeader()
	if err != nil {
		return nil, err
	}
	return map[string]string{
		headerContentType:    contentTypeJSON,
		headerMemberID:       c.memberID,
		headerAuthorization:  auth,
		headerAcceptLanguage: acceptLanguage,
		headerReferer:        referer,
		headerConnection:     connection,
		headerUserAgent:      userAgent,
	}, nil
}
