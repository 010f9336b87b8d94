package processor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =====================================================
// WEBHOOK SIGNATURE
// =====================================================
// Header format: t=<unix>,v1=<hex>[,v1=<hex>...]
// v1 = hex(HMAC-SHA256(secret, t + "." + body)). Có thể có nhiều v1 khi secret đang rotate.

var (
	errHeaderMissing    = errors.New("signature header missing")
	errHeaderMalformed  = errors.New("signature header malformed")
	errNoMatch          = errors.New("no v1 signature matches payload")
	errOutsideTolerance = errors.New("timestamp outside tolerance")
)

// ComputeSignature trả về hex HMAC-SHA256 của "t.body"
func ComputeSignature(payload []byte, secret string, t time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(t.Unix(), 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeader dựng header hợp lệ, dùng cho mock + tests
func SignatureHeader(payload []byte, secret string, t time.Time) string {
	return fmt.Sprintf("t=%d,v1=%s", t.Unix(), ComputeSignature(payload, secret, t))
}

// VerifyHeader kiểm tra header với secret. tolerance <= 0 thì bỏ qua check thời gian.
func VerifyHeader(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if header == "" {
		return errHeaderMissing
	}

	var (
		timestamp  int64
		haveTime   bool
		signatures [][]byte
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return errHeaderMalformed
			}
			timestamp, haveTime = ts, true
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if !haveTime || len(signatures) == 0 {
		return errHeaderMalformed
	}

	signedAt := time.Unix(timestamp, 0)
	expected, _ := hex.DecodeString(ComputeSignature(payload, secret, signedAt))

	matched := false
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return errNoMatch
	}

	if tolerance > 0 {
		age := now.Sub(signedAt)
		if age < 0 {
			age = -age
		}
		if age > tolerance {
			return errOutsideTolerance
		}
	}
	return nil
}
