package kraken

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// signedGet performs an authenticated GET. Kraken Futures signs
// SHA256(postData + nonce + endpointPath) with HMAC-SHA512 keyed by the
// base64-decoded API secret; endpointPath excludes the "/derivatives"
// prefix.
func (c *Client) signedGet(ctx context.Context, path string) ([]byte, error) {
	endpoint := strings.TrimRight(c.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	nonce := strconv.FormatInt(time.Now().UnixMilli(), 10)
	authent, err := c.sign("", nonce, strings.TrimPrefix(path, "/derivatives"))
	if err != nil {
		return nil, err
	}
	req.Header.Set("APIKey", c.apiKey)
	req.Header.Set("Nonce", nonce)
	req.Header.Set("Authent", authent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kraken http %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *Client) sign(postData, nonce, endpointPath string) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(c.apiSecret)
	if err != nil {
		return "", fmt.Errorf("kraken api secret is not base64: %w", err)
	}
	digest := sha256.Sum256([]byte(postData + nonce + endpointPath))
	mac := hmac.New(sha512.New, secret)
	mac.Write(digest[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
