package siteimporter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blakewilliams/sitehop"
)

// LoadHttp fetches the site configuration from configURL. YAML is used when
// the response says so, JSON otherwise.
func LoadHttp(ctx context.Context, server *sitehop.Server, configURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, configURL, nil)
	if err != nil {
		return fmt.Errorf("could not create a request when loading config: %w", err)
	}

	if server.HmacSecret != "" {
		SetHmacHeaders(req, server.HmacSecret)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = server.LogFilter.FilterURLError(urlErr)
		}

		return record("http", server, fmt.Errorf("could not fetch site configuration: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return record("http", server, fmt.Errorf("could not fetch site configuration: status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return record("http", server, fmt.Errorf("could not read site config response body: %w", err))
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "yaml") {
		err = LoadYAML(server, body)
	} else {
		err = LoadJSON(server, body)
	}

	if err != nil {
		return fmt.Errorf("could not load sites into server: %w", err)
	}

	return nil
}

func SetHmacHeaders(r *http.Request, hmacSecret string) {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	mac := hmac.New(sha256.New, []byte(hmacSecret))
	mac.Write(
		[]byte(fmt.Sprintf("%s,%s", r.URL.Path, timestamp)),
	)

	r.Header.Set("Authorization", hex.EncodeToString(mac.Sum(nil)))
	r.Header.Set("X-Authorization-Time", timestamp)
}
