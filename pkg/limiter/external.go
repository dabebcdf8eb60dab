package limiter

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

type ExternalLimiter struct {
	host   *url.URL
	token  string
	client *http.Client
}

// NewExternalLimiter создает клиент сервиса лимитов. Непустой token передается в заголовке Authorization.
func NewExternalLimiter(host *url.URL, token string) *ExternalLimiter {
	cl := retryablehttp.NewClient()
	cl.RetryMax = 3
	cl.RetryWaitMin = time.Millisecond * 100
	cl.RetryWaitMax = time.Second
	cl.HTTPClient.Timeout = time.Second * 5
	cl.Logger = slog.Default()

	return &ExternalLimiter{host: host, token: token, client: cl.StandardClient()}
}

func (c ExternalLimiter) get(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, c.host.ResolveReference(&url.URL{Path: path}).String(), nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

func (c ExternalLimiter) GetTextLimit(documentId uuid.UUID) int {
	return c.doRemainRequest("/remain/document/" + documentId.String() + "/text")
}

// CheckTextLength отвечает 200 на допустимую длину и 403 на превышение. Остальные ответы
// и ошибки сети считаются недоступностью сервиса.
func (c ExternalLimiter) CheckTextLength(documentId uuid.UUID, length int) error {
	return c.doRequest("/can/save/document/" + documentId.String() + "/text/" + strconv.Itoa(length))
}

func (c ExternalLimiter) doRemainRequest(path string) int {
	resp, err := c.get(path)
	if err != nil {
		slog.Error("Request remains", "err", err)
		return -1
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return -1
	}

	remain, err := strconv.Atoi(resp.Header.Get("X-Entity-Remain"))
	if err != nil {
		slog.Error("Parse remain answer", "raw", resp.Header.Get("X-Entity-Remain"), "err", err)
		return -1
	}
	return remain
}

func (c ExternalLimiter) doRequest(path string) error {
	resp, err := c.get(path)
	if err != nil {
		slog.Error("Request access rule", "err", err)
		return err
	}
	resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusForbidden, http.StatusRequestEntityTooLarge:
		return ErrTextTooLong
	default:
		return fmt.Errorf("limiter answered %d", resp.StatusCode)
	}
}
