package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"compass/logging"
)

// Translator turns texts into the other language. Implementations are best
// effort: a text that cannot be translated comes back unchanged.
type Translator interface {
	ToEnglish(ctx context.Context, texts []string) []string
	ToChinese(ctx context.Context, texts []string) []string
}

// ErrQuotaExhausted is returned once the translation API refuses more work.
var ErrQuotaExhausted = errors.New("translation quota exhausted")

var errNoTranslation = errors.New("no translation returned")

const (
	MyMemoryURL     = "https://api.mymemory.translated.net/get"
	myMemoryTimeout = 15 * time.Second
)

// MyMemory translates through the public MyMemory API, one request per text.
// Once the daily quota runs out the remaining texts are returned untouched.
type MyMemory struct {
	client   *http.Client
	baseURL  string
	email    string
	limiter  *rate.Limiter
	quotaOut atomic.Bool
}

// NewMyMemory builds a client paced at perSecond requests. An empty baseURL
// uses MyMemoryURL; email raises the anonymous quota when set.
func NewMyMemory(client *http.Client, baseURL, email string, perSecond float64) *MyMemory {
	if client == nil {
		client = &http.Client{Timeout: myMemoryTimeout}
	}
	if baseURL == "" {
		baseURL = MyMemoryURL
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return &MyMemory{client: client, baseURL: baseURL, email: email, limiter: limiter}
}

// ToEnglish implements Translator.
func (m *MyMemory) ToEnglish(ctx context.Context, texts []string) []string {
	return m.translate(ctx, texts, "zh-CN|en")
}

// ToChinese implements Translator.
func (m *MyMemory) ToChinese(ctx context.Context, texts []string) []string {
	return m.translate(ctx, texts, "en|zh-CN")
}

func (m *MyMemory) translate(ctx context.Context, texts []string, langpair string) []string {
	out := make([]string, len(texts))
	copy(out, texts)
	done, attempted := 0, 0
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if m.quotaOut.Load() || ctx.Err() != nil {
			break
		}
		attempted++
		translated, err := m.one(ctx, text, langpair)
		if err != nil {
			logging.Debug("translation failed", "langpair", langpair, "text", truncateRunes(text, 40), "err", err)
			continue
		}
		out[i] = translated
		done++
	}
	logging.Info("translated texts", "langpair", langpair, "translated", done, "attempted", attempted)
	return out
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	QuotaFinished bool `json:"quotaFinished"`
}

func (m *MyMemory) one(ctx context.Context, text, langpair string) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", err
	}
	q := url.Values{"langpair": {langpair}, "q": {text}}
	if m.email != "" {
		q.Set("de", m.email)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call translation api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation api returned status %d", resp.StatusCode)
	}

	var body myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode translation: %w", err)
	}
	if body.QuotaFinished {
		if !m.quotaOut.Swap(true) {
			logging.Warn("translation quota exhausted")
		}
		return "", ErrQuotaExhausted
	}
	translated := strings.TrimSpace(body.ResponseData.TranslatedText)
	if translated == "" || translated == text {
		return "", errNoTranslation
	}
	return translated, nil
}
