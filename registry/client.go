// Package registry реализует клиент официального реестра GUS (BIR1).
// Поиск по названию идет через SOAP: Zaloguj -> DaneSzukajPodmioty -> Wyloguj.
package registry

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNoCredentials реестр недоступен без ключа API
var ErrNoCredentials = fmt.Errorf("registry API key is not configured")

const defaultBaseURL = "https://wyszukiwarkaregon.stat.gov.pl/wsBIR/UslugaBIRzewnPubl.svc"

// Company запись о фирме из реестра
type Company struct {
	NIP         string
	REGON       string
	Name        string
	Voivodeship string
	City        string
}

// Client SOAP-клиент реестра GUS
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientConfig конфигурация клиента реестра
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit rate.Limit
}

// NewClient создает клиент реестра
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = rate.Every(time.Second)
	}

	return &Client{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(config.RateLimit, 1),
	}
}

// HasCredentials сообщает, настроен ли ключ API
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// SearchByName ищет фирмы в реестре по названию. Каждый вызов выполняет
// полный цикл Zaloguj -> DaneSzukajPodmioty -> Wyloguj: сессии реестра
// короткоживущие, и держать их между вызовами ненадежно.
func (c *Client) SearchByName(ctx context.Context, name string) ([]Company, error) {
	if c.apiKey == "" {
		return nil, ErrNoCredentials
	}

	sessionID, err := c.login(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry login failed: %w", err)
	}
	defer func() {
		if logoutErr := c.logout(context.WithoutCancel(ctx), sessionID); logoutErr != nil {
			log.Printf("[Registry] WARN: logout failed: %v", logoutErr)
		}
	}()

	return c.search(ctx, sessionID, name)
}

// login выполняет Zaloguj и возвращает идентификатор сессии
func (c *Client) login(ctx context.Context) (string, error) {
	envelope := fmt.Sprintf(`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:ns="http://CIS/BIR/PUBL/2014/07">
  <soap:Body>
    <ns:Zaloguj>
      <ns:pKluczUzytkownika>%s</ns:pKluczUzytkownika>
    </ns:Zaloguj>
  </soap:Body>
</soap:Envelope>`, xmlEscape(c.apiKey))

	body, err := c.post(ctx, "http://CIS/BIR/PUBL/2014/07/IUslugaBIRzewnPubl/Zaloguj", "", envelope)
	if err != nil {
		return "", err
	}

	var resp struct {
		Result string `xml:"Body>ZalogujResponse>ZalogujResult"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse login response: %w", err)
	}

	sessionID := strings.TrimSpace(resp.Result)
	if sessionID == "" {
		return "", fmt.Errorf("registry rejected API key")
	}
	return sessionID, nil
}

// search выполняет DaneSzukajPodmioty по названию фирмы
func (c *Client) search(ctx context.Context, sessionID, name string) ([]Company, error) {
	envelope := fmt.Sprintf(`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:ns="http://CIS/BIR/PUBL/2014/07" xmlns:dat="http://CIS/BIR/PUBL/2014/07/DataContract">
  <soap:Body>
    <ns:DaneSzukajPodmioty>
      <ns:pParametryWyszukiwania>
        <dat:Nazwa>%s</dat:Nazwa>
      </ns:pParametryWyszukiwania>
    </ns:DaneSzukajPodmioty>
  </soap:Body>
</soap:Envelope>`, xmlEscape(name))

	body, err := c.post(ctx, "http://CIS/BIR/PUBL/2014/07/IUslugaBIRzewnPubl/DaneSzukajPodmioty", sessionID, envelope)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Result string `xml:"Body>DaneSzukajPodmiotyResponse>DaneSzukajPodmiotyResult"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return parseCompanies(resp.Result)
}

// logout выполняет Wyloguj
func (c *Client) logout(ctx context.Context, sessionID string) error {
	envelope := fmt.Sprintf(`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:ns="http://CIS/BIR/PUBL/2014/07">
  <soap:Body>
    <ns:Wyloguj>
      <ns:pIdentyfikatorSesji>%s</ns:pIdentyfikatorSesji>
    </ns:Wyloguj>
  </soap:Body>
</soap:Envelope>`, xmlEscape(sessionID))

	_, err := c.post(ctx, "http://CIS/BIR/PUBL/2014/07/IUslugaBIRzewnPubl/Wyloguj", sessionID, envelope)
	return err
}

// post отправляет SOAP-запрос. Идентификатор сессии передается HTTP-заголовком sid.
func (c *Client) post(ctx context.Context, action, sessionID, envelope string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBufferString(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", fmt.Sprintf(`application/soap+xml; charset=utf-8; action=%q`, action))
	if sessionID != "" {
		req.Header.Set("sid", sessionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// parseCompanies парсит внутренний XML результата поиска: реестр
// возвращает строки <dane> с полями Nip/Regon/Nazwa/Wojewodztwo/Miejscowosc.
// Пустой результат означает отсутствие совпадений, не ошибку.
func parseCompanies(inner string) ([]Company, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil, nil
	}

	var payload struct {
		Rows []struct {
			NIP         string `xml:"Nip"`
			REGON       string `xml:"Regon"`
			Name        string `xml:"Nazwa"`
			Voivodeship string `xml:"Wojewodztwo"`
			City        string `xml:"Miejscowosc"`
			ErrorCode   string `xml:"ErrorCode"`
		} `xml:"dane"`
	}
	if err := xml.Unmarshal([]byte(inner), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse registry rows: %w", err)
	}

	var companies []Company
	for _, row := range payload.Rows {
		// Строка с ErrorCode означает "нет данных"
		if row.ErrorCode != "" {
			continue
		}
		nip := strings.TrimSpace(row.NIP)
		name := strings.TrimSpace(row.Name)
		if nip == "" || name == "" {
			continue
		}
		companies = append(companies, Company{
			NIP:         nip,
			REGON:       strings.TrimSpace(row.REGON),
			Name:        name,
			Voivodeship: strings.TrimSpace(row.Voivodeship),
			City:        strings.TrimSpace(row.City),
		})
	}

	return companies, nil
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	// Ошибка невозможна при записи в bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
