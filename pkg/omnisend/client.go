package omnisend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jes-wd/freya-sync/pkg/config"
	pkgerrors "github.com/jes-wd/freya-sync/pkg/errors"
	"github.com/jes-wd/freya-sync/pkg/logger"
)

var (
	errAPIKeyRequired = errors.New("omnisend api key is required")
	errLoggerRequired = errors.New("omnisend logger is required")
)

// Client exposes the CRM contact operations with centralized auth, logging,
// and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logger.Logger
}

// NewClient initializes the API wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.OmnisendConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logg,
	}

	logg.Info(ctx, "omnisend client initialized")
	return c, nil
}

// GetContactByEmail returns the contact registered under the email, or nil
// when no such contact exists.
func (c *Client) GetContactByEmail(ctx context.Context, email string) (*Contact, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	c.log(ctx, "request", "get_contact", map[string]any{"email": email})

	var payload struct {
		Contacts []Contact `json:"contacts"`
	}
	query := url.Values{"email": {email}, "limit": {"1"}}
	err := c.do(ctx, http.MethodGet, "/contacts?"+query.Encode(), nil, &payload)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			c.log(ctx, "response", "get_contact", map[string]any{"found": false})
			return nil, nil
		}
		c.log(ctx, "error", "get_contact", map[string]any{"error": err.Error()})
		return nil, err
	}

	if len(payload.Contacts) == 0 {
		c.log(ctx, "response", "get_contact", map[string]any{"found": false})
		return nil, nil
	}
	contact := payload.Contacts[0]
	c.log(ctx, "response", "get_contact", map[string]any{"contact_id": contact.ContactID})
	return &contact, nil
}

// Exists reports whether a contact is registered under the email.
func (c *Client) Exists(ctx context.Context, email string) (bool, error) {
	contact, err := c.GetContactByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return contact != nil, nil
}

// CreateContact creates or updates a contact. The API upserts on the email
// identifier, so resending an existing contact overwrites its fields.
func (c *Client) CreateContact(ctx context.Context, contact *Contact) (*Contact, error) {
	if contact == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact is required")
	}
	if contact.Email() == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact email identifier is required")
	}
	c.log(ctx, "request", "create_contact", map[string]any{
		"email": contact.Email(),
		"tags":  contact.Tags,
	})

	var created Contact
	if err := c.do(ctx, http.MethodPost, "/contacts", contact, &created); err != nil {
		c.log(ctx, "error", "create_contact", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_contact", map[string]any{"contact_id": created.ContactID})
	return &created, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request body")
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("omnisend %s %s failed", method, path))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		code := domainCodeForStatus(resp.StatusCode)
		return pkgerrors.New(code, fmt.Sprintf("omnisend %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding response body")
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("omnisend %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("omnisend %s", phase))
	}
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
