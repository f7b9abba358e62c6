// Package resourceapi implements the REST surface of the analytics platform:
// application metadata lookups against the resource API and ODAG link
// creation against the link service. All calls carry the mutual-TLS
// credential set and the session anti-forgery token; none of them retries.
package resourceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/insightops/odag-provisioning-backend/identity"
	"github.com/insightops/odag-provisioning-backend/interfaces"
)

// Resource paths, relative to the configured base URLs.
const (
	aboutPath     = "/qrs/about"
	appLookupPath = "/qrs/app/%s"
	linksPath     = "/api/odag/v1/links"
)

// Client talks to the resource API and the link service. It implements
// interfaces.ResourceAPI.
type Client struct {
	cfg        interfaces.PlatformConfig
	creds      *identity.Identity
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient builds a client around the identity's TLS material. The
// per-call timeout from the configuration bounds every request.
func NewClient(cfg interfaces.PlatformConfig, creds *identity.Identity, log *slog.Logger) *Client {
	return &Client{
		cfg:   cfg,
		creds: creds,
		httpClient: &http.Client{
			Transport: &http.Transport{TLSClientConfig: creds.TLSConfig()},
			Timeout:   cfg.RequestTimeout,
		},
		log: log,
	}
}

// get issues a decorated GET and returns the raw response.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.creds.Decorate(req)
	return c.httpClient.Do(req)
}

// ValidateApplication looks up application metadata by id. A 404 is an
// expected outcome and maps to an invalid result; every other failure is a
// *interfaces.LookupError.
func (c *Client) ValidateApplication(ctx context.Context, id interfaces.AppID) (interfaces.AppValidationResult, error) {
	url := c.cfg.ResourceAPIBaseURL() + fmt.Sprintf(appLookupPath, id)
	resp, err := c.get(ctx, url)
	if err != nil {
		return interfaces.AppValidationResult{}, &interfaces.LookupError{ID: id, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var meta struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Published bool   `json:"published"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
			return interfaces.AppValidationResult{}, &interfaces.LookupError{ID: id, StatusCode: resp.StatusCode, Err: fmt.Errorf("could not parse application metadata: %w", err)}
		}
		c.log.Debug("Application resolved", "appID", id, "name", meta.Name, "published", meta.Published)
		return interfaces.AppValidationResult{Valid: true, ID: id, Name: meta.Name, Published: meta.Published}, nil
	case http.StatusNotFound:
		c.log.Debug("Application not found", "appID", id)
		return interfaces.AppValidationResult{Valid: false, ID: id, Reason: "application does not exist on the platform"}, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return interfaces.AppValidationResult{}, &interfaces.LookupError{ID: id, StatusCode: resp.StatusCode, Err: errors.New(string(body))}
	}
}

// About performs a read-only authenticated call against the resource API.
// A non-200 response means the presented identity was not accepted.
func (c *Client) About(ctx context.Context) error {
	resp, err := c.get(ctx, c.cfg.ResourceAPIBaseURL()+aboutPath)
	if err != nil {
		return fmt.Errorf("could not reach resource API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("resource API rejected the session (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// ProbeLinkService performs a read-only list call against the link service.
func (c *Client) ProbeLinkService(ctx context.Context) error {
	resp, err := c.get(ctx, c.cfg.LinkServiceBaseURL()+linksPath)
	if err != nil {
		return fmt.Errorf("could not reach link service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("link service probe failed (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// Policy blocks of the canonical link payload. Each is a list of
// context-scoped rules; this client always emits exactly one rule per
// block, scoped to the default context unless overridden upstream.
type rowEstRange struct {
	Context   string `json:"context"`
	LowBound  int    `json:"lowBound"`
	HighBound int    `json:"highBound"`
}

type retentionRule struct {
	Context       string `json:"context"`
	RetentionTime int    `json:"retentionTime"`
}

type genAppNameRule struct {
	Context      string `json:"context"`
	FormatString string `json:"formatString"`
}

type linkProperties struct {
	RowEstRange      []rowEstRange    `json:"rowEstRange"`
	AppRetentionTime []retentionRule  `json:"appRetentionTime"`
	GenAppName       []genAppNameRule `json:"genAppName"`
}

type createLinkPayload struct {
	Name        string         `json:"name"`
	TemplateApp string         `json:"templateApp"`
	RowEstExpr  string         `json:"rowEstExpr"`
	Description string         `json:"description,omitempty"`
	Properties  linkProperties `json:"properties"`
	ModelGroups []string       `json:"modelGroups"`
}

// buildLinkPayload canonicalizes a request into the link service's creation
// payload, applying the documented defaults for each policy block the
// request leaves unset. The generated-name default derives from the link
// name; %u expands to the requesting user and %t to the generation
// timestamp on the platform side.
func buildLinkPayload(req interfaces.LinkRequest) createLinkPayload {
	low, high := req.RowEstLowBound, req.RowEstHighBound
	if low == 0 {
		low = interfaces.DefaultRowEstLowBound
	}
	if high == 0 {
		high = interfaces.DefaultRowEstHighBound
	}

	retention := req.RetentionMinutes
	if retention == 0 {
		retention = interfaces.DefaultRetentionMinutes
	}

	nameFormat := req.GeneratedAppNameFormat
	if nameFormat == "" {
		nameFormat = req.LinkName + "_%u_%t"
	}

	return createLinkPayload{
		Name:        req.LinkName,
		TemplateApp: req.TemplateAppID.String(),
		RowEstExpr:  req.RowEstimationExpression,
		Description: req.Description,
		Properties: linkProperties{
			RowEstRange:      []rowEstRange{{Context: interfaces.DefaultPolicyContext, LowBound: low, HighBound: high}},
			AppRetentionTime: []retentionRule{{Context: interfaces.DefaultPolicyContext, RetentionTime: retention}},
			GenAppName:       []genAppNameRule{{Context: interfaces.DefaultPolicyContext, FormatString: nameFormat}},
		},
		ModelGroups: []string{},
	}
}

// CreateLink issues the creation call and normalizes the response. The link
// service answers in one of two shapes, a nested object-definition wrapper
// or a flat resource body; both carry the server-issued id.
func (c *Client) CreateLink(ctx context.Context, req interfaces.LinkRequest) (interfaces.LinkResource, error) {
	payload, err := json.Marshal(buildLinkPayload(req))
	if err != nil {
		return interfaces.LinkResource{}, fmt.Errorf("could not encode link payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.LinkServiceBaseURL()+linksPath, bytes.NewReader(payload))
	if err != nil {
		return interfaces.LinkResource{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.creds.Decorate(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return interfaces.LinkResource{}, fmt.Errorf("could not reach link service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return interfaces.LinkResource{}, fmt.Errorf("could not read link service response: %w", err)
	}

	if err := creationStatusError(resp.StatusCode, body); err != nil {
		c.log.Debug("Link creation rejected", "status", resp.StatusCode, "err", err)
		return interfaces.LinkResource{}, err
	}

	link, err := normalizeLinkResponse(body)
	if err != nil {
		return interfaces.LinkResource{}, err
	}
	c.log.Info("Link created", "linkID", link.ID, "name", link.Name)
	return link, nil
}

// creationStatusError maps a link-creation response status onto the error
// taxonomy. 2xx maps to nil.
func creationStatusError(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusBadRequest:
		return interfaces.ErrInvalidLinkConfiguration
	case status == http.StatusUnauthorized:
		return interfaces.ErrUnauthorized
	case status == http.StatusForbidden:
		return interfaces.ErrForbidden
	case status == http.StatusNotFound:
		return interfaces.ErrLinkServiceUnavailable
	case status == http.StatusMethodNotAllowed:
		return interfaces.ErrEndpointMisconfigured
	case status == http.StatusInternalServerError:
		return interfaces.ErrRemoteServerError
	default:
		return &interfaces.UnexpectedStatusError{Code: status, Body: string(body)}
	}
}

// normalizeLinkResponse extracts the server-issued identifier from either
// accepted response shape.
func normalizeLinkResponse(body []byte) (interfaces.LinkResource, error) {
	id := gjson.GetBytes(body, "objectDef.id")
	name := gjson.GetBytes(body, "objectDef.name")
	if !id.Exists() {
		id = gjson.GetBytes(body, "id")
		name = gjson.GetBytes(body, "name")
	}
	if !id.Exists() || id.String() == "" {
		return interfaces.LinkResource{}, fmt.Errorf("link service response carries no link id: %s", string(body))
	}
	return interfaces.LinkResource{ID: interfaces.LinkID(id.String()), Name: name.String()}, nil
}
