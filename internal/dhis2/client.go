package dhis2

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"dhis2-tool/internal/auth"
	"dhis2-tool/internal/config"
	"dhis2-tool/internal/logging"
	"dhis2-tool/internal/util"
)

// IndicatorGroup is one entry of the indicatorGroups listing.
type IndicatorGroup struct {
	ID          string
	DisplayName string
}

// IndicatorType is one entry of the indicatorTypes listing.
type IndicatorType struct {
	ID          string
	DisplayName string
}

// Group is a resolved indicator (or data element) group with its member ids.
type Group struct {
	ID          string
	DisplayName string
	ElementType string // "indicators" for indicator groups
	ElementIDs  []string
}

// Client issues authenticated GET requests against one DHIS2 instance.
type Client struct {
	http  *http.Client
	creds *config.Credentials
}

// NewClient wraps an already-configured HTTP client and resolved credentials.
func NewClient(httpClient *http.Client, creds *config.Credentials) *Client {
	return &Client{http: httpClient, creds: creds}
}

// BaseURL returns the normalized base URL of the instance.
func (c *Client) BaseURL() string {
	return c.creds.BaseURL
}

// get fetches one API path and classifies failures: transport errors as
// ErrNetwork, 401/403 as ErrAuth, any other non-2xx as ErrRemote.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.creds.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	if err := auth.ApplyHeaders(req, c.creds); err != nil {
		return nil, err
	}

	logging.Logf(logging.Debug, "GET %s", url)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrNetwork, url, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body for %s: %v", ErrNetwork, url, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrAuth, url, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: GET %s returned status %d: %s", ErrRemote, url, resp.StatusCode, util.Snippet(bodyBytes))
	}

	logging.Logf(logging.Debug, "Response snippet: %s", util.Snippet(bodyBytes))
	return bodyBytes, nil
}

// Groups lists all indicator groups, unpaged.
func (c *Client) Groups(ctx context.Context) ([]IndicatorGroup, error) {
	body, err := c.get(ctx, "/api/indicatorGroups.json?paging=false")
	if err != nil {
		return nil, err
	}
	list := gjson.GetBytes(body, "indicatorGroups")
	if !list.Exists() {
		return nil, fmt.Errorf("%w: group listing has no indicatorGroups field", ErrRemote)
	}
	var groups []IndicatorGroup
	list.ForEach(func(_, g gjson.Result) bool {
		if id := g.Get("id").String(); id != "" {
			groups = append(groups, IndicatorGroup{ID: id, DisplayName: g.Get("displayName").String()})
		}
		return true
	})
	return groups, nil
}

// ResolveGroupIDs turns the command-line group selection into concrete ids.
// Explicit ids are used verbatim and never touch the listing endpoint; an
// invalid id surfaces at the group fetch instead. A description is matched
// case-insensitively as a substring of group display names and must identify
// exactly one group.
func (c *Client) ResolveGroupIDs(ctx context.Context, explicitIDs, desc string) ([]string, error) {
	if explicitIDs != "" {
		var ids []string
		for _, id := range strings.Split(explicitIDs, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("group ids flag contained no usable ids: '%s'", explicitIDs)
		}
		return ids, nil
	}

	groups, err := c.Groups(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(desc)
	var matches []IndicatorGroup
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.DisplayName), needle) {
			matches = append(matches, g)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: '%s'", ErrNoGroupMatch, desc)
	case 1:
		logging.Logf(logging.Info, "Description '%s' resolved to group '%s' (%s)", desc, matches[0].DisplayName, matches[0].ID)
		return []string{matches[0].ID}, nil
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.DisplayName
	}
	return nil, fmt.Errorf("%w: '%s' matches %d groups: %s", ErrAmbiguousGroup, desc, len(matches), strings.Join(names, ", "))
}

// ObjectType looks an id up in the identifiableObjects registry and returns
// the object type derived from the href path, e.g. "indicatorGroups".
func (c *Client) ObjectType(ctx context.Context, id string) (string, error) {
	body, err := c.get(ctx, "/api/identifiableObjects/"+id)
	if err != nil {
		return "", err
	}
	href := gjson.GetBytes(body, "href").String()
	segments := strings.Split(strings.Trim(href, "/"), "/")
	if href == "" || len(segments) < 2 {
		return "", fmt.Errorf("%w: id '%s' has no usable href in the registry", ErrRemote, id)
	}
	return segments[len(segments)-2], nil
}

// Group fetches a group by id. The registry determines the group type, so
// explicit ids may also name dataElementGroups.
func (c *Client) Group(ctx context.Context, id string) (*Group, error) {
	groupType, err := c.ObjectType(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("group id '%s' not found in registry: %w", id, err)
	}

	body, err := c.get(ctx, "/api/"+groupType+"/"+id)
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(body)
	name := parsed.Get("displayName")
	if !name.Exists() {
		return nil, fmt.Errorf("%w: group '%s' has no displayName", ErrRemote, id)
	}

	// "indicatorGroups" holds "indicators", "dataElementGroups" holds
	// "dataElements".
	elementType := strings.Replace(groupType, "Group", "", 1)
	var elementIDs []string
	parsed.Get(elementType).ForEach(func(_, e gjson.Result) bool {
		if eid := e.Get("id").String(); eid != "" {
			elementIDs = append(elementIDs, eid)
		}
		return true
	})

	return &Group{
		ID:          id,
		DisplayName: name.String(),
		ElementType: elementType,
		ElementIDs:  elementIDs,
	}, nil
}

// Element fetches typed metadata for one object, e.g. one indicator.
func (c *Client) Element(ctx context.Context, elementType, id string) (gjson.Result, error) {
	body, err := c.get(ctx, "/api/"+elementType+"/"+id)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.ParseBytes(body), nil
}

// IndicatorTypes lists all indicator types.
func (c *Client) IndicatorTypes(ctx context.Context) ([]IndicatorType, error) {
	body, err := c.get(ctx, "/api/indicatorTypes")
	if err != nil {
		return nil, err
	}
	list := gjson.GetBytes(body, "indicatorTypes")
	if !list.Exists() {
		return nil, fmt.Errorf("%w: indicatorTypes listing is missing; DHIS2 system misconfigured?", ErrRemote)
	}
	var types []IndicatorType
	list.ForEach(func(_, it gjson.Result) bool {
		if id := it.Get("id").String(); id != "" {
			types = append(types, IndicatorType{ID: id, DisplayName: it.Get("displayName").String()})
		}
		return true
	})
	return types, nil
}
