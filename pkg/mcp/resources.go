package mcp

import (
	"context"
	"net/http"
	"net/url"
)

// Endpoints exposed by the MCP service.
const (
	PathHealth                      = "/health"
	PathUsers                       = "/users"
	PathGroups                      = "/groups"
	PathDevices                     = "/devices"
	PathDeviceCompliancePolicies    = "/device-compliance-policies"
	PathDeviceConfigurationProfiles = "/device-configuration-profiles"
	PathMobileApps                  = "/mobile-apps"
	PathConditionalAccessPolicies   = "/conditional-access-policies"
)

// Client offers typed access to the MCP resources on top of a Doer.
type Client struct {
	d Doer
}

// NewClient wraps d.
func NewClient(d Doer) *Client {
	return &Client{d: d}
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (Document, error) {
	return c.d.Dispatch(ctx, http.MethodGet, PathHealth, nil)
}

func (c *Client) Users() Collection  { return Collection{d: c.d, path: PathUsers} }
func (c *Client) Groups() Collection { return Collection{d: c.d, path: PathGroups} }

// Devices supports listing, lookup and wipe only.
func (c *Client) Devices() DeviceCollection {
	return DeviceCollection{ReadOnlyCollection{c: Collection{d: c.d, path: PathDevices}}}
}

func (c *Client) DeviceCompliancePolicies() Collection {
	return Collection{d: c.d, path: PathDeviceCompliancePolicies}
}

func (c *Client) DeviceConfigurationProfiles() Collection {
	return Collection{d: c.d, path: PathDeviceConfigurationProfiles}
}

func (c *Client) ConditionalAccessPolicies() Collection {
	return Collection{d: c.d, path: PathConditionalAccessPolicies}
}

// MobileApps is read-only on the service side.
func (c *Client) MobileApps() ReadOnlyCollection {
	return ReadOnlyCollection{c: Collection{d: c.d, path: PathMobileApps}}
}

// Collection is a CRUD resource rooted at a path.
type Collection struct {
	d    Doer
	path string
}

func (c Collection) Path() string { return c.path }

func (c Collection) List(ctx context.Context) (Document, error) {
	return c.d.Dispatch(ctx, http.MethodGet, c.path, nil)
}

func (c Collection) Get(ctx context.Context, id string) (Document, error) {
	return c.d.Dispatch(ctx, http.MethodGet, c.itemPath(id), nil)
}

func (c Collection) Create(ctx context.Context, payload any) (Document, error) {
	return c.d.Dispatch(ctx, http.MethodPost, c.path, payload)
}

// Update applies a partial update (PATCH).
func (c Collection) Update(ctx context.Context, id string, payload any) (Document, error) {
	return c.d.Dispatch(ctx, http.MethodPatch, c.itemPath(id), payload)
}

func (c Collection) Delete(ctx context.Context, id string) (Document, error) {
	return c.d.Dispatch(ctx, http.MethodDelete, c.itemPath(id), nil)
}

func (c Collection) itemPath(id string) string {
	return c.path + "/" + url.PathEscape(id)
}

// DeviceCollection is read-only apart from the wipe action.
type DeviceCollection struct {
	ReadOnlyCollection
}

// Wipe issues a remote wipe for the device.
func (c DeviceCollection) Wipe(ctx context.Context, id string) (Document, error) {
	return c.c.d.Dispatch(ctx, http.MethodPost, c.c.itemPath(id)+"/wipe", map[string]any{})
}

// ReadOnlyCollection exposes only List and Get.
type ReadOnlyCollection struct {
	c Collection
}

func (r ReadOnlyCollection) Path() string { return r.c.path }

func (r ReadOnlyCollection) List(ctx context.Context) (Document, error) { return r.c.List(ctx) }

func (r ReadOnlyCollection) Get(ctx context.Context, id string) (Document, error) {
	return r.c.Get(ctx, id)
}
