package hospitalapi

import (
	"context"
	"fmt"
	"net/http"
)

// GetRolePermissions fetches a role with its nested permission list,
// keyed by role id. The result replaces any previously cached role as a
// whole unit.
func (c *Client) GetRolePermissions(ctx context.Context, roleID int64) (*Role, error) {
	path := fmt.Sprintf("/v1/roles/%d/permisos", roleID)

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var role Role
	if _, err := decodeEnvelope(resp, &role); err != nil {
		return nil, err
	}

	return &role, nil
}
