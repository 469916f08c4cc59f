package export

import (
	"context"
	"fmt"

	"github.com/matillion/mattermost-export/internal/mattermost"
)

// Privilege is the acting principal's access level. It gates whether page
// fetches request soft-deleted posts and whether renderers emit the Deleted
// column.
type Privilege int

const (
	PrivilegeStandard Privilege = iota
	PrivilegeAdmin
)

func (p Privilege) String() string {
	if p == PrivilegeAdmin {
		return "admin"
	}
	return "standard"
}

// IncludeDeleted reports whether fetches may request soft-deleted posts.
func (p Privilege) IncludeDeleted() bool {
	return p == PrivilegeAdmin
}

// ResolvePrivilege fetches the acting principal and inspects its role set
// for the system administrator tag.
func ResolvePrivilege(ctx context.Context, api API) (Privilege, mattermost.User, error) {
	me, err := api.Me(ctx)
	if err != nil {
		return PrivilegeStandard, mattermost.User{}, fmt.Errorf("failed to resolve privilege: %w", err)
	}
	if me.IsAdmin() {
		return PrivilegeAdmin, me, nil
	}
	return PrivilegeStandard, me, nil
}
