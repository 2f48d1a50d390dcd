package tenant

import "errors"

// ErrNotFound is returned by Registry.GetTenant when the tenant is unknown
// or has transitioned out of the registry between ListTenants and
// GetTenant.
var ErrNotFound = errors.New("tenant: not found")
