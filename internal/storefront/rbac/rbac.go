package rbac

import (
	"strings"
)

// Role represents an account tier as reported by the backend.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "user"
)

// Capability represents a discrete feature toggle which can be checked in handlers and templates.
type Capability string

const (
	CapCatalogBrowse   Capability = "catalog.browse"
	CapCartUse         Capability = "cart.use"
	CapCheckout        Capability = "checkout.place"
	CapOrdersOwn       Capability = "orders.own"
	CapWishlist        Capability = "wishlist.use"
	CapReviewsWrite    Capability = "reviews.write"
	CapProfileSelf     Capability = "profile.self"
	CapProductsManage  Capability = "products.manage"
	CapProductsRestore Capability = "products.restore"
	CapCategories      Capability = "categories.manage"
	CapBrands          Capability = "brands.manage"
	CapUsersView       Capability = "users.view"
)

// capabilityRoles maps each capability to the roles permitted to access it.
var capabilityRoles = map[Capability]Roles{
	CapCatalogBrowse:   {RoleAdmin, RoleCustomer},
	CapCartUse:         {RoleAdmin, RoleCustomer},
	CapCheckout:        {RoleAdmin, RoleCustomer},
	CapOrdersOwn:       {RoleAdmin, RoleCustomer},
	CapWishlist:        {RoleAdmin, RoleCustomer},
	CapReviewsWrite:    {RoleAdmin, RoleCustomer},
	CapProfileSelf:     {RoleAdmin, RoleCustomer},
	CapProductsManage:  {RoleAdmin},
	CapProductsRestore: {RoleAdmin},
	CapCategories:      {RoleAdmin},
	CapBrands:          {RoleAdmin},
	CapUsersView:       {RoleAdmin},
}

// Roles captures a list of roles and exposes intersection checks used for RBAC evaluation.
type Roles []Role

// Has returns true if the provided role exists in the set.
func (rs Roles) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// Intersects returns true if any role in the candidate slice is also present in the set.
func (rs Roles) Intersects(candidate Roles) bool {
	for _, role := range candidate {
		if rs.Has(role) {
			return true
		}
	}
	return false
}

// NormaliseRole maps a raw backend role onto a Role. Anything that is not admin is
// treated as a customer.
func NormaliseRole(raw string) Role {
	if Role(strings.ToLower(strings.TrimSpace(raw))) == RoleAdmin {
		return RoleAdmin
	}
	return RoleCustomer
}

// RolesForCapability returns the configured roles able to access the capability.
func RolesForCapability(cap Capability) Roles {
	if roles, ok := capabilityRoles[cap]; ok {
		return roles
	}
	return nil
}

// HasCapability reports whether the role grants the capability. Undefined
// capabilities are denied to everyone; an empty one is always allowed.
func HasCapability(rawRole string, capability Capability) bool {
	if capability == "" {
		return true
	}
	allowed := RolesForCapability(capability)
	if len(allowed) == 0 {
		return false
	}
	return allowed.Has(NormaliseRole(rawRole))
}

// CapabilitiesForRole enumerates the capabilities accessible to the role.
func CapabilitiesForRole(rawRole string) map[Capability]bool {
	role := NormaliseRole(rawRole)
	caps := make(map[Capability]bool, len(capabilityRoles))
	for capability, allowed := range capabilityRoles {
		if allowed.Has(role) {
			caps[capability] = true
		}
	}
	return caps
}
