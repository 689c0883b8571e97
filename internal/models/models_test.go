package models_test

import (
	"testing"

	"katalog/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Wireless Headphones":    "wireless-headphones",
		"  Café Crème  ":         "cafe-creme",
		"Home & Garden":          "home-garden",
		"USB-C -- Cable":         "usb-c-cable",
		"Already-a-slug":         "already-a-slug",
		"Ünïcödé_Name":           "unicode_name",
		"---Leading and trailing": "leading-and-trailing",
		"日本":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, models.Slugify(in), "Slugify(%q)", in)
	}
}

func TestVariant_IsInStock(t *testing.T) {
	for _, stock := range []uint{0, 1, 2, 1000} {
		v := models.Variant{Stock: stock}
		assert.Equal(t, stock > 0, v.IsInStock(), "stock=%d", stock)
	}
}

func TestRoles_AddRemoveAreIdempotent(t *testing.T) {
	var roles models.Roles
	roles = roles.Add(models.RoleCustomer)
	roles = roles.Add(models.RoleCustomer)
	assert.Equal(t, models.Roles{models.RoleCustomer}, roles)

	roles = roles.Remove(models.RoleAdmin)
	assert.Equal(t, models.Roles{models.RoleCustomer}, roles)

	roles = roles.Add(models.RoleAdmin).Remove(models.RoleCustomer)
	assert.Equal(t, models.Roles{models.RoleAdmin}, roles)
}

func TestUser_RoleHelpers(t *testing.T) {
	u := &models.User{}
	assert.False(t, u.IsCustomer())

	assert.True(t, u.AddRole(models.RoleSeller))
	assert.False(t, u.AddRole(models.RoleSeller))
	assert.True(t, u.IsSeller())
	assert.False(t, u.IsAdmin())

	assert.True(t, u.RemoveRole(models.RoleSeller))
	assert.False(t, u.RemoveRole(models.RoleSeller))
	assert.Empty(t, u.Roles)
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, models.RoleAdmin.Valid())
	assert.False(t, models.Role("root").Valid())
}
