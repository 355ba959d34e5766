package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGrants(t *testing.T, raw ...string) []Grant {
	t.Helper()
	grants, errs := ParseGrants(raw)
	require.Empty(t, errs)
	return grants
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name     string
		grants   []string
		action   string
		resource string
		want     bool
	}{
		{"exact match", []string{"read:chat"}, "read", "chat", true},
		{"action mismatch", []string{"read:chat"}, "write", "chat", false},
		{"resource mismatch", []string{"read:chat"}, "read", "settings", false},
		{"wildcard action", []string{"*:chat"}, "delete", "chat", true},
		{"wildcard resource", []string{"read:*"}, "read", "users", true},
		{"wildcard resource wrong action", []string{"read:*"}, "write", "users", false},
		{"all access", []string{"*:*"}, "anything", "anywhere", true},
		{"case sensitive", []string{"read:chat"}, "Read", "chat", false},
		{"second grant matches", []string{"read:chat", "update:settings"}, "update", "settings", true},
		{"empty set", nil, "read", "chat", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Satisfies(mustGrants(t, tt.grants...), tt.action, tt.resource))
		})
	}
}

func TestSatisfies_LiteralStarInRequestIsNotAWildcard(t *testing.T) {
	grants := mustGrants(t, "read:chat")
	assert.False(t, Satisfies(grants, "*", "chat"))
	assert.False(t, Satisfies(grants, "read", "*"))
}

func TestPrincipal_RootBypassesGrants(t *testing.T) {
	root := &Principal{ID: uuid.New(), IsRoot: true}

	assert.True(t, root.Can("delete", "users"))
	assert.True(t, root.Can("anything", "anywhere"))

	user := &Principal{ID: uuid.New(), Grants: mustGrants(t, "read:chat")}
	assert.True(t, user.Can("read", "chat"))
	assert.False(t, user.Can("write", "chat"))

	var nobody *Principal
	assert.False(t, nobody.Can("read", "chat"))
}

func TestParseGrant(t *testing.T) {
	g, err := ParseGrant("update:settings")
	require.NoError(t, err)
	assert.Equal(t, Grant{Action: "update", Resource: "settings"}, g)
	assert.Equal(t, "update:settings", g.String())

	for _, bad := range []string{"", "read", ":chat", "read:", "a:b:c"} {
		_, err := ParseGrant(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseGrants_SkipsMalformed(t *testing.T) {
	grants, errs := ParseGrants([]string{"read:chat", "garbage", "*:*"})

	assert.Len(t, errs, 1)
	assert.Equal(t, []Grant{{"read", "chat"}, AllAccess}, grants)
	assert.Equal(t, []string{"read:chat", "*:*"}, GrantStrings(grants))
}
