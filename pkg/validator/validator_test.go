package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid", "abcdef1!", ""},
		{"too short", "ab1!", "at least 8"},
		{"no number", "abcdefgh!", "number"},
		{"no special", "abcdefgh1", "special"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Password(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestUsername(t *testing.T) {
	assert.NoError(t, Username("alice_01"))
	assert.Error(t, Username(""))
	assert.Error(t, Username("ab"))
	assert.Error(t, Username("bad name"))
}

func TestLtreePath(t *testing.T) {
	assert.NoError(t, LtreePath("global.app.chat.user.a1b2_c3"))
	assert.Error(t, LtreePath(""))
	assert.Error(t, LtreePath("global..system"))
	assert.Error(t, LtreePath("global.user.a-b"))
	assert.Error(t, LtreePath("global.user.a/b"))
}

func TestPermissionName(t *testing.T) {
	assert.NoError(t, PermissionName("read:chat"))
	assert.NoError(t, PermissionName("*:*"))
	assert.Error(t, PermissionName("read"))
	assert.Error(t, PermissionName(":chat"))
	assert.Error(t, PermissionName("read:"))
	assert.Error(t, PermissionName("a:b:c"))
}

func TestValidator_StructTags(t *testing.T) {
	type request struct {
		Username string `validate:"required,username"`
		Password string `validate:"required,password"`
	}

	v := New()

	assert.NoError(t, v.Validate(&request{Username: "alice", Password: "abcdef1!"}))

	err := v.Validate(&request{Username: "alice", Password: "abcdefgh"})
	assert.ErrorContains(t, err, "number")

	err = v.Validate(&request{Password: "abcdef1!"})
	assert.ErrorContains(t, err, "username failed on required")
}

func TestValidator_PermissionTag(t *testing.T) {
	type request struct {
		Name string `validate:"required,permission"`
	}

	v := New()

	assert.NoError(t, v.Validate(&request{Name: "read:settings"}))
	assert.NoError(t, v.Validate(&request{Name: "*:*"}))
	assert.ErrorContains(t, v.Validate(&request{Name: "settings"}), "action:resource")
}
