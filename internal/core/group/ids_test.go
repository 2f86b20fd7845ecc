// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package group_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/platform/apperr"
)

/*
TestParseID checks the group id grammar.
*/
func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		isValid bool
	}{
		{"simple", "mygroup", true},
		{"with_separators", "my-group_2", true},
		{"single_letter", "g", true},
		{"max_length", "g" + strings.Repeat("a", 99), true},
		{"empty", "", false},
		{"too_long", "g" + strings.Repeat("a", 100), false},
		{"starts_with_digit", "1group", false},
		{"starts_with_hyphen", "-group", false},
		{"uppercase", "MyGroup", false},
		{"whitespace", "my group", false},
		{"accented_letter", "grupé", false},
		{"cyrillic", "группа", false},
		{"arabic_indic_digit", "a١", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := group.ParseID(tt.id)
			if tt.isValid {
				require.NoError(t, err)
				assert.Equal(t, tt.id, id.String())
			} else {
				require.Error(t, err)
				assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
			}
		})
	}
}

/*
TestParseName checks the group name rules.
*/
func TestParseName(t *testing.T) {
	tests := []struct {
		name      string
		groupName string
		isValid   bool
	}{
		{"simple", "My Research Group", true},
		{"unicode", "Группа Исследований", true},
		{"max_length", strings.Repeat("n", 256), true},
		{"empty", "", false},
		{"too_long", strings.Repeat("n", 257), false},
		{"control_char", "bad\x00name", false},
		{"newline", "bad\nname", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := group.ParseName(tt.groupName)
			if tt.isValid {
				require.NoError(t, err)
				assert.Equal(t, tt.groupName, name.String())
			} else {
				require.Error(t, err)
			}
		})
	}
}

/*
TestParseUserName checks the username grammar.
*/
func TestParseUserName(t *testing.T) {
	tests := []struct {
		name     string
		username string
		isValid  bool
	}{
		{"simple", "u1", true},
		{"with_underscore", "some_user", true},
		{"max_length", "u" + strings.Repeat("a", 99), true},
		{"empty", "", false},
		{"too_long", "u" + strings.Repeat("a", 100), false},
		{"starts_with_digit", "1user", false},
		{"uppercase", "User", false},
		{"hyphen", "some-user", false},
		{"cyrillic", "пользователь", false},
		{"arabic_indic_digit", "u١", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := group.ParseUserName(tt.username)
			if tt.isValid {
				require.NoError(t, err)
				assert.Equal(t, tt.username, user.String())
			} else {
				require.Error(t, err)
			}
		})
	}
}

/*
TestRole_Ordering verifies role comparison semantics.
*/
func TestRole_Ordering(t *testing.T) {
	assert.True(t, group.RoleOwner.AtLeast(group.RoleAdmin))
	assert.True(t, group.RoleAdmin.AtLeast(group.RoleMember))
	assert.True(t, group.RoleMember.AtLeast(group.RoleNone))
	assert.False(t, group.RoleMember.AtLeast(group.RoleAdmin))
	assert.False(t, group.RoleNone.AtLeast(group.RoleMember))

	assert.Equal(t, "owner", group.RoleOwner.String())
	assert.Equal(t, "admin", group.RoleAdmin.String())
	assert.Equal(t, "member", group.RoleMember.String())
	assert.Equal(t, "none", group.RoleNone.String())
}
