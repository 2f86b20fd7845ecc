// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package fieldvalidators_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/fieldvalidators"
)

func testField(t *testing.T, name string) field.CustomField {
	t.Helper()
	parsed, err := field.ParseCustomField(name)
	require.NoError(t, err)
	return parsed
}

/*
TestSimple verifies the free-text validator: UTF-8 well-formedness, the
control character ban, and the rune-counted length bound.
*/
func TestSimple(t *testing.T) {
	homepage := testField(t, "homepage")

	testCases := []struct {
		name      string
		maxLength int
		value     string
		wantErr   bool
	}{
		{name: "plain_text", maxLength: 20, value: "hello world"},
		{name: "empty_value", maxLength: 20, value: ""},
		{name: "unbounded", maxLength: 0, value: strings.Repeat("x", 10_000)},
		{name: "at_bound", maxLength: 5, value: "abcde"},
		{name: "over_bound", maxLength: 5, value: "abcdef", wantErr: true},
		{name: "runes_not_bytes", maxLength: 5, value: "ééééé"},
		{name: "control_character", maxLength: 20, value: "a\tb", wantErr: true},
		{name: "newline", maxLength: 20, value: "a\nb", wantErr: true},
		{name: "invalid_utf8", maxLength: 20, value: string([]byte{0xff, 0xfe}), wantErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := fieldvalidators.Simple(testCase.maxLength)(homepage, testCase.value)
			if testCase.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestEnum verifies membership in the allowed set.
*/
func TestEnum(t *testing.T) {
	category := testField(t, "category")
	validate := fieldvalidators.Enum([]string{"research", "teaching"})

	assert.NoError(t, validate(category, "research"))
	assert.NoError(t, validate(category, "teaching"))
	assert.Error(t, validate(category, "outreach"))
	assert.Error(t, validate(category, ""))
	assert.Error(t, validate(category, "Research"))
}

/*
TestGravatar_HashShape checks that hash shape failures are rejected
locally, without probing the network.
*/
func TestGravatar_HashShape(t *testing.T) {
	avatar := testField(t, "avatar")
	validate := fieldvalidators.Gravatar(nil)

	for name, value := range map[string]string{
		"too_short": "abc123",
		"too_long":  strings.Repeat("a", 33),
		"uppercase": strings.Repeat("A", 32),
		"non_hex":   strings.Repeat("g", 32),
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, validate(avatar, value))
		})
	}
}

/*
TestHashFor verifies the canonical gravatar hashing rules: trimmed,
lowercased, md5 hex.
*/
func TestHashFor(t *testing.T) {
	// Reference hash from the gravatar documentation.
	want := "0bc83cb571cd1c50ba6f3e8a78ef1346"
	assert.Equal(t, want, fieldvalidators.HashFor("MyEmailAddress@example.com "))
	assert.Equal(t, want, fieldvalidators.HashFor("myemailaddress@example.com"))
}

/*
TestBuild verifies factory wiring: parameter parsing and unknown
validator names.
*/
func TestBuild(t *testing.T) {
	homepage := testField(t, "homepage")

	t.Run("simple_with_max_length", func(t *testing.T) {
		validate, err := fieldvalidators.Build("simple", map[string]string{"max-length": "3"})
		require.NoError(t, err)
		assert.NoError(t, validate(homepage, "abc"))
		assert.Error(t, validate(homepage, "abcd"))
	})

	t.Run("simple_without_params", func(t *testing.T) {
		validate, err := fieldvalidators.Build("simple", nil)
		require.NoError(t, err)
		assert.NoError(t, validate(homepage, strings.Repeat("x", 1000)))
	})

	t.Run("simple_bad_max_length", func(t *testing.T) {
		_, err := fieldvalidators.Build("simple", map[string]string{"max-length": "lots"})
		assert.Error(t, err)
	})

	t.Run("enum_pipe_separated", func(t *testing.T) {
		validate, err := fieldvalidators.Build("enum", map[string]string{"values": "a| b |c"})
		require.NoError(t, err)
		assert.NoError(t, validate(homepage, "a"))
		assert.NoError(t, validate(homepage, "b"))
		assert.Error(t, validate(homepage, "d"))
	})

	t.Run("enum_requires_values", func(t *testing.T) {
		_, err := fieldvalidators.Build("enum", nil)
		assert.Error(t, err)
	})

	t.Run("unknown_validator", func(t *testing.T) {
		_, err := fieldvalidators.Build("markdown", nil)
		assert.Error(t, err)
	})
}

/*
TestParseConfig verifies FIELD_CONFIG parsing: flags, params, the
group/user registry split, and malformed entries.
*/
func TestParseConfig(t *testing.T) {
	t.Run("full_configuration", func(t *testing.T) {
		groupFields, userFields, err := fieldvalidators.ParseConfig(
			"homepage:simple:public:minimal:max-length=200," +
				"category:enum:values=research|teaching," +
				"title:simple:user:settable:max-length=50")
		require.NoError(t, err)

		assert.Equal(t, []string{"category", "homepage"}, groupFields.Fields())
		assert.Equal(t, []string{"title"}, userFields.Fields())

		homepage := testField(t, "homepage")
		assert.True(t, groupFields.IsPublic(homepage))
		assert.True(t, groupFields.IsMinimalView(homepage))
		assert.NoError(t, groupFields.Validate(homepage, "https://example.com"))
		assert.Error(t, groupFields.Validate(homepage, strings.Repeat("x", 201)))

		category := testField(t, "category")
		assert.False(t, groupFields.IsPublic(category))
		assert.NoError(t, groupFields.Validate(category, "teaching"))
		assert.Error(t, groupFields.Validate(category, "outreach"))

		title := testField(t, "title")
		assert.True(t, userFields.IsUserSettable(title))
		assert.NoError(t, userFields.Validate(title, "lead"))
	})

	t.Run("empty_config", func(t *testing.T) {
		groupFields, userFields, err := fieldvalidators.ParseConfig("")
		require.NoError(t, err)
		assert.Empty(t, groupFields.Fields())
		assert.Empty(t, userFields.Fields())
	})

	t.Run("whitespace_entries_skipped", func(t *testing.T) {
		groupFields, _, err := fieldvalidators.ParseConfig(" homepage:simple , ")
		require.NoError(t, err)
		assert.Equal(t, []string{"homepage"}, groupFields.Fields())
	})

	t.Run("missing_validator", func(t *testing.T) {
		_, _, err := fieldvalidators.ParseConfig("homepage")
		assert.Error(t, err)
	})

	t.Run("unknown_flag", func(t *testing.T) {
		_, _, err := fieldvalidators.ParseConfig("homepage:simple:shiny")
		assert.Error(t, err)
	})

	t.Run("unknown_validator", func(t *testing.T) {
		_, _, err := fieldvalidators.ParseConfig("homepage:markdown")
		assert.Error(t, err)
	})

	t.Run("illegal_field_name", func(t *testing.T) {
		_, _, err := fieldvalidators.ParseConfig("Home:simple")
		assert.Error(t, err)
	})
}
