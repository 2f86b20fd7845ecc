// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package request_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/request"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustUserName(t *testing.T, name string) group.UserName {
	t.Helper()
	parsed, err := group.ParseUserName(name)
	require.NoError(t, err)
	return parsed
}

func userDescriptor(t *testing.T, name string) resource.Descriptor {
	t.Helper()
	id, err := resource.ParseID(name)
	require.NoError(t, err)
	adminID, err := resource.ParseAdministrativeID(name)
	require.NoError(t, err)
	return resource.NewDescriptor(id, adminID)
}

/*
TestParseID verifies UUID validation and canonicalization.
*/
func TestParseID(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr bool
		want    string
	}{
		{
			name:  "canonical_uuid",
			input: "6d7bad38-cf7c-4f75-9be0-7b5764846a16",
			want:  "6d7bad38-cf7c-4f75-9be0-7b5764846a16",
		},
		{
			name:  "uppercase_is_canonicalized",
			input: "6D7BAD38-CF7C-4F75-9BE0-7B5764846A16",
			want:  "6d7bad38-cf7c-4f75-9be0-7b5764846a16",
		},
		{name: "empty", input: "", wantErr: true},
		{name: "not_a_uuid", input: "request-1", wantErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			id, err := request.ParseID(testCase.input)
			if testCase.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.want, id.String())
		})
	}
}

/*
TestKindAndStatusCodes checks the wire round-trips for kinds and status
codes.
*/
func TestKindAndStatusCodes(t *testing.T) {
	for _, kind := range []request.Kind{request.KindRequest, request.KindInvite} {
		parsed, err := request.ParseKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}
	_, err := request.ParseKind("offer")
	require.Error(t, err)

	codes := []request.StatusCode{
		request.StatusCodeOpen,
		request.StatusCodeCanceled,
		request.StatusCodeExpired,
		request.StatusCodeDenied,
		request.StatusCodeAccepted,
	}
	for _, code := range codes {
		parsed, err := request.ParseStatusCode(code.String())
		require.NoError(t, err)
		assert.Equal(t, code, parsed)
	}
	_, err = request.ParseStatusCode("pending")
	require.Error(t, err)
}

/*
TestStatus verifies the terminal status constructors and the denial
reason bound.
*/
func TestStatus(t *testing.T) {
	closer := mustUserName(t, "admin1")

	t.Run("open", func(t *testing.T) {
		status := request.StatusOpen()
		assert.True(t, status.IsOpen())
		assert.Nil(t, status.ClosedBy())
	})

	t.Run("accepted_records_closer", func(t *testing.T) {
		status := request.StatusAccepted(closer)
		assert.False(t, status.IsOpen())
		require.NotNil(t, status.ClosedBy())
		assert.Equal(t, closer, *status.ClosedBy())
	})

	t.Run("denied_with_reason", func(t *testing.T) {
		status, err := request.StatusDenied(closer, "not a fit")
		require.NoError(t, err)
		assert.Equal(t, request.StatusCodeDenied, status.Code())
		assert.Equal(t, "not a fit", status.Reason())
	})

	t.Run("denial_reason_at_bound", func(t *testing.T) {
		_, err := request.StatusDenied(closer, strings.Repeat("r", 500))
		require.NoError(t, err)
	})

	t.Run("denial_reason_too_long", func(t *testing.T) {
		_, err := request.StatusDenied(closer, strings.Repeat("r", 501))
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
	})
}

/*
TestNew verifies the temporal invariants of request construction.
*/
func TestNew(t *testing.T) {
	id, err := request.ParseID("6d7bad38-cf7c-4f75-9be0-7b5764846a16")
	require.NoError(t, err)
	groupID, err := group.ParseID("mygroup")
	require.NoError(t, err)
	requester := mustUserName(t, "u1")
	descriptor := userDescriptor(t, "u1")

	testCases := []struct {
		name    string
		times   request.Times
		wantErr bool
	}{
		{
			name: "valid",
			times: request.Times{
				CreatedAt:  testEpoch,
				ModifiedAt: testEpoch,
				ExpiresAt:  testEpoch.Add(14 * 24 * time.Hour),
			},
		},
		{
			name: "expiry_equal_to_creation",
			times: request.Times{
				CreatedAt:  testEpoch,
				ModifiedAt: testEpoch,
				ExpiresAt:  testEpoch,
			},
		},
		{
			name: "expiry_before_creation",
			times: request.Times{
				CreatedAt:  testEpoch,
				ModifiedAt: testEpoch,
				ExpiresAt:  testEpoch.Add(-time.Second),
			},
			wantErr: true,
		},
		{
			name: "modified_before_creation",
			times: request.Times{
				CreatedAt:  testEpoch,
				ModifiedAt: testEpoch.Add(-time.Second),
				ExpiresAt:  testEpoch.Add(time.Hour),
			},
			wantErr: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			r, err := request.New(id, groupID, requester, request.KindRequest,
				resource.TypeUser, descriptor, request.StatusOpen(), testCase.times)
			if testCase.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, r.ID())
			assert.Equal(t, groupID, r.GroupID())
			assert.True(t, r.IsOpen())
			assert.True(t, r.ResourceIsUser())
			assert.Equal(t, testCase.times.CreatedAt, r.CreatedAt())
		})
	}
}

/*
TestStatusFromParts checks storage hydration of terminal statuses.
*/
func TestStatusFromParts(t *testing.T) {
	closer := mustUserName(t, "admin1")

	status := request.StatusFromParts(request.StatusCodeDenied, &closer, "no")
	assert.Equal(t, request.StatusCodeDenied, status.Code())
	require.NotNil(t, status.ClosedBy())
	assert.Equal(t, closer, *status.ClosedBy())
	assert.Equal(t, "no", status.Reason())

	open := request.StatusFromParts(request.StatusCodeOpen, nil, "")
	assert.True(t, open.IsOpen())
}
