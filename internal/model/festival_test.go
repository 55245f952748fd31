package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestParseApprovalStatus(t *testing.T) {
    for in, want := range map[string]ApprovalStatus{
        "pending":    ApprovalPending,
        " APPROVED ": ApprovalApproved,
        "Rejected":   ApprovalRejected,
    } {
        got, err := ParseApprovalStatus(in)
        require.NoError(t, err, in)
        assert.Equal(t, want, got)
    }

    for _, bad := range []string{"", "approve", "DRAFT", "public"} {
        _, err := ParseApprovalStatus(bad)
        assert.Error(t, err, bad)
    }
}

func TestApprovalTransitions(t *testing.T) {
    assert.True(t, ApprovalPending.CanTransition(ApprovalApproved))
    assert.True(t, ApprovalPending.CanTransition(ApprovalRejected))
    assert.False(t, ApprovalPending.CanTransition(ApprovalPending))
    assert.False(t, ApprovalApproved.CanTransition(ApprovalRejected))
    assert.False(t, ApprovalRejected.CanTransition(ApprovalApproved))
    assert.False(t, ApprovalApproved.CanTransition(ApprovalPending))
}

func TestVisibleOnlyWhenApproved(t *testing.T) {
    assert.True(t, ApprovalApproved.Visible())
    assert.False(t, ApprovalPending.Visible())
    assert.False(t, ApprovalRejected.Visible())
}

func TestFestivalBookable(t *testing.T) {
    f := Festival{ApprovalStatus: ApprovalApproved, IsPublic: true}
    assert.True(t, f.Bookable())

    f.IsPublic = false
    assert.False(t, f.Bookable())

    f = Festival{ApprovalStatus: ApprovalPending, IsPublic: true}
    assert.False(t, f.Bookable())
}

func TestProgramLimit(t *testing.T) {
    solo := Program{Mode: ModeSolo, SeatLimit: 30}
    require.NotNil(t, solo.Limit())
    assert.Equal(t, uint32(30), *solo.Limit())

    group := Program{Mode: ModeGroup, SeatLimit: 30}
    assert.Nil(t, group.Limit())

    teams := uint32(2)
    group.TeamLimit = &teams
    require.NotNil(t, group.Limit())
    assert.Equal(t, uint32(2), *group.Limit())
}

func TestParseBookingMode(t *testing.T) {
    m, err := ParseBookingMode("")
    require.NoError(t, err)
    assert.Equal(t, ModeSolo, m)

    m, err = ParseBookingMode("GROUP")
    require.NoError(t, err)
    assert.Equal(t, ModeGroup, m)

    _, err = ParseBookingMode("team")
    assert.Error(t, err)
}
