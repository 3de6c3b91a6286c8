package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minetourney/go-services/shared/models"
)

func validInput() RegisterTeamInput {
	return RegisterTeamInput{
		Ref:       models.TournamentRef{TournamentID: "t1"},
		TeamName:  "Creepers",
		CaptainID: "u-cap",
		Players: []models.Player{
			{IGN: "Steve", Discord: "steve#1", UserID: "u-cap"},
			{IGN: "Alex", Discord: "alex#1"},
		},
		RewardIGN: "Steve",
	}
}

func TestValidateRegisterInput(t *testing.T) {
	assert.NoError(t, validateRegisterInput(validInput()))
}

func TestValidateRegisterInputRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterTeamInput)
	}{
		{"both ref sides set", func(in *RegisterTeamInput) { in.Ref.Date = "2026-09-01" }},
		{"no ref side set", func(in *RegisterTeamInput) { in.Ref = models.TournamentRef{} }},
		{"blank team name", func(in *RegisterTeamInput) { in.TeamName = "   " }},
		{"empty roster", func(in *RegisterTeamInput) { in.Players = nil }},
		{"player without IGN", func(in *RegisterTeamInput) { in.Players[1].IGN = "" }},
		{"player without Discord", func(in *RegisterTeamInput) { in.Players[1].Discord = " " }},
		{"duplicate roster slot", func(in *RegisterTeamInput) { in.Players[1] = in.Players[0] }},
		{"reward receiver off roster", func(in *RegisterTeamInput) { in.RewardIGN = "Herobrine" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			assert.ErrorIs(t, validateRegisterInput(in), ErrValidation)
		})
	}
}

func TestValidateRegisterInputRewardCaseInsensitive(t *testing.T) {
	in := validInput()
	in.RewardIGN = "  sTeVe "
	assert.NoError(t, validateRegisterInput(in))
}

func TestShrinkDisbands(t *testing.T) {
	assert.True(t, shrinkDisbands(1, 0))
	assert.True(t, shrinkDisbands(2, 1), "a duo cannot run short-handed")
	assert.True(t, shrinkDisbands(4, 0))
	assert.False(t, shrinkDisbands(4, 3), "a squad may run short-handed for a while")
	assert.False(t, shrinkDisbands(4, 1))
}

func TestValidateCaptainTransfer(t *testing.T) {
	team := &models.Team{
		ID:        "team1",
		CaptainID: "u-cap",
		Players: []models.Player{
			{IGN: "Steve", UserID: "u-cap"},
			{IGN: "Alex", UserID: "u-alex"},
		},
	}

	assert.NoError(t, validateCaptainTransfer(team, "u-cap", "u-alex"))

	assert.ErrorIs(t, validateCaptainTransfer(team, "u-alex", "u-cap"), ErrForbidden,
		"only the captain may hand off the role")
	assert.ErrorIs(t, validateCaptainTransfer(team, "u-cap", ""), ErrValidation)
	assert.ErrorIs(t, validateCaptainTransfer(team, "u-cap", "u-cap"), ErrValidation)
	assert.ErrorIs(t, validateCaptainTransfer(team, "u-cap", "u-stranger"), ErrValidation,
		"new captain must already be rostered")
}

func TestBulkCollectsPerItemOutcomes(t *testing.T) {
	res := bulk([]string{"a", "b", "c", "d"}, func(id string) error {
		if id == "b" || id == "d" {
			return fmt.Errorf("%w: nope", ErrForbidden)
		}
		return nil
	})

	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors["b"], "nope")
}

func TestBulkAllSucceed(t *testing.T) {
	res := bulk([]string{"a", "b"}, func(string) error { return nil })
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 0, res.Failed)
	assert.Nil(t, res.Errors)
}

func TestBulkEmpty(t *testing.T) {
	res := bulk(nil, func(string) error { return errors.New("never called") })
	assert.Equal(t, BulkResult{}, res)
}
