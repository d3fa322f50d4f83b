package shared

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Challenge describes one mining round as issued by the scavenger service.
// All fields are immutable for the lifetime of one search; a new Challenge
// must be fetched to start a new round.
type Challenge struct {
	ChallengeID string `json:"challenge_id"`

	// Day and ChallengeNumber identify the round's position in the overall
	// sequence. They are used for reward lookups only, never by the search.
	Day             uint32 `json:"day"`
	ChallengeNumber uint32 `json:"challenge_number"`

	// Difficulty is a hex-encoded byte string. The first decoded bytes (up
	// to DifficultyWindow) define the target threshold for MeetsDifficulty.
	// The raw hex text is also a component of every preimage.
	Difficulty string `json:"difficulty"`

	// NoPreMine seeds the work-memory construction for the round and is
	// concatenated into every preimage.
	NoPreMine string `json:"no_pre_mine"`

	// LatestSubmission and NoPreMineHour bind each attempt to round-specific
	// entropy supplied by the server.
	LatestSubmission string `json:"latest_submission"`
	NoPreMineHour    string `json:"no_pre_mine_hour"`
}

// Validate checks that every field taking part in the preimage encoding is
// present and that the difficulty decodes as hex. All problems are reported
// at once.
func (c *Challenge) Validate() error {
	var result *multierror.Error

	if c.ChallengeID == "" {
		result = multierror.Append(result, errors.New("challenge_id is empty"))
	}
	if c.NoPreMine == "" {
		result = multierror.Append(result, errors.New("no_pre_mine is empty"))
	}
	if c.LatestSubmission == "" {
		result = multierror.Append(result, errors.New("latest_submission is empty"))
	}
	if c.NoPreMineHour == "" {
		result = multierror.Append(result, errors.New("no_pre_mine_hour is empty"))
	}
	if c.Difficulty == "" {
		result = multierror.Append(result, errors.New("difficulty is empty"))
	} else if _, err := hex.DecodeString(c.Difficulty); err != nil {
		result = multierror.Append(result, fmt.Errorf("difficulty is not valid hex: %w", err))
	}

	return result.ErrorOrNil()
}
