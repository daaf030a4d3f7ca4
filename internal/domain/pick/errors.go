package pick

import "errors"

var (
	ErrInvalidTeamForGame        = errors.New("team does not play a game this week")
	ErrTeamAlreadyUsedThisSeason = errors.New("team already used this season")
	ErrByeCapExceeded            = errors.New("bye limit reached")
	ErrNoEditableCapacity        = errors.New("no editable pick slots left this week")
	ErrDuplicateTeam             = errors.New("team submitted twice")
)
