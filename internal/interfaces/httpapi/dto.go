package httpapi

import (
	"time"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/jobscheduler"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/pick"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/season"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
	"github.com/riskibarqy/nfl-pick-two/internal/usecase"
)

type createLeagueRequest struct {
	Name              string         `json:"name" validate:"required,max=50"`
	Description       string         `json:"description" validate:"max=500"`
	Visibility        string         `json:"visibility" validate:"required,oneof=public private"`
	UniquePointValues bool           `json:"unique_point_values"`
	TeamValues        map[string]int `json:"team_values" validate:"omitempty,dive,keys,required,endkeys,min=1,max=32"`
}

type joinLeagueRequest struct {
	LeagueID string `json:"league_id" validate:"required_without=JoinCode"`
	JoinCode string `json:"join_code" validate:"required_without=LeagueID"`
}

type transferOwnershipRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type setTeamValuesRequest struct {
	Values map[string]int `json:"values" validate:"required,min=1,dive,keys,required,endkeys,min=1,max=32"`
}

type submitWeekRequest struct {
	Mode    string   `json:"mode" validate:"required,oneof=bye teams"`
	TeamIDs []string `json:"team_ids" validate:"max=2,dive,required"`
}

type internalJobRequest struct {
	Force      bool   `json:"force"`
	DispatchID string `json:"dispatch_id" validate:"max=200"`
	// SeasonID is sent by self-scheduled runs; jobs resolve the season themselves.
	SeasonID int64 `json:"season_id"`
}

type syncGamesRequest struct {
	Force bool  `json:"force"`
	Weeks []int `json:"weeks" validate:"max=18,dive,min=1,max=18"`
}

type ingestGamesRequest struct {
	Games []map[string]any `json:"games" validate:"required,min=1,max=500"`
}

type updateTeamPointsRequest struct {
	Points int `json:"points" validate:"required,min=1,max=32"`
}

type seasonDTO struct {
	ID       int64 `json:"id"`
	Year     int   `json:"year"`
	IsActive bool  `json:"is_active"`
}

type teamDTO struct {
	ID                 string `json:"id"`
	Code               string `json:"code"`
	DisplayName        string `json:"display_name"`
	DefaultPointsValue int    `json:"default_points_value"`
}

type leagueDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Visibility        string    `json:"visibility"`
	OwnerUserID       string    `json:"owner_user_id"`
	SeasonID          int64     `json:"season_id"`
	JoinCode          string    `json:"join_code,omitempty"`
	UniquePointValues bool      `json:"unique_point_values"`
	CreatedAt         time.Time `json:"created_at"`
}

type gameDTO struct {
	ID           string    `json:"id"`
	Week         int       `json:"week"`
	HomeTeamID   string    `json:"home_team_id"`
	AwayTeamID   string    `json:"away_team_id"`
	KickoffAt    time.Time `json:"kickoff_at"`
	Status       string    `json:"status"`
	WinnerTeamID *string   `json:"winner_team_id,omitempty"`
	HomeScore    *int      `json:"home_score,omitempty"`
	AwayScore    *int      `json:"away_score,omitempty"`
	Locked       bool      `json:"locked"`
}

type pickDTO struct {
	ID        string    `json:"id"`
	IsBye     bool      `json:"is_bye"`
	TeamID    string    `json:"team_id,omitempty"`
	GameID    string    `json:"game_id,omitempty"`
	Slot      int       `json:"slot,omitempty"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"created_at"`
}

type skippedTeamDTO struct {
	TeamID string `json:"team_id"`
	Reason string `json:"reason"`
}

type weekStateDTO struct {
	LeagueID         string           `json:"league_id"`
	SeasonID         int64            `json:"season_id"`
	Week             int              `json:"week"`
	Picks            []pickDTO        `json:"picks"`
	HasBye           bool             `json:"has_bye"`
	EditableCapacity int              `json:"editable_capacity"`
	ByesUsed         int              `json:"byes_used"`
	ByesRemaining    int              `json:"byes_remaining"`
	Games            []gameDTO        `json:"games,omitempty"`
	Skipped          []skippedTeamDTO `json:"skipped,omitempty"`
}

type teamValueDTO struct {
	Team          teamDTO `json:"team"`
	DefaultPoints int     `json:"default_points_value"`
	Override      *int    `json:"override_points_value,omitempty"`
	PointsValue   int     `json:"points_value"`
}

type byesDTO struct {
	ByesUsed      int `json:"byes_used"`
	MaxByes       int `json:"max_byes"`
	ByesRemaining int `json:"byes_remaining"`
}

type jobRunDTO struct {
	DispatchID   string         `json:"dispatch_id"`
	JobName      string         `json:"job_name"`
	JobPath      string         `json:"job_path"`
	SeasonID     int64          `json:"season_id,omitempty"`
	Status       string         `json:"status"`
	Payload      map[string]any `json:"payload,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
	TraceID      string         `json:"trace_id,omitempty"`
}

func seasonToDTO(v season.Season) seasonDTO {
	return seasonDTO{ID: v.ID, Year: v.Year, IsActive: v.IsActive}
}

func teamToDTO(v team.Team) teamDTO {
	return teamDTO{
		ID:                 v.ID,
		Code:               v.Code,
		DisplayName:        v.DisplayName,
		DefaultPointsValue: v.DefaultPointsValue,
	}
}

func leagueToDTO(v league.League) leagueDTO {
	return leagueDTO{
		ID:                v.ID,
		Name:              v.Name,
		Description:       v.Description,
		Visibility:        string(v.Visibility),
		OwnerUserID:       v.OwnerID,
		SeasonID:          v.SeasonID,
		JoinCode:          v.JoinCode,
		UniquePointValues: v.UniquePointValues,
		CreatedAt:         v.CreatedAt,
	}
}

func gameToDTO(v game.Game, now time.Time) gameDTO {
	return gameDTO{
		ID:           v.ID,
		Week:         v.Week,
		HomeTeamID:   v.HomeTeamID,
		AwayTeamID:   v.AwayTeamID,
		KickoffAt:    v.KickoffAt,
		Status:       string(v.Status),
		WinnerTeamID: v.WinnerTeamID,
		HomeScore:    v.HomeScore,
		AwayScore:    v.AwayScore,
		Locked:       v.IsLocked(now),
	}
}

func weekStateToDTO(state pick.WeekState, byesUsed int) weekStateDTO {
	out := weekStateDTO{
		LeagueID:         state.Key.LeagueID,
		SeasonID:         state.Key.SeasonID,
		Week:             state.Key.Week,
		Picks:            make([]pickDTO, 0, len(state.Picks)),
		HasBye:           state.HasBye,
		EditableCapacity: state.EditableCapacity,
		ByesUsed:         byesUsed,
		ByesRemaining:    max(pick.MaxByes-byesUsed, 0),
	}
	for _, p := range state.Picks {
		item := pickDTO{
			ID:        p.ID,
			IsBye:     p.IsBye(),
			Locked:    state.IsLocked(p),
			CreatedAt: p.CreatedAt,
		}
		if tp, ok := p.Team(); ok {
			item.TeamID = tp.TeamID
			item.GameID = tp.GameID
			item.Slot = tp.Slot
		}
		out.Picks = append(out.Picks, item)
	}
	return out
}

func skippedToDTO(items []pick.SkippedTeam) []skippedTeamDTO {
	if len(items) == 0 {
		return nil
	}
	out := make([]skippedTeamDTO, 0, len(items))
	for _, item := range items {
		out = append(out, skippedTeamDTO{TeamID: item.TeamID, Reason: string(item.Reason)})
	}
	return out
}

func jobRunToDTO(v jobscheduler.DispatchEvent) jobRunDTO {
	return jobRunDTO{
		DispatchID:   v.DispatchID,
		JobName:      v.JobName,
		JobPath:      v.JobPath,
		SeasonID:     v.SeasonID,
		Status:       string(v.Status),
		Payload:      v.Payload,
		ErrorMessage: v.ErrorMessage,
		OccurredAt:   v.OccurredAt,
		TraceID:      v.TraceID,
	}
}

func teamValuesToDTO(items []usecase.EffectiveTeamValue) []teamValueDTO {
	out := make([]teamValueDTO, 0, len(items))
	for _, item := range items {
		out = append(out, teamValueDTO{
			Team:          teamToDTO(item.Team),
			DefaultPoints: item.Default,
			Override:      item.Override,
			PointsValue:   item.Effective,
		})
	}
	return out
}
