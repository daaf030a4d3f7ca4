package postgres

import (
	"database/sql"
	"time"
)

type seasonTableModel struct {
	ID        int64      `db:"id"`
	Year      int        `db:"year"`
	IsActive  bool       `db:"is_active"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type teamTableModel struct {
	ID                 int64      `db:"id"`
	PublicID           string     `db:"public_id"`
	Code               string     `db:"code"`
	DisplayName        string     `db:"display_name"`
	DefaultPointsValue int        `db:"default_points_value"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
	DeletedAt          *time.Time `db:"deleted_at"`
}

type gameTableModel struct {
	ID         int64         `db:"id"`
	PublicID   string        `db:"public_id"`
	SeasonID   int64         `db:"season_id"`
	Week       int           `db:"week"`
	HomeTeamID string        `db:"home_team_public_id"`
	AwayTeamID string        `db:"away_team_public_id"`
	KickoffAt  time.Time     `db:"kickoff_at"`
	Status     string        `db:"status"`
	WinnerTeam *string       `db:"winner_team_public_id"`
	HomeScore  sql.NullInt64 `db:"home_score"`
	AwayScore  sql.NullInt64 `db:"away_score"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
	DeletedAt  *time.Time    `db:"deleted_at"`
}

type gameInsertModel struct {
	PublicID   string        `db:"public_id"`
	SeasonID   int64         `db:"season_id"`
	Week       int           `db:"week"`
	HomeTeamID string        `db:"home_team_public_id"`
	AwayTeamID string        `db:"away_team_public_id"`
	KickoffAt  time.Time     `db:"kickoff_at"`
	Status     string        `db:"status"`
	WinnerTeam *string       `db:"winner_team_public_id"`
	HomeScore  sql.NullInt64 `db:"home_score"`
	AwayScore  sql.NullInt64 `db:"away_score"`
}

type leagueTableModel struct {
	ID                int64      `db:"id"`
	PublicID          string     `db:"public_id"`
	Name              string     `db:"name"`
	Description       string     `db:"description"`
	Visibility        string     `db:"visibility"`
	OwnerUserID       string     `db:"owner_user_id"`
	SeasonID          int64      `db:"season_id"`
	JoinCode          *string    `db:"join_code"`
	UniquePointValues bool       `db:"unique_point_values"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
	DeletedAt         *time.Time `db:"deleted_at"`
}

type leagueInsertModel struct {
	PublicID          string    `db:"public_id"`
	Name              string    `db:"name"`
	Description       string    `db:"description"`
	Visibility        string    `db:"visibility"`
	OwnerUserID       string    `db:"owner_user_id"`
	SeasonID          int64     `db:"season_id"`
	JoinCode          *string   `db:"join_code"`
	UniquePointValues bool      `db:"unique_point_values"`
	CreatedAt         time.Time `db:"created_at"`
}

type leagueMemberTableModel struct {
	LeagueID string    `db:"league_public_id"`
	UserID   string    `db:"user_id"`
	Role     string    `db:"role"`
	JoinedAt time.Time `db:"joined_at"`
}

type leagueMemberStateTableModel struct {
	LeagueID string `db:"league_public_id"`
	UserID   string `db:"user_id"`
	ByesUsed int    `db:"byes_used"`
}

type leagueTeamValueTableModel struct {
	LeagueID    string `db:"league_public_id"`
	TeamID      string `db:"team_public_id"`
	PointsValue int    `db:"points_value"`
}

type pickTableModel struct {
	PublicID  string        `db:"public_id"`
	LeagueID  string        `db:"league_public_id"`
	UserID    string        `db:"user_id"`
	SeasonID  int64         `db:"season_id"`
	Week      int           `db:"week"`
	IsBye     bool          `db:"is_bye"`
	TeamID    *string       `db:"team_public_id"`
	GameID    *string       `db:"game_public_id"`
	Slot      sql.NullInt64 `db:"slot"`
	CreatedAt time.Time     `db:"created_at"`
}

type scoreTableModel struct {
	LeagueID     string    `db:"league_public_id"`
	UserID       string    `db:"user_id"`
	SeasonID     int64     `db:"season_id"`
	Week         int       `db:"week"`
	Points       int       `db:"points"`
	CalculatedAt time.Time `db:"calculated_at"`
}

type jobDispatchInsertModel struct {
	DispatchID       string     `db:"dispatch_id"`
	JobName          string     `db:"job_name"`
	JobPath          string     `db:"job_path"`
	SeasonID         int64      `db:"season_id"`
	Payload          string     `db:"payload"`
	Status           string     `db:"status"`
	SentAt           *time.Time `db:"sent_at"`
	CompletedAt      *time.Time `db:"completed_at"`
	FailedAt         *time.Time `db:"failed_at"`
	LastError        *string    `db:"last_error"`
	SentTraceID      *string    `db:"sent_trace_id"`
	SentSpanID       *string    `db:"sent_span_id"`
	CompletedTraceID *string    `db:"completed_trace_id"`
	CompletedSpanID  *string    `db:"completed_span_id"`
	FailedTraceID    *string    `db:"failed_trace_id"`
	FailedSpanID     *string    `db:"failed_span_id"`
}

type jobDispatchTableModel struct {
	ID               int64      `db:"id"`
	DispatchID       string     `db:"dispatch_id"`
	JobName          string     `db:"job_name"`
	JobPath          string     `db:"job_path"`
	SeasonID         int64      `db:"season_id"`
	Payload          string     `db:"payload"`
	Status           string     `db:"status"`
	SentAt           *time.Time `db:"sent_at"`
	CompletedAt      *time.Time `db:"completed_at"`
	FailedAt         *time.Time `db:"failed_at"`
	LastError        *string    `db:"last_error"`
	SentTraceID      *string    `db:"sent_trace_id"`
	SentSpanID       *string    `db:"sent_span_id"`
	CompletedTraceID *string    `db:"completed_trace_id"`
	CompletedSpanID  *string    `db:"completed_span_id"`
	FailedTraceID    *string    `db:"failed_trace_id"`
	FailedSpanID     *string    `db:"failed_span_id"`
	UpdatedAt        time.Time  `db:"updated_at"`
}
