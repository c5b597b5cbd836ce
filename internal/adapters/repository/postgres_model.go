package repository

import (
	"database/sql"
	"time"

	"github.com/okian/pitchlog/internal/domain/model"
)

type matchTableModel struct {
	ID           string    `db:"id"`
	MatchDate    time.Time `db:"match_date"`
	Opponent     string    `db:"opponent"`
	GoalsFor     int       `db:"goals_for"`
	GoalsAgainst int       `db:"goals_against"`
	Notes        string    `db:"notes"`
	CreatedAt    time.Time `db:"created_at"`
}

type goalEventTableModel struct {
	MatchID    string          `db:"match_id"`
	Seq        int             `db:"seq"`
	Side       string          `db:"side"`
	Minute     int             `db:"minute"`
	PlayType   string          `db:"play_type"`
	ABPSubtype string          `db:"abp_subtype"`
	X          float64         `db:"x"`
	Y          float64         `db:"y"`
	XEnd       sql.NullFloat64 `db:"x_end"`
	YEnd       sql.NullFloat64 `db:"y_end"`
}

type reportTableModel struct {
	ID          string       `db:"id"`
	NumMatches  int          `db:"num_matches"`
	Status      string       `db:"status"`
	Content     string       `db:"content"`
	Error       string       `db:"error"`
	Summary     []byte       `db:"summary"`
	CreatedAt   time.Time    `db:"created_at"`
	CompletedAt sql.NullTime `db:"completed_at"`
}

func (row *matchTableModel) toDomain(events []model.GoalEvent) model.Match {
	if events == nil {
		events = []model.GoalEvent{}
	}
	return model.Match{
		ID:           row.ID,
		Date:         row.MatchDate.Format(model.DateLayout),
		Opponent:     row.Opponent,
		GoalsFor:     row.GoalsFor,
		GoalsAgainst: row.GoalsAgainst,
		Notes:        row.Notes,
		GoalEvents:   events,
		CreatedAt:    row.CreatedAt.UTC(),
	}
}

func goalEventRow(matchID string, seq int, e *model.GoalEvent) goalEventTableModel {
	return goalEventTableModel{
		MatchID:    matchID,
		Seq:        seq,
		Side:       string(e.Side),
		Minute:     e.Minute,
		PlayType:   e.PlayType,
		ABPSubtype: e.ABPSubtype,
		X:          e.X,
		Y:          e.Y,
		XEnd:       nullFloat(e.XEnd),
		YEnd:       nullFloat(e.YEnd),
	}
}

func (row *goalEventTableModel) toDomain() model.GoalEvent {
	return model.GoalEvent{
		Side:       model.Side(row.Side),
		Minute:     row.Minute,
		PlayType:   row.PlayType,
		ABPSubtype: row.ABPSubtype,
		X:          row.X,
		Y:          row.Y,
		XEnd:       floatPtr(row.XEnd),
		YEnd:       floatPtr(row.YEnd),
	}
}

func (row *reportTableModel) toDomain() model.Report {
	r := model.Report{
		ID:         row.ID,
		NumMatches: row.NumMatches,
		Status:     model.ReportStatus(row.Status),
		Content:    row.Content,
		Error:      row.Error,
		Summary:    row.Summary,
		CreatedAt:  row.CreatedAt.UTC(),
	}
	if row.CompletedAt.Valid {
		at := row.CompletedAt.Time.UTC()
		r.CompletedAt = &at
	}
	return r
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
