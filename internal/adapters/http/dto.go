package http

import (
	"time"

	"github.com/randomtoy/teamsync/internal/app"
	"github.com/randomtoy/teamsync/internal/domain"
)

// SessionResponse is the JSON shape of a session snapshot.
type SessionResponse struct {
	ID             string           `json:"id"`
	Text           string           `json:"text"`
	Names          []string         `json:"names"`
	Count          int              `json:"count"`
	Duplicates     []string         `json:"duplicates"`
	Winners        []WinnerResponse `json:"winners"`
	AllowRepeat    bool             `json:"allow_repeat"`
	Eligible       int              `json:"eligible"`
	State          string           `json:"state"`
	Display        string           `json:"display"`
	GroupSize      int              `json:"group_size"`
	ExpectedGroups int              `json:"expected_groups"`
	Groups         []GroupResponse  `json:"groups"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type WinnerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

type GroupResponse struct {
	ID      int      `json:"id"`
	Members []string `json:"members"`
}

type NamesResponse struct {
	Names      []string `json:"names"`
	Count      int      `json:"count"`
	Duplicates []string `json:"duplicates"`
}

type GroupsResponse struct {
	GroupSize int             `json:"group_size"`
	Groups    []GroupResponse `json:"groups"`
}

type NamesRequest struct {
	Text string `json:"text"`
}

type DrawSettingsRequest struct {
	AllowRepeat *bool `json:"allow_repeat"`
}

type DrawAcceptedResponse struct {
	State    string `json:"state"`
	Round    uint64 `json:"round"`
	Eligible int    `json:"eligible"`
}

// DrawEventPayload is the data line of one server-sent draw event.
type DrawEventPayload struct {
	Round  uint64          `json:"round"`
	Name   string          `json:"name,omitempty"`
	Winner *WinnerResponse `json:"winner,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

type ResetResponse struct {
	Reset bool `json:"reset"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toSessionResponse(s app.Snapshot) SessionResponse {
	winners := make([]WinnerResponse, len(s.Winners))
	for i, w := range s.Winners {
		winners[i] = toWinnerResponse(w)
	}
	return SessionResponse{
		ID:             s.ID,
		Text:           s.Text,
		Names:          nonNil(s.Names),
		Count:          len(s.Names),
		Duplicates:     nonNil(s.Duplicates),
		Winners:        winners,
		AllowRepeat:    s.AllowRepeat,
		Eligible:       s.Eligible,
		State:          string(s.State),
		Display:        s.Display,
		GroupSize:      s.GroupSize,
		ExpectedGroups: s.ExpectedGroups,
		Groups:         toGroupResponses(s.Groups),
		UpdatedAt:      s.UpdatedAt,
	}
}

func toNamesResponse(names domain.NameList) NamesResponse {
	return NamesResponse{
		Names:      nonNil(names),
		Count:      len(names),
		Duplicates: nonNil(domain.FindDuplicates(names)),
	}
}

func toWinnerResponse(w domain.WinnerRecord) WinnerResponse {
	return WinnerResponse{ID: w.ID, Name: w.Name, Timestamp: w.Timestamp}
}

// toGroupResponses numbers groups from 1, matching the CSV export.
func toGroupResponses(groups []domain.Group) []GroupResponse {
	out := make([]GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = GroupResponse{ID: i + 1, Members: nonNil(g)}
	}
	return out
}

func toEventPayload(ev app.DrawEvent) DrawEventPayload {
	p := DrawEventPayload{Round: ev.Round, Name: ev.Name}
	if ev.Winner != nil {
		w := toWinnerResponse(*ev.Winner)
		p.Winner = &w
	}
	if ev.Err != nil {
		p.Reason = ev.Err.Error()
	}
	return p
}

func nonNil[S ~[]string](s S) []string {
	if s == nil {
		return []string{}
	}
	return s
}
