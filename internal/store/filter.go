package store

import (
	"sort"
	"strings"

	"github.com/greenroom-live/greenroom/internal/domain"
)

func matchUser(u *domain.User, f UserFilter) bool {
	if f.EmailContains != "" &&
		!strings.Contains(strings.ToLower(u.Email), strings.ToLower(f.EmailContains)) {
		return false
	}
	if len(f.Roles) > 0 {
		ok := false
		for _, r := range f.Roles {
			if u.Role == r {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func matchInterview(iv *domain.Interview, f InterviewFilter) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(iv.Title), q) &&
			!strings.Contains(strings.ToLower(iv.SessionID), q) {
			return false
		}
	}
	if !f.From.IsZero() && iv.StartTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && iv.StartTime.After(f.To) {
		return false
	}
	if len(f.InterviewerIDs) > 0 && !containsString(f.InterviewerIDs, iv.InterviewerID) {
		return false
	}
	if len(f.CandidateIDs) > 0 && !containsString(f.CandidateIDs, iv.CandidateID) {
		return false
	}
	return true
}

func matchEvent(ev *domain.ProctorEvent, f EventFilter) bool {
	if f.InterviewID != "" && ev.InterviewID != f.InterviewID {
		return false
	}
	if !f.From.IsZero() && ev.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ev.Timestamp.After(f.To) {
		return false
	}
	if f.Type != "" && ev.Type != f.Type {
		return false
	}
	if f.MinSeverity > 0 && ev.Severity < f.MinSeverity {
		return false
	}
	return true
}

func sortInterviews(out []*domain.Interview) {
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
}

func sortEvents(out []*domain.ProctorEvent, ascending bool) {
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
}

func capInterviews(out []*domain.Interview, limit int) []*domain.Interview {
	if limit > 0 && len(out) > limit {
		return out[:limit]
	}
	return out
}

func capEvents(out []*domain.ProctorEvent, limit int) []*domain.ProctorEvent {
	if limit > 0 && len(out) > limit {
		return out[:limit]
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
