package models

import (
	"strings"
	"time"
)

// Session identifies the operator acting on the system. There is no
// credential behind it, only the free-text name given at login.
type Session struct {
	Actor     string    `json:"actor"`
	StartedAt time.Time `json:"startedAt"`
}

func NewSession(actor string, now time.Time) Session {
	return Session{Actor: strings.TrimSpace(actor), StartedAt: now.UTC()}
}

func (s Session) Valid() bool {
	return strings.TrimSpace(s.Actor) != ""
}
