package session

import (
	"fmt"

	"scorewatch/src/catalog"
)

// Session holds the signed-in user's archive credentials. It is owned by the
// settings layer and only read by the pipeline.
//
// The secondary game federates identity through a linked account, so it
// carries its own id/token pair next to the primary one.
type Session struct {
	UserNo      string
	Token       string
	DisplayName string
	LinkedID    string
	LinkedToken string
}

// Credentials returns the id/token pair the archive expects for a game.
// There is no global pair; picking the wrong one gets the upload rejected.
func (s Session) Credentials(game catalog.Game) (id, token string, err error) {
	switch game {
	case catalog.GameWJMX:
		if s.LinkedID == "" || s.LinkedToken == "" {
			return "", "", fmt.Errorf("session: no linked account for %s", game)
		}
		return s.LinkedID, s.LinkedToken, nil
	default:
		if s.UserNo == "" || s.Token == "" {
			return "", "", fmt.Errorf("session: not signed in")
		}
		return s.UserNo, s.Token, nil
	}
}

// SignedIn reports whether any usable credential pair is present.
func (s Session) SignedIn() bool {
	return (s.UserNo != "" && s.Token != "") || (s.LinkedID != "" && s.LinkedToken != "")
}
