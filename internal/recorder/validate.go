package recorder

import "strings"

// validate checks the shape of a submission. It never touches the store.
func validate(s Submission) error {
	teamA, err := pair("team A", s.TeamA)
	if err != nil {
		return err
	}

	if !s.OpponentUnknown {
		teamB, err := pair("team B", s.TeamB)
		if err != nil {
			return err
		}
		for _, a := range teamA {
			for _, b := range teamB {
				if a == b {
					return invalid("player %s is on both teams", a)
				}
			}
		}
	}

	switch {
	case s.TeamAScore == nil || s.TeamBScore == nil:
		return invalid("both scores are required")
	case *s.TeamAScore < 0 || *s.TeamBScore < 0:
		return invalid("scores cannot be negative")
	case *s.TeamAScore == *s.TeamBScore:
		return invalid("scores cannot be tied")
	}
	return nil
}

func pair(team string, ids []string) ([2]string, error) {
	var p [2]string
	if len(ids) != 2 {
		return p, invalid("%s must have exactly two players", team)
	}
	for i, id := range ids {
		p[i] = strings.TrimSpace(id)
		if p[i] == "" {
			return p, invalid("%s is missing a player", team)
		}
	}
	if p[0] == p[1] {
		return p, invalid("%s must have two different players", team)
	}
	return p, nil
}

// involved lists the ids whose ratings the calculator needs.
func involved(s Submission) []string {
	ids := []string{strings.TrimSpace(s.TeamA[0]), strings.TrimSpace(s.TeamA[1])}
	if !s.OpponentUnknown {
		ids = append(ids, strings.TrimSpace(s.TeamB[0]), strings.TrimSpace(s.TeamB[1]))
	}
	return ids
}
