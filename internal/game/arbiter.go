package game

import "github.com/quizroyale/quizroyale/internal/roster"

// slowest picks the round's eliminated participant: the record with the
// strictly greatest elapsed time. Exact ties keep the lowest-id
// participant, so every client ranks an identical answer set
// identically regardless of the order the answers arrived in.
func slowest(answers []AnswerRecord, r *roster.Roster) (AnswerRecord, bool) {
	if len(answers) == 0 {
		return AnswerRecord{}, false
	}

	byID := make(map[string]AnswerRecord, len(answers))
	for _, rec := range answers {
		byID[rec.PlayerID] = rec
	}

	var (
		out   AnswerRecord
		found bool
	)
	for _, p := range r.All() {
		rec, ok := byID[p.ID]
		if !ok {
			continue
		}
		if !found || rec.Elapsed > out.Elapsed {
			out = rec
			found = true
		}
	}
	return out, found
}
