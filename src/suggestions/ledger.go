package suggestions

// transition applies desire d from voter to the ledger and counters of s.
// It returns false when the desired vote equals the current one; s is left
// untouched in that case.
func transition(s *Suggestion, voter string, d Desire) bool {
	current, voted := s.VoteLedger[voter]

	switch d {
	case DesireUp:
		if voted && current == VoteUp {
			return false
		}
		if voted && current == VoteDown {
			s.VotesAgainst--
		}
		s.VotesFor++
		s.VoteLedger = s.VoteLedger.clone()
		s.VoteLedger[voter] = VoteUp
	case DesireDown:
		if voted && current == VoteDown {
			return false
		}
		if voted && current == VoteUp {
			s.VotesFor--
		}
		s.VotesAgainst++
		s.VoteLedger = s.VoteLedger.clone()
		s.VoteLedger[voter] = VoteDown
	case DesireRetract:
		if !voted {
			return false
		}
		switch current {
		case VoteUp:
			s.VotesFor--
		case VoteDown:
			s.VotesAgainst--
		}
		s.VoteLedger = s.VoteLedger.clone()
		delete(s.VoteLedger, voter)
	default:
		return false
	}
	return true
}
