package gacha

// pityCounter handles a "hard pity": once Count reaches Limit, the next trial is forced.
// It lives for a single run and is never shared.
type pityCounter struct {
	Limit int // threshold count before a guaranteed trial
	Count int // consecutive non-qualifying trials since the last qualifying one
}

func newPityCounter(limit int) *pityCounter {
	return &pityCounter{Limit: limit}
}

// due reports whether this trial is forced by pity.
func (p *pityCounter) due() bool {
	return p.Count >= p.Limit
}

// record updates the streak after a trial; qualifying trials reset it.
func (p *pityCounter) record(qualifying bool) {
	if qualifying {
		p.Count = 0
		return
	}
	p.Count++
}
