package leads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func leadWith(mutate func(*Lead)) *Lead {
	l := &Lead{
		Contact: Contact{FirstName: "John", Phone: "07700900456"},
		Status:  StatusNew,
	}
	if mutate != nil {
		mutate(l)
	}
	return l
}

func TestComputeScore_BareMinimumLead(t *testing.T) {
	// First name and phone only: base 30 + phone 10.
	score, factors := ComputeScore(leadWith(nil))

	assert.Equal(t, 40, score)
	assert.Equal(t, map[string]int{"hasPhone": 10}, factors)
	assert.GreaterOrEqual(t, score, 30)
	assert.LessOrEqual(t, score, 40)
	assert.Equal(t, PriorityLow, PriorityFor(score, ""))
}

func TestComputeScore_EmailDelta(t *testing.T) {
	base, _ := ComputeScore(leadWith(nil))
	withEmail, factors := ComputeScore(leadWith(func(l *Lead) {
		l.Contact.Email = "john@example.co.uk"
		l.Contact.LastName = "Davies"
	}))

	assert.Equal(t, base+15, withEmail)
	assert.Equal(t, 15, factors["hasEmail"])
	assert.Equal(t, PriorityMedium, PriorityFor(withEmail, ""))
}

func TestComputeScore_Monotonicity(t *testing.T) {
	// Adding any qualifying fact never decreases the score.
	steps := []func(*Lead){
		func(l *Lead) { l.Contact.Email = "a@b.co" },
		func(l *Lead) { l.PropertyInterest.PropertyID = "prop-1" },
		func(l *Lead) { l.Status = StatusViewingBooked },
		func(l *Lead) { l.Financials.MortgageApproval = MortgageApproved },
		func(l *Lead) { l.Timeline = TimelineImmediate },
	}

	lead := leadWith(nil)
	prev, _ := ComputeScore(lead)
	for i, step := range steps {
		step(lead)
		score, _ := ComputeScore(lead)
		assert.GreaterOrEqual(t, score, prev, "step %d decreased the score", i)
		prev = score
	}
}

func TestComputeScore_ClampAt100(t *testing.T) {
	// Every bonus at once: 30+15+10+20+25+10+10 = 120, clamped.
	score, factors := ComputeScore(leadWith(func(l *Lead) {
		l.Contact.Email = "a@b.co"
		l.PropertyInterest.PropertyID = "prop-1"
		l.Status = StatusViewingBooked
		l.Financials.MortgageApproval = MortgageApproved
		l.Timeline = TimelineImmediate
	}))

	assert.Equal(t, 100, score)
	assert.Len(t, factors, 6)
}

func TestComputeScore_Determinism(t *testing.T) {
	build := func() *Lead {
		return leadWith(func(l *Lead) {
			l.Contact.Email = "jane@example.com"
			l.PropertyInterest.PropertyID = "prop-7"
			l.Timeline = TimelineShortTerm
		})
	}

	s1, f1 := ComputeScore(build())
	s2, f2 := ComputeScore(build())
	assert.Equal(t, s1, s2)
	assert.Equal(t, f1, f2)
}

func TestComputeScore_TimelineTiers(t *testing.T) {
	tiers := []struct {
		timeline string
		points   int
	}{
		{TimelineImmediate, 10},
		{TimelineShortTerm, 7},
		{TimelineMediumTerm, 4},
		{TimelineLongTerm, 1},
		{TimelineFlexible, 0},
		{"", 0},
	}

	prev := 11
	for _, tier := range tiers {
		score, factors := ComputeScore(leadWith(func(l *Lead) { l.Timeline = tier.timeline }))
		bonus := score - 40
		assert.Equal(t, tier.points, bonus, "timeline %q", tier.timeline)
		assert.Less(t, bonus, prev, "tiers must strictly decrease until zero")
		if tier.points > 0 {
			assert.Equal(t, tier.points, factors["timeline"])
		} else {
			assert.NotContains(t, factors, "timeline")
		}
		if bonus > 0 {
			prev = bonus
		}
	}
}

func TestPriorityFor_Tiering(t *testing.T) {
	for score := 0; score <= 100; score++ {
		urgent := PriorityFor(score, TimelineImmediate)
		if score >= 75 {
			assert.Equal(t, PriorityUrgent, urgent, "score %d immediate", score)
		} else {
			assert.NotEqual(t, PriorityUrgent, urgent, "score %d immediate", score)
		}

		other := PriorityFor(score, TimelineFlexible)
		switch {
		case score >= 75:
			assert.Equal(t, PriorityHigh, other, "score %d", score)
		case score >= 50:
			assert.Equal(t, PriorityMedium, other, "score %d", score)
		default:
			assert.Equal(t, PriorityLow, other, "score %d", score)
		}
	}
}

func TestRescore_KeepsDerivedFieldsConsistent(t *testing.T) {
	lead := leadWith(func(l *Lead) {
		l.Contact.Email = "john@example.co.uk"
		l.PropertyInterest.PropertyID = "prop-1"
		l.Timeline = TimelineImmediate
	})

	now := time.Now().UTC()
	lead.Rescore(now)

	wantScore, wantFactors := ComputeScore(lead)
	assert.Equal(t, wantScore, lead.Score.Value)
	assert.Equal(t, wantFactors, lead.Score.Factors)
	assert.Equal(t, now, lead.Score.LastCalculated)
	assert.Equal(t, PriorityFor(wantScore, lead.Timeline), lead.Priority)
}
