package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInjurySnapshot(t *testing.T) {
	snap := NewInjurySnapshot([]InjuryReport{
		{Player: "Luka Dončić", Team: "lal", Status: InjuryOut},
		{Player: "Austin Reaves", Team: "LAL", Status: InjuryQuestionable},
		{Player: "Anthony Davis", Team: "LAL", Status: InjuryDoubtful},
		{Player: "Jaren Jackson Jr.", Team: "MEM", Status: InjuryOut},
		{Player: "Jaren Jackson Jr.", Team: "MEM", Status: InjuryActive},
		{Player: "", Team: "MEM", Status: InjuryOut},
	})

	assert.Equal(t, 4, snap.Len())
	assert.Equal(t, InjuryOut, snap.Status("Luka Doncic"))
	assert.Equal(t, InjuryQuestionable, snap.Status("austin reaves"))
	assert.Equal(t, InjuryActive, snap.Status("Jaren Jackson"), "later reports win")
	assert.Equal(t, InjuryUnknown, snap.Status("LeBron James"))

	assert.Equal(t, []string{"Anthony Davis", "Luka Dončić"}, snap.Absences("LAL"))
	assert.Equal(t, []string{"Anthony Davis", "Luka Dončić"}, snap.Absences(" lal "))
	assert.Empty(t, snap.Absences("MEM"))
}

func TestInjurySnapshot_Nil(t *testing.T) {
	var snap *InjurySnapshot
	assert.Equal(t, InjuryUnknown, snap.Status("anyone"))
	assert.Nil(t, snap.Absences("LAL"))
	assert.Equal(t, 0, snap.Len())
}

func TestParseInjuryStatus(t *testing.T) {
	tests := map[string]InjuryStatus{
		"Out":                InjuryOut,
		"OUT":                InjuryOut,
		"Injured Reserve":    InjuryOut,
		"suspended":          InjuryOut,
		"Doubtful":           InjuryDoubtful,
		"Questionable":       InjuryQuestionable,
		"GTD":                InjuryQuestionable,
		"Game Time Decision": InjuryQuestionable,
		"Day-To-Day":         InjuryDayToDay,
		"day to day":         InjuryDayToDay,
		"Probable":           InjuryActive,
		"Active":             InjuryActive,
		"":                   InjuryUnknown,
		"rest":               InjuryUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseInjuryStatus(in), in)
	}
}

func TestUsageBoostTable_Boost(t *testing.T) {
	table := UsageBoostTable{
		PositionC: {PositionPF: {StatRebounds: 0.12, StatBlocks: 0.08, StatPoints: 0.05}},
	}

	assert.Equal(t, 0.12, table.Boost(PositionC, PositionPF, StatRebounds))
	assert.InDelta(t, (0.05+0.12)/2, table.Boost(PositionC, PositionPF, StatPtsRebs), 1e-9)
	assert.InDelta(t, 0.04, table.Boost(PositionC, PositionPF, StatBlksStls), 1e-9)
	assert.Equal(t, 0.0, table.Boost(PositionC, PositionPG, StatRebounds))
	assert.Equal(t, 0.0, table.Boost(PositionPG, PositionPF, StatRebounds))
	assert.Equal(t, 0.0, table.Boost(PositionC, PositionPF, StatUnknown))
}

func TestParsePosition(t *testing.T) {
	tests := map[string]Position{
		"PG":             PositionPG,
		"g":              PositionPG,
		"Shooting Guard": PositionSG,
		"F":              PositionSF,
		"F-C":            PositionPF,
		"Center":         PositionC,
		"":               PositionSF,
		"coach":          PositionSF,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParsePosition(in), in)
	}
}
