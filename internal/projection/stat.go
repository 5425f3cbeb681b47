package projection

import (
	"errors"
	"strings"
	"unicode"
)

// StatCategory is the closed set of prop markets the engine understands.
type StatCategory int

const (
	StatUnknown StatCategory = iota
	StatPoints
	StatRebounds
	StatAssists
	StatSteals
	StatBlocks
	StatTurnovers
	StatThreePointersMade
	StatFieldGoalsMade
	StatFreeThrowsMade
	StatPtsRebs
	StatPtsAsts
	StatPtsRebsAsts
	StatRebsAsts
	StatBlksStls

	statCategoryEnd
)

var (
	ErrUnknownStatCategory = errors.New("unknown stat category")
	ErrInvalidStatCategory = errors.New("invalid stat category")
)

// DefenseBucket selects the column of a DefensiveRanks row.
type DefenseBucket string

const (
	BucketPoints   DefenseBucket = "pts"
	BucketRebounds DefenseBucket = "reb"
	BucketAssists  DefenseBucket = "ast"
	BucketSteals   DefenseBucket = "stl"
	BucketBlocks   DefenseBucket = "blk"
)

type categoryInfo struct {
	label      string
	components []StatCategory
	bucket     DefenseBucket
}

var categories = map[StatCategory]categoryInfo{
	StatPoints:            {label: "Points", bucket: BucketPoints},
	StatRebounds:          {label: "Rebounds", bucket: BucketRebounds},
	StatAssists:           {label: "Assists", bucket: BucketAssists},
	StatSteals:            {label: "Steals", bucket: BucketSteals},
	StatBlocks:            {label: "Blocked Shots", bucket: BucketBlocks},
	StatTurnovers:         {label: "Turnovers", bucket: BucketPoints},
	StatThreePointersMade: {label: "3-PT Made", bucket: BucketPoints},
	StatFieldGoalsMade:    {label: "FG Made", bucket: BucketPoints},
	StatFreeThrowsMade:    {label: "Free Throws Made", bucket: BucketPoints},
	StatPtsRebs:           {label: "Pts+Rebs", components: []StatCategory{StatPoints, StatRebounds}, bucket: BucketPoints},
	StatPtsAsts:           {label: "Pts+Asts", components: []StatCategory{StatPoints, StatAssists}, bucket: BucketPoints},
	StatPtsRebsAsts:       {label: "Pts+Rebs+Asts", components: []StatCategory{StatPoints, StatRebounds, StatAssists}, bucket: BucketPoints},
	StatRebsAsts:          {label: "Rebs+Asts", components: []StatCategory{StatRebounds, StatAssists}, bucket: BucketRebounds},
	StatBlksStls:          {label: "Blks+Stls", components: []StatCategory{StatBlocks, StatSteals}, bucket: BucketBlocks},
}

// labelAliases is keyed by the folded form produced by foldLabel.
var labelAliases = map[string]StatCategory{
	"points":                StatPoints,
	"pts":                   StatPoints,
	"rebounds":              StatRebounds,
	"rebs":                  StatRebounds,
	"reb":                   StatRebounds,
	"assists":               StatAssists,
	"asts":                  StatAssists,
	"ast":                   StatAssists,
	"steals":                StatSteals,
	"stls":                  StatSteals,
	"blocks":                StatBlocks,
	"blockedshots":          StatBlocks,
	"blks":                  StatBlocks,
	"turnovers":             StatTurnovers,
	"3pointersmade":         StatThreePointersMade,
	"3ptmade":               StatThreePointersMade,
	"threes":                StatThreePointersMade,
	"3pm":                   StatThreePointersMade,
	"fieldgoalsmade":        StatFieldGoalsMade,
	"fgmade":                StatFieldGoalsMade,
	"fgm":                   StatFieldGoalsMade,
	"freethrowsmade":        StatFreeThrowsMade,
	"ftmade":                StatFreeThrowsMade,
	"ptsrebs":               StatPtsRebs,
	"pointsrebounds":        StatPtsRebs,
	"ptsasts":               StatPtsAsts,
	"pointsassists":         StatPtsAsts,
	"ptsrebsasts":           StatPtsRebsAsts,
	"pra":                   StatPtsRebsAsts,
	"pointsreboundsassists": StatPtsRebsAsts,
	"rebsasts":              StatRebsAsts,
	"reboundsassists":       StatRebsAsts,
	"blksstls":              StatBlksStls,
	"blocksstls":            StatBlksStls,
	"blockssteals":          StatBlksStls,
}

var oddsMarkets = map[string]StatCategory{
	"player_points":                  StatPoints,
	"player_rebounds":                StatRebounds,
	"player_assists":                 StatAssists,
	"player_threes":                  StatThreePointersMade,
	"player_blocks":                  StatBlocks,
	"player_steals":                  StatSteals,
	"player_turnovers":               StatTurnovers,
	"player_points_rebounds_assists": StatPtsRebsAsts,
	"player_points_rebounds":         StatPtsRebs,
	"player_points_assists":          StatPtsAsts,
	"player_rebounds_assists":        StatRebsAsts,
	"player_blocks_steals":           StatBlksStls,
}

// ParseStatCategory canonicalizes a free-text market label. Matching ignores
// case, whitespace and punctuation, so "Rebs+Asts", "rebs + asts" and
// "REBS-ASTS" are the same category.
func ParseStatCategory(label string) (StatCategory, error) {
	if c, ok := labelAliases[foldLabel(label)]; ok {
		return c, nil
	}
	return StatUnknown, ErrUnknownStatCategory
}

// OddsMarketCategory maps a The Odds API market key to a category.
func OddsMarketCategory(market string) (StatCategory, bool) {
	c, ok := oddsMarkets[strings.ToLower(strings.TrimSpace(market))]
	return c, ok
}

// OddsMarkets returns the market keys requested from the odds feed.
func OddsMarkets() []string {
	keys := make([]string, 0, len(oddsMarkets))
	for c := StatPoints; c < statCategoryEnd; c++ {
		for k, v := range oddsMarkets {
			if v == c {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func foldLabel(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c StatCategory) Valid() bool {
	return c >= StatUnknown && c < statCategoryEnd
}

func (c StatCategory) String() string {
	if info, ok := categories[c]; ok {
		return info.label
	}
	if c == StatUnknown {
		return "Unknown"
	}
	return "StatCategory(invalid)"
}

// Components returns the single-stat categories summed to form c. A base
// category is its own only component.
func (c StatCategory) Components() []StatCategory {
	info, ok := categories[c]
	if !ok {
		return nil
	}
	if len(info.components) == 0 {
		return []StatCategory{c}
	}
	return info.components
}

func (c StatCategory) IsCombined() bool {
	return len(categories[c].components) > 0
}

func (c StatCategory) Bucket() DefenseBucket {
	if info, ok := categories[c]; ok {
		return info.bucket
	}
	return BucketPoints
}

// IsScoring reports whether opponent efficiency applies.
func (c StatCategory) IsScoring() bool {
	switch c {
	case StatPoints, StatFieldGoalsMade, StatThreePointersMade:
		return true
	}
	return false
}

func (c StatCategory) HasRebounds() bool {
	return c.hasComponent(StatRebounds)
}

func (c StatCategory) HasAssists() bool {
	return c.hasComponent(StatAssists)
}

func (c StatCategory) hasComponent(target StatCategory) bool {
	for _, comp := range c.Components() {
		if comp == target {
			return true
		}
	}
	return false
}

// Value extracts the category's value from one box-score line. Combined
// categories are summed per record; absent stats are zero.
func (c StatCategory) Value(r StatRecord) float64 {
	var total float64
	for _, comp := range c.Components() {
		switch comp {
		case StatPoints:
			total += r.Points
		case StatRebounds:
			total += r.Rebounds
		case StatAssists:
			total += r.Assists
		case StatSteals:
			total += r.Steals
		case StatBlocks:
			total += r.Blocks
		case StatTurnovers:
			total += r.Turnovers
		case StatThreePointersMade:
			total += r.ThreePointersMade
		case StatFieldGoalsMade:
			total += r.FieldGoalsMade
		case StatFreeThrowsMade:
			total += r.FreeThrowsMade
		}
	}
	return total
}
