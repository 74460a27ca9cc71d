package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Exact column names from the Skills Boost export (case/punctuation-sensitive).
const (
	ColUserName         = "User Name"
	ColUserEmail        = "User Email"
	ColProfileURL       = "Google Cloud Skills Boost Profile URL"
	ColProfileStatus    = "Profile URL Status"
	ColRedemptionStatus = "Access Code Redemption Status"
	ColAllCompleted     = "All Skill Badges & Games Completed"
	ColSkillBadgesCount = "# of Skill Badges Completed"
	ColSkillBadgeNames  = "Names of Completed Skill Badges"
	ColArcadeGamesCount = "# of Arcade Games Completed"
	ColArcadeGameNames  = "Names of Completed Arcade Games"
)

// RequiredColumns must all be present in the header row or the whole file is
// rejected before any row is processed.
var RequiredColumns = []string{
	ColUserName,
	ColUserEmail,
	ColProfileURL,
	ColProfileStatus,
	ColRedemptionStatus,
	ColAllCompleted,
	ColSkillBadgesCount,
	ColSkillBadgeNames,
	ColArcadeGamesCount,
	ColArcadeGameNames,
}

// Fact is the normalized output of one roster row, prior to identity
// resolution. It carries every mutable Participant field.
type Fact struct {
	UserName         string
	UserEmail        string
	ProfileURL       string
	ProfileStatus    string
	RedemptionStatus string
	AllCompleted     string
	SkillBadgesCount int
	SkillBadgeNames  string
	ArcadeGamesCount int
	ArcadeGameNames  string
}

// ParseRoster reads a full CSV export and returns the normalized facts.
// Structural problems (missing required columns, unreadable file, no data
// rows) fail the whole file; rows missing a name or email are silently
// dropped.
func ParseRoster(r io.Reader) ([]Fact, error) {
	reader := csv.NewReader(r)
	// Real-world exports occasionally carry ragged rows and loose quoting.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("CSV file is empty: no header row found")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	colIndex := make(map[string]int, len(header))
	for i, h := range header {
		colIndex[h] = i
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	var facts []Fact
	rows := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV row: %w", err)
		}
		rows++

		record := make(map[string]string, len(header))
		for name, i := range colIndex {
			if i < len(row) {
				record[name] = row[i]
			} else {
				record[name] = "" // short row — pad
			}
		}

		if fact, ok := NormalizeRow(record); ok {
			facts = append(facts, fact)
		}
	}

	if rows == 0 {
		return nil, fmt.Errorf("CSV file contains no data rows")
	}
	return facts, nil
}

// NormalizeRow turns one raw record into a Fact. Pure; returns false for rows
// that cannot be identified (missing name or email).
func NormalizeRow(record map[string]string) (Fact, bool) {
	name := strings.TrimSpace(record[ColUserName])
	email := strings.TrimSpace(record[ColUserEmail])
	if name == "" || email == "" {
		return Fact{}, false
	}

	return Fact{
		UserName:         name,
		UserEmail:        email,
		ProfileURL:       strings.TrimSpace(record[ColProfileURL]),
		ProfileStatus:    strings.TrimSpace(record[ColProfileStatus]),
		RedemptionStatus: strings.TrimSpace(record[ColRedemptionStatus]),
		AllCompleted:     strings.TrimSpace(record[ColAllCompleted]),
		SkillBadgesCount: parseCount(record[ColSkillBadgesCount]),
		SkillBadgeNames:  strings.TrimSpace(record[ColSkillBadgeNames]),
		ArcadeGamesCount: parseCount(record[ColArcadeGamesCount]),
		ArcadeGameNames:  strings.TrimSpace(record[ColArcadeGameNames]),
	}, true
}

// parseCount normalizes count fields. Missing, malformed, or negative values
// become 0; a bad count never rejects the row.
func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// SplitNames parses a "|"-joined badge/game name list into trimmed names,
// dropping empties.
func SplitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
