package converter

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
)

var ErrNoYear = errors.New("no year in file name")

var yearPart = regexp.MustCompile(`^20\d\d`)

// DefaultKnownStates maps a lower-case, underscore-joined file name prefix to
// the state's display name.
func DefaultKnownStates() map[string]string {
	return map[string]string{
		"uttar_pradesh":     "Uttar Pradesh",
		"maharashtra":       "Maharashtra",
		"rajasthan":         "Rajasthan",
		"chhattisgarh":      "Chhattisgarh",
		"cg":                "Chhattisgarh",
		"jharkhand":         "Jharkhand",
		"madhya_pradesh":    "Madhya Pradesh",
		"bihar":             "Bihar",
		"punjab":            "Punjab",
		"uttarakhand":       "Uttarakhand",
		"arunachal_pradesh": "Arunachal Pradesh",
		"himachal_pradesh":  "Himachal Pradesh",
		"jammu_kashmir":     "Jammu & Kashmir",
		"assam":             "Assam",
		"manipur":           "Manipur",
		"delhi":             "Delhi",
	}
}

// StateKey is the prefix form a state name takes in export file names.
func StateKey(state string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(state), " ", "_"))
}

// FileInfo is what an export's file name says about its contents.
type FileInfo struct {
	State   string
	RTO     string
	Year    string
	Variant string
	Base    string
}

// ParseFileName reads state, RTO, year and product variant out of names like
// "Uttar Pradesh_AGRA_UP80_2025_L5G.xlsx". Unknown state prefixes yield
// state "Other" and the first name part as RTO.
func ParseFileName(name string, known map[string]string) (FileInfo, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "_")

	info := FileInfo{
		Base:    base,
		Variant: strings.TrimSpace(parts[len(parts)-1]),
	}

	for _, p := range parts {
		if yearPart.MatchString(p) {
			info.Year = p[:4]
			break
		}
	}
	if info.Year == "" {
		return info, fmt.Errorf("%w: %s", ErrNoYear, name)
	}

	normalized := StateKey(base)
	keys := slices.SortedFunc(maps.Keys(known), func(a, b string) int { return len(b) - len(a) })

	for _, key := range keys {
		if !strings.HasPrefix(normalized, key+"_") {
			continue
		}
		info.State = known[key]
		remaining := strings.Trim(base[len(key):], "_ ")
		if before, _, found := strings.Cut(remaining, info.Year); found {
			info.RTO = strings.TrimSpace(strings.Trim(before, "_"))
		} else {
			info.RTO = strings.TrimSpace(strings.Split(remaining, "_")[0])
		}
		return info, nil
	}

	info.State = "Other"
	info.RTO = strings.TrimSpace(parts[0])
	return info, nil
}

// MonthEnds returns the last day of every month of year as YYYY-MM-DD.
func MonthEnds(year int) []string {
	out := make([]string, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Format(time.DateOnly))
	}
	return out
}
