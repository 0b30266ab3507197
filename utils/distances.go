// utils/distances.go
package utils

// AllDistances is the sentinel code meaning "no distance filter, include
// every distance". It is produced only for the "All types" label.
const AllDistances = "all"

// distanceCodes maps the human-readable competition labels to the internal
// distance codes used by the results archive. Distances changed over the
// years, so several era-specific labels legitimately share one code.
var distanceCodes = map[string]string{
	"50 km traditional":             "P50",
	"50 km freestyle":               "V50",
	"100km traditional":             "P100",
	"32km traditional":              "P32",
	"20km freestyle":                "V20",
	"32km freestyle":                "V32",
	"20km freestyle, juniors":       "V20jun",
	"42km traditional":              "P42",
	"42km freestyle":                "V42",
	"32km freestyle (2014)":         "V32",
	"20km traditional (2014)":       "P20",
	"30km traditional (2002-2005)":  "P30",
	"44km traditional (2002)":       "P44",
	"60km traditional (2003-2005)":  "P60",
	"62km traditional (2006)":       "P62",
	"25km traditional":              "P25",
	"35km traditional":              "P35",
	"45km traditional":              "P45",
	"52km traditional":              "P52",
	"53km traditional":              "P53",
	"75km traditional":              "P75",
	"30km freestyle":                "V30",
	"45km freestyle":                "V45",
	"53km freestyle":                "V53",
	"75km freestyle":                "V75",
	"All types":                     AllDistances,
}

// DistanceCode resolves a competition label to its distance code. Unknown
// labels resolve to "", which callers treat as "no match".
func DistanceCode(label string) string {
	return distanceCodes[label]
}
