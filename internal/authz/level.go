package authz

import "fmt"

// Level is the rank of a role in the municipal hierarchy. Comparisons are
// always done on the numeric order, never on the name: "can manage a role of
// level L" depends on rank, not identity.
type Level int

// Role levels, lowest authority first.
const (
	LevelOperativo Level = iota + 1
	LevelMunicipal
	LevelEstatal
	LevelSuperAdmin
)

var levelNames = map[Level]string{
	LevelOperativo:  "OPERATIVO",
	LevelMunicipal:  "MUNICIPAL",
	LevelEstatal:    "ESTATAL",
	LevelSuperAdmin: "SUPER_ADMIN",
}

var levelValues = map[string]Level{
	"OPERATIVO":   LevelOperativo,
	"MUNICIPAL":   LevelMunicipal,
	"ESTATAL":     LevelEstatal,
	"SUPER_ADMIN": LevelSuperAdmin,
}

// ParseLevel maps a wire-format level name to its rank. Unknown names are an
// error so a bad identity payload fails closed instead of defaulting.
func ParseLevel(s string) (Level, error) {
	if l, ok := levelValues[s]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("authz: unknown role level %q", s)
}

// String returns the wire-format name of the level.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Valid reports whether the level is one of the four known ranks.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// AllLevels returns the known levels in ascending rank order.
func AllLevels() []Level {
	return []Level{LevelOperativo, LevelMunicipal, LevelEstatal, LevelSuperAdmin}
}
