// Package components defines the data types shared by the simulation packages.
package components

import "fmt"

// Stage identifies one of the 13 tracked life stages.
type Stage uint8

const (
	Eggs Stage = iota
	Instar1
	Instar2
	Instar3
	Pupae
	Males
	Females1
	Females2
	Females3
	Females4
	Females5
	Females6
	Females7
)

const (
	NumStages        = 13
	NumFemaleStages  = 7
	NumJuvenileStage = 5 // eggs through pupae
)

var stageNames = [NumStages]string{
	"eggs", "instar1", "instar2", "instar3", "pupae", "males",
	"females1", "females2", "females3", "females4", "females5", "females6", "females7",
}

// AllStages lists every stage in integration order.
var AllStages = [NumStages]Stage{
	Eggs, Instar1, Instar2, Instar3, Pupae, Males,
	Females1, Females2, Females3, Females4, Females5, Females6, Females7,
}

// String returns the parameter-name prefix of the stage (e.g. "instar2").
func (s Stage) String() string {
	if int(s) >= NumStages {
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
	return stageNames[s]
}

// Valid reports whether s is one of the 13 stages.
func (s Stage) Valid() bool { return int(s) < NumStages }

// IsJuvenile reports whether s develops with the temperature-driven Brière curve.
func (s Stage) IsJuvenile() bool { return s <= Pupae }

// IsFemale reports whether s is one of the adult female stages.
func (s Stage) IsFemale() bool { return s >= Females1 && s <= Females7 }

// FemaleIndex returns the 0-based female stage index (Females1 = 0).
// It panics for non-female stages.
func (s Stage) FemaleIndex() int {
	if !s.IsFemale() {
		panic(fmt.Sprintf("components: %s is not a female stage", s))
	}
	return int(s - Females1)
}

// FemaleStage returns the stage for a 0-based female index.
// It panics when i is outside [0, 7).
func FemaleStage(i int) Stage {
	if i < 0 || i >= NumFemaleStages {
		panic(fmt.Sprintf("components: female stage index %d out of range [0,%d)", i, NumFemaleStages))
	}
	return Females1 + Stage(i)
}

// ParseStage resolves a stage name such as "females1".
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown life stage %q", name)
}
