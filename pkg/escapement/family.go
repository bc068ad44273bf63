package escapement

// Family selects the escapement variant. Each family fixes the sign
// conventions used for pallet construction and tooth lean. Only the
// deadbeat family has a geometry; the others exist so callers can name
// them and get a clear refusal.
type Family struct {
	kind familyKind
}

type familyKind int

const (
	familyDeadbeat familyKind = iota + 1
	familyRecoil
	familyBrocot
)

// Deadbeat is the Graham deadbeat anchor: locking faces on arcs about the
// anchor pivot so the wheel does not recoil.
func Deadbeat() Family { return Family{kind: familyDeadbeat} }

// Recoil is the recoil anchor. Unsupported.
func Recoil() Family { return Family{kind: familyRecoil} }

// Brocot is the Brocot pin-pallet escapement. Unsupported.
func Brocot() Family { return Family{kind: familyBrocot} }

// Supported reports whether New can build this family.
func (f Family) Supported() bool {
	return f.kind == familyDeadbeat
}

func (f Family) String() string {
	switch f.kind {
	case familyDeadbeat:
		return "deadbeat"
	case familyRecoil:
		return "recoil"
	case familyBrocot:
		return "brocot"
	default:
		return "unknown"
	}
}

// ParseFamily maps a family name to its value.
func ParseFamily(name string) (Family, bool) {
	switch name {
	case "deadbeat", "":
		return Deadbeat(), true
	case "recoil":
		return Recoil(), true
	case "brocot":
		return Brocot(), true
	}
	return Family{}, false
}
