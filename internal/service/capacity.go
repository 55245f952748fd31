package service

import "github.com/iliyamo/festival-booking/internal/model"

// CapacityDecision is the outcome of EvaluateCapacity.  Delta is the
// amount the program's occupancy counter grows by when Admit is true.
type CapacityDecision struct {
    Admit  bool
    Reason Reason
    Delta  uint32
}

// UnitsFor returns the occupancy a request consumes.  Solo programs
// count seats, so a team of four takes four.  Group programs count
// teams and every booking takes exactly one.
func UnitsFor(mode model.BookingMode, groupSize uint32) uint32 {
    if mode == model.ModeGroup || groupSize == 0 {
        return 1
    }
    return groupSize
}

// EvaluateCapacity decides whether requestedUnits more fit into a
// program with the given limit and occupancy.  A nil limit is zero
// capacity.
func EvaluateCapacity(mode model.BookingMode, limit *uint32, occupancy, requestedUnits uint32) CapacityDecision {
    if mode == model.ModeGroup {
        if limit == nil || occupancy >= *limit {
            return CapacityDecision{Reason: ReasonTeamsExhausted}
        }
        return CapacityDecision{Admit: true, Delta: 1}
    }
    units := UnitsFor(mode, requestedUnits)
    // widen before adding so a huge request cannot wrap around
    if limit == nil || uint64(occupancy)+uint64(units) > uint64(*limit) {
        return CapacityDecision{Reason: ReasonSeatsExhausted}
    }
    return CapacityDecision{Admit: true, Delta: units}
}

// exhaustedReason is the denial reason for a lost conditional
// increment.
func exhaustedReason(mode model.BookingMode) Reason {
    if mode == model.ModeGroup {
        return ReasonTeamsExhausted
    }
    return ReasonSeatsExhausted
}
