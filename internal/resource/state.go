package resource

import "fmt"

// State is the serialisable form of a Registry.
type State struct {
	NextID uint64 `json:"next_id"`
	Slots  []Slot `json:"slots"`
}

// State captures the registry contents.
func (r *Registry) State() State {
	slots := make([]Slot, len(r.slots))
	copy(slots, r.slots)
	return State{NextID: r.nextID, Slots: slots}
}

// FromState rebuilds a registry, rejecting states that break the dense-array
// or id invariants.
func FromState(s State) (*Registry, error) {
	r := &Registry{
		slots:  make([]Slot, 0, len(s.Slots)),
		byID:   make(map[uint64]int, len(s.Slots)),
		byKey:  make(map[string]uint64, len(s.Slots)),
		nextID: s.NextID,
	}
	for i, slot := range s.Slots {
		if slot.Index != i {
			return nil, fmt.Errorf("slot %d stored at index %d, want %d", slot.ID, slot.Index, i)
		}
		if slot.ID == 0 || slot.ID >= s.NextID {
			return nil, fmt.Errorf("slot id %d outside allocated range [1,%d)", slot.ID, s.NextID)
		}
		if _, dup := r.byID[slot.ID]; dup {
			return nil, fmt.Errorf("slot id %d repeated", slot.ID)
		}
		if _, dup := r.byKey[slot.Key]; dup {
			return nil, fmt.Errorf("slot key %q repeated", slot.Key)
		}
		r.slots = append(r.slots, slot)
		r.byID[slot.ID] = i
		r.byKey[slot.Key] = slot.ID
	}
	return r, nil
}
