package resource

import (
	"fmt"
	"strings"

	"github.com/apicoin/apicoin/internal/apperr"
	"github.com/apicoin/apicoin/internal/paging"
)

var (
	// ErrDuplicateResource is returned when an Add names a key that already has a slot.
	ErrDuplicateResource = apperr.New(apperr.KindDataIntegrity, "resource already added")
	// ErrIDKeyMismatch is returned when the key stored for an id differs from the supplied one.
	ErrIDKeyMismatch = apperr.New(apperr.KindDataIntegrity, "id/resourceId mismatch")
	// ErrInvalidOp covers malformed operations such as an Add carrying an id.
	ErrInvalidOp = apperr.New(apperr.KindDataIntegrity, "invalid resource operation")
)

const (
	DefaultID     uint64 = 1
	DefaultKey           = "default"
	DefaultWeight uint64 = 1
)

// OpKind selects the mutation an Op performs.
type OpKind int

const (
	OpAdd OpKind = iota
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k OpKind) MarshalText() ([]byte, error) {
	switch k {
	case OpAdd, OpUpdate, OpDelete:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("%s: %w", k, ErrInvalidOp)
	}
}

// UnmarshalText accepts add, update or delete in any case.
func (k *OpKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "add":
		*k = OpAdd
	case "update":
		*k = OpUpdate
	case "delete":
		*k = OpDelete
	default:
		return fmt.Errorf("op %q: %w", text, ErrInvalidOp)
	}
	return nil
}

// Op is a single tagged mutation. Add requires ID == 0.
type Op struct {
	ID     uint64 `json:"id"`
	Key    string `json:"resource_id"`
	Weight uint64 `json:"weight"`
	Kind   OpKind `json:"op"`
}

// Slot is a weighted resource entry. Index is its current position in the
// dense listing and changes when an earlier slot is deleted.
type Slot struct {
	ID     uint64 `json:"id"`
	Key    string `json:"resource_id"`
	Weight uint64 `json:"weight"`
	Index  int    `json:"index"`
}

// Registry is a compacting list of slots with stable ids. It is not safe for
// concurrent use; the owning ledger serialises access.
type Registry struct {
	slots  []Slot
	byID   map[uint64]int
	byKey  map[string]uint64
	nextID uint64
}

// NewRegistry returns a registry holding only the default slot.
func NewRegistry() *Registry {
	r := &Registry{
		byID:   make(map[uint64]int),
		byKey:  make(map[string]uint64),
		nextID: DefaultID,
	}
	r.add(DefaultKey, DefaultWeight)
	return r
}

// Apply validates and applies one operation.
func (r *Registry) Apply(op Op) error {
	switch op.Kind {
	case OpAdd:
		if op.ID != 0 {
			return fmt.Errorf("add %q with id %d: %w", op.Key, op.ID, ErrInvalidOp)
		}
		if _, exists := r.byKey[op.Key]; exists {
			return fmt.Errorf("add %q: %w", op.Key, ErrDuplicateResource)
		}
		r.add(op.Key, op.Weight)
		return nil
	case OpUpdate:
		pos, err := r.lookup(op)
		if err != nil {
			return err
		}
		r.slots[pos].Weight = op.Weight
		return nil
	case OpDelete:
		pos, err := r.lookup(op)
		if err != nil {
			return err
		}
		r.remove(pos)
		return nil
	default:
		return fmt.Errorf("%s: %w", op.Kind, ErrInvalidOp)
	}
}

// ApplyBatch applies ops in order. Either every op succeeds or the registry is
// left exactly as it was.
func (r *Registry) ApplyBatch(ops []Op) error {
	work := r.Clone()
	for i, op := range ops {
		if err := work.Apply(op); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	*r = *work
	return nil
}

// Get returns the slot currently assigned to id.
func (r *Registry) Get(id uint64) (Slot, bool) {
	pos, ok := r.byID[id]
	if !ok {
		return Slot{}, false
	}
	return r.slots[pos], true
}

// List returns a page of slots in index order and the total slot count.
func (r *Registry) List(offset, limit int) ([]Slot, int) {
	return paging.Slice(r.slots, offset, limit), len(r.slots)
}

// Len reports the number of live slots.
func (r *Registry) Len() int { return len(r.slots) }

// NextID is the id the next Add will receive.
func (r *Registry) NextID() uint64 { return r.nextID }

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		slots:  make([]Slot, len(r.slots)),
		byID:   make(map[uint64]int, len(r.byID)),
		byKey:  make(map[string]uint64, len(r.byKey)),
		nextID: r.nextID,
	}
	copy(c.slots, r.slots)
	for k, v := range r.byID {
		c.byID[k] = v
	}
	for k, v := range r.byKey {
		c.byKey[k] = v
	}
	return c
}

func (r *Registry) add(key string, weight uint64) {
	id := r.nextID
	r.nextID++
	pos := len(r.slots)
	r.slots = append(r.slots, Slot{ID: id, Key: key, Weight: weight, Index: pos})
	r.byID[id] = pos
	r.byKey[key] = id
}

func (r *Registry) lookup(op Op) (int, error) {
	pos, ok := r.byID[op.ID]
	if !ok || r.slots[pos].Key != op.Key {
		return 0, fmt.Errorf("%s id %d key %q: %w", op.Kind, op.ID, op.Key, ErrIDKeyMismatch)
	}
	return pos, nil
}

// remove swaps the last slot into pos and shrinks the array.
func (r *Registry) remove(pos int) {
	gone := r.slots[pos]
	last := len(r.slots) - 1
	if pos != last {
		moved := r.slots[last]
		moved.Index = pos
		r.slots[pos] = moved
		r.byID[moved.ID] = pos
	}
	r.slots = r.slots[:last]
	delete(r.byID, gone.ID)
	delete(r.byKey, gone.Key)
}
