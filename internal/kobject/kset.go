package kobject

import "sync"

// KSet is a named grouping construct that owns its members: the strong
// references to grouped kobjects live here, while the members point back
// at the kset only through KObject.KSet.
type KSet struct {
	*Base

	memberMu sync.Mutex
	members  []KObject
}

func NewKSet(name string) *KSet {
	return &KSet{Base: NewBase(name)}
}

// Add inserts obj into the set. Idempotent by identity: adding a member
// that is already present is a no-op.
func (s *KSet) Add(obj KObject) {
	s.memberMu.Lock()
	defer s.memberMu.Unlock()
	for _, m := range s.members {
		if Same(m, obj) {
			return
		}
	}
	s.members = append(s.members, obj)
}

// Remove drops obj from the set by identity. Removing an absent member is
// a no-op.
func (s *KSet) Remove(obj KObject) {
	s.memberMu.Lock()
	defer s.memberMu.Unlock()
	kept := s.members[:0]
	for _, m := range s.members {
		if !Same(m, obj) {
			kept = append(kept, m)
		}
	}
	s.members = kept
}

// Contains reports membership by identity.
func (s *KSet) Contains(obj KObject) bool {
	s.memberMu.Lock()
	defer s.memberMu.Unlock()
	for _, m := range s.members {
		if Same(m, obj) {
			return true
		}
	}
	return false
}

// Members returns a snapshot of the current membership.
func (s *KSet) Members() []KObject {
	s.memberMu.Lock()
	defer s.memberMu.Unlock()
	out := make([]KObject, len(s.members))
	copy(out, s.members)
	return out
}

// Len returns the current member count.
func (s *KSet) Len() int {
	s.memberMu.Lock()
	defer s.memberMu.Unlock()
	return len(s.members)
}

// Join adds obj to the set and records the back-pointer on obj.
func (s *KSet) Join(obj KObject) {
	s.Add(obj)
	obj.SetKSet(s)
}

// Leave removes obj and clears its back-pointer if it points here.
func (s *KSet) Leave(obj KObject) {
	s.Remove(obj)
	if obj.KSet() == s {
		obj.SetKSet(nil)
	}
}

var _ KObject = (*KSet)(nil)
