package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/replsim/timing/replacement"
)

// PolicyVictimFinder is an akita VictimFinder that delegates the choice of
// victim to a replacement.Policy. Empty ways are filled first; the policy is
// only consulted when every way of the set holds a block.
//
// Akita passes only the set to FindVictim, so the cache stages the request
// being served with SetRequest before asking the directory for a victim.
type PolicyVictimFinder struct {
	policy  replacement.Policy
	config  replacement.Config
	request replacement.Request
	lines   []replacement.Line
}

// NewPolicyVictimFinder creates a victim finder for a cache of the given
// replacement geometry.
func NewPolicyVictimFinder(
	policy replacement.Policy,
	config replacement.Config,
) *PolicyVictimFinder {
	return &PolicyVictimFinder{
		policy: policy,
		config: config,
		lines:  make([]replacement.Line, config.Associativity),
	}
}

// SetRequest records the access the next FindVictim call is made for.
func (f *PolicyVictimFinder) SetRequest(req replacement.Request) {
	f.request = req
}

// FindVictim returns the block to replace, or nil when the policy decides
// the incoming block should bypass the cache.
func (f *PolicyVictimFinder) FindVictim(set *akitacache.Set) *akitacache.Block {
	if len(set.Blocks) == 0 {
		return nil
	}

	for _, block := range set.Blocks {
		if !block.IsValid && !block.IsLocked {
			return block
		}
	}

	for i, block := range set.Blocks {
		f.lines[i] = f.lineOf(block)
	}

	way := f.policy.Victim(set.Blocks[0].SetID, f.lines, f.request)
	if way == replacement.Bypass {
		return nil
	}

	return set.Blocks[way]
}

func (f *PolicyVictimFinder) lineOf(block *akitacache.Block) replacement.Line {
	return replacement.Line{
		Tag:   f.config.Tag(block.Tag),
		Valid: block.IsValid,
		Dirty: block.IsDirty,
	}
}
