package zulip

import (
	"encoding/json"
	"fmt"
)

// groupSet is the anonymous form of a group-valued stream setting.
type groupSet struct {
	DirectMembers   []int64 `json:"direct_members"`
	DirectSubgroups []int64 `json:"direct_subgroups"`
}

// RemoveGroupFromSetting returns the setting with groupID removed.
// A bare id equal to groupID collapses to an empty group set; in the
// object form only direct_subgroups is edited, direct member
// exceptions and other subgroups stay untouched. The second return is
// false when the setting does not include the group at all.
func RemoveGroupFromSetting(raw json.RawMessage, groupID int64) (json.RawMessage, bool, error) {
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		if id != groupID {
			return nil, false, nil
		}
		out, err := json.Marshal(groupSet{DirectMembers: []int64{}, DirectSubgroups: []int64{}})
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	}

	var set groupSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, false, fmt.Errorf("unrecognized group setting %s: %w", raw, err)
	}
	found := false
	subgroups := make([]int64, 0, len(set.DirectSubgroups))
	for _, g := range set.DirectSubgroups {
		if g == groupID {
			found = true
			continue
		}
		subgroups = append(subgroups, g)
	}
	if !found {
		return nil, false, nil
	}
	if set.DirectMembers == nil {
		set.DirectMembers = []int64{}
	}
	set.DirectSubgroups = subgroups
	out, err := json.Marshal(set)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}
