package domain

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteGroupsCSV writes groups as a two-column table with a Group,Member
// header and one row per member, groups numbered from 1.
func WriteGroupsCSV(w io.Writer, groups []Group) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Group", "Member"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, g := range groups {
		label := fmt.Sprintf("Group %d", i+1)
		for _, member := range g {
			if err := cw.Write([]string{label, member}); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
