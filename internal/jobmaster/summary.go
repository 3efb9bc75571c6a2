package jobmaster

import (
	"sort"

	"github.com/guihaojin/alluxio/internal/wire"
)

// sortByLastUpdatedDescIDAsc orders a group of plan statuses by
// last-updated-ms descending, ties broken by id ascending, per the
// get_summary contract.
func sortByLastUpdatedDescIDAsc(infos []wire.PlanStatus) {
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].LastUpdated != infos[j].LastUpdated {
			return infos[i].LastUpdated > infos[j].LastUpdated
		}
		return infos[i].ID < infos[j].ID
	})
}
