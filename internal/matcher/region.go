package matcher

import (
	"github.com/knachinen/darkmaptour-webscraping/internal/fuzzy"
	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
)

// RegionPrefilter nhận diện lv0 được nhắc tới trong query để thu hẹp tập ứng viên
type RegionPrefilter struct {
	gaz       *gazetteer.Gazetteer
	threshold int
}

// NewRegionPrefilter tạo prefilter trên gazetteer với ngưỡng partial ratio
func NewRegionPrefilter(gaz *gazetteer.Gazetteer, threshold int) *RegionPrefilter {
	return &RegionPrefilter{gaz: gaz, threshold: threshold}
}

// IdentifyRegion scores every distinct lv0 against query with PartialRatio and
// returns the best one reaching the threshold. Ties keep the lv0 seen first.
func (rp *RegionPrefilter) IdentifyRegion(query string) (string, int, bool) {
	best, bestScore := "", -1
	for _, lv0 := range rp.gaz.Regions() {
		if score := fuzzy.PartialRatio(lv0, query); score > bestScore {
			best, bestScore = lv0, score
		}
	}
	if bestScore < 0 || bestScore < rp.threshold {
		return "", 0, false
	}
	return best, bestScore, true
}

// Candidates trả về tập ứng viên cho region; nếu region không có bản ghi nào
// (hoặc không nhận diện được) thì dùng toàn bộ gazetteer.
func (rp *RegionPrefilter) Candidates(region string, identified bool) candidateSet {
	if identified {
		if idx := rp.gaz.RegionIndexes(region); len(idx) > 0 {
			return candidateSet{gaz: rp.gaz, idx: idx}
		}
	}
	return candidateSet{gaz: rp.gaz, all: true}
}

// candidateSet là MatchCandidateSet: một tập con theo thứ tự gazetteer
type candidateSet struct {
	gaz *gazetteer.Gazetteer
	idx []int
	all bool
}

func (cs candidateSet) Len() int {
	if cs.all {
		return cs.gaz.Len()
	}
	return len(cs.idx)
}

func (cs candidateSet) At(i int) gazetteer.AddressRecord {
	if cs.all {
		return cs.gaz.Record(i)
	}
	return cs.gaz.Record(cs.idx[i])
}

// Filtered cho biết tập ứng viên đã được thu hẹp theo region hay chưa
func (cs candidateSet) Filtered() bool { return !cs.all }
