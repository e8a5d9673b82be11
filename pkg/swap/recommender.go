package swap

import "sort"

// RecommendOptions 控制候选人列表的返回数量与最低得分
type RecommendOptions struct {
	MaxRecommendations int
	MinScore           float64
}

// DefaultRecommendOptions 返回默认选项
func DefaultRecommendOptions() *RecommendOptions {
	return &RecommendOptions{MaxRecommendations: 5, MinScore: 0}
}

// Recommend 对 RankCandidates 的结果应用最低分与数量上限过滤
func (s *CandidateScorer) Recommend(gap Gap, opts *RecommendOptions) []Candidate {
	if opts == nil {
		opts = DefaultRecommendOptions()
	}

	ranked := s.RankCandidates(gap)

	var filtered []Candidate
	for _, c := range ranked {
		if c.Score < opts.MinScore {
			continue
		}
		filtered = append(filtered, c)
		if opts.MaxRecommendations > 0 && len(filtered) >= opts.MaxRecommendations {
			break
		}
	}
	return filtered
}

func sortCandidatesByScoreDesc(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}
