package rating

import "math"

// PlayerState: 매치 반영 직전의 (rating, volatility) 스냅샷.
type PlayerState struct {
	Rating     float64
	Volatility float64
}

// MatchInput: 정책에 넘기는 한 플레이어분의 매치 신호.
// 팀원/상대 평균 레이팅은 이 매치 직전 시점 스냅샷에서 계산된 값이다.
type MatchInput struct {
	Won                   bool
	MatchCost             float64
	AverageTeammateRating float64 // 팀원이 없으면 본인 레이팅
	AverageOpponentRating float64
}

// Policy: 레이팅 갱신 공식의 교체 가능한 경계.
// 순수 함수여야 하며 상태 관리는 엔진이 전담한다.
type Policy interface {
	Update(before PlayerState, input MatchInput) PlayerState
}

// OnlinePolicy: 기본 정책. 로지스틱 기대 승률 기반의 온라인 갱신으로,
// 스텝 크기는 변동성에 비례하고 퍼포먼스(match cost)로 가중된다.
// 반영할수록 변동성이 수축해 신규 플레이어는 빠르게, 고참은 천천히 움직인다.
type OnlinePolicy struct {
	tuning Tuning
}

func NewOnlinePolicy(tuning Tuning) *OnlinePolicy {
	return &OnlinePolicy{tuning: tuning}
}

func (p *OnlinePolicy) Update(before PlayerState, input MatchInput) PlayerState {
	t := p.tuning

	expected := 1.0 / (1.0 + math.Pow(10, (input.AverageOpponentRating-before.Rating)/t.ScaleFactor))
	actual := 0.0
	if input.Won {
		actual = 1.0
	}

	weight := input.MatchCost
	if weight < t.MatchCostWeightMin {
		weight = t.MatchCostWeightMin
	}
	if weight > t.MatchCostWeightMax {
		weight = t.MatchCostWeightMax
	}

	k := before.Volatility / t.KDivisor
	rating := before.Rating + k*weight*(actual-expected)
	if rating < t.RatingFloor {
		rating = t.RatingFloor
	}

	volatility := before.Volatility * t.VolatilityContraction
	if volatility < t.MinVolatility {
		volatility = t.MinVolatility
	}

	return PlayerState{Rating: rating, Volatility: volatility}
}
