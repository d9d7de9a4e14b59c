package rating

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning: 레이팅 정책의 수치 파라미터. YAML 파일로 덮어쓸 수 있고
// 값이 없으면 기본값을 쓴다.
type Tuning struct {
	SeedRating     float64 `yaml:"seed_rating"`
	SeedVolatility float64 `yaml:"seed_volatility"`
	MinVolatility  float64 `yaml:"min_volatility"`
	MaxVolatility  float64 `yaml:"max_volatility"`

	// ScaleFactor: 기대 승률 로지스틱 곡선의 분모. (Elo 관례 400)
	ScaleFactor float64 `yaml:"scale_factor"`
	// KDivisor: 변동성 → 스텝 크기 변환 비율. K = volatility / k_divisor.
	KDivisor float64 `yaml:"k_divisor"`
	// VolatilityContraction: 매치 반영 때마다 변동성에 곱하는 수축 계수.
	VolatilityContraction float64 `yaml:"volatility_contraction"`
	// MatchCostWeightMin/Max: 퍼포먼스 가중이 스텝에 미치는 영향의 클램프 범위.
	MatchCostWeightMin float64 `yaml:"match_cost_weight_min"`
	MatchCostWeightMax float64 `yaml:"match_cost_weight_max"`

	RatingFloor float64 `yaml:"rating_floor"`

	// DecayDelayDays: 마지막 조정 이후 이 일수가 지나면 감쇠 대상이 된다.
	DecayDelayDays int `yaml:"decay_delay_days"`
	// DecayRate: 감쇠 1회당 깎이는 레이팅.
	DecayRate float64 `yaml:"decay_rate"`
	// DecayVolatilityGrowth: 감쇠 1회당 변동성에 제곱합으로 더해지는 값.
	DecayVolatilityGrowth float64 `yaml:"decay_volatility_growth"`
	// DecayFloor: 감쇠로는 이 아래로 내려가지 않는다.
	DecayFloor float64 `yaml:"decay_floor"`

	BatchSize int `yaml:"batch_size"`
}

// DefaultTuning: 운영 기본값.
func DefaultTuning() Tuning {
	return Tuning{
		SeedRating:            1500,
		SeedVolatility:        200,
		MinVolatility:         80,
		MaxVolatility:         300,
		ScaleFactor:           400,
		KDivisor:              4,
		VolatilityContraction: 0.97,
		MatchCostWeightMin:    0.5,
		MatchCostWeightMax:    1.5,
		RatingFloor:           100,
		DecayDelayDays:        120,
		DecayRate:             25,
		DecayVolatilityGrowth: 15,
		DecayFloor:            825,
		BatchSize:             500,
	}
}

// LoadTuning: YAML 파일에서 파라미터를 읽어 기본값 위에 덮는다. path가 비면 기본값 그대로.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning file failed: %w", err)
	}
	return t, nil
}
