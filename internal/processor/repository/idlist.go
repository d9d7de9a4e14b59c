package repository

import (
	"database/sql/driver"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// IDList: 로스터 등에서 쓰이는 플레이어 ID 집합. jsonb 컬럼으로 저장된다.
// 직렬화 전에 항상 오름차순 정렬하여 동일 집합이 바이트 단위로 동일하게 기록되도록 한다.
type IDList []uint64

// Sorted: 오름차순으로 정렬된 복사본을 반환한다.
func (l IDList) Sorted() IDList {
	out := make(IDList, len(l))
	copy(out, l)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains: 주어진 ID가 포함되어 있는지 확인한다.
func (l IDList) Contains(id uint64) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Value: driver.Valuer 구현. 정렬된 JSON 배열로 직렬화한다.
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l.Sorted())
	if err != nil {
		return nil, fmt.Errorf("marshal id list failed: %w", err)
	}
	return string(data), nil
}

// Scan: sql.Scanner 구현. jsonb 컬럼 값을 역직렬화한다.
func (l *IDList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported id list column type: %T", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	if err := json.Unmarshal(data, l); err != nil {
		return fmt.Errorf("unmarshal id list failed: %w", err)
	}
	return nil
}
